/*
 * Copyright 2025 datakitio.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"
)

func TestIsSQLErrorMySQL(t *testing.T) {
	cases := []struct {
		number uint16
		class  SQLError
	}{
		{1062, DuplicateKeyErr},
		{1054, NoColumnErr},
		{1146, NoTableErr},
		{1048, NotNullViolationErr},
		{9999, UnknownErr},
	}
	for _, c := range cases {
		err := &mysql.MySQLError{Number: c.number, Message: "boom"}
		ok, class := IsSQLError(err)
		require.True(t, ok)
		require.Equal(t, c.class, class)
	}
}

func TestIsSQLErrorByMessage(t *testing.T) {
	cases := []struct {
		msg   string
		class SQLError
	}{
		{`ERROR: duplicate key value violates unique constraint "users_pkey" (SQLSTATE 23505)`, DuplicateKeyErr},
		{"UNIQUE constraint failed: users.username", DuplicateKeyErr},
		{"no such table: users", NoTableErr},
		{"no such column: nickname", NoColumnErr},
		{`ERROR: relation "users" already exists (SQLSTATE 42P07)`, ExistTableErr},
		{"NOT NULL constraint failed: users.email", NotNullViolationErr},
		{"FOREIGN KEY constraint failed", ForeignKeyViolationErr},
	}
	for _, c := range cases {
		ok, class := IsSQLError(errors.New(c.msg))
		require.True(t, ok, c.msg)
		require.Equal(t, c.class, class, c.msg)
	}
}

func TestIsSQLErrorUnrecognized(t *testing.T) {
	ok, class := IsSQLError(nil)
	require.False(t, ok)
	require.Equal(t, UnknownErr, class)

	ok, class = IsSQLError(fmt.Errorf("connection refused"))
	require.False(t, ok)
	require.Equal(t, UnknownErr, class)

	// A relation mentioned without "already exists" is not an existing-table
	// error.
	ok, _ = IsSQLError(errors.New(`ERROR: relation "users" does not exist`))
	require.False(t, ok)
}

func TestIsDuplicateKey(t *testing.T) {
	require.True(t, IsDuplicateKey(&mysql.MySQLError{Number: 1062, Message: "dup"}))
	require.True(t, IsDuplicateKey(errors.New("UNIQUE constraint failed: users.username")))
	require.False(t, IsDuplicateKey(errors.New("no such table: users")))
	require.False(t, IsDuplicateKey(nil))
}
