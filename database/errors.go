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
	"strings"

	"github.com/go-sql-driver/mysql"
)

// SQLError classifies persistence failures across the supported dialects.
// The repository layer propagates errors unchanged; this helper exists for
// callers that need to branch on the failure class.
type SQLError int

const (
	UnknownErr SQLError = iota
	NoRowsErr
	NoColumnErr
	NoTableErr
	ExistTableErr
	DuplicateKeyErr
	NotNullViolationErr
	ForeignKeyViolationErr
	CheckConstraintViolationErr
	DataTruncatedErr
	InvalidTypeCastErr
)

var mysqlErrorNumbers = map[uint16]SQLError{
	1054: NoColumnErr,
	1062: DuplicateKeyErr,
	1048: NotNullViolationErr,
	1216: ForeignKeyViolationErr,
	1217: ForeignKeyViolationErr,
	3819: CheckConstraintViolationErr,
	1265: DataTruncatedErr,
	1146: NoTableErr,
	1050: ExistTableErr,
}

// Postgres reports SQLSTATE codes inside the message via lib/pq; SQLite (and
// some pq paths) only give message text, so both are matched by substring.
var sqlErrorMatchers = []struct {
	class    SQLError
	keywords []string
}{
	{NoColumnErr, []string{"sqlstate 42703", "undefined column", "no such column"}},
	{NoTableErr, []string{"sqlstate 42p01", "undefined table", "no such table"}},
	{ExistTableErr, []string{"sqlstate 42p07", "relation \"", "table already exists"}},
	{DuplicateKeyErr, []string{"duplicate key value", "unique constraint failed", "sqlstate 23505"}},
	{NotNullViolationErr, []string{"not-null constraint", "sqlstate 23502", "not null constraint failed"}},
	{ForeignKeyViolationErr, []string{"foreign key violation", "foreign key constraint failed", "sqlstate 23503"}},
	{CheckConstraintViolationErr, []string{"check constraint", "sqlstate 23514"}},
	{DataTruncatedErr, []string{"string data right truncation", "sqlstate 22001", "data truncated"}},
	{InvalidTypeCastErr, []string{"datatype mismatch", "sqlstate 42804"}},
}

// IsSQLError reports whether err is a recognizable database error and, if
// so, its classification.
func IsSQLError(err error) (bool, SQLError) {
	if err == nil {
		return false, UnknownErr
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		if class, ok := mysqlErrorNumbers[mysqlErr.Number]; ok {
			return true, class
		}
		return true, UnknownErr
	}
	s := strings.ToLower(err.Error())
	for _, m := range sqlErrorMatchers {
		for _, kw := range m.keywords {
			if strings.Contains(s, kw) {
				// "relation ..." only signals an existing table together
				// with the "already exists" suffix.
				if m.class == ExistTableErr && kw == "relation \"" && !strings.Contains(s, "already exists") {
					continue
				}
				return true, m.class
			}
		}
	}
	return false, UnknownErr
}

// IsDuplicateKey reports whether err is a uniqueness violation.
func IsDuplicateKey(err error) bool {
	ok, class := IsSQLError(err)
	return ok && class == DuplicateKeyErr
}
