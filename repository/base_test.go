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

package repository_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/datakitio/repokit/repository"
	"github.com/datakitio/repokit/types"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID       int64         `bun:"id,pk,autoincrement" json:"id"`
	Username string        `bun:"username,notnull" json:"username"`
	Email    string        `bun:"email,notnull" json:"email"`
	Metadata types.JSONMap `bun:"metadata" json:"metadata"`
}

var testDBSeq atomic.Int64

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repokit_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	sqldb.SetMaxIdleConns(8)
	sqldb.SetConnMaxLifetime(0)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	_, err = db.NewCreateTable().Model((*User)(nil)).Exec(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newUserRepo(t *testing.T) repository.Repository[User] {
	t.Helper()
	return repository.NewRepository[User](newTestDB(t))
}

func mustCreate(t *testing.T, repo repository.Repository[User], username, email string) *User {
	t.Helper()
	u := &User{Username: username, Email: email}
	require.NoError(t, repo.Create(context.Background(), u))
	require.NotZero(t, u.ID)
	return u
}

func TestCreateAndGetByID(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	u := &User{
		Username: "john_doe",
		Email:    "john@example.com",
		Metadata: types.JSONMap{"some_num": float64(99)},
	}
	require.NoError(t, repo.Create(ctx, u))
	require.NotZero(t, u.ID)

	fetched, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	require.Equal(t, u.ID, fetched.ID)
	require.Equal(t, "john_doe", fetched.Username)
	require.Equal(t, "john@example.com", fetched.Email)
	require.Equal(t, float64(99), fetched.Metadata["some_num"])

	second := mustCreate(t, repo, "joe", "joe@example.com")
	require.NotEqual(t, u.ID, second.ID)
}

func TestGetByIDAbsent(t *testing.T) {
	repo := newUserRepo(t)

	fetched, err := repo.GetByID(context.Background(), int64(123))
	require.NoError(t, err)
	require.Nil(t, fetched)
}

func TestGetByIDProjection(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()
	u := mustCreate(t, repo, "joe", "joe@example.com")

	fetched, err := repo.GetByID(ctx, u.ID, "username")
	require.NoError(t, err)
	require.NotNil(t, fetched)
	require.Equal(t, "joe", fetched.Username)
	require.Empty(t, fetched.Email)

	_, err = repo.GetByID(ctx, u.ID, "no_such_field")
	require.Error(t, err)
	require.True(t, repository.IsUnknownField(err))
}

func TestSave(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()

	u := &User{Username: "joe", Email: "joe@example.com"}
	require.NoError(t, repo.Save(ctx, u))
	require.NotZero(t, u.ID)

	u.Email = "new_email@example.com"
	require.NoError(t, repo.Save(ctx, u))

	fetched, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "new_email@example.com", fetched.Email)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestSaveOrUpdate(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()
	u := mustCreate(t, repo, "joe", "joe@example.com")

	// Existing id: the stored row is overwritten from the input.
	replacement := &User{ID: u.ID, Username: "joe", Email: "changed@example.com"}
	require.NoError(t, repo.SaveOrUpdate(ctx, replacement))

	fetched, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "changed@example.com", fetched.Email)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	// Unset pk: inserted as new.
	fresh := &User{Username: "bob", Email: "bob@example.com"}
	require.NoError(t, repo.SaveOrUpdate(ctx, fresh))
	require.NotZero(t, fresh.ID)

	// Explicit pk with no stored row: inserted as new.
	explicit := &User{ID: 777, Username: "zed", Email: "zed@example.com"}
	require.NoError(t, repo.SaveOrUpdate(ctx, explicit))

	count, err = repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, count)
}

func TestUpdatePartial(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()
	u := mustCreate(t, repo, "joe", "joe@example.com")

	require.NoError(t, repo.Update(ctx, u.ID, map[string]interface{}{"email": "updated@example.com"}))

	fetched, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "updated@example.com", fetched.Email)
	// Unspecified fields stay untouched.
	require.Equal(t, "joe", fetched.Username)
}

func TestUpdateRejectsUnknownField(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()
	u := mustCreate(t, repo, "joe", "joe@example.com")

	err := repo.Update(ctx, u.ID, map[string]interface{}{"password": "hunter2"})
	require.Error(t, err)
	require.True(t, repository.IsUnknownField(err))

	// The row is untouched after the rejected update.
	fetched, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "joe@example.com", fetched.Email)
}

func TestUpdateAll(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()
	mustCreate(t, repo, "joe", "joe@example.com")
	mustCreate(t, repo, "joe", "joe2@example.com")
	mustCreate(t, repo, "bob", "bob@example.com")

	filtered := repo.Filter(types.Eq("username", "joe"))
	require.NoError(t, filtered.UpdateAll(ctx, map[string]interface{}{"email": "joint@example.com"}))

	joes, err := filtered.All(ctx)
	require.NoError(t, err)
	require.Len(t, joes, 2)
	for _, u := range joes {
		require.Equal(t, "joint@example.com", u.Email)
	}

	bob, err := repo.Filter(types.Eq("username", "bob")).First(ctx)
	require.NoError(t, err)
	require.Equal(t, "bob@example.com", bob.Email)

	// Unfiltered UpdateAll touches every record.
	require.NoError(t, repo.UpdateAll(ctx, map[string]interface{}{"email": "all@example.com"}))
	all, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, u := range all {
		require.Equal(t, "all@example.com", u.Email)
	}
}

func TestDelete(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()
	u := mustCreate(t, repo, "joe", "joe@example.com")

	require.NoError(t, repo.Delete(ctx, u))

	fetched, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Nil(t, fetched)
}

func TestDeleteAll(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()
	mustCreate(t, repo, "joe", "joe@example.com")
	mustCreate(t, repo, "joe", "joe2@example.com")
	bob := mustCreate(t, repo, "bob", "bob@example.com")

	require.NoError(t, repo.Filter(types.Eq("username", "joe")).DeleteAll(ctx))

	all, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, bob.ID, all[0].ID)

	require.NoError(t, repo.DeleteAll(ctx))
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestFilter(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()
	mustCreate(t, repo, "john_doe", "john@example.com")
	mustCreate(t, repo, "joe", "joe@example.com")
	mustCreate(t, repo, "bob", "bob@example.com")

	users, err := repo.Filter(types.Eq("username", "joe")).All(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, "joe", users[0].Username)

	users, err = repo.Filter(types.Expr("username LIKE ?", "jo%")).All(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	users, err = repo.Filter(
		types.Expr("username LIKE ?", "jo%"),
		types.Eq("email", "joe@example.com"),
	).All(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)

	// No predicates: every record.
	users, err = repo.Filter().All(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)

	_, err = repo.Filter(types.Eq("no_such_field", 1)).All(ctx)
	require.Error(t, err)
	require.True(t, repository.IsUnknownField(err))
}

func TestFilterDoesNotMutateParent(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()
	mustCreate(t, repo, "joe", "joe@example.com")
	mustCreate(t, repo, "bob", "bob@example.com")

	filtered := repo.Filter(types.Eq("username", "joe"))
	narrower := filtered.Filter(types.Eq("email", "nobody@example.com"))

	users, err := filtered.All(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)

	users, err = narrower.All(ctx)
	require.NoError(t, err)
	require.Empty(t, users)

	users, err = repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
}

func TestFind(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()
	mustCreate(t, repo, "joe", "joe@example.com")
	mustCreate(t, repo, "bob", "bob@example.com")

	result := repo.Find(types.Expr("username LIKE ?", "jo%"))

	users, err := result.All(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)

	count, err := result.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	first, err := result.First(ctx)
	require.NoError(t, err)
	require.Equal(t, "joe", first.Username)

	missing, err := repo.Find(types.Eq("username", "nobody")).First(ctx)
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestFieldsProjection(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()
	mustCreate(t, repo, "joe", "joe@example.com")

	users, err := repo.Fields("id", "username").All(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.NotZero(t, users[0].ID)
	require.Equal(t, "joe", users[0].Username)
	require.Empty(t, users[0].Email)
}

func TestFirstEmpty(t *testing.T) {
	repo := newUserRepo(t)

	first, err := repo.First(context.Background())
	require.NoError(t, err)
	require.Nil(t, first)
}

func TestGetOr404(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()
	u := mustCreate(t, repo, "joe", "joe@example.com")

	fetched, err := repo.GetOr404(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.ID, fetched.ID)

	_, err = repo.GetOr404(ctx, int64(9999))
	require.Error(t, err)
	require.True(t, repository.IsNotFound(err))

	var nf *repository.NotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, 404, nf.StatusCode())
	require.Equal(t, "User with id 9999 not found", nf.Error())
}

func TestDeleteOr404(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()
	u := mustCreate(t, repo, "joe", "joe@example.com")

	require.NoError(t, repo.DeleteOr404(ctx, u.ID))

	fetched, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Nil(t, fetched)

	err = repo.DeleteOr404(ctx, u.ID)
	require.True(t, repository.IsNotFound(err))
}

func TestUpdateOr404(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()
	u := mustCreate(t, repo, "joe", "joe@example.com")

	require.NoError(t, repo.UpdateOr404(ctx, u.ID, map[string]interface{}{"email": "x@example.com"}))

	err := repo.UpdateOr404(ctx, int64(9999), map[string]interface{}{"email": "x@example.com"})
	require.True(t, repository.IsNotFound(err))
}

func TestWithSessionTransaction(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewRepository[User](db)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	require.NoError(t, err)

	bound := repo.WithSession(tx)

	// Two operations on one externally managed transaction: neither may
	// close the session, otherwise the second one fails.
	first := &User{Username: "joe", Email: "joe@example.com"}
	require.NoError(t, bound.Create(ctx, first))
	second := &User{Username: "bob", Email: "bob@example.com"}
	require.NoError(t, bound.Create(ctx, second))

	inTx, err := bound.All(ctx)
	require.NoError(t, err)
	require.Len(t, inTx, 2)

	require.NoError(t, tx.Commit())

	all, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestWithSessionRollback(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewRepository[User](db)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	require.NoError(t, err)

	bound := repo.WithSession(tx)
	require.NoError(t, bound.Create(ctx, &User{Username: "joe", Email: "joe@example.com"}))
	require.NoError(t, tx.Rollback())

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, count)
}
