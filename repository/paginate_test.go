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
	"fmt"
	"sort"
	"testing"

	"github.com/datakitio/repokit/repository"
	"github.com/datakitio/repokit/types"

	"github.com/stretchr/testify/require"
)

func seedUsers(t *testing.T, repo repository.Repository[User], n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		mustCreate(t, repo, fmt.Sprintf("user%d", i), fmt.Sprintf("user%d@example.com", i))
	}
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, n, count)
}

func usernames(users []*User) []string {
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Username)
	}
	return names
}

func TestPaginateWithTotal(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()
	seedUsers(t, repo, 12)

	page, err := repo.PaginateWithTotal(ctx, types.NewPageRequest(0, 4, "username", true))
	require.NoError(t, err)
	require.Equal(t, 12, page.Total)
	require.Equal(t, 0, page.Offset)
	require.Equal(t, 4, page.Limit)
	require.Len(t, page.Items, 4)

	// Descending by username: the first item carries the greatest name.
	names := usernames(page.Items)
	require.Equal(t, "user9", names[0])
	require.True(t, sort.SliceIsSorted(names, func(i, j int) bool { return names[i] > names[j] }))
}

func TestPaginateTotalIgnoresWindow(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()
	seedUsers(t, repo, 12)

	for _, pr := range []*types.PageRequest{
		types.NewPageRequest(0, 3, "username", false),
		types.NewPageRequest(6, 100, "username", false),
		types.NewPageRequest(100, 5, "username", false),
	} {
		page, err := repo.PaginateWithTotal(ctx, pr)
		require.NoError(t, err)
		require.Equal(t, 12, page.Total)
	}
}

func TestPaginateWindowsComposable(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()
	seedUsers(t, repo, 12)

	first, err := repo.Paginate(ctx, types.NewPageRequest(0, 4, "username", false))
	require.NoError(t, err)
	second, err := repo.Paginate(ctx, types.NewPageRequest(4, 4, "username", false))
	require.NoError(t, err)
	combined, err := repo.Paginate(ctx, types.NewPageRequest(0, 8, "username", false))
	require.NoError(t, err)

	require.Equal(t,
		usernames(combined),
		append(usernames(first), usernames(second)...))
}

func TestPaginateFiltered(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()
	seedUsers(t, repo, 12)
	mustCreate(t, repo, "bob", "bob@example.com")

	page, err := repo.
		Filter(types.Expr("username LIKE ?", "user%")).
		PaginateWithTotal(ctx, types.NewPageRequest(0, 5, "id", false))
	require.NoError(t, err)
	require.Equal(t, 12, page.Total)
	require.Len(t, page.Items, 5)
	require.Equal(t, "user0", page.Items[0].Username)
}

func TestPaginateDefaults(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()
	seedUsers(t, repo, 12)

	// Negative offset clamps to 0, non-positive limit falls back to 10.
	page, err := repo.PaginateWithTotal(ctx, types.NewPageRequest(-5, 0, "", false))
	require.NoError(t, err)
	require.Equal(t, 0, page.Offset)
	require.Equal(t, 10, page.Limit)
	require.Len(t, page.Items, 10)
	require.Equal(t, 12, page.Total)
}

func TestPaginateRejectsUnknownOrderField(t *testing.T) {
	repo := newUserRepo(t)
	ctx := context.Background()
	seedUsers(t, repo, 3)

	_, err := repo.Paginate(ctx, types.NewPageRequest(0, 4, "username; DROP TABLE users", true))
	require.Error(t, err)
	require.True(t, repository.IsUnknownField(err))
}
