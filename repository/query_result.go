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

package repository

import (
	"context"

	"github.com/datakitio/repokit/types"
)

// queryResult narrows a filtered repository to terminal read operations. A
// concrete wrapper, not an interface conversion, so a handle obtained through
// Find cannot be asserted back into a mutating Repository.
type queryResult[T any] struct {
	repo *modelRepository[T]
}

var _ QueryResult[struct{}] = (*queryResult[struct{}])(nil)

func (q *queryResult[T]) All(ctx context.Context) ([]*T, error) {
	return q.repo.All(ctx)
}

func (q *queryResult[T]) First(ctx context.Context) (*T, error) {
	return q.repo.First(ctx)
}

func (q *queryResult[T]) Count(ctx context.Context) (int, error) {
	return q.repo.Count(ctx)
}

func (q *queryResult[T]) Paginate(ctx context.Context, page *types.PageRequest) ([]*T, error) {
	return q.repo.Paginate(ctx, page)
}

func (q *queryResult[T]) PaginateWithTotal(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error) {
	return q.repo.PaginateWithTotal(ctx, page)
}
