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

package repokit

import (
	"context"
	"sync"

	"github.com/datakitio/repokit/database"
	"github.com/datakitio/repokit/repository"
	"github.com/datakitio/repokit/types"

	"github.com/uptrace/bun"
)

type Service[T any] interface {
	// Get returns a single entity by its identifier, or nil when absent.
	Get(ctx context.Context, id any) (*T, error)

	// GetOr404 returns the entity or a NotFoundError carrying HTTP 404.
	GetOr404(ctx context.Context, id any) (*T, error)

	// All returns all entities.
	All(ctx context.Context) ([]*T, error)

	// Find returns a read-only deferred query over the given predicates.
	Find(preds ...types.Predicate) repository.QueryResult[T]

	// Page returns one ordered page of entities.
	Page(ctx context.Context, page *types.PageRequest) ([]*T, error)

	// PageWithTotal returns one ordered page plus the total count.
	PageWithTotal(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)

	// Create inserts a new entity and refreshes server-assigned fields.
	Create(ctx context.Context, model *T) error

	// Save persists the current state of an entity.
	Save(ctx context.Context, model *T) error

	// SaveOrUpdate inserts the entity or overwrites the stored row by id.
	SaveOrUpdate(ctx context.Context, model *T) error

	// Update applies a partial update of the named fields to one id.
	Update(ctx context.Context, id any, changes map[string]any) error

	// Delete removes an entity.
	Delete(ctx context.Context, model *T) error

	// DeleteByID removes an entity by its identifier.
	DeleteByID(ctx context.Context, id any) error

	// WithSession returns a Service scoped to an externally managed session,
	// typically a transaction the caller commits once.
	WithSession(session bun.IDB) Service[T]

	// Repo exposes the underlying repository for filtered bulk operations.
	Repo() repository.Repository[T]
}

type baseServiceImpl[T any] struct {
	repo repository.Repository[T]
	once sync.Once
}

// NewService returns a default Service implementation using the generic
// repository backed by the global database connection.
func NewService[T any]() Service[T] {
	return &baseServiceImpl[T]{}
}

// NewServiceWithRepository returns a Service over an explicit repository.
func NewServiceWithRepository[T any](repo repository.Repository[T]) Service[T] {
	s := &baseServiceImpl[T]{repo: repo}
	s.once.Do(func() {})
	return s
}

func (s *baseServiceImpl[T]) baseRepo() repository.Repository[T] {
	s.once.Do(func() { s.repo = repository.NewRepository[T](database.GetDB()) })
	return s.repo
}

func (s *baseServiceImpl[T]) Get(ctx context.Context, id any) (*T, error) {
	return s.baseRepo().GetByID(ctx, id)
}

func (s *baseServiceImpl[T]) GetOr404(ctx context.Context, id any) (*T, error) {
	return s.baseRepo().GetOr404(ctx, id)
}

func (s *baseServiceImpl[T]) All(ctx context.Context) ([]*T, error) {
	return s.baseRepo().All(ctx)
}

func (s *baseServiceImpl[T]) Find(preds ...types.Predicate) repository.QueryResult[T] {
	return s.baseRepo().Find(preds...)
}

func (s *baseServiceImpl[T]) Page(ctx context.Context, page *types.PageRequest) ([]*T, error) {
	return s.baseRepo().Paginate(ctx, page)
}

func (s *baseServiceImpl[T]) PageWithTotal(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error) {
	return s.baseRepo().PaginateWithTotal(ctx, page)
}

func (s *baseServiceImpl[T]) Create(ctx context.Context, model *T) error {
	return s.baseRepo().Create(ctx, model)
}

func (s *baseServiceImpl[T]) Save(ctx context.Context, model *T) error {
	return s.baseRepo().Save(ctx, model)
}

func (s *baseServiceImpl[T]) SaveOrUpdate(ctx context.Context, model *T) error {
	return s.baseRepo().SaveOrUpdate(ctx, model)
}

func (s *baseServiceImpl[T]) Update(ctx context.Context, id any, changes map[string]any) error {
	return s.baseRepo().Update(ctx, id, changes)
}

func (s *baseServiceImpl[T]) Delete(ctx context.Context, model *T) error {
	return s.baseRepo().Delete(ctx, model)
}

func (s *baseServiceImpl[T]) DeleteByID(ctx context.Context, id any) error {
	return s.baseRepo().DeleteByID(ctx, id)
}

func (s *baseServiceImpl[T]) WithSession(session bun.IDB) Service[T] {
	return NewServiceWithRepository[T](s.baseRepo().WithSession(session))
}

func (s *baseServiceImpl[T]) Repo() repository.Repository[T] {
	return s.baseRepo()
}
