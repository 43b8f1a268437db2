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

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// CrudRepository defines single-record and bulk mutation operations for a
// generic entity type. Persistence errors from the underlying session
// propagate unchanged; there is no retry or translation.
type CrudRepository[T any] interface {
	// Create persists a new entity and refreshes it with server-assigned
	// values such as the generated primary key.
	Create(ctx context.Context, entity *T) error

	// GetByID fetches an entity by primary key. Absence is a valid outcome
	// and returns (nil, nil), never an error. Optional field names restrict
	// the selected columns; unknown names are a configuration error.
	GetByID(ctx context.Context, id interface{}, fields ...string) (*T, error)

	// Save persists the current state of the entity, inserting when the
	// primary key is unset and updating otherwise, then refreshes it.
	Save(ctx context.Context, entity *T) error

	// SaveOrUpdate looks the entity up by primary key: when a row exists its
	// columns are overwritten from the input, otherwise the input is
	// inserted. Conflicting concurrent writes resolve last-write-wins under
	// the storage engine's isolation.
	SaveOrUpdate(ctx context.Context, entity *T) error

	// Update issues a partial update of the named fields for one id. Field
	// names are validated against the model schema and values are always
	// bound as parameters.
	Update(ctx context.Context, id interface{}, changes map[string]interface{}) error

	// UpdateAll applies a partial update to every record matching the
	// repository's current filter, or to all records when unfiltered.
	UpdateAll(ctx context.Context, changes map[string]interface{}) error

	// Delete removes the entity identified by its primary key.
	Delete(ctx context.Context, entity *T) error

	// DeleteByID removes the record with the given primary key.
	DeleteByID(ctx context.Context, id interface{}) error

	// DeleteAll removes every record matching the repository's current
	// filter, or all records when unfiltered.
	DeleteAll(ctx context.Context) error
}

// QueryResult is the read-only terminal surface of a deferred query. A
// filtered handle narrowed to this interface cannot mutate the filtered set.
type QueryResult[T any] interface {
	All(ctx context.Context) ([]*T, error)

	// First returns the first matching entity, or (nil, nil) when the
	// result set is empty.
	First(ctx context.Context) (*T, error)

	// Count computes the size of the filtered set over the query, not by
	// materializing rows.
	Count(ctx context.Context) (int, error)

	Paginate(ctx context.Context, page *types.PageRequest) ([]*T, error)

	// PaginateWithTotal returns one page plus the total count of the full
	// filtered set, independent of the page window.
	PaginateWithTotal(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)
}

// ExistenceRepository converts absence into a structured 404 error for use at
// an API boundary.
type ExistenceRepository[T any] interface {
	GetOr404(ctx context.Context, id interface{}) (*T, error)
	DeleteOr404(ctx context.Context, id interface{}) error
	UpdateOr404(ctx context.Context, id interface{}, changes map[string]interface{}) error
}

// Repository combines CRUD, querying, and existence helpers and supports
// deriving filtered or session-bound instances. Derived instances never
// mutate their parent.
type Repository[T any] interface {
	CrudRepository[T]
	QueryResult[T]
	ExistenceRepository[T]

	// WithSession returns a shallow clone scoped to the given session. The
	// session stays caller-owned and is never closed by the repository.
	WithSession(session bun.IDB) Repository[T]

	// Filter returns a clone carrying the given predicates as its deferred
	// query description. All subsequent operations, including UpdateAll and
	// DeleteAll, run against the filtered set.
	Filter(preds ...types.Predicate) Repository[T]

	// Fields returns a clone that selects only the named columns.
	Fields(names ...string) Repository[T]

	// Find is the read-only counterpart of Filter: the result exposes
	// terminal query operations but no mutations.
	Find(preds ...types.Predicate) QueryResult[T]

	Dialect() schema.Dialect
}
