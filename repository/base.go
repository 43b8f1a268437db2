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
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/datakitio/repokit/types"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

type modelRepository[T any] struct {
	db      *bun.DB
	session bun.IDB
	filters []types.Predicate
	fields  []string
}

// NewRepository returns a generic repository for T backed by the provided
// Bun DB. Each operation acquires its own connection unless the repository is
// bound to a session with WithSession.
func NewRepository[T any](db *bun.DB) Repository[T] {
	return &modelRepository[T]{db: db}
}

func (r *modelRepository[T]) clone() *modelRepository[T] {
	nr := &modelRepository[T]{db: r.db, session: r.session}
	nr.filters = append(nr.filters, r.filters...)
	nr.fields = append(nr.fields, r.fields...)
	return nr
}

func (r *modelRepository[T]) WithSession(session bun.IDB) Repository[T] {
	nr := r.clone()
	nr.session = session
	return nr
}

func (r *modelRepository[T]) Filter(preds ...types.Predicate) Repository[T] {
	nr := r.clone()
	nr.filters = append(nr.filters, preds...)
	return nr
}

func (r *modelRepository[T]) Fields(names ...string) Repository[T] {
	nr := r.clone()
	nr.fields = append(nr.fields, names...)
	return nr
}

func (r *modelRepository[T]) Find(preds ...types.Predicate) QueryResult[T] {
	nr := r.clone()
	nr.filters = append(nr.filters, preds...)
	return &queryResult[T]{repo: nr}
}

func (r *modelRepository[T]) Dialect() schema.Dialect {
	d, _ := r.dialect()
	return d
}

func (r *modelRepository[T]) dialect() (schema.Dialect, error) {
	switch {
	case r.db != nil:
		return r.db.Dialect(), nil
	case r.session != nil:
		return r.session.Dialect(), nil
	default:
		return nil, ErrNoEngine
	}
}

func (r *modelRepository[T]) table() (*schema.Table, error) {
	d, err := r.dialect()
	if err != nil {
		return nil, err
	}
	return d.Tables().Get(reflect.TypeFor[T]()), nil
}

// column resolves a caller-supplied field name to a column name, rejecting
// names absent from the model schema before any SQL is built.
func (r *modelRepository[T]) column(name string) (string, error) {
	t, err := r.table()
	if err != nil {
		return "", err
	}
	if f, ok := t.FieldMap[name]; ok {
		return f.Name, nil
	}
	return "", &UnknownFieldError{Model: t.TypeName, Field: name}
}

func (r *modelRepository[T]) pkField() (*schema.Field, error) {
	t, err := r.table()
	if err != nil {
		return nil, err
	}
	if len(t.PKs) != 1 {
		return nil, fmt.Errorf("repository: model %s must have exactly one primary key", t.TypeName)
	}
	return t.PKs[0], nil
}

// applyPredicates rebuilds the stored filter description onto a fresh
// statement. Equality predicates resolve their field name through the schema
// whitelist; raw predicates pass through with bound args.
func applyPredicates[T any, Q interface {
	Where(string, ...interface{}) Q
}](r *modelRepository[T], q Q) (Q, error) {
	for _, p := range r.filters {
		switch p.Kind {
		case types.PredicateEq:
			col, err := r.column(p.Field)
			if err != nil {
				var zero Q
				return zero, err
			}
			q = q.Where("? = ?", bun.Ident(col), p.Value)
		default:
			q = q.Where(p.Expr, p.Args...)
		}
	}
	return q, nil
}

func (r *modelRepository[T]) applySelect(q *bun.SelectQuery) (*bun.SelectQuery, error) {
	if len(r.fields) > 0 {
		cols := make([]string, len(r.fields))
		for i, name := range r.fields {
			col, err := r.column(name)
			if err != nil {
				return nil, err
			}
			cols[i] = col
		}
		q = q.Column(cols...)
	}
	return applyPredicates(r, q)
}

func (r *modelRepository[T]) Create(ctx context.Context, entity *T) error {
	return r.withSession(ctx, func(session bun.IDB) error {
		_, err := session.NewInsert().Model(entity).Returning("*").Exec(ctx)
		return err
	})
}

func (r *modelRepository[T]) GetByID(ctx context.Context, id interface{}, fields ...string) (*T, error) {
	pk, err := r.pkField()
	if err != nil {
		return nil, err
	}
	sel := r
	if len(fields) > 0 {
		sel = r.clone()
		sel.fields = append(sel.fields, fields...)
	}
	var entity T
	err = r.withSession(ctx, func(session bun.IDB) error {
		q, err := sel.applySelect(session.NewSelect().Model(&entity))
		if err != nil {
			return err
		}
		return q.Where("? = ?", bun.Ident(pk.Name), id).Scan(ctx)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &entity, nil
}

func (r *modelRepository[T]) Save(ctx context.Context, entity *T) error {
	pk, err := r.pkField()
	if err != nil {
		return err
	}
	strct := reflect.ValueOf(entity).Elem()
	return r.withSession(ctx, func(session bun.IDB) error {
		if pk.HasZeroValue(strct) {
			_, err := session.NewInsert().Model(entity).Returning("*").Exec(ctx)
			return err
		}
		if _, err := session.NewUpdate().Model(entity).WherePK().Exec(ctx); err != nil {
			return err
		}
		return session.NewSelect().Model(entity).WherePK().Scan(ctx)
	})
}

func (r *modelRepository[T]) SaveOrUpdate(ctx context.Context, entity *T) error {
	pk, err := r.pkField()
	if err != nil {
		return err
	}
	strct := reflect.ValueOf(entity).Elem()
	return r.withSession(ctx, func(session bun.IDB) error {
		if !pk.HasZeroValue(strct) {
			exists, err := session.NewSelect().
				Model((*T)(nil)).
				Where("? = ?", bun.Ident(pk.Name), pk.Value(strct).Interface()).
				Exists(ctx)
			if err != nil {
				return err
			}
			if exists {
				// Overwrite the stored row from the input; conflicting
				// concurrent writes resolve last-write-wins.
				if _, err := session.NewUpdate().Model(entity).WherePK().Exec(ctx); err != nil {
					return err
				}
				return session.NewSelect().Model(entity).WherePK().Scan(ctx)
			}
		}
		_, err := session.NewInsert().Model(entity).Returning("*").Exec(ctx)
		return err
	})
}

// sortedChanges validates every field name in changes against the model
// schema and returns the names in deterministic order.
func (r *modelRepository[T]) sortedChanges(changes map[string]interface{}) ([]string, []string, error) {
	if len(changes) == 0 {
		return nil, nil, errors.New("repository: no fields to update")
	}
	names := make([]string, 0, len(changes))
	for name := range changes {
		names = append(names, name)
	}
	sort.Strings(names)
	cols := make([]string, len(names))
	for i, name := range names {
		col, err := r.column(name)
		if err != nil {
			return nil, nil, err
		}
		cols[i] = col
	}
	return names, cols, nil
}

func (r *modelRepository[T]) Update(ctx context.Context, id interface{}, changes map[string]interface{}) error {
	pk, err := r.pkField()
	if err != nil {
		return err
	}
	names, cols, err := r.sortedChanges(changes)
	if err != nil {
		return err
	}
	return r.withSession(ctx, func(session bun.IDB) error {
		q := session.NewUpdate().Model((*T)(nil))
		for i, name := range names {
			q = q.Set("? = ?", bun.Ident(cols[i]), changes[name])
		}
		_, err := q.Where("? = ?", bun.Ident(pk.Name), id).Exec(ctx)
		return err
	})
}

func (r *modelRepository[T]) UpdateAll(ctx context.Context, changes map[string]interface{}) error {
	names, cols, err := r.sortedChanges(changes)
	if err != nil {
		return err
	}
	return r.withSession(ctx, func(session bun.IDB) error {
		q := session.NewUpdate().Model((*T)(nil))
		for i, name := range names {
			q = q.Set("? = ?", bun.Ident(cols[i]), changes[name])
		}
		q, err := applyPredicates(r, q)
		if err != nil {
			return err
		}
		if len(r.filters) == 0 {
			// Bun refuses UPDATE without a WHERE clause.
			q = q.Where("1 = 1")
		}
		_, err = q.Exec(ctx)
		return err
	})
}

func (r *modelRepository[T]) Delete(ctx context.Context, entity *T) error {
	return r.withSession(ctx, func(session bun.IDB) error {
		_, err := session.NewDelete().Model(entity).WherePK().Exec(ctx)
		return err
	})
}

func (r *modelRepository[T]) DeleteByID(ctx context.Context, id interface{}) error {
	pk, err := r.pkField()
	if err != nil {
		return err
	}
	return r.withSession(ctx, func(session bun.IDB) error {
		_, err := session.NewDelete().
			Model((*T)(nil)).
			Where("? = ?", bun.Ident(pk.Name), id).
			Exec(ctx)
		return err
	})
}

func (r *modelRepository[T]) DeleteAll(ctx context.Context) error {
	return r.withSession(ctx, func(session bun.IDB) error {
		q, err := applyPredicates(r, session.NewDelete().Model((*T)(nil)))
		if err != nil {
			return err
		}
		if len(r.filters) == 0 {
			// Bun refuses DELETE without a WHERE clause.
			q = q.Where("1 = 1")
		}
		_, err = q.Exec(ctx)
		return err
	})
}

func (r *modelRepository[T]) All(ctx context.Context) ([]*T, error) {
	var entities []*T
	err := r.withSession(ctx, func(session bun.IDB) error {
		q, err := r.applySelect(session.NewSelect().Model(&entities))
		if err != nil {
			return err
		}
		return q.Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *modelRepository[T]) First(ctx context.Context) (*T, error) {
	var entity T
	err := r.withSession(ctx, func(session bun.IDB) error {
		q, err := r.applySelect(session.NewSelect().Model(&entity))
		if err != nil {
			return err
		}
		return q.Limit(1).Scan(ctx)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &entity, nil
}

func (r *modelRepository[T]) Count(ctx context.Context) (int, error) {
	var total int
	err := r.withSession(ctx, func(session bun.IDB) error {
		q, err := applyPredicates(r, session.NewSelect().Model((*T)(nil)))
		if err != nil {
			return err
		}
		total, err = q.Count(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *modelRepository[T]) Paginate(ctx context.Context, page *types.PageRequest) ([]*T, error) {
	var entities []*T
	err := r.withSession(ctx, func(session bun.IDB) error {
		var err error
		entities, err = r.paginate(ctx, session, page)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *modelRepository[T]) PaginateWithTotal(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error) {
	pagination := types.NewDefaultPagination[T](page.GetOffset(), page.GetLimit())
	err := r.withSession(ctx, func(session bun.IDB) error {
		countQ, err := applyPredicates(r, session.NewSelect().Model((*T)(nil)))
		if err != nil {
			return err
		}
		total, err := countQ.Count(ctx)
		if err != nil {
			return err
		}
		items, err := r.paginate(ctx, session, page)
		if err != nil {
			return err
		}
		pagination.Total = total
		pagination.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pagination, nil
}

func (r *modelRepository[T]) paginate(ctx context.Context, session bun.IDB, page *types.PageRequest) ([]*T, error) {
	var entities []*T
	q, err := r.applySelect(session.NewSelect().Model(&entities))
	if err != nil {
		return nil, err
	}
	if orderBy := page.GetOrderBy(); orderBy != "" {
		col, err := r.column(orderBy)
		if err != nil {
			return nil, err
		}
		if page.IsDesc() {
			q = q.OrderExpr("? DESC", bun.Ident(col))
		} else {
			q = q.OrderExpr("? ASC", bun.Ident(col))
		}
	}
	if err := q.Offset(page.GetOffset()).Limit(page.GetLimit()).Scan(ctx); err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *modelRepository[T]) GetOr404(ctx context.Context, id interface{}) (*T, error) {
	entity, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		t, terr := r.table()
		if terr != nil {
			return nil, terr
		}
		return nil, &NotFoundError{Model: t.TypeName, ID: id}
	}
	return entity, nil
}

func (r *modelRepository[T]) DeleteOr404(ctx context.Context, id interface{}) error {
	entity, err := r.GetOr404(ctx, id)
	if err != nil {
		return err
	}
	return r.Delete(ctx, entity)
}

func (r *modelRepository[T]) UpdateOr404(ctx context.Context, id interface{}, changes map[string]interface{}) error {
	if _, err := r.GetOr404(ctx, id); err != nil {
		return err
	}
	return r.Update(ctx, id, changes)
}
