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

	"github.com/uptrace/bun"
)

// withSession resolves the unit of work for exactly one operation. A bound
// session is used as-is and stays open: the caller owns it. Otherwise a
// dedicated connection is taken from the engine pool and released on every
// exit path. With neither a session nor an engine the operation fails fast
// with ErrNoEngine.
func (r *modelRepository[T]) withSession(ctx context.Context, fn func(session bun.IDB) error) error {
	if r.session != nil {
		return fn(r.session)
	}
	if r.db == nil {
		return ErrNoEngine
	}
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()
	return fn(conn)
}
