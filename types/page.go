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

package types

// PageRequest describes one page of an ordered result set. OrderBy names a
// model field and is validated against the model schema before any SQL is
// built; Desc flips the default ascending order.
type PageRequest struct {
	offset  int
	limit   int
	orderBy string
	desc    bool
}

// NewPageRequest constructs a PageRequest from an offset/limit window and an
// ordering field.
func NewPageRequest(offset, limit int, orderBy string, desc bool) *PageRequest {
	return &PageRequest{offset, limit, orderBy, desc}
}

func (p *PageRequest) GetOffset() int {
	if p.offset < 0 {
		p.offset = 0
	}
	return p.offset
}

func (p *PageRequest) GetLimit() int {
	if p.limit < 1 {
		p.limit = 10
	}
	return p.limit
}

func (p *PageRequest) GetOrderBy() string { return p.orderBy }

func (p *PageRequest) IsDesc() bool { return p.desc }

// Pagination holds one page of items plus the total count of the filtered
// set, independent of the offset/limit window.
type Pagination[T any] struct {
	Offset int
	Limit  int
	Total  int
	Items  []*T
}

// NewDefaultPagination constructs an empty pagination container for a window.
func NewDefaultPagination[T any](offset, limit int) *Pagination[T] {
	return &Pagination[T]{offset, limit, 0, make([]*T, 0)}
}
