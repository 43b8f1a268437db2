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

// PredicateKind distinguishes the two predicate constructors.
type PredicateKind int

const (
	// PredicateEq compares a named model field for equality against a value.
	// The field name is resolved and validated against the model schema when
	// the statement is built, never interpolated from caller input.
	PredicateEq PredicateKind = iota
	// PredicateExpr is an opaque boolean SQL expression with positional args.
	PredicateExpr
)

// Predicate is one immutable condition of a deferred query description.
// Build values with Eq or Expr; the zero value matches nothing useful.
type Predicate struct {
	Kind  PredicateKind
	Field string
	Value interface{}
	Expr  string
	Args  []interface{}
}

// Eq creates an equality predicate on a named model field.
func Eq(field string, value interface{}) Predicate {
	return Predicate{Kind: PredicateEq, Field: field, Value: value}
}

// Expr creates a raw predicate from a WHERE expression and its arguments,
// e.g. Expr("username LIKE ?", "jo%"). Values must be passed as args.
func Expr(expr string, args ...interface{}) Predicate {
	return Predicate{Kind: PredicateExpr, Expr: expr, Args: args}
}
