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
	"errors"
	"fmt"
	"net/http"
)

// ErrNoEngine reports a repository that has neither a bound session nor an
// engine to create one. It is a configuration error and is never retried.
var ErrNoEngine = errors.New("repository: no session and no engine to create one")

// UnknownFieldError reports a caller-supplied field name that does not exist
// on the model schema. Raised before any SQL is built.
type UnknownFieldError struct {
	Model string
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("repository: model %s has no field %q", e.Model, e.Field)
}

// NotFoundError is raised by the *Or404 helpers when a record is absent. It
// carries an HTTP status so a web layer can surface it directly; the
// repository itself does not depend on any web framework.
type NotFoundError struct {
	Model string
	ID    interface{}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id %v not found", e.Model, e.ID)
}

// StatusCode returns the HTTP status for the error, always 404.
func (e *NotFoundError) StatusCode() int { return http.StatusNotFound }

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsUnknownField reports whether err is an UnknownFieldError.
func IsUnknownField(err error) bool {
	var uf *UnknownFieldError
	return errors.As(err, &uf)
}
