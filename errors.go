// (c) Copyright gosec's authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package conform

import (
	"errors"
	"sort"
)

var (
	// ErrInvalidConfig is wrapped by every error caused by a broken rule or
	// matcher definition.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrNoTraversal is returned when a failure is recorded outside Execute.
	ErrNoTraversal = errors.New("no traversal in progress")
	// ErrSpanOutOfBounds is returned when a failure span does not fit in the current file.
	ErrSpanOutOfBounds = errors.New("span out of bounds")
)

// Error is used when there are golang errors while parsing the AST
type Error struct {
	Line   int    `json:"line" yaml:"line"`
	Column int    `json:"column" yaml:"column"`
	Err    string `json:"error" yaml:"error"`
}

// NewError creates Error object
func NewError(line, column int, err string) *Error {
	return &Error{
		Line:   line,
		Column: column,
		Err:    err,
	}
}

// sortErrors sorts the golang errors by line
func sortErrors(allErrors map[string][]Error) {
	for _, errs := range allErrors {
		sort.Slice(errs, func(i, j int) bool {
			if errs[i].Line == errs[j].Line {
				return errs[i].Column <= errs[j].Column
			}
			return errs[i].Line < errs[j].Line
		})
	}
}
