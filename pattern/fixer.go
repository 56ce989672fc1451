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

package pattern

import (
	"fmt"
	"go/ast"
	"go/token"
	"strconv"

	"github.com/securego/conform"
	"github.com/securego/conform/matcher"
)

// Fixer proposes a fix for the node a failure is reported on.
type Fixer interface {
	GetFixForFailure(c *conform.Checker, n ast.Node) *conform.Fix
}

// ReplaceFixer replaces the value of the flagged node: the node itself for
// expressions, the assigned value for assignments and struct literal keys.
// The import is added when the file lacks it.
type ReplaceFixer struct {
	// Replace returns the replacement of the value, or false to propose nothing.
	Replace func(c *conform.Checker, value ast.Expr) (string, bool)
	// ImportPath is the package the replacement needs, if any.
	ImportPath string
}

// WrapWith proposes to wrap the value into a call of fn from importPath, such
// as WrapWith("github.com/google/safehtml", "HTMLEscaped").
func WrapWith(importPath, fn string) *ReplaceFixer {
	return &ReplaceFixer{
		ImportPath: importPath,
		Replace: func(c *conform.Checker, value ast.Expr) (string, bool) {
			text := c.Text(value)
			if text == "" {
				return "", false
			}
			name := importedName(c.File(), importPath)
			return fmt.Sprintf("%s.%s(%s)", name, fn, text), true
		},
	}
}

// GetFixForFailure implements Fixer.
func (f *ReplaceFixer) GetFixForFailure(c *conform.Checker, n ast.Node) *conform.Fix {
	value := fixedValue(n)
	if value == nil || f.Replace == nil {
		return nil
	}
	replacement, ok := f.Replace(c, value)
	if !ok {
		return nil
	}
	fix := conform.ReplaceNode(c.FileSet(), value, replacement)
	if f.ImportPath != "" {
		if change, ok := addImport(c, f.ImportPath); ok {
			fix.Changes = append([]conform.IndividualChange{change}, fix.Changes...)
		}
	}
	return &fix
}

func fixedValue(n ast.Node) ast.Expr {
	switch n := n.(type) {
	case *ast.AssignStmt:
		// a call assigned to several values cannot be wrapped
		if len(n.Lhs) == 1 && len(n.Rhs) == 1 {
			return n.Rhs[0]
		}
	case *ast.KeyValueExpr:
		return n.Value
	case ast.Expr:
		return n
	}
	return nil
}

// importedName returns the name the file refers to path by, guessing the
// package name when the file does not import it yet.
func importedName(file *ast.File, path string) string {
	for _, spec := range file.Imports {
		if p, err := strconv.Unquote(spec.Path.Value); err == nil && p == path && spec.Name != nil {
			return spec.Name.Name
		}
	}
	return matcher.PackageName(path)
}

// addImport builds the change importing path, after the last import
// declaration or else after the package clause.
func addImport(c *conform.Checker, path string) (conform.IndividualChange, bool) {
	file := c.File()
	for _, spec := range file.Imports {
		if p, err := strconv.Unquote(spec.Path.Value); err == nil && p == path {
			return conform.IndividualChange{}, false
		}
	}
	after := file.Name.End()
	prefix := "\n"
	for _, decl := range file.Decls {
		if gd, ok := decl.(*ast.GenDecl); ok && gd.Tok == token.IMPORT {
			after = gd.End()
		}
	}
	if after == file.Name.End() {
		prefix = "\n\n"
	}
	pos := c.FileSet().Position(after)
	return conform.IndividualChange{
		File:        pos.Filename,
		Start:       pos.Offset,
		End:         pos.Offset,
		Replacement: prefix + "import " + strconv.Quote(path),
	}, true
}
