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

// Package literal tells apart values written in the source code from values
// computed at run time.
package literal

import (
	"go/ast"
	"go/token"
	"go/types"

	"github.com/securego/conform"
)

// IsLiteral reports whether expr is fixed by the source code: a literal, a
// concatenation of literals, a named constant or another constant
// expression. Variables never are, and neither is anything converted on the
// way, since a conversion is how a computed value gets passed off as a safe one.
func IsLiteral(c *conform.Checker, expr ast.Expr) bool {
	prog, file := c.Program(), c.File()
	switch e := expr.(type) {
	case *ast.BasicLit:
		return true
	case *ast.ParenExpr:
		return IsLiteral(c, e.X)
	case *ast.UnaryExpr:
		if e.Op == token.AND || e.Op == token.ARROW {
			return false
		}
		return IsLiteral(c, e.X)
	case *ast.BinaryExpr:
		if e.Op == token.ADD {
			return IsLiteral(c, e.X) && IsLiteral(c, e.Y)
		}
	case *ast.Ident:
		return isConst(prog.ObjectOf(file, e))
	case *ast.SelectorExpr:
		if id, ok := e.X.(*ast.Ident); ok {
			if _, ok := prog.ObjectOf(file, id).(*types.PkgName); ok {
				return isConst(prog.ObjectOf(file, e.Sel))
			}
		}
		return false
	}
	if containsConversion(c, expr) {
		return false
	}
	return prog.ConstValue(file, expr) != nil
}

func isConst(obj types.Object) bool {
	_, ok := obj.(*types.Const)
	return ok
}

func containsConversion(c *conform.Checker, expr ast.Expr) bool {
	found := false
	ast.Inspect(expr, func(n ast.Node) bool {
		if call, ok := n.(*ast.CallExpr); ok && c.Program().IsConversion(c.File(), call) {
			found = true
		}
		return !found
	})
	return found
}
