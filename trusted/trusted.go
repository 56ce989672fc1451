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

package trusted

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/securego/conform"
)

// IsTrusted reports whether expr carries a value of the trusted type. The
// recognized forms are:
//
//	v                 v of the trusted type, or of a type parameter embedding it
//	string(v)         v of the trusted type
//	any(v).(string)   v of the trusted type
//	string(t)         t of a type parameter whose union contains the type
//	f(v, ...)         any call taking a value of the trusted type first
func IsTrusted(c *conform.Checker, expr ast.Expr, cfg *Config) bool {
	if cfg == nil || expr == nil {
		return false
	}
	expr = astutil.Unparen(expr)
	prog, file := c.Program(), c.File()

	if isAllowedType(prog, prog.TypeOf(file, expr), cfg, true) {
		c.Debugf("%s has a trusted type", c.Text(expr))
		return true
	}

	switch e := expr.(type) {
	case *ast.TypeAssertExpr:
		// any(v).(string)
		if e.Type == nil || !isString(prog.TypeOf(file, e.Type)) {
			return false
		}
		inner, ok := astutil.Unparen(e.X).(*ast.CallExpr)
		if !ok || !prog.IsConversion(file, inner) || !isInterface(prog.TypeOf(file, inner)) {
			return false
		}
		return isAllowedType(prog, prog.TypeOf(file, inner.Args[0]), cfg, false)
	case *ast.CallExpr:
		if prog.IsConversion(file, e) {
			// string(v), including type parameters with the type in their union
			if !isString(prog.TypeOf(file, e)) {
				return false
			}
			return isAllowedType(prog, prog.TypeOf(file, e.Args[0]), cfg, false)
		}
		// the receiver does not count: h.Wrap(s) is not an unwrapper
		return len(e.Args) > 0 && isAllowedType(prog, prog.TypeOf(file, e.Args[0]), cfg, false)
	}
	return false
}

// isAllowedType tests t, looking through pointers and type parameter
// constraints.
func isAllowedType(prog *conform.Program, t types.Type, cfg *Config, allowAmbient bool) bool {
	return allowedType(prog, t, cfg, allowAmbient, make(map[types.Type]bool))
}

func allowedType(prog *conform.Program, t types.Type, cfg *Config, allowAmbient bool, seen map[types.Type]bool) bool {
	if t == nil || seen[t] {
		return false
	}
	seen[t] = true
	t = types.Unalias(t)
	if p, ok := t.(*types.Pointer); ok {
		t = types.Unalias(p.Elem())
	}
	if tp, ok := t.(*types.TypeParam); ok {
		iface, _ := tp.Constraint().Underlying().(*types.Interface)
		if iface == nil {
			return false
		}
		for i := 0; i < iface.NumEmbeddeds(); i++ {
			embedded := iface.EmbeddedType(i)
			if u, ok := embedded.(*types.Union); ok {
				for j := 0; j < u.Len(); j++ {
					if allowedType(prog, u.Term(j).Type(), cfg, allowAmbient, seen) {
						return true
					}
				}
				continue
			}
			if allowedType(prog, embedded, cfg, allowAmbient, seen) {
				return true
			}
		}
		return false
	}
	return isAllowedSymbol(prog, conform.TypeNameOf(t), cfg, allowAmbient)
}

func isAllowedSymbol(prog *conform.Program, tn *types.TypeName, cfg *Config, allowAmbient bool) bool {
	if tn == nil {
		return false
	}
	fqn := prog.FullyQualifiedName(tn)
	if allowAmbient && cfg.AllowAmbientDeclaration && cfg.AmbientTypeName != "" &&
		fqn == cfg.AmbientTypeName && prog.IsStandardLibrary(tn) {
		return true
	}
	if tn.Name() != cfg.TypeName || tn.Pkg() == nil || cfg.ModulePathMatcher == "" {
		return false
	}
	return strings.Contains(tn.Pkg().Path(), cfg.ModulePathMatcher) ||
		strings.Contains(prog.DeclarationFile(tn), cfg.ModulePathMatcher)
}

func isString(t types.Type) bool {
	if t == nil {
		return false
	}
	b, ok := t.Underlying().(*types.Basic)
	return ok && b.Info()&types.IsString != 0
}

func isInterface(t types.Type) bool {
	return t != nil && types.IsInterface(t)
}
