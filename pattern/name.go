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
	"go/ast"
	"go/token"

	"github.com/securego/conform"
	"github.com/securego/conform/matcher"
	"github.com/securego/conform/trusted"
)

type nameEngine struct {
	base
	banImport bool
	matchers  []*matcher.AbsoluteMatcher
}

func newNameEngine(banImport bool) engineBuilder {
	return func(ruleName string, cfg *Config, allowlist *conform.Allowlist) (Engine, error) {
		e := &nameEngine{base: base{ruleName, cfg, allowlist}, banImport: banImport}
		for _, v := range cfg.Values {
			m, err := matcher.NewAbsoluteMatcher(v, banImport)
			if err != nil {
				return nil, err
			}
			e.matchers = append(e.matchers, m)
		}
		return e, nil
	}
}

func (e *nameEngine) Register(c *conform.Checker) error {
	for _, m := range e.matchers {
		c.OnNamedIdentifier(m.IdentifierName(), e.wrap(func(c *conform.Checker, n ast.Node) *conform.Match {
			return e.checkIdentifier(c, n.(*ast.Ident), m)
		}), e.cfg.ErrorCode)
		if e.banImport && m.Name.IsPackage() {
			c.On((*ast.ImportSpec)(nil), e.wrap(func(c *conform.Checker, n ast.Node) *conform.Match {
				if !m.Matches(c, n) {
					return nil
				}
				return &conform.Match{Node: n, TypeMatch: conform.TypeMatchExact, NameMatch: conform.NameMatchExact}
			}), e.cfg.ErrorCode)
		}
	}
	return nil
}

func (e *nameEngine) checkIdentifier(c *conform.Checker, id *ast.Ident, m *matcher.AbsoluteMatcher) *conform.Match {
	whole := ast.Node(id)
	if sel, ok := c.Parent(id).(*ast.SelectorExpr); ok && sel.Sel == id {
		whole = sel
	}
	if isPolyfill(c, whole, m) {
		c.Debugf("%s is assigned, not used", c.Text(whole))
		return nil
	}
	if !m.Matches(c, id) {
		return nil
	}
	if isCalledWithTrustedType(c, whole, e.trustedType()) {
		return nil
	}
	return &conform.Match{Node: whole, TypeMatch: conform.TypeMatchExact, NameMatch: conform.NameMatchExact}
}

// isPolyfill reports a global symbol being replaced rather than used, as in
// http.DefaultClient = &http.Client{...}.
func isPolyfill(c *conform.Checker, n ast.Node, m *matcher.AbsoluteMatcher) bool {
	if m.Scope != matcher.ScopeGlobal {
		return false
	}
	as, ok := c.Parent(n).(*ast.AssignStmt)
	if !ok || as.Tok != token.ASSIGN {
		return false
	}
	for _, lhs := range as.Lhs {
		if lhs == n {
			return true
		}
	}
	return false
}

func isCalledWithTrustedType(c *conform.Checker, n ast.Node, cfg *trusted.Config) bool {
	if cfg == nil {
		return false
	}
	call, ok := c.Parent(n).(*ast.CallExpr)
	if !ok || call.Fun != n || len(call.Args) == 0 {
		return false
	}
	return trusted.IsTrusted(c, call.Args[0], cfg)
}
