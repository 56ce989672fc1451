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
	"go/constant"
	"go/token"

	"github.com/securego/conform"
	"github.com/securego/conform/literal"
	"github.com/securego/conform/matcher"
	"github.com/securego/conform/trusted"
)

// accessMatcher turns a property access matched by m into the reported match.
type accessMatcher func(e *propertyEngine, c *conform.Checker, n ast.Node, m *matcher.PropertyMatcher) *conform.Match

type propertyEngine struct {
	base
	match    accessMatcher
	matchers []*matcher.PropertyMatcher
}

func newPropertyEngine(match accessMatcher) engineBuilder {
	return func(ruleName string, cfg *Config, allowlist *conform.Allowlist) (Engine, error) {
		e := &propertyEngine{base: base{ruleName, cfg, allowlist}, match: match}
		for _, v := range cfg.Values {
			m, err := matcher.NewPropertyMatcher(v, cfg.UseTypedPropertyMatcher, cfg.IgnoreTypes...)
			if err != nil {
				return nil, err
			}
			e.matchers = append(e.matchers, m)
		}
		return e, nil
	}
}

func (e *propertyEngine) Register(c *conform.Checker) error {
	for _, m := range e.matchers {
		if err := m.Resolve(c.Program()); err != nil {
			return err
		}
		handler := e.wrap(func(c *conform.Checker, n ast.Node) *conform.Match {
			return e.match(e, c, n, m)
		})
		c.OnNamedPropertyAccess(m.Property, handler, e.cfg.ErrorCode)
		c.OnStringLiteralElementAccess(m.Property, handler, e.cfg.ErrorCode)
		c.OnNamedIdentifier(m.Property, handler, e.cfg.ErrorCode)
		if m.Typed {
			c.On((*ast.IndexExpr)(nil), e.wrap(func(c *conform.Checker, n ast.Node) *conform.Match {
				// constant keys are dispatched by name
				if v := c.Program().ConstValue(c.File(), n.(*ast.IndexExpr).Index); v != nil && v.Kind() == constant.String {
					return nil
				}
				return e.match(e, c, n, m)
			}), e.cfg.ErrorCode)
		}
	}
	return nil
}

func matchAccess(_ *propertyEngine, c *conform.Checker, n ast.Node, m *matcher.PropertyMatcher) *conform.Match {
	return m.Matches(c, n)
}

func matchWrite(e *propertyEngine, c *conform.Checker, n ast.Node, m *matcher.PropertyMatcher) *conform.Match {
	return e.matchWrite(c, n, m, false)
}

func matchNonConstantWrite(e *propertyEngine, c *conform.Checker, n ast.Node, m *matcher.PropertyMatcher) *conform.Match {
	return e.matchWrite(c, n, m, true)
}

func (e *propertyEngine) matchWrite(c *conform.Checker, n ast.Node, m *matcher.PropertyMatcher, skipLiterals bool) *conform.Match {
	match, rhs := matchAssignment(c, n, m)
	if match == nil {
		return nil
	}
	if skipLiterals && literal.IsLiteral(c, rhs) {
		c.Debugf("%s assigns a constant", c.Text(match.Node))
		return nil
	}
	if cfg := e.trustedType(); cfg != nil && trusted.IsTrusted(c, rhs, cfg) {
		c.Debugf("%s assigns a trusted value", c.Text(match.Node))
		return nil
	}
	return match
}

// matchAssignment matches property accesses written to by = or +=, and keys
// of struct literals. The match spans the whole assignment, and rhs is the
// value written.
func matchAssignment(c *conform.Checker, n ast.Node, m *matcher.PropertyMatcher) (*conform.Match, ast.Expr) {
	access := m.Matches(c, n)
	if access == nil {
		return nil, nil
	}
	var anchor ast.Node
	var rhs ast.Expr
	switch p := c.Parent(n).(type) {
	case *ast.KeyValueExpr:
		if p.Key != n {
			return nil, nil
		}
		anchor, rhs = p, p.Value
	case *ast.AssignStmt:
		if p.Tok != token.ASSIGN && p.Tok != token.ADD_ASSIGN {
			return nil, nil
		}
		i := indexOf(p.Lhs, n)
		switch {
		case i < 0:
			return nil, nil
		case len(p.Rhs) == len(p.Lhs):
			rhs = p.Rhs[i]
		case len(p.Rhs) == 1:
			rhs = p.Rhs[0]
		default:
			return nil, nil
		}
		anchor = p
	default:
		return nil, nil
	}
	return &conform.Match{Node: anchor, TypeMatch: access.TypeMatch, NameMatch: access.NameMatch}, rhs
}

func indexOf(exprs []ast.Expr, n ast.Node) int {
	for i, e := range exprs {
		if e == n {
			return i
		}
	}
	return -1
}
