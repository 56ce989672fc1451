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

	"github.com/securego/conform"
	"github.com/securego/conform/trusted"
)

// Engine installs the handlers of a pattern rule on a Checker.
type Engine interface {
	Register(c *conform.Checker) error
}

type engineBuilder func(ruleName string, cfg *Config, allowlist *conform.Allowlist) (Engine, error)

// engineBuilders maps every kind to the constructor of its engine.
func engineBuilders() map[Kind]engineBuilder {
	return map[Kind]engineBuilder{
		BannedName:                     newNameEngine(false),
		BannedImportedName:             newNameEngine(true),
		BannedProperty:                 newPropertyEngine(matchAccess),
		BannedPropertyWrite:            newPropertyEngine(matchWrite),
		BannedPropertyNonConstantWrite: newPropertyEngine(matchNonConstantWrite),
	}
}

type matchFunc func(c *conform.Checker, n ast.Node) *conform.Match

// base holds what all engines share: reporting a match with fixes and
// confidence, unless the node is not worth examining.
type base struct {
	ruleName  string
	cfg       *Config
	allowlist *conform.Allowlist
}

func (b *base) trustedType() *trusted.Config {
	return b.cfg.AllowedTrustedType
}

func (b *base) wrap(match matchFunc) conform.Handler {
	return func(c *conform.Checker, n ast.Node) error {
		if !b.shouldExamine(c, n) {
			return nil
		}
		m := match(c, n)
		if m == nil {
			return nil
		}
		var fixes []conform.Fix
		for _, fixer := range b.cfg.Fixers {
			if fix := fixer.GetFixForFailure(c, m.Node); fix != nil {
				fixes = append(fixes, *fix)
			}
		}
		confidence, err := conform.GiveConfidence(m)
		if err != nil {
			return err
		}
		return c.AddFailureAtNode(m.Node, b.cfg.ErrorMessage, b.ruleName, b.allowlist,
			conform.WithFixes(fixes...), conform.WithConfidence(confidence))
	}
}

// shouldExamine skips generated files and names used as types: a banned
// symbol is only dangerous as a value.
func (b *base) shouldExamine(c *conform.Checker, n ast.Node) bool {
	if ast.IsGenerated(c.File()) {
		return false
	}
	return !inTypePosition(c, n)
}

// inTypePosition reports type expressions other than the type of a conversion
// or of a composite literal.
func inTypePosition(c *conform.Checker, n ast.Node) bool {
	expr, ok := n.(ast.Expr)
	if !ok {
		return false
	}
	if sel, ok := c.Parent(n).(*ast.SelectorExpr); ok && sel.Sel == n {
		expr = sel
	}
	if !c.Program().IsType(c.File(), expr) {
		return false
	}
	switch p := c.Parent(expr).(type) {
	case *ast.CallExpr:
		return p.Fun != expr
	case *ast.CompositeLit:
		return p.Type != expr
	}
	return true
}
