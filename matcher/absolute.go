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

package matcher

import (
	"fmt"
	"go/ast"
	"go/types"
	"regexp"
	"strconv"
	"strings"

	"github.com/securego/conform"
)

// cgoPrefix is how cgo glues C symbols into the Go package: C.system becomes
// _Cfunc_system in the compiled files.
const cgoPrefix = "_Cfunc_"

// Scope restricts where a banned symbol may be declared.
type Scope int

const (
	// ScopeGlobal matches predeclared and standard library symbols only
	ScopeGlobal Scope = iota
	// ScopeAnySymbol matches any symbol with the name, wherever it is declared
	ScopeAnySymbol
	// ScopeCgo matches C symbols reached through cgo
	ScopeCgo
	// ScopePath matches symbols declared in files or packages matching a pattern
	ScopePath
)

func (s Scope) String() string {
	switch s {
	case ScopeGlobal:
		return "GLOBAL"
	case ScopeAnySymbol:
		return "ANY_SYMBOL"
	case ScopeCgo:
		return "CGO"
	case ScopePath:
		return "PATH"
	}
	return fmt.Sprintf("Scope(%d)", int(s))
}

// AbsoluteMatcher matches references to a symbol given its fully qualified
// name, such as "os/exec.Command". It is not aware of types: methods reached
// through embedding are matched by the name of the type declaring them.
//
// Declarations are never matched, and neither are the package names of
// imports. A renamed import of a banned package is matched when the matcher
// is built with matchImport, since the import is the only place a rename
// can be tracked without data flow.
type AbsoluteMatcher struct {
	Name        Name
	Scope       Scope
	MatchImport bool

	bannedName string
	pathFilter *regexp.Regexp
}

// NewAbsoluteMatcher parses a matcher spec. Accepted forms are
// "GLOBAL|name", "ANY_SYMBOL|name", "CGO|name", "<path regexp>|name" and a
// bare name, which is global.
func NewAbsoluteMatcher(spec string, matchImport bool) (*AbsoluteMatcher, error) {
	m := &AbsoluteMatcher{MatchImport: matchImport}
	scope, name, found := strings.Cut(spec, "|")
	if !found {
		scope, name = "GLOBAL", spec
	}
	var err error
	switch scope {
	case "GLOBAL":
		m.Scope = ScopeGlobal
		m.Name, err = ParseName(name)
	case "ANY_SYMBOL":
		m.Scope = ScopeAnySymbol
		m.Name, err = ParseName(name)
	case "CGO":
		m.Scope = ScopeCgo
		name = strings.TrimPrefix(strings.TrimSpace(name), "C.")
		if !identifierFormat.MatchString(name) {
			return nil, fmt.Errorf("%w: malformed cgo name %q", conform.ErrInvalidConfig, spec)
		}
		m.Name = Name{Rel: cgoPrefix + name}
	default:
		m.Scope = ScopePath
		if !pathNameFormat.MatchString(strings.Trim(scope, "^$")) {
			return nil, fmt.Errorf("%w: malformed path in matcher %q", conform.ErrInvalidConfig, spec)
		}
		m.pathFilter, err = regexp.Compile(scope)
		if err != nil {
			return nil, fmt.Errorf("%w: path in matcher %q: %v", conform.ErrInvalidConfig, spec, err)
		}
		m.Name, err = ParseName(name)
	}
	if err != nil {
		return nil, err
	}
	m.bannedName = m.Name.String()
	return m, nil
}

// BannedName is the name as compared against fully qualified names.
func (m *AbsoluteMatcher) BannedName() string {
	return m.bannedName
}

// IdentifierName is the identifier to watch for in source code.
func (m *AbsoluteMatcher) IdentifierName() string {
	return m.Name.Last()
}

func (m *AbsoluteMatcher) String() string {
	if m.Scope == ScopePath {
		return m.pathFilter.String() + "|" + m.bannedName
	}
	return m.Scope.String() + "|" + m.bannedName
}

// Matches reports whether n refers to the banned symbol. n is an identifier,
// or an import spec when the matcher matches imports.
func (m *AbsoluteMatcher) Matches(c *conform.Checker, n ast.Node) bool {
	switch n := n.(type) {
	case *ast.Ident:
		return m.matchIdent(c, n)
	case *ast.ImportSpec:
		return m.matchImport(c, n)
	}
	return false
}

func (m *AbsoluteMatcher) matchIdent(c *conform.Checker, id *ast.Ident) bool {
	prog := c.Program()
	c.Debugf("start matching %s against %s", id.Name, m)

	if prog.IsDefinition(c.File(), id) {
		c.Debugf("%s is declared here", id.Name)
		return false
	}

	obj := prog.ObjectOf(c.File(), id)
	if obj == nil {
		c.Debugf("cannot get object of %s", id.Name)
		return m.Scope == ScopeGlobal && m.matchSelectorChain(c, id)
	}
	obj = conform.Dealias(obj)

	fqn := prog.FullyQualifiedName(obj)
	rel := prog.RelativeName(obj)
	c.Debugf("got FQN %s", fqn)

	switch m.Scope {
	case ScopeGlobal:
		return fqn == m.bannedName && prog.IsStandardLibrary(obj)
	case ScopeAnySymbol:
		return fqn == m.bannedName || rel == m.bannedName || strings.HasSuffix(fqn, "/"+m.bannedName)
	case ScopeCgo:
		return rel == m.bannedName
	case ScopePath:
		if fqn != m.bannedName && rel != m.bannedName {
			return false
		}
		if pn, ok := obj.(*types.PkgName); ok {
			return m.pathFilter.MatchString(pn.Imported().Path())
		}
		if obj.Pkg() != nil && m.pathFilter.MatchString(obj.Pkg().Path()) {
			return true
		}
		return m.pathFilter.MatchString(prog.DeclarationFile(obj))
	}
	return false
}

func (m *AbsoluteMatcher) matchImport(c *conform.Checker, spec *ast.ImportSpec) bool {
	if !m.MatchImport || spec.Name == nil || !m.Name.IsPackage() {
		return false
	}
	path, err := strconv.Unquote(spec.Path.Value)
	if err != nil {
		return false
	}
	c.Debugf("start matching import %s %q against %s", spec.Name.Name, path, m)
	switch m.Scope {
	case ScopeGlobal:
		return path == m.bannedName && c.Program().IsStandardPackage(path)
	case ScopeAnySymbol:
		return path == m.bannedName || strings.HasSuffix(path, "/"+m.bannedName)
	case ScopePath:
		return m.pathFilter.MatchString(path) && (path == m.bannedName || PackageName(path) == m.bannedName)
	}
	return false
}

// matchSelectorChain handles identifiers without type information, such as
// code in files excluded from type checking: the selector chain ending with
// id must spell the banned name, e.g. exec.Command for os/exec.Command.
func (m *AbsoluteMatcher) matchSelectorChain(c *conform.Checker, id *ast.Ident) bool {
	want := m.Name.Rel
	if m.Name.PkgPath != "" {
		want = PackageName(m.Name.PkgPath) + "." + want
	}
	want = strings.TrimSuffix(want, ".")
	ids := strings.Split(want, ".")

	if len(ids) == 1 {
		return id.Name == ids[0]
	}
	sel, ok := c.Parent(id).(*ast.SelectorExpr)
	if !ok || sel.Sel != id || id.Name != ids[len(ids)-1] {
		return false
	}
	expr := sel.X
	for i := len(ids) - 2; i > 0; i-- {
		inner, ok := expr.(*ast.SelectorExpr)
		if !ok || inner.Sel.Name != ids[i] {
			return false
		}
		expr = inner.X
	}
	x, ok := expr.(*ast.Ident)
	return ok && x.Name == ids[0]
}
