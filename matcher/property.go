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
	"go/constant"
	"go/types"
	"strings"
	"sync"

	"github.com/securego/conform"
)

// PropertyMatcher matches accesses to a property of a holder type: field and
// method selections (x.Prop), constant keyed index expressions on map types
// (x["Prop"]) and keys of struct literals (T{Prop: v}).
//
// The legacy mode compares qualified type names only, looking through
// pointers, type set terms and embedded types. The typed mode resolves the
// holder type once per program and grades the relation of the inspected type
// to it.
type PropertyMatcher struct {
	PkgPath  string
	TypeName string
	Property string
	Typed    bool

	holder string
	ignore map[string]bool

	mu       sync.Mutex
	resolved map[*conform.Program]types.Type
}

// NewPropertyMatcher parses a spec of the form "importpath.Type.Property", or
// "Type.Property" for predeclared types. ignoreTypes lists qualified type
// names the typed mode must never match.
func NewPropertyMatcher(spec string, typed bool, ignoreTypes ...string) (*PropertyMatcher, error) {
	name, err := ParseName(spec)
	if err != nil {
		return nil, err
	}
	typeName, prop, found := strings.Cut(name.Rel, ".")
	if !found || typeName == "" || prop == "" || strings.Contains(prop, ".") {
		return nil, fmt.Errorf("%w: property spec %q must be importpath.Type.Property", conform.ErrInvalidConfig, spec)
	}
	m := &PropertyMatcher{
		PkgPath:  name.PkgPath,
		TypeName: typeName,
		Property: prop,
		Typed:    typed,
		holder:   Name{PkgPath: name.PkgPath, Rel: typeName}.String(),
		ignore:   make(map[string]bool, len(ignoreTypes)),
		resolved: make(map[*conform.Program]types.Type),
	}
	for _, t := range ignoreTypes {
		ignored, err := ParseName(t)
		if err != nil {
			return nil, err
		}
		m.ignore[ignored.String()] = true
	}
	return m, nil
}

// Holder is the qualified name of the type holding the property.
func (m *PropertyMatcher) Holder() string {
	return m.holder
}

func (m *PropertyMatcher) String() string {
	return m.holder + "." + m.Property
}

// Resolve looks the holder type up in prog and caches it. A package missing
// from the import graph is not an error: nothing can match in that program.
// A type missing from a package of the graph is.
func (m *PropertyMatcher) Resolve(prog *conform.Program) error {
	if !m.Typed {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.resolved[prog]; ok {
		return nil
	}
	tn, known := prog.LookupType(m.PkgPath, m.TypeName)
	if known && tn == nil {
		return fmt.Errorf("%w: type %s not found", conform.ErrInvalidConfig, m.holder)
	}
	if tn == nil {
		m.resolved[prog] = nil
		return nil
	}
	m.resolved[prog] = tn.Type()
	return nil
}

func (m *PropertyMatcher) bannedType(prog *conform.Program) types.Type {
	m.mu.Lock()
	t, ok := m.resolved[prog]
	m.mu.Unlock()
	if ok {
		return t
	}
	if err := m.Resolve(prog); err != nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolved[prog]
}

// Matches tests an access node. It returns nil when the node does not access
// the property, or, in legacy mode, when the holder type does not match.
func (m *PropertyMatcher) Matches(c *conform.Checker, n ast.Node) *conform.Match {
	prog, file := c.Program(), c.File()
	switch n := n.(type) {
	case *ast.SelectorExpr:
		if n.Sel.Name != m.Property || isPackageQualifier(c, n.X) {
			return nil
		}
		return m.match(c, n, prog.TypeOf(file, n.X), conform.NameMatchExact)
	case *ast.IndexExpr:
		if v := prog.ConstValue(file, n.Index); v != nil && v.Kind() == constant.String {
			if constant.StringVal(v) != m.Property {
				return nil
			}
			return m.match(c, n, prog.TypeOf(file, n.X), conform.NameMatchExact)
		}
		if !m.Typed || prog.IsType(file, n.Index) || !isStringTyped(prog.TypeOf(file, n.Index)) {
			return nil
		}
		match := m.match(c, n, prog.TypeOf(file, n.X), conform.NameMatchDynamic)
		// Any string index could be the property; only holders related to
		// the banned type make that worth reporting.
		if match == nil || match.TypeMatch == conform.TypeMatchUnrelated {
			return nil
		}
		return match
	case *ast.Ident:
		if n.Name != m.Property {
			return nil
		}
		kv, ok := c.Parent(n).(*ast.KeyValueExpr)
		if !ok || kv.Key != n {
			return nil
		}
		lit, ok := c.Parent(kv).(*ast.CompositeLit)
		if !ok {
			return nil
		}
		holder := prog.TypeOf(file, lit)
		if holder == nil {
			return nil
		}
		if _, ok := deref(holder).Underlying().(*types.Struct); !ok {
			return nil
		}
		return m.match(c, n, holder, conform.NameMatchExact)
	}
	return nil
}

func (m *PropertyMatcher) match(c *conform.Checker, n ast.Node, inspected types.Type, name conform.NameMatchConfidence) *conform.Match {
	tm := m.TypeMatches(c, inspected)
	c.Debugf("%s on %v: %s", m, inspected, tm)
	if tm == conform.TypeMatchLegacyNoMatch {
		return nil
	}
	return &conform.Match{Node: n, TypeMatch: tm, NameMatch: name}
}

// TypeMatches grades how inspected relates to the holder type.
func (m *PropertyMatcher) TypeMatches(c *conform.Checker, inspected types.Type) conform.TypeMatchConfidence {
	if !m.Typed {
		if m.legacyMatches(inspected, make(map[types.Type]bool)) {
			return conform.TypeMatchLegacyMatch
		}
		return conform.TypeMatchLegacyNoMatch
	}
	c.IncrementCounter(conform.PropertyMatcherTypeCheckCounter)
	res := m.typedMatches(c.Program(), inspected)
	if res == conform.TypeMatchAnyUnknown {
		c.IncrementCounter(conform.PropertyMatcherAnyUnknownCounter)
	}
	return res
}

// legacyMatches treats type set unions and intersections alike: one matching
// member is enough.
func (m *PropertyMatcher) legacyMatches(t types.Type, seen map[types.Type]bool) bool {
	if t == nil {
		return false
	}
	t = deref(t)
	if seen[t] {
		return false
	}
	seen[t] = true

	if tn := conform.TypeNameOf(t); tn != nil && qualifiedTypeName(tn) == m.holder {
		return true
	}
	for _, member := range typeSetMembers(t) {
		if m.legacyMatches(member, seen) {
			return true
		}
	}
	for _, base := range baseTypes(t) {
		if m.legacyMatches(base, seen) {
			return true
		}
	}
	return false
}

func (m *PropertyMatcher) typedMatches(prog *conform.Program, inspected types.Type) conform.TypeMatchConfidence {
	if isAnyOrUnknown(inspected) {
		return conform.TypeMatchAnyUnknown
	}
	banned := m.bannedType(prog)
	if banned == nil {
		return conform.TypeMatchUnrelated
	}
	base := deref(inspected)
	tn := conform.TypeNameOf(base)
	if tn != nil && m.ignore[qualifiedTypeName(tn)] {
		return conform.TypeMatchUnrelated
	}
	if tn != nil && tn == conform.TypeNameOf(banned) {
		return conform.TypeMatchExact
	}

	if members := typeSetMembers(base); len(members) > 0 {
		best := conform.TypeMatchUnrelated
		for _, member := range members {
			switch m.typedMatches(prog, member) {
			case conform.TypeMatchExact:
				return conform.TypeMatchExact
			case conform.TypeMatchExtends:
				best = conform.TypeMatchExtends
			}
		}
		if best == conform.TypeMatchExtends {
			return best
		}
	}

	if prog.AssignableTo(inspected, banned) || prog.AssignableTo(base, banned) ||
		embeds(base, conform.TypeNameOf(banned), make(map[types.Type]bool)) {
		return conform.TypeMatchExtends
	}
	if prog.AssignableTo(banned, inspected) || prog.AssignableTo(types.NewPointer(banned), inspected) {
		return conform.TypeMatchParent
	}
	return conform.TypeMatchUnrelated
}

func deref(t types.Type) types.Type {
	t = types.Unalias(t)
	if p, ok := t.(*types.Pointer); ok {
		return types.Unalias(p.Elem())
	}
	return t
}

// isAnyOrUnknown reports types carrying no information: invalid types and
// interfaces whose type set holds every type.
func isAnyOrUnknown(t types.Type) bool {
	if t == nil {
		return true
	}
	if b, ok := types.Unalias(t).(*types.Basic); ok && b.Kind() == types.Invalid {
		return true
	}
	iface, ok := t.Underlying().(*types.Interface)
	return ok && iface.Empty()
}

// typeSetMembers returns the terms and embedded elements of a type
// parameter's constraint, or of a union.
func typeSetMembers(t types.Type) []types.Type {
	var iface *types.Interface
	switch t := t.(type) {
	case *types.TypeParam:
		iface, _ = t.Constraint().Underlying().(*types.Interface)
	case *types.Union:
		return unionTerms(t)
	}
	if iface == nil {
		return nil
	}
	var members []types.Type
	for i := 0; i < iface.NumEmbeddeds(); i++ {
		switch e := iface.EmbeddedType(i).(type) {
		case *types.Union:
			members = append(members, unionTerms(e)...)
		default:
			members = append(members, e)
		}
	}
	return members
}

func unionTerms(u *types.Union) []types.Type {
	terms := make([]types.Type, 0, u.Len())
	for i := 0; i < u.Len(); i++ {
		terms = append(terms, u.Term(i).Type())
	}
	return terms
}

// baseTypes returns the embedded fields of a struct and the embedded
// interfaces of an interface.
func baseTypes(t types.Type) []types.Type {
	if _, ok := t.(*types.TypeParam); ok {
		return nil
	}
	var bases []types.Type
	switch u := t.Underlying().(type) {
	case *types.Struct:
		for i := 0; i < u.NumFields(); i++ {
			if f := u.Field(i); f.Embedded() {
				bases = append(bases, f.Type())
			}
		}
	case *types.Interface:
		for i := 0; i < u.NumEmbeddeds(); i++ {
			bases = append(bases, u.EmbeddedType(i))
		}
	}
	return bases
}

func embeds(t types.Type, target *types.TypeName, seen map[types.Type]bool) bool {
	if target == nil || seen[t] {
		return false
	}
	seen[t] = true
	st, ok := t.Underlying().(*types.Struct)
	if !ok {
		return false
	}
	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		if !f.Embedded() {
			continue
		}
		ft := deref(f.Type())
		if conform.TypeNameOf(ft) == target || embeds(ft, target, seen) {
			return true
		}
	}
	return false
}

func isPackageQualifier(c *conform.Checker, x ast.Expr) bool {
	id, ok := x.(*ast.Ident)
	if !ok {
		return false
	}
	_, ok = c.Program().ObjectOf(c.File(), id).(*types.PkgName)
	return ok
}

func isStringTyped(t types.Type) bool {
	if t == nil {
		return false
	}
	b, ok := t.Underlying().(*types.Basic)
	return ok && b.Info()&types.IsString != 0
}
