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
	"context"
	"fmt"
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"
	"os"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/tools/go/packages"
)

// LoadMode controls the amount of details to return when loading the packages
const LoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedCompiledGoFiles |
	packages.NeedImports |
	packages.NeedTypes |
	packages.NeedTypesSizes |
	packages.NeedTypesInfo |
	packages.NeedSyntax |
	packages.NeedModule

// LoadConfig tunes how packages are loaded into a Program.
type LoadConfig struct {
	Dir       string
	BuildTags []string
	Tests     bool
	Env       []string
}

// Program is a type-checked set of packages sharing one FileSet. The core
// only reads it.
type Program struct {
	Fset     *token.FileSet
	Packages []*packages.Package
	// Errors holds the load and type errors, keyed by file name.
	Errors map[string][]Error

	files       map[*ast.File]*packages.Package
	modules     []string
	graphOnce   sync.Once
	graph       map[string]*types.Package
	ownerOnce   sync.Once
	fieldOwners map[*types.Var]*types.TypeName
	srcMu       sync.Mutex
	sources     map[string][]byte
}

// LoadProgram loads and type-checks the packages matching patterns.
func LoadProgram(ctx context.Context, cfg *LoadConfig, patterns ...string) (*Program, error) {
	if cfg == nil {
		cfg = &LoadConfig{}
	}
	conf := &packages.Config{
		Context: ctx,
		Mode:    LoadMode,
		Dir:     cfg.Dir,
		Tests:   cfg.Tests,
		Env:     cfg.Env,
		Fset:    token.NewFileSet(),
	}
	if len(cfg.BuildTags) > 0 {
		conf.BuildFlags = []string{"-tags", strings.Join(cfg.BuildTags, ",")}
	}
	pkgs, err := packages.Load(conf, patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading packages %v: %w", patterns, err)
	}
	return NewProgram(conf.Fset, pkgs...), nil
}

// NewProgram wraps packages which were already loaded by a host.
func NewProgram(fset *token.FileSet, pkgs ...*packages.Package) *Program {
	p := &Program{
		Fset:     fset,
		Packages: pkgs,
		Errors:   make(map[string][]Error),
		files:    make(map[*ast.File]*packages.Package),
		sources:  make(map[string][]byte),
	}
	seenModule := make(map[string]bool)
	for _, pkg := range pkgs {
		for _, f := range pkg.Syntax {
			p.files[f] = pkg
		}
		if pkg.Module != nil && !seenModule[pkg.Module.Path] {
			seenModule[pkg.Module.Path] = true
			p.modules = append(p.modules, pkg.Module.Path)
		}
		for _, e := range pkg.Errors {
			p.addError(e)
		}
	}
	sortErrors(p.Errors)
	return p
}

func (p *Program) addError(e packages.Error) {
	file, line, col := parseErrorPosition(e.Pos)
	p.Errors[file] = append(p.Errors[file], *NewError(line, col, e.Msg))
}

// parseErrorPosition splits "file:line:col" as produced by go/packages.
func parseErrorPosition(pos string) (string, int, int) {
	parts := strings.Split(pos, ":")
	if len(parts) < 3 {
		return pos, 0, 0
	}
	col, errCol := strconv.Atoi(parts[len(parts)-1])
	line, errLine := strconv.Atoi(parts[len(parts)-2])
	if errCol != nil || errLine != nil {
		return pos, 0, 0
	}
	return strings.Join(parts[:len(parts)-2], ":"), line, col
}

// Files returns every syntax tree of the program in load order.
func (p *Program) Files() []*ast.File {
	var files []*ast.File
	for _, pkg := range p.Packages {
		files = append(files, pkg.Syntax...)
	}
	return files
}

// Package returns the package owning file, or nil.
func (p *Program) Package(file *ast.File) *packages.Package {
	return p.files[file]
}

// FileName returns the name under which file was parsed.
func (p *Program) FileName(file *ast.File) string {
	if tf := p.Fset.File(file.Pos()); tf != nil {
		return tf.Name()
	}
	return ""
}

// Source returns the contents of a program file. Contents are read once.
func (p *Program) Source(filename string) []byte {
	p.srcMu.Lock()
	defer p.srcMu.Unlock()
	if src, ok := p.sources[filename]; ok {
		return src
	}
	src, err := os.ReadFile(filename) // #nosec G304
	if err != nil {
		src = nil
	}
	p.sources[filename] = src
	return src
}

// ResolvePackage finds a package of the import graph by its import path.
func (p *Program) ResolvePackage(path string) *types.Package {
	p.graphOnce.Do(p.buildGraph)
	return p.graph[path]
}

func (p *Program) buildGraph() {
	p.graph = make(map[string]*types.Package)
	var visit func(pkg *types.Package)
	visit = func(pkg *types.Package) {
		if pkg == nil || p.graph[pkg.Path()] != nil {
			return
		}
		p.graph[pkg.Path()] = pkg
		for _, imp := range pkg.Imports() {
			visit(imp)
		}
	}
	for _, pkg := range p.Packages {
		visit(pkg.Types)
	}
	p.graph["unsafe"] = types.Unsafe
}

// LookupType resolves a type name in a package of the import graph, or in the
// universe when pkgPath is empty. The second result reports whether the
// package itself is known.
func (p *Program) LookupType(pkgPath, name string) (*types.TypeName, bool) {
	scope := types.Universe
	if pkgPath != "" {
		pkg := p.ResolvePackage(pkgPath)
		if pkg == nil {
			return nil, false
		}
		scope = pkg.Scope()
	}
	tn, _ := scope.Lookup(name).(*types.TypeName)
	return tn, true
}

// ObjectOf returns the object an identifier defines or uses.
func (p *Program) ObjectOf(file *ast.File, id *ast.Ident) types.Object {
	info := p.info(file)
	if info == nil {
		return nil
	}
	return info.ObjectOf(id)
}

// IsDefinition reports whether id is the defining occurrence of its object.
func (p *Program) IsDefinition(file *ast.File, id *ast.Ident) bool {
	info := p.info(file)
	if info == nil {
		return false
	}
	_, ok := info.Defs[id]
	return ok
}

// TypeOf returns the type of an expression, or nil.
func (p *Program) TypeOf(file *ast.File, e ast.Expr) types.Type {
	info := p.info(file)
	if info == nil {
		return nil
	}
	return info.TypeOf(e)
}

// IsType reports whether e denotes a type rather than a value.
func (p *Program) IsType(file *ast.File, e ast.Expr) bool {
	info := p.info(file)
	if info == nil {
		return false
	}
	tv, ok := info.Types[e]
	return ok && tv.IsType()
}

// ConstValue returns the constant value of e, or nil when e is not constant.
func (p *Program) ConstValue(file *ast.File, e ast.Expr) constant.Value {
	info := p.info(file)
	if info == nil {
		return nil
	}
	return info.Types[e].Value
}


// IsConversion reports whether call converts its argument to a type.
func (p *Program) IsConversion(file *ast.File, call *ast.CallExpr) bool {
	return len(call.Args) == 1 && p.IsType(file, call.Fun)
}

// AssignableTo reports whether a value of type v is assignable to t.
func (p *Program) AssignableTo(v, t types.Type) bool {
	if v == nil || t == nil {
		return false
	}
	return types.AssignableTo(v, t)
}

func (p *Program) info(file *ast.File) *types.Info {
	if pkg := p.files[file]; pkg != nil {
		return pkg.TypesInfo
	}
	return nil
}

// Dealias resolves type aliases to the type name they stand for.
func Dealias(obj types.Object) types.Object {
	tn, ok := obj.(*types.TypeName)
	if !ok || !tn.IsAlias() {
		return obj
	}
	switch t := types.Unalias(tn.Type()).(type) {
	case *types.Named:
		return t.Obj()
	case *types.Basic:
		if u := types.Universe.Lookup(t.Name()); u != nil {
			return u
		}
	}
	return obj
}

// FullyQualifiedName names an object the way rule configurations do:
// "path.Name", "path.Type.Member", a bare name for universe objects and the
// import path for package names.
func (p *Program) FullyQualifiedName(obj types.Object) string {
	obj = Dealias(obj)
	if pn, ok := obj.(*types.PkgName); ok {
		return pn.Imported().Path()
	}
	rel := p.RelativeName(obj)
	if obj.Pkg() == nil {
		return rel
	}
	return obj.Pkg().Path() + "." + rel
}

// RelativeName is the name of obj inside its package: "Name" or "Type.Member".
func (p *Program) RelativeName(obj types.Object) string {
	switch o := obj.(type) {
	case *types.PkgName:
		return o.Imported().Name()
	case *types.Func:
		if sig, ok := o.Type().(*types.Signature); ok && sig.Recv() != nil {
			if owner := typeNameOf(sig.Recv().Type()); owner != nil {
				return owner.Name() + "." + o.Name()
			}
		}
	case *types.Var:
		if o.IsField() {
			if owner := p.fieldOwner(o); owner != nil {
				return owner.Name() + "." + o.Name()
			}
		}
	}
	return obj.Name()
}

func (p *Program) fieldOwner(v *types.Var) *types.TypeName {
	p.ownerOnce.Do(func() {
		p.graphOnce.Do(p.buildGraph)
		p.fieldOwners = make(map[*types.Var]*types.TypeName)
		for _, pkg := range p.graph {
			scope := pkg.Scope()
			for _, name := range scope.Names() {
				tn, ok := scope.Lookup(name).(*types.TypeName)
				if !ok {
					continue
				}
				if st, ok := tn.Type().Underlying().(*types.Struct); ok {
					for i := 0; i < st.NumFields(); i++ {
						p.fieldOwners[st.Field(i)] = tn
					}
				}
			}
		}
	})
	// fields of instantiated generic types are distinct from the declared ones
	return p.fieldOwners[v.Origin()]
}

// typeNameOf returns the declared name of t, looking through pointers.
func typeNameOf(t types.Type) *types.TypeName {
	t = types.Unalias(t)
	if ptr, ok := t.(*types.Pointer); ok {
		t = types.Unalias(ptr.Elem())
	}
	switch t := t.(type) {
	case *types.Named:
		return t.Obj()
	case *types.Basic:
		if tn, ok := types.Universe.Lookup(t.Name()).(*types.TypeName); ok {
			return tn
		}
	}
	return nil
}

// TypeNameOf is typeNameOf for other packages of the module.
func TypeNameOf(t types.Type) *types.TypeName {
	return typeNameOf(t)
}

// DeclarationFile returns the file an object was declared in.
func (p *Program) DeclarationFile(obj types.Object) string {
	if obj == nil || !obj.Pos().IsValid() {
		return ""
	}
	return normalizePath(p.Fset.Position(obj.Pos()).Filename)
}

// IsStandardLibrary reports whether obj is predeclared or belongs to the Go
// standard library. These are the ambient declarations of a Go program.
func (p *Program) IsStandardLibrary(obj types.Object) bool {
	if pn, ok := obj.(*types.PkgName); ok {
		return p.isStandardPath(pn.Imported().Path())
	}
	if obj.Pkg() == nil {
		return true
	}
	return p.isStandardPath(obj.Pkg().Path())
}

// IsStandardPackage reports whether an import path belongs to the Go
// standard library rather than to a module of the program.
func (p *Program) IsStandardPackage(path string) bool {
	return p.isStandardPath(path)
}

func (p *Program) isStandardPath(path string) bool {
	for _, mod := range p.modules {
		if path == mod || strings.HasPrefix(path, mod+"/") {
			return false
		}
	}
	first, _, _ := strings.Cut(path, "/")
	return !strings.Contains(first, ".") && path != "main" && path != "command-line-arguments"
}
