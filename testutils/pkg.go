package testutils

import (
	"context"
	"fmt"
	"go/ast"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/securego/conform"
)

// ModulePath is the module path of every TestPackage.
const ModulePath = "example.com/app"

// TestPackage is a throwaway module for testing purposes. Files may live in
// sub directories, which then form their own packages.
type TestPackage struct {
	Path    string
	Files   map[string]string
	onDisk  bool
	program *conform.Program
}

// NewTestPackage will create a new and empty module. Must call Close() to cleanup
// auxiliary files
func NewTestPackage() *TestPackage {
	workingDir, err := os.MkdirTemp("", "conform_test")
	if err != nil {
		return nil
	}
	return &TestPackage{
		Path:  workingDir,
		Files: map[string]string{"go.mod": fmt.Sprintf("module %s\n\ngo 1.22\n", ModulePath)},
	}
}

// AddFile inserts the filename and contents into the module contents
func (p *TestPackage) AddFile(filename, content string) {
	p.Files[filename] = content
	p.program = nil
	p.onDisk = false
}

func (p *TestPackage) write() error {
	if p.onDisk {
		return nil
	}
	for filename, content := range p.Files {
		full := filepath.Join(p.Path, filename)
		if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
			return err
		}
		if err := os.WriteFile(full, []byte(content), 0o600); err != nil {
			return err
		}
	}
	p.onDisk = true
	return nil
}

// Build ensures all files are persisted to disk and type-checked
func (p *TestPackage) Build() error {
	if p.program != nil {
		return nil
	}
	if err := p.write(); err != nil {
		return err
	}
	prog, err := conform.LoadProgram(context.Background(), &conform.LoadConfig{Dir: p.Path}, "./...")
	if err != nil {
		return err
	}
	p.program = prog
	return nil
}

// Program builds the module and returns the loaded program
func (p *TestPackage) Program() *conform.Program {
	if err := p.Build(); err != nil {
		log.Fatal(err)
		return nil
	}
	return p.program
}

// File returns the syntax tree of a file added with AddFile
func (p *TestPackage) File(filename string) *ast.File {
	prog := p.Program()
	want := filepath.Join(p.Path, filename)
	for _, f := range prog.Files() {
		if prog.FileName(f) == want {
			return f
		}
	}
	// The temp dir may be reported through a symlink resolved path
	suffix := string(os.PathSeparator) + filepath.Base(p.Path) + string(os.PathSeparator) + filename
	for _, f := range prog.Files() {
		if strings.HasSuffix(prog.FileName(f), suffix) {
			return f
		}
	}
	return nil
}

// AbsPath returns the absolute path under which filename is written
func (p *TestPackage) AbsPath(filename string) string {
	return filepath.Join(p.Path, filename)
}

// Close will delete the module and all files in that directory
func (p *TestPackage) Close() {
	if err := os.RemoveAll(p.Path); err != nil {
		log.Fatal(err)
	}
}

// Pkgs returns the current built packages
func (p *TestPackage) Pkgs() []*packages.Package {
	if p.program != nil {
		return p.program.Packages
	}
	return []*packages.Package{}
}

// PrintErrors prints to os.Stderr the accumulated errors of built packages
func (p *TestPackage) PrintErrors() int {
	return packages.PrintErrors(p.Pkgs())
}
