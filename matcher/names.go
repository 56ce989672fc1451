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

// Package matcher decides whether AST nodes refer to banned symbols or
// access banned properties.
package matcher

import (
	"fmt"
	"go/types"
	"regexp"
	"strings"

	"github.com/securego/conform"
)

var (
	pathNameFormat   = regexp.MustCompile(`^[/\.\w\-$~]+$`)
	identifierFormat = regexp.MustCompile(`^[\w\-$]+$`)
	versionElement   = regexp.MustCompile(`^v[0-9]+$`)
)

// Name is a parsed fully qualified name such as "os/exec.Command",
// "net/http.Header.Set", "panic" or "net/http/cgi".
type Name struct {
	// PkgPath is empty for universe objects.
	PkgPath string
	// Rel is the name inside the package, empty when the name is a package.
	Rel string
}

// ParseName parses a fully qualified name. The package part ends at the first
// dot after the last slash, or it may be quoted: "gopkg.in/yaml.v3".Marshal.
func ParseName(fqn string) (Name, error) {
	fqn = strings.TrimSpace(fqn)
	if fqn == "" {
		return Name{}, fmt.Errorf("%w: empty name", conform.ErrInvalidConfig)
	}
	var n Name
	if strings.HasPrefix(fqn, `"`) {
		end := strings.Index(fqn[1:], `"`)
		if end < 0 {
			return Name{}, fmt.Errorf("%w: unterminated package path in %q", conform.ErrInvalidConfig, fqn)
		}
		n.PkgPath = fqn[1 : end+1]
		rest := fqn[end+2:]
		if rest != "" {
			if !strings.HasPrefix(rest, ".") {
				return Name{}, fmt.Errorf("%w: malformed name %q", conform.ErrInvalidConfig, fqn)
			}
			n.Rel = rest[1:]
		}
	} else {
		slash := strings.LastIndex(fqn, "/")
		dot := strings.Index(fqn[slash+1:], ".")
		switch {
		case dot < 0 && slash >= 0:
			n.PkgPath = fqn
		case dot < 0:
			if types.Universe.Lookup(fqn) != nil {
				n.Rel = fqn
			} else {
				n.PkgPath = fqn
			}
		default:
			n.PkgPath, n.Rel = fqn[:slash+1+dot], fqn[slash+2+dot:]
			if slash < 0 {
				if _, ok := types.Universe.Lookup(n.PkgPath).(*types.TypeName); ok {
					n.PkgPath, n.Rel = "", fqn
				}
			}
		}
	}
	if n.PkgPath != "" && !pathNameFormat.MatchString(n.PkgPath) {
		return Name{}, fmt.Errorf("%w: malformed package path in %q", conform.ErrInvalidConfig, fqn)
	}
	if n.Rel != "" {
		for _, seg := range strings.Split(n.Rel, ".") {
			if !identifierFormat.MatchString(seg) {
				return Name{}, fmt.Errorf("%w: malformed name %q", conform.ErrInvalidConfig, fqn)
			}
		}
	}
	return n, nil
}

// String returns the name the way Program.FullyQualifiedName spells it.
func (n Name) String() string {
	switch {
	case n.PkgPath == "":
		return n.Rel
	case n.Rel == "":
		return n.PkgPath
	}
	return n.PkgPath + "." + n.Rel
}

// IsPackage reports whether the name denotes a whole package.
func (n Name) IsPackage() bool {
	return n.Rel == "" && n.PkgPath != ""
}

// Last returns the identifier source code uses for the named symbol: the last
// segment of the relative name, or the package name of a package.
func (n Name) Last() string {
	if n.Rel != "" {
		return n.Rel[strings.LastIndex(n.Rel, ".")+1:]
	}
	return PackageName(n.PkgPath)
}

// PackageName guesses the declared name of a package from its import path:
// the last element, skipping major version suffixes, cut at the first dot and
// after the last dash ("gopkg.in/yaml.v3" is yaml, "github.com/google/go-cmp" is cmp).
func PackageName(path string) string {
	elems := strings.Split(path, "/")
	last := elems[len(elems)-1]
	if versionElement.MatchString(last) && len(elems) > 1 {
		last = elems[len(elems)-2]
	}
	if i := strings.Index(last, "."); i > 0 {
		last = last[:i]
	}
	if i := strings.LastIndex(last, "-"); i >= 0 && i < len(last)-1 {
		last = last[i+1:]
	}
	return last
}

func qualifiedTypeName(tn *types.TypeName) string {
	if tn.Pkg() == nil {
		return tn.Name()
	}
	return tn.Pkg().Path() + "." + tn.Name()
}
