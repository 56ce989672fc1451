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

package rules

import (
	"go/ast"
	"go/constant"
	"strings"

	"golang.org/x/text/cases"

	"github.com/securego/conform"
	"github.com/securego/conform/literal"
	"github.com/securego/conform/matcher"
)

const setAttributeName = "ban-element-setattribute"

// defaultElementTypes are the DOM bindings checked when the rule section
// lists no "element-types".
var defaultElementTypes = []string{
	"honnef.co/go/js/dom/v2.Element",
	"honnef.co/go/js/dom/v2.BasicElement",
	"honnef.co/go/js/dom.Element",
	"honnef.co/go/js/dom.BasicElement",
}

// sensitiveAttributes load or run code when set, in addition to the event
// handlers.
var sensitiveAttributes = map[string]bool{
	"src":      true,
	"srcdoc":   true,
	"data":     true,
	"codebase": true,
}

func isSensitiveAttribute(name string) bool {
	return (strings.HasPrefix(name, "on") && name != "on") || sensitiveAttributes[name]
}

type setAttribute struct {
	allowlist *conform.Allowlist
	matchers  []*matcher.PropertyMatcher
	fold      cases.Caser
}

// NewElementSetAttribute constructs the setAttribute rule. Attributes are
// allowed when their name is a constant that is not security sensitive.
func NewElementSetAttribute(id string, conf conform.Config) (conform.Rule, error) {
	allowlist, err := conform.NewAllowlist(conf.Exemptions(id, setAttributeName)...)
	if err != nil {
		return nil, err
	}
	elementTypes := conf.StringList(id, "element-types")
	if len(elementTypes) == 0 {
		elementTypes = defaultElementTypes
	}
	r := &setAttribute{allowlist: allowlist, fold: cases.Fold()}
	for _, t := range elementTypes {
		for _, method := range []string{"SetAttribute", "SetAttributeNS"} {
			m, err := matcher.NewPropertyMatcher(t+"."+method, false)
			if err != nil {
				return nil, err
			}
			r.matchers = append(r.matchers, m)
		}
	}
	return r, nil
}

func (r *setAttribute) Name() string {
	return setAttributeName
}

func (r *setAttribute) Code() int {
	return 107
}

func (r *setAttribute) Register(c *conform.Checker) error {
	for _, m := range r.matchers {
		m := m
		c.OnNamedPropertyAccess(m.Property, func(c *conform.Checker, n ast.Node) error {
			return r.check(c, n, m)
		}, r.Code())
	}
	return nil
}

func (r *setAttribute) check(c *conform.Checker, n ast.Node, m *matcher.PropertyMatcher) error {
	if ast.IsGenerated(c.File()) {
		return nil
	}
	if m.Matches(c, n) == nil {
		return nil
	}
	// a method value escapes the name check
	call, ok := c.Parent(n).(*ast.CallExpr)
	if !ok || call.Fun != n {
		return r.report(c, n)
	}
	nameArg := 0
	want := 2
	if m.Property == "SetAttributeNS" {
		nameArg, want = 1, 3
	}
	if len(call.Args) != want {
		return nil
	}
	// a namespaced attribute is only known when the namespace is empty
	if r.isAllowedAttribute(c, call.Args[nameArg]) && (nameArg == 0 || isEmptyNamespace(c, call.Args[0])) {
		return nil
	}
	return r.report(c, call, conform.WithRelated(
		c.CreateRelatedInformation(call.Args[nameArg], "attribute name")))
}

func isEmptyNamespace(c *conform.Checker, ns ast.Expr) bool {
	if id, ok := ns.(*ast.Ident); ok && id.Name == "nil" {
		return true
	}
	v := c.Program().ConstValue(c.File(), ns)
	return v != nil && v.Kind() == constant.String && constant.StringVal(v) == "" && literal.IsLiteral(c, ns)
}

func (r *setAttribute) isAllowedAttribute(c *conform.Checker, attr ast.Expr) bool {
	v := c.Program().ConstValue(c.File(), attr)
	if v == nil || v.Kind() != constant.String || !literal.IsLiteral(c, attr) {
		return false
	}
	name := r.fold.String(constant.StringVal(v))
	c.Debugf("attribute %q", name)
	return !isSensitiveAttribute(name)
}

func (r *setAttribute) report(c *conform.Checker, n ast.Node, opts ...conform.FailureOption) error {
	return c.AddFailureAtNode(n,
		"Do not set attributes of elements with non constant or security sensitive names, as this can lead to XSS.",
		r.Name(), r.allowlist, opts...)
}
