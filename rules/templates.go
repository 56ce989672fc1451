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

	"github.com/securego/conform"
	"github.com/securego/conform/literal"
	"github.com/securego/conform/trusted"
)

const templateConversionName = "ban-template-html-conversion"

// templateConversion flags conversions to the html/template types which
// disable escaping, unless the converted value is a literal or already
// carries the matching trusted type.
type templateConversion struct {
	allowlist *conform.Allowlist
	targets   map[string]*trusted.Config
}

// NewTemplateConversion constructs the template conversion rule. This rule
// finds values that bypass the contextual escaping of html/template.
func NewTemplateConversion(id string, conf conform.Config) (conform.Rule, error) {
	allowlist, err := conform.NewAllowlist(conf.Exemptions(id, templateConversionName)...)
	if err != nil {
		return nil, err
	}
	return &templateConversion{
		allowlist: allowlist,
		targets: map[string]*trusted.Config{
			"html/template.HTML":     trusted.HTML,
			"html/template.HTMLAttr": trusted.HTML,
			"html/template.JS":       trusted.Script,
			"html/template.JSStr":    trusted.Script,
			"html/template.URL":      trusted.ResourceURL,
			"html/template.Srcset":   trusted.ResourceURL,
			"html/template.CSS":      nil,
		},
	}, nil
}

func (r *templateConversion) Name() string {
	return templateConversionName
}

func (r *templateConversion) Code() int {
	return 106
}

func (r *templateConversion) Register(c *conform.Checker) error {
	c.On((*ast.CallExpr)(nil), r.check, r.Code())
	return nil
}

func (r *templateConversion) check(c *conform.Checker, n ast.Node) error {
	call := n.(*ast.CallExpr)
	prog, file := c.Program(), c.File()
	if len(call.Args) != 1 || !prog.IsConversion(file, call) {
		return nil
	}
	tn := conform.TypeNameOf(prog.TypeOf(file, call))
	if tn == nil {
		return nil
	}
	cfg, ok := r.targets[prog.FullyQualifiedName(tn)]
	if !ok {
		return nil
	}
	arg := call.Args[0]
	if literal.IsLiteral(c, arg) {
		c.Debugf("%s converts a literal", c.Text(call))
		return nil
	}
	if trusted.IsTrusted(c, arg, cfg) {
		return nil
	}
	return c.AddFailureAtNode(call,
		"This conversion disables the escaping of html/template. This can lead to 'Cross-site Scripting' vulnerabilities when the attacker controls the input.",
		r.Name(), r.allowlist, conform.WithConfidence(conform.ConfidenceHighExact))
}
