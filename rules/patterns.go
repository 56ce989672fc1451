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

	"github.com/securego/conform"
	"github.com/securego/conform/pattern"
	"github.com/securego/conform/trusted"
)

// newPatternRule builds a declarative rule. The "values" list of the rule
// section replaces the default values and the exemptions loaded for the rule
// extend its allowlist.
func newPatternRule(id string, conf conform.Config, cfg pattern.Config) (conform.Rule, error) {
	if values := conf.StringList(id, "values"); len(values) > 0 {
		cfg.Values = values
	}
	cfg.Allowlist = append(cfg.Allowlist, conf.Exemptions(id, cfg.Name)...)
	rule, err := pattern.NewRule(cfg.Name, cfg)
	if err != nil {
		return nil, err
	}
	return rule, nil
}

// NewExecCommand bans the constructors of os/exec commands.
func NewExecCommand(id string, conf conform.Config) (conform.Rule, error) {
	return newPatternRule(id, conf, pattern.Config{
		Name:         "ban-exec-command",
		Kind:         pattern.BannedName,
		Values:       []string{"GLOBAL|os/exec.Command", "GLOBAL|os/exec.CommandContext"},
		ErrorCode:    101,
		ErrorMessage: "Running external commands can lead to command injection. Use a reviewed wrapper instead.",
		CWE:          "78",
	})
}

// NewUnsafeImport bans the unsafe package.
func NewUnsafeImport(id string, conf conform.Config) (conform.Rule, error) {
	return newPatternRule(id, conf, pattern.Config{
		Name:         "ban-unsafe-import",
		Kind:         pattern.BannedImportedName,
		Values:       []string{"GLOBAL|unsafe"},
		ErrorCode:    102,
		ErrorMessage: "Use of the unsafe package bypasses memory safety and must be audited.",
		CWE:          "242",
	})
}

// NewCGIImport bans net/http/cgi, which trusts the Proxy header (httpoxy).
func NewCGIImport(id string, conf conform.Config) (conform.Rule, error) {
	return newPatternRule(id, conf, pattern.Config{
		Name:         "ban-cgi-import",
		Kind:         pattern.BannedImportedName,
		Values:       []string{"GLOBAL|net/http/cgi"},
		ErrorCode:    103,
		ErrorMessage: "net/http/cgi is vulnerable to the httpoxy attack (CVE-2016-5386). Serve requests with net/http.",
		CWE:          "676",
	})
}

// NewTLSInsecureSkipVerify bans turning off certificate verification.
func NewTLSInsecureSkipVerify(id string, conf conform.Config) (conform.Rule, error) {
	return newPatternRule(id, conf, pattern.Config{
		Name:                    "ban-tls-insecure-skip-verify",
		Kind:                    pattern.BannedPropertyWrite,
		Values:                  []string{"crypto/tls.Config.InsecureSkipVerify"},
		ErrorCode:               104,
		ErrorMessage:            "TLS InsecureSkipVerify may be true. Certificates must be verified.",
		CWE:                     "295",
		UseTypedPropertyMatcher: true,
		Fixers: []pattern.Fixer{&pattern.ReplaceFixer{
			Replace: func(c *conform.Checker, value ast.Expr) (string, bool) {
				v := c.Program().ConstValue(c.File(), value)
				if v != nil && v.Kind() == constant.Bool && !constant.BoolVal(v) {
					return "", false
				}
				return "false", true
			},
		}},
	})
}

// NewReflectUnsafePointer bans the reflect methods handing out raw pointers.
func NewReflectUnsafePointer(id string, conf conform.Config) (conform.Rule, error) {
	return newPatternRule(id, conf, pattern.Config{
		Name:                    "ban-reflect-unsafe-pointer",
		Kind:                    pattern.BannedProperty,
		Values:                  []string{"reflect.Value.UnsafePointer", "reflect.Value.UnsafeAddr"},
		ErrorCode:               105,
		ErrorMessage:            "Raw pointers obtained through reflection bypass memory safety and must be audited.",
		CWE:                     "242",
		UseTypedPropertyMatcher: true,
	})
}

// NewElementInnerHTMLAssignments bans assigning markup that is not known to
// be safe to the markup fields of DOM bindings.
func NewElementInnerHTMLAssignments(id string, conf conform.Config) (conform.Rule, error) {
	return newPatternRule(id, conf, pattern.Config{
		Name: "ban-element-innerhtml-assignments",
		Kind: pattern.BannedPropertyWrite,
		Values: []string{
			"github.com/chromedp/cdproto/dom.SetOuterHTMLParams.OuterHTML",
			"github.com/go-rod/rod/lib/proto.DOMSetOuterHTML.OuterHTML",
		},
		ErrorCode:          108,
		ErrorMessage:       "Assigning directly to the markup of an element can result in XSS vulnerabilities.",
		CWE:                "79",
		AllowedTrustedType: trusted.HTML,
		Fixers:             []pattern.Fixer{pattern.WrapWith("html", "EscapeString")},
	})
}

// NewExecCmdPathWrite bans computed binary paths on os/exec commands.
func NewExecCmdPathWrite(id string, conf conform.Config) (conform.Rule, error) {
	return newPatternRule(id, conf, pattern.Config{
		Name:                    "ban-exec-cmd-path-write",
		Kind:                    pattern.BannedPropertyNonConstantWrite,
		Values:                  []string{"os/exec.Cmd.Path"},
		ErrorCode:               109,
		ErrorMessage:            "The binary run by a command must not be computed. Assign a constant path.",
		CWE:                     "78",
		UseTypedPropertyMatcher: true,
	})
}
