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
	"fmt"
	"regexp"
	"strings"
)

// PathExcludedKind is the suppression kind of issues removed by a
// PathExclusionFilter.
const PathExcludedKind = "PATH_EXCLUDED"

// PathExcludeRule silences some rules for the files matching a regular
// expression, for example {Path: `_test\.go$`, Rules: ["C101"]}.
type PathExcludeRule struct {
	Path  string   `json:"path" yaml:"path"`
	Rules []string `json:"rules" yaml:"rules"` // rule IDs or names, "*" for all
}

type pathRule struct {
	re    *regexp.Regexp
	rules map[string]bool
	all   bool
	src   PathExcludeRule
}

// PathExclusionFilter answers whether a rule is turned off for a file. A nil
// filter excludes nothing.
type PathExclusionFilter struct {
	rules []pathRule
}

// NewPathExclusionFilter compiles the rules, failing on empty or invalid
// path expressions.
func NewPathExclusionFilter(rules []PathExcludeRule) (*PathExclusionFilter, error) {
	f := &PathExclusionFilter{rules: make([]pathRule, 0, len(rules))}
	for i, r := range rules {
		if r.Path == "" {
			return nil, fmt.Errorf("%w: exclude-rules[%d]: empty path", ErrInvalidConfig, i)
		}
		re, err := regexp.Compile(r.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: exclude-rules[%d]: path %q: %v", ErrInvalidConfig, i, r.Path, err)
		}
		compiled := pathRule{re: re, rules: make(map[string]bool), src: r}
		for _, id := range r.Rules {
			switch id = strings.TrimSpace(id); id {
			case "":
			case "*":
				compiled.all = true
			default:
				compiled.rules[id] = true
			}
		}
		f.rules = append(f.rules, compiled)
	}
	return f, nil
}

// ShouldExclude reports whether the rule known as ruleID or ruleName is
// turned off for filePath.
func (f *PathExclusionFilter) ShouldExclude(filePath, ruleID, ruleName string) bool {
	if f == nil {
		return false
	}
	filePath = normalizePath(filePath)
	for _, r := range f.rules {
		if !r.re.MatchString(filePath) {
			continue
		}
		if r.all || r.rules[ruleID] || r.rules[ruleName] {
			return true
		}
	}
	return false
}

// ParseCLIExcludeRules parses the command line form
// "path-regex:rule1,rule2;other-regex:*".
func ParseCLIExcludeRules(input string) ([]PathExcludeRule, error) {
	var rules []PathExcludeRule
	for i, part := range strings.Split(input, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sep := strings.LastIndex(part, ":")
		if sep == -1 {
			return nil, fmt.Errorf("%w: exclude-rules part %d: missing ':' in %q", ErrInvalidConfig, i+1, part)
		}
		path := strings.TrimSpace(part[:sep])
		if path == "" {
			return nil, fmt.Errorf("%w: exclude-rules part %d: empty path", ErrInvalidConfig, i+1)
		}
		var ids []string
		for _, id := range strings.Split(part[sep+1:], ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			return nil, fmt.Errorf("%w: exclude-rules part %d: no rules", ErrInvalidConfig, i+1)
		}
		rules = append(rules, PathExcludeRule{Path: path, Rules: ids})
	}
	return rules, nil
}

func (f *PathExclusionFilter) String() string {
	if f == nil || len(f.rules) == 0 {
		return "PathExclusionFilter{}"
	}
	parts := make([]string, 0, len(f.rules))
	for _, r := range f.rules {
		parts = append(parts, r.src.Path+":"+strings.Join(r.src.Rules, ","))
	}
	return "PathExclusionFilter{" + strings.Join(parts, "; ") + "}"
}
