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
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// allowlistCacheSize bounds the memoized results of one Allowlist.
const allowlistCacheSize = 1 << 12

// ExemptionReason documents why a path is exempted from a rule.
type ExemptionReason int

const (
	ExemptionUnspecified ExemptionReason = iota
	ExemptionLegacy
	ExemptionOutOfScope
	ExemptionManuallyReviewed
)

var exemptionReasonNames = []string{"unspecified", "legacy", "out-of-scope", "manually-reviewed"}

func (r ExemptionReason) String() string {
	if int(r) >= 0 && int(r) < len(exemptionReasonNames) {
		return exemptionReasonNames[r]
	}
	return "unspecified"
}

func parseExemptionReason(s string) (ExemptionReason, error) {
	for i, name := range exemptionReasonNames {
		if strings.EqualFold(name, s) {
			return ExemptionReason(i), nil
		}
	}
	return ExemptionUnspecified, fmt.Errorf("%w: unknown exemption reason %q", ErrInvalidConfig, s)
}

// MarshalText encodes the reason by name
func (r ExemptionReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a reason from its name
func (r *ExemptionReason) UnmarshalText(text []byte) error {
	reason, err := parseExemptionReason(string(text))
	if err != nil {
		return err
	}
	*r = reason
	return nil
}

// AllowlistEntry exempts files from a rule, either by exact path, path prefix
// (an entry ending with "/") or regular expression.
type AllowlistEntry struct {
	Reason      ExemptionReason `json:"reason,omitempty" yaml:"reason,omitempty"`
	Explanation string          `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	Paths       []string        `json:"path,omitempty" yaml:"path,omitempty"`
	Regexps     []string        `json:"regexp,omitempty" yaml:"regexp,omitempty"`
}

var (
	_ json.Marshaler = ExemptionReason(0)
	_ yaml.Marshaler = ExemptionReason(0)
)

// MarshalJSON encodes the reason by name
func (r ExemptionReason) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// MarshalYAML encodes the reason by name
func (r ExemptionReason) MarshalYAML() (interface{}, error) {
	return r.String(), nil
}

// Allowlist answers whether a file is exempted from a rule. Its entries never
// change after NewAllowlist returns, so memoized answers never go stale and the
// cache is never invalidated.
type Allowlist struct {
	paths   []string
	regexps []*regexp.Regexp
	memo    *LRUCache[string, bool]
}

// NewAllowlist compiles the given entries. An invalid regular expression is a
// configuration error.
func NewAllowlist(entries ...AllowlistEntry) (*Allowlist, error) {
	a := &Allowlist{memo: NewLRUCache[string, bool](allowlistCacheSize)}
	for _, e := range entries {
		for _, p := range e.Paths {
			a.paths = append(a.paths, normalizePath(p))
		}
		for _, r := range e.Regexps {
			re, err := regexp.Compile(r)
			if err != nil {
				return nil, fmt.Errorf("%w: allowlist regexp %q: %v", ErrInvalidConfig, r, err)
			}
			a.regexps = append(a.regexps, re)
		}
	}
	return a, nil
}

// IsAllowlisted reports whether findings in filePath are exempted.
func (a *Allowlist) IsAllowlisted(filePath string) bool {
	if a == nil || (len(a.paths) == 0 && len(a.regexps) == 0) {
		return false
	}
	filePath = normalizePath(filePath)
	if res, ok := a.memo.Get(filePath); ok {
		return res
	}
	res := a.match(filePath)
	a.memo.Add(filePath, res)
	return res
}

func (a *Allowlist) match(filePath string) bool {
	for _, p := range a.paths {
		if filePath == p {
			return true
		}
		if strings.HasSuffix(p, "/") && strings.HasPrefix(filePath, p) {
			return true
		}
	}
	for _, re := range a.regexps {
		if re.MatchString(filePath) {
			return true
		}
	}
	return false
}

func normalizePath(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
