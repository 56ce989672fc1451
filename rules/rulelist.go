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
	"fmt"
	"sort"

	"github.com/securego/conform"
	"github.com/securego/conform/pattern"
)

// RuleDefinition contains the description of a rule and a mechanism to
// create it.
type RuleDefinition struct {
	ID          string
	Description string
	Create      conform.RuleBuilder
}

// RuleList contains a mapping of rule ID's to rule definitions
type RuleList map[string]RuleDefinition

// Builders returns all the create methods for a given rule list
func (rl RuleList) Builders() map[string]conform.RuleBuilder {
	builders := make(map[string]conform.RuleBuilder, len(rl))
	for _, def := range rl {
		builders[def.ID] = def.Create
	}
	return builders
}

// IDs returns the rule IDs of the list, sorted.
func (rl RuleList) IDs() []string {
	ids := make([]string, 0, len(rl))
	for id := range rl {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RuleFilter can be used to include or exclude a rule depending on the return
// value of the function
type RuleFilter func(string) bool

// NewRuleFilter is a closure that will include/exclude the rule ID's based on
// the supplied boolean value.
func NewRuleFilter(action bool, ruleIDs ...string) RuleFilter {
	rulelist := make(map[string]bool)
	for _, rule := range ruleIDs {
		rulelist[rule] = true
	}
	return func(rule string) bool {
		if _, found := rulelist[rule]; found {
			return action
		}
		return !action
	}
}

// Generate the list of rules to use
func Generate(filters ...RuleFilter) RuleList {
	rules := []RuleDefinition{
		// commands
		{"C101", "Audit the use of command execution", NewExecCommand},
		{"C109", "Computed binary path of a command", NewExecCmdPathWrite},

		// unsafe code
		{"C102", "Audit the use of the unsafe package", NewUnsafeImport},
		{"C103", "Import of net/http/cgi", NewCGIImport},
		{"C105", "Audit the use of unsafe reflection", NewReflectUnsafePointer},

		// transport
		{"C104", "TLS certificate verification turned off", NewTLSInsecureSkipVerify},

		// markup
		{"C106", "Conversion of unchecked data to trusted template types", NewTemplateConversion},
		{"C107", "Security sensitive attributes set on DOM elements", NewElementSetAttribute},
		{"C108", "Assignment of unchecked markup to DOM elements", NewElementInnerHTMLAssignments},
	}

	ruleMap := make(map[string]RuleDefinition)

RULES:
	for _, rule := range rules {
		for _, filter := range filters {
			if filter(rule.ID) {
				continue RULES
			}
		}
		ruleMap[rule.ID] = rule
	}
	return ruleMap
}

// Load returns the builders of the built-in rules passing the filters along
// with the declarative rules of conf passing them. Custom rules are keyed by
// their name and may not shadow a built-in rule.
func Load(conf conform.Config, filters ...RuleFilter) (map[string]conform.RuleBuilder, error) {
	builders := Generate(filters...).Builders()
	custom, err := pattern.FromConfig(conf)
	if err != nil {
		return nil, err
	}
	builtins := Generate()
CUSTOM:
	for name, build := range custom {
		if _, ok := builtins[name]; ok {
			return nil, fmt.Errorf("%w: custom rule %s shadows a built-in rule", conform.ErrInvalidConfig, name)
		}
		for _, filter := range filters {
			if filter(name) {
				continue CUSTOM
			}
		}
		builders[name] = build
	}
	return builders, nil
}
