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
	"go/ast"
	"strings"

	"github.com/securego/conform/issue"
)

// Confidence ranks how certain a match is. Higher values win deduplication.
type Confidence int

const (
	// ConfidenceLow is used for matches where the receiver type is unrelated or unknown
	ConfidenceLow Confidence = 10
	// ConfidenceMedium is used for wider receiver types and dynamic names
	ConfidenceMedium Confidence = 20
	// ConfidenceHighExtends is used when the receiver is a subtype of the banned type
	ConfidenceHighExtends Confidence = 30
	// ConfidenceHighExact is used when the receiver is exactly the banned type
	ConfidenceHighExact Confidence = 40
	// ConfidenceNA is attached to failures that carry no confidence information.
	// Such failures take precedence over every graded level.
	ConfidenceNA Confidence = 100000
)

// DefaultMinConfidence is the threshold below which failures are silenced.
const DefaultMinConfidence = ConfidenceHighExtends

// String converts a Confidence into its configuration name
func (c Confidence) String() string {
	switch c {
	case ConfidenceLow:
		return "low"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceHighExtends:
		return "high-extends"
	case ConfidenceHighExact:
		return "high-exact"
	case ConfidenceNA:
		return "na"
	}
	return "undefined"
}

// MarshalJSON is used to convert a Confidence into a JSON representation
func (c Confidence) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// MarshalYAML is used to convert a Confidence into a YAML representation
func (c Confidence) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

// Score folds the confidence into the three levels shown in reports.
func (c Confidence) Score() issue.Score {
	switch {
	case c >= ConfidenceHighExtends:
		return issue.High
	case c >= ConfidenceMedium:
		return issue.Medium
	}
	return issue.Low
}

// ParseConfidence converts a configuration name back into a Confidence
func ParseConfidence(s string) (Confidence, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return ConfidenceLow, nil
	case "medium":
		return ConfidenceMedium, nil
	case "high-extends", "high":
		return ConfidenceHighExtends, nil
	case "high-exact":
		return ConfidenceHighExact, nil
	case "na":
		return ConfidenceNA, nil
	}
	return 0, fmt.Errorf("%w: unknown confidence %q", ErrInvalidConfig, s)
}

// TypeMatchConfidence describes how the inspected receiver type relates to the
// type named by a matcher.
type TypeMatchConfidence int

const (
	TypeMatchNA TypeMatchConfidence = iota
	TypeMatchLegacyMatch
	TypeMatchLegacyNoMatch
	TypeMatchExact
	TypeMatchExtends
	TypeMatchParent
	TypeMatchAnyUnknown
	TypeMatchUnrelated
)

var typeMatchNames = map[TypeMatchConfidence]string{
	TypeMatchNA:            "NA",
	TypeMatchLegacyMatch:   "LEGACY_MATCH",
	TypeMatchLegacyNoMatch: "LEGACY_NO_MATCH",
	TypeMatchExact:         "EXACT",
	TypeMatchExtends:       "EXTENDS",
	TypeMatchParent:        "PARENT",
	TypeMatchAnyUnknown:    "ANY_UNKNOWN",
	TypeMatchUnrelated:     "UNRELATED",
}

func (t TypeMatchConfidence) String() string {
	if s, ok := typeMatchNames[t]; ok {
		return s
	}
	return fmt.Sprintf("TypeMatchConfidence(%d)", int(t))
}

// NameMatchConfidence describes how certain the matched property or symbol name is.
type NameMatchConfidence int

const (
	NameMatchNA NameMatchConfidence = iota
	NameMatchExact
	// NameMatchDynamic is used when the accessed name is computed at run time
	NameMatchDynamic
)

func (n NameMatchConfidence) String() string {
	switch n {
	case NameMatchNA:
		return "NA"
	case NameMatchExact:
		return "EXACT"
	case NameMatchDynamic:
		return "DYNAMIC"
	}
	return fmt.Sprintf("NameMatchConfidence(%d)", int(n))
}

// Match is the outcome of a successful matcher test against a node.
type Match struct {
	Node      ast.Node
	TypeMatch TypeMatchConfidence
	NameMatch NameMatchConfidence
}

// GiveConfidence folds both axes of a match into a single Confidence.
func GiveConfidence(m *Match) (Confidence, error) {
	if m == nil {
		return ConfidenceNA, nil
	}
	name, err := nameWeight(m.NameMatch)
	if err != nil {
		return 0, err
	}
	switch m.TypeMatch {
	case TypeMatchNA:
		return name.pick(ConfidenceNA, ConfidenceHighExact, ConfidenceMedium), nil
	case TypeMatchLegacyMatch:
		return name.pick(ConfidenceHighExtends, ConfidenceHighExtends, ConfidenceMedium), nil
	case TypeMatchLegacyNoMatch:
		return ConfidenceLow, nil
	case TypeMatchExact:
		return name.pick(ConfidenceHighExact, ConfidenceHighExact, ConfidenceMedium), nil
	case TypeMatchExtends:
		return name.pick(ConfidenceHighExtends, ConfidenceHighExtends, ConfidenceMedium), nil
	case TypeMatchParent:
		return name.pick(ConfidenceMedium, ConfidenceMedium, ConfidenceLow), nil
	case TypeMatchAnyUnknown:
		return ConfidenceLow, nil
	case TypeMatchUnrelated:
		return ConfidenceLow, nil
	}
	return 0, fmt.Errorf("unexpected type match confidence %s", m.TypeMatch)
}

// nameAxis selects the column of the confidence table.
type nameAxis int

func nameWeight(n NameMatchConfidence) (nameAxis, error) {
	switch n {
	case NameMatchNA, NameMatchExact, NameMatchDynamic:
		return nameAxis(n), nil
	}
	return 0, fmt.Errorf("unexpected name match confidence %s", n)
}

func (a nameAxis) pick(na, exact, dynamic Confidence) Confidence {
	switch NameMatchConfidence(a) {
	case NameMatchExact:
		return exact
	case NameMatchDynamic:
		return dynamic
	default:
		return na
	}
}
