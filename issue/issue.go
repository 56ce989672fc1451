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

package issue

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"go/token"
	"os"
	"strconv"

	"github.com/securego/conform/cwe"
)

// Score ranks how sure a rule is about an issue
type Score int

const (
	// Low confidence
	Low Score = iota
	// Medium confidence
	Medium
	// High confidence
	High
)

// SnippetOffset defines the number of lines captured before
// the beginning and after the end of a code snippet
const SnippetOffset = 1

// ruleToCWE maps the built-in rule IDs to their weakness
var ruleToCWE = map[string]string{
	"C101": "78",
	"C102": "242",
	"C103": "676",
	"C104": "295",
	"C105": "242",
	"C106": "79",
	"C107": "79",
	"C108": "79",
	"C109": "78",
}

// GetCweByRule retrieves a cwe weakness for a given rule ID
func GetCweByRule(id string) *cwe.Weakness {
	cweID, ok := ruleToCWE[id]
	if ok {
		return cwe.Get(cweID)
	}
	return nil
}

// Issue is returned by a conform rule if it discovers an issue with the scanned code.
type Issue struct {
	Confidence   Score             `json:"confidence" yaml:"confidence"`               // how sure the rule is about the match
	Grade        string            `json:"grade" yaml:"grade"`                         // the detailed confidence of the checker
	Cwe          *cwe.Weakness     `json:"cwe" yaml:"cwe"`                             // Cwe associated with RuleID
	RuleID       string            `json:"rule_id" yaml:"rule_id"`                     // ID of the rule, C101 for built-in rules
	RuleName     string            `json:"rule_name" yaml:"rule_name"`                 // Name the rule is registered under
	ErrorCode    int               `json:"error_code" yaml:"error_code"`               // Numeric code of the rule
	What         string            `json:"details" yaml:"details"`                     // Human readable explanation
	File         string            `json:"file" yaml:"file"`                           // File name we found it in
	Code         string            `json:"code" yaml:"code"`                           // Impacted code line
	Line         string            `json:"line" yaml:"line"`                           // Line number in file
	Col          string            `json:"column" yaml:"column"`                       // Column number in line
	Autofix      string            `json:"autofix,omitempty" yaml:"autofix,omitempty"` // Proposed fixes, readable
	Suppressions []SuppressionInfo `json:"suppressions" yaml:"suppressions"`           // Why the issue is not reported
}

// SuppressionInfo describes why an issue is kept out of the report
type SuppressionInfo struct {
	Kind          string `json:"kind" yaml:"kind"`
	Justification string `json:"justification" yaml:"justification"`
}

// FileLocation point out the file path and line number in file
func (i *Issue) FileLocation() string {
	return fmt.Sprintf("%s:%s", i.File, i.Line)
}

// IsSuppressed reports whether any suppression applies to the issue
func (i *Issue) IsSuppressed() bool {
	return len(i.Suppressions) > 0
}

// MarshalJSON is used convert a Score object into a JSON representation
func (c Score) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// MarshalYAML is used convert a Score object into a YAML representation
func (c Score) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

// String converts a Score into a string
func (c Score) String() string {
	switch c {
	case High:
		return "HIGH"
	case Medium:
		return "MEDIUM"
	case Low:
		return "LOW"
	}
	return "UNDEFINED"
}

// ParseScore is the inverse of String, ignoring case
func ParseScore(s string) (Score, error) {
	switch s {
	case "HIGH", "high", "High":
		return High, nil
	case "MEDIUM", "medium", "Medium":
		return Medium, nil
	case "LOW", "low", "Low":
		return Low, nil
	}
	return Low, fmt.Errorf("unknown score %q", s)
}

// codeSnippet extracts a code snippet based on the line numbers
func codeSnippet(file *os.File, start int64, end int64) (string, error) {
	var pos int64
	var buf bytes.Buffer
	scanner := bufio.NewScanner(file)
	scanner.Split(bufio.ScanLines)
	for scanner.Scan() {
		pos++
		if pos > end {
			break
		} else if pos >= start && pos <= end {
			code := fmt.Sprintf("%d: %s\n", pos, scanner.Text())
			buf.WriteString(code)
		}
	}
	return buf.String(), scanner.Err()
}

func codeSnippetStartLine(start int) int64 {
	s := int64(start)
	if s-SnippetOffset > 0 {
		return s - SnippetOffset
	}
	return s
}

func codeSnippetEndLine(end int) int64 {
	return int64(end) + SnippetOffset
}

// New creates a new Issue spanning [pos, end) of fobj
func New(fobj *token.File, pos, end token.Pos, ruleID, desc string, confidence Score) *Issue {
	name := fobj.Name()
	start, last := fobj.Line(pos), fobj.Line(end)
	line := strconv.Itoa(start)
	if start != last {
		line = fmt.Sprintf("%d-%d", start, last)
	}
	col := strconv.Itoa(fobj.Position(pos).Column)

	var code string
	if file, err := os.Open(name); err == nil {
		defer file.Close()
		code, err = codeSnippet(file, codeSnippetStartLine(start), codeSnippetEndLine(last))
		if err != nil {
			code = err.Error()
		}
	}

	return &Issue{
		File:       name,
		Line:       line,
		Col:        col,
		RuleID:     ruleID,
		What:       desc,
		Confidence: confidence,
		Code:       code,
		Cwe:        GetCweByRule(ruleID),
	}
}

// WithSuppression adds a suppression reason to the issue
func (i *Issue) WithSuppression(kind, justification string) *Issue {
	i.Suppressions = append(i.Suppressions, SuppressionInfo{Kind: kind, Justification: justification})
	return i
}
