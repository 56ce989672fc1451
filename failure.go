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
	"go/token"
	"strings"

	"golang.org/x/tools/go/analysis"
)

// SilenceReason explains why a failure is left out of the default report.
type SilenceReason int

const (
	// SilenceExempted is used for failures exempted through an allowlist
	SilenceExempted SilenceReason = iota
	// SilenceLessConfidentDuplicate is used for failures sharing a location with a more confident one
	SilenceLessConfidentDuplicate
	// SilenceDuplicateMessage is used for failures repeating an earlier location and message
	SilenceDuplicateMessage
	// SilenceConfidenceTooLow is used for failures under the checker's threshold
	SilenceConfidenceTooLow
)

func (s SilenceReason) String() string {
	switch s {
	case SilenceExempted:
		return "EXEMPTED"
	case SilenceLessConfidentDuplicate:
		return "LESS_CONFIDENT_DUPLICATE"
	case SilenceDuplicateMessage:
		return "DUPLICATE_MESSAGE"
	case SilenceConfidenceTooLow:
		return "CONFIDENCE_TOO_LOW"
	}
	return fmt.Sprintf("SilenceReason(%d)", int(s))
}

// MarshalJSON is used to convert a SilenceReason into a JSON representation
func (s SilenceReason) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Justification describes the reason for readers of a report.
func (s SilenceReason) Justification() string {
	switch s {
	case SilenceExempted:
		return "file exempted from the rule"
	case SilenceLessConfidentDuplicate:
		return "a more confident failure exists at the same location"
	case SilenceDuplicateMessage:
		return "the same failure was already reported at this location"
	case SilenceConfidenceTooLow:
		return "confidence below the configured minimum"
	}
	return ""
}

// IndividualChange replaces the bytes [Start, End) of File with Replacement.
type IndividualChange struct {
	File        string `json:"file"`
	Start       int    `json:"start"`
	End         int    `json:"end"`
	Replacement string `json:"replacement"`
}

// Fix is an ordered list of changes. Fixes are advisory; they are never applied.
type Fix struct {
	Changes []IndividualChange `json:"changes"`
}

// RelatedInformation points at a second location relevant to a failure.
type RelatedInformation struct {
	File    string `json:"file"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Message string `json:"message"`
}

// Failure is one violation of a rule. Start and End are byte offsets in File.
type Failure struct {
	File       string
	Start      int
	End        int
	Text       string
	Code       int
	RuleName   string
	Fixes      []Fix
	Related    []RelatedInformation
	Confidence Confidence

	silence []SilenceReason
	tf      *token.File
	src     []byte
}

// AddSilenceReason records why the failure is silenced. Reasons are never removed.
func (f *Failure) AddSilenceReason(r SilenceReason) {
	f.silence = append(f.silence, r)
}

// SilenceReasons returns the recorded reasons, nil when the failure is reported.
func (f *Failure) SilenceReasons() []SilenceReason {
	if len(f.silence) == 0 {
		return nil
	}
	out := make([]SilenceReason, len(f.silence))
	copy(out, f.silence)
	return out
}

// IsSilenced reports whether at least one silence reason was recorded.
func (f *Failure) IsSilenced() bool {
	return len(f.silence) > 0
}

// IsSilencedJustBecauseExempted reports whether the only reasons are exemptions.
func (f *Failure) IsSilencedJustBecauseExempted() bool {
	if len(f.silence) == 0 {
		return false
	}
	for _, r := range f.silence {
		if r != SilenceExempted {
			return false
		}
	}
	return true
}

// Key identifies the failure by location, rule and message.
func (f *Failure) Key() string {
	return fmt.Sprintf("%s:%d:%d:%s:%s", f.File, f.Start, f.End, f.RuleName, f.Text)
}

// LocationKey identifies the failure by location only.
func (f *Failure) LocationKey() string {
	return fmt.Sprintf("%s:%d:%d", f.File, f.Start, f.End)
}

// Position returns the line and column of the failure start.
func (f *Failure) Position() token.Position {
	if f.tf == nil {
		return token.Position{Filename: f.File, Offset: f.Start}
	}
	return f.tf.Position(f.tf.Pos(f.Start))
}

// ReadableLocation formats the failure start as file:line:column.
func (f *Failure) ReadableLocation() string {
	p := f.Position()
	return fmt.Sprintf("%s:%d:%d", f.File, p.Line, p.Column)
}

// Message is the failure text prefixed by the rule name, as shown to users.
func (f *Failure) Message() string {
	if f.RuleName == "" {
		return f.Text
	}
	return fmt.Sprintf("[%s] %s", f.RuleName, f.Text)
}

// MessageWithFixes appends the readable form of the suggested fixes to Message.
func (f *Failure) MessageWithFixes() string {
	msg := f.Message()
	if fixes := f.ReadableFixes(); fixes != "" {
		msg += " " + fixes
	}
	return msg
}

// Equals compares every field of two failures, silence reasons included.
func (f *Failure) Equals(o *Failure) bool {
	if f == nil || o == nil {
		return f == o
	}
	if f.File != o.File || f.Start != o.Start || f.End != o.End || f.Text != o.Text ||
		f.Code != o.Code || f.RuleName != o.RuleName || f.Confidence != o.Confidence {
		return false
	}
	if fmt.Sprint(f.Fixes) != fmt.Sprint(o.Fixes) || fmt.Sprint(f.Related) != fmt.Sprint(o.Related) {
		return false
	}
	return fmt.Sprint(f.silence) == fmt.Sprint(o.silence)
}

func (f *Failure) String() string {
	return fmt.Sprintf("%s %s (code %d, confidence %s)", f.ReadableLocation(), f.Message(), f.Code, f.Confidence)
}

// ReadableFixes renders the suggested fixes for humans applying them by hand.
func (f *Failure) ReadableFixes() string {
	if len(f.Fixes) == 0 {
		return ""
	}
	parts := make([]string, 0, len(f.Fixes))
	for _, fix := range f.Fixes {
		if s := f.fixToReadableString(fix); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	header := "Suggested fix:\n"
	if len(f.Fixes) > 1 {
		header = "Suggested fixes:\n"
	}
	return header + strings.Join(parts, "\nOR\n")
}

func (f *Failure) fixToReadableString(fix Fix) string {
	var main, rest []string
	for _, c := range fix.Changes {
		replacement := strings.TrimSpace(c.Replacement)
		switch {
		case c.Start == c.End:
			if strings.Contains(c.Replacement, "import") {
				rest = append(rest, fmt.Sprintf("- Add new import: %s", replacement))
			} else {
				rest = append(rest, fmt.Sprintf("- Insert %s: %s", f.readableRange(c.Start, c.End), replacement))
			}
		case c.Start == f.Start && c.End == f.End:
			if replacement == "" {
				main = append(main, "- Delete the full match")
			} else {
				main = append(main, fmt.Sprintf("- Replace the full match with: %s", replacement))
			}
		default:
			if replacement == "" {
				main = append(main, fmt.Sprintf("- Delete %s", f.readableRange(c.Start, c.End)))
			} else {
				main = append(main, fmt.Sprintf("- Replace %s with: %s", f.readableRange(c.Start, c.End), replacement))
			}
		}
	}
	return strings.TrimSpace(strings.Join(append(main, rest...), "\n"))
}

func (f *Failure) readableRange(from, to int) string {
	if from == to || f.src == nil || to > len(f.src) || from < 0 {
		if f.tf != nil && from <= f.tf.Size() {
			p := f.tf.Position(f.tf.Pos(from))
			return fmt.Sprintf("at line %d, char %d", p.Line, p.Column)
		}
		return fmt.Sprintf("at offset %d", from)
	}
	return fmt.Sprintf("'%s'", strings.ReplaceAll(string(f.src[from:to]), "\n", `\n`))
}

// ToDiagnostic converts the failure into the go/analysis diagnostic shape.
func (f *Failure) ToDiagnostic() analysis.Diagnostic {
	d := analysis.Diagnostic{
		Category: f.RuleName,
		Message:  f.Message(),
	}
	if f.tf == nil {
		return d
	}
	d.Pos = f.tf.Pos(f.Start)
	d.End = f.tf.Pos(f.End)
	for i, fix := range f.Fixes {
		sf := analysis.SuggestedFix{Message: fmt.Sprintf("%s fix %d", f.RuleName, i+1)}
		for _, c := range fix.Changes {
			if c.File != f.File || c.End > f.tf.Size() {
				continue
			}
			sf.TextEdits = append(sf.TextEdits, analysis.TextEdit{
				Pos:     f.tf.Pos(c.Start),
				End:     f.tf.Pos(c.End),
				NewText: []byte(c.Replacement),
			})
		}
		d.SuggestedFixes = append(d.SuggestedFixes, sf)
	}
	for _, r := range f.Related {
		if r.File != f.File {
			continue
		}
		d.Related = append(d.Related, analysis.RelatedInformation{
			Pos:     f.tf.Pos(r.Start),
			End:     f.tf.Pos(r.End),
			Message: r.Message,
		})
	}
	return d
}

// ReplaceNode builds a fix replacing the whole node.
func ReplaceNode(fset *token.FileSet, n ast.Node, replacement string) Fix {
	start, end := fset.Position(n.Pos()), fset.Position(n.End())
	return Fix{Changes: []IndividualChange{{
		File:        start.Filename,
		Start:       start.Offset,
		End:         end.Offset,
		Replacement: replacement,
	}}}
}
