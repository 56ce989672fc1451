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
package sarif

func text(s string) *MultiformatMessageString {
	return &MultiformatMessageString{Text: s}
}

func newToolComponent(name, version, informationURI string) *ToolComponent {
	return &ToolComponent{
		Name:           name,
		Version:        version,
		InformationURI: informationURI,
		GUID:           uuid3(name),
	}
}

func toolComponentReference(name string) *ToolComponentReference {
	return &ToolComponentReference{Name: name, GUID: uuid3(name)}
}

// newResult builds a result located at region of the artifact.
func newResult(ruleID string, ruleIndex int, level Level, message string, artifact *ArtifactLocation, region *Region) *Result {
	return &Result{
		RuleID:    ruleID,
		RuleIndex: ruleIndex,
		Level:     level,
		Message:   &Message{Text: message},
		Locations: []*Location{{
			PhysicalLocation: &PhysicalLocation{ArtifactLocation: artifact, Region: region},
		}},
	}
}

// withFix describes the proposed changes as a single fix.
func (r *Result) withFix(autofix string) *Result {
	if autofix == "" {
		return r
	}
	// Text must be supplied along with Markdown
	r.Fixes = []*Fix{{Description: &Message{Text: autofix, Markdown: autofix}}}
	return r
}

func (r *Result) withSuppressions(suppressions ...*Suppression) *Result {
	r.Suppressions = suppressions
	return r
}
