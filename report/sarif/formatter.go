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

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/securego/conform"
	"github.com/securego/conform/cwe"
	"github.com/securego/conform/issue"
)

const informationURI = "https://github.com/securego/conform/"

// GenerateReport converts a conform report to a SARIF report. Suppressed
// issues are kept as results carrying their suppressions.
func GenerateReport(rootPaths []string, data *conform.ReportInfo) (*Report, error) {
	type rule struct {
		index int
		rule  *ReportingDescriptor
	}

	rules := make([]*ReportingDescriptor, 0)
	rulesIndices := make(map[string]rule)

	results := []*Result{}
	cweTaxa := make([]*ReportingDescriptor, 0)
	weaknesses := make(map[string]*cwe.Weakness)

	for _, issue := range data.Issues {
		if issue.Cwe != nil {
			if _, ok := weaknesses[issue.Cwe.ID]; !ok {
				weakness := cwe.Get(issue.Cwe.ID)
				if weakness == nil {
					weakness = issue.Cwe
				}
				weaknesses[issue.Cwe.ID] = weakness
				cweTaxa = append(cweTaxa, parseSarifTaxon(weakness))
			}
		}

		if _, ok := rulesIndices[issue.RuleID]; !ok {
			r := parseSarifRule(issue)
			rulesIndices[issue.RuleID] = rule{rule: r}
			rules = append(rules, r)
		}
	}

	// Rule indices refer to the sorted driver rules.
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	for i, r := range rules {
		rulesIndices[r.ID] = rule{index: i, rule: r}
	}
	sort.SliceStable(cweTaxa, func(i, j int) bool { return cweTaxa[i].ID < cweTaxa[j].ID })

	for _, issue := range data.Issues {
		r := rulesIndices[issue.RuleID]
		region, err := parseSarifRegion(issue)
		if err != nil {
			return nil, err
		}
		result := newResult(r.rule.ID, r.index, getSarifLevel(issue.Confidence), issue.What,
			parseSarifArtifactLocation(issue, rootPaths), region).
			withSuppressions(buildSarifSuppressions(issue.Suppressions)...).
			withFix(issue.Autofix)
		results = append(results, result)
	}

	run := &Run{
		Tool:    &Tool{Driver: buildSarifDriver(rules, data.Version)},
		Results: results,
	}
	if len(cweTaxa) > 0 {
		run.Taxonomies = []*ToolComponent{buildCWETaxonomy(cweTaxa)}
	}
	return &Report{Version: Version, Schema: Schema, Runs: []*Run{run}}, nil
}

func parseSarifRule(issue *issue.Issue) *ReportingDescriptor {
	name := issue.RuleName
	if name == "" {
		name = issue.RuleID
	}
	d := &ReportingDescriptor{
		ID:               issue.RuleID,
		Name:             name,
		ShortDescription: text(issue.What),
		FullDescription:  text(issue.What),
		Help: text(fmt.Sprintf("%s\nError code: %d\nConfidence: %s\n",
			issue.What, issue.ErrorCode, issue.Confidence.String())),
		Properties: &PropertyBag{
			"tags":      []string{"security", issue.Confidence.String()},
			"precision": strings.ToLower(issue.Confidence.String()),
		},
		DefaultConfiguration: &ReportingConfiguration{
			Level: getSarifLevel(issue.Confidence),
		},
	}
	if issue.Cwe != nil {
		d.Relationships = []*ReportingDescriptorRelationship{
			buildSarifReportingDescriptorRelationship(issue.Cwe),
		}
	}
	return d
}

func buildSarifReportingDescriptorRelationship(weakness *cwe.Weakness) *ReportingDescriptorRelationship {
	return &ReportingDescriptorRelationship{
		Target: &ReportingDescriptorReference{
			ID:            weakness.ID,
			GUID:          uuid3(weakness.SprintID()),
			ToolComponent: toolComponentReference(cwe.Acronym),
		},
		Kinds: []string{"superset"},
	}
}

func buildCWETaxonomy(taxa []*ReportingDescriptor) *ToolComponent {
	t := newToolComponent(cwe.Acronym, cwe.Version, cwe.InformationURI)
	t.ReleaseDateUtc = cwe.ReleaseDateUtc
	t.DownloadURI = cwe.DownloadURI
	t.Organization = cwe.Organization
	t.ShortDescription = text(cwe.Description)
	t.IsComprehensive = true
	t.Language = "en"
	t.MinimumRequiredLocalizedDataSemanticVersion = cwe.Version
	t.Taxa = taxa
	return t
}

func parseSarifTaxon(weakness *cwe.Weakness) *ReportingDescriptor {
	return &ReportingDescriptor{
		ID:               weakness.ID,
		GUID:             uuid3(weakness.SprintID()),
		HelpURI:          weakness.SprintURL(),
		FullDescription:  text(weakness.Description),
		ShortDescription: text(weakness.Name),
	}
}

func parseSemanticVersion(version string) string {
	if len(version) == 0 {
		return "devel"
	}
	return strings.TrimPrefix(version, "v")
}

func buildSarifDriver(rules []*ReportingDescriptor, version string) *ToolComponent {
	t := newToolComponent("conform", version, informationURI)
	t.SemanticVersion = parseSemanticVersion(version)
	t.SupportedTaxonomies = []*ToolComponentReference{toolComponentReference(cwe.Acronym)}
	t.Rules = rules
	return t
}

// uuid3 derives a stable GUID from a name.
func uuid3(value string) string {
	return uuid.NewMD5(uuid.Nil, []byte(value)).String()
}

// parseSarifArtifactLocation makes the file relative to the longest
// matching root.
func parseSarifArtifactLocation(issue *issue.Issue, rootPaths []string) *ArtifactLocation {
	filePath := issue.File
	longest := -1
	for _, rootPath := range rootPaths {
		root := strings.TrimSuffix(rootPath, "/") + "/"
		if strings.HasPrefix(issue.File, root) && len(root) > longest {
			filePath = strings.TrimPrefix(issue.File, root)
			longest = len(root)
		}
	}
	return &ArtifactLocation{URI: filePath}
}

func parseSarifRegion(issue *issue.Issue) (*Region, error) {
	lines := strings.Split(issue.Line, "-")
	startLine, err := strconv.Atoi(lines[0])
	if err != nil {
		return nil, err
	}
	endLine := startLine
	if len(lines) > 1 {
		endLine, err = strconv.Atoi(lines[1])
		if err != nil {
			return nil, err
		}
	}
	col, err := strconv.Atoi(issue.Col)
	if err != nil {
		return nil, err
	}
	var code strings.Builder
	line := startLine
	for _, codeLine := range strings.Split(issue.Code, "\n") {
		lineStart := fmt.Sprintf("%d:", line)
		if !strings.HasPrefix(codeLine, lineStart) {
			continue
		}
		code.WriteString(strings.TrimSpace(strings.TrimPrefix(codeLine, lineStart)))
		if endLine > startLine {
			code.WriteString("\n")
		}
		line++
		if line > endLine {
			break
		}
	}
	return &Region{
		StartLine:      startLine,
		EndLine:        endLine,
		StartColumn:    col,
		EndColumn:      col,
		SourceLanguage: "go",
		Snippet:        &ArtifactContent{Text: code.String()},
	}, nil
}

func getSarifLevel(s issue.Score) Level {
	switch s {
	case issue.High, issue.Medium:
		return Error
	case issue.Low:
		return Warning
	default:
		return Note
	}
}

// buildSarifSuppressions reports every suppression as external: they all
// come from configuration, never from comments in the source.
func buildSarifSuppressions(suppressions []issue.SuppressionInfo) []*Suppression {
	var sarifSuppressionList []*Suppression
	for _, s := range suppressions {
		sarifSuppressionList = append(sarifSuppressionList,
			&Suppression{Kind: ExternalSuppression, Justification: fmt.Sprintf("%s: %s", s.Kind, s.Justification)})
	}
	return sarifSuppressionList
}
