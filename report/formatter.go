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

package report

import (
	"io"

	"github.com/securego/conform"
	"github.com/securego/conform/issue"
	"github.com/securego/conform/report/golint"
	"github.com/securego/conform/report/json"
	"github.com/securego/conform/report/sarif"
	"github.com/securego/conform/report/text"
	"github.com/securego/conform/report/yaml"
)

// Format enumerates the output format for reported issues
type Format int

const (
	// ReportText is the default format that writes to stdout
	ReportText Format = iota // Plain text format

	// ReportJSON set the output format to json
	ReportJSON // Json format

	// ReportYAML set the output format to yaml
	ReportYAML // YAML format

	// ReportSARIF set the output format to SARIF
	ReportSARIF // SARIF format

	// ReportGolint set the output format to the golint one line style
	ReportGolint // golint format
)

var formatNames = map[string]Format{
	"text":   ReportText,
	"json":   ReportJSON,
	"yaml":   ReportYAML,
	"sarif":  ReportSARIF,
	"golint": ReportGolint,
}

// IsValidFormat reports whether format names a supported report format.
func IsValidFormat(format string) bool {
	_, ok := formatNames[format]
	return ok
}

// CreateReport generates a report based for the supplied issues and metrics given
// the specified format. The formats currently accepted are: json, yaml, sarif, golint and text.
// Suppressed issues are only kept by the json and sarif formats.
func CreateReport(w io.Writer, format string, enableColor bool, rootPaths []string, data *conform.ReportInfo) error {
	var err error
	if format != "json" && format != "sarif" {
		data.Issues = filterOutSuppressedIssues(data.Issues)
	}
	switch format {
	case "json":
		err = json.WriteReport(w, data)
	case "yaml":
		err = yaml.WriteReport(w, data)
	case "text":
		err = text.WriteReport(w, data, enableColor)
	case "golint":
		err = golint.WriteReport(w, data)
	case "sarif":
		err = sarif.WriteReport(w, data, rootPaths)
	default:
		err = text.WriteReport(w, data, enableColor)
	}
	return err
}

func filterOutSuppressedIssues(issues []*issue.Issue) []*issue.Issue {
	nonSuppressedIssues := []*issue.Issue{}
	for _, issue := range issues {
		if !issue.IsSuppressed() {
			nonSuppressedIssues = append(nonSuppressedIssues, issue)
		}
	}
	return nonSuppressedIssues
}
