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

// Package goanalysis provides a standard golang.org/x/tools/go/analysis.Analyzer for conform.
package goanalysis

import (
	"fmt"
	"io"
	"log"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/packages"

	"github.com/securego/conform"
	"github.com/securego/conform/exemption"
	"github.com/securego/conform/rules"
)

const Doc = `conform checks Go code against a catalogue of banned APIs and conformance patterns.`

// Analyzer is the standard go/analysis Analyzer for conform.
var Analyzer = &analysis.Analyzer{
	Name: "conform",
	Doc:  Doc,
	Run:  run,
}

var (
	flagIncludeRules     string
	flagExcludeRules     string
	flagExcludeGenerated bool
	flagMinConfidence    string
	flagConfig           string
	flagExemptions       string
)

//nolint:gochecknoinits // Required for go/analysis Analyzer flag registration
func init() {
	Analyzer.Flags.StringVar(&flagIncludeRules, "include", "", "Comma-separated list of rule IDs to include (e.g., C101,C104)")
	Analyzer.Flags.StringVar(&flagExcludeRules, "exclude", "", "Comma-separated list of rule IDs to exclude (e.g., C102)")
	Analyzer.Flags.BoolVar(&flagExcludeGenerated, "exclude-generated", true, "Exclude generated code from analysis")
	Analyzer.Flags.StringVar(&flagMinConfidence, "confidence", "", "Minimum confidence: low, medium, high-extends or high-exact")
	Analyzer.Flags.StringVar(&flagConfig, "conf", "", "Path to a YAML or JSON configuration file")
	Analyzer.Flags.StringVar(&flagExemptions, "exemptions", "", "Path to an exemption file")
}

func run(pass *analysis.Pass) (any, error) {
	config, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := log.New(io.Discard, "", 0) // Discard conform's verbose logging
	conformAnalyzer := conform.NewAnalyzer(config, false, flagExcludeGenerated, false, 1, logger)

	builders, err := rules.Load(config, buildFilters(flagIncludeRules, flagExcludeRules, rules.NewRuleFilter)...)
	if err != nil {
		return nil, err
	}
	conformAnalyzer.LoadRules(builders)

	pkg := convertPassToPackage(pass)
	prog := conform.NewProgram(pass.Fset, pkg)
	diags, err := conformAnalyzer.Diagnostics(prog, pkg)
	if err != nil {
		return nil, err
	}
	for _, d := range diags {
		pass.Report(d)
	}
	return nil, nil
}

// loadConfig assembles the configuration from the analyzer flags.
func loadConfig() (conform.Config, error) {
	config := conform.NewConfig()
	if flagConfig != "" {
		loaded, err := conform.LoadConfigFile(flagConfig)
		if err != nil {
			return nil, err
		}
		config = loaded
	}
	if flagMinConfidence != "" {
		if _, err := conform.ParseConfidence(flagMinConfidence); err != nil {
			return nil, fmt.Errorf("invalid confidence %q: %w", flagMinConfidence, err)
		}
		config.SetGlobal(conform.MinConfidence, flagMinConfidence)
	}
	if flagExemptions != "" {
		config.Set(conform.ExemptionsKey, flagExemptions)
	}
	entries, err := exemption.FromConfig(config)
	if err != nil {
		return nil, err
	}
	if entries != nil {
		config.SetExemptions(entries)
	}
	return config, nil
}

// convertPassToPackage converts an analysis.Pass to a packages.Package
// so the pass can be checked like a loaded program.
func convertPassToPackage(pass *analysis.Pass) *packages.Package {
	pkg := &packages.Package{
		ID:         pass.Pkg.Path(),
		Name:       pass.Pkg.Name(),
		PkgPath:    pass.Pkg.Path(),
		Fset:       pass.Fset,
		Syntax:     pass.Files,
		Types:      pass.Pkg,
		TypesInfo:  pass.TypesInfo,
		TypesSizes: pass.TypesSizes,
	}

	// Populate file names for the package
	pkg.CompiledGoFiles = make([]string, len(pass.Files))
	for i, f := range pass.Files {
		pkg.CompiledGoFiles[i] = pass.Fset.File(f.Pos()).Name()
	}

	return pkg
}

// buildFilters creates include/exclude filters from comma-separated rule IDs
func buildFilters[T any](include, exclude string, newFilter func(bool, ...string) T) []T {
	var filters []T
	if include != "" {
		if ids := parseRuleIDs(include); len(ids) > 0 {
			filters = append(filters, newFilter(false, ids...))
		}
	}
	if exclude != "" {
		if ids := parseRuleIDs(exclude); len(ids) > 0 {
			filters = append(filters, newFilter(true, ids...))
		}
	}
	return filters
}

// parseRuleIDs parses a comma-separated list of rule IDs
func parseRuleIDs(s string) []string {
	parts := strings.Split(s, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if id := strings.TrimSpace(p); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
