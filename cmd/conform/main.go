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

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/securego/conform"
	"github.com/securego/conform/exemption"
	"github.com/securego/conform/issue"
	"github.com/securego/conform/report"
	"github.com/securego/conform/rules"
)

const (
	usageText = `
conform - Go conformance checker

conform checks Go source code against a catalogue of banned APIs and
conformance patterns, such as running external commands or assigning
unchecked markup to DOM elements.

VERSION: %s
GIT TAG: %s
BUILD DATE: %s

USAGE:

	# Check a single package
	$ conform $GOPATH/src/github.com/example/project

	# Check all packages under the current directory and save results in
	# json format.
	$ conform -fmt=json -out=results.json ./...

	# Run a specific set of rules (by default all rules will be run):
	$ conform -include=C101,C104,C108 ./...

	# Run all rules except the provided
	$ conform -exclude=C102 $GOPATH/src/github.com/example/project/...

	# Re-run the analysis whenever a Go file changes
	$ conform -watch ./...

`
)

var (
	// format output
	flagFormat = flag.String("fmt", "text", "Set output format. Valid options are: json, yaml, sarif, golint or text")

	// output file
	flagOutput = flag.String("out", "", "Set output file for results")

	// config file
	flagConfig = flag.String("conf", "", "Path to optional config file, YAML or JSON")

	// exemption file
	flagExemptions = flag.String("exemptions", "", "Path to optional exemption file, overrides the one named by the config")

	// quiet
	flagQuiet = flag.Bool("quiet", false, "Only show output when errors are found")

	// verbose logging
	flagVerbose = flag.Bool("verbose", false, "Log matcher decisions while checking")

	// rules to explicitly include
	flagRulesInclude = flag.String("include", "", "Comma separated list of rules IDs to include. (see rule list)")

	// rules to explicitly exclude
	flagRulesExclude = flag.String("exclude", "", "Comma separated list of rules IDs to exclude. (see rule list)")

	// rules to exclude per path
	flagExcludeRules = flag.String("exclude-rules", "", "Path based rule exclusions: 'path-regex:C101,C102;other-regex:*'")

	// minimum confidence of reported failures
	flagConfidence = flag.String("confidence", "", "Minimum confidence: low, medium, high-extends or high-exact")

	// go build tags
	flagBuildTags = flag.String("tags", "", "Comma separated list of build tags")

	// scan tests files
	flagScanTests = flag.Bool("tests", false, "Scan tests files")

	// exclude generated files
	flagExcludeGenerated = flag.Bool("exclude-generated", false, "Exclude generated files")

	// track suppressions
	flagTrackSuppressions = flag.Bool("track-suppressions", false, "Report silenced failures along with their suppression")

	// number of packages checked concurrently
	flagConcurrency = flag.Int("concurrency", 1, "Number of packages checked concurrently")

	// watch mode
	flagWatch = flag.Bool("watch", false, "Re-run the analysis when Go files change")

	// no color
	flagNoColor = flag.Bool("no-color", false, "Disable colored text output")

	// print version and quit with exit code 0
	flagVersion = flag.Bool("version", false, "Print version and quit with exit code 0")

	// directories to exclude
	flagDirsExclude arrayFlags

	logger *log.Logger
)

func usage() {
	usageText := fmt.Sprintf(usageText, Version, GitTag, BuildDate)
	fmt.Fprintln(os.Stderr, usageText)
	fmt.Fprint(os.Stderr, "OPTIONS:\n\n")
	flag.PrintDefaults()
	fmt.Fprint(os.Stderr, "\n\nRULES:\n\n")

	// sorted rule list for ease of reading
	rl := rules.Generate()
	for _, k := range rl.IDs() {
		fmt.Fprintf(os.Stderr, "\t%s: %s\n", k, rl[k].Description)
	}
	fmt.Fprint(os.Stderr, "\n")
}

// loadConfig reads the config file, if any, and the exemptions it or the
// exemptions flag names.
func loadConfig(configFile, exemptionsFile string) (conform.Config, error) {
	config := conform.NewConfig()
	if configFile != "" {
		loaded, err := conform.LoadConfigFile(configFile)
		if err != nil {
			return nil, err
		}
		config = loaded
	}
	if exemptionsFile != "" {
		config.Set(conform.ExemptionsKey, exemptionsFile)
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

func loadRules(config conform.Config, include, exclude string) (map[string]conform.RuleBuilder, error) {
	var filters []rules.RuleFilter
	if include != "" {
		logger.Printf("Including rules: %s", include)
		including := strings.Split(include, ",")
		filters = append(filters, rules.NewRuleFilter(false, including...))
	} else {
		logger.Println("Including rules: default")
	}

	if exclude != "" {
		logger.Printf("Excluding rules: %s", exclude)
		excluding := strings.Split(exclude, ",")
		filters = append(filters, rules.NewRuleFilter(true, excluding...))
	} else {
		logger.Println("Excluding rules: default")
	}
	return rules.Load(config, filters...)
}

func getRootPaths(paths []string) []string {
	rootPaths := []string{}
	for _, path := range paths {
		rootPath, err := conform.RootPath(path)
		if err != nil {
			logger.Fatal(fmt.Errorf("failed to get the root path of the projects: %w", err))
		}
		rootPaths = append(rootPaths, rootPath)
	}
	return rootPaths
}

// getPrintedFormat falls back to text for unknown formats.
func getPrintedFormat(format string) string {
	if !report.IsValidFormat(format) {
		return "text"
	}
	return format
}

func saveReport(filename, format string, rootPaths []string, reportInfo *conform.ReportInfo) error {
	if filename == "" {
		return report.CreateReport(os.Stdout, format, !*flagNoColor, rootPaths, reportInfo)
	}
	outfile, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer outfile.Close()
	return report.CreateReport(outfile, format, false, rootPaths, reportInfo)
}

func buildTags(tags string) []string {
	if tags == "" {
		return nil
	}
	return strings.Split(tags, ",")
}

// scan runs one analysis over the package paths and writes the report. It
// reports whether any issue was found.
func scan(ctx context.Context, analyzer *conform.Analyzer, packages, rootPaths []string) (bool, error) {
	analyzer.Reset()
	if err := analyzer.Process(ctx, buildTags(*flagBuildTags), packages...); err != nil {
		return false, err
	}
	issues, metrics, errors := analyzer.Report()
	sortIssues(issues)

	found := countReported(issues) > 0
	if !found && *flagQuiet {
		return false, nil
	}
	reportInfo := conform.NewReportInfo(issues, metrics, errors).WithVersion(Version)
	if err := saveReport(*flagOutput, getPrintedFormat(*flagFormat), rootPaths, reportInfo); err != nil {
		return found, err
	}
	return found, nil
}

func countReported(issues []*issue.Issue) int {
	n := 0
	for _, i := range issues {
		if !i.IsSuppressed() {
			n++
		}
	}
	return n
}

func listPackages(paths []string) ([]string, error) {
	excluded := conform.ExcludedDirsRegExp(flagDirsExclude)
	var packages []string
	for _, path := range paths {
		pcks, err := conform.PackagePaths(path, excluded)
		if err != nil {
			return nil, err
		}
		packages = append(packages, pcks...)
	}
	sort.Strings(packages)
	return packages, nil
}

func newLogger(quiet bool, w io.Writer) *log.Logger {
	if quiet {
		return log.New(io.Discard, "", 0)
	}
	return log.New(w, conform.LoggerPrefix, log.LstdFlags)
}

func main() {
	// Makes sure some version information is set
	prepareVersionInfo()

	// Setup usage description
	flag.Usage = usage

	// Setup the excluded folders from scan
	flag.Var(&flagDirsExclude, "exclude-dir", "Exclude folder from scan (can be specified multiple times)")

	// Parse command line arguments
	flag.Parse()

	if *flagVersion {
		fmt.Printf("Version: %s\nGit tag: %s\nBuild date: %s\n", Version, GitTag, BuildDate)
		os.Exit(0)
	}

	// Ensure at least one file was specified
	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "\nError: FILE [FILE...] or './...' expected\n")
		flag.Usage()
		os.Exit(1)
	}

	logger = newLogger(*flagQuiet, os.Stderr)

	// Load config
	config, err := loadConfig(*flagConfig, *flagExemptions)
	if err != nil {
		logger.Fatal(err)
	}
	if *flagConfidence != "" {
		if _, err := conform.ParseConfidence(*flagConfidence); err != nil {
			logger.Fatal(err)
		}
		config.SetGlobal(conform.MinConfidence, *flagConfidence)
	}
	if *flagVerbose {
		config.SetGlobal(conform.Debug, "true")
	}

	// Load enabled rule definitions
	ruleBuilders, err := loadRules(config, *flagRulesInclude, *flagRulesExclude)
	if err != nil {
		logger.Fatal(err)
	}
	if len(ruleBuilders) == 0 {
		logger.Fatal("cannot continue: no rules are configured.")
	}

	// Create the analyzer
	analyzer := conform.NewAnalyzer(config, *flagScanTests, *flagExcludeGenerated, *flagTrackSuppressions, *flagConcurrency, logger)
	analyzer.LoadRules(ruleBuilders)

	if *flagExcludeRules != "" {
		pathRules, err := conform.ParseCLIExcludeRules(*flagExcludeRules)
		if err != nil {
			logger.Fatal(err)
		}
		filter, err := conform.NewPathExclusionFilter(pathRules)
		if err != nil {
			logger.Fatal(err)
		}
		analyzer.SetPathExclusionFilter(filter)
	}

	packages, err := listPackages(flag.Args())
	if err != nil {
		logger.Fatal(err)
	}
	if len(packages) == 0 {
		logger.Fatal("No packages found")
	}
	rootPaths := getRootPaths(flag.Args())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *flagWatch {
		if err := watch(ctx, analyzer, flag.Args(), rootPaths); err != nil {
			logger.Fatal(err)
		}
		return
	}

	found, err := scan(ctx, analyzer, packages, rootPaths)
	if err != nil {
		logger.Fatal(err)
	}

	// Do we have an issue? If so exit 1
	if found {
		os.Exit(1)
	}
}
