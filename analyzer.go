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
	"context"
	"fmt"
	"go/ast"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/packages"

	"github.com/securego/conform/cwe"
	"github.com/securego/conform/issue"
)

// LoggerPrefix is prepended to every line the analyzer logs.
const LoggerPrefix = "[conform] "

// RuleBuilder creates a fresh instance of the rule registered under id.
// Rules keep per traversal state, so every package gets its own instances.
type RuleBuilder func(id string, c Config) (Rule, error)

// Metrics used when reporting information about a scanning run.
type Metrics struct {
	NumFiles    int `json:"files" yaml:"files"`
	NumLines    int `json:"lines" yaml:"lines"`
	NumSilenced int `json:"silenced" yaml:"silenced"`
	NumFound    int `json:"found" yaml:"found"`
	// Counters sums the statistics counters of every checker, such as the
	// type checks done by property matchers.
	Counters map[string]int `json:"counters,omitempty" yaml:"counters,omitempty"`
}

// weaknessProvider is implemented by rules declaring their own CWE.
type weaknessProvider interface {
	CWE() string
}

// Analyzer object is the main object of conform. It has methods to load
// packages and run the rules on every file of them.
type Analyzer struct {
	config            Config
	logger            *log.Logger
	tests             bool
	excludeGenerated  bool
	trackSuppressions bool
	debug             bool
	minConfidence     Confidence
	concurrency       int
	ruleBuilders      map[string]RuleBuilder
	pathFilter        *PathExclusionFilter

	mu     sync.Mutex
	seen   map[string]bool
	issues []*issue.Issue
	stats  *Metrics
	errors map[string][]Error
}

// NewAnalyzer builds a new analyzer. The minimum confidence and the debug
// output are read from the global section of conf.
func NewAnalyzer(conf Config, tests, excludeGenerated, trackSuppressions bool, concurrency int, logger *log.Logger) *Analyzer {
	if conf == nil {
		conf = NewConfig()
	}
	if logger == nil {
		logger = log.New(os.Stderr, LoggerPrefix, log.LstdFlags)
	}
	if concurrency < 1 {
		concurrency = 1
	}
	minConfidence := DefaultMinConfidence
	if setting, err := conf.GetGlobal(MinConfidence); err == nil {
		if parsed, err := ParseConfidence(setting); err == nil {
			minConfidence = parsed
		} else {
			logger.Printf("Ignoring global %s: %v", MinConfidence, err)
		}
	}
	debug, _ := conf.IsGlobalEnabled(Debug)
	if enabled, err := conf.IsGlobalEnabled(ExcludeGenerated); err == nil && enabled {
		excludeGenerated = true
	}
	if enabled, err := conf.IsGlobalEnabled(Tests); err == nil && enabled {
		tests = true
	}
	return &Analyzer{
		config:            conf,
		logger:            logger,
		tests:             tests,
		excludeGenerated:  excludeGenerated,
		trackSuppressions: trackSuppressions,
		debug:             debug,
		minConfidence:     minConfidence,
		concurrency:       concurrency,
		ruleBuilders:      make(map[string]RuleBuilder),
		seen:              make(map[string]bool),
		issues:            make([]*issue.Issue, 0, 16),
		stats:             &Metrics{},
		errors:            make(map[string][]Error),
	}
}

// SetConfig updates the analyzer configuration
func (a *Analyzer) SetConfig(conf Config) {
	a.config = conf
}

// Config returns the analyzer configuration
func (a *Analyzer) Config() Config {
	return a.config
}

// SetPathExclusionFilter installs a filter suppressing rules per path.
func (a *Analyzer) SetPathExclusionFilter(f *PathExclusionFilter) {
	a.pathFilter = f
}

// LoadRules instantiates all the rules to be used when analyzing source
// packages
func (a *Analyzer) LoadRules(ruleDefinitions map[string]RuleBuilder) {
	for id, def := range ruleDefinitions {
		a.ruleBuilders[id] = def
	}
}

// RuleIDs returns the IDs of the loaded rules, sorted.
func (a *Analyzer) RuleIDs() []string {
	ids := make([]string, 0, len(a.ruleBuilders))
	for id := range a.ruleBuilders {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Process kicks off the analysis process for the given package directories.
// Packages are checked concurrently, each on its own Checker.
func (a *Analyzer) Process(ctx context.Context, buildTags []string, packagePaths ...string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for _, pkgPath := range packagePaths {
		pkgPath := pkgPath
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return a.processPackagePath(ctx, buildTags, pkgPath)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	sortErrors(a.errors)
	return nil
}

func (a *Analyzer) processPackagePath(ctx context.Context, buildTags []string, pkgPath string) error {
	abspath, err := GetPkgAbsPath(pkgPath)
	if err != nil {
		a.logger.Printf("Skipping: %s. Path doesn't exist.", abspath)
		return nil
	}
	a.logger.Println("Import directory:", abspath)
	prog, err := LoadProgram(ctx, &LoadConfig{Dir: abspath, BuildTags: buildTags, Tests: a.tests}, ".")
	if err != nil {
		return fmt.Errorf("loading %s: %w", pkgPath, err)
	}
	a.mergeErrors(prog.Errors)
	return a.CheckProgram(prog)
}

// CheckProgram runs the loaded rules over every package of an already
// loaded program.
func (a *Analyzer) CheckProgram(prog *Program) error {
	for _, pkg := range prog.Packages {
		if strings.HasSuffix(pkg.ID, ".test") {
			// synthesized test main
			continue
		}
		if err := a.checkPackage(prog, pkg); err != nil {
			return err
		}
	}
	return nil
}

// buildRules creates fresh rule instances and maps their names to IDs.
func (a *Analyzer) buildRules() ([]Rule, map[string]string, error) {
	ids := make([]string, 0, len(a.ruleBuilders))
	for id := range a.ruleBuilders {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rules := make([]Rule, 0, len(ids))
	names := make(map[string]string, len(ids))
	for _, id := range ids {
		r, err := a.ruleBuilders[id](id, a.config)
		if err != nil {
			return nil, nil, fmt.Errorf("building rule %s: %w", id, err)
		}
		rules = append(rules, r)
		names[r.Name()] = id
	}
	return rules, names, nil
}

func (a *Analyzer) checkPackage(prog *Program, pkg *packages.Package) error {
	counters, err := a.runPackage(prog, pkg, func(file *ast.File, res *Result, ids, weaknesses map[string]string) {
		lines := prog.Fset.File(file.Pos()).LineCount()
		a.collect(res, ids, weaknesses, lines)
	})
	a.mergeCounters(counters)
	return err
}

// fileVisitor receives the result of one file along with the rule IDs and
// weakness overrides keyed by rule name.
type fileVisitor func(file *ast.File, res *Result, ids, weaknesses map[string]string)

// runPackage returns the statistics counters of the package checker.
func (a *Analyzer) runPackage(prog *Program, pkg *packages.Package, visit fileVisitor) (map[string]int, error) {
	a.logger.Println("Checking package:", pkg.Name)
	rules, ids, err := a.buildRules()
	if err != nil {
		return nil, err
	}
	weaknesses := make(map[string]string)
	for _, r := range rules {
		if w, ok := r.(weaknessProvider); ok && w.CWE() != "" {
			weaknesses[r.Name()] = w.CWE()
		}
	}
	checker := NewChecker(prog,
		WithLogger(a.logger),
		WithDebug(a.debug),
		WithMinConfidence(a.minConfidence),
	)
	if err := checker.Register(rules...); err != nil {
		return nil, fmt.Errorf("package %s: %w", pkg.PkgPath, err)
	}

	for _, file := range pkg.Syntax {
		name := prog.FileName(file)
		if !a.claim(name) {
			continue
		}
		if a.excludeGenerated && ast.IsGenerated(file) {
			a.logger.Println("Ignoring generated file:", name)
			continue
		}
		a.logger.Println("Checking file:", name)
		res, err := checker.ExecuteVerbose(file)
		if err != nil {
			return checker.Counters(), fmt.Errorf("checking %s: %w", name, err)
		}
		visit(file, res, ids, weaknesses)
	}
	return checker.Counters(), nil
}

// Diagnostics runs the rules over one package of prog and returns the
// reported failures as analysis diagnostics. Messages are prefixed with the
// rule ID and weakness; suggested fixes carry the proposed changes. Excluded
// paths and silenced failures produce no diagnostic.
func (a *Analyzer) Diagnostics(prog *Program, pkg *packages.Package) ([]analysis.Diagnostic, error) {
	var diags []analysis.Diagnostic
	_, err := a.runPackage(prog, pkg, func(_ *ast.File, res *Result, ids, weaknesses map[string]string) {
		for _, f := range res.Reported {
			id := ids[f.RuleName]
			if id == "" {
				id = f.RuleName
			}
			if a.pathFilter.ShouldExclude(f.File, id, f.RuleName) {
				continue
			}
			d := f.ToDiagnostic()
			d.Category = id
			w := issue.GetCweByRule(id)
			if weaknesses[f.RuleName] != "" {
				w = cwe.Get(weaknesses[f.RuleName])
			}
			if w != nil {
				d.Message = fmt.Sprintf("%s: [%s] %s", id, w.SprintID(), d.Message)
			} else {
				d.Message = fmt.Sprintf("%s: %s", id, d.Message)
			}
			diags = append(diags, d)
		}
	})
	return diags, err
}

// claim reports whether the file is checked for the first time. Test
// variants of a package repeat its files.
func (a *Analyzer) claim(filename string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.seen[filename] {
		return false
	}
	a.seen[filename] = true
	return true
}

func (a *Analyzer) collect(res *Result, ids, weaknesses map[string]string, lines int) {
	var issues []*issue.Issue
	found, silenced := 0, 0
	for _, f := range res.All() {
		id := ids[f.RuleName]
		if id == "" {
			id = f.RuleName
		}
		i := toIssue(f, id, weaknesses[f.RuleName])
		if a.pathFilter.ShouldExclude(f.File, id, f.RuleName) {
			i.WithSuppression(PathExcludedKind, "path excluded by configuration")
		}
		if i.IsSuppressed() {
			silenced++
			if !a.trackSuppressions {
				continue
			}
		} else {
			found++
		}
		issues = append(issues, i)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.issues = append(a.issues, issues...)
	a.stats.NumFiles++
	a.stats.NumLines += lines
	a.stats.NumFound += found
	a.stats.NumSilenced += silenced
}

func (a *Analyzer) mergeCounters(counters map[string]int) {
	if len(counters) == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stats.Counters == nil {
		a.stats.Counters = make(map[string]int, len(counters))
	}
	for name, n := range counters {
		a.stats.Counters[name] += n
	}
}

func (a *Analyzer) mergeErrors(errs map[string][]Error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for file, e := range errs {
		a.errors[file] = append(a.errors[file], e...)
	}
}

// toIssue converts a failure into the issue shape shared by the reports.
func toIssue(f *Failure, ruleID, weakness string) *issue.Issue {
	var i *issue.Issue
	if f.tf != nil {
		i = issue.New(f.tf, f.tf.Pos(f.Start), f.tf.Pos(f.End), ruleID, f.Text, f.Confidence.Score())
	} else {
		p := f.Position()
		i = &issue.Issue{
			File:       f.File,
			Line:       fmt.Sprint(p.Line),
			Col:        fmt.Sprint(p.Column),
			RuleID:     ruleID,
			What:       f.Text,
			Confidence: f.Confidence.Score(),
			Cwe:        issue.GetCweByRule(ruleID),
		}
	}
	i.RuleName = f.RuleName
	i.ErrorCode = f.Code
	i.Grade = f.Confidence.String()
	i.Autofix = f.ReadableFixes()
	if weakness != "" {
		i.Cwe = cwe.Get(weakness)
	}
	for _, r := range f.SilenceReasons() {
		i.WithSuppression(r.String(), r.Justification())
	}
	return i
}

// Report returns the current issues discovered and the metrics about the scan
func (a *Analyzer) Report() ([]*issue.Issue, *Metrics, map[string][]Error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.issues, a.stats, a.errors
}

// Reset clears state such as context, issues and metrics from the configured analyzer
func (a *Analyzer) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seen = make(map[string]bool)
	a.issues = make([]*issue.Issue, 0, 16)
	a.stats = &Metrics{}
	a.errors = make(map[string][]Error)
}

// GetPkgAbsPath returns the Go package absolute path derived from
// the given path
func GetPkgAbsPath(pkgPath string) (string, error) {
	absPath, err := filepath.Abs(pkgPath)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return absPath, fmt.Errorf("no project absolute path found")
	}
	return absPath, nil
}
