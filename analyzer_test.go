package conform_test

import (
	"context"
	"log"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/securego/conform"
	"github.com/securego/conform/issue"
	"github.com/securego/conform/rules"
	"github.com/securego/conform/testutils"
)

const analyzerMain = `
package main

import "os/exec"

func main() {
	_ = exec.Command("ls").Run()
}
`

const analyzerTools = `
package main

import "os/exec"

func tools() *exec.Cmd {
	return exec.Command("gen")
}
`

// generated files are counted but never flagged
const analyzerGenerated = `// Code generated by stringer. DO NOT EDIT.

package main

import "os/exec"

func generated() {
	_ = exec.Command("gen")
}
`

var _ = Describe("Analyzer", func() {
	var (
		analyzer *conform.Analyzer
		logger   *log.Logger
		pkg      *testutils.TestPackage
		config   conform.Config
	)

	BeforeEach(func() {
		logger, _ = testutils.NewLogger()
		config = conform.NewConfig()
		pkg = testutils.NewTestPackage()
		pkg.AddFile("main.go", analyzerMain)
		pkg.AddFile("tools.go", analyzerTools)
		pkg.AddFile("generated.go", analyzerGenerated)
		Expect(pkg.Build()).Should(Succeed())
	})

	AfterEach(func() {
		pkg.Close()
	})

	process := func(excludeGenerated, trackSuppressions bool) ([]*issue.Issue, *conform.Metrics) {
		analyzer = conform.NewAnalyzer(config, false, excludeGenerated, trackSuppressions, 2, logger)
		analyzer.LoadRules(rules.Generate().Builders())
		Expect(analyzer.Process(context.Background(), nil, pkg.Path)).Should(Succeed())
		issues, metrics, _ := analyzer.Report()
		return issues, metrics
	}

	It("should list the loaded rule IDs in order", func() {
		analyzer = conform.NewAnalyzer(config, false, false, false, 1, logger)
		analyzer.LoadRules(rules.Generate(rules.NewRuleFilter(false, "C104", "C101")).Builders())
		Expect(analyzer.RuleIDs()).Should(Equal([]string{"C101", "C104"}))
	})

	It("should report failures of every file", func() {
		issues, metrics := process(false, false)
		Expect(issues).Should(HaveLen(2))
		Expect(metrics.NumFiles).Should(Equal(3))
		Expect(metrics.NumFound).Should(Equal(2))
		Expect(metrics.NumLines).Should(BeNumerically(">", 10))
		for _, i := range issues {
			Expect(i.RuleID).Should(Equal("C101"))
			Expect(i.RuleName).Should(Equal("ban-exec-command"))
			Expect(i.ErrorCode).Should(Equal(101))
			Expect(i.Confidence).Should(Equal(issue.High))
			Expect(i.Grade).Should(Equal("high-exact"))
			Expect(i.Cwe.ID).Should(Equal("78"))
		}
	})

	It("should skip generated files when asked to", func() {
		issues, metrics := process(true, false)
		Expect(issues).Should(HaveLen(2))
		Expect(metrics.NumFiles).Should(Equal(2))
	})

	It("should read the generated files setting from the config", func() {
		config.SetGlobal(conform.ExcludeGenerated, "true")
		_, metrics := process(false, false)
		Expect(metrics.NumFiles).Should(Equal(2))
	})

	It("should silence exempted files", func() {
		config.SetExemptions(map[string]conform.AllowlistEntry{
			"ban-exec-command": {Reason: conform.ExemptionLegacy, Regexps: []string{`tools\.go$`}},
		})
		issues, metrics := process(false, false)
		Expect(issues).Should(HaveLen(1))
		Expect(metrics.NumFound).Should(Equal(1))
		Expect(metrics.NumSilenced).Should(Equal(1))

		issues, _ = process(false, true)
		Expect(issues).Should(HaveLen(2))
		var suppressed []*issue.Issue
		for _, i := range issues {
			if i.IsSuppressed() {
				suppressed = append(suppressed, i)
			}
		}
		Expect(suppressed).Should(HaveLen(1))
		Expect(suppressed[0].Suppressions[0].Kind).Should(Equal("EXEMPTED"))
	})

	It("should suppress rules excluded for a path", func() {
		filter, err := conform.NewPathExclusionFilter([]conform.PathExcludeRule{{Path: `tools\.go$`, Rules: []string{"C101"}}})
		Expect(err).ShouldNot(HaveOccurred())

		analyzer = conform.NewAnalyzer(config, false, false, true, 1, logger)
		analyzer.LoadRules(rules.Generate().Builders())
		analyzer.SetPathExclusionFilter(filter)
		Expect(analyzer.Process(context.Background(), nil, pkg.Path)).Should(Succeed())

		issues, metrics, _ := analyzer.Report()
		Expect(issues).Should(HaveLen(2))
		Expect(metrics.NumSilenced).Should(Equal(1))
		for _, i := range issues {
			if strings.HasSuffix(i.File, "tools.go") {
				Expect(i.Suppressions).Should(ContainElement(issue.SuppressionInfo{
					Kind:          conform.PathExcludedKind,
					Justification: "path excluded by configuration",
				}))
			} else {
				Expect(i.IsSuppressed()).Should(BeFalse())
			}
		}
	})

	It("should sum the matcher counters into the metrics", func() {
		pkg.AddFile("tls.go", `
package main

import "crypto/tls"

func insecure() *tls.Config {
	cfg := &tls.Config{}
	cfg.InsecureSkipVerify = true
	return cfg
}
`)
		Expect(pkg.Build()).Should(Succeed())

		issues, metrics := process(false, false)
		Expect(issues).Should(HaveLen(3))
		Expect(metrics.Counters).Should(HaveKeyWithValue(conform.PropertyMatcherTypeCheckCounter, BeNumerically(">=", 1)))

		analyzer.Reset()
		_, metrics, _ = analyzer.Report()
		Expect(metrics.Counters).Should(BeEmpty())
	})

	It("should collect the errors of broken packages", func() {
		pkg.AddFile("broken.go", "package main\n\nvar broken int = \"text\"\n")
		Expect(pkg.Build()).Should(Succeed())

		analyzer = conform.NewAnalyzer(config, false, false, false, 1, logger)
		analyzer.LoadRules(rules.Generate().Builders())
		Expect(analyzer.Process(context.Background(), nil, pkg.Path)).Should(Succeed())
		_, _, errors := analyzer.Report()
		Expect(errors).ShouldNot(BeEmpty())
	})

	It("should skip missing paths", func() {
		analyzer = conform.NewAnalyzer(config, false, false, false, 1, logger)
		analyzer.LoadRules(rules.Generate().Builders())
		Expect(analyzer.Process(context.Background(), nil, pkg.AbsPath("missing"))).Should(Succeed())
		issues, metrics, _ := analyzer.Report()
		Expect(issues).Should(BeEmpty())
		Expect(metrics.NumFiles).Should(BeZero())
	})

	It("should start over after a reset", func() {
		process(false, false)
		analyzer.Reset()
		issues, metrics, errors := analyzer.Report()
		Expect(issues).Should(BeEmpty())
		Expect(metrics).Should(Equal(&conform.Metrics{}))
		Expect(errors).Should(BeEmpty())

		Expect(analyzer.Process(context.Background(), nil, pkg.Path)).Should(Succeed())
		issues, _, _ = analyzer.Report()
		Expect(issues).Should(HaveLen(2))
	})

	It("should fail when a rule cannot be built", func() {
		analyzer = conform.NewAnalyzer(config, false, false, false, 1, logger)
		analyzer.LoadRules(map[string]conform.RuleBuilder{
			"C900": func(string, conform.Config) (conform.Rule, error) {
				return nil, conform.ErrInvalidConfig
			},
		})
		err := analyzer.Process(context.Background(), nil, pkg.Path)
		Expect(err).Should(MatchError(conform.ErrInvalidConfig))
	})

	It("should convert reported failures into diagnostics", func() {
		analyzer = conform.NewAnalyzer(config, false, false, false, 1, logger)
		analyzer.LoadRules(rules.Generate().Builders())
		prog := pkg.Program()
		Expect(prog.Packages).Should(HaveLen(1))

		diags, err := analyzer.Diagnostics(prog, prog.Packages[0])
		Expect(err).ShouldNot(HaveOccurred())
		Expect(diags).Should(HaveLen(2))
		for _, d := range diags {
			Expect(d.Category).Should(Equal("C101"))
			Expect(d.Message).Should(HavePrefix("C101: [CWE-78] [ban-exec-command] Running external commands"))
		}
	})
})
