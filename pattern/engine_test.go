package pattern_test

import (
	"fmt"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/securego/conform"
	"github.com/securego/conform/pattern"
	"github.com/securego/conform/testutils"
	"github.com/securego/conform/trusted"
)

var safeHTML = &trusted.Config{
	TypeName:          "HTML",
	ModulePathMatcher: testutils.ModulePath + "/safe",
}

func texts(failures []*conform.Failure) []string {
	out := make([]string, 0, len(failures))
	for _, f := range failures {
		src, err := os.ReadFile(f.File)
		Expect(err).ShouldNot(HaveOccurred())
		out = append(out, string(src[f.Start:f.End]))
	}
	return out
}

var _ = Describe("Pattern engines", func() {
	var pkg *testutils.TestPackage

	BeforeEach(func() {
		pkg = testutils.NewTestPackage()
		pkg.AddFile("dom/dom.go", domPackage)
		pkg.AddFile("safe/safe.go", safePackage)
		pkg.AddFile("main.go", namesSample)
		pkg.AddFile("writes.go", writesSample)
		pkg.AddFile("generated.go", generatedSample)
	})

	AfterEach(func() {
		pkg.Close()
	})

	run := func(filename string, cfgs ...pattern.Config) *conform.Result {
		checker := conform.NewChecker(pkg.Program())
		for i, cfg := range cfgs {
			rule, err := pattern.NewRule(fmt.Sprintf("rule-%d", i), cfg)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(checker.Register(rule)).Should(Succeed())
		}
		file := pkg.File(filename)
		Expect(file).ShouldNot(BeNil())
		res, err := checker.ExecuteVerbose(file)
		Expect(err).ShouldNot(HaveOccurred())
		return res
	}

	Context("banning names", func() {
		It("should flag references once and leave methods of the same name alone", func() {
			res := run("main.go", pattern.Config{
				Kind:         pattern.BannedName,
				Values:       []string{"os/exec.Command"},
				ErrorCode:    101,
				ErrorMessage: "do not run commands",
			})
			Expect(texts(res.Reported)).Should(Equal([]string{"exec.Command"}))
			Expect(res.Reported[0].Message()).Should(Equal("[rule-0] do not run commands"))
			Expect(res.Reported[0].Code).Should(Equal(101))
			Expect(res.Reported[0].Confidence).Should(Equal(conform.ConfidenceHighExact))
		})

		It("should flag renamed imports of banned packages", func() {
			res := run("main.go", pattern.Config{
				Kind:         pattern.BannedImportedName,
				Values:       []string{"os/exec"},
				ErrorMessage: "do not import os/exec",
			})
			Expect(texts(res.Reported)).Should(Equal([]string{`run "os/exec"`, "exec"}))
		})

		It("should skip global symbols being replaced", func() {
			res := run("main.go", pattern.Config{
				Kind:         pattern.BannedName,
				Values:       []string{"net/http.DefaultClient"},
				ErrorMessage: "use a dedicated client",
			})
			Expect(texts(res.Reported)).Should(Equal([]string{"http.DefaultClient"}))
			Expect(res.Reported[0].Position().Line).Should(Equal(25))
		})

		It("should only flag types where values are built", func() {
			res := run("main.go", pattern.Config{
				Kind:         pattern.BannedName,
				Values:       []string{"net/http.Client"},
				ErrorMessage: "use the shared client",
			})
			Expect(texts(res.Reported)).Should(Equal([]string{"http.Client"}))
		})

		It("should accept calls with a trusted value", func() {
			res := run("main.go", pattern.Config{
				Kind:               pattern.BannedName,
				Values:             []string{"ANY_SYMBOL|example.com/app/dom.Write"},
				ErrorMessage:       "write trusted HTML only",
				AllowedTrustedType: safeHTML,
			})
			Expect(texts(res.Reported)).Should(Equal([]string{"dom.Write"}))
			Expect(res.Reported[0].Position().Line).Should(Equal(34))
		})

		It("should skip generated files", func() {
			res := run("generated.go", pattern.Config{
				Kind:         pattern.BannedName,
				Values:       []string{"os/exec.Command"},
				ErrorMessage: "do not run commands",
			})
			Expect(res.All()).Should(BeEmpty())
		})

		It("should keep exempted failures as silenced", func() {
			res := run("main.go", pattern.Config{
				Kind:         pattern.BannedName,
				Values:       []string{"os/exec.Command"},
				ErrorMessage: "do not run commands",
				Allowlist: []conform.AllowlistEntry{{
					Reason:  conform.ExemptionManuallyReviewed,
					Regexps: []string{`main\.go$`},
				}},
			})
			Expect(res.Reported).Should(BeEmpty())
			Expect(res.Silenced).Should(HaveLen(1))
			Expect(res.Silenced[0].IsSilencedJustBecauseExempted()).Should(BeTrue())
		})
	})

	Context("banning properties", func() {
		insecureSkipVerify := func(kind pattern.Kind) pattern.Config {
			return pattern.Config{
				Kind:                    kind,
				Values:                  []string{"crypto/tls.Config.InsecureSkipVerify"},
				ErrorMessage:            "verify certificates",
				UseTypedPropertyMatcher: true,
			}
		}

		It("should flag every access and silence unrelated receivers", func() {
			res := run("writes.go", insecureSkipVerify(pattern.BannedProperty))
			Expect(texts(res.Reported)).Should(Equal([]string{
				"InsecureSkipVerify",
				"cfg.InsecureSkipVerify",
				"cfg.InsecureSkipVerify",
			}))
			Expect(texts(res.Silenced)).Should(Equal([]string{"o.InsecureSkipVerify"}))
			Expect(res.Silenced[0].SilenceReasons()).Should(Equal([]conform.SilenceReason{conform.SilenceConfidenceTooLow}))
			Expect(res.Silenced[0].Confidence).Should(Equal(conform.ConfidenceLow))
		})

		It("should flag writes at the assignment", func() {
			res := run("writes.go", insecureSkipVerify(pattern.BannedPropertyWrite))
			Expect(texts(res.Reported)).Should(Equal([]string{
				"InsecureSkipVerify: true",
				"cfg.InsecureSkipVerify = true",
			}))
			Expect(texts(res.Silenced)).Should(Equal([]string{"o.InsecureSkipVerify = true"}))
		})

		It("should only flag computed values for non constant writes", func() {
			res := run("writes.go", pattern.Config{
				Kind:                    pattern.BannedPropertyNonConstantWrite,
				Values:                  []string{"os/exec.Cmd.Path"},
				ErrorMessage:            "do not run computed paths",
				UseTypedPropertyMatcher: true,
			})
			Expect(texts(res.Reported)).Should(Equal([]string{"cmd.Path = v", "cmd.Path += v"}))
		})

		It("should accept trusted values", func() {
			res := run("writes.go", pattern.Config{
				Kind:               pattern.BannedPropertyWrite,
				Values:             []string{"example.com/app/dom.Element.InnerHTML"},
				ErrorMessage:       "assign trusted HTML only",
				AllowedTrustedType: safeHTML,
			})
			Expect(texts(res.Reported)).Should(Equal([]string{
				"el.InnerHTML = s",
				"el.InnerHTML, s = s, el.InnerHTML",
			}))
			Expect(res.Reported[0].Confidence).Should(Equal(conform.ConfidenceHighExtends))
		})

		It("should propose fixes wrapping the assigned value", func() {
			cfg := pattern.Config{
				Kind:         pattern.BannedPropertyWrite,
				Values:       []string{"example.com/app/dom.Element.InnerHTML"},
				ErrorMessage: "assign trusted HTML only",
				Fixers: []pattern.Fixer{
					pattern.WrapWith(testutils.ModulePath+"/safe", "Sanitize"),
					pattern.WrapWith("html", "EscapeString"),
				},
			}
			res := run("writes.go", cfg)
			Expect(res.Reported).Should(HaveLen(3))

			fixes := res.Reported[1].Fixes
			Expect(fixes).Should(HaveLen(2))
			Expect(fixes[0].Changes).Should(HaveLen(1))
			Expect(fixes[0].Changes[0].Replacement).Should(Equal("safe.Sanitize(s)"))
			Expect(fixes[1].Changes).Should(HaveLen(2))
			Expect(fixes[1].Changes[0].Replacement).Should(Equal("\nimport \"html\""))
			Expect(fixes[1].Changes[1].Replacement).Should(Equal("html.EscapeString(s)"))

			// no single value to wrap in a tuple assignment
			Expect(res.Reported[2].Fixes).Should(BeEmpty())
		})

		It("should not propose fixes for values returned with others", func() {
			pkg.AddFile("tuple.go", `
package main

import "example.com/app/dom"

func render() (string, error) { return "", nil }

func tuple(el *dom.Element) error {
	var err error
	el.InnerHTML, err = render()
	return err
}
`)
			res := run("tuple.go", pattern.Config{
				Kind:         pattern.BannedPropertyWrite,
				Values:       []string{"example.com/app/dom.Element.InnerHTML"},
				ErrorMessage: "assign trusted HTML only",
				Fixers:       []pattern.Fixer{pattern.WrapWith("html", "EscapeString")},
			})
			Expect(texts(res.Reported)).Should(Equal([]string{"el.InnerHTML, err = render()"}))
			Expect(res.Reported[0].Fixes).Should(BeEmpty())
		})

		It("should fail registration on a type missing from its package", func() {
			rule, err := pattern.NewRule("missing", pattern.Config{
				Kind:                    pattern.BannedProperty,
				Values:                  []string{"crypto/tls.Settings.InsecureSkipVerify"},
				ErrorMessage:            "no such type",
				UseTypedPropertyMatcher: true,
			})
			Expect(err).ShouldNot(HaveOccurred())
			checker := conform.NewChecker(pkg.Program())
			Expect(checker.Register(rule)).Should(MatchError(conform.ErrInvalidConfig))
		})
	})
})
