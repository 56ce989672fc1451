package conform_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/securego/conform"
	"github.com/securego/conform/issue"
)

var _ = Describe("ReportInfo", func() {
	Describe("NewReportInfo", func() {
		It("should create a report with issues, metrics, and errors", func() {
			issues := []*issue.Issue{
				{RuleID: "C101", What: "test issue 1"},
				{RuleID: "C104", What: "test issue 2"},
			}
			metrics := &conform.Metrics{
				NumFiles:    10,
				NumLines:    1000,
				NumSilenced: 5,
				NumFound:    2,
			}
			errors := map[string][]conform.Error{
				"file1.go": {{Line: 1, Column: 1, Err: "test error"}},
			}

			report := conform.NewReportInfo(issues, metrics, errors)
			Expect(report).ShouldNot(BeNil())
			Expect(report.Issues).Should(HaveLen(2))
			Expect(report.Stats).Should(Equal(metrics))
			Expect(report.Errors).Should(HaveLen(1))
		})

		It("should handle nil metrics and errors", func() {
			report := conform.NewReportInfo([]*issue.Issue{{RuleID: "C101"}}, nil, nil)
			Expect(report.Issues).Should(HaveLen(1))
			Expect(report.Stats).Should(BeNil())
			Expect(report.Errors).Should(BeNil())
		})
	})

	Describe("WithVersion", func() {
		It("should set and overwrite the version", func() {
			report := conform.NewReportInfo([]*issue.Issue{}, &conform.Metrics{}, nil)
			Expect(report.WithVersion("1.0.0")).Should(BeIdenticalTo(report))
			report.WithVersion("2.0.0")
			Expect(report.Version).Should(Equal("2.0.0"))
		})
	})
})
