package conform_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/securego/conform"
)

func failureAt(start, end int, rule, text string, confidence conform.Confidence) *conform.Failure {
	return &conform.Failure{File: "/src/main.go", Start: start, End: end, RuleName: rule, Text: text, Confidence: confidence}
}

var _ = Describe("Triage", func() {
	It("should keep only the most confident failures of a location", func() {
		high := failureAt(10, 20, "a", "x", conform.ConfidenceHighExact)
		tied := failureAt(10, 20, "b", "y", conform.ConfidenceHighExact)
		low := failureAt(10, 20, "c", "z", conform.ConfidenceLow)
		elsewhere := failureAt(30, 40, "c", "z", conform.ConfidenceLow)

		conform.SilenceLessConfidentDuplicates([]*conform.Failure{low, high, tied, elsewhere})
		Expect(high.IsSilenced()).Should(BeFalse())
		Expect(tied.IsSilenced()).Should(BeFalse())
		Expect(elsewhere.IsSilenced()).Should(BeFalse())
		Expect(low.SilenceReasons()).Should(Equal([]conform.SilenceReason{conform.SilenceLessConfidentDuplicate}))
	})

	It("should prefer failures without confidence information", func() {
		na := failureAt(10, 20, "a", "x", conform.ConfidenceNA)
		exact := failureAt(10, 20, "b", "x", conform.ConfidenceHighExact)
		conform.SilenceLessConfidentDuplicates([]*conform.Failure{exact, na})
		Expect(na.IsSilenced()).Should(BeFalse())
		Expect(exact.IsSilenced()).Should(BeTrue())
	})

	It("should keep the first of identical failures", func() {
		first := failureAt(10, 20, "a", "x", conform.ConfidenceHighExact)
		second := failureAt(10, 20, "a", "x", conform.ConfidenceHighExact)
		other := failureAt(10, 20, "a", "other message", conform.ConfidenceHighExact)
		conform.SilenceDuplicateMessages([]*conform.Failure{first, second, other})
		Expect(first.IsSilenced()).Should(BeFalse())
		Expect(second.SilenceReasons()).Should(Equal([]conform.SilenceReason{conform.SilenceDuplicateMessage}))
		Expect(other.IsSilenced()).Should(BeFalse())
	})

	It("should count silenced failures as seen", func() {
		first := failureAt(10, 20, "a", "x", conform.ConfidenceHighExact)
		first.AddSilenceReason(conform.SilenceExempted)
		second := failureAt(10, 20, "a", "x", conform.ConfidenceHighExact)
		conform.SilenceDuplicateMessages([]*conform.Failure{first, second})
		Expect(first.SilenceReasons()).Should(Equal([]conform.SilenceReason{conform.SilenceExempted}))
		Expect(second.SilenceReasons()).Should(Equal([]conform.SilenceReason{conform.SilenceDuplicateMessage}))
	})

	It("should run every step and keep traversal order", func() {
		failures := []*conform.Failure{
			failureAt(50, 60, "a", "x", conform.ConfidenceHighExact),
			failureAt(10, 20, "a", "x", conform.ConfidenceMedium),
			failureAt(10, 20, "b", "x", conform.ConfidenceLow),
			failureAt(30, 40, "a", "x", conform.ConfidenceHighExtends),
			failureAt(30, 40, "a", "x", conform.ConfidenceHighExtends),
		}
		res := conform.Triage(failures, conform.DefaultMinConfidence)
		Expect(res.Reported).Should(Equal([]*conform.Failure{failures[0], failures[3]}))
		Expect(res.Silenced).Should(Equal([]*conform.Failure{failures[1], failures[2], failures[4]}))
		Expect(res.All()).Should(HaveLen(5))

		Expect(failures[1].SilenceReasons()).Should(Equal([]conform.SilenceReason{conform.SilenceConfidenceTooLow}))
		Expect(failures[2].SilenceReasons()).Should(Equal([]conform.SilenceReason{
			conform.SilenceLessConfidentDuplicate,
			conform.SilenceConfidenceTooLow,
		}))
		Expect(failures[4].SilenceReasons()).Should(Equal([]conform.SilenceReason{conform.SilenceDuplicateMessage}))
	})

	It("should never silence failures without confidence information", func() {
		na := failureAt(10, 20, "a", "x", conform.ConfidenceNA)
		res := conform.Triage([]*conform.Failure{na}, conform.ConfidenceHighExact)
		Expect(res.Reported).Should(HaveLen(1))
	})
})
