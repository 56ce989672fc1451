package cwe_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/securego/conform/cwe"
)

var _ = Describe("CWE data", func() {
	Context("when consulting cwe data", func() {
		It("it should retrieves the weakness", func() {
			weakness := cwe.Get("79")
			Expect(weakness).ShouldNot(BeNil())
			Expect(weakness.ID).Should(Equal("79"))
			Expect(weakness.Name).Should(ContainSubstring("Cross-site Scripting"))
			Expect(weakness.Description).ShouldNot(BeEmpty())
		})

		It("it should return nil for unknown weaknesses", func() {
			Expect(cwe.Get("99999")).Should(BeNil())
		})
	})
})
