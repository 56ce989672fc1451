package conform_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gopkg.in/yaml.v3"

	"github.com/securego/conform"
)

var _ = Describe("Allowlist", func() {
	It("should match exact paths and directory prefixes", func() {
		a, err := conform.NewAllowlist(conform.AllowlistEntry{
			Paths: []string{"/src/tools/gen.go", "/src/internal/legacy/"},
		})
		Expect(err).ShouldNot(HaveOccurred())
		Expect(a.IsAllowlisted("/src/tools/gen.go")).Should(BeTrue())
		Expect(a.IsAllowlisted("/src/tools/gen.go.orig")).Should(BeFalse())
		Expect(a.IsAllowlisted("/src/internal/legacy/a/b.go")).Should(BeTrue())
		Expect(a.IsAllowlisted("/src/internal/legacyx/b.go")).Should(BeFalse())
	})

	It("should match regular expressions", func() {
		a, err := conform.NewAllowlist(conform.AllowlistEntry{Regexps: []string{`_test\.go$`}})
		Expect(err).ShouldNot(HaveOccurred())
		Expect(a.IsAllowlisted("/src/main_test.go")).Should(BeTrue())
		Expect(a.IsAllowlisted("/src/main.go")).Should(BeFalse())
	})

	It("should normalize separators", func() {
		a, err := conform.NewAllowlist(conform.AllowlistEntry{Paths: []string{`C:\src\legacy\`}})
		Expect(err).ShouldNot(HaveOccurred())
		Expect(a.IsAllowlisted("C:/src/legacy/old.go")).Should(BeTrue())
		Expect(a.IsAllowlisted(`C:\src\legacy\old.go`)).Should(BeTrue())
	})

	It("should give the same answer when asked again", func() {
		a, err := conform.NewAllowlist(conform.AllowlistEntry{Paths: []string{"/src/legacy/"}})
		Expect(err).ShouldNot(HaveOccurred())
		for i := 0; i < 3; i++ {
			Expect(a.IsAllowlisted("/src/legacy/a.go")).Should(BeTrue())
			Expect(a.IsAllowlisted("/src/main.go")).Should(BeFalse())
		}
	})

	It("should reject invalid regular expressions", func() {
		_, err := conform.NewAllowlist(conform.AllowlistEntry{Regexps: []string{"("}})
		Expect(err).Should(MatchError(conform.ErrInvalidConfig))
	})

	It("should exempt nothing when empty or nil", func() {
		var nilList *conform.Allowlist
		Expect(nilList.IsAllowlisted("/src/main.go")).Should(BeFalse())

		a, err := conform.NewAllowlist()
		Expect(err).ShouldNot(HaveOccurred())
		Expect(a.IsAllowlisted("/src/main.go")).Should(BeFalse())
	})

	It("should decode entries with named reasons", func() {
		var entry conform.AllowlistEntry
		data := "reason: manually-reviewed\nexplanation: audited\npath: [tools/]\nregexp: ['_test\\.go$']\n"
		Expect(yaml.Unmarshal([]byte(data), &entry)).Should(Succeed())
		Expect(entry.Reason).Should(Equal(conform.ExemptionManuallyReviewed))
		Expect(entry.Explanation).Should(Equal("audited"))
		Expect(entry.Paths).Should(Equal([]string{"tools/"}))
		Expect(entry.Regexps).Should(Equal([]string{`_test\.go$`}))

		Expect(yaml.Unmarshal([]byte("reason: whatever\n"), &entry)).Should(MatchError(conform.ErrInvalidConfig))
	})
})
