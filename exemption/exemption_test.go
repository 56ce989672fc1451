package exemption_test

import (
	"os"
	"path/filepath"
	"regexp"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/securego/conform"
	"github.com/securego/conform/exemption"
)

var _ = Describe("Exemption loading", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "exemptions")
		Expect(err).ShouldNot(HaveOccurred())
		dir, err = filepath.EvalSymlinks(dir)
		Expect(err).ShouldNot(HaveOccurred())
	})

	AfterEach(func() {
		Expect(os.RemoveAll(dir)).Should(Succeed())
	})

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(content), 0o600)).Should(Succeed())
		return path
	}

	base := func(p string) string {
		return filepath.ToSlash(dir) + "/" + p
	}

	It("should resolve plain entries against the file directory", func() {
		path := write("exemptions.json", `{
			"ban-exec-command": ["tools/gen.go", "internal/legacy/"],
			"*": ["/abs/vendor.go"]
		}`)
		entries, err := exemption.Load(path)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(entries).Should(HaveLen(2))
		Expect(entries["ban-exec-command"].Paths).Should(Equal([]string{
			base("tools/gen.go"),
			base("internal/legacy/"),
		}))
		Expect(entries["ban-exec-command"].Regexps).Should(BeEmpty())
		Expect(entries[exemption.AllRules].Paths).Should(Equal([]string{"/abs/vendor.go"}))
	})

	It("should turn globs into regular expressions", func() {
		path := write("exemptions.yaml", `
ban-unsafe-import:
  - "cmd/**/*_test.go"
`)
		entries, err := exemption.Load(path)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(entries["ban-unsafe-import"].Paths).Should(BeEmpty())
		Expect(entries["ban-unsafe-import"].Regexps).Should(HaveLen(1))

		allowlist, err := conform.NewAllowlist(entries["ban-unsafe-import"])
		Expect(err).ShouldNot(HaveOccurred())
		Expect(allowlist.IsAllowlisted(base("cmd/a_test.go"))).Should(BeTrue())
		Expect(allowlist.IsAllowlisted(base("cmd/x/y/a_test.go"))).Should(BeTrue())
		Expect(allowlist.IsAllowlisted(base("cmd/x/a.go"))).Should(BeFalse())
		Expect(allowlist.IsAllowlisted(base("pkg/a_test.go"))).Should(BeFalse())
	})

	It("should name every malformed key", func() {
		path := write("exemptions.json", `{"ban-exec-command": "tools/gen.go", "ban-cgi-import": [1]}`)
		_, err := exemption.Load(path)
		Expect(err).Should(MatchError(conform.ErrInvalidConfig))
		Expect(err.Error()).Should(ContainSubstring("'ban-exec-command' requires a value of type array"))
		Expect(err.Error()).Should(ContainSubstring("'ban-cgi-import' requires values of type string"))
	})

	It("should reject files that are not objects", func() {
		_, err := exemption.Load(write("exemptions.json", `["a.go"]`))
		Expect(err).Should(MatchError(conform.ErrInvalidConfig))
	})

	It("should load nothing when the configuration names no file", func() {
		entries, err := exemption.FromConfig(conform.NewConfig())
		Expect(err).ShouldNot(HaveOccurred())
		Expect(entries).Should(BeNil())
	})

	It("should load the file named by the configuration", func() {
		path := write("exemptions.json", `{"ban-cgi-import": ["main.go"]}`)
		conf := conform.NewConfig()
		conf.Set(conform.ExemptionsKey, path)
		entries, err := exemption.FromConfig(conf)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(entries["ban-cgi-import"].Paths).Should(Equal([]string{base("main.go")}))
	})
})

var _ = Describe("GlobToRegexp", func() {
	DescribeTable("matching paths",
		func(glob, path string, want bool) {
			re, err := exemption.GlobToRegexp(glob)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(regexp.MustCompile(re).MatchString(path)).Should(Equal(want))
		},
		Entry("star within a segment", "/src/*.go", "/src/main.go", true),
		Entry("star does not cross segments", "/src/*.go", "/src/a/main.go", false),
		Entry("double star spans directories", "/src/**/gen.go", "/src/a/b/gen.go", true),
		Entry("double star matches no directory", "/src/**/gen.go", "/src/gen.go", true),
		Entry("question mark", "/src/v?.go", "/src/v1.go", true),
		Entry("alternation", "/src/{a,b}.go", "/src/b.go", true),
		Entry("alternation miss", "/src/{a,b}.go", "/src/c.go", false),
		Entry("character class", "/src/[ab].go", "/src/a.go", true),
		Entry("negated class", "/src/[!ab].go", "/src/a.go", false),
		Entry("dots are literal", "/src/*.go", "/src/mainxgo", false),
	)

	It("should reject unterminated patterns", func() {
		_, err := exemption.GlobToRegexp("/src/[ab.go")
		Expect(err).Should(HaveOccurred())
		_, err = exemption.GlobToRegexp("/src/{a,b.go")
		Expect(err).Should(HaveOccurred())
	})
})
