package matcher_test

import (
	"go/ast"
	"go/token"
	"go/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/securego/conform"
	"github.com/securego/conform/matcher"
	"github.com/securego/conform/testutils"
)

const propertySample = `
package main

import (
	"bytes"
	"crypto/tls"
	"io"
)

type wrapped struct {
	tls.Config
}

type other struct {
	InsecureSkipVerify bool
}

type headers map[string]string

func index(h headers, k string) {
	_ = h["X-Token"]
	_ = h[k]
}

func main() {
	cfg := &tls.Config{InsecureSkipVerify: true}
	cfg.InsecureSkipVerify = false
	w := wrapped{}
	w.InsecureSkipVerify = true
	o := other{InsecureSkipVerify: true}
	o.InsecureSkipVerify = false

	var r io.Reader = &bytes.Buffer{}
	_, _ = r.Read(nil)
	_, _ = (&bytes.Buffer{}).Read(nil)
}
`

type propertyMatch struct {
	Text string
	Type conform.TypeMatchConfidence
	Name conform.NameMatchConfidence
}

func matchedProperties(pkg *testutils.TestPackage, m *matcher.PropertyMatcher) []propertyMatch {
	checker := conform.NewChecker(pkg.Program())
	var matched []propertyMatch
	collect := func(c *conform.Checker, n ast.Node) error {
		if match := m.Matches(c, n); match != nil {
			matched = append(matched, propertyMatch{c.Text(match.Node), match.TypeMatch, match.NameMatch})
		}
		return nil
	}
	checker.On((*ast.SelectorExpr)(nil), collect, 0)
	checker.On((*ast.IndexExpr)(nil), collect, 0)
	checker.On((*ast.Ident)(nil), collect, 0)
	_, err := checker.Execute(pkg.File("main.go"))
	Expect(err).ShouldNot(HaveOccurred())
	return matched
}

var _ = Describe("PropertyMatcher", func() {
	var pkg *testutils.TestPackage

	BeforeEach(func() {
		pkg = testutils.NewTestPackage()
		pkg.AddFile("main.go", propertySample)
	})

	AfterEach(func() {
		pkg.Close()
	})

	It("should split the holder type from the property", func() {
		m, err := matcher.NewPropertyMatcher("crypto/tls.Config.InsecureSkipVerify", true)
		Expect(err).ShouldNot(HaveOccurred())
		Expect(m.PkgPath).Should(Equal("crypto/tls"))
		Expect(m.TypeName).Should(Equal("Config"))
		Expect(m.Property).Should(Equal("InsecureSkipVerify"))
		Expect(m.Holder()).Should(Equal("crypto/tls.Config"))

		_, err = matcher.NewPropertyMatcher("crypto/tls.Config", true)
		Expect(err).Should(MatchError(conform.ErrInvalidConfig))
	})

	Context("in typed mode", func() {
		It("should grade selections and struct literal keys", func() {
			m, err := matcher.NewPropertyMatcher("crypto/tls.Config.InsecureSkipVerify", true)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(matchedProperties(pkg, m)).Should(Equal([]propertyMatch{
				{"InsecureSkipVerify", conform.TypeMatchExact, conform.NameMatchExact},
				{"cfg.InsecureSkipVerify", conform.TypeMatchExact, conform.NameMatchExact},
				{"w.InsecureSkipVerify", conform.TypeMatchExtends, conform.NameMatchExact},
				{"InsecureSkipVerify", conform.TypeMatchUnrelated, conform.NameMatchExact},
				{"o.InsecureSkipVerify", conform.TypeMatchUnrelated, conform.NameMatchExact},
			}))
		})

		It("should grade wider receivers as parents", func() {
			m, err := matcher.NewPropertyMatcher("bytes.Buffer.Read", true)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(matchedProperties(pkg, m)).Should(Equal([]propertyMatch{
				{"r.Read", conform.TypeMatchParent, conform.NameMatchExact},
				{"(&bytes.Buffer{}).Read", conform.TypeMatchExact, conform.NameMatchExact},
			}))
		})

		It("should report computed keys as dynamic", func() {
			m, err := matcher.NewPropertyMatcher("example.com/app.headers.X-Token", true)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(matchedProperties(pkg, m)).Should(Equal([]propertyMatch{
				{`h["X-Token"]`, conform.TypeMatchExact, conform.NameMatchExact},
				{"h[k]", conform.TypeMatchExact, conform.NameMatchDynamic},
			}))
		})

		It("should never match ignored types", func() {
			m, err := matcher.NewPropertyMatcher("crypto/tls.Config.InsecureSkipVerify", true, "example.com/app.wrapped")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(matchedProperties(pkg, m)).Should(ContainElement(
				propertyMatch{"w.InsecureSkipVerify", conform.TypeMatchUnrelated, conform.NameMatchExact}))
		})

		It("should count type checks and unknown receivers", func() {
			m, err := matcher.NewPropertyMatcher("crypto/tls.Config.InsecureSkipVerify", true)
			Expect(err).ShouldNot(HaveOccurred())
			checker := conform.NewChecker(pkg.Program())
			Expect(m.TypeMatches(checker, nil)).Should(Equal(conform.TypeMatchAnyUnknown))
			Expect(m.TypeMatches(checker, types.NewInterfaceType(nil, nil).Complete())).Should(Equal(conform.TypeMatchAnyUnknown))
			Expect(m.TypeMatches(checker, types.Typ[types.Invalid])).Should(Equal(conform.TypeMatchAnyUnknown))
			Expect(checker.Counters()).Should(Equal(map[string]int{
				conform.PropertyMatcherTypeCheckCounter:  3,
				conform.PropertyMatcherAnyUnknownCounter: 3,
			}))
		})

		It("should match a type set when one member matches", func() {
			m, err := matcher.NewPropertyMatcher("crypto/tls.Config.InsecureSkipVerify", true)
			Expect(err).ShouldNot(HaveOccurred())
			prog := pkg.Program()
			tlsConfig, known := prog.LookupType("crypto/tls", "Config")
			Expect(known).Should(BeTrue())
			unrelated := types.NewNamed(types.NewTypeName(token.NoPos, nil, "unrelated", nil), types.NewStruct(nil, nil), nil)

			union := types.NewUnion([]*types.Term{
				types.NewTerm(false, tlsConfig.Type()),
				types.NewTerm(false, unrelated),
			})
			constraint := types.NewInterfaceType(nil, []types.Type{union}).Complete()
			param := types.NewTypeParam(types.NewTypeName(token.NoPos, nil, "T", nil), constraint)

			checker := conform.NewChecker(prog)
			Expect(m.TypeMatches(checker, param)).Should(Equal(conform.TypeMatchExact))

			legacy, err := matcher.NewPropertyMatcher("crypto/tls.Config.InsecureSkipVerify", false)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(legacy.TypeMatches(checker, param)).Should(Equal(conform.TypeMatchLegacyMatch))
		})
	})

	Context("when resolving the holder type", func() {
		It("should fail on a type missing from a loaded package", func() {
			m, err := matcher.NewPropertyMatcher("crypto/tls.NoSuchType.Field", true)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(m.Resolve(pkg.Program())).Should(MatchError(conform.ErrInvalidConfig))
		})

		It("should match nothing when the package is not imported", func() {
			m, err := matcher.NewPropertyMatcher("encoding/xml.Decoder.Strict", true)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(m.Resolve(pkg.Program())).Should(Succeed())
			Expect(matchedProperties(pkg, m)).Should(BeEmpty())
		})
	})

	Context("in legacy mode", func() {
		It("should only report matching holder types", func() {
			m, err := matcher.NewPropertyMatcher("crypto/tls.Config.InsecureSkipVerify", false)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(matchedProperties(pkg, m)).Should(Equal([]propertyMatch{
				{"InsecureSkipVerify", conform.TypeMatchLegacyMatch, conform.NameMatchExact},
				{"cfg.InsecureSkipVerify", conform.TypeMatchLegacyMatch, conform.NameMatchExact},
				{"w.InsecureSkipVerify", conform.TypeMatchLegacyMatch, conform.NameMatchExact},
			}))
		})

		It("should ignore computed keys", func() {
			m, err := matcher.NewPropertyMatcher("example.com/app.headers.X-Token", false)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(matchedProperties(pkg, m)).Should(Equal([]propertyMatch{
				{`h["X-Token"]`, conform.TypeMatchLegacyMatch, conform.NameMatchExact},
			}))
		})
	})
})
