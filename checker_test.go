package conform_test

import (
	"errors"
	"go/ast"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/securego/conform"
	"github.com/securego/conform/testutils"
)

const checkerSample = `
package main

import "fmt"

const key = "secret"

type holder struct {
	Name string
}

func main() {
	m := map[string]string{}
	m[key] = "value"
	_ = m["other"]
	h := holder{}
	fmt.Println(h.Name, len(m))
}
`

var _ = Describe("Checker", func() {
	var (
		pkg     *testutils.TestPackage
		file    *ast.File
		checker *conform.Checker
	)

	BeforeEach(func() {
		pkg = testutils.NewTestPackage()
		pkg.AddFile("main.go", checkerSample)
		pkg.AddFile("other/other.go", "package other\n\nfunc Other() {}\n")
		file = pkg.File("main.go")
		Expect(file).ShouldNot(BeNil())
		checker = conform.NewChecker(pkg.Program())
	})

	AfterEach(func() {
		pkg.Close()
	})

	Context("when dispatching by node kind", func() {
		It("should run kind handlers for every node of the kind", func() {
			rule := testutils.NewMockRule("mock-call", 21200, (*ast.CallExpr)(nil))
			Expect(checker.Register(rule)).Should(Succeed())

			failures, err := checker.Execute(file)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(failures).Should(HaveLen(2)) // fmt.Println and len
			Expect(failures[0].Code).Should(Equal(21200))
			Expect(failures[0].RuleName).Should(Equal("mock-call"))
			Expect(failures[0].Confidence).Should(Equal(conform.ConfidenceNA))
		})

		It("should run handlers sharing a kind in registration order", func() {
			var order []string
			checker.On((*ast.CallExpr)(nil), func(*conform.Checker, ast.Node) error {
				order = append(order, "first")
				return nil
			}, 1)
			checker.On((*ast.CallExpr)(nil), func(*conform.Checker, ast.Node) error {
				order = append(order, "second")
				return nil
			}, 2)
			_, err := checker.Execute(file)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(order).Should(Equal([]string{"first", "second", "first", "second"}))
		})

		It("should record the parents of visited nodes", func() {
			var parents []ast.Node
			checker.On((*ast.CallExpr)(nil), func(c *conform.Checker, n ast.Node) error {
				parents = append(parents, c.Parent(n))
				return nil
			}, 1)
			_, err := checker.Execute(file)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(parents).Should(HaveLen(2))
			Expect(parents[0]).Should(BeAssignableToTypeOf(&ast.ExprStmt{}))
			Expect(parents[1]).Should(BeAssignableToTypeOf(&ast.CallExpr{}))
		})
	})

	Context("when dispatching by name", func() {
		It("should only dispatch identifiers with the registered name", func() {
			var seen []string
			checker.OnNamedIdentifier("key", func(_ *conform.Checker, n ast.Node) error {
				seen = append(seen, n.(*ast.Ident).Name)
				return nil
			}, 1)
			_, err := checker.Execute(file)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(seen).Should(Equal([]string{"key", "key"}))
		})

		It("should dispatch selector expressions by selected name", func() {
			var seen []ast.Node
			checker.OnNamedPropertyAccess("Name", func(_ *conform.Checker, n ast.Node) error {
				seen = append(seen, n)
				return nil
			}, 1)
			_, err := checker.Execute(file)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(seen).Should(HaveLen(1))
			Expect(seen[0]).Should(BeAssignableToTypeOf(&ast.SelectorExpr{}))
		})

		It("should dispatch index expressions keyed by a constant string", func() {
			var secret, other int
			checker.OnStringLiteralElementAccess("secret", func(*conform.Checker, ast.Node) error {
				secret++
				return nil
			}, 1)
			checker.OnStringLiteralElementAccess("other", func(*conform.Checker, ast.Node) error {
				other++
				return nil
			}, 1)
			_, err := checker.Execute(file)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(secret).Should(Equal(1))
			Expect(other).Should(Equal(1))
		})
	})

	Context("when recording failures", func() {
		It("should refuse failures outside a traversal", func() {
			err := checker.AddFailureAtNode(file, "text", "rule", nil)
			Expect(errors.Is(err, conform.ErrNoTraversal)).Should(BeTrue())
		})

		It("should refuse nodes of another file", func() {
			other := pkg.File("other/other.go")
			Expect(other).ShouldNot(BeNil())
			var addErr error
			checker.On((*ast.File)(nil), func(c *conform.Checker, _ ast.Node) error {
				addErr = c.AddFailureAtNode(other.Decls[0], "text", "rule", nil)
				return nil
			}, 1)
			_, err := checker.Execute(file)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(errors.Is(addErr, conform.ErrSpanOutOfBounds)).Should(BeTrue())
		})

		It("should propagate handler errors to the caller", func() {
			rule := testutils.NewMockRule("broken", 1, (*ast.CallExpr)(nil))
			rule.Callback = func(*conform.Checker, ast.Node) (bool, error) {
				return false, errors.New("broken matcher")
			}
			Expect(checker.Register(rule)).Should(Succeed())
			_, err := checker.Execute(file)
			Expect(err).Should(MatchError(ContainSubstring("broken matcher")))
		})

		It("should refuse registering a rule name twice", func() {
			Expect(checker.Register(testutils.NewMockRule("twice", 1))).Should(Succeed())
			Expect(checker.Register(testutils.NewMockRule("twice", 2))).ShouldNot(Succeed())
		})

		It("should keep exempted failures in the verbose result", func() {
			allowlist, err := conform.NewAllowlist(conform.AllowlistEntry{Paths: []string{pkg.Program().FileName(file)}})
			Expect(err).ShouldNot(HaveOccurred())
			rule := testutils.NewMockRule("exempted", 1, (*ast.CallExpr)(nil))
			rule.Allowlist = allowlist
			Expect(checker.Register(rule)).Should(Succeed())

			res, err := checker.ExecuteVerbose(file)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(res.Reported).Should(BeEmpty())
			Expect(res.Silenced).Should(HaveLen(2))
			Expect(res.Silenced[0].SilenceReasons()).Should(Equal([]conform.SilenceReason{conform.SilenceExempted}))
			Expect(res.Silenced[0].IsSilencedJustBecauseExempted()).Should(BeTrue())
		})

		It("should silence failures under the configured confidence", func() {
			checker = conform.NewChecker(pkg.Program(), conform.WithMinConfidence(conform.ConfidenceHighExact))
			rule := testutils.NewMockRule("graded", 1, (*ast.CallExpr)(nil))
			rule.Options = []conform.FailureOption{conform.WithConfidence(conform.ConfidenceHighExtends)}
			Expect(checker.Register(rule)).Should(Succeed())

			res, err := checker.ExecuteVerbose(file)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(res.Reported).Should(BeEmpty())
			Expect(res.Silenced).Should(HaveLen(2))
			Expect(res.Silenced[1].SilenceReasons()).Should(ContainElement(conform.SilenceConfidenceTooLow))
		})
	})

	Context("when executing repeatedly", func() {
		It("should produce identical failures for the same file", func() {
			rule := testutils.NewMockRule("repeat", 7, (*ast.CallExpr)(nil), (*ast.SelectorExpr)(nil))
			rule.Options = []conform.FailureOption{conform.WithConfidence(conform.ConfidenceHighExact)}
			Expect(checker.Register(rule)).Should(Succeed())

			first, err := checker.Execute(file)
			Expect(err).ShouldNot(HaveOccurred())
			second, err := checker.Execute(file)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(first).ShouldNot(BeEmpty())
			Expect(cmp.Diff(first, second, cmpopts.IgnoreUnexported(conform.Failure{}))).Should(BeEmpty())
			for i := range first {
				Expect(first[i].Equals(second[i])).Should(BeTrue())
			}
		})

		It("should not accumulate failures across traversals", func() {
			rule := testutils.NewMockRule("fresh", 1, (*ast.CallExpr)(nil))
			Expect(checker.Register(rule)).Should(Succeed())
			for i := 0; i < 3; i++ {
				failures, err := checker.Execute(file)
				Expect(err).ShouldNot(HaveOccurred())
				Expect(failures).Should(HaveLen(2))
			}
		})
	})
})
