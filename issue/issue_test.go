package issue_test

import (
	"go/ast"
	"go/token"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/securego/conform/issue"
	"github.com/securego/conform/testutils"
)

// firstNode returns the token file of filename and the first node of type T.
func firstNode[T ast.Node](pkg *testutils.TestPackage, filename string, keep func(T) bool) (*token.File, T) {
	file := pkg.File(filename)
	Expect(file).ShouldNot(BeNil())
	var target T
	var found bool
	ast.Inspect(file, func(n ast.Node) bool {
		if node, ok := n.(T); ok && !found && keep(node) {
			target, found = node, true
		}
		return !found
	})
	Expect(found).Should(BeTrue())
	return pkg.Program().Fset.File(file.Pos()), target
}

var _ = Describe("Issue", func() {
	var pkg *testutils.TestPackage

	BeforeEach(func() {
		pkg = testutils.NewTestPackage()
	})

	AfterEach(func() {
		pkg.Close()
	})

	Context("when creating a new issue", func() {
		It("should create a code snippet from the specified span", func() {
			pkg.AddFile("foo.go", `package main
			const foo = "bar"
			func main(){
				println(foo)
			}
			`)
			fobj, target := firstNode(pkg, "foo.go", func(*ast.BasicLit) bool { return true })

			i := issue.New(fobj, target.Pos(), target.End(), "TEST", "", issue.High)
			Expect(i).ShouldNot(BeNil())
			Expect(i.Code).Should(MatchRegexp(`"bar"`))
			Expect(i.Code).Should(HavePrefix("1: package main"))
			Expect(i.Line).Should(Equal("2"))
			Expect(i.Col).Should(Equal("16"))
			Expect(i.Cwe).Should(BeNil())
			Expect(i.IsSuppressed()).Should(BeFalse())
		})

		It("should construct file path based on line and file information", func() {
			pkg.AddFile("foo.go", `package main

import "os/exec"

func main() {
	_ = exec.Command("ls")
}
`)
			fobj, target := firstNode(pkg, "foo.go", func(*ast.CallExpr) bool { return true })

			i := issue.New(fobj, target.Pos(), target.End(), "C101", "do not run commands", issue.High)
			Expect(i.FileLocation()).Should(MatchRegexp("foo.go:6$"))
			Expect(i.Cwe).ShouldNot(BeNil())
			Expect(i.Cwe.SprintID()).Should(Equal("CWE-78"))
		})

		It("should provide accurate line and file information for multi-line statements", func() {
			pkg.AddFile("foo.go", `
package main
import (
	"net"
)
func main() {
	_, _ = net.Listen("tcp",
	"0.0.0.0:2000")
}
`)
			fobj, target := firstNode(pkg, "foo.go", func(*ast.CallExpr) bool { return true })

			i := issue.New(fobj, target.Pos(), target.End(), "TEST", "", issue.Medium)
			Expect(i.File).Should(MatchRegexp("foo.go"))
			Expect(i.Line).Should(Equal("7-8"))
			Expect(i.Col).Should(Equal("9"))
		})

		It("should maintain the provided confidence score", func() {
			pkg.AddFile("foo.go", "package main\n\nvar x = 1\n")
			fobj, target := firstNode(pkg, "foo.go", func(*ast.BasicLit) bool { return true })
			i := issue.New(fobj, target.Pos(), target.End(), "TEST", "", issue.Low)
			Expect(i.Confidence).Should(Equal(issue.Low))
		})

		It("should record suppressions", func() {
			i := (&issue.Issue{}).WithSuppression("EXEMPTED", "manually reviewed")
			Expect(i.IsSuppressed()).Should(BeTrue())
			Expect(i.Suppressions).Should(Equal([]issue.SuppressionInfo{{Kind: "EXEMPTED", Justification: "manually reviewed"}}))
		})
	})

	Context("when mapping rules to weaknesses", func() {
		It("should know every built-in rule", func() {
			for _, id := range []string{"C101", "C102", "C103", "C104", "C105", "C106", "C107", "C108", "C109"} {
				Expect(issue.GetCweByRule(id)).ShouldNot(BeNil(), id)
			}
			Expect(issue.GetCweByRule("C999")).Should(BeNil())
		})
	})

	Context("when formatting scores", func() {
		It("should round trip through the readable form", func() {
			for _, s := range []issue.Score{issue.Low, issue.Medium, issue.High} {
				parsed, err := issue.ParseScore(s.String())
				Expect(err).ShouldNot(HaveOccurred())
				Expect(parsed).Should(Equal(s))
			}
			_, err := issue.ParseScore("certain")
			Expect(err).Should(HaveOccurred())
		})
	})
})
