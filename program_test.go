package conform_test

import (
	"go/ast"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/securego/conform"
	"github.com/securego/conform/testutils"
)

const genericSample = `
package main

type Box[T any] struct {
	Value T
}

func (b Box[T]) Get() T { return b.Value }

func main() {
	b := Box[int]{Value: 1}
	_ = b.Value
	_ = b.Get()
}
`

var _ = Describe("Program", func() {
	var pkg *testutils.TestPackage

	BeforeEach(func() {
		pkg = testutils.NewTestPackage()
		pkg.AddFile("main.go", genericSample)
	})

	AfterEach(func() {
		pkg.Close()
	})

	It("should name members of instantiated generic types after their declaration", func() {
		checker := conform.NewChecker(pkg.Program())
		var names []string
		checker.On((*ast.SelectorExpr)(nil), func(c *conform.Checker, n ast.Node) error {
			sel := n.(*ast.SelectorExpr)
			if obj := c.Program().ObjectOf(c.File(), sel.Sel); obj != nil {
				names = append(names, c.Program().FullyQualifiedName(obj))
			}
			return nil
		}, 0)
		_, err := checker.Execute(pkg.File("main.go"))
		Expect(err).ShouldNot(HaveOccurred())
		Expect(names).Should(Equal([]string{
			testutils.ModulePath + ".Box.Value",
			testutils.ModulePath + ".Box.Value",
			testutils.ModulePath + ".Box.Get",
		}))
	})
})
