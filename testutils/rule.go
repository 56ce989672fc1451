package testutils

import (
	"go/ast"

	"github.com/securego/conform"
)

// MockRule registers Callback for every node type listed in Nodes and reports
// a failure with Message wherever Callback returns true.
type MockRule struct {
	RuleName  string
	ErrorCode int
	Message   string
	Nodes     []ast.Node
	Allowlist *conform.Allowlist
	Options   []conform.FailureOption
	Callback  func(c *conform.Checker, n ast.Node) (bool, error)
}

// NewMockRule creates a rule flagging every node of the given types
func NewMockRule(name string, code int, nodes ...ast.Node) *MockRule {
	return &MockRule{
		RuleName:  name,
		ErrorCode: code,
		Message:   "mock failure",
		Nodes:     nodes,
		Callback:  func(*conform.Checker, ast.Node) (bool, error) { return true, nil },
	}
}

func (m *MockRule) Name() string { return m.RuleName }

func (m *MockRule) Code() int { return m.ErrorCode }

func (m *MockRule) Register(c *conform.Checker) error {
	for _, n := range m.Nodes {
		c.On(n, m.handle, m.ErrorCode)
	}
	return nil
}

func (m *MockRule) handle(c *conform.Checker, n ast.Node) error {
	matched, err := m.Callback(c, n)
	if err != nil || !matched {
		return err
	}
	return c.AddFailureAtNode(n, m.Message, m.RuleName, m.Allowlist, m.Options...)
}
