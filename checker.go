// (c) Copyright gosec's authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package conform holds the matching core: a dispatching AST walker, the
// failure model and the triage applied to the failures of every traversal.
package conform

import (
	"fmt"
	"go/ast"
	"go/constant"
	"go/token"
	"io"
	"log"
	"reflect"
)

// Counters maintained while matching.
const (
	PropertyMatcherTypeCheckCounter  = "property_matcher_type_check"
	PropertyMatcherAnyUnknownCounter = "property_matcher_any_unknown"
)

// Handler is invoked for each node a registration applies to. Returning an
// error aborts the traversal.
type Handler func(c *Checker, n ast.Node) error

type handler struct {
	fn   Handler
	code int
}

// Rule is a named check registering handlers on a Checker.
type Rule interface {
	Name() string
	Code() int
	Register(c *Checker) error
}

// CheckerOption customizes a Checker.
type CheckerOption func(*Checker)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *log.Logger) CheckerOption {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDebug enables the debug output describing every matcher decision.
func WithDebug(debug bool) CheckerOption {
	return func(c *Checker) {
		c.debug = debug
	}
}

// WithMinConfidence sets the confidence under which failures are silenced.
func WithMinConfidence(min Confidence) CheckerOption {
	return func(c *Checker) {
		c.minConfidence = min
	}
}

// Checker walks source files once and dispatches the registered handlers.
// Registration tables are written during setup and only read afterwards; the
// rest of the state belongs to the traversal in progress. A Checker must not
// be used by several goroutines at once.
type Checker struct {
	program       *Program
	logger        *log.Logger
	debug         bool
	minConfidence Confidence

	nodeHandlers       map[reflect.Type][]handler
	identHandlers      map[string][]handler
	propertyHandlers   map[string][]handler
	elementHandlers    map[string][]handler
	counters           map[string]int
	registeredRuleName map[string]bool

	file        *ast.File
	tokenFile   *token.File
	currentCode int
	failures    []*Failure
	parents     map[ast.Node]ast.Node
	stack       []ast.Node
}

// NewChecker builds a Checker bound to a type-checked program.
func NewChecker(prog *Program, opts ...CheckerOption) *Checker {
	c := &Checker{
		program:            prog,
		logger:             log.New(io.Discard, "", 0),
		minConfidence:      DefaultMinConfidence,
		nodeHandlers:       make(map[reflect.Type][]handler),
		identHandlers:      make(map[string][]handler),
		propertyHandlers:   make(map[string][]handler),
		elementHandlers:    make(map[string][]handler),
		counters:           make(map[string]int),
		registeredRuleName: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register lets every rule install its handlers. Rule names must be unique.
func (c *Checker) Register(rules ...Rule) error {
	for _, r := range rules {
		if c.registeredRuleName[r.Name()] {
			return fmt.Errorf("%w: rule %q registered twice", ErrInvalidConfig, r.Name())
		}
		if err := r.Register(c); err != nil {
			return fmt.Errorf("registering rule %q: %w", r.Name(), err)
		}
		c.registeredRuleName[r.Name()] = true
	}
	return nil
}

// On registers fn for every node with the same dynamic type as node, for
// example (*ast.CallExpr)(nil).
func (c *Checker) On(node ast.Node, fn Handler, code int) {
	t := reflect.TypeOf(node)
	c.nodeHandlers[t] = append(c.nodeHandlers[t], handler{fn, code})
}

// OnNamedIdentifier registers fn for identifiers spelled name.
func (c *Checker) OnNamedIdentifier(name string, fn Handler, code int) {
	c.identHandlers[name] = append(c.identHandlers[name], handler{fn, code})
}

// OnNamedPropertyAccess registers fn for selector expressions selecting name.
func (c *Checker) OnNamedPropertyAccess(name string, fn Handler, code int) {
	c.propertyHandlers[name] = append(c.propertyHandlers[name], handler{fn, code})
}

// OnStringLiteralElementAccess registers fn for index expressions whose index
// is the constant string key.
func (c *Checker) OnStringLiteralElementAccess(key string, fn Handler, code int) {
	c.elementHandlers[key] = append(c.elementHandlers[key], handler{fn, code})
}

// Program returns the program the checker is bound to.
func (c *Checker) Program() *Program {
	return c.program
}

// File returns the file being traversed, nil between traversals.
func (c *Checker) File() *ast.File {
	return c.file
}

// FileSet returns the FileSet of the program.
func (c *Checker) FileSet() *token.FileSet {
	return c.program.Fset
}

// FileName returns the name of the file being traversed.
func (c *Checker) FileName() string {
	if c.tokenFile == nil {
		return ""
	}
	return c.tokenFile.Name()
}

// MinConfidence returns the silencing threshold.
func (c *Checker) MinConfidence() Confidence {
	return c.minConfidence
}

// Parent returns the parent of a node visited so far in the current traversal.
func (c *Checker) Parent(n ast.Node) ast.Node {
	return c.parents[n]
}

// Debugf logs matcher decisions when debugging is enabled.
func (c *Checker) Debugf(format string, args ...interface{}) {
	if c.debug {
		c.logger.Printf(format, args...)
	}
}

// IncrementCounter adds one to a named statistics counter.
func (c *Checker) IncrementCounter(name string) {
	c.counters[name]++
}

// Counters returns a copy of the statistics counters.
func (c *Checker) Counters() map[string]int {
	out := make(map[string]int, len(c.counters))
	for k, v := range c.counters {
		out[k] = v
	}
	return out
}

// Text returns the source text of n, or an empty string when unavailable.
func (c *Checker) Text(n ast.Node) string {
	start, end := c.program.Fset.Position(n.Pos()), c.program.Fset.Position(n.End())
	src := c.program.Source(start.Filename)
	if src == nil || start.Offset < 0 || end.Offset > len(src) || start.Offset > end.Offset {
		return ""
	}
	return string(src[start.Offset:end.Offset])
}

// FailureOption attaches optional data to a failure.
type FailureOption func(*Failure)

// WithFixes attaches suggested fixes.
func WithFixes(fixes ...Fix) FailureOption {
	return func(f *Failure) {
		f.Fixes = append(f.Fixes, fixes...)
	}
}

// WithRelated attaches related locations.
func WithRelated(related ...RelatedInformation) FailureOption {
	return func(f *Failure) {
		f.Related = append(f.Related, related...)
	}
}

// WithConfidence sets the failure confidence. Failures default to ConfidenceNA.
func WithConfidence(conf Confidence) FailureOption {
	return func(f *Failure) {
		f.Confidence = conf
	}
}

// AddFailureAtNode records a failure spanning n in the current file. Failures
// in allowlisted files are kept with the SilenceExempted reason.
func (c *Checker) AddFailureAtNode(n ast.Node, text, ruleName string, allowlist *Allowlist, opts ...FailureOption) error {
	if c.file == nil || c.tokenFile == nil {
		return fmt.Errorf("adding failure %q: %w", text, ErrNoTraversal)
	}
	if n == nil || !n.Pos().IsValid() || c.program.Fset.File(n.Pos()) != c.tokenFile {
		return fmt.Errorf("node outside %s: %w", c.tokenFile.Name(), ErrSpanOutOfBounds)
	}
	if !n.End().IsValid() || n.End() < n.Pos() || int(n.End()) > c.tokenFile.Base()+c.tokenFile.Size() {
		return fmt.Errorf("invalid span [%d, %d] in %s: %w", n.Pos(), n.End(), c.tokenFile.Name(), ErrSpanOutOfBounds)
	}
	start, end := c.tokenFile.Offset(n.Pos()), c.tokenFile.Offset(n.End())
	f := &Failure{
		File:       c.tokenFile.Name(),
		Start:      start,
		End:        end,
		Text:       text,
		Code:       c.currentCode,
		RuleName:   ruleName,
		Confidence: ConfidenceNA,
		tf:         c.tokenFile,
	}
	for _, opt := range opts {
		opt(f)
	}
	if len(f.Fixes) > 0 {
		f.src = c.program.Source(f.File)
	}
	if allowlist.IsAllowlisted(f.File) {
		f.AddSilenceReason(SilenceExempted)
	}
	c.failures = append(c.failures, f)
	return nil
}

// CreateRelatedInformation describes n as a location related to a failure.
func (c *Checker) CreateRelatedInformation(n ast.Node, message string) RelatedInformation {
	start, end := c.program.Fset.Position(n.Pos()), c.program.Fset.Position(n.End())
	return RelatedInformation{File: start.Filename, Start: start.Offset, End: end.Offset, Message: message}
}

// Execute walks file once and returns the failures that survive triage.
func (c *Checker) Execute(file *ast.File) ([]*Failure, error) {
	res, err := c.ExecuteVerbose(file)
	if err != nil {
		return nil, err
	}
	return res.Reported, nil
}

// ExecuteVerbose walks file once and returns both reported and silenced failures.
func (c *Checker) ExecuteVerbose(file *ast.File) (*Result, error) {
	c.begin(file)
	defer c.end()

	if c.tokenFile == nil {
		return nil, fmt.Errorf("file %s is not part of the program: %w", file.Name.Name, ErrSpanOutOfBounds)
	}
	c.Debugf("processing %s", c.tokenFile.Name())

	var err error
	ast.Inspect(file, func(n ast.Node) bool {
		if err != nil {
			return false
		}
		if n == nil {
			c.stack = c.stack[:len(c.stack)-1]
			return false
		}
		if len(c.stack) > 0 {
			c.parents[n] = c.stack[len(c.stack)-1]
		}
		c.stack = append(c.stack, n)
		err = c.dispatch(n)
		return true
	})
	if err != nil {
		return nil, err
	}
	return Triage(c.failures, c.minConfidence), nil
}

func (c *Checker) begin(file *ast.File) {
	c.file = file
	c.tokenFile = c.program.Fset.File(file.Pos())
	c.failures = nil
	c.parents = make(map[ast.Node]ast.Node)
	c.stack = c.stack[:0]
	c.currentCode = 0
}

func (c *Checker) end() {
	c.file = nil
	c.tokenFile = nil
	c.failures = nil
	c.parents = nil
	c.stack = c.stack[:0]
}

func (c *Checker) dispatch(n ast.Node) error {
	if err := c.run(c.nodeHandlers[reflect.TypeOf(n)], n); err != nil {
		return err
	}
	switch node := n.(type) {
	case *ast.Ident:
		return c.run(c.identHandlers[node.Name], n)
	case *ast.SelectorExpr:
		return c.run(c.propertyHandlers[node.Sel.Name], n)
	case *ast.IndexExpr:
		v := c.program.ConstValue(c.file, node.Index)
		if v == nil || v.Kind() != constant.String {
			return nil
		}
		return c.run(c.elementHandlers[constant.StringVal(v)], n)
	}
	return nil
}

func (c *Checker) run(handlers []handler, n ast.Node) error {
	for _, h := range handlers {
		c.currentCode = h.code
		if err := h.fn(c, n); err != nil {
			pos := c.program.Fset.Position(n.Pos())
			return fmt.Errorf("handler for code %d at %s: %w", h.code, pos, err)
		}
	}
	return nil
}
