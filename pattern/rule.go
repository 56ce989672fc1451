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

package pattern

import (
	"fmt"

	"github.com/securego/conform"
)

// Rule is a conform.Rule running a pattern engine.
type Rule struct {
	name   string
	cfg    Config
	engine Engine
}

var _ conform.Rule = (*Rule)(nil)

// NewRule validates cfg and builds the engine of its kind. When name is
// empty the name of the configuration is used.
func NewRule(name string, cfg Config) (*Rule, error) {
	if name == "" {
		name = cfg.Name
	}
	if name == "" {
		return nil, fmt.Errorf("%w: pattern rule without a name", conform.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("rule %s: %w", name, err)
	}
	allowlist, err := conform.NewAllowlist(cfg.Allowlist...)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", name, err)
	}
	build, ok := engineBuilders()[cfg.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: rule %s: no engine for %s", conform.ErrInvalidConfig, name, cfg.Kind)
	}
	r := &Rule{name: name, cfg: cfg}
	r.engine, err = build(name, &r.cfg, allowlist)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", name, err)
	}
	return r, nil
}

// Name implements conform.Rule.
func (r *Rule) Name() string {
	return r.name
}

// Code implements conform.Rule.
func (r *Rule) Code() int {
	return r.cfg.ErrorCode
}

// Config returns the configuration the rule was built from.
func (r *Rule) Config() Config {
	return r.cfg
}

// Register implements conform.Rule.
func (r *Rule) Register(c *conform.Checker) error {
	return r.engine.Register(c)
}

// CWE returns the weakness declared by the configuration.
func (r *Rule) CWE() string {
	return r.cfg.CWE
}
