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
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/securego/conform"
	"github.com/securego/conform/trusted"
)

// Config describes a pattern rule.
type Config struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	Kind Kind   `json:"kind" yaml:"kind"`
	// Values are absolute matcher specs for the name kinds and
	// "importpath.Type.Property" specs for the property kinds.
	Values       []string `json:"values" yaml:"values"`
	ErrorCode    int      `json:"error_code" yaml:"error_code"`
	ErrorMessage string   `json:"error_message" yaml:"error_message"`
	// CWE is the weakness reported for the rule, if any.
	CWE string `json:"cwe,omitempty" yaml:"cwe,omitempty"`

	Allowlist          []conform.AllowlistEntry `json:"allowlist,omitempty" yaml:"allowlist,omitempty"`
	AllowedTrustedType *trusted.Config          `json:"allowed_trusted_type,omitempty" yaml:"allowed_trusted_type,omitempty"`

	UseTypedPropertyMatcher bool     `json:"use_typed_property_matcher,omitempty" yaml:"use_typed_property_matcher,omitempty"`
	IgnoreTypes             []string `json:"ignore_types,omitempty" yaml:"ignore_types,omitempty"`

	Fixers []Fixer `json:"-" yaml:"-"`
}

// Validate reports the first problem of the configuration.
func (c *Config) Validate() error {
	if _, ok := kindNames[c.Kind]; !ok {
		return fmt.Errorf("%w: unknown pattern kind %d", conform.ErrInvalidConfig, int(c.Kind))
	}
	if len(c.Values) == 0 {
		return fmt.Errorf("%w: %s rule without values", conform.ErrInvalidConfig, c.Kind)
	}
	if c.ErrorMessage == "" {
		return fmt.Errorf("%w: %s rule without error message", conform.ErrInvalidConfig, c.Kind)
	}
	if c.ErrorCode < 0 {
		return fmt.Errorf("%w: negative error code %d", conform.ErrInvalidConfig, c.ErrorCode)
	}
	if len(c.IgnoreTypes) > 0 && !c.UseTypedPropertyMatcher {
		return fmt.Errorf("%w: ignore_types requires the typed property matcher", conform.ErrInvalidConfig)
	}
	if c.AllowedTrustedType != nil && c.AllowedTrustedType.TypeName == "" {
		return fmt.Errorf("%w: trusted type without a name", conform.ErrInvalidConfig)
	}
	return nil
}

// LoadConfigs decodes a YAML or JSON list of rule configurations. Unknown
// keys are rejected.
func LoadConfigs(r io.Reader) ([]Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var cfgs []Config
	if err := dec.Decode(&cfgs); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: decoding pattern rules: %v", conform.ErrInvalidConfig, err)
	}
	for i := range cfgs {
		if err := cfgs[i].Validate(); err != nil {
			return nil, fmt.Errorf("pattern rule %d (%s): %w", i, cfgs[i].Name, err)
		}
	}
	return cfgs, nil
}

// FromConfig builds the declarative rules of the configuration's rules
// section, keyed by rule name. Exemptions loaded into the configuration are
// appended to each rule's allowlist when the rule is built.
func FromConfig(conf conform.Config) (map[string]conform.RuleBuilder, error) {
	raw, err := conf.RawRules()
	if err != nil {
		return nil, fmt.Errorf("%w: rules section: %v", conform.ErrInvalidConfig, err)
	}
	cfgs, err := LoadConfigs(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	builders := make(map[string]conform.RuleBuilder, len(cfgs))
	for i, cfg := range cfgs {
		if cfg.Name == "" {
			return nil, fmt.Errorf("%w: pattern rule %d without a name", conform.ErrInvalidConfig, i)
		}
		if _, dup := builders[cfg.Name]; dup {
			return nil, fmt.Errorf("%w: pattern rule %s declared twice", conform.ErrInvalidConfig, cfg.Name)
		}
		cfg := cfg
		builders[cfg.Name] = func(id string, c conform.Config) (conform.Rule, error) {
			rc := cfg
			rc.Allowlist = append(append([]conform.AllowlistEntry(nil), cfg.Allowlist...), c.Exemptions(id)...)
			return NewRule(id, rc)
		}
	}
	return builders, nil
}
