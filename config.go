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

package conform

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// Globals are applicable to all rules and used for general
	// configuration settings for conform.
	Globals = "global"
	// RulesKey holds the declarative pattern rules of a config file.
	RulesKey = "rules"
	// ExemptionsKey holds the path of the exemption file.
	ExemptionsKey = "exemptions"

	allowlistKey = "allowlist"
)

// GlobalOption defines the name of the global options
type GlobalOption string

const (
	// MinConfidence is the lowest confidence of reported failures
	MinConfidence GlobalOption = "min-confidence"
	// ExcludeGenerated skips files carrying the generated code marker
	ExcludeGenerated GlobalOption = "exclude-generated"
	// Debug logs the decisions of the matchers
	Debug GlobalOption = "debug"
	// Tests loads the test files of the packages as well
	Tests GlobalOption = "tests"
)

// Config is used to provide configuration and customization to each of the
// rules.
type Config map[string]interface{}

// NewConfig initializes a new configuration instance. The configuration data then
// needs to be loaded via c.ReadFrom(strings.NewReader("config data"))
// or from a *os.File.
func NewConfig() Config {
	cfg := make(Config)
	cfg[Globals] = make(map[GlobalOption]string)
	return cfg
}

func (c Config) keyToGlobalOptions(key string) GlobalOption {
	return GlobalOption(key)
}

func (c Config) convertGlobals() {
	if globals, ok := c[Globals]; ok {
		if settings, ok := globals.(map[string]interface{}); ok {
			validGlobals := map[GlobalOption]string{}
			for k, v := range settings {
				validGlobals[c.keyToGlobalOptions(k)] = fmt.Sprintf("%v", v)
			}
			c[Globals] = validGlobals
		}
	}
}

// ReadFrom implements the io.ReaderFrom interface. This
// should be used with io.Reader to load configuration from
// file or from string etc.
func (c Config) ReadFrom(r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return int64(len(data)), err
	}
	if err = json.Unmarshal(data, &c); err != nil {
		return int64(len(data)), fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	c.convertGlobals()
	return int64(len(data)), nil
}

// WriteTo implements the io.WriteTo interface. This should
// be used to save or print out the configuration information.
func (c Config) WriteTo(w io.Writer) (int64, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return int64(len(data)), err
	}
	return io.Copy(w, bytes.NewReader(data))
}

// Get returns the configuration section for the supplied key
func (c Config) Get(section string) (interface{}, error) {
	settings, found := c[section]
	if !found {
		return nil, fmt.Errorf("section %s not in configuration", section)
	}
	return settings, nil
}

// Set section in the configuration to specified value
func (c Config) Set(section string, value interface{}) {
	c[section] = value
}

// GetGlobal returns value associated with global configuration option
func (c Config) GetGlobal(option GlobalOption) (string, error) {
	if globals, ok := c[Globals]; ok {
		if settings, ok := globals.(map[GlobalOption]string); ok {
			if value, ok := settings[option]; ok {
				return value, nil
			}
			return "", fmt.Errorf("global setting for %s not found", option)
		}
	}
	return "", fmt.Errorf("no global config options found")
}

// SetGlobal associates a value with a global configuration option
func (c Config) SetGlobal(option GlobalOption, value string) {
	if _, ok := c[Globals]; !ok {
		c[Globals] = make(map[GlobalOption]string)
	}
	if globals, ok := c[Globals]; ok {
		if settings, ok := globals.(map[GlobalOption]string); ok {
			settings[option] = value
		}
	}
}

// IsGlobalEnabled checks if a global option is enabled
func (c Config) IsGlobalEnabled(option GlobalOption) (bool, error) {
	value, err := c.GetGlobal(option)
	if err != nil {
		return false, err
	}
	return value == "true" || value == "enabled", nil
}

// SetExemptions stores the allowlist entries loaded from an exemption file,
// keyed by rule name, rule ID or "*".
func (c Config) SetExemptions(entries map[string]AllowlistEntry) {
	c[allowlistKey] = entries
}

// Exemptions returns the entries applying to a rule known under any of keys.
// Entries stored under "*" apply to every rule.
func (c Config) Exemptions(keys ...string) []AllowlistEntry {
	entries, ok := c[allowlistKey].(map[string]AllowlistEntry)
	if !ok {
		return nil
	}
	var out []AllowlistEntry
	seen := make(map[string]bool)
	for _, k := range append([]string{"*"}, keys...) {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		if e, ok := entries[k]; ok {
			out = append(out, e)
		}
	}
	return out
}

// StringList reads a list of strings from the section of a rule, for example
// {"C107": {"element-types": ["dom.Element"]}}.
func (c Config) StringList(section, key string) []string {
	settings, ok := c[section].(map[string]interface{})
	if !ok {
		return nil
	}
	var out []string
	switch values := settings[key].(type) {
	case []string:
		out = append(out, values...)
	case []interface{}:
		for _, v := range values {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
	case string:
		out = append(out, values)
	}
	return out
}

// LoadConfigFile reads a configuration file. Files ending in .yaml or .yml
// are decoded as YAML, everything else as JSON. A relative exemption file
// path is resolved against the directory of the configuration file.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	c := NewConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		raw := make(map[string]interface{})
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
		}
		for k, v := range raw {
			c[k] = v
		}
		c.convertGlobals()
	default:
		if _, err := c.ReadFrom(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if p, ok := c[ExemptionsKey].(string); ok && p != "" && !filepath.IsAbs(p) {
		c[ExemptionsKey] = filepath.Join(filepath.Dir(path), p)
	}
	return c, nil
}

// ExemptionFile returns the exemption file path set in the configuration.
func (c Config) ExemptionFile() string {
	p, _ := c[ExemptionsKey].(string)
	return p
}

// RawRules returns the declarative rules section, re-encoded as YAML so it
// can be decoded into typed rule configurations.
func (c Config) RawRules() ([]byte, error) {
	rules, ok := c[RulesKey]
	if !ok || rules == nil {
		return nil, nil
	}
	return yaml.Marshal(rules)
}
