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

// Package exemption loads per rule file exemptions. An exemption file maps
// rule names to lists of files, directories or glob patterns:
//
//	{
//	  "ban-exec-command": ["tools/gen.go", "internal/legacy/", "cmd/**/*_test.go"],
//	  "*": ["third_party/"]
//	}
//
// Entries are resolved against the directory of the exemption file. The "*"
// key applies to every rule.
package exemption

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/securego/conform"
)

// AllRules is the key of entries applying to every rule.
const AllRules = "*"

// Load reads the exemption file at path. Files ending in .yaml or .yml are
// decoded as YAML, anything else as JSON.
func Load(path string) (map[string]conform.AllowlistEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading exemptions: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]interface{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: exemption configuration requires a value of type object: %v", conform.ErrInvalidConfig, path, err)
	}
	return Parse(raw, filepath.Dir(abs))
}

// FromConfig loads the exemption file named by the configuration, if any.
func FromConfig(conf conform.Config) (map[string]conform.AllowlistEntry, error) {
	path := conf.ExemptionFile()
	if path == "" {
		return nil, nil
	}
	return Load(path)
}

// Parse converts decoded exemption entries into allowlist entries, resolving
// relative paths against baseDir. Every malformed key is reported.
func Parse(raw map[string]interface{}, baseDir string) (map[string]conform.AllowlistEntry, error) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var problems []string
	entries := make(map[string]conform.AllowlistEntry, len(raw))
	for _, rule := range keys {
		items, ok := raw[rule].([]interface{})
		if !ok {
			problems = append(problems, fmt.Sprintf("exemption entry '%s' requires a value of type array", rule))
			continue
		}
		entry := conform.AllowlistEntry{Reason: conform.ExemptionUnspecified}
		valid := true
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				problems = append(problems, fmt.Sprintf("item of exemption entry '%s' requires values of type string", rule))
				valid = false
				continue
			}
			resolved := resolve(baseDir, s)
			if !hasMagic(s) {
				entry.Paths = append(entry.Paths, resolved)
				continue
			}
			re, err := GlobToRegexp(resolved)
			if err != nil {
				problems = append(problems, fmt.Sprintf("exemption entry '%s': %v", rule, err))
				valid = false
				continue
			}
			entry.Regexps = append(entry.Regexps, re)
		}
		if valid {
			entries[rule] = entry
		}
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", conform.ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return entries, nil
}

// resolve makes p absolute and slash separated, keeping a trailing slash.
func resolve(baseDir, p string) string {
	dir := strings.HasSuffix(p, "/") || strings.HasSuffix(p, `\`)
	if !filepath.IsAbs(p) {
		p = filepath.Join(baseDir, p)
	}
	p = filepath.ToSlash(filepath.Clean(p))
	if dir && !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

func hasMagic(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}
