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

// Package trusted recognizes expressions carrying a value of a trusted type,
// such as the safe HTML wrappers of github.com/google/safehtml, which rules
// accept where they would otherwise ban a string.
package trusted

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/securego/conform"
)

// Config names a trusted type.
type Config struct {
	// TypeName is the name of the trusted type inside its package.
	TypeName string `json:"type_name" yaml:"type_name"`
	// ModulePathMatcher must be contained in the import path of the package
	// declaring the type, or in the path of the declaring file.
	ModulePathMatcher string `json:"module_path_matcher" yaml:"module_path_matcher"`
	// AllowAmbientDeclaration also trusts AmbientTypeName, a standard library
	// type with the same guarantees.
	AllowAmbientDeclaration bool   `json:"allow_ambient_declaration,omitempty" yaml:"allow_ambient_declaration,omitempty"`
	AmbientTypeName         string `json:"ambient_type_name,omitempty" yaml:"ambient_type_name,omitempty"`
}

const safehtmlPath = "github.com/google/safehtml"

// Presets for the safehtml types.
var (
	HTML = &Config{
		TypeName:                "HTML",
		ModulePathMatcher:       safehtmlPath,
		AllowAmbientDeclaration: true,
		AmbientTypeName:         "html/template.HTML",
	}
	Script = &Config{
		TypeName:                "Script",
		ModulePathMatcher:       safehtmlPath,
		AllowAmbientDeclaration: true,
		AmbientTypeName:         "html/template.JS",
	}
	ResourceURL = &Config{
		TypeName:                "TrustedResourceURL",
		ModulePathMatcher:       safehtmlPath,
		AllowAmbientDeclaration: true,
		AmbientTypeName:         "html/template.URL",
	}
)

// Preset returns a preset by its configuration name.
func Preset(name string) (*Config, bool) {
	switch name {
	case "html", "HTML":
		return HTML, true
	case "script", "Script":
		return Script, true
	case "resource-url", "TrustedResourceURL":
		return ResourceURL, true
	}
	return nil, false
}

// plainConfig decodes a Config without recursing into its decoders.
type plainConfig Config

// UnmarshalYAML accepts a preset name in place of a mapping.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		return c.setPreset(value.Value)
	}
	return value.Decode((*plainConfig)(c))
}

// UnmarshalJSON accepts a preset name in place of an object.
func (c *Config) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		return c.setPreset(name)
	}
	return json.Unmarshal(data, (*plainConfig)(c))
}

func (c *Config) setPreset(name string) error {
	preset, ok := Preset(name)
	if !ok {
		return fmt.Errorf("%w: unknown trusted type preset %q", conform.ErrInvalidConfig, name)
	}
	*c = *preset
	return nil
}
