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

// Package pattern implements the declarative rules: a kind of pattern, a list
// of banned names or properties and the message to report.
package pattern

import (
	"fmt"

	"github.com/securego/conform"
)

// Kind selects the engine of a pattern rule.
type Kind int

const (
	// BannedName bans references to fully qualified names
	BannedName Kind = iota + 1
	// BannedImportedName also bans renamed imports of banned packages
	BannedImportedName
	// BannedProperty bans every access to a property
	BannedProperty
	// BannedPropertyWrite bans assignments to a property
	BannedPropertyWrite
	// BannedPropertyNonConstantWrite bans assignments of computed values to a property
	BannedPropertyNonConstantWrite
)

var kindNames = map[Kind]string{
	BannedName:                     "banned-name",
	BannedImportedName:             "banned-imported-name",
	BannedProperty:                 "banned-property",
	BannedPropertyWrite:            "banned-property-write",
	BannedPropertyNonConstantWrite: "banned-property-non-constant-write",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind converts a configuration name into a Kind
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown pattern kind %q", conform.ErrInvalidConfig, s)
}

// MarshalText encodes the kind by name
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("%w: unknown pattern kind %d", conform.ErrInvalidConfig, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name
func (k *Kind) UnmarshalText(text []byte) error {
	kind, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}
