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

package main

import (
	"sort"
	"strconv"
	"strings"

	"github.com/securego/conform/issue"
)

// handle ranges
func extractLineNumber(s string) int {
	lineNumber, _ := strconv.Atoi(strings.Split(s, "-")[0])
	return lineNumber
}

type sortByConfidence []*issue.Issue

func (s sortByConfidence) Len() int { return len(s) }

func (s sortByConfidence) Less(i, j int) bool {
	if s[i].Confidence == s[j].Confidence {
		if s[i].What == s[j].What {
			if s[i].File == s[j].File {
				return extractLineNumber(s[i].Line) < extractLineNumber(s[j].Line)
			}
			return s[i].File < s[j].File
		}
		return s[i].What < s[j].What
	}
	return s[i].Confidence > s[j].Confidence
}

func (s sortByConfidence) Swap(i, j int) { s[i], s[j] = s[j], s[i] }

// sortIssues sorts the issues by confidence in descending order, then by
// message and position.
func sortIssues(issues []*issue.Issue) {
	sort.Stable(sortByConfidence(issues))
}
