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

// Result splits the failures of one traversal into the reported and the
// silenced ones. Both keep traversal order.
type Result struct {
	Reported []*Failure
	Silenced []*Failure
}

// All returns reported and silenced failures together.
func (r *Result) All() []*Failure {
	all := make([]*Failure, 0, len(r.Reported)+len(r.Silenced))
	all = append(all, r.Reported...)
	return append(all, r.Silenced...)
}

// SilenceLessConfidentDuplicates silences, within every group of failures
// sharing a location, the ones below the group's highest confidence. Failures
// tied at the highest confidence all stay.
func SilenceLessConfidentDuplicates(failures []*Failure) {
	best := make(map[string]Confidence, len(failures))
	for _, f := range failures {
		key := f.LocationKey()
		if c, ok := best[key]; !ok || f.Confidence > c {
			best[key] = f.Confidence
		}
	}
	for _, f := range failures {
		if f.Confidence < best[f.LocationKey()] {
			f.AddSilenceReason(SilenceLessConfidentDuplicate)
		}
	}
}

// SilenceDuplicateMessages silences every failure whose location, rule and
// message were already seen, keeping the first occurrence. Failures silenced
// by an earlier step still count as seen.
func SilenceDuplicateMessages(failures []*Failure) {
	seen := make(map[string]bool, len(failures))
	for _, f := range failures {
		key := f.Key()
		if seen[key] {
			f.AddSilenceReason(SilenceDuplicateMessage)
			continue
		}
		seen[key] = true
	}
}

// SilenceLowConfidence silences failures strictly below min.
func SilenceLowConfidence(failures []*Failure, min Confidence) {
	for _, f := range failures {
		if f.Confidence < min {
			f.AddSilenceReason(SilenceConfidenceTooLow)
		}
	}
}

// Triage runs the silencing steps in their fixed order and partitions the result.
func Triage(failures []*Failure, min Confidence) *Result {
	SilenceLessConfidentDuplicates(failures)
	SilenceDuplicateMessages(failures)
	SilenceLowConfidence(failures, min)

	res := &Result{}
	for _, f := range failures {
		if f.IsSilenced() {
			res.Silenced = append(res.Silenced, f)
		} else {
			res.Reported = append(res.Reported, f)
		}
	}
	return res
}
