/*
Copyright 2024 The Zimg Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package strutil holds small string and byte-search helpers.
package strutil // import "zimg.org/pkg/strutil"

// Index returns the first position of pattern in b, or -1. It runs
// Knuth-Morris-Pratt so that adversarial binary input (image bytes in a
// multipart body) cannot trigger quadratic scanning. The prefix table
// is allocated per call; concurrent searches share nothing.
func Index(b, pattern []byte) int {
	n, m := len(b), len(pattern)
	if m == 0 || n < m {
		return -1
	}

	// Prefix function: pi[q] is the length of the longest proper
	// prefix of pattern[:q+1] that is also its suffix.
	pi := make([]int, m)
	k := 0
	for q := 1; q < m; q++ {
		for k > 0 && pattern[k] != pattern[q] {
			k = pi[k-1]
		}
		if pattern[k] == pattern[q] {
			k++
		}
		pi[q] = k
	}

	j := 0
	for i := 0; i < n; i++ {
		for j > 0 && pattern[j] != b[i] {
			j = pi[j-1]
		}
		if pattern[j] == b[i] {
			j++
		}
		if j == m {
			return i - m + 1
		}
	}
	return -1
}
