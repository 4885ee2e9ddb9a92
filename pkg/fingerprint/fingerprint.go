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

// Package fingerprint computes and validates the content addresses used
// throughout zimg: the lowercase hex MD5 of an image's original bytes.
// The same digest doubles as the ETag of a response body.
package fingerprint // import "zimg.org/pkg/fingerprint"

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// Size is the length of a fingerprint in hex characters.
const Size = 2 * md5.Size

// FromBytes returns the fingerprint of b: 32 lowercase hex characters.
func FromBytes(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}

// Valid reports whether s is a well-formed fingerprint: exactly 32
// lowercase hexadecimal characters.
func Valid(s string) bool {
	if len(s) != Size {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if '0' <= c && c <= '9' || 'a' <= c && c <= 'f' {
			continue
		}
		return false
	}
	return true
}

// ETagMatch reports whether the If-None-Match header value inm names
// etag. Clients may send the tag quoted; the stored form is bare hex.
func ETagMatch(inm, etag string) bool {
	if inm == "" {
		return false
	}
	return strings.Trim(inm, `"`) == etag
}
