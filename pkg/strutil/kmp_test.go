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

package strutil

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndex(t *testing.T) {
	tests := []struct {
		b, pattern string
		want       int
	}{
		{"hello world", "world", 6},
		{"hello world", "hello", 0},
		{"hello world", "worlds", -1},
		{"", "a", -1},
		{"a", "", -1},
		{"aaaab", "aab", 2},
		{"abababac", "ababac", 2},
		{"\r\n--bound", "\r\n--bound", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Index([]byte(tt.b), []byte(tt.pattern)), "%q in %q", tt.pattern, tt.b)
	}
}

func TestIndexBinary(t *testing.T) {
	// Pattern embedded in pseudo-random binary noise, including NUL
	// and CRLF bytes that a naive text scan would trip on.
	rnd := rand.New(rand.NewSource(1))
	noise := make([]byte, 64<<10)
	rnd.Read(noise)
	pattern := []byte("\r\n--zimgboundary7f3a")
	body := append(append(append([]byte(nil), noise...), pattern...), noise...)

	got := Index(body, pattern)
	assert.Equal(t, bytes.Index(body, pattern), got)
	assert.Equal(t, len(noise), got)
}

func TestIndexAgreesWithBytesIndex(t *testing.T) {
	rnd := rand.New(rand.NewSource(2))
	alphabet := []byte("ab\r\n-")
	for i := 0; i < 500; i++ {
		b := make([]byte, rnd.Intn(200))
		for j := range b {
			b[j] = alphabet[rnd.Intn(len(alphabet))]
		}
		p := make([]byte, 1+rnd.Intn(8))
		for j := range p {
			p[j] = alphabet[rnd.Intn(len(alphabet))]
		}
		assert.Equal(t, bytes.Index(b, p), Index(b, p), "b=%q p=%q", b, p)
	}
}
