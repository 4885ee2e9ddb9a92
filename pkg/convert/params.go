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

package convert

import (
	"fmt"
	"net/url"
	"strconv"
)

// Params is a transform parameter tuple as requested by a client.
//
// Zero values mean "unset"; Canonical fills the defaults in. The X/Y
// crop origin is accepted and keyed on but not applied (reserved).
type Params struct {
	Width      int
	Height     int
	Proportion int
	Gray       int
	X          int
	Y          int
	Quality    int
}

// ParseParams reads the w/h/p/g/x/y/q query parameters. Absent or
// non-numeric values take their defaults: zero everywhere except p=1.
func ParseParams(q url.Values) Params {
	p := Params{
		Width:      atoi(q.Get("w"), 0),
		Height:     atoi(q.Get("h"), 0),
		Proportion: atoi(q.Get("p"), 1),
		Gray:       atoi(q.Get("g"), 0),
		X:          atoi(q.Get("x"), 0),
		Y:          atoi(q.Get("y"), 0),
		Quality:    atoi(q.Get("q"), 0),
	}
	return p.Canonical()
}

func atoi(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// Canonical returns the canonical form of p: the form used for cache
// keys and equality. Two tuples with equal canonical forms address the
// same variant.
//
//   - with no dimensions requested, the proportion flag is meaningless
//     and is forced to 1;
//   - with p=1 only one axis is honored, width winning when both are
//     given, so the losing height is dropped from the key.
func (p Params) Canonical() Params {
	if p.Width == 0 && p.Height == 0 {
		p.Proportion = 1
	}
	if p.Proportion == 1 && p.Width != 0 {
		p.Height = 0
	}
	if p.Proportion != 0 {
		p.Proportion = 1
	}
	if p.Gray != 0 {
		p.Gray = 1
	}
	return p
}

// IsIdentity reports whether the canonical form of p requests the
// original bytes untouched.
func (p Params) IsIdentity() bool {
	c := p.Canonical()
	return c.Width == 0 && c.Height == 0 && c.Gray == 0 && c.Quality == 0 &&
		c.X == 0 && c.Y == 0
}

// Tag is the canonical on-disk / KV suffix naming the variant of one
// original, e.g. "100*0_p1_g0_x0_y0_q0".
func (p Params) Tag() string {
	c := p.Canonical()
	return fmt.Sprintf("%d*%d_p%d_g%d_x%d_y%d_q%d",
		c.Width, c.Height, c.Proportion, c.Gray, c.X, c.Y, c.Quality)
}

// Key is the storage key of the variant of fp described by p. The
// identity transform keys to the original itself.
func (p Params) Key(fp string) string {
	if p.IsIdentity() {
		return fp
	}
	return fp + ":" + p.Tag()
}
