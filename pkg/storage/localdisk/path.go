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

package localdisk

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"zimg.org/pkg/fingerprint"
)

// originName is the leaf file holding an original's bytes. Variant
// leaves are named by their parameter tag, which never collides with
// it ("origin" contains no '*').
const originName = "origin"

// shard maps a hex slice to a first- or second-level directory name:
// the slice read as base-16, divided by 4 (0..1023 per level).
func shard(hex3 string) string {
	n, err := strconv.ParseInt(hex3, 16, 32)
	if err != nil {
		// Callers validate the fingerprint first; unreachable for
		// well-formed keys.
		n = 0
	}
	return strconv.Itoa(int(n / 4))
}

// dirOf returns the leaf directory of fingerprint fp:
// <root>/<shard(fp[0:3])>/<shard(fp[3:6])>/<fp>.
func (ds *Storage) dirOf(fp string) string {
	return filepath.Join(ds.root, shard(fp[0:3]), shard(fp[3:6]), fp)
}

// splitKey parses a storage key into fingerprint and leaf file name.
func splitKey(key string) (fp, file string, err error) {
	fp, tag, hasTag := strings.Cut(key, ":")
	if !fingerprint.Valid(fp) {
		return "", "", errors.Errorf("localdisk: malformed key %q", key)
	}
	if !hasTag {
		return fp, originName, nil
	}
	if tag == "" || strings.ContainsAny(tag, "/\\") {
		return "", "", errors.Errorf("localdisk: malformed variant key %q", key)
	}
	return fp, tag, nil
}

func (ds *Storage) pathOf(key string) (string, error) {
	fp, file, err := splitKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(ds.dirOf(fp), file), nil
}
