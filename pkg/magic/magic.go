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

// Package magic decides file types from names: which uploads count as
// images, and which Content-Type a static file is served with.
package magic // import "zimg.org/pkg/magic"

import "strings"

// imageTypes is the allowed set of upload extensions. An extension
// matches if it begins with one of these, so a sloppy "jpegx" suffix
// still counts as jpeg.
var imageTypes = []string{"jpg", "jpeg", "png", "gif"}

// contentTypeTable maps extensions of static root files to MIME types.
var contentTypeTable = map[string]string{
	"txt":  "text/plain",
	"c":    "text/plain",
	"h":    "text/plain",
	"html": "text/html",
	"htm":  "text/htm",
	"css":  "text/css",
	"gif":  "image/gif",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"pdf":  "application/pdf",
	"ps":   "application/postsript",
}

// FileExt returns the lowercased extension of name: the run after the
// last dot. ok is false when name contains no dot or ends with one.
func FileExt(name string) (ext string, ok bool) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return "", false
	}
	return strings.ToLower(name[i+1:]), true
}

// IsImageName reports whether name carries an extension from the
// allowed image set.
func IsImageName(name string) bool {
	_, ok := ImageType(name)
	return ok
}

// ImageType returns the canonical format tag for an image filename,
// one of jpg, jpeg, png, gif. ok is false for non-image names.
func ImageType(name string) (string, bool) {
	ext, ok := FileExt(name)
	if !ok {
		return "", false
	}
	for _, t := range imageTypes {
		if strings.HasPrefix(ext, t) {
			return t, true
		}
	}
	return "", false
}

// MIMEType guesses a Content-Type for a static file path. Unknown
// extensions fall back to "application/misc".
func MIMEType(path string) string {
	ext, ok := FileExt(path)
	if !ok {
		return "application/misc"
	}
	if ct, ok := contentTypeTable[ext]; ok {
		return ct
	}
	return "application/misc"
}
