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

// Package multipart recovers the single uploaded file from a buffered
// multipart/form-data request body.
//
// This is deliberately not mime/multipart: the upload path works on the
// fully buffered body and slices the file payload out of it without
// copying, scanning with KMP so binary image bytes cannot degrade the
// search. Only the first file part of a body is used.
package multipart // import "zimg.org/pkg/multipart"

import (
	"errors"
	"strings"

	"zimg.org/pkg/strutil"
)

// Parse failures, one per distinct malformation.
var (
	ErrNotMultipart  = errors.New("multipart: Content-Type is not multipart/form-data")
	ErrNoBoundary    = errors.New("multipart: no boundary parameter")
	ErrEmptyBody     = errors.New("multipart: empty request body")
	ErrNoFilename    = errors.New("multipart: filename not found")
	ErrNoContentType = errors.New("multipart: file part has no Content-Type")
	ErrIncomplete    = errors.New("multipart: file payload not terminated by boundary")
	ErrEmptyPayload  = errors.New("multipart: file payload is empty")
)

// File is the uploaded file recovered from a request body. Data is a
// slice into the body buffer, not a copy; it is valid as long as the
// body is.
type File struct {
	Name string
	Data []byte
}

// Boundary extracts the boundary token from a multipart/form-data
// Content-Type header value.
func Boundary(contentType string) (string, error) {
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		return "", ErrNotMultipart
	}
	i := strings.Index(contentType, "boundary")
	if i < 0 {
		return "", ErrNoBoundary
	}
	rest := contentType[i+len("boundary"):]
	eq := strings.IndexByte(rest, '=')
	if eq < 0 {
		return "", ErrNoBoundary
	}
	b := rest[eq+1:]
	if strings.HasPrefix(b, `"`) {
		end := strings.IndexByte(b[1:], '"')
		if end < 0 {
			return "", ErrNoBoundary
		}
		b = b[1 : 1+end]
	} else if end := strings.IndexAny(b, ",;"); end >= 0 {
		b = b[:end]
	}
	if b == "" {
		return "", ErrNoBoundary
	}
	return b, nil
}

// ExtractFile locates the first file part in body and returns its
// declared filename and payload. contentType is the request's
// Content-Type header value.
func ExtractFile(body []byte, contentType string) (*File, error) {
	boundary, err := Boundary(contentType)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, ErrEmptyBody
	}

	// Part payloads are terminated by CRLF plus the dashed boundary.
	boundaryPattern := []byte("\r\n--" + boundary)

	start := strutil.Index(body, []byte("filename="))
	if start < 0 {
		return nil, ErrNoFilename
	}
	start += len("filename=")
	var end int
	if start < len(body) && body[start] == '"' {
		start++
		end = strutil.Index(body[start:], []byte(`"`))
	} else {
		end = strutil.Index(body[start:], []byte("\r\n"))
	}
	if end < 0 {
		return nil, ErrNoFilename
	}
	name := string(body[start : start+end])
	pos := start + end

	// Skip the part's Content-Type header line; the payload begins
	// four bytes past its terminating CRLF (the blank line).
	ct := strutil.Index(body[pos:], []byte("Content-Type"))
	if ct < 0 {
		return nil, ErrNoContentType
	}
	pos += ct
	eol := strutil.Index(body[pos:], []byte("\r\n"))
	if eol < 0 {
		return nil, ErrNoContentType
	}
	pos += eol + 4

	if pos > len(body) {
		return nil, ErrIncomplete
	}
	n := strutil.Index(body[pos:], boundaryPattern)
	if n < 0 {
		return nil, ErrIncomplete
	}
	if n == 0 {
		return nil, ErrEmptyPayload
	}
	return &File{Name: name, Data: body[pos : pos+n]}, nil
}
