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

package multipart

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildBody assembles a single-file multipart body the way curl -F does.
func buildBody(boundary, filename string, data []byte) []byte {
	var sb strings.Builder
	sb.WriteString("--" + boundary + "\r\n")
	sb.WriteString(`Content-Disposition: form-data; name="userfile"; filename="` + filename + `"` + "\r\n")
	sb.WriteString("Content-Type: application/octet-stream\r\n")
	sb.WriteString("\r\n")
	sb.Write(data)
	sb.WriteString("\r\n--" + boundary + "--\r\n")
	return []byte(sb.String())
}

func TestBoundary(t *testing.T) {
	tests := []struct {
		ct   string
		want string
		err  error
	}{
		{"multipart/form-data; boundary=abc123", "abc123", nil},
		{`multipart/form-data; boundary="quoted-b"`, "quoted-b", nil},
		{"multipart/form-data; boundary=abc; charset=utf-8", "abc", nil},
		{"multipart/form-data; boundary=abc, other", "abc", nil},
		{"text/plain", "", ErrNotMultipart},
		{"multipart/form-data", "", ErrNoBoundary},
		{"multipart/form-data; boundary=", "", ErrNoBoundary},
		{`multipart/form-data; boundary="unterminated`, "", ErrNoBoundary},
	}
	for _, tt := range tests {
		got, err := Boundary(tt.ct)
		if tt.err != nil {
			assert.ErrorIs(t, err, tt.err, tt.ct)
			continue
		}
		require.NoError(t, err, tt.ct)
		assert.Equal(t, tt.want, got, tt.ct)
	}
}

func TestExtractFile(t *testing.T) {
	data := []byte("\x89PNG\r\n\x1a\nbinary\r\npayload\x00bytes")
	body := buildBody("zimgB", "cat.png", data)

	f, err := ExtractFile(body, "multipart/form-data; boundary=zimgB")
	require.NoError(t, err)
	assert.Equal(t, "cat.png", f.Name)
	assert.Equal(t, data, f.Data)
}

func TestExtractFileUnquotedFilename(t *testing.T) {
	body := []byte("--b\r\n" +
		"Content-Disposition: form-data; name=f; filename=dog.jpg\r\n" +
		"Content-Type: image/jpeg\r\n" +
		"\r\n" +
		"JPEGDATA" +
		"\r\n--b--\r\n")
	f, err := ExtractFile(body, "multipart/form-data; boundary=b")
	require.NoError(t, err)
	assert.Equal(t, "dog.jpg", f.Name)
	assert.Equal(t, []byte("JPEGDATA"), f.Data)
}

func TestExtractFileFirstPartWins(t *testing.T) {
	first := buildBody("b", "one.gif", []byte("GIF89a-one"))
	// Strip the closing dashes so a second part can follow.
	head := first[:len(first)-len("--\r\n")]
	body := append([]byte(nil), head...)
	body = append(body, []byte("\r\n"+
		`Content-Disposition: form-data; name="f2"; filename="two.gif"`+"\r\n"+
		"Content-Type: image/gif\r\n\r\nGIF89a-two\r\n--b--\r\n")...)

	f, err := ExtractFile(body, "multipart/form-data; boundary=b")
	require.NoError(t, err)
	assert.Equal(t, "one.gif", f.Name)
	assert.Equal(t, []byte("GIF89a-one"), f.Data)
}

func TestExtractFileErrors(t *testing.T) {
	ct := "multipart/form-data; boundary=b"

	_, err := ExtractFile(nil, ct)
	assert.ErrorIs(t, err, ErrEmptyBody)

	_, err = ExtractFile([]byte("--b\r\nContent-Disposition: form-data; name=x\r\n\r\nv\r\n--b--\r\n"), ct)
	assert.ErrorIs(t, err, ErrNoFilename)

	_, err = ExtractFile([]byte("--b\r\nContent-Disposition: form-data; filename=\"a.png\"\r\n\r\ndata\r\n--b--\r\n"), ct)
	assert.ErrorIs(t, err, ErrNoContentType)

	noEnd := []byte("--b\r\n" +
		"Content-Disposition: form-data; filename=\"a.png\"\r\n" +
		"Content-Type: image/png\r\n\r\ndata without closing boundary")
	_, err = ExtractFile(noEnd, ct)
	assert.ErrorIs(t, err, ErrIncomplete)

	empty := []byte("--b\r\n" +
		"Content-Disposition: form-data; filename=\"a.png\"\r\n" +
		"Content-Type: image/png\r\n\r\n" +
		"\r\n--b--\r\n")
	_, err = ExtractFile(empty, ct)
	assert.ErrorIs(t, err, ErrEmptyPayload)
}
