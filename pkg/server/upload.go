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

package server

import (
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"zimg.org/pkg/fingerprint"
	"zimg.org/pkg/magic"
	"zimg.org/pkg/multipart"
	"zimg.org/pkg/storage"
)

// handleUpload ingests one image from a multipart POST body and
// answers with its fingerprint.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	addr := clientIP(r)
	log := logrus.WithField("addr", addr)

	if !s.checkAccess(w, r, s.conf.UpAccess) {
		return
	}

	if r.ContentLength <= 0 {
		log.Error("fail post content-length")
		s.writeHTML(w, http.StatusInternalServerError, uploadFailedHTML)
		return
	}
	if r.ContentLength > s.conf.MaxSize {
		log.Error("fail post too large")
		s.writeHTML(w, http.StatusInternalServerError, uploadFailedHTML)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, s.conf.MaxSize))
	if err != nil {
		log.WithError(err).Error("fail post read body")
		s.writeHTML(w, http.StatusInternalServerError, uploadFailedHTML)
		return
	}

	file, err := multipart.ExtractFile(body, r.Header.Get("Content-Type"))
	if err != nil {
		log.WithError(err).Error("fail post parse")
		s.writeHTML(w, http.StatusInternalServerError, uploadFailedHTML)
		return
	}
	if !magic.IsImageName(file.Name) {
		log.WithField("filename", file.Name).Error("fail post type")
		s.writeHTML(w, http.StatusInternalServerError, uploadFailedHTML)
		return
	}

	md5 := fingerprint.FromBytes(file.Data)

	var saveErr error
	s.pool.Do(func(b storage.Backend) {
		// Identical content is already addressed by this key; a
		// re-upload is deduplicated into a no-op.
		if ok, err := b.Exists(md5); err == nil && ok {
			return
		}
		saveErr = storage.Retry(func() error { return b.Put(md5, file.Data) })
	})
	if saveErr != nil {
		log.WithError(saveErr).Error("fail post save")
		s.writeHTML(w, http.StatusInternalServerError, uploadFailedHTML)
		return
	}

	log.WithFields(logrus.Fields{"md5": md5, "size": len(file.Data)}).Info("succ post pic")
	s.writeHTML(w, http.StatusOK, uploadOKHTML(md5, s.conf.Port))
}
