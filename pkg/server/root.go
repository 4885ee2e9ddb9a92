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
	"net/http"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"zimg.org/pkg/magic"
)

// handleRoot serves the configured root page, falling back to the
// built-in welcome page when none is readable.
func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	path := s.rootFile()
	if path == "" {
		s.writeHTML(w, http.StatusOK, welcomeHTML)
		return
	}
	body, err := os.ReadFile(path)
	if err != nil {
		logrus.WithError(err).Debug("root page open failed, return default page")
		s.writeHTML(w, http.StatusOK, welcomeHTML)
		return
	}

	h := w.Header()
	h.Set("Server", serverName)
	h.Set("Content-Type", magic.MIMEType(path))
	s.addExtraHeaders(w)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// rootFile locates the root page: root-path itself when it is a file,
// otherwise index.html inside it.
func (s *Server) rootFile() string {
	fi, err := os.Stat(s.conf.RootPath)
	if err != nil {
		return ""
	}
	if !fi.IsDir() {
		return s.conf.RootPath
	}
	idx := filepath.Join(s.conf.RootPath, "index.html")
	if _, err := os.Stat(idx); err != nil {
		return ""
	}
	return idx
}
