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
	"strconv"

	"github.com/sirupsen/logrus"

	"zimg.org/pkg/fingerprint"
	"zimg.org/pkg/storage"
)

// deleteWholeRecord is the admin command removing an original and,
// transitively, all of its variants.
const deleteWholeRecord = 1

// handleAdmin executes admin commands:
// /admin?md5=<fingerprint>&t=1 deletes the record. Command results,
// success or failure, are reported in a 200 HTML page.
func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	addr := clientIP(r)

	if !s.checkAccess(w, r, s.conf.DownAccess) {
		return
	}

	q := r.URL.Query()
	if len(q) == 0 {
		s.handleRoot(w, r)
		return
	}

	md5 := q.Get("md5")
	if !fingerprint.Valid(md5) {
		logrus.WithFields(logrus.Fields{"addr": addr, "md5": md5}).Info("refuse admin url illegal")
		s.writeHTML(w, http.StatusNotFound, notFoundHTML)
		return
	}
	t, _ := strconv.Atoi(q.Get("t"))
	log := logrus.WithFields(logrus.Fields{"addr": addr, "md5": md5, "t": t})

	if t != deleteWholeRecord {
		log.Error("fail admin unknown command")
		s.writeHTML(w, http.StatusOK, adminFailedHTML(md5, t))
		return
	}

	var delErr error
	s.pool.Do(func(b storage.Backend) {
		delErr = storage.Retry(func() error { return b.DeleteAll(md5) })
	})
	switch {
	case delErr == nil:
		log.Info("succ admin pic")
		s.writeHTML(w, http.StatusOK, adminOKHTML(md5, t))
	case storage.IsNotFound(delErr):
		log.Info("404 admin pic")
		s.writeHTML(w, http.StatusOK, adminNotFoundHTML(md5, t))
	default:
		log.WithError(delErr).Error("fail admin pic")
		s.writeHTML(w, http.StatusOK, adminFailedHTML(md5, t))
	}
}
