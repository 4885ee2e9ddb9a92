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

	"zimg.org/pkg/convert"
	"zimg.org/pkg/storage"
	"zimg.org/pkg/variant"
)

// handleDownload serves the variant of md5 described by the query
// parameters, rendering it on first request.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request, md5 string) {
	addr := clientIP(r)

	if !s.checkAccess(w, r, s.conf.DownAccess) {
		return
	}

	q := r.URL.Query()
	if q.Get("w") == "g" && q.Get("h") == "w" {
		s.writeHTML(w, http.StatusOK, loveHTML)
		return
	}
	p := convert.ParseParams(q)
	log := logrus.WithFields(logrus.Fields{"addr": addr, "md5": md5, "tag": p.Tag()})

	var res variant.Result
	s.pool.Do(func(b storage.Backend) {
		res = s.resolver.Resolve(b, md5, p, r.Header.Get("If-None-Match"))
	})

	switch res.Status {
	case variant.NotModified:
		log.Info("succ 304 pic")
		w.Header().Set("Server", serverName)
		w.WriteHeader(http.StatusNotModified)
	case variant.NotFound:
		log.Info("fail pic not found")
		s.writeHTML(w, http.StatusNotFound, notFoundHTML)
	case variant.Failure:
		log.Error("fail pic")
		s.writeHTML(w, http.StatusInternalServerError, internalErrHTML)
	default:
		h := w.Header()
		h.Set("Server", serverName)
		if convert.IsGIF(res.Data) {
			h.Set("Content-Type", "image/gif")
		} else {
			h.Set("Content-Type", "image/jpeg")
		}
		h.Set("Etag", res.ETag)
		h.Set("Content-Length", strconv.Itoa(len(res.Data)))
		s.addExtraHeaders(w)
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(res.Data); err != nil {
			// Client went away; the variant is cached regardless.
			log.WithError(err).Debug("response write aborted")
			return
		}
		log.WithField("size", len(res.Data)).Info("succ pic")
	}
}
