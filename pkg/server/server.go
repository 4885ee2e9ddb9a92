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

// Package server is the zimg request dispatcher: it routes uploads,
// image fetches and admin commands onto the worker pool and shapes
// every HTTP response.
package server // import "zimg.org/pkg/server"

import (
	"net"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"zimg.org/pkg/access"
	"zimg.org/pkg/config"
	"zimg.org/pkg/fingerprint"
	"zimg.org/pkg/variant"
)

// Server dispatches requests. The configuration is immutable; all
// mutable state lives in the pool's workers and the resolver.
type Server struct {
	conf     *config.Config
	pool     *Pool
	resolver *variant.Resolver
}

// New builds a Server around an already-started worker pool.
func New(conf *config.Config, pool *Pool) *Server {
	return &Server{
		conf:     conf,
		pool:     pool,
		resolver: variant.NewResolver(conf.NumThreads),
	}
}

// clientIP strips the port off the transport's remote address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// checkAccess runs the gate for the given rule list. It writes the
// response itself unless access is granted.
func (s *Server) checkAccess(w http.ResponseWriter, r *http.Request, l *access.List) bool {
	addr := clientIP(r)
	switch l.Check(addr) {
	case access.Allow:
		return true
	case access.Forbidden:
		logrus.WithField("addr", addr).Info("refuse forbidden")
		s.writeHTML(w, http.StatusForbidden, forbiddenHTML)
	default:
		logrus.WithField("addr", addr).Error("fail access check")
		s.writeHTML(w, http.StatusInternalServerError, internalErrHTML)
	}
	return false
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Traversal guard before any routing; paths never reach the
	// filesystem, but keep the contract absolute.
	if strings.Contains(r.URL.Path, "..") {
		logrus.WithField("addr", clientIP(r)).Info("refuse directory")
		s.writeHTML(w, http.StatusForbidden, forbiddenHTML)
		return
	}

	if r.Method == http.MethodPost {
		s.handleUpload(w, r)
		return
	}
	if r.Method != http.MethodGet {
		logrus.WithFields(logrus.Fields{"addr": clientIP(r), "method": r.Method}).Info("refuse method")
		s.writeHTML(w, http.StatusNotFound, notFoundHTML)
		return
	}

	switch path := r.URL.Path; {
	case path == "/":
		s.handleRoot(w, r)
	case path == "/favicon.ico":
		s.handleFavicon(w, r)
	case path == "/admin":
		s.handleAdmin(w, r)
	default:
		md5 := strings.TrimPrefix(path, "/")
		if !fingerprint.Valid(md5) {
			logrus.WithFields(logrus.Fields{"addr": clientIP(r), "path": path}).Info("refuse url illegal")
			s.writeHTML(w, http.StatusNotFound, notFoundHTML)
			return
		}
		s.handleDownload(w, r, md5)
	}
}

func (s *Server) handleFavicon(w http.ResponseWriter, _ *http.Request) {
	h := w.Header()
	h.Set("Server", serverName)
	h.Set("Content-Type", "text/html")
	s.addExtraHeaders(w)
	w.WriteHeader(http.StatusOK)
}
