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

// Package variant resolves (fingerprint, transform params) to response
// bytes, using the storage backend as a lazy cache of rendered
// variants.
package variant // import "zimg.org/pkg/variant"

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go4.org/syncutil"
	"golang.org/x/sync/singleflight"

	"zimg.org/pkg/convert"
	"zimg.org/pkg/fingerprint"
	"zimg.org/pkg/storage"
)

// Status classifies a resolution outcome for the dispatcher.
type Status int

const (
	OK Status = iota
	NotModified
	NotFound
	Failure
)

// Result is a resolved variant. Data is nil for every status but OK;
// ETag is set for OK and NotModified.
type Result struct {
	Data   []byte
	ETag   string
	Status Status
}

// Resolver renders variants on cache miss. Concurrent requests for the
// same variant key are collapsed into one render; waiters share the
// winner's bytes, and the winner's backend handle does the cache
// write. A gate bounds how many renders decode pixels at once.
type Resolver struct {
	group singleflight.Group
	gate  *syncutil.Gate
}

// NewResolver returns a Resolver running at most maxRenders transform
// operations concurrently.
func NewResolver(maxRenders int) *Resolver {
	if maxRenders < 1 {
		maxRenders = 1
	}
	return &Resolver{gate: syncutil.NewGate(maxRenders)}
}

// Resolve returns the bytes for params p of original fp, rendering and
// caching on miss. inm is the request's If-None-Match value, matched
// against the MD5 of the bytes that would be served.
//
// The backend handle b belongs to the calling worker; the resolver
// never retains it past the call.
func (r *Resolver) Resolve(b storage.Backend, fp string, p convert.Params, inm string) Result {
	p = p.Canonical()
	key := p.Key(fp)

	data, err := getRetry(b, key)
	switch {
	case err == nil:
		return etagResult(data, inm)
	case !storage.IsNotFound(err):
		logrus.WithError(err).WithField("key", key).Error("variant: backend get failed")
		return Result{Status: Failure}
	}
	if p.IsIdentity() {
		// The original itself is missing; nothing to render from.
		return Result{Status: NotFound}
	}

	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		return r.render(b, fp, p, key)
	})
	if err != nil {
		if storage.IsNotFound(err) {
			return Result{Status: NotFound}
		}
		logrus.WithError(err).WithField("key", key).Error("variant: render failed")
		return Result{Status: Failure}
	}
	return etagResult(v.([]byte), inm)
}

// render fetches the original, runs the transform engine and writes
// the variant back. The cache write is best effort: a failed put is
// logged and the rendered bytes are served anyway.
func (r *Resolver) render(b storage.Backend, fp string, p convert.Params, key string) ([]byte, error) {
	orig, err := getRetry(b, fp)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, err
		}
		return nil, errors.Wrap(err, "fetch original")
	}

	r.gate.Start()
	out, convErr := convert.Apply(orig, p)
	r.gate.Done()
	if convErr != nil {
		// Deterministic failure; never cached, never retried.
		return nil, convErr
	}

	// GIF passes through unrendered; caching it would only duplicate
	// the original.
	if !convert.IsGIF(orig) {
		if err := storage.Retry(func() error { return b.Put(key, out) }); err != nil {
			logrus.WithError(err).WithField("key", key).Warn("variant: cache write failed")
		}
	}
	return out, nil
}

func etagResult(data []byte, inm string) Result {
	etag := fingerprint.FromBytes(data)
	if fingerprint.ETagMatch(inm, etag) {
		return Result{ETag: etag, Status: NotModified}
	}
	return Result{Data: data, ETag: etag, Status: OK}
}

func getRetry(b storage.Backend, key string) ([]byte, error) {
	var data []byte
	err := storage.Retry(func() error {
		var err error
		data, err = b.Get(key)
		return err
	})
	return data, err
}
