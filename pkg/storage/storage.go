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

// Package storage defines the blob storage contract shared by the
// filesystem and memcached backends.
//
// Keys are flat, case-sensitive ASCII strings: a bare fingerprint for
// an original, "<fingerprint>:<tag>" for a variant.
package storage // import "zimg.org/pkg/storage"

import "errors"

// ErrNotFound is returned by Get and Delete for keys with no value.
// Backends report transport or I/O failures as any other error; a
// caller must not treat those as a miss.
var ErrNotFound = errors.New("storage: key not found")

// Backend stores opaque byte blobs by key. Implementations are used by
// exactly one worker goroutine at a time; they need no internal
// locking beyond what their transport requires.
type Backend interface {
	// Put stores value under key. Putting an existing key overwrites
	// it; the final value is the last write.
	Put(key string, value []byte) error

	// Get returns the value stored under key, or ErrNotFound.
	Get(key string) ([]byte, error)

	// Exists reports whether key has a value.
	Exists(key string) (bool, error)

	// Delete removes key. Deleting an absent key is ErrNotFound.
	Delete(key string) error

	// DeleteAll removes the original fp and every variant derived
	// from it. Returns ErrNotFound when fp itself is absent.
	DeleteAll(fp string) error

	// Close releases the worker's handle on the backend.
	Close() error
}

// IsNotFound reports whether err is a miss rather than a failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Retry runs op and, when it fails with a real error (not a miss),
// runs it once more. Backend errors are transient at most once; misses
// and second failures surface to the caller.
func Retry(op func() error) error {
	err := op()
	if err == nil || IsNotFound(err) {
		return err
	}
	return op()
}
