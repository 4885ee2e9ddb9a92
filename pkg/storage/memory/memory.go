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

// Package memory is an in-memory storage.Backend used by tests. It
// also counts operations so tests can assert cache behavior.
package memory // import "zimg.org/pkg/storage/memory"

import (
	"strings"
	"sync"
	"sync/atomic"

	"zimg.org/pkg/storage"
)

// Storage is a map-backed Backend. Unlike the real backends it is
// safe for use from many goroutines, since tests share one instance
// across simulated workers.
type Storage struct {
	mu sync.RWMutex
	m  map[string][]byte

	puts int64 // atomic
	gets int64 // atomic
}

var _ storage.Backend = (*Storage)(nil)

func New() *Storage {
	return &Storage{m: make(map[string][]byte)}
}

func (s *Storage) Put(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	atomic.AddInt64(&s.puts, 1)
	s.m[key] = append([]byte(nil), value...)
	return nil
}

func (s *Storage) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	atomic.AddInt64(&s.gets, 1)
	v, ok := s.m[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *Storage) Exists(key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.m[key]
	return ok, nil
}

func (s *Storage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[key]; !ok {
		return storage.ErrNotFound
	}
	delete(s.m, key)
	return nil
}

func (s *Storage) DeleteAll(fp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[fp]; !ok {
		return storage.ErrNotFound
	}
	delete(s.m, fp)
	for k := range s.m {
		if strings.HasPrefix(k, fp+":") {
			delete(s.m, k)
		}
	}
	return nil
}

func (s *Storage) Close() error { return nil }

// Len reports how many keys are stored.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

// PutCount and GetCount report operation totals for test assertions.
func (s *Storage) PutCount() int64 { return atomic.LoadInt64(&s.puts) }
func (s *Storage) GetCount() int64 { return atomic.LoadInt64(&s.gets) }
