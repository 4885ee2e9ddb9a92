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

// Package memcached stores blobs in a memcached-protocol key/value
// server (memcached, memcachedb, beansdb).
//
// The original's bytes live under its bare fingerprint, variants under
// "<fingerprint>:<tag>". A catalog key "<fingerprint>:list" accumulates
// the tags rendered so far so DeleteAll can remove every derived key
// without a scan.
package memcached // import "zimg.org/pkg/storage/memcached"

import (
	"strings"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/pkg/errors"

	"zimg.org/pkg/storage"
)

// Storage implements storage.Backend on a memcached server. Each
// worker owns its own Storage and therefore its own connection.
type Storage struct {
	mc *memcache.Client
}

var _ storage.Backend = (*Storage)(nil)

// New returns a backend talking to addr ("host:port").
func New(addr string) *Storage {
	return &Storage{mc: memcache.New(addr)}
}

const listSuffix = ":list"

func catalogKey(fp string) string { return fp + listSuffix }

// splitVariantKey returns the fingerprint and tag of a variant key, or
// ok=false for a bare original key.
func splitVariantKey(key string) (fp, tag string, ok bool) {
	fp, tag, ok = strings.Cut(key, ":")
	return fp, tag, ok && tag != ""
}

func (s *Storage) Put(key string, value []byte) error {
	if err := s.mc.Set(&memcache.Item{Key: key, Value: value}); err != nil {
		return errors.Wrapf(err, "memcached: set %q", key)
	}
	if fp, tag, ok := splitVariantKey(key); ok {
		if err := s.addToCatalog(fp, tag); err != nil {
			return err
		}
	}
	return nil
}

// addToCatalog records tag in fp's variant list. Single-writer per
// key in steady state; a lost update only costs an orphan variant that
// DeleteAll will miss and the cache may rebuild.
func (s *Storage) addToCatalog(fp, tag string) error {
	ck := catalogKey(fp)
	var tags []string
	it, err := s.mc.Get(ck)
	switch {
	case err == nil:
		tags = strings.Split(string(it.Value), ";")
	case errors.Is(err, memcache.ErrCacheMiss):
	default:
		return errors.Wrapf(err, "memcached: get catalog %q", ck)
	}
	for _, t := range tags {
		if t == tag {
			return nil
		}
	}
	tags = append(tags, tag)
	joined := strings.TrimPrefix(strings.Join(tags, ";"), ";")
	if err := s.mc.Set(&memcache.Item{Key: ck, Value: []byte(joined)}); err != nil {
		return errors.Wrapf(err, "memcached: set catalog %q", ck)
	}
	return nil
}

func (s *Storage) Get(key string) ([]byte, error) {
	it, err := s.mc.Get(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "memcached: get %q", key)
	}
	return it.Value, nil
}

func (s *Storage) Exists(key string) (bool, error) {
	_, err := s.Get(key)
	if storage.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Storage) Delete(key string) error {
	err := s.mc.Delete(key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return storage.ErrNotFound
	}
	if err != nil {
		return errors.Wrapf(err, "memcached: delete %q", key)
	}
	return nil
}

// DeleteAll removes fp, its catalog, and every cataloged variant.
func (s *Storage) DeleteAll(fp string) error {
	ok, err := s.Exists(fp)
	if err != nil {
		return err
	}
	if !ok {
		return storage.ErrNotFound
	}

	ck := catalogKey(fp)
	if it, err := s.mc.Get(ck); err == nil {
		for _, tag := range strings.Split(string(it.Value), ";") {
			if tag == "" {
				continue
			}
			if err := s.Delete(fp + ":" + tag); err != nil && !storage.IsNotFound(err) {
				return err
			}
		}
	} else if !errors.Is(err, memcache.ErrCacheMiss) {
		return errors.Wrapf(err, "memcached: get catalog %q", ck)
	}
	if err := s.Delete(ck); err != nil && !storage.IsNotFound(err) {
		return err
	}
	return s.Delete(fp)
}

func (s *Storage) Close() error {
	return s.mc.Close()
}
