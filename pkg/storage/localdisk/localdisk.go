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

// Package localdisk stores blobs in a sharded directory tree under the
// configured image root.
//
// The leaf directory of fingerprint F is
// <root>/<int(F[0:3],16)/4>/<int(F[3:6],16)/4>/<F>/; it holds the file
// "origin" plus one file per rendered variant, named by the canonical
// parameter tag. Writes land in a temp file in the leaf directory and
// are renamed into place, so readers never observe a partial blob.
package localdisk // import "zimg.org/pkg/storage/localdisk"

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"zimg.org/pkg/storage"
)

// Storage implements storage.Backend on a local directory tree.
type Storage struct {
	root string
}

var _ storage.Backend = (*Storage)(nil)

// New returns a backend rooted at root, creating it if absent.
func New(root string) (*Storage, error) {
	if err := os.MkdirAll(root, 0777); err != nil {
		return nil, errors.Wrapf(err, "localdisk: create root %q", root)
	}
	fi, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrapf(err, "localdisk: stat root %q", root)
	}
	if !fi.IsDir() {
		return nil, errors.Errorf("localdisk: root %q is not a directory", root)
	}
	return &Storage{root: root}, nil
}

func (ds *Storage) Put(key string, value []byte) error {
	path, err := ds.pathOf(key)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0777); err != nil {
		return errors.Wrapf(err, "localdisk: mkdir %q", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp")
	if err != nil {
		return errors.Wrap(err, "localdisk: create temp")
	}
	success := false
	defer func() {
		if !success {
			logrus.Warnf("localdisk: removing temp file %s", tmp.Name())
			os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "localdisk: write %q", key)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "localdisk: sync %q", key)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "localdisk: close %q", key)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "localdisk: rename into place %q", key)
	}
	success = true
	return nil
}

func (ds *Storage) Get(key string) ([]byte, error) {
	path, err := ds.pathOf(key)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "localdisk: read %q", key)
	}
	return b, nil
}

func (ds *Storage) Exists(key string) (bool, error) {
	path, err := ds.pathOf(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "localdisk: stat %q", key)
	}
	return true, nil
}

func (ds *Storage) Delete(key string) error {
	path, err := ds.pathOf(key)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if os.IsNotExist(err) {
		return storage.ErrNotFound
	}
	if err != nil {
		return errors.Wrapf(err, "localdisk: remove %q", key)
	}
	return nil
}

// DeleteAll removes the whole leaf directory of fp: the original and
// every variant under it.
func (ds *Storage) DeleteAll(fp string) error {
	fp, _, err := splitKey(fp)
	if err != nil {
		return err
	}
	dir := ds.dirOf(fp)
	if _, err := os.Stat(filepath.Join(dir, originName)); os.IsNotExist(err) {
		return storage.ErrNotFound
	}
	if err := os.RemoveAll(dir); err != nil {
		return errors.Wrapf(err, "localdisk: remove %q", dir)
	}
	return nil
}

func (ds *Storage) Close() error { return nil }
