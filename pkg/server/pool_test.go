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
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zimg.org/pkg/storage"
	"zimg.org/pkg/storage/memory"
)

type closeCounting struct {
	*memory.Storage
	mu     *sync.Mutex
	closed *int
}

func (c closeCounting) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	*c.closed++
	return nil
}

func TestPoolEachWorkerOwnsItsHandle(t *testing.T) {
	var mu sync.Mutex
	var made []*memory.Storage
	p, err := NewPool(4, func() (storage.Backend, error) {
		b := memory.New()
		mu.Lock()
		made = append(made, b)
		mu.Unlock()
		return b, nil
	})
	require.NoError(t, err)
	defer p.Close()

	require.Len(t, made, 4, "one handle per worker")

	// Saturate the pool so every worker runs at least one job; each
	// job must see one of the factory-made handles.
	seen := make(map[storage.Backend]bool)
	var wg sync.WaitGroup
	var seenMu sync.Mutex
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Do(func(b storage.Backend) {
				seenMu.Lock()
				seen[b] = true
				seenMu.Unlock()
			})
		}()
	}
	wg.Wait()
	for b := range seen {
		found := false
		for _, m := range made {
			if b == storage.Backend(m) {
				found = true
			}
		}
		assert.True(t, found, "job ran on an unknown handle")
	}
}

func TestPoolDoBlocksUntilDone(t *testing.T) {
	p, err := NewPool(1, func() (storage.Backend, error) { return memory.New(), nil })
	require.NoError(t, err)
	defer p.Close()

	ran := false
	p.Do(func(storage.Backend) { ran = true })
	assert.True(t, ran, "Do returned before the job ran")
}

func TestPoolFactoryFailure(t *testing.T) {
	var mu sync.Mutex
	closed := 0
	calls := 0
	_, err := NewPool(3, func() (storage.Backend, error) {
		calls++
		if calls == 3 {
			return nil, errors.New("connect refused")
		}
		return closeCounting{Storage: memory.New(), mu: &mu, closed: &closed}, nil
	})
	require.Error(t, err)
	assert.Equal(t, 2, closed, "handles made before the failure are closed")
}

func TestPoolCloseIsIdempotent(t *testing.T) {
	var mu sync.Mutex
	closed := 0
	p, err := NewPool(2, func() (storage.Backend, error) {
		return closeCounting{Storage: memory.New(), mu: &mu, closed: &closed}, nil
	})
	require.NoError(t, err)
	p.Close()
	p.Close()
	assert.Equal(t, 2, closed)
}
