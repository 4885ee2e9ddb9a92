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

	"github.com/sirupsen/logrus"

	"zimg.org/pkg/storage"
)

// Pool runs storage work on a fixed set of workers, each owning a
// private backend handle created at pool start and closed at
// shutdown. Handles never move between workers, so backends need no
// cross-worker synchronization.
type Pool struct {
	jobs chan poolJob

	mu       sync.Mutex
	closed   bool
	wg       sync.WaitGroup
	backends []storage.Backend
}

type poolJob struct {
	fn   func(storage.Backend)
	done chan struct{}
}

// NewPool starts n workers, building each worker's backend with
// factory. On factory failure the already-created handles are closed
// and the error is returned.
func NewPool(n int, factory func() (storage.Backend, error)) (*Pool, error) {
	if n < 1 {
		n = 1
	}
	p := &Pool{jobs: make(chan poolJob)}
	for i := 0; i < n; i++ {
		b, err := factory()
		if err != nil {
			p.Close()
			return nil, err
		}
		p.backends = append(p.backends, b)
		p.wg.Add(1)
		go p.work(b)
	}
	return p, nil
}

func (p *Pool) work(b storage.Backend) {
	defer p.wg.Done()
	for job := range p.jobs {
		job.fn(b)
		close(job.done)
	}
}

// Do runs fn on some worker's backend and returns when it completes.
// A request canceled by the client still runs to completion here; the
// cache write matters even when the response write no longer does.
func (p *Pool) Do(fn func(storage.Backend)) {
	job := poolJob{fn: fn, done: make(chan struct{})}
	p.jobs <- job
	<-job.done
}

// Close stops the workers and closes their backend handles.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	close(p.jobs)
	p.wg.Wait()
	for _, b := range p.backends {
		if err := b.Close(); err != nil {
			logrus.WithError(err).Warn("server: closing backend handle")
		}
	}
}
