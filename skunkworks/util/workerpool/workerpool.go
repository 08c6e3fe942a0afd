// Copyright (C) 2020 Finogeeks Co., Ltd
//
// This program is free software: you can redistribute it and/or  modify
// it under the terms of the GNU Affero General Public License, version 3,
// as published by the Free Software Foundation.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.


package workerpool

import (
	"sync"

	"github.com/finogeeks/fedapi/skunkworks/log"
)

const (
	defaultMaxQueue = 200
)

// Job represents the job to be run
type Job struct {
	payload interface{}
}

//worker handler
type Handler func(p interface{}) error

// WorkerPool runs a handler over fed payloads on a fixed number of workers.
type WorkerPool struct {
	maxWorkers int
	maxQueue   int
	handler    Handler
	//a queue to store all request message payloads to be processed
	jobQueue chan Job
	//remember all workers initialized
	workers []worker
	wg      sync.WaitGroup
	stop    sync.Once
}

// Feed queues payload, blocking while the queue is full. It must not be
// called after Stop.
func (wp *WorkerPool) Feed(payload interface{}) {
	wp.jobQueue <- Job{payload: payload}
}

// NewWorkerPool return a worker pool with maxWorkers workers and maxQueue size job queue.
// If maxQueue == 0, it will set to default value 200.
func NewWorkerPool(maxWorkers, maxQueue int) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	if maxQueue == 0 {
		maxQueue = defaultMaxQueue
	}
	return &WorkerPool{
		maxWorkers: maxWorkers,
		maxQueue:   maxQueue,
	}
}

func (wp *WorkerPool) SetHandler(f Handler) *WorkerPool {
	wp.handler = f
	return wp
}

// Run starts the workers.
func (wp *WorkerPool) Run() *WorkerPool {
	wp.jobQueue = make(chan Job, wp.maxQueue)
	wp.workers = make([]worker, wp.maxWorkers)

	// starting n number of workers
	for i := 0; i < wp.maxWorkers; i++ {
		wp.workers[i] = worker{workerPool: wp, id: i}
		wp.wg.Add(1)
		wp.workers[i].start()
	}
	return wp
}

// Stop closes the queue and waits until every queued job has been handled.
func (wp *WorkerPool) Stop() {
	wp.stop.Do(func() {
		close(wp.jobQueue)
	})
	wp.wg.Wait()
}

func (wp *WorkerPool) handle(w worker, job Job) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("worker %d panic handling job: %v", w.id, r)
		}
	}()
	if err := wp.handler(job.payload); err != nil {
		log.Warnf("worker %d error handling job: %v", w.id, err)
	}
}
