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

// Worker represents the worker that executes the job
type worker struct {
	workerPool *WorkerPool
	id         int
}

// start runs the worker until the pool queue is closed and drained.
func (w worker) start() {
	go func() {
		defer w.workerPool.wg.Done()
		for job := range w.workerPool.jobQueue {
			w.workerPool.handle(w, job)
		}
	}()
}
