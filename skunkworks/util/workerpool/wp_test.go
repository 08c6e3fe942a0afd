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
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/atomic"
)

func TestWorkerPoolHandlesEveryJob(t *testing.T) {
	var mu sync.Mutex
	seen := map[int]bool{}
	var running, peak atomic.Int32

	wp := NewWorkerPool(3, 0).SetHandler(func(p interface{}) error {
		n := running.Inc()
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		running.Dec()

		mu.Lock()
		seen[p.(int)] = true
		mu.Unlock()
		if p.(int)%7 == 0 {
			return errors.New("odd job")
		}
		if p.(int) == 13 {
			panic("unlucky")
		}
		return nil
	}).Run()

	for i := 0; i < 50; i++ {
		wp.Feed(i)
	}
	wp.Stop()
	wp.Stop()

	assert.Len(t, seen, 50)
	assert.True(t, peak.Load() <= 3)
}

func TestNewWorkerPoolDefaults(t *testing.T) {
	wp := NewWorkerPool(0, 0)
	assert.Equal(t, 1, wp.maxWorkers)
	assert.Equal(t, defaultMaxQueue, wp.maxQueue)
}
