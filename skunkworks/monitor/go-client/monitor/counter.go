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

package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
)

type counter struct {
	prometheus.Counter
	enable *atomic.Bool
}

func (c *counter) Inc() {
	if c.enable.Load() {
		c.Counter.Inc()
	}
}

func (c *counter) Add(v float64) {
	if c.enable.Load() {
		c.Counter.Add(v)
	}
}

type labeledCounter struct {
	*prometheus.CounterVec
	enable *atomic.Bool
}

func (c *labeledCounter) WithLabelValues(lvs ...string) Counter {
	return &counter{c.CounterVec.WithLabelValues(lvs...), c.enable}
}

func (c *labeledCounter) With(labels Labels) Counter {
	return &counter{c.CounterVec.With(prometheus.Labels(labels)), c.enable}
}
