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

type histogram struct {
	prometheus.Observer
	enable *atomic.Bool
}

func (h *histogram) Observe(v float64) {
	if h.enable.Load() {
		h.Observer.Observe(v)
	}
}

type labeledHistogram struct {
	*prometheus.HistogramVec
	enable *atomic.Bool
}

func (h *labeledHistogram) WithLabelValues(lvs ...string) Histogram {
	return &histogram{h.HistogramVec.WithLabelValues(lvs...), h.enable}
}

func (h *labeledHistogram) With(labels Labels) Histogram {
	return &histogram{h.HistogramVec.With(prometheus.Labels(labels)), h.enable}
}
