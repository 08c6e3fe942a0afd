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

import "net/http"

type Labels map[string]string

type Monitor interface {
	// NewLabeledCounter creates a new LabeledCounter based on the provided metric name and
	// partitioned by the given label names. At least one label name must be
	// provided.
	NewLabeledCounter(metric string, labelNames []string) LabeledCounter

	// NewLabeledHistogram creates a new LabeledHistogram based on the provided metric name and
	// partitioned by the given label names. Buckets default to
	// {.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10} if nil is passed.
	NewLabeledHistogram(metric string, labelNames []string, buckets []float64) LabeledHistogram

	// Enable switches recording on. Metrics created before the call start
	// recording as well.
	Enable()
	Enabled() bool

	// Handler serves the registry in the Prometheus text format.
	Handler() http.Handler
}

type Counter interface {
	// Inc increments the counter by 1. Use Add to increment it by arbitrary
	// non-negative values.
	Inc()
	// Add adds the given value to the counter. It panics if the value is <
	// 0.
	Add(float64)
}

type LabeledCounter interface {
	// WithLabelValues allows shortcuts like
	// counter.WithLabelValues("404", "GET").Add(42)
	WithLabelValues(lvs ...string) Counter
	// With allows shortcuts like
	// counter.With(Labels{"code": "404", "method": "GET"}).Add(42)
	With(labels Labels) Counter
}

type Histogram interface {
	// Observe adds a single observation to the histogram.
	Observe(float64)
}

type LabeledHistogram interface {
	// WithLabelValues allows shortcuts like
	// histogram.WithLabelValues("404", "GET").Observe(42.21)
	WithLabelValues(lvs ...string) Histogram
	// With allows shortcuts like
	// histogram.With(Labels{"code": "404", "method": "GET"}).Observe(42.21)
	With(labels Labels) Histogram
}
