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
	"net/http"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/atomic"
)

type promMonitor struct {
	enable   *atomic.Bool
	registry *prometheus.Registry
}

// Singleton
var once sync.Once
var instance *promMonitor

func GetInstance() Monitor {
	once.Do(func() {
		instance = newPrometheus()
	})
	return instance
}

// newPrometheus starts disabled unless ENABLE_MONITOR=true.
func newPrometheus() *promMonitor {
	return &promMonitor{
		enable:   atomic.NewBool(os.Getenv("ENABLE_MONITOR") == "true"),
		registry: prometheus.NewRegistry(),
	}
}

func (prom *promMonitor) Enable() {
	prom.enable.Store(true)
}

func (prom *promMonitor) Enabled() bool {
	return prom.enable.Load()
}

func (prom *promMonitor) Handler() http.Handler {
	return promhttp.HandlerFor(prom.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry, used by tests.
func (prom *promMonitor) Gatherer() prometheus.Gatherer {
	return prom.registry
}

func (prom *promMonitor) NewLabeledCounter(metric string, labelNames []string) LabeledCounter {
	cnt := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metric,
			Help: metric,
		},
		labelNames,
	)
	prom.registry.MustRegister(cnt)
	return &labeledCounter{cnt, prom.enable}
}

func (prom *promMonitor) NewLabeledHistogram(metric string, labelNames []string, buckets []float64) LabeledHistogram {
	his := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    metric,
			Help:    metric,
			Buckets: buckets,
		},
		labelNames,
	)
	prom.registry.MustRegister(his)
	return &labeledHistogram{his, prom.enable}
}
