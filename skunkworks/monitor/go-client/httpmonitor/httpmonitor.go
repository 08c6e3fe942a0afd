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

package httpmonitor

import (
	"net/http"
	"strconv"
	"time"

	mon "github.com/finogeeks/fedapi/skunkworks/monitor/go-client/monitor"
)

type responseWrapper struct {
	http.ResponseWriter
	status int
}

func (respW *responseWrapper) WriteHeader(code int) {
	respW.status = code
	respW.ResponseWriter.WriteHeader(code)
}

var (
	histogram = mon.GetInstance().NewLabeledHistogram(
		"fedapi_http_server_duration_seconds",
		[]string{"method", "endpoint", "code"},
		[]float64{0.05, 0.1, 0.5, 1, 2, 5},
	)
	counter = mon.GetInstance().NewLabeledCounter(
		"fedapi_http_server_requests_total",
		[]string{"method", "endpoint", "code"},
	)
)

// Wrap records latency and status of f. The endpoint label is the
// descriptor name rather than the request path to keep cardinality bounded.
func Wrap(endpoint string, f http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		respW := responseWrapper{w, http.StatusOK}
		f(&respW, req)
		duration := float64(time.Since(start)) / float64(time.Second)

		code := strconv.Itoa(respW.status)
		histogram.WithLabelValues(req.Method, endpoint, code).Observe(duration)
		counter.WithLabelValues(req.Method, endpoint, code).Inc()
	}
}
