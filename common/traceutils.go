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

package common

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/finogeeks/fedapi/core"
	mon "github.com/finogeeks/fedapi/skunkworks/monitor/go-client/monitor"
	"github.com/opentracing/opentracing-go"
)

var (
	// cs2sr is the latency of transporting
	cs2sr = mon.GetInstance().NewLabeledHistogram("fedapi_cs_sr_latency_ms",
		[]string{"protocol", "endpoint"}, nil)
)

const DeleteMark = "__D__"

func markBaggageItemDeleted(span opentracing.Span, items []string) {
	for _, item := range items {
		span.SetBaggageItem(item, DeleteMark)
	}
}

func removeBaggageItemDeleted(carrier opentracing.HTTPHeadersCarrier) {
	for k, v := range carrier {
		if len(v) == 1 && v[0] == DeleteMark {
			delete(carrier, k)
		}
	}
}

// InjectSpanToHeaders renders the span context as message headers, sorted
// by name. Only the "cs" and "sob" baggage items travel.
func InjectSpanToHeaders(span opentracing.Span) core.Headers {
	now := fmt.Sprintf("%d", time.Now().UnixNano()/1e6)
	span.SetBaggageItem("cs", now)
	if len(span.BaggageItem("sob")) == 0 {
		span.SetBaggageItem("sob", now)
	}
	markBaggageItemDeleted(span, []string{"cr", "sr", "ss", "som"})

	carrier := opentracing.HTTPHeadersCarrier(make(map[string][]string))
	if err := span.Tracer().Inject(span.Context(), opentracing.HTTPHeaders, carrier); err != nil {
		return nil
	}
	removeBaggageItemDeleted(carrier)

	names := make([]string, 0, len(carrier))
	for k := range carrier {
		names = append(names, k)
	}
	sort.Strings(names)
	var res core.Headers
	for _, k := range names {
		for _, v := range carrier[k] {
			res = append(res, core.Header{Name: k, Value: v})
		}
	}
	return res
}

// StartSpanFromHeaders starts a server side span that follows the span
// carried by headers, if any.
func StartSpanFromHeaders(operationName string, headers core.Headers) opentracing.Span {
	now := time.Now().UnixNano() / 1e6
	carrier := opentracing.HTTPHeadersCarrier(make(map[string][]string))
	for _, h := range headers {
		carrier[h.Name] = append(carrier[h.Name], h.Value)
	}

	tracer := opentracing.GlobalTracer()
	var span opentracing.Span
	if clientContext, err := tracer.Extract(opentracing.HTTPHeaders, carrier); err == nil {
		span = tracer.StartSpan(operationName, opentracing.FollowsFrom(clientContext))
	} else {
		span = tracer.StartSpan(operationName)
	}
	span.SetBaggageItem("som", strconv.FormatInt(now, 10))

	if csStr := span.BaggageItem("cs"); len(csStr) != 0 {
		if cs, err := strconv.ParseInt(csStr, 10, 64); err == nil {
			cs2sr.WithLabelValues("http", operationName).Observe(float64(now - cs))
		}
	}
	return span
}

// store a span into context.Context, so it can be passed to other place
func ContextWithSpan(ctx context.Context, span opentracing.Span) context.Context {
	return opentracing.ContextWithSpan(ctx, span)
}

// restore a span from context.Context, so it can be the parent of another child or follow span
func SpanFromContext(ctx context.Context) opentracing.Span {
	return opentracing.SpanFromContext(ctx)
}

// create a follow span from the span stored in context.Context
func StartSpanFromContext(ctx context.Context, operationName string,
	opts ...opentracing.StartSpanOption) (opentracing.Span, context.Context) {
	if parentSpan := SpanFromContext(ctx); parentSpan != nil {
		opts = append(opts, opentracing.FollowsFrom(parentSpan.Context()))
	}
	span := opentracing.StartSpan(operationName, opts...)
	return span, ContextWithSpan(ctx, span)
}
