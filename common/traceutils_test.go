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
	"testing"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpanRoundTripThroughHeaders(t *testing.T) {
	tracer := mocktracer.New()
	opentracing.SetGlobalTracer(tracer)
	defer opentracing.SetGlobalTracer(opentracing.NoopTracer{})

	client, ctx := StartSpanFromContext(context.Background(), "client")
	assert.Same(t, client, SpanFromContext(ctx))

	headers := InjectSpanToHeaders(client)
	require.NotEmpty(t, headers)
	for i := 1; i < len(headers); i++ {
		assert.True(t, headers[i-1].Name <= headers[i].Name)
	}
	for _, h := range headers {
		assert.NotEqual(t, DeleteMark, h.Value)
	}

	server := StartSpanFromHeaders("server", headers)
	assert.Equal(t, client.BaggageItem("cs"), server.BaggageItem("cs"))
	assert.NotEmpty(t, server.BaggageItem("som"))
	server.Finish()
	client.Finish()

	spans := tracer.FinishedSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, spans[1].SpanContext.TraceID, spans[0].SpanContext.TraceID)
}

func TestStartSpanFromHeadersWithoutParent(t *testing.T) {
	tracer := mocktracer.New()
	opentracing.SetGlobalTracer(tracer)
	defer opentracing.SetGlobalTracer(opentracing.NoopTracer{})

	span := StartSpanFromHeaders("server", nil)
	span.Finish()
	require.Len(t, tracer.FinishedSpans(), 1)
	assert.Equal(t, 0, tracer.FinishedSpans()[0].ParentID)
}
