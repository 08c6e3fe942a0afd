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

package endpoint

import (
	"context"
	"errors"
	"time"

	"github.com/finogeeks/fedapi/common"
	"github.com/finogeeks/fedapi/core"
	util "github.com/finogeeks/fedapi/skunkworks/gomatrixutil"
	"github.com/finogeeks/fedapi/skunkworks/log"
	mon "github.com/finogeeks/fedapi/skunkworks/monitor/go-client/monitor"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go/ext"
)

var (
	callCounter = mon.GetInstance().NewLabeledCounter("fedapi_call_total",
		[]string{"endpoint", "stage"})
	callDuration = mon.GetInstance().NewLabeledHistogram("fedapi_call_duration_seconds",
		[]string{"endpoint", "stage"}, nil)
)

var errNoResponse = errors.New("transport returned no response")

// Dispatcher runs calls for any descriptor: validate, encode, sign when
// the endpoint requires it, send and decode. It keeps no state between
// calls and never retries.
type Dispatcher struct {
	Transport core.ITransport
	// Signer is consulted only for endpoints that require authentication.
	Signer core.ISigner
	// Codec defaults to JSON.
	Codec core.ICodec
	// Validator checks `validate` struct tags on requests when set.
	Validator *validator.Validate
	// Origin is this server's name, copied into every message.
	Origin string
}

// Call sends req to destination and decodes the success body into res.
// Errors are *EncodeError, *TransportError, *DecodeError or *APIError.
func (c *Dispatcher) Call(ctx context.Context, destination string, d *Descriptor, req, res interface{}) (err error) {
	start := time.Now()
	requestID := util.GetRequestID(ctx)
	if requestID == "" {
		requestID = uuid.New().String()
		ctx = util.ContextWithRequestID(ctx, requestID)
	}
	ctx = util.ContextWithLogFields(ctx, log.KeysAndValues{
		"endpoint", d.Name(), "destination", destination, "request_id", requestID,
	})

	span, ctx := common.StartSpanFromContext(ctx, "fedapi."+d.Name())
	ext.SpanKindRPCClient.Set(span)
	ext.HTTPMethod.Set(span, d.Method())
	ext.PeerHostname.Set(span, destination)
	defer func() {
		stage := StageOf(err)
		callCounter.WithLabelValues(d.Name(), string(stage)).Inc()
		callDuration.WithLabelValues(d.Name(), string(stage)).Observe(time.Since(start).Seconds())
		if err != nil {
			ext.Error.Set(span, true)
			span.SetTag("fedapi.stage", string(stage))
			fields := append(util.GetLogFields(ctx), "stage", string(stage), "error", err.Error())
			if stage == StageRemote {
				log.Warnw("federation call rejected", fields)
			} else {
				log.Errorw("federation call failed", fields)
			}
		} else {
			log.Debugw("federation call done", append(util.GetLogFields(ctx), "spend", time.Since(start).String()))
		}
		span.Finish()
	}()

	if c.Validator != nil {
		if _, ok := structValue(req); ok {
			if verr := c.Validator.StructCtx(ctx, req); verr != nil {
				return d.encodeErr("", ErrInvalidRequest, verr)
			}
		}
	}

	codec := codecOrDefault(c.Codec)
	msg, err := Encode(d, req, codec)
	if err != nil {
		return err
	}
	msg.Origin = c.Origin
	msg.Destination = destination
	msg.Headers = append(msg.Headers, common.InjectSpanToHeaders(span)...)

	if d.RequiresAuth() {
		if c.Signer == nil {
			return d.encodeErr("", ErrNoSigner, nil)
		}
		signed, serr := c.Signer.Sign(ctx, msg)
		if serr != nil {
			return d.encodeErr("", ErrSigning, serr)
		}
		msg = signed
	}

	if c.Transport == nil {
		return &TransportError{Endpoint: d.Name(), Cause: errors.New("no transport configured")}
	}
	resp, terr := c.Transport.Send(ctx, msg)
	if terr != nil {
		return &TransportError{Endpoint: d.Name(), Cause: terr}
	}
	if resp == nil {
		return &TransportError{Endpoint: d.Name(), Cause: errNoResponse}
	}
	ext.HTTPStatusCode.Set(span, uint16(resp.Status))

	return Decode(d, resp, codec, res)
}
