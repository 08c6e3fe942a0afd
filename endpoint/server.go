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
	"io"
	"net/http"

	"github.com/finogeeks/fedapi/common"
	"github.com/finogeeks/fedapi/common/jsonerror"
	"github.com/finogeeks/fedapi/core"
	util "github.com/finogeeks/fedapi/skunkworks/gomatrixutil"
	"github.com/finogeeks/fedapi/skunkworks/log"
	"github.com/finogeeks/fedapi/skunkworks/monitor/go-client/httpmonitor"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// MaxRequestBody bounds how much of a request body Handle reads.
const MaxRequestBody = 1 << 20

// ErrRequestTooLarge is returned for bodies over MaxRequestBody.
var ErrRequestTooLarge = errors.New("request body too large")

// Processor serves one decoded request. A success response carrying a
// struct is shaped by the descriptor, anything else is written as is.
type Processor func(ctx context.Context, msg *core.Message, req interface{}) util.JSONResponse

// Handle registers the server side of d on router. newRequest returns a
// fresh pointer to the request struct for every call. The router should
// use encoded paths so escaped slashes in path values survive matching.
func Handle(router *mux.Router, d *Descriptor, codec core.ICodec, newRequest func() interface{}, fn Processor) *mux.Route {
	codec = codecOrDefault(codec)
	h := func(w http.ResponseWriter, r *http.Request) {
		msg, err := MessageFromHTTP(r)
		if errors.Is(err, ErrRequestTooLarge) {
			util.Respond(w, r, util.JSONResponse{Code: http.StatusRequestEntityTooLarge, JSON: jsonerror.TooLarge(err.Error())})
			return
		}
		if err != nil {
			util.Respond(w, r, util.JSONResponse{Code: http.StatusBadRequest, JSON: jsonerror.BadJSON(err.Error())})
			return
		}

		span := common.StartSpanFromHeaders("fedapi.serve."+d.Name(), msg.Headers)
		defer span.Finish()
		ctx := common.ContextWithSpan(r.Context(), span)
		ctx = util.ContextWithRequestID(ctx, uuid.New().String())
		ctx = util.ContextWithLogFields(ctx, log.KeysAndValues{
			"endpoint", d.Name(), "request_id", util.GetRequestID(ctx),
		})
		r = r.WithContext(ctx)

		req := newRequest()
		if err := DecodeRequest(d, msg, nil, codec, req); err != nil {
			var reqErr *RequestError
			if errors.As(err, &reqErr) {
				util.Respond(w, r, reqErr.Response())
				return
			}
			log.Errorw("cannot decode request", append(util.GetLogFields(ctx), "error", err.Error()))
			util.Respond(w, r, util.JSONResponse{Code: http.StatusInternalServerError, JSON: jsonerror.Unknown("Internal Server Error")})
			return
		}

		res := fn(ctx, msg, req)
		if d.IsSuccess(res.Code) {
			if _, raw := res.JSON.([]byte); !raw {
				encoded, err := EncodeResponse(d, res.JSON, codec)
				if err != nil {
					log.Errorw("cannot encode response", append(util.GetLogFields(ctx), "error", err.Error()))
					util.Respond(w, r, util.JSONResponse{Code: http.StatusInternalServerError, JSON: jsonerror.Unknown("Internal Server Error")})
					return
				}
				if res.Headers == nil {
					res.Headers = make(map[string]string, len(encoded.Headers))
				}
				for _, hdr := range encoded.Headers {
					if _, ok := res.Headers[hdr.Name]; !ok {
						res.Headers[hdr.Name] = hdr.Value
					}
				}
				res.JSON = encoded.Body
			}
		}
		util.Respond(w, r, res)
	}
	return router.HandleFunc(d.Path(), httpmonitor.Wrap(d.Name(), util.Protect(h))).Methods(d.Method())
}

// MessageFromHTTP converts a received request. The path stays escaped and
// the query keeps its order.
func MessageFromHTTP(r *http.Request) (*core.Message, error) {
	query, err := core.ParseQuery(r.URL.RawQuery)
	if err != nil {
		return nil, err
	}
	msg := &core.Message{
		Method:      r.Method,
		Path:        r.URL.EscapedPath(),
		Query:       query,
		Headers:     core.HeadersFromHTTP(r.Header),
		Destination: r.Host,
	}
	if r.Body != nil {
		body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBody+1))
		if err != nil {
			return nil, err
		}
		if len(body) > MaxRequestBody {
			return nil, ErrRequestTooLarge
		}
		if len(body) > 0 {
			msg.Body = body
		}
	}
	return msg, nil
}
