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

package util

import (
	"fmt"
	"net/http"
	"runtime/debug"

	log "github.com/finogeeks/fedapi/skunkworks/log"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONResponse represents an HTTP response which contains a JSON body.
type JSONResponse struct {
	// HTTP status code.
	Code int
	// JSON represents the JSON that should be serialized and sent to the client
	JSON interface{}
	// Headers represent any headers that should be sent to the client
	Headers map[string]string
}

// Is2xx returns true if the Code is between 200 and 299.
func (r JSONResponse) Is2xx() bool {
	return r.Code/100 == 2
}

// MessageResponse returns a JSONResponse with a 'message' key containing the given text.
func MessageResponse(code int, msg string) JSONResponse {
	return JSONResponse{
		Code: code,
		JSON: struct {
			Message string `json:"message"`
		}{msg},
	}
}

// ErrorResponse returns an HTTP 500 JSONResponse with the stringified form of the given error.
func ErrorResponse(err error) JSONResponse {
	return MessageResponse(500, err.Error())
}

// Protect panicking HTTP requests from taking down the entire process, and log them using
// the correct logger, returning a 500 with a JSON response rather than abruptly closing the
// connection.
func Protect(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if r := recover(); r != nil {
				fields := GetLogFields(req.Context())
				fields = append(fields, log.KeysAndValues{"panic", r}...)
				log.Errorw(fmt.Sprintf("Request panicked!\n%s", debug.Stack()), fields)
				Respond(w, req, MessageResponse(500, "Internal Server Error"))
			}
		}()
		handler(w, req)
	}
}

// Respond writes res as JSON. A body that is already []byte is written as is.
func Respond(w http.ResponseWriter, req *http.Request, res JSONResponse) {
	fields := GetLogFields(req.Context())

	for h, val := range res.Headers {
		w.Header().Set(h, val)
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}

	var resBytes []byte
	if v, ok := res.JSON.([]byte); ok {
		resBytes = v
	} else {
		var err error
		resBytes, err = json.Marshal(res.JSON)
		if err != nil {
			log.Errorw("Failed to marshal JSONResponse", log.KeysAndValues{"error", err})
			// this should never fail to be marshalled so drop err to the floor
			res = MessageResponse(500, "Internal Server Error")
			resBytes, _ = json.Marshal(res.JSON)
		}
	}

	w.WriteHeader(res.Code)
	fields = append(fields, log.KeysAndValues{"code", res.Code}...)
	log.Debugw(fmt.Sprintf("Responding (%d bytes)", len(resBytes)), fields)
	w.Write(resBytes) // nolint: errcheck
}
