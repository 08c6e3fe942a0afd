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
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	log "github.com/finogeeks/fedapi/skunkworks/log"
	"github.com/stretchr/testify/assert"
)

func TestContextFields(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", GetRequestID(ctx))
	assert.Equal(t, log.KeysAndValues{"context", "missing"}, GetLogFields(ctx))

	ctx = ContextWithRequestID(ctx, "req-1")
	ctx = ContextWithLogFields(ctx, log.KeysAndValues{"a", 1})
	ctx = ContextWithLogFields(ctx, log.KeysAndValues{"b", 2})
	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, log.KeysAndValues{"a", 1, "b", 2}, GetLogFields(ctx))
}

func TestRespond(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)

	w := httptest.NewRecorder()
	Respond(w, req, JSONResponse{Code: 201, JSON: map[string]int{"n": 1}, Headers: map[string]string{"X-A": "b"}})
	assert.Equal(t, 201, w.Code)
	assert.Equal(t, "b", w.Header().Get("X-A"))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"n":1}`, w.Body.String())

	w = httptest.NewRecorder()
	Respond(w, req, JSONResponse{Code: 200, JSON: []byte(`{"raw":true}`)})
	assert.Equal(t, `{"raw":true}`, w.Body.String())

	w = httptest.NewRecorder()
	Respond(w, req, JSONResponse{Code: 200, JSON: make(chan int)})
	assert.Equal(t, 500, w.Code)
	assert.JSONEq(t, `{"message":"Internal Server Error"}`, w.Body.String())
}

func TestProtect(t *testing.T) {
	h := Protect(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, 500, w.Code)

	assert.True(t, JSONResponse{Code: 204}.Is2xx())
	assert.False(t, ErrorResponse(assert.AnError).Is2xx())
}
