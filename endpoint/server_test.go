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

package endpoint_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/finogeeks/fedapi/core"
	"github.com/finogeeks/fedapi/endpoint"
	"github.com/finogeeks/fedapi/federation/endpoints"
	"github.com/finogeeks/fedapi/model/fedtypes"
	"github.com/finogeeks/fedapi/model/publicroomstypes"
	util "github.com/finogeeks/fedapi/skunkworks/gomatrixutil"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// httpTransport sends messages to a test server with net/http.
func httpTransport(base string) core.ITransport {
	return core.TransportFunc(func(ctx context.Context, msg *core.Message) (*core.Response, error) {
		var body io.Reader
		if msg.Body != nil {
			body = bytes.NewReader(msg.Body)
		}
		req, err := http.NewRequestWithContext(ctx, msg.Method, base+msg.URI(), body)
		if err != nil {
			return nil, err
		}
		for _, h := range msg.Headers {
			req.Header.Add(h.Name, h.Value)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		return &core.Response{Status: resp.StatusCode, Headers: core.HeadersFromHTTP(resp.Header), Body: data}, nil
	})
}

func newTestServer(t *testing.T) *httptest.Server {
	router := mux.NewRouter().UseEncodedPath()

	endpoint.Handle(router, endpoints.GetPublicRooms, nil,
		func() interface{} { return &publicroomstypes.GetPublicRoomsRequest{} },
		func(ctx context.Context, msg *core.Message, req interface{}) util.JSONResponse {
			r := req.(*publicroomstypes.GetPublicRoomsRequest)
			if r.ThirdPartyInstanceID != nil {
				return util.JSONResponse{Code: http.StatusTooManyRequests, JSON: map[string]interface{}{
					"errcode": "M_LIMIT_EXCEEDED", "error": "too many requests", "retry_after_ms": 500,
				}}
			}
			res := &publicroomstypes.PublicRoomsResponse{}
			if r.Limit != nil && *r.Limit > 0 {
				res.Chunk = []publicroomstypes.PublicRoom{{
					RoomID:           "!lobby:server.example",
					NumJoinedMembers: *r.Limit,
					WorldReadable:    true,
				}}
				next := "next"
				res.NextBatch = &next
			}
			return util.JSONResponse{Code: http.StatusOK, JSON: res}
		})

	endpoint.Handle(router, endpoints.MakeJoin, nil,
		func() interface{} { return &fedtypes.MakeJoinRequest{} },
		func(ctx context.Context, msg *core.Message, req interface{}) util.JSONResponse {
			r := req.(*fedtypes.MakeJoinRequest)
			version := strings.Join(r.Ver, ",")
			return util.JSONResponse{Code: http.StatusOK, JSON: fedtypes.RespMakeJoin{
				RoomVersion: &version,
				Event:       []byte(`{"room_id":"` + r.RoomID + `","sender":"` + r.UserID + `"}`),
			}}
		})

	endpoint.Handle(router, endpoints.QueryDirectory, nil,
		func() interface{} { return &fedtypes.QueryDirectoryRequest{} },
		func(ctx context.Context, msg *core.Message, req interface{}) util.JSONResponse {
			return util.JSONResponse{Code: http.StatusOK, JSON: &fedtypes.RespDirectory{RoomID: "!r:s"}}
		})

	endpoint.Handle(router, endpoints.PostPublicRooms, nil,
		func() interface{} { return &publicroomstypes.PostPublicRoomsRequest{} },
		func(ctx context.Context, msg *core.Message, req interface{}) util.JSONResponse {
			return util.JSONResponse{Code: http.StatusOK, JSON: &publicroomstypes.PublicRoomsResponse{}}
		})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestHandleEndToEnd(t *testing.T) {
	srv := newTestServer(t)
	c := &endpoint.Dispatcher{Transport: httpTransport(srv.URL), Signer: testSigner, Origin: "origin.example"}
	ctx := context.Background()

	var res publicroomstypes.PublicRoomsResponse
	require.NoError(t, c.Call(ctx, "server.example", endpoints.GetPublicRooms,
		&publicroomstypes.GetPublicRoomsRequest{Limit: u64(7)}, &res))
	require.Len(t, res.Chunk, 1)
	assert.Equal(t, uint64(7), res.Chunk[0].NumJoinedMembers)
	assert.Equal(t, "next", *res.NextBatch)

	res = publicroomstypes.PublicRoomsResponse{}
	require.NoError(t, c.Call(ctx, "server.example", endpoints.GetPublicRooms,
		&publicroomstypes.GetPublicRoomsRequest{}, &res))
	assert.NotNil(t, res.Chunk)
	assert.Empty(t, res.Chunk)
	assert.Nil(t, res.NextBatch)

	err := c.Call(ctx, "server.example", endpoints.GetPublicRooms,
		&publicroomstypes.GetPublicRoomsRequest{ThirdPartyInstanceID: str("irc")}, &res)
	var apiErr *endpoint.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 429, apiErr.Status)
	assert.Equal(t, "M_LIMIT_EXCEEDED", apiErr.ErrCode)
	assert.Equal(t, int64(500), apiErr.RetryAfterMS)

	var join fedtypes.RespMakeJoin
	require.NoError(t, c.Call(ctx, "server.example", endpoints.MakeJoin, &fedtypes.MakeJoinRequest{
		RoomID: "!room/with/slashes:server.example",
		UserID: "@alice:origin.example",
		Ver:    []string{"5", "6"},
	}, &join))
	assert.Equal(t, "5,6", *join.RoomVersion)
	assert.JSONEq(t, `{"room_id":"!room/with/slashes:server.example","sender":"@alice:origin.example"}`, string(join.Event))
}

func TestHandleRejectsBadRequests(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		status  int
		errcode string
	}{
		{"missing query", "GET", "/_matrix/federation/v1/query/directory", "", 400, "M_MISSING_PARAM"},
		{"unparseable query", "GET", "/_matrix/federation/v1/publicRooms?limit=many", "", 400, "M_INVALID_PARAM"},
		{"not json", "POST", "/_matrix/federation/v1/publicRooms", "{oops", 400, "M_NOT_JSON"},
		{"not an object", "POST", "/_matrix/federation/v1/publicRooms", "[1]", 400, "M_BAD_JSON"},
		{"wrong body type", "POST", "/_matrix/federation/v1/publicRooms", `{"limit":"ten"}`, 400, "M_BAD_JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, strings.NewReader(tt.body))
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			data, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Contains(t, string(data), `"errcode":"`+tt.errcode+`"`)
		})
	}
}

func TestHandleRejectsOversizeBody(t *testing.T) {
	srv := newTestServer(t)

	body := strings.Repeat(" ", endpoint.MaxRequestBody-2) + "{}"
	req := httptest.NewRequest("POST", "/_matrix/federation/v1/publicRooms", strings.NewReader(body))
	msg, err := endpoint.MessageFromHTTP(req)
	require.NoError(t, err)
	assert.Len(t, msg.Body, endpoint.MaxRequestBody)

	rec := httptest.NewRecorder()
	srv.Config.Handler.ServeHTTP(rec, httptest.NewRequest("POST", "/_matrix/federation/v1/publicRooms", strings.NewReader(body)))
	assert.Equal(t, http.StatusOK, rec.Code)

	body += " "
	_, err = endpoint.MessageFromHTTP(httptest.NewRequest("POST", "/_matrix/federation/v1/publicRooms", strings.NewReader(body)))
	assert.True(t, errors.Is(err, endpoint.ErrRequestTooLarge))

	rec = httptest.NewRecorder()
	srv.Config.Handler.ServeHTTP(rec, httptest.NewRequest("POST", "/_matrix/federation/v1/publicRooms", strings.NewReader(body)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), `"errcode":"M_TOO_LARGE"`)
}

func TestHandleRequiredCollectionsRenderEmpty(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/_matrix/federation/v1/query/directory?room_alias=%23a:s")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"room_id":"!r:s","servers":[]}`, string(data))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestEncodeResponse(t *testing.T) {
	next := "n"
	resp, err := endpoint.EncodeResponse(endpoints.GetPublicRooms, &publicroomstypes.PublicRoomsResponse{NextBatch: &next}, nil)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, `{"chunk":[],"next_batch":"n"}`, string(resp.Body))

	var back publicroomstypes.PublicRoomsResponse
	require.NoError(t, endpoint.Decode(endpoints.GetPublicRooms, resp, nil, &back))
	assert.Equal(t, "n", *back.NextBatch)

	resp, err = endpoint.EncodeResponse(endpoint.MustNew(endpoint.Metadata{Name: "t", Method: "GET", Path: "/a"}), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(resp.Body))
}
