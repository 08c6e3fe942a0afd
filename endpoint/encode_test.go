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
	"errors"
	"strings"
	"testing"

	"github.com/finogeeks/fedapi/core"
	"github.com/finogeeks/fedapi/endpoint"
	"github.com/finogeeks/fedapi/federation/endpoints"
	"github.com/finogeeks/fedapi/model/publicroomstypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func u64(v uint64) *uint64 { return &v }
func str(v string) *string { return &v }
func boolp(v bool) *bool   { return &v }

var stateEvent = endpoint.MustNew(endpoint.Metadata{
	Name:   "put_state",
	Method: "PUT",
	Path:   "/rooms/{roomId}/state/{eventType}",
},
	endpoint.Path("roomId"),
	endpoint.Path("eventType"),
	endpoint.Query("ver"),
	endpoint.OptionalQuery("since"),
	endpoint.Header("X-Request-ID"),
	endpoint.OptionalHeader("X-Trace"),
	endpoint.Body("membership"),
	endpoint.OptionalBody("reason"),
	endpoint.Body("m.weird.key"),
	endpoint.Body("servers"),
)

type stateEventRequest struct {
	RoomID     string   `json:"roomId"`
	EventType  string   `json:"eventType"`
	Ver        []string `json:"ver"`
	Since      *string  `json:"since"`
	RequestID  string   `json:"-" header:"X-Request-ID"`
	Trace      *string  `json:"-" header:"X-Trace"`
	Membership string   `json:"membership"`
	Reason     *string  `json:"reason"`
	Weird      int      `json:"m.weird.key"`
	Servers    []string `json:"servers"`
}

func TestEncodePublicRoomsExample(t *testing.T) {
	req := publicroomstypes.GetPublicRoomsRequest{
		Limit:              u64(10),
		IncludeAllNetworks: boolp(false),
	}
	msg, err := endpoint.Encode(endpoints.GetPublicRooms, &req, nil)
	require.NoError(t, err)

	assert.Equal(t, "GET", msg.Method)
	assert.Equal(t, "/_matrix/federation/v1/publicRooms", msg.Path)
	assert.Equal(t, core.Query{{Key: "limit", Value: "10"}, {Key: "include_all_networks", Value: "false"}}, msg.Query)
	assert.Nil(t, msg.Body)
	assert.Empty(t, msg.Headers)
	assert.Equal(t, "/_matrix/federation/v1/publicRooms?limit=10&include_all_networks=false", msg.URI())
}

func TestEncodeIsDeterministic(t *testing.T) {
	req := publicroomstypes.GetPublicRoomsRequest{
		ThirdPartyInstanceID: str("irc"),
		IncludeAllNetworks:   boolp(true),
		Since:                str("token/with spaces"),
		Limit:                u64(5),
	}
	a, err := endpoint.Encode(endpoints.GetPublicRooms, req, nil)
	require.NoError(t, err)
	b, err := endpoint.Encode(endpoints.GetPublicRooms, &req, nil)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, "limit=5&since=token%2Fwith+spaces&include_all_networks=true&third_party_instance_id=irc", a.Query.Encode())
}

func TestEncodeOmitsAbsentOptional(t *testing.T) {
	msg, err := endpoint.Encode(endpoints.GetPublicRooms, &publicroomstypes.GetPublicRoomsRequest{Since: str("")}, nil)
	require.NoError(t, err)
	assert.Equal(t, core.Query{{Key: "since", Value: ""}}, msg.Query)
	_, ok := msg.Query.Get("third_party_instance_id")
	assert.False(t, ok)
	assert.False(t, strings.Contains(msg.URI(), "limit"))

	msg, err = endpoint.Encode(endpoints.GetPublicRooms, &publicroomstypes.GetPublicRoomsRequest{}, nil)
	require.NoError(t, err)
	assert.Empty(t, msg.Query)
	assert.Equal(t, "/_matrix/federation/v1/publicRooms", msg.URI())
}

func TestEncodeEveryPlacement(t *testing.T) {
	req := &stateEventRequest{
		RoomID:     "!r:a/b",
		EventType:  "m.room.member",
		Ver:        []string{"1", "2"},
		RequestID:  "abc",
		Membership: "join",
		Weird:      3,
	}
	msg, err := endpoint.Encode(stateEvent, req, nil)
	require.NoError(t, err)

	assert.Equal(t, "PUT", msg.Method)
	assert.Equal(t, "/rooms/%21r:a%2Fb/state/m.room.member", msg.Path)
	assert.Equal(t, core.Query{{Key: "ver", Value: "1"}, {Key: "ver", Value: "2"}}, msg.Query)
	assert.Equal(t, core.Headers{
		{Name: "X-Request-ID", Value: "abc"},
		{Name: "Content-Type", Value: "application/json"},
	}, msg.Headers)
	assert.Equal(t, `{"membership":"join","m.weird.key":3,"servers":[]}`, string(msg.Body))
}

func TestEncodeRoundTrip(t *testing.T) {
	req := &stateEventRequest{
		RoomID:     "!r:a/b",
		EventType:  "m.room.member",
		Ver:        []string{"1", "2"},
		Since:      str("s1"),
		RequestID:  "abc",
		Trace:      str("t-1"),
		Membership: "leave",
		Reason:     str("bye"),
		Weird:      -4,
		Servers:    []string{"a.example", "b.example"},
	}
	msg, err := endpoint.Encode(stateEvent, req, nil)
	require.NoError(t, err)

	var got stateEventRequest
	require.NoError(t, endpoint.DecodeRequest(stateEvent, msg, nil, nil, &got))
	assert.Equal(t, req, &got)

	var gotPR publicroomstypes.GetPublicRoomsRequest
	pr := publicroomstypes.GetPublicRoomsRequest{Limit: u64(10), IncludeAllNetworks: boolp(false), ThirdPartyInstanceID: str("irc")}
	msg, err = endpoint.Encode(endpoints.GetPublicRooms, &pr, nil)
	require.NoError(t, err)
	require.NoError(t, endpoint.DecodeRequest(endpoints.GetPublicRooms, msg, nil, nil, &gotPR))
	assert.Equal(t, pr, gotPR)
}

func TestEncodeRejects(t *testing.T) {
	tests := []struct {
		name  string
		d     *endpoint.Descriptor
		req   interface{}
		field string
		err   error
	}{
		{
			name:  "empty path value",
			d:     stateEvent,
			req:   &stateEventRequest{EventType: "m.room.member", Ver: []string{"1"}},
			field: "roomId",
			err:   endpoint.ErrMissingRequiredPath,
		},
		{
			name:  "missing required query",
			d:     stateEvent,
			req:   &stateEventRequest{RoomID: "!r:a", EventType: "m.room.member"},
			field: "ver",
			err:   endpoint.ErrMissingRequiredField,
		},
		{
			name:  "request without the declared field",
			d:     stateEvent,
			req:   &struct{ RoomID string `json:"roomId"` }{"!r:a"},
			field: "eventType",
			err:   endpoint.ErrUnknownField,
		},
		{
			name: "not a struct",
			d:    stateEvent,
			req:  "!r:a",
			err:  endpoint.ErrUnsupportedType,
		},
		{
			name: "nil request",
			d:    stateEvent,
			req:  (*stateEventRequest)(nil),
			err:  endpoint.ErrUnsupportedType,
		},
		{
			name:  "unsupported query type",
			d:     endpoint.MustNew(endpoint.Metadata{Name: "t", Method: "GET", Path: "/a"}, endpoint.Query("m")),
			req:   &struct{ M map[string]int `json:"m"` }{map[string]int{"a": 1}},
			field: "m",
			err:   endpoint.ErrUnsupportedType,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := endpoint.Encode(tt.d, tt.req, nil)
			assert.Nil(t, msg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.err), err.Error())

			var encErr *endpoint.EncodeError
			require.True(t, errors.As(err, &encErr))
			assert.Equal(t, tt.field, encErr.Field)
			assert.Equal(t, endpoint.StageEncode, endpoint.StageOf(err))
		})
	}
}

func TestEncodeWithoutRequestFields(t *testing.T) {
	msg, err := endpoint.Encode(endpoints.GetVersion, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "/_matrix/federation/v1/version", msg.Path)
	assert.Nil(t, msg.Body)
}

func TestEncodeOptionalBodyKeepsEmptyObject(t *testing.T) {
	msg, err := endpoint.Encode(endpoints.PostPublicRooms, &publicroomstypes.PostPublicRoomsRequest{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(msg.Body))

	msg, err = endpoint.Encode(endpoints.PostPublicRooms, &publicroomstypes.PostPublicRoomsRequest{
		Limit:  u64(3),
		Filter: &publicroomstypes.Filter{GenericSearchTerm: str("go")},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, `{"limit":3,"filter":{"generic_search_term":"go"}}`, string(msg.Body))
	assert.Equal(t, "application/json", msg.Headers.Get("content-type"))
}
