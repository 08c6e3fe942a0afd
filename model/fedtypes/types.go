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

package fedtypes

import (
	"encoding/json"

	"github.com/finogeeks/fedapi/skunkworks/gomatrixserverlib"
)

//  GET /_matrix/federation/v1/query/directory
type QueryDirectoryRequest struct {
	RoomAlias string `json:"room_alias" validate:"required"`
}

type RespDirectory struct {
	// The matrix room ID the room alias corresponds to.
	RoomID gomatrixserverlib.RoomID `json:"room_id"`
	// Servers that could be used to join the room.
	Servers []string `json:"servers"`
}

//  GET /_matrix/federation/v1/query/profile
type QueryProfileRequest struct {
	UserID string `json:"user_id" validate:"required"`
	// Field restricts the reply to "displayname" or "avatar_url".
	Field *string `json:"field" validate:"omitempty,oneof=displayname avatar_url"`
}

type RespProfile struct {
	AvatarURL   *string `json:"avatar_url,omitempty"`
	DisplayName *string `json:"displayname,omitempty"`
}

//  GET /_matrix/federation/v1/make_join/{roomId}/{userId}
type MakeJoinRequest struct {
	RoomID string `json:"roomId" validate:"required"`
	UserID string `json:"userId" validate:"required"`
	// Ver lists the room versions the joining server supports.
	Ver []string `json:"ver"`
}

type RespMakeJoin struct {
	RoomVersion *string `json:"room_version,omitempty"`
	// An incomplete m.room.member event for the joining user.
	Event json.RawMessage `json:"event"`
}

//  PUT /_matrix/federation/v1/send/{txnId}
type SendTransactionRequest struct {
	TxnID          string            `json:"txnId" validate:"required"`
	Origin         string            `json:"origin" validate:"required"`
	OriginServerTS int64             `json:"origin_server_ts"`
	PDUs           []json.RawMessage `json:"pdus" validate:"max=50"`
	EDUs           []json.RawMessage `json:"edus,omitempty" validate:"max=100"`
}

// A PDUResult is the result of processing a matrix room event.
type PDUResult struct {
	// If not empty then this is a human readable description of a problem
	// encountered processing an event.
	Error string `json:"error,omitempty"`
}

type RespSend struct {
	// Map of event ID to the result of processing that event.
	PDUs map[string]PDUResult `json:"pdus"`
}

//  GET /_matrix/federation/v1/version
type RespVersion struct {
	Server ServerVersion `json:"server"`
}

type ServerVersion struct {
	Name    *string `json:"name,omitempty"`
	Version *string `json:"version,omitempty"`
}
