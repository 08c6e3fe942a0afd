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

package publicroomstypes

import "github.com/finogeeks/fedapi/skunkworks/gomatrixserverlib"

// PublicRoom is one entry of a public room directory page. Identifiers are
// checked as they are unmarshalled.
type PublicRoom struct {
	Aliases          []gomatrixserverlib.RoomAlias `json:"aliases,omitempty"`
	CanonicalAlias   *gomatrixserverlib.RoomAlias  `json:"canonical_alias,omitempty"`
	Name             *string                       `json:"name,omitempty"`
	NumJoinedMembers uint64                        `json:"num_joined_members"`
	RoomID           gomatrixserverlib.RoomID      `json:"room_id"`
	Topic            *string                       `json:"topic,omitempty"`
	WorldReadable    bool                          `json:"world_readable"`
	GuestCanJoin     bool                          `json:"guest_can_join"`
	AvatarURL        *string                       `json:"avatar_url,omitempty"`
}

//  GET /_matrix/federation/v1/publicRooms
type GetPublicRoomsRequest struct {
	// Limit is the maximum number of rooms to return. Default is no limit.
	Limit *uint64 `json:"limit"`
	// Since is a pagination token from a previous response.
	Since *string `json:"since"`
	// IncludeAllNetworks includes rooms of every third party network.
	IncludeAllNetworks *bool `json:"include_all_networks"`
	// ThirdPartyInstanceID selects one third party network. Only meaningful
	// when IncludeAllNetworks is false.
	ThirdPartyInstanceID *string `json:"third_party_instance_id"`
}

type Filter struct {
	GenericSearchTerm *string `json:"generic_search_term,omitempty"`
}

//  POST /_matrix/federation/v1/publicRooms
type PostPublicRoomsRequest struct {
	Limit                *uint64 `json:"limit" validate:"omitempty,gt=0"`
	Since                *string `json:"since"`
	Filter               *Filter `json:"filter"`
	IncludeAllNetworks   *bool   `json:"include_all_networks"`
	ThirdPartyInstanceID *string `json:"third_party_instance_id"`
}

// PublicRoomsResponse is a page of the directory.
type PublicRoomsResponse struct {
	Chunk                  []PublicRoom `json:"chunk"`
	NextBatch              *string      `json:"next_batch,omitempty"`
	PrevBatch              *string      `json:"prev_batch,omitempty"`
	TotalRoomCountEstimate *uint64      `json:"total_room_count_estimate,omitempty"`
}
