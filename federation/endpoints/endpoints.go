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

// Package endpoints holds the federation endpoint descriptors. Each
// descriptor is paired with request and response types from
// model/publicroomstypes and model/fedtypes.
package endpoints

import (
	"github.com/finogeeks/fedapi/endpoint"
)

const federationPathPrefix = "/_matrix/federation/v1"

var GetPublicRooms = endpoint.MustNew(endpoint.Metadata{
	Name:         "get_public_rooms",
	Description:  "Gets all the public rooms for the homeserver.",
	Method:       "GET",
	Path:         federationPathPrefix + "/publicRooms",
	RequiresAuth: true,
	RateLimited:  false,
},
	endpoint.OptionalQuery("limit"),
	endpoint.OptionalQuery("since"),
	endpoint.OptionalQuery("include_all_networks"),
	endpoint.OptionalQuery("third_party_instance_id"),

	endpoint.ResponseBody("chunk"),
	endpoint.OptionalResponseBody("next_batch"),
	endpoint.OptionalResponseBody("prev_batch"),
	endpoint.OptionalResponseBody("total_room_count_estimate"),
)

var PostPublicRooms = endpoint.MustNew(endpoint.Metadata{
	Name:         "post_public_rooms",
	Description:  "Gets the public rooms for the homeserver, filtered by a search term.",
	Method:       "POST",
	Path:         federationPathPrefix + "/publicRooms",
	RequiresAuth: true,
},
	endpoint.OptionalBody("limit"),
	endpoint.OptionalBody("since"),
	endpoint.OptionalBody("filter"),
	endpoint.OptionalBody("include_all_networks"),
	endpoint.OptionalBody("third_party_instance_id"),

	endpoint.ResponseBody("chunk"),
	endpoint.OptionalResponseBody("next_batch"),
	endpoint.OptionalResponseBody("prev_batch"),
	endpoint.OptionalResponseBody("total_room_count_estimate"),
)

var QueryDirectory = endpoint.MustNew(endpoint.Metadata{
	Name:         "query_directory",
	Description:  "Resolves a room alias to a room ID and a list of resident servers.",
	Method:       "GET",
	Path:         federationPathPrefix + "/query/directory",
	RequiresAuth: true,
},
	endpoint.Query("room_alias"),

	endpoint.ResponseBody("room_id"),
	endpoint.ResponseBody("servers"),
)

var QueryProfile = endpoint.MustNew(endpoint.Metadata{
	Name:         "query_profile",
	Description:  "Gets the profile of a user on the homeserver.",
	Method:       "GET",
	Path:         federationPathPrefix + "/query/profile",
	RequiresAuth: true,
},
	endpoint.Query("user_id"),
	endpoint.OptionalQuery("field"),

	endpoint.OptionalResponseBody("displayname"),
	endpoint.OptionalResponseBody("avatar_url"),
)

var MakeJoin = endpoint.MustNew(endpoint.Metadata{
	Name:         "make_join",
	Description:  "Asks a resident server for a join event template.",
	Method:       "GET",
	Path:         federationPathPrefix + "/make_join/{roomId}/{userId}",
	RequiresAuth: true,
},
	endpoint.Path("roomId"),
	endpoint.Path("userId"),
	endpoint.OptionalQuery("ver"),

	endpoint.ResponseBody("event"),
	endpoint.OptionalResponseBody("room_version"),
)

var SendTransaction = endpoint.MustNew(endpoint.Metadata{
	Name:         "send_transaction",
	Description:  "Pushes PDUs and EDUs to a remote server.",
	Method:       "PUT",
	Path:         federationPathPrefix + "/send/{txnId}",
	RequiresAuth: true,
},
	endpoint.Path("txnId"),
	endpoint.Body("origin"),
	endpoint.Body("origin_server_ts"),
	endpoint.Body("pdus"),
	endpoint.OptionalBody("edus"),

	endpoint.ResponseBody("pdus"),
)

var GetVersion = endpoint.MustNew(endpoint.Metadata{
	Name:        "get_version",
	Description: "Gets the implementation name and version of the homeserver.",
	Method:      "GET",
	Path:        federationPathPrefix + "/version",
},
	endpoint.ResponseBody("server"),
)

// All lists every descriptor of this package.
var All = []*endpoint.Descriptor{
	GetPublicRooms,
	PostPublicRooms,
	QueryDirectory,
	QueryProfile,
	MakeJoin,
	SendTransaction,
	GetVersion,
}
