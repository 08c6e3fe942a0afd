// Copyright 2017 Vector Creations Ltd
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
//
// Modifications copyright (C) 2020 Finogeeks Co., Ltd

package gomatrixserverlib

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// A ServerName is the name a matrix homeserver is identified by.
// It is a DNS name or IP address optionally followed by a port.
type ServerName string

// A KeyID is the ID of a ed25519 key used to sign JSON.
// The key IDs have a format of "ed25519:[0-9A-Za-z]+"
type KeyID string

const maxIDLength = 255

// SplitID splits a matrix ID into a local part and a server name.
// The sigil is the leading character of the ID, '!' for rooms, '#' for
// aliases and '@' for users.
func SplitID(sigil byte, id string) (local string, domain ServerName, err error) {
	if len(id) == 0 || id[0] != sigil {
		return "", "", fmt.Errorf("gomatrixserverlib: invalid ID %q doesn't start with %q", id, sigil)
	}
	if len(id) > maxIDLength {
		return "", "", fmt.Errorf("gomatrixserverlib: ID %q is longer than %d characters", id, maxIDLength)
	}
	parts := strings.SplitN(id[1:], ":", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("gomatrixserverlib: invalid ID %q missing ':'", id)
	}
	if parts[1] == "" {
		return "", "", fmt.Errorf("gomatrixserverlib: invalid ID %q has an empty server name", id)
	}
	return parts[0], ServerName(parts[1]), nil
}

// ValidateRoomID checks the "!opaque:server" form.
func ValidateRoomID(roomID string) error {
	local, _, err := SplitID('!', roomID)
	if err == nil && local == "" {
		err = fmt.Errorf("gomatrixserverlib: room ID %q has an empty local part", roomID)
	}
	return err
}

// ValidateRoomAlias checks the "#alias:server" form.
func ValidateRoomAlias(alias string) error {
	local, _, err := SplitID('#', alias)
	if err == nil && local == "" {
		err = fmt.Errorf("gomatrixserverlib: room alias %q has an empty local part", alias)
	}
	return err
}

// ValidateUserID checks the "@user:server" form.
func ValidateUserID(userID string) error {
	local, _, err := SplitID('@', userID)
	if err == nil && local == "" {
		err = fmt.Errorf("gomatrixserverlib: user ID %q has an empty local part", userID)
	}
	return err
}

// RoomID is a room ID that refuses malformed values when unmarshalled.
type RoomID string

func (r *RoomID) UnmarshalJSON(data []byte) error {
	s, err := unmarshalID(data, ValidateRoomID)
	if err != nil {
		return err
	}
	*r = RoomID(s)
	return nil
}

// RoomAlias is a room alias that refuses malformed values when unmarshalled.
type RoomAlias string

func (a *RoomAlias) UnmarshalJSON(data []byte) error {
	s, err := unmarshalID(data, ValidateRoomAlias)
	if err != nil {
		return err
	}
	*a = RoomAlias(s)
	return nil
}

func unmarshalID(data []byte, validate func(string) error) (string, error) {
	var s string
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &s); err != nil {
		return "", err
	}
	return s, validate(s)
}
