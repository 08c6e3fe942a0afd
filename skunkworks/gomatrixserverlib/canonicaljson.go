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

package gomatrixserverlib

import (
	jsoniter "github.com/json-iterator/go"
)

// canonical sorts object keys and writes no insignificant whitespace.
// UseNumber keeps numbers byte for byte.
var canonical = jsoniter.Config{
	SortMapKeys: true,
	EscapeHTML:  false,
	UseNumber:   true,
}.Froze()

// CanonicalJSON re-encodes input in the matrix canonical form.
func CanonicalJSON(input []byte) ([]byte, error) {
	var v interface{}
	if err := canonical.Unmarshal(input, &v); err != nil {
		return nil, err
	}
	return canonical.Marshal(v)
}
