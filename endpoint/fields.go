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
	"fmt"
	"strings"
)

// Kind is where a field lands in an HTTP message.
type Kind int

const (
	KindPath Kind = iota
	KindQuery
	KindHeader
	KindBody
)

func (k Kind) String() string {
	switch k {
	case KindPath:
		return "path"
	case KindQuery:
		return "query"
	case KindHeader:
		return "header"
	case KindBody:
		return "body"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Field declares one named value and its placement. Request structs bind
// to Name through their json tag, header fields may use a header tag instead.
type Field struct {
	Name     string
	Kind     Kind
	Optional bool

	response bool
}

// IsResponse reports whether the field belongs to the success response.
func (f Field) IsResponse() bool { return f.response }

func Path(name string) Field           { return Field{Name: name, Kind: KindPath} }
func Query(name string) Field          { return Field{Name: name, Kind: KindQuery} }
func OptionalQuery(name string) Field  { return Field{Name: name, Kind: KindQuery, Optional: true} }
func Header(name string) Field         { return Field{Name: name, Kind: KindHeader} }
func OptionalHeader(name string) Field { return Field{Name: name, Kind: KindHeader, Optional: true} }
func Body(name string) Field           { return Field{Name: name, Kind: KindBody} }
func OptionalBody(name string) Field   { return Field{Name: name, Kind: KindBody, Optional: true} }

// ResponseBody declares a top-level key of the success body that must be present.
func ResponseBody(name string) Field {
	return Field{Name: name, Kind: KindBody, response: true}
}

// OptionalResponseBody declares a top-level key of the success body that may be absent or null.
func OptionalResponseBody(name string) Field {
	return Field{Name: name, Kind: KindBody, Optional: true, response: true}
}

// ResponseHeader declares a response header copied into the response value when present.
func ResponseHeader(name string) Field {
	return Field{Name: name, Kind: KindHeader, Optional: true, response: true}
}

func sameName(a, b Field) bool {
	if a.Kind == KindHeader || b.Kind == KindHeader {
		return strings.EqualFold(a.Name, b.Name)
	}
	return a.Name == b.Name
}
