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

package core

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// QueryPair is one key=value item of a query string. Duplicate keys are allowed.
type QueryPair struct {
	Key   string
	Value string
}

// Query is an ordered query string.
type Query []QueryPair

// Get returns the first value stored under key.
func (q Query) Get(key string) (string, bool) {
	for _, p := range q {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Values returns every value stored under key in order.
func (q Query) Values(key string) []string {
	var res []string
	for _, p := range q {
		if p.Key == key {
			res = append(res, p.Value)
		}
	}
	return res
}

// Encode renders the pairs in order, escaping keys and values. It never sorts.
func (q Query) Encode() string {
	if len(q) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, p := range q {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.Value))
	}
	return sb.String()
}

// ParseQuery parses a raw query string keeping the order of the pairs.
func ParseQuery(raw string) (Query, error) {
	var q Query
	for raw != "" {
		var item string
		if i := strings.IndexByte(raw, '&'); i >= 0 {
			item, raw = raw[:i], raw[i+1:]
		} else {
			item, raw = raw, ""
		}
		if item == "" {
			continue
		}
		key, value := item, ""
		if i := strings.IndexByte(item, '='); i >= 0 {
			key, value = item[:i], item[i+1:]
		}
		k, err := url.QueryUnescape(key)
		if err != nil {
			return nil, err
		}
		v, err := url.QueryUnescape(value)
		if err != nil {
			return nil, err
		}
		q = append(q, QueryPair{Key: k, Value: v})
	}
	return q, nil
}

// Header is a single header line. Name keeps the case it was declared with.
type Header struct {
	Name  string
	Value string
}

// Headers is an ordered header list with case-insensitive lookup.
type Headers []Header

func (h Headers) index(name string) int {
	for i := range h {
		if strings.EqualFold(h[i].Name, name) {
			return i
		}
	}
	return -1
}

// Get returns the value of the first header matching name, ignoring case.
func (h Headers) Get(name string) string {
	if i := h.index(name); i >= 0 {
		return h[i].Value
	}
	return ""
}

// Has reports whether a header matching name is present.
func (h Headers) Has(name string) bool {
	return h.index(name) >= 0
}

// Set replaces the header matching name in place or appends it.
func (h *Headers) Set(name, value string) {
	if i := h.index(name); i >= 0 {
		(*h)[i] = Header{Name: name, Value: value}
		return
	}
	*h = append(*h, Header{Name: name, Value: value})
}

// Del removes every header matching name.
func (h *Headers) Del(name string) {
	res := (*h)[:0]
	for _, v := range *h {
		if !strings.EqualFold(v.Name, name) {
			res = append(res, v)
		}
	}
	*h = res
}

// Clone returns a copy that can be modified independently.
func (h Headers) Clone() Headers {
	if h == nil {
		return nil
	}
	res := make(Headers, len(h))
	copy(res, h)
	return res
}

// HeadersFromHTTP converts net/http headers, sorted by name so the result is stable.
func HeadersFromHTTP(hh http.Header) Headers {
	names := make([]string, 0, len(hh))
	for k := range hh {
		names = append(names, k)
	}
	sort.Strings(names)
	res := make(Headers, 0, len(names))
	for _, k := range names {
		for _, v := range hh[k] {
			res = append(res, Header{Name: k, Value: v})
		}
	}
	return res
}

// Message is the transport-neutral form of an HTTP request produced by
// the endpoint encoder and consumed by an ITransport.
type Message struct {
	Method  string
	Path    string
	Query   Query
	Headers Headers
	// Body is nil when the request carries no body.
	Body []byte

	// Origin and Destination are the federation server names on either end.
	Origin      string
	Destination string
}

// URI returns the escaped path followed by the ordered query string.
func (m *Message) URI() string {
	if len(m.Query) == 0 {
		return m.Path
	}
	return m.Path + "?" + m.Query.Encode()
}

// Clone returns a deep copy of the message.
func (m *Message) Clone() *Message {
	res := *m
	if m.Query != nil {
		res.Query = make(Query, len(m.Query))
		copy(res.Query, m.Query)
	}
	res.Headers = m.Headers.Clone()
	if m.Body != nil {
		res.Body = append([]byte(nil), m.Body...)
	}
	return &res
}

// Response is the raw reply handed back by an ITransport.
type Response struct {
	Status  int
	Headers Headers
	Body    []byte
}
