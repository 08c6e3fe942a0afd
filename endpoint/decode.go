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
	"encoding"
	stdjson "encoding/json"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/finogeeks/fedapi/core"
	"github.com/gorilla/schema"
	"github.com/tidwall/gjson"
)

var (
	jsonValueDecoder   = newValueDecoder("json")
	headerValueDecoder = newValueDecoder("header")
)

func newValueDecoder(tag string) *schema.Decoder {
	dec := schema.NewDecoder()
	dec.SetAliasTag(tag)
	dec.IgnoreUnknownKeys(true)
	return dec
}

// Decode turns resp into out, a pointer to the success struct, or returns
// an error. Statuses outside the success range give an *APIError. Unknown
// body keys are ignored.
func Decode(d *Descriptor, resp *core.Response, codec core.ICodec, out interface{}) error {
	if resp == nil {
		return &DecodeError{Endpoint: d.meta.Name, Err: ErrMalformedBody}
	}
	if !d.IsSuccess(resp.Status) {
		return newAPIError(d, resp)
	}
	if out == nil {
		return nil
	}
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return &DecodeError{Endpoint: d.meta.Name, Body: resp.Body, Err: ErrInvalidTarget}
	}
	ti := getTypeInfo(rv.Elem().Type())

	var bodyFields, headerFields []Field
	for _, f := range d.response {
		if f.Kind == KindHeader {
			headerFields = append(headerFields, f)
		} else {
			bodyFields = append(bodyFields, f)
		}
	}
	if len(bodyFields) > 0 {
		if err := d.decodeBody(bodyFields, ti, resp.Body, codecOrDefault(codec), out); err != nil {
			return err
		}
	}
	if len(headerFields) > 0 {
		if err := d.decodeHeaders(headerFields, ti, resp.Headers, out); err != nil {
			return &DecodeError{Endpoint: d.meta.Name, Body: resp.Body, Err: ErrMalformedBody, Cause: err}
		}
	}
	return nil
}

func (d *Descriptor) decodeBody(fields []Field, ti *typeInfo, body []byte, codec core.ICodec, out interface{}) error {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return &DecodeError{Endpoint: d.meta.Name, Body: body, Err: ErrMalformedBody}
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return &DecodeError{Endpoint: d.meta.Name, Body: body, Err: ErrMalformedBody}
	}

	for _, f := range fields {
		fi, ok := ti.lookup(f)
		if !ok {
			return &DecodeError{Endpoint: d.meta.Name, Field: f.Name, Body: body, Err: ErrUnknownField}
		}
		r := root.Get(escapeKey(f.Name))
		if !r.Exists() || r.Type == gjson.Null {
			if f.Optional {
				continue
			}
			return &DecodeError{Endpoint: d.meta.Name, Field: f.Name, Path: f.Name, Body: body, Err: ErrMissingField}
		}
		if bad := checkKeys(fi.typ, r, f.Name, f.Name); bad != nil {
			return &DecodeError{Endpoint: d.meta.Name, Field: bad.name, Path: bad.path, Body: body, Err: bad.err, Cause: bad.cause}
		}
	}

	if err := codec.Unmarshal(body, out); err != nil {
		return &DecodeError{Endpoint: d.meta.Name, Body: body, Err: ErrMalformedBody, Cause: err}
	}
	return nil
}

type badKey struct {
	name, path string
	err, cause error
}

// checkKeys walks r alongside t and returns the first key a non-optional
// struct field expects but r lacks, or the first value a self-parsing type
// refuses. Other type mismatches are left to the codec.
func checkKeys(t reflect.Type, r gjson.Result, name, path string) *badKey {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if skipsRequiredCheck(t) {
		if err := parseSelf(t, r); err != nil {
			return &badKey{name: name, path: path, err: ErrMalformedBody, cause: err}
		}
		return nil
	}

	switch t.Kind() {
	case reflect.Struct:
		if !r.IsObject() {
			return nil
		}
		for _, fi := range getTypeInfo(t).ordered {
			if fi.name == "" {
				continue
			}
			v := r.Get(escapeKey(fi.name))
			if !v.Exists() || v.Type == gjson.Null {
				if fi.required() {
					return &badKey{name: fi.name, path: path + "." + fi.name, err: ErrMissingField}
				}
				continue
			}
			if bad := checkKeys(fi.typ, v, fi.name, path+"."+fi.name); bad != nil {
				return bad
			}
		}

	case reflect.Slice, reflect.Array:
		if !r.IsArray() || t.Elem().Kind() == reflect.Uint8 {
			return nil
		}
		var bad *badKey
		i := 0
		r.ForEach(func(_, v gjson.Result) bool {
			if v.Type != gjson.Null {
				bad = checkKeys(t.Elem(), v, name, path+"."+strconv.Itoa(i))
			}
			i++
			return bad == nil
		})
		return bad

	case reflect.Map:
		if !r.IsObject() {
			return nil
		}
		var bad *badKey
		r.ForEach(func(k, v gjson.Result) bool {
			if v.Type != gjson.Null {
				bad = checkKeys(t.Elem(), v, name, path+"."+k.String())
			}
			return bad == nil
		})
		return bad
	}
	return nil
}

// parseSelf runs the type's own unmarshaller over r so a refusal can be
// reported with its location.
func parseSelf(t reflect.Type, r gjson.Result) error {
	v := reflect.New(t).Interface()
	if u, ok := v.(stdjson.Unmarshaler); ok {
		return u.UnmarshalJSON([]byte(r.Raw))
	}
	if u, ok := v.(encoding.TextUnmarshaler); ok && r.Type == gjson.String {
		return u.UnmarshalText([]byte(r.Str))
	}
	return nil
}

func (d *Descriptor) decodeHeaders(fields []Field, ti *typeInfo, headers core.Headers, out interface{}) error {
	byJSON, byHeader := url.Values{}, url.Values{}
	for _, f := range fields {
		fi, ok := ti.lookup(f)
		if !ok {
			return ErrUnknownField
		}
		values := headerValues(headers, f.Name)
		if len(values) == 0 {
			continue
		}
		if fi.header != "" && strings.EqualFold(fi.header, f.Name) {
			byHeader[fi.header] = values
		} else {
			byJSON[fi.name] = values
		}
	}
	if len(byJSON) > 0 {
		if err := jsonValueDecoder.Decode(out, byJSON); err != nil {
			return err
		}
	}
	if len(byHeader) > 0 {
		if err := headerValueDecoder.Decode(out, byHeader); err != nil {
			return err
		}
	}
	return nil
}

func headerValues(headers core.Headers, name string) []string {
	var res []string
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			res = append(res, h.Value)
		}
	}
	return res
}

// newAPIError reads {"errcode","error","retry_after_ms"} from the body and
// falls back to the status text when the body has another shape.
func newAPIError(d *Descriptor, resp *core.Response) *APIError {
	e := &APIError{Endpoint: d.meta.Name, Status: resp.Status, Body: resp.Body}
	if gjson.ValidBytes(resp.Body) {
		if root := gjson.ParseBytes(resp.Body); root.IsObject() {
			if v := root.Get("errcode"); v.Type == gjson.String {
				e.ErrCode = v.Str
			}
			if v := root.Get("error"); v.Type == gjson.String {
				e.Message = v.Str
			}
			if v := root.Get("retry_after_ms"); v.Type == gjson.Number {
				e.RetryAfterMS = v.Int()
			}
		}
	}
	if e.RetryAfterMS == 0 {
		if secs, err := strconv.ParseInt(resp.Headers.Get("Retry-After"), 10, 64); err == nil && secs > 0 {
			e.RetryAfterMS = secs * 1000
		}
	}
	if e.Message == "" {
		e.Message = http.StatusText(resp.Status)
	}
	return e
}
