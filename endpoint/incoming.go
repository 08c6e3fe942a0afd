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
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/finogeeks/fedapi/common/jsonerror"
	"github.com/finogeeks/fedapi/core"
	util "github.com/finogeeks/fedapi/skunkworks/gomatrixutil"
	"github.com/tidwall/gjson"
)

// RequestError rejects a received request. Err is the Matrix error body
// sent back to the caller.
type RequestError struct {
	Endpoint string
	Field    string
	Err      *jsonerror.MatrixError
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("endpoint %s: bad request: %v", e.Endpoint, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Response renders the error for util.Respond.
func (e *RequestError) Response() util.JSONResponse {
	return util.JSONResponse{Code: jsonerror.StatusCode(e.Err.ErrCode), JSON: e.Err}
}

func (d *Descriptor) requestErr(field string, err *jsonerror.MatrixError) error {
	return &RequestError{Endpoint: d.meta.Name, Field: field, Err: err}
}

// DecodeRequest is the reverse of Encode. It fills dst, a pointer to the
// request struct, from msg. vars holds unescaped path values, for example
// from mux.Vars. When vars is nil the path is matched against the template.
func DecodeRequest(d *Descriptor, msg *core.Message, vars map[string]string, codec core.ICodec, dst interface{}) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return ErrInvalidTarget
	}
	if vars == nil {
		var ok bool
		if vars, ok = d.match(msg.Path); !ok {
			return d.requestErr("", jsonerror.NotFound(fmt.Sprintf("path %s does not match %s", msg.Path, d.meta.Path)))
		}
	}
	ti := getTypeInfo(rv.Elem().Type())

	byJSON, byHeader := url.Values{}, url.Values{}
	var bodyFields []Field
	for _, f := range d.request {
		fi, ok := ti.lookup(f)
		if !ok {
			return &DescriptorError{Endpoint: d.meta.Name, Field: f.Name, Err: ErrUnknownField}
		}
		var values []string
		switch f.Kind {
		case KindPath:
			if v := vars[f.Name]; v != "" {
				values = []string{v}
			}
		case KindQuery:
			values = msg.Query.Values(f.Name)
		case KindHeader:
			values = headerValues(msg.Headers, f.Name)
		case KindBody:
			bodyFields = append(bodyFields, f)
			continue
		}
		if len(values) == 0 {
			if f.Optional {
				continue
			}
			return d.requestErr(f.Name, jsonerror.MissingParam(fmt.Sprintf("missing %s parameter %q", f.Kind, f.Name)))
		}
		if f.Kind == KindHeader && fi.header != "" && strings.EqualFold(fi.header, f.Name) {
			byHeader[fi.header] = values
		} else {
			byJSON[fi.name] = values
		}
	}

	if len(byJSON) > 0 {
		if err := jsonValueDecoder.Decode(dst, byJSON); err != nil {
			return d.requestErr("", jsonerror.InvalidParam(err.Error()))
		}
	}
	if len(byHeader) > 0 {
		if err := headerValueDecoder.Decode(dst, byHeader); err != nil {
			return d.requestErr("", jsonerror.InvalidParam(err.Error()))
		}
	}
	if len(bodyFields) > 0 {
		return d.decodeRequestBody(bodyFields, ti, rv.Elem(), msg.Body, codecOrDefault(codec))
	}
	return nil
}

func (d *Descriptor) decodeRequestBody(fields []Field, ti *typeInfo, rv reflect.Value, body []byte, codec core.ICodec) error {
	if len(body) == 0 {
		body = []byte("{}")
	}
	if !gjson.ValidBytes(body) {
		return d.requestErr("", jsonerror.NotJSON("The request body could not be decoded into valid JSON"))
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return d.requestErr("", jsonerror.BadJSON("The request body must be a JSON object"))
	}
	for _, f := range fields {
		fi, _ := ti.lookup(f)
		r := root.Get(escapeKey(f.Name))
		if !r.Exists() || r.Type == gjson.Null {
			if f.Optional {
				continue
			}
			return d.requestErr(f.Name, jsonerror.MissingParam(fmt.Sprintf("missing body field %q", f.Name)))
		}
		fv, ok := fieldForSet(rv, fi.index)
		if !ok {
			return &DescriptorError{Endpoint: d.meta.Name, Field: f.Name, Err: ErrUnsupportedType}
		}
		if err := codec.Unmarshal([]byte(r.Raw), fv.Addr().Interface()); err != nil {
			return d.requestErr(f.Name, jsonerror.BadJSON(fmt.Sprintf("body field %q: %v", f.Name, err)))
		}
	}
	return nil
}

// fieldForSet walks index allocating nil embedded pointers on the way.
func fieldForSet(v reflect.Value, index []int) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Ptr {
			if v.IsNil() {
				if !v.CanSet() {
					return reflect.Value{}, false
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, v.CanSet()
}

// EncodeResponse renders a success value for the server side of d. Declared
// headers go to response headers, body keys are written in declaration
// order. The body is "{}" when no body keys are declared.
func EncodeResponse(d *Descriptor, res interface{}, codec core.ICodec) (*core.Response, error) {
	codec = codecOrDefault(codec)
	resp := &core.Response{Status: http.StatusOK, Body: []byte("{}")}
	if len(d.response) == 0 {
		resp.Headers = core.Headers{{Name: "Content-Type", Value: codec.ContentType()}}
		return resp, nil
	}
	rv, ok := structValue(res)
	if !ok {
		return nil, d.encodeErr("", ErrUnsupportedType, nil)
	}
	ti := getTypeInfo(rv.Type())

	for _, f := range d.response {
		fi, ok := ti.lookup(f)
		if !ok {
			return nil, d.encodeErr(f.Name, ErrUnknownField, nil)
		}
		fv, ok := fieldValue(rv, fi.index)
		if ok {
			fv, ok = present(fi, fv, f.Optional)
		}
		if ok && !fv.CanInterface() {
			return nil, d.encodeErr(f.Name, ErrUnsupportedType, nil)
		}
		if f.Kind == KindHeader {
			if !ok {
				continue
			}
			values, err := formatValues(fv)
			if err != nil {
				return nil, d.encodeErr(f.Name, ErrUnsupportedType, err)
			}
			for _, s := range values {
				resp.Headers = append(resp.Headers, core.Header{Name: f.Name, Value: s})
			}
			continue
		}
		var err error
		if resp.Body, err = d.setBodyField(resp.Body, f, fv, ok, codec); err != nil {
			return nil, err
		}
	}
	if !resp.Headers.Has("Content-Type") {
		resp.Headers = append(resp.Headers, core.Header{Name: "Content-Type", Value: codec.ContentType()})
	}
	return resp, nil
}
