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
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/finogeeks/fedapi/core"
	"github.com/tidwall/sjson"
)

// Encode places every declared request field of req into a new message.
// req is a struct or a pointer to one. Query pairs and headers follow the
// declaration order so equal requests encode to equal messages.
func Encode(d *Descriptor, req interface{}, codec core.ICodec) (*core.Message, error) {
	codec = codecOrDefault(codec)
	msg := &core.Message{Method: d.meta.Method}

	var (
		rv reflect.Value
		ti *typeInfo
	)
	if len(d.request) > 0 {
		var ok bool
		if rv, ok = structValue(req); !ok {
			return nil, d.encodeErr("", ErrUnsupportedType, nil)
		}
		ti = getTypeInfo(rv.Type())
	}

	pathValues := make(map[string]string)
	var body []byte
	if d.hasBody {
		body = []byte("{}")
	}

	for _, f := range d.request {
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

		switch f.Kind {
		case KindPath:
			if !ok {
				return nil, d.encodeErr(f.Name, ErrMissingRequiredPath, nil)
			}
			s, err := formatScalar(fv)
			if err != nil {
				return nil, d.encodeErr(f.Name, ErrUnsupportedType, err)
			}
			if s == "" {
				return nil, d.encodeErr(f.Name, ErrMissingRequiredPath, nil)
			}
			pathValues[f.Name] = url.PathEscape(s)

		case KindQuery, KindHeader:
			if !ok {
				if f.Optional {
					continue
				}
				return nil, d.encodeErr(f.Name, ErrMissingRequiredField, nil)
			}
			values, err := formatValues(fv)
			if err != nil {
				return nil, d.encodeErr(f.Name, ErrUnsupportedType, err)
			}
			for _, s := range values {
				if f.Kind == KindQuery {
					msg.Query = append(msg.Query, core.QueryPair{Key: f.Name, Value: s})
				} else {
					msg.Headers = append(msg.Headers, core.Header{Name: f.Name, Value: s})
				}
			}

		case KindBody:
			var err error
			if body, err = d.setBodyField(body, f, fv, ok, codec); err != nil {
				return nil, err
			}
		}
	}

	msg.Path = d.render(pathValues)
	if body != nil {
		msg.Body = body
		if !msg.Headers.Has("Content-Type") {
			msg.Headers = append(msg.Headers, core.Header{Name: "Content-Type", Value: codec.ContentType()})
		}
	}
	return msg, nil
}

// setBodyField adds one declared key to the JSON object in body. Absent
// optional fields are skipped, absent required collections become empty.
func (d *Descriptor) setBodyField(body []byte, f Field, fv reflect.Value, ok bool, codec core.ICodec) ([]byte, error) {
	var raw []byte
	switch {
	case ok:
		var err error
		if raw, err = codec.Marshal(fv.Interface()); err != nil {
			return nil, d.encodeErr(f.Name, ErrUnsupportedType, err)
		}
	case f.Optional:
		return body, nil
	case fv.IsValid() && fv.Kind() == reflect.Slice && fv.Type().Elem().Kind() != reflect.Uint8:
		raw = []byte("[]")
	case fv.IsValid() && fv.Kind() == reflect.Map:
		raw = []byte("{}")
	default:
		return nil, d.encodeErr(f.Name, ErrMissingRequiredField, nil)
	}
	body, err := sjson.SetRawBytes(body, escapeKey(f.Name), raw)
	if err != nil {
		return nil, d.encodeErr(f.Name, ErrUnsupportedType, err)
	}
	return body, nil
}

func (d *Descriptor) encodeErr(field string, err, cause error) error {
	return &EncodeError{Endpoint: d.meta.Name, Field: field, Err: err, Cause: cause}
}

// formatScalar renders a single query, header or path value.
func formatScalar(v reflect.Value) (string, error) {
	if tm, ok := textMarshaler(v); ok {
		b, err := tm.MarshalText()
		return string(b), err
	}
	switch v.Kind() {
	case reflect.String:
		return v.String(), nil
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'f', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), nil
	}
	return "", ErrUnsupportedType
}

// formatValues renders a scalar or each element of a slice in order.
func formatValues(v reflect.Value) ([]string, error) {
	if _, ok := textMarshaler(v); ok || (v.Kind() != reflect.Slice && v.Kind() != reflect.Array) {
		s, err := formatScalar(v)
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	}
	res := make([]string, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		e := v.Index(i)
		for e.Kind() == reflect.Ptr || e.Kind() == reflect.Interface {
			if e.IsNil() {
				break
			}
			e = e.Elem()
		}
		if e.Kind() == reflect.Ptr || e.Kind() == reflect.Interface {
			continue
		}
		s, err := formatScalar(e)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, nil
}

func textMarshaler(v reflect.Value) (encoding.TextMarshaler, bool) {
	if v.Type().Implements(textMarshalerType) {
		tm, ok := v.Interface().(encoding.TextMarshaler)
		return tm, ok
	}
	if v.CanAddr() && v.Addr().Type().Implements(textMarshalerType) {
		tm, ok := v.Addr().Interface().(encoding.TextMarshaler)
		return tm, ok
	}
	return nil, false
}

// escapeKey turns an object key into a single gjson/sjson path component.
func escapeKey(key string) string {
	var sb strings.Builder
	for i := 0; i < len(key); i++ {
		c := key[i]
		if !isSafePathKeyChar(c) {
			sb.WriteByte('\\')
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func isSafePathKeyChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') || c <= ' ' || c > '~' || c == '_' ||
		c == '-' || c == ':'
}
