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
	"reflect"
	"strings"
	"sync"
)

var (
	jsonUnmarshalerType = reflect.TypeOf((*stdjson.Unmarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	textMarshalerType   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

type fieldInfo struct {
	goName    string
	name      string
	header    string
	index     []int
	typ       reflect.Type
	omitEmpty bool
}

// required reports whether a JSON decoder must see this key.
func (fi *fieldInfo) required() bool {
	if fi.omitEmpty || fi.name == "" {
		return false
	}
	switch fi.typ.Kind() {
	case reflect.Ptr, reflect.Interface:
		return false
	}
	return true
}

type typeInfo struct {
	ordered []*fieldInfo
	byName  map[string]*fieldInfo
	byHdr   map[string]*fieldInfo
}

var typeCache sync.Map // map[reflect.Type]*typeInfo

func getTypeInfo(t reflect.Type) *typeInfo {
	if ti, ok := typeCache.Load(t); ok {
		return ti.(*typeInfo)
	}
	ti := &typeInfo{
		byName: make(map[string]*fieldInfo),
		byHdr:  make(map[string]*fieldInfo),
	}
	for _, sf := range reflect.VisibleFields(t) {
		if !sf.IsExported() {
			continue
		}
		tag, hasTag := sf.Tag.Lookup("json")
		if sf.Anonymous && !hasTag && sf.Type.Kind() != reflect.Interface {
			continue
		}
		name, opts := tag, ""
		if i := strings.IndexByte(tag, ','); i >= 0 {
			name, opts = tag[:i], tag[i+1:]
		}
		if name == "-" && opts == "" {
			name = ""
		} else if name == "" {
			name = sf.Name
		}
		fi := &fieldInfo{
			goName:    sf.Name,
			name:      name,
			header:    sf.Tag.Get("header"),
			index:     sf.Index,
			typ:       sf.Type,
			omitEmpty: hasOption(opts, "omitempty"),
		}
		if fi.name == "" && fi.header == "" {
			continue
		}
		if fi.name != "" {
			if prev, ok := ti.byName[fi.name]; ok && len(prev.index) <= len(fi.index) {
				continue
			}
			ti.byName[fi.name] = fi
		}
		if fi.header != "" {
			ti.byHdr[strings.ToLower(fi.header)] = fi
		}
		ti.ordered = append(ti.ordered, fi)
	}
	kept := ti.ordered[:0]
	for _, fi := range ti.ordered {
		if fi.name == "" || ti.byName[fi.name] == fi {
			kept = append(kept, fi)
		}
	}
	ti.ordered = kept
	actual, _ := typeCache.LoadOrStore(t, ti)
	return actual.(*typeInfo)
}

func hasOption(opts, want string) bool {
	for opts != "" {
		var opt string
		if i := strings.IndexByte(opts, ','); i >= 0 {
			opt, opts = opts[:i], opts[i+1:]
		} else {
			opt, opts = opts, ""
		}
		if opt == want {
			return true
		}
	}
	return false
}

// lookup finds the struct field bound to a declaration. Headers match a
// header tag first and then the json name, both without case.
func (ti *typeInfo) lookup(f Field) (*fieldInfo, bool) {
	if f.Kind != KindHeader {
		fi, ok := ti.byName[f.Name]
		return fi, ok
	}
	if fi, ok := ti.byHdr[strings.ToLower(f.Name)]; ok {
		return fi, true
	}
	if fi, ok := ti.byName[f.Name]; ok {
		return fi, true
	}
	for name, fi := range ti.byName {
		if strings.EqualFold(name, f.Name) {
			return fi, true
		}
	}
	return nil, false
}

// structValue dereferences v down to a struct value.
func structValue(v interface{}) (reflect.Value, bool) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	return rv, rv.Kind() == reflect.Struct
}

// fieldValue walks index and reports false if it crosses a nil embedded pointer.
func fieldValue(v reflect.Value, index []int) (reflect.Value, bool) {
	fv, err := v.FieldByIndexErr(index)
	if err != nil {
		return reflect.Value{}, false
	}
	return fv, true
}

// present resolves optional wrappers. It returns the underlying value and
// false when the field is absent. With honourOmitEmpty set, values json
// would omit under omitempty count as absent too.
func present(fi *fieldInfo, v reflect.Value, honourOmitEmpty bool) (reflect.Value, bool) {
	if honourOmitEmpty && fi.omitEmpty && isEmptyValue(v) {
		return v, false
	}
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return v, false
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Map:
		if v.IsNil() {
			return v, false
		}
	}
	return v, true
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	}
	return v.IsZero()
}

// skipsRequiredCheck is true for types that parse themselves.
func skipsRequiredCheck(t reflect.Type) bool {
	pt := reflect.PtrTo(t)
	return t.Implements(jsonUnmarshalerType) || pt.Implements(jsonUnmarshalerType) ||
		t.Implements(textUnmarshalerType) || pt.Implements(textUnmarshalerType)
}
