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
	"strings"
)

const (
	defaultSuccessMin = 200
	defaultSuccessMax = 299
)

var knownMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodOptions: true,
}

// Metadata is the static part of an endpoint description.
type Metadata struct {
	Name         string
	Description  string
	Method       string
	Path         string
	RequiresAuth bool
	RateLimited  bool

	// SuccessMin and SuccessMax bound the status codes decoded as success.
	// Both zero means 200-299.
	SuccessMin int
	SuccessMax int
}

type part struct {
	text  string
	param bool
}

// Descriptor is a validated endpoint description. It is immutable and
// safe for concurrent use.
type Descriptor struct {
	meta     Metadata
	parts    []part
	request  []Field
	response []Field
	hasBody  bool
}

// New validates meta and fields and builds a Descriptor.
func New(meta Metadata, fields ...Field) (*Descriptor, error) {
	d := &Descriptor{meta: meta}
	d.meta.Method = strings.ToUpper(meta.Method)
	if !knownMethods[d.meta.Method] {
		return nil, d.fail("", ErrUnknownMethod)
	}
	if d.meta.SuccessMin == 0 && d.meta.SuccessMax == 0 {
		d.meta.SuccessMin, d.meta.SuccessMax = defaultSuccessMin, defaultSuccessMax
	}
	if d.meta.SuccessMin > d.meta.SuccessMax || d.meta.SuccessMin < 100 || d.meta.SuccessMax > 599 {
		return nil, d.fail("", ErrInvalidSuccessRange)
	}

	parts, err := parseTemplate(meta.Path)
	if err != nil {
		return nil, d.fail("", err)
	}
	d.parts = parts

	for _, f := range fields {
		if f.Name == "" {
			return nil, d.fail("", ErrEmptyFieldName)
		}
		if f.response {
			if f.Kind != KindBody && f.Kind != KindHeader {
				return nil, d.fail(f.Name, ErrInvalidPlacement)
			}
			if dup(d.response, f) {
				return nil, d.fail(f.Name, ErrDuplicateField)
			}
			d.response = append(d.response, f)
			continue
		}
		if f.Kind < KindPath || f.Kind > KindBody || (f.Kind == KindPath && f.Optional) {
			return nil, d.fail(f.Name, ErrInvalidPlacement)
		}
		if dup(d.request, f) {
			return nil, d.fail(f.Name, ErrDuplicateField)
		}
		if f.Kind == KindPath && !d.hasPlaceholder(f.Name) {
			return nil, d.fail(f.Name, ErrUnplacedPathField)
		}
		if f.Kind == KindBody {
			d.hasBody = true
		}
		d.request = append(d.request, f)
	}

	for _, p := range d.parts {
		if !p.param {
			continue
		}
		if f, ok := d.requestField(p.text); !ok || f.Kind != KindPath {
			return nil, d.fail(p.text, ErrUnboundPlaceholder)
		}
	}
	return d, nil
}

// MustNew is New for package level descriptor tables. It panics on error.
func MustNew(meta Metadata, fields ...Field) *Descriptor {
	d, err := New(meta, fields...)
	if err != nil {
		panic(err)
	}
	return d
}

func dup(fields []Field, f Field) bool {
	for _, g := range fields {
		if sameName(g, f) {
			return true
		}
	}
	return false
}

func (d *Descriptor) fail(field string, err error) error {
	return &DescriptorError{Endpoint: d.meta.Name, Field: field, Err: err}
}

func parseTemplate(tmpl string) ([]part, error) {
	if !strings.HasPrefix(tmpl, "/") {
		return nil, ErrMalformedTemplate
	}
	var parts []part
	seen := map[string]bool{}
	for rest := tmpl; rest != ""; {
		open := strings.IndexByte(rest, '{')
		if closing := strings.IndexByte(rest, '}'); closing >= 0 && (open < 0 || closing < open) {
			return nil, ErrMalformedTemplate
		}
		if open < 0 {
			parts = append(parts, part{text: rest})
			break
		}
		if open > 0 {
			parts = append(parts, part{text: rest[:open]})
		}
		rest = rest[open+1:]
		closing := strings.IndexByte(rest, '}')
		if closing < 0 {
			return nil, ErrMalformedTemplate
		}
		name := rest[:closing]
		if name == "" || strings.ContainsAny(name, "{/") || seen[name] {
			return nil, ErrMalformedTemplate
		}
		if len(parts) > 0 && parts[len(parts)-1].param {
			return nil, ErrMalformedTemplate
		}
		seen[name] = true
		parts = append(parts, part{text: name, param: true})
		rest = rest[closing+1:]
	}
	return parts, nil
}

func (d *Descriptor) hasPlaceholder(name string) bool {
	for _, p := range d.parts {
		if p.param && p.text == name {
			return true
		}
	}
	return false
}

func (d *Descriptor) requestField(name string) (Field, bool) {
	for _, f := range d.request {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// render substitutes already escaped values into the template.
func (d *Descriptor) render(values map[string]string) string {
	var sb strings.Builder
	for _, p := range d.parts {
		if p.param {
			sb.WriteString(values[p.text])
		} else {
			sb.WriteString(p.text)
		}
	}
	return sb.String()
}

// match extracts unescaped path values from an escaped request path.
// A placeholder never spans a '/'.
func (d *Descriptor) match(path string) (map[string]string, bool) {
	vars := map[string]string{}
	rest := path
	for i, p := range d.parts {
		if !p.param {
			if !strings.HasPrefix(rest, p.text) {
				return nil, false
			}
			rest = rest[len(p.text):]
			continue
		}
		seg := rest
		if j := strings.IndexByte(seg, '/'); j >= 0 {
			seg = seg[:j]
		}
		end := len(seg)
		if i+1 < len(d.parts) && d.parts[i+1].text[0] != '/' {
			lit := strings.SplitN(d.parts[i+1].text, "/", 2)[0]
			if end = strings.LastIndex(seg, lit); end < 0 {
				return nil, false
			}
		}
		if end == 0 {
			return nil, false
		}
		v, err := url.PathUnescape(seg[:end])
		if err != nil {
			return nil, false
		}
		vars[p.text] = v
		rest = rest[end:]
	}
	return vars, rest == ""
}

func (d *Descriptor) Name() string        { return d.meta.Name }
func (d *Descriptor) Description() string { return d.meta.Description }
func (d *Descriptor) Method() string      { return d.meta.Method }
func (d *Descriptor) Path() string        { return d.meta.Path }
func (d *Descriptor) RequiresAuth() bool  { return d.meta.RequiresAuth }
func (d *Descriptor) RateLimited() bool   { return d.meta.RateLimited }

// Metadata returns a copy of the normalised metadata.
func (d *Descriptor) Metadata() Metadata { return d.meta }

// RequestFields returns the request declarations in order.
func (d *Descriptor) RequestFields() []Field {
	return append([]Field(nil), d.request...)
}

// ResponseFields returns the response declarations in order.
func (d *Descriptor) ResponseFields() []Field {
	return append([]Field(nil), d.response...)
}

// IsSuccess reports whether status decodes into the success value.
func (d *Descriptor) IsSuccess(status int) bool {
	return status >= d.meta.SuccessMin && status <= d.meta.SuccessMax
}

// Route renders "METHOD template" for logs.
func (d *Descriptor) Route() string {
	return d.meta.Method + " " + d.meta.Path
}

func (d *Descriptor) String() string {
	return fmt.Sprintf("%s (%s)", d.meta.Name, d.Route())
}
