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

package util

import (
	"context"

	log "github.com/finogeeks/fedapi/skunkworks/log"
)

// contextKeys is a type alias for string to namespace Context keys per-package.
type contextKeys string

// ctxValueRequestID is the key to extract the request ID for an HTTP request
const ctxValueRequestID = contextKeys("requestid")

// GetRequestID returns the request ID associated with this context, or the empty string
// if one is not associated with this context.
func GetRequestID(ctx context.Context) string {
	id := ctx.Value(ctxValueRequestID)
	if id == nil {
		return ""
	}
	return id.(string)
}

// ContextWithRequestID attaches a request ID to the context.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxValueRequestID, id)
}

const ctxValueLogFields = contextKeys("logFields")

func GetLogFields(ctx context.Context) log.KeysAndValues {
	fields := ctx.Value(ctxValueLogFields)
	if fields == nil {
		return log.KeysAndValues{"context", "missing"}
	}
	return fields.(log.KeysAndValues)
}

// ContextWithLogFields returns a context carrying fields appended to any
// fields already present on ctx.
func ContextWithLogFields(ctx context.Context, fields log.KeysAndValues) context.Context {
	if prev, ok := ctx.Value(ctxValueLogFields).(log.KeysAndValues); ok {
		merged := make(log.KeysAndValues, 0, len(prev)+len(fields))
		merged = append(merged, prev...)
		fields = append(merged, fields...)
	}
	return context.WithValue(ctx, ctxValueLogFields, fields)
}
