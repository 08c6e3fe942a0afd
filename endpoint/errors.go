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
	"errors"
	"fmt"
)

// Descriptor construction failures.
var (
	ErrUnboundPlaceholder  = errors.New("path placeholder has no path field")
	ErrDuplicateField      = errors.New("duplicate field name")
	ErrUnplacedPathField   = errors.New("path field has no placeholder")
	ErrMalformedTemplate   = errors.New("malformed path template")
	ErrUnknownMethod       = errors.New("unknown http method")
	ErrInvalidPlacement    = errors.New("invalid field placement")
	ErrEmptyFieldName      = errors.New("empty field name")
	ErrInvalidSuccessRange = errors.New("invalid success status range")
)

// Encoding and signing failures.
var (
	ErrMissingRequiredPath  = errors.New("missing required path value")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrInvalidRequest       = errors.New("invalid request")
	ErrUnsupportedType      = errors.New("unsupported field type")
	ErrUnknownField         = errors.New("value has no field with this name")
	ErrNoSigner             = errors.New("endpoint requires authentication but no signer is configured")
	ErrSigning              = errors.New("signing failed")
)

// Decoding failures.
var (
	ErrMissingField  = errors.New("missing required field")
	ErrMalformedBody = errors.New("malformed response body")
	ErrInvalidTarget = errors.New("decode target must be a non-nil pointer to a struct")
)

// DescriptorError is a programmer error found while building a Descriptor.
type DescriptorError struct {
	Endpoint string
	Field    string
	Err      error
}

func (e *DescriptorError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("endpoint %s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("endpoint %s: field %q: %v", e.Endpoint, e.Field, e.Err)
}

func (e *DescriptorError) Unwrap() error { return e.Err }

// EncodeError means the request value could not be turned into a message.
// Nothing was sent.
type EncodeError struct {
	Endpoint string
	Field    string
	Err      error
	Cause    error
}

func (e *EncodeError) Error() string {
	msg := fmt.Sprintf("endpoint %s: encode", e.Endpoint)
	if e.Field != "" {
		msg += fmt.Sprintf(" field %q", e.Field)
	}
	msg += ": " + e.Err.Error()
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *EncodeError) Unwrap() error { return e.Err }

// TransportError wraps a failure of the transport collaborator, including
// cancellation.
type TransportError struct {
	Endpoint string
	Cause    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("endpoint %s: transport: %v", e.Endpoint, e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// DecodeError means a success response could not be decoded. Body keeps the
// raw bytes.
type DecodeError struct {
	Endpoint string
	// Field is the missing or refused key, Path its dotted location in the body.
	Field string
	Path  string
	Body  []byte
	Err   error
	Cause error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("endpoint %s: decode", e.Endpoint)
	if e.Path != "" {
		msg += fmt.Sprintf(" %q", e.Path)
	}
	msg += ": " + e.Err.Error()
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

// APIError is a non-success reply from the remote server.
type APIError struct {
	Endpoint     string
	Status       int
	ErrCode      string
	Message      string
	RetryAfterMS int64
	Body         []byte
}

func (e *APIError) Error() string {
	if e.ErrCode == "" {
		return fmt.Sprintf("endpoint %s: remote returned %d: %s", e.Endpoint, e.Status, e.Message)
	}
	return fmt.Sprintf("endpoint %s: remote returned %d %s: %s", e.Endpoint, e.Status, e.ErrCode, e.Message)
}

// Stage names the part of a call an error came from.
type Stage string

const (
	StageOK        Stage = "ok"
	StageEncode    Stage = "encode"
	StageSign      Stage = "sign"
	StageTransport Stage = "transport"
	StageDecode    Stage = "decode"
	StageRemote    Stage = "remote"
	StageUnknown   Stage = "unknown"
)

// StageOf classifies an error returned by Dispatcher.Call.
func StageOf(err error) Stage {
	if err == nil {
		return StageOK
	}
	var (
		encErr *EncodeError
		trErr  *TransportError
		decErr *DecodeError
		apiErr *APIError
	)
	switch {
	case errors.Is(err, ErrNoSigner) || errors.Is(err, ErrSigning):
		return StageSign
	case errors.As(err, &encErr):
		return StageEncode
	case errors.As(err, &trErr):
		return StageTransport
	case errors.As(err, &decErr):
		return StageDecode
	case errors.As(err, &apiErr):
		return StageRemote
	}
	return StageUnknown
}
