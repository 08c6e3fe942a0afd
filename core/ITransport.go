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
	"context"
	"errors"
	"log"
	"sync"
)

// ITransport delivers an encoded Message and returns the raw reply.
// Retries, timeouts and connection reuse all belong to the implementation.
// A cancelled context must surface as an error.
type ITransport interface {
	Send(ctx context.Context, msg *Message) (*Response, error)
}

// TransportFunc adapts a plain function to ITransport.
type TransportFunc func(ctx context.Context, msg *Message) (*Response, error)

func (f TransportFunc) Send(ctx context.Context, msg *Message) (*Response, error) {
	return f(ctx, msg)
}

var regTransportMu sync.RWMutex
var newTransportHandler = make(map[string]func(conf interface{}) (ITransport, error))

func RegisterTransport(name string, f func(conf interface{}) (ITransport, error)) {
	regTransportMu.Lock()
	defer regTransportMu.Unlock()

	log.Printf("ITransport Register: %s func\n", name)
	if f == nil {
		log.Panicf("ITransport Register: %s func nil\n", name)
	}

	if _, ok := newTransportHandler[name]; ok {
		log.Panicf("ITransport Register: %s already registered\n", name)
	}

	newTransportHandler[name] = f
}

// GetTransport builds a new transport of the registered kind name.
func GetTransport(name string, conf interface{}) (ITransport, error) {
	regTransportMu.RLock()
	f := newTransportHandler[name]
	regTransportMu.RUnlock()
	if f == nil {
		return nil, errors.New("unknown transport " + name)
	}
	return f(conf)
}
