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


// Package client is the typed federation client. Every method is a thin
// wrapper that fills a request struct and runs its descriptor through an
// endpoint.Dispatcher.
package client

import (
	"context"
	"errors"
	"sync"
	"time"

	_ "github.com/finogeeks/fedapi/common"
	"github.com/finogeeks/fedapi/common/config"
	"github.com/finogeeks/fedapi/core"
	"github.com/finogeeks/fedapi/endpoint"
	"github.com/finogeeks/fedapi/federation/endpoints"
	"github.com/finogeeks/fedapi/model/fedtypes"
	"github.com/finogeeks/fedapi/model/publicroomstypes"
	"github.com/finogeeks/fedapi/skunkworks/gomatrixserverlib"
	"github.com/finogeeks/fedapi/skunkworks/log"
	"github.com/finogeeks/fedapi/skunkworks/util/id"
	"github.com/finogeeks/fedapi/skunkworks/util/workerpool"
	"github.com/go-playground/validator/v10"
)

var errNoDestination = errors.New("destination server name is empty")

// FedClient talks to remote homeservers on behalf of one origin server.
type FedClient struct {
	dispatcher *endpoint.Dispatcher
}

// New wraps an already configured dispatcher.
func New(d *endpoint.Dispatcher) *FedClient {
	return &FedClient{dispatcher: d}
}

// NewFromConfig builds the transport, signer and validator described by cfg.
// Without a private key only unauthenticated endpoints can be called.
func NewFromConfig(cfg *config.Fedapi) (*FedClient, error) {
	transport, err := core.GetTransport(cfg.Transport.Underlying, &cfg.Transport)
	if err != nil {
		return nil, err
	}
	d := &endpoint.Dispatcher{
		Transport: transport,
		Codec:     endpoint.JSON,
		Validator: validator.New(),
		Origin:    string(cfg.Matrix.ServerName),
	}
	if cfg.Matrix.PrivateKey != nil {
		d.Signer = gomatrixserverlib.NewRequestSigner(cfg.Matrix.ServerName, cfg.Matrix.KeyID, cfg.Matrix.PrivateKey)
	} else {
		log.Warnf("fed client of %s has no signing key, authenticated endpoints will fail", cfg.Matrix.ServerName)
	}
	return New(d), nil
}

// Origin is the server name stamped on outgoing requests.
func (fed *FedClient) Origin() string {
	return fed.dispatcher.Origin
}

func invalid(d *endpoint.Descriptor, field string, cause error) error {
	return &endpoint.EncodeError{Endpoint: d.Name(), Field: field, Err: endpoint.ErrInvalidRequest, Cause: cause}
}

func (fed *FedClient) call(ctx context.Context, destination string, d *endpoint.Descriptor, req, res interface{}) error {
	if destination == "" {
		return invalid(d, "destination", errNoDestination)
	}
	return fed.dispatcher.Call(ctx, destination, d, req, res)
}

func (fed *FedClient) GetPublicRooms(
	ctx context.Context, destination string, req *publicroomstypes.GetPublicRoomsRequest,
) (*publicroomstypes.PublicRoomsResponse, error) {
	if req == nil {
		req = &publicroomstypes.GetPublicRoomsRequest{}
	}
	var res publicroomstypes.PublicRoomsResponse
	if err := fed.call(ctx, destination, endpoints.GetPublicRooms, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (fed *FedClient) PostPublicRooms(
	ctx context.Context, destination string, req *publicroomstypes.PostPublicRoomsRequest,
) (*publicroomstypes.PublicRoomsResponse, error) {
	if req == nil {
		req = &publicroomstypes.PostPublicRoomsRequest{}
	}
	var res publicroomstypes.PublicRoomsResponse
	if err := fed.call(ctx, destination, endpoints.PostPublicRooms, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// PublicRoomsPages follows next_batch tokens from req.Since onwards and
// hands each page to fn until fn returns false or the directory ends. A
// token seen before ends the walk.
func (fed *FedClient) PublicRoomsPages(
	ctx context.Context, destination string, req publicroomstypes.GetPublicRoomsRequest,
	fn func(*publicroomstypes.PublicRoomsResponse) bool,
) error {
	seen := map[string]bool{}
	if req.Since != nil {
		seen[*req.Since] = true
	}
	for {
		page, err := fed.GetPublicRooms(ctx, destination, &req)
		if err != nil {
			return err
		}
		if !fn(page) {
			return nil
		}
		if page.NextBatch == nil || *page.NextBatch == "" || seen[*page.NextBatch] {
			return nil
		}
		next := *page.NextBatch
		seen[next] = true
		req.Since = &next
	}
}

func (fed *FedClient) LookupRoomAlias(
	ctx context.Context, destination, alias string,
) (*fedtypes.RespDirectory, error) {
	if err := gomatrixserverlib.ValidateRoomAlias(alias); err != nil {
		return nil, invalid(endpoints.QueryDirectory, "room_alias", err)
	}
	var res fedtypes.RespDirectory
	req := &fedtypes.QueryDirectoryRequest{RoomAlias: alias}
	if err := fed.call(ctx, destination, endpoints.QueryDirectory, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// LookupProfile fetches the whole profile of userID.
func (fed *FedClient) LookupProfile(
	ctx context.Context, destination, userID string,
) (*fedtypes.RespProfile, error) {
	return fed.lookupProfile(ctx, destination, userID, nil)
}

func (fed *FedClient) LookupDisplayName(
	ctx context.Context, destination, userID string,
) (*fedtypes.RespProfile, error) {
	field := "displayname"
	return fed.lookupProfile(ctx, destination, userID, &field)
}

func (fed *FedClient) LookupAvatarURL(
	ctx context.Context, destination, userID string,
) (*fedtypes.RespProfile, error) {
	field := "avatar_url"
	return fed.lookupProfile(ctx, destination, userID, &field)
}

func (fed *FedClient) lookupProfile(
	ctx context.Context, destination, userID string, field *string,
) (*fedtypes.RespProfile, error) {
	if err := gomatrixserverlib.ValidateUserID(userID); err != nil {
		return nil, invalid(endpoints.QueryProfile, "user_id", err)
	}
	var res fedtypes.RespProfile
	req := &fedtypes.QueryProfileRequest{UserID: userID, Field: field}
	if err := fed.call(ctx, destination, endpoints.QueryProfile, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// MakeJoin asks destination for a join event template. ver lists the room
// versions this server supports.
func (fed *FedClient) MakeJoin(
	ctx context.Context, destination, roomID, userID string, ver []string,
) (*fedtypes.RespMakeJoin, error) {
	if err := gomatrixserverlib.ValidateRoomID(roomID); err != nil {
		return nil, invalid(endpoints.MakeJoin, "roomId", err)
	}
	if err := gomatrixserverlib.ValidateUserID(userID); err != nil {
		return nil, invalid(endpoints.MakeJoin, "userId", err)
	}
	var res fedtypes.RespMakeJoin
	req := &fedtypes.MakeJoinRequest{RoomID: roomID, UserID: userID, Ver: ver}
	if err := fed.call(ctx, destination, endpoints.MakeJoin, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SendTransaction pushes txn to destination. An empty TxnID is generated,
// and origin and timestamp default to this server and now. The filled
// values are written back into txn so a retry reuses them.
func (fed *FedClient) SendTransaction(
	ctx context.Context, destination string, txn *fedtypes.SendTransactionRequest,
) (*fedtypes.RespSend, error) {
	fed.fillTxn(txn)
	var res fedtypes.RespSend
	if err := fed.call(ctx, destination, endpoints.SendTransaction, txn, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (fed *FedClient) fillTxn(txn *fedtypes.SendTransactionRequest) {
	if txn.TxnID == "" {
		txn.TxnID = id.NextTxnID()
	}
	if txn.Origin == "" {
		txn.Origin = fed.Origin()
	}
	if txn.OriginServerTS == 0 {
		txn.OriginServerTS = time.Now().UnixNano() / int64(time.Millisecond)
	}
}

// SendTransactionToAll pushes txn to every destination with at most workers
// calls in flight. The result holds one entry per distinct destination,
// nil on success.
func (fed *FedClient) SendTransactionToAll(
	ctx context.Context, destinations []string, txn *fedtypes.SendTransactionRequest, workers int,
) map[string]error {
	fed.fillTxn(txn)

	var mu sync.Mutex
	res := make(map[string]error, len(destinations))
	wp := workerpool.NewWorkerPool(workers, len(destinations)).SetHandler(func(p interface{}) error {
		dest := p.(string)
		t := *txn
		_, err := fed.SendTransaction(ctx, dest, &t)
		mu.Lock()
		res[dest] = err
		mu.Unlock()
		return nil
	}).Run()

	queued := make(map[string]bool, len(destinations))
	for _, dest := range destinations {
		if queued[dest] {
			continue
		}
		queued[dest] = true
		wp.Feed(dest)
	}
	wp.Stop()
	return res
}

func (fed *FedClient) GetVersion(ctx context.Context, destination string) (*fedtypes.RespVersion, error) {
	var res fedtypes.RespVersion
	if err := fed.call(ctx, destination, endpoints.GetVersion, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
