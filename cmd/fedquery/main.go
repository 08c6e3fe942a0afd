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


// Command fedquery asks a remote homeserver for its public room directory
// over the federation API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/finogeeks/fedapi/common/basecomponent"
	"github.com/finogeeks/fedapi/model/publicroomstypes"
	"github.com/finogeeks/fedapi/skunkworks/log"
	jsoniter "github.com/json-iterator/go"
)

var (
	server  = flag.String("server", "", "The remote server name to query.")
	limit   = flag.Uint64("limit", 0, "Rooms per page, 0 leaves the choice to the remote.")
	since   = flag.String("since", "", "Pagination token to start from.")
	search  = flag.String("search", "", "Generic search term, switches to the filtered POST form.")
	all     = flag.Bool("all", false, "Follow next_batch until the directory ends.")
	network = flag.String("network", "", "Third party instance id to list.")
	timeout = flag.Duration("timeout", 30*time.Second, "Overall deadline for the query.")
	version = flag.Bool("version", false, "Print the remote server version instead.")
)

func main() {
	cfg := basecomponent.ParseFlags()
	if *server == "" {
		fmt.Fprintln(os.Stderr, "--server must be supplied")
		os.Exit(2)
	}

	base := basecomponent.NewBaseFedapi(cfg, "FedQuery")
	defer base.Close()
	if srv := base.SetupMetricsServer(); srv != nil {
		defer srv.Close()
	}
	fed := base.CreateFedClient()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	var err error
	switch {
	case *version:
		var res interface{}
		res, err = fed.GetVersion(ctx, *server)
		if err == nil {
			err = enc.Encode(res)
		}
	case *search != "":
		req := &publicroomstypes.PostPublicRoomsRequest{
			Filter: &publicroomstypes.Filter{GenericSearchTerm: search},
		}
		if *limit > 0 {
			req.Limit = limit
		}
		if *since != "" {
			req.Since = since
		}
		if *network != "" {
			req.ThirdPartyInstanceID = network
		}
		var res *publicroomstypes.PublicRoomsResponse
		res, err = fed.PostPublicRooms(ctx, *server, req)
		if err == nil {
			err = enc.Encode(res)
		}
	default:
		req := publicroomstypes.GetPublicRoomsRequest{}
		if *limit > 0 {
			req.Limit = limit
		}
		if *since != "" {
			req.Since = since
		}
		if *network != "" {
			req.ThirdPartyInstanceID = network
		}
		err = fed.PublicRoomsPages(ctx, *server, req, func(page *publicroomstypes.PublicRoomsResponse) bool {
			if werr := enc.Encode(page); werr != nil {
				log.Errorf("write page err:%v", werr)
				return false
			}
			return *all
		})
	}
	if err != nil {
		log.Errorf("query %s failed err:%v", *server, err)
		base.Close()
		os.Exit(1)
	}
}
