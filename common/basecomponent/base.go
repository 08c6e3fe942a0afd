// Copyright 2017 Vector Creations Ltd
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
//
// Modifications copyright (C) 2020 Finogeeks Co., Ltd

package basecomponent

import (
	"io"
	"net/http"
	"time"

	"github.com/finogeeks/fedapi/common/config"
	"github.com/finogeeks/fedapi/federation/client"
	"github.com/finogeeks/fedapi/skunkworks/log"
	mon "github.com/finogeeks/fedapi/skunkworks/monitor/go-client/monitor"
	"github.com/gorilla/mux"
)

// BaseFedapi is a base for creating new fedapi processes. It sets up
// logging, tracing and metrics from the config. All errors are handled by
// logging then exiting, so all methods should only be used during start up.
// Must be closed when shutting down.
type BaseFedapi struct {
	ComponentName string
	tracerCloser  io.Closer

	Cfg *config.Fedapi
}

// NewBaseFedapi creates a new instance to be used by a component.
// The componentName is used for logging and tracing, and should be a
// friendly name of the component running, e.g. "FedQuery"
func NewBaseFedapi(cfg *config.Fedapi, componentName string) *BaseFedapi {
	log.Setup(&cfg.Log)

	closer, err := cfg.SetupTracing("Fedapi" + componentName)
	if err != nil {
		log.Errorf("failed to start opentracing err:%v", err)
	}

	if cfg.Metrics.Enabled {
		mon.GetInstance().Enable()
	}

	return &BaseFedapi{
		ComponentName: componentName,
		tracerCloser:  closer,
		Cfg:           cfg,
	}
}

// Close implements io.Closer
func (b *BaseFedapi) Close() error {
	log.Sync()
	if b.tracerCloser == nil {
		return nil
	}
	return b.tracerCloser.Close()
}

// CreateFedClient returns the typed federation client for this server.
func (b *BaseFedapi) CreateFedClient() *client.FedClient {
	fed, err := client.NewFromConfig(b.Cfg)
	if err != nil {
		log.Fatalf("failed to create fed client err:%v", err)
	}
	return fed
}

// SetupMetricsServer serves prometheus metrics on the configured address
// in the background. It does nothing when metrics are disabled.
func (b *BaseFedapi) SetupMetricsServer() *http.Server {
	if !b.Cfg.Metrics.Enabled {
		return nil
	}
	router := mux.NewRouter()
	router.Handle(b.Cfg.Metrics.Path, mon.GetInstance().Handler()).Methods(http.MethodGet)
	srv := &http.Server{
		Addr:              b.Cfg.Metrics.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Infof("metrics listening on %s%s", srv.Addr, b.Cfg.Metrics.Path)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("metrics server stopped err:%v", err)
		}
	}()
	return srv
}
