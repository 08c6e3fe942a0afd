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


package common

import (
	"context"
	"crypto/tls"
	"io/ioutil"
	"net"
	"net/http"
	"time"

	"github.com/finogeeks/fedapi/common/config"
	"github.com/finogeeks/fedapi/core"
	"github.com/finogeeks/fedapi/skunkworks/log"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

//default headers
var defaultHeaders = map[string]string{
	"Accept": "application/json",
}

func init() {
	core.RegisterTransport("http", func(conf interface{}) (core.ITransport, error) {
		cfg, ok := conf.(*config.TransportConf)
		if !ok {
			return nil, errors.Errorf("http transport: unexpected config %T", conf)
		}
		return NewHttpClientFromConfig(cfg)
	})
}

// HttpClient is the resty based core.ITransport. It maps a destination
// server name to a base URL and sends the encoded message unchanged.
type HttpClient struct {
	client  *resty.Client
	headers map[string]string
	scheme  string
	servers map[string]string
}

//set transport
func createTransport(localAddr net.Addr) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   15 * time.Second,
		KeepAlive: 15 * time.Second,
	}
	if localAddr != nil {
		dialer.LocalAddr = localAddr
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          200,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConnsPerHost:   200,
	}
}

func NewHttpClient() *HttpClient {
	client := resty.NewWithClient(&http.Client{
		//default transport
		Transport: createTransport(nil),
		//default timeout
		Timeout: 15 * time.Second,
	})
	client.SetLogger(restyLogger{})
	return &HttpClient{
		client:  client,
		headers: defaultHeaders,
		scheme:  "https",
	}
}

// NewHttpClientFromConfig applies timeouts, retries, TLS material and the
// static server map from cfg.
func NewHttpClientFromConfig(cfg *config.TransportConf) (*HttpClient, error) {
	h := NewHttpClient()
	if cfg == nil {
		return h, nil
	}
	if cfg.Scheme != "" {
		h.scheme = cfg.Scheme
	}
	if cfg.Timeout > 0 {
		h.client.SetTimeout(cfg.TimeoutDuration())
	}
	if cfg.RetryCount > 0 {
		h.SetRetry(cfg.RetryCount, cfg.RetryWaitTime, cfg.RetryMaxWaitTime)
	}
	if cfg.InsecureSkipVerify {
		h.client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	if cfg.RootCA != "" {
		pem, err := ioutil.ReadFile(string(cfg.RootCA))
		if err != nil {
			return nil, errors.Wrap(err, "read root ca")
		}
		h.client.SetRootCertificateFromString(string(pem))
	}
	if cfg.CertPEM != "" {
		cert, err := tls.LoadX509KeyPair(string(cfg.CertPEM), string(cfg.KeyPEM))
		if err != nil {
			return nil, errors.Wrap(err, "load client certificate")
		}
		h.client.SetCertificates(cert)
	}
	h.SetServers(cfg.Servers)
	return h, nil
}

//set headers
func (h *HttpClient) SetHeaders(headers map[string]string) {
	h.headers = headers
	if h.headers == nil {
		h.headers = defaultHeaders
	}
}

//set timeout
func (h *HttpClient) SetTimeout(timeout int64) {
	h.client.SetTimeout(time.Duration(timeout) * time.Second)
}

//set transport
func (h *HttpClient) SetTransport(transport http.RoundTripper) {
	h.client.SetTransport(transport)
}

//set retry
func (h *HttpClient) SetRetry(count int, waitTime int64, maxWaitTime int64) {
	//retry count
	h.client.SetRetryCount(count).
		//retry wait time
		SetRetryWaitTime(time.Duration(waitTime) * time.Second).
		//max retry wait time
		SetRetryMaxWaitTime(time.Duration(maxWaitTime) * time.Second)
}

// SetServers pins server names to fixed "host:port" addresses.
func (h *HttpClient) SetServers(servers map[string]string) {
	h.servers = servers
}

func (h *HttpClient) baseURL(destination string) string {
	host := destination
	if addr, ok := h.servers[destination]; ok {
		host = addr
	}
	return h.scheme + "://" + host
}

// Send implements core.ITransport.
func (h *HttpClient) Send(ctx context.Context, msg *core.Message) (*core.Response, error) {
	if msg.Destination == "" {
		return nil, errors.New("http transport: message has no destination")
	}
	req := h.client.R().
		SetContext(ctx).
		SetHeaders(h.headers)
	for _, hdr := range msg.Headers {
		h.addHeader(req.Header, hdr.Name, hdr.Value)
	}
	if msg.Body != nil {
		req.SetBody(msg.Body)
	}

	start := time.Now()
	resp, err := req.Execute(msg.Method, h.baseURL(msg.Destination)+msg.URI())
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", msg.Method, msg.Destination)
	}
	log.Debugf("http transport %s %s%s status %d spend %s",
		msg.Method, msg.Destination, msg.Path, resp.StatusCode(), time.Since(start))

	return &core.Response{
		Status:  resp.StatusCode(),
		Headers: core.HeadersFromHTTP(resp.Header()),
		Body:    resp.Body(),
	}, nil
}

// framingHeaders are read back by net/http and resty under canonical keys.
var framingHeaders = map[string]bool{
	"Content-Type":      true,
	"Content-Length":    true,
	"Host":              true,
	"Transfer-Encoding": true,
}

// addHeader keeps the declared spelling of name on the wire. A
// non-canonical name replaces the client default of the same header.
func (h *HttpClient) addHeader(header http.Header, name, value string) {
	canon := http.CanonicalHeaderKey(name)
	if canon == name || framingHeaders[canon] {
		header.Add(canon, value)
		return
	}
	for k := range h.headers {
		if http.CanonicalHeaderKey(k) == canon {
			delete(header, canon)
		}
	}
	header[name] = append(header[name], value)
}

type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...interface{}) { log.Errorf(format, v...) }
func (restyLogger) Warnf(format string, v ...interface{})  { log.Warnf(format, v...) }
func (restyLogger) Debugf(format string, v ...interface{}) { log.Debugf(format, v...) }
