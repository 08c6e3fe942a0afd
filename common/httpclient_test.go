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
	"bufio"
	"context"
	"io/ioutil"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/finogeeks/fedapi/common/config"
	"github.com/finogeeks/fedapi/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHttpClientSend(t *testing.T) {
	var got *http.Request
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		b, _ := ioutil.ReadAll(r.Body)
		body = string(b)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tr, err := core.GetTransport("http", &config.TransportConf{
		Scheme:  "http",
		Timeout: 5,
		Servers: map[string]string{"remote.example": strings.TrimPrefix(srv.URL, "http://")},
	})
	require.NoError(t, err)

	msg := &core.Message{
		Method:      "PUT",
		Path:        "/_matrix/federation/v1/send/t%2F1",
		Query:       core.Query{{Key: "b", Value: "2"}, {Key: "a", Value: "1"}},
		Headers:     core.Headers{{Name: "Content-Type", Value: "application/json"}, {Name: "Authorization", Value: "X-Matrix origin=o"}},
		Body:        []byte(`{"pdus":[]}`),
		Destination: "remote.example",
	}
	resp, err := tr.Send(context.Background(), msg)
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "PUT", got.Method)
	assert.Equal(t, "/_matrix/federation/v1/send/t%2F1", got.URL.EscapedPath())
	assert.Equal(t, "b=2&a=1", got.URL.RawQuery)
	assert.Equal(t, "X-Matrix origin=o", got.Header.Get("Authorization"))
	assert.Equal(t, "application/json", got.Header.Get("Accept"))
	assert.Equal(t, `{"pdus":[]}`, body)

	assert.Equal(t, http.StatusTeapot, resp.Status)
	assert.Equal(t, "2", resp.Headers.Get("retry-after"))
	assert.Equal(t, `{"ok":true}`, string(resp.Body))
}

func TestHttpClientKeepsHeaderCase(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	head := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			head <- ""
			return
		}
		defer conn.Close()
		var lines []string
		rd := bufio.NewReader(conn)
		for {
			line, err := rd.ReadString('\n')
			if err != nil || line == "\r\n" {
				break
			}
			lines = append(lines, strings.TrimRight(line, "\r\n"))
		}
		head <- strings.Join(lines, "\n")
		conn.Write([]byte("HTTP/1.1 200 OK\r\nContent-Length: 2\r\nConnection: close\r\n\r\n{}"))
	}()

	h := NewHttpClient()
	h.scheme = "http"
	h.SetServers(map[string]string{"remote.example": ln.Addr().String()})
	resp, err := h.Send(context.Background(), &core.Message{
		Method:      "GET",
		Path:        "/_matrix/key/v2/server",
		Headers:     core.Headers{{Name: "x-matrix-trace", Value: "abc"}, {Name: "accept", Value: "text/plain"}},
		Destination: "remote.example",
	})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)

	got := <-head
	assert.Contains(t, got, "\nx-matrix-trace: abc")
	assert.NotContains(t, got, "X-Matrix-Trace")
	assert.Contains(t, got, "\naccept: text/plain")
	assert.NotContains(t, got, "Accept: application/json")
}

func TestHttpClientErrors(t *testing.T) {
	_, err := core.GetTransport("http", "nope")
	assert.Error(t, err)

	h := NewHttpClient()
	_, err = h.Send(context.Background(), &core.Message{Method: "GET", Path: "/"})
	assert.Error(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()
	h.scheme = "http"
	h.SetServers(map[string]string{"slow.example": strings.TrimPrefix(srv.URL, "http://")})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = h.Send(ctx, &core.Message{Method: "GET", Path: "/", Destination: "slow.example"})
	assert.Error(t, err)
}

func TestHttpClientBadTLSConfig(t *testing.T) {
	_, err := NewHttpClientFromConfig(&config.TransportConf{RootCA: "/does/not/exist.pem"})
	assert.Error(t, err)
	_, err = NewHttpClientFromConfig(&config.TransportConf{CertPEM: "/no/cert.pem", KeyPEM: "/no/key.pem"})
	assert.Error(t, err)
}

func TestBaseURL(t *testing.T) {
	h := NewHttpClient()
	assert.Equal(t, "https://matrix.org", h.baseURL("matrix.org"))
	h.SetServers(map[string]string{"matrix.org": "10.0.0.1:8448"})
	assert.Equal(t, "https://10.0.0.1:8448", h.baseURL("matrix.org"))
}
