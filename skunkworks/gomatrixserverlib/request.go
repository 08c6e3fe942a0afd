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

package gomatrixserverlib

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/finogeeks/fedapi/core"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ed25519"
)

const xMatrixScheme = "X-Matrix "

// A RequestSigner adds "Authorization: X-Matrix" headers to federation
// requests using the server's ed25519 key.
type RequestSigner struct {
	serverName ServerName
	keyID      KeyID
	privateKey ed25519.PrivateKey
}

func NewRequestSigner(serverName ServerName, keyID KeyID, privateKey ed25519.PrivateKey) *RequestSigner {
	return &RequestSigner{
		serverName: serverName,
		keyID:      keyID,
		privateKey: privateKey,
	}
}

// Sign implements core.ISigner.
func (s *RequestSigner) Sign(ctx context.Context, msg *core.Message) (*core.Message, error) {
	if msg.Origin != "" && msg.Origin != string(s.serverName) {
		return nil, fmt.Errorf("gomatrixserverlib: the request is already signed by a different server")
	}
	if msg.Destination == "" {
		return nil, fmt.Errorf("gomatrixserverlib: cannot sign a request without a destination")
	}
	if len(s.privateKey) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("gomatrixserverlib: no signing key loaded for %s", s.serverName)
	}

	out := msg.Clone()
	out.Origin = string(s.serverName)
	data, err := signingBytes(out.Method, out.URI(), out.Origin, out.Destination, out.Body)
	if err != nil {
		return nil, err
	}

	auth := XMatrix{
		Origin:      s.serverName,
		Destination: ServerName(out.Destination),
		KeyID:       s.keyID,
		Signature:   ed25519.Sign(s.privateKey, data),
	}
	out.Headers.Set("Authorization", auth.String())
	return out, nil
}

// signingBytes builds the canonical JSON object a federation request signature covers.
func signingBytes(method, uri, origin, destination string, content []byte) ([]byte, error) {
	fields := map[string]interface{}{
		"method":      method,
		"uri":         uri,
		"origin":      origin,
		"destination": destination,
	}
	if len(content) > 0 {
		var c interface{}
		if err := canonical.Unmarshal(content, &c); err != nil {
			return nil, errors.Wrap(err, "gomatrixserverlib: request content is not JSON")
		}
		fields["content"] = c
	}
	return canonical.Marshal(fields)
}

// XMatrix is the parsed form of an X-Matrix authorization header.
type XMatrix struct {
	Origin      ServerName
	Destination ServerName
	KeyID       KeyID
	Signature   []byte
}

func (x XMatrix) String() string {
	sig := base64.RawStdEncoding.EncodeToString(x.Signature)
	if x.Destination == "" {
		return fmt.Sprintf(`%sorigin=%s,key="%s",sig="%s"`, xMatrixScheme, x.Origin, x.KeyID, sig)
	}
	return fmt.Sprintf(`%sorigin=%s,destination=%s,key="%s",sig="%s"`,
		xMatrixScheme, x.Origin, x.Destination, x.KeyID, sig)
}

// ParseXMatrix parses an Authorization header value.
func ParseXMatrix(header string) (XMatrix, error) {
	var x XMatrix
	if !strings.HasPrefix(header, xMatrixScheme) {
		return x, fmt.Errorf("gomatrixserverlib: authorization header is not X-Matrix")
	}
	for _, part := range strings.Split(header[len(xMatrixScheme):], ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		val := strings.Trim(kv[1], `"`)
		switch strings.ToLower(kv[0]) {
		case "origin":
			x.Origin = ServerName(val)
		case "destination":
			x.Destination = ServerName(val)
		case "key":
			x.KeyID = KeyID(val)
		case "sig":
			sig, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(val, "="))
			if err != nil {
				return x, errors.Wrap(err, "gomatrixserverlib: bad X-Matrix signature encoding")
			}
			x.Signature = sig
		}
	}
	if x.Origin == "" || x.KeyID == "" || len(x.Signature) == 0 {
		return x, fmt.Errorf("gomatrixserverlib: incomplete X-Matrix header")
	}
	return x, nil
}

// VerifyRequest checks the X-Matrix signature of a received message against
// the origin's public key. The message destination is used when the header
// omits one.
func VerifyRequest(msg *core.Message, key ed25519.PublicKey) (XMatrix, error) {
	x, err := ParseXMatrix(msg.Headers.Get("Authorization"))
	if err != nil {
		return x, err
	}
	destination := string(x.Destination)
	if destination == "" {
		destination = msg.Destination
	}
	data, err := signingBytes(msg.Method, msg.URI(), string(x.Origin), destination, msg.Body)
	if err != nil {
		return x, err
	}
	if !ed25519.Verify(key, data, x.Signature) {
		return x, fmt.Errorf("gomatrixserverlib: bad signature from %s with key %s", x.Origin, x.KeyID)
	}
	return x, nil
}
