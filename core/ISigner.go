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

import "context"

// ISigner injects authentication into an outgoing message. It returns a new
// message and must leave its input untouched.
type ISigner interface {
	Sign(ctx context.Context, msg *Message) (*Message, error)
}

// SignerFunc adapts a plain function to ISigner.
type SignerFunc func(ctx context.Context, msg *Message) (*Message, error)

func (f SignerFunc) Sign(ctx context.Context, msg *Message) (*Message, error) {
	return f(ctx, msg)
}
