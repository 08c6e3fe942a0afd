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


package basecomponent

import (
	"testing"

	"github.com/finogeeks/fedapi/common/config"
	"github.com/finogeeks/fedapi/skunkworks/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaseFedapi(t *testing.T) {
	cfg := &config.Fedapi{}
	cfg.Matrix.ServerName = "origin.example"
	cfg.Transport.Underlying = "http"
	cfg.Log.Level = "error"
	defer log.SetLogger(nil)

	base := NewBaseFedapi(cfg, "Test")
	assert.Equal(t, "Test", base.ComponentName)
	assert.Nil(t, base.SetupMetricsServer())

	fed := base.CreateFedClient()
	require.NotNil(t, fed)
	assert.Equal(t, "origin.example", fed.Origin())
	assert.NoError(t, base.Close())
}
