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


// Package id hands out snowflake ids. The node id is derived from the
// first non-loopback IPv4 address so separate hosts do not collide.
package id

import (
	"errors"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	mu     sync.Mutex
	node   *snowflake.Node
	nodeId int64
)

func current() *snowflake.Node {
	mu.Lock()
	defer mu.Unlock()
	if node == nil {
		nodeId = defaultNodeID()
		node, _ = snowflake.NewNode(nodeId)
	}
	return node
}

// SetNodeID replaces the generator node. id must fit in 10 bits.
func SetNodeID(id int64) error {
	nd, err := snowflake.NewNode(id)
	if err != nil {
		return err
	}
	mu.Lock()
	node, nodeId = nd, id
	mu.Unlock()
	return nil
}

func Next() int64 {
	return current().Generate().Int64()
}

func NextSeq() string {
	return current().Generate().String()
}

// NextTxnID returns a short id usable as a federation transaction id.
func NextTxnID() string {
	return current().Generate().Base58()
}

func GetNodeId() int64 {
	current()
	mu.Lock()
	defer mu.Unlock()
	return nodeId
}

func defaultNodeID() int64 {
	if ip, err := hostIP(); err == nil {
		return ip2num(ip) % 1023
	}
	//use random id if no ip
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	return r.Int63() % 1023
}

func hostIP() (net.IP, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			return nil, err
		}
		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil || ip.IsLoopback() {
				continue
			}
			if ip = ip.To4(); ip != nil {
				return ip, nil
			}
		}
	}
	return nil, errors.New("are you connected to the network?")
}

func ip2num(ip net.IP) int64 {
	v4 := ip.To4()
	if v4 == nil {
		return 0
	}
	return int64(v4[0])<<24 | int64(v4[1])<<16 | int64(v4[2])<<8 | int64(v4[3])
}
