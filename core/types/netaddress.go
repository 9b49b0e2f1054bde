// Copyright (c) 2017-2020 The qitmeer developers
// Copyright (c) 2013-2015 The btcsuite developers
// Copyright (c) 2015-2016 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package types

import (
	"errors"
	"io"
	"net"
	"strconv"

	s "github.com/ubilog/ubilog/core/serialization"
)

// NetAddressSize is the encoded size of a NetAddress: a 16-byte IPv6 form
// followed by a 2-byte port.
const NetAddressSize = 16 + 2

// ErrInvalidNetAddr describes an error that indicates the caller didn't specify
// a UDP address as required.
var ErrInvalidNetAddr = errors.New("provided net.Addr is not a net.UDPAddr")

// NetAddress is a reachable peer endpoint.
type NetAddress struct {
	// IP address of the peer.
	IP net.IP

	// Port the peer is listening on.
	Port uint16
}

// NewNetAddressIPPort returns a new NetAddress using the provided IP and port.
func NewNetAddressIPPort(ip net.IP, port uint16) *NetAddress {
	return &NetAddress{IP: ip, Port: port}
}

// NewNetAddress returns a new NetAddress using the provided UDP address.
//
// Note that addr must be a net.UDPAddr.  An ErrInvalidNetAddr is returned
// if it is not.
func NewNetAddress(addr net.Addr) (*NetAddress, error) {
	udpAddr, ok := addr.(*net.UDPAddr)
	if !ok {
		return nil, ErrInvalidNetAddr
	}
	return NewNetAddressIPPort(udpAddr.IP, uint16(udpAddr.Port)), nil
}

// ParseNetAddress parses a host:port string. The host must be a literal IP.
func ParseNetAddress(addr string) (*NetAddress, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return nil, errors.New("invalid ip " + host)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, err
	}
	return NewNetAddressIPPort(ip, uint16(port)), nil
}

// Key returns the canonical string used to index the address.
func (na *NetAddress) Key() string {
	return na.String()
}

// String returns the address as host:port, using the IPv4 form when possible.
func (na *NetAddress) String() string {
	ip := na.IP
	if v4 := ip.To4(); v4 != nil {
		ip = v4
	}
	return net.JoinHostPort(ip.String(), strconv.FormatUint(uint64(na.Port), 10))
}

// UDPAddr converts the address for use with a packet connection.
func (na *NetAddress) UDPAddr() *net.UDPAddr {
	return &net.UDPAddr{IP: na.IP, Port: int(na.Port)}
}

// ReadNetAddress reads an encoded NetAddress from r.
func ReadNetAddress(r io.Reader, na *NetAddress) error {
	var ip [16]byte
	var port uint16
	err := s.ReadElements(r, &ip, &port)
	if err != nil {
		return err
	}
	*na = NetAddress{
		IP:   net.IP(ip[:]),
		Port: port,
	}
	return nil
}

// WriteNetAddress serializes a NetAddress to w.
func WriteNetAddress(w io.Writer, na *NetAddress) error {
	// Ensure to always write 16 bytes even if the ip is nil.
	var ip [16]byte
	if na.IP != nil {
		copy(ip[:], na.IP.To16())
	}
	return s.WriteElements(w, ip, na.Port)
}
