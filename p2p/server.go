// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package p2p

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/ubilog/ubilog/core/message"
	"github.com/ubilog/ubilog/core/types"
	"github.com/ubilog/ubilog/metrics"
)

var (
	datagramsIn    = metrics.NewMeter("p2p/datagrams/in")
	datagramsOut   = metrics.NewMeter("p2p/datagrams/out")
	malformedCount = metrics.NewCounter("p2p/datagrams/malformed")
)

// MessageHandler receives every well-formed message the server reads.
// HandleMessage is called from the server's read goroutine and should not
// block for long.
type MessageHandler interface {
	HandleMessage(from *types.NetAddress, msg message.Message)
}

// Config is the server configuration.
type Config struct {
	// Listen is the host:port the server binds to.
	Listen string

	// Handler receives decoded messages. It is required.
	Handler MessageHandler
}

// Server exchanges gossip messages as single UDP datagrams. There are no
// sessions: every datagram carries exactly one message.
type Server struct {
	started  int32
	shutdown int32

	handler MessageHandler
	conn    *net.UDPConn
	self    *types.NetAddress

	wg   sync.WaitGroup
	quit chan struct{}
}

// NewServer binds the listen address. Call Start to begin reading.
func NewServer(cfg *Config) (*Server, error) {
	if cfg.Handler == nil {
		return nil, errors.New("p2p: message handler is required")
	}
	laddr, err := net.ResolveUDPAddr("udp", cfg.Listen)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", cfg.Listen)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen %s", cfg.Listen)
	}
	self, err := types.NewNetAddress(conn.LocalAddr())
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &Server{
		handler: cfg.Handler,
		conn:    conn,
		self:    self,
		quit:    make(chan struct{}),
	}, nil
}

// LocalAddr returns the bound address.
func (s *Server) LocalAddr() *types.NetAddress {
	return s.self
}

// Start begins reading datagrams.
func (s *Server) Start() error {
	if atomic.AddInt32(&s.started, 1) != 1 {
		return nil
	}
	log.Info("P2P server listening", "addr", s.self)
	s.wg.Add(1)
	go s.inHandler()
	return nil
}

// Stop closes the socket and waits for the reader to exit.
func (s *Server) Stop() error {
	if atomic.AddInt32(&s.shutdown, 1) != 1 {
		log.Warn("P2P server is already in the process of shutting down")
		return nil
	}
	log.Info("P2P server shutting down")
	close(s.quit)
	err := s.conn.Close()
	s.wg.Wait()
	return err
}

// IsSelf reports whether to names this server's own socket.
func (s *Server) IsSelf(to *types.NetAddress) bool {
	if to.Port != s.self.Port {
		return false
	}
	if to.IP.Equal(s.self.IP) || to.IP.IsLoopback() {
		return true
	}
	return s.self.IP.IsUnspecified() && to.IP.IsUnspecified()
}

// Send encodes msg and writes it to the peer. Sending to our own address
// is a silent no-op.
func (s *Server) Send(to *types.NetAddress, msg message.Message) error {
	if s.IsSelf(to) {
		return nil
	}
	buf, err := message.WriteMessage(msg)
	if err != nil {
		return err
	}
	if _, err := s.conn.WriteToUDP(buf, to.UDPAddr()); err != nil {
		return errors.Wrapf(err, "send %v to %v", msg.Command(), to)
	}
	datagramsOut.Mark(1)
	log.Trace("Sent message", "to", to, "msg", message.Summary(msg))
	return nil
}

// inHandler reads datagrams until the socket is closed. Malformed datagrams
// are dropped here and never reach the handler.
func (s *Server) inHandler() {
	defer s.wg.Done()

	// One spare byte detects datagrams larger than any message.
	buf := make([]byte, message.MaxMessagePayload+1)
	for {
		n, raddr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
			}
			log.Warn("UDP read failed", "err", err)
			continue
		}
		datagramsIn.Mark(1)

		msg, err := message.ReadMessage(buf[:n])
		if err != nil {
			malformedCount.Inc(1)
			log.Debug("Dropping malformed datagram", "from", raddr, "err", err)
			continue
		}
		from := types.NewNetAddressIPPort(raddr.IP, uint16(raddr.Port))
		log.Trace("Received message", "from", from, "msg", message.Summary(msg))
		s.handler.HandleMessage(from, msg)
	}
}
