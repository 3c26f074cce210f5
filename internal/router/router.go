package router

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/netip"
	"sync"
	"sync/atomic"

	singbufio "github.com/sagernet/sing/common/bufio"
	"golang.org/x/net/netutil"
)

// Router accepts client connections and forwards each to the backend its
// source address hashes to. Forwarding is transparent byte copying in both
// directions; there is no protocol awareness above TCP.
type Router struct {
	cfg   *Config
	table *StickyTable
	geo   GeoReader // nil when no database is configured

	mu       sync.Mutex
	listener net.Listener
	closed   atomic.Bool
	wg       sync.WaitGroup
}

// New creates a router from a validated configuration.
func New(cfg *Config) (*Router, error) {
	var geo GeoReader
	if cfg.GeoIPDB != "" {
		g, err := OpenGeoDB(cfg.GeoIPDB)
		if err != nil {
			return nil, err
		}
		geo = g
	}
	return &Router{
		cfg:   cfg,
		table: NewStickyTable(len(cfg.Backends), cfg.Overrides),
		geo:   geo,
	}, nil
}

// ListenAndServe opens the configured listener and serves until Close.
func (rt *Router) ListenAndServe() error {
	ln, err := net.Listen("tcp", rt.cfg.Listen)
	if err != nil {
		return fmt.Errorf("router listen %s: %w", rt.cfg.Listen, err)
	}
	return rt.Serve(ln)
}

// Serve accepts connections from ln until Close is called. The listener is
// capped at MaxConns concurrent connections when configured.
func (rt *Router) Serve(ln net.Listener) error {
	if rt.cfg.MaxConns > 0 {
		ln = netutil.LimitListener(ln, rt.cfg.MaxConns)
	}
	rt.mu.Lock()
	rt.listener = ln
	rt.mu.Unlock()

	log.Printf("[router] listening on %s, %d backends", ln.Addr(), len(rt.cfg.Backends))
	for {
		conn, err := ln.Accept()
		if err != nil {
			if rt.closed.Load() {
				return nil
			}
			return fmt.Errorf("router accept: %w", err)
		}
		rt.wg.Add(1)
		go func() {
			defer rt.wg.Done()
			rt.handleConn(conn)
		}()
	}
}

// Close stops accepting, waits for in-flight connections to finish and
// releases the GeoIP reader.
func (rt *Router) Close() error {
	rt.closed.Store(true)
	rt.mu.Lock()
	ln := rt.listener
	rt.mu.Unlock()
	if ln != nil {
		ln.Close()
	}
	rt.wg.Wait()
	if rt.geo != nil {
		return rt.geo.Close()
	}
	return nil
}

// handleConn resolves the sticky backend for one client connection and
// splices the two sockets together. A backend dial failure closes the
// client without retrying another backend: stickiness over availability.
func (rt *Router) handleConn(conn net.Conn) {
	ip := clientIP(conn.RemoteAddr())
	idx := rt.table.Pick(ip)
	backend := rt.cfg.Backends[idx]

	tag := ""
	if rt.geo != nil {
		if addr, err := netip.ParseAddr(ip); err == nil {
			if cc := rt.geo.Lookup(addr); cc != "" {
				tag = " country=" + cc
			}
		}
	}

	upstream, err := net.DialTimeout("tcp", backend, rt.cfg.DialTimeout)
	if err != nil {
		log.Printf("[router] %s%s -> backend[%d] %s: dial failed: %v", ip, tag, idx, backend, err)
		conn.Close()
		return
	}

	log.Printf("[router] %s%s -> backend[%d] %s", ip, tag, idx, backend)
	cc := newCountingConn(conn)
	err = singbufio.CopyConn(context.Background(), cc, upstream)
	rx, tx := cc.Totals()
	if err != nil {
		log.Printf("[router] %s closed (rx=%d tx=%d): %v", ip, rx, tx, err)
		return
	}
	log.Printf("[router] %s closed (rx=%d tx=%d)", ip, rx, tx)
}

// clientIP extracts the bare IP from a remote address, falling back to the
// raw string for non host:port addresses.
func clientIP(addr net.Addr) string {
	s := addr.String()
	if host, _, err := net.SplitHostPort(s); err == nil {
		return host
	}
	return s
}
