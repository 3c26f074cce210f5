package router

import (
	"net"
	"sync/atomic"
)

// countingConn wraps the client side of a forwarded connection, counting
// bytes in each direction for the close log line.
type countingConn struct {
	net.Conn

	rx atomic.Int64 // client -> backend
	tx atomic.Int64 // backend -> client
}

func newCountingConn(conn net.Conn) *countingConn {
	return &countingConn{Conn: conn}
}

func (c *countingConn) Read(b []byte) (int, error) {
	n, err := c.Conn.Read(b)
	if n > 0 {
		c.rx.Add(int64(n))
	}
	return n, err
}

func (c *countingConn) Write(b []byte) (int, error) {
	n, err := c.Conn.Write(b)
	if n > 0 {
		c.tx.Add(int64(n))
	}
	return n, err
}

// Totals returns the bytes received from and sent to the client.
func (c *countingConn) Totals() (rx, tx int64) {
	return c.rx.Load(), c.tx.Load()
}
