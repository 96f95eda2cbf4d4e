// Package tcp owns the byte stream to the game server and cuts it into
// frames.
package tcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/iamasit07/blokus-client/internal/domain"
	"github.com/iamasit07/blokus-client/internal/protocol"
)

const DefaultMaxFrameSize = 1 << 20

type Options struct {
	DialTimeout  time.Duration
	WriteTimeout time.Duration
	MaxFrameSize int
}

// Conn is one connection to the server. ReceiveFrame must be called from a
// single goroutine; SendFrame and Close are safe for concurrent use.
type Conn struct {
	conn         net.Conn
	scanner      *bufio.Scanner
	maxFrame     int
	writeTimeout time.Duration
	logger       *zap.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    atomic.Bool
	closeErr  error
}

// Dial connects to host:port. The caller owns the returned Conn and must
// Close it.
func Dial(ctx context.Context, host string, port int, opts Options, logger *zap.Logger) (*Conn, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	dialer := net.Dialer{Timeout: opts.DialTimeout}
	c, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to %s: %v", domain.ErrConnectionClosed, addr, err)
	}
	logger.Info("connected", zap.String("addr", addr))
	return NewConn(c, opts, logger), nil
}

// NewConn wraps an established stream.
func NewConn(c net.Conn, opts Options, logger *zap.Logger) *Conn {
	maxFrame := opts.MaxFrameSize
	if maxFrame <= 0 {
		maxFrame = DefaultMaxFrameSize
	}
	scanner := bufio.NewScanner(c)
	scanner.Buffer(make([]byte, 0, min(4096, maxFrame)), maxFrame)
	scanner.Split(splitFrames)

	return &Conn{
		conn:         c,
		scanner:      scanner,
		maxFrame:     maxFrame,
		writeTimeout: opts.WriteTimeout,
		logger:       logger,
	}
}

// ReceiveFrame blocks until the next complete frame arrives. It returns
// io.EOF once the server has closed the protocol stream.
func (c *Conn) ReceiveFrame() ([]byte, error) {
	if c.scanner.Scan() {
		frame := make([]byte, len(c.scanner.Bytes()))
		copy(frame, c.scanner.Bytes())
		c.logger.Debug("frame received", zap.Int("bytes", len(frame)))
		return frame, nil
	}

	err := c.scanner.Err()
	switch {
	case errors.Is(err, errStreamEnd):
		return nil, io.EOF
	case errors.Is(err, bufio.ErrTooLong):
		return nil, fmt.Errorf("%w: frame larger than %d bytes", domain.ErrMalformedMessage, c.maxFrame)
	case err == nil:
		return nil, fmt.Errorf("%w: server closed the connection", domain.ErrConnectionClosed)
	case c.closed.Load():
		return nil, fmt.Errorf("%w: connection closed locally", domain.ErrConnectionClosed)
	}
	return nil, fmt.Errorf("%w: %v", domain.ErrConnectionClosed, err)
}

func (c *Conn) SendFrame(frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("%w: send on closed connection", domain.ErrIO)
	}
	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrIO, err)
		}
	}
	if _, err := c.conn.Write(frame); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIO, err)
	}
	c.logger.Debug("frame sent", zap.Int("bytes", len(frame)))
	return nil
}

// WriteOpening starts the protocol stream.
func (c *Conn) WriteOpening() error {
	return c.SendFrame([]byte(protocol.Opening))
}

// Close releases the connection and unblocks a pending ReceiveFrame.
// Calling it more than once is safe.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.closeErr = c.conn.Close()
		c.logger.Debug("connection closed")
	})
	return c.closeErr
}
