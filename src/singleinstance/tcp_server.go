package singleinstance

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
)

const (
	residentHost = "127.0.0.1"

	pingRequest      = "PING\n"
	pongResponse     = "PONG\n"
	stdoutRequest    = "STDOUT\n"
	clipboardRequest = "CLIPBOARD\n"
	successStatus    = "SUCCESS\n"
	errorStatus      = "ERROR\n"
	cancelledStatus  = "CANCELLED\n"

	// successLengthPrefix separates the status line from the payload size.
	successLengthPrefix = "LENGTH "
)

// tcpServer implements Server over TCP loopback.
type tcpServer struct {
	mu       sync.Mutex
	lis      net.Listener
	incoming chan *tcpConn
	port     int
	closed   chan struct{}
}

func newTCPServer() *tcpServer {
	return &tcpServer{incoming: make(chan *tcpConn, 8), closed: make(chan struct{})}
}

// Start binds ONLY the start port of the configured range. If occupied, fail.
func (s *tcpServer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis != nil {
		return nil
	}
	start, _ := getPortRange()
	addr := net.JoinHostPort(residentHost, strconv.Itoa(start))
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("unable to bind %s: %w", addr, err)
	}
	s.lis = lis
	s.port = start
	logger.Debugf(ctx, "singleinstance: listening on %s", addr)
	go s.acceptLoop(ctx, lis)
	return nil
}

func (s *tcpServer) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

func (s *tcpServer) acceptLoop(ctx context.Context, lis net.Listener) {
	for {
		c, err := lis.Accept()
		if err != nil {
			return
		}
		remote := c.RemoteAddr().String()
		_ = c.SetDeadline(time.Now().Add(3 * time.Second))
		br := bufio.NewReader(c)
		line, _ := br.ReadString('\n')
		bw := bufio.NewWriter(c)

		switch line {
		case pingRequest:
			logger.Tracef(ctx, "singleinstance: PING from %s", remote)
			_, _ = bw.WriteString(pongResponse)
			_ = bw.Flush()
			_ = c.Close()
			continue
		case stdoutRequest, clipboardRequest:
		default:
			logger.Debugf(ctx, "singleinstance: malformed request %q from %s", line, remote)
			_ = c.Close()
			continue
		}

		// The selection takes as long as the user needs.
		_ = c.SetDeadline(time.Time{})
		req := Request{OutputToStdout: line == stdoutRequest}
		logger.Debugf(ctx, "singleinstance: request from %s, stdout=%v", remote, req.OutputToStdout)
		select {
		case s.incoming <- &tcpConn{c: c, r: req, w: bw}:
		case <-ctx.Done():
			_ = c.Close()
			return
		case <-s.closed:
			_ = c.Close()
			return
		}
	}
}

func (s *tcpServer) Next(ctx context.Context) (Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.closed:
		return nil, net.ErrClosed
	case tc := <-s.incoming:
		return tc, nil
	}
}

func (s *tcpServer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis == nil {
		return nil
	}
	err := s.lis.Close()
	s.lis = nil
	close(s.closed)
	return err
}

type tcpConn struct {
	c net.Conn
	r Request
	w *bufio.Writer
}

func (tc *tcpConn) Request() Request { return tc.r }

func (tc *tcpConn) RespondSuccess(data []byte) error {
	if _, err := fmt.Fprintf(tc.w, "%s%s%d\n", successStatus, successLengthPrefix, len(data)); err != nil {
		return err
	}
	if _, err := tc.w.Write(data); err != nil {
		return err
	}
	return tc.w.Flush()
}

func (tc *tcpConn) RespondError(msg string) error {
	if _, err := tc.w.WriteString(errorStatus + msg); err != nil {
		return err
	}
	return tc.w.Flush()
}

func (tc *tcpConn) RespondCancelled() error {
	if _, err := tc.w.WriteString(cancelledStatus); err != nil {
		return err
	}
	return tc.w.Flush()
}

func (tc *tcpConn) Close() error { return tc.c.Close() }
