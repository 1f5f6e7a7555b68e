package singleinstance

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrRemote is wrapped around error messages reported by the resident.
	ErrRemote = errors.New("resident reported an error")
	// ErrRemoteCancelled is returned when the user dismissed the
	// resident's selector.
	ErrRemoteCancelled = errors.New("selection cancelled in the resident")
)

type tcpClient struct {
	pingTimeout time.Duration
}

func newTCPClient() *tcpClient { return &tcpClient{pingTimeout: 300 * time.Millisecond} }

func (c *tcpClient) TryCapture(ctx context.Context, outputToStdout bool) (bool, []byte, error) {
	start, end := getPortRange()
	for port := start; port <= end; port++ {
		addr := net.JoinHostPort(residentHost, strconv.Itoa(port))
		if !ping(addr, c.pingTimeout) {
			continue
		}
		data, err := c.request(ctx, addr, outputToStdout)
		return true, data, err
	}
	return false, nil, nil
}

func (c *tcpClient) request(ctx context.Context, addr string, outputToStdout bool) ([]byte, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	req := clipboardRequest
	if outputToStdout {
		req = stdoutRequest
	}
	if _, err := io.WriteString(conn, req); err != nil {
		return nil, err
	}

	br := bufio.NewReader(conn)
	status, err := br.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("unable to read the resident status: %w", err)
	}
	switch status {
	case successStatus:
		header, err := br.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("unable to read the payload length: %w", err)
		}
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(header, successLengthPrefix)))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("malformed payload length %q", header)
		}
		data := make([]byte, n)
		if _, err := io.ReadFull(br, data); err != nil {
			return nil, fmt.Errorf("unable to read the payload: %w", err)
		}
		return data, nil
	case cancelledStatus:
		return nil, ErrRemoteCancelled
	case errorStatus:
		msg, _ := io.ReadAll(br)
		return nil, fmt.Errorf("%w: %s", ErrRemote, msg)
	default:
		return nil, fmt.Errorf("unexpected resident status %q", status)
	}
}

func ping(addr string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))
	if _, err := io.WriteString(conn, pingRequest); err != nil {
		return false
	}
	resp, err := bufio.NewReader(conn).ReadString('\n')
	return err == nil && resp == pongResponse
}
