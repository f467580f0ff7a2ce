package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"autoclicker/internal/logging"
	"autoclicker/internal/protocol"
)

// connTimeout bounds how long a single client may hold a connection.
const connTimeout = 10 * time.Second

// SocketServer serves requests on a Unix domain socket. Each connection
// carries one request: the client writes it and half-closes, the server
// replies and closes.
type SocketServer struct {
	path    string
	handler RequestHandler
	log     *logging.Logger
}

// NewSocketServer creates a server listening at path.
func NewSocketServer(path string, handler RequestHandler) *SocketServer {
	return &SocketServer{
		path:    path,
		handler: handler,
		log:     logging.New("Socket"),
	}
}

// Serve listens until ctx is cancelled, then removes the socket file.
func (s *SocketServer) Serve(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create socket directory: %w", err)
	}
	if err := s.removeStale(); err != nil {
		return err
	}

	ln, err := net.Listen("unix", s.path)
	if err != nil {
		return fmt.Errorf("could not create socket: %w", err)
	}
	s.log.Infof("listening on %s", s.path)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			s.log.Warnf("accept failed: %v", err)
			if errors.Is(err, net.ErrClosed) {
				break
			}
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.serveConn(ctx, conn)
		}()
	}

	wg.Wait()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not delete socket: %w", err)
	}
	s.log.Debugf("deleted socket")
	return nil
}

// removeStale deletes a leftover socket file unless another daemon answers on it.
func (s *SocketServer) removeStale() error {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if conn, err := net.DialTimeout("unix", s.path, time.Second); err == nil {
		conn.Close()
		return fmt.Errorf("another daemon is listening on %s", s.path)
	}
	s.log.Debugf("removing stale socket %s", s.path)
	return os.Remove(s.path)
}

func (s *SocketServer) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(connTimeout))

	data, err := io.ReadAll(io.LimitReader(conn, maxRequestSize))
	if err != nil {
		s.log.Warnf("failed to read stream: %v", err)
		return
	}

	if _, err := conn.Write(s.handler.Handle(ctx, data)); err != nil {
		s.log.Warnf("could not write to stream: %v", err)
	}
}

// SocketClient sends requests over a Unix domain socket
type SocketClient struct {
	path string
}

// NewSocketClient creates a client for the socket at path.
func NewSocketClient(path string) *SocketClient {
	return &SocketClient{path: path}
}

func (c *SocketClient) Send(ctx context.Context, msg protocol.Message) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.path)
	if err != nil {
		return fmt.Errorf("could not connect to socket: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	} else {
		conn.SetDeadline(time.Now().Add(connTimeout))
	}

	if _, err := conn.Write(protocol.Encode(msg)); err != nil {
		return fmt.Errorf("could not write to socket: %w", err)
	}
	if err := conn.(*net.UnixConn).CloseWrite(); err != nil {
		return fmt.Errorf("could not shutdown writing: %w", err)
	}

	reply, err := io.ReadAll(io.LimitReader(conn, maxRequestSize))
	if err != nil {
		return fmt.Errorf("could not read from socket: %w", err)
	}
	return checkReply(reply)
}

// Ready checks that the socket file exists.
func (c *SocketClient) Ready(ctx context.Context) error {
	if _, err := os.Stat(c.path); err != nil {
		return fmt.Errorf("%w: %s missing", ErrNotRunning, c.path)
	}
	return nil
}
