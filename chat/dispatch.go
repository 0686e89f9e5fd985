package chat

import (
	"fmt"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"hackhub/errors"
)

// RemoteClient lazily dials whichever peer address it is given and
// caches the connection, so a follower node doesn't redial on every
// forwarded SendMessage/History call.
type RemoteClient struct {
	mu    sync.Mutex
	conns map[string]*grpc.ClientConn
}

func NewRemoteClient() *RemoteClient {
	return &RemoteClient{conns: make(map[string]*grpc.ClientConn)}
}

// Dial returns a ChatClusterServer client bound to addr, reusing an
// existing connection when one is already open.
func (r *RemoteClient) Dial(addr string) (ChatClusterServer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conn, ok := r.conns[addr]; ok {
		return NewChatClusterClient(conn), nil
	}

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("%w: dial chat holder %s: %v", errors.ErrUnavailable, addr, err)
	}
	r.conns[addr] = conn
	return NewChatClusterClient(conn), nil
}

// Close tears down every cached connection.
func (r *RemoteClient) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for addr, conn := range r.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s: %w", addr, err)
		}
	}
	r.conns = make(map[string]*grpc.ClientConn)
	return firstErr
}
