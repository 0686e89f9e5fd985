package chat

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"

	"hackhub/contract"
)

// GRPCServer is the supervised worker that actually serves
// ChatClusterServer over the network: binding it is what turns a
// follower's RemoteClient.Dial into a real forwarded call instead of a
// dial against nothing. Only the elected holder registers one.
type GRPCServer struct {
	addr string
	srv  ChatClusterServer
	log  *slog.Logger
}

var _ contract.Worker = (*GRPCServer)(nil)

// NewGRPCServer builds a listener for srv bound to addr (":<port>",
// listening on every interface so peers can reach it by hostname).
func NewGRPCServer(addr string, srv ChatClusterServer, log *slog.Logger) *GRPCServer {
	return &GRPCServer{addr: addr, srv: srv, log: log}
}

// Run implements contract.Worker: it listens, serves until ctx is
// canceled, then stops gracefully. A restart by the supervisor rebinds
// the same address, since the listener is opened fresh on every call.
func (g *GRPCServer) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", g.addr)
	if err != nil {
		return fmt.Errorf("chat grpc listen %s: %w", g.addr, err)
	}

	s := grpc.NewServer()
	RegisterChatClusterServer(s, g.srv)

	errCh := make(chan error, 1)
	go func() {
		g.log.Info("chat cluster RPC listening", "addr", g.addr)
		errCh <- s.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		s.GracefulStop()
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}
