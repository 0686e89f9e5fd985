package chat

import (
	"context"
	"log/slog"
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestGRPCServer_FollowerForwardsToLeader runs a real leader server
// behind a GRPCServer listener and a follower Server whose RemoteClient
// dials it, proving send_message and history genuinely cross the
// network instead of only being reachable in a single process.
func TestGRPCServer_FollowerForwardsToLeader(t *testing.T) {
	req := require.New(t)
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	req.NoError(err)
	addr := lis.Addr().String()
	req.NoError(lis.Close())

	leader := New("node-1", &fakeStore{}, NewBus(), NewLocalElector("node-1"), nil, nil, log, nil, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = leader.Kernel().Run(ctx) }()

	grpcSrv := NewGRPCServer(addr, leader, log)
	go func() { _ = grpcSrv.Run(ctx) }()
	waitForDial(t, addr)

	remoteClient := NewRemoteClient()
	defer remoteClient.Close()
	remote, err := remoteClient.Dial(addr)
	req.NoError(err)

	follower := New("node-2", &fakeStore{}, NewBus(), followerElector{leader: "node-1"}, remote, nil, log, nil, 0)

	req.NoError(follower.SendMessage(ctx, GeneralRoom, "ana", "hello from node-2"))

	var content string
	for i := 0; i < 200; i++ {
		msgs, err := leader.History(context.Background(), GeneralRoom, 0)
		req.NoError(err)
		if len(msgs) > 0 {
			content = msgs[0].Content
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	req.Equal("hello from node-2", content)

	fetched, err := follower.History(ctx, GeneralRoom, 0)
	req.NoError(err)
	req.Len(fetched, 1)
	req.Equal("hello from node-2", fetched[0].Content)
}

// TestGRPCServer_FollowerForwardsAdminOps proves create_room, list_rooms,
// and reset are dispatched transparently to the holder too, not just
// send_message/history.
func TestGRPCServer_FollowerForwardsAdminOps(t *testing.T) {
	req := require.New(t)
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	req.NoError(err)
	addr := lis.Addr().String()
	req.NoError(lis.Close())

	leader := New("node-1", &fakeStore{}, NewBus(), NewLocalElector("node-1"), nil, nil, log, nil, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = leader.Kernel().Run(ctx) }()

	grpcSrv := NewGRPCServer(addr, leader, log)
	go func() { _ = grpcSrv.Run(ctx) }()
	waitForDial(t, addr)

	remoteClient := NewRemoteClient()
	defer remoteClient.Close()
	remote, err := remoteClient.Dial(addr)
	req.NoError(err)

	follower := New("node-2", &fakeStore{}, NewBus(), followerElector{leader: "node-1"}, remote, nil, log, nil, 0)

	name, err := follower.CreateRoom(ctx, "team-alpha")
	req.NoError(err)
	req.Equal("team-alpha", name)

	rooms, err := follower.ListRooms(ctx)
	req.NoError(err)
	req.Contains(rooms, "team-alpha")
	req.Contains(rooms, GeneralRoom)

	leaderRooms, err := leader.ListRooms(ctx)
	req.NoError(err)
	req.Contains(leaderRooms, "team-alpha")

	req.NoError(follower.SendMessage(ctx, GeneralRoom, "ana", "about to reset"))
	req.Eventually(func() bool {
		msgs, err := leader.History(ctx, GeneralRoom, 0)
		return err == nil && len(msgs) > 0
	}, time.Second, 5*time.Millisecond)

	req.NoError(follower.Reset(ctx))

	afterReset, err := leader.ListRooms(ctx)
	req.NoError(err)
	req.NotContains(afterReset, "team-alpha")
	req.Contains(afterReset, GeneralRoom)
}

// followerElector always reports the given node as leader and this
// node as never being it, forcing every call through RemoteClient.
type followerElector struct {
	leader string
}

func (f followerElector) IsLeader() bool   { return false }
func (f followerElector) LeaderID() string { return f.leader }

func waitForDial(t *testing.T, addr string) {
	t.Helper()
	for i := 0; i < 200; i++ {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("grpc server never started listening on %s", addr)
}
