package chat

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hackhub/domain"
	"hackhub/errors"
)

type fakeStore struct {
	saved map[string]*domain.Room
}

func (f *fakeStore) LoadRooms() map[string]*domain.Room {
	if f.saved != nil {
		return f.saved
	}
	return map[string]*domain.Room{}
}

func (f *fakeStore) SaveRooms(m map[string]*domain.Room) error {
	f.saved = m
	return nil
}

func newRunningServer(t *testing.T) *Server {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	s := New("node-1", &fakeStore{}, NewBus(), NewLocalElector("node-1"), nil, nil, log, nil, 0)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = s.Kernel().Run(ctx) }()
	return s
}

func TestServer_GeneralRoomSeeded(t *testing.T) {
	req := require.New(t)
	s := newRunningServer(t)
	ctx := context.Background()

	rooms, err := s.ListRooms(ctx)
	req.NoError(err)
	req.Contains(rooms, GeneralRoom)
}

func TestServer_CreateRoomDuplicate(t *testing.T) {
	req := require.New(t)
	s := newRunningServer(t)
	ctx := context.Background()

	_, err := s.CreateRoom(ctx, "team-alpha")
	req.NoError(err)

	_, err = s.CreateRoom(ctx, "team-alpha")
	req.ErrorIs(err, errors.ErrRoomExists)
}

func TestServer_SendMessage_HistoryOldestFirst(t *testing.T) {
	req := require.New(t)
	s := newRunningServer(t)
	ctx := context.Background()

	req.NoError(s.SendMessage(ctx, GeneralRoom, "ana", "hello"))
	req.NoError(s.SendMessage(ctx, GeneralRoom, "ana", "world"))

	// Cast is fire-and-forget; give the kernel a moment to apply both.
	waitForHistoryLen(t, s, GeneralRoom, 2)

	history, err := s.History(ctx, GeneralRoom, 0)
	req.NoError(err)
	req.Len(history, 2)
	req.Equal("hello", history[0].Content)
	req.Equal("world", history[1].Content)
}

func TestServer_SendMessage_MissingRoomSilentlyDropped(t *testing.T) {
	req := require.New(t)
	s := newRunningServer(t)
	ctx := context.Background()

	req.NoError(s.SendMessage(ctx, "does-not-exist", "ana", "hello"))

	_, err := s.History(ctx, "does-not-exist", 0)
	req.ErrorIs(err, errors.ErrRoomNotFound)
}

func TestServer_History_RoomNotFound(t *testing.T) {
	req := require.New(t)
	s := newRunningServer(t)
	ctx := context.Background()

	_, err := s.History(ctx, "nope", 0)
	req.ErrorIs(err, errors.ErrRoomNotFound)
}

func TestServer_Subscribe_ReceivesPublishedEvent(t *testing.T) {
	req := require.New(t)
	s := newRunningServer(t)
	ctx := context.Background()

	ch, token := s.Subscribe(GeneralRoom)
	defer s.Unsubscribe(GeneralRoom, token)

	req.NoError(s.SendMessage(ctx, GeneralRoom, "ana", "hi"))

	evt := <-ch
	req.Equal(GeneralRoom, evt.Room)
	req.Equal("hi", evt.Message.Content)
}

func TestServer_Reset_KeepsOnlyGeneral(t *testing.T) {
	req := require.New(t)
	s := newRunningServer(t)
	ctx := context.Background()

	_, err := s.CreateRoom(ctx, "team-alpha")
	req.NoError(err)

	req.NoError(s.Reset(ctx))

	rooms, err := s.ListRooms(ctx)
	req.NoError(err)
	req.Equal([]string{GeneralRoom}, rooms)
}

func TestServer_History_LimitCapsToMostRecent(t *testing.T) {
	req := require.New(t)
	s := newRunningServer(t)
	ctx := context.Background()

	req.NoError(s.SendMessage(ctx, GeneralRoom, "ana", "one"))
	req.NoError(s.SendMessage(ctx, GeneralRoom, "ana", "two"))
	req.NoError(s.SendMessage(ctx, GeneralRoom, "ana", "three"))
	waitForHistoryLen(t, s, GeneralRoom, 3)

	history, err := s.History(ctx, GeneralRoom, 2)
	req.NoError(err)
	req.Len(history, 2)
	req.Equal("two", history[0].Content)
	req.Equal("three", history[1].Content)
}

func TestServer_ClusterInfo_ReportsHolder(t *testing.T) {
	req := require.New(t)
	s := newRunningServer(t)

	info, err := s.ClusterInfo()
	req.NoError(err)
	req.True(info.IsHolder)
	req.Equal("node-1", info.HolderID)
}

func waitForHistoryLen(t *testing.T, s *Server, room string, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < 100; i++ {
		history, err := s.History(ctx, room, 0)
		if err == nil && len(history) >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("history for %s did not reach length %d", room, n)
}
