package facade

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hackhub/chat"
	"hackhub/domain"
	"hackhub/errors"
	"hackhub/mentors"
	"hackhub/projects"
	"hackhub/snapshot"
	"hackhub/teams"
)

func newTestFacade(t *testing.T) *Facade {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	store, err := snapshot.New(t.TempDir(), log)
	require.NoError(t, err)

	teamsReg := teams.New(store, 0)
	projectsReg := projects.New(store, 0)
	mentorsReg := mentors.New(store, projectsReg, 0)
	chatServer := chat.New("node-1", store, chat.NewBus(), chat.NewLocalElector("node-1"), nil, nil, log, nil, 0)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = teamsReg.Kernel().Run(ctx) }()
	go func() { _ = projectsReg.Kernel().Run(ctx) }()
	go func() { _ = mentorsReg.Kernel().Run(ctx) }()
	go func() { _ = chatServer.Kernel().Run(ctx) }()

	return New(teamsReg, projectsReg, mentorsReg, chatServer, store)
}

func TestFacade_DelegatesTeamOperations(t *testing.T) {
	req := require.New(t)
	f := newTestFacade(t)
	ctx := context.Background()

	_, err := f.CreateTeam(ctx, "Alpha", "AI")
	req.NoError(err)

	got, err := f.GetTeam(ctx, "Alpha")
	req.NoError(err)
	req.Equal("AI", got.Topic)
}

func TestFacade_ChatUnavailableWhenNoChatServer(t *testing.T) {
	req := require.New(t)
	f := newTestFacade(t)
	f.Chat = nil
	ctx := context.Background()

	_, err := f.CreateRoom(ctx, "team-alpha")
	req.ErrorIs(err, errors.ErrChatUnavailable)
}

func TestFacade_Reset_ClearsEverything(t *testing.T) {
	req := require.New(t)
	f := newTestFacade(t)
	ctx := context.Background()

	_, err := f.CreateTeam(ctx, "Alpha", "AI")
	req.NoError(err)
	_, err = f.CreateProject(ctx, "Alpha", "app", domain.CategorySocial)
	req.NoError(err)

	req.NoError(f.Reset(ctx))

	teamsList, err := f.ListTeams(ctx)
	req.NoError(err)
	req.Empty(teamsList)

	projectsList, err := f.ListAllProjects(ctx)
	req.NoError(err)
	req.Empty(projectsList)

	rooms, err := f.ListRooms(ctx)
	req.NoError(err)
	req.Equal([]string{chat.GeneralRoom}, rooms)
}

func TestFacade_SubscribeUnsubscribe_ReceivesPublishedEvent(t *testing.T) {
	req := require.New(t)
	f := newTestFacade(t)
	ctx := context.Background()

	ch, token := f.Subscribe(chat.GeneralRoom)
	req.NotNil(ch)
	defer f.Unsubscribe(chat.GeneralRoom, token)

	req.NoError(f.SendMessage(ctx, chat.GeneralRoom, "ana", "hi there"))

	select {
	case ev := <-ch:
		req.Equal("hi there", ev.Message.Content)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for published event")
	}
}

func TestFacade_Subscribe_NilChatReturnsNoChannel(t *testing.T) {
	req := require.New(t)
	f := newTestFacade(t)
	f.Chat = nil

	ch, token := f.Subscribe(chat.GeneralRoom)
	req.Nil(ch)
	req.Equal(-1, token)

	f.Unsubscribe(chat.GeneralRoom, token)
}

func TestFacade_ClearAll_WipesSnapshotDir(t *testing.T) {
	req := require.New(t)
	f := newTestFacade(t)
	ctx := context.Background()

	_, err := f.CreateTeam(ctx, "Alpha", "AI")
	req.NoError(err)
	req.NoError(f.PersistState(ctx))

	req.NoError(f.ClearAll())

	info, err := f.PersistInfo()
	req.NoError(err)
	req.Equal(0, info.TeamCount)
}

func TestFacade_PersistState_WritesSnapshot(t *testing.T) {
	req := require.New(t)
	f := newTestFacade(t)
	ctx := context.Background()

	_, err := f.CreateTeam(ctx, "Alpha", "AI")
	req.NoError(err)

	req.NoError(f.PersistState(ctx))

	info, err := f.PersistInfo()
	req.NoError(err)
	req.Equal(1, info.TeamCount)
}

func TestFacade_PersistState_NilChatDoesNotPanic(t *testing.T) {
	req := require.New(t)
	f := newTestFacade(t)
	f.Chat = nil
	ctx := context.Background()

	req.NoError(f.PersistState(ctx))
}
