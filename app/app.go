// Package app wires every component together in a strict start order:
// thin wiring, one supervisor, one error channel.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"hackhub/auth"
	"hackhub/chat"
	"hackhub/contract"
	"hackhub/facade"
	"hackhub/internal"
	"hackhub/mentors"
	"hackhub/moderation"
	"hackhub/projects"
	"hackhub/runtime/workers"
	"hackhub/snapshot"
	"hackhub/teams"
)

// App holds every wired component plus the supervisor that runs them.
type App struct {
	Config     internal.Config
	Store      *snapshot.Store
	Bus        *chat.Bus
	AuthHelper auth.Helper
	Teams      *teams.Registry
	Projects   *projects.Registry
	Mentors    *mentors.Registry
	Chat       *chat.Server
	Facade     *facade.Facade
	Supervisor *workers.Supervisor
}

// New builds every component and registers its kernel with the
// supervisor in start order: PubSub bus, optional auth helper, Team,
// Project, (chat if elected), Mentor. Every node builds a chat.Server;
// only the elected holder's kernel is registered with the supervisor,
// so a follower's Server always routes through its RemoteClient.
func New(cfg internal.Config, log *slog.Logger) (*App, error) {
	store, err := snapshot.New(cfg.SnapshotDir, log)
	if err != nil {
		return nil, fmt.Errorf("snapshot store: %w", err)
	}

	// 1. PubSub bus.
	bus := chat.NewBus()

	// 2. Optional auth helper.
	authHelper := auth.NewNoopHelper()

	sup := workers.NewSupervisor(log)

	// 3. Team Registry.
	teamsReg := teams.New(store, cfg.BufferSize)
	sup.Add(teamsReg.Kernel())

	// 4. Project Registry.
	projectsReg := projects.New(store, cfg.BufferSize)
	sup.Add(projectsReg.Kernel())

	// 5. Chat Server. A follower still builds one, wired with a
	// RemoteClient that forwards every call to the holder; its own
	// kernel is simply never registered with the supervisor, since
	// Server routes every public method away from it when elector
	// reports this node isn't the holder.
	censorRune, err := cfg.CharacterRune()
	if err != nil {
		return nil, err
	}
	mod, err := moderation.NewHackathonModerator(censorRune)
	if err != nil {
		return nil, fmt.Errorf("moderator: %w", err)
	}

	elector := buildElector(cfg)
	var remote chat.ChatClusterServer
	if !elector.IsLeader() {
		client := chat.NewRemoteClient()
		remote, err = client.Dial(holderAddress(cfg, elector.LeaderID()))
		if err != nil {
			return nil, fmt.Errorf("dial chat holder: %w", err)
		}
	}

	chatServer := chat.New(cfg.NodeID, store, bus, elector, remote, &mod, log, clusterPeers(cfg), cfg.BufferSize)
	if elector.IsLeader() {
		sup.Add(chatServer.Kernel())
		// Only the elected holder serves ChatClusterServer: followers
		// dial out via the RemoteClient built above instead.
		sup.Add(chat.NewGRPCServer(fmt.Sprintf(":%d", cfg.Port), chatServer, log))
	}

	// 6. Mentor Registry (cross-writes into Project Registry).
	mentorsReg := mentors.New(store, projectsReg, cfg.BufferSize)
	sup.Add(mentorsReg.Kernel())

	// 7. Optional periodic full-state persist, independent of each
	// registry's own on-mutation snapshot writes.
	if cfg.SnapshotInterval > 0 {
		var chatLister snapshot.ChatLister
		if elector.IsLeader() {
			chatLister = chatServer
		}
		sup.Add(snapshot.NewPersistWorker(store, teamsReg, projectsReg, mentorsReg, chatLister, cfg.SnapshotInterval, log))
	}

	f := facade.New(teamsReg, projectsReg, mentorsReg, chatServer, store)

	return &App{
		Config:     cfg,
		Store:      store,
		Bus:        bus,
		AuthHelper: authHelper,
		Teams:      teamsReg,
		Projects:   projectsReg,
		Mentors:    mentorsReg,
		Chat:       chatServer,
		Facade:     f,
		Supervisor: sup,
	}, nil
}

func buildElector(cfg internal.Config) chat.Elector {
	if cfg.ClusterSize <= 1 {
		return chat.NewLocalElector(cfg.NodeID)
	}
	members := make([]string, cfg.ClusterSize)
	for i := range members {
		members[i] = fmt.Sprintf("node-%d", i+1)
	}
	return chat.NewStaticElector(cfg.NodeID, members)
}

// holderAddress derives a gRPC dial target for a peer node from its ID,
// assuming each node is independently addressable by hostname on the
// cluster's shared port — adequate for the small, short-lived clusters
// this system targets, not a horizontally-sharded deployment.
func holderAddress(cfg internal.Config, nodeID string) string {
	return fmt.Sprintf("%s:%d", nodeID, cfg.Port)
}

func clusterPeers(cfg internal.Config) []string {
	if cfg.ClusterSize <= 1 {
		return nil
	}
	peers := make([]string, cfg.ClusterSize)
	for i := range peers {
		peers[i] = fmt.Sprintf("node-%d", i+1)
	}
	return peers
}

// Run blocks until ctx is canceled, running every registered worker
// under supervision.
func (a *App) Run(ctx context.Context) {
	a.Supervisor.Run(ctx)
}

var _ contract.ISupervisor = (*workers.Supervisor)(nil)
