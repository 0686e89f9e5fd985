// Package snapshot implements the Snapshot Store: one whole-file,
// crash-safe binary snapshot per registry, with a legacy ordered-list
// bootstrap fallback. Every write goes through a serialize-then-write
// discipline: marshal to a temp file, then rename over the real path,
// so a crash mid-write never leaves a partial snapshot in place.
package snapshot

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shirou/gopsutil/process"
	"github.com/vmihailenco/msgpack/v5"

	"hackhub/contract"
	"hackhub/domain"
)

const (
	teamsFile    = "teams.etf"
	projectsFile = "projects.etf"
	mentorsFile  = "mentors.etf"
	chatDir      = "chat"
	chatIndex    = "index.etf"
)

// defaultProject is substituted into PersistState's projects snapshot
// when the live Project Registry call fails, so a single unavailable
// registry never fails the whole persist operation.
var defaultProject = domain.Project{TeamName: "unknown", Description: "unavailable", Category: domain.CategorySocial, State: domain.StateIniciado}

// Store is the base-directory-rooted snapshot persistence layer. It
// implements the Snapshotter interfaces expected by teams.Registry,
// projects.Registry, mentors.Registry, and chat.Server.
type Store struct {
	baseDir string
	log     *slog.Logger
}

func New(baseDir string, log *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(baseDir, chatDir), 0o755); err != nil {
		return nil, err
	}
	return &Store{baseDir: baseDir, log: log}, nil
}

func (s *Store) path(name string) string { return filepath.Join(s.baseDir, name) }

// atomicWrite serializes v with msgpack and writes it to path via a
// temp-file-then-rename so a crash mid-write never leaves a partially
// written snapshot in place.
func atomicWrite(path string, v any) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// readFile returns the raw bytes of path, or nil with no error when the
// file is absent — callers treat a missing file as an empty snapshot.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	return data, err
}

// --- Teams ---------------------------------------------------------------

func (s *Store) LoadTeams() map[string]domain.Team {
	data, err := readFile(s.path(teamsFile))
	if err != nil || data == nil {
		return map[string]domain.Team{}
	}

	var asMap map[string]domain.Team
	if err := msgpack.Unmarshal(data, &asMap); err == nil {
		return asMap
	}

	var asList []domain.Team
	if err := msgpack.Unmarshal(data, &asList); err == nil {
		out := make(map[string]domain.Team, len(asList))
		for _, t := range asList {
			out[t.Name] = t
		}
		return out
	}

	s.log.Warn("teams snapshot corrupt, starting empty", "path", s.path(teamsFile))
	return map[string]domain.Team{}
}

func (s *Store) SaveTeams(teams map[string]domain.Team) error {
	return atomicWrite(s.path(teamsFile), teams)
}

// --- Projects --------------------------------------------------------------

func (s *Store) LoadProjects() map[string]domain.Project {
	data, err := readFile(s.path(projectsFile))
	if err != nil || data == nil {
		return map[string]domain.Project{}
	}

	var asMap map[string]domain.Project
	if err := msgpack.Unmarshal(data, &asMap); err == nil {
		return asMap
	}

	var asList []domain.Project
	if err := msgpack.Unmarshal(data, &asList); err == nil {
		out := make(map[string]domain.Project, len(asList))
		for _, p := range asList {
			out[p.TeamName] = p
		}
		return out
	}

	s.log.Warn("projects snapshot corrupt, starting empty", "path", s.path(projectsFile))
	return map[string]domain.Project{}
}

func (s *Store) SaveProjects(projects map[string]domain.Project) error {
	return atomicWrite(s.path(projectsFile), projects)
}

// --- Mentors --------------------------------------------------------------

func (s *Store) LoadMentors() map[string]domain.Mentor {
	data, err := readFile(s.path(mentorsFile))
	if err != nil || data == nil {
		return map[string]domain.Mentor{}
	}

	var asMap map[string]domain.Mentor
	if err := msgpack.Unmarshal(data, &asMap); err == nil {
		return asMap
	}

	var asList []domain.Mentor
	if err := msgpack.Unmarshal(data, &asList); err == nil {
		out := make(map[string]domain.Mentor, len(asList))
		for _, m := range asList {
			out[m.ID] = m
		}
		return out
	}

	s.log.Warn("mentors snapshot corrupt, starting empty", "path", s.path(mentorsFile))
	return map[string]domain.Mentor{}
}

func (s *Store) SaveMentors(mentors map[string]domain.Mentor) error {
	return atomicWrite(s.path(mentorsFile), mentors)
}

// --- Chat rooms -------------------------------------------------------------

func (s *Store) roomPath(name string) string {
	return filepath.Join(s.baseDir, chatDir, name+".etf")
}

func (s *Store) LoadRooms() map[string]*domain.Room {
	indexData, err := readFile(filepath.Join(s.baseDir, chatDir, chatIndex))
	if err != nil || indexData == nil {
		return map[string]*domain.Room{}
	}

	var names []string
	if err := msgpack.Unmarshal(indexData, &names); err != nil {
		s.log.Warn("chat index corrupt, starting empty", "path", chatIndex)
		return map[string]*domain.Room{}
	}

	rooms := make(map[string]*domain.Room, len(names))
	for _, name := range names {
		data, err := readFile(s.roomPath(name))
		if err != nil || data == nil {
			rooms[name] = domain.NewRoom(name)
			continue
		}
		var messages []domain.Message
		if err := msgpack.Unmarshal(data, &messages); err != nil {
			s.log.Warn("room snapshot corrupt, starting empty", "room", name)
			rooms[name] = domain.NewRoom(name)
			continue
		}
		rooms[name] = &domain.Room{Name: name, Messages: messages}
	}
	return rooms
}

func (s *Store) SaveRooms(rooms map[string]*domain.Room) error {
	names := make([]string, 0, len(rooms))
	for name := range rooms {
		names = append(names, name)
	}
	if err := atomicWrite(filepath.Join(s.baseDir, chatDir, chatIndex), names); err != nil {
		return err
	}
	for name, room := range rooms {
		if err := atomicWrite(s.roomPath(name), room.Messages); err != nil {
			return err
		}
	}
	return nil
}

// --- Aggregate operations ----------------------------------------------

// TeamLister, ProjectLister, MentorLister and ChatLister are the read
// surfaces PersistState pulls a live snapshot through; each registry
// satisfies the corresponding interface with its existing List method.
type TeamLister interface {
	ListTeams(ctx context.Context) ([]domain.Team, error)
}

type ProjectLister interface {
	ListAll(ctx context.Context) ([]domain.Project, error)
}

type MentorLister interface {
	ListMentors(ctx context.Context) ([]domain.Mentor, error)
}

type ChatLister interface {
	ListRooms(ctx context.Context) ([]string, error)
	History(ctx context.Context, room string, limit int) ([]domain.Message, error)
}

// PersistState takes a live snapshot of every registry and writes all
// files. A failing registry call is substituted with an empty mapping
// (chat) or defaultProject (projects), so a single unavailable registry
// never blocks persisting the others.
func (s *Store) PersistState(ctx context.Context, teams TeamLister, projects ProjectLister, mentors MentorLister, chatServer ChatLister) error {
	if teams != nil {
		if list, err := teams.ListTeams(ctx); err == nil {
			m := make(map[string]domain.Team, len(list))
			for _, t := range list {
				m[t.Name] = t
			}
			_ = s.SaveTeams(m)
		}
	}

	if projects != nil {
		m := map[string]domain.Project{}
		if list, err := projects.ListAll(ctx); err == nil {
			for _, p := range list {
				m[p.TeamName] = p
			}
		} else {
			m[defaultProject.TeamName] = defaultProject
		}
		_ = s.SaveProjects(m)
	}

	if mentors != nil {
		if list, err := mentors.ListMentors(ctx); err == nil {
			m := make(map[string]domain.Mentor, len(list))
			for _, mentor := range list {
				m[mentor.ID] = mentor
			}
			_ = s.SaveMentors(m)
		}
	}

	if chatServer != nil {
		rooms := map[string]*domain.Room{}
		if names, err := chatServer.ListRooms(ctx); err == nil {
			for _, name := range names {
				history, err := chatServer.History(ctx, name, 0)
				if err != nil {
					rooms[name] = domain.NewRoom(name)
					continue
				}
				newestFirst := make([]domain.Message, len(history))
				for i, m := range history {
					newestFirst[len(history)-1-i] = m
				}
				rooms[name] = &domain.Room{Name: name, Messages: newestFirst}
			}
		}
		_ = s.SaveRooms(rooms)
	}

	return nil
}

// PersistInfo reports per-file entity counts plus this process's own
// CPU/RAM via gopsutil, matching heartbeat.go's self-reporting pattern.
type PersistInfo struct {
	TeamCount    int     `json:"team_count"`
	ProjectCount int     `json:"project_count"`
	MentorCount  int     `json:"mentor_count"`
	RoomCount    int     `json:"room_count"`
	CPUPercent   float64 `json:"cpu_percent"`
	RSSBytes     uint64  `json:"rss_bytes"`
}

func (s *Store) PersistInfo() PersistInfo {
	info := PersistInfo{
		TeamCount:    len(s.LoadTeams()),
		ProjectCount: len(s.LoadProjects()),
		MentorCount:  len(s.LoadMentors()),
		RoomCount:    len(s.LoadRooms()),
	}

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return info
	}
	if cpu, err := p.CPUPercent(); err == nil {
		info.CPUPercent = cpu
	}
	if mem, err := p.MemoryInfo(); err == nil && mem != nil {
		info.RSSBytes = mem.RSS
	}
	return info
}

// PersistWorker runs PersistState on a fixed interval, giving the
// snapshot store a periodic full write independent of each registry's
// own on-mutation persistence. It implements contract.Worker so a
// Supervisor can run and restart it.
type PersistWorker struct {
	store    *Store
	teams    TeamLister
	projects ProjectLister
	mentors  MentorLister
	chat     ChatLister
	interval time.Duration
	log      *slog.Logger
}

var _ contract.Worker = (*PersistWorker)(nil)

// NewPersistWorker builds a worker that calls PersistState every
// interval. Any Lister argument may be nil when that registry isn't
// wired for this node.
func NewPersistWorker(store *Store, teams TeamLister, projects ProjectLister, mentors MentorLister, chat ChatLister, interval time.Duration, log *slog.Logger) *PersistWorker {
	return &PersistWorker{store: store, teams: teams, projects: projects, mentors: mentors, chat: chat, interval: interval, log: log}
}

// Run ticks every interval until ctx is canceled, persisting a full
// snapshot on each tick.
func (w *PersistWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.store.PersistState(ctx, w.teams, w.projects, w.mentors, w.chat); err != nil {
				w.log.Warn("periodic snapshot persist failed", "err", err)
			}
		}
	}
}

// ClearAll recursively removes and recreates the base directory,
// returning success unconditionally even when nothing existed to
// remove.
func (s *Store) ClearAll() error {
	if err := os.RemoveAll(s.baseDir); err != nil {
		return err
	}
	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return err
	}
	return os.MkdirAll(filepath.Join(s.baseDir, chatDir), 0o755)
}
