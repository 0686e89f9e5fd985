package chat

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"hackhub/domain"
	"hackhub/errors"
	"hackhub/kernel"
	"hackhub/moderation"
)

const (
	tagCreateRoom = "create_room"
	tagSend       = "send_message"
	tagHistory    = "history"
	tagListRooms  = "list_rooms"
	tagReset      = "reset"
)

// GeneralRoom is seeded into every fresh Chat Server on first start.
const GeneralRoom = domain.GeneralRoomName

type sendArgs struct {
	Room, Author, Content string
}

// Snapshotter persists room state: one file per room plus an index of
// room names (chat/index.etf + chat/<room>.etf).
type Snapshotter interface {
	LoadRooms() map[string]*domain.Room
	SaveRooms(map[string]*domain.Room) error
}

// Server is the Chat Server: the local node's room kernel, the pub/sub
// bus subscribers attach to, the election strategy deciding whether
// this node is the holder, and the client used to forward calls to
// whichever node is.
type Server struct {
	nodeID  string
	k       *kernel.Kernel[map[string]*domain.Room]
	store   Snapshotter
	bus     *Bus
	elector Elector
	remote  ChatClusterServer
	mod     *moderation.Moderator
	log     *slog.Logger
	peers   []string
}

// New builds a Chat Server. remote may be nil when this node is always
// its own holder (LocalElector); it is required when elector can ever
// report a different LeaderID. bufferSize bounds the kernel's request
// queue; pass 0 for kernel.DefaultBufferSize.
func New(nodeID string, store Snapshotter, bus *Bus, elector Elector, remote ChatClusterServer, mod *moderation.Moderator, log *slog.Logger, peers []string, bufferSize int) *Server {
	s := &Server{nodeID: nodeID, store: store, bus: bus, elector: elector, remote: remote, mod: mod, log: log, peers: peers}
	s.k = kernel.New("ChatServer", s.handle, func() map[string]*domain.Room {
		rooms := store.LoadRooms()
		if _, ok := rooms[GeneralRoom]; !ok {
			rooms[GeneralRoom] = domain.NewRoom(GeneralRoom)
		}
		return rooms
	}, bufferSize)
	return s
}

func (s *Server) Kernel() *kernel.Kernel[map[string]*domain.Room] { return s.k }

func (s *Server) handle(tag string, args any, state *map[string]*domain.Room) (any, error) {
	switch tag {
	case tagCreateRoom:
		name := args.(string)
		if _, ok := (*state)[name]; ok {
			return "", errors.ErrRoomExists
		}
		(*state)[name] = domain.NewRoom(name)
		_ = s.store.SaveRooms(*state)
		return name, nil

	case tagSend:
		a := args.(sendArgs)
		room, ok := (*state)[a.Room]
		if !ok {
			s.log.Warn("send_message dropped: room missing", "room", a.Room)
			return nil, nil
		}
		content := a.Content
		if s.mod != nil {
			content = s.mod.Censor(content)
		}
		msg := domain.NewMessage(a.Room, a.Author, content)
		room.PostMessage(msg)
		_ = s.store.SaveRooms(*state)
		s.bus.Publish(a.Room, Event{Room: a.Room, Message: Message{
			ID: msg.ID, Author: msg.Author, Content: msg.Content,
			Room: msg.Room, Timestamp: msg.Timestamp.Format(time.RFC3339Nano),
		}})
		return nil, nil

	case tagHistory:
		name := args.(string)
		room, ok := (*state)[name]
		if !ok {
			return nil, errors.ErrRoomNotFound
		}
		oldestFirst := make([]domain.Message, len(room.Messages))
		for i, m := range room.Messages {
			oldestFirst[len(room.Messages)-1-i] = m
		}
		return oldestFirst, nil

	case tagListRooms:
		names := make([]string, 0, len(*state))
		for name := range *state {
			names = append(names, name)
		}
		return names, nil

	case tagReset:
		*state = map[string]*domain.Room{GeneralRoom: domain.NewRoom(GeneralRoom)}
		_ = s.store.SaveRooms(*state)
		return nil, nil

	default:
		return nil, errors.ErrUnknownCommand
	}
}

const defaultTimeout = 5 * time.Second

func callTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// CreateRoom fails with errors.ErrRoomExists if name is already taken.
// When this node is not the holder, the call is forwarded as a real
// RPC to whoever is.
func (s *Server) CreateRoom(ctx context.Context, name string) (string, error) {
	if !s.elector.IsLeader() {
		if s.remote == nil {
			return "", errors.ErrChatUnavailable
		}
		ctx, cancel := callTimeout(ctx, defaultTimeout)
		defer cancel()
		resp, err := s.remote.RPCCreateRoom(ctx, &CreateRoomRequest{Name: name})
		if err != nil {
			return "", errors.ErrChatUnavailable
		}
		if resp.Error == errors.ErrRoomExists.Error() {
			return "", errors.ErrRoomExists
		}
		if resp.Error != "" {
			return "", errors.ErrChatUnavailable
		}
		return resp.Name, nil
	}
	ctx, cancel := callTimeout(ctx, defaultTimeout)
	defer cancel()
	v, err := s.k.Call(ctx, tagCreateRoom, name)
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// SendMessage is fire-and-forget against a local holder: a missing room
// silently drops the message (logged). When this node is not the
// holder, forwarding is a real RPC and its failure surfaces as
// errors.ErrChatUnavailable rather than blocking.
func (s *Server) SendMessage(ctx context.Context, room, author, content string) error {
	if !s.elector.IsLeader() {
		if s.remote == nil {
			return errors.ErrChatUnavailable
		}
		ctx, cancel := callTimeout(ctx, defaultTimeout)
		defer cancel()
		if _, err := s.remote.RPCSendMessage(ctx, &SendMessageRequest{Room: room, Author: author, Content: content}); err != nil {
			return errors.ErrChatUnavailable
		}
		return nil
	}
	s.k.Cast(tagSend, sendArgs{Room: room, Author: author, Content: content})
	return nil
}

// History returns messages oldest-first, capped to the most recent
// limit when limit > 0. When this node is not the holder, the call is
// forwarded as a real RPC to whoever is.
func (s *Server) History(ctx context.Context, room string, limit int) ([]domain.Message, error) {
	if !s.elector.IsLeader() {
		if s.remote == nil {
			return nil, errors.ErrChatUnavailable
		}
		ctx, cancel := callTimeout(ctx, defaultTimeout)
		defer cancel()
		resp, err := s.remote.RPCHistory(ctx, &HistoryRequest{Room: room, Limit: limit})
		if err != nil || resp.Error != "" {
			return nil, errors.ErrChatUnavailable
		}
		out := make([]domain.Message, len(resp.Messages))
		for i, m := range resp.Messages {
			ts, _ := time.Parse(time.RFC3339Nano, m.Timestamp)
			out[i] = domain.Message{ID: m.ID, Room: m.Room, Author: m.Author, Content: m.Content, Timestamp: ts}
		}
		return out, nil
	}
	ctx, cancel := callTimeout(ctx, defaultTimeout)
	defer cancel()
	v, err := s.k.Call(ctx, tagHistory, room)
	if err != nil {
		return nil, err
	}
	messages := v.([]domain.Message)
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages, nil
}

// ListRooms is a pure read over current state. When this node is not
// the holder, the call is forwarded as a real RPC to whoever is.
func (s *Server) ListRooms(ctx context.Context) ([]string, error) {
	if !s.elector.IsLeader() {
		if s.remote == nil {
			return nil, errors.ErrChatUnavailable
		}
		ctx, cancel := callTimeout(ctx, defaultTimeout)
		defer cancel()
		resp, err := s.remote.RPCListRooms(ctx, &ListRoomsRequest{})
		if err != nil || resp.Error != "" {
			return nil, errors.ErrChatUnavailable
		}
		return resp.Rooms, nil
	}
	ctx, cancel := callTimeout(ctx, defaultTimeout)
	defer cancel()
	v, err := s.k.Call(ctx, tagListRooms, nil)
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// Subscribe registers a listener for a room's topic on the local bus.
func (s *Server) Subscribe(room string) (<-chan Event, int) {
	return s.bus.Subscribe(room, 32)
}

// Unsubscribe releases a listener registered by Subscribe.
func (s *Server) Unsubscribe(room string, token int) {
	s.bus.Unsubscribe(room, token)
}

// Reset removes every room and leaves only an empty "general". When
// this node is not the holder, the call is forwarded as a real RPC to
// whoever is.
func (s *Server) Reset(ctx context.Context) error {
	if !s.elector.IsLeader() {
		if s.remote == nil {
			return errors.ErrChatUnavailable
		}
		ctx, cancel := callTimeout(ctx, defaultTimeout)
		defer cancel()
		resp, err := s.remote.RPCReset(ctx, &ResetRequest{})
		if err != nil || resp.Error != "" {
			return errors.ErrChatUnavailable
		}
		return nil
	}
	ctx, cancel := callTimeout(ctx, defaultTimeout)
	defer cancel()
	_, err := s.k.Call(ctx, tagReset, nil)
	return err
}

// ClusterInfo reports election state and host stats.
type ClusterInfo struct {
	NodeID     string   `json:"node_id"`
	IsHolder   bool     `json:"is_holder"`
	HolderID   string   `json:"holder_id"`
	Peers      []string `json:"peers"`
	CPUPercent float64  `json:"cpu_percent"`
	RSSBytes   uint64   `json:"rss_bytes"`
}

// ClusterInfo samples this process's own CPU/RAM via gopsutil for
// self-reporting.
func (s *Server) ClusterInfo() (ClusterInfo, error) {
	info := ClusterInfo{
		NodeID:   s.nodeID,
		IsHolder: s.elector.IsLeader(),
		HolderID: s.elector.LeaderID(),
		Peers:    s.peers,
	}

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return info, fmt.Errorf("cluster_info: %w", err)
	}
	if cpu, err := p.CPUPercent(); err == nil {
		info.CPUPercent = cpu
	}
	if mem, err := p.MemoryInfo(); err == nil && mem != nil {
		info.RSSBytes = mem.RSS
	}
	return info, nil
}

// LogElection logs one node-up/node-down style cluster event for
// nodeID together with the current holder. It only logs what it is
// given; it does not watch peers itself.
func (s *Server) LogElection(event string, nodeID string) {
	s.log.Info("chat cluster event", "event", event, "node_id", nodeID, "holder", s.elector.LeaderID())
}

// RPCSendMessage and RPCHistory implement ChatClusterServer: they are
// the handlers a follower's RemoteClient invokes over grpc, registered
// against this node only when this node is (or might become) the
// holder.
func (s *Server) RPCSendMessage(ctx context.Context, req *SendMessageRequest) (*SendMessageResponse, error) {
	if err := s.SendMessage(ctx, req.Room, req.Author, req.Content); err != nil {
		return &SendMessageResponse{Error: err.Error()}, nil
	}
	return &SendMessageResponse{}, nil
}

func (s *Server) RPCHistory(ctx context.Context, req *HistoryRequest) (*HistoryResponse, error) {
	messages, err := s.History(ctx, req.Room, req.Limit)
	if err != nil {
		return &HistoryResponse{Error: err.Error()}, nil
	}
	out := make([]Message, len(messages))
	for i, m := range messages {
		out[i] = Message{ID: m.ID, Author: m.Author, Content: m.Content, Room: m.Room, Timestamp: m.Timestamp.Format(time.RFC3339Nano)}
	}
	return &HistoryResponse{Messages: out}, nil
}

// RPCCreateRoom, RPCListRooms, and RPCReset round out ChatClusterServer:
// every chat operation dispatches transparently to the holder, not
// just send_message/history.
func (s *Server) RPCCreateRoom(ctx context.Context, req *CreateRoomRequest) (*CreateRoomResponse, error) {
	name, err := s.CreateRoom(ctx, req.Name)
	if err != nil {
		return &CreateRoomResponse{Error: err.Error()}, nil
	}
	return &CreateRoomResponse{Name: name}, nil
}

func (s *Server) RPCListRooms(ctx context.Context, req *ListRoomsRequest) (*ListRoomsResponse, error) {
	rooms, err := s.ListRooms(ctx)
	if err != nil {
		return &ListRoomsResponse{Error: err.Error()}, nil
	}
	return &ListRoomsResponse{Rooms: rooms}, nil
}

func (s *Server) RPCReset(ctx context.Context, req *ResetRequest) (*ResetResponse, error) {
	if err := s.Reset(ctx); err != nil {
		return &ResetResponse{Error: err.Error()}, nil
	}
	return &ResetResponse{}, nil
}
