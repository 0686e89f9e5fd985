package chat

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// jsonCodecName is registered with grpc's global encoding registry so
// that both RemoteClient and the cluster-facing server use plain JSON
// on the wire. Without a protoc invocation available, ChatCluster's
// request/response envelopes below are hand-written Go structs instead
// of generated protobuf messages, carried over grpc's codec extension
// point rather than the default proto codec.
const jsonCodecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return jsonCodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// SendMessageRequest/Response and HistoryRequest/Response are the
// ChatCluster wire envelopes, forwarded from a follower node to the
// elected leader.
type SendMessageRequest struct {
	Room    string `json:"room"`
	Author  string `json:"author"`
	Content string `json:"content"`
}

type SendMessageResponse struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error,omitempty"`
}

type HistoryRequest struct {
	Room  string `json:"room"`
	Limit int    `json:"limit"`
}

type HistoryResponse struct {
	Messages []Message `json:"messages"`
	Error    string    `json:"error,omitempty"`
}

// CreateRoomRequest/Response, ListRoomsRequest/Response, and
// ResetRequest/Response round out the ChatCluster envelopes: every
// chat operation is transparently dispatched to the holder, not just
// send_message/history.
type CreateRoomRequest struct {
	Name string `json:"name"`
}

type CreateRoomResponse struct {
	Name  string `json:"name"`
	Error string `json:"error,omitempty"`
}

type ListRoomsRequest struct{}

type ListRoomsResponse struct {
	Rooms []string `json:"rooms"`
	Error string   `json:"error,omitempty"`
}

type ResetRequest struct{}

type ResetResponse struct {
	Error string `json:"error,omitempty"`
}

// ChatClusterServer is implemented by Server to accept forwarded calls
// from follower nodes.
type ChatClusterServer interface {
	RPCSendMessage(ctx context.Context, req *SendMessageRequest) (*SendMessageResponse, error)
	RPCHistory(ctx context.Context, req *HistoryRequest) (*HistoryResponse, error)
	RPCCreateRoom(ctx context.Context, req *CreateRoomRequest) (*CreateRoomResponse, error)
	RPCListRooms(ctx context.Context, req *ListRoomsRequest) (*ListRoomsResponse, error)
	RPCReset(ctx context.Context, req *ResetRequest) (*ResetResponse, error)
}

const chatClusterServiceName = "hackhub.chat.ChatCluster"

// chatClusterServiceDesc is the hand-authored equivalent of a
// protoc-generated grpc.ServiceDesc: method names and handler
// trampolines wired by hand instead of through *_grpc.pb.go.
var chatClusterServiceDesc = grpc.ServiceDesc{
	ServiceName: chatClusterServiceName,
	HandlerType: (*ChatClusterServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SendMessage",
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				req := new(SendMessageRequest)
				if err := dec(req); err != nil {
					return nil, err
				}
				if interceptor == nil {
					return srv.(ChatClusterServer).RPCSendMessage(ctx, req)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + chatClusterServiceName + "/SendMessage"}
				handler := func(ctx context.Context, req any) (any, error) {
					return srv.(ChatClusterServer).RPCSendMessage(ctx, req.(*SendMessageRequest))
				}
				return interceptor(ctx, req, info, handler)
			},
		},
		{
			MethodName: "History",
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				req := new(HistoryRequest)
				if err := dec(req); err != nil {
					return nil, err
				}
				if interceptor == nil {
					return srv.(ChatClusterServer).RPCHistory(ctx, req)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + chatClusterServiceName + "/History"}
				handler := func(ctx context.Context, req any) (any, error) {
					return srv.(ChatClusterServer).RPCHistory(ctx, req.(*HistoryRequest))
				}
				return interceptor(ctx, req, info, handler)
			},
		},
		{
			MethodName: "CreateRoom",
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				req := new(CreateRoomRequest)
				if err := dec(req); err != nil {
					return nil, err
				}
				if interceptor == nil {
					return srv.(ChatClusterServer).RPCCreateRoom(ctx, req)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + chatClusterServiceName + "/CreateRoom"}
				handler := func(ctx context.Context, req any) (any, error) {
					return srv.(ChatClusterServer).RPCCreateRoom(ctx, req.(*CreateRoomRequest))
				}
				return interceptor(ctx, req, info, handler)
			},
		},
		{
			MethodName: "ListRooms",
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				req := new(ListRoomsRequest)
				if err := dec(req); err != nil {
					return nil, err
				}
				if interceptor == nil {
					return srv.(ChatClusterServer).RPCListRooms(ctx, req)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + chatClusterServiceName + "/ListRooms"}
				handler := func(ctx context.Context, req any) (any, error) {
					return srv.(ChatClusterServer).RPCListRooms(ctx, req.(*ListRoomsRequest))
				}
				return interceptor(ctx, req, info, handler)
			},
		},
		{
			MethodName: "Reset",
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				req := new(ResetRequest)
				if err := dec(req); err != nil {
					return nil, err
				}
				if interceptor == nil {
					return srv.(ChatClusterServer).RPCReset(ctx, req)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + chatClusterServiceName + "/Reset"}
				handler := func(ctx context.Context, req any) (any, error) {
					return srv.(ChatClusterServer).RPCReset(ctx, req.(*ResetRequest))
				}
				return interceptor(ctx, req, info, handler)
			},
		},
	},
	Metadata: "chat/rpc_codec.go",
}

// RegisterChatClusterServer registers srv against s the same way a
// protoc-generated RegisterXServer function would.
func RegisterChatClusterServer(s grpc.ServiceRegistrar, srv ChatClusterServer) {
	s.RegisterService(&chatClusterServiceDesc, srv)
}

// chatClusterClient is the hand-written counterpart of a generated
// *chatServiceClient: thin method wrappers around ClientConn.Invoke.
type chatClusterClient struct {
	cc *grpc.ClientConn
}

func NewChatClusterClient(cc *grpc.ClientConn) ChatClusterServer {
	return &chatClusterClient{cc: cc}
}

func (c *chatClusterClient) RPCSendMessage(ctx context.Context, req *SendMessageRequest) (*SendMessageResponse, error) {
	resp := new(SendMessageResponse)
	method := "/" + chatClusterServiceName + "/SendMessage"
	if err := c.cc.Invoke(ctx, method, req, resp, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *chatClusterClient) RPCHistory(ctx context.Context, req *HistoryRequest) (*HistoryResponse, error) {
	resp := new(HistoryResponse)
	method := "/" + chatClusterServiceName + "/History"
	if err := c.cc.Invoke(ctx, method, req, resp, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *chatClusterClient) RPCCreateRoom(ctx context.Context, req *CreateRoomRequest) (*CreateRoomResponse, error) {
	resp := new(CreateRoomResponse)
	method := "/" + chatClusterServiceName + "/CreateRoom"
	if err := c.cc.Invoke(ctx, method, req, resp, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *chatClusterClient) RPCListRooms(ctx context.Context, req *ListRoomsRequest) (*ListRoomsResponse, error) {
	resp := new(ListRoomsResponse)
	method := "/" + chatClusterServiceName + "/ListRooms"
	if err := c.cc.Invoke(ctx, method, req, resp, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *chatClusterClient) RPCReset(ctx context.Context, req *ResetRequest) (*ResetResponse, error) {
	resp := new(ResetResponse)
	method := "/" + chatClusterServiceName + "/Reset"
	if err := c.cc.Invoke(ctx, method, req, resp, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return resp, nil
}
