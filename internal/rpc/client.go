package rpc

import (
	"context"

	"google.golang.org/grpc"

	ckgrpc "github.com/msto63/cmdkit/pkg/core/grpc"
)

// Client calls the Commands service
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a connection; calls select the JSON codec themselves
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Dispatch runs one line as a short-lived caller
func (c *Client) Dispatch(ctx context.Context, req *DispatchRequest, opts ...grpc.CallOption) (*DispatchReply, error) {
	out := new(DispatchReply)
	if err := c.cc.Invoke(ctx, dispatchMethod, req, out, append([]grpc.CallOption{ckgrpc.JSON()}, opts...)...); err != nil {
		return nil, err
	}
	return out, nil
}

// Commands lists the commands available to programmatic callers
func (c *Client) Commands(ctx context.Context, opts ...grpc.CallOption) (*CommandsReply, error) {
	out := new(CommandsReply)
	if err := c.cc.Invoke(ctx, commandsMethod, &CommandsRequest{}, out, append([]grpc.CallOption{ckgrpc.JSON()}, opts...)...); err != nil {
		return nil, err
	}
	return out, nil
}

// Session opens a stream; the first Send must name the caller
func (c *Client) Session(ctx context.Context, opts ...grpc.CallOption) (grpc.BidiStreamingClient[SessionRequest, SessionEvent], error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], sessionMethod, append([]grpc.CallOption{ckgrpc.JSON()}, opts...)...)
	if err != nil {
		return nil, err
	}
	return &grpc.GenericClientStream[SessionRequest, SessionEvent]{ClientStream: stream}, nil
}
