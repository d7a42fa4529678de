package routingv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "dynamicrouting.v1.DynamicRouting"

const (
	DynamicRouting_PerformRouting_FullMethodName    = "/" + ServiceName + "/PerformRouting"
	DynamicRouting_UpdateWindow_FullMethodName      = "/" + ServiceName + "/UpdateWindow"
	DynamicRouting_InvalidateMetrics_FullMethodName = "/" + ServiceName + "/InvalidateMetrics"
	DynamicRouting_UpsertConfig_FullMethodName      = "/" + ServiceName + "/UpsertConfig"
	DynamicRouting_GetConfig_FullMethodName         = "/" + ServiceName + "/GetConfig"
)

// DynamicRoutingClient - клиентская сторона API.
type DynamicRoutingClient interface {
	PerformRouting(ctx context.Context, in *PerformRoutingRequest, opts ...grpc.CallOption) (*PerformRoutingResponse, error)
	UpdateWindow(ctx context.Context, in *UpdateWindowRequest, opts ...grpc.CallOption) (*UpdateWindowResponse, error)
	InvalidateMetrics(
		ctx context.Context,
		in *InvalidateMetricsRequest,
		opts ...grpc.CallOption,
	) (*InvalidateMetricsResponse, error)
	UpsertConfig(ctx context.Context, in *UpsertConfigRequest, opts ...grpc.CallOption) (*UpsertConfigResponse, error)
	GetConfig(ctx context.Context, in *GetConfigRequest, opts ...grpc.CallOption) (*GetConfigResponse, error)
}

type dynamicRoutingClient struct {
	cc grpc.ClientConnInterface
}

func NewDynamicRoutingClient(cc grpc.ClientConnInterface) DynamicRoutingClient {
	return &dynamicRoutingClient{cc}
}

func (c *dynamicRoutingClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *dynamicRoutingClient) PerformRouting(
	ctx context.Context,
	in *PerformRoutingRequest,
	opts ...grpc.CallOption,
) (*PerformRoutingResponse, error) {
	out := new(PerformRoutingResponse)
	if err := c.invoke(ctx, DynamicRouting_PerformRouting_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *dynamicRoutingClient) UpdateWindow(
	ctx context.Context,
	in *UpdateWindowRequest,
	opts ...grpc.CallOption,
) (*UpdateWindowResponse, error) {
	out := new(UpdateWindowResponse)
	if err := c.invoke(ctx, DynamicRouting_UpdateWindow_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *dynamicRoutingClient) InvalidateMetrics(
	ctx context.Context,
	in *InvalidateMetricsRequest,
	opts ...grpc.CallOption,
) (*InvalidateMetricsResponse, error) {
	out := new(InvalidateMetricsResponse)
	if err := c.invoke(ctx, DynamicRouting_InvalidateMetrics_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *dynamicRoutingClient) UpsertConfig(
	ctx context.Context,
	in *UpsertConfigRequest,
	opts ...grpc.CallOption,
) (*UpsertConfigResponse, error) {
	out := new(UpsertConfigResponse)
	if err := c.invoke(ctx, DynamicRouting_UpsertConfig_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *dynamicRoutingClient) GetConfig(
	ctx context.Context,
	in *GetConfigRequest,
	opts ...grpc.CallOption,
) (*GetConfigResponse, error) {
	out := new(GetConfigResponse)
	if err := c.invoke(ctx, DynamicRouting_GetConfig_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// DynamicRoutingServer - серверная сторона API.
type DynamicRoutingServer interface {
	PerformRouting(context.Context, *PerformRoutingRequest) (*PerformRoutingResponse, error)
	UpdateWindow(context.Context, *UpdateWindowRequest) (*UpdateWindowResponse, error)
	InvalidateMetrics(context.Context, *InvalidateMetricsRequest) (*InvalidateMetricsResponse, error)
	UpsertConfig(context.Context, *UpsertConfigRequest) (*UpsertConfigResponse, error)
	GetConfig(context.Context, *GetConfigRequest) (*GetConfigResponse, error)
}

// UnimplementedDynamicRoutingServer встраивается в реализации для совместимости вперёд.
type UnimplementedDynamicRoutingServer struct{}

func (UnimplementedDynamicRoutingServer) PerformRouting(
	context.Context, *PerformRoutingRequest,
) (*PerformRoutingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method PerformRouting not implemented")
}

func (UnimplementedDynamicRoutingServer) UpdateWindow(
	context.Context, *UpdateWindowRequest,
) (*UpdateWindowResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateWindow not implemented")
}

func (UnimplementedDynamicRoutingServer) InvalidateMetrics(
	context.Context, *InvalidateMetricsRequest,
) (*InvalidateMetricsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method InvalidateMetrics not implemented")
}

func (UnimplementedDynamicRoutingServer) UpsertConfig(
	context.Context, *UpsertConfigRequest,
) (*UpsertConfigResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpsertConfig not implemented")
}

func (UnimplementedDynamicRoutingServer) GetConfig(
	context.Context, *GetConfigRequest,
) (*GetConfigResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetConfig not implemented")
}

func RegisterDynamicRoutingServer(s grpc.ServiceRegistrar, srv DynamicRoutingServer) {
	s.RegisterService(&DynamicRouting_ServiceDesc, srv)
}

type methodHandler = func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error)

// unaryHandler строит обработчик метода по типу запроса и вызову сервера.
func unaryHandler[Req any](
	fullMethod string,
	call func(DynamicRoutingServer, context.Context, *Req) (any, error),
) methodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(DynamicRoutingServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(DynamicRoutingServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var DynamicRouting_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DynamicRoutingServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "PerformRouting",
			Handler: unaryHandler(DynamicRouting_PerformRouting_FullMethodName,
				func(s DynamicRoutingServer, ctx context.Context, in *PerformRoutingRequest) (any, error) {
					return s.PerformRouting(ctx, in)
				}),
		},
		{
			MethodName: "UpdateWindow",
			Handler: unaryHandler(DynamicRouting_UpdateWindow_FullMethodName,
				func(s DynamicRoutingServer, ctx context.Context, in *UpdateWindowRequest) (any, error) {
					return s.UpdateWindow(ctx, in)
				}),
		},
		{
			MethodName: "InvalidateMetrics",
			Handler: unaryHandler(DynamicRouting_InvalidateMetrics_FullMethodName,
				func(s DynamicRoutingServer, ctx context.Context, in *InvalidateMetricsRequest) (any, error) {
					return s.InvalidateMetrics(ctx, in)
				}),
		},
		{
			MethodName: "UpsertConfig",
			Handler: unaryHandler(DynamicRouting_UpsertConfig_FullMethodName,
				func(s DynamicRoutingServer, ctx context.Context, in *UpsertConfigRequest) (any, error) {
					return s.UpsertConfig(ctx, in)
				}),
		},
		{
			MethodName: "GetConfig",
			Handler: unaryHandler(DynamicRouting_GetConfig_FullMethodName,
				func(s DynamicRoutingServer, ctx context.Context, in *GetConfigRequest) (any, error) {
					return s.GetConfig(ctx, in)
				}),
		},
	},
	Streams: []grpc.StreamDesc{},
}
