// Package rpc exposes slot lookup and appointment reads to internal callers
// over gRPC. Messages are google.protobuf.Struct so no generated code is
// needed; the field names match the JSON API.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"agendo-api/internal/middleware"
	"agendo-api/internal/model"
	"agendo-api/internal/schedule"
	"agendo-api/internal/slots"
	"agendo-api/internal/store"
)

const ServiceName = "agendo.v1.Scheduling"

type SchedulingServer interface {
	AvailableSlots(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	GetAppointment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SchedulingServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AvailableSlots", Handler: unary("AvailableSlots", SchedulingServer.AvailableSlots)},
		{MethodName: "GetAppointment", Handler: unary("GetAppointment", SchedulingServer.GetAppointment)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "agendo/v1/scheduling",
}

type methodFunc func(SchedulingServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call methodFunc) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	full := "/" + ServiceName + "/" + name
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SchedulingServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(srv.(SchedulingServer), ctx, req.(*structpb.Struct))
		})
	}
}

type AppointmentReader interface {
	Appointment(ctx context.Context, id string) (*model.Appointment, error)
}

type Service struct {
	planner *schedule.Planner
	store   AppointmentReader
}

func NewService(planner *schedule.Planner, st AppointmentReader) *Service {
	return &Service{planner: planner, store: st}
}

// Register adds the scheduling and health services to s. The returned health
// server lets the caller flip to NOT_SERVING during shutdown.
func Register(s *grpc.Server, svc *Service) *health.Server {
	s.RegisterService(&ServiceDesc, svc)
	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	return hs
}

func str(in *structpb.Struct, key string) string {
	if v, ok := in.GetFields()[key]; ok {
		return v.GetStringValue()
	}
	return ""
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, schedule.ErrNoService):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, slots.ErrBadClock), errors.Is(err, slots.ErrBadDuration):
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	return status.Error(codes.Internal, "internal error")
}

func (s *Service) AvailableSlots(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	providerID, serviceID, date := str(in, "providerId"), str(in, "serviceId"), str(in, "date")
	if providerID == "" || serviceID == "" || date == "" {
		return nil, status.Error(codes.InvalidArgument, "providerId, serviceId and date are required")
	}
	if _, err := slots.ParseDate(date, s.planner.Location()); err != nil {
		return nil, status.Error(codes.InvalidArgument, "date must be YYYY-MM-DD")
	}

	got, svc, err := s.planner.Available(ctx, providerID, serviceID, date)
	if err != nil {
		return nil, toStatus(err)
	}
	list := make([]any, 0, len(got))
	for _, sl := range got {
		list = append(list, map[string]any{
			"startTime": sl.Start.Format(time.RFC3339),
			"endTime":   sl.End.Format(time.RFC3339),
			"time":      sl.Label(s.planner.Location()),
		})
	}
	return structpb.NewStruct(map[string]any{
		"date":     date,
		"duration": svc.DurationMinutes,
		"slots":    list,
	})
}

// GetAppointment returns the appointment if the caller takes part in it.
func (s *Service) GetAppointment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	uid, role, ok := middleware.FromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "no caller")
	}
	id := str(in, "id")
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	a, err := s.store.Appointment(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	if role != model.RoleAdmin && a.ClientID != uid && a.ProviderID != uid {
		return nil, status.Error(codes.NotFound, "not found")
	}
	return toStruct(a)
}

// toStruct goes through JSON so the message carries the same field names as
// the HTTP API.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode")
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, status.Error(codes.Internal, "encode")
	}
	return out, nil
}

// Client calls the scheduling service on an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) AvailableSlots(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/AvailableSlots", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetAppointment(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/GetAppointment", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
