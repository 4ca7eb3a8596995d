package grpcserver

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/milad/desconotify/internal/domain"
	"github.com/milad/desconotify/internal/repo"
)

const ServiceName = "desconotify.v1.BalanceService"

// BalanceServiceServer serves the latest readings. Requests and responses are
// protobuf well-known types, so the service is registered without generated code.
type BalanceServiceServer interface {
	GetReading(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ListReadings(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
}

func RegisterBalanceServiceServer(s grpc.ServiceRegistrar, srv BalanceServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BalanceServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetReading", Handler: getReadingHandler},
		{MethodName: "ListReadings", Handler: listReadingsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "desconotify/v1/balance.proto",
}

func getReadingHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BalanceServiceServer).GetReading(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/GetReading"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BalanceServiceServer).GetReading(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func listReadingsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BalanceServiceServer).ListReadings(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/ListReadings"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BalanceServiceServer).ListReadings(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

var _ BalanceServiceServer = (*Server)(nil)

type Server struct {
	store repo.SnapshotStore
}

func New(store repo.SnapshotStore) *Server {
	return &Server{store: store}
}

func (s *Server) GetReading(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	acct := strings.TrimSpace(req.GetValue())
	if acct == "" {
		return nil, status.Error(codes.InvalidArgument, "account number is required")
	}

	snap, err := s.store.Get(ctx, acct)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, status.Errorf(codes.NotFound, "no reading for account %s", acct)
		}
		return nil, status.Error(codes.Internal, "internal error")
	}

	out, err := structpb.NewStruct(snapshotFields(snap))
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func (s *Server) ListReadings(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	snaps, err := s.store.List(ctx)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}

	items := make([]any, 0, len(snaps))
	for _, snap := range snaps {
		items = append(items, snapshotFields(snap))
	}
	out, err := structpb.NewList(items)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

// snapshotFields keeps decimals as strings so they survive the float64 in
// structpb.Value unchanged.
func snapshotFields(snap domain.Snapshot) map[string]any {
	return map[string]any{
		"meter":                   snap.Meter,
		"accountNo":               snap.Reading.AccountNo,
		"meterNo":                 snap.Reading.MeterNo,
		"balance":                 snap.Reading.Balance.String(),
		"currentMonthConsumption": snap.Reading.CurrentMonthConsumption.String(),
		"readingTime":             snap.Reading.ReadingTime,
		"checkedAt":               snap.CheckedAt.UTC().Format(time.RFC3339),
	}
}

// HealthStatus maps a run outcome onto the gRPC health protocol.
func HealthStatus(r domain.RunResult) healthpb.HealthCheckResponse_ServingStatus {
	if r.OK() {
		return healthpb.HealthCheckResponse_SERVING
	}
	return healthpb.HealthCheckResponse_NOT_SERVING
}
