package rpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"agendo-api/internal/auth"
	"agendo-api/internal/middleware"
	"agendo-api/internal/model"
	"agendo-api/internal/schedule"
	"agendo-api/internal/store"
)

const secret = "test-secret"

var brt = time.FixedZone("BRT", -3*60*60)

type fakeStore struct{}

func (fakeStore) ProviderService(_ context.Context, id string) (*model.ProviderService, error) {
	if id != "svc-1" {
		return nil, store.ErrNotFound
	}
	return &model.ProviderService{ID: id, ProviderID: "p1", DurationMinutes: 45, IsActive: true}, nil
}

func (fakeStore) ListAvailability(context.Context, string) ([]model.Availability, error) {
	return []model.Availability{{DayOfWeek: 2, StartTime: "14:00", EndTime: "16:00", IsAvailable: true}}, nil
}

func (fakeStore) ProviderBusy(context.Context, string, time.Time, time.Time) ([]model.Appointment, error) {
	return nil, nil
}

func (fakeStore) BlockedSlots(context.Context, string, time.Time, time.Time) ([]model.BlockedSlot, error) {
	return nil, nil
}

func (fakeStore) Appointment(_ context.Context, id string) (*model.Appointment, error) {
	if id != "apt-1" {
		return nil, store.ErrNotFound
	}
	return &model.Appointment{ID: id, ClientID: "c1", ProviderID: "p1", Status: model.StatusConfirmed, TotalCents: 5000}, nil
}

func dial(t *testing.T, rl *middleware.RateLimiter) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		middleware.RateLimit(rl),
		middleware.Auth(secret),
	))
	planner := schedule.NewPlanner(fakeStore{}, brt, 15*time.Minute).
		WithClock(func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, brt) })
	Register(srv, NewService(planner, fakeStore{}))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func withToken(t *testing.T, uid string, role model.Role) context.Context {
	t.Helper()
	tok, err := auth.MakeToken(uid, role, secret)
	require.NoError(t, err)
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+tok)
}

func args(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestAvailableSlots(t *testing.T) {
	c := NewClient(dial(t, middleware.NewRateLimiter(100, 100)))

	out, err := c.AvailableSlots(context.Background(), args(t, map[string]any{
		"providerId": "p1", "serviceId": "svc-1", "date": "2026-03-10",
	}))
	require.NoError(t, err)
	m := out.AsMap()
	assert.Equal(t, float64(45), m["duration"])

	var labels []string
	for _, s := range m["slots"].([]any) {
		labels = append(labels, s.(map[string]any)["time"].(string))
	}
	// no interval set, so slots step by the service duration
	assert.Equal(t, []string{"14:00", "14:45"}, labels)
}

func TestAvailableSlotsErrors(t *testing.T) {
	c := NewClient(dial(t, middleware.NewRateLimiter(100, 100)))
	ctx := context.Background()

	_, err := c.AvailableSlots(ctx, args(t, map[string]any{"providerId": "p1"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.AvailableSlots(ctx, args(t, map[string]any{"providerId": "p1", "serviceId": "svc-1", "date": "amanhã"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = c.AvailableSlots(ctx, args(t, map[string]any{"providerId": "p2", "serviceId": "svc-1", "date": "2026-03-10"}))
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestAvailableSlotsRateLimited(t *testing.T) {
	c := NewClient(dial(t, middleware.NewRateLimiter(0.001, 1)))
	in := args(t, map[string]any{"providerId": "p1", "serviceId": "svc-1", "date": "2026-03-10"})

	_, err := c.AvailableSlots(context.Background(), in)
	require.NoError(t, err)
	_, err = c.AvailableSlots(context.Background(), in)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))
}

func TestGetAppointment(t *testing.T) {
	c := NewClient(dial(t, middleware.NewRateLimiter(100, 100)))
	in := args(t, map[string]any{"id": "apt-1"})

	_, err := c.GetAppointment(context.Background(), in)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	out, err := c.GetAppointment(withToken(t, "c1", model.RoleClient), in)
	require.NoError(t, err)
	assert.Equal(t, "confirmed", out.AsMap()["status"])
	assert.Equal(t, float64(5000), out.AsMap()["totalPrice"])

	_, err = c.GetAppointment(withToken(t, "c2", model.RoleClient), in)
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = c.GetAppointment(withToken(t, "adm", model.RoleAdmin), in)
	assert.NoError(t, err)

	_, err = c.GetAppointment(withToken(t, "c1", model.RoleClient), args(t, map[string]any{"id": "nope"}))
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestHealth(t *testing.T) {
	conn := dial(t, middleware.NewRateLimiter(100, 100))
	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}
