package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agendo-api/internal/model"
	"agendo-api/internal/slots"
)

var brt = time.FixedZone("BRT", -3*60*60)

type fakeSource struct {
	services map[string]*model.ProviderService
	avail    []model.Availability
	busy     []model.Appointment
	blocked  []model.BlockedSlot
	busyFrom time.Time
}

func (f *fakeSource) ProviderService(_ context.Context, id string) (*model.ProviderService, error) {
	s, ok := f.services[id]
	if !ok {
		return nil, assert.AnError
	}
	return s, nil
}

func (f *fakeSource) ListAvailability(context.Context, string) ([]model.Availability, error) {
	return f.avail, nil
}

func (f *fakeSource) ProviderBusy(_ context.Context, _ string, from, _ time.Time) ([]model.Appointment, error) {
	f.busyFrom = from
	return f.busy, nil
}

func (f *fakeSource) BlockedSlots(context.Context, string, time.Time, time.Time) ([]model.BlockedSlot, error) {
	return f.blocked, nil
}

func source() *fakeSource {
	return &fakeSource{
		services: map[string]*model.ProviderService{
			"svc":      {ID: "svc", ProviderID: "p1", DurationMinutes: 60, IsActive: true},
			"inactive": {ID: "inactive", ProviderID: "p1", DurationMinutes: 60},
			"foreign":  {ID: "foreign", ProviderID: "p2", DurationMinutes: 60, IsActive: true},
		},
		// Tuesdays 09:00-12:00 every 30 minutes
		avail: []model.Availability{
			{DayOfWeek: 2, StartTime: "09:00", EndTime: "12:00", IntervalMinutes: 30, IsAvailable: true},
		},
	}
}

func at(h, m int) time.Time {
	return time.Date(2026, 3, 10, h, m, 0, 0, brt)
}

func planner(src Source) *Planner {
	return NewPlanner(src, brt, 15*time.Minute).WithClock(func() time.Time { return at(7, 0).AddDate(0, 0, -1) })
}

func labels(ss []slots.Slot) []string {
	var out []string
	for _, s := range ss {
		out = append(out, s.Label(brt))
	}
	return out
}

func TestAvailable(t *testing.T) {
	src := source()
	src.busy = []model.Appointment{{StartTime: at(10, 0), EndTime: at(11, 0)}}
	src.blocked = []model.BlockedSlot{{StartTime: at(9, 0), EndTime: at(9, 30)}}

	got, svc, err := planner(src).Available(context.Background(), "p1", "svc", "2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, "svc", svc.ID)
	assert.Equal(t, []string{"11:00"}, labels(got))
	assert.True(t, src.busyFrom.Equal(at(0, 0)))
}

func TestAvailableClosedDay(t *testing.T) {
	src := source()
	got, _, err := planner(src).Available(context.Background(), "p1", "svc", "2026-03-11")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.True(t, src.busyFrom.IsZero(), "no busy lookup on a closed day")
}

func TestServiceChecks(t *testing.T) {
	p := planner(source())
	for _, id := range []string{"inactive", "foreign"} {
		_, _, err := p.Available(context.Background(), "p1", id, "2026-03-10")
		assert.ErrorIs(t, err, ErrNoService, id)
	}
	_, _, err := p.Available(context.Background(), "p1", "missing", "2026-03-10")
	assert.ErrorIs(t, err, assert.AnError)

	_, _, err = p.Available(context.Background(), "p1", "svc", "10/03/2026")
	assert.Error(t, err)
}

func TestExplain(t *testing.T) {
	src := source()
	src.busy = []model.Appointment{{StartTime: at(10, 0), EndTime: at(11, 0)}}
	p := NewPlanner(src, brt, 15*time.Minute).WithClock(func() time.Time { return at(9, 20) })

	got, _, err := p.Explain(context.Background(), "p1", "svc", "2026-03-10")
	require.NoError(t, err)

	reasons := map[string]slots.Reason{}
	for _, c := range got {
		reasons[c.Label(brt)] = c.Reason
	}
	assert.Equal(t, map[string]slots.Reason{
		"09:00": slots.ReasonPast,
		"09:30": slots.ReasonPast,
		"10:00": slots.ReasonBusy,
		"10:30": slots.ReasonBusy,
		"11:00": slots.ReasonNone,
	}, reasons)
}

func TestOffered(t *testing.T) {
	p := planner(source())

	ok, svc, err := p.Offered(context.Background(), "p1", "svc", at(9, 30))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 60, svc.DurationMinutes)

	// same instant given in UTC
	ok, _, err = p.Offered(context.Background(), "p1", "svc", at(10, 0).UTC())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _, err = p.Offered(context.Background(), "p1", "svc", at(9, 15))
	require.NoError(t, err)
	assert.False(t, ok)
}
