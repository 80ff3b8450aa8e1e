// Package schedule loads a provider's working hours, bookings and blocked
// periods for one day and hands them to the slots calculator. The HTTP API,
// the gRPC service and agendoctl all answer "what can be booked" through it.
package schedule

import (
	"context"
	"errors"
	"time"

	"agendo-api/internal/model"
	"agendo-api/internal/slots"
)

// ErrNoService means the service does not exist, belongs to another provider
// or has been deactivated.
var ErrNoService = errors.New("service not offered by this provider")

type Source interface {
	ProviderService(ctx context.Context, id string) (*model.ProviderService, error)
	ListAvailability(ctx context.Context, providerID string) ([]model.Availability, error)
	ProviderBusy(ctx context.Context, providerID string, from, to time.Time) ([]model.Appointment, error)
	BlockedSlots(ctx context.Context, providerID string, from, to time.Time) ([]model.BlockedSlot, error)
}

type Planner struct {
	src    Source
	loc    *time.Location
	margin time.Duration
	now    func() time.Time
}

func NewPlanner(src Source, loc *time.Location, margin time.Duration) *Planner {
	return &Planner{src: src, loc: loc, margin: margin, now: time.Now}
}

// WithClock replaces time.Now. Tests pin the current instant with it.
func (p *Planner) WithClock(now func() time.Time) *Planner {
	p.now = now
	return p
}

func (p *Planner) Location() *time.Location { return p.loc }

// Day is everything needed to answer one availability query.
type Day struct {
	Service *model.ProviderService
	Request slots.Request
}

// Load builds the slot request for serviceID on date (YYYY-MM-DD, local).
func (p *Planner) Load(ctx context.Context, providerID, serviceID, date string) (*Day, error) {
	day, err := slots.ParseDate(date, p.loc)
	if err != nil {
		return nil, err
	}
	svc, err := p.src.ProviderService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if svc.ProviderID != providerID || !svc.IsActive {
		return nil, ErrNoService
	}

	rows, err := p.src.ListAvailability(ctx, providerID)
	if err != nil {
		return nil, err
	}
	windows, err := slots.WindowsFor(day, p.loc, rows)
	if err != nil {
		return nil, err
	}

	req := slots.Request{
		Date:     day,
		Duration: time.Duration(svc.DurationMinutes) * time.Minute,
		Windows:  windows,
		Now:      p.now(),
		Margin:   p.margin,
		Location: p.loc,
	}
	if len(windows) == 0 {
		return &Day{Service: svc, Request: req}, nil
	}

	from, to := day, day.AddDate(0, 0, 1)
	apts, err := p.src.ProviderBusy(ctx, providerID, from, to)
	if err != nil {
		return nil, err
	}
	for _, a := range apts {
		req.Busy = append(req.Busy, slots.Interval{Start: a.StartTime, End: a.EndTime})
	}
	blocked, err := p.src.BlockedSlots(ctx, providerID, from, to)
	if err != nil {
		return nil, err
	}
	for _, b := range blocked {
		req.Busy = append(req.Busy, slots.Interval{Start: b.StartTime, End: b.EndTime})
	}
	return &Day{Service: svc, Request: req}, nil
}

func (p *Planner) Available(ctx context.Context, providerID, serviceID, date string) ([]slots.Slot, *model.ProviderService, error) {
	d, err := p.Load(ctx, providerID, serviceID, date)
	if err != nil {
		return nil, nil, err
	}
	out, err := slots.Compute(d.Request)
	return out, d.Service, err
}

func (p *Planner) Explain(ctx context.Context, providerID, serviceID, date string) ([]slots.Candidate, *model.ProviderService, error) {
	d, err := p.Load(ctx, providerID, serviceID, date)
	if err != nil {
		return nil, nil, err
	}
	out, err := slots.Explain(d.Request)
	return out, d.Service, err
}

// Offered reports whether start is one of the slots currently offered for the
// service, which is the check a booking must pass.
func (p *Planner) Offered(ctx context.Context, providerID, serviceID string, start time.Time) (bool, *model.ProviderService, error) {
	got, svc, err := p.Available(ctx, providerID, serviceID, slots.FormatDate(start, p.loc))
	if err != nil {
		return false, nil, err
	}
	return slots.Contains(got, start), svc, nil
}
