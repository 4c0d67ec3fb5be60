package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	appterrors "clinicflow/internal/appointments/errors"
	"clinicflow/internal/appointments/validator"
	"clinicflow/internal/scheduling"
	"clinicflow/pkg/config"
	mongotx "clinicflow/pkg/db/mongo"
	"clinicflow/pkg/logger"
	"clinicflow/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

var baseTime = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

// memRepository keeps appointments in memory and enforces the same
// one-occupant-per-slot rule as the unique store index.
type memRepository struct {
	mu    sync.Mutex
	items map[string]*model.Appointment
	seq   int

	listFunc         func(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error)
	updateStatusFunc func(ctx context.Context, id string, transition model.StatusTransition) error
}

func newMemRepository() *memRepository {
	return &memRepository{items: make(map[string]*model.Appointment)}
}

// seed stores a copy of a bypassing the slot rule, the way data written by
// an older client or imported in bulk would look.
func (r *memRepository) seed(a *model.Appointment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	cp := *a
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = baseTime.Add(time.Duration(r.seq) * time.Minute)
	}
	r.items[cp.ID] = &cp
}

func (r *memRepository) get(id string) *model.Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.items[id]; ok {
		cp := *a
		return &cp
	}
	return nil
}

func (r *memRepository) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *memRepository) taken(excludeID, providerID, date, clock string) bool {
	for id, a := range r.items {
		if id != excludeID && a.Status.Occupies() && a.ProviderID == providerID && a.Date == date && a.Time == clock {
			return true
		}
	}
	return false
}

func (r *memRepository) Create(ctx context.Context, a *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.taken("", a.ProviderID, a.Date, a.Time) {
		return fmt.Errorf("%w: duplicate key", appterrors.ErrSlotTaken)
	}
	r.seq++
	a.ID = fmt.Sprintf("a%d", r.seq)
	a.CreatedAt = baseTime.Add(time.Duration(r.seq) * time.Minute)
	a.UpdatedAt = a.CreatedAt
	cp := *a
	r.items[a.ID] = &cp
	return nil
}

func (r *memRepository) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	if a := r.get(id); a != nil {
		return a, nil
	}
	return nil, appterrors.ErrNotFound
}

func (r *memRepository) List(ctx context.Context, filter model.AppointmentFilter) ([]*model.Appointment, error) {
	if r.listFunc != nil {
		return r.listFunc(ctx, filter)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Appointment{}
	for _, a := range r.items {
		if filter.Date != "" && a.Date != filter.Date {
			continue
		}
		if filter.ProviderID != "" && a.ProviderID != filter.ProviderID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memRepository) UpdateFields(ctx context.Context, id string, u *model.AppointmentUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return appterrors.ErrNotFound
	}
	if u.PatientName != "" {
		a.PatientName = u.PatientName
	}
	if u.DurationMin != nil {
		a.DurationMin = *u.DurationMin
	}
	if u.Notes != nil {
		a.Notes = *u.Notes
	}
	return nil
}

func (r *memRepository) UpdateSchedule(ctx context.Context, id string, date, clock, providerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return appterrors.ErrNotFound
	}
	if r.taken(id, providerID, date, clock) {
		return fmt.Errorf("%w: duplicate key", appterrors.ErrSlotTaken)
	}
	a.Date, a.Time, a.ProviderID = date, clock, providerID
	return nil
}

func (r *memRepository) UpdateStatus(ctx context.Context, id string, t model.StatusTransition) error {
	if r.updateStatusFunc != nil {
		return r.updateStatusFunc(ctx, id, t)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return appterrors.ErrNotFound
	}
	if a.Status != t.From {
		return appterrors.ErrStaleStatus
	}
	a.Status = t.To
	a.StatusHistory = append(a.StatusHistory, t)
	return nil
}

func (r *memRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return appterrors.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}

type memLocker struct {
	mu       sync.Mutex
	held     map[string]string
	acquired int
}

func newMemLocker() *memLocker {
	return &memLocker{held: make(map[string]string)}
}

func (l *memLocker) Acquire(ctx context.Context, key, owner string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return appterrors.ErrLockHeld
	}
	l.held[key] = owner
	l.acquired++
	return nil
}

func (l *memLocker) Release(ctx context.Context, key, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == owner {
		delete(l.held, key)
	}
	return nil
}

type mockDirectory struct {
	windows map[string]scheduling.Window
}

func (d *mockDirectory) Window(ctx context.Context, providerID string) (scheduling.Window, error) {
	if w, ok := d.windows[providerID]; ok {
		return w, nil
	}
	return scheduling.DefaultWindow, nil
}

type mockPublisher struct {
	mu            sync.Mutex
	invalidations []string
	statusChanges []model.StatusTransition
}

func (p *mockPublisher) AvailabilityInvalidated(ctx context.Context, date, providerID, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invalidations = append(p.invalidations, date+"/"+providerID+"/"+reason)
	return nil
}

func (p *mockPublisher) StatusChanged(ctx context.Context, a *model.Appointment, t model.StatusTransition) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statusChanges = append(p.statusChanges, t)
	return nil
}

type mockDispatcher struct {
	mu       sync.Mutex
	sent     map[string]model.Channel
	sendFunc func(ctx context.Context, a *model.Appointment, ch model.Channel) error
}

func (d *mockDispatcher) Send(ctx context.Context, a *model.Appointment, ch model.Channel) error {
	if d.sendFunc != nil {
		if err := d.sendFunc(ctx, a, ch); err != nil {
			return err
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sent == nil {
		d.sent = make(map[string]model.Channel)
	}
	d.sent[a.ID] = ch
	return nil
}

type fixture struct {
	repo       *memRepository
	locker     *memLocker
	publisher  *mockPublisher
	dispatcher *mockDispatcher
	directory  *mockDirectory
	cfg        *config.Config
	bookings   BookingService
	bulk       BulkService
	resolution ResolutionService
}

func newFixture() *fixture {
	cfg := &config.Config{
		Log:                logger.Discard(),
		SlotIntervalMin:    30,
		DefaultDurationMin: 30,
		BulkConcurrency:    3,
		BulkMaxItems:       50,
		SlotLockTTL:        10 * time.Second,
	}
	f := &fixture{
		repo:       newMemRepository(),
		locker:     newMemLocker(),
		publisher:  &mockPublisher{},
		dispatcher: &mockDispatcher{},
		cfg:        cfg,
	}
	v := validator.NewAppointmentValidator(cfg.Log)
	f.directory = &mockDirectory{windows: map[string]scheduling.Window{}}
	f.bookings = NewBookingService(f.repo, f.locker, v, f.directory, f.publisher, cfg)
	f.bulk = NewBulkService(f.bookings, f.dispatcher, v, cfg)
	f.resolution = NewResolutionService(f.bookings, f.directory, nil, cfg)
	return f
}

func newAppointment(date, clock, providerID string) *model.Appointment {
	return &model.Appointment{
		Date:         date,
		Time:         clock,
		ProviderID:   providerID,
		PatientName:  "Dana Levi",
		PatientPhone: "+972501234567",
	}
}

func mustBook(t interface {
	Helper()
	Fatalf(string, ...any)
}, f *fixture, a *model.Appointment) *model.Appointment {
	t.Helper()
	if err := f.bookings.Book(context.Background(), a); err != nil {
		t.Fatalf("book %s %s: %v", a.Date, a.Time, err)
	}
	return a
}
