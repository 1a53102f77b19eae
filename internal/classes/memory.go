package classes

import (
	"context"
	"sort"
	"sync"
	"time"

)

// MemoryRepository is an in-process Repository used by tests across
// packages. Transactions are serialised, standing in for the class row lock.
type MemoryRepository struct {
	txMu     sync.Mutex
	mu       sync.Mutex
	classes  map[int64]*Class
	bookings []*Booking
	nextID   int64
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{classes: make(map[int64]*Class)}
}

func (m *MemoryRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(ctx, m)
}

func (m *MemoryRepository) booked(classID int64) int {
	n := 0
	for _, b := range m.bookings {
		if b.ClassID == classID && b.Status == BookingConfirmed {
			n++
		}
	}
	return n
}

func (m *MemoryRepository) Create(ctx context.Context, c Class) (*Class, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c.ID = m.nextID
	c.CreatedAt = time.Now().UTC()
	m.classes[c.ID] = &c
	cp := c
	return &cp, nil
}

func (m *MemoryRepository) Get(ctx context.Context, id int64) (*Class, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.classes[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	cp.BookedCount = m.booked(id)
	return &cp, nil
}

func (m *MemoryRepository) ListByGyms(ctx context.Context, gymIDs []int64) ([]Class, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Class{}
	for _, c := range m.classes {
		for _, id := range gymIDs {
			if c.GymID == id {
				cp := *c
				cp.BookedCount = m.booked(c.ID)
				out = append(out, cp)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.classes[id]; !ok {
		return ErrNotFound
	}
	delete(m.classes, id)
	return nil
}

func (m *MemoryRepository) LockClass(ctx context.Context, id int64) (*Class, error) {
	return m.Get(ctx, id)
}

func (m *MemoryRepository) HasBooking(ctx context.Context, userID, classID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.UserID == userID && b.ClassID == classID && b.Status == BookingConfirmed {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryRepository) CreateBooking(ctx context.Context, userID, classID int64) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := &Booking{
		ID:        int64(len(m.bookings) + 1),
		UserID:    userID,
		ClassID:   classID,
		Status:    BookingConfirmed,
		CreatedAt: time.Now().UTC(),
	}
	m.bookings = append(m.bookings, b)
	cp := *b
	return &cp, nil
}

func (m *MemoryRepository) GetBooking(ctx context.Context, id int64) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.ID == id {
			cp := *b
			return &cp, nil
		}
	}
	return nil, ErrBookingNotFound
}

func (m *MemoryRepository) CancelBooking(ctx context.Context, id int64) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.ID == id {
			b.Status = BookingCancelled
			cp := *b
			return &cp, nil
		}
	}
	return nil, ErrBookingNotFound
}

func (m *MemoryRepository) ListBookings(ctx context.Context, userID int64) ([]Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Booking{}
	for _, b := range m.bookings {
		if b.UserID == userID {
			cp := *b
			if c, ok := m.classes[b.ClassID]; ok {
				cc := *c
				cp.Class = &cc
			}
			out = append(out, cp)
		}
	}
	return out, nil
}

var _ Repository = (*MemoryRepository)(nil)
