package gyms

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gymcore/gymcore/internal/users"
)

// MemoryRepository is an in-process Repository used by tests across
// packages. WithTx does not roll back.
type MemoryRepository struct {
	mu       sync.Mutex
	nextID   int64
	gyms     map[int64]*Gym
	trainers []Trainer
	users    *users.MemoryRepository

	// Err, when set, is returned by every call.
	Err error
}

// NewMemoryRepository returns an empty MemoryRepository sharing directory
// with the gym staff it enrols.
func NewMemoryRepository(directory *users.MemoryRepository) *MemoryRepository {
	return &MemoryRepository{gyms: make(map[int64]*Gym), users: directory}
}

func (m *MemoryRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *MemoryRepository) Users() users.Repository { return m.users }

func (m *MemoryRepository) Create(ctx context.Context, g Gym) (*Gym, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	m.nextID++
	g.ID = m.nextID
	g.CreatedAt = time.Now().UTC()
	normalizeSlices(&g)
	m.gyms[g.ID] = &g
	cp := g
	return &cp, nil
}

func (m *MemoryRepository) Get(ctx context.Context, id int64) (*Gym, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	g, ok := m.gyms[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *MemoryRepository) Update(ctx context.Context, id int64, p Patch) (*Gym, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	g, ok := m.gyms[id]
	if !ok {
		return nil, ErrNotFound
	}
	setIf(&g.Name, p.Name)
	setIf(&g.Address, p.Address)
	setIf(&g.City, p.City)
	setIf(&g.ContactNumber, p.ContactNumber)
	setIf(&g.GymImages, p.GymImages)
	setIf(&g.Facilities, p.Facilities)
	setIf(&g.Services, p.Services)
	setIf(&g.MembershipPlans, p.MembershipPlans)
	setIf(&g.IsActive, p.IsActive)
	if p.GpayQR != nil {
		g.GpayQR = p.GpayQR
	}
	if p.PhonepeQR != nil {
		g.PhonepeQR = p.PhonepeQR
	}
	cp := *g
	return &cp, nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func (m *MemoryRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.gyms[id]; !ok {
		return ErrNotFound
	}
	delete(m.gyms, id)
	kept := m.trainers[:0]
	for _, t := range m.trainers {
		if t.GymID != id {
			kept = append(kept, t)
		}
	}
	m.trainers = kept
	return nil
}

func (m *MemoryRepository) filter(keep func(*Gym) bool) ([]Gym, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := []Gym{}
	for _, g := range m.gyms {
		if keep(g) {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryRepository) ListByOwner(ctx context.Context, ownerID int64) ([]Gym, error) {
	return m.filter(func(g *Gym) bool { return g.OwnerID == ownerID })
}

func (m *MemoryRepository) ListByCity(ctx context.Context, city string) ([]Gym, error) {
	return m.filter(func(g *Gym) bool { return g.IsActive && strings.EqualFold(g.City, city) })
}

func (m *MemoryRepository) CountByOwner(ctx context.Context, ownerID int64) (int, error) {
	gyms, err := m.ListByOwner(ctx, ownerID)
	return len(gyms), err
}

func (m *MemoryRepository) ListTrainers(ctx context.Context, gymID int64) ([]Trainer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := []Trainer{}
	for _, t := range m.trainers {
		if t.GymID == gymID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *MemoryRepository) AddTrainer(ctx context.Context, gymID, userID int64, specialization *string) (*Trainer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, t := range m.trainers {
		if t.GymID == gymID && t.UserID == userID {
			return nil, ErrTrainerExists
		}
	}
	t := Trainer{
		ID:             int64(len(m.trainers) + 1),
		GymID:          gymID,
		UserID:         userID,
		Specialization: specialization,
		CreatedAt:      time.Now().UTC(),
	}
	m.trainers = append(m.trainers, t)
	return &t, nil
}

func (m *MemoryRepository) IsTrainer(ctx context.Context, gymID, userID int64) (bool, error) {
	ids, err := m.ListTrainerGymIDs(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == gymID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryRepository) ListTrainerGymIDs(ctx context.Context, userID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := []int64{}
	for _, t := range m.trainers {
		if t.UserID == userID {
			out = append(out, t.GymID)
		}
	}
	return out, nil
}

func (m *MemoryRepository) ImageReferences(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := []string{}
	for _, g := range m.gyms {
		out = append(out, g.GymImages...)
		for _, qr := range []*string{g.GpayQR, g.PhonepeQR} {
			if qr != nil {
				out = append(out, *qr)
			}
		}
	}
	return out, nil
}

var _ Repository = (*MemoryRepository)(nil)
