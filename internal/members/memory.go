package members

import (
	"context"
	"sync"
	"time"

	"github.com/gymcore/gymcore/internal/users"
)

// MemoryRepository is an in-process Repository used by tests across
// packages. WithTx does not roll back.
type MemoryRepository struct {
	mu         sync.Mutex
	users      *users.MemoryRepository
	gyms       GymDirectory
	members    []*Member
	attendance []Attendance
	payments   []Payment

	// Err, when set, is returned by reads and by Create.
	Err error
}

// NewMemoryRepository returns an empty MemoryRepository. gymDir resolves gym
// owners for the revenue and active-member counts.
func NewMemoryRepository(directory *users.MemoryRepository, gymDir GymDirectory) *MemoryRepository {
	return &MemoryRepository{users: directory, gyms: gymDir}
}

func (m *MemoryRepository) gymOwner(gymID int64) int64 {
	g, err := m.gyms.Get(context.Background(), gymID)
	if err != nil {
		return 0
	}
	return g.OwnerID
}

func (m *MemoryRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *MemoryRepository) Users() users.Repository { return m.users }

func (m *MemoryRepository) Create(ctx context.Context, in NewMember) (*Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, existing := range m.members {
		if existing.GymID == in.GymID && existing.UserID == in.UserID {
			return nil, ErrDuplicate
		}
	}
	row := &Member{
		ID:             int64(len(m.members) + 1),
		GymID:          in.GymID,
		UserID:         in.UserID,
		MembershipType: in.MembershipType,
		MembershipPlan: in.MembershipPlan,
		Goals:          in.Goals,
		Address:        in.Address,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		Status:         StatusActive,
		CreatedAt:      time.Now().UTC(),
	}
	m.members = append(m.members, row)
	cp := *row
	return &cp, nil
}

// withUser copies row and attaches its user, as the SQL join does.
func (m *MemoryRepository) withUser(ctx context.Context, row *Member) Member {
	cp := *row
	if u, err := m.users.FindByID(ctx, row.UserID); err == nil {
		cp.User = u
	}
	return cp
}

func (m *MemoryRepository) find(id int64) *Member {
	for _, row := range m.members {
		if row.ID == id {
			return row
		}
	}
	return nil
}

func (m *MemoryRepository) Get(ctx context.Context, id int64) (*Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	row := m.find(id)
	if row == nil {
		return nil, ErrNotFound
	}
	cp := m.withUser(ctx, row)
	return &cp, nil
}

func (m *MemoryRepository) ListByGyms(ctx context.Context, gymIDs []int64) ([]Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := []Member{}
	for _, row := range m.members {
		for _, id := range gymIDs {
			if row.GymID == id {
				out = append(out, m.withUser(ctx, row))
			}
		}
	}
	return out, nil
}

func (m *MemoryRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, row := range m.members {
		if row.ID == id {
			m.members = append(m.members[:i], m.members[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryRepository) GymIDsForUser(ctx context.Context, userID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []int64{}
	for _, row := range m.members {
		if row.UserID == userID {
			out = append(out, row.GymID)
		}
	}
	return out, nil
}

func (m *MemoryRepository) ListAttendance(ctx context.Context, memberID int64) ([]Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Attendance{}
	for _, a := range m.attendance {
		if a.MemberID == memberID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MemoryRepository) AddAttendance(ctx context.Context, a Attendance) (*Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = int64(len(m.attendance) + 1)
	m.attendance = append(m.attendance, a)
	return &a, nil
}

func (m *MemoryRepository) ListPayments(ctx context.Context, memberID int64) ([]Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Payment{}
	for _, p := range m.payments {
		if p.MemberID == memberID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemoryRepository) AddPayment(ctx context.Context, p Payment) (*Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = int64(len(m.payments) + 1)
	m.payments = append(m.payments, p)
	return &p, nil
}

func (m *MemoryRepository) Revenue(ctx context.Context, ownerID int64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	var total float64
	for _, p := range m.payments {
		row := m.find(p.MemberID)
		if row != nil && p.Status == PaymentSuccess && m.gymOwner(row.GymID) == ownerID {
			total += p.Amount
		}
	}
	return total, nil
}

func (m *MemoryRepository) CountActive(ctx context.Context, ownerID int64, day time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, row := range m.members {
		if m.gymOwner(row.GymID) == ownerID && row.ActiveOn(day) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryRepository) ExpireEnded(ctx context.Context, day time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, row := range m.members {
		if row.Status == StatusActive && row.EndDate.Before(day) {
			row.Status = StatusExpired
			n++
		}
	}
	return n, nil
}

var _ Repository = (*MemoryRepository)(nil)
