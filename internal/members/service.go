package members

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gymcore/gymcore/internal/gyms"
	"github.com/gymcore/gymcore/internal/notify"
	"github.com/gymcore/gymcore/internal/platform/httpx"
	"github.com/gymcore/gymcore/internal/users"
)

// GymDirectory is the slice of the gym service members need.
type GymDirectory interface {
	Get(ctx context.Context, id int64) (*gyms.Gym, error)
	Mine(ctx context.Context, actor *users.User) ([]gyms.Gym, error)
	IsTrainer(ctx context.Context, gymID, userID int64) (bool, error)
}

// Mailer queues outgoing email.
type Mailer interface {
	EnqueueMail(ctx context.Context, msg notify.Message) error
}

// Service implements membership use cases.
type Service struct {
	repo   Repository
	gyms   GymDirectory
	mail   Mailer
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds Service instance. mail may be nil.
func NewService(repo Repository, gymDir GymDirectory, mail Mailer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, gyms: gymDir, mail: mail, logger: logger, now: time.Now}
}

func (s *Service) today() time.Time {
	return truncateDay(s.now().UTC())
}

func (s *Service) ownedGym(ctx context.Context, actor *users.User, gymID int64) (*gyms.Gym, error) {
	gym, err := s.gyms.Get(ctx, gymID)
	if err != nil {
		return nil, err
	}
	if !gym.OwnedBy(actor.ID) {
		return nil, ErrForbidden
	}
	return gym, nil
}

// List returns members of the actor's gyms, or of gymID when non-zero.
func (s *Service) List(ctx context.Context, actor *users.User, gymID int64) ([]Member, error) {
	owned, err := s.gyms.Mine(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("list owned gyms: %w", err)
	}
	byID := make(map[int64]*gyms.Gym, len(owned))
	ids := make([]int64, 0, len(owned))
	for i := range owned {
		byID[owned[i].ID] = &owned[i]
		ids = append(ids, owned[i].ID)
	}
	if gymID != 0 {
		if _, ok := byID[gymID]; !ok {
			if _, err := s.ownedGym(ctx, actor, gymID); err != nil {
				return nil, err
			}
		}
		ids = []int64{gymID}
	}
	list, err := s.repo.ListByGyms(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	for i := range list {
		list[i].Gym = byID[list[i].GymID]
	}
	return list, nil
}

// EnrollInput is a validated enrolment request.
type EnrollInput struct {
	GymID          int64
	MobileNumber   string
	FullName       string
	Email          *string
	Gender         *string
	AgeOrDOB       *string
	Address        *string
	City           *string
	MembershipType MembershipType
	MembershipPlan string
	Goals          []string
	StartDate      time.Time
	EndDate        time.Time
}

// Enroll adds a member to a gym the actor owns. The user account is found by
// mobile number or created without a password, in the same transaction as
// the membership.
func (s *Service) Enroll(ctx context.Context, actor *users.User, in EnrollInput) (*Member, error) {
	gym, err := s.ownedGym(ctx, actor, in.GymID)
	if err != nil {
		return nil, err
	}
	if in.EndDate.Before(in.StartDate) {
		return nil, httpx.Invalid("endDate", "must not be before startDate")
	}
	var out *Member
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		user, _, err := users.Enroll(ctx, repo.Users(), users.NewUser{
			FullName:     in.FullName,
			MobileNumber: in.MobileNumber,
			Email:        in.Email,
			Gender:       in.Gender,
			AgeOrDOB:     in.AgeOrDOB,
			City:         in.City,
		}, users.RoleMember)
		if err != nil {
			return err
		}
		member, err := repo.Create(ctx, NewMember{
			GymID:          gym.ID,
			UserID:         user.ID,
			MembershipType: in.MembershipType,
			MembershipPlan: in.MembershipPlan,
			Goals:          gyms.UniqueStrings(in.Goals),
			Address:        in.Address,
			StartDate:      truncateDay(in.StartDate),
			EndDate:        truncateDay(in.EndDate),
		})
		if err != nil {
			return err
		}
		member.User = user
		out = member
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDuplicate) || errors.Is(err, users.ErrRoleConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("enroll member: %w", err)
	}
	out.Gym = gym
	s.sendWelcome(ctx, out)
	return out, nil
}

// sendWelcome queues the welcome email. Delivery problems never fail the
// enrolment.
func (s *Service) sendWelcome(ctx context.Context, m *Member) {
	if s.mail == nil || m.User == nil || m.User.Email == nil || *m.User.Email == "" {
		return
	}
	msg, err := notify.Welcome{
		To:    *m.User.Email,
		Name:  m.User.FullName,
		Gym:   m.Gym.Name,
		Start: m.StartDate.Format(DateLayout),
		End:   m.EndDate.Format(DateLayout),
	}.Render()
	if err == nil {
		err = s.mail.EnqueueMail(ctx, msg)
	}
	if err != nil {
		s.logger.Warn("welcome email not queued", slog.Int64("member_id", m.ID), slog.Any("error", err))
	}
}

// Authorize loads a member and checks the actor against perm.
func (s *Service) Authorize(ctx context.Context, actor *users.User, memberID int64, perm Permission) (*Member, error) {
	m, err := s.repo.Get(ctx, memberID)
	if err != nil {
		return nil, err
	}
	gym, err := s.gyms.Get(ctx, m.GymID)
	if err != nil {
		return nil, err
	}
	m.Gym = gym
	if gym.OwnedBy(actor.ID) {
		return m, nil
	}
	if (perm == OwnerOrSelf || perm == StaffOrSelf) && m.UserID == actor.ID {
		return m, nil
	}
	if (perm == Staff || perm == StaffOrSelf) && actor.RoleIs(users.RoleTrainer) {
		ok, err := s.gyms.IsTrainer(ctx, gym.ID, actor.ID)
		if err != nil {
			return nil, err
		}
		if ok {
			return m, nil
		}
	}
	return nil, ErrForbidden
}

// Get returns a member to the gym owner or to the member.
func (s *Service) Get(ctx context.Context, actor *users.User, id int64) (*Member, error) {
	return s.Authorize(ctx, actor, id, OwnerOrSelf)
}

// Delete removes a membership from a gym the actor owns.
func (s *Service) Delete(ctx context.Context, actor *users.User, id int64) error {
	if _, err := s.Authorize(ctx, actor, id, OwnerOnly); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Attendance lists visits of a member.
func (s *Service) Attendance(ctx context.Context, actor *users.User, id int64) ([]Attendance, error) {
	if _, err := s.Authorize(ctx, actor, id, OwnerOrSelf); err != nil {
		return nil, err
	}
	return s.repo.ListAttendance(ctx, id)
}

// MarkAttendance records a visit. A nil date means now.
func (s *Service) MarkAttendance(ctx context.Context, actor *users.User, id int64, method AttendanceMethod, date *time.Time) (*Attendance, error) {
	if _, err := s.Authorize(ctx, actor, id, OwnerOnly); err != nil {
		return nil, err
	}
	at := s.now().UTC()
	if date != nil {
		at = date.UTC()
	}
	return s.repo.AddAttendance(ctx, Attendance{MemberID: id, Date: at, Method: method, Status: "present"})
}

// Payments lists payments of a member.
func (s *Service) Payments(ctx context.Context, actor *users.User, id int64) ([]Payment, error) {
	if _, err := s.Authorize(ctx, actor, id, OwnerOrSelf); err != nil {
		return nil, err
	}
	return s.repo.ListPayments(ctx, id)
}

// PaymentInput is a validated payment.
type PaymentInput struct {
	Amount float64
	Method string
	Status PaymentStatus
	Date   *time.Time
}

// RecordPayment stores a payment. Status defaults to SUCCESS and date to now.
func (s *Service) RecordPayment(ctx context.Context, actor *users.User, id int64, in PaymentInput) (*Payment, error) {
	if _, err := s.Authorize(ctx, actor, id, OwnerOnly); err != nil {
		return nil, err
	}
	if in.Amount <= 0 {
		return nil, httpx.Invalid("amount", "must be greater than 0")
	}
	p := Payment{MemberID: id, Amount: in.Amount, Method: in.Method, Status: in.Status, Date: s.now().UTC()}
	if p.Status == "" {
		p.Status = PaymentSuccess
	}
	if in.Date != nil {
		p.Date = in.Date.UTC()
	}
	return s.repo.AddPayment(ctx, p)
}

// Stats computes revenue and active members across the actor's gyms.
func (s *Service) Stats(ctx context.Context, actor *users.User) (OwnerStats, error) {
	var stats OwnerStats
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		total, err := s.repo.Revenue(ctx, actor.ID)
		if err != nil {
			return fmt.Errorf("revenue: %w", err)
		}
		stats.TotalRevenue = total
		return nil
	})
	g.Go(func() error {
		n, err := s.repo.CountActive(ctx, actor.ID, s.today())
		if err != nil {
			return fmt.Errorf("active members: %w", err)
		}
		stats.ActiveMembers = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return OwnerStats{}, err
	}
	return stats, nil
}

// GymIDsFor lists gyms userID is a member of.
func (s *Service) GymIDsFor(ctx context.Context, userID int64) ([]int64, error) {
	return s.repo.GymIDsForUser(ctx, userID)
}

// ExpireMemberships marks memberships that ended before today as expired.
func (s *Service) ExpireMemberships(ctx context.Context) (int64, error) {
	return s.repo.ExpireEnded(ctx, s.today())
}
