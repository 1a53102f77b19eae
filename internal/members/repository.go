package members

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gymcore/gymcore/internal/platform/db"
	"github.com/gymcore/gymcore/internal/users"
)

// Repository provides membership persistence.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Users() users.Repository
	Create(ctx context.Context, in NewMember) (*Member, error)
	Get(ctx context.Context, id int64) (*Member, error)
	ListByGyms(ctx context.Context, gymIDs []int64) ([]Member, error)
	Delete(ctx context.Context, id int64) error
	GymIDsForUser(ctx context.Context, userID int64) ([]int64, error)
	ListAttendance(ctx context.Context, memberID int64) ([]Attendance, error)
	AddAttendance(ctx context.Context, a Attendance) (*Attendance, error)
	ListPayments(ctx context.Context, memberID int64) ([]Payment, error)
	AddPayment(ctx context.Context, p Payment) (*Payment, error)
	// Revenue sums successful payments across the owner's gyms.
	Revenue(ctx context.Context, ownerID int64) (float64, error)
	CountActive(ctx context.Context, ownerID int64, day time.Time) (int, error)
	// ExpireEnded flags active memberships that ended before day.
	ExpireEnded(ctx context.Context, day time.Time) (int64, error)
}

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository builds a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

func (r *repository) Users() users.Repository {
	return users.NewRepository(r.db)
}

const memberColumns = `m.id, m.gym_id, m.user_id, m.membership_type, m.membership_plan, m.goals, m.address,
	m.start_date, m.end_date, m.status, m.created_at,
	u.full_name, u.mobile_number, u.username, u.email, u.gender, u.age_or_dob, u.city, u.role, u.created_at`

const memberFrom = ` FROM gym_members m JOIN users u ON u.id = m.user_id`

func scanMember(row pgx.Row) (*Member, error) {
	var m Member
	var u users.User
	var role *string
	if err := row.Scan(&m.ID, &m.GymID, &m.UserID, &m.MembershipType, &m.MembershipPlan, &m.Goals, &m.Address,
		&m.StartDate, &m.EndDate, &m.Status, &m.CreatedAt,
		&u.FullName, &u.MobileNumber, &u.Username, &u.Email, &u.Gender, &u.AgeOrDOB, &u.City, &role, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.ID = m.UserID
	if role != nil {
		rr := users.Role(*role)
		u.Role = &rr
	}
	if m.Goals == nil {
		m.Goals = []string{}
	}
	m.User = &u
	return &m, nil
}

func (r *repository) Create(ctx context.Context, in NewMember) (*Member, error) {
	if in.Goals == nil {
		in.Goals = []string{}
	}
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO gym_members (gym_id, user_id, membership_type, membership_plan, goals, address, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		in.GymID, in.UserID, string(in.MembershipType), in.MembershipPlan, in.Goals, in.Address,
		in.StartDate, in.EndDate).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err, "gym_members_gym_user_key") {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *repository) Get(ctx context.Context, id int64) (*Member, error) {
	return scanMember(r.db.QueryRow(ctx, `SELECT `+memberColumns+memberFrom+` WHERE m.id = $1`, id))
}

func (r *repository) ListByGyms(ctx context.Context, gymIDs []int64) ([]Member, error) {
	out := []Member{}
	if len(gymIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+memberColumns+memberFrom+`
		WHERE m.gym_id = ANY($1) ORDER BY m.created_at DESC, m.id DESC`, gymIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM gym_members WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) GymIDsForUser(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT gym_id FROM gym_members WHERE user_id = $1 ORDER BY gym_id`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

func (r *repository) ListAttendance(ctx context.Context, memberID int64) ([]Attendance, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, member_id, date, method, status FROM attendance
		WHERE member_id = $1 ORDER BY date DESC, id DESC`, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Attendance{}
	for rows.Next() {
		var a Attendance
		if err := rows.Scan(&a.ID, &a.MemberID, &a.Date, &a.Method, &a.Status); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repository) AddAttendance(ctx context.Context, a Attendance) (*Attendance, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO attendance (member_id, date, method, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, date`,
		a.MemberID, a.Date, string(a.Method), a.Status).Scan(&a.ID, &a.Date)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	var amount pgtype.Numeric
	if err := row.Scan(&p.ID, &p.MemberID, &amount, &p.Method, &p.Status, &p.Date); err != nil {
		return nil, err
	}
	value, err := numericFloat(amount)
	if err != nil {
		return nil, err
	}
	p.Amount = value
	return &p, nil
}

func numericFloat(n pgtype.Numeric) (float64, error) {
	if !n.Valid {
		return 0, nil
	}
	f, err := n.Float64Value()
	if err != nil {
		return 0, err
	}
	return f.Float64, nil
}

func (r *repository) ListPayments(ctx context.Context, memberID int64) ([]Payment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, member_id, amount, method, status, date FROM payments
		WHERE member_id = $1 ORDER BY date DESC, id DESC`, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *repository) AddPayment(ctx context.Context, p Payment) (*Payment, error) {
	return scanPayment(r.db.QueryRow(ctx, `
		INSERT INTO payments (member_id, amount, method, status, date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, member_id, amount, method, status, date`,
		p.MemberID, p.Amount, p.Method, string(p.Status), p.Date))
}

func (r *repository) Revenue(ctx context.Context, ownerID int64) (float64, error) {
	var total pgtype.Numeric
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(p.amount), 0)
		FROM payments p
		JOIN gym_members m ON m.id = p.member_id
		JOIN gyms g ON g.id = m.gym_id
		WHERE g.owner_id = $1 AND p.status = 'SUCCESS'`, ownerID).Scan(&total)
	if err != nil {
		return 0, err
	}
	return numericFloat(total)
}

func (r *repository) CountActive(ctx context.Context, ownerID int64, day time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT count(*)
		FROM gym_members m
		JOIN gyms g ON g.id = m.gym_id
		WHERE g.owner_id = $1 AND m.status = 'active' AND m.end_date >= $2`, ownerID, day).Scan(&n)
	return n, err
}

func (r *repository) ExpireEnded(ctx context.Context, day time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE gym_members SET status = 'expired' WHERE status = 'active' AND end_date < $1`, day)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
