package gyms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gymcore/gymcore/internal/platform/db"
	"github.com/gymcore/gymcore/internal/users"
)

// Repository provides gym persistence.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Users() users.Repository
	Create(ctx context.Context, g Gym) (*Gym, error)
	Get(ctx context.Context, id int64) (*Gym, error)
	Update(ctx context.Context, id int64, p Patch) (*Gym, error)
	Delete(ctx context.Context, id int64) error
	ListByOwner(ctx context.Context, ownerID int64) ([]Gym, error)
	ListByCity(ctx context.Context, city string) ([]Gym, error)
	CountByOwner(ctx context.Context, ownerID int64) (int, error)
	ListTrainers(ctx context.Context, gymID int64) ([]Trainer, error)
	AddTrainer(ctx context.Context, gymID, userID int64, specialization *string) (*Trainer, error)
	IsTrainer(ctx context.Context, gymID, userID int64) (bool, error)
	ListTrainerGymIDs(ctx context.Context, userID int64) ([]int64, error)
	// ImageReferences returns every image and QR code URL stored on gyms.
	ImageReferences(ctx context.Context) ([]string, error)
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

const gymColumns = `id, owner_id, name, address, city, contact_number, gym_images, gpay_qr, phonepe_qr,
	facilities, services, membership_plans, is_active, created_at`

func scanGym(row pgx.Row) (*Gym, error) {
	var g Gym
	var plans []byte
	if err := row.Scan(&g.ID, &g.OwnerID, &g.Name, &g.Address, &g.City, &g.ContactNumber,
		&g.GymImages, &g.GpayQR, &g.PhonepeQR, &g.Facilities, &g.Services, &plans,
		&g.IsActive, &g.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(plans) > 0 {
		if err := json.Unmarshal(plans, &g.MembershipPlans); err != nil {
			return nil, fmt.Errorf("decode membership plans: %w", err)
		}
	}
	normalizeSlices(&g)
	return &g, nil
}

func normalizeSlices(g *Gym) {
	if g.GymImages == nil {
		g.GymImages = []string{}
	}
	if g.Facilities == nil {
		g.Facilities = []string{}
	}
	if g.Services == nil {
		g.Services = []string{}
	}
	if g.MembershipPlans == nil {
		g.MembershipPlans = []MembershipPlan{}
	}
}

func (r *repository) list(ctx context.Context, query string, args ...any) ([]Gym, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Gym{}
	for rows.Next() {
		g, err := scanGym(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, g Gym) (*Gym, error) {
	normalizeSlices(&g)
	plans, err := json.Marshal(g.MembershipPlans)
	if err != nil {
		return nil, err
	}
	return scanGym(r.db.QueryRow(ctx, `
		INSERT INTO gyms (owner_id, name, address, city, contact_number, gym_images, gpay_qr, phonepe_qr,
			facilities, services, membership_plans, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+gymColumns,
		g.OwnerID, g.Name, g.Address, g.City, g.ContactNumber, g.GymImages, g.GpayQR, g.PhonepeQR,
		g.Facilities, g.Services, plans, g.IsActive))
}

func (r *repository) Get(ctx context.Context, id int64) (*Gym, error) {
	return scanGym(r.db.QueryRow(ctx, `SELECT `+gymColumns+` FROM gyms WHERE id = $1`, id))
}

func (r *repository) Update(ctx context.Context, id int64, p Patch) (*Gym, error) {
	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Address != nil {
		add("address", *p.Address)
	}
	if p.City != nil {
		add("city", *p.City)
	}
	if p.ContactNumber != nil {
		add("contact_number", *p.ContactNumber)
	}
	if p.GymImages != nil {
		add("gym_images", *p.GymImages)
	}
	if p.GpayQR != nil {
		add("gpay_qr", *p.GpayQR)
	}
	if p.PhonepeQR != nil {
		add("phonepe_qr", *p.PhonepeQR)
	}
	if p.Facilities != nil {
		add("facilities", *p.Facilities)
	}
	if p.Services != nil {
		add("services", *p.Services)
	}
	if p.MembershipPlans != nil {
		plans, err := json.Marshal(*p.MembershipPlans)
		if err != nil {
			return nil, err
		}
		add("membership_plans", plans)
	}
	if p.IsActive != nil {
		add("is_active", *p.IsActive)
	}
	if len(sets) == 0 {
		return r.Get(ctx, id)
	}
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE gyms SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), gymColumns)
	return scanGym(r.db.QueryRow(ctx, query, args...))
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM gyms WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ListByOwner(ctx context.Context, ownerID int64) ([]Gym, error) {
	return r.list(ctx, `SELECT `+gymColumns+` FROM gyms WHERE owner_id = $1 ORDER BY id`, ownerID)
}

func (r *repository) ListByCity(ctx context.Context, city string) ([]Gym, error) {
	return r.list(ctx, `SELECT `+gymColumns+` FROM gyms WHERE lower(city) = lower($1) AND is_active ORDER BY name`, city)
}

func (r *repository) CountByOwner(ctx context.Context, ownerID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM gyms WHERE owner_id = $1`, ownerID).Scan(&n)
	return n, err
}

func (r *repository) ListTrainers(ctx context.Context, gymID int64) ([]Trainer, error) {
	rows, err := r.db.Query(ctx, `
		SELECT t.id, t.gym_id, t.user_id, t.specialization, t.created_at,
		       u.full_name, u.mobile_number, u.username, u.email, u.city, u.role
		FROM gym_trainers t
		JOIN users u ON u.id = t.user_id
		WHERE t.gym_id = $1
		ORDER BY u.full_name`, gymID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Trainer{}
	for rows.Next() {
		var t Trainer
		var u users.User
		var role *string
		if err := rows.Scan(&t.ID, &t.GymID, &t.UserID, &t.Specialization, &t.CreatedAt,
			&u.FullName, &u.MobileNumber, &u.Username, &u.Email, &u.City, &role); err != nil {
			return nil, err
		}
		u.ID = t.UserID
		if role != nil {
			rr := users.Role(*role)
			u.Role = &rr
		}
		t.User = &u
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *repository) AddTrainer(ctx context.Context, gymID, userID int64, specialization *string) (*Trainer, error) {
	var t Trainer
	err := r.db.QueryRow(ctx, `
		INSERT INTO gym_trainers (gym_id, user_id, specialization)
		VALUES ($1, $2, $3)
		RETURNING id, gym_id, user_id, specialization, created_at`,
		gymID, userID, specialization).Scan(&t.ID, &t.GymID, &t.UserID, &t.Specialization, &t.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, "gym_trainers_gym_user_key") {
			return nil, ErrTrainerExists
		}
		return nil, err
	}
	return &t, nil
}

func (r *repository) IsTrainer(ctx context.Context, gymID, userID int64) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM gym_trainers WHERE gym_id = $1 AND user_id = $2)`,
		gymID, userID).Scan(&ok)
	return ok, err
}

func (r *repository) ListTrainerGymIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT gym_id FROM gym_trainers WHERE user_id = $1 ORDER BY gym_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *repository) ImageReferences(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT unnest(gym_images) FROM gyms
		UNION SELECT gpay_qr FROM gyms WHERE gpay_qr IS NOT NULL
		UNION SELECT phonepe_qr FROM gyms WHERE phonepe_qr IS NOT NULL`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
