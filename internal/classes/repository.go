package classes

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gymcore/gymcore/internal/gyms"
	"github.com/gymcore/gymcore/internal/platform/db"
)

// Repository provides class and booking persistence.
type Repository interface {
	// WithTx runs fn at read committed so a count taken after LockClass sees
	// bookings committed while waiting for the lock.
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Create(ctx context.Context, c Class) (*Class, error)
	Get(ctx context.Context, id int64) (*Class, error)
	ListByGyms(ctx context.Context, gymIDs []int64) ([]Class, error)
	Delete(ctx context.Context, id int64) error
	// LockClass loads a class and holds its row lock until the transaction
	// ends.
	LockClass(ctx context.Context, id int64) (*Class, error)
	HasBooking(ctx context.Context, userID, classID int64) (bool, error)
	CreateBooking(ctx context.Context, userID, classID int64) (*Booking, error)
	GetBooking(ctx context.Context, id int64) (*Booking, error)
	CancelBooking(ctx context.Context, id int64) (*Booking, error)
	ListBookings(ctx context.Context, userID int64) ([]Booking, error)
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
	return db.WithTxOptions(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const classColumns = `c.id, c.gym_id, c.name, c.description, c.trainer_id, c.capacity, c.schedule, c.duration, c.created_at,
	(SELECT count(*) FROM bookings b WHERE b.class_id = c.id AND b.status = 'confirmed')`

func scanClass(row pgx.Row) (*Class, error) {
	var c Class
	if err := row.Scan(&c.ID, &c.GymID, &c.Name, &c.Description, &c.TrainerID, &c.Capacity,
		&c.Schedule, &c.Duration, &c.CreatedAt, &c.BookedCount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) Create(ctx context.Context, c Class) (*Class, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO classes (gym_id, name, description, trainer_id, capacity, schedule, duration)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		c.GymID, c.Name, c.Description, c.TrainerID, c.Capacity, c.Schedule, c.Duration).Scan(&id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, gyms.ErrNotFound
		}
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *repository) Get(ctx context.Context, id int64) (*Class, error) {
	return scanClass(r.db.QueryRow(ctx, `SELECT `+classColumns+` FROM classes c WHERE c.id = $1`, id))
}

func (r *repository) ListByGyms(ctx context.Context, gymIDs []int64) ([]Class, error) {
	out := []Class{}
	if len(gymIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+classColumns+` FROM classes c
		WHERE c.gym_id = ANY($1) ORDER BY c.schedule, c.id`, gymIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM classes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) LockClass(ctx context.Context, id int64) (*Class, error) {
	var locked int64
	err := r.db.QueryRow(ctx, `SELECT id FROM classes WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *repository) HasBooking(ctx context.Context, userID, classID int64) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM bookings WHERE user_id = $1 AND class_id = $2 AND status = 'confirmed')`,
		userID, classID).Scan(&ok)
	return ok, err
}

const bookingColumns = `id, user_id, class_id, status, created_at`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	if err := row.Scan(&b.ID, &b.UserID, &b.ClassID, &b.Status, &b.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *repository) CreateBooking(ctx context.Context, userID, classID int64) (*Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `
		INSERT INTO bookings (user_id, class_id, status) VALUES ($1, $2, 'confirmed')
		RETURNING `+bookingColumns, userID, classID))
	if err != nil {
		if db.IsUniqueViolation(err, "bookings_confirmed_user_class_key") {
			return nil, ErrAlreadyBooked
		}
		return nil, err
	}
	return b, nil
}

func (r *repository) GetBooking(ctx context.Context, id int64) (*Booking, error) {
	return scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
}

func (r *repository) CancelBooking(ctx context.Context, id int64) (*Booking, error) {
	return scanBooking(r.db.QueryRow(ctx, `
		UPDATE bookings SET status = 'cancelled' WHERE id = $1
		RETURNING `+bookingColumns, id))
}

func (r *repository) ListBookings(ctx context.Context, userID int64) ([]Booking, error) {
	rows, err := r.db.Query(ctx, `
		SELECT b.id, b.user_id, b.class_id, b.status, b.created_at, `+classColumns+`
		FROM bookings b
		JOIN classes c ON c.id = b.class_id
		WHERE b.user_id = $1
		ORDER BY c.schedule DESC, b.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Booking{}
	for rows.Next() {
		var b Booking
		var c Class
		if err := rows.Scan(&b.ID, &b.UserID, &b.ClassID, &b.Status, &b.CreatedAt,
			&c.ID, &c.GymID, &c.Name, &c.Description, &c.TrainerID, &c.Capacity,
			&c.Schedule, &c.Duration, &c.CreatedAt, &c.BookedCount); err != nil {
			return nil, err
		}
		b.Class = &c
		out = append(out, b)
	}
	return out, rows.Err()
}
