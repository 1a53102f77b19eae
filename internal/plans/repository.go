package plans

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides plan persistence.
type Repository interface {
	ListWorkouts(ctx context.Context, memberID int64) ([]WorkoutPlan, error)
	CreateWorkout(ctx context.Context, p WorkoutPlan) (*WorkoutPlan, error)
	ListDiets(ctx context.Context, memberID int64) ([]DietPlan, error)
	CreateDiet(ctx context.Context, p DietPlan) (*DietPlan, error)
}

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type repository struct {
	db dbtx
}

// NewRepository builds a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func scanWorkout(row pgx.Row) (*WorkoutPlan, error) {
	var p WorkoutPlan
	var raw []byte
	if err := row.Scan(&p.ID, &p.MemberID, &p.Title, &p.Notes, &raw, &p.CreatedBy, &p.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &p.Exercises); err != nil {
		return nil, fmt.Errorf("decode exercises: %w", err)
	}
	if p.Exercises == nil {
		p.Exercises = []Exercise{}
	}
	return &p, nil
}

func scanDiet(row pgx.Row) (*DietPlan, error) {
	var p DietPlan
	var raw []byte
	if err := row.Scan(&p.ID, &p.MemberID, &p.Title, &p.Notes, &raw, &p.CreatedBy, &p.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &p.Meals); err != nil {
		return nil, fmt.Errorf("decode meals: %w", err)
	}
	if p.Meals == nil {
		p.Meals = []Meal{}
	}
	return &p, nil
}

func (r *repository) ListWorkouts(ctx context.Context, memberID int64) ([]WorkoutPlan, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, member_id, title, notes, exercises, created_by, created_at
		FROM workout_plans WHERE member_id = $1 ORDER BY created_at DESC, id DESC`, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []WorkoutPlan{}
	for rows.Next() {
		p, err := scanWorkout(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *repository) CreateWorkout(ctx context.Context, p WorkoutPlan) (*WorkoutPlan, error) {
	raw, err := json.Marshal(p.Exercises)
	if err != nil {
		return nil, err
	}
	return scanWorkout(r.db.QueryRow(ctx, `
		INSERT INTO workout_plans (member_id, title, notes, exercises, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, member_id, title, notes, exercises, created_by, created_at`,
		p.MemberID, p.Title, p.Notes, raw, p.CreatedBy))
}

func (r *repository) ListDiets(ctx context.Context, memberID int64) ([]DietPlan, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, member_id, title, notes, meals, created_by, created_at
		FROM diet_plans WHERE member_id = $1 ORDER BY created_at DESC, id DESC`, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []DietPlan{}
	for rows.Next() {
		p, err := scanDiet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *repository) CreateDiet(ctx context.Context, p DietPlan) (*DietPlan, error) {
	raw, err := json.Marshal(p.Meals)
	if err != nil {
		return nil, err
	}
	return scanDiet(r.db.QueryRow(ctx, `
		INSERT INTO diet_plans (member_id, title, notes, meals, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, member_id, title, notes, meals, created_by, created_at`,
		p.MemberID, p.Title, p.Notes, raw, p.CreatedBy))
}
