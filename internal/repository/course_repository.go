package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/teetime-booking/internal/model"
)

type CourseRepo struct{ DB *sqlx.DB }

func NewCourseRepo(db *sqlx.DB) *CourseRepo { return &CourseRepo{DB: db} }

func (r *CourseRepo) GetCourseByID(ctx context.Context, id int64) (model.Course, error) {
	var c model.Course
	err := r.DB.GetContext(ctx, &c,
		`SELECT id, name, slug, currency, kickback_percent, timezone, created_at FROM courses WHERE id=? LIMIT 1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Course{}, ErrNotFound
	}
	return c, err
}

// GetAddOnsByCourseID returns the active add-on catalog of a course.
func (r *CourseRepo) GetAddOnsByCourseID(ctx context.Context, courseID int64) ([]model.AddOn, error) {
	addOns := []model.AddOn{}
	err := r.DB.SelectContext(ctx, &addOns,
		`SELECT id, course_id, name, price_cents, currency, per_player, active
		 FROM course_add_ons WHERE course_id=? AND active=TRUE ORDER BY id`, courseID)
	return addOns, err
}

// GetRatePeriodsByCourseID returns the contract periods, newest first so
// the most recent contract wins when periods overlap.
func (r *CourseRepo) GetRatePeriodsByCourseID(ctx context.Context, courseID int64) ([]model.RatePeriod, error) {
	periods := []model.RatePeriod{}
	err := r.DB.SelectContext(ctx, &periods,
		`SELECT id, course_id, name, valid_from, valid_to, rack_rate, is_early_bird, is_twilight, includes_lunch
		 FROM course_rate_periods WHERE course_id=? ORDER BY valid_from DESC, id DESC`, courseID)
	return periods, err
}
