package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/teetime-booking/internal/provider"
)

type LinkRepo struct{ DB *sqlx.DB }

func NewLinkRepo(db *sqlx.DB) *LinkRepo { return &LinkRepo{DB: db} }

// GetLinksByCourseID returns the decoded provider links of a course.
// Rows whose code cannot be decoded are skipped and logged.
func (r *LinkRepo) GetLinksByCourseID(ctx context.Context, courseID int64) ([]provider.Link, error) {
	var codes []string
	if err := r.DB.SelectContext(ctx, &codes,
		`SELECT provider_code FROM provider_links WHERE course_id=? ORDER BY id`, courseID); err != nil {
		return nil, err
	}
	links := make([]provider.Link, 0, len(codes))
	for _, code := range codes {
		l, err := provider.ParseLink(code)
		if err != nil {
			logrus.WithError(err).WithField("course_id", courseID).Warn("skipping provider link")
			continue
		}
		l.CourseID = courseID
		links = append(links, l)
	}
	return links, nil
}
