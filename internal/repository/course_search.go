package repository

import (
	"context"
	"strings"
)

// CourseSearchQuery defines filters & pagination for the public catalog.
// Provider filters on the link kind ("golfmanager", "teeone", "zest").
type CourseSearchQuery struct {
	Name     string
	Provider string
	Page     int
	PageSize int
}

// CourseRow is a catalog entry with the provider it is sold through, if
// any.
type CourseRow struct {
	ID       int64   `db:"id" json:"id"`
	Name     string  `db:"name" json:"name"`
	Slug     string  `db:"slug" json:"slug"`
	Currency string  `db:"currency" json:"currency"`
	Timezone string  `db:"timezone" json:"timezone"`
	Provider *string `db:"provider" json:"provider,omitempty"`
}

// SearchCourses returns one page of courses ordered by name and the total
// number of matches.
func (r *CourseRepo) SearchCourses(ctx context.Context, q CourseSearchQuery) ([]CourseRow, int64, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 100 {
		q.PageSize = 20
	}

	where := []string{}
	args := []any{}
	if q.Name != "" {
		where = append(where, "LOWER(c.name) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Name)+"%")
	}
	if q.Provider != "" {
		where = append(where, "pl.provider_code LIKE ?")
		args = append(args, strings.ToLower(q.Provider)+":%")
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	// A course is listed once even with several links; the first link wins.
	from := `FROM courses c
		LEFT JOIN provider_links pl ON pl.id = (
			SELECT MIN(id) FROM provider_links WHERE course_id = c.id
		)
		WHERE ` + cond

	var total int64
	if err := r.DB.GetContext(ctx, &total, `SELECT COUNT(*) `+from, args...); err != nil {
		return nil, 0, err
	}

	dataSQL := `SELECT c.id, c.name, c.slug, c.currency, c.timezone,
			SUBSTRING_INDEX(pl.provider_code, ':', 1) AS provider
		` + from + `
		ORDER BY c.name ASC
		LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), q.PageSize, (q.Page-1)*q.PageSize)

	out := make([]CourseRow, 0, q.PageSize)
	if err := r.DB.SelectContext(ctx, &out, dataSQL, argsData...); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
