package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hyeon/campus-notices/internal/models"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

type ListParams struct {
	Category string
	Limit    int
	Offset   int
}

type ListResult struct {
	Notices []models.Notice `json:"notices"`
	Total   int             `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

const selectCols = `id, source_domain, source_id, title, external_url, category,
	body, summary, qualification_ai, start_at_ai, end_at_ai, posted_at,
	created_at, updated_at`

func scanNotice(scan func(dest ...interface{}) error) (models.Notice, error) {
	var n models.Notice
	var body, summary, externalURL, category *string
	var qualificationRaw []byte

	err := scan(
		&n.ID, &n.SourceDomain, &n.SourceID, &n.Title, &externalURL, &category,
		&body, &summary, &qualificationRaw, &n.StartAtAI, &n.EndAtAI, &n.PostedAt,
		&n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return n, err
	}

	if externalURL != nil {
		n.ExternalURL = *externalURL
	}
	if category != nil {
		n.Category = *category
	}
	if body != nil {
		n.Body = *body
	}
	if summary != nil {
		n.Summary = *summary
	}
	if len(qualificationRaw) > 0 {
		n.QualificationAI = json.RawMessage(qualificationRaw)
	}

	return n, nil
}

func (s *Store) ListNotices(ctx context.Context, params ListParams) (*ListResult, error) {
	where := "WHERE 1=1"
	var args []interface{}
	argIdx := 1

	if params.Category != "" {
		where += fmt.Sprintf(" AND category = $%d", argIdx)
		args = append(args, params.Category)
		argIdx++
	}

	var total int
	countSQL := "SELECT COUNT(*) FROM notices " + where
	if err := s.pool.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count failed: %w", err)
	}

	limit := params.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	selectSQL := fmt.Sprintf(
		"SELECT %s FROM notices %s ORDER BY posted_at DESC NULLS LAST, created_at DESC LIMIT $%d OFFSET $%d",
		selectCols, where, argIdx, argIdx+1,
	)
	args = append(args, limit, params.Offset)

	rows, err := s.pool.Query(ctx, selectSQL, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var notices []models.Notice
	for rows.Next() {
		n, err := scanNotice(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		notices = append(notices, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	if notices == nil {
		notices = []models.Notice{}
	}

	return &ListResult{
		Notices: notices,
		Total:   total,
		Limit:   limit,
		Offset:  params.Offset,
	}, nil
}

func (s *Store) GetNotice(ctx context.Context, id int64) (*models.Notice, error) {
	sql := fmt.Sprintf("SELECT %s FROM notices WHERE id = $1", selectCols)
	row := s.pool.QueryRow(ctx, sql, id)

	n, err := scanNotice(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("not found: %w", err)
	}

	return &n, nil
}

// UpsertNotice inserts or refreshes a notice on its (source_domain,
// source_id) natural key and returns the row id.
func (s *Store) UpsertNotice(ctx context.Context, n models.Notice) (int64, error) {
	var qualification interface{}
	if len(n.QualificationAI) > 0 {
		qualification = []byte(n.QualificationAI)
	}

	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO notices (
			source_domain, source_id, title, external_url, category,
			body, summary, qualification_ai, start_at_ai, end_at_ai, posted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (source_domain, source_id) DO UPDATE SET
			title = EXCLUDED.title,
			external_url = EXCLUDED.external_url,
			category = EXCLUDED.category,
			body = EXCLUDED.body,
			summary = EXCLUDED.summary,
			qualification_ai = COALESCE(EXCLUDED.qualification_ai, notices.qualification_ai),
			start_at_ai = COALESCE(EXCLUDED.start_at_ai, notices.start_at_ai),
			end_at_ai = COALESCE(EXCLUDED.end_at_ai, notices.end_at_ai),
			posted_at = COALESCE(EXCLUDED.posted_at, notices.posted_at),
			updated_at = NOW()
		RETURNING id
	`, n.SourceDomain, n.SourceID, n.Title, n.ExternalURL, n.Category,
		n.Body, n.Summary, qualification, n.StartAtAI, n.EndAtAI, n.PostedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert failed: %w", err)
	}

	return id, nil
}

// ListNoticesWithSchedule returns notices that carry at least one AI-derived
// timestamp, for calendar reconciliation.
func (s *Store) ListNoticesWithSchedule(ctx context.Context) ([]models.Notice, error) {
	sql := fmt.Sprintf(`
		SELECT %s FROM notices
		WHERE start_at_ai IS NOT NULL OR end_at_ai IS NOT NULL
		ORDER BY created_at DESC
	`, selectCols)

	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var notices []models.Notice
	for rows.Next() {
		n, err := scanNotice(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		notices = append(notices, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return notices, nil
}
