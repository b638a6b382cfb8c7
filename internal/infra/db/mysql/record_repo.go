package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/talentlens/talentlens/internal/domain/analysis"
)

type RecordRepository struct {
	db *sql.DB
}

func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// Save inserts one analysis record. Records are immutable; a replayed insert
// with the same id overwrites rather than duplicating.
func (r *RecordRepository) Save(ctx context.Context, rec *domain.Record) error {
	const q = `
INSERT INTO talent_analyses
  (id, session_id, field, status, error_message, likelihood, overall_score,
   recommendation, assessment_level, strengths_count, weaknesses_count,
   gaps_count, roadmap_weeks, document_count, artifact_url, created_at, completed_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  status=VALUES(status), error_message=VALUES(error_message),
  likelihood=VALUES(likelihood), overall_score=VALUES(overall_score),
  recommendation=VALUES(recommendation), assessment_level=VALUES(assessment_level),
  strengths_count=VALUES(strengths_count), weaknesses_count=VALUES(weaknesses_count),
  gaps_count=VALUES(gaps_count), roadmap_weeks=VALUES(roadmap_weeks),
  document_count=VALUES(document_count), artifact_url=VALUES(artifact_url),
  completed_at=VALUES(completed_at);
`
	field := stringOrDash(rec.Field)
	recommendation := stringOrDash(rec.Recommendation)
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	completedAt := rec.CompletedAt
	if completedAt.IsZero() {
		completedAt = createdAt
	}

	_, err := r.db.ExecContext(ctx, q,
		string(rec.ID), rec.SessionID, field, rec.Status, rec.ErrorMessage,
		rec.Likelihood, rec.OverallScore, recommendation, rec.AssessmentLevel,
		rec.StrengthsCount, rec.WeaknessesCount, rec.GapsCount, rec.RoadmapWeeks,
		rec.DocumentCount, rec.ArtifactURL, createdAt, completedAt,
	)
	return err
}

// Overview aggregates the dashboard stats in four queries.
func (r *RecordRepository) Overview(ctx context.Context) (*domain.Overview, error) {
	ov := &domain.Overview{}

	const totals = `
SELECT COUNT(*),
       COALESCE(SUM(status = 'completed'), 0),
       COALESCE(SUM(status = 'error'), 0),
       COALESCE(SUM(created_at >= ?), 0)
FROM talent_analyses;`
	cutoff := time.Now().AddDate(0, 0, -30)
	if err := r.db.QueryRowContext(ctx, totals, cutoff).Scan(
		&ov.TotalAnalyses, &ov.Completed, &ov.Errors, &ov.Recent30Days,
	); err != nil {
		return nil, err
	}
	if ov.TotalAnalyses > 0 {
		ov.SuccessRate = float64(ov.Completed) / float64(ov.TotalAnalyses)
	}

	const byField = `
SELECT field, COUNT(*), COALESCE(AVG(overall_score), 0), COALESCE(AVG(likelihood), 0)
FROM talent_analyses
WHERE status = 'completed'
GROUP BY field
ORDER BY COUNT(*) DESC;`
	rows, err := r.db.QueryContext(ctx, byField)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var fs domain.FieldStats
		if err := rows.Scan(&fs.Field, &fs.Count, &fs.AvgScore, &fs.AvgLikelihood); err != nil {
			return nil, err
		}
		ov.ByField = append(ov.ByField, fs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const byRec = `
SELECT recommendation, COUNT(*)
FROM talent_analyses
GROUP BY recommendation
ORDER BY COUNT(*) DESC;`
	recRows, err := r.db.QueryContext(ctx, byRec)
	if err != nil {
		return nil, err
	}
	defer recRows.Close()
	for recRows.Next() {
		var rs domain.RecommendationStats
		if err := recRows.Scan(&rs.Recommendation, &rs.Count); err != nil {
			return nil, err
		}
		ov.ByRecommendation = append(ov.ByRecommendation, rs)
	}
	return ov, recRows.Err()
}

// List returns one page of records ordered by created_at desc, plus the total
// count for the same filter.
func (r *RecordRepository) List(ctx context.Context, f domain.ListFilter) ([]*domain.Record, int64, error) {
	where, args := buildFilter(f)

	var total int64
	countQ := "SELECT COUNT(*) FROM talent_analyses" + where
	if err := r.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := selectColumns + where + `
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;`
	rows, err := r.db.QueryContext(ctx, q, append(args, f.Limit, f.Skip)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out, err := scanRecords(rows)
	return out, total, err
}

// Export returns every completed record, oldest first.
func (r *RecordRepository) Export(ctx context.Context) ([]*domain.Record, error) {
	q := selectColumns + `
WHERE status = 'completed'
ORDER BY created_at ASC, id ASC;`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

const selectColumns = `
SELECT id, session_id, field, status, error_message, likelihood, overall_score,
       recommendation, assessment_level, strengths_count, weaknesses_count,
       gaps_count, roadmap_weeks, document_count, artifact_url, created_at, completed_at
FROM talent_analyses`

func buildFilter(f domain.ListFilter) (string, []any) {
	var conds []string
	var args []any
	if f.Field != "" {
		conds = append(conds, "field = ?")
		args = append(args, f.Field)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanRecords(rows *sql.Rows) ([]*domain.Record, error) {
	var out []*domain.Record
	for rows.Next() {
		var rec domain.Record
		var id string
		if err := rows.Scan(
			&id, &rec.SessionID, &rec.Field, &rec.Status, &rec.ErrorMessage,
			&rec.Likelihood, &rec.OverallScore, &rec.Recommendation, &rec.AssessmentLevel,
			&rec.StrengthsCount, &rec.WeaknessesCount, &rec.GapsCount, &rec.RoadmapWeeks,
			&rec.DocumentCount, &rec.ArtifactURL, &rec.CreatedAt, &rec.CompletedAt,
		); err != nil {
			return nil, err
		}
		rec.ID = domain.RecordID(id)
		out = append(out, &rec)
	}
	return out, rows.Err()
}

var _ domain.RecordRepository = (*RecordRepository)(nil)
