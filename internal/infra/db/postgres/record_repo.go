package postgres

import (
	"context"
	"database/sql"
	"fmt"
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

func (r *RecordRepository) Save(ctx context.Context, rec *domain.Record) error {
	const q = `
INSERT INTO talent_analyses
  (id, session_id, field, status, error_message, likelihood, overall_score,
   recommendation, assessment_level, strengths_count, weaknesses_count,
   gaps_count, roadmap_weeks, document_count, artifact_url, created_at, completed_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
ON CONFLICT (id) DO UPDATE SET
  status=EXCLUDED.status, error_message=EXCLUDED.error_message,
  likelihood=EXCLUDED.likelihood, overall_score=EXCLUDED.overall_score,
  recommendation=EXCLUDED.recommendation, assessment_level=EXCLUDED.assessment_level,
  strengths_count=EXCLUDED.strengths_count, weaknesses_count=EXCLUDED.weaknesses_count,
  gaps_count=EXCLUDED.gaps_count, roadmap_weeks=EXCLUDED.roadmap_weeks,
  document_count=EXCLUDED.document_count, artifact_url=EXCLUDED.artifact_url,
  completed_at=EXCLUDED.completed_at;
`
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	completedAt := rec.CompletedAt
	if completedAt.IsZero() {
		completedAt = createdAt
	}

	_, err := r.db.ExecContext(ctx, q,
		string(rec.ID), rec.SessionID, rec.Field, rec.Status, rec.ErrorMessage,
		rec.Likelihood, rec.OverallScore, rec.Recommendation, rec.AssessmentLevel,
		rec.StrengthsCount, rec.WeaknessesCount, rec.GapsCount, rec.RoadmapWeeks,
		rec.DocumentCount, rec.ArtifactURL, createdAt, completedAt,
	)
	return err
}

func (r *RecordRepository) Overview(ctx context.Context) (*domain.Overview, error) {
	ov := &domain.Overview{}

	const totals = `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE status = 'completed'),
       COUNT(*) FILTER (WHERE status = 'error'),
       COUNT(*) FILTER (WHERE created_at >= $1)
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

func (r *RecordRepository) List(ctx context.Context, f domain.ListFilter) ([]*domain.Record, int64, error) {
	where, args := buildFilter(f)

	var total int64
	countQ := "SELECT COUNT(*) FROM talent_analyses" + where
	if err := r.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := selectColumns + where + fmt.Sprintf(`
ORDER BY created_at DESC, id DESC
LIMIT $%d OFFSET $%d;`, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, q, append(args, f.Limit, f.Skip)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out, err := scanRecords(rows)
	return out, total, err
}

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
		args = append(args, f.Field)
		conds = append(conds, fmt.Sprintf("field = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
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
