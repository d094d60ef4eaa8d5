package repository

import (
	"database/sql"
	"fmt"

	"wisefido-bedside/internal/models"

	"go.uber.org/zap"
)

// DiagnosticRepository 诊断历史与睡眠报告查询
type DiagnosticRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDiagnosticRepository creates a new diagnostic repository
func NewDiagnosticRepository(db *sql.DB, logger *zap.Logger) *DiagnosticRepository {
	return &DiagnosticRepository{
		db:     db,
		logger: logger,
	}
}

// GetHistory 按时间倒序取历史诊断记录（分页）
func (r *DiagnosticRepository) GetHistory(residentID string, limit, offset int) ([]models.PastDiagnosticRecord, error) {
	query := `
		SELECT
			record_id,
			resident_id,
			recorded_at,
			heart_rate,
			heart_rhythm,
			risk_level,
			note
		FROM diagnostic_records
		WHERE resident_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(query, residentID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query diagnostic records: %w", err)
	}
	defer rows.Close()

	var records []models.PastDiagnosticRecord
	for rows.Next() {
		var rec models.PastDiagnosticRecord
		var heartRate sql.NullInt64
		var rhythm, riskLevel, note sql.NullString

		if err := rows.Scan(
			&rec.RecordID,
			&rec.ResidentID,
			&rec.RecordedAt,
			&heartRate,
			&rhythm,
			&riskLevel,
			&note,
		); err != nil {
			return nil, fmt.Errorf("failed to scan diagnostic record: %w", err)
		}

		if heartRate.Valid {
			v := int(heartRate.Int64)
			rec.HeartRate = &v
		}
		if rhythm.Valid {
			v := models.HeartRhythm(rhythm.String)
			rec.HeartRhythm = &v
		}
		if riskLevel.Valid {
			v := models.RiskLevel(riskLevel.String)
			rec.RiskLevel = &v
		}
		if note.Valid {
			rec.Note = &note.String
		}

		records = append(records, rec)
	}

	return records, nil
}

// CountHistory 历史记录总数（分页用）
func (r *DiagnosticRepository) CountHistory(residentID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM diagnostic_records
		WHERE resident_id = $1
	`

	var count int
	if err := r.db.QueryRow(query, residentID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count diagnostic records: %w", err)
	}

	return count, nil
}

// CreateRecord 写入一条诊断记录（每次成功的 AI 分析都会落库）
func (r *DiagnosticRepository) CreateRecord(rec models.PastDiagnosticRecord) error {
	query := `
		INSERT INTO diagnostic_records (
			record_id,
			resident_id,
			recorded_at,
			heart_rate,
			heart_rhythm,
			risk_level,
			note
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(
		query,
		rec.RecordID,
		rec.ResidentID,
		rec.RecordedAt,
		rec.HeartRate,
		rhythmToDB(rec.HeartRhythm),
		riskLevelToDB(rec.RiskLevel),
		rec.Note,
	)
	if err != nil {
		return fmt.Errorf("failed to insert diagnostic record: %w", err)
	}

	return nil
}

// GetLatestSleepSummary 最近一份睡眠报告的摘要；没有报告返回 nil（不是错误）
func (r *DiagnosticRepository) GetLatestSleepSummary(residentID string) (*models.SleepSummary, error) {
	query := `
		SELECT
			hours_slept,
			quality_score
		FROM sleep_reports
		WHERE resident_id = $1
		ORDER BY report_date DESC
		LIMIT 1
	`

	var summary models.SleepSummary
	err := r.db.QueryRow(query, residentID).Scan(&summary.HoursSlept, &summary.QualityScore)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query sleep summary: %w", err)
	}

	return &summary, nil
}

func rhythmToDB(v *models.HeartRhythm) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func riskLevelToDB(v *models.RiskLevel) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
