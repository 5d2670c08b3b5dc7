package activity

import (
	"context"
	"database/sql"
	"time"
)

type Repository interface {
	CreateExport(ctx context.Context, rec *ExportRecord) error
	GetExport(ctx context.Context, id string) (*ExportRecord, error)
	ListExports(ctx context.Context, limit int) ([]*ExportRecord, error)
	FinalizeExport(ctx context.Context, rec *ExportRecord) error

	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) CreateExport(ctx context.Context, rec *ExportRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO exports (id, clip_id, input_path, output_path, start_s, end_s, speed, volume, quality, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.ClipID, rec.InputPath, rec.OutputPath, rec.StartSec, rec.EndSec, rec.Speed, rec.Volume,
		rec.Quality, rec.Status, rec.CreatedAt.Format(time.RFC3339), rec.UpdatedAt.Format(time.RFC3339))
	return err
}

// FinalizeExport writes the terminal fields of a finished export
// (status, encoder, fallback flag, error and benchmark numbers).
func (r *SQLiteRepository) FinalizeExport(ctx context.Context, rec *ExportRecord) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE exports
		SET status = ?, encoder = ?, decode_mode = ?, used_fallback = ?, error = ?,
		    elapsed_ms = ?, realtime_factor = ?, output_bytes = ?, target_bytes = ?,
		    video_kbps = ?, audio_kbps = ?, output_path = ?, updated_at = ?
		WHERE id = ?
	`, rec.Status, rec.Encoder, rec.DecodeMode, boolToInt(rec.Fallback), rec.Error,
		rec.ElapsedMs, rec.RealtimeFactor, nullInt64(rec.OutputBytes), nullInt64(rec.TargetBytes),
		nullInt(rec.VideoKbps), nullInt(rec.AudioKbps), rec.OutputPath, time.Now().Format(time.RFC3339),
		rec.ID)
	return err
}

const exportColumns = `id, clip_id, input_path, output_path, start_s, end_s, speed, volume, quality,
	status, encoder, decode_mode, used_fallback, error, elapsed_ms, realtime_factor,
	output_bytes, target_bytes, video_kbps, audio_kbps, created_at, updated_at`

func (r *SQLiteRepository) GetExport(ctx context.Context, id string) (*ExportRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+exportColumns+` FROM exports WHERE id = ?`, id)
	return scanExport(row)
}

func (r *SQLiteRepository) ListExports(ctx context.Context, limit int) ([]*ExportRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+exportColumns+` FROM exports ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*ExportRecord
	for rows.Next() {
		rec, err := scanExport(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (r *SQLiteRepository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetSetting(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

type scannable interface {
	Scan(dest ...any) error
}

func scanExport(row scannable) (*ExportRecord, error) {
	var rec ExportRecord
	var fallback int
	var createdAt, updatedAt string
	var outputBytes, targetBytes sql.NullInt64
	var videoKbps, audioKbps sql.NullInt64

	err := row.Scan(&rec.ID, &rec.ClipID, &rec.InputPath, &rec.OutputPath, &rec.StartSec, &rec.EndSec,
		&rec.Speed, &rec.Volume, &rec.Quality, &rec.Status, &rec.Encoder, &rec.DecodeMode,
		&fallback, &rec.Error, &rec.ElapsedMs, &rec.RealtimeFactor,
		&outputBytes, &targetBytes, &videoKbps, &audioKbps, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec.Fallback = fallback == 1
	if outputBytes.Valid {
		v := outputBytes.Int64
		rec.OutputBytes = &v
	}
	if targetBytes.Valid {
		v := targetBytes.Int64
		rec.TargetBytes = &v
	}
	if videoKbps.Valid {
		v := int(videoKbps.Int64)
		rec.VideoKbps = &v
	}
	if audioKbps.Valid {
		v := int(audioKbps.Int64)
		rec.AudioKbps = &v
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
