package repository

import (
	"context"
	"fmt"
	"time"
)

// CommandRecord 一次远程命令的执行记录
type CommandRecord struct {
	ID         int64     `json:"id"`
	VehicleID  int64     `json:"vehicle_id"`
	Command    string    `json:"command"`
	Result     bool      `json:"result"`
	Error      *string   `json:"error,omitempty"`
	ExecutedAt time.Time `json:"executed_at"`
}

// CommandLogRepository 命令记录仓库
type CommandLogRepository struct {
	db *DB
}

// NewCommandLogRepository 创建命令记录仓库
func NewCommandLogRepository(db *DB) *CommandLogRepository {
	return &CommandLogRepository{db: db}
}

// Create 写入命令记录
func (r *CommandLogRepository) Create(ctx context.Context, rec *CommandRecord) error {
	query := `
		INSERT INTO command_log (vehicle_id, command, result, error, executed_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.Pool.QueryRow(ctx, query,
		rec.VehicleID,
		rec.Command,
		rec.Result,
		rec.Error,
		rec.ExecutedAt,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("insert command record: %w", err)
	}
	return nil
}

// ListByVehicle 获取车辆最近的命令记录
func (r *CommandLogRepository) ListByVehicle(ctx context.Context, vehicleID int64, limit int) ([]*CommandRecord, error) {
	query := `
		SELECT id, vehicle_id, command, result, error, executed_at
		FROM command_log
		WHERE vehicle_id = $1
		ORDER BY executed_at DESC
		LIMIT $2
	`
	rows, err := r.db.Pool.Query(ctx, query, vehicleID, limit)
	if err != nil {
		return nil, fmt.Errorf("list command records: %w", err)
	}
	defer rows.Close()

	var records []*CommandRecord
	for rows.Next() {
		rec := &CommandRecord{}
		if err := rows.Scan(
			&rec.ID,
			&rec.VehicleID,
			&rec.Command,
			&rec.Result,
			&rec.Error,
			&rec.ExecutedAt,
		); err != nil {
			return nil, fmt.Errorf("scan command record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
