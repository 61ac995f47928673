package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/hrygo/remindme/store"
)

const firingRecordColumns = `id, kind, owner_id, text, fires_ts, day_of_week, hour, minute, last_fired_ts, consumed, created_ts`

func (d *DB) CreateFiringRecords(ctx context.Context, creates []*store.FiringRecord) ([]*store.FiringRecord, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	fields := []string{"kind", "owner_id", "text", "fires_ts", "day_of_week", "hour", "minute"}
	stmt := `INSERT INTO firing_record (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(fields)) + `)
		RETURNING id, consumed, created_ts`

	for _, create := range creates {
		if err := tx.QueryRowContext(ctx, stmt,
			string(create.Kind), create.OwnerID, create.Text,
			create.FiresTs, create.DayOfWeek, create.Hour, create.Minute,
		).Scan(&create.ID, &create.Consumed, &create.CreatedTs); err != nil {
			return nil, fmt.Errorf("failed to create firing record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return creates, nil
}

func (d *DB) ListFiringRecords(ctx context.Context, find *store.FindFiringRecord) ([]*store.FiringRecord, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.OwnerID; v != nil {
		where, args = append(where, "owner_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Consumed; v != nil {
		where, args = append(where, "consumed = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT ` + firingRecordColumns + ` FROM firing_record
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY id ASC`
	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	return d.queryFiringRecords(ctx, query, args...)
}

func (d *DB) ListDueFiringRecords(ctx context.Context, find *store.FindDueFiringRecord) ([]*store.FiringRecord, error) {
	query := `SELECT ` + firingRecordColumns + ` FROM firing_record
		WHERE consumed = FALSE AND (
			(kind = 'absolute' AND fires_ts < $1)
			OR
			(kind = 'recurrent' AND day_of_week = $2 AND hour * 60 + minute < $3
				AND (last_fired_ts IS NULL OR last_fired_ts < $4))
		)`
	return d.queryFiringRecords(ctx, query, find.NowTs, find.DayOfWeek, find.MinuteOfDay, find.DayStartTs)
}

func (d *DB) ConsumeFiringRecords(ctx context.Context, consume *store.ConsumeFiringRecords) error {
	stmt := `UPDATE firing_record SET consumed = TRUE WHERE id = ANY($1)`
	if _, err := d.db.ExecContext(ctx, stmt, pq.Array(consume.IDs)); err != nil {
		return fmt.Errorf("failed to consume firing records: %w", err)
	}
	return nil
}

func (d *DB) AcknowledgeFiringRecords(ctx context.Context, ack *store.AcknowledgeFiringRecords) error {
	stmt := `UPDATE firing_record SET last_fired_ts = $1 WHERE kind = 'recurrent' AND id = ANY($2)`
	if _, err := d.db.ExecContext(ctx, stmt, ack.FiredTs, pq.Array(ack.IDs)); err != nil {
		return fmt.Errorf("failed to acknowledge firing records: %w", err)
	}
	return nil
}

func (d *DB) queryFiringRecords(ctx context.Context, query string, args ...any) ([]*store.FiringRecord, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query firing records: %w", err)
	}
	defer rows.Close()

	list := make([]*store.FiringRecord, 0)
	for rows.Next() {
		var (
			record                  store.FiringRecord
			kind                    string
			firesTs, lastFiredTs    sql.NullInt64
			dayOfWeek, hour, minute sql.NullInt32
		)
		if err := rows.Scan(
			&record.ID,
			&kind,
			&record.OwnerID,
			&record.Text,
			&firesTs,
			&dayOfWeek,
			&hour,
			&minute,
			&lastFiredTs,
			&record.Consumed,
			&record.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan firing record: %w", err)
		}

		record.Kind = store.FiringKind(kind)
		if firesTs.Valid {
			record.FiresTs = &firesTs.Int64
		}
		if lastFiredTs.Valid {
			record.LastFiredTs = &lastFiredTs.Int64
		}
		if dayOfWeek.Valid {
			v := int(dayOfWeek.Int32)
			record.DayOfWeek = &v
		}
		if hour.Valid {
			v := int(hour.Int32)
			record.Hour = &v
		}
		if minute.Valid {
			v := int(minute.Int32)
			record.Minute = &v
		}
		list = append(list, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate firing records: %w", err)
	}
	return list, nil
}
