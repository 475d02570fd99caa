package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/commentera/commentera-api/internal/model"
)

// EventsRepository stores and lists badge audit events in ClickHouse.
type EventsRepository interface {
	InsertBatch(ctx context.Context, events []model.BadgeEvent) error
	ListByCustomer(ctx context.Context, alias string, op model.BadgeOp, limit, offset int) ([]EventRow, error)
}

// EventRow is the flattened ClickHouse row (badge lists joined with ",").
type EventRow struct {
	ID            string    `db:"id" json:"id"`
	CustomerAlias string    `db:"customer_alias" json:"customer_alias"`
	UserID        string    `db:"user_id" json:"user_id"`
	Op            string    `db:"op" json:"op"`
	Badges        string    `db:"badges" json:"badges"`
	OldBadges     string    `db:"old_badges" json:"old_badges,omitempty"`
	OccurredAt    time.Time `db:"occurred_at" json:"occurred_at"`
}

type eventsRepository struct {
	ch *sqlx.DB // ClickHouse connection
}

func NewEventsRepository(ch *sqlx.DB) EventsRepository {
	return &eventsRepository{ch: ch}
}

func (r *eventsRepository) InsertBatch(ctx context.Context, events []model.BadgeEvent) error {
	if len(events) == 0 {
		return nil
	}

	var sb strings.Builder
	args := make([]any, 0, len(events)*7)

	sb.WriteString(`INSERT INTO commentera.badge_events
		(id, customer_alias, user_id, op, badges, old_badges, occurred_at) VALUES `)
	for i, ev := range events {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			ev.ID,
			ev.CustomerAlias,
			ev.UserID.String(),
			ev.Op.String(),
			strings.Join(ev.Badges, ","),
			strings.Join(ev.OldBadges, ","),
			ev.OccurredAt,
		)
	}

	_, err := r.ch.ExecContext(ctx, sb.String(), args...)
	return err
}

func (r *eventsRepository) ListByCustomer(ctx context.Context, alias string, op model.BadgeOp, limit, offset int) ([]EventRow, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	q := `
		SELECT id, customer_alias, user_id, op, badges, old_badges, occurred_at
		FROM commentera.badge_events
		WHERE customer_alias = ?
	`
	args := []any{alias}

	if op != "" {
		q += " AND op = ?"
		args = append(args, op.String())
	}

	q += " ORDER BY occurred_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var rows []EventRow
	if err := r.ch.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
