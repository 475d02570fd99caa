package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/commentera/commentera-api/internal/model"
)

// BadgesRepository persists badge rows. All mutating methods are tx-scoped:
// the badge service wraps each operation in one transaction keyed to a single
// user's rows.
type BadgesRepository interface {
	// ListByUserForUpdate locks and returns the user's badges in stored order.
	ListByUserForUpdate(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) ([]model.Badge, error)
	Insert(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, name string) error
	Rename(ctx context.Context, tx *sqlx.Tx, badgeID int64, newName string) error
	Delete(ctx context.Context, tx *sqlx.Tx, badgeID int64) error
}

type BadgesRepositoryImpl struct {
	db *sqlx.DB
}

func NewBadgesRepository(db *sqlx.DB) *BadgesRepositoryImpl {
	return &BadgesRepositoryImpl{db: db}
}

var _ BadgesRepository = (*BadgesRepositoryImpl)(nil)

func (r *BadgesRepositoryImpl) ListByUserForUpdate(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) ([]model.Badge, error) {
	var badges []model.Badge
	err := tx.SelectContext(ctx, &badges, `
		SELECT id, name, user_id
		  FROM badges
		 WHERE user_id = ?
		 ORDER BY id
		 FOR UPDATE
	`, userID)
	return badges, err
}

func (r *BadgesRepositoryImpl) Insert(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, name string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO badges (name, user_id) VALUES (?, ?)
	`, name, userID)
	return err
}

func (r *BadgesRepositoryImpl) Rename(ctx context.Context, tx *sqlx.Tx, badgeID int64, newName string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE badges SET name = ? WHERE id = ?
	`, newName, badgeID)
	return err
}

func (r *BadgesRepositoryImpl) Delete(ctx context.Context, tx *sqlx.Tx, badgeID int64) error {
	_, err := tx.ExecContext(ctx, `
		DELETE FROM badges WHERE id = ?
	`, badgeID)
	return err
}
