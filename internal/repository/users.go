package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/commentera/commentera-api/internal/model"
)

type UsersRepository interface {
	// GetForCustomer resolves a user by id scoped to the customer alias.
	// Returns (nil, nil) when no such user belongs to the customer.
	GetForCustomer(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, alias string) (*model.User, error)
	// ListByCustomer returns all users of a customer with their badges in
	// stored order.
	ListByCustomer(ctx context.Context, alias string) ([]model.User, error)
	Insert(ctx context.Context, tx *sqlx.Tx, u model.User) error
	Count(ctx context.Context) (int64, error)
}

type UsersRepositoryImpl struct {
	db *sqlx.DB
}

func NewUsersRepository(db *sqlx.DB) *UsersRepositoryImpl {
	return &UsersRepositoryImpl{db: db}
}

var _ UsersRepository = (*UsersRepositoryImpl)(nil)

func (r *UsersRepositoryImpl) GetForCustomer(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, alias string) (*model.User, error) {
	var u model.User
	err := tx.GetContext(ctx, &u, `
		SELECT id, customer_alias
		  FROM users
		 WHERE id = ? AND customer_alias = ? LIMIT 1
	`, id, alias)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UsersRepositoryImpl) ListByCustomer(ctx context.Context, alias string) ([]model.User, error) {
	var users []model.User
	err := r.db.SelectContext(ctx, &users, `
		SELECT id, customer_alias
		  FROM users
		 WHERE customer_alias = ?
		 ORDER BY id
	`, alias)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(users))
	byID := make(map[uuid.UUID]int, len(users))
	for i, u := range users {
		ids = append(ids, u.ID)
		byID[u.ID] = i
		users[i].Badges = []model.Badge{}
	}

	query, args, err := sqlx.In(`
		SELECT id, name, user_id
		  FROM badges
		 WHERE user_id IN (?)
		 ORDER BY id
	`, ids)
	if err != nil {
		return nil, err
	}
	query = r.db.Rebind(query)

	var badges []model.Badge
	if err := r.db.SelectContext(ctx, &badges, query, args...); err != nil {
		return nil, err
	}
	for _, b := range badges {
		if i, ok := byID[b.UserID]; ok {
			users[i].Badges = append(users[i].Badges, b)
		}
	}
	return users, nil
}

func (r *UsersRepositoryImpl) Insert(ctx context.Context, tx *sqlx.Tx, u model.User) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO users (id, customer_alias) VALUES (?, ?)
	`, u.ID, u.CustomerAlias)
	return err
}

func (r *UsersRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`)
	return n, err
}
