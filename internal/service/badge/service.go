package badge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/commentera/commentera-api/internal/metrics"
	"github.com/commentera/commentera-api/internal/model"
	"github.com/commentera/commentera-api/internal/registry"
	"github.com/commentera/commentera-api/internal/repository"
	"github.com/commentera/commentera-api/internal/util"
)

const (
	EventsTopic    = "badges.events"
	eventAggregate = "badge_event"
)

// ConfigLookup is the registry view the badge service needs.
type ConfigLookup interface {
	Lookup(alias string) (model.CustomerConfig, error)
}

var _ ConfigLookup = (*registry.Registry)(nil)

// Service enforces the badge invariants for add/replace/remove. Every
// operation runs in one transaction over the user's badge rows (locked with
// SELECT ... FOR UPDATE), re-validating against the registry's current
// allowed set, and appends one outbox event on success.
type Service struct {
	db       *sqlx.DB
	registry ConfigLookup
	users    repository.UsersRepository
	badges   repository.BadgesRepository
	outbox   repository.OutboxRepository
}

func NewService(
	db *sqlx.DB,
	reg ConfigLookup,
	usersRepo repository.UsersRepository,
	badgesRepo repository.BadgesRepository,
	outboxRepo repository.OutboxRepository,
) *Service {
	return &Service{
		db:       db,
		registry: reg,
		users:    usersRepo,
		badges:   badgesRepo,
		outbox:   outboxRepo,
	}
}

// AddBadges appends the named badges to the user.
func (s *Service) AddBadges(ctx context.Context, alias string, userID uuid.UUID, names []string) error {
	cfg, err := s.registry.Lookup(alias)
	if err != nil {
		return fmt.Errorf("lookup customer %q: %w", alias, err)
	}

	err = s.inUserTx(ctx, userID, alias, func(tx *sqlx.Tx, current []model.Badge) error {
		toAdd, err := planAdd(cfg, current, names)
		if err != nil {
			return err
		}
		for _, name := range toAdd {
			if err := s.badges.Insert(ctx, tx, userID, name); err != nil {
				return fmt.Errorf("insert badge %q: %w", name, err)
			}
		}
		return s.appendEvent(ctx, tx, alias, userID, model.OpAdd, names, nil)
	})

	s.count(model.OpAdd, err)
	return err
}

// ReplaceBadges renames owned badges in place, pairing old and new names
// positionally.
func (s *Service) ReplaceBadges(ctx context.Context, alias string, userID uuid.UUID, oldNames, newNames []string) error {
	cfg, err := s.registry.Lookup(alias)
	if err != nil {
		return fmt.Errorf("lookup customer %q: %w", alias, err)
	}

	err = s.inUserTx(ctx, userID, alias, func(tx *sqlx.Tx, current []model.Badge) error {
		renames, err := planReplace(cfg, current, oldNames, newNames)
		if err != nil {
			return err
		}
		for _, rn := range renames {
			if err := s.badges.Rename(ctx, tx, rn.BadgeID, rn.NewName); err != nil {
				return fmt.Errorf("rename badge %q -> %q: %w", rn.OldName, rn.NewName, err)
			}
		}
		return s.appendEvent(ctx, tx, alias, userID, model.OpReplace, newNames, oldNames)
	})

	s.count(model.OpReplace, err)
	return err
}

// RemoveBadges deletes the named badges from the user. All-or-nothing: a
// single unknown name rolls the whole operation back.
func (s *Service) RemoveBadges(ctx context.Context, alias string, userID uuid.UUID, names []string) error {
	err := s.inUserTx(ctx, userID, alias, func(tx *sqlx.Tx, current []model.Badge) error {
		ids, err := planRemove(current, names)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if err := s.badges.Delete(ctx, tx, id); err != nil {
				return fmt.Errorf("delete badge %d: %w", id, err)
			}
		}
		return s.appendEvent(ctx, tx, alias, userID, model.OpRemove, names, nil)
	})

	s.count(model.OpRemove, err)
	return err
}

// inUserTx resolves the user inside a fresh transaction, locks their badge
// rows, and runs fn. Commit only on success.
func (s *Service) inUserTx(ctx context.Context, userID uuid.UUID, alias string, fn func(tx *sqlx.Tx, current []model.Badge) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	user, err := s.users.GetForCustomer(ctx, tx, userID, alias)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	current, err := s.badges.ListByUserForUpdate(ctx, tx, userID)
	if err != nil {
		return fmt.Errorf("lock badges: %w", err)
	}

	if err := fn(tx, current); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Service) appendEvent(ctx context.Context, tx *sqlx.Tx, alias string, userID uuid.UUID, op model.BadgeOp, badges, oldBadges []string) error {
	ev := model.BadgeEvent{
		ID:            util.NewULID(),
		CustomerAlias: alias,
		UserID:        userID,
		Op:            op,
		Badges:        badges,
		OldBadges:     oldBadges,
		OccurredAt:    time.Now().UTC(),
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal badge event: %w", err)
	}
	return s.outbox.Insert(ctx, tx, eventAggregate, ev.ID, EventsTopic, payload)
}

func (s *Service) count(op model.BadgeOp, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case isTaxonomy(err):
		outcome = "rejected"
	default:
		outcome = "error"
	}
	metrics.BadgeOpsTotal.WithLabelValues(op.String(), outcome).Inc()
}

func isTaxonomy(err error) bool {
	for _, e := range []error{
		ErrUserNotFound, ErrNoBadgesConfigured, ErrInvalidBadge,
		ErrLimitExceeded, ErrCountMismatch, ErrBadgeNotOwned, ErrBadgeNotFound,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
