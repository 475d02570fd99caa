package badge

import (
	"errors"

	"github.com/commentera/commentera-api/internal/model"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrNoBadgesConfigured = errors.New("no badges configured")
	ErrInvalidBadge       = errors.New("badge not in customer vocabulary")
	ErrLimitExceeded      = errors.New("badge limit exceeded")
	ErrCountMismatch      = errors.New("old and new badge counts differ")
	ErrBadgeNotOwned      = errors.New("badge not owned by user")
	ErrBadgeNotFound      = errors.New("badge not found for user")
)

// The plan functions below validate a requested mutation against the
// customer's current allowed set and the user's current badge rows, and
// return the exact row-level changes to apply. They hold every badge
// invariant; the service layer only executes their output inside a
// transaction.

// planAdd validates an add and returns the names to insert, appended to the
// user's existing badges.
func planAdd(cfg model.CustomerConfig, current []model.Badge, names []string) ([]string, error) {
	if len(cfg.Badges) == 0 {
		return nil, ErrNoBadgesConfigured
	}
	for _, name := range names {
		if !cfg.AllowsBadge(name) {
			return nil, ErrInvalidBadge
		}
	}
	if len(current)+len(names) > model.MaxBadgesPerUser {
		return nil, ErrLimitExceeded
	}
	return names, nil
}

// rename is one in-place badge rename.
type rename struct {
	BadgeID int64
	OldName string
	NewName string
}

// planReplace pairs old and new names positionally and resolves each old name
// against the user's badges in stored order. Count never changes. Duplicate
// old names consume distinct badge rows.
func planReplace(cfg model.CustomerConfig, current []model.Badge, oldNames, newNames []string) ([]rename, error) {
	if len(oldNames) != len(newNames) {
		return nil, ErrCountMismatch
	}
	if len(cfg.Badges) == 0 {
		return nil, ErrNoBadgesConfigured
	}
	for _, name := range newNames {
		if !cfg.AllowsBadge(name) {
			return nil, ErrInvalidBadge
		}
	}

	used := make(map[int64]bool, len(current))
	renames := make([]rename, 0, len(oldNames))
	for i, oldName := range oldNames {
		matched := false
		for _, b := range current {
			if used[b.ID] || b.Name != oldName {
				continue
			}
			used[b.ID] = true
			renames = append(renames, rename{BadgeID: b.ID, OldName: oldName, NewName: newNames[i]})
			matched = true
			break
		}
		if !matched {
			return nil, ErrBadgeNotOwned
		}
	}
	return renames, nil
}

// planRemove resolves each requested name to an owned badge row. Any miss
// fails the whole operation; no partial deletion is ever planned.
func planRemove(current []model.Badge, names []string) ([]int64, error) {
	used := make(map[int64]bool, len(current))
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		matched := false
		for _, b := range current {
			if used[b.ID] || b.Name != name {
				continue
			}
			used[b.ID] = true
			ids = append(ids, b.ID)
			matched = true
			break
		}
		if !matched {
			return nil, ErrBadgeNotFound
		}
	}
	return ids, nil
}
