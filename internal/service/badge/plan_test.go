package badge

import (
	"errors"
	"reflect"
	"testing"

	"github.com/commentera/commentera-api/internal/model"
)

func bbgConfig() model.CustomerConfig {
	return model.CustomerConfig{Alias: "bbg", Status: "active", Badges: []string{"PAID", "EDITOR"}}
}

func xbahnConfig() model.CustomerConfig {
	return model.CustomerConfig{Alias: "xbahn", Status: "active", Badges: []string{"SPAMMER", "CONTRIBUTOR", "MODERATOR"}}
}

func owned(names ...string) []model.Badge {
	out := make([]model.Badge, 0, len(names))
	for i, n := range names {
		out = append(out, model.Badge{ID: int64(i + 1), Name: n})
	}
	return out
}

func TestPlanAddFirstBadge(t *testing.T) {
	toAdd, err := planAdd(bbgConfig(), nil, []string{"PAID"})
	if err != nil {
		t.Fatalf("planAdd error: %v", err)
	}
	if !reflect.DeepEqual(toAdd, []string{"PAID"}) {
		t.Fatalf("unexpected plan: %v", toAdd)
	}
}

func TestPlanAddNoBadgesConfigured(t *testing.T) {
	cfg := model.CustomerConfig{Alias: "bare", Status: "active"}
	if _, err := planAdd(cfg, nil, []string{"PAID"}); !errors.Is(err, ErrNoBadgesConfigured) {
		t.Fatalf("expected ErrNoBadgesConfigured, got %v", err)
	}
}

func TestPlanAddInvalidBadge(t *testing.T) {
	if _, err := planAdd(bbgConfig(), nil, []string{"PAID", "SPAMMER"}); !errors.Is(err, ErrInvalidBadge) {
		t.Fatalf("expected ErrInvalidBadge, got %v", err)
	}
}

func TestPlanAddLimitExceeded(t *testing.T) {
	// user holds {PAID}; adding two more would push the count to 3
	if _, err := planAdd(bbgConfig(), owned("PAID"), []string{"EDITOR", "PAID"}); !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}
	// exactly at the cap is fine
	if _, err := planAdd(bbgConfig(), owned("PAID"), []string{"EDITOR"}); err != nil {
		t.Fatalf("add to cap should pass: %v", err)
	}
	// a full user cannot add anything
	if _, err := planAdd(bbgConfig(), owned("PAID", "EDITOR"), []string{"PAID"}); !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded for full user, got %v", err)
	}
}

func TestPlanReplacePositional(t *testing.T) {
	renames, err := planReplace(xbahnConfig(), owned("SPAMMER"), []string{"SPAMMER"}, []string{"CONTRIBUTOR"})
	if err != nil {
		t.Fatalf("planReplace error: %v", err)
	}
	if len(renames) != 1 || renames[0].BadgeID != 1 || renames[0].NewName != "CONTRIBUTOR" {
		t.Fatalf("unexpected renames: %+v", renames)
	}
}

func TestPlanReplaceTwoBadges(t *testing.T) {
	renames, err := planReplace(
		xbahnConfig(),
		owned("SPAMMER", "CONTRIBUTOR"),
		[]string{"CONTRIBUTOR", "SPAMMER"},
		[]string{"MODERATOR", "CONTRIBUTOR"},
	)
	if err != nil {
		t.Fatalf("planReplace error: %v", err)
	}
	// old names resolve against stored order: CONTRIBUTOR is row 2, SPAMMER row 1
	if renames[0].BadgeID != 2 || renames[0].NewName != "MODERATOR" {
		t.Fatalf("unexpected first rename: %+v", renames[0])
	}
	if renames[1].BadgeID != 1 || renames[1].NewName != "CONTRIBUTOR" {
		t.Fatalf("unexpected second rename: %+v", renames[1])
	}
}

func TestPlanReplaceCountMismatch(t *testing.T) {
	_, err := planReplace(xbahnConfig(), owned("SPAMMER"), []string{"SPAMMER"}, []string{"CONTRIBUTOR", "MODERATOR"})
	if !errors.Is(err, ErrCountMismatch) {
		t.Fatalf("expected ErrCountMismatch, got %v", err)
	}
}

func TestPlanReplaceBadgeNotOwned(t *testing.T) {
	_, err := planReplace(xbahnConfig(), owned("SPAMMER"), []string{"MODERATOR"}, []string{"CONTRIBUTOR"})
	if !errors.Is(err, ErrBadgeNotOwned) {
		t.Fatalf("expected ErrBadgeNotOwned, got %v", err)
	}
}

func TestPlanReplaceInvalidNewBadge(t *testing.T) {
	_, err := planReplace(xbahnConfig(), owned("SPAMMER"), []string{"SPAMMER"}, []string{"ROYALTY"})
	if !errors.Is(err, ErrInvalidBadge) {
		t.Fatalf("expected ErrInvalidBadge, got %v", err)
	}
}

func TestPlanReplaceDuplicateOldNames(t *testing.T) {
	current := []model.Badge{
		{ID: 7, Name: "SPAMMER"},
		{ID: 9, Name: "SPAMMER"},
	}
	renames, err := planReplace(xbahnConfig(), current, []string{"SPAMMER", "SPAMMER"}, []string{"CONTRIBUTOR", "MODERATOR"})
	if err != nil {
		t.Fatalf("planReplace error: %v", err)
	}
	// each occurrence consumes a distinct row
	if renames[0].BadgeID != 7 || renames[1].BadgeID != 9 {
		t.Fatalf("expected distinct rows, got %+v", renames)
	}
}

func TestPlanRemove(t *testing.T) {
	ids, err := planRemove(owned("SPAMMER", "CONTRIBUTOR"), []string{"CONTRIBUTOR"})
	if err != nil {
		t.Fatalf("planRemove error: %v", err)
	}
	if !reflect.DeepEqual(ids, []int64{2}) {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestPlanRemoveBadgeNotFound(t *testing.T) {
	// one hit plus one miss: the whole operation must fail, nothing planned
	_, err := planRemove(owned("SPAMMER"), []string{"SPAMMER", "CONTRIBUTOR"})
	if !errors.Is(err, ErrBadgeNotFound) {
		t.Fatalf("expected ErrBadgeNotFound, got %v", err)
	}
}

func TestPlanRemoveFromEmptyUser(t *testing.T) {
	if _, err := planRemove(nil, []string{"X"}); !errors.Is(err, ErrBadgeNotFound) {
		t.Fatalf("expected ErrBadgeNotFound, got %v", err)
	}
}
