package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeSource(t *testing.T, content string) *CSVSource {
	t.Helper()
	path := filepath.Join(t.TempDir(), "customers.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return NewCSVSource(path)
}

func TestCSVSourceVariableWidthRows(t *testing.T) {
	src := writeSource(t, "customer_id,status,badge1,badge2,badge3\n"+
		"bbg,active,PAID,EDITOR\n"+
		"xbahn,active,SPAMMER,CONTRIBUTOR,MODERATOR\n"+
		"airhansa,inactive\n")

	configs, skipped, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if skipped != 0 {
		t.Fatalf("expected no skipped rows, got %d", skipped)
	}
	if len(configs) != 3 {
		t.Fatalf("expected 3 configs, got %d", len(configs))
	}

	if configs[0].Alias != "bbg" || configs[0].Status != "active" {
		t.Fatalf("unexpected first config: %+v", configs[0])
	}
	if got := configs[0].Badges; len(got) != 2 || got[0] != "PAID" || got[1] != "EDITOR" {
		t.Fatalf("unexpected bbg badges: %v", got)
	}
	if got := configs[1].Badges; len(got) != 3 {
		t.Fatalf("unexpected xbahn badges: %v", got)
	}
	if got := configs[2].Badges; len(got) != 0 {
		t.Fatalf("expected no badges for airhansa, got %v", got)
	}
}

func TestCSVSourceSkipsMalformedRows(t *testing.T) {
	src := writeSource(t, "customer_id,status,badge1\n"+
		"bbg,active,PAID\n"+
		"orphan\n"+ // missing status
		",active,PAID\n"+ // missing alias
		"xbahn, ,PAID\n"+ // blank status
		"good,active,EDITOR\n")

	configs, skipped, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if skipped != 3 {
		t.Fatalf("expected 3 skipped rows, got %d", skipped)
	}
	if len(configs) != 2 {
		t.Fatalf("expected 2 configs, got %d", len(configs))
	}
	if configs[1].Alias != "good" {
		t.Fatalf("unexpected second config: %+v", configs[1])
	}
}

func TestCSVSourceIgnoresEmptyBadgeCells(t *testing.T) {
	src := writeSource(t, "customer_id,status,badge1,badge2\n"+
		"bbg,active,,EDITOR\n")

	configs, _, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got := configs[0].Badges; len(got) != 1 || got[0] != "EDITOR" {
		t.Fatalf("unexpected badges: %v", got)
	}
}

func TestCSVSourceMissingFile(t *testing.T) {
	src := NewCSVSource(filepath.Join(t.TempDir(), "nope.csv"))
	if _, _, err := src.Load(context.Background()); err == nil {
		t.Fatal("expected error for missing file")
	}
}
