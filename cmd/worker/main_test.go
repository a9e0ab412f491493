package main

import (
	"testing"
	"time"

	"github.com/iho/reconledger/internal/infrastructure/config"
	"github.com/iho/reconledger/internal/infrastructure/jobs"
)

func TestCronRegistrations(t *testing.T) {
	cfg := &config.Config{
		ConfirmSweepCron:     "@every 1h",
		ConfirmPendingAfter:  72 * time.Hour,
		PeriodicSnapshotCron: "0 3 1 * *",
		SnapshotOwners:       []string{"owner-1", " ", "owner-2"},
	}

	cron, err := cronRegistrations(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cron) != 3 {
		t.Fatalf("expected 3 registrations, got %d", len(cron))
	}
	if cron[0].Task.Type() != jobs.TaskConfirmElapsed || cron[0].Spec != "@every 1h" {
		t.Fatalf("unexpected sweep registration: %s %s", cron[0].Spec, cron[0].Task.Type())
	}
	for _, entry := range cron[1:] {
		if entry.Task.Type() != jobs.TaskPeriodicSnapshot {
			t.Fatalf("unexpected task %s", entry.Task.Type())
		}
	}
}

func TestCronRegistrationsDisabled(t *testing.T) {
	cron, err := cronRegistrations(&config.Config{SnapshotOwners: []string{"owner-1"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cron) != 0 {
		t.Fatalf("expected no registrations, got %d", len(cron))
	}
}

func TestCronRegistrationsRejectsZeroAge(t *testing.T) {
	if _, err := cronRegistrations(&config.Config{ConfirmSweepCron: "@every 1h"}); err == nil {
		t.Fatalf("expected error for zero confirmation age")
	}
}

func TestParseCategoryRules(t *testing.T) {
	keywords, categories, err := parseCategoryRules([]string{"uber:transport", " netflix : entertainment ", ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keywords) != 2 || keywords[0] != "uber" || keywords[1] != "netflix" {
		t.Fatalf("unexpected keywords: %v", keywords)
	}
	if categories["netflix"] != "entertainment" {
		t.Fatalf("unexpected categories: %v", categories)
	}

	if _, _, err := parseCategoryRules([]string{"uber"}); err == nil {
		t.Fatalf("expected error for rule without category")
	}
}
