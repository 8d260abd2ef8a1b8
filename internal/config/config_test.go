package config

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Scheduling.CreditUnit != 0.75 {
		t.Errorf("Expected credit unit 0.75, got %v", cfg.Scheduling.CreditUnit)
	}
	if cfg.Scheduling.DailyMaxHours != 4 {
		t.Errorf("Expected daily max 4, got %v", cfg.Scheduling.DailyMaxHours)
	}
	if cfg.Scheduling.WeeklyMaxHours != 13 {
		t.Errorf("Expected weekly max 13, got %v", cfg.Scheduling.WeeklyMaxHours)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Expected postgres driver, got %s", cfg.Database.Driver)
	}
	if cfg.Idempotency.TTLDuration() != 24*time.Hour {
		t.Errorf("Expected 24h idempotency ttl, got %v", cfg.Idempotency.TTLDuration())
	}
	if cfg.Cache.CatalogTTLDuration() != time.Hour {
		t.Errorf("Expected 1h catalog ttl, got %v", cfg.Cache.CatalogTTLDuration())
	}
}
