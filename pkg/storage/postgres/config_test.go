package postgres

import (
	"context"
	"testing"
	"time"
)

func TestConfigDefaults(t *testing.T) {
	c := Config{DSN: "postgres://localhost/stackauth"}
	c.defaults()

	if c.MaxConns != 25 {
		t.Errorf("MaxConns = %d, want 25", c.MaxConns)
	}
	if c.MinConns != 2 {
		t.Errorf("MinConns = %d, want 2", c.MinConns)
	}
	if c.MaxConnLifetime != 30*time.Minute {
		t.Errorf("MaxConnLifetime = %v, want 30m", c.MaxConnLifetime)
	}
	if c.LookupTimeout != 2*time.Second {
		t.Errorf("LookupTimeout = %v, want 2s", c.LookupTimeout)
	}
}

func TestConfigDefaults_MinConnsCapped(t *testing.T) {
	c := Config{DSN: "x", MaxConns: 1, MinConns: 4}
	c.defaults()
	if c.MinConns != 1 {
		t.Errorf("MinConns = %d, want 1", c.MinConns)
	}
}

func TestNew_RequiresDSN(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for empty DSN")
	}
}

func TestPendingMigrations(t *testing.T) {
	list, err := pendingMigrations()
	if err != nil {
		t.Fatalf("pendingMigrations: %v", err)
	}
	if len(list) == 0 {
		t.Fatal("no embedded migrations")
	}
	if list[0].version != 1 || list[0].name != "001_create_api_keys.sql" {
		t.Errorf("first migration = %+v", list[0])
	}
	for i := 1; i < len(list); i++ {
		if list[i].version <= list[i-1].version {
			t.Errorf("migrations out of order at %d: %+v", i, list)
		}
	}
}
