package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Driver() != "sqlite" {
		t.Errorf("driver = %q, want sqlite", cfg.Database.Driver())
	}
	if cfg.Geocode.Timeout != 10*time.Second {
		t.Errorf("geocode timeout = %v, want 10s", cfg.Geocode.Timeout)
	}
	if len(cfg.CORS.AllowedOrigins) != 4 {
		t.Errorf("expected 4 default origins, got %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadRejectsUnknownDatabase(t *testing.T) {
	t.Setenv("DB_TYPE", "oracle")
	if _, err := Load(); err == nil {
		t.Fatal("expected validation error for DB_TYPE=oracle")
	}
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Type: "postgresql", User: "sp", Password: "p@ss", Host: "db", Port: 5432, Name: "shareplate", SSLMode: "disable"}
	dsn := d.DSN()
	if !strings.HasPrefix(dsn, "postgres://sp:p%40ss@db:5432/shareplate") || !strings.HasSuffix(dsn, "sslmode=disable") {
		t.Errorf("postgres dsn = %q", dsn)
	}

	d.Type = "mysql"
	d.Port = 3306
	if got, want := d.DSN(), "sp:p@ss@tcp(db:3306)/shareplate?parseTime=true&clientFoundRows=true"; got != want {
		t.Errorf("mysql dsn = %q, want %q", got, want)
	}

	d.Type = "sqlite"
	d.Path = "/tmp/x.db"
	if d.DSN() != "/tmp/x.db" {
		t.Errorf("sqlite dsn = %q", d.DSN())
	}
}
