package database

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/wonny/sector-rotation/pkg/config"
)

func TestNew_Disabled(t *testing.T) {
	_, err := New(context.Background(), &config.Config{})
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("Expected ErrDisabled, got %v", err)
	}
}

func TestNewWithInvalidURL(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			URL:             "invalid://url",
			MaxConns:        5,
			MinConns:        1,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 30 * time.Minute,
		},
	}

	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("Expected error with invalid database URL, got nil")
	}
}

func TestHealthCheck(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg := &config.Config{
		Database: config.DatabaseConfig{
			URL:             url,
			MaxConns:        2,
			MinConns:        1,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: time.Minute,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	status, err := db.HealthCheck(ctx)
	if err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}
	if !status.Healthy {
		t.Error("Expected database to be healthy")
	}

	// Double close should not panic
	db.Close()
	db.Close()
}
