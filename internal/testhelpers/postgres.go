// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

//go:build container

// Package testhelpers starts containerized infrastructure for integration tests.
//
// Tests using it carry the "container" build tag and need a reachable Docker
// daemon:
//
//	go test -tags container ./...
package testhelpers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/taibuivan/livingatlas/internal/platform/migration"
	"github.com/taibuivan/livingatlas/internal/platform/postgres"
)

const (
	postgresImage    = "postgres:16-alpine"
	postgresUser     = "atlas"
	postgresPassword = "atlas"
	postgresDatabase = "atlas"
)

// Postgres is a migrated database running in a container.
type Postgres struct {
	DSN  string
	Pool *pgxpool.Pool
}

// MigrationsPath returns the absolute path of data/migrations.
func MigrationsPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "data", "migrations")
}

/*
StartPostgres runs a PostgreSQL container, applies every migration and opens a pool.

Description: The container and pool are released through t.Cleanup.
*/
func StartPostgres(t *testing.T) *Postgres {
	t.Helper()

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        postgresImage,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     postgresUser,
				"POSTGRES_PASSWORD": postgresPassword,
				"POSTGRES_DB":       postgresDatabase,
			},
			// The server restarts once after initdb
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("postgres host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("postgres port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		postgresUser, postgresPassword, host, port.Port(), postgresDatabase)

	if err := migration.RunUp(dsn, MigrationsPath(), logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := postgres.NewPool(ctx, dsn, logger)
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}
	t.Cleanup(pool.Close)

	return &Postgres{DSN: dsn, Pool: pool}
}

// CreateUser inserts a user row and returns its id.
func (database *Postgres) CreateUser(t *testing.T, username, email string) int64 {
	t.Helper()

	var id int64
	err := database.Pool.QueryRow(context.Background(),
		`INSERT INTO atlas.users (username, email) VALUES ($1, $2) RETURNING userid`,
		username, email,
	).Scan(&id)
	if err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return id
}
