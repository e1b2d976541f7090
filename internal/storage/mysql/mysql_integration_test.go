//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"place_extractor/internal/domain"
	mysqlrepo "place_extractor/internal/storage/mysql"
)

// ---------- small helpers ----------
func pstr(s string) *string     { return &s }
func pfloat(f float64) *float64 { return &f }

func migrationsDir(t *testing.T) string {
	t.Helper()
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return filepath.Join("..", "..", "..", "migrations")
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := migrationsDir(t)

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

// startMySQL runs an isolated MySQL and returns a migrated connection.
func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=places",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "places")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

// ---------- the test ----------
func TestRepo_MySQL_SaveAndQuery(t *testing.T) {
	repo := mysqlrepo.New(startMySQL(t))
	ctx := context.Background()
	url := "https://www.google.com/maps/place/Caf%C3%A9+Test"
	t0 := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	first := domain.Envelope{
		ID:             "00000000-0000-0000-0000-000000000001",
		ExtractionDate: t0,
		SourceURL:      url,
		Results: domain.Succeeded(domain.PlaceRecord{
			Name:             pstr("Café Test"),
			Address:          pstr("1 Test Street"),
			Rating:           pfloat(4.2),
			TotalReviewCount: 89,
			FirstReviewDate:  pstr("2 years ago"),
			NegativeReviews: []domain.ReviewSample{
				{Text: "Cold coffee and a very long wait.", Rating: 1, Date: "2 years ago"},
				{Text: "Overpriced and the staff ignored us.", Rating: 2, Date: "Recent"},
			},
		}),
	}
	failed := domain.Envelope{
		ID:             "00000000-0000-0000-0000-000000000002",
		ExtractionDate: t0.Add(time.Hour),
		SourceURL:      url,
		Results:        domain.Failed("Extraction failed: navigate: timeout"),
	}
	for _, e := range []domain.Envelope{first, failed} {
		if err := repo.Save(ctx, e); err != nil {
			t.Fatalf("Save %s: %v", e.ID, err)
		}
	}

	got, err := repo.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	p := got.Results.Place
	if got.Results.Failed() || *p.Name != "Café Test" || *p.Rating != 4.2 || p.Phone != nil ||
		p.TotalReviewCount != 89 || !got.ExtractionDate.Equal(t0) {
		t.Fatalf("unexpected envelope: %+v / %+v", got, p)
	}
	if len(p.NegativeReviews) != 2 || p.NegativeReviews[1].Rating != 2 || p.NegativeReviews[0].Date != "2 years ago" {
		t.Fatalf("unexpected reviews: %+v", p.NegativeReviews)
	}

	latest, err := repo.LatestByURL(ctx, url)
	if err != nil {
		t.Fatalf("LatestByURL: %v", err)
	}
	if latest.ID != failed.ID || !latest.Results.Failed() || latest.Results.Error != failed.Results.Error {
		t.Fatalf("unexpected latest: %+v", latest)
	}

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.LatestByURL(ctx, "https://maps.google.com/other"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
