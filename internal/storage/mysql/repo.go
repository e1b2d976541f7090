package mysql

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"place_extractor/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// urlHash keeps the lookup index short; source_url is compared too.
func urlHash(u string) string {
	sum := sha256.Sum256([]byte(u))
	return hex.EncodeToString(sum[:])
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// Save writes the envelope and its review samples in one transaction.
func (r *Repo) Save(ctx context.Context, e domain.Envelope) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var p domain.PlaceRecord
	var errText any
	if e.Results.Failed() {
		errText = e.Results.Error
	} else {
		p = *e.Results.Place
	}
	if _, err := tx.ExecContext(ctx, insertExtractionSQL,
		e.ID,
		e.SourceURL,
		urlHash(e.SourceURL),
		e.ExtractionDate.UTC(),
		errText,
		valStr(p.Name),
		valStr(p.Address),
		valF64(p.Rating),
		p.TotalReviewCount,
		valStr(p.Phone),
		valStr(p.Website),
		valStr(p.FirstReviewDate),
	); err != nil {
		return fmt.Errorf("insert extraction: %w", err)
	}

	if n := len(p.NegativeReviews); n > 0 {
		values := make([]string, 0, n)
		args := make([]any, 0, n*5) // 5 params per row
		for i, rv := range p.NegativeReviews {
			values = append(values, "(?,?,?,?,?)")
			args = append(args, e.ID, i, rv.Rating, rv.Date, rv.Text)
		}
		if _, err := tx.ExecContext(ctx, insertReviewsPrefix+strings.Join(values, ","), args...); err != nil {
			return fmt.Errorf("insert reviews: %w", err)
		}
	}
	return tx.Commit()
}

func (r *Repo) Get(ctx context.Context, id string) (domain.Envelope, error) {
	return r.one(ctx, r.db.QueryRowContext(ctx, getExtractionSQL, id))
}

func (r *Repo) LatestByURL(ctx context.Context, url string) (domain.Envelope, error) {
	return r.one(ctx, r.db.QueryRowContext(ctx, latestByURLSQL, urlHash(url), url))
}

func (r *Repo) one(ctx context.Context, row *sql.Row) (domain.Envelope, error) {
	var e domain.Envelope
	var (
		errText, name, address   sql.NullString
		phone, website, firstRev sql.NullString
		rating                   sql.NullFloat64
		total                    int
	)
	if err := row.Scan(
		&e.ID,
		&e.SourceURL,
		&e.ExtractionDate,
		&errText,
		&name, &address,
		&rating,
		&total,
		&phone, &website, &firstRev,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Envelope{}, domain.ErrNotFound
		}
		return domain.Envelope{}, err
	}
	e.ExtractionDate = e.ExtractionDate.UTC()

	if errText.Valid {
		e.Results = domain.Failed(errText.String)
		return e, nil
	}

	p := domain.PlaceRecord{
		Name:             strPtr(name),
		Address:          strPtr(address),
		TotalReviewCount: total,
		Phone:            strPtr(phone),
		Website:          strPtr(website),
		FirstReviewDate:  strPtr(firstRev),
		NegativeReviews:  []domain.ReviewSample{},
	}
	if rating.Valid {
		f := rating.Float64
		p.Rating = &f
	}

	rows, err := r.db.QueryContext(ctx, listReviewsSQL, e.ID)
	if err != nil {
		return domain.Envelope{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var rv domain.ReviewSample
		if err := rows.Scan(&rv.Rating, &rv.Date, &rv.Text); err != nil {
			return domain.Envelope{}, err
		}
		p.NegativeReviews = append(p.NegativeReviews, rv)
	}
	if err := rows.Err(); err != nil {
		return domain.Envelope{}, err
	}
	e.Results = domain.Succeeded(p)
	return e, nil
}
