package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// PlaceRecord is the structured result of one place page.
type PlaceRecord struct {
	Name             *string        `json:"name"`
	Address          *string        `json:"address"`
	Rating           *float64       `json:"rating"`
	TotalReviewCount int            `json:"total_review_count"`
	Phone            *string        `json:"phone"`
	Website          *string        `json:"website"`
	FirstReviewDate  *string        `json:"first_review_date"`
	NegativeReviews  []ReviewSample `json:"negative_reviews"`
}

// ReviewSample is one low-rated review as shown on the page.
type ReviewSample struct {
	Text   string `json:"text"`
	Rating int    `json:"rating"`
	Date   string `json:"date"`
}

// Result is either a PlaceRecord or an error record, never both.
type Result struct {
	Place *PlaceRecord
	Error string
}

func Succeeded(p PlaceRecord) Result { return Result{Place: &p} }

func Failed(msg string) Result { return Result{Error: msg} }

func (r Result) Failed() bool { return r.Place == nil }

type errorRecord struct {
	Error string `json:"error"`
}

// MarshalJSON leaves HTML characters unescaped; the enclosing encoder decides.
func (r Result) MarshalJSON() ([]byte, error) {
	var v any = errorRecord{Error: r.Error}
	if r.Place != nil {
		p := *r.Place
		if p.NegativeReviews == nil {
			p.NegativeReviews = []ReviewSample{}
		}
		v = p
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (r *Result) UnmarshalJSON(b []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(b, &probe); err != nil {
		return err
	}
	if raw, ok := probe["error"]; ok && len(probe) == 1 {
		*r = Result{}
		return json.Unmarshal(raw, &r.Error)
	}
	var p PlaceRecord
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = Result{Place: &p}
	return nil
}

// Envelope wraps a Result with where and when it was produced.
type Envelope struct {
	ID             string    `json:"id,omitempty"`
	ExtractionDate time.Time `json:"extraction_date"`
	SourceURL      string    `json:"source_url"`
	Results        Result    `json:"results"`
}
