package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"place_extractor/internal/domain"
)

const maxShownText = 200

type printer struct {
	w    io.Writer
	json bool
}

func (p *printer) print(env domain.Envelope) {
	if p.json {
		enc := json.NewEncoder(p.w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		_ = enc.Encode(env)
		return
	}

	rule := strings.Repeat("=", 60)
	fmt.Fprintf(p.w, "\n%s\nEXTRACTION RESULTS\n%s\n", rule, rule)
	if env.Results.Failed() {
		fmt.Fprintf(p.w, "\nERROR: %s\n%s\n", env.Results.Error, rule)
		return
	}
	r := env.Results.Place
	rating := "Not found"
	if r.Rating != nil {
		rating = strconv.FormatFloat(*r.Rating, 'f', -1, 64)
	}
	fmt.Fprintf(p.w, "Name:           %s\n", orNotFound(r.Name))
	fmt.Fprintf(p.w, "Address:        %s\n", orNotFound(r.Address))
	fmt.Fprintf(p.w, "Phone:          %s\n", orNotFound(r.Phone))
	fmt.Fprintf(p.w, "Website:        %s\n", orNotFound(r.Website))
	fmt.Fprintf(p.w, "Rating:         %s\n", rating)
	fmt.Fprintf(p.w, "Total reviews:  %d\n", r.TotalReviewCount)
	fmt.Fprintf(p.w, "First review:   %s\n", orNotFound(r.FirstReviewDate))

	fmt.Fprintf(p.w, "\nNegative reviews found: %d\n", len(r.NegativeReviews))
	if len(r.NegativeReviews) == 0 {
		fmt.Fprintln(p.w, "No negative reviews found or unable to extract reviews.")
	}
	for i, rv := range r.NegativeReviews {
		text := rv.Text
		if rs := []rune(text); len(rs) > maxShownText {
			text = string(rs[:maxShownText]) + "..."
		}
		fmt.Fprintf(p.w, "\n[Review #%d]\nRating: %d | Date: %s\nComment: %s\n", i+1, rv.Rating, rv.Date, text)
		if i < len(r.NegativeReviews)-1 {
			fmt.Fprintln(p.w, strings.Repeat("-", 40))
		}
	}
	fmt.Fprintln(p.w, rule)
}

func orNotFound(s *string) string {
	if s == nil {
		return "Not found"
	}
	return *s
}
