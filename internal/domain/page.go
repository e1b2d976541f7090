package domain

import (
	"context"
	"encoding/json"
	"time"
)

// By names a lookup strategy.
type By string

const (
	ByCSS   By = "css"
	ByXPath By = "xpath"
	// ByText matches a CSS selector and keeps nodes whose text contains Contains.
	ByText By = "text"
)

// Locator is one way of finding an element on a page.
type Locator struct {
	By       By     `json:"by"`
	Value    string `json:"value"`
	Contains string `json:"contains,omitempty"`
}

func CSS(sel string) Locator  { return Locator{By: ByCSS, Value: sel} }
func XPath(xp string) Locator { return Locator{By: ByXPath, Value: xp} }
func CSSWithText(sel, text string) Locator {
	return Locator{By: ByText, Value: sel, Contains: text}
}

func (l Locator) String() string {
	if l.By == ByText {
		return string(l.By) + ":" + l.Value + "~" + l.Contains
	}
	return string(l.By) + ":" + l.Value
}

// UnmarshalJSON accepts either an object or a bare string, which is read as CSS.
func (l *Locator) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*l = CSS(s)
		return nil
	}
	type plain Locator
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	if p.By == "" {
		p.By = ByCSS
	}
	*l = Locator(p)
	return nil
}

// SelectorCandidateList is consulted in order; the first usable match wins.
type SelectorCandidateList []Locator

// Page is a live or static rendering of a place page.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Title(ctx context.Context) (string, error)
	Source(ctx context.Context) (string, error)
	// WaitPresent polls up to timeout; ErrNoNode when nothing matched.
	// A zero timeout checks once.
	WaitPresent(ctx context.Context, loc Locator, timeout time.Duration) (Node, error)
	WaitClickable(ctx context.Context, loc Locator, timeout time.Duration) (Node, error)
	// FindAll does not wait; an empty slice is not an error.
	FindAll(ctx context.Context, loc Locator) ([]Node, error)
	Close() error
}

// Node is an element handle. Lookups below a node are CSS only.
type Node interface {
	Text(ctx context.Context) (string, error)
	// Attr returns "" when the attribute is absent.
	Attr(ctx context.Context, name string) (string, error)
	FindAll(ctx context.Context, css string) ([]Node, error)
	Displayed(ctx context.Context) (bool, error)
	Click(ctx context.Context) error
	ScrollToBottom(ctx context.Context) error
}

// SessionOpener starts one page session; the caller closes it.
type SessionOpener interface {
	Open(ctx context.Context) (Page, error)
}
