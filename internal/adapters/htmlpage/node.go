package htmlpage

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"place_extractor/internal/domain"
)

type Node struct {
	page *Page
	sel  *goquery.Selection
}

// Text collapses whitespace runs the way rendered text would read.
func (n *Node) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(n.sel.Text()), " "), nil
}

func (n *Node) Attr(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return n.sel.AttrOr(name, ""), nil
}

func (n *Node) FindAll(ctx context.Context, css string) ([]domain.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return n.page.wrap(n.sel.Find(css)), nil
}

// Displayed is false for nodes hidden by attribute or inline style, including
// through an ancestor.
func (n *Node) Displayed(context.Context) (bool, error) {
	for s := n.sel; s.Length() > 0; s = s.Parent() {
		if _, hidden := s.Attr("hidden"); hidden {
			return false, nil
		}
		style := strings.ReplaceAll(strings.ToLower(s.AttrOr("style", "")), " ", "")
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return false, nil
		}
	}
	return true, nil
}

func (n *Node) disabled() bool {
	_, ok := n.sel.Attr("disabled")
	return ok
}

func (n *Node) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.page.mu.Lock()
	n.page.clicks = append(n.page.clicks, n.describe())
	n.page.mu.Unlock()
	return nil
}

func (n *Node) ScrollToBottom(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.page.mu.Lock()
	n.page.scrolls++
	n.page.mu.Unlock()
	return nil
}

func (n *Node) describe() string {
	tag := goquery.NodeName(n.sel)
	if l := n.sel.AttrOr("aria-label", ""); l != "" {
		return tag + "[" + l + "]"
	}
	if c := n.sel.AttrOr("class", ""); c != "" {
		return tag + "." + strings.ReplaceAll(c, " ", ".")
	}
	return tag
}
