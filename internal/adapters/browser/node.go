package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"place_extractor/internal/domain"
)

const (
	textJS      = `function() { return (this.innerText || this.textContent || "").trim(); }`
	attrJS      = `function(name) { if (name === "href" && this.href) { return String(this.href); } const v = this.getAttribute(name); return v === null ? "" : v; }`
	clickJS     = `function() { this.click(); return true; }`
	scrollJS    = `function() { this.scrollTop = this.scrollHeight; return this.scrollTop; }`
	displayedJS = `function() { const s = window.getComputedStyle(this); const r = this.getBoundingClientRect(); return s.display !== "none" && s.visibility !== "hidden" && (r.width > 0 || r.height > 0); }`
	clickableJS = `function() { const s = window.getComputedStyle(this); const r = this.getBoundingClientRect(); return !this.disabled && s.display !== "none" && s.visibility !== "hidden" && (r.width > 0 || r.height > 0); }`
)

// Node is a DOM node of a live session. Interaction goes through injected
// functions so clicks work on elements outside the viewport or under overlays.
type Node struct {
	s *Session
	n *cdp.Node
}

// call resolves the node to a remote object and runs fn with it as this.
func (n *Node) call(ctx context.Context, fn string, res interface{}, args ...interface{}) error {
	return n.s.run(ctx, chromedp.ActionFunc(func(c context.Context) error {
		obj, err := dom.ResolveNode().WithBackendNodeID(n.n.BackendNodeID).Do(c)
		if err != nil {
			return fmt.Errorf("resolve node: %w", err)
		}
		defer func() { _ = runtime.ReleaseObject(obj.ObjectID).Do(c) }()
		return chromedp.CallFunctionOn(fn, res, func(p *runtime.CallFunctionOnParams) *runtime.CallFunctionOnParams {
			return p.WithObjectID(obj.ObjectID)
		}, args...).Do(c)
	}))
}

func (n *Node) callBool(ctx context.Context, fn string) (bool, error) {
	var ok bool
	err := n.call(ctx, fn, &ok)
	return ok, err
}

func (n *Node) Text(ctx context.Context) (string, error) {
	var t string
	if err := n.call(ctx, textJS, &t); err != nil {
		return "", fmt.Errorf("node text: %w", err)
	}
	return t, nil
}

func (n *Node) Attr(ctx context.Context, name string) (string, error) {
	var v string
	if err := n.call(ctx, attrJS, &v, name); err != nil {
		return "", fmt.Errorf("node attr %s: %w", name, err)
	}
	return v, nil
}

func (n *Node) FindAll(ctx context.Context, css string) ([]domain.Node, error) {
	var raw []*cdp.Node
	err := n.s.run(ctx, chromedp.Nodes(css, &raw, chromedp.ByQueryAll, chromedp.FromNode(n.n), chromedp.AtLeast(0)))
	if err != nil {
		return nil, fmt.Errorf("query %s under node: %w", css, err)
	}
	out := make([]domain.Node, 0, len(raw))
	for _, r := range raw {
		out = append(out, &Node{s: n.s, n: r})
	}
	return out, nil
}

func (n *Node) Displayed(ctx context.Context) (bool, error) { return n.callBool(ctx, displayedJS) }

func (n *Node) Click(ctx context.Context) error {
	if _, err := n.callBool(ctx, clickJS); err != nil {
		return fmt.Errorf("click: %w", err)
	}
	return nil
}

func (n *Node) ScrollToBottom(ctx context.Context) error {
	var top float64
	if err := n.call(ctx, scrollJS, &top); err != nil {
		return fmt.Errorf("scroll: %w", err)
	}
	return nil
}
