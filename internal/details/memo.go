package details

import (
	"context"
	"strings"
	"sync"
)

// Memo wraps a Provider so each title is looked up at most once. FormalTitle
// is answered from the Title of the memoized detail set. Failures are not
// cached. A Memo is meant to live for a single resolution.
type Memo struct {
	provider Provider

	mu      sync.Mutex
	details map[string]*Details
}

// Memoize wraps p. Wrapping a *Memo returns it unchanged.
func Memoize(p Provider) *Memo {
	if m, ok := p.(*Memo); ok {
		return m
	}
	return &Memo{provider: p, details: make(map[string]*Details)}
}

// Details implements Provider.
func (m *Memo) Details(ctx context.Context, title string) (*Details, error) {
	key := strings.ToLower(strings.TrimSpace(title))

	m.mu.Lock()
	d, ok := m.details[key]
	m.mu.Unlock()
	if ok {
		cp := *d
		return &cp, nil
	}

	d, err := m.provider.Details(ctx, title)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.details[key] = d
	m.mu.Unlock()
	cp := *d
	return &cp, nil
}

// FormalTitle implements Provider.
func (m *Memo) FormalTitle(ctx context.Context, title string) (string, error) {
	d, err := m.Details(ctx, title)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(d.Title), nil
}
