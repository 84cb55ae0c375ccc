package middleware

import (
	"context"
	"fmt"
	"net/url"
	"regexp"

	"github.com/aretw0/pageflow/pkg/domain"
	"github.com/aretw0/pageflow/pkg/ports"
)

// Mask replaces redacted query values.
const Mask = "***"

type redactionMiddleware struct {
	next     ports.SnapshotStore
	patterns []*regexp.Regexp
}

// NewRedactionMiddleware creates a middleware that masks the values of URL query
// parameters whose names match one of the patterns, in both the history entries
// and the assigned URLs of a snapshot. Page identification ignores the query, so
// redacted snapshots restore the same pages.
func NewRedactionMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &redactionMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *redactionMiddleware) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	// Work on a copy: the caller keeps using its snapshot.
	cloned := snap.Clone()
	for i := range cloned.Entries {
		cloned.Entries[i].URL = m.redact(cloned.Entries[i].URL)
	}
	for i := range cloned.Assigned {
		cloned.Assigned[i] = m.redact(cloned.Assigned[i])
	}
	return m.next.Save(ctx, sessionID, cloned)
}

func (m *redactionMiddleware) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *redactionMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *redactionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *redactionMiddleware) redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw
	}
	query := u.Query()
	changed := false
	for key, values := range query {
		if !m.matches(key) {
			continue
		}
		for i := range values {
			values[i] = Mask
		}
		changed = true
	}
	if !changed {
		return raw
	}
	u.RawQuery = query.Encode()
	return u.String()
}

func (m *redactionMiddleware) matches(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
