package arena

import (
	"strings"

	"ai-arena/internal/game"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 500
)

// ListQuery filters and pages ListSessions. Zero values mean no filter and the first
// DefaultPageLimit sessions.
type ListQuery struct {
	Status   Status
	GameType game.Kind
	Limit    int
	Offset   int
}

// Page is one window over the filtered session list. Total counts every match.
type Page struct {
	Items  []Snapshot `json:"items"`
	Total  int        `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

func (q ListQuery) normalize() ListQuery {
	q.Status = Status(strings.ToLower(strings.TrimSpace(string(q.Status))))
	q.GameType = game.Kind(strings.ToLower(strings.TrimSpace(string(q.GameType))))
	if q.Limit <= 0 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}

// QuerySessions pages through the in-memory sessions, oldest first.
func (e *Engine) QuerySessions(q ListQuery) Page {
	q = q.normalize()
	matched := make([]Snapshot, 0)
	for _, snap := range e.ListSessions() {
		if q.Status != "" && snap.Status != q.Status {
			continue
		}
		if q.GameType != "" && snap.GameType != q.GameType {
			continue
		}
		matched = append(matched, snap)
	}
	total := len(matched)
	start := min(q.Offset, total)
	end := min(start+q.Limit, total)
	return Page{Items: matched[start:end], Total: total, Limit: q.Limit, Offset: start}
}
