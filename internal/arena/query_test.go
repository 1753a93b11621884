package arena

import (
	"testing"

	"ai-arena/internal/game"
)

func TestQuerySessionsFiltersAndClamps(t *testing.T) {
	e := newTestEngine(t, nil, Config{}, nil)
	for _, id := range []string{"a", "b", "c"} {
		mustCreate(t, e, CreateRequest{ID: id, GameType: game.KindConnect4, Players: aiSeats("red", "blue")})
	}
	done := mustCreate(t, e, CreateRequest{ID: "d", GameType: game.KindWordGuess, Players: aiSeats("solo"), Options: game.Options{Target: "fox"}})
	activate(done)

	page := e.QuerySessions(ListQuery{GameType: "CONNECT4", Limit: 2, Offset: 1})
	if page.Total != 3 || len(page.Items) != 2 || page.Items[0].ID != "b" || page.Items[1].ID != "c" {
		t.Fatalf("unexpected page %+v", page)
	}
	if page := e.QuerySessions(ListQuery{Status: StatusActive}); page.Total != 1 || page.Items[0].ID != "d" {
		t.Fatalf("status filter: %+v", page)
	}

	page = e.QuerySessions(ListQuery{Limit: -1, Offset: -5})
	if page.Limit != DefaultPageLimit || page.Offset != 0 || len(page.Items) != 4 {
		t.Fatalf("defaults not applied: %+v", page)
	}
	page = e.QuerySessions(ListQuery{Limit: 10_000, Offset: 99})
	if page.Limit != MaxPageLimit || page.Offset != 4 || len(page.Items) != 0 {
		t.Fatalf("clamping failed: %+v", page)
	}
}
