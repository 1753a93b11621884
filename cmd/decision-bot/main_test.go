package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ai-arena/internal/config"
	"ai-arena/internal/decision"
	"ai-arena/internal/game"
	"ai-arena/internal/game/connect4"
)

func TestDecideAnswersWithAValidAction(t *testing.T) {
	a := connect4.New()
	state, err := a.NewState([]string{"red", "blue"}, game.Options{})
	if err != nil {
		t.Fatalf("new state: %v", err)
	}
	req := decision.Request{
		SessionID:    "s1",
		Kind:         game.KindConnect4,
		Seat:         "red",
		State:        a.PublicView(state),
		SeatView:     a.View(state, "red"),
		ValidActions: a.ValidActions(state, "red"),
		DeadlineMs:   time.Now().Add(time.Second).UnixMilli(),
	}
	body, _ := json.Marshal(req)

	r := newRouter(config.BotConfig{APIKey: "k"}, decision.NewHeuristicProvider())
	rec := httptest.NewRecorder()
	httpReq := httptest.NewRequest(http.MethodPost, "/decide", bytes.NewReader(body))
	httpReq.Header.Set("Authorization", "Bearer k")
	r.ServeHTTP(rec, httpReq)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp decision.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !game.Contains(req.ValidActions, resp.ChosenAction) {
		t.Fatalf("chosen action %+v not among valid actions", resp.ChosenAction)
	}
}

func TestDecideRequiresKey(t *testing.T) {
	r := newRouter(config.BotConfig{APIKey: "k"}, decision.NewHeuristicProvider())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/decide", bytes.NewReader([]byte(`{}`))))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestDecideRejectsEmptyActions(t *testing.T) {
	r := newRouter(config.BotConfig{}, decision.NewHeuristicProvider())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/decide", bytes.NewReader([]byte(`{"gameType":"connect4","seat":"red"}`))))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}
