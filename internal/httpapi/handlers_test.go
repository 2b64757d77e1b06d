package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/rps-arena/internal/game"
	"github.com/DoyleJ11/rps-arena/internal/liveness"
	"github.com/DoyleJ11/rps-arena/internal/queue"
	"github.com/DoyleJ11/rps-arena/internal/rules"
	"github.com/DoyleJ11/rps-arena/internal/solo"
	"github.com/DoyleJ11/rps-arena/internal/store/memory"
	"github.com/DoyleJ11/rps-arena/pkg/types"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	st := memory.New()
	now := func() time.Time { return time.Date(2026, 7, 4, 12, 0, 0, 0, time.UTC) }

	reg := solo.NewRegistry(context.Background())
	t.Cleanup(reg.Close)

	return SetupRoutes(Deps{
		Queue: queue.New(st, queue.Config{}, nil,
			queue.WithClock(now),
			queue.WithModePicker(func() rules.Mode { return rules.ModeClassic })),
		Games: game.New(st, liveness.New(0), nil, game.WithClock(now)),
		Solo:  reg,
	})
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeInto[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthz(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMutatingRoutesRequirePost(t *testing.T) {
	h := newTestServer(t)

	for _, path := range []string{
		"/api/matchmaking/join", "/api/matchmaking/leave",
		"/api/game/state", "/api/game/choice", "/api/game/next", "/api/game/forfeit",
		"/api/play", "/api/reset",
	} {
		t.Run(path, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, path, nil)
			require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
			body := decodeInto[types.ErrorResponse](t, rec)
			assert.Equal(t, "METHOD_NOT_ALLOWED", body.Code)
		})
	}
}

func TestOnlineMatchFlow(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/matchmaking/join", types.JoinRequest{PlayerID: "alice", PlayerName: "Alice", Mode: "classic"})
	require.Equal(t, http.StatusOK, rec.Code)
	first := decodeInto[types.JoinResponse](t, rec)
	assert.Equal(t, "searching", first.Status)
	assert.Equal(t, int64(1), first.QueuePosition)
	assert.Equal(t, int64(1), first.PlayersOnline)

	rec = do(t, h, http.MethodPost, "/api/matchmaking/join", types.JoinRequest{PlayerID: "bob", PlayerName: "Bob", Mode: "full"})
	require.Equal(t, http.StatusOK, rec.Code)
	second := decodeInto[types.JoinResponse](t, rec)
	require.Equal(t, "matched", second.Status)
	gameID := second.GameID
	require.NotEmpty(t, gameID)

	rec = do(t, h, http.MethodPost, "/api/game/state", types.GameRequest{GameID: gameID, PlayerID: "alice"})
	require.Equal(t, http.StatusOK, rec.Code)
	state := decodeInto[types.GameState](t, rec)
	assert.Equal(t, "playing", state.Status)
	assert.Equal(t, "classic", state.Mode)
	assert.True(t, state.IsPlayer1)
	assert.Equal(t, "Bob", state.OpponentName)
	assert.Nil(t, state.Winner)
	assert.NotNil(t, state.RoundStartTime)
	assert.Nil(t, state.RoundResult)

	rec = do(t, h, http.MethodPost, "/api/game/choice", types.ChoiceRequest{GameID: gameID, PlayerID: "alice", Choice: "lizard"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_CHOICE", decodeInto[types.ErrorResponse](t, rec).Code)

	rec = do(t, h, http.MethodPost, "/api/game/choice", types.ChoiceRequest{GameID: gameID, PlayerID: "alice", Choice: "ROCK"})
	require.Equal(t, http.StatusOK, rec.Code)
	choice := decodeInto[types.ChoiceResponse](t, rec)
	assert.True(t, choice.ChoiceMade)
	assert.True(t, choice.WaitingForOpponent)

	rec = do(t, h, http.MethodPost, "/api/game/choice", types.ChoiceRequest{GameID: gameID, PlayerID: "bob", Choice: "scissors"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeInto[types.ChoiceResponse](t, rec).WaitingForOpponent)

	rec = do(t, h, http.MethodPost, "/api/game/state", types.GameRequest{GameID: gameID, PlayerID: "bob"})
	require.Equal(t, http.StatusOK, rec.Code)
	state = decodeInto[types.GameState](t, rec)
	assert.Equal(t, "round_complete", state.Status)
	assert.False(t, state.IsPlayer1)
	assert.Equal(t, 0, state.YourScore)
	assert.Equal(t, 1, state.OpponentScore)
	require.NotNil(t, state.RoundResult)
	assert.Equal(t, "Rock crushes Scissors!", state.RoundResult.Reason)
	require.NotNil(t, state.RoundResult.RoundWinner)
	assert.Equal(t, "Alice", *state.RoundResult.RoundWinner)

	rec = do(t, h, http.MethodPost, "/api/game/next", types.GameRequest{GameID: gameID, PlayerID: "alice"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeInto[types.ReadyResponse](t, rec).BothReady)

	rec = do(t, h, http.MethodPost, "/api/game/next", types.GameRequest{GameID: gameID, PlayerID: "bob"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeInto[types.ReadyResponse](t, rec).BothReady)

	rec = do(t, h, http.MethodPost, "/api/game/forfeit", types.ForfeitRequest{GameID: gameID, PlayerID: "bob"})
	require.Equal(t, http.StatusOK, rec.Code)
	ff := decodeInto[types.ForfeitResponse](t, rec)
	assert.Equal(t, "success", ff.Status)
	assert.Equal(t, "Bob", ff.ForfeitBy)
	assert.Equal(t, "Alice", ff.Winner)

	rec = do(t, h, http.MethodPost, "/api/game/forfeit", types.ForfeitRequest{GameID: gameID, PlayerID: "alice"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "already_ended", decodeInto[types.ForfeitResponse](t, rec).Status)

	rec = do(t, h, http.MethodPost, "/api/game/choice", types.ChoiceRequest{GameID: gameID, PlayerID: "alice", Choice: "rock"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "STATE_CONFLICT", decodeInto[types.ErrorResponse](t, rec).Code)
}

func TestForfeit_TargetFields(t *testing.T) {
	cases := []struct {
		name        string
		body        string
		wantForfeit string
		wantWinner  string
	}{
		{"defaults to caller", `{"player_id":"alice"}`, "Alice", "Bob"},
		{"target_player_id", `{"player_id":"alice","target_player_id":"bob"}`, "Bob", "Alice"},
		{"forfeit_player_id", `{"player_id":"alice","forfeit_player_id":"bob"}`, "Bob", "Alice"},
		{"target_player_id wins", `{"player_id":"alice","target_player_id":"alice","forfeit_player_id":"bob"}`, "Alice", "Bob"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestServer(t)
			do(t, h, http.MethodPost, "/api/matchmaking/join", types.JoinRequest{PlayerID: "alice", PlayerName: "Alice"})
			rec := do(t, h, http.MethodPost, "/api/matchmaking/join", types.JoinRequest{PlayerID: "bob", PlayerName: "Bob"})
			gameID := decodeInto[types.JoinResponse](t, rec).GameID
			require.NotEmpty(t, gameID)

			body := `{"game_id":"` + gameID + `",` + strings.TrimPrefix(tc.body, "{")
			req := httptest.NewRequest(http.MethodPost, "/api/game/forfeit", strings.NewReader(body))
			rec = httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			ff := decodeInto[types.ForfeitResponse](t, rec)
			assert.Equal(t, tc.wantForfeit, ff.ForfeitBy)
			assert.Equal(t, tc.wantWinner, ff.Winner)
		})
	}
}

func TestErrors(t *testing.T) {
	h := newTestServer(t)

	cases := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"unknown game", "/api/game/state", `{"game_id":"nope","player_id":"p1"}`, http.StatusNotFound, "NOT_FOUND"},
		{"missing player", "/api/game/state", `{"game_id":"nope"}`, http.StatusBadRequest, "VALIDATION"},
		{"broken json", "/api/matchmaking/join", `{"player_id":`, http.StatusBadRequest, "VALIDATION"},
		{"empty body", "/api/matchmaking/leave", ``, http.StatusBadRequest, "VALIDATION"},
		{"unknown mode", "/api/matchmaking/join", `{"player_id":"p1","mode":"turbo"}`, http.StatusBadRequest, "VALIDATION"},
		{"bad solo choice", "/api/play", `{"choice":"gun","mode":"classic"}`, http.StatusBadRequest, "INVALID_CHOICE"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tc.path, strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tc.wantStatus, rec.Code, rec.Body.String())
			body := decodeInto[types.ErrorResponse](t, rec)
			assert.Equal(t, tc.wantCode, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestElements(t *testing.T) {
	h := newTestServer(t)

	cases := []struct {
		query string
		want  int
	}{
		{"", 3},
		{"?mode=classic", 3},
		{"?mode=extended", 5},
		{"?mode=full", 10},
		{"?mode=whatever", 10},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, "/api/elements"+tc.query, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			els := decodeInto[[]types.Element](t, rec)
			assert.Len(t, els, tc.want)
		})
	}

	rec := do(t, h, http.MethodGet, "/api/elements?mode=extended", nil)
	els := decodeInto[[]types.Element](t, rec)
	ids := make([]string, 0, len(els))
	for _, e := range els {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"rock", "paper", "scissors", "fire", "water"}, ids)

	rock := els[0]
	assert.Equal(t, "rock", rock.ID)
	assert.Equal(t, []string{"scissors", "lizard", "fire"}, rock.Beats)
	assert.NotEmpty(t, rock.Emoji)
}

func TestSoloPlayAndReset(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/play", types.PlayRequest{SessionID: "s1", Difficulty: "hard", Mode: "extended", Choice: "Fire"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decodeInto[types.PlayResponse](t, rec)
	assert.Equal(t, "fire", res.PlayerChoice)
	assert.Contains(t, []string{"win", "lose", "draw"}, res.Result)
	assert.Contains(t, []string{"rock", "paper", "scissors", "fire", "water"}, res.AIChoice)
	assert.NotEmpty(t, res.Reason)

	rec = do(t, h, http.MethodPost, "/api/reset", types.ResetRequest{SessionID: "s1", Difficulty: "hard"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", decodeInto[types.StatusResponse](t, rec).Status)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/game/state", nil)
	req.Header.Set("Origin", "http://example.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
