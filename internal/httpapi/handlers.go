package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/DoyleJ11/rps-arena/internal/apperr"
	"github.com/DoyleJ11/rps-arena/internal/game"
	"github.com/DoyleJ11/rps-arena/internal/queue"
	"github.com/DoyleJ11/rps-arena/internal/rules"
	"github.com/DoyleJ11/rps-arena/internal/solo"
	"github.com/DoyleJ11/rps-arena/pkg/types"
)

const maxBodyBytes = 1 << 16

func JoinQueue(q *queue.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.JoinRequest
		if err := decode(w, r, &req); err != nil {
			writeError(w, log, err)
			return
		}

		res, err := q.Join(r.Context(), req.PlayerID, req.PlayerName, req.Mode)
		if err != nil {
			writeError(w, log, err)
			return
		}

		writeJSON(w, http.StatusOK, types.JoinResponse{
			Status:        string(res.Status),
			GameID:        res.MatchID,
			QueuePosition: res.QueuePosition,
			PlayersOnline: res.PlayersOnline,
		})
	}
}

func LeaveQueue(q *queue.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.LeaveRequest
		if err := decode(w, r, &req); err != nil {
			writeError(w, log, err)
			return
		}

		if err := q.Leave(r.Context(), req.PlayerID); err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, types.StatusResponse{Status: "success"})
	}
}

func GameState(g *game.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.GameRequest
		if err := decode(w, r, &req); err != nil {
			writeError(w, log, err)
			return
		}

		v, err := g.GetState(r.Context(), req.GameID, req.PlayerID)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, stateFrom(v))
	}
}

func SubmitChoice(g *game.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ChoiceRequest
		if err := decode(w, r, &req); err != nil {
			writeError(w, log, err)
			return
		}

		res, err := g.SubmitChoice(r.Context(), req.GameID, req.PlayerID, req.Choice)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, types.ChoiceResponse{
			Status:             "success",
			ChoiceMade:         true,
			WaitingForOpponent: res.WaitingForOpponent,
		})
	}
}

func NextRound(g *game.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.GameRequest
		if err := decode(w, r, &req); err != nil {
			writeError(w, log, err)
			return
		}

		res, err := g.MarkReady(r.Context(), req.GameID, req.PlayerID)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, types.ReadyResponse{Status: "success", BothReady: res.BothReady})
	}
}

func Forfeit(g *game.Service, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ForfeitRequest
		if err := decode(w, r, &req); err != nil {
			writeError(w, log, err)
			return
		}

		res, err := g.Forfeit(r.Context(), req.GameID, req.PlayerID, req.Target())
		if err != nil {
			writeError(w, log, err)
			return
		}
		if res.AlreadyEnded {
			writeJSON(w, http.StatusOK, types.ForfeitResponse{Status: "already_ended"})
			return
		}
		writeJSON(w, http.StatusOK, types.ForfeitResponse{
			Status:    "success",
			ForfeitBy: res.ForfeitBy,
			Winner:    res.Winner,
		})
	}
}

func PlayRound(reg *solo.Registry, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.PlayRequest
		if err := decode(w, r, &req); err != nil {
			writeError(w, log, err)
			return
		}

		round, err := solo.Play(r.Context(), reg, solo.Request{
			SessionID:  req.SessionID,
			Difficulty: req.Difficulty,
			Mode:       req.Mode,
			Choice:     req.Choice,
		})
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, types.PlayResponse{
			PlayerChoice: string(round.PlayerChoice),
			PlayerEmoji:  round.PlayerEmoji,
			AIChoice:     string(round.AIChoice),
			AIEmoji:      round.AIEmoji,
			Result:       string(round.Result),
			Reason:       round.Reason,
		})
	}
}

func ResetSession(reg *solo.Registry, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ResetRequest
		if err := decode(w, r, &req); err != nil {
			writeError(w, log, err)
			return
		}

		if err := solo.Reset(r.Context(), reg, req.SessionID, req.Difficulty); err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, types.StatusResponse{Status: "success"})
	}
}

// Elements lists the elements of ?mode= in play order. No mode means classic;
// a mode that is not known gets the full set.
func Elements(w http.ResponseWriter, r *http.Request) {
	mode := rules.ModeClassic
	if raw := r.URL.Query().Get("mode"); raw != "" {
		mode = rules.ModeFull
		if m, ok := rules.ParseMode(raw); ok {
			mode = m
		}
	}

	els := rules.ElementsForMode(mode)
	out := make([]types.Element, 0, len(els))
	for _, e := range els {
		info, _ := rules.Lookup(e)
		beats := make([]string, 0, len(info.Beats))
		for _, b := range info.Beats {
			beats = append(beats, string(b))
		}
		out = append(out, types.Element{
			ID:          string(e),
			Emoji:       info.Emoji,
			Beats:       beats,
			Description: info.Description,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, types.ErrorResponse{Error: "route not found", Code: string(apperr.CodeNotFound)})
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, types.ErrorResponse{
		Error: r.Method + " not allowed",
		Code:  string(apperr.CodeMethodNotAllowed),
	})
}

func stateFrom(v game.View) types.GameState {
	s := types.GameState{
		GameID:        v.MatchID,
		Status:        string(v.Status),
		Mode:          string(v.Mode),
		CurrentRound:  v.CurrentRound,
		MaxRounds:     v.MaxRounds,
		Player1Name:   v.Player1Name,
		Player2Name:   v.Player2Name,
		Player1Score:  v.Player1Score,
		Player2Score:  v.Player2Score,
		IsPlayer1:     v.IsPlayer1,
		YourName:      v.YourName,
		OpponentName:  v.OpponentName,
		YourScore:     v.YourScore,
		OpponentScore: v.OpponentScore,
		YouChose:      v.YouChose,
		OpponentChose: v.OpponentChose,
		Winner:        optional(v.Winner),
		ForfeitBy:     optional(v.ForfeitBy),
	}
	if !v.RoundStartTime.IsZero() {
		t := v.RoundStartTime.UTC()
		s.RoundStartTime = &t
	}
	if rr := v.RoundResult; rr != nil {
		s.RoundResult = &types.RoundResult{
			Player1Choice: string(rr.Player1Choice),
			Player1Emoji:  rr.Player1Emoji,
			Player2Choice: string(rr.Player2Choice),
			Player2Emoji:  rr.Player2Emoji,
			RoundWinner:   optional(rr.RoundWinner),
			Reason:        rr.Reason,
		}
	}
	return s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.New(apperr.CodeValidation, "request body is required")
		}
		return apperr.Wrap(apperr.CodeValidation, "invalid JSON", err)
	}
	return nil
}

func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	e := apperr.From(err)
	status := e.Code.HTTPStatus()
	msg := e.Message
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
		msg = "internal error"
	}
	writeJSON(w, status, types.ErrorResponse{Error: msg, Code: string(e.Code)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
