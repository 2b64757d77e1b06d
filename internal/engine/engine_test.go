package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/DoyleJ11/rps-arena/internal/rules"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newClassicMatch() Match {
	return NewMatch("m1", rules.ModeClassic, Seat{ID: "p1", Name: "Ana"}, Seat{ID: "p2", Name: "Ben"}, t0)
}

func mustApply(t *testing.T, m Match, cmd Command) ([]Event, Match) {
	t.Helper()
	events, next, err := Apply(m, cmd)
	if err != nil {
		t.Fatalf("apply %s by %s: unexpected err %v", cmd.Type, cmd.PlayerID, err)
	}
	return events, next
}

func choose(p string, e rules.Element) Command {
	return Command{Type: CmdSubmitChoice, PlayerID: p, Choice: e, At: t0}
}

func ready(p string) Command {
	return Command{Type: CmdMarkReady, PlayerID: p, At: t0.Add(time.Minute)}
}

// playRound submits both choices and, unless the match ended, readies both players.
func playRound(t *testing.T, m Match, c1, c2 rules.Element) Match {
	t.Helper()
	_, m = mustApply(t, m, choose("p1", c1))
	_, m = mustApply(t, m, choose("p2", c2))
	if m.Status.Terminal() {
		return m
	}
	_, m = mustApply(t, m, ready("p1"))
	_, m = mustApply(t, m, ready("p2"))
	return m
}

func TestNewMatch(t *testing.T) {
	m := newClassicMatch()
	if m.Status != StatusPlaying || m.CurrentRound != 1 {
		t.Fatalf("want playing round 1, got %s round %d", m.Status, m.CurrentRound)
	}
	if m.Players[0].ID != "p1" || m.Players[1].ID != "p2" {
		t.Fatalf("slots not in pairing order: %+v", m.Players)
	}
	if !m.RoundStartTime.Equal(t0) {
		t.Fatalf("round start: got %v", m.RoundStartTime)
	}
}

func TestSubmitChoice_FirstChoiceWaits(t *testing.T) {
	events, m := mustApply(t, newClassicMatch(), choose("p1", rules.Rock))

	if !ContainsEvent(events, EvtChoiceMade) {
		t.Fatalf("expected EvtChoiceMade")
	}
	if !m.WaitingForOpponent() {
		t.Fatalf("expected to wait for opponent")
	}
	if m.Status != StatusPlaying {
		t.Fatalf("want playing, got %s", m.Status)
	}
}

func TestSubmitChoice_ResolvesRound(t *testing.T) {
	_, m := mustApply(t, newClassicMatch(), choose("p1", rules.Rock))
	events, m := mustApply(t, m, choose("p2", rules.Scissors))

	if !ContainsEvent(events, EvtRoundResolved) {
		t.Fatalf("expected EvtRoundResolved")
	}
	if m.Status != StatusRoundComplete {
		t.Fatalf("want round_complete, got %s", m.Status)
	}
	if m.Players[0].Score != 1 || m.Players[1].Score != 0 {
		t.Fatalf("scores: got %d-%d", m.Players[0].Score, m.Players[1].Score)
	}
	want := RoundResult{
		Player1Choice: rules.Rock,
		Player1Emoji:  "🪨",
		Player2Choice: rules.Scissors,
		Player2Emoji:  "✂️",
		RoundWinner:   "Ana",
		Reason:        "Rock crushes Scissors!",
	}
	if m.LastRound == nil || *m.LastRound != want {
		t.Fatalf("round result: got %+v, want %+v", m.LastRound, want)
	}
}

func TestSubmitChoice_SecondSlotCanWin(t *testing.T) {
	_, m := mustApply(t, newClassicMatch(), choose("p2", rules.Paper))
	_, m = mustApply(t, m, choose("p1", rules.Rock))

	if m.Players[1].Score != 1 || m.LastRound.RoundWinner != "Ben" {
		t.Fatalf("expected Ben to take the round, got %+v", m.LastRound)
	}
	if m.LastRound.Reason != "Paper covers Rock!" {
		t.Fatalf("reason: got %q", m.LastRound.Reason)
	}
}

func TestSubmitChoice_DirectionalFromSlotOne(t *testing.T) {
	m := NewMatch("m2", rules.ModeFull, Seat{ID: "p1", Name: "Ana"}, Seat{ID: "p2", Name: "Ben"}, t0)
	// Neither rock nor lightning beats the other; slot one's relation decides.
	_, m = mustApply(t, m, choose("p1", rules.Rock))
	_, m = mustApply(t, m, choose("p2", rules.Lightning))

	if m.Players[1].Score != 1 {
		t.Fatalf("expected slot two to score, got %d-%d", m.Players[0].Score, m.Players[1].Score)
	}
	if m.LastRound.Reason != "Lightning beats Rock!" {
		t.Fatalf("reason: got %q", m.LastRound.Reason)
	}
}

func TestSubmitChoice_Draw(t *testing.T) {
	_, m := mustApply(t, newClassicMatch(), choose("p1", rules.Paper))
	_, m = mustApply(t, m, choose("p2", rules.Paper))

	if m.Players[0].Score != 0 || m.Players[1].Score != 0 {
		t.Fatalf("draw should not score")
	}
	if m.LastRound.RoundWinner != "" || m.LastRound.Reason != rules.DrawReason {
		t.Fatalf("draw result: got %+v", m.LastRound)
	}
	if m.Status != StatusRoundComplete {
		t.Fatalf("want round_complete, got %s", m.Status)
	}
}

func TestSubmitChoice_Rejections(t *testing.T) {
	finished := newClassicMatch()
	finished.Status = StatusFinished

	cases := []struct {
		name    string
		setup   Match
		cmd     Command
		wantErr error
	}{
		{
			name:    "element outside the mode",
			setup:   newClassicMatch(),
			cmd:     choose("p1", rules.Fire),
			wantErr: ErrInvalidChoice,
		},
		{
			name:    "unknown element",
			setup:   newClassicMatch(),
			cmd:     choose("p1", rules.Element("spock")),
			wantErr: ErrInvalidChoice,
		},
		{
			name:    "finished match",
			setup:   finished,
			cmd:     choose("p1", rules.Rock),
			wantErr: ErrMatchNotActive,
		},
		{
			name:    "stranger",
			setup:   newClassicMatch(),
			cmd:     choose("p9", rules.Rock),
			wantErr: ErrNotInMatch,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, got, err := Apply(tc.setup, tc.cmd)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("want %v, got %v", tc.wantErr, err)
			}
			if got.Players != tc.setup.Players {
				t.Fatalf("rejected command must not change the match")
			}
		})
	}
}

func TestSubmitChoice_AfterResolveIsNoop(t *testing.T) {
	_, m := mustApply(t, newClassicMatch(), choose("p1", rules.Rock))
	_, m = mustApply(t, m, choose("p2", rules.Scissors))

	events, again := mustApply(t, m, choose("p2", rules.Paper))
	if len(events) != 0 {
		t.Fatalf("expected no events, got %+v", events)
	}
	if again.Players[0].Score != 1 || again.Players[1].Choice != rules.Scissors {
		t.Fatalf("round was re-resolved: %+v", again.Players)
	}
}

func TestMatchFinishesAtWinScore(t *testing.T) {
	m := newClassicMatch()
	m = playRound(t, m, rules.Rock, rules.Scissors)
	m = playRound(t, m, rules.Paper, rules.Rock)
	m = playRound(t, m, rules.Scissors, rules.Paper)

	if m.Status != StatusFinished {
		t.Fatalf("want finished, got %s", m.Status)
	}
	if m.Winner != "Ana" || m.Players[0].Score != 3 || m.Players[1].Score >= 3 {
		t.Fatalf("unexpected end state: winner=%q players=%+v", m.Winner, m.Players)
	}

	_, _, err := Apply(m, choose("p2", rules.Rock))
	if !errors.Is(err, ErrMatchNotActive) {
		t.Fatalf("want ErrMatchNotActive after finish, got %v", err)
	}
	_, _, err = Apply(m, ready("p1"))
	if !errors.Is(err, ErrMatchNotActive) {
		t.Fatalf("want ErrMatchNotActive for ready after finish, got %v", err)
	}
}

func TestMarkReady_AdvancesWhenBothReady(t *testing.T) {
	_, m := mustApply(t, newClassicMatch(), choose("p1", rules.Rock))
	_, m = mustApply(t, m, choose("p2", rules.Scissors))

	events, m := mustApply(t, m, ready("p1"))
	if ContainsEvent(events, EvtRoundAdvanced) {
		t.Fatalf("must not advance with one player ready")
	}

	events, m = mustApply(t, m, ready("p2"))
	if !ContainsEvent(events, EvtRoundAdvanced) {
		t.Fatalf("expected EvtRoundAdvanced")
	}
	if m.CurrentRound != 2 || m.Status != StatusPlaying {
		t.Fatalf("want playing round 2, got %s round %d", m.Status, m.CurrentRound)
	}
	if m.Players[0].Choice != "" || m.Players[1].Choice != "" || m.Players[0].Ready || m.Players[1].Ready {
		t.Fatalf("slots not reset: %+v", m.Players)
	}
	if m.LastRound != nil {
		t.Fatalf("round result not cleared")
	}
	if !m.RoundStartTime.Equal(t0.Add(time.Minute)) {
		t.Fatalf("round start not reset: %v", m.RoundStartTime)
	}
}

func TestMarkReady_Idempotent(t *testing.T) {
	_, m := mustApply(t, newClassicMatch(), choose("p1", rules.Rock))
	_, m = mustApply(t, m, choose("p2", rules.Scissors))

	_, m = mustApply(t, m, ready("p1"))
	_, m = mustApply(t, m, ready("p1"))

	if m.CurrentRound != 1 || m.Status != StatusRoundComplete || !m.Players[0].Ready {
		t.Fatalf("repeated ready changed the round: %s round %d", m.Status, m.CurrentRound)
	}
}

func TestMarkReady_WhilePlayingIsNoop(t *testing.T) {
	events, m := mustApply(t, newClassicMatch(), ready("p1"))
	if len(events) != 0 || m.Players[0].Ready {
		t.Fatalf("ready during play should be ignored")
	}
}

func TestForfeit(t *testing.T) {
	cases := []struct {
		name          string
		cmd           Command
		wantWinner    string
		wantForfeitBy string
	}{
		{
			name:          "explicit target",
			cmd:           Command{Type: CmdForfeit, PlayerID: "p1", TargetID: "p2"},
			wantWinner:    "Ana",
			wantForfeitBy: "Ben",
		},
		{
			name:          "target defaults to caller",
			cmd:           Command{Type: CmdForfeit, PlayerID: "p1"},
			wantWinner:    "Ben",
			wantForfeitBy: "Ana",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			events, m := mustApply(t, newClassicMatch(), tc.cmd)
			if !ContainsEvent(events, EvtForfeited) {
				t.Fatalf("expected EvtForfeited")
			}
			if m.Status != StatusForfeit || m.Winner != tc.wantWinner || m.ForfeitBy != tc.wantForfeitBy {
				t.Fatalf("got status=%s winner=%q forfeitBy=%q", m.Status, m.Winner, m.ForfeitBy)
			}
		})
	}
}

func TestForfeit_AlreadyEnded(t *testing.T) {
	_, m := mustApply(t, newClassicMatch(), Command{Type: CmdForfeit, PlayerID: "p1", TargetID: "p2"})

	_, again, err := Apply(m, Command{Type: CmdForfeit, PlayerID: "p2", TargetID: "p1"})
	if !errors.Is(err, ErrMatchAlreadyEnded) {
		t.Fatalf("want ErrMatchAlreadyEnded, got %v", err)
	}
	if again.Winner != "Ana" {
		t.Fatalf("winner changed after terminal state: %q", again.Winner)
	}
}

func TestForfeit_UnknownTarget(t *testing.T) {
	_, _, err := Apply(newClassicMatch(), Command{Type: CmdForfeit, PlayerID: "p1", TargetID: "p9"})
	if !errors.Is(err, ErrNotInMatch) {
		t.Fatalf("want ErrNotInMatch, got %v", err)
	}
}

func TestHeartbeat_RecordsLastSeen(t *testing.T) {
	at := t0.Add(3 * time.Second)
	events, m := mustApply(t, newClassicMatch(), Command{Type: CmdHeartbeat, PlayerID: "p2", At: at})

	if len(events) != 0 {
		t.Fatalf("heartbeat should not emit events")
	}
	if m.Players[1].LastSeenAt == nil || !m.Players[1].LastSeenAt.Equal(at) {
		t.Fatalf("last seen not recorded: %+v", m.Players[1])
	}
	if m.Players[0].LastSeenAt != nil {
		t.Fatalf("other slot touched")
	}
}

func TestApply_DoesNotAliasInput(t *testing.T) {
	at := t0
	m := newClassicMatch()
	m.Players[0].LastSeenAt = &at

	_, next := mustApply(t, m, Command{Type: CmdHeartbeat, PlayerID: "p1", At: t0.Add(time.Hour)})
	if !m.Players[0].LastSeenAt.Equal(t0) {
		t.Fatalf("input match was mutated")
	}
	if next.Players[0].LastSeenAt == m.Players[0].LastSeenAt {
		t.Fatalf("pointer shared between input and output")
	}
}

func TestApply_UnsupportedCommand(t *testing.T) {
	_, _, err := Apply(newClassicMatch(), Command{Type: "Teleport", PlayerID: "p1"})
	if !errors.Is(err, ErrUnsupportedCommand) {
		t.Fatalf("want ErrUnsupportedCommand, got %v", err)
	}
}
