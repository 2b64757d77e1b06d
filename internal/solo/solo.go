// Package solo plays single rounds against the AI opponent. Each
// session+difficulty pair keeps its own move history in a Registry.
package solo

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/DoyleJ11/rps-arena/internal/ai"
	"github.com/DoyleJ11/rps-arena/internal/apperr"
	"github.com/DoyleJ11/rps-arena/internal/rules"
)

const DefaultSessionID = "default"

type Request struct {
	SessionID  string
	Difficulty string
	Mode       string
	Choice     string
}

// Round is one resolved round, told from the player's side.
type Round struct {
	PlayerChoice rules.Element
	PlayerEmoji  string
	AIChoice     rules.Element
	AIEmoji      string
	Result       rules.Outcome
	Reason       string
}

// Key is the registry key for a player's session at one difficulty.
func Key(sessionID string, d ai.Difficulty) string {
	return sessionID + "_" + string(d)
}

func Play(ctx context.Context, reg *Registry, req Request) (Round, error) {
	d, err := difficulty(req.Difficulty)
	if err != nil {
		return Round{}, err
	}

	mode := rules.ModeClassic
	if req.Mode != "" {
		mode = rules.Mode(strings.ToLower(strings.TrimSpace(req.Mode)))
	}
	available := rules.ElementsForMode(mode)

	choice := rules.Element(strings.ToLower(strings.TrimSpace(req.Choice)))
	if !slices.Contains(available, choice) {
		return Round{}, apperr.New(apperr.CodeInvalidChoice, "invalid choice")
	}

	sess, err := reg.Ensure(ctx, Key(sessionID(req.SessionID), d), d)
	if err != nil {
		return Round{}, apperr.Wrap(apperr.CodeInternal, "session unavailable", err)
	}

	aiChoice := sess.Choose(available)
	j := rules.Judge(choice, aiChoice)
	sess.Record(choice)

	return Round{
		PlayerChoice: choice,
		PlayerEmoji:  rules.Emoji(choice),
		AIChoice:     aiChoice,
		AIEmoji:      rules.Emoji(aiChoice),
		Result:       j.Outcome,
		Reason:       j.Reason,
	}, nil
}

// Reset clears the history of a session. Unknown sessions are ignored.
func Reset(ctx context.Context, reg *Registry, sessionIDRaw, difficultyRaw string) error {
	d, err := difficulty(difficultyRaw)
	if err != nil {
		return err
	}

	sess, err := reg.Get(ctx, Key(sessionID(sessionIDRaw), d))
	if err != nil {
		return apperr.Wrap(apperr.CodeInternal, "session unavailable", err)
	}
	if sess != nil {
		sess.Reset()
	}
	return nil
}

func difficulty(s string) (ai.Difficulty, error) {
	if strings.TrimSpace(s) == "" {
		return ai.Normal, nil
	}
	d, ok := ai.ParseDifficulty(s)
	if !ok {
		return "", apperr.New(apperr.CodeValidation, fmt.Sprintf("unknown difficulty %q", s))
	}
	return d, nil
}

func sessionID(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return DefaultSessionID
	}
	return s
}
