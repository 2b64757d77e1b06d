package rules

// Outcome is always read from the first element's point of view.
type Outcome string

const (
	Draw Outcome = "draw"
	Win  Outcome = "win"
	Lose Outcome = "lose"
)

const DrawReason = "It's a draw!"

// Resolve decides a against b. Only a's beats-set is consulted: if it does
// not contain b, a loses, even when b's beats-set does not contain a either.
func Resolve(a, b Element) Outcome {
	if a == b {
		return Draw
	}
	if Defeats(a, b) {
		return Win
	}
	return Lose
}

type Judgement struct {
	Outcome Outcome
	Winner  Element // empty on a draw
	Loser   Element
	Reason  string
}

// Judge resolves a against b and attaches the reason text for the winner.
func Judge(a, b Element) Judgement {
	switch Resolve(a, b) {
	case Win:
		return Judgement{Outcome: Win, Winner: a, Loser: b, Reason: WinReason(a, b)}
	case Lose:
		return Judgement{Outcome: Lose, Winner: b, Loser: a, Reason: WinReason(b, a)}
	default:
		return Judgement{Outcome: Draw, Reason: DrawReason}
	}
}
