// Package types holds the JSON bodies of the polling API.
package types

// Client -> Server

type JoinRequest struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Mode       string `json:"mode"`
}

type LeaveRequest struct {
	PlayerID string `json:"player_id"`
}

// GameRequest addresses one match on behalf of one of its players.
type GameRequest struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
}

type ChoiceRequest struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
	Choice   string `json:"choice"`
}

type ForfeitRequest struct {
	GameID         string `json:"game_id"`
	PlayerID       string `json:"player_id"`
	TargetPlayerID string `json:"target_player_id,omitempty"` // defaults to player_id
	// ForfeitPlayerID is the older name for target_player_id. It is read
	// only when target_player_id is empty.
	ForfeitPlayerID string `json:"forfeit_player_id,omitempty"`
}

// Target returns the player being forfeited, or "" for the caller.
func (r ForfeitRequest) Target() string {
	if r.TargetPlayerID != "" {
		return r.TargetPlayerID
	}
	return r.ForfeitPlayerID
}

type PlayRequest struct {
	SessionID  string `json:"session_id"`
	Difficulty string `json:"difficulty"`
	Mode       string `json:"mode"`
	Choice     string `json:"choice"`
}

type ResetRequest struct {
	SessionID  string `json:"session_id"`
	Difficulty string `json:"difficulty"`
}

// Server -> Client

type JoinResponse struct {
	Status        string `json:"status"` // "searching" | "matched"
	GameID        string `json:"game_id,omitempty"`
	QueuePosition int64  `json:"queue_position,omitempty"`
	PlayersOnline int64  `json:"players_online,omitempty"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type ChoiceResponse struct {
	Status             string `json:"status"`
	ChoiceMade         bool   `json:"choice_made"`
	WaitingForOpponent bool   `json:"waiting_for_opponent"`
}

type ReadyResponse struct {
	Status    string `json:"status"`
	BothReady bool   `json:"both_ready"`
}

type ForfeitResponse struct {
	Status    string `json:"status"` // "success" | "already_ended"
	ForfeitBy string `json:"forfeit_by,omitempty"`
	Winner    string `json:"winner,omitempty"`
}

type PlayResponse struct {
	PlayerChoice string `json:"player_choice"`
	PlayerEmoji  string `json:"player_emoji"`
	AIChoice     string `json:"ai_choice"`
	AIEmoji      string `json:"ai_emoji"`
	Result       string `json:"result"` // "win" | "lose" | "draw"
	Reason       string `json:"reason"`
}

type Element struct {
	ID          string   `json:"id"`
	Emoji       string   `json:"emoji"`
	Beats       []string `json:"beats"`
	Description string   `json:"description"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
