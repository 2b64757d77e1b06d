package types

import "time"

// GameState is what a player sees on each poll of a match.
type GameState struct {
	GameID         string       `json:"game_id"`
	Status         string       `json:"status"` // "playing" | "round_complete" | "finished" | "forfeit"
	Mode           string       `json:"mode"`
	CurrentRound   int          `json:"current_round"`
	MaxRounds      int          `json:"max_rounds"`
	Player1Name    string       `json:"player1_name"`
	Player2Name    string       `json:"player2_name"`
	Player1Score   int          `json:"player1_score"`
	Player2Score   int          `json:"player2_score"`
	IsPlayer1      bool         `json:"is_player1"`
	YourName       string       `json:"your_name"`
	OpponentName   string       `json:"opponent_name"`
	YourScore      int          `json:"your_score"`
	OpponentScore  int          `json:"opponent_score"`
	YouChose       bool         `json:"you_chose"`
	OpponentChose  bool         `json:"opponent_chose"`
	Winner         *string      `json:"winner"`
	ForfeitBy      *string      `json:"forfeit_by"`
	RoundStartTime *time.Time   `json:"round_start_time"`
	RoundResult    *RoundResult `json:"round_result,omitempty"`
}

type RoundResult struct {
	Player1Choice string  `json:"player1_choice"`
	Player1Emoji  string  `json:"player1_emoji"`
	Player2Choice string  `json:"player2_choice"`
	Player2Emoji  string  `json:"player2_emoji"`
	RoundWinner   *string `json:"round_winner"` // null on a draw
	Reason        string  `json:"reason"`
}
