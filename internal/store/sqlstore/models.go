package sqlstore

import (
	"time"

	"github.com/DoyleJ11/rps-arena/internal/engine"
	"github.com/DoyleJ11/rps-arena/internal/rules"
	"github.com/DoyleJ11/rps-arena/internal/store"
)

type queueRow struct {
	PlayerID   string    `gorm:"primaryKey;type:varchar(100)"`
	PlayerName string    `gorm:"type:varchar(50)"`
	Mode       string    `gorm:"type:varchar(20);index:idx_queue_mode"`
	Status     string    `gorm:"type:varchar(20);index:idx_queue_status_created,priority:1"`
	MatchID    string    `gorm:"type:varchar(100)"`
	CreatedAt  time.Time `gorm:"index:idx_queue_status_created,priority:2"`
}

func (queueRow) TableName() string { return "matchmaking_queue" }

func (r queueRow) toEntry() store.QueueEntry {
	return store.QueueEntry{
		PlayerID:   r.PlayerID,
		PlayerName: r.PlayerName,
		Mode:       rules.Mode(r.Mode),
		Status:     store.QueueStatus(r.Status),
		MatchID:    r.MatchID,
		CreatedAt:  r.CreatedAt,
	}
}

type matchRow struct {
	ID   string `gorm:"primaryKey;type:varchar(100)"`
	Mode string `gorm:"type:varchar(20)"`

	Player1ID       string `gorm:"type:varchar(100);index"`
	Player1Name     string `gorm:"type:varchar(50)"`
	Player1Choice   string `gorm:"type:varchar(20)"`
	Player1Score    int
	Player1Ready    bool
	Player1LastSeen *time.Time

	Player2ID       string `gorm:"type:varchar(100);index"`
	Player2Name     string `gorm:"type:varchar(50)"`
	Player2Choice   string `gorm:"type:varchar(20)"`
	Player2Score    int
	Player2Ready    bool
	Player2LastSeen *time.Time

	CurrentRound   int
	MaxRounds      int
	WinScore       int
	Status         string              `gorm:"type:varchar(20);index"`
	Winner         string              `gorm:"type:varchar(50)"`
	ForfeitBy      string              `gorm:"type:varchar(50)"`
	RoundResult    *engine.RoundResult `gorm:"serializer:json;type:text"`
	RoundStartTime time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (matchRow) TableName() string { return "matches" }

func matchRowFrom(m engine.Match) matchRow {
	p1, p2 := m.Players[0], m.Players[1]
	return matchRow{
		ID:   m.ID,
		Mode: string(m.Mode),

		Player1ID:       p1.ID,
		Player1Name:     p1.Name,
		Player1Choice:   string(p1.Choice),
		Player1Score:    p1.Score,
		Player1Ready:    p1.Ready,
		Player1LastSeen: utcPtr(p1.LastSeenAt),

		Player2ID:       p2.ID,
		Player2Name:     p2.Name,
		Player2Choice:   string(p2.Choice),
		Player2Score:    p2.Score,
		Player2Ready:    p2.Ready,
		Player2LastSeen: utcPtr(p2.LastSeenAt),

		CurrentRound:   m.CurrentRound,
		MaxRounds:      m.MaxRounds,
		WinScore:       m.WinScore,
		Status:         string(m.Status),
		Winner:         m.Winner,
		ForfeitBy:      m.ForfeitBy,
		RoundResult:    m.LastRound,
		RoundStartTime: m.RoundStartTime.UTC(),
		CreatedAt:      m.CreatedAt.UTC(),
	}
}

func (r matchRow) toMatch() engine.Match {
	return engine.Match{
		ID:   r.ID,
		Mode: rules.Mode(r.Mode),
		Players: [2]engine.Slot{
			{
				ID:         r.Player1ID,
				Name:       r.Player1Name,
				Choice:     rules.Element(r.Player1Choice),
				Score:      r.Player1Score,
				Ready:      r.Player1Ready,
				LastSeenAt: r.Player1LastSeen,
			},
			{
				ID:         r.Player2ID,
				Name:       r.Player2Name,
				Choice:     rules.Element(r.Player2Choice),
				Score:      r.Player2Score,
				Ready:      r.Player2Ready,
				LastSeenAt: r.Player2LastSeen,
			},
		},
		CurrentRound:   r.CurrentRound,
		MaxRounds:      r.MaxRounds,
		WinScore:       r.WinScore,
		Status:         engine.Status(r.Status),
		Winner:         r.Winner,
		ForfeitBy:      r.ForfeitBy,
		LastRound:      r.RoundResult,
		RoundStartTime: r.RoundStartTime,
		CreatedAt:      r.CreatedAt,
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
