package bracket

import (
	"time"

	"github.com/google/uuid"
)

type TournamentStatus string

const (
	TournamentDraft     TournamentStatus = "draft"
	TournamentActive    TournamentStatus = "active"
	TournamentCompleted TournamentStatus = "completed"
)

func (s TournamentStatus) Valid() bool {
	switch s {
	case TournamentDraft, TournamentActive, TournamentCompleted:
		return true
	}
	return false
}

// Mode is one of the four disciplines a tournament runs.
type Mode string

const (
	TimeAttack Mode = "ta"
	BattleMode Mode = "bm"
	MatchRace  Mode = "mr"
	GrandPrix  Mode = "gp"
)

// Modes lists every discipline in display order.
var Modes = []Mode{TimeAttack, BattleMode, MatchRace, GrandPrix}

// HeadToHead reports whether the mode is played as 1v1 matches with a finals bracket.
func (m Mode) HeadToHead() bool {
	return m == BattleMode || m == MatchRace || m == GrandPrix
}

func ParseMode(s string) (Mode, bool) {
	switch m := Mode(s); m {
	case TimeAttack, BattleMode, MatchRace, GrandPrix:
		return m, true
	}
	return "", false
}

type Stage string

const (
	StageQualification Stage = "qualification"
	StageFinals        Stage = "finals"
)

type Tournament struct {
	ID        uuid.UUID        `db:"id" json:"id"`
	Name      string           `db:"name" json:"name"`
	Date      time.Time        `db:"date" json:"date"`
	Status    TournamentStatus `db:"status" json:"status"`
	CreatedAt time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time        `db:"updated_at" json:"updatedAt"`
}
