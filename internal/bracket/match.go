package bracket

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type MatchState string

const (
	MatchPending    MatchState = "pending"
	MatchInProgress MatchState = "in_progress"
	MatchCompleted  MatchState = "completed"
)

// Round tags a finals match with its position in the double-elimination bracket.
type Round string

const (
	WinnersQF       Round = "winners_qf"
	WinnersSF       Round = "winners_sf"
	WinnersFinal    Round = "winners_final"
	LosersR1        Round = "losers_r1"
	LosersR2        Round = "losers_r2"
	LosersSF        Round = "losers_sf"
	LosersFinal     Round = "losers_final"
	GrandFinal      Round = "grand_final"
	GrandFinalReset Round = "grand_final_reset"
)

// RaceResult is one race of a Grand Prix set: the finishing position of each player.
type RaceResult struct {
	Course    string `json:"course,omitempty"`
	Position1 int    `json:"position1"`
	Position2 int    `json:"position2"`
}

// RaceResults is stored as a JSON text column.
type RaceResults []RaceResult

func (r RaceResults) Value() (driver.Value, error) {
	if len(r) == 0 {
		return nil, nil
	}
	b, err := json.Marshal([]RaceResult(r))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *RaceResults) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*r = nil
		return nil
	case string:
		return json.Unmarshal([]byte(v), (*[]RaceResult)(r))
	case []byte:
		return json.Unmarshal(v, (*[]RaceResult)(r))
	default:
		return fmt.Errorf("cannot scan %T into RaceResults", src)
	}
}

type Match struct {
	ID           uuid.UUID `db:"id" json:"id"`
	TournamentID uuid.UUID `db:"tournament_id" json:"tournamentId"`
	Mode         Mode      `db:"mode" json:"mode"`
	Stage        Stage     `db:"stage" json:"stage"`
	MatchNumber  int       `db:"match_number" json:"matchNumber"`
	Round        *Round    `db:"round" json:"round,omitempty"`
	GroupName    *string   `db:"group_name" json:"group,omitempty"`

	Player1ID *uuid.UUID `db:"player_1_id" json:"player1Id"`
	Player2ID *uuid.UUID `db:"player_2_id" json:"player2Id"`

	Score1    int         `db:"score_1" json:"score1"`
	Score2    int         `db:"score_2" json:"score2"`
	Races     RaceResults `db:"races" json:"races,omitempty"`
	Completed bool        `db:"completed" json:"completed"`
	Version   int         `db:"version" json:"version"`

	// Self-reported results, one slot per player, independent until both are set.
	Player1ReportedScore1 *int        `db:"player_1_reported_score_1" json:"player1ReportedScore1,omitempty"`
	Player1ReportedScore2 *int        `db:"player_1_reported_score_2" json:"player1ReportedScore2,omitempty"`
	Player1ReportedRaces  RaceResults `db:"player_1_reported_races" json:"-"`
	Player2ReportedScore1 *int        `db:"player_2_reported_score_1" json:"player2ReportedScore1,omitempty"`
	Player2ReportedScore2 *int        `db:"player_2_reported_score_2" json:"player2ReportedScore2,omitempty"`
	Player2ReportedRaces  RaceResults `db:"player_2_reported_races" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

func (m *Match) State() MatchState {
	switch {
	case m.Completed:
		return MatchCompleted
	case m.Score1 == 0 && m.Score2 == 0:
		return MatchPending
	default:
		return MatchInProgress
	}
}

func (m *Match) RoundOrEmpty() Round {
	if m.Round == nil {
		return ""
	}
	return *m.Round
}

// PlayerInSlot returns the player occupying slot 1 or 2.
func (m *Match) PlayerInSlot(slot int) *uuid.UUID {
	switch slot {
	case 1:
		return m.Player1ID
	case 2:
		return m.Player2ID
	}
	return nil
}

func (m *Match) SetPlayer(slot int, id uuid.UUID) {
	switch slot {
	case 1:
		m.Player1ID = &id
	case 2:
		m.Player2ID = &id
	}
}

// SlotOf returns 1 or 2 when the player is in the match, 0 otherwise.
func (m *Match) SlotOf(playerID uuid.UUID) int {
	if m.Player1ID != nil && *m.Player1ID == playerID {
		return 1
	}
	if m.Player2ID != nil && *m.Player2ID == playerID {
		return 2
	}
	return 0
}

// Reported returns the score pair reported by the given slot, if any.
func (m *Match) Reported(slot int) (ScorePair, bool) {
	var s1, s2 *int
	switch slot {
	case 1:
		s1, s2 = m.Player1ReportedScore1, m.Player1ReportedScore2
	case 2:
		s1, s2 = m.Player2ReportedScore1, m.Player2ReportedScore2
	}
	if s1 == nil || s2 == nil {
		return ScorePair{}, false
	}
	return ScorePair{Score1: *s1, Score2: *s2}, true
}

func (m *Match) SetReported(slot int, pair ScorePair, races RaceResults) {
	s1, s2 := pair.Score1, pair.Score2
	switch slot {
	case 1:
		m.Player1ReportedScore1, m.Player1ReportedScore2 = &s1, &s2
		m.Player1ReportedRaces = races
	case 2:
		m.Player2ReportedScore1, m.Player2ReportedScore2 = &s1, &s2
		m.Player2ReportedRaces = races
	}
}

func (m *Match) ClearReports() {
	m.Player1ReportedScore1, m.Player1ReportedScore2, m.Player1ReportedRaces = nil, nil, nil
	m.Player2ReportedScore1, m.Player2ReportedScore2, m.Player2ReportedRaces = nil, nil, nil
}

// ScorePair is a score as seen from slot 1 and slot 2.
type ScorePair struct {
	Score1 int `json:"score1"`
	Score2 int `json:"score2"`
}
