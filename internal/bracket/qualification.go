package bracket

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Qualification is a player's aggregate record in a mode's qualification stage.
// Score is match points (win 2, tie 1); Points is the round/race differential for
// BM and MR and the driver points total for GP.
type Qualification struct {
	ID            uuid.UUID `db:"id" json:"id"`
	TournamentID  uuid.UUID `db:"tournament_id" json:"tournamentId"`
	Mode          Mode      `db:"mode" json:"mode"`
	PlayerID      uuid.UUID `db:"player_id" json:"playerId"`
	GroupName     string    `db:"group_name" json:"group"`
	MatchesPlayed int       `db:"matches_played" json:"matchesPlayed"`
	Wins          int       `db:"wins" json:"wins"`
	Ties          int       `db:"ties" json:"ties"`
	Losses        int       `db:"losses" json:"losses"`
	Points        int       `db:"points" json:"points"`
	Score         int       `db:"score" json:"score"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`

	Nickname string `db:"nickname" json:"nickname"`
}

// CourseTimes maps a course abbreviation to a time in centiseconds.
type CourseTimes map[string]int

func (c CourseTimes) Value() (driver.Value, error) {
	if c == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]int(c))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (c *CourseTimes) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*c = CourseTimes{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("cannot scan %T into CourseTimes", src)
	}
	m := map[string]int{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return err
	}
	*c = m
	return nil
}

// TimeAttackEntry holds a player's recorded course times.
type TimeAttackEntry struct {
	ID               uuid.UUID   `db:"id" json:"id"`
	TournamentID     uuid.UUID   `db:"tournament_id" json:"tournamentId"`
	PlayerID         uuid.UUID   `db:"player_id" json:"playerId"`
	Times            CourseTimes `db:"times" json:"times"`
	TotalTime        int         `db:"total_time" json:"totalTime"`
	CoursesCompleted int         `db:"courses_completed" json:"coursesCompleted"`
	Version          int         `db:"version" json:"version"`
	UpdatedAt        time.Time   `db:"updated_at" json:"updatedAt"`

	Nickname string `db:"nickname" json:"nickname"`
	Rank     int    `db:"-" json:"rank"`
}

// Recalculate refreshes the derived totals from Times.
func (e *TimeAttackEntry) Recalculate() {
	total, n := 0, 0
	for _, t := range e.Times {
		if t > 0 {
			total += t
			n++
		}
	}
	e.TotalTime = total
	e.CoursesCompleted = n
}
