package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strconv"

	"github.com/google/uuid"

	"github.com/smkcup/kart-tournament/internal/bracket"
	"github.com/smkcup/kart-tournament/internal/cache"
	"github.com/smkcup/kart-tournament/internal/store"
	users "github.com/smkcup/kart-tournament/internal/user"
)

// Courses are the twenty Super Mario Kart courses in cup order.
var Courses = []string{
	"MC1", "DP1", "GV1", "BC1", "MC2",
	"CI1", "GV2", "DP2", "BC2", "MC3",
	"KB1", "CI2", "VL1", "BC3", "MC4",
	"DP3", "KB2", "GV3", "VL2", "RR",
}

var courseTimePattern = regexp.MustCompile(`^(\d{1,2}):([0-5]\d)\.(\d{2})$`)

// ParseCourseTime converts "M:SS.cc" into centiseconds.
func ParseCourseTime(s string) (int, error) {
	parts := courseTimePattern.FindStringSubmatch(s)
	if parts == nil {
		return 0, fmt.Errorf("time %q must look like M:SS.cc", s)
	}
	minutes, _ := strconv.Atoi(parts[1])
	seconds, _ := strconv.Atoi(parts[2])
	centis, _ := strconv.Atoi(parts[3])
	total := (minutes*60+seconds)*100 + centis
	if total == 0 {
		return 0, fmt.Errorf("time %q must be positive", s)
	}
	return total, nil
}

// FormatCourseTime renders centiseconds as "M:SS.cc".
func FormatCourseTime(centis int) string {
	return fmt.Sprintf("%d:%02d.%02d", centis/6000, centis/100%60, centis%100)
}

type TimeAttackService struct {
	store   *store.TimeAttackStore
	players *store.PlayerStore
	cache   *cache.Standings
	logger  *slog.Logger
}

func NewTimeAttackService(store *store.TimeAttackStore, players *store.PlayerStore, standings *cache.Standings, logger *slog.Logger) *TimeAttackService {
	return &TimeAttackService{store: store, players: players, cache: standings, logger: logger}
}

// TimesInput sets course times for one player. An empty string clears a course.
type TimesInput struct {
	TournamentID uuid.UUID         `json:"-"`
	PlayerID     uuid.UUID         `json:"-"`
	Identity     *users.Identity   `json:"-"`
	Times        map[string]string `json:"times"`
	Version      *int              `json:"version"`
}

// Setup registers the Time Attack field, replacing any earlier entries.
func (s *TimeAttackService) Setup(ctx context.Context, tournamentID uuid.UUID, playerIDs []uuid.UUID) ([]bracket.TimeAttackEntry, error) {
	if len(playerIDs) == 0 {
		return nil, invalid("players", "at least one player is required")
	}
	seen := map[uuid.UUID]bool{}
	entries := make([]bracket.TimeAttackEntry, 0, len(playerIDs))
	for _, id := range playerIDs {
		if seen[id] {
			return nil, invalid("players", fmt.Sprintf("player %s is listed twice", id))
		}
		seen[id] = true
		entries = append(entries, bracket.TimeAttackEntry{
			ID:           uuid.New(),
			TournamentID: tournamentID,
			PlayerID:     id,
			Times:        bracket.CourseTimes{},
		})
	}

	found, err := s.players.GetPlayers(ctx, playerIDs)
	if err != nil {
		return nil, err
	}
	if len(found) != len(playerIDs) {
		return nil, invalid("players", "one or more players do not exist")
	}

	if err := s.store.ReplaceEntries(ctx, tournamentID, entries); err != nil {
		return nil, fmt.Errorf("failed to register time attack entries: %w", err)
	}
	s.cache.InvalidateTournament(tournamentID)
	return s.Standings(ctx, tournamentID)
}

// SetTimes merges course times into a player's entry. Players may only set their
// own times; admins may set anyone's.
func (s *TimeAttackService) SetTimes(ctx context.Context, input TimesInput) (*bracket.TimeAttackEntry, error) {
	if input.Identity == nil {
		return nil, ErrUnauthorized
	}
	if !input.Identity.CanActFor(input.PlayerID, input.TournamentID) {
		return nil, ErrForbidden
	}
	if len(input.Times) == 0 {
		return nil, invalid("times", "no times given")
	}

	parsed := make(map[string]int, len(input.Times))
	for course, raw := range input.Times {
		if !slices.Contains(Courses, course) {
			return nil, invalid("times", fmt.Sprintf("unknown course %q", course))
		}
		if raw == "" {
			parsed[course] = 0
			continue
		}
		centis, err := ParseCourseTime(raw)
		if err != nil {
			return nil, invalid("times."+course, err.Error())
		}
		parsed[course] = centis
	}

	attempts := maxReportAttempts
	if input.Version != nil {
		attempts = 1
	}

	var entry *bracket.TimeAttackEntry
	err := retryOnConflict(ctx, attempts, func() error {
		var err error
		if entry, err = s.store.GetEntry(ctx, input.TournamentID, input.PlayerID); err != nil {
			return err
		}
		expected := entry.Version
		if input.Version != nil {
			expected = *input.Version
		}
		for course, centis := range parsed {
			if centis == 0 {
				delete(entry.Times, course)
			} else {
				entry.Times[course] = centis
			}
		}
		entry.Recalculate()
		return s.store.UpdateTimes(ctx, entry, expected)
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateTournament(input.TournamentID)
	s.logger.Info("time attack times recorded",
		"operation", "ta.times",
		"tournament_id", input.TournamentID,
		"player_id", input.PlayerID,
		"courses", len(parsed),
	)
	return entry, nil
}

// Standings returns the Time Attack field in rank order.
func (s *TimeAttackService) Standings(ctx context.Context, tournamentID uuid.UUID) ([]bracket.TimeAttackEntry, error) {
	entries, err := s.store.ListEntries(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	bracket.RankTimeAttack(entries)
	return entries, nil
}
