package views

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/google/uuid"

	"github.com/smkcup/kart-tournament/internal/bracket"
	"github.com/smkcup/kart-tournament/internal/service"
)

func Render(w http.ResponseWriter, r *http.Request, component templ.Component) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(r.Context(), w)
}

var modeLabels = map[bracket.Mode]string{
	bracket.TimeAttack: "Time Attack",
	bracket.BattleMode: "Battle Mode",
	bracket.MatchRace:  "Match Race",
	bracket.GrandPrix:  "Grand Prix",
}

func headToHeadModes() []bracket.Mode {
	var modes []bracket.Mode
	for _, mode := range bracket.Modes {
		if mode.HeadToHead() {
			modes = append(modes, mode)
		}
	}
	return modes
}

func bracketURL(tournamentID uuid.UUID, mode bracket.Mode) templ.SafeURL {
	return templ.SafeURL("/tournaments/" + tournamentID.String() + "/" + string(mode))
}

func rankingURL(tournamentID uuid.UUID) templ.SafeURL {
	return templ.SafeURL("/tournaments/" + tournamentID.String() + "/ranking")
}

func bracketTitle(t *bracket.Tournament, mode bracket.Mode) string {
	return t.Name + " " + modeLabels[mode] + " Finals"
}

// modeTotal is what a player earned in one mode, qualification and finals together.
func modeTotal(e service.OverallEntry, mode bracket.Mode) int {
	points := e.Modes[mode]
	return points.QualificationPoints + points.FinalsPoints
}
