package api

import (
	"net/http"

	"github.com/smkcup/kart-tournament/internal/bracket"
	"github.com/smkcup/kart-tournament/internal/httputil"
	"github.com/smkcup/kart-tournament/internal/middleware"
	"github.com/smkcup/kart-tournament/internal/service"
)

type setupQualificationRequest struct {
	Players []service.SetupEntry `json:"players"`
}

type generateFinalsRequest struct {
	Size int `json:"size"`
}

func (h *Handler) getQualification(w http.ResponseWriter, r *http.Request) {
	tournamentID, mode, err := tournamentMode(r)
	if err != nil {
		h.fail(w, r, OpGetQualification, err)
		return
	}
	view, err := h.svc.Qualification.Get(r.Context(), tournamentID, mode)
	if err != nil {
		h.fail(w, r, OpGetQualification, err)
		return
	}
	h.ok(w, http.StatusOK, view)
}

func (h *Handler) setupQualification(w http.ResponseWriter, r *http.Request) {
	tournamentID, mode, err := tournamentMode(r)
	if err != nil {
		h.fail(w, r, OpSetupQualification, err)
		return
	}
	var req setupQualificationRequest
	if err := httputil.ReadJSON(w, r, &req); err != nil {
		h.fail(w, r, OpSetupQualification, err)
		return
	}
	view, err := h.svc.Qualification.Setup(r.Context(), tournamentID, mode, req.Players)
	if err != nil {
		h.fail(w, r, OpSetupQualification, err)
		return
	}
	h.audit(r, OpSetupQualification, "tournament", tournamentID.String(), map[string]any{
		"mode":    mode,
		"players": len(req.Players),
	})
	h.ok(w, http.StatusCreated, view)
}

func (h *Handler) scoreQualification(w http.ResponseWriter, r *http.Request) {
	matchID, err := uuidParam(r, "matchID")
	if err != nil {
		h.fail(w, r, OpScoreQualification, err)
		return
	}
	var input service.ScoreInput
	if err := httputil.ReadJSON(w, r, &input); err != nil {
		h.fail(w, r, OpScoreQualification, err)
		return
	}
	input.MatchID = matchID

	match, err := h.svc.Qualification.ScoreMatch(r.Context(), input)
	if err != nil {
		h.fail(w, r, OpScoreQualification, err)
		return
	}
	h.audit(r, OpScoreQualification, "match", matchID.String(), bracket.ScorePair{Score1: match.Score1, Score2: match.Score2})
	h.ok(w, http.StatusOK, match)
}

func (h *Handler) getFinals(w http.ResponseWriter, r *http.Request) {
	tournamentID, mode, err := tournamentMode(r)
	if err != nil {
		h.fail(w, r, OpGetFinals, err)
		return
	}
	view, err := h.svc.Finals.Get(r.Context(), tournamentID, mode)
	if err != nil {
		h.fail(w, r, OpGetFinals, err)
		return
	}
	h.ok(w, http.StatusOK, view)
}

// generateFinals builds the bracket from the current qualification ranking.
// An empty body means the default bracket size.
func (h *Handler) generateFinals(w http.ResponseWriter, r *http.Request) {
	tournamentID, mode, err := tournamentMode(r)
	if err != nil {
		h.fail(w, r, OpGenerateFinals, err)
		return
	}
	req := generateFinalsRequest{Size: bracket.FinalsSize}
	if r.ContentLength != 0 {
		if err := httputil.ReadJSON(w, r, &req); err != nil {
			h.fail(w, r, OpGenerateFinals, err)
			return
		}
	}

	view, err := h.svc.Finals.Generate(r.Context(), tournamentID, mode, req.Size)
	if err != nil {
		h.fail(w, r, OpGenerateFinals, err)
		return
	}
	h.audit(r, OpGenerateFinals, "tournament", tournamentID.String(), map[string]any{"mode": mode, "size": req.Size})
	h.ok(w, http.StatusCreated, view)
}

func (h *Handler) resetFinals(w http.ResponseWriter, r *http.Request) {
	tournamentID, mode, err := tournamentMode(r)
	if err != nil {
		h.fail(w, r, OpResetFinals, err)
		return
	}
	if err := h.svc.Finals.Reset(r.Context(), tournamentID, mode); err != nil {
		h.fail(w, r, OpResetFinals, err)
		return
	}
	h.audit(r, OpResetFinals, "tournament", tournamentID.String(), map[string]any{"mode": mode})
	h.ok(w, http.StatusOK, map[string]any{"tournamentId": tournamentID, "mode": mode})
}

func (h *Handler) updateFinalsScore(w http.ResponseWriter, r *http.Request) {
	matchID, err := uuidParam(r, "matchID")
	if err != nil {
		h.fail(w, r, OpUpdateFinalsScore, err)
		return
	}
	var input service.UpdateScoreInput
	if err := httputil.ReadJSON(w, r, &input); err != nil {
		h.fail(w, r, OpUpdateFinalsScore, err)
		return
	}
	input.MatchID = matchID

	result, err := h.svc.Finals.UpdateScore(r.Context(), input)
	if err != nil {
		h.fail(w, r, OpUpdateFinalsScore, err)
		return
	}
	h.audit(r, OpUpdateFinalsScore, "match", matchID.String(), bracket.ScorePair{Score1: input.Score1, Score2: input.Score2})
	h.ok(w, http.StatusOK, result)
}

func (h *Handler) reportScore(w http.ResponseWriter, r *http.Request) {
	matchID, err := uuidParam(r, "matchID")
	if err != nil {
		h.fail(w, r, OpReportScore, err)
		return
	}
	var input service.ReportInput
	if err := httputil.ReadJSON(w, r, &input); err != nil {
		h.fail(w, r, OpReportScore, err)
		return
	}
	input.MatchID = matchID
	input.Identity = middleware.GetIdentity(r.Context())
	input.IP = middleware.ClientIP(r)

	result, err := h.svc.Reports.Report(r.Context(), input)
	if err != nil {
		h.fail(w, r, OpReportScore, err)
		return
	}
	h.ok(w, http.StatusOK, result)
}
