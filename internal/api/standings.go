package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smkcup/kart-tournament/internal/httputil"
	"github.com/smkcup/kart-tournament/internal/middleware"
	"github.com/smkcup/kart-tournament/internal/service"
)

const (
	defaultTokenTTL = 24 * time.Hour
	maxTokenTTL     = 7 * 24 * time.Hour
)

type setupTimeAttackRequest struct {
	Players []uuid.UUID `json:"players"`
}

type issueTokenRequest struct {
	PlayerID uuid.UUID `json:"playerId"`
	TTLHours int       `json:"ttlHours"`
}

type issuedToken struct {
	Token     string    `json:"token"`
	PlayerID  uuid.UUID `json:"playerId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *Handler) getTimeAttack(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := uuidParam(r, "tournamentID")
	if err != nil {
		h.fail(w, r, OpGetTimeAttack, err)
		return
	}
	entries, err := h.svc.TimeAttack.Standings(r.Context(), tournamentID)
	if err != nil {
		h.fail(w, r, OpGetTimeAttack, err)
		return
	}
	h.ok(w, http.StatusOK, entries)
}

func (h *Handler) setupTimeAttack(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := uuidParam(r, "tournamentID")
	if err != nil {
		h.fail(w, r, OpSetupTimeAttack, err)
		return
	}
	if _, err := h.svc.Tournaments.Get(r.Context(), tournamentID); err != nil {
		h.fail(w, r, OpSetupTimeAttack, err)
		return
	}
	var req setupTimeAttackRequest
	if err := httputil.ReadJSON(w, r, &req); err != nil {
		h.fail(w, r, OpSetupTimeAttack, err)
		return
	}
	entries, err := h.svc.TimeAttack.Setup(r.Context(), tournamentID, req.Players)
	if err != nil {
		h.fail(w, r, OpSetupTimeAttack, err)
		return
	}
	h.audit(r, OpSetupTimeAttack, "tournament", tournamentID.String(), map[string]int{"players": len(req.Players)})
	h.ok(w, http.StatusCreated, entries)
}

func (h *Handler) setTimes(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := uuidParam(r, "tournamentID")
	if err != nil {
		h.fail(w, r, OpSetTimes, err)
		return
	}
	playerID, err := uuidParam(r, "playerID")
	if err != nil {
		h.fail(w, r, OpSetTimes, err)
		return
	}
	var input service.TimesInput
	if err := httputil.ReadJSON(w, r, &input); err != nil {
		h.fail(w, r, OpSetTimes, err)
		return
	}
	input.TournamentID = tournamentID
	input.PlayerID = playerID
	input.Identity = middleware.GetIdentity(r.Context())

	entry, err := h.svc.TimeAttack.SetTimes(r.Context(), input)
	if err != nil {
		h.fail(w, r, OpSetTimes, err)
		return
	}
	if input.Identity.IsAdmin() {
		h.audit(r, OpSetTimes, "ta_entry", entry.ID.String(), input.Times)
	}
	h.ok(w, http.StatusOK, entry)
}

// etagMatches reports whether the If-None-Match header lists etag.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	if strings.TrimSpace(header) == "*" {
		return true
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == etag {
			return true
		}
	}
	return false
}

func (h *Handler) getStandings(w http.ResponseWriter, r *http.Request) {
	tournamentID, mode, err := tournamentMode(r)
	if err != nil {
		h.fail(w, r, OpGetStandings, err)
		return
	}
	entry, err := h.svc.Standings.Get(r.Context(), tournamentID, mode)
	if err != nil {
		h.fail(w, r, OpGetStandings, err)
		return
	}

	headers := http.Header{}
	headers.Set("ETag", entry.ETag)
	headers.Set("Cache-Control", "no-cache")
	if etagMatches(r.Header.Get("If-None-Match"), entry.ETag) {
		for k, v := range headers {
			w.Header()[k] = v
		}
		w.WriteHeader(http.StatusNotModified)
		return
	}
	httputil.WriteJSON(w, h.logger, http.StatusOK, entry.Data, headers)
}

func (h *Handler) getRanking(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := uuidParam(r, "tournamentID")
	if err != nil {
		h.fail(w, r, OpGetRanking, err)
		return
	}
	ranking, err := h.svc.Ranking.Overall(r.Context(), tournamentID)
	if err != nil {
		h.fail(w, r, OpGetRanking, err)
		return
	}
	h.ok(w, http.StatusOK, ranking)
}

// issueToken creates a report link token for one player in one tournament.
func (h *Handler) issueToken(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := uuidParam(r, "tournamentID")
	if err != nil {
		h.fail(w, r, OpIssueToken, err)
		return
	}
	var req issueTokenRequest
	if err := httputil.ReadJSON(w, r, &req); err != nil {
		h.fail(w, r, OpIssueToken, err)
		return
	}

	ttl := defaultTokenTTL
	if req.TTLHours != 0 {
		ttl = time.Duration(req.TTLHours) * time.Hour
	}
	if ttl <= 0 || ttl > maxTokenTTL {
		h.fail(w, r, OpIssueToken, &service.ValidationError{Field: "ttlHours", Message: "must be between 1 and " + strconv.Itoa(int(maxTokenTTL.Hours()))})
		return
	}

	if _, err := h.svc.Tournaments.Get(r.Context(), tournamentID); err != nil {
		h.fail(w, r, OpIssueToken, err)
		return
	}
	if _, err := h.svc.Players.Get(r.Context(), req.PlayerID); err != nil {
		h.fail(w, r, OpIssueToken, err)
		return
	}

	signed, expires, err := h.issuer.Issue(req.PlayerID, tournamentID, ttl)
	if err != nil {
		h.fail(w, r, OpIssueToken, err)
		return
	}
	h.audit(r, OpIssueToken, "player", req.PlayerID.String(), map[string]any{
		"tournamentId": tournamentID,
		"expiresAt":    expires,
	})
	h.ok(w, http.StatusCreated, issuedToken{Token: signed, PlayerID: req.PlayerID, ExpiresAt: expires})
}

func (h *Handler) listAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httputil.BadRequest(w, r, h.logger, "limit must be a number")
			return
		}
		limit = n
	}
	logs, err := h.svc.Audit.Recent(r.Context(), limit)
	if err != nil {
		h.fail(w, r, OpListAuditLogs, err)
		return
	}
	h.ok(w, http.StatusOK, logs)
}
