package api

import (
	"net/http"

	"github.com/smkcup/kart-tournament/internal/httputil"
	"github.com/smkcup/kart-tournament/internal/service"
)

func (h *Handler) listTournaments(w http.ResponseWriter, r *http.Request) {
	tournaments, err := h.svc.Tournaments.List(r.Context())
	if err != nil {
		h.fail(w, r, OpListTournaments, err)
		return
	}
	h.ok(w, http.StatusOK, tournaments)
}

func (h *Handler) getTournament(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "tournamentID")
	if err != nil {
		h.fail(w, r, OpGetTournament, err)
		return
	}
	tournament, err := h.svc.Tournaments.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, OpGetTournament, err)
		return
	}
	h.ok(w, http.StatusOK, tournament)
}

func (h *Handler) createTournament(w http.ResponseWriter, r *http.Request) {
	var input service.TournamentInput
	if err := httputil.ReadJSON(w, r, &input); err != nil {
		h.fail(w, r, OpCreateTournament, err)
		return
	}
	tournament, err := h.svc.Tournaments.Create(r.Context(), input)
	if err != nil {
		h.fail(w, r, OpCreateTournament, err)
		return
	}
	h.audit(r, OpCreateTournament, "tournament", tournament.ID.String(), input)
	h.ok(w, http.StatusCreated, tournament)
}

func (h *Handler) updateTournament(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "tournamentID")
	if err != nil {
		h.fail(w, r, OpUpdateTournament, err)
		return
	}
	var update service.TournamentUpdate
	if err := httputil.ReadJSON(w, r, &update); err != nil {
		h.fail(w, r, OpUpdateTournament, err)
		return
	}
	tournament, err := h.svc.Tournaments.Update(r.Context(), id, update)
	if err != nil {
		h.fail(w, r, OpUpdateTournament, err)
		return
	}
	h.audit(r, OpUpdateTournament, "tournament", id.String(), update)
	h.ok(w, http.StatusOK, tournament)
}

func (h *Handler) deleteTournament(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "tournamentID")
	if err != nil {
		h.fail(w, r, OpDeleteTournament, err)
		return
	}
	if err := h.svc.Tournaments.Delete(r.Context(), id); err != nil {
		h.fail(w, r, OpDeleteTournament, err)
		return
	}
	h.audit(r, OpDeleteTournament, "tournament", id.String(), nil)
	h.ok(w, http.StatusOK, map[string]string{"id": id.String()})
}
