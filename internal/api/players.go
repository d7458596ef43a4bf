package api

import (
	"net/http"

	"github.com/smkcup/kart-tournament/internal/httputil"
	"github.com/smkcup/kart-tournament/internal/service"
)

func (h *Handler) listPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.svc.Players.List(r.Context())
	if err != nil {
		h.fail(w, r, OpListPlayers, err)
		return
	}
	h.ok(w, http.StatusOK, players)
}

func (h *Handler) getPlayer(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "playerID")
	if err != nil {
		h.fail(w, r, OpGetPlayer, err)
		return
	}
	player, err := h.svc.Players.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, OpGetPlayer, err)
		return
	}
	h.ok(w, http.StatusOK, player)
}

// createPlayer returns the generated password exactly once, in this response.
func (h *Handler) createPlayer(w http.ResponseWriter, r *http.Request) {
	var input service.PlayerInput
	if err := httputil.ReadJSON(w, r, &input); err != nil {
		h.fail(w, r, OpCreatePlayer, err)
		return
	}
	created, err := h.svc.Players.Create(r.Context(), input)
	if err != nil {
		h.fail(w, r, OpCreatePlayer, err)
		return
	}
	h.audit(r, OpCreatePlayer, "player", created.Player.ID.String(), map[string]string{
		"nickname": created.Player.Nickname,
	})
	h.ok(w, http.StatusCreated, created)
}

func (h *Handler) updatePlayer(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "playerID")
	if err != nil {
		h.fail(w, r, OpUpdatePlayer, err)
		return
	}
	var update service.PlayerUpdate
	if err := httputil.ReadJSON(w, r, &update); err != nil {
		h.fail(w, r, OpUpdatePlayer, err)
		return
	}
	player, err := h.svc.Players.Update(r.Context(), id, update)
	if err != nil {
		h.fail(w, r, OpUpdatePlayer, err)
		return
	}
	h.audit(r, OpUpdatePlayer, "player", id.String(), map[string]bool{
		"name":     update.Name != nil,
		"nickname": update.Nickname != nil,
		"country":  update.Country != nil,
		"password": update.Password != nil,
	})
	h.ok(w, http.StatusOK, player)
}

func (h *Handler) deletePlayer(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "playerID")
	if err != nil {
		h.fail(w, r, OpDeletePlayer, err)
		return
	}
	if err := h.svc.Players.Delete(r.Context(), id); err != nil {
		h.fail(w, r, OpDeletePlayer, err)
		return
	}
	h.audit(r, OpDeletePlayer, "player", id.String(), nil)
	h.ok(w, http.StatusOK, map[string]string{"id": id.String()})
}
