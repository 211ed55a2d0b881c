package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/orientwatch/backend/internal/domain"
)

// Default block bodies served until the admin saves one.
var defaultBlocks = map[string]string{
	domain.BlockHero:     `{"title":"НАЙДИТЕ\nИДЕАЛЬНЫЕ\nЧАСЫ.","subtitle":"Японское мастерство и точность в каждой детали","image":"","ctaText":"Смотреть коллекцию","ctaLink":"/catalog"}`,
	domain.BlockPromo:    `{"text":"","code":"","active":false,"backgroundColor":"","textColor":"","highlightColor":""}`,
	domain.BlockHeritage: `{"title":"","subtitle":"","description":"","ctaText":"","ctaLink":"","yearsText":""}`,
	domain.BlockLogo:     `{"logoUrl":"","logoDarkUrl":null}`,
}

func knownBlock(name string) bool {
	_, ok := defaultBlocks[name]
	return ok
}

// GetContentBlock serves a content block, falling back to its default when
// nothing has been saved yet.
func (h *Handlers) GetContentBlock(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !knownBlock(name) {
		h.writeError(w, http.StatusNotFound, "unknown content block")
		return
	}

	block, err := h.content.Get(name)
	if errors.Is(err, sql.ErrNoRows) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(defaultBlocks[name]))
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(block.Body))
}

// PutContentBlock stores a block body verbatim; it only has to be JSON.
func (h *Handlers) PutContentBlock(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !knownBlock(name) {
		h.writeError(w, http.StatusNotFound, "unknown content block")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}

	if err := h.content.Put(name, string(body)); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "content updated"})
}

// --- settings ---

func (h *Handlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.Get()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, s)
}

func (h *Handlers) PutSettings(w http.ResponseWriter, r *http.Request) {
	var s domain.Settings
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}

	if err := h.settings.Put(&s); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Settings updated successfully"})
}

// GetCurrency is the public currency endpoint the storefront polls.
func (h *Handlers) GetCurrency(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.Get()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{
		"code":   s.CurrencyCode,
		"symbol": s.CurrencySymbol,
	})
}
