package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ugel-ilo/sgd-backend/internal/core"
	"github.com/ugel-ilo/sgd-backend/internal/core/search"
	"github.com/ugel-ilo/sgd-backend/internal/models"
)

type SearchHandler struct {
	engine *search.Engine
}

func NewSearchHandler(engine *search.Engine) *SearchHandler {
	return &SearchHandler{engine: engine}
}

// Search runs a semantic query over the completed documents.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "cuerpo JSON inválido")
		return
	}

	resp, err := h.engine.Search(r.Context(), &req)
	if err != nil {
		if core.KindOf(err) == core.KindInput {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
