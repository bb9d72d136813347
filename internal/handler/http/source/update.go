package source

import (
	"encoding/json"
	"errors"
	"net/http"

	"event-harvest/internal/domain/entity"
	"event-harvest/internal/handler/http/pathutil"
	"event-harvest/internal/handler/http/respond"
	"event-harvest/internal/usecase/sourcemgr"
)

type UpdateHandler struct{ Svc *sourcemgr.Service }

func (h UpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ExtractID(r.URL.Path, "/sources/")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Name                 string               `json:"name"`
		BaseURL              string               `json:"base_url"`
		SourceType           string               `json:"source_type"`
		ScrapeConfig         *entity.ScrapeConfig `json:"scrape_config"`
		ScrapeFrequencyHours *int                 `json:"scrape_frequency_hours"`
		Active               *bool                `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	src, err := h.Svc.Update(r.Context(), sourcemgr.UpdateInput{
		ID:                   id,
		Name:                 req.Name,
		BaseURL:              req.BaseURL,
		SourceType:           req.SourceType,
		ScrapeConfig:         req.ScrapeConfig,
		ScrapeFrequencyHours: req.ScrapeFrequencyHours,
		Active:               req.Active,
	})
	if err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, sourcemgr.ErrSourceNotFound) {
			code = http.StatusNotFound
		}
		respond.SafeError(w, code, err)
		return
	}
	if src == nil {
		respond.SafeError(w, http.StatusNotFound, sourcemgr.ErrSourceNotFound)
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(src))
}
