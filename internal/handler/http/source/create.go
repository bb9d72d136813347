package source

import (
	"encoding/json"
	"errors"
	"net/http"

	"event-harvest/internal/domain/entity"
	"event-harvest/internal/handler/http/respond"
	"event-harvest/internal/usecase/sourcemgr"
)

type CreateHandler struct{ Svc *sourcemgr.Service }

func (h CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name                 string               `json:"name"`
		BaseURL              string               `json:"base_url"`
		SourceType           string               `json:"source_type"`
		ScrapeConfig         *entity.ScrapeConfig `json:"scrape_config"`
		ScrapeFrequencyHours int                  `json:"scrape_frequency_hours"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Name == "" || req.BaseURL == "" {
		respond.SafeError(w, http.StatusBadRequest,
			errors.New("name and base_url required"))
		return
	}
	src, err := h.Svc.Create(r.Context(), sourcemgr.CreateInput{
		Name:                 req.Name,
		BaseURL:              req.BaseURL,
		SourceType:           req.SourceType,
		ScrapeConfig:         req.ScrapeConfig,
		ScrapeFrequencyHours: req.ScrapeFrequencyHours,
	})
	if err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, sourcemgr.ErrDuplicateSource) {
			code = http.StatusConflict
		}
		respond.SafeError(w, code, err)
		return
	}
	respond.JSON(w, http.StatusCreated, toDTO(src))
}
