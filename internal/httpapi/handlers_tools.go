package httpapi

import (
	"errors"
	"net/http"

	"kasirinaja/dashboard/internal/domain"
	"kasirinaja/dashboard/internal/recommendation"
)

type ideaRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type recipeRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type analysisRequest struct {
	Location string `json:"location"`
}

// hppRequest either costs out a product from its components or, when
// selling_price is set, reports the margin of a price against unit_cost.
type hppRequest struct {
	RawMaterial  int64 `json:"raw_material"`
	Packaging    int64 `json:"packaging"`
	Labor        int64 `json:"labor"`
	Overhead     int64 `json:"overhead"`
	SellingPrice int64 `json:"selling_price"`
	UnitCost     int64 `json:"unit_cost"`
}

func (a *API) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, a.service.Settings())
	case http.MethodPatch:
		var req domain.SettingsUpdate
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		updated, err := a.service.UpdateSettings(r.Context(), req)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	default:
		writeMethodNotAllowed(w)
	}
}

func (a *API) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"recommendations": a.service.Recommendations(r.URL.Query().Get("type")),
	})
}

func (a *API) handleRecommendationActions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch pathTail(r, "/api/v1/recommendations/") {
	case "business-ideas":
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]any{"recommendations": a.service.BusinessIdeas(r.Context())})
		case http.MethodPost:
			var req ideaRequest
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			a.writeSaved(w, func() (domain.RecommendationRecord, error) {
				return a.service.SaveIdea(r.Context(), req.Title, req.Description)
			})
		default:
			writeMethodNotAllowed(w)
		}
	case "ideas":
		if r.Method != http.MethodGet {
			writeMethodNotAllowed(w)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ideas": a.service.GenerateIdeas(q.Get("category"), q.Get("capital"))})
	case "recipes":
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]any{
				"recipes": a.service.Recipes(q.Get("category"), q.Get("difficulty"), q.Get("budget")),
			})
		case http.MethodPost:
			var req recipeRequest
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			a.writeSaved(w, func() (domain.RecommendationRecord, error) {
				return a.service.SaveRecipe(r.Context(), req.Title, req.URL)
			})
		default:
			writeMethodNotAllowed(w)
		}
	case "market-analysis":
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, a.service.MarketAnalysis(q.Get("location")))
		case http.MethodPost:
			var req analysisRequest
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			a.writeSaved(w, func() (domain.RecommendationRecord, error) {
				return a.service.SaveAnalysis(r.Context(), req.Location)
			})
		default:
			writeMethodNotAllowed(w)
		}
	default:
		writeError(w, http.StatusNotFound, errors.New("unknown recommendation resource"))
	}
}

func (a *API) writeSaved(w http.ResponseWriter, save func() (domain.RecommendationRecord, error)) {
	rec, err := save()
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"recommendation": rec})
}

func (a *API) handleHPP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	var req hppRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var (
		result recommendation.HPPResult
		err    error
	)
	if req.SellingPrice != 0 {
		result, err = a.service.MarginAt(req.SellingPrice, req.UnitCost)
	} else {
		result, err = a.service.CalculateHPP(req.RawMaterial, req.Packaging, req.Labor, req.Overhead)
	}
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 20, 50)
	writeJSON(w, http.StatusOK, map[string]any{"notifications": a.service.Notifications(limit)})
}

// handleView opens a dashboard section and returns its view model. DELETE
// closes whichever section is open.
func (a *API) handleView(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		route := pathTail(r, "/api/v1/view/")
		model, err := a.views.Navigate(r.Context(), route)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"route": route, "view": model})
	case http.MethodDelete:
		a.views.Leave()
		w.WriteHeader(http.StatusNoContent)
	default:
		writeMethodNotAllowed(w)
	}
}
