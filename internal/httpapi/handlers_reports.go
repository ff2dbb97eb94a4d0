package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"kasirinaja/dashboard/internal/domain"
)

func (a *API) handleReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	q := r.URL.Query()
	switch pathTail(r, "/api/v1/reports/") {
	case "dashboard":
		writeJSON(w, http.StatusOK, a.service.Dashboard())
	case "finance":
		fin, err := a.service.Finance(q.Get("period"))
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, fin)
	case "categories":
		writeJSON(w, http.StatusOK, map[string]any{"categories": a.service.Categories()})
	case "top-products":
		top, err := a.service.TopProducts(parsePositiveLimit(q.Get("limit"), 5, 50), q.Get("by"))
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"products": top})
	case "complete":
		writeJSON(w, http.StatusOK, a.service.CompleteReport(r.Context()))
	case "inventory":
		writeJSON(w, http.StatusOK, a.service.Inventory())
	default:
		writeError(w, http.StatusNotFound, errors.New("unknown report"))
	}
}

// handleExports streams downloadable documents. Each body is rendered into
// a buffer first so a failure still yields a JSON error response.
func (a *API) handleExports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	date := a.now().Format("2006-01-02")
	var (
		buf         bytes.Buffer
		err         error
		contentType = "application/json"
		filename    string
	)
	switch pathTail(r, "/api/v1/exports/") {
	case "json":
		filename = fmt.Sprintf("umkm-data-%s.json", date)
		err = a.service.ExportJSON(&buf)
	case "products.csv":
		contentType, filename = "text/csv; charset=utf-8", fmt.Sprintf("products-%s.csv", date)
		err = a.service.ExportProductsCSV(&buf)
	case "transactions.csv":
		contentType, filename = "text/csv; charset=utf-8", fmt.Sprintf("transactions-%s.csv", date)
		err = a.service.ExportTransactionsCSV(&buf)
	case "financial-report":
		var doc domain.FinancialReport
		doc, err = a.service.FinancialReport(r.URL.Query().Get("period"), r.URL.Query().Get("type"))
		if err == nil {
			filename = fmt.Sprintf("financial-report-%s-%s.json", doc.Period, date)
			err = encodeIndented(&buf, doc)
		}
	case "complete-report":
		filename = fmt.Sprintf("complete-report-%s.json", date)
		err = encodeIndented(&buf, a.service.CompleteReport(r.Context()))
	default:
		writeError(w, http.StatusNotFound, errors.New("unknown export"))
		return
	}
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	attachment(w, contentType, filename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func encodeIndented(buf *bytes.Buffer, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	buf.Write(raw)
	return nil
}

func (a *API) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	result, err := a.service.ImportJSON(r.Context(), r.Body)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleBackups(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		keys, err := a.service.Snapshots(r.Context())
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"snapshots": keys})
	case http.MethodPost:
		key, err := a.service.TakeSnapshot(r.Context())
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"key": key})
	default:
		writeMethodNotAllowed(w)
	}
}

// handleBackupActions serves POST /backups/{key}/restore.
func (a *API) handleBackupActions(w http.ResponseWriter, r *http.Request) {
	key, action, _ := cutLast(pathTail(r, "/api/v1/backups/"))
	if action != "restore" || key == "" {
		writeError(w, http.StatusNotFound, errors.New("unknown backup action"))
		return
	}
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w)
		return
	}
	if err := a.service.RestoreSnapshot(r.Context(), key); err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"restored": key})
}

func cutLast(s string) (before string, after string, found bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}
