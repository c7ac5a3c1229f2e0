package http

import (
	"bytes"
	"net/http"
	"strconv"

	"mosques/internal/export"
	applog "mosques/internal/log"
	"mosques/internal/services"
)

func (s *Server) handleReportSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.svc.Reports.Summary(r.Context())
	if err != nil {
		fail(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleReportByMonth(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.Reports.ByMonth(r.Context())
	if err != nil {
		fail(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleReportByGovernorate(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.Reports.ByGovernorate(r.Context())
	if err != nil {
		fail(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleReportByMosque(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.Reports.ByMosque(r.Context())
	if err != nil {
		fail(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleReportMaterialsByGovernorate(w http.ResponseWriter, r *http.Request) {
	m, err := s.svc.Reports.MaterialsByGovernorate(r.Context())
	if err != nil {
		fail(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleUpdateAllReports(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Reports.Refresh(r.Context(), services.TriggerManual)
	if err != nil {
		applog.FromContext(r.Context()).WithComponent(applog.ComponentReports).
			ErrorContext(r.Context(), "Manual report refresh failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, msgReportsFailed)
		return
	}
	writeSuccess(w, msgReportsUpdated, snap)
}

type sheetDataResponse struct {
	Data      [][]string `json:"data"`
	TotalRows int        `json:"totalRows"`
	TotalCols int        `json:"totalCols"`
}

func (s *Server) handleSheetData(w http.ResponseWriter, r *http.Request) {
	rows, err := s.svc.Reports.SheetData(r.Context())
	if err != nil {
		applog.FromContext(r.Context()).WithComponent(applog.ComponentReports).
			ErrorContext(r.Context(), "Reading reports sheet failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, msgSheetReadFailed)
		return
	}
	resp := sheetDataResponse{Data: rows, TotalRows: len(rows)}
	if resp.Data == nil {
		resp.Data = [][]string{}
	}
	if len(rows) > 0 {
		resp.TotalCols = len(rows[0])
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleExport streams every report as one workbook. The file is built in
// memory first so a failure can still be answered with JSON.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Reports.Snapshot(r.Context())
	if err != nil {
		fail(w, r, err, nil)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteReports(&buf, snap); err != nil {
		fail(w, r, err, nil)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(snap.GeneratedAt)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
