package handlers

import (
	"net/http"
	"workTracker/internal/logger"
	"workTracker/internal/service"

	"go.uber.org/zap"
)

type ReportHandler struct {
	ReportService ReportService
}

func NewReportHandler(reportService ReportService) ReportHandler {
	return ReportHandler{
		ReportService: reportService,
	}
}

// GetReport - GET /reports?from=&to=&project_id=&user_id=
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	q, ok := parseReportQuery(w, r)
	if !ok {
		return
	}

	rep, err := h.ReportService.Build(r.Context(), actor, q)
	if err != nil {
		handleServiceError(w, r, err, "build_report")
		return
	}
	responseWithData(w, http.StatusOK, rep)
}

func parseReportQuery(w http.ResponseWriter, r *http.Request) (service.ReportQuery, bool) {
	var q service.ReportQuery
	var err error

	fail := func(param string, err error) (service.ReportQuery, bool) {
		logger.Warn("HTTP: Ошибка получения параметра",
			zap.String("param", param),
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "неверное значение "+param+": "+err.Error())
		return service.ReportQuery{}, false
	}

	if q.TargetUserID, err = queryUUID(r, "user_id"); err != nil {
		return fail("user_id", err)
	}
	if q.ProjectID, err = queryUUID(r, "project_id"); err != nil {
		return fail("project_id", err)
	}
	if q.From, err = queryTime(r, "from"); err != nil {
		return fail("from", err)
	}
	if q.To, err = queryTime(r, "to"); err != nil {
		return fail("to", err)
	}
	return q, true
}
