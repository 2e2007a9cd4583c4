package handler

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vgl-spec/soil-sub000/internal/dto"
	"github.com/vgl-spec/soil-sub000/internal/service"
)

type LogsHandler struct{ svc service.AuditService }

func NewLogsHandler(svc service.AuditService) *LogsHandler { return &LogsHandler{svc: svc} }

// List returns the action log newest first; ?user_id narrows it to one user.
func (h *LogsHandler) List(c *gin.Context) {
	var q dto.ListLogsQuery
	if !bindQuery(c, &q) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), q.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *LogsHandler) Clear(c *gin.Context) {
	var req dto.ClearLogsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	n, err := h.svc.ClearLogs(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ClearLogsResponse{Success: true, DeletedCount: n})
}

// Download serves the full log as a CSV attachment. The file is rendered
// before any byte is sent so a failure still yields a clean 500.
func (h *LogsHandler) Download(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.svc.ExportCSV(c.Request.Context(), &buf); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="action_logs.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
