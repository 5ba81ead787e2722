package ui

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gonarrative/app"
	"gonarrative/domain/narrative"
	"gonarrative/internal/errors"
)

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type sectionSummary struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	GroupBy string   `json:"group_by"`
	Unit    string   `json:"unit"`
	Rules   []string `json:"rules"`
	Sources []string `json:"sources"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"sections": len(s.narratives.Sections()),
		"rows":     s.narratives.Dataset().Len(),
	})
}

func (s *Server) handleSections(c *gin.Context) {
	sections := s.narratives.Sections()
	out := make([]sectionSummary, 0, len(sections))
	for _, sec := range sections {
		out = append(out, sectionSummary{
			ID:      sec.ID,
			Title:   sec.Label(),
			GroupBy: sec.GroupBy,
			Unit:    sec.Unit,
			Rules:   sec.Rules,
			Sources: sec.Sources,
		})
	}
	c.JSON(http.StatusOK, out)
}

// handleNarrative treats every query parameter as an equality filter
func (s *Server) handleNarrative(c *gin.Context) {
	res, err := s.narratives.Narrate(c.Request.Context(), c.Param("id"), filtersFromQuery(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleFilterValues(c *gin.Context) {
	field := c.Param("field")
	if !s.narratives.Dataset().HasField(field) {
		s.writeError(c, errors.NotFound("field "+field))
		return
	}
	c.JSON(http.StatusOK, gin.H{"field": field, "values": s.narratives.FilterValues(field)})
}

func (s *Server) handleRules(c *gin.Context) {
	c.JSON(http.StatusOK, s.registry.Configs())
}

// handleReport builds a multi-section report. Reserved parameters: sections
// (comma separated), format (json, markdown, html) and title; the rest are filters.
func (s *Server) handleReport(c *gin.Context) {
	if s.reports == nil {
		s.writeError(c, errors.NotFound("reports"))
		return
	}
	var ids []string
	if raw := c.Query("sections"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}

	rep, err := s.reports.Build(c.Request.Context(), c.Query("title"), ids, filtersFromQuery(c, "sections", "format", "title"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	format := c.DefaultQuery("format", "json")
	switch format {
	case "json":
		c.JSON(http.StatusOK, rep)
	case string(app.FormatMarkdown), string(app.FormatHTML):
		body, err := rep.Render(app.ReportFormat(format))
		if err != nil {
			s.writeError(c, err)
			return
		}
		contentType := "text/markdown; charset=utf-8"
		if format == string(app.FormatHTML) {
			contentType = "text/html; charset=utf-8"
		}
		c.Data(http.StatusOK, contentType, body)
	default:
		s.writeError(c, errors.InvalidInput("unsupported format "+format))
	}
}

func filtersFromQuery(c *gin.Context, reserved ...string) narrative.FilterState {
	skip := make(map[string]bool, len(reserved))
	for _, r := range reserved {
		skip[r] = true
	}
	filters := narrative.FilterState{}
	for field, values := range c.Request.URL.Query() {
		if skip[field] || len(values) == 0 {
			continue
		}
		filters[field] = values[0]
	}
	return filters
}

func (s *Server) writeError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.CodeNotFound:
		status = http.StatusNotFound
	case errors.CodeInvalidInput:
		status = http.StatusBadRequest
	case errors.CodeDataUnavailable:
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("request_id", c.GetString("request_id")), zap.Error(err))
	}
	c.JSON(status, errorBody{Code: code, Message: err.Error(), RequestID: c.GetString("request_id")})
}
