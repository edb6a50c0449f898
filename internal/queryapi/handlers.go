package queryapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gitlab.com/lumora/api/lead-insights-service/internal/analytics"
	"gitlab.com/lumora/api/lead-insights-service/internal/apperrors"
	"gitlab.com/lumora/api/lead-insights-service/internal/model"
	"gitlab.com/lumora/api/lead-insights-service/internal/ordering"
	"gitlab.com/lumora/api/lead-insights-service/pkg/logger"
	"gitlab.com/lumora/api/lead-insights-service/pkg/utils"
)

var windowKinds = map[string]analytics.WindowKind{
	string(analytics.WindowThisWeek):     analytics.WindowThisWeek,
	string(analytics.WindowThisMonth):    analytics.WindowThisMonth,
	string(analytics.WindowThisYear):     analytics.WindowThisYear,
	string(analytics.WindowCustomDays):   analytics.WindowCustomDays,
	string(analytics.WindowYearToDate):   analytics.WindowYearToDate,
	string(analytics.WindowLast12Months): analytics.WindowLast12Months,
	string(analytics.WindowLast24Months): analytics.WindowLast24Months,
	string(analytics.WindowCustomMonths): analytics.WindowCustomMonths,
}

// loadLeads fetches the workspace collection backing every read endpoint.
func (s *Server) loadLeads(c *gin.Context) ([]model.Lead, bool) {
	leads, err := s.leadRepo.FindAll(c.Request.Context())
	if err != nil {
		logger.FromContext(c.Request.Context()).Error("Failed to load leads for query", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load leads"})
		return nil, false
	}
	return leads, true
}

func (s *Server) listLeads(c *gin.Context) {
	leads, ok := s.loadLeads(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"workspace_id": c.GetString("workspace_id"),
		"count":        len(leads),
		"leads":        leads,
	})
}

func (s *Server) leadNumbers(c *gin.Context) {
	leads, ok := s.loadLeads(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"workspace_id": c.GetString("workspace_id"),
		"numbers":      ordering.LeadNumbers(leads),
	})
}

func (s *Server) timeSeries(c *gin.Context) {
	kind, ok := windowKinds[c.DefaultQuery("window", string(analytics.WindowThisWeek))]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown window kind"})
		return
	}

	window := analytics.Window{Kind: kind}
	if kind == analytics.WindowCustomDays || kind == analytics.WindowCustomMonths {
		start, startOK := utils.ParseISODate(c.Query("start"))
		end, endOK := utils.ParseISODate(c.Query("end"))
		if !startOK || !endOK {
			c.JSON(http.StatusBadRequest, gin.H{"error": "custom windows require start and end as YYYY-MM-DD"})
			return
		}
		window.Start = start
		window.End = end
	}

	mode := analytics.Mode(c.DefaultQuery("mode", string(analytics.ModeCount)))
	if mode != analytics.ModeCount && mode != analytics.ModePercent {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be count or percent"})
		return
	}

	leads, ok := s.loadLeads(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, analytics.TimeSeries(leads, window, mode, time.Now()))
}

func (s *Server) funnel(c *gin.Context) {
	leads, ok := s.loadLeads(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"workspace_id": c.GetString("workspace_id"),
		"steps":        analytics.Funnel(leads),
	})
}

func (s *Server) sourceConversions(c *gin.Context) {
	leads, ok := s.loadLeads(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"workspace_id": c.GetString("workspace_id"),
		"sources":      analytics.SourceConversions(leads),
	})
}

func (s *Server) stageVelocity(c *gin.Context) {
	leads, ok := s.loadLeads(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"workspace_id": c.GetString("workspace_id"),
		"transitions":  analytics.StageVelocity(leads),
	})
}

// importRequest is the HTTP body of a direct import. The workspace comes
// from the resolver, not the body.
type importRequest struct {
	CSV                        string `json:"csv" binding:"required"`
	SourceOverride             string `json:"source_override"`
	TreatDuplicateIDsAsUpdates *bool  `json:"treat_duplicate_ids_as_updates"`
}

func (s *Server) runImport(c *gin.Context) {
	if s.importService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "imports are not available on this instance"})
		return
	}

	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payload := model.ImportLeadsPayload{
		WorkspaceID:                c.GetString("workspace_id"),
		CSV:                        req.CSV,
		SourceOverride:             req.SourceOverride,
		TreatDuplicateIDsAsUpdates: req.TreatDuplicateIDsAsUpdates,
	}

	summary, err := s.importService.RunImport(c.Request.Context(), payload, nil)
	if err != nil {
		logger.FromContext(c.Request.Context()).Error("Import via API failed", zap.Error(err))
		switch {
		case errors.Is(err, apperrors.ErrBadImportFile), apperrors.IsFatal(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": "import rejected: unreadable or invalid file"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "import failed"})
		}
		return
	}

	c.JSON(http.StatusOK, summary)
}
