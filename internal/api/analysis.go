package api

import (
	"errors"
	"net/http"

	apperrors "decentra_research_backend/internal/errors"
	"decentra_research_backend/internal/services"

	"github.com/gin-gonic/gin"
)

func handleAnalysisError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrUnsupportedStyle):
		apperrors.HandleError(c, apperrors.New400Error("Citation style must be one of APA, MLA, Chicago, IEEE"))
	case errors.Is(err, services.ErrNotFound):
		apperrors.HandleError(c, apperrors.New404Error("Research not found"))
	default:
		apperrors.HandleError(c, apperrors.New502Error("Analysis service unavailable", err))
	}
}

func checkPlagiarismHandler(svc *services.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request struct {
			Text string `json:"text" binding:"required"`
		}
		if err := c.ShouldBindJSON(&request); err != nil {
			apperrors.HandleError(c, apperrors.New400Error("Please provide the text to check"))
			return
		}

		report, err := svc.CheckPlagiarism(c.Request.Context(), request.Text)
		if err != nil {
			handleAnalysisError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": report})
	}
}

func validateCitationsHandler(svc *services.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request struct {
			Text          string `json:"text" binding:"required"`
			CitationStyle string `json:"citationStyle"`
		}
		if err := c.ShouldBindJSON(&request); err != nil {
			apperrors.HandleError(c, apperrors.New400Error("Please provide the text to check"))
			return
		}

		report, err := svc.ValidateCitations(c.Request.Context(), request.Text, request.CitationStyle)
		if err != nil {
			handleAnalysisError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": report})
	}
}

func analyzeResearchHandler(svc *services.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		analysis, err := svc.AnalyzeResearch(c.Request.Context(), c.Param("id"), c.Query("citationStyle"))
		if err != nil {
			handleAnalysisError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": analysis})
	}
}
