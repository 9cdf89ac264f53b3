package api

import (
	"net/http"

	"decentra_research_backend/internal/auth"
	"decentra_research_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Deps is everything the HTTP layer needs.
type Deps struct {
	Research       *services.ResearchService
	Analysis       *services.AnalysisService
	Content        services.ContentStore
	PDFs           *services.PDFService
	Tokens         *auth.TokenIssuer
	Health         *HealthHandler
	Limiter        *RateLimiter
	Version        string
	MaxUploadBytes int64
}

func SetupRoutes(r *gin.Engine, deps Deps) {
	r.GET("/", rootHandler(deps.Version))
	if deps.Health != nil {
		deps.Health.RegisterRoutes(r)
	}

	limited := deps.Limiter.Middleware()

	api := r.Group("/api")
	{
		research := api.Group("/research")
		{
			research.GET("", listResearchHandler(deps.Research))
			research.GET("/test", endpointIndexHandler)
			research.GET("/:id", getResearchHandler(deps.Research))
			research.POST("", limited, createResearchHandler(deps.Research))
			research.PUT("/:id", limited, updateResearchHandler(deps.Research))
			research.DELETE("/:id", limited, deleteResearchHandler(deps.Research))
			research.POST("/:id/cite", limited, citeResearchHandler(deps.Research))
			research.GET("/:id/citations", listCitationsHandler(deps.Research))
			research.GET("/:id/bibtex", bibtexHandler(deps.Research))
			research.POST("/:id/pdf", limited, uploadPDFHandler(deps.Research, deps.Content, deps.PDFs, deps.MaxUploadBytes))
			if deps.Analysis != nil {
				research.POST("/:id/analysis", limited, analyzeResearchHandler(deps.Analysis))
			}
		}

		if deps.Analysis != nil {
			analysis := api.Group("/analysis", limited)
			{
				analysis.POST("/plagiarism", checkPlagiarismHandler(deps.Analysis))
				analysis.POST("/citations", validateCitationsHandler(deps.Analysis))
			}
		}

		auth.SetupRoutes(api.Group("", limited), deps.Tokens)
	}
}

func rootHandler(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "DecentraResearch API is working!",
			"version": version,
			"status":  "online",
		})
	}
}

func endpointIndexHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Research API endpoint is working",
		"endpoints": gin.H{
			"getAll":    "GET /api/research",
			"getOne":    "GET /api/research/:id",
			"create":    "POST /api/research",
			"update":    "PUT /api/research/:id",
			"delete":    "DELETE /api/research/:id",
			"cite":      "POST /api/research/:id/cite",
			"citations": "GET /api/research/:id/citations",
			"bibtex":    "GET /api/research/:id/bibtex",
			"uploadPdf": "POST /api/research/:id/pdf",
			"analyze":   "POST /api/research/:id/analysis",
		},
	})
}
