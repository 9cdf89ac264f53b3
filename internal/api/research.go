package api

import (
	"errors"
	"io"
	"net/http"

	"decentra_research_backend/internal/auth"
	apperrors "decentra_research_backend/internal/errors"
	"decentra_research_backend/internal/models"
	"decentra_research_backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type updateResearchRequest struct {
	models.ResearchPatch
	Owner string `json:"owner"`
}

type ownerRequest struct {
	Owner string `json:"owner"`
}

type citeRequest struct {
	CitingPaper string `json:"citingPaper"`
}

// bindOptionalJSON binds the body when there is one. An empty body is not an error.
func bindOptionalJSON(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func credentials(c *gin.Context, claimedOwner string) auth.Credentials {
	return auth.Credentials{ClaimedOwner: claimedOwner, Token: auth.BearerToken(c)}
}

// handleServiceError translates service failures into HTTP errors. action
// names the mutation for the forbidden message.
func handleServiceError(c *gin.Context, err error, action string) {
	var verr *models.ValidationError
	switch {
	case errors.Is(err, services.ErrNotFound):
		apperrors.HandleError(c, apperrors.New404Error("Research not found"))
	case errors.Is(err, auth.ErrUnauthorized):
		apperrors.HandleError(c, apperrors.New401Error("Owner token is missing or invalid"))
	case errors.Is(err, auth.ErrForbidden):
		apperrors.HandleError(c, apperrors.New403Error("Not authorized to "+action+" this research"))
	case errors.As(err, &verr):
		apperrors.HandleError(c, apperrors.New400Error(verr.Error()))
	default:
		apperrors.HandleError(c, apperrors.New500Error(err))
	}
}

func listResearchHandler(svc *services.ResearchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		research, err := svc.List(c.Request.Context())
		if err != nil {
			handleServiceError(c, err, "list")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"count":   len(research),
			"data":    research,
		})
	}
}

func getResearchHandler(svc *services.ResearchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		research, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			handleServiceError(c, err, "read")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": research})
	}
}

func createResearchHandler(svc *services.ResearchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.Research
		if err := c.ShouldBindJSON(&input); err != nil {
			apperrors.HandleError(c, apperrors.New400Error("Invalid request body"))
			return
		}

		created, err := svc.Create(c.Request.Context(), input)
		if err != nil {
			handleServiceError(c, err, "create")
			return
		}

		resp := gin.H{"success": true, "data": created.Research}
		if created.OwnerToken != "" {
			resp["ownerToken"] = created.OwnerToken
		}
		c.JSON(http.StatusCreated, resp)
	}
}

func updateResearchHandler(svc *services.ResearchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateResearchRequest
		if err := bindOptionalJSON(c, &req); err != nil {
			apperrors.HandleError(c, apperrors.New400Error("Invalid request body"))
			return
		}

		research, err := svc.Update(c.Request.Context(), c.Param("id"), credentials(c, req.Owner), req.ResearchPatch)
		if err != nil {
			handleServiceError(c, err, "update")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": research})
	}
}

func deleteResearchHandler(svc *services.ResearchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ownerRequest
		if err := bindOptionalJSON(c, &req); err != nil {
			apperrors.HandleError(c, apperrors.New400Error("Invalid request body"))
			return
		}

		if err := svc.Delete(c.Request.Context(), c.Param("id"), credentials(c, req.Owner)); err != nil {
			handleServiceError(c, err, "delete")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{}})
	}
}

func citeResearchHandler(svc *services.ResearchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req citeRequest
		if err := bindOptionalJSON(c, &req); err != nil {
			apperrors.HandleError(c, apperrors.New400Error("Invalid request body"))
			return
		}

		research, err := svc.Cite(c.Request.Context(), c.Param("id"), req.CitingPaper)
		if err != nil {
			handleServiceError(c, err, "cite")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Citation added successfully",
			"data":    research,
		})
	}
}

func listCitationsHandler(svc *services.ResearchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		citations, err := svc.Citations(c.Request.Context(), c.Param("id"))
		if err != nil {
			handleServiceError(c, err, "read")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"count":   len(citations),
			"data":    citations,
		})
	}
}

func bibtexHandler(svc *services.ResearchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		research, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			handleServiceError(c, err, "read")
			return
		}
		c.Data(http.StatusOK, "text/x-bibtex; charset=utf-8", []byte(services.ToBibTeX(research)))
	}
}

func uploadPDFHandler(svc *services.ResearchService, content services.ContentStore, pdfs *services.PDFService, maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id := c.Param("id")
		if maxBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+(1<<20))
		}

		fileHeader, err := c.FormFile("pdf")
		if err != nil {
			apperrors.HandleError(c, apperrors.New400Error("Please upload a PDF file in the 'pdf' field"))
			return
		}

		cred := credentials(c, c.PostForm("owner"))
		if _, err := svc.Authorize(ctx, id, cred); err != nil {
			handleServiceError(c, err, "update")
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			apperrors.HandleError(c, apperrors.New400Error("Failed to read uploaded file"))
			return
		}
		defer file.Close()

		limit := maxBytes
		if limit <= 0 {
			limit = fileHeader.Size
		}
		body, err := io.ReadAll(io.LimitReader(file, limit+1))
		if err != nil {
			apperrors.HandleError(c, apperrors.New400Error("Failed to read uploaded file"))
			return
		}

		info, err := pdfs.Inspect(body)
		if err != nil {
			apperrors.HandleError(c, apperrors.New400Error(err.Error()))
			return
		}

		obj, err := content.Put(ctx, body)
		if err != nil {
			apperrors.HandleError(c, apperrors.New502Error("Content store unavailable", err))
			return
		}
		zerolog.Ctx(ctx).Info().Str("research_id", id).Str("locator", obj.Locator).Int64("size", obj.Size).Msg("pdf stored")

		research, err := svc.AttachContent(ctx, id, cred, obj)
		if err != nil {
			handleServiceError(c, err, "update")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    research,
			"pages":   info.Pages,
		})
	}
}
