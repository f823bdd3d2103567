package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/campus-backend/internal/app/model"
	"github.com/ikkim/campus-backend/internal/app/service"
	apperrors "github.com/ikkim/campus-backend/internal/errors"
	"github.com/ikkim/campus-backend/internal/middleware"
)

type ShortLinkController struct {
	linkService service.ShortLinkService
	publicURL   string
}

// NewShortLinkController builds short URLs as {publicURL}/s/{code}.
func NewShortLinkController(linkService service.ShortLinkService, publicURL string) *ShortLinkController {
	return &ShortLinkController{
		linkService: linkService,
		publicURL:   strings.TrimRight(publicURL, "/"),
	}
}

type CreateShortLinkRequest struct {
	Model    model.ProductType `json:"model" binding:"required,oneof=course book"`
	ObjectID uint              `json:"object_id" binding:"required"`
}

func (ctrl *ShortLinkController) shortURL(code string) string {
	return ctrl.publicURL + "/s/" + code
}

// Create returns the link of a course or book, creating it on first use
// POST /api/v1/shortlinks/create
func (ctrl *ShortLinkController) Create(c *gin.Context) {
	var req CreateShortLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	link, err := ctrl.linkService.Create(c.Request.Context(), req.Model, req.ObjectID)
	if err != nil {
		respondError(c, err, "Create short link", map[string]interface{}{
			"model":     req.Model,
			"object_id": req.ObjectID,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"code":      link.Code,
		"short_url": ctrl.shortURL(link.Code),
		"model":     link.TargetType,
		"object_id": link.TargetID,
	})
}

// Stats
// GET /api/v1/shortlinks/:code/stats
func (ctrl *ShortLinkController) Stats(c *gin.Context) {
	code := c.Param("code")

	stats, err := ctrl.linkService.Stats(c.Request.Context(), code)
	if err != nil {
		respondError(c, err, "Short link stats", map[string]interface{}{
			"code": code,
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Redirect sends the visitor to the target page; the click is counted in the
// background
// GET /s/:code
func (ctrl *ShortLinkController) Redirect(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	code := c.Param("code")

	target, err := ctrl.linkService.Resolve(c.Request.Context(), code)
	if err != nil {
		respondError(c, err, "Resolve short link", map[string]interface{}{
			"code": code,
		})
		return
	}

	log.Debug("Short link resolved", map[string]interface{}{
		"code":   code,
		"target": target,
	})

	c.Redirect(http.StatusFound, target)
}
