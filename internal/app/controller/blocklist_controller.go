package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/campus-backend/internal/app/service"
	apperrors "github.com/ikkim/campus-backend/internal/errors"
	"github.com/ikkim/campus-backend/internal/middleware"
)

type BlocklistController struct {
	blocklistService service.BlocklistService
}

func NewBlocklistController(blocklistService service.BlocklistService) *BlocklistController {
	return &BlocklistController{
		blocklistService: blocklistService,
	}
}

type BlockIPRequest struct {
	IPAddr string `json:"ip_addr" binding:"required"`
	Reason string `json:"reason" binding:"max=255"`
}

// ListBlocked
// GET /api/v1/management/blocklist
func (ctrl *BlocklistController) ListBlocked(c *gin.Context) {
	entries, err := ctrl.blocklistService.List()
	if err != nil {
		respondError(c, err, "List blocklist", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"blocklist": entries,
		"count":     len(entries),
	})
}

// BlockIP
// POST /api/v1/management/blocklist
func (ctrl *BlocklistController) BlockIP(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req BlockIPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindingError(c, err)
		return
	}

	entry, err := ctrl.blocklistService.Create(c.Request.Context(), actor, req.IPAddr, req.Reason)
	if err != nil {
		respondError(c, err, "Block IP", map[string]interface{}{
			"ip_addr": req.IPAddr,
		})
		return
	}

	log.Info("IP blocked", map[string]interface{}{
		"ip_addr":  entry.IPAddr,
		"staff_id": actor.UserID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"entry": entry,
	})
}

// UnblockIP
// DELETE /api/v1/management/blocklist/:id
func (ctrl *BlocklistController) UnblockIP(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := ctrl.blocklistService.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err, "Unblock IP", map[string]interface{}{
			"entry_id": id,
		})
		return
	}

	c.Status(http.StatusNoContent)
}
