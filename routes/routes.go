package routes

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ehrm-server/models"
	"ehrm-server/services"
	"ehrm-server/types"
)

// ApprovalService is the slice of the approval engine the HTTP layer uses.
// *services.ApprovalEngine satisfies it; tests substitute a stub.
type ApprovalService interface {
	Create(ctx context.Context, requesterID uint, category models.ApprovalCategory, keterangan string, chain []models.ChainStep, attach services.AttachFunc) (*models.ApprovalRequest, error)
	Decide(ctx context.Context, requestID uint, actor services.Actor, decision models.ApprovalStatus, note string) (*models.ApprovalRequest, error)
	Cancel(ctx context.Context, requestID uint, actor services.Actor) error
}

var (
	approvalEngine      ApprovalService
	notificationService *services.NotificationService
)

// Init wires the shared services into the route handlers. Must be called
// before registering routes.
func Init(engine ApprovalService, notifier *services.NotificationService) {
	approvalEngine = engine
	notificationService = notifier
}

// respondError maps a domain error onto the HTTP response envelope.
func respondError(c *gin.Context, err error) {
	status := types.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("❌ %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// parseIDParam reads a positive integer path parameter.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// currentActor builds the approval actor from the authenticated user.
func currentActor(c *gin.Context) (services.Actor, bool) {
	value, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthenticated"})
		return services.Actor{}, false
	}
	user, ok := value.(models.User)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthenticated"})
		return services.Actor{}, false
	}
	return services.Actor{UserID: user.ID, Role: user.Role}, true
}

// paginationParams reads page/limit query values with sane bounds.
func paginationParams(c *gin.Context) (offset, limit int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}
	return (page - 1) * limit, limit
}
