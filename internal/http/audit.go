package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/locallibrary/internal/audit"
	"github.com/mrlokans/locallibrary/internal/catalog"
	"github.com/mrlokans/locallibrary/internal/entities"
)

const (
	defaultAuditLimit = 25
	maxAuditLimit     = 100
)

type AuditController struct {
	auditService *audit.Service
}

func NewAuditController(auditService *audit.Service) *AuditController {
	return &AuditController{
		auditService: auditService,
	}
}

// GetAuditEvents returns paginated audit events as JSON
// GET /api/audit?type=&user_id=&page=&limit=
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	page, ok := parsePage(c)
	if !ok {
		return
	}
	if page < 1 {
		page = 1
	}
	limit := parseLimit(c, defaultAuditLimit, maxAuditLimit)

	var userID uint
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			respondBadRequest(c, "user_id must be a positive integer")
			return
		}
		userID = uint(id)
	}

	eventType := entities.AuditEventType(c.Query("type"))
	events, total, err := ac.auditService.GetEvents(userID, eventType, limit, (page-1)*limit)
	if err != nil {
		respondInternalError(c, err, "load audit events")
		return
	}

	totalPages := (int(total) + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	c.JSON(http.StatusOK, gin.H{
		"events":       events,
		"page":         page,
		"limit":        limit,
		"total_pages":  totalPages,
		"total_events": total,
	})
}

// GetEntityHistory returns every event recorded against one catalog record.
// GET /api/audit/:entity/:id
func (ac *AuditController) GetEntityHistory(c *gin.Context) {
	entity, err := catalog.ParseEntityType(c.Param("entity"))
	if err != nil {
		respondNotFound(c, "entity type")
		return
	}

	events, err := ac.auditService.GetEntityHistory(string(entity), c.Param("id"))
	if err != nil {
		respondInternalError(c, err, "load entity history")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entity_type": entity,
		"entity_id":   c.Param("id"),
		"events":      events,
	})
}
