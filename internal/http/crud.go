package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/locallibrary/internal/auth"
	"github.com/mrlokans/locallibrary/internal/catalog"
)

// CRUDController exposes create, update and delete for one entity type.
type CRUDController struct {
	catalog *catalog.Service
	entity  catalog.EntityType
}

func NewCRUDController(svc *catalog.Service, entity catalog.EntityType) *CRUDController {
	return &CRUDController{catalog: svc, entity: entity}
}

// Register mounts POST /, PATCH /:id and DELETE /:id on group.
func (cc *CRUDController) Register(group *gin.RouterGroup) {
	group.POST("", cc.Create)
	group.PATCH("/:id", cc.Update)
	group.PUT("/:id", cc.Update)
	group.DELETE("/:id", cc.Delete)
}

func (cc *CRUDController) resource() string {
	if cc.entity == catalog.EntityBookInstance {
		return "book instance"
	}
	return string(cc.entity)
}

// bindFields decodes a JSON object or a form into raw field values. Form
// values repeated under one key become a list.
func bindFields(c *gin.Context) (catalog.Fields, bool) {
	fields := catalog.Fields{}
	if strings.HasPrefix(c.ContentType(), "application/json") || c.ContentType() == "" {
		if c.Request.ContentLength == 0 {
			return fields, true
		}
		if err := json.NewDecoder(c.Request.Body).Decode(&fields); err != nil {
			respondBadRequest(c, "request body must be a JSON object")
			return nil, false
		}
		return fields, true
	}

	if err := c.Request.ParseForm(); err != nil {
		respondBadRequest(c, "invalid form body")
		return nil, false
	}
	for key, values := range c.Request.PostForm {
		switch len(values) {
		case 0:
		case 1:
			fields[key] = values[0]
		default:
			list := make([]any, len(values))
			for i, v := range values {
				list[i] = v
			}
			fields[key] = list
		}
	}
	return fields, true
}

// Create handles POST /api/<entities>
func (cc *CRUDController) Create(c *gin.Context) {
	fields, ok := bindFields(c)
	if !ok {
		return
	}
	record, err := cc.catalog.Create(c.Request.Context(), auth.ActorFrom(c), cc.entity, fields)
	if err != nil {
		respondServiceError(c, err, cc.resource())
		return
	}
	respondCreated(c, record)
}

// Update handles PATCH /api/<entities>/:id
func (cc *CRUDController) Update(c *gin.Context) {
	fields, ok := bindFields(c)
	if !ok {
		return
	}
	record, err := cc.catalog.Update(c.Request.Context(), auth.ActorFrom(c), cc.entity, c.Param("id"), fields)
	if err != nil {
		respondServiceError(c, err, cc.resource())
		return
	}
	c.JSON(http.StatusOK, record)
}

// Delete handles DELETE /api/<entities>/:id
func (cc *CRUDController) Delete(c *gin.Context) {
	if err := cc.catalog.Delete(c.Request.Context(), auth.ActorFrom(c), cc.entity, c.Param("id")); err != nil {
		respondServiceError(c, err, cc.resource())
		return
	}
	c.Status(http.StatusNoContent)
}
