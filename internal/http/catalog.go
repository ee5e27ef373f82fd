package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/locallibrary/internal/auth"
	"github.com/mrlokans/locallibrary/internal/catalog"
)

// CatalogController serves the read side of the catalog.
type CatalogController struct {
	catalog  *catalog.Service
	sessions *auth.SessionManager
}

func NewCatalogController(svc *catalog.Service, sessions *auth.SessionManager) *CatalogController {
	return &CatalogController{catalog: svc, sessions: sessions}
}

// SummaryResponse is the home page summary plus the caller's visit count.
type SummaryResponse struct {
	*catalog.Summary
	Visits int `json:"num_visits"`
}

// Summary handles GET /api/summary
func (cc *CatalogController) Summary(c *gin.Context) {
	summary, err := cc.catalog.Summary(c.Request.Context(), auth.ActorFrom(c))
	if err != nil {
		respondServiceError(c, err, "summary")
		return
	}

	resp := SummaryResponse{Summary: summary}
	if cc.sessions != nil {
		resp.Visits = cc.sessions.RecordVisit(c.Request)
	}
	c.JSON(http.StatusOK, resp)
}

// Count handles GET /api/counts/:entity
//
// ?title_contains= narrows book counts to a case-insensitive title match and
// ?status= narrows copy counts to one loan status.
func (cc *CatalogController) Count(c *gin.Context) {
	entity, err := catalog.ParseEntityType(c.Param("entity"))
	if err != nil {
		respondNotFound(c, "entity")
		return
	}

	ctx, actor := c.Request.Context(), auth.ActorFrom(c)
	var count int64
	switch {
	case entity == catalog.EntityBook && c.Query("title_contains") != "":
		count, err = cc.catalog.CountBooksWithTitleContaining(ctx, actor, c.Query("title_contains"))
	case entity == catalog.EntityBookInstance && c.Query("status") != "":
		count, err = cc.catalog.CountInstancesByStatus(ctx, actor, c.Query("status"))
	default:
		count, err = cc.catalog.CountAll(ctx, actor, entity)
	}
	if err != nil {
		respondServiceError(c, err, string(entity))
		return
	}

	c.JSON(http.StatusOK, gin.H{"entity": entity, "count": count})
}

// ListBooks handles GET /api/books
func (cc *CatalogController) ListBooks(c *gin.Context) {
	page, ok := parsePage(c)
	if !ok {
		return
	}
	result, err := cc.catalog.ListBooks(c.Request.Context(), auth.ActorFrom(c), page)
	if err != nil {
		respondServiceError(c, err, "page")
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListAuthors handles GET /api/authors
//
// ?with_counts=true adds the number of books per author.
func (cc *CatalogController) ListAuthors(c *gin.Context) {
	page, ok := parsePage(c)
	if !ok {
		return
	}
	ctx, actor := c.Request.Context(), auth.ActorFrom(c)

	if withCounts, _ := strconv.ParseBool(c.Query("with_counts")); withCounts {
		result, err := cc.catalog.ListAuthorsWithBookCounts(ctx, actor, page)
		if err != nil {
			respondServiceError(c, err, "page")
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	result, err := cc.catalog.ListAuthors(ctx, actor, page)
	if err != nil {
		respondServiceError(c, err, "page")
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListGenres handles GET /api/genres
func (cc *CatalogController) ListGenres(c *gin.Context) {
	page, ok := parsePage(c)
	if !ok {
		return
	}
	result, err := cc.catalog.ListGenres(c.Request.Context(), auth.ActorFrom(c), page)
	if err != nil {
		respondServiceError(c, err, "page")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetBook handles GET /api/books/:id
func (cc *CatalogController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "book")
	if !ok {
		return
	}
	book, err := cc.catalog.GetBook(c.Request.Context(), auth.ActorFrom(c), id)
	if err != nil {
		respondServiceError(c, err, "book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// GetAuthor handles GET /api/authors/:id
func (cc *CatalogController) GetAuthor(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "author")
	if !ok {
		return
	}
	author, err := cc.catalog.GetAuthor(c.Request.Context(), auth.ActorFrom(c), id)
	if err != nil {
		respondServiceError(c, err, "author")
		return
	}
	c.JSON(http.StatusOK, author)
}
