package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/locallibrary/internal/auth"
	"github.com/mrlokans/locallibrary/internal/catalog"
)

// LoansController serves loan listings and the renewal workflow.
type LoansController struct {
	catalog *catalog.Service
}

func NewLoansController(svc *catalog.Service) *LoansController {
	return &LoansController{catalog: svc}
}

// Mine handles GET /api/loans/mine
func (lc *LoansController) Mine(c *gin.Context) {
	page, ok := parsePage(c)
	if !ok {
		return
	}
	result, err := lc.catalog.ListLoansForUser(c.Request.Context(), auth.ActorFrom(c), page)
	if err != nil {
		respondServiceError(c, err, "page")
		return
	}
	c.JSON(http.StatusOK, result)
}

// All handles GET /api/loans
func (lc *LoansController) All(c *gin.Context) {
	page, ok := parsePage(c)
	if !ok {
		return
	}
	result, err := lc.catalog.ListAllOutstandingLoans(c.Request.Context(), auth.ActorFrom(c), page)
	if err != nil {
		respondServiceError(c, err, "page")
		return
	}
	c.JSON(http.StatusOK, result)
}

// RenewalForm handles GET /api/bookinstances/:id/renew
func (lc *LoansController) RenewalForm(c *gin.Context) {
	proposal, err := lc.catalog.RenewalProposal(c.Request.Context(), auth.ActorFrom(c), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "book instance")
		return
	}
	c.JSON(http.StatusOK, proposal)
}

// RenewRequest is the body of a renewal. Forms post renewal_date; JSON
// clients may send due_back instead.
type RenewRequest struct {
	RenewalDate string `json:"renewal_date" form:"renewal_date"`
	DueBack     string `json:"due_back" form:"due_back"`
	Version     *int   `json:"version" form:"version"`
}

// Renew handles POST /api/bookinstances/:id/renew
func (lc *LoansController) Renew(c *gin.Context) {
	var body RenewRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBind(&body); err != nil {
			respondBadRequest(c, "invalid request body")
			return
		}
	}

	dueBack := body.RenewalDate
	if dueBack == "" {
		dueBack = body.DueBack
	}

	renewed, err := lc.catalog.RenewLoan(c.Request.Context(), auth.ActorFrom(c), catalog.RenewalRequest{
		InstanceID: c.Param("id"),
		DueBack:    dueBack,
		Version:    body.Version,
	})
	if err != nil {
		respondServiceError(c, err, "book instance")
		return
	}
	c.JSON(http.StatusOK, renewed)
}
