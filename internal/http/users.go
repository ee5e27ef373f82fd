package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/locallibrary/internal/auth"
)

// ProfileController reports who the caller is.
type ProfileController struct {
	authService *auth.Service
}

func NewProfileController(authService *auth.Service) *ProfileController {
	return &ProfileController{
		authService: authService,
	}
}

// Me handles GET /api/me.
func (pc *ProfileController) Me(c *gin.Context) {
	actor := auth.ActorFrom(c)
	if actor == nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required", Code: "unauthenticated"})
		return
	}

	// The operator in none mode has no stored row.
	if auth.GetAuthType(c) == auth.AuthTypeNone || pc.authService == nil {
		c.JSON(http.StatusOK, gin.H{
			"user":      auth.UserView{ID: actor.UserID, Username: actor.Username, Permissions: actor.Permissions},
			"auth_type": auth.GetAuthType(c),
		})
		return
	}

	user, err := pc.authService.GetUserByID(actor.UserID)
	if err != nil {
		respondInternalError(c, err, "load current user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":      auth.NewUserView(user),
		"auth_type": auth.GetAuthType(c),
	})
}

// CSRFToken handles GET /api/csrf. The token is empty when CSRF protection
// is off for the current auth mode.
func (pc *ProfileController) CSRFToken(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"token":  auth.GetCSRFToken(c),
		"header": auth.CSRFTokenHeader,
	})
}
