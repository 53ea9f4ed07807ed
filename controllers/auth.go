package controllers

import (
	"errors"
	"net/http"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"

	"bizcore/auth"
	"bizcore/services"
)

// AuthController exposes login, refresh and logout over HTTP.
type AuthController struct {
	authService services.AuthService
	issuer      *auth.TokenIssuer
}

// NewAuthController creates an AuthController instance.
func NewAuthController(authService services.AuthService, issuer *auth.TokenIssuer) *AuthController {
	return &AuthController{authService: authService, issuer: issuer}
}

type RefreshInput struct {
	RefreshToken string `json:"refresh_token" description:"Refresh token obtained at login or previous rotation"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// RegisterRoutes sets up the auth routes on a go-restful WebService.
func (ctl *AuthController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/auth").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)

	ws.Route(ws.POST("/login").To(ctl.loginHandler).
		Doc("Authenticate with username and password").
		Metadata(restfulspec.KeyOpenAPITags, []string{"auth"}).
		Reads(services.LoginInput{}).
		Returns(http.StatusOK, "Authenticated", services.TokenPair{}).
		Returns(http.StatusUnauthorized, "Invalid credentials", MessageResponse{}).
		Returns(http.StatusForbidden, "Account disabled or locked", MessageResponse{}))

	ws.Route(ws.POST("/refresh").To(ctl.refreshHandler).
		Doc("Rotate a refresh token for a new token pair").
		Metadata(restfulspec.KeyOpenAPITags, []string{"auth"}).
		Reads(RefreshInput{}).
		Returns(http.StatusOK, "Rotated", services.TokenPair{}).
		Returns(http.StatusUnauthorized, "Token invalid, expired or revoked", MessageResponse{}))

	ws.Route(ws.POST("/logout").Filter(auth.AuthFilter(ctl.issuer)).To(ctl.logoutHandler).
		Doc("Revoke all refresh tokens of the authenticated user").
		Metadata(restfulspec.KeyOpenAPITags, []string{"auth"}).
		Returns(http.StatusOK, "Logged out", MessageResponse{}).
		Returns(http.StatusUnauthorized, "Unauthorized", MessageResponse{}))
}

func (ctl *AuthController) loginHandler(request *restful.Request, response *restful.Response) {
	input := new(services.LoginInput)
	if err := request.ReadEntity(input); err != nil {
		_ = response.WriteHeaderAndJson(http.StatusBadRequest, MessageResponse{Message: "Invalid request body"}, restful.MIME_JSON)
		return
	}
	if input.Username == "" || input.Password == "" {
		_ = response.WriteHeaderAndJson(http.StatusBadRequest, MessageResponse{Message: "Username and password are required"}, restful.MIME_JSON)
		return
	}

	pair, err := ctl.authService.Authenticate(input)
	if err != nil {
		writeAuthError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, pair, restful.MIME_JSON)
}

func (ctl *AuthController) refreshHandler(request *restful.Request, response *restful.Response) {
	input := new(RefreshInput)
	if err := request.ReadEntity(input); err != nil || input.RefreshToken == "" {
		_ = response.WriteHeaderAndJson(http.StatusBadRequest, MessageResponse{Message: "refresh_token is required"}, restful.MIME_JSON)
		return
	}

	pair, err := ctl.authService.Refresh(input.RefreshToken)
	if err != nil {
		writeAuthError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, pair, restful.MIME_JSON)
}

func (ctl *AuthController) logoutHandler(request *restful.Request, response *restful.Response) {
	userID, ok := auth.UserIDFromRequest(request)
	if !ok {
		_ = response.WriteHeaderAndJson(http.StatusUnauthorized, MessageResponse{Message: "Unauthorized"}, restful.MIME_JSON)
		return
	}
	if err := ctl.authService.Logout(userID); err != nil {
		writeAuthError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, MessageResponse{Message: "Logged out"}, restful.MIME_JSON)
}

// writeAuthError maps the subsystem error taxonomy onto HTTP statuses.
func writeAuthError(response *restful.Response, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, auth.ErrAuthenticationFailed),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrTokenRevoked),
		errors.Is(err, auth.ErrTokenNotFound):
		status = http.StatusUnauthorized
		message = "Invalid credentials"
	case errors.Is(err, auth.ErrAccountDisabled):
		status = http.StatusForbidden
		message = "Account disabled"
	case errors.Is(err, auth.ErrAccountLocked):
		status = http.StatusForbidden
		message = "Account locked"
	case errors.Is(err, auth.ErrAccessDenied):
		status = http.StatusForbidden
		message = "Forbidden"
	case errors.Is(err, auth.ErrResourceNotFound):
		status = http.StatusNotFound
		message = "Resource not found"
	}

	_ = response.WriteHeaderAndJson(status, MessageResponse{Message: message}, restful.MIME_JSON)
}
