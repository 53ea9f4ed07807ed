package auth

import (
	"net/http"
	"strings"

	restful "github.com/emicklei/go-restful/v3"
)

// Request attribute keys populated by AuthFilter.
const (
	AttributeUserID      = "user_id"
	AttributeUsername    = "username"
	AttributeAuthorities = "authorities"
)

// AuthFilter creates a go-restful FilterFunction validating bearer access
// tokens. On success the subject identity and authority list are stored as
// request attributes for downstream handlers.
func AuthFilter(issuer *TokenIssuer) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		authHeader := req.HeaderParameter("Authorization")
		if authHeader == "" {
			_ = resp.WriteHeaderAndJson(http.StatusUnauthorized, map[string]string{"message": "Authorization header required"}, restful.MIME_JSON)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			_ = resp.WriteHeaderAndJson(http.StatusUnauthorized, map[string]string{"message": "Invalid authorization header format"}, restful.MIME_JSON)
			return
		}

		claims, err := issuer.ParseAndValidate(parts[1])
		if err != nil {
			_ = resp.WriteHeaderAndJson(http.StatusUnauthorized, map[string]string{"message": err.Error()}, restful.MIME_JSON)
			return
		}

		req.SetAttribute(AttributeUserID, claims.UserID)
		req.SetAttribute(AttributeUsername, claims.Username)
		req.SetAttribute(AttributeAuthorities, claims.Authorities)

		chain.ProcessFilter(req, resp)
	}
}

// UserIDFromRequest extracts the authenticated user id set by AuthFilter.
func UserIDFromRequest(req *restful.Request) (uint, bool) {
	id, ok := req.Attribute(AttributeUserID).(uint)
	return id, ok
}
