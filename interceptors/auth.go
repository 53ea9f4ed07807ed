package interceptors

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"bizcore/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// UserIDKey is the context key for the authenticated user id.
	UserIDKey contextKey = "user_id"
	// UsernameKey is the context key for the username.
	UsernameKey contextKey = "username"
	// AuthoritiesKey is the context key for the authority-name list.
	AuthoritiesKey contextKey = "authorities"
)

// AuthInterceptor returns a unary server interceptor validating bearer access
// tokens from request metadata. The verified identity and authority list are
// injected into the handler context; the principal is always passed on
// explicitly from there, never read back out of ambient state by the core
// packages.
func AuthInterceptor(issuer *auth.TokenIssuer, publicMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if publicMethods[info.FullMethod] {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "metadata is not provided")
		}

		values := md.Get("authorization")
		if len(values) == 0 {
			return nil, status.Error(codes.Unauthenticated, "authorization token is not provided")
		}

		parts := strings.Split(values[0], " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return nil, status.Error(codes.Unauthenticated, "invalid authorization header format")
		}

		claims, err := issuer.ParseAndValidate(parts[1])
		if err != nil {
			return nil, status.Errorf(codes.Unauthenticated, "invalid token: %v", err)
		}

		newCtx := context.WithValue(ctx, UserIDKey, claims.UserID)
		newCtx = context.WithValue(newCtx, UsernameKey, claims.Username)
		newCtx = context.WithValue(newCtx, AuthoritiesKey, claims.Authorities)
		return handler(newCtx, req)
	}
}

// GetUserIDFromContext extracts the authenticated user id from the context.
func GetUserIDFromContext(ctx context.Context) (uint, bool) {
	userID, ok := ctx.Value(UserIDKey).(uint)
	return userID, ok
}

// GetUsernameFromContext extracts the username from the context.
func GetUsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(UsernameKey).(string)
	return username, ok
}

// GetAuthoritiesFromContext extracts the authority names from the context.
func GetAuthoritiesFromContext(ctx context.Context) ([]string, bool) {
	authorities, ok := ctx.Value(AuthoritiesKey).([]string)
	return authorities, ok
}
