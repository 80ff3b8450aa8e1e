package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"agendo-api/internal/auth"
	"agendo-api/internal/model"
)

type ctxKey string

const (
	UserIDKey ctxKey = "uid"
	RoleKey   ctxKey = "role"
)

// gin context keys
const (
	ginUserID = "uid"
	ginRole   = "role"
)

// skip auth for these
var open = map[string]bool{
	"/agendo.v1.Scheduling/AvailableSlots": true,
	"/grpc.health.v1.Health/Check":         true,
	"/grpc.health.v1.Health/Watch":         true,
}

func bearer(h string) string {
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// Auth checks the bearer token on every gRPC method not listed as open.
func Auth(secret string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if open[info.FullMethod] {
			return next(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		raw := ""
		if vals := md.Get("authorization"); len(vals) > 0 {
			raw = bearer(vals[0])
		}
		if raw == "" {
			return nil, status.Error(codes.Unauthenticated, "no token")
		}

		claims, err := auth.ParseToken(raw, secret)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "bad token")
		}

		ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, RoleKey, claims.Role)
		return next(ctx, req)
	}
}

// FromContext returns the caller set by Auth.
func FromContext(ctx context.Context) (string, model.Role, bool) {
	uid, ok := ctx.Value(UserIDKey).(string)
	role, _ := ctx.Value(RoleKey).(model.Role)
	return uid, role, ok && uid != ""
}

// Authenticate is the HTTP counterpart of Auth.
func Authenticate(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearer(c.GetHeader("Authorization"))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		claims, err := auth.ParseToken(raw, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ginUserID, claims.UserID)
		c.Set(ginRole, claims.Role)
		c.Next()
	}
}

// RequireRole must run after Authenticate. Admins pass every gate.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := Role(c)
		if role == model.RoleAdmin {
			c.Next()
			return
		}
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	}
}

func UserID(c *gin.Context) string {
	return c.GetString(ginUserID)
}

func Role(c *gin.Context) model.Role {
	r, _ := c.Get(ginRole)
	role, _ := r.(model.Role)
	return role
}

// SetUser puts a caller on the gin context. Tests use it to skip token
// minting.
func SetUser(c *gin.Context, uid string, role model.Role) {
	c.Set(ginUserID, uid)
	c.Set(ginRole, role)
}
