package middleware

import (
	"context"
	"strings"

	"bitwise74/blog-api/security"

	"github.com/gin-gonic/gin"
)

// AuthVerdict is attached to every request context once the auth
// middleware has run. The zero value means "not authenticated"
type AuthVerdict struct {
	IsAuth bool
	UserID string
}

type verdictKey struct{}

func WithVerdict(ctx context.Context, v AuthVerdict) context.Context {
	return context.WithValue(ctx, verdictKey{}, v)
}

// VerdictFrom returns the verdict set by the auth middleware. A missing
// verdict reads as unauthenticated
func VerdictFrom(ctx context.Context) AuthVerdict {
	v, _ := ctx.Value(verdictKey{}).(AuthVerdict)
	return v
}

// NewAuthMiddleware verifies the Authorization bearer token if one is
// present. It never aborts the request: a missing, malformed or expired
// token just yields an unauthenticated verdict, resolvers decide what
// that means for each operation
func NewAuthMiddleware(codec *security.TokenCodec) gin.HandlerFunc {
	return func(c *gin.Context) {
		verdict := AuthVerdict{}

		header := c.GetHeader("Authorization")
		if header != "" {
			parts := strings.SplitN(header, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				if claims, err := codec.Verify(parts[1]); err == nil {
					verdict = AuthVerdict{
						IsAuth: true,
						UserID: claims.UserID,
					}
				}
			}
		}

		if verdict.IsAuth {
			c.Set("userID", verdict.UserID)
		}

		c.Request = c.Request.WithContext(WithVerdict(c.Request.Context(), verdict))
		c.Next()
	}
}
