package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MioNatsuki/sistema-emision/internal/apierror"
	"github.com/MioNatsuki/sistema-emision/internal/model"
)

const (
	UsuarioKey = "usuario"
)

// Authorizer resolves a bearer token to the user it belongs to.
type Authorizer interface {
	Autorizar(ctx context.Context, rawToken string) (*model.Usuario, error)
}

// JWTAuth validates the Bearer token on every protected route and stores the
// authorized user in the context.
func JWTAuth(auth Authorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Autenticacion requerida"))
			return
		}

		usuario, err := auth.Autorizar(c.Request.Context(), strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")))
		if err != nil {
			if e, ok := apierror.As(err); ok {
				status := apierror.HTTPStatus(e.Kind)
				if status == http.StatusUnauthorized {
					c.Header("WWW-Authenticate", "Bearer")
				}
				c.AbortWithStatusJSON(status, apierror.Body(e))
				return
			}
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(UsuarioKey, usuario)
		c.Next()
	}
}

// GetUsuario returns the user stored by JWTAuth, or nil on public routes.
func GetUsuario(c *gin.Context) *model.Usuario {
	v, ok := c.Get(UsuarioKey)
	if !ok {
		return nil
	}
	u, _ := v.(*model.Usuario)
	return u
}
