package middleware

import (
	"context"
	"net/http"

	"gotramite/internal/domain"
	apperror "gotramite/internal/errors"
	"gotramite/internal/pkg/token"
)

// ContextKey es la clave usada para almacenar las claims del usuario en el
// contexto. Usamos un tipo propio para garantizar que no haya colisión con
// otras claves string.
type ContextKey int

const (
	UserClaimsKey ContextKey = iota
)

// TokenService define el contrato de validación necesario para el middleware.
type TokenService interface {
	ValidateToken(tokenString string) (*token.CustomClaims, error)
}

// NewAuthMiddleware crea una función de middleware que valida un JWT y anexa
// el Actor (UserID, Role, OficinaID) al contexto de la request.
func NewAuthMiddleware(tokenSvc TokenService) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {

			// 1. Extraer el Token del header Authorization: Bearer <token>
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || len(authHeader) < 7 || authHeader[:7] != "Bearer " {
				http.Error(w, apperror.NewUnauthorizedError("Token de autorización ausente o malformado.").Error(), http.StatusUnauthorized)
				return
			}

			tokenString := authHeader[7:]

			// 2. Validar el Token
			claims, err := tokenSvc.ValidateToken(tokenString)
			if err != nil {
				http.Error(w, apperror.NewUnauthorizedError("Token inválido o expirado.").Error(), http.StatusUnauthorized)
				return
			}

			// 3. Anexar el Actor al Contexto
			actor := domain.Actor{
				UserID:    claims.UserID,
				Role:      domain.UserRole(claims.Role),
				OficinaID: claims.OficinaID,
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, actor)

			next.ServeHTTP(w, r.WithContext(ctx))
		}
	}
}

// GetActorFromContext es una función utilitaria para extraer el actor en el handler.
func GetActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(UserClaimsKey).(domain.Actor)
	return actor, ok
}

// PermissionMiddleware restringe el acceso a los roles indicados.
func PermissionMiddleware(requiredRoles ...domain.UserRole) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {

			claims, ok := GetActorFromContext(r.Context())
			if !ok {
				http.Error(w, apperror.NewUnauthorizedError("Autorización necesaria. Token no procesado.").Error(), http.StatusUnauthorized)
				return
			}

			isAuthorized := false
			for _, requiredRole := range requiredRoles {
				if claims.Role == requiredRole {
					isAuthorized = true
					break
				}
			}

			if !isAuthorized {
				http.Error(w, apperror.NewForbiddenError("No tiene el rol necesario para este recurso.").Error(), http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		}
	}
}
