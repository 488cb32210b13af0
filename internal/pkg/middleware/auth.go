package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"gosupply/internal/domain"
	apperror "gosupply/internal/errors"
	"gosupply/internal/pkg/token"
)

// ContextKey é um tipo não exportável para evitar colisão com outras chaves do contexto.
type ContextKey int

const (
	ActorKey ContextKey = iota
)

// TokenService define o contrato de validação necessário para o middleware.
type TokenService interface {
	ValidateToken(tokenString string) (*token.CustomClaims, error)
}

// NewAuthMiddleware valida o JWT e anexa o domain.Actor (usuário, papel e filial) ao contexto.
func NewAuthMiddleware(tokenSvc TokenService) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found || tokenString == "" {
				WriteError(w, apperror.NewUnauthenticatedError("Token de autorização ausente ou malformado."))
				return
			}

			claims, err := tokenSvc.ValidateToken(tokenString)
			if err != nil {
				WriteError(w, apperror.NewUnauthenticatedError("Token inválido ou expirado."))
				return
			}

			actor := domain.Actor{
				UserID:   claims.UserID,
				Role:     domain.UserRole(claims.Role),
				BranchID: claims.BranchID,
			}
			if !actor.Role.Valid() {
				WriteError(w, apperror.NewUnauthorizedError("Papel desconhecido no token."))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		}
	}
}

// WithActor anexa o ator ao contexto.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

// ActorFromContext é uma função utilitária para extrair o ator no handler.
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(ActorKey).(domain.Actor)
	return actor, ok
}

// PermissionMiddleware restringe a rota aos papéis informados.
func PermissionMiddleware(requiredRoles ...domain.UserRole) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				WriteError(w, apperror.NewUnauthenticatedError("Autorização necessária. Token não processado."))
				return
			}

			for _, requiredRole := range requiredRoles {
				if actor.Role == requiredRole {
					next.ServeHTTP(w, r)
					return
				}
			}

			WriteError(w, apperror.NewUnauthorizedError("Acesso negado. Você não tem a permissão necessária."))
		}
	}
}

// WriteError escreve o envelope padrão de erro da API.
func WriteError(w http.ResponseWriter, err error) {
	code, category, message := apperror.MapToHTTPStatus(err)
	resp := domain.ErrorResponse{Code: code, Category: category, Message: message}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}
