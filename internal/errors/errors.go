package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError é a interface central para todos os erros customizados do GoSupply.
// Ela permite que o código externo (Handler) acesse a Categoria e a Mensagem do erro.
type AppError interface {
	Error() string    // Implementa a interface error padrão do Go
	Category() string // Categoria do erro (e.g., "VALIDATION_ERROR", "NOT_FOUND", "INVALID_STATE")
	HTTPStatus() int  // Código HTTP sugerido para o Handler
	Unwrap() error    // Permite encapsular erros subjacentes (original error)
}

// --- Tipos de Erro Específicos (Erros de Domínio) ---

// ValidationError representa falhas de validação de dados de entrada.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string    { return fmt.Sprintf("Erro de Validação: %s", e.Msg) }
func (e *ValidationError) Category() string { return "VALIDATION_ERROR" }
func (e *ValidationError) HTTPStatus() int  { return http.StatusBadRequest } // 400
func (e *ValidationError) Unwrap() error    { return nil }

// NewValidationError cria um novo erro de validação.
func NewValidationError(msg string) AppError {
	return &ValidationError{Msg: msg}
}

// UnauthorizedError representa um ator sem o papel ou a filial exigidos.
// Missing indica ausência de credenciais (401); caso contrário é acesso negado (403).
type UnauthorizedError struct {
	Msg     string
	Missing bool
}

func (e *UnauthorizedError) Error() string    { return fmt.Sprintf("Não autorizado: %s", e.Msg) }
func (e *UnauthorizedError) Category() string { return "UNAUTHORIZED" }
func (e *UnauthorizedError) HTTPStatus() int {
	if e.Missing {
		return http.StatusUnauthorized // 401
	}
	return http.StatusForbidden // 403
}
func (e *UnauthorizedError) Unwrap() error { return nil }

// NewUnauthorizedError cria um erro de permissão (papel ou filial incorretos).
func NewUnauthorizedError(msg string) AppError {
	return &UnauthorizedError{Msg: msg}
}

// NewUnauthenticatedError cria um erro para token ausente ou inválido.
func NewUnauthenticatedError(msg string) AppError {
	return &UnauthorizedError{Msg: msg, Missing: true}
}

// NotFoundError representa a ausência de um recurso solicitado.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string    { return fmt.Sprintf("Recurso não encontrado: %s", e.Msg) }
func (e *NotFoundError) Category() string { return "NOT_FOUND" }
func (e *NotFoundError) HTTPStatus() int  { return http.StatusNotFound } // 404
func (e *NotFoundError) Unwrap() error    { return nil }

// NewNotFoundError cria um novo erro de recurso não encontrado.
func NewNotFoundError(msg string) AppError {
	return &NotFoundError{Msg: msg}
}

// InvalidStateError representa uma operação inválida para o status atual do pedido.
type InvalidStateError struct {
	Operation string
	Required  string
	Actual    string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("Estado inválido: %s exige o status %s, status atual %s", e.Operation, e.Required, e.Actual)
}
func (e *InvalidStateError) Category() string { return "INVALID_STATE" }
func (e *InvalidStateError) HTTPStatus() int  { return http.StatusConflict } // 409
func (e *InvalidStateError) Unwrap() error    { return nil }

// NewInvalidStateError cria um erro de transição inválida com o status exigido e o atual.
func NewInvalidStateError(operation, required, actual string) AppError {
	return &InvalidStateError{Operation: operation, Required: required, Actual: actual}
}

// ConflictError representa um conflito na regra de negócio (e.g., OCC, recurso duplicado).
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string    { return fmt.Sprintf("Conflito de estado: %s", e.Msg) }
func (e *ConflictError) Category() string { return "CONFLICT" }
func (e *ConflictError) HTTPStatus() int  { return http.StatusConflict } // 409
func (e *ConflictError) Unwrap() error    { return nil }

// NewConflictError cria um novo erro de conflito (usado em OCC).
func NewConflictError(msg string) AppError {
	return &ConflictError{Msg: msg}
}

// --- Tipos de Erro de Infraestrutura (Encapsulamento) ---

// UpstreamError representa falhas em colaboradores externos (e.g., catálogo de preços).
type UpstreamError struct {
	Msg string
	Err error
}

func (e *UpstreamError) Error() string    { return fmt.Sprintf("Falha em serviço externo: %s", e.Msg) }
func (e *UpstreamError) Category() string { return "UPSTREAM_ERROR" }
func (e *UpstreamError) HTTPStatus() int  { return http.StatusBadGateway } // 502
func (e *UpstreamError) Unwrap() error    { return e.Err }

// NewUpstreamError cria um erro de colaborador externo encapsulando a causa.
func NewUpstreamError(msg string, err error) AppError {
	return &UpstreamError{Msg: msg, Err: err}
}

// InternalError representa falhas inesperadas no servidor, serviço ou repositório.
type InternalError struct {
	Msg string
	Err error // Erro original subjacente (e.g., erro do driver SQL)
}

func (e *InternalError) Error() string    { return fmt.Sprintf("Erro Interno: %s", e.Msg) }
func (e *InternalError) Category() string { return "INTERNAL_ERROR" }
func (e *InternalError) HTTPStatus() int  { return http.StatusInternalServerError } // 500
func (e *InternalError) Unwrap() error    { return e.Err }

// NewInternalError cria um erro de servidor (para falhas de lógica ou código não esperado).
func NewInternalError(msg string, err error) AppError {
	return &InternalError{Msg: msg, Err: err}
}

// NewDBError é um atalho para criar um InternalError específico de falhas no DB.
func NewDBError(msg string, err error) AppError {
	return NewInternalError(fmt.Sprintf("%s (DB): %s", msg, err.Error()), err)
}

// --- Helper para o Handler (Tradução Final) ---

// MapToHTTPStatus recebe um erro e o traduz para o código HTTP e corpo de resposta.
func MapToHTTPStatus(err error) (int, string, string) {
	var appErr AppError
	if stderrors.As(err, &appErr) {
		return appErr.HTTPStatus(), appErr.Category(), appErr.Error()
	}

	// Erro não tipado: tratado como erro interno genérico.
	return http.StatusInternalServerError, "UNKNOWN_ERROR", "Ocorreu um erro inesperado."
}

// Is* são atalhos usados pelos serviços para classificar erros encapsulados.

func IsNotFound(err error) bool {
	var target *NotFoundError
	return stderrors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return stderrors.As(err, &target)
}

func IsInvalidState(err error) bool {
	var target *InvalidStateError
	return stderrors.As(err, &target)
}
