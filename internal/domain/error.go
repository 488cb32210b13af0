package domain

// ErrorResponse é o corpo JSON devolvido pela API em qualquer falha.
// @Description Corpo de erro padronizado: status HTTP, categoria do erro e mensagem legível.
type ErrorResponse struct {
	Code     int    `json:"code" example:"400"`
	Category string `json:"category" example:"VALIDATION_ERROR"`
	Message  string `json:"message" example:"Quantidade aprovada negativa para o SKU X."`
}
