package dto

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error string `json:"error" example:"invalid source_url"`
	Field string `json:"field,omitempty" example:"source_url"`
}
