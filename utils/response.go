// File: /utils/response.go
package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// FieldError is a structured field-level validation error.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrorResponse struct {
	Error  string       `json:"error"`
	Code   int          `json:"code"`
	Fields []FieldError `json:"fields"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func SendError(c *gin.Context, status int, err string) {
	c.JSON(status, ErrorResponse{
		Error: err,
		Code:  status,
	})
}

// SendFieldErrors reports validation failures before any computation begins.
func SendFieldErrors(c *gin.Context, fields ...FieldError) {
	c.JSON(http.StatusBadRequest, ValidationErrorResponse{
		Error:  "Validation failed",
		Code:   http.StatusBadRequest,
		Fields: fields,
	})
}

func SendSuccess(c *gin.Context, message string, data interface{}) {
	response := SuccessResponse{
		Message: message,
	}
	if data != nil {
		response.Data = data
	}
	c.JSON(http.StatusOK, response)
}

func SendCreated(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, SuccessResponse{
		Message: message,
		Data:    data,
	})
}
