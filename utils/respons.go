package utils

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-pos/apperrors"
)

type JSONResponse struct {
	Status    bool        `json:"status"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	ErrorCode string      `json:"error_code,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
	})
}

// RespondAppError derives the status code and error code from a service
// error. Internal causes are logged, not sent to the client.
func RespondAppError(c *gin.Context, err error) {
	code := apperrors.HTTPStatus(err)
	message := err.Error()
	if code >= 500 {
		ErrorLogger.WithField("path", c.FullPath()).Errorf("request failed: %v", err)
		message = "internal server error"
	}
	c.JSON(code, JSONResponse{
		Status:    false,
		Message:   message,
		ErrorCode: apperrors.Code(err),
		Details:   apperrors.Details(err),
	})
}
