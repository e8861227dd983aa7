package utils

import (
	"errors"

	"github.com/gin-gonic/gin"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Kind    ErrorKind   `json:"kind,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, err error) {
	kind := KindFromStatus(code)
	var appErr *AppError
	if errors.As(err, &appErr) {
		kind = appErr.Kind
	}
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
		Kind:    kind,
	})
}

// RespondAppError picks the status code from the error kind.
func RespondAppError(c *gin.Context, err error) {
	kind := KindOf(err)
	code := HTTPStatus(kind)
	if code >= 500 && ErrorLogger != nil {
		ErrorLogger.WithField("path", c.Request.URL.Path).Errorf("request failed: %v", err)
	}
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
		Kind:    kind,
	})
}
