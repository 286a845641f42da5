package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JSONResponse is the envelope every endpoint answers with. Code is 0 on
// success, otherwise a five digit business code whose first three digits
// mirror the HTTP status.
type JSONResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Respond writes the envelope with an explicit status. Server errors are logged
// with the request path so they can be matched against client reports.
func Respond(ctx *gin.Context, status int, code int, message string, data interface{}) {
	if status >= http.StatusInternalServerError {
		Logger.Warn("request failed",
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.FullPath()),
			zap.Int("code", code),
			zap.String("message", message),
		)
	}
	ctx.JSON(status, JSONResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusOK, 0, "success", data)
}

// Error answers without a payload.
func Error(ctx *gin.Context, status int, code int, message string) {
	Respond(ctx, status, code, message, nil)
}
