package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/inkwell/utils"
)

// ErrorHandler renders the last error a handler forwarded with ctx.Error.
// It must be registered before any middleware or handler that can fail.
func ErrorHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Next()

		last := ctx.Errors.Last()
		if last == nil || ctx.Writer.Written() {
			return
		}

		render(ctx, normalize(last.Err), last.Err)
	}
}

// RecoverPanic renders a recovered panic as an unexpected error. It is the
// recovery handler for ginzap.CustomRecoveryWithZap.
func RecoverPanic(ctx *gin.Context, recovered any) {
	err := fmt.Errorf("panic: %v", recovered)
	render(ctx, utils.Unexpected(err), err)
}

// NotFoundRoute is the fallback for unmatched routes.
func NotFoundRoute(ctx *gin.Context) {
	utils.Fail(ctx, utils.NotFound("Not Found - "+ctx.Request.URL.Path))
}

func normalize(err error) *utils.HTTPError {
	var httpErr *utils.HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &utils.HTTPError{Status: http.StatusNotFound, Code: utils.CodeNotFound, Message: "Resource not found.", Err: err}
	default:
		return utils.Unexpected(err)
	}
}

func render(ctx *gin.Context, httpErr *utils.HTTPError, cause error) {
	if httpErr.Status >= 500 {
		utils.Logger.Error("request failed",
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.Request.URL.Path),
			zap.Int("status", httpErr.Status),
			zap.Error(cause),
		)
	}

	resp := utils.JSONResponse{Code: httpErr.Code, Message: httpErr.Message}
	if gin.Mode() == gin.DebugMode && httpErr.Err != nil {
		resp.Stack = fmt.Sprintf("%+v", httpErr.Err)
	}
	ctx.AbortWithStatusJSON(httpErr.Status, resp)
}
