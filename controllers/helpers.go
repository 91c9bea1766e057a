package controllers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/cppla/inkwell/middleware"
	"github.com/cppla/inkwell/models"
	"github.com/cppla/inkwell/utils"
)

const msgFillAllFields = "Fill in all fields."

// RegisterValidators installs the custom binding tags used by request structs.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected binding validator engine")
	}
	return v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return models.ValidCategory(fl.Field().String())
	})
}

// bindError turns a ShouldBind failure into a 422 with the most specific message available.
func bindError(err error, fallback string) *utils.HTTPError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			switch fe.Tag() {
			case "required":
				// a missing field is reported with the generic message
			case "category":
				return utils.ValidationError("Unsupported category. Choose one of " + strings.Join(models.Categories, ", ") + ".")
			case "email":
				return utils.ValidationError("Invalid email address.")
			case "min":
				return utils.ValidationError(fmt.Sprintf("%s should be at least %s characters.", fe.Field(), fe.Param()))
			case "max":
				return utils.ValidationError(fmt.Sprintf("%s should be at most %s characters.", fe.Field(), fe.Param()))
			}
		}
	}
	return utils.ValidationError(fallback)
}

// uploadError maps FileStore failures onto the error taxonomy.
func uploadError(err error, what string, limit int64) *utils.HTTPError {
	switch {
	case errors.Is(err, utils.ErrFileTooLarge):
		return utils.ValidationError(fmt.Sprintf("%s too big. File should be less than %s.", what, formatSize(limit)))
	case errors.Is(err, utils.ErrNotImage):
		return utils.ValidationError(what + " must be an image.")
	default:
		return utils.StorageError(err)
	}
}

func formatSize(n int64) string {
	switch {
	case n >= 1_000_000 && n%1_000_000 == 0:
		return fmt.Sprintf("%dMB", n/1_000_000)
	case n >= 1_000 && n%1_000 == 0:
		return fmt.Sprintf("%dKB", n/1_000)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}

// parseID reads a positive numeric path parameter.
func parseID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(ctx.Param(name)), 10, 0)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func callerID(ctx *gin.Context) (uint, bool) {
	return middleware.CurrentUserID(ctx)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
