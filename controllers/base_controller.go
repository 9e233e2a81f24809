package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	authutils "travelink-backend/lib/utils/auth-utils"
	apimodels "travelink-backend/models/api"
	"travelink-backend/models/apperrors"
)

type BaseAPIController struct{}

func (c *BaseAPIController) BodyParser(ctx *fiber.Ctx, out interface{}) error {
	if err := ctx.BodyParser(out); err != nil {
		log.WithError(err).Error("failed to parse request body")
		return errors.New("failed to parse request body")
	}
	return nil
}

func (c *BaseAPIController) GetID(ctx *fiber.Ctx) (string, error) {
	return c.GetIDByKey(ctx, "id")
}

func (c *BaseAPIController) GetIDByKey(ctx *fiber.Ctx, key string) (string, error) {
	id := ctx.Params(key)
	if id == "" {
		return "", errors.Errorf("parameter %q is required", key)
	}
	return id, nil
}

func (c *BaseAPIController) GetLogger(ctx *fiber.Ctx) *log.Entry {
	return log.
		WithField("user_id", authutils.GetUserID(ctx)).
		WithField("path", ctx.Path())
}

// SendError maps the error taxonomy to HTTP statuses and logs server-side
// failures.
func (c *BaseAPIController) SendError(ctx *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case apperrors.IsValidation(err):
		status = fiber.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, apperrors.ErrConflict):
		status = fiber.StatusConflict
	case errors.Is(err, apperrors.ErrInvalidTransition):
		status = fiber.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrInviteExpired):
		status = fiber.StatusGone
	case errors.Is(err, apperrors.ErrInviteDeclined):
		status = fiber.StatusConflict
	default:
		c.GetLogger(ctx).WithError(err).Error("request failed")
	}
	return ctx.Status(status).JSON(apimodels.NewError(err.Error()))
}
