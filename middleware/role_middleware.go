package middleware

import (
	"github.com/gofiber/fiber/v2"

	authutils "travelink-backend/lib/utils/auth-utils"
	"travelink-backend/models"
	apimodels "travelink-backend/models/api"
)

func AdminRoleRequired() fiber.Handler {
	return func(ctx *fiber.Ctx) (err error) {
		role := authutils.GetUserRole(ctx)
		if role != models.UserRoleAdmin && role != models.UserRoleSuperUser {
			return ctx.Status(fiber.StatusForbidden).JSON(apimodels.NewError("operation not allowed"))
		}
		return ctx.Next()
	}
}

func SuperAdminRoleRequired() fiber.Handler {
	return func(ctx *fiber.Ctx) (err error) {
		if authutils.GetUserRole(ctx) != models.UserRoleSuperUser {
			return ctx.Status(fiber.StatusForbidden).JSON(apimodels.NewError("operation not allowed"))
		}
		return ctx.Next()
	}
}
