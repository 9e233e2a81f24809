package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"travelink-backend/controllers"
	"travelink-backend/lib/notification"
	authutils "travelink-backend/lib/utils/auth-utils"
	apimodels "travelink-backend/models/api"
)

type notificationApiController struct {
	controllers.BaseAPIController
}

func InitNotificationApiRouters(app *fiber.App) {
	controller := notificationApiController{}
	app.Route("notifications", func(router fiber.Router) {
		router.Get("", controller.list)
		router.Put(":id/read", controller.markRead)
		router.Put("read-all", controller.markAllRead)
	})
}

// @Summary Notification list
// @Tags Notifications
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	unread_only			query 	bool	false	"only unread notifications"
// @Param	page				query 	int		false	"page number"
// @Param	limit				query 	int		false	"rows per page"
// @Success 200 {object} apimodels.Response{data=[]dbmodels.Notification}
// @Failure 500 {object} apimodels.Response
// @router /api/v1/notifications [get]
func (c *notificationApiController) list(ctx *fiber.Ctx) error {
	unreadOnly := ctx.QueryBool("unread_only", false)
	page := ctx.QueryInt("page", 1)
	limit := ctx.QueryInt("limit", 20)
	list, err := notification.Instance.List(authutils.GetUserID(ctx), unreadOnly, page, limit)
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Mark notification as read
// @Tags Notifications
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  true         "notification ID"
// @Success 200 {object} apimodels.Response
// @Failure 404 {object} apimodels.Response
// @router /api/v1/notifications/{id}/read [put]
func (c *notificationApiController) markRead(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err = notification.Instance.MarkRead(authutils.GetUserID(ctx), id); err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

// @Summary Mark all notifications as read
// @Tags Notifications
// @Param   Authorization		header		string	true	"Authorization token"
// @Success 200 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/notifications/read-all [put]
func (c *notificationApiController) markAllRead(ctx *fiber.Ctx) error {
	if err := notification.Instance.MarkAllRead(authutils.GetUserID(ctx)); err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}
