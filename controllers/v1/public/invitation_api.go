package publicapi

import (
	"github.com/gofiber/fiber/v2"

	"travelink-backend/controllers"
	requesterinvite "travelink-backend/lib/requester-invite"
	apimodels "travelink-backend/models/api"
	requestapimodels "travelink-backend/models/api/request"
)

// Invitation endpoints are reached from email links, so they sit outside the
// authorized API group and identify the caller by the invitation token alone.
type invitationApiController struct {
	controllers.BaseAPIController
}

func InitInvitationApiRouters(app *fiber.App) {
	controller := invitationApiController{}
	app.Route("requesters", func(router fiber.Router) {
		router.Get("confirm", controller.confirmByLink)
		router.Post("confirm", controller.confirm)
		router.Post("decline", controller.decline)
	})
}

// @Summary Confirm participation
// @Tags Requester invitations
// @Description Redeems an invitation token and records the requester's signature
// @Param	body body	 requestapimodels.RedeemData	true	"request body"
// @Success 200 {object} apimodels.Response{data=requestapimodels.InvitationView}
// @Failure 404 {object} apimodels.Response
// @Failure 409 {object} apimodels.Response
// @Failure 410 {object} apimodels.Response
// @router /api/v1/requesters/confirm [post]
func (c *invitationApiController) confirm(ctx *fiber.Ctx) error {
	var payload requestapimodels.RedeemData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	view, err := requesterinvite.Instance.Redeem(payload)
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(view))
}

// @Summary Confirm participation via email link
// @Tags Requester invitations
// @Description Redeems an invitation token passed as a query parameter
// @Param	token		query 	string	true	"invitation token"
// @Param	signature	query 	string	true	"captured signature data url"
// @Success 200 {object} apimodels.Response{data=requestapimodels.InvitationView}
// @Failure 404 {object} apimodels.Response
// @Failure 409 {object} apimodels.Response
// @Failure 410 {object} apimodels.Response
// @router /api/v1/requesters/confirm [get]
func (c *invitationApiController) confirmByLink(ctx *fiber.Ctx) error {
	payload := requestapimodels.RedeemData{
		Token:     ctx.Query("token"),
		Signature: ctx.Query("signature"),
	}
	view, err := requesterinvite.Instance.Redeem(payload)
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(view))
}

// @Summary Decline participation
// @Tags Requester invitations
// @Description Declines an invitation; already confirmed invitations cannot be declined
// @Param	body body	 requestapimodels.DeclineData	true	"request body"
// @Success 200 {object} apimodels.Response
// @Failure 404 {object} apimodels.Response
// @Failure 409 {object} apimodels.Response
// @Failure 410 {object} apimodels.Response
// @router /api/v1/requesters/decline [post]
func (c *invitationApiController) decline(ctx *fiber.Ctx) error {
	var payload requestapimodels.DeclineData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := payload.Validate(); err != nil {
		return c.SendError(ctx, err)
	}
	if err := requesterinvite.Instance.Decline(payload.Token); err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}
