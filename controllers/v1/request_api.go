package apiv1

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"travelink-backend/controllers"
	"travelink-backend/db"
	pdfexport "travelink-backend/lib/export/pdf"
	filestorage "travelink-backend/lib/file-storage"
	requestprovider "travelink-backend/lib/request"
	requesterinvite "travelink-backend/lib/requester-invite"
	usersstore "travelink-backend/lib/users/store"
	authutils "travelink-backend/lib/utils/auth-utils"
	apimodels "travelink-backend/models/api"
	requestapimodels "travelink-backend/models/api/request"
	"travelink-backend/models/apperrors"
	dbmodels "travelink-backend/models/db"
)

type requestApiController struct {
	controllers.BaseAPIController
	users usersstore.Provider
}

func InitRequestApiRouters(app *fiber.App) {
	controller := requestApiController{
		users: usersstore.NewInstance(db.DB),
	}
	app.Route("requests", func(router fiber.Router) {
		router.Post("", controller.submit)
		router.Post("list", controller.list)
		router.Get(":id", controller.get)
		router.Get(":id/history", controller.history)
		router.Get(":id/pdf", controller.exportPdf)
		router.Get(":id/invitations", controller.invitations)
		router.Post(":id/requesters", controller.updateRequesters)
		router.Post(":id/approve", controller.approve)
		router.Post(":id/return", controller.returnRequest)
		router.Post(":id/skip", controller.skip)
		router.Post(":id/reject", controller.reject)
		router.Post(":id/cancel", controller.cancel)
		router.Post(":id/resubmit", controller.resubmit)
		router.Post(":id/attachments", controller.uploadAttachment)
		router.Get("attachments/:id", controller.downloadAttachment)
	})
}

func (c *requestApiController) actor(ctx *fiber.Ctx) (dbmodels.User, error) {
	userID := authutils.GetUserID(ctx)
	if userID == "" {
		return dbmodels.User{}, fiber.ErrUnauthorized
	}
	user, err := c.users.GetByID(userID)
	if err != nil {
		return dbmodels.User{}, err
	}
	if user == nil {
		return dbmodels.User{}, fiber.ErrUnauthorized
	}
	return *user, nil
}

// @Summary Submit a request
// @Tags Requests
// @Description Files a travel order or seminar application, as a draft or for approval
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 requestapimodels.SubmitData	true	"request body"
// @Success 200 {object} apimodels.Response{data=requestapimodels.RequestView}
// @Failure 400 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/requests [post]
func (c *requestApiController) submit(ctx *fiber.Ctx) error {
	var payload requestapimodels.SubmitData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	actor, err := c.actor(ctx)
	if err != nil {
		return err
	}
	view, err := requestprovider.Instance.Submit(actor, payload)
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(view))
}

// @Summary Request list
// @Tags Requests
// @Description Lists requests; supports status, inbox role and "mine" filters
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 requestapimodels.RequestFilter	true	"request body"
// @Success 200 {object} apimodels.ScrollerResponse{data=[]requestapimodels.RequestView}
// @Failure 500 {object} apimodels.Response
// @router /api/v1/requests/list [post]
func (c *requestApiController) list(ctx *fiber.Ctx) error {
	var filter requestapimodels.RequestFilter
	if err := c.BodyParser(ctx, &filter); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	list, rowCount, err := requestprovider.Instance.List(filter, authutils.GetUserID(ctx))
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewScrollerResponse(list, rowCount))
}

// @Summary Request details
// @Tags Requests
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  true         "request ID"
// @Success 200 {object} apimodels.Response{data=requestapimodels.RequestView}
// @Failure 404 {object} apimodels.Response
// @router /api/v1/requests/{id} [get]
func (c *requestApiController) get(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	view, err := requestprovider.Instance.Get(id)
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(view))
}

// @Summary Request audit trail
// @Tags Requests
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  true         "request ID"
// @Success 200 {object} apimodels.Response{data=[]requestapimodels.HistoryView}
// @Failure 500 {object} apimodels.Response
// @router /api/v1/requests/{id}/history [get]
func (c *requestApiController) history(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	list, err := requestprovider.Instance.History(id)
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Requester invitations
// @Tags Requests
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  true         "request ID"
// @Success 200 {object} apimodels.Response{data=[]requestapimodels.InvitationView}
// @Failure 500 {object} apimodels.Response
// @router /api/v1/requests/{id}/invitations [get]
func (c *requestApiController) invitations(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	list, err := requesterinvite.Instance.ListByRequest(id)
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Update the requester list
// @Tags Requests
// @Description Reconciles named requesters and their invitations before the request enters the ladder
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  true         "request ID"
// @Param	body body	 requestapimodels.InviteData	true	"request body"
// @Success 200 {object} apimodels.Response{data=requesterinvite.ReconcileResult}
// @Failure 400 {object} apimodels.Response
// @Failure 422 {object} apimodels.Response
// @router /api/v1/requests/{id}/requesters [post]
func (c *requestApiController) updateRequesters(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload requestapimodels.InviteData
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	actor, err := c.actor(ctx)
	if err != nil {
		return err
	}
	result, err := requestprovider.Instance.UpdateRequesters(id, actor, payload)
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(result))
}

// @Summary Approve
// @Tags Requests
// @Description Approves the current stage; the acting head may route explicitly via next approver fields
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  true         "request ID"
// @Param	body body	 requestapimodels.ApproveData	true	"request body"
// @Success 200 {object} apimodels.Response{data=string}
// @Failure 409 {object} apimodels.Response
// @Failure 422 {object} apimodels.Response
// @router /api/v1/requests/{id}/approve [post]
func (c *requestApiController) approve(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload requestapimodels.ApproveData
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	actor, err := c.actor(ctx)
	if err != nil {
		return err
	}
	newStatus, err := requestprovider.Instance.Approve(id, actor, payload)
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(newStatus))
}

// @Summary Return for changes
// @Tags Requests
// @Description Returns the request to the stage whose output must be redone, with a mandatory reason
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  true         "request ID"
// @Param	body body	 requestapimodels.ReturnData	true	"request body"
// @Success 200 {object} apimodels.Response{data=string}
// @Failure 422 {object} apimodels.Response
// @router /api/v1/requests/{id}/return [post]
func (c *requestApiController) returnRequest(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload requestapimodels.ReturnData
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	actor, err := c.actor(ctx)
	if err != nil {
		return err
	}
	newStatus, err := requestprovider.Instance.Return(id, actor, payload)
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(newStatus))
}

// @Summary Skip a stage
// @Tags Requests
// @Description Explicitly skips the admin or comptroller stage with a recorded reason
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  true         "request ID"
// @Param	body body	 requestapimodels.SkipData	true	"request body"
// @Success 200 {object} apimodels.Response{data=string}
// @Failure 422 {object} apimodels.Response
// @router /api/v1/requests/{id}/skip [post]
func (c *requestApiController) skip(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload requestapimodels.SkipData
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	actor, err := c.actor(ctx)
	if err != nil {
		return err
	}
	newStatus, err := requestprovider.Instance.Skip(id, actor, payload)
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(newStatus))
}

// @Summary Reject
// @Tags Requests
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  true         "request ID"
// @Param	body body	 requestapimodels.RejectData	true	"request body"
// @Success 200 {object} apimodels.Response{data=string}
// @Failure 422 {object} apimodels.Response
// @router /api/v1/requests/{id}/reject [post]
func (c *requestApiController) reject(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload requestapimodels.RejectData
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	actor, err := c.actor(ctx)
	if err != nil {
		return err
	}
	newStatus, err := requestprovider.Instance.Reject(id, actor, payload)
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(newStatus))
}

// @Summary Cancel
// @Tags Requests
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  true         "request ID"
// @Success 200 {object} apimodels.Response{data=string}
// @Failure 422 {object} apimodels.Response
// @router /api/v1/requests/{id}/cancel [post]
func (c *requestApiController) cancel(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	actor, err := c.actor(ctx)
	if err != nil {
		return err
	}
	newStatus, err := requestprovider.Instance.Cancel(id, actor)
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(newStatus))
}

// @Summary Resubmit a returned request
// @Tags Requests
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  true         "request ID"
// @Success 200 {object} apimodels.Response{data=string}
// @Failure 422 {object} apimodels.Response
// @router /api/v1/requests/{id}/resubmit [post]
func (c *requestApiController) resubmit(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	actor, err := c.actor(ctx)
	if err != nil {
		return err
	}
	newStatus, err := requestprovider.Instance.Resubmit(id, actor)
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(newStatus))
}

// @Summary Upload an attachment
// @Tags Requests
// @Description Attaches a supporting document to the request
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  true         "request ID"
// @Success 200 {object} apimodels.Response{data=string}
// @Failure 400 {object} apimodels.Response
// @router /api/v1/requests/{id}/attachments [post]
func (c *requestApiController) uploadAttachment(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError("file is required"))
	}
	file, err := fileHeader.Open()
	if err != nil {
		return c.SendError(ctx, err)
	}
	defer file.Close()
	body, err := io.ReadAll(file)
	if err != nil {
		return c.SendError(ctx, err)
	}
	aType := dbmodels.AttachmentType(ctx.FormValue("type", string(dbmodels.AttachmentSupportingDoc)))
	attachmentID, err := filestorage.Instance.Upload(ctx.Context(), id, authutils.GetUserID(ctx),
		aType, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), body)
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(attachmentID))
}

// @Summary Printable request copy
// @Tags Requests
// @Description Renders the request with its approval trail as a PDF document
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  true         "request ID"
// @Success 200
// @Failure 404 {object} apimodels.Response
// @router /api/v1/requests/{id}/pdf [get]
func (c *requestApiController) exportPdf(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	view, err := requestprovider.Instance.Get(id)
	if err != nil {
		return c.SendError(ctx, err)
	}
	history, err := requestprovider.Instance.History(id)
	if err != nil {
		return c.SendError(ctx, err)
	}
	body, err := pdfexport.Instance.ExportRequest(view, history)
	if err != nil {
		return c.SendError(ctx, err)
	}
	ctx.Set(fiber.HeaderContentType, "application/pdf")
	ctx.Set(fiber.HeaderContentDisposition, "attachment; filename=\""+view.RequestNumber+".pdf\"")
	return ctx.Status(fiber.StatusOK).Send(body)
}

// @Summary Download an attachment
// @Tags Requests
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  true         "attachment ID"
// @Success 200
// @Failure 404 {object} apimodels.Response
// @router /api/v1/requests/attachments/{id} [get]
func (c *requestApiController) downloadAttachment(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	rec, body, err := filestorage.Instance.Get(ctx.Context(), id)
	if err != nil {
		return c.SendError(ctx, err)
	}
	if rec == nil {
		return c.SendError(ctx, apperrors.ErrNotFound)
	}
	ctx.Set(fiber.HeaderContentType, rec.ContentType)
	ctx.Set(fiber.HeaderContentDisposition, "attachment; filename=\""+rec.Name+"\"")
	return ctx.Status(fiber.StatusOK).Send(body)
}
