package apiv1

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"travelink-backend/controllers"
	"travelink-backend/db"
	xlsexport "travelink-backend/lib/export/xls"
	requesthistory "travelink-backend/lib/request-history"
	requeststore "travelink-backend/lib/request/store"
	authutils "travelink-backend/lib/utils/auth-utils"
	"travelink-backend/middleware"
	apimodels "travelink-backend/models/api"
	requestapimodels "travelink-backend/models/api/request"
)

type reportApiController struct {
	controllers.BaseAPIController
	requests requeststore.Provider
}

func InitReportApiRouters(app *fiber.App) {
	controller := reportApiController{
		requests: requeststore.NewInstance(db.DB),
	}
	app.Route("reports", func(router fiber.Router) {
		router.Use(middleware.AdminRoleRequired())
		router.Post("requests/xls", controller.exportRequests)
		router.Get("history/xls", controller.exportHistory)
	})
}

func sendXls(ctx *fiber.Ctx, name string, body []byte) error {
	ctx.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return ctx.Status(fiber.StatusOK).Send(body)
}

// @Summary Request register export
// @Tags Reports
// @Description Exports the filtered request list to an xlsx workbook
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 requestapimodels.RequestFilter	true	"request body"
// @Success 200
// @Failure 403 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/reports/requests/xls [post]
func (c *reportApiController) exportRequests(ctx *fiber.Ctx) error {
	var filter requestapimodels.RequestFilter
	if err := c.BodyParser(ctx, &filter); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	filter.Limit = 10000
	filter.Page = 1
	list, _, err := c.requests.List(filter, authutils.GetUserID(ctx))
	if err != nil {
		return c.SendError(ctx, err)
	}
	buf, err := xlsexport.Instance.ExportRequestList(list)
	if err != nil {
		return c.SendError(ctx, err)
	}
	name := fmt.Sprintf("requests_%s.xlsx", time.Now().Format("2006-01-02"))
	return sendXls(ctx, name, buf.Bytes())
}

// @Summary Audit trail export
// @Tags Reports
// @Description Exports the request history for a period to an xlsx workbook
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	from				query 	string	true	"period start (YYYY-MM-DD)"
// @Param	to					query 	string	true	"period end (YYYY-MM-DD)"
// @Success 200
// @Failure 403 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/reports/history/xls [get]
func (c *reportApiController) exportHistory(ctx *fiber.Ctx) error {
	from := ctx.Query("from")
	to := ctx.Query("to")
	if from == "" || to == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError("from and to are required"))
	}
	list, err := requesthistory.Instance.ListForPeriod(from, to)
	if err != nil {
		return c.SendError(ctx, err)
	}
	buf, err := xlsexport.Instance.ExportRequestHistory(list)
	if err != nil {
		return c.SendError(ctx, err)
	}
	name := fmt.Sprintf("request_history_%s_%s.xlsx", from, to)
	return sendXls(ctx, name, buf.Bytes())
}
