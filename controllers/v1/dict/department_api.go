package dictapi

import (
	"github.com/gofiber/fiber/v2"

	"travelink-backend/controllers"
	departmentprovider "travelink-backend/lib/dicts/department"
	apimodels "travelink-backend/models/api"
)

type departmentApiController struct {
	controllers.BaseAPIController
}

func InitDepartmentApiRouters(app *fiber.App) {
	controller := departmentApiController{}
	app.Route("dict/department", func(router fiber.Router) {
		router.Get("", controller.list)
		router.Get(":id", controller.get)
	})
}

// @Summary Department list
// @Tags Dictionaries
// @Description Full department tree, ordered by name
// @Param   Authorization		header		string	true	"Authorization token"
// @Success 200 {object} apimodels.Response{data=[]dictapimodels.DepartmentView}
// @Failure 500 {object} apimodels.Response
// @router /api/v1/dict/department [get]
func (c *departmentApiController) list(ctx *fiber.Ctx) error {
	list, err := departmentprovider.Instance.List()
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Department details
// @Tags Dictionaries
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  true         "department ID"
// @Success 200 {object} apimodels.Response{data=dictapimodels.DepartmentView}
// @Failure 404 {object} apimodels.Response
// @router /api/v1/dict/department/{id} [get]
func (c *departmentApiController) get(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	item, err := departmentprovider.Instance.Get(id)
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(item))
}
