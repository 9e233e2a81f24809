package fiberlog

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Tag keys selectable via Config.Tags.
const (
	TagPid       = "pid"
	TagStatus    = "status"
	TagLatency   = "latency"
	TagMethod    = "method"
	TagPath      = "path"
	TagIP        = "ip"
	TagUserAgent = "user_agent"
	TagBody      = "body"
	TagResBody   = "resBody"
	RequestID    = "requestId"
)

// FuncTag resolves a single log field from the request context.
type FuncTag func(c *fiber.Ctx, d *data) interface{}

// data keeps per-handler state shared between the tag funcs.
type data struct {
	pid   int
	start time.Time
	end   time.Time
}

var allTags = map[string]FuncTag{
	TagPid:       func(c *fiber.Ctx, d *data) interface{} { return strconv.Itoa(d.pid) },
	TagStatus:    func(c *fiber.Ctx, d *data) interface{} { return c.Response().StatusCode() },
	TagLatency:   func(c *fiber.Ctx, d *data) interface{} { return d.end.Sub(d.start).String() },
	TagMethod:    func(c *fiber.Ctx, d *data) interface{} { return c.Method() },
	TagPath:      func(c *fiber.Ctx, d *data) interface{} { return c.Path() },
	TagIP:        func(c *fiber.Ctx, d *data) interface{} { return c.IP() },
	TagUserAgent: func(c *fiber.Ctx, d *data) interface{} { return string(c.Request().Header.UserAgent()) },
	TagBody:      func(c *fiber.Ctx, d *data) interface{} { return string(c.Body()) },
	TagResBody:   func(c *fiber.Ctx, d *data) interface{} { return string(c.Response().Body()) },
	RequestID:    func(c *fiber.Ctx, d *data) interface{} { return c.GetRespHeader(fiber.HeaderXRequestID) },
}

// getFuncTagMap picks the tag funcs requested by the config.
func getFuncTagMap(cfg Config, d *data) map[string]FuncTag {
	ftm := make(map[string]FuncTag, len(cfg.Tags))
	for _, tag := range cfg.Tags {
		if ft, ok := allTags[tag]; ok {
			ftm[tag] = ft
		}
	}
	return ftm
}
