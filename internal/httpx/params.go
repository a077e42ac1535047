// Package httpx has the small request helpers shared by the fiber handlers.
package httpx

import (
	"strconv"
	"time"

	"sunduqi-backend/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

const dateLayout = "2006-01-02"

// ParamID reads a positive numeric route parameter.
func ParamID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Invalid("معرف غير صالح")
	}
	return uint(id), nil
}

// QueryUint reads an optional positive numeric query parameter.
func QueryUint(c *fiber.Ctx, name string) (*uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, apperr.Invalid("قيمة " + name + " غير صالحة")
	}
	u := uint(v)
	return &u, nil
}

// QueryBool reads an optional boolean query parameter.
func QueryBool(c *fiber.Ctx, name string) (*bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.Invalid("قيمة " + name + " غير صالحة")
	}
	return &b, nil
}

// Page reads limit/offset with sane bounds.
func Page(c *fiber.Ctx) (limit, offset int) {
	limit = c.QueryInt("limit", 100)
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset = c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// Bind parses the body into dst, mapping parser failures to a validation error.
func Bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperr.Invalid("صيغة الطلب غير صالحة")
	}
	return nil
}

// QueryDate reads an optional YYYY-MM-DD query parameter.
func QueryDate(c *fiber.Ctx, name string) (string, error) {
	raw := c.Query(name)
	if raw == "" {
		return "", nil
	}
	if _, err := time.Parse(dateLayout, raw); err != nil {
		return "", apperr.Invalid("صيغة " + name + " غير صحيحة، يجب أن تكون YYYY-MM-DD")
	}
	return raw, nil
}

// DateRange reads the from/to query pair.
func DateRange(c *fiber.Ctx) (from, to string, err error) {
	if from, err = QueryDate(c, "from"); err != nil {
		return "", "", err
	}
	if to, err = QueryDate(c, "to"); err != nil {
		return "", "", err
	}
	return from, to, nil
}
