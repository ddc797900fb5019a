package httpapi

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/snowcastio/snowcast/internal/forecast"
	"github.com/snowcastio/snowcast/internal/store"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, dataset *store.Dataset) {
	v1 := app.Group("/api/v1")

	v1.Get("/resorts", func(c *fiber.Ctx) error {
		req, err := parseResortsQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		var (
			records []forecast.ResortRecord
			updated time.Time
		)
		if len(req.IDs) > 0 {
			records, updated, err = dataset.GetMany(req.IDs)
		} else {
			records, updated, err = dataset.List()
		}
		if err != nil {
			return datasetError(err)
		}

		return c.JSON(fiber.Map{
			"last_updated": updated,
			"resorts":      records,
		})
	})

	v1.Get("/resorts/:id", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return fiber.NewError(fiber.StatusBadRequest, "resort id is required")
		}

		record, err := dataset.Get(id)
		if err != nil {
			return datasetError(err)
		}
		return c.JSON(record)
	})
}

// datasetError maps store errors onto HTTP statuses. Cold start is 503 so
// callers can tell "still initializing" apart from "no such resort".
func datasetError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotReady):
		return fiber.NewError(fiber.StatusServiceUnavailable, "forecast dataset is initializing")
	case errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "no forecast for requested resort")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to read forecast dataset")
	}
}

// resortsQuery holds query parameters for the bulk resorts endpoint.
type resortsQuery struct {
	IDs []string `validate:"omitempty,max=200,dive,required"`
}

func parseResortsQuery(c *fiber.Ctx) (resortsQuery, error) {
	var q resortsQuery

	if raw := c.Query("ids"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			q.IDs = append(q.IDs, strings.TrimSpace(id))
		}
	}

	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}
