package user

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/rs/zerolog"
)

// OperationObserver records the outcome of each user operation.
type OperationObserver interface {
	ObserveOperation(op string, err error)
}

type Handler struct {
	service   *Service
	validator *Validator
	observer  OperationObserver
	logger    zerolog.Logger
}

func NewHandler(service *Service, validator *Validator, observer OperationObserver, logger zerolog.Logger) *Handler {
	return &Handler{
		service:   service,
		validator: validator,
		observer:  observer,
		logger:    logger.With().Str("component", "user.handler").Logger(),
	}
}

func (h *Handler) RegisterRoutes(router fiber.Router) {
	router.Post("/api/v1/users", h.createUser)
	// search must be registered before the :email routes
	router.Get("/api/v1/users/search", h.searchUsers)
	router.Get("/api/v1/users/:email", h.getUser)
	router.Put("/api/v1/users/:email", h.updateUser)
	router.Delete("/api/v1/users/:email", h.deleteUser)
}

func (h *Handler) createUser(c *fiber.Ctx) error {
	payload := new(User)
	if err := c.BodyParser(payload); err != nil {
		return h.fail(c, "create", malformedBody(err))
	}
	if err := h.validator.Validate(*payload); err != nil {
		return h.fail(c, "create", err)
	}

	h.logger.Debug().Stringer("user", payload).Msg("creating user")
	created, err := h.service.Create(c.UserContext(), *payload)
	if err != nil {
		return h.fail(c, "create", err)
	}

	h.observe("create", nil)
	h.logger.Info().Str("email", created.Email).Msg("user created")
	return c.JSON(created)
}

func (h *Handler) getUser(c *fiber.Ctx) error {
	email := pathEmail(c)

	found, err := h.service.GetByEmail(c.UserContext(), email)
	if err != nil {
		return h.fail(c, "get", err)
	}

	h.observe("get", nil)
	return c.JSON(found)
}

func (h *Handler) updateUser(c *fiber.Ctx) error {
	email := pathEmail(c)

	payload := new(User)
	if err := c.BodyParser(payload); err != nil {
		return h.fail(c, "update", malformedBody(err))
	}
	if err := h.validator.Validate(*payload); err != nil {
		return h.fail(c, "update", err)
	}

	updated, err := h.service.Update(c.UserContext(), email, *payload)
	if err != nil {
		return h.fail(c, "update", err)
	}

	h.observe("update", nil)
	h.logger.Info().Str("email", email).Str("new_email", updated.Email).Msg("user updated")
	h.logger.Debug().Stringer("user", updated).Msg("updated user record")
	return c.JSON(updated)
}

func (h *Handler) deleteUser(c *fiber.Ctx) error {
	email := pathEmail(c)

	if err := h.service.Delete(c.UserContext(), email); err != nil {
		return h.fail(c, "delete", err)
	}

	h.observe("delete", nil)
	h.logger.Info().Str("email", email).Msg("user removed")
	return c.JSON(fiber.Map{"message": "User was removed successfully."})
}

func (h *Handler) searchUsers(c *fiber.Ctx) error {
	from, err := parseDateQuery(c, "from")
	if err != nil {
		return h.fail(c, "search", err)
	}
	to, err := parseDateQuery(c, "to")
	if err != nil {
		return h.fail(c, "search", err)
	}

	users, err := h.service.FindByBirthDateRange(c.UserContext(), from, to)
	if err != nil {
		return h.fail(c, "search", err)
	}

	h.observe("search", nil)
	h.logger.Info().
		Stringer("from", from).
		Stringer("to", to).
		Int("found", len(users)).
		Msg("searched users by birth date")
	return c.JSON(users)
}

// pathEmail copies the :email param out of fiber's reusable request buffer.
func pathEmail(c *fiber.Ctx) string {
	return utils.CopyString(c.Params("email"))
}

// fail maps service and validation errors onto HTTP responses.
func (h *Handler) fail(c *fiber.Ctx, op string, err error) error {
	h.observe(op, err)

	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		h.logger.Warn().Str("op", op).Strs("errors", validationErr.Messages).Msg("validation failed")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": validationErr.Error(),
			"errors":  validationErr.Messages,
		})
	case errors.Is(err, ErrAlreadyExists):
		h.logger.Warn().Str("op", op).Err(err).Msg("user already exists")
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, ErrNotFound):
		h.logger.Warn().Str("op", op).Err(err).Msg("user not found")
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, ErrInvalidArgument):
		h.logger.Warn().Str("op", op).Err(err).Msg("invalid argument")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	default:
		h.logger.Error().Str("op", op).Err(err).Msg("user operation failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "internal server error"})
	}
}

func (h *Handler) observe(op string, err error) {
	if h.observer != nil {
		h.observer.ObserveOperation(op, err)
	}
}

func malformedBody(err error) *ValidationError {
	return &ValidationError{Messages: []string{"Malformed request body: " + err.Error() + "."}}
}

func parseDateQuery(c *fiber.Ctx, key string) (Date, error) {
	raw := c.Query(key)
	if raw == "" {
		return Date{}, &ValidationError{Messages: []string{"Query parameter '" + key + "' is required."}}
	}
	date, err := ParseDate(raw)
	if err != nil {
		return Date{}, &ValidationError{Messages: []string{"Query parameter '" + key + "' must be a date in YYYY-MM-DD format."}}
	}
	return date, nil
}
