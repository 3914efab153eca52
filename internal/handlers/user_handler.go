package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/pos-suite/pos-backend/internal/dto"
	"github.com/pos-suite/pos-backend/internal/middleware"
	"github.com/pos-suite/pos-backend/internal/services"
	"github.com/pos-suite/pos-backend/internal/storage"
	"github.com/pos-suite/pos-backend/internal/stores"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) Me(c *fiber.Ctx) error {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Not authenticated",
		})
	}

	user, err := h.userService.Get(c.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, stores.ErrNotFound) {
			return notFound(c, "User")
		}
		return internalError(c)
	}
	return c.JSON(services.UserToResponse(user))
}

func (h *UserHandler) UploadAvatar(c *fiber.Ctx) error {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Not authenticated",
		})
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		return badRequest(c, "An avatar file is required")
	}

	user, err := h.userService.SetAvatar(c.Context(), identity.UserID, file)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrFileTooLarge), errors.Is(err, storage.ErrFileTypeBlocked):
			return badRequest(c, err.Error())
		case errors.Is(err, stores.ErrNotFound):
			return notFound(c, "User")
		default:
			return internalError(c)
		}
	}
	return c.JSON(services.UserToResponse(user))
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 20)

	resp, err := h.userService.List(c.Context(), offset, limit)
	if err != nil {
		return internalError(c)
	}
	return c.JSON(resp)
}

func (h *UserHandler) AssignRole(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid user id")
	}

	var req dto.AssignRoleRequest
	if err := c.BodyParser(&req); err != nil || req.Role == "" {
		return badRequest(c, "A role name is required")
	}

	if err := h.userService.AssignRole(c.Context(), userID, req.Role); err != nil {
		if errors.Is(err, stores.ErrNotFound) {
			return notFound(c, "User or role")
		}
		return internalError(c)
	}
	return c.JSON(fiber.Map{"message": "Role assigned"})
}

func (h *UserHandler) Deactivate(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid user id")
	}

	if err := h.userService.Deactivate(c.Context(), userID, c.IP()); err != nil {
		if errors.Is(err, stores.ErrNotFound) {
			return notFound(c, "User")
		}
		return internalError(c)
	}
	return c.JSON(fiber.Map{"message": "User deactivated"})
}

func notFound(c *fiber.Ctx, resource string) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
		Error: true, Message: resource + " not found",
	})
}
