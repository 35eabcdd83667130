package controller

import (
	"github.com/hari-334/interest-buddies/internal/config"
	"github.com/hari-334/interest-buddies/internal/dto"
	"github.com/hari-334/interest-buddies/internal/pkg/serverutils"
	"github.com/hari-334/interest-buddies/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IGroupController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	GetAll(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Join(ctx *fiber.Ctx) error
	Search(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
}

type groupController struct {
	groupService      service.IGroupService
	membershipService service.IMembershipService
	chatConfig        config.ChatConfig
}

func NewGroupController(
	groupService service.IGroupService,
	membershipService service.IMembershipService,
	chatConfig config.ChatConfig,
) IGroupController {
	return &groupController{
		groupService:      groupService,
		membershipService: membershipService,
		chatConfig:        chatConfig,
	}
}

func (c *groupController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/group/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("/groups", c.GetAll)
	h.Post("/groups", c.Create)
	h.Post("/groups/search", c.Search)
	h.Get("/groups/:id", c.Show)
	h.Post("/groups/:id/join", c.Join)
	h.Get("/groups/:id/messages", c.History)
}

func requestUserID(ctx *fiber.Ctx) uuid.UUID {
	userIdStr, _ := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)
	return userId
}

func (c *groupController) Create(ctx *fiber.Ctx) error {
	userId := requestUserID(ctx)

	var req dto.CreateGroupRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.groupService.Create(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Group created", res))
}

func (c *groupController) GetAll(ctx *fiber.Ctx) error {
	res, err := c.groupService.GetAll(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("All groups", res))
}

func (c *groupController) Show(ctx *fiber.Ctx) error {
	userId := requestUserID(ctx)
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid group id")
	}

	res, err := c.groupService.Show(ctx.Context(), id, userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Group detail", res))
}

func (c *groupController) Join(ctx *fiber.Ctx) error {
	userId := requestUserID(ctx)
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid group id")
	}

	if err := c.membershipService.Join(ctx.Context(), id, userId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Joined group", nil))
}

func (c *groupController) Search(ctx *fiber.Ctx) error {
	var req dto.SearchGroupRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.groupService.Search(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Search results", res))
}

func (c *groupController) History(ctx *fiber.Ctx) error {
	userId := requestUserID(ctx)
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid group id")
	}

	limit := ctx.QueryInt("limit", c.chatConfig.HistoryPageSize)
	if limit > c.chatConfig.HistoryPageSize {
		limit = c.chatConfig.HistoryPageSize
	}
	offset := ctx.QueryInt("offset", 0)

	res, err := c.groupService.History(ctx.Context(), id, userId, limit, offset)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Group messages", res))
}
