package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cargarage/execution-service/internal/core/ports"
	"github.com/cargarage/execution-service/internal/domain"
	"github.com/cargarage/execution-service/internal/infrastructure/logger"
	"github.com/cargarage/execution-service/internal/transport/http/dto"
	"github.com/gofiber/fiber/v2"
)

type ExecutionTaskHandlerConfig struct {
	Creator ports.ExecutionTaskCreator
	Updater ports.ExecutionTaskStatusUpdater
	Failer  ports.ExecutionTaskFailer
	Finder  ports.ExecutionTaskFinder
	Clock   ports.Clock
	Logger  *logger.Logger
}

type ExecutionTaskHandler struct {
	creator ports.ExecutionTaskCreator
	updater ports.ExecutionTaskStatusUpdater
	failer  ports.ExecutionTaskFailer
	finder  ports.ExecutionTaskFinder
	clock   ports.Clock
	logger  *logger.Logger
}

func NewExecutionTaskHandler(cfg ExecutionTaskHandlerConfig) *ExecutionTaskHandler {
	if cfg.Clock == nil {
		cfg.Clock = ports.SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	return &ExecutionTaskHandler{
		creator: cfg.Creator,
		updater: cfg.Updater,
		failer:  cfg.Failer,
		finder:  cfg.Finder,
		clock:   cfg.Clock,
		logger:  cfg.Logger,
	}
}

func (h *ExecutionTaskHandler) CreateTask(c *fiber.Ctx) error {
	var req dto.CreateExecutionTaskRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Warnw("execution_task_create_body_parse_failed", "error", err)
		return h.fail(c, domain.NewError(domain.ErrInvalidArgument, "invalid request body", err, nil))
	}
	if problems := req.Validate(); len(problems) > 0 {
		return h.fail(c, domain.NewError(domain.ErrInvalidArgument, strings.Join(problems, "; "), nil, nil))
	}

	h.logger.Infow("execution_task_create_request", "service_order_id", *req.ServiceOrderID)
	task, err := h.creator.Create(c.UserContext(), req.ToInput())
	if err != nil {
		return h.fail(c, err)
	}

	h.logger.Infow("execution_task_create_success", "id", task.ID)
	return c.Status(fiber.StatusCreated).JSON(task)
}

func (h *ExecutionTaskHandler) GetTask(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}

	task, err := h.finder.FindByID(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(task)
}

func (h *ExecutionTaskHandler) GetTaskByServiceOrder(c *fiber.Ctx) error {
	serviceOrderID, err := pathID(c, "serviceOrderId")
	if err != nil {
		return h.fail(c, err)
	}

	task, err := h.finder.FindByServiceOrderID(c.UserContext(), serviceOrderID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(task)
}

func (h *ExecutionTaskHandler) ListTasks(c *fiber.Ctx) error {
	page, err := h.finder.FindAll(c.UserContext(), pageRequest(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(page)
}

func (h *ExecutionTaskHandler) ListTasksByStatus(c *fiber.Ctx) error {
	page, err := h.finder.FindByStatus(c.UserContext(), c.Params("status"), pageRequest(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(page)
}

func (h *ExecutionTaskHandler) GetTaskStatus(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}

	task, err := h.finder.FindByID(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(dto.StatusResponse{Status: string(task.Status)})
}

func (h *ExecutionTaskHandler) UpdateTaskStatus(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}

	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Warnw("execution_task_status_body_parse_failed", "id", id, "error", err)
		return h.fail(c, domain.NewError(domain.ErrInvalidArgument, "invalid request body", err, nil))
	}

	h.logger.Infow("execution_task_status_request", "id", id, "status", req.Status)
	task, err := h.updater.UpdateStatus(c.UserContext(), id, req.Status)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(task)
}

// FailTask is the administrative compensation: it fails the task by id with
// the optional reason query parameter.
func (h *ExecutionTaskHandler) FailTask(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}

	h.logger.Infow("execution_task_fail_request", "id", id)
	task, err := h.failer.FailByID(c.UserContext(), id, c.Query("reason"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(task)
}

func (h *ExecutionTaskHandler) fail(c *fiber.Ctx, err error) error {
	return WriteError(c, h.logger, h.clock, err)
}

func pathID(c *fiber.Ctx, name string) (int64, error) {
	raw := c.Params(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewError(domain.ErrInvalidArgument, fmt.Sprintf("invalid %s: %s", name, raw), err, nil)
	}
	return id, nil
}

func pageRequest(c *fiber.Ctx) domain.PageRequest {
	return domain.PageRequest{
		Page: c.QueryInt("page", 0),
		Size: c.QueryInt("size", domain.DefaultPageSize),
	}
}
