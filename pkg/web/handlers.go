// Package web provides HTTP handlers and REST API endpoints for workflow management.
package web

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/flowgrid/flowgrid/pkg/models"
	"github.com/flowgrid/flowgrid/pkg/persistence"
	"github.com/flowgrid/flowgrid/pkg/registry"
	"github.com/flowgrid/flowgrid/pkg/workflow"
)

const anonymousUser = "anonymous"

type APIHandlers struct {
	store       persistence.Persistence
	coordinator *workflow.Coordinator
	validator   *validator.Validate
	registry    *registry.Registry
}

func NewAPIHandlers(
	store persistence.Persistence,
	coordinator *workflow.Coordinator,
	validator *validator.Validate,
	registry *registry.Registry,
) *APIHandlers {
	return &APIHandlers{
		store:       store,
		coordinator: coordinator,
		validator:   validator,
		registry:    registry,
	}
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.store.Workflows(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflows":   workflows,
		"total_count": len(workflows),
	})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	wf, err := h.store.WorkflowByID(c.Context(), id)
	if err != nil {
		return handlePersistenceError(c, err)
	}

	return c.JSON(wf)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	for _, node := range req.Nodes {
		if err := h.registry.ValidateParameters(node); err != nil {
			return badRequest(c, err.Error())
		}
	}

	now := time.Now().UTC()

	wf := &models.Workflow{
		ID:          "wf-" + uuid.New().String(),
		Name:        req.Name,
		Active:      req.Active,
		Nodes:       req.Nodes,
		Connections: req.Connections,
		OwnerID:     req.OwnerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.store.SaveWorkflow(c.Context(), wf); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(wf)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	if err := h.store.DeleteWorkflow(c.Context(), id); err != nil {
		return handlePersistenceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ActivateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	if err := h.store.SetWorkflowActive(c.Context(), id, true); err != nil {
		return handlePersistenceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// RunWorkflow starts a manual run. The response carries only the run ID; the
// caller polls the run endpoint for progress.
func (h *APIHandlers) RunWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req RunRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	runID, err := h.coordinator.StartRun(c.Context(), id, h.userID(c), models.RunModeManual, req.Data)
	if err != nil {
		return handlePersistenceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(RunStartedResponse{RunID: runID})
}

// WebhookRun starts a webhook-mode run. When the trigger node declares a
// token parameter the caller must present it; comparison is constant-time.
func (h *APIHandlers) WebhookRun(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	wf, err := h.store.WorkflowByID(c.Context(), id)
	if err != nil {
		return handlePersistenceError(c, err)
	}

	trigger := wf.TriggerNode()
	if trigger == nil {
		return badRequest(c, "workflow has no trigger node")
	}

	if expected := trigger.ParamString("token"); expected != "" {
		presented := c.Get("X-Webhook-Token")
		if presented == "" {
			presented = c.Query("token")
		}

		if subtle.ConstantTimeCompare([]byte(expected), []byte(presented)) != 1 {
			return unauthorized(c, "invalid webhook token")
		}
	}

	var triggerData map[string]any
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&triggerData); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	runID, err := h.coordinator.StartRun(c.Context(), id, h.userID(c), models.RunModeWebhook, triggerData)
	if err != nil {
		return handlePersistenceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(RunStartedResponse{RunID: runID})
}

func (h *APIHandlers) GetRun(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Run ID is required")
	}

	run, err := h.store.RunByID(c.Context(), id)
	if err != nil {
		return handlePersistenceError(c, err)
	}

	return c.JSON(run)
}

func (h *APIHandlers) CancelRun(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Run ID is required")
	}

	if err := h.coordinator.CancelRun(c.Context(), id, h.userID(c)); err != nil {
		return handlePersistenceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) CreateCredential(c fiber.Ctx) error {
	var req CreateCredentialRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	credential := &models.Credential{
		ID:        req.ID,
		Name:      req.Name,
		Kind:      req.Kind,
		Payload:   req.Payload,
		OwnerID:   req.OwnerID,
		CreatedAt: time.Now().UTC(),
	}

	if credential.ID == "" {
		credential.ID = "cred-" + uuid.New().String()
	}

	if err := h.store.SaveCredential(c.Context(), credential); err != nil {
		return internalError(c, err)
	}

	// The payload never leaves the secret store through the API.
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":   credential.ID,
		"name": credential.Name,
		"kind": credential.Kind,
	})
}

// GetNodeKinds exposes the registered executor schemas for graph editors.
func (h *APIHandlers) GetNodeKinds(c fiber.Ctx) error {
	schemas, err := h.registry.DescribeSchemas()
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"kinds": schemas})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	httpStatus := http.StatusOK

	if err := h.store.HealthCheck(c.Context()); err != nil {
		status = "unhealthy"
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) userID(c fiber.Ctx) string {
	if user := c.Get("X-User-ID"); user != "" {
		return user
	}

	return anonymousUser
}
