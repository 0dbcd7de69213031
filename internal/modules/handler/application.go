package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aoba-arch/permitdesk/internal/modules/model"
	"github.com/aoba-arch/permitdesk/internal/modules/serializer"
	"github.com/aoba-arch/permitdesk/internal/modules/service"
)

type ApplicationHandler struct {
	svc service.ApplicationService
}

func NewApplicationHandler(s service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{svc: s}
}

type CreateApplicationReq struct {
	ProjectID         uint   `json:"project_id" binding:"required"`
	ApplicationTypeID uint   `json:"application_type_id" binding:"required"`
	Notes             string `json:"notes"`
}

type WorkflowActionReq struct {
	Comment string `json:"comment"`
}

type CreateApplicationTypeReq struct {
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// ListApplications godoc
//
//	@Summary		List applications
//	@Description	List applications filtered by status and/or project
//	@Tags			application
//	@Produce		json
//	@Param			skip		query	int		false	"Offset"
//	@Param			limit		query	int		false	"Page size"
//	@Param			status		query	string	false	"Status filter"
//	@Param			project_id	query	int		false	"Project filter"
//	@Success		200	{object}	serializer.Response{data=service.ListApplicationsOutput}
//	@Router			/applications [get]
func (h *ApplicationHandler) ListApplications(c *gin.Context) {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	projectID, _ := strconv.ParseUint(c.DefaultQuery("project_id", "0"), 10, 32)

	out, err := h.svc.List(c.Request.Context(), service.ListApplicationsInput{
		Status:    model.ApplicationStatus(c.Query("status")),
		ProjectID: uint(projectID),
		Skip:      skip,
		Limit:     limit,
	})
	if err != nil {
		serializer.Write(c, serializer.FromError(err))
		return
	}
	serializer.Write(c, serializer.OK(out))
}

// CreateApplication godoc
//
//	@Summary		Create application
//	@Description	Create a permit application in DRAFT for a project
//	@Tags			application
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	handler.CreateApplicationReq	true	"CreateApplication payload"
//	@Success		201	{object}	serializer.Response{data=model.Application}
//	@Router			/applications [post]
func (h *ApplicationHandler) CreateApplication(c *gin.Context) {
	req := CreateApplicationReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	a, err := h.svc.Create(c.Request.Context(), service.CreateApplicationInput{
		ProjectID:         req.ProjectID,
		ApplicationTypeID: req.ApplicationTypeID,
		Notes:             req.Notes,
	})
	if err != nil {
		serializer.Write(c, serializer.FromError(err))
		return
	}
	serializer.Write(c, serializer.Created(a))
}

// GetApplication godoc
//
//	@Summary	Get application
//	@Tags		application
//	@Produce	json
//	@Param		id	path	int	true	"Application ID"
//	@Success	200	{object}	serializer.Response{data=model.Application}
//	@Router		/applications/{id} [get]
func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	a, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		serializer.Write(c, serializer.FromError(err))
		return
	}
	serializer.Write(c, serializer.OK(a))
}

// UpdateApplication godoc
//
//	@Summary		Update application
//	@Description	Partial update of notes and comments with per-field audit
//	@Tags			application
//	@Accept			json
//	@Produce		json
//	@Param			id		path	int							true	"Application ID"
//	@Param			payload	body	service.ApplicationPatch	true	"Fields to change"
//	@Success		200	{object}	serializer.Response{data=model.Application}
//	@Router			/applications/{id} [put]
func (h *ApplicationHandler) UpdateApplication(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	patch := service.ApplicationPatch{}
	if err := c.ShouldBind(&patch); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	a, err := h.svc.Update(c.Request.Context(), id, patch)
	if err != nil {
		serializer.Write(c, serializer.FromError(err))
		return
	}
	serializer.Write(c, serializer.OK(a))
}

func (h *ApplicationHandler) runAction(c *gin.Context, action service.Action) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	req := WorkflowActionReq{}
	// the body is optional for submit/withdraw
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
			return
		}
	}

	a, err := h.svc.ExecuteAction(c.Request.Context(), id, action, req.Comment)
	if err != nil {
		serializer.Write(c, serializer.FromError(err))
		return
	}
	serializer.Write(c, serializer.OK(a))
}

// SubmitApplication godoc
//
//	@Summary	Submit application for review
//	@Tags		application
//	@Accept		json
//	@Produce	json
//	@Param		id	path	int	true	"Application ID"
//	@Success	200	{object}	serializer.Response{data=model.Application}
//	@Failure	409	{object}	serializer.Response
//	@Router		/applications/{id}/submit [post]
func (h *ApplicationHandler) SubmitApplication(c *gin.Context) {
	h.runAction(c, service.ActionSubmit)
}

// ApproveApplication godoc
//
//	@Summary	Approve application
//	@Tags		application
//	@Accept		json
//	@Produce	json
//	@Param		id		path	int							true	"Application ID"
//	@Param		payload	body	handler.WorkflowActionReq	false	"Approval comment"
//	@Success	200	{object}	serializer.Response{data=model.Application}
//	@Failure	409	{object}	serializer.Response
//	@Router		/applications/{id}/approve [post]
func (h *ApplicationHandler) ApproveApplication(c *gin.Context) {
	h.runAction(c, service.ActionApprove)
}

// RejectApplication godoc
//
//	@Summary	Reject application
//	@Tags		application
//	@Accept		json
//	@Produce	json
//	@Param		id		path	int							true	"Application ID"
//	@Param		payload	body	handler.WorkflowActionReq	false	"Rejection reason"
//	@Success	200	{object}	serializer.Response{data=model.Application}
//	@Failure	409	{object}	serializer.Response
//	@Router		/applications/{id}/reject [post]
func (h *ApplicationHandler) RejectApplication(c *gin.Context) {
	h.runAction(c, service.ActionReject)
}

// WithdrawApplication godoc
//
//	@Summary	Withdraw application
//	@Tags		application
//	@Accept		json
//	@Produce	json
//	@Param		id	path	int	true	"Application ID"
//	@Success	200	{object}	serializer.Response{data=model.Application}
//	@Failure	409	{object}	serializer.Response
//	@Router		/applications/{id}/withdraw [post]
func (h *ApplicationHandler) WithdrawApplication(c *gin.Context) {
	h.runAction(c, service.ActionWithdraw)
}

// DeleteApplication godoc
//
//	@Summary	Delete application
//	@Tags		application
//	@Produce	json
//	@Param		id	path	int	true	"Application ID"
//	@Success	200	{object}	serializer.Response
//	@Router		/applications/{id} [delete]
func (h *ApplicationHandler) DeleteApplication(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		serializer.Write(c, serializer.FromError(err))
		return
	}
	serializer.Write(c, serializer.OK(gin.H{"id": id}))
}

// ApplicationAuditTrail godoc
//
//	@Summary		Application audit trail
//	@Description	Change and workflow history for the application, newest first
//	@Tags			application
//	@Produce		json
//	@Param			id	path	int	true	"Application ID"
//	@Success		200	{object}	serializer.Response{data=[]model.AuditTrail}
//	@Router			/applications/{id}/audit-trail [get]
func (h *ApplicationHandler) ApplicationAuditTrail(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	entries, err := h.svc.AuditTrail(c.Request.Context(), "Application", id)
	if err != nil {
		serializer.Write(c, serializer.FromError(err))
		return
	}
	serializer.Write(c, serializer.OK(entries))
}

// ApplicationSummary godoc
//
//	@Summary	Application status summary
//	@Tags		application
//	@Produce	json
//	@Success	200	{object}	serializer.Response{data=service.ApplicationSummary}
//	@Router		/applications/summary [get]
func (h *ApplicationHandler) ApplicationSummary(c *gin.Context) {
	out, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		serializer.Write(c, serializer.FromError(err))
		return
	}
	serializer.Write(c, serializer.OK(out))
}

// ListApplicationTypes godoc
//
//	@Summary	List application types
//	@Tags		application
//	@Produce	json
//	@Param		include_inactive	query	bool	false	"Include inactive types"
//	@Success	200	{object}	serializer.Response{data=[]model.ApplicationType}
//	@Router		/application-types [get]
func (h *ApplicationHandler) ListApplicationTypes(c *gin.Context) {
	includeInactive, _ := strconv.ParseBool(c.DefaultQuery("include_inactive", "false"))
	items, err := h.svc.ListTypes(c.Request.Context(), includeInactive)
	if err != nil {
		serializer.Write(c, serializer.FromError(err))
		return
	}
	serializer.Write(c, serializer.OK(items))
}

// CreateApplicationType godoc
//
//	@Summary	Create application type
//	@Tags		application
//	@Accept		json
//	@Produce	json
//	@Param		payload	body	handler.CreateApplicationTypeReq	true	"CreateApplicationType payload"
//	@Success	201	{object}	serializer.Response{data=model.ApplicationType}
//	@Router		/application-types [post]
func (h *ApplicationHandler) CreateApplicationType(c *gin.Context) {
	req := CreateApplicationTypeReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	t, err := h.svc.CreateType(c.Request.Context(), service.CreateApplicationTypeInput{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		serializer.Write(c, serializer.FromError(err))
		return
	}
	serializer.Write(c, serializer.Created(t))
}
