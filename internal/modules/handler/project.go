package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aoba-arch/permitdesk/internal/modules/model"
	"github.com/aoba-arch/permitdesk/internal/modules/serializer"
	"github.com/aoba-arch/permitdesk/internal/modules/service"
)

type ProjectHandler struct {
	svc service.ProjectService
}

func NewProjectHandler(s service.ProjectService) *ProjectHandler {
	return &ProjectHandler{svc: s}
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid id", err))
		return 0, false
	}
	return uint(id), true
}

// ListProjects godoc
//
//	@Summary		List projects
//	@Description	List projects with optional status filter and pagination
//	@Tags			project
//	@Produce		json
//	@Param			skip	query	int		false	"Offset"
//	@Param			limit	query	int		false	"Page size"
//	@Param			status	query	string	false	"Status filter"
//	@Success		200	{object}	serializer.Response{data=service.ListProjectsOutput}
//	@Router			/projects [get]
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	out, err := h.svc.List(c.Request.Context(), service.ListProjectsInput{
		Skip:   skip,
		Limit:  limit,
		Status: model.ProjectStatus(c.Query("status")),
	})
	if err != nil {
		serializer.Write(c, serializer.FromError(err))
		return
	}
	serializer.Write(c, serializer.OK(out))
}

// CreateProject godoc
//
//	@Summary		Create project
//	@Description	Create a project with its customer and site, assigning the next project code
//	@Tags			project
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	service.CreateProjectInput	true	"CreateProject payload"
//	@Success		201	{object}	serializer.Response{data=model.Project}
//	@Router			/projects [post]
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	req := service.CreateProjectInput{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	p, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		serializer.Write(c, serializer.FromError(err))
		return
	}
	serializer.Write(c, serializer.Created(p))
}

// GetProject godoc
//
//	@Summary	Get project
//	@Tags		project
//	@Produce	json
//	@Param		id	path	int	true	"Project ID"
//	@Success	200	{object}	serializer.Response{data=model.Project}
//	@Router		/projects/{id} [get]
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		serializer.Write(c, serializer.FromError(err))
		return
	}
	serializer.Write(c, serializer.OK(p))
}

// GetProjectByCode godoc
//
//	@Summary	Get project by code
//	@Tags		project
//	@Produce	json
//	@Param		code	path	string	true	"Project code"
//	@Success	200	{object}	serializer.Response{data=model.Project}
//	@Router		/projects/code/{code} [get]
func (h *ProjectHandler) GetProjectByCode(c *gin.Context) {
	p, err := h.svc.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		serializer.Write(c, serializer.FromError(err))
		return
	}
	serializer.Write(c, serializer.OK(p))
}

// ListProjectsByStatus godoc
//
//	@Summary	List projects in one status
//	@Tags		project
//	@Produce	json
//	@Param		status	path	string	true	"Status"
//	@Success	200	{object}	serializer.Response{data=[]model.Project}
//	@Router		/projects/status/{status} [get]
func (h *ProjectHandler) ListProjectsByStatus(c *gin.Context) {
	items, err := h.svc.ListByStatus(c.Request.Context(), model.ProjectStatus(c.Param("status")))
	if err != nil {
		serializer.Write(c, serializer.FromError(err))
		return
	}
	serializer.Write(c, serializer.OK(items))
}

// SearchProjects godoc
//
//	@Summary		Search projects
//	@Description	Match project name, project code or owner name
//	@Tags			project
//	@Produce		json
//	@Param			q	query	string	true	"Search text"
//	@Success		200	{object}	serializer.Response{data=[]model.Project}
//	@Router			/projects/search [get]
func (h *ProjectHandler) SearchProjects(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("q is required", nil))
		return
	}
	items, err := h.svc.Search(c.Request.Context(), q)
	if err != nil {
		serializer.Write(c, serializer.FromError(err))
		return
	}
	serializer.Write(c, serializer.OK(items))
}

// ProjectSummary godoc
//
//	@Summary	Project status summary
//	@Tags		project
//	@Produce	json
//	@Success	200	{object}	serializer.Response{data=service.ProjectSummary}
//	@Router		/projects/summary [get]
func (h *ProjectHandler) ProjectSummary(c *gin.Context) {
	out, err := h.svc.Summary(c.Request.Context())
	if err != nil {
		serializer.Write(c, serializer.FromError(err))
		return
	}
	serializer.Write(c, serializer.OK(out))
}

// UpdateProject godoc
//
//	@Summary		Update project
//	@Description	Partial update of project, customer, site and building with per-field audit
//	@Tags			project
//	@Accept			json
//	@Produce		json
//	@Param			id		path	int						true	"Project ID"
//	@Param			payload	body	service.ProjectPatch	true	"Fields to change"
//	@Success		200	{object}	serializer.Response{data=model.Project}
//	@Router			/projects/{id} [put]
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	patch := service.ProjectPatch{}
	if err := c.ShouldBind(&patch); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	p, err := h.svc.UpdateWithAudit(c.Request.Context(), id, patch)
	if err != nil {
		serializer.Write(c, serializer.FromError(err))
		return
	}
	serializer.Write(c, serializer.OK(p))
}

// UpdateFinancial godoc
//
//	@Summary	Update project financial data
//	@Tags		project
//	@Accept		json
//	@Produce	json
//	@Param		id		path	int						true	"Project ID"
//	@Param		payload	body	service.FinancialPatch	true	"Fields to change"
//	@Success	200	{object}	serializer.Response{data=model.Financial}
//	@Router		/projects/{id}/financial [put]
func (h *ProjectHandler) UpdateFinancial(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	patch := service.FinancialPatch{}
	if err := c.ShouldBind(&patch); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	f, err := h.svc.UpdateFinancial(c.Request.Context(), id, patch)
	if err != nil {
		serializer.Write(c, serializer.FromError(err))
		return
	}
	serializer.Write(c, serializer.OK(f))
}

// UpdateSchedule godoc
//
//	@Summary	Update project inspection schedule
//	@Tags		project
//	@Accept		json
//	@Produce	json
//	@Param		id		path	int						true	"Project ID"
//	@Param		payload	body	service.SchedulePatch	true	"Fields to change"
//	@Success	200	{object}	serializer.Response{data=model.Schedule}
//	@Router		/projects/{id}/schedule [put]
func (h *ProjectHandler) UpdateSchedule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	patch := service.SchedulePatch{}
	if err := c.ShouldBind(&patch); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	sc, err := h.svc.UpdateSchedule(c.Request.Context(), id, patch)
	if err != nil {
		serializer.Write(c, serializer.FromError(err))
		return
	}
	serializer.Write(c, serializer.OK(sc))
}

// DeleteProject godoc
//
//	@Summary	Delete project
//	@Tags		project
//	@Produce	json
//	@Param		id	path	int	true	"Project ID"
//	@Success	200	{object}	serializer.Response
//	@Router		/projects/{id} [delete]
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
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

// ProjectAuditTrail godoc
//
//	@Summary		Project audit trail
//	@Description	Change history for the project and its owned entities, newest first
//	@Tags			project
//	@Produce		json
//	@Param			id		path	int		true	"Project ID"
//	@Param			model	query	string	false	"Target model"	default(Project)
//	@Success		200	{object}	serializer.Response{data=[]model.AuditTrail}
//	@Router			/projects/{id}/audit-trail [get]
func (h *ProjectHandler) ProjectAuditTrail(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	target := c.DefaultQuery("model", "Project")
	entries, err := h.svc.AuditTrail(c.Request.Context(), target, id)
	if err != nil {
		serializer.Write(c, serializer.FromError(err))
		return
	}
	serializer.Write(c, serializer.OK(entries))
}
