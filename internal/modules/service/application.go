package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/aoba-arch/permitdesk/internal/modules/model"
	"github.com/aoba-arch/permitdesk/internal/modules/repo"
	"github.com/aoba-arch/permitdesk/internal/pkg/apperr"
)

// Action is a workflow trigger. These four are the only legal ways to move
// an application between statuses.
type Action string

const (
	ActionSubmit   Action = "submit"
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionWithdraw Action = "withdraw"
)

// transitions lists the actions allowed from each status. COMPLETED is
// terminal.
var transitions = map[model.ApplicationStatus][]Action{
	model.AppStatusDraft:     {ActionSubmit, ActionWithdraw},
	model.AppStatusInReview:  {ActionApprove, ActionReject, ActionWithdraw},
	model.AppStatusApproved:  {ActionWithdraw},
	model.AppStatusRejected:  {ActionSubmit, ActionWithdraw},
	model.AppStatusWithdrawn: {ActionSubmit},
	model.AppStatusCompleted: {},
}

var actionTarget = map[Action]model.ApplicationStatus{
	ActionSubmit:   model.AppStatusInReview,
	ActionApprove:  model.AppStatusApproved,
	ActionReject:   model.AppStatusRejected,
	ActionWithdraw: model.AppStatusWithdrawn,
}

func transitionAllowed(current model.ApplicationStatus, action Action) bool {
	for _, a := range transitions[current] {
		if a == action {
			return true
		}
	}
	return false
}

type ListApplicationsInput struct {
	Status    model.ApplicationStatus
	ProjectID uint
	Skip      int
	Limit     int
}

type ListApplicationsOutput struct {
	Items []model.Application `json:"applications"`
	Total int64               `json:"total"`
	Skip  int                 `json:"skip"`
	Limit int                 `json:"limit"`
}

type CreateApplicationInput struct {
	ProjectID         uint
	ApplicationTypeID uint
	Notes             string
}

type CreateApplicationTypeInput struct {
	Code        string
	Name        string
	Description string
}

type ApplicationSummary struct {
	Total            int64                             `json:"total_applications"`
	StatusCounts     map[model.ApplicationStatus]int64 `json:"status_counts"`
	NewThisMonth     int64                             `json:"new_this_month"`
	PendingApprovals int64                             `json:"pending_approvals"`
}

type ApplicationService interface {
	List(ctx context.Context, in ListApplicationsInput) (*ListApplicationsOutput, error)
	GetByID(ctx context.Context, id uint) (*model.Application, error)
	Create(ctx context.Context, in CreateApplicationInput) (*model.Application, error)
	Update(ctx context.Context, id uint, patch ApplicationPatch) (*model.Application, error)
	ExecuteAction(ctx context.Context, id uint, action Action, comment string) (*model.Application, error)
	Delete(ctx context.Context, id uint) error
	AuditTrail(ctx context.Context, targetModel string, targetID uint) ([]model.AuditTrail, error)
	Summary(ctx context.Context) (*ApplicationSummary, error)
	ListTypes(ctx context.Context, includeInactive bool) ([]model.ApplicationType, error)
	CreateType(ctx context.Context, in CreateApplicationTypeInput) (*model.ApplicationType, error)
}

type applicationService struct {
	r          repo.ApplicationRepo
	projects   repo.ProjectRepo
	audits     repo.AuditRepo
	log        *zap.Logger
	notifier   Notifier
	docgen     DocumentGenerator
	rdb        *redis.Client
	summaryTTL time.Duration
	docDir     string
}

func NewApplicationService(
	r repo.ApplicationRepo,
	projects repo.ProjectRepo,
	audits repo.AuditRepo,
	log *zap.Logger,
	notifier Notifier,
	docgen DocumentGenerator,
	rdb *redis.Client,
	summaryTTL time.Duration,
	docDir string,
) ApplicationService {
	return &applicationService{
		r:          r,
		projects:   projects,
		audits:     audits,
		log:        log,
		notifier:   notifier,
		docgen:     docgen,
		rdb:        rdb,
		summaryTTL: summaryTTL,
		docDir:     docDir,
	}
}

const applicationSummaryKey = "permitdesk:summary:applications"

func (s *applicationService) List(ctx context.Context, in ListApplicationsInput) (*ListApplicationsOutput, error) {
	items, total, err := s.r.List(ctx, repo.ApplicationFilter{
		Status:    in.Status,
		ProjectID: in.ProjectID,
		Skip:      in.Skip,
		Limit:     in.Limit,
	})
	if err != nil {
		return nil, err
	}
	return &ListApplicationsOutput{Items: items, Total: total, Skip: in.Skip, Limit: in.Limit}, nil
}

func (s *applicationService) GetByID(ctx context.Context, id uint) (*model.Application, error) {
	return s.r.Get(ctx, id)
}

func (s *applicationService) Create(ctx context.Context, in CreateApplicationInput) (*model.Application, error) {
	if _, err := s.projects.GetByID(ctx, in.ProjectID); err != nil {
		return nil, err
	}
	appType, err := s.r.GetType(ctx, in.ApplicationTypeID)
	if err != nil {
		return nil, err
	}
	if !appType.IsActive {
		return nil, apperr.Validation("application_type_id", "application type is inactive")
	}

	a := &model.Application{
		ProjectID:         in.ProjectID,
		ApplicationTypeID: in.ApplicationTypeID,
		Status:            model.AppStatusDraft,
		WorkflowStep:      0,
		Version:           1,
		Notes:             in.Notes,
	}
	audit := &model.AuditTrail{
		TargetModel: "Application",
		FieldName:   "status",
		NewValue:    string(model.AppStatusDraft),
		Action:      model.AuditCreate,
	}
	if err := s.r.Create(ctx, a, audit); err != nil {
		return nil, err
	}

	s.invalidateSummary(ctx)
	created, err := s.r.Get(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	notify(ctx, s.notifier, s.log, "application.created", created)
	return created, nil
}

func (s *applicationService) Update(ctx context.Context, id uint, patch ApplicationPatch) (*model.Application, error) {
	a, err := s.r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	d := newEntityDiff("Application", a.ID)
	d.str("notes", a.Notes, patch.Notes)
	d.str("rejection_reason", a.RejectionReason, patch.RejectionReason)
	d.str("approval_comment", a.ApprovalComment, patch.ApprovalComment)
	d.date("completed_date", a.CompletedDate, patch.CompletedDate)

	if len(d.changes) > 0 {
		if err := s.r.UpdateFields(ctx, a.ID, d.changes, d.audits); err != nil {
			return nil, err
		}
	}

	updated, err := s.r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(d.changes) > 0 {
		notify(ctx, s.notifier, s.log, "application.updated", updated)
	}
	return updated, nil
}

// ExecuteAction validates the transition, applies its side effects and
// writes exactly one WORKFLOW audit row, all in one transaction. Document
// generation and the change broadcast run after the commit and cannot fail
// it.
func (s *applicationService) ExecuteAction(ctx context.Context, id uint, action Action, comment string) (*model.Application, error) {
	a, err := s.r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(a.Status, action) {
		return nil, apperr.InvalidTransition(string(a.Status), string(action))
	}

	oldStatus := a.Status
	loadedVersion := a.Version
	today := datatypes.Date(time.Now())

	a.Status = actionTarget[action]
	switch action {
	case ActionSubmit:
		a.SubmittedDate = &today
		a.WorkflowStep = 1
	case ActionApprove:
		a.ApprovedDate = &today
		a.ApprovalComment = comment
		a.WorkflowStep = 2
		a.GeneratedDocumentPath = s.documentPath(a.ID)
	case ActionReject:
		a.RejectedDate = &today
		a.RejectionReason = comment
		a.WorkflowStep = 0
	case ActionWithdraw:
		a.WorkflowStep = 0
	}

	audit := &model.AuditTrail{
		TargetModel: "Application",
		TargetID:    a.ID,
		FieldName:   "status",
		OldValue:    string(oldStatus),
		NewValue:    string(a.Status),
		Action:      model.AuditWorkflow,
	}
	if err := s.r.ExecuteTransition(ctx, a, loadedVersion, audit); err != nil {
		return nil, err
	}

	// Post-commit side effects: both are decoupled from the transition and
	// must never surface as workflow errors.
	if action == ActionApprove && s.docgen != nil {
		s.docgen.Request(a.ID, a.GeneratedDocumentPath)
	}
	s.invalidateSummary(ctx)

	updated, err := s.r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	notify(ctx, s.notifier, s.log, "application.workflow", updated)
	return updated, nil
}

func (s *applicationService) Delete(ctx context.Context, id uint) error {
	a, err := s.r.Get(ctx, id)
	if err != nil {
		return err
	}
	audit := &model.AuditTrail{
		TargetModel: "Application",
		TargetID:    a.ID,
		FieldName:   "status",
		OldValue:    string(a.Status),
		Action:      model.AuditDelete,
	}
	if err := s.r.Delete(ctx, a, audit); err != nil {
		return err
	}
	s.invalidateSummary(ctx)
	notify(ctx, s.notifier, s.log, "application.deleted", map[string]uint{"id": id})
	return nil
}

func (s *applicationService) AuditTrail(ctx context.Context, targetModel string, targetID uint) ([]model.AuditTrail, error) {
	return s.audits.ListByTarget(ctx, targetModel, targetID)
}

func (s *applicationService) Summary(ctx context.Context) (*ApplicationSummary, error) {
	if cached := s.cachedSummary(ctx); cached != nil {
		return cached, nil
	}

	counts, err := s.r.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	firstOfMonth := time.Date(time.Now().Year(), time.Now().Month(), 1, 0, 0, 0, 0, time.Local)
	newThisMonth, err := s.r.CountCreatedSince(ctx, firstOfMonth)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	out := &ApplicationSummary{
		Total:            total,
		StatusCounts:     counts,
		NewThisMonth:     newThisMonth,
		PendingApprovals: counts[model.AppStatusInReview],
	}
	s.cacheSummary(ctx, out)
	return out, nil
}

func (s *applicationService) ListTypes(ctx context.Context, includeInactive bool) ([]model.ApplicationType, error) {
	return s.r.ListTypes(ctx, includeInactive)
}

func (s *applicationService) CreateType(ctx context.Context, in CreateApplicationTypeInput) (*model.ApplicationType, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" {
		return nil, apperr.Validation("code", "required")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("name", "required")
	}
	t := &model.ApplicationType{
		Code:        code,
		Name:        name,
		Description: in.Description,
		IsActive:    true,
	}
	if err := s.r.CreateType(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *applicationService) documentPath(id uint) string {
	return fmt.Sprintf("%s/application_%d_%s.docx", s.docDir, id, time.Now().Format("20060102_150405"))
}

// Redis is a read-through cache here: every failure is a miss.

func (s *applicationService) cachedSummary(ctx context.Context) *ApplicationSummary {
	if s.rdb == nil {
		return nil
	}
	raw, err := s.rdb.Get(ctx, applicationSummaryKey).Bytes()
	if err != nil {
		return nil
	}
	var out ApplicationSummary
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return &out
}

func (s *applicationService) cacheSummary(ctx context.Context, v *ApplicationSummary) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, applicationSummaryKey, raw, s.summaryTTL).Err(); err != nil {
		s.log.Sugar().Debugw("summary cache write failed", "err", err)
	}
}

func (s *applicationService) invalidateSummary(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, applicationSummaryKey).Err(); err != nil {
		s.log.Sugar().Debugw("summary cache invalidation failed", "err", err)
	}
}
