package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rahul-biziquick/BiziQuick/internal/lead/domain"
	leadrepo "github.com/rahul-biziquick/BiziQuick/internal/lead/repository"
	scoredomain "github.com/rahul-biziquick/BiziQuick/internal/leadscore/domain"
	"github.com/rahul-biziquick/BiziQuick/internal/tenantaccess"
	tenantdomain "github.com/rahul-biziquick/BiziQuick/internal/tenant/domain"
	userdomain "github.com/rahul-biziquick/BiziQuick/internal/user/domain"
)

var (
	// ErrInvalidInput wraps all validation failures.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnknownTenant is returned when the target tenant does not exist.
	ErrUnknownTenant = errors.New("tenant does not exist")
	// ErrForbidden is returned on cross-tenant access without an elevated role.
	ErrForbidden = errors.New("cross-tenant access denied")
	// ErrNotFound is returned when a lead is absent or archived.
	ErrNotFound = errors.New("lead not found")
	// ErrDuplicateContact is returned when a live lead already carries the
	// email or phone. The check is global, not tenant-scoped.
	ErrDuplicateContact = fmt.Errorf("%w: a lead with this email or phone already exists", ErrInvalidInput)
	// ErrNoEligibleAssignees is returned when round-robin assignment finds
	// no sales staff in the tenant.
	ErrNoEligibleAssignees = fmt.Errorf("%w: no eligible users to assign the lead to", ErrInvalidInput)
	// ErrInvalidAssignee is returned when an explicit assignee is unknown or
	// belongs to another tenant.
	ErrInvalidAssignee = fmt.Errorf("%w: assignee does not exist or belongs to another tenant", ErrInvalidInput)
)

// Roles eligible for round-robin lead assignment.
var assignableRoles = []string{userdomain.RoleSalesExecutive, userdomain.RoleManager}

const (
	defaultListDays    = 30
	defaultPageSize    = 10
	maxPageSize        = 100
	defaultBulkActions = "assign, delete, tag"
)

// LeadRepo is the lead storage needed by the service.
type LeadRepo interface {
	Create(ctx context.Context, l *domain.Lead) error
	GetByID(ctx context.Context, id int64) (*domain.Lead, error)
	List(ctx context.Context, f leadrepo.ListFilter) ([]*domain.Lead, error)
	Update(ctx context.Context, l *domain.Lead) error
	Archive(ctx context.Context, id int64) error
	FindLiveByEmail(ctx context.Context, email string) (*domain.Lead, error)
	FindLiveByPhone(ctx context.Context, phone string) (*domain.Lead, error)
	NextAssignmentPosition(ctx context.Context, tenantID string) (int64, error)
}

// ScoreRepo is the scoring-event storage needed by the service.
type ScoreRepo interface {
	Apply(ctx context.Context, s *scoredomain.LeadScore) error
	ListByTenant(ctx context.Context, tenantID string) ([]*scoredomain.LeadScore, error)
}

// TenantRepo is the minimal tenant repository needed by the service.
type TenantRepo interface {
	GetByID(ctx context.Context, id string) (*tenantdomain.Tenant, error)
}

// UserRepo is the minimal user repository needed by the service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	ListByRolesAndTenant(ctx context.Context, tenantID string, roles []string) ([]*userdomain.User, error)
}

// PolicyEvaluator decides cross-tenant access.
type PolicyEvaluator interface {
	EvaluateTenantAccess(ctx context.Context, actor tenantaccess.Actor, targetTenantID string) (bool, error)
}

// AuditLogger records lead events best-effort.
type AuditLogger interface {
	LogEvent(ctx context.Context, tenantID, userID, action, resource, metadata string)
}

// LeadService implements the lead lifecycle: creation with deduplication and
// round-robin assignment, merge-style updates, soft archival, and scoring.
type LeadService struct {
	leadRepo   LeadRepo
	scoreRepo  ScoreRepo
	tenantRepo TenantRepo
	userRepo   UserRepo
	policy     PolicyEvaluator
	audit      AuditLogger // nil disables audit logging
}

// NewLeadService returns a LeadService with the given dependencies.
func NewLeadService(leadRepo LeadRepo, scoreRepo ScoreRepo, tenantRepo TenantRepo, userRepo UserRepo, policy PolicyEvaluator, audit AuditLogger) *LeadService {
	return &LeadService{
		leadRepo:   leadRepo,
		scoreRepo:  scoreRepo,
		tenantRepo: tenantRepo,
		userRepo:   userRepo,
		policy:     policy,
		audit:      audit,
	}
}

// CreateLeadInput carries the fields accepted on lead creation.
type CreateLeadInput struct {
	TenantID   string
	Name       string
	Email      string
	Phone      string
	Company    string
	Source     string
	AssignedTo string
	CampaignID string
	Tags       []string
	Activities []domain.Activity
	Notes      []domain.Note
}

// Create validates, deduplicates, scores and assigns a new lead.
func (s *LeadService) Create(ctx context.Context, actor tenantaccess.Actor, in CreateLeadInput) (*domain.Lead, error) {
	if in.TenantID == "" {
		return nil, fmt.Errorf("%w: tenantId is required", ErrInvalidInput)
	}
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if err := s.checkTenant(ctx, actor, in.TenantID); err != nil {
		return nil, err
	}
	if err := s.checkDuplicates(ctx, in.Email, in.Phone, 0); err != nil {
		return nil, err
	}
	company := in.Company
	if company == "" {
		company = domain.CompanyFromEmail(in.Email)
	}
	assignedTo, err := s.resolveAssignee(ctx, in.TenantID, in.AssignedTo)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	tags := append([]string(nil), in.Tags...)
	if in.CampaignID != "" {
		tags = append(tags, "campaign-"+in.CampaignID)
	}
	activities := stampActivities(in.Activities, actor.ID, now)
	activities = append(activities, domain.Activity{Action: "created", By: actor.ID, At: now})

	lead := &domain.Lead{
		TenantID:   in.TenantID,
		Name:       in.Name,
		Email:      in.Email,
		Phone:      in.Phone,
		Company:    company,
		Source:     in.Source,
		Status:     domain.StatusNew,
		Score:      domain.SourceWeight(in.Source) + int64(len(in.Activities)),
		OwnerID:    actor.ID,
		AssignedTo: assignedTo,
		Tags:       tags,
		Activities: activities,
		Notes:      stampNotes(in.Notes, actor.ID, now),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.leadRepo.Create(ctx, lead); err != nil {
		return nil, err
	}
	s.logEvent(ctx, in.TenantID, actor.ID, "lead_create", fmt.Sprintf("id=%d assigned_to=%s", lead.ID, assignedTo))
	return lead, nil
}

// ListInput narrows a lead listing. Without CreatedDate the window defaults
// to the last 30 days.
type ListInput struct {
	TenantID    string
	Search      string
	Status      string
	Source      string
	OwnerID     string
	Score       *int64
	CreatedDate *time.Time
	Page        int32
	PageSize    int32
}

// List returns the tenant's non-archived leads matching the filter, newest first.
func (s *LeadService) List(ctx context.Context, actor tenantaccess.Actor, in ListInput) ([]*domain.Lead, error) {
	if in.TenantID == "" {
		return nil, fmt.Errorf("%w: tenantId is required", ErrInvalidInput)
	}
	if err := s.checkTenant(ctx, actor, in.TenantID); err != nil {
		return nil, err
	}

	var from, to time.Time
	if in.CreatedDate != nil {
		day := in.CreatedDate.UTC().Truncate(24 * time.Hour)
		from, to = day, day.Add(24*time.Hour)
	} else {
		from = time.Now().UTC().AddDate(0, 0, -defaultListDays)
	}
	page := in.Page
	if page < 1 {
		page = 1
	}
	size := in.PageSize
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	return s.leadRepo.List(ctx, leadrepo.ListFilter{
		TenantID: in.TenantID,
		Search:   in.Search,
		Status:   in.Status,
		Source:   in.Source,
		OwnerID:  in.OwnerID,
		Score:    in.Score,
		From:     from,
		To:       to,
		Limit:    size,
		Offset:   (page - 1) * size,
	})
}

// Get returns the lead when it is live and belongs to the tenant.
func (s *LeadService) Get(ctx context.Context, actor tenantaccess.Actor, tenantID string, id int64) (*domain.Lead, error) {
	if err := s.checkTenant(ctx, actor, tenantID); err != nil {
		return nil, err
	}
	return s.getLive(ctx, tenantID, id)
}

// UpdateLeadInput carries the merge-style update. Nil pointers keep the
// stored value; slices append.
type UpdateLeadInput struct {
	Name        *string
	Email       *string
	Phone       *string
	Company     *string
	Source      *string
	Status      *string
	AssignedTo  *string
	Tags        []string
	Activities  []domain.Activity
	Notes       []domain.Note
	Attachments []domain.Attachment
}

// Update merges scalar fields and appends to the lead's lists. Duplicate
// checks rerun only for a changed email or phone, and the company is
// re-derived only when the email changes without an explicit company.
func (s *LeadService) Update(ctx context.Context, actor tenantaccess.Actor, tenantID string, id int64, in UpdateLeadInput) (*domain.Lead, error) {
	if err := s.checkTenant(ctx, actor, tenantID); err != nil {
		return nil, err
	}
	lead, err := s.getLive(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	emailChanged := in.Email != nil && *in.Email != lead.Email
	phoneChanged := in.Phone != nil && *in.Phone != lead.Phone
	var checkEmail, checkPhone string
	if emailChanged {
		checkEmail = *in.Email
	}
	if phoneChanged {
		checkPhone = *in.Phone
	}
	if err := s.checkDuplicates(ctx, checkEmail, checkPhone, lead.ID); err != nil {
		return nil, err
	}

	if in.Name != nil {
		lead.Name = *in.Name
	}
	if emailChanged {
		lead.Email = *in.Email
	}
	if phoneChanged {
		lead.Phone = *in.Phone
	}
	if in.Company != nil {
		lead.Company = *in.Company
	} else if emailChanged {
		lead.Company = domain.CompanyFromEmail(lead.Email)
	}
	if in.Source != nil {
		lead.Source = *in.Source
	}
	if in.Status != nil {
		status := domain.Status(*in.Status)
		if !domain.StatusValid(status) {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *in.Status)
		}
		lead.Status = status
	}
	if in.AssignedTo != nil {
		assignee, err := s.validateAssignee(ctx, tenantID, *in.AssignedTo)
		if err != nil {
			return nil, err
		}
		lead.AssignedTo = assignee
	}

	now := time.Now().UTC()
	lead.Tags = append(lead.Tags, in.Tags...)
	lead.Activities = append(lead.Activities, stampActivities(in.Activities, actor.ID, now)...)
	lead.Notes = append(lead.Notes, stampNotes(in.Notes, actor.ID, now)...)
	lead.Attachments = append(lead.Attachments, stampAttachments(in.Attachments, actor.ID, now)...)
	lead.UpdatedAt = now

	if err := s.leadRepo.Update(ctx, lead); err != nil {
		return nil, err
	}
	s.logEvent(ctx, tenantID, actor.ID, "lead_update", fmt.Sprintf("id=%d", lead.ID))
	return lead, nil
}

// Archive soft-deletes the lead. Archived leads behave as absent everywhere.
func (s *LeadService) Archive(ctx context.Context, actor tenantaccess.Actor, tenantID string, id int64) error {
	if err := s.checkTenant(ctx, actor, tenantID); err != nil {
		return err
	}
	lead, err := s.getLive(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := s.leadRepo.Archive(ctx, lead.ID); err != nil {
		return err
	}
	s.logEvent(ctx, tenantID, actor.ID, "lead_archive", fmt.Sprintf("id=%d", lead.ID))
	return nil
}

// BulkAction applies assign, delete (archive) or tag over a set of leads.
// Every lead is validated before anything is touched, so a bad id rejects
// the whole batch.
func (s *LeadService) BulkAction(ctx context.Context, actor tenantaccess.Actor, tenantID, action string, ids []int64, value string) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: leadIds is required", ErrInvalidInput)
	}
	if err := s.checkTenant(ctx, actor, tenantID); err != nil {
		return err
	}

	leads := make([]*domain.Lead, 0, len(ids))
	for _, id := range ids {
		lead, err := s.getLive(ctx, tenantID, id)
		if err != nil {
			return err
		}
		leads = append(leads, lead)
	}

	now := time.Now().UTC()
	switch action {
	case "assign":
		assignee, err := s.validateAssignee(ctx, tenantID, value)
		if err != nil {
			return err
		}
		for _, lead := range leads {
			lead.AssignedTo = assignee
			lead.Activities = append(lead.Activities, domain.Activity{Action: "assigned", By: actor.ID, At: now})
			lead.UpdatedAt = now
			if err := s.leadRepo.Update(ctx, lead); err != nil {
				return err
			}
		}
	case "delete":
		for _, lead := range leads {
			if err := s.leadRepo.Archive(ctx, lead.ID); err != nil {
				return err
			}
		}
	case "tag":
		if value == "" {
			return fmt.Errorf("%w: tag value is required", ErrInvalidInput)
		}
		for _, lead := range leads {
			lead.Tags = append(lead.Tags, value)
			lead.UpdatedAt = now
			if err := s.leadRepo.Update(ctx, lead); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: action must be one of %s", ErrInvalidInput, defaultBulkActions)
	}
	s.logEvent(ctx, tenantID, actor.ID, "lead_bulk_"+action, fmt.Sprintf("count=%d", len(leads)))
	return nil
}

// ScoreInput carries a scoring event to apply to a lead.
type ScoreInput struct {
	TenantID  string
	LeadID    int64
	Event     string
	Points    int64
	Condition string
}

// AddScore records a scoring event and increments the lead's score by its
// points. Events only accumulate.
func (s *LeadService) AddScore(ctx context.Context, actor tenantaccess.Actor, in ScoreInput) (*scoredomain.LeadScore, error) {
	if in.Event == "" {
		return nil, fmt.Errorf("%w: event is required", ErrInvalidInput)
	}
	if err := s.checkTenant(ctx, actor, in.TenantID); err != nil {
		return nil, err
	}
	if _, err := s.getLive(ctx, in.TenantID, in.LeadID); err != nil {
		return nil, err
	}
	score := &scoredomain.LeadScore{
		TenantID:  in.TenantID,
		LeadID:    in.LeadID,
		Event:     in.Event,
		Points:    in.Points,
		Condition: in.Condition,
	}
	if err := s.scoreRepo.Apply(ctx, score); err != nil {
		return nil, err
	}
	s.logEvent(ctx, in.TenantID, actor.ID, "lead_score", fmt.Sprintf("lead=%d points=%d", in.LeadID, in.Points))
	return score, nil
}

// ListScores returns the tenant's scoring events.
func (s *LeadService) ListScores(ctx context.Context, actor tenantaccess.Actor, tenantID string) ([]*scoredomain.LeadScore, error) {
	if err := s.checkTenant(ctx, actor, tenantID); err != nil {
		return nil, err
	}
	return s.scoreRepo.ListByTenant(ctx, tenantID)
}

// checkTenant verifies the tenant exists and the actor may act on it.
func (s *LeadService) checkTenant(ctx context.Context, actor tenantaccess.Actor, tenantID string) error {
	if tenantID == "" {
		return fmt.Errorf("%w: tenantId is required", ErrInvalidInput)
	}
	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return err
	}
	if tenant == nil {
		return ErrUnknownTenant
	}
	allowed, err := s.policy.EvaluateTenantAccess(ctx, actor, tenantID)
	if err != nil {
		allowed = tenantaccess.Allowed(actor, tenantID)
	}
	if !allowed {
		return ErrForbidden
	}
	return nil
}

// getLive fetches a lead and treats archived or foreign-tenant rows as absent.
func (s *LeadService) getLive(ctx context.Context, tenantID string, id int64) (*domain.Lead, error) {
	lead, err := s.leadRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if lead == nil || lead.Archived || lead.TenantID != tenantID {
		return nil, ErrNotFound
	}
	return lead, nil
}

// checkDuplicates rejects an email or phone already held by another live
// lead anywhere. excludeID skips the lead being updated.
func (s *LeadService) checkDuplicates(ctx context.Context, email, phone string, excludeID int64) error {
	if email != "" {
		found, err := s.leadRepo.FindLiveByEmail(ctx, email)
		if err != nil {
			return err
		}
		if found != nil && found.ID != excludeID {
			return ErrDuplicateContact
		}
	}
	if phone != "" {
		found, err := s.leadRepo.FindLiveByPhone(ctx, phone)
		if err != nil {
			return err
		}
		if found != nil && found.ID != excludeID {
			return ErrDuplicateContact
		}
	}
	return nil
}

// resolveAssignee picks the round-robin target when none is supplied,
// otherwise validates the explicit one.
func (s *LeadService) resolveAssignee(ctx context.Context, tenantID, assignedTo string) (string, error) {
	if assignedTo != "" {
		return s.validateAssignee(ctx, tenantID, assignedTo)
	}
	eligible, err := s.userRepo.ListByRolesAndTenant(ctx, tenantID, assignableRoles)
	if err != nil {
		return "", err
	}
	if len(eligible) == 0 {
		return "", ErrNoEligibleAssignees
	}
	position, err := s.leadRepo.NextAssignmentPosition(ctx, tenantID)
	if err != nil {
		return "", err
	}
	return eligible[(position-1)%int64(len(eligible))].ID, nil
}

// validateAssignee accepts a user in the tenant or one with no tenant at all.
func (s *LeadService) validateAssignee(ctx context.Context, tenantID, userID string) (string, error) {
	if userID == "" {
		return "", ErrInvalidAssignee
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil || (user.TenantID != "" && user.TenantID != tenantID) {
		return "", ErrInvalidAssignee
	}
	return user.ID, nil
}

func (s *LeadService) logEvent(ctx context.Context, tenantID, userID, action, metadata string) {
	if s.audit == nil {
		return
	}
	s.audit.LogEvent(ctx, tenantID, userID, action, "lead", metadata)
}

func stampActivities(in []domain.Activity, actorID string, at time.Time) []domain.Activity {
	out := make([]domain.Activity, 0, len(in))
	for _, a := range in {
		if a.By == "" {
			a.By = actorID
		}
		if a.At.IsZero() {
			a.At = at
		}
		out = append(out, a)
	}
	return out
}

func stampNotes(in []domain.Note, actorID string, at time.Time) []domain.Note {
	out := make([]domain.Note, 0, len(in))
	for _, n := range in {
		if n.By == "" {
			n.By = actorID
		}
		if n.At.IsZero() {
			n.At = at
		}
		out = append(out, n)
	}
	return out
}

func stampAttachments(in []domain.Attachment, actorID string, at time.Time) []domain.Attachment {
	out := make([]domain.Attachment, 0, len(in))
	for _, a := range in {
		if a.By == "" {
			a.By = actorID
		}
		if a.At.IsZero() {
			a.At = at
		}
		out = append(out, a)
	}
	return out
}
