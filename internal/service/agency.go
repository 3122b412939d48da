package service

import (
	"context"
	"time"

	"github.com/colectra/backend/internal/domain"
	"github.com/colectra/backend/internal/repository"
	"github.com/go-playground/validator/v10"
)

// AgencyService handles agency management: profile, zones, employees, and
// published tariffs.
type AgencyService struct {
	agencies  *repository.AgencyRepository
	zones     *repository.ZoneRepository
	employees *repository.EmployeeRepository
	tariffs   *repository.TariffRepository
	users     *repository.UserRepository
	validate  *validator.Validate
}

// NewAgencyService creates a new AgencyService.
func NewAgencyService(
	agencies *repository.AgencyRepository,
	zones *repository.ZoneRepository,
	employees *repository.EmployeeRepository,
	tariffs *repository.TariffRepository,
	users *repository.UserRepository,
) *AgencyService {
	return &AgencyService{
		agencies:  agencies,
		zones:     zones,
		employees: employees,
		tariffs:   tariffs,
		users:     users,
		validate:  validator.New(),
	}
}

// Create registers a new agency owned by the calling user. One agency per
// owner.
func (s *AgencyService) Create(ctx context.Context, ownerUserID string, req *domain.CreateAgencyRequest) (*domain.Agency, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, domain.ErrValidation(formatValidationErrors(err))
	}

	existing, err := s.agencies.FindByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, domain.ErrInternal("failed to check agency ownership", err)
	}
	if existing != nil {
		return nil, domain.ErrConflict("you already own an agency")
	}

	agency := &domain.Agency{
		ID:          domain.NewID(),
		OwnerUserID: ownerUserID,
		Name:        req.Name,
		City:        req.City,
		Phone:       req.Phone,
		CreatedAt:   time.Now(),
	}
	if err := s.agencies.Create(ctx, agency); err != nil {
		return nil, domain.ErrInternal("failed to create agency", err)
	}
	return agency, nil
}

// Get returns an agency by ID.
func (s *AgencyService) Get(ctx context.Context, id string) (*domain.Agency, error) {
	agency, err := s.agencies.FindByID(ctx, id)
	if err != nil {
		return nil, domain.ErrInternal("failed to load agency", err)
	}
	if agency == nil {
		return nil, domain.ErrNotFound("agency not found")
	}
	return agency, nil
}

// List returns all agencies.
func (s *AgencyService) List(ctx context.Context) ([]*domain.Agency, error) {
	agencies, err := s.agencies.ListAll(ctx)
	if err != nil {
		return nil, domain.ErrInternal("failed to list agencies", err)
	}
	return agencies, nil
}

// RequireOwner loads an agency and checks the caller owns it. Admins pass.
func (s *AgencyService) RequireOwner(ctx context.Context, agencyID, userID, role string) (*domain.Agency, error) {
	agency, err := s.Get(ctx, agencyID)
	if err != nil {
		return nil, err
	}
	if role != domain.RoleAdmin && agency.OwnerUserID != userID {
		return nil, domain.ErrForbidden("not the owner of this agency")
	}
	return agency, nil
}

// CreateZone defines a new service zone for an agency.
func (s *AgencyService) CreateZone(ctx context.Context, agencyID string, req *domain.CreateZoneRequest) (*domain.Zone, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, domain.ErrValidation(formatValidationErrors(err))
	}

	zone := &domain.Zone{
		ID:         domain.NewID(),
		AgencyID:   agencyID,
		Name:       req.Name,
		District:   req.District,
		PickupNote: req.PickupNote,
		CreatedAt:  time.Now(),
	}
	if err := s.zones.Create(ctx, zone); err != nil {
		return nil, domain.ErrInternal("failed to create zone", err)
	}
	return zone, nil
}

// ListZones returns an agency's zones.
func (s *AgencyService) ListZones(ctx context.Context, agencyID string) ([]*domain.Zone, error) {
	zones, err := s.zones.ListByAgency(ctx, agencyID)
	if err != nil {
		return nil, domain.ErrInternal("failed to list zones", err)
	}
	return zones, nil
}

// HireEmployee links an existing user to the agency as a collector or
// supervisor.
func (s *AgencyService) HireEmployee(ctx context.Context, agencyID string, req *domain.CreateEmployeeRequest) (*domain.Employee, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, domain.ErrValidation(formatValidationErrors(err))
	}

	user, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		return nil, domain.ErrInternal("failed to load user", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound("user not found")
	}

	var zoneID *string
	if req.ZoneID != "" {
		zone, err := s.zones.FindByID(ctx, req.ZoneID)
		if err != nil {
			return nil, domain.ErrInternal("failed to load zone", err)
		}
		if zone == nil || zone.AgencyID != agencyID {
			return nil, domain.ErrNotFound("zone not found")
		}
		zoneID = &req.ZoneID
	}

	employee := &domain.Employee{
		ID:        domain.NewID(),
		AgencyID:  agencyID,
		UserID:    req.UserID,
		Job:       req.Job,
		ZoneID:    zoneID,
		Active:    true,
		CreatedAt: time.Now(),
	}
	if err := s.employees.Create(ctx, employee); err != nil {
		return nil, err
	}
	return employee, nil
}

// ListEmployees returns an agency's employees.
func (s *AgencyService) ListEmployees(ctx context.Context, agencyID string) ([]*domain.Employee, error) {
	employees, err := s.employees.ListByAgency(ctx, agencyID)
	if err != nil {
		return nil, domain.ErrInternal("failed to list employees", err)
	}
	return employees, nil
}

// SetEmployeeActive toggles an employee's active flag.
func (s *AgencyService) SetEmployeeActive(ctx context.Context, agencyID, employeeID string, active bool) error {
	employee, err := s.employees.FindByID(ctx, employeeID)
	if err != nil {
		return domain.ErrInternal("failed to load employee", err)
	}
	if employee == nil || employee.AgencyID != agencyID {
		return domain.ErrNotFound("employee not found")
	}
	if err := s.employees.SetActive(ctx, employeeID, active); err != nil {
		return domain.ErrInternal("failed to update employee", err)
	}
	return nil
}

// PublishTariff publishes a new price plan for an agency.
func (s *AgencyService) PublishTariff(ctx context.Context, agencyID string, req *domain.CreateTariffRequest) (*domain.Tariff, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, domain.ErrValidation(formatValidationErrors(err))
	}

	tariff := &domain.Tariff{
		ID:             domain.NewID(),
		AgencyID:       agencyID,
		Label:          req.Label,
		Plan:           req.Plan,
		Price:          req.Price,
		PassesPerMonth: req.PassesPerMonth,
		Description:    req.Description,
		CreatedAt:      time.Now(),
	}
	if err := s.tariffs.Create(ctx, tariff); err != nil {
		return nil, domain.ErrInternal("failed to create tariff", err)
	}
	return tariff, nil
}

// ListTariffs returns an agency's published tariffs.
func (s *AgencyService) ListTariffs(ctx context.Context, agencyID string) ([]*domain.Tariff, error) {
	tariffs, err := s.tariffs.ListByAgency(ctx, agencyID)
	if err != nil {
		return nil, domain.ErrInternal("failed to list tariffs", err)
	}
	return tariffs, nil
}

// ListClients returns the agency's current client roster.
func (s *AgencyService) ListClients(ctx context.Context, agencyID string) ([]*domain.Client, error) {
	clients, err := s.agencies.ListClients(ctx, agencyID)
	if err != nil {
		return nil, domain.ErrInternal("failed to list clients", err)
	}
	return clients, nil
}
