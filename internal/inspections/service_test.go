package inspections

import (
	"testing"
	"time"

	"assetdesk/pkg/apperrors"
	"assetdesk/pkg/auditlog"
	"assetdesk/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type fakeTxRunner struct{}

func (f *fakeTxRunner) RunInTransaction(fn func(tx *goqu.TxDatabase) error) error {
	return fn(nil)
}

type allowAll struct{}

func (a *allowAll) HasPermission(actorID int, module, action string) (bool, error) {
	return true, nil
}

type noopAudit struct{}

func (n *noopAudit) Log(actorID *int, action string, data any, item auditlog.Auditable) {}

type stubAssignmentFinder struct {
	active *models.Assignment
}

func (s *stubAssignmentFinder) FindActiveAssignmentForAsset(assetID int) (*models.Assignment, error) {
	return s.active, nil
}

func (s *stubAssignmentFinder) GetAssignment(assignmentID int) (*models.Assignment, error) {
	return s.active, nil
}

type stubTicketCreator struct {
	ticket *models.Ticket
	calls  int
}

func (s *stubTicketCreator) CreateFromInspection(actorID int, inspection models.Inspection) (*models.Ticket, error) {
	s.calls++
	return s.ticket, nil
}

type recordingNotifier struct {
	reports int
}

func (n *recordingNotifier) SendInspectionReport(inspection models.Inspection, assignment models.Assignment) error {
	n.reports++
	return nil
}

func (n *recordingNotifier) SendTicketCreated(ticket models.Ticket) error { return nil }

func (n *recordingNotifier) SendTicketAssigned(ticket models.Ticket, assigneeID int) error {
	return nil
}

type MockInspectionRepository struct {
	mock.Mock
}

func (m *MockInspectionRepository) InsertInspection(tx *goqu.TxDatabase, inspection models.Inspection) (int, error) {
	args := m.Called(tx, inspection)
	return args.Int(0), args.Error(1)
}

func (m *MockInspectionRepository) GetInspection(inspectionID int) (*models.Inspection, error) {
	args := m.Called(inspectionID)
	if inspection, ok := args.Get(0).(*models.Inspection); ok {
		return inspection, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockInspectionRepository) ListInspections(filter ListFilter) ([]models.Inspection, error) {
	args := m.Called(filter)
	return args.Get(0).([]models.Inspection), args.Error(1)
}

func (m *MockInspectionRepository) UpdateInspection(tx *goqu.TxDatabase, inspectionID int, fields goqu.Record) error {
	args := m.Called(tx, inspectionID, fields)
	return args.Error(0)
}

func (m *MockInspectionRepository) DeleteInspection(tx *goqu.TxDatabase, inspectionID int) error {
	args := m.Called(tx, inspectionID)
	return args.Error(0)
}

type MockAssetStore struct {
	mock.Mock
}

func (m *MockAssetStore) GetAsset(assetID int) (*models.Asset, error) {
	args := m.Called(assetID)
	if asset, ok := args.Get(0).(*models.Asset); ok {
		return asset, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAssetStore) UpdateStatus(tx *goqu.TxDatabase, assetID int, status string) error {
	args := m.Called(tx, assetID, status)
	return args.Error(0)
}

func (m *MockAssetStore) UpdateCondition(tx *goqu.TxDatabase, assetID int, condition string) error {
	args := m.Called(tx, assetID, condition)
	return args.Error(0)
}

func (m *MockAssetStore) ReserveStock(tx *goqu.TxDatabase, assetID, quantity int) error {
	args := m.Called(tx, assetID, quantity)
	return args.Error(0)
}

func (m *MockAssetStore) RestoreStock(tx *goqu.TxDatabase, assetID, quantity int) error {
	args := m.Called(tx, assetID, quantity)
	return args.Error(0)
}

type fixture struct {
	repo        *MockInspectionRepository
	assets      *MockAssetStore
	assignments *stubAssignmentFinder
	tickets     *stubTicketCreator
	notifier    *recordingNotifier
	service     *Service
}

func newFixture() *fixture {
	f := &fixture{
		repo:        new(MockInspectionRepository),
		assets:      new(MockAssetStore),
		assignments: &stubAssignmentFinder{},
		tickets:     &stubTicketCreator{ticket: &models.Ticket{ID: 77, Number: "IT-2025-001"}},
		notifier:    &recordingNotifier{},
	}
	f.service = NewService(&fakeTxRunner{}, f.repo, f.assets, f.assignments, f.tickets, f.notifier, &allowAll{}, &noopAudit{}, zap.NewNop())
	f.service.now = func() time.Time {
		return time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	}
	return f
}

func TestCreateInspectionScoresAndLinksAssignment(t *testing.T) {
	f := newFixture()
	f.assignments.active = &models.Assignment{ID: 5, Number: "ASG-2025-0001", HolderID: 9, Status: models.AssignmentStatusActive}

	f.assets.On("GetAsset", 11).Return(&models.Asset{ID: 11, Code: "NB-001"}, nil).Once()
	f.repo.On("InsertInspection", mock.Anything, mock.MatchedBy(func(i models.Inspection) bool {
		return i.OverallCondition == "broken" &&
			i.DamageFound &&
			i.AssignmentID != nil && *i.AssignmentID == 5 &&
			i.DamageStatus != nil && *i.DamageStatus == models.DamageStatusPendingReview &&
			i.DamageSeverity == nil &&
			i.RepairStatus == nil
	})).Return(31, nil).Once()
	f.assets.On("UpdateCondition", mock.Anything, 11, "broken").Return(nil).Once()

	inspection, err := f.service.CreateInspection(2, CreateInspectionRequest{
		AssetID:  11,
		Type:     models.InspectionTypeCheckin,
		Exterior: "good",
		Screen:   "cracked",
	})

	assert.NoError(t, err)
	assert.Equal(t, 31, inspection.ID)
	assert.Equal(t, 1, f.tickets.calls)
	assert.NotNil(t, inspection.TicketID)
	assert.Equal(t, 77, *inspection.TicketID)
	assert.Equal(t, 1, f.notifier.reports)
	f.repo.AssertExpectations(t)
	f.assets.AssertExpectations(t)
}

func TestCreateInspectionCleanChecklistFilesNoTicket(t *testing.T) {
	f := newFixture()

	f.assets.On("GetAsset", 11).Return(&models.Asset{ID: 11}, nil).Once()
	f.repo.On("InsertInspection", mock.Anything, mock.MatchedBy(func(i models.Inspection) bool {
		return i.OverallCondition == "excellent" && !i.DamageFound && i.AssignmentID == nil
	})).Return(32, nil).Once()
	f.assets.On("UpdateCondition", mock.Anything, 11, "excellent").Return(nil).Once()

	inspection, err := f.service.CreateInspection(2, CreateInspectionRequest{
		AssetID:  11,
		Type:     models.InspectionTypePeriodic,
		Exterior: "like_new",
		Screen:   "clean",
	})

	assert.NoError(t, err)
	assert.Nil(t, inspection.TicketID)
	assert.Equal(t, 0, f.tickets.calls)
	assert.Equal(t, 0, f.notifier.reports)
	f.repo.AssertExpectations(t)
}

func TestCreateInspectionRejectsUnknownType(t *testing.T) {
	f := newFixture()

	_, err := f.service.CreateInspection(2, CreateInspectionRequest{AssetID: 11, Type: "random"})

	var validation *apperrors.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestUpdateInspectionRescores(t *testing.T) {
	f := newFixture()

	f.repo.On("GetInspection", 31).Return(&models.Inspection{
		ID:               31,
		AssetID:          11,
		Type:             models.InspectionTypePeriodic,
		Exterior:         "good",
		Screen:           "good",
		OverallCondition: "good",
	}, nil).Once()
	f.repo.On("UpdateInspection", mock.Anything, 31, mock.MatchedBy(func(fields goqu.Record) bool {
		_, touchesRepair := fields["repair_status"]
		return fields["overall_condition"] == "broken" &&
			fields["damage_found"] == true &&
			fields["damage_status"] == models.DamageStatusPendingReview &&
			!touchesRepair
	})).Return(nil).Once()
	f.assets.On("UpdateCondition", mock.Anything, 11, "broken").Return(nil).Once()

	screen := "cracked"
	inspection, err := f.service.UpdateInspection(2, 31, UpdateInspectionRequest{Screen: &screen})

	assert.NoError(t, err)
	assert.Equal(t, "broken", inspection.OverallCondition)
	assert.True(t, inspection.DamageFound)
	f.repo.AssertExpectations(t)
	f.assets.AssertExpectations(t)
}

// damagedInspection builds an inspection at a given point in the workflow.
// An empty repairStatus means "not yet assessed".
func damagedInspection(damageStatus, repairStatus string) *models.Inspection {
	inspection := &models.Inspection{
		ID:               31,
		AssetID:          11,
		OverallCondition: "broken",
		DamageFound:      true,
		DamageStatus:     &damageStatus,
	}
	if repairStatus != "" {
		severity := models.DamageSeveritySevere
		inspection.DamageSeverity = &severity
		inspection.RepairStatus = &repairStatus
	}
	return inspection
}

func TestAssessDamageRejectsSecondAssessment(t *testing.T) {
	f := newFixture()
	f.repo.On("GetInspection", 31).Return(damagedInspection(models.DamageStatusApproved, models.RepairStatusPending), nil).Once()

	_, err := f.service.AssessDamage(3, 31, AssessDamageRequest{})

	var transition *apperrors.InvalidTransitionError
	assert.ErrorAs(t, err, &transition)
}

func TestAssessDamageQueuesRepairAndGradesSeverity(t *testing.T) {
	f := newFixture()
	cost := 1200.0
	f.repo.On("GetInspection", 31).Return(damagedInspection(models.DamageStatusPendingReview, ""), nil).Once()
	f.repo.On("UpdateInspection", mock.Anything, 31, mock.MatchedBy(func(fields goqu.Record) bool {
		return fields["damage_status"] == models.DamageStatusApproved &&
			fields["repair_status"] == models.RepairStatusPending &&
			fields["damage_severity"] == models.DamageSeveritySevere &&
			fields["estimated_cost"] == cost
	})).Return(nil).Once()

	inspection, err := f.service.AssessDamage(3, 31, AssessDamageRequest{EstimatedCost: &cost})

	assert.NoError(t, err)
	assert.Equal(t, models.DamageStatusApproved, *inspection.DamageStatus)
	assert.Equal(t, models.RepairStatusPending, *inspection.RepairStatus)
	assert.Equal(t, models.DamageSeveritySevere, *inspection.DamageSeverity)
	f.repo.AssertExpectations(t)
}

func TestStartRepairRequiresAssessment(t *testing.T) {
	f := newFixture()
	f.repo.On("GetInspection", 31).Return(damagedInspection(models.DamageStatusPendingReview, ""), nil).Once()

	_, err := f.service.StartRepair(3, 31, StartRepairRequest{TechnicianID: 4})

	var transition *apperrors.InvalidTransitionError
	assert.ErrorAs(t, err, &transition)
	f.assets.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestStartRepairPullsAssetIntoMaintenance(t *testing.T) {
	f := newFixture()
	f.repo.On("GetInspection", 31).Return(damagedInspection(models.DamageStatusApproved, models.RepairStatusPending), nil).Once()
	f.repo.On("UpdateInspection", mock.Anything, 31, mock.Anything).Return(nil).Once()
	f.assets.On("UpdateStatus", mock.Anything, 11, models.AssetStatusMaintenance).Return(nil).Once()

	inspection, err := f.service.StartRepair(3, 31, StartRepairRequest{TechnicianID: 4})

	assert.NoError(t, err)
	assert.Equal(t, models.RepairStatusInProgress, *inspection.RepairStatus)
	assert.Equal(t, 4, *inspection.TechnicianID)
	assert.NotNil(t, inspection.RepairStartedAt)
	f.assets.AssertExpectations(t)
}

func TestCompleteRepairRequiresInProgress(t *testing.T) {
	f := newFixture()
	f.repo.On("GetInspection", 31).Return(damagedInspection(models.DamageStatusApproved, models.RepairStatusPending), nil).Once()

	_, err := f.service.CompleteRepair(3, 31, CompleteRepairRequest{})

	var transition *apperrors.InvalidTransitionError
	assert.ErrorAs(t, err, &transition)
}

func TestCompleteRepairReturnsAssetToService(t *testing.T) {
	f := newFixture()
	cost := 850.0
	f.repo.On("GetInspection", 31).Return(damagedInspection(models.DamageStatusInProgress, models.RepairStatusInProgress), nil).Once()
	f.repo.On("UpdateInspection", mock.Anything, 31, mock.MatchedBy(func(fields goqu.Record) bool {
		return fields["repair_status"] == models.RepairStatusCompleted && fields["repair_cost"] == cost
	})).Return(nil).Once()
	f.assets.On("UpdateStatus", mock.Anything, 11, models.AssetStatusAvailable).Return(nil).Once()

	inspection, err := f.service.CompleteRepair(3, 31, CompleteRepairRequest{RepairCost: &cost})

	assert.NoError(t, err)
	assert.Equal(t, models.RepairStatusCompleted, *inspection.RepairStatus)
	assert.Equal(t, models.DamageStatusCompleted, *inspection.DamageStatus)
	assert.NotNil(t, inspection.RepairCompletedAt)
	f.assets.AssertExpectations(t)
}

func TestMarkUnrepairableRetiresAsset(t *testing.T) {
	f := newFixture()
	f.repo.On("GetInspection", 31).Return(damagedInspection(models.DamageStatusInProgress, models.RepairStatusInProgress), nil).Once()
	f.repo.On("UpdateInspection", mock.Anything, 31, mock.Anything).Return(nil).Once()
	f.assets.On("UpdateStatus", mock.Anything, 11, models.AssetStatusRetired).Return(nil).Once()

	inspection, err := f.service.MarkUnrepairable(3, 31, UnrepairableRequest{Notes: "logic board dead", CanContinueUse: false})

	assert.NoError(t, err)
	assert.Equal(t, models.RepairStatusCannotRepair, *inspection.RepairStatus)
	f.assets.AssertExpectations(t)
}

func TestMarkUnrepairableCanKeepAssetInService(t *testing.T) {
	f := newFixture()
	f.repo.On("GetInspection", 31).Return(damagedInspection(models.DamageStatusApproved, models.RepairStatusPending), nil).Once()
	f.repo.On("UpdateInspection", mock.Anything, 31, mock.Anything).Return(nil).Once()
	f.assets.On("UpdateStatus", mock.Anything, 11, models.AssetStatusAvailable).Return(nil).Once()

	inspection, err := f.service.MarkUnrepairable(3, 31, UnrepairableRequest{Notes: "cosmetic only", CanContinueUse: true})

	assert.NoError(t, err)
	assert.True(t, *inspection.CanContinueUse)
	f.assets.AssertExpectations(t)
}

func TestMarkUnrepairableAcceptedBeforeRepairStarts(t *testing.T) {
	f := newFixture()
	f.repo.On("GetInspection", 31).Return(damagedInspection(models.DamageStatusApproved, models.RepairStatusPending), nil).Once()
	f.repo.On("UpdateInspection", mock.Anything, 31, mock.Anything).Return(nil).Once()
	f.assets.On("UpdateStatus", mock.Anything, 11, models.AssetStatusRetired).Return(nil).Once()

	inspection, err := f.service.MarkUnrepairable(3, 31, UnrepairableRequest{Notes: "water damage throughout", CanContinueUse: false})

	assert.NoError(t, err)
	assert.Equal(t, models.RepairStatusCannotRepair, *inspection.RepairStatus)
	f.assets.AssertExpectations(t)
}

func TestAcceptDamageAsIs(t *testing.T) {
	f := newFixture()
	f.repo.On("GetInspection", 31).Return(damagedInspection(models.DamageStatusApproved, models.RepairStatusPending), nil).Once()
	f.repo.On("UpdateInspection", mock.Anything, 31, mock.MatchedBy(func(fields goqu.Record) bool {
		return fields["repair_status"] == models.RepairStatusAcceptedAsIs && fields["can_continue_use"] == true
	})).Return(nil).Once()
	f.assets.On("UpdateStatus", mock.Anything, 11, models.AssetStatusAvailable).Return(nil).Once()

	inspection, err := f.service.AcceptDamageAsIs(3, 31, AcceptAsIsRequest{Notes: "scratch on lid"})

	assert.NoError(t, err)
	assert.Equal(t, models.RepairStatusAcceptedAsIs, *inspection.RepairStatus)
	f.assets.AssertExpectations(t)
}

func TestAcceptDamageAsIsRejectsActiveRepair(t *testing.T) {
	f := newFixture()
	f.repo.On("GetInspection", 31).Return(damagedInspection(models.DamageStatusInProgress, models.RepairStatusInProgress), nil).Once()

	_, err := f.service.AcceptDamageAsIs(3, 31, AcceptAsIsRequest{})

	var transition *apperrors.InvalidTransitionError
	assert.ErrorAs(t, err, &transition)
}

func TestDeleteInspectionBlockedByLinkedTicket(t *testing.T) {
	f := newFixture()
	ticketID := 77
	inspection := damagedInspection(models.DamageStatusPendingReview, "")
	inspection.TicketID = &ticketID
	f.repo.On("GetInspection", 31).Return(inspection, nil).Once()

	err := f.service.DeleteInspection(1, 31)

	var conflict *apperrors.ConflictError
	assert.ErrorAs(t, err, &conflict)
	f.repo.AssertNotCalled(t, "DeleteInspection", mock.Anything, mock.Anything)
}

func TestDeleteInspection(t *testing.T) {
	f := newFixture()
	f.repo.On("GetInspection", 31).Return(&models.Inspection{ID: 31, AssetID: 11}, nil).Once()
	f.repo.On("DeleteInspection", mock.Anything, 31).Return(nil).Once()

	err := f.service.DeleteInspection(1, 31)

	assert.NoError(t, err)
	f.repo.AssertExpectations(t)
}
