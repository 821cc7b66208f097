package pm

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

type MockScheduleRepository struct {
	mock.Mock
}

func (m *MockScheduleRepository) InsertSchedule(tx *goqu.TxDatabase, schedule models.PMSchedule) (int, error) {
	args := m.Called(tx, schedule)
	return args.Int(0), args.Error(1)
}

func (m *MockScheduleRepository) GetSchedule(scheduleID int) (*models.PMSchedule, error) {
	args := m.Called(scheduleID)
	if schedule, ok := args.Get(0).(*models.PMSchedule); ok {
		return schedule, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockScheduleRepository) ListSchedules(assetID *int, activeOnly bool) ([]models.PMSchedule, error) {
	args := m.Called(assetID, activeOnly)
	return args.Get(0).([]models.PMSchedule), args.Error(1)
}

func (m *MockScheduleRepository) ListDue(now time.Time) ([]models.PMSchedule, error) {
	args := m.Called(now)
	return args.Get(0).([]models.PMSchedule), args.Error(1)
}

func (m *MockScheduleRepository) UpdateSchedule(tx *goqu.TxDatabase, scheduleID int, fields goqu.Record) error {
	args := m.Called(tx, scheduleID, fields)
	return args.Error(0)
}

func (m *MockScheduleRepository) InsertMaintenanceLog(tx *goqu.TxDatabase, log models.MaintenanceLog) (int, error) {
	args := m.Called(tx, log)
	return args.Int(0), args.Error(1)
}

func (m *MockScheduleRepository) ListMaintenanceLogs(assetID int, limit, offset int) ([]models.MaintenanceLog, error) {
	args := m.Called(assetID, limit, offset)
	return args.Get(0).([]models.MaintenanceLog), args.Error(1)
}

func (m *MockScheduleRepository) GetUsage(assetID int, metric string) (int, error) {
	args := m.Called(assetID, metric)
	return args.Int(0), args.Error(1)
}

func (m *MockScheduleRepository) IncrementUsage(tx *goqu.TxDatabase, assetID int, metric string, delta int) (int, error) {
	args := m.Called(tx, assetID, metric, delta)
	return args.Int(0), args.Error(1)
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

var testNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func newTestService(repo ScheduleRepository, assets *MockAssetStore) *Service {
	service := NewService(&fakeTxRunner{}, repo, assets, &allowAll{}, &noopAudit{}, zap.NewNop())
	service.now = func() time.Time { return testNow }
	return service
}

func TestCreateScheduleComputesFirstDueDate(t *testing.T) {
	mockRepo := new(MockScheduleRepository)
	mockAssets := new(MockAssetStore)
	service := newTestService(mockRepo, mockAssets)

	mockAssets.On("GetAsset", 11).Return(&models.Asset{ID: 11}, nil).Once()
	mockRepo.On("InsertSchedule", mock.Anything, mock.MatchedBy(func(s models.PMSchedule) bool {
		return s.IsActive &&
			s.NextDueDate != nil &&
			s.NextDueDate.Equal(testNow.AddDate(0, 0, 14))
	})).Return(51, nil).Once()

	schedule, err := service.CreateSchedule(3, CreateScheduleRequest{
		AssetID:       11,
		Name:          "Filter cleaning",
		ScheduleType:  models.ScheduleTypeTime,
		Frequency:     models.FrequencyWeekly,
		IntervalValue: 2,
	})

	assert.NoError(t, err)
	assert.Equal(t, 51, schedule.ID)
	mockRepo.AssertExpectations(t)
}

func TestCreateScheduleRejectsUnresolvableRule(t *testing.T) {
	mockRepo := new(MockScheduleRepository)
	mockAssets := new(MockAssetStore)
	service := newTestService(mockRepo, mockAssets)

	mockAssets.On("GetAsset", 11).Return(&models.Asset{ID: 11}, nil).Once()

	_, err := service.CreateSchedule(3, CreateScheduleRequest{
		AssetID:      11,
		Name:         "Broken rule",
		ScheduleType: models.ScheduleTypeTime,
		Frequency:    "fortnightly",
	})

	var validation *apperrors.ValidationError
	assert.ErrorAs(t, err, &validation)
	mockRepo.AssertNotCalled(t, "InsertSchedule", mock.Anything, mock.Anything)
}

func TestCreateUsageScheduleSetsNextDueReading(t *testing.T) {
	mockRepo := new(MockScheduleRepository)
	mockAssets := new(MockAssetStore)
	service := newTestService(mockRepo, mockAssets)

	mockAssets.On("GetAsset", 11).Return(&models.Asset{ID: 11}, nil).Once()
	mockRepo.On("GetUsage", 11, "print_pages").Return(4200, nil).Once()
	mockRepo.On("InsertSchedule", mock.Anything, mock.MatchedBy(func(s models.PMSchedule) bool {
		return s.NextDueUsage != nil && *s.NextDueUsage == 9200 && s.NextDueDate == nil
	})).Return(52, nil).Once()

	schedule, err := service.CreateSchedule(3, CreateScheduleRequest{
		AssetID:       11,
		Name:          "Drum replacement",
		ScheduleType:  models.ScheduleTypeUsage,
		UsageMetric:   "print_pages",
		UsageInterval: 5000,
	})

	assert.NoError(t, err)
	assert.Equal(t, 9200, *schedule.NextDueUsage)
	mockRepo.AssertExpectations(t)
}

func TestExecutePMReschedulesWeeklyInterval(t *testing.T) {
	mockRepo := new(MockScheduleRepository)
	service := newTestService(mockRepo, new(MockAssetStore))

	mockRepo.On("GetSchedule", 51).Return(&models.PMSchedule{
		ID:            51,
		AssetID:       11,
		ScheduleType:  models.ScheduleTypeTime,
		Frequency:     models.FrequencyWeekly,
		IntervalValue: 2,
		IsActive:      true,
	}, nil).Once()
	mockRepo.On("InsertMaintenanceLog", mock.Anything, mock.MatchedBy(func(l models.MaintenanceLog) bool {
		return l.Type == models.MaintenanceTypePreventive &&
			l.ScheduleID != nil && *l.ScheduleID == 51 &&
			l.PerformedAt.Equal(testNow)
	})).Return(61, nil).Once()
	mockRepo.On("UpdateSchedule", mock.Anything, 51, mock.MatchedBy(func(fields goqu.Record) bool {
		next, ok := fields["next_due_date"].(time.Time)
		return ok && next.Equal(testNow.AddDate(0, 0, 14)) && fields["last_performed"] == testNow
	})).Return(nil).Once()

	log, err := service.ExecutePM(3, 51, ExecuteRequest{Summary: "cleaned filters"})

	assert.NoError(t, err)
	assert.Equal(t, 61, log.ID)
	mockRepo.AssertExpectations(t)
}

func TestExecutePMAdvancesUsageTarget(t *testing.T) {
	mockRepo := new(MockScheduleRepository)
	service := newTestService(mockRepo, new(MockAssetStore))

	nextDue := 9200
	mockRepo.On("GetSchedule", 52).Return(&models.PMSchedule{
		ID:            52,
		AssetID:       11,
		ScheduleType:  models.ScheduleTypeUsage,
		UsageMetric:   "print_pages",
		UsageInterval: 5000,
		NextDueUsage:  &nextDue,
		IsActive:      true,
	}, nil).Once()
	mockRepo.On("InsertMaintenanceLog", mock.Anything, mock.Anything).Return(62, nil).Once()
	mockRepo.On("GetUsage", 11, "print_pages").Return(9450, nil).Once()
	mockRepo.On("UpdateSchedule", mock.Anything, 52, mock.MatchedBy(func(fields goqu.Record) bool {
		return fields["next_due_usage"] == 14450
	})).Return(nil).Once()

	_, err := service.ExecutePM(3, 52, ExecuteRequest{Summary: "replaced drum"})

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestExecutePMRejectsInactiveSchedule(t *testing.T) {
	mockRepo := new(MockScheduleRepository)
	service := newTestService(mockRepo, new(MockAssetStore))

	mockRepo.On("GetSchedule", 51).Return(&models.PMSchedule{ID: 51, IsActive: false}, nil).Once()

	_, err := service.ExecutePM(3, 51, ExecuteRequest{Summary: "n/a"})

	var conflict *apperrors.ConflictError
	assert.ErrorAs(t, err, &conflict)
	mockRepo.AssertNotCalled(t, "InsertMaintenanceLog", mock.Anything, mock.Anything)
}

func TestUpdateScheduleRevalidatesMergedRule(t *testing.T) {
	mockRepo := new(MockScheduleRepository)
	service := newTestService(mockRepo, new(MockAssetStore))

	mockRepo.On("GetSchedule", 51).Return(&models.PMSchedule{
		ID:           51,
		AssetID:      11,
		ScheduleType: models.ScheduleTypeTime,
		Frequency:    models.FrequencyMonthly,
		IsActive:     true,
	}, nil).Once()

	badFrequency := "fortnightly"
	_, err := service.UpdateSchedule(3, 51, UpdateScheduleRequest{Frequency: &badFrequency})

	var validation *apperrors.ValidationError
	assert.ErrorAs(t, err, &validation)
	mockRepo.AssertNotCalled(t, "UpdateSchedule", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateScheduleRecomputesDueDate(t *testing.T) {
	mockRepo := new(MockScheduleRepository)
	service := newTestService(mockRepo, new(MockAssetStore))

	mockRepo.On("GetSchedule", 51).Return(&models.PMSchedule{
		ID:            51,
		AssetID:       11,
		ScheduleType:  models.ScheduleTypeTime,
		Frequency:     models.FrequencyMonthly,
		IntervalValue: 1,
		IsActive:      true,
	}, nil).Once()
	mockRepo.On("UpdateSchedule", mock.Anything, 51, mock.MatchedBy(func(fields goqu.Record) bool {
		next, ok := fields["next_due_date"].(*time.Time)
		return ok && next.Equal(testNow.AddDate(0, 3, 0))
	})).Return(nil).Once()

	quarterly := models.FrequencyQuarterly
	schedule, err := service.UpdateSchedule(3, 51, UpdateScheduleRequest{Frequency: &quarterly})

	assert.NoError(t, err)
	assert.True(t, schedule.NextDueDate.Equal(testNow.AddDate(0, 3, 0)))
	mockRepo.AssertExpectations(t)
}

func TestRecordManualMaintenance(t *testing.T) {
	mockRepo := new(MockScheduleRepository)
	mockAssets := new(MockAssetStore)
	service := newTestService(mockRepo, mockAssets)

	mockAssets.On("GetAsset", 11).Return(&models.Asset{ID: 11}, nil).Once()
	mockRepo.On("InsertMaintenanceLog", mock.Anything, mock.MatchedBy(func(l models.MaintenanceLog) bool {
		return l.Type == models.MaintenanceTypeCorrective && l.ScheduleID == nil
	})).Return(63, nil).Once()

	log, err := service.RecordManualMaintenance(3, ManualMaintenanceRequest{
		AssetID: 11,
		Summary: "reseated RAM after crash reports",
	})

	assert.NoError(t, err)
	assert.Equal(t, 63, log.ID)
	mockRepo.AssertExpectations(t)
}

func TestAdvanceUsageRejectsNonPositiveDelta(t *testing.T) {
	service := newTestService(new(MockScheduleRepository), new(MockAssetStore))

	_, err := service.AdvanceUsage(3, 11, AdvanceUsageRequest{Metric: "print_pages", Delta: 0})

	var validation *apperrors.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestAdvanceUsage(t *testing.T) {
	mockRepo := new(MockScheduleRepository)
	mockAssets := new(MockAssetStore)
	service := newTestService(mockRepo, mockAssets)

	mockAssets.On("GetAsset", 11).Return(&models.Asset{ID: 11}, nil).Once()
	mockRepo.On("IncrementUsage", mock.Anything, 11, "print_pages", 250).Return(9450, nil).Once()

	value, err := service.AdvanceUsage(3, 11, AdvanceUsageRequest{Metric: "print_pages", Delta: 250})

	assert.NoError(t, err)
	assert.Equal(t, 9450, value)
	mockRepo.AssertExpectations(t)
}

func TestListDueUsesClock(t *testing.T) {
	mockRepo := new(MockScheduleRepository)
	service := newTestService(mockRepo, new(MockAssetStore))

	mockRepo.On("ListDue", testNow).Return([]models.PMSchedule{{ID: 51}}, nil).Once()

	due, err := service.ListDue()

	assert.NoError(t, err)
	assert.Len(t, due, 1)
	mockRepo.AssertExpectations(t)
}
