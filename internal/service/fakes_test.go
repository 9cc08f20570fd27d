package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/opsdesk/internal/model"
)

type fakeAccessStore struct {
	mu        sync.Mutex
	records   map[uuid.UUID]model.AccessRecord
	getCalls  int
	getErr    error
	updateErr error
}

func newFakeAccessStore(records ...model.AccessRecord) *fakeAccessStore {
	store := &fakeAccessStore{records: make(map[uuid.UUID]model.AccessRecord)}
	for _, record := range records {
		store.records[record.UserID] = record
	}
	return store
}

func (f *fakeAccessStore) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &model.User{
		ID:         record.UserID,
		OrgID:      record.OrgID,
		Email:      record.UserID.String() + "@example.com",
		Role:       record.Role,
		IsAdmin:    record.IsAdmin,
		Status:     record.Status,
		PageAccess: record.PageAccess,
	}, nil
}

func (f *fakeAccessStore) GetAccessRecord(ctx context.Context, userID uuid.UUID) (*model.AccessRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	record, ok := f.records[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copy := record
	return &copy, nil
}

func (f *fakeAccessStore) UpdatePageAccess(ctx context.Context, userID uuid.UUID, pageAccess map[string]bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	record, ok := f.records[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	payload := make(map[string]interface{}, len(pageAccess))
	for key, value := range pageAccess {
		payload[key] = value
	}
	record.PageAccess = payload
	f.records[userID] = record
	return nil
}

type fakeAuditStore struct {
	mu        sync.Mutex
	entries   []model.AuditLog
	createErr error
}

func (f *fakeAuditStore) Create(ctx context.Context, entry model.AuditLog) (*model.AuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now().UTC()
	f.entries = append(f.entries, entry)
	return &entry, nil
}

func (f *fakeAuditStore) List(ctx context.Context, orgID uuid.UUID, filter model.AuditFilter) ([]model.AuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []model.AuditLog
	for _, entry := range f.entries {
		if entry.OrgID != orgID {
			continue
		}
		if filter.Action != nil && entry.Action != *filter.Action {
			continue
		}
		result = append(result, entry)
	}
	return result, nil
}

type fakeVehicleStore struct {
	orgs     map[uuid.UUID]model.Organization
	vehicles map[uuid.UUID]model.Vehicle
	samples  map[uuid.UUID][]model.LocationSample
	listErr  error

	mu       sync.Mutex
	lastFrom time.Time
	lastTo   time.Time
}

func (f *fakeVehicleStore) GetOrganization(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	org, ok := f.orgs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &org, nil
}

func (f *fakeVehicleStore) GetVehicle(ctx context.Context, id uuid.UUID) (*model.Vehicle, error) {
	vehicle, ok := f.vehicles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &vehicle, nil
}

func (f *fakeVehicleStore) ListSamples(ctx context.Context, vehicleID uuid.UUID, from, to time.Time) ([]model.LocationSample, error) {
	f.mu.Lock()
	f.lastFrom, f.lastTo = from, to
	f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var result []model.LocationSample
	for _, sample := range f.samples[vehicleID] {
		if !sample.RecordedAt.Before(from) && sample.RecordedAt.Before(to) {
			result = append(result, sample)
		}
	}
	return result, nil
}

type fakeGenerator struct {
	content []byte
	err     error
	reports []model.MovementReport
}

func (f *fakeGenerator) Generate(report model.MovementReport) ([]byte, error) {
	f.reports = append(f.reports, report)
	if f.err != nil {
		return nil, f.err
	}
	return f.content, nil
}

var errBoom = errors.New("boom")
