package service

import (
	"context"
	"testing"
	"time"

	bookingserrors "gearbase/internal/bookings/errors"
	"gearbase/internal/bookings/validator"
	"gearbase/internal/events"
	"gearbase/pkg/config"
	apperrors "gearbase/pkg/errors"
	"gearbase/pkg/logger"
	"gearbase/pkg/middleware"
	"gearbase/pkg/model"

	mongotx "gearbase/pkg/db/mongo"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	org1   = "64a0000000000000000000aa"
	org2   = "64a0000000000000000000bb"
	actor1 = "64a0000000000000000000cc"
	asset1 = "64b000000000000000000001"
	asset2 = "64b000000000000000000002"
)

// mockBookingRepo is an in-memory store whose overlap query applies the same
// half-open predicate as the real collection.
type mockBookingRepo struct {
	bookings        map[string]*model.Booking
	updateStatusErr error
}

func newMockBookingRepo(bookings ...*model.Booking) *mockBookingRepo {
	m := &mockBookingRepo{bookings: map[string]*model.Booking{}}
	for _, b := range bookings {
		m.bookings[b.ID] = b
	}
	return m
}

func (m *mockBookingRepo) Create(ctx context.Context, booking *model.Booking) error {
	m.bookings[booking.ID] = booking
	return nil
}

func (m *mockBookingRepo) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (m *mockBookingRepo) FindAll(ctx context.Context, orgID string, limit int, offset int64) ([]*model.Booking, error) {
	var out []*model.Booking
	for _, b := range m.bookings {
		if b.OrganizationID == orgID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockBookingRepo) Count(ctx context.Context, orgID string) (int64, error) {
	bookings, _ := m.FindAll(ctx, orgID, 0, 0)
	return int64(len(bookings)), nil
}

func (m *mockBookingRepo) Update(ctx context.Context, id string, booking *model.Booking) error {
	if _, ok := m.bookings[id]; !ok {
		return bookingserrors.ErrNotFound
	}
	copied := *booking
	copied.ID = id
	m.bookings[id] = &copied
	return nil
}

func (m *mockBookingRepo) UpdateStatus(ctx context.Context, id string, status model.BookingStatus) error {
	if m.updateStatusErr != nil {
		return m.updateStatusErr
	}
	b, ok := m.bookings[id]
	if !ok {
		return bookingserrors.ErrNotFound
	}
	b.Status = status
	return nil
}

func (m *mockBookingRepo) FindActiveOverlapping(ctx context.Context, orgID string, assetID string, from time.Time, to time.Time, excludeID string) ([]*model.Booking, error) {
	var out []*model.Booking
	for _, b := range m.bookings {
		if b.OrganizationID != orgID || b.ID == excludeID || !b.Status.Active() {
			continue
		}
		if !hasAsset(b, assetID) {
			continue
		}
		if b.StartTime.Before(to) && b.EndTime.After(from) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockBookingRepo) FindByFilter(ctx context.Context, orgID string, filter *model.FilterDescription, limit int64) ([]*model.Booking, error) {
	return m.FindAll(ctx, orgID, 0, 0)
}

func (m *mockBookingRepo) FindIDsByFilter(ctx context.Context, orgID string, filter *model.FilterDescription, limit int64) ([]string, error) {
	bookings, _ := m.FindAll(ctx, orgID, 0, 0)
	var ids []string
	for _, b := range bookings {
		ids = append(ids, b.ID)
	}
	return ids, nil
}

func (m *mockBookingRepo) CountByFilter(ctx context.Context, orgID string, filter *model.FilterDescription) (int64, error) {
	return m.Count(ctx, orgID)
}

func (m *mockBookingRepo) FindByIDs(ctx context.Context, orgID string, ids []string) ([]*model.Booking, error) {
	var out []*model.Booking
	for _, id := range ids {
		if b, ok := m.bookings[id]; ok && b.OrganizationID == orgID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockBookingRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

func hasAsset(b *model.Booking, assetID string) bool {
	for _, id := range b.AssetIDs {
		if id == assetID {
			return true
		}
	}
	return false
}

type mockLockRepo struct {
	createErr error
	held      map[string]bool
}

func newMockLockRepo() *mockLockRepo {
	return &mockLockRepo{held: map[string]bool{}}
}

func (m *mockLockRepo) Create(ctx context.Context, lock *model.AssetLock) (*model.AssetLock, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.held[lock.ID] = true
	return lock, nil
}

func (m *mockLockRepo) Delete(ctx context.Context, lockID string) error {
	delete(m.held, lockID)
	return nil
}

type mockCatalog struct {
	assets map[string]*model.Asset
}

func newMockCatalog(assets ...*model.Asset) *mockCatalog {
	m := &mockCatalog{assets: map[string]*model.Asset{}}
	for _, a := range assets {
		m.assets[a.ID] = a
	}
	return m
}

func (m *mockCatalog) FindByIDs(ctx context.Context, orgID string, ids []string) ([]*model.Asset, error) {
	var out []*model.Asset
	for _, id := range ids {
		if a, ok := m.assets[id]; ok && a.OrganizationID == orgID {
			out = append(out, a)
		}
	}
	return out, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Service: "test",
		}),
		CheckoutGrace: 15 * time.Minute,
		AssetLockTTL:  10 * time.Second,
		BulkMaxItems:  1000,
	}
}

func newTestService(repo *mockBookingRepo, locks *mockLockRepo, catalog *mockCatalog, cfg *config.Config) *bookingService {
	return &bookingService{
		repo:      repo,
		lockRepo:  locks,
		assets:    catalog,
		validator: validator.NewBookingValidator(cfg.Log),
		publisher: events.NewNopPublisher(),
		cfg:       cfg,
	}
}

func availableAsset(id string) *model.Asset {
	return &model.Asset{ID: id, OrganizationID: org1, Name: "Camera A", Available: true}
}

func draftBooking(id string, assetIDs []string, start, end time.Time) *model.Booking {
	return &model.Booking{
		ID:             id,
		OrganizationID: org1,
		CreatedBy:      actor1,
		Name:           "Field shoot",
		Status:         model.StatusDraft,
		StartTime:      start,
		EndTime:        end,
		AssetIDs:       assetIDs,
	}
}

func scope1() middleware.Scope {
	return middleware.Scope{OrganizationID: org1, ActorID: actor1}
}

func TestTransition_ReserveClearWindow(t *testing.T) {
	start := time.Now().Add(time.Hour)
	end := start.Add(2 * time.Hour)

	repo := newMockBookingRepo(draftBooking("64c000000000000000000001", []string{asset1}, start, end))
	svc := newTestService(repo, newMockLockRepo(), newMockCatalog(availableAsset(asset1)), testConfig())

	booking, err := svc.Transition(context.Background(), scope1(), "64c000000000000000000001", model.StatusReserved)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking.Status != model.StatusReserved {
		t.Errorf("expected status reserved, got %s", booking.Status)
	}
	if repo.bookings["64c000000000000000000001"].Status != model.StatusReserved {
		t.Errorf("status not persisted")
	}
}

func TestTransition_ReserveBackToBackWindowsAccepted(t *testing.T) {
	start := time.Now().Add(time.Hour)
	mid := start.Add(2 * time.Hour)
	end := mid.Add(2 * time.Hour)

	existing := draftBooking("64c000000000000000000001", []string{asset1}, start, mid)
	existing.Status = model.StatusReserved
	candidate := draftBooking("64c000000000000000000002", []string{asset1}, mid, end)

	repo := newMockBookingRepo(existing, candidate)
	svc := newTestService(repo, newMockLockRepo(), newMockCatalog(availableAsset(asset1)), testConfig())

	// One window ends exactly where the other starts; half-open intervals
	// make that a clean handoff, not a conflict.
	if _, err := svc.Transition(context.Background(), scope1(), candidate.ID, model.StatusReserved); err != nil {
		t.Fatalf("back-to-back windows should not conflict, got: %v", err)
	}
}

func TestTransition_ReserveOverlapRejected(t *testing.T) {
	start := time.Now().Add(time.Hour)
	end := start.Add(2 * time.Hour)

	existing := draftBooking("64c000000000000000000001", []string{asset1}, start, end)
	existing.Status = model.StatusReserved
	existing.Name = "Studio session"
	candidate := draftBooking("64c000000000000000000002", []string{asset1}, start.Add(time.Hour), end.Add(time.Hour))

	repo := newMockBookingRepo(existing, candidate)
	svc := newTestService(repo, newMockLockRepo(), newMockCatalog(availableAsset(asset1)), testConfig())

	_, err := svc.Transition(context.Background(), scope1(), candidate.ID, model.StatusReserved)
	if err == nil {
		t.Fatal("expected conflict error")
	}

	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeConflict {
		t.Fatalf("expected code %s, got %s", apperrors.CodeConflict, appErr.Code)
	}

	verdicts, ok := appErr.Details["verdicts"].([]model.AssetVerdict)
	if !ok || len(verdicts) != 1 {
		t.Fatalf("expected one conflicted verdict, got %v", appErr.Details["verdicts"])
	}
	if len(verdicts[0].Collisions) != 1 || verdicts[0].Collisions[0].BookingID != existing.ID {
		t.Errorf("collision should name the colliding booking, got %+v", verdicts[0].Collisions)
	}
	if repo.bookings[candidate.ID].Status != model.StatusDraft {
		t.Errorf("candidate must stay draft after a rejected reserve")
	}
}

func TestTransition_CancelledBookingFreesWindow(t *testing.T) {
	start := time.Now().Add(time.Hour)
	end := start.Add(2 * time.Hour)

	existing := draftBooking("64c000000000000000000001", []string{asset1}, start, end)
	existing.Status = model.StatusReserved
	candidate := draftBooking("64c000000000000000000002", []string{asset1}, start, end)

	repo := newMockBookingRepo(existing, candidate)
	svc := newTestService(repo, newMockLockRepo(), newMockCatalog(availableAsset(asset1)), testConfig())

	if err := svc.Delete(context.Background(), scope1(), existing.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, err := svc.Transition(context.Background(), scope1(), candidate.ID, model.StatusReserved); err != nil {
		t.Fatalf("cancelled booking should not block the window, got: %v", err)
	}
}

func TestTransition_ReserveBackdatedWindow(t *testing.T) {
	start := time.Now().Add(-time.Hour)
	end := start.Add(3 * time.Hour)

	repo := newMockBookingRepo(draftBooking("64c000000000000000000001", []string{asset1}, start, end))
	cfg := testConfig()
	svc := newTestService(repo, newMockLockRepo(), newMockCatalog(availableAsset(asset1)), cfg)

	_, err := svc.Transition(context.Background(), scope1(), "64c000000000000000000001", model.StatusReserved)
	if appErr := apperrors.AsAppError(err); err == nil || appErr.Code != apperrors.CodeValidation {
		t.Fatalf("expected validation error for backdated window, got: %v", err)
	}

	// With enough leniency configured the same window goes through.
	cfg.BackdateLeniency = 2 * time.Hour
	if _, err := svc.Transition(context.Background(), scope1(), "64c000000000000000000001", model.StatusReserved); err != nil {
		t.Fatalf("leniency should admit the window, got: %v", err)
	}
}

func TestTransition_ReserveUnavailableAssetRejected(t *testing.T) {
	start := time.Now().Add(time.Hour)
	end := start.Add(time.Hour)

	disabled := availableAsset(asset1)
	disabled.Available = false

	repo := newMockBookingRepo(draftBooking("64c000000000000000000001", []string{asset1}, start, end))
	svc := newTestService(repo, newMockLockRepo(), newMockCatalog(disabled), testConfig())

	_, err := svc.Transition(context.Background(), scope1(), "64c000000000000000000001", model.StatusReserved)
	if appErr := apperrors.AsAppError(err); err == nil || appErr.Code != apperrors.CodeConflict {
		t.Fatalf("expected conflict for unavailable asset, got: %v", err)
	}
}

func TestTransition_ReserveUnknownAssetRejected(t *testing.T) {
	start := time.Now().Add(time.Hour)
	end := start.Add(time.Hour)

	repo := newMockBookingRepo(draftBooking("64c000000000000000000001", []string{asset1, asset2}, start, end))
	svc := newTestService(repo, newMockLockRepo(), newMockCatalog(availableAsset(asset1)), testConfig())

	_, err := svc.Transition(context.Background(), scope1(), "64c000000000000000000001", model.StatusReserved)
	if appErr := apperrors.AsAppError(err); err == nil || appErr.Code != apperrors.CodeValidation {
		t.Fatalf("expected validation error for unknown asset, got: %v", err)
	}
}

func TestTransition_LockContention(t *testing.T) {
	start := time.Now().Add(time.Hour)
	end := start.Add(time.Hour)

	repo := newMockBookingRepo(draftBooking("64c000000000000000000001", []string{asset1}, start, end))
	locks := newMockLockRepo()
	locks.createErr = mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
	svc := newTestService(repo, locks, newMockCatalog(availableAsset(asset1)), testConfig())

	_, err := svc.Transition(context.Background(), scope1(), "64c000000000000000000001", model.StatusReserved)
	if appErr := apperrors.AsAppError(err); err == nil || appErr.Code != apperrors.CodeConflict {
		t.Fatalf("expected conflict on lock contention, got: %v", err)
	}
}

func TestTransition_IllegalEdge(t *testing.T) {
	start := time.Now().Add(time.Hour)
	end := start.Add(time.Hour)

	repo := newMockBookingRepo(draftBooking("64c000000000000000000001", []string{asset1}, start, end))
	svc := newTestService(repo, newMockLockRepo(), newMockCatalog(availableAsset(asset1)), testConfig())

	_, err := svc.Transition(context.Background(), scope1(), "64c000000000000000000001", model.StatusCompleted)
	if err == nil {
		t.Fatal("expected state transition error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeStateTransition {
		t.Errorf("expected code %s, got %s", apperrors.CodeStateTransition, appErr.Code)
	}
	if appErr.StatusCode() != 409 {
		t.Errorf("expected HTTP 409, got %d", appErr.StatusCode())
	}
	allowed, ok := appErr.Details["allowed"].([]model.BookingStatus)
	if !ok {
		t.Fatalf("expected reachable targets in error details, got %v", appErr.Details["allowed"])
	}
	if len(allowed) != 2 || allowed[0] != model.StatusReserved || allowed[1] != model.StatusCancelled {
		t.Errorf("draft should offer reserved and cancelled, got %v", allowed)
	}
}

func TestTransition_CheckoutGrace(t *testing.T) {
	repo := newMockBookingRepo()
	cfg := testConfig()
	svc := newTestService(repo, newMockLockRepo(), newMockCatalog(availableAsset(asset1)), cfg)

	// Starts in 2h, grace is 15m: too early.
	early := draftBooking("64c000000000000000000001", []string{asset1}, time.Now().Add(2*time.Hour), time.Now().Add(3*time.Hour))
	early.Status = model.StatusReserved
	repo.bookings[early.ID] = early

	_, err := svc.Transition(context.Background(), scope1(), early.ID, model.StatusCheckedOut)
	if appErr := apperrors.AsAppError(err); err == nil || appErr.Code != apperrors.CodeValidation {
		t.Fatalf("expected validation error before checkout opens, got: %v", err)
	}

	// Starts in 10m: inside the grace window.
	due := draftBooking("64c000000000000000000002", []string{asset1}, time.Now().Add(10*time.Minute), time.Now().Add(time.Hour))
	due.Status = model.StatusReserved
	repo.bookings[due.ID] = due

	if _, err := svc.Transition(context.Background(), scope1(), due.ID, model.StatusCheckedOut); err != nil {
		t.Fatalf("checkout inside grace window failed: %v", err)
	}
}

func TestGetByID_CrossOrgForbidden(t *testing.T) {
	start := time.Now().Add(time.Hour)
	foreign := draftBooking("64c000000000000000000001", []string{asset1}, start, start.Add(time.Hour))
	foreign.OrganizationID = org2

	repo := newMockBookingRepo(foreign)
	svc := newTestService(repo, newMockLockRepo(), newMockCatalog(), testConfig())

	_, err := svc.GetByID(context.Background(), scope1(), foreign.ID)
	if appErr := apperrors.AsAppError(err); err == nil || appErr.Code != apperrors.CodeForbidden {
		t.Fatalf("expected forbidden for cross-org access, got: %v", err)
	}

	_, err = svc.GetByID(context.Background(), scope1(), "64c0000000000000000000ff")
	if appErr := apperrors.AsAppError(err); err == nil || appErr.Code != apperrors.CodeNotFound {
		t.Fatalf("expected not found for missing booking, got: %v", err)
	}
}

func TestDelete_Semantics(t *testing.T) {
	start := time.Now().Add(time.Hour)
	end := start.Add(time.Hour)

	reserved := draftBooking("64c000000000000000000001", []string{asset1}, start, end)
	reserved.Status = model.StatusReserved
	completed := draftBooking("64c000000000000000000002", []string{asset1}, start, end)
	completed.Status = model.StatusCompleted
	cancelled := draftBooking("64c000000000000000000003", []string{asset1}, start, end)
	cancelled.Status = model.StatusCancelled

	repo := newMockBookingRepo(reserved, completed, cancelled)
	svc := newTestService(repo, newMockLockRepo(), newMockCatalog(), testConfig())
	ctx := context.Background()

	if err := svc.Delete(ctx, scope1(), reserved.ID); err != nil {
		t.Fatalf("cancelling a reserved booking failed: %v", err)
	}
	if repo.bookings[reserved.ID].Status != model.StatusCancelled {
		t.Errorf("delete must soft-cancel, got status %s", repo.bookings[reserved.ID].Status)
	}

	err := svc.Delete(ctx, scope1(), completed.ID)
	if appErr := apperrors.AsAppError(err); err == nil || appErr.Code != apperrors.CodeStateTransition {
		t.Fatalf("expected state transition error deleting completed booking, got: %v", err)
	}

	if err := svc.Delete(ctx, scope1(), cancelled.ID); err != nil {
		t.Fatalf("deleting an already cancelled booking must be a no-op, got: %v", err)
	}
}

func TestCreate_ForcesDraftAndScope(t *testing.T) {
	repo := newMockBookingRepo()
	svc := newTestService(repo, newMockLockRepo(), newMockCatalog(), testConfig())

	booking := &model.Booking{
		OrganizationID: org2, // must be overwritten by scope
		Name:           "Lens kit",
		StartTime:      time.Now().Add(time.Hour),
		EndTime:        time.Now().Add(2 * time.Hour),
		AssetIDs:       []string{asset1},
	}

	if err := svc.Create(context.Background(), scope1(), booking); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if booking.Status != model.StatusDraft {
		t.Errorf("expected draft status, got %s", booking.Status)
	}
	if booking.OrganizationID != org1 || booking.CreatedBy != actor1 {
		t.Errorf("scope not applied: org=%s created_by=%s", booking.OrganizationID, booking.CreatedBy)
	}

	reserved := &model.Booking{
		Name:      "Lens kit",
		Status:    model.StatusReserved,
		StartTime: time.Now().Add(time.Hour),
		EndTime:   time.Now().Add(2 * time.Hour),
	}
	err := svc.Create(context.Background(), scope1(), reserved)
	if appErr := apperrors.AsAppError(err); err == nil || appErr.Code != apperrors.CodeInvalidInput {
		t.Fatalf("expected invalid input creating a non-draft booking, got: %v", err)
	}
}

func TestCheckConflicts_BoundaryTouchIsClear(t *testing.T) {
	start := time.Now().Add(time.Hour)
	mid := start.Add(time.Hour)

	existing := draftBooking("64c000000000000000000001", []string{asset1}, start, mid)
	existing.Status = model.StatusCheckedOut

	repo := newMockBookingRepo(existing)
	svc := newTestService(repo, newMockLockRepo(), newMockCatalog(), testConfig())

	report, err := svc.CheckConflicts(context.Background(), scope1(), &model.ConflictQuery{
		AssetIDs:  []string{asset1},
		StartTime: mid,
		EndTime:   mid.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.Clear {
		t.Errorf("boundary touch must be clear, got %+v", report)
	}

	report, err = svc.CheckConflicts(context.Background(), scope1(), &model.ConflictQuery{
		AssetIDs:  []string{asset1},
		StartTime: mid.Add(-time.Minute),
		EndTime:   mid.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Clear || len(report.Conflicted()) != 1 {
		t.Errorf("one-minute overlap must conflict, got %+v", report)
	}
}

func TestUpdate_TerminalBookingRejected(t *testing.T) {
	start := time.Now().Add(time.Hour)
	completed := draftBooking("64c000000000000000000001", []string{asset1}, start, start.Add(time.Hour))
	completed.Status = model.StatusCompleted

	repo := newMockBookingRepo(completed)
	svc := newTestService(repo, newMockLockRepo(), newMockCatalog(), testConfig())

	err := svc.Update(context.Background(), scope1(), completed.ID, &model.BookingUpdate{Name: "New name"})
	if appErr := apperrors.AsAppError(err); err == nil || appErr.Code != apperrors.CodeConflict {
		t.Fatalf("expected conflict editing a terminal booking, got: %v", err)
	}
}

func TestUpdate_ActiveWindowMoveRechecked(t *testing.T) {
	start := time.Now().Add(time.Hour)
	end := start.Add(time.Hour)

	blocker := draftBooking("64c000000000000000000001", []string{asset1}, end, end.Add(time.Hour))
	blocker.Status = model.StatusReserved
	active := draftBooking("64c000000000000000000002", []string{asset1}, start, end)
	active.Status = model.StatusReserved

	repo := newMockBookingRepo(blocker, active)
	svc := newTestService(repo, newMockLockRepo(), newMockCatalog(availableAsset(asset1)), testConfig())

	// Stretching the active window into the blocker must be rejected.
	newEnd := end.Add(30 * time.Minute)
	err := svc.Update(context.Background(), scope1(), active.ID, &model.BookingUpdate{EndTime: &newEnd})
	if appErr := apperrors.AsAppError(err); err == nil || appErr.Code != apperrors.CodeConflict {
		t.Fatalf("expected conflict stretching into an occupied window, got: %v", err)
	}
	if !repo.bookings[active.ID].EndTime.Equal(end) {
		t.Errorf("rejected update must not change the stored window")
	}

	// A rename alone skips the conflict gate entirely.
	if err := svc.Update(context.Background(), scope1(), active.ID, &model.BookingUpdate{Name: "Renamed"}); err != nil {
		t.Fatalf("rename of active booking failed: %v", err)
	}
}
