package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hydrowatch/tank-service/internal/domain"
	"github.com/hydrowatch/tank-service/internal/repository"
	apperrors "github.com/hydrowatch/tank-service/pkg/util"
)

type fakeTicketRepo struct {
	tickets   map[string]*domain.MaintenanceTicket
	createErr error
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]*domain.MaintenanceTicket{}}
}

func (f *fakeTicketRepo) Create(ctx context.Context, ticket *domain.MaintenanceTicket) error {
	if f.createErr != nil {
		return f.createErr
	}
	ticket.ID = uuid.NewString()
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now()
	}
	copied := *ticket
	f.tickets[ticket.ID] = &copied
	return nil
}

func (f *fakeTicketRepo) Update(ctx context.Context, ticket *domain.MaintenanceTicket) error {
	if _, ok := f.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *ticket
	f.tickets[ticket.ID] = &copied
	return nil
}

func (f *fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.MaintenanceTicket, error) {
	ticket, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (f *fakeTicketRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.tickets, id)
	return nil
}

func (f *fakeTicketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.MaintenanceTicket, error) {
	var out []domain.MaintenanceTicket
	for _, tk := range f.tickets {
		if len(filter.UnitIDs) > 0 && !containsString(filter.UnitIDs, tk.UnitID) {
			continue
		}
		if filter.Status != nil && tk.Status != *filter.Status {
			continue
		}
		if filter.IssueType != nil && tk.IssueType != *filter.IssueType {
			continue
		}
		if filter.Priority != nil && tk.Priority != *filter.Priority {
			continue
		}
		out = append(out, *tk)
	}
	return out, nil
}

func (f *fakeTicketRepo) HasOpenTicket(ctx context.Context, tankID string, issueType domain.IssueType, since time.Time) (bool, error) {
	for _, tk := range f.tickets {
		if tk.TankID != tankID || tk.IssueType != issueType {
			continue
		}
		if tk.Status != domain.TicketStatusOpen && tk.Status != domain.TicketStatusInProgress {
			continue
		}
		if !tk.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

type fakeTankRepo struct {
	tanks     map[string]*domain.Tank
	byDevice  map[string]string
	createErr error
}

func newFakeTankRepo() *fakeTankRepo {
	return &fakeTankRepo{tanks: map[string]*domain.Tank{}, byDevice: map[string]string{}}
}

func (f *fakeTankRepo) add(tank domain.Tank) {
	f.tanks[tank.ID] = &tank
	f.byDevice[tank.DeviceID] = tank.ID
}

func (f *fakeTankRepo) Create(ctx context.Context, tank *domain.Tank) error {
	if f.createErr != nil {
		return f.createErr
	}
	tank.ID = uuid.NewString()
	tank.CreatedAt = time.Now()
	f.add(*tank)
	return nil
}

func (f *fakeTankRepo) GetByID(ctx context.Context, id string) (*domain.Tank, error) {
	tank, ok := f.tanks[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *tank
	return &copied, nil
}

func (f *fakeTankRepo) GetByDeviceID(ctx context.Context, deviceID string) (*domain.Tank, error) {
	id, ok := f.byDevice[deviceID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return f.GetByID(ctx, id)
}

func (f *fakeTankRepo) ListByUnit(ctx context.Context, unitID string) ([]domain.Tank, error) {
	var out []domain.Tank
	for _, tank := range f.tanks {
		if tank.UnitID == unitID {
			out = append(out, *tank)
		}
	}
	return out, nil
}

func (f *fakeTankRepo) UpdateLastReading(ctx context.Context, tankID string, snapshot domain.ReadingSnapshot) error {
	tank, ok := f.tanks[tankID]
	if !ok {
		return pgx.ErrNoRows
	}
	tank.LastReading = &snapshot
	return nil
}

func containsString(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}

func newTicketServiceForTest(tickets *fakeTicketRepo, tanks *fakeTankRepo) *TicketService {
	return NewTicketService(TicketDependencies{TicketRepo: tickets, TankRepo: tanks})
}

func seedTank(tanks *fakeTankRepo, unitID string) domain.Tank {
	tank := domain.Tank{ID: uuid.NewString(), UnitID: unitID, DeviceID: uuid.NewString(), Name: "Test Tank"}
	tanks.add(tank)
	return tank
}

func strPtr(s string) *string { return &s }

func TestCreateTicket_DefaultsPriorityAndReporter(t *testing.T) {
	tickets := newFakeTicketRepo()
	tanks := newFakeTankRepo()
	tank := seedTank(tanks, "unit-1")
	svc := newTicketServiceForTest(tickets, tanks)

	ticket, err := svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		TankID:      tank.ID,
		Title:       "Pump noise",
		Description: "Rattling during refill",
		IssueType:   "other",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ticket.Priority != domain.TicketPriorityMedium {
		t.Fatalf("priority = %q, want medium default", ticket.Priority)
	}
	if ticket.Status != domain.TicketStatusOpen {
		t.Fatalf("status = %q, want open", ticket.Status)
	}
	if ticket.ReportedBy == nil || *ticket.ReportedBy != "user-1" {
		t.Fatalf("reported_by not set: %v", ticket.ReportedBy)
	}
	if ticket.UnitID != "unit-1" {
		t.Fatalf("unit id not resolved from tank: %q", ticket.UnitID)
	}
}

func TestCreateTicket_RejectsUnknownEnumValues(t *testing.T) {
	tickets := newFakeTicketRepo()
	tanks := newFakeTankRepo()
	tank := seedTank(tanks, "unit-1")
	svc := newTicketServiceForTest(tickets, tanks)

	base := TicketCreateInput{TankID: tank.ID, Title: "t", Description: "d", IssueType: "vibration"}

	badType := base
	badType.IssueType = "VIBRATION"
	if _, err := svc.CreateTicket(context.Background(), "user-1", badType); err == nil {
		t.Fatalf("uppercase issue type must be rejected")
	}

	badPriority := base
	badPriority.Priority = "urgent"
	if _, err := svc.CreateTicket(context.Background(), "user-1", badPriority); err == nil {
		t.Fatalf("unknown priority must be rejected")
	}

	if len(tickets.tickets) != 0 {
		t.Fatalf("no ticket should be written on validation failure")
	}
}

func TestCreateTicket_MissingTankIsNotFound(t *testing.T) {
	svc := newTicketServiceForTest(newFakeTicketRepo(), newFakeTankRepo())

	_, err := svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		TankID:      "nope",
		Title:       "t",
		Description: "d",
		IssueType:   "other",
	})
	if !apperrors.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestUpdateTicket_SparsePatchKeepsUnsetFields(t *testing.T) {
	tickets := newFakeTicketRepo()
	tanks := newFakeTankRepo()
	tank := seedTank(tanks, "unit-1")
	svc := newTicketServiceForTest(tickets, tanks)

	created, err := svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		TankID:      tank.ID,
		Title:       "Pump noise",
		Description: "Rattling",
		IssueType:   "other",
		Priority:    "high",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.UpdateTicket(context.Background(), "user-1", created.ID, TicketPatch{
		AssignedTo: strPtr("tech-7"),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.AssignedTo == nil || *updated.AssignedTo != "tech-7" {
		t.Fatalf("assigned_to not applied: %v", updated.AssignedTo)
	}
	if updated.Status != domain.TicketStatusOpen {
		t.Fatalf("status must be untouched, got %q", updated.Status)
	}
	if updated.Priority != domain.TicketPriorityHigh {
		t.Fatalf("priority must be untouched, got %q", updated.Priority)
	}
	if updated.ResolvedAt != nil {
		t.Fatalf("resolved_at must stay nil for non-resolving patch")
	}
}

func TestUpdateTicket_StampsResolvedAtOnResolveAndClose(t *testing.T) {
	tickets := newFakeTicketRepo()
	tanks := newFakeTankRepo()
	tank := seedTank(tanks, "unit-1")
	svc := newTicketServiceForTest(tickets, tanks)

	created, _ := svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		TankID: tank.ID, Title: "t", Description: "d", IssueType: "other",
	})

	before := time.Now()
	resolved, err := svc.UpdateTicket(context.Background(), "user-1", created.ID, TicketPatch{
		Status:          strPtr("resolved"),
		ResolutionNotes: strPtr("replaced sensor"),
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.ResolvedAt == nil {
		t.Fatalf("resolved_at must be stamped")
	}
	if resolved.ResolvedAt.Before(before) || resolved.ResolvedAt.After(time.Now()) {
		t.Fatalf("resolved_at %v outside mutation window", resolved.ResolvedAt)
	}

	firstStamp := *resolved.ResolvedAt

	// Closing a resolved ticket overwrites the stamp.
	time.Sleep(5 * time.Millisecond)
	closed, err := svc.UpdateTicket(context.Background(), "user-1", created.ID, TicketPatch{
		Status: strPtr("closed"),
	})
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.ResolvedAt == nil || !closed.ResolvedAt.After(firstStamp) {
		t.Fatalf("closing must re-stamp resolved_at: first=%v now=%v", firstStamp, closed.ResolvedAt)
	}
}

func TestUpdateTicket_ReopeningKeepsOldResolvedAt(t *testing.T) {
	tickets := newFakeTicketRepo()
	tanks := newFakeTankRepo()
	tank := seedTank(tanks, "unit-1")
	svc := newTicketServiceForTest(tickets, tanks)

	created, _ := svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		TankID: tank.ID, Title: "t", Description: "d", IssueType: "other",
	})
	resolved, _ := svc.UpdateTicket(context.Background(), "user-1", created.ID, TicketPatch{Status: strPtr("resolved")})
	stamp := *resolved.ResolvedAt

	reopened, err := svc.UpdateTicket(context.Background(), "user-1", created.ID, TicketPatch{Status: strPtr("open")})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Status != domain.TicketStatusOpen {
		t.Fatalf("status = %q, want open", reopened.Status)
	}
	if reopened.ResolvedAt == nil || !reopened.ResolvedAt.Equal(stamp) {
		t.Fatalf("reopening must keep the old resolved_at, got %v want %v", reopened.ResolvedAt, stamp)
	}
}

func TestUpdateTicket_RejectsUnknownStatus(t *testing.T) {
	tickets := newFakeTicketRepo()
	tanks := newFakeTankRepo()
	tank := seedTank(tanks, "unit-1")
	svc := newTicketServiceForTest(tickets, tanks)

	created, _ := svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		TankID: tank.ID, Title: "t", Description: "d", IssueType: "other",
	})

	if _, err := svc.UpdateTicket(context.Background(), "user-1", created.ID, TicketPatch{Status: strPtr("done")}); err == nil {
		t.Fatalf("unknown status must be rejected")
	}

	stored, _ := tickets.GetByID(context.Background(), created.ID)
	if stored.Status != domain.TicketStatusOpen {
		t.Fatalf("rejected patch must not persist, status = %q", stored.Status)
	}
}

func TestDeleteTicket_MissingIsNotFound(t *testing.T) {
	svc := newTicketServiceForTest(newFakeTicketRepo(), newFakeTankRepo())

	err := svc.DeleteTicket(context.Background(), "user-1", "missing")
	if !apperrors.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestListTickets_ScopesNonAdminToUnits(t *testing.T) {
	tickets := newFakeTicketRepo()
	tanks := newFakeTankRepo()
	tankA := seedTank(tanks, "unit-a")
	tankB := seedTank(tanks, "unit-b")
	svc := newTicketServiceForTest(tickets, tanks)

	for _, tank := range []domain.Tank{tankA, tankB} {
		if _, err := svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{
			TankID: tank.ID, Title: "t", Description: "d", IssueType: "other",
		}); err != nil {
			t.Fatalf("seed ticket: %v", err)
		}
	}

	member := &domain.User{ID: "u1", Role: domain.UserRoleUser, Units: []string{"unit-a"}}
	got, err := svc.ListTickets(context.Background(), member, TicketListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].UnitID != "unit-a" {
		t.Fatalf("member must only see unit-a tickets, got %+v", got)
	}

	admin := &domain.User{ID: "a1", Role: domain.UserRoleAdmin}
	all, err := svc.ListTickets(context.Background(), admin, TicketListFilter{})
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("admin must see all tickets, got %d", len(all))
	}
}

func TestListTickets_NoUnitsYieldsEmptyNotError(t *testing.T) {
	svc := newTicketServiceForTest(newFakeTicketRepo(), newFakeTankRepo())

	orphan := &domain.User{ID: "u2", Role: domain.UserRoleUser}
	got, err := svc.ListTickets(context.Background(), orphan, TicketListFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
}

func TestListTickets_StatusFilter(t *testing.T) {
	tickets := newFakeTicketRepo()
	tanks := newFakeTankRepo()
	tank := seedTank(tanks, "unit-a")
	svc := newTicketServiceForTest(tickets, tanks)

	created, _ := svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		TankID: tank.ID, Title: "a", Description: "d", IssueType: "other",
	})
	second, _ := svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		TankID: tank.ID, Title: "b", Description: "d", IssueType: "vibration",
	})
	if _, err := svc.UpdateTicket(context.Background(), "user-1", second.ID, TicketPatch{Status: strPtr("resolved")}); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	admin := &domain.User{ID: "a1", Role: domain.UserRoleAdmin}
	open := domain.TicketStatusOpen
	got, err := svc.ListTickets(context.Background(), admin, TicketListFilter{Status: &open})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != created.ID {
		t.Fatalf("expected only the open ticket, got %+v", got)
	}
}
