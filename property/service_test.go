package property

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"landflow/audit"
	"landflow/auth"
	"landflow/workflow"
)

var (
	citizen = auth.Actor{ID: "owner-1", Role: auth.RoleCitizen}
	officer = auth.Actor{ID: "officer-1", Role: auth.RoleOfficer}
)

func validParams() RegisterParams {
	return RegisterParams{
		PlotNumber: "AA-0412",
		Location: Location{
			Region:  "Addis Ababa",
			SubCity: "Bole",
			Kebele:  "03",
		},
		PropertyType: TypeResidential,
		AreaSqm:      250,
	}
}

func TestRegister_Success(t *testing.T) {
	pool := &fakePool{}
	repo := &fakeRepo{}
	auditor := &fakeAuditor{}
	outbox := &fakeOutbox{}
	svc := NewService(pool, repo, auditor, outbox)

	prop, err := svc.Register(context.Background(), citizen, validParams())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if prop.Status != StatusPending {
		t.Fatalf("expected pending status, got %s", prop.Status)
	}
	if prop.OwnerID != citizen.ID {
		t.Fatalf("expected owner %q, got %q", citizen.ID, prop.OwnerID)
	}
	if !pool.tx.committed {
		t.Fatal("expected commit")
	}
	if len(auditor.entries) != 1 || auditor.entries[0].Action != audit.ActionPropertyRegistered {
		t.Fatalf("expected one property_registered audit entry, got %+v", auditor.entries)
	}
	if len(outbox.topics) != 1 {
		t.Fatalf("expected one outbox message, got %v", outbox.topics)
	}
}

func TestRegister_Validation(t *testing.T) {
	cases := map[string]func(*RegisterParams){
		"missing plot":  func(p *RegisterParams) { p.PlotNumber = " " },
		"missing loc":   func(p *RegisterParams) { p.Location.Kebele = "" },
		"bad type":      func(p *RegisterParams) { p.PropertyType = "castle" },
		"negative area": func(p *RegisterParams) { p.AreaSqm = -10 },
	}
	for name, mutate := range cases {
		pool := &fakePool{}
		svc := NewService(pool, &fakeRepo{}, &fakeAuditor{}, &fakeOutbox{})

		params := validParams()
		mutate(&params)

		_, err := svc.Register(context.Background(), citizen, params)
		if !workflow.IsKind(err, workflow.KindValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
		if pool.tx != nil {
			t.Fatalf("%s: expected no transaction for invalid input", name)
		}
	}
}

func TestRequestTransition_LegalEdge(t *testing.T) {
	pool := &fakePool{}
	repo := &fakeRepo{current: StatusPending}
	auditor := &fakeAuditor{}
	svc := NewService(pool, repo, auditor, &fakeOutbox{})

	updated, err := svc.RequestTransition(context.Background(), TransitionParams{
		PropertyID: "p1",
		Target:     StatusDocumentsValidated,
		Actor:      officer,
		Notes:      "all documents verified",
	})
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if updated.Status != StatusDocumentsValidated {
		t.Fatalf("expected documents_validated, got %s", updated.Status)
	}
	if !pool.tx.committed {
		t.Fatal("expected commit")
	}
	if len(auditor.entries) != 1 || auditor.entries[0].Action != audit.ActionStatusChanged {
		t.Fatalf("expected one status_changed audit entry, got %+v", auditor.entries)
	}
}

func TestRequestTransition_IllegalEdge(t *testing.T) {
	pool := &fakePool{}
	repo := &fakeRepo{current: StatusPending}
	svc := NewService(pool, repo, &fakeAuditor{}, &fakeOutbox{})

	_, err := svc.RequestTransition(context.Background(), TransitionParams{
		PropertyID: "p1",
		Target:     StatusApproved,
		Actor:      officer,
	})
	if !workflow.IsKind(err, workflow.KindInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if repo.statusSet {
		t.Fatal("expected no status write on illegal edge")
	}
	if pool.tx.committed {
		t.Fatal("expected rollback on illegal edge")
	}
}

func TestRequestTransition_TransferredRefused(t *testing.T) {
	pool := &fakePool{}
	svc := NewService(pool, &fakeRepo{current: StatusApproved}, &fakeAuditor{}, &fakeOutbox{})

	_, err := svc.RequestTransition(context.Background(), TransitionParams{
		PropertyID: "p1",
		Target:     StatusTransferred,
		Actor:      officer,
	})
	if !workflow.IsKind(err, workflow.KindInvalidTransition) {
		t.Fatalf("expected invalid transition for direct transferred request, got %v", err)
	}
	if pool.tx != nil {
		t.Fatal("expected the request to be refused before any transaction")
	}
}

func TestRequestTransition_OfficerOnly(t *testing.T) {
	pool := &fakePool{}
	svc := NewService(pool, &fakeRepo{current: StatusPending}, &fakeAuditor{}, &fakeOutbox{})

	_, err := svc.RequestTransition(context.Background(), TransitionParams{
		PropertyID: "p1",
		Target:     StatusDocumentsValidated,
		Actor:      citizen,
	})
	if !workflow.IsKind(err, workflow.KindForbidden) {
		t.Fatalf("expected forbidden for citizen, got %v", err)
	}
}

func TestRequestTransition_ResubmissionOwnerOnly(t *testing.T) {
	pool := &fakePool{}
	repo := &fakeRepo{current: StatusNeedsUpdate, owner: "owner-1"}
	svc := NewService(pool, repo, &fakeAuditor{}, &fakeOutbox{})

	_, err := svc.RequestTransition(context.Background(), TransitionParams{
		PropertyID: "p1",
		Target:     StatusPending,
		Actor:      auth.Actor{ID: "intruder", Role: auth.RoleCitizen},
	})
	if !workflow.IsKind(err, workflow.KindNotOwner) {
		t.Fatalf("expected not-owner, got %v", err)
	}

	if _, err := svc.RequestTransition(context.Background(), TransitionParams{
		PropertyID: "p1",
		Target:     StatusPending,
		Actor:      auth.Actor{ID: "owner-1", Role: auth.RoleCitizen},
	}); err != nil {
		t.Fatalf("owner resubmission should succeed, got %v", err)
	}
}

type fakeRepo struct {
	current   Status
	owner     string
	statusSet bool
}

func (f *fakeRepo) Insert(ctx context.Context, tx pgx.Tx, params RegisterParams) (Property, error) {
	return Property{
		ID:           "p1",
		PlotNumber:   params.PlotNumber,
		Location:     params.Location,
		PropertyType: params.PropertyType,
		AreaSqm:      params.AreaSqm,
		Status:       StatusPending,
		OwnerID:      params.OwnerID,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func (f *fakeRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (Property, error) {
	owner := f.owner
	if owner == "" {
		owner = "owner-1"
	}
	return Property{ID: id, Status: f.current, OwnerID: owner}, nil
}

func (f *fakeRepo) SetStatus(ctx context.Context, tx pgx.Tx, id string, status Status) (Property, error) {
	f.statusSet = true
	f.current = status
	return Property{ID: id, Status: status}, nil
}

func (f *fakeRepo) Get(ctx context.Context, id string) (Property, error) {
	return Property{ID: id, Status: f.current}, nil
}

func (f *fakeRepo) ListByOwner(ctx context.Context, ownerID string) ([]Property, error) {
	return nil, nil
}

type fakeAuditor struct {
	entries []audit.Entry
}

func (f *fakeAuditor) Append(ctx context.Context, tx pgx.Tx, entry audit.Entry) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fakeOutbox struct {
	topics []string
}

func (f *fakeOutbox) Enqueue(ctx context.Context, tx pgx.Tx, topic string, payload map[string]any) error {
	f.topics = append(f.topics, topic)
	return nil
}

type fakePool struct {
	tx *fakeTx
}

func (f *fakePool) Begin(ctx context.Context) (pgx.Tx, error) {
	f.tx = &fakeTx{}
	return f.tx, nil
}

type fakeTx struct {
	rolled    bool
	committed bool
}

func (f *fakeTx) Begin(context.Context) (pgx.Tx, error) {
	return nil, errors.New("fakeTx does not support nested transactions")
}

func (f *fakeTx) Commit(context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(context.Context) error {
	f.rolled = true
	return nil
}

func (f *fakeTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}

func (f *fakeTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}

func (f *fakeTx) LargeObjects() pgx.LargeObjects {
	panic("not implemented")
}

func (f *fakeTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}

func (f *fakeTx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}

func (f *fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("not implemented")
}

func (f *fakeTx) QueryRow(context.Context, string, ...any) pgx.Row {
	panic("not implemented")
}

func (f *fakeTx) Conn() *pgx.Conn {
	return nil
}
