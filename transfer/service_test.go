package transfer

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"landflow/audit"
	"landflow/auth"
	"landflow/notify"
	"landflow/workflow"
)

var (
	seller  = auth.Actor{ID: "owner-1", Role: auth.RoleCitizen}
	officer = auth.Actor{ID: "officer-1", Role: auth.RoleOfficer}
	admin   = auth.Actor{ID: "admin-1", Role: auth.RoleAdmin}
)

func validInitiate() InitiateParams {
	return InitiateParams{
		PropertyID:     "p1",
		NewOwnerEmail:  "tigist@example.com",
		TransferType:   TypeSale,
		TransferValue:  1_500_000,
		TransferReason: "sale agreed between the parties",
	}
}

func newTestService(repo *fakeRepo) (*Service, *fakePool, *fakeAuditor, *fakeOutbox) {
	pool := &fakePool{}
	auditor := &fakeAuditor{}
	outbox := &fakeOutbox{}
	users := &fakeUsers{users: map[string]auth.User{
		"tigist@example.com": {ID: "buyer-1", Email: "tigist@example.com"},
		"owner@example.com":  {ID: "owner-1", Email: "owner@example.com"},
	}}
	return NewService(pool, repo, users, auditor, outbox), pool, auditor, outbox
}

func TestInitiate_Success(t *testing.T) {
	repo := &fakeRepo{prop: PropertyState{ID: "p1", OwnerID: "owner-1", Status: "approved"}}
	svc, pool, auditor, outbox := newTestService(repo)

	tr, err := svc.Initiate(context.Background(), seller, validInitiate())
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if tr.Status != StatusInitiated {
		t.Fatalf("expected initiated, got %s", tr.Status)
	}
	if tr.NewOwnerID != "buyer-1" {
		t.Fatalf("expected resolved new owner buyer-1, got %s", tr.NewOwnerID)
	}
	if tr.Currency != "ETB" {
		t.Fatalf("expected default currency ETB, got %s", tr.Currency)
	}
	if !pool.tx.committed {
		t.Fatal("expected commit")
	}
	if len(repo.lockCalls) != 1 || repo.lockCalls[0] == nil || *repo.lockCalls[0] != tr.ID {
		t.Fatalf("expected the property locked to the new transfer, got %v", repo.lockCalls)
	}
	if len(auditor.entries) != 1 || auditor.entries[0].Action != audit.ActionTransferInitiated {
		t.Fatalf("expected one transfer_initiated audit entry, got %+v", auditor.entries)
	}
	if len(outbox.topics) != 1 || outbox.topics[0] != notify.TopicTransferInitiated {
		t.Fatalf("expected transfer.initiated outbox message, got %v", outbox.topics)
	}
}

func TestInitiate_OnlyOwner(t *testing.T) {
	repo := &fakeRepo{prop: PropertyState{ID: "p1", OwnerID: "someone-else", Status: "approved"}}
	svc, pool, _, _ := newTestService(repo)

	_, err := svc.Initiate(context.Background(), seller, validInitiate())
	if !workflow.IsKind(err, workflow.KindNotOwner) {
		t.Fatalf("expected not-owner, got %v", err)
	}
	if pool.tx.committed {
		t.Fatal("expected rollback")
	}
}

func TestInitiate_ActiveDisputeBlocks(t *testing.T) {
	repo := &fakeRepo{prop: PropertyState{ID: "p1", OwnerID: "owner-1", Status: "approved", HasActiveDispute: true}}
	svc, _, _, _ := newTestService(repo)

	_, err := svc.Initiate(context.Background(), seller, validInitiate())
	if !workflow.IsKind(err, workflow.KindAlreadyActive) {
		t.Fatalf("expected already-active for disputed property, got %v", err)
	}
}

func TestInitiate_SecondTransferBlocked(t *testing.T) {
	repo := &fakeRepo{
		prop:   PropertyState{ID: "p1", OwnerID: "owner-1", Status: "approved"},
		active: true,
	}
	svc, _, _, _ := newTestService(repo)

	_, err := svc.Initiate(context.Background(), seller, validInitiate())
	if !workflow.IsKind(err, workflow.KindAlreadyActive) {
		t.Fatalf("expected already-active for second transfer, got %v", err)
	}
	if repo.inserted {
		t.Fatal("expected no transfer row for a blocked initiation")
	}
}

func TestInitiate_TransfereeMustDiffer(t *testing.T) {
	repo := &fakeRepo{prop: PropertyState{ID: "p1", OwnerID: "owner-1", Status: "approved"}}
	svc, _, _, _ := newTestService(repo)

	params := validInitiate()
	params.NewOwnerEmail = "owner@example.com"

	_, err := svc.Initiate(context.Background(), seller, params)
	if !workflow.IsKind(err, workflow.KindValidation) {
		t.Fatalf("expected validation error for self-transfer, got %v", err)
	}
}

func TestInitiate_PropertyMustBeApproved(t *testing.T) {
	repo := &fakeRepo{prop: PropertyState{ID: "p1", OwnerID: "owner-1", Status: "pending"}}
	svc, _, _, _ := newTestService(repo)

	_, err := svc.Initiate(context.Background(), seller, validInitiate())
	if !workflow.IsKind(err, workflow.KindInvalidTransition) {
		t.Fatalf("expected invalid transition for unapproved property, got %v", err)
	}
}

func TestInitiate_Validation(t *testing.T) {
	cases := map[string]func(*InitiateParams){
		"bad type":       func(p *InitiateParams) { p.TransferType = "barter" },
		"negative value": func(p *InitiateParams) { p.TransferValue = -1 },
		"missing email":  func(p *InitiateParams) { p.NewOwnerEmail = " " },
	}
	for name, mutate := range cases {
		svc, pool, _, _ := newTestService(&fakeRepo{})

		params := validInitiate()
		mutate(&params)

		_, err := svc.Initiate(context.Background(), seller, params)
		if !workflow.IsKind(err, workflow.KindValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
		if pool.tx != nil {
			t.Fatalf("%s: expected no transaction for invalid input", name)
		}
	}
}

func TestUploadDocuments_AdvancesToUnderReview(t *testing.T) {
	repo := &fakeRepo{transfer: Transfer{ID: "t1", PropertyID: "p1", PreviousOwnerID: "owner-1", Status: StatusInitiated}}
	svc, pool, auditor, _ := newTestService(repo)

	updated, err := svc.UploadDocuments(context.Background(), seller, "t1", []DocumentInput{
		{DocType: DocSaleAgreement, FileID: "file-1"},
		{DocType: DocIDCard, FileID: "file-2"},
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if updated.Status != StatusUnderReview {
		t.Fatalf("expected under_review, got %s", updated.Status)
	}
	if !pool.tx.committed {
		t.Fatal("expected commit")
	}
	if len(auditor.entries) != 1 || auditor.entries[0].Action != audit.ActionTransferDocsUploaded {
		t.Fatalf("expected one documents-uploaded audit entry, got %+v", auditor.entries)
	}
}

func TestUploadDocuments_OwnerOnly(t *testing.T) {
	repo := &fakeRepo{transfer: Transfer{ID: "t1", PreviousOwnerID: "owner-1", Status: StatusInitiated}}
	svc, _, _, _ := newTestService(repo)

	_, err := svc.UploadDocuments(context.Background(), auth.Actor{ID: "buyer-1", Role: auth.RoleCitizen}, "t1",
		[]DocumentInput{{DocType: DocIDCard, FileID: "file-1"}})
	if !workflow.IsKind(err, workflow.KindNotOwner) {
		t.Fatalf("expected not-owner, got %v", err)
	}
}

func TestUploadDocuments_RefusedAfterVerificationStarts(t *testing.T) {
	repo := &fakeRepo{transfer: Transfer{ID: "t1", PreviousOwnerID: "owner-1", Status: StatusVerificationPending}}
	svc, _, _, _ := newTestService(repo)

	_, err := svc.UploadDocuments(context.Background(), seller, "t1",
		[]DocumentInput{{DocType: DocIDCard, FileID: "file-1"}})
	if !workflow.IsKind(err, workflow.KindInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestReviewDocuments_AllApprovedAdvances(t *testing.T) {
	repo := &fakeRepo{
		transfer:    Transfer{ID: "t1", PropertyID: "p1", Status: StatusUnderReview},
		allApproved: true,
	}
	svc, _, auditor, _ := newTestService(repo)

	updated, err := svc.ReviewDocuments(context.Background(), officer, ReviewParams{
		TransferID: "t1",
		Reviews:    []DocumentReview{{DocumentID: "d1", Verdict: VerdictDocApproved, Notes: "legible and stamped"}},
		Notes:      "all documents verified",
	})
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if updated.Status != StatusVerificationPending {
		t.Fatalf("expected verification_pending, got %s", updated.Status)
	}
	if len(auditor.entries) != 1 || auditor.entries[0].Action != audit.ActionTransferDocsReviewed {
		t.Fatalf("expected one documents-reviewed audit entry, got %+v", auditor.entries)
	}
}

func TestReviewDocuments_PartialApprovalStays(t *testing.T) {
	repo := &fakeRepo{transfer: Transfer{ID: "t1", Status: StatusUnderReview}}
	svc, _, _, _ := newTestService(repo)

	updated, err := svc.ReviewDocuments(context.Background(), officer, ReviewParams{
		TransferID: "t1",
		Reviews:    []DocumentReview{{DocumentID: "d1", Verdict: VerdictDocNeedsRevision, Notes: "photocopy, need original"}},
		Notes:      "sale agreement must be resubmitted",
	})
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if updated.Status != StatusUnderReview {
		t.Fatalf("expected transfer to stay under_review, got %s", updated.Status)
	}
}

func TestReviewDocuments_NotesRequired(t *testing.T) {
	svc, _, _, _ := newTestService(&fakeRepo{transfer: Transfer{ID: "t1", Status: StatusUnderReview}})

	_, err := svc.ReviewDocuments(context.Background(), officer, ReviewParams{
		TransferID: "t1",
		Reviews:    []DocumentReview{{DocumentID: "d1", Verdict: VerdictDocApproved}},
	})
	if !workflow.IsKind(err, workflow.KindValidation) {
		t.Fatalf("expected validation error for empty notes, got %v", err)
	}
}

func TestReviewDocuments_OfficerOnly(t *testing.T) {
	svc, _, _, _ := newTestService(&fakeRepo{transfer: Transfer{ID: "t1", Status: StatusUnderReview}})

	_, err := svc.ReviewDocuments(context.Background(), seller, ReviewParams{
		TransferID: "t1",
		Reviews:    []DocumentReview{{DocumentID: "d1", Verdict: VerdictDocApproved, Notes: "x"}},
		Notes:      "x",
	})
	if !workflow.IsKind(err, workflow.KindForbidden) {
		t.Fatalf("expected forbidden for citizen, got %v", err)
	}
}

func TestCompliance_NonCompliantAutoRejects(t *testing.T) {
	repo := &fakeRepo{transfer: Transfer{ID: "t1", PropertyID: "p1", Status: StatusVerificationPending}}
	svc, _, auditor, outbox := newTestService(repo)

	checks := ComplianceChecks{
		EthiopianLaw:    SubCheck{Status: CheckCompliant},
		TaxClearance:    SubCheck{Status: CheckNonCompliant, Notes: "outstanding land tax"},
		FraudPrevention: FraudCheck{Status: CheckCompliant, Risk: RiskLow},
	}
	updated, err := svc.PerformComplianceChecks(context.Background(), officer, "t1", checks)
	if err != nil {
		t.Fatalf("compliance: %v", err)
	}
	if updated.Status != StatusRejected {
		t.Fatalf("expected automatic rejection, got %s", updated.Status)
	}
	if len(repo.lockCalls) != 1 || repo.lockCalls[0] != nil {
		t.Fatalf("expected the property lock released, got %v", repo.lockCalls)
	}
	if len(auditor.entries) != 1 || auditor.entries[0].Action != audit.ActionTransferRejected {
		t.Fatalf("expected transfer_rejected audit entry, got %+v", auditor.entries)
	}
	if len(outbox.topics) != 1 || outbox.topics[0] != notify.TopicTransferRejected {
		t.Fatalf("expected transfer.rejected outbox message, got %v", outbox.topics)
	}
}

func TestCompliance_PendingStaysInVerification(t *testing.T) {
	repo := &fakeRepo{transfer: Transfer{ID: "t1", PropertyID: "p1", Status: StatusVerificationPending}}
	svc, _, auditor, _ := newTestService(repo)

	checks := ComplianceChecks{
		EthiopianLaw:    SubCheck{Status: CheckCompliant},
		TaxClearance:    SubCheck{Status: CheckPending, Notes: "awaiting revenue office"},
		FraudPrevention: FraudCheck{Status: CheckCompliant, Risk: RiskLow},
	}
	updated, err := svc.PerformComplianceChecks(context.Background(), officer, "t1", checks)
	if err != nil {
		t.Fatalf("compliance: %v", err)
	}
	if updated.Status != StatusVerificationPending {
		t.Fatalf("expected verification_pending, got %s", updated.Status)
	}
	if len(repo.lockCalls) != 0 {
		t.Fatal("expected the property lock untouched")
	}
	if len(auditor.entries) != 1 || auditor.entries[0].Action != audit.ActionComplianceChecked {
		t.Fatalf("expected compliance-checked audit entry, got %+v", auditor.entries)
	}
}

func TestCompliance_WrongState(t *testing.T) {
	svc, _, _, _ := newTestService(&fakeRepo{transfer: Transfer{ID: "t1", Status: StatusInitiated}})

	_, err := svc.PerformComplianceChecks(context.Background(), officer, "t1", ComplianceChecks{
		EthiopianLaw:    SubCheck{Status: CheckCompliant},
		TaxClearance:    SubCheck{Status: CheckCompliant},
		FraudPrevention: FraudCheck{Status: CheckCompliant, Risk: RiskLow},
	})
	if !workflow.IsKind(err, workflow.KindInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func compliantTransfer() Transfer {
	return Transfer{
		ID:         "t1",
		PropertyID: "p1",
		Status:     StatusVerificationPending,
		Compliance: ComplianceChecks{
			EthiopianLaw:    SubCheck{Status: CheckCompliant},
			TaxClearance:    SubCheck{Status: CheckCompliant},
			FraudPrevention: FraudCheck{Status: CheckCompliant, Risk: RiskLow},
		},
	}
}

func TestDecide_Approve(t *testing.T) {
	repo := &fakeRepo{
		transfer: compliantTransfer(),
		prop:     PropertyState{ID: "p1", OwnerID: "owner-1", Status: "approved"},
	}
	svc, pool, auditor, _ := newTestService(repo)

	updated, err := svc.Decide(context.Background(), officer, DecisionParams{TransferID: "t1", Approve: true, Notes: "verified"})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if updated.Status != StatusApproved {
		t.Fatalf("expected approved, got %s", updated.Status)
	}
	if !pool.tx.committed {
		t.Fatal("expected commit")
	}
	if len(auditor.entries) != 1 || auditor.entries[0].Action != audit.ActionTransferApproved {
		t.Fatalf("expected transfer_approved audit entry, got %+v", auditor.entries)
	}
}

func TestDecide_ApproveRequiresCompliantChecks(t *testing.T) {
	tr := compliantTransfer()
	tr.Compliance.TaxClearance.Status = CheckPending
	svc, _, _, _ := newTestService(&fakeRepo{transfer: tr})

	_, err := svc.Decide(context.Background(), officer, DecisionParams{TransferID: "t1", Approve: true})
	if !workflow.IsKind(err, workflow.KindCompliance) {
		t.Fatalf("expected compliance error, got %v", err)
	}
}

func TestDecide_ApproveBlockedByNewDispute(t *testing.T) {
	repo := &fakeRepo{
		transfer: compliantTransfer(),
		prop:     PropertyState{ID: "p1", OwnerID: "owner-1", Status: "approved", HasActiveDispute: true},
	}
	svc, _, _, _ := newTestService(repo)

	_, err := svc.Decide(context.Background(), officer, DecisionParams{TransferID: "t1", Approve: true})
	if !workflow.IsKind(err, workflow.KindAlreadyActive) {
		t.Fatalf("expected already-active for disputed property, got %v", err)
	}
}

func TestDecide_RejectRequiresNotes(t *testing.T) {
	svc, pool, _, _ := newTestService(&fakeRepo{transfer: compliantTransfer()})

	_, err := svc.Decide(context.Background(), officer, DecisionParams{TransferID: "t1", Approve: false, Notes: "  "})
	if !workflow.IsKind(err, workflow.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if pool.tx != nil {
		t.Fatal("expected no transaction for invalid input")
	}
}

func TestDecide_RejectReleasesProperty(t *testing.T) {
	repo := &fakeRepo{transfer: compliantTransfer()}
	svc, _, _, outbox := newTestService(repo)

	updated, err := svc.Decide(context.Background(), officer, DecisionParams{
		TransferID: "t1",
		Approve:    false,
		Notes:      "buyer identity could not be verified",
	})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if updated.Status != StatusRejected {
		t.Fatalf("expected rejected, got %s", updated.Status)
	}
	if len(repo.lockCalls) != 1 || repo.lockCalls[0] != nil {
		t.Fatalf("expected the property lock released, got %v", repo.lockCalls)
	}
	if len(outbox.topics) != 1 || outbox.topics[0] != notify.TopicTransferRejected {
		t.Fatalf("expected transfer.rejected outbox message, got %v", outbox.topics)
	}
}

func TestDecide_OfficerOnly(t *testing.T) {
	svc, _, _, _ := newTestService(&fakeRepo{transfer: compliantTransfer()})

	_, err := svc.Decide(context.Background(), seller, DecisionParams{TransferID: "t1", Approve: true})
	if !workflow.IsKind(err, workflow.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestComplete_SwapsOwnership(t *testing.T) {
	repo := &fakeRepo{
		transfer: Transfer{ID: "t1", PropertyID: "p1", PreviousOwnerID: "owner-1", NewOwnerID: "buyer-1", Status: StatusApproved},
		prop:     PropertyState{ID: "p1", OwnerID: "owner-1", Status: "approved"},
	}
	svc, pool, auditor, outbox := newTestService(repo)

	updated, err := svc.Complete(context.Background(), admin, "t1")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if updated.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", updated.Status)
	}
	if !repo.swapped {
		t.Fatal("expected the ownership swap")
	}
	if !pool.tx.committed {
		t.Fatal("expected commit")
	}
	if len(auditor.entries) != 1 || auditor.entries[0].Action != audit.ActionTransferCompleted {
		t.Fatalf("expected transfer_completed audit entry, got %+v", auditor.entries)
	}
	if len(outbox.topics) != 1 || outbox.topics[0] != notify.TopicTransferCompleted {
		t.Fatalf("expected transfer.completed outbox message, got %v", outbox.topics)
	}
}

func TestComplete_AdminOnly(t *testing.T) {
	svc, _, _, _ := newTestService(&fakeRepo{transfer: Transfer{ID: "t1", Status: StatusApproved}})

	_, err := svc.Complete(context.Background(), officer, "t1")
	if !workflow.IsKind(err, workflow.KindForbidden) {
		t.Fatalf("expected forbidden for officer, got %v", err)
	}
}

func TestComplete_OnlyApprovedOnce(t *testing.T) {
	repo := &fakeRepo{transfer: Transfer{ID: "t1", PropertyID: "p1", Status: StatusCompleted}}
	svc, _, _, _ := newTestService(repo)

	_, err := svc.Complete(context.Background(), admin, "t1")
	if !workflow.IsKind(err, workflow.KindInvalidTransition) {
		t.Fatalf("expected invalid transition for a second completion, got %v", err)
	}
	if repo.swapped {
		t.Fatal("expected no second ownership swap")
	}
}

func TestComplete_BlockedByNewDispute(t *testing.T) {
	repo := &fakeRepo{
		transfer: Transfer{ID: "t1", PropertyID: "p1", Status: StatusApproved},
		prop:     PropertyState{ID: "p1", Status: "approved", HasActiveDispute: true},
	}
	svc, _, _, _ := newTestService(repo)

	_, err := svc.Complete(context.Background(), admin, "t1")
	if !workflow.IsKind(err, workflow.KindAlreadyActive) {
		t.Fatalf("expected already-active for disputed property, got %v", err)
	}
	if repo.swapped {
		t.Fatal("expected no ownership swap under a dispute")
	}
}

func TestCancel_ReleasesProperty(t *testing.T) {
	repo := &fakeRepo{transfer: Transfer{ID: "t1", PropertyID: "p1", PreviousOwnerID: "owner-1", Status: StatusDocumentsPending}}
	svc, _, auditor, outbox := newTestService(repo)

	updated, err := svc.Cancel(context.Background(), seller, "t1", "changed my mind")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if updated.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", updated.Status)
	}
	if len(repo.lockCalls) != 1 || repo.lockCalls[0] != nil {
		t.Fatalf("expected the property lock released, got %v", repo.lockCalls)
	}
	if len(auditor.entries) != 1 || auditor.entries[0].Action != audit.ActionTransferCancelled {
		t.Fatalf("expected transfer_cancelled audit entry, got %+v", auditor.entries)
	}
	if len(outbox.topics) != 1 || outbox.topics[0] != notify.TopicTransferCancelled {
		t.Fatalf("expected transfer.cancelled outbox message, got %v", outbox.topics)
	}
}

func TestCancel_OwnerOnly(t *testing.T) {
	svc, _, _, _ := newTestService(&fakeRepo{transfer: Transfer{ID: "t1", PreviousOwnerID: "owner-1", Status: StatusInitiated}})

	_, err := svc.Cancel(context.Background(), auth.Actor{ID: "buyer-1", Role: auth.RoleCitizen}, "t1", "")
	if !workflow.IsKind(err, workflow.KindNotOwner) {
		t.Fatalf("expected not-owner, got %v", err)
	}
}

func TestCancel_RefusedAfterVerificationStarts(t *testing.T) {
	svc, _, _, _ := newTestService(&fakeRepo{transfer: Transfer{ID: "t1", PreviousOwnerID: "owner-1", Status: StatusVerificationPending}})

	_, err := svc.Cancel(context.Background(), seller, "t1", "")
	if !workflow.IsKind(err, workflow.KindInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

type fakeRepo struct {
	transfer    Transfer
	prop        PropertyState
	active      bool
	allApproved bool

	inserted  bool
	swapped   bool
	lockCalls []*string
}

func (f *fakeRepo) Insert(ctx context.Context, tx pgx.Tx, params InsertParams) (Transfer, error) {
	f.inserted = true
	f.transfer = Transfer{
		ID:              "t1",
		PropertyID:      params.PropertyID,
		PreviousOwnerID: params.PreviousOwnerID,
		NewOwnerID:      params.NewOwnerID,
		TransferType:    params.TransferType,
		TransferValue:   params.TransferValue,
		Currency:        params.Currency,
		TransferReason:  params.TransferReason,
		Status:          StatusInitiated,
	}
	return f.transfer, nil
}

func (f *fakeRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (Transfer, error) {
	return f.transfer, nil
}

func (f *fakeRepo) Get(ctx context.Context, id string) (Transfer, error) {
	return f.transfer, nil
}

func (f *fakeRepo) HasActiveForProperty(ctx context.Context, tx pgx.Tx, propertyID string) (bool, error) {
	return f.active, nil
}

func (f *fakeRepo) SetStatus(ctx context.Context, tx pgx.Tx, id string, status Status) (Transfer, error) {
	f.transfer.Status = status
	return f.transfer, nil
}

func (f *fakeRepo) SetDecision(ctx context.Context, tx pgx.Tx, id string, status Status, notes string) (Transfer, error) {
	f.transfer.Status = status
	f.transfer.DecisionNotes = &notes
	return f.transfer, nil
}

func (f *fakeRepo) AddDocuments(ctx context.Context, tx pgx.Tx, transferID string, docs []DocumentInput) ([]Document, error) {
	out := make([]Document, 0, len(docs))
	for i, d := range docs {
		out = append(out, Document{ID: string(rune('a' + i)), TransferID: transferID, DocType: d.DocType, FileID: d.FileID})
	}
	return out, nil
}

func (f *fakeRepo) ApplyReview(ctx context.Context, tx pgx.Tx, transferID string, review DocumentReview) error {
	return nil
}

func (f *fakeRepo) AllDocumentsApproved(ctx context.Context, tx pgx.Tx, transferID string) (bool, error) {
	return f.allApproved, nil
}

func (f *fakeRepo) ListDocuments(ctx context.Context, transferID string) ([]Document, error) {
	return nil, nil
}

func (f *fakeRepo) SetCompliance(ctx context.Context, tx pgx.Tx, id string, checks ComplianceChecks) (Transfer, error) {
	f.transfer.Compliance = checks
	return f.transfer, nil
}

func (f *fakeRepo) AppendEvent(ctx context.Context, tx pgx.Tx, transferID, action, actorID, actorRole, notes string) error {
	return nil
}

func (f *fakeRepo) Timeline(ctx context.Context, transferID string) ([]TimelineEvent, error) {
	return nil, nil
}

func (f *fakeRepo) GetPropertyForUpdate(ctx context.Context, tx pgx.Tx, propertyID string) (PropertyState, error) {
	return f.prop, nil
}

func (f *fakeRepo) SetPropertyTransferLock(ctx context.Context, tx pgx.Tx, propertyID string, transferID *string) error {
	f.lockCalls = append(f.lockCalls, transferID)
	return nil
}

func (f *fakeRepo) CompleteOwnershipSwap(ctx context.Context, tx pgx.Tx, propertyID, previousOwnerID, newOwnerID, transferID string) error {
	f.swapped = true
	return nil
}

func (f *fakeRepo) ListByProperty(ctx context.Context, propertyID string) ([]Transfer, error) {
	return nil, nil
}

type fakeUsers struct {
	users map[string]auth.User
}

func (f *fakeUsers) ResolveByEmail(ctx context.Context, email string) (*auth.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, errors.New("user not found")
	}
	return &u, nil
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
