package examination

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/carepath/carepath/internal/platform/errs"
)

type examKey struct {
	patientID   uuid.UUID
	encounterID uuid.UUID
	name        string
}

type mockRepo struct {
	catalog []*CatalogEntry
	rows    map[examKey]*PatientExamination
	deletes int
	inserts int
}

func newMockRepo(catalog ...*CatalogEntry) *mockRepo {
	return &mockRepo{catalog: catalog, rows: make(map[examKey]*PatientExamination)}
}

func (m *mockRepo) ListCatalog(context.Context) ([]*CatalogEntry, error) {
	return m.catalog, nil
}

func (m *mockRepo) ListByEncounter(_ context.Context, patientID, encounterID uuid.UUID) ([]*PatientExamination, error) {
	var out []*PatientExamination
	for k, row := range m.rows {
		if k.patientID == patientID && k.encounterID == encounterID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *mockRepo) ApplySelection(_ context.Context, patientID, encounterID uuid.UUID, duringEncounter, orders []string) error {
	keep := make(map[string]bool)
	for _, n := range duringEncounter {
		keep[n] = true
	}
	for _, n := range orders {
		keep[n] = true
	}
	for k := range m.rows {
		if k.patientID == patientID && k.encounterID == encounterID && !keep[k.name] {
			delete(m.rows, k)
			m.deletes++
		}
	}
	insert := func(name string, ordered bool) {
		k := examKey{patientID, encounterID, name}
		if _, exists := m.rows[k]; exists {
			return
		}
		m.rows[k] = &PatientExamination{
			ID: uuid.New(), PatientID: patientID, EncounterID: encounterID,
			Name: name, Ordered: ordered, CreatedAt: time.Now(),
		}
		m.inserts++
	}
	for _, n := range duringEncounter {
		insert(n, false)
	}
	for _, n := range orders {
		insert(n, true)
	}
	return nil
}

func (m *mockRepo) Get(_ context.Context, id uuid.UUID) (*PatientExamination, error) {
	for _, row := range m.rows {
		if row.ID == id {
			return row, nil
		}
	}
	return nil, errs.NotFoundf("examination %s not found", id)
}

func (m *mockRepo) SetCompleted(ctx context.Context, id uuid.UUID, completed bool) error {
	row, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	row.Completed = completed
	return nil
}

func (m *mockRepo) SetSkipped(ctx context.Context, id uuid.UUID, skipped bool) error {
	row, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	row.Skipped = skipped
	return nil
}

type mockEnqueuer struct {
	events []string
}

func (m *mockEnqueuer) Enqueue(_ context.Context, eventType string, _ interface{}) (uuid.UUID, error) {
	m.events = append(m.events, eventType)
	return uuid.New(), nil
}

func passthroughTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func testCatalog() []*CatalogEntry {
	return []*CatalogEntry{
		{Name: "Vitals Review", CanonicalOrder: 10},
		{Name: WomensHealthAssessment, CanonicalOrder: 20},
		{Name: MensHealthAssessment, CanonicalOrder: 30},
		{Name: ChildHealthAssessment, CanonicalOrder: 40},
		{Name: MaternityAssessment, CanonicalOrder: 50},
		{Name: "Blood Panel", CanonicalOrder: 60},
	}
}

func newTestService() (*Service, *mockRepo, *mockEnqueuer) {
	repo := newMockRepo(testCatalog()...)
	events := &mockEnqueuer{}
	return NewService(repo, passthroughTx, events), repo, events
}

func TestReconcileThenPlan(t *testing.T) {
	svc, _, events := newTestService()
	ctx := context.Background()
	patient, encounter := uuid.New(), uuid.New()

	sel := Selection{
		DuringEncounter: []string{"Vitals Review", WomensHealthAssessment},
		Orders:          []string{"Blood Panel"},
	}
	if err := svc.Reconcile(ctx, patient, encounter, sel); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events.events) != 1 || events.events[0] != EventExaminationReconciled {
		t.Errorf("expected one reconciled event, got %v", events.events)
	}

	planned, err := svc.Plan(ctx, patient, encounter,
		Patient{Gender: "female", AgeYears: 25}, Encounter{Reason: "maternity"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byName := make(map[string]*PlannedExamination)
	for _, p := range planned {
		byName[p.Name] = p
	}
	for name, wantOrdered := range map[string]bool{
		"Vitals Review": false, WomensHealthAssessment: false, "Blood Panel": true,
	} {
		p, ok := byName[name]
		if !ok {
			t.Fatalf("missing planned entry %s", name)
		}
		if p.ID == nil {
			t.Errorf("%s should be persisted", name)
		}
		if p.Ordered != wantOrdered {
			t.Errorf("%s: ordered = %v, want %v", name, p.Ordered, wantOrdered)
		}
	}
	// Maternity is still recommended but untouched: virtual entry only.
	maternity, ok := byName[MaternityAssessment]
	if !ok {
		t.Fatal("missing virtual maternity entry")
	}
	if maternity.ID != nil {
		t.Error("untouched recommended examination must not be persisted")
	}
	if !maternity.Recommended {
		t.Error("virtual entry must be flagged recommended")
	}
	// Vitals Review is persisted but not recommended for this snapshot.
	if byName["Vitals Review"].Recommended {
		t.Error("Vitals Review should not be flagged recommended")
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	patient, encounter := uuid.New(), uuid.New()
	sel := Selection{DuringEncounter: []string{"Vitals Review"}, Orders: []string{"Blood Panel"}}

	if err := svc.Reconcile(ctx, patient, encounter, sel); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ids := make(map[string]uuid.UUID)
	for _, row := range repo.rows {
		ids[row.Name] = row.ID
	}
	deletes, inserts := repo.deletes, repo.inserts

	if err := svc.Reconcile(ctx, patient, encounter, sel); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.rows) != 2 {
		t.Errorf("expected 2 rows after resubmission, got %d", len(repo.rows))
	}
	if repo.deletes != deletes || repo.inserts != inserts {
		t.Error("resubmitting the same selection must not delete or insert")
	}
	for _, row := range repo.rows {
		if ids[row.Name] != row.ID {
			t.Errorf("%s: row identity changed across resubmission", row.Name)
		}
	}
}

func TestReconcile_FullReplace(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	patient, encounter := uuid.New(), uuid.New()

	if err := svc.Reconcile(ctx, patient, encounter,
		Selection{DuringEncounter: []string{"Vitals Review"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Reconcile(ctx, patient, encounter, Selection{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.rows) != 0 {
		t.Errorf("empty selection must clear all rows, got %d", len(repo.rows))
	}
}

func TestReconcile_OrdersPrecedence(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	patient, encounter := uuid.New(), uuid.New()

	sel := Selection{
		DuringEncounter: []string{"Blood Panel"},
		Orders:          []string{"Blood Panel"},
	}
	if err := svc.Reconcile(ctx, patient, encounter, sel); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(repo.rows))
	}
	for _, row := range repo.rows {
		if !row.Ordered {
			t.Error("a name in both groups must be treated as an order")
		}
	}
}

func TestReconcile_UnknownName(t *testing.T) {
	svc, repo, events := newTestService()
	err := svc.Reconcile(context.Background(), uuid.New(), uuid.New(),
		Selection{DuringEncounter: []string{"Phrenology Exam"}})
	if errs.KindOf(err) != errs.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.rows) != 0 || repo.deletes != 0 {
		t.Error("validation failure must not mutate anything")
	}
	if len(events.events) != 0 {
		t.Error("validation failure must not enqueue events")
	}
}

func TestReconcile_PreservesFlags(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	patient, encounter := uuid.New(), uuid.New()
	sel := Selection{DuringEncounter: []string{"Vitals Review", "Blood Panel"}}

	if err := svc.Reconcile(ctx, patient, encounter, sel); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var vitalsID uuid.UUID
	for _, row := range repo.rows {
		if row.Name == "Vitals Review" {
			vitalsID = row.ID
		}
	}
	if err := svc.MarkCompleted(ctx, vitalsID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.Reconcile(ctx, patient, encounter, sel); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	row, err := repo.Get(ctx, vitalsID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !row.Completed {
		t.Error("surviving row must keep its completed flag")
	}
}

func TestPlan_SortedByCanonicalOrder(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	patient, encounter := uuid.New(), uuid.New()

	sel := Selection{DuringEncounter: []string{"Blood Panel", "Vitals Review"}}
	if err := svc.Reconcile(ctx, patient, encounter, sel); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	planned, err := svc.Plan(ctx, patient, encounter,
		Patient{Gender: "female", AgeYears: 30}, Encounter{Reason: "checkup"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"Vitals Review", WomensHealthAssessment, "Blood Panel"}
	if len(planned) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(planned))
	}
	for i, name := range want {
		if planned[i].Name != name {
			t.Errorf("position %d: got %s, want %s", i, planned[i].Name, name)
		}
	}
}

func TestMarkSkipped_NotFound(t *testing.T) {
	svc, _, _ := newTestService()
	err := svc.MarkSkipped(context.Background(), uuid.New())
	if errs.KindOf(err) != errs.KindNotFound {
		t.Errorf("expected not found, got %v", err)
	}
}
