package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/desaconnect/complaint-service/internal/domain"
	"github.com/desaconnect/complaint-service/internal/events"
	"github.com/desaconnect/complaint-service/internal/repository"
	apperrors "github.com/desaconnect/complaint-service/pkg/util/errorutil"
)

type fakeSubmissionRepo struct {
	subs []domain.Submission

	nextID       int
	createCalls  int
	dupRemaining int
	allErr       error
}

func (f *fakeSubmissionRepo) Create(_ context.Context, sub *domain.Submission) error {
	f.createCalls++
	if f.dupRemaining > 0 {
		f.dupRemaining--
		return fmt.Errorf("%w: %s", repository.ErrDuplicateReference, sub.ReferenceID)
	}
	f.nextID++
	sub.ID = fmt.Sprintf("sub-%d", f.nextID)
	sub.CreatedAt = time.Now()
	sub.UpdatedAt = sub.CreatedAt
	f.subs = append(f.subs, *sub)
	return nil
}

func (f *fakeSubmissionRepo) find(id string) *domain.Submission {
	for i := range f.subs {
		if f.subs[i].ID == id {
			return &f.subs[i]
		}
	}
	return nil
}

func (f *fakeSubmissionRepo) GetByID(_ context.Context, id string) (*domain.Submission, error) {
	if sub := f.find(id); sub != nil {
		copied := *sub
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeSubmissionRepo) GetByReferenceID(_ context.Context, code string) (*domain.Submission, error) {
	for i := range f.subs {
		if f.subs[i].ReferenceID == code {
			copied := f.subs[i]
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeSubmissionRepo) List(_ context.Context, _ repository.SubmissionFilter) ([]domain.Submission, int, error) {
	return append([]domain.Submission{}, f.subs...), len(f.subs), nil
}

func (f *fakeSubmissionRepo) All(_ context.Context) ([]domain.Submission, error) {
	if f.allErr != nil {
		return nil, f.allErr
	}
	return append([]domain.Submission{}, f.subs...), nil
}

func (f *fakeSubmissionRepo) UpdateStatus(_ context.Context, id string, status domain.SubmissionStatus, actor string) error {
	sub := f.find(id)
	if sub == nil {
		return pgx.ErrNoRows
	}
	sub.Status = status
	sub.LastUpdatedBy = &actor
	sub.UpdatedAt = time.Now()
	return nil
}

func (f *fakeSubmissionRepo) UpdatePriority(_ context.Context, id string, priority domain.SubmissionPriority, actor string) error {
	sub := f.find(id)
	if sub == nil {
		return pgx.ErrNoRows
	}
	sub.Priority = priority
	sub.LastUpdatedBy = &actor
	sub.UpdatedAt = time.Now()
	return nil
}

func (f *fakeSubmissionRepo) UpdateComments(_ context.Context, id string, comments []domain.InternalComment, actor string) error {
	sub := f.find(id)
	if sub == nil {
		return pgx.ErrNoRows
	}
	sub.InternalComments = comments
	sub.LastUpdatedBy = &actor
	sub.UpdatedAt = time.Now()
	return nil
}

func (f *fakeSubmissionRepo) UpdateAssignee(_ context.Context, id string, assignee *string, actor string) error {
	sub := f.find(id)
	if sub == nil {
		return pgx.ErrNoRows
	}
	sub.AssignedTo = assignee
	sub.LastUpdatedBy = &actor
	sub.UpdatedAt = time.Now()
	return nil
}

func (f *fakeSubmissionRepo) Delete(_ context.Context, id string) error {
	for i := range f.subs {
		if f.subs[i].ID == id {
			f.subs = append(f.subs[:i], f.subs[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

type fakeObjectStore struct {
	stored int
	err    error
}

func (f *fakeObjectStore) Store(_ context.Context, _ []byte, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.stored++
	return fmt.Sprintf("http://localhost/uploads/file-%d.bin", f.stored), nil
}

type recordingDispatcher struct {
	published []events.Event
}

func (r *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	r.published = append(r.published, event)
	return nil
}

func (r *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func newTestSubmissionService(repo *fakeSubmissionRepo, store *fakeObjectStore) (*SubmissionService, *recordingDispatcher) {
	dispatcher := &recordingDispatcher{}
	svc := NewSubmissionService(SubmissionDependencies{
		SubmissionRepo: repo,
		ObjectStore:    store,
		Dispatcher:     dispatcher,
		Logger:         zap.NewNop(),
		MaxUploadBytes: 64,
	})
	return svc, dispatcher
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %T: %v", err, err)
	}
	if domainErr.Code != code {
		t.Fatalf("expected code %s, got %s (%s)", code, domainErr.Code, domainErr.Message)
	}
}

func validCreateInput() SubmissionCreateInput {
	return SubmissionCreateInput{
		Name:        "Budi",
		ContactInfo: "budi@example.com",
		Category:    "infrastructure",
		Description: "The bridge near the market is cracked.",
	}
}

func TestCreateDescriptionBoundaries(t *testing.T) {
	cases := []struct {
		length int
		ok     bool
	}{
		{9, false},
		{10, true},
		{1000, true},
		{1001, false},
	}
	for _, tc := range cases {
		repo := &fakeSubmissionRepo{}
		svc, _ := newTestSubmissionService(repo, &fakeObjectStore{})

		input := validCreateInput()
		input.Description = strings.Repeat("x", tc.length)
		_, err := svc.Create(context.Background(), input)
		if tc.ok && err != nil {
			t.Errorf("length %d: unexpected error %v", tc.length, err)
		}
		if !tc.ok {
			assertCode(t, err, "VALIDATION_FAILED")
		}
	}
}

func TestCreateDescriptionLengthCountsRunes(t *testing.T) {
	repo := &fakeSubmissionRepo{}
	svc, _ := newTestSubmissionService(repo, &fakeObjectStore{})

	input := validCreateInput()
	input.Description = strings.Repeat("é", 10)
	if _, err := svc.Create(context.Background(), input); err != nil {
		t.Fatalf("10 multi-byte runes should pass the minimum: %v", err)
	}
}

func TestCreateRequiresCategory(t *testing.T) {
	svc, _ := newTestSubmissionService(&fakeSubmissionRepo{}, &fakeObjectStore{})

	input := validCreateInput()
	input.Category = "  "
	_, err := svc.Create(context.Background(), input)
	assertCode(t, err, "VALIDATION_FAILED")
}

func TestCreateDefaults(t *testing.T) {
	repo := &fakeSubmissionRepo{}
	svc, dispatcher := newTestSubmissionService(repo, &fakeObjectStore{})

	input := validCreateInput()
	input.Name = ""
	input.ContactInfo = ""
	sub, err := svc.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sub.Status != domain.StatusPending {
		t.Errorf("expected status pending, got %q", sub.Status)
	}
	if sub.Priority != domain.PriorityRegular {
		t.Errorf("expected priority Regular, got %q", sub.Priority)
	}
	if sub.InternalComments == nil || len(sub.InternalComments) != 0 {
		t.Errorf("expected empty comment thread, got %v", sub.InternalComments)
	}
	if sub.Name != nil || sub.ContactInfo != nil {
		t.Error("blank name and contact must be stored as NULL, not empty strings")
	}
	if len(sub.ReferenceID) != 8 {
		t.Fatalf("expected 8-char reference code, got %q", sub.ReferenceID)
	}
	for _, ch := range sub.ReferenceID {
		if !((ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')) {
			t.Fatalf("reference code %q contains %q", sub.ReferenceID, ch)
		}
	}
	if len(dispatcher.published) != 1 || dispatcher.published[0].Type != events.EventSubmissionCreated {
		t.Fatalf("expected one submission_created event, got %v", dispatcher.published)
	}
	if dispatcher.published[0].Actor != events.PublicActor {
		t.Errorf("creation is a public action, got actor %q", dispatcher.published[0].Actor)
	}
}

func TestCreateRetriesReferenceCollision(t *testing.T) {
	repo := &fakeSubmissionRepo{dupRemaining: 2}
	svc, _ := newTestSubmissionService(repo, &fakeObjectStore{})

	sub, err := svc.Create(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("collision should be retried transparently: %v", err)
	}
	if repo.createCalls != 3 {
		t.Fatalf("expected 3 insert attempts, got %d", repo.createCalls)
	}
	if sub.ReferenceID == "" {
		t.Fatal("expected a reference code on the surviving attempt")
	}
}

func TestCreateGivesUpAfterRepeatedCollisions(t *testing.T) {
	repo := &fakeSubmissionRepo{dupRemaining: 3}
	svc, _ := newTestSubmissionService(repo, &fakeObjectStore{})

	_, err := svc.Create(context.Background(), validCreateInput())
	assertCode(t, err, "CONFLICT")
	if repo.createCalls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", repo.createCalls)
	}
}

func TestCreateAttachmentValidation(t *testing.T) {
	t.Run("oversize", func(t *testing.T) {
		svc, _ := newTestSubmissionService(&fakeSubmissionRepo{}, &fakeObjectStore{})
		input := validCreateInput()
		input.Attachment = &AttachmentInput{Data: make([]byte, 65), ContentType: "image/png"}
		_, err := svc.Create(context.Background(), input)
		assertCode(t, err, "VALIDATION_FAILED")
	})

	t.Run("disallowed type", func(t *testing.T) {
		svc, _ := newTestSubmissionService(&fakeSubmissionRepo{}, &fakeObjectStore{})
		input := validCreateInput()
		input.Attachment = &AttachmentInput{Data: []byte("MZ"), ContentType: "application/x-msdownload"}
		_, err := svc.Create(context.Background(), input)
		assertCode(t, err, "VALIDATION_FAILED")
	})

	t.Run("store failure aborts creation", func(t *testing.T) {
		repo := &fakeSubmissionRepo{}
		store := &fakeObjectStore{err: errors.New("disk full")}
		svc, _ := newTestSubmissionService(repo, store)

		input := validCreateInput()
		input.Attachment = &AttachmentInput{Data: []byte("data"), ContentType: "application/pdf"}
		_, err := svc.Create(context.Background(), input)
		assertCode(t, err, "DEPENDENCY_FAILURE")
		if repo.createCalls != 0 {
			t.Fatal("nothing must be persisted when attachment storage fails")
		}
	})

	t.Run("accepted type sets file url", func(t *testing.T) {
		svc, _ := newTestSubmissionService(&fakeSubmissionRepo{}, &fakeObjectStore{})
		input := validCreateInput()
		input.Attachment = &AttachmentInput{Data: []byte("%PDF-1.4"), ContentType: "application/pdf"}
		sub, err := svc.Create(context.Background(), input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sub.FileURL == nil || !strings.Contains(*sub.FileURL, "/uploads/") {
			t.Fatalf("expected stored file URL, got %v", sub.FileURL)
		}
	})
}

func TestGetByReferenceID(t *testing.T) {
	repo := &fakeSubmissionRepo{}
	svc, _ := newTestSubmissionService(repo, &fakeObjectStore{})

	created, err := svc.Create(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.GetByReferenceID(context.Background(), created.ReferenceID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("expected %s, got %s", created.ID, got.ID)
	}

	_, err = svc.GetByReferenceID(context.Background(), "ZZZZZZZZ")
	assertCode(t, err, "NOT_FOUND")

	_, err = svc.GetByReferenceID(context.Background(), "  ")
	assertCode(t, err, "VALIDATION_FAILED")
}

func TestUpdateStatus(t *testing.T) {
	repo := &fakeSubmissionRepo{}
	svc, dispatcher := newTestSubmissionService(repo, &fakeObjectStore{})
	created, _ := svc.Create(context.Background(), validCreateInput())
	dispatcher.published = nil

	updated, err := svc.UpdateStatus(context.Background(), created.ID, "In Progress", "admin@x.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != domain.StatusInProgress {
		t.Fatalf("expected normalized status, got %q", updated.Status)
	}
	if updated.LastUpdatedBy == nil || *updated.LastUpdatedBy != "admin@x.com" {
		t.Fatal("expected last_updated_by to carry the actor")
	}

	if len(dispatcher.published) != 1 {
		t.Fatalf("expected one event, got %d", len(dispatcher.published))
	}
	payload, ok := dispatcher.published[0].Payload.(events.SubmissionStatusChangedPayload)
	if !ok {
		t.Fatalf("unexpected payload %T", dispatcher.published[0].Payload)
	}
	if payload.OldStatus != domain.StatusPending || payload.NewStatus != domain.StatusInProgress {
		t.Fatalf("unexpected transition payload %+v", payload)
	}

	_, err = svc.UpdateStatus(context.Background(), created.ID, "closed", "admin@x.com")
	assertCode(t, err, "VALIDATION_FAILED")

	_, err = svc.UpdateStatus(context.Background(), "missing", "resolved", "admin@x.com")
	assertCode(t, err, "NOT_FOUND")
}

func TestUpdatePriority(t *testing.T) {
	repo := &fakeSubmissionRepo{}
	svc, _ := newTestSubmissionService(repo, &fakeObjectStore{})
	created, _ := svc.Create(context.Background(), validCreateInput())

	updated, err := svc.UpdatePriority(context.Background(), created.ID, "urgent", "admin@x.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Priority != domain.PriorityUrgent {
		t.Fatalf("expected canonical Urgent, got %q", updated.Priority)
	}

	_, err = svc.UpdatePriority(context.Background(), created.ID, "high", "admin@x.com")
	assertCode(t, err, "VALIDATION_FAILED")
}

func TestAppendCommentKeepsOrder(t *testing.T) {
	repo := &fakeSubmissionRepo{}
	svc, _ := newTestSubmissionService(repo, &fakeObjectStore{})
	created, _ := svc.Create(context.Background(), validCreateInput())

	if _, err := svc.AppendComment(context.Background(), created.ID, "first look", "a@x.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	updated, err := svc.AppendComment(context.Background(), created.ID, "escalating", "b@x.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(updated.InternalComments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(updated.InternalComments))
	}
	first, second := updated.InternalComments[0], updated.InternalComments[1]
	if first.Text != "first look" || first.Author != "a@x.com" {
		t.Fatalf("unexpected first comment %+v", first)
	}
	if second.Text != "escalating" || second.Author != "b@x.com" {
		t.Fatalf("unexpected second comment %+v", second)
	}
	if second.CreatedAt.Before(first.CreatedAt) {
		t.Fatal("comment timestamps must not regress")
	}
}

func TestAppendCommentValidation(t *testing.T) {
	repo := &fakeSubmissionRepo{}
	svc, _ := newTestSubmissionService(repo, &fakeObjectStore{})
	created, _ := svc.Create(context.Background(), validCreateInput())

	_, err := svc.AppendComment(context.Background(), created.ID, "   ", "a@x.com")
	assertCode(t, err, "VALIDATION_FAILED")

	_, err = svc.AppendComment(context.Background(), created.ID, "text", "")
	assertCode(t, err, "VALIDATION_FAILED")

	_, err = svc.AppendComment(context.Background(), "missing", "text", "a@x.com")
	assertCode(t, err, "NOT_FOUND")
}

func TestAssign(t *testing.T) {
	repo := &fakeSubmissionRepo{}
	svc, _ := newTestSubmissionService(repo, &fakeObjectStore{})
	created, _ := svc.Create(context.Background(), validCreateInput())

	assignee := "a@x.com"
	updated, err := svc.Assign(context.Background(), created.ID, &assignee, "lead@x.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.AssignedTo == nil || *updated.AssignedTo != assignee {
		t.Fatalf("expected assignee %q, got %v", assignee, updated.AssignedTo)
	}

	updated, err = svc.Assign(context.Background(), created.ID, nil, "lead@x.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.AssignedTo != nil {
		t.Fatal("expected assignment to be cleared")
	}
}

func TestDelete(t *testing.T) {
	repo := &fakeSubmissionRepo{}
	svc, _ := newTestSubmissionService(repo, &fakeObjectStore{})
	created, _ := svc.Create(context.Background(), validCreateInput())

	if err := svc.Delete(context.Background(), created.ID, "admin@x.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.GetByID(context.Background(), created.ID)
	assertCode(t, err, "NOT_FOUND")

	err = svc.Delete(context.Background(), created.ID, "admin@x.com")
	assertCode(t, err, "NOT_FOUND")
}

func TestParseStatus(t *testing.T) {
	cases := []struct {
		input string
		want  domain.SubmissionStatus
		ok    bool
	}{
		{"pending", domain.StatusPending, true},
		{"Pending", domain.StatusPending, true},
		{" IN PROGRESS ", domain.StatusInProgress, true},
		{"resolved", domain.StatusResolved, true},
		{"closed", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseStatus(tc.input)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Errorf("ParseStatus(%q) = %q, %v; want %q", tc.input, got, err, tc.want)
			}
			continue
		}
		assertCode(t, err, "VALIDATION_FAILED")
	}
}

func TestPreviewTruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("é", 200)
	got := preview(long, 120)
	if !utf8.ValidString(got) {
		t.Fatalf("preview produced invalid UTF-8: %q", got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis suffix, got %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 120 {
		t.Fatalf("expected 120 runes, got %d", n)
	}

	if got := preview("short note", 120); got != "short note" {
		t.Fatalf("short input must pass through, got %q", got)
	}
	if got := preview("  padded  ", 120); got != "padded" {
		t.Fatalf("expected trimmed input, got %q", got)
	}
}

func TestCommentEventPreviewIsValidUTF8(t *testing.T) {
	repo := &fakeSubmissionRepo{}
	svc, dispatcher := newTestSubmissionService(repo, &fakeObjectStore{})
	created, _ := svc.Create(context.Background(), validCreateInput())
	dispatcher.published = nil

	if _, err := svc.AppendComment(context.Background(), created.ID, strings.Repeat("木", 150), "a@x.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dispatcher.published) != 1 {
		t.Fatalf("expected one event, got %d", len(dispatcher.published))
	}
	payload, ok := dispatcher.published[0].Payload.(events.SubmissionCommentAddedPayload)
	if !ok {
		t.Fatalf("unexpected payload %T", dispatcher.published[0].Payload)
	}
	if !utf8.ValidString(payload.TextPreview) {
		t.Fatalf("event preview carries invalid UTF-8: %q", payload.TextPreview)
	}
}

func TestParsePriority(t *testing.T) {
	cases := []struct {
		input string
		want  domain.SubmissionPriority
		ok    bool
	}{
		{"Urgent", domain.PriorityUrgent, true},
		{"urgent", domain.PriorityUrgent, true},
		{" REGULAR ", domain.PriorityRegular, true},
		{"high", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParsePriority(tc.input)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Errorf("ParsePriority(%q) = %q, %v; want %q", tc.input, got, err, tc.want)
			}
			continue
		}
		assertCode(t, err, "VALIDATION_FAILED")
	}
}
