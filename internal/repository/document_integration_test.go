//go:build integration

package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/docket/docket/internal/model"
	"github.com/docket/docket/internal/testutil"
)

// ============================================================================
// Document Repository Integration Tests
// ============================================================================

func TestIntegrationStatusRepository_Seeded(t *testing.T) {
	ctx, repo := newRepositoryTestEnv(t)

	for _, title := range []string{model.StatusDraft, model.StatusPublished} {
		status := mustStatus(ctx, t, repo, title)
		if status.ID == "" {
			t.Errorf("status %q should have an id", title)
		}
	}

	if _, err := repo.GetStatusByTitle(ctx, "archived"); !errors.Is(err, ErrStatusNotFound) {
		t.Errorf("Expected ErrStatusNotFound, got: %v", err)
	}
}

func TestIntegrationDocumentRepository_CreateAndGet(t *testing.T) {
	ctx, repo := newRepositoryTestEnv(t)

	user := testutil.NewTestUser(t, "owner")
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	draft := mustStatus(ctx, t, repo, model.StatusDraft)
	doc := testutil.NewTestDocument(t, user.ID, draft, time.Now().Truncate(time.Microsecond))
	doc.Payload = model.Payload{"meta": map[string]any{"color": "blue"}}
	if err := repo.CreateDocument(ctx, doc); err != nil {
		t.Fatalf("CreateDocument failed: %v", err)
	}

	got, err := repo.GetDocumentByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetDocumentByID failed: %v", err)
	}
	if got.Status != model.StatusDraft {
		t.Errorf("Status mismatch: got %q, want draft", got.Status)
	}
	if got.UserID != user.ID {
		t.Errorf("UserID mismatch: got %q, want %q", got.UserID, user.ID)
	}
	if got.Version != 1 {
		t.Errorf("Version = %d, want 1", got.Version)
	}
	if meta, ok := got.Payload["meta"].(map[string]any); !ok || meta["color"] != "blue" {
		t.Errorf("Payload mismatch: got %v", got.Payload)
	}
	if !got.CreatedAt.Equal(doc.CreatedAt) {
		t.Errorf("CreatedAt mismatch: got %v, want %v", got.CreatedAt, doc.CreatedAt)
	}

	if _, err := repo.GetDocumentByID(ctx, "missing"); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("Expected ErrDocumentNotFound, got: %v", err)
	}
}

func TestIntegrationDocumentRepository_UpdateVersioned(t *testing.T) {
	ctx, repo := newRepositoryTestEnv(t)

	user := testutil.NewTestUser(t, "writer")
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	draft := mustStatus(ctx, t, repo, model.StatusDraft)
	published := mustStatus(ctx, t, repo, model.StatusPublished)

	doc := testutil.NewTestDocument(t, user.ID, draft, time.Now())
	if err := repo.CreateDocument(ctx, doc); err != nil {
		t.Fatalf("CreateDocument failed: %v", err)
	}

	stale := *doc
	doc.StatusID = published.ID
	doc.ModifiedAt = time.Now()
	updated, err := repo.UpdateDocument(ctx, *doc)
	if err != nil {
		t.Fatalf("UpdateDocument failed: %v", err)
	}
	if updated.Status != model.StatusPublished {
		t.Errorf("Status = %q, want published", updated.Status)
	}
	if updated.Version != 2 {
		t.Errorf("Version = %d, want 2", updated.Version)
	}

	if _, err := repo.UpdateDocument(ctx, stale); !errors.Is(err, ErrVersionConflict) {
		t.Errorf("Expected ErrVersionConflict, got: %v", err)
	}

	stale.ID = "missing"
	if _, err := repo.UpdateDocument(ctx, stale); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("Expected ErrDocumentNotFound, got: %v", err)
	}
}

func TestIntegrationDocumentRepository_ListVisibility(t *testing.T) {
	ctx, repo := newRepositoryTestEnv(t)

	owner := testutil.NewTestUser(t, "owner")
	other := testutil.NewTestUser(t, "other")
	for _, u := range []*model.User{owner, other} {
		if err := repo.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
	}
	draft := mustStatus(ctx, t, repo, model.StatusDraft)
	published := mustStatus(ctx, t, repo, model.StatusPublished)

	base := time.Now().Truncate(time.Second)
	ownDraft := testutil.NewTestDocument(t, owner.ID, draft, base)
	otherDraft := testutil.NewTestDocument(t, other.ID, draft, base.Add(time.Second))
	otherPublished := testutil.NewTestDocument(t, other.ID, published, base.Add(2*time.Second))
	// Same timestamp as otherPublished, inserted later.
	ownPublished := testutil.NewTestDocument(t, owner.ID, published, base.Add(2*time.Second))
	for _, d := range []*model.Document{ownDraft, otherDraft, otherPublished, ownPublished} {
		if err := repo.CreateDocument(ctx, d); err != nil {
			t.Fatalf("CreateDocument failed: %v", err)
		}
	}

	anon, total, err := repo.ListDocuments(ctx, DocumentFilter{}, 0, 10)
	if err != nil {
		t.Fatalf("ListDocuments (anonymous) failed: %v", err)
	}
	if total != 2 || len(anon) != 2 {
		t.Fatalf("anonymous should see 2 published documents, got total=%d len=%d", total, len(anon))
	}
	if anon[0].ID != ownPublished.ID || anon[1].ID != otherPublished.ID {
		t.Errorf("tie should break by newest insert first, got %s, %s", anon[0].ID, anon[1].ID)
	}

	mine, total, err := repo.ListDocuments(ctx, DocumentFilter{ViewerID: owner.ID}, 0, 10)
	if err != nil {
		t.Fatalf("ListDocuments (owner) failed: %v", err)
	}
	if total != 3 {
		t.Errorf("owner should see own draft plus published, got total=%d", total)
	}
	for _, d := range mine {
		if d.ID == otherDraft.ID {
			t.Error("owner must not see another user's draft")
		}
	}

	page, total, err := repo.ListDocuments(ctx, DocumentFilter{ViewerID: owner.ID}, 2, 2)
	if err != nil {
		t.Fatalf("ListDocuments (page 2) failed: %v", err)
	}
	if total != 3 || len(page) != 1 || page[0].ID != ownDraft.ID {
		t.Errorf("second page should hold the oldest document, got total=%d docs=%v", total, page)
	}
}

func TestIntegrationDocumentRepository_MissingStatusListsAsEmpty(t *testing.T) {
	ctx, repo := newRepositoryTestEnv(t)

	user := testutil.NewTestUser(t, "orphan")
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	doc := testutil.NewTestDocument(t, user.ID, &model.Status{}, time.Now())
	if err := repo.CreateDocument(ctx, doc); err != nil {
		t.Fatalf("CreateDocument failed: %v", err)
	}

	got, err := repo.GetDocumentByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetDocumentByID failed: %v", err)
	}
	if got.StatusID != "" || got.Status != "" {
		t.Errorf("expected no status, got %q/%q", got.StatusID, got.Status)
	}
}
