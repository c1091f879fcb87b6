package moderation_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Eninte/ai-resource-navigator/internal/audit"
	"github.com/Eninte/ai-resource-navigator/internal/domain"
	"github.com/Eninte/ai-resource-navigator/internal/moderation"
	"github.com/Eninte/ai-resource-navigator/internal/store"
	"github.com/Eninte/ai-resource-navigator/internal/store/memstore"
)

const actor = "actor-hash"

func setup(t *testing.T, rs ...domain.Resource) (*moderation.Service, *memstore.Store) {
	t.Helper()
	s := memstore.New()
	for _, r := range rs {
		r := r
		require.NoError(t, s.CreateResource(context.Background(), &r))
	}
	return moderation.NewService(s, audit.NewRecorder(s, nil), nil), s
}

func pending(id, category string) domain.Resource {
	return domain.Resource{ID: id, Name: id, URL: "https://" + id + ".example", Category: category, Status: domain.StatusPending}
}

func lastLog(t *testing.T, s *memstore.Store) domain.AdminLog {
	t.Helper()
	logs, err := s.ListAdminLogs(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	return logs[0]
}

func TestNext(t *testing.T) {
	tests := []struct {
		from    domain.Status
		t       moderation.Transition
		want    domain.Status
		wantErr bool
	}{
		{domain.StatusPending, moderation.Approve, domain.StatusPublished, false},
		{domain.StatusPublished, moderation.Approve, domain.StatusPublished, false},
		{domain.StatusPending, moderation.Reject, domain.StatusRejected, false},
		{domain.StatusPublished, moderation.Delist, domain.StatusDelisted, false},
		{domain.StatusDelisted, moderation.Restore, domain.StatusPublished, false},
		{domain.StatusRejected, moderation.Approve, "", true},
		{domain.StatusPublished, moderation.Reject, "", true},
		{domain.StatusPending, moderation.Delist, "", true},
		{domain.StatusPending, moderation.Restore, "", true},
		{domain.StatusPending, moderation.Transition("archive"), "", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.t), func(t *testing.T) {
			got, err := moderation.Next(tt.from, tt.t)
			if tt.wantErr {
				require.ErrorIs(t, err, moderation.ErrInvalidTransition)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestActionFor(t *testing.T) {
	assert.Equal(t, domain.ActionApprove, moderation.ActionFor(domain.StatusPending, domain.StatusPublished))
	assert.Equal(t, domain.ActionRestore, moderation.ActionFor(domain.StatusDelisted, domain.StatusPublished))
	assert.Equal(t, domain.ActionReject, moderation.ActionFor(domain.StatusPending, domain.StatusRejected))
	assert.Equal(t, domain.ActionDelist, moderation.ActionFor(domain.StatusPublished, domain.StatusDelisted))
	assert.Equal(t, domain.ActionUpdate, moderation.ActionFor(domain.StatusRejected, domain.StatusPending))
}

func TestApproveSetsPublishedAtOnce(t *testing.T) {
	svc, s := setup(t, pending("r1", "coding"))
	ctx := context.Background()

	r, err := svc.Transition(ctx, "r1", moderation.Approve, "", actor)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPublished, r.Status)
	require.NotNil(t, r.PublishedAt)
	first := *r.PublishedAt

	time.Sleep(2 * time.Millisecond)
	r, err = svc.Transition(ctx, "r1", moderation.Approve, "", actor)
	require.NoError(t, err)
	assert.True(t, first.Equal(*r.PublishedAt), "second approval keeps published_at")

	stored, err := s.GetResource(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, first.Equal(*stored.PublishedAt))

	entry := lastLog(t, s)
	assert.Equal(t, domain.ActionApprove, entry.Action)
	assert.Equal(t, actor, entry.IPHash)
	assert.Equal(t, "r1", entry.ResourceID)
}

func TestApproveRequiresCategory(t *testing.T) {
	svc, s := setup(t, pending("r1", domain.DefaultCategory))
	ctx := context.Background()

	_, err := svc.Transition(ctx, "r1", moderation.Approve, "", actor)
	require.ErrorIs(t, err, moderation.ErrCategoryRequired)

	stored, err := s.GetResource(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status, "nothing is written on failure")

	r, err := svc.Transition(ctx, "r1", moderation.Approve, "image", actor)
	require.NoError(t, err)
	assert.Equal(t, "image", r.Category)
}

func TestDelistRestoreKeepsPublishedAt(t *testing.T) {
	svc, s := setup(t, pending("r1", "coding"))
	ctx := context.Background()

	r, err := svc.Transition(ctx, "r1", moderation.Approve, "", actor)
	require.NoError(t, err)
	published := *r.PublishedAt

	r, err = svc.Transition(ctx, "r1", moderation.Delist, "", actor)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelisted, r.Status)

	r, err = svc.Transition(ctx, "r1", moderation.Restore, "", actor)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPublished, r.Status)
	assert.True(t, published.Equal(*r.PublishedAt))

	entry := lastLog(t, s)
	assert.Equal(t, domain.ActionRestore, entry.Action)
	assert.JSONEq(t, `{"previousStatus":"delisted","newStatus":"published"}`, string(entry.Details))
}

func TestRejectIsTerminalForTransitions(t *testing.T) {
	svc, _ := setup(t, pending("r1", "coding"))
	ctx := context.Background()

	_, err := svc.Transition(ctx, "r1", moderation.Reject, "", actor)
	require.NoError(t, err)

	_, err = svc.Transition(ctx, "r1", moderation.Approve, "", actor)
	require.ErrorIs(t, err, moderation.ErrInvalidTransition)
}

func TestUpdateReopensRejected(t *testing.T) {
	svc, s := setup(t, pending("r1", "coding"))
	ctx := context.Background()

	_, err := svc.Transition(ctx, "r1", moderation.Reject, "", actor)
	require.NoError(t, err)

	status := domain.StatusPending
	r, err := svc.Update(ctx, "r1", moderation.Change{Status: &status}, actor)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, r.Status)
	assert.Equal(t, domain.ActionUpdate, lastLog(t, s).Action)
}

func TestUpdateStickyAndCategory(t *testing.T) {
	svc, s := setup(t, pending("r1", "coding"))
	ctx := context.Background()

	g, c, category := 5, 100, "writing"
	r, err := svc.Update(ctx, "r1", moderation.Change{GlobalStickyOrder: &g, CategoryStickyOrder: &c, Category: &category}, actor)
	require.NoError(t, err)
	assert.Equal(t, 5, r.GlobalStickyOrder)
	assert.Equal(t, 100, r.CategoryStickyOrder)
	assert.Equal(t, "writing", r.Category)
	assert.Equal(t, domain.StatusPending, r.Status)
	assert.Nil(t, r.PublishedAt)

	entry := lastLog(t, s)
	assert.Equal(t, domain.ActionUpdate, entry.Action)
	var details map[string]string
	require.NoError(t, json.Unmarshal(entry.Details, &details))
	assert.Equal(t, "pending", details["previousStatus"])
}

func TestUpdatePublishStampsPublishedAt(t *testing.T) {
	svc, s := setup(t, pending("r1", "coding"))
	ctx := context.Background()

	status := domain.StatusPublished
	r, err := svc.Update(ctx, "r1", moderation.Change{Status: &status}, actor)
	require.NoError(t, err)
	require.NotNil(t, r.PublishedAt)
	assert.Equal(t, domain.ActionApprove, lastLog(t, s).Action)
}

func TestUpdateValidation(t *testing.T) {
	svc, _ := setup(t, pending("r1", "coding"))
	ctx := context.Background()

	_, err := svc.Update(ctx, "r1", moderation.Change{}, actor)
	require.ErrorIs(t, err, moderation.ErrEmptyChange)

	bad := domain.Status("archived")
	_, err = svc.Update(ctx, "r1", moderation.Change{Status: &bad}, actor)
	require.ErrorIs(t, err, moderation.ErrInvalidStatus)

	over := 101
	_, err = svc.Update(ctx, "r1", moderation.Change{GlobalStickyOrder: &over}, actor)
	require.ErrorIs(t, err, moderation.ErrInvalidStickyOrder)

	neg := -1
	_, err = svc.Update(ctx, "r1", moderation.Change{CategoryStickyOrder: &neg}, actor)
	require.ErrorIs(t, err, moderation.ErrInvalidStickyOrder)

	unknown := "no-such-category"
	_, err = svc.Update(ctx, "r1", moderation.Change{Category: &unknown}, actor)
	require.ErrorIs(t, err, moderation.ErrInvalidCategory)

	g := 1
	_, err = svc.Update(ctx, "missing", moderation.Change{GlobalStickyOrder: &g}, actor)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCategoryChecks(t *testing.T) {
	svc, s := setup(t, pending("r1", "coding"), pending("r2", "coding"))
	ctx := context.Background()

	_, err := svc.Transition(ctx, "r1", moderation.Approve, "", actor)
	require.NoError(t, err)

	unknown := "no-such-category"
	_, err = svc.Update(ctx, "r1", moderation.Change{Category: &unknown}, actor)
	require.ErrorIs(t, err, moderation.ErrInvalidCategory)

	fallback := domain.DefaultCategory
	_, err = svc.Update(ctx, "r1", moderation.Change{Category: &fallback}, actor)
	require.ErrorIs(t, err, moderation.ErrCategoryRequired)

	got, err := s.GetResource(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPublished, got.Status)
	assert.Equal(t, "coding", got.Category)

	_, err = svc.Transition(ctx, "r2", moderation.Reject, "bogus", actor)
	require.ErrorIs(t, err, moderation.ErrInvalidCategory)
	got, err = s.GetResource(ctx, "r2")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Equal(t, "coding", got.Category)

	// the default bucket is still a valid place for an unpublished resource
	r, err := svc.Transition(ctx, "r2", moderation.Reject, domain.DefaultCategory, actor)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCategory, r.Category)
}

func TestDelete(t *testing.T) {
	svc, s := setup(t, pending("r1", "coding"))
	ctx := context.Background()

	r, err := svc.Delete(ctx, "r1", actor)
	require.NoError(t, err)
	assert.Equal(t, "r1", r.ID)

	_, err = s.GetResource(ctx, "r1")
	require.ErrorIs(t, err, store.ErrNotFound)

	entry := lastLog(t, s)
	assert.Equal(t, domain.ActionDelete, entry.Action)
	assert.Empty(t, entry.ResourceID)
	assert.JSONEq(t, `{"deletedResource":{"id":"r1","name":"r1","url":"https://r1.example"}}`, string(entry.Details))

	_, err = svc.Delete(ctx, "r1", actor)
	require.ErrorIs(t, err, store.ErrNotFound)
}

type failingAudit struct{ *memstore.Store }

func (failingAudit) InsertAdminLog(context.Context, *domain.AdminLog) error {
	return errors.New("audit table locked")
}

func TestAuditFailureDoesNotBlock(t *testing.T) {
	s := memstore.New()
	r := pending("r1", "coding")
	require.NoError(t, s.CreateResource(context.Background(), &r))
	svc := moderation.NewService(s, audit.NewRecorder(failingAudit{s}, nil), nil)

	got, err := svc.Transition(context.Background(), "r1", moderation.Approve, "", actor)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPublished, got.Status)
}
