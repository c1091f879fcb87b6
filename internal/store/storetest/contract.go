// Package storetest is a behavioural suite every store.Store must pass.
package storetest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Eninte/ai-resource-navigator/internal/domain"
	"github.com/Eninte/ai-resource-navigator/internal/store"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) store.Store

func at(day int) *time.Time {
	t := time.Date(2025, 3, day, 12, 0, 0, 0, time.UTC)
	return &t
}

// Fixtures returns a small catalog spanning every status and both sticky
// scopes.
func Fixtures() []domain.Resource {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	mk := func(id, name, category string, status domain.Status, published *time.Time, g, c int) domain.Resource {
		return domain.Resource{
			ID: id, Name: name, Description: name + " description", URL: "https://" + id + ".example",
			Category: category, Price: domain.PriceFreemium, Status: status,
			CreatedAt: base.Add(time.Duration(len(id)) * time.Hour), PublishedAt: published,
			GlobalStickyOrder: g, CategoryStickyOrder: c,
		}
	}
	return []domain.Resource{
		mk("r1", "Alpha Chat", "foundation-models", domain.StatusPublished, at(1), 0, 0),
		mk("r2", "Beta Code", "coding", domain.StatusPublished, at(9), 0, 3),
		mk("r3", "Gamma Paint", "image", domain.StatusPublished, at(5), 2, 0),
		mk("r4", "Delta Write", "writing", domain.StatusPublished, at(7), 0, 0),
		mk("r5", "Epsilon Draft", "writing", domain.StatusPending, nil, 0, 0),
		mk("r6", "Zeta Code", "coding", domain.StatusRejected, nil, 0, 0),
		mk("r7", "Eta 100%_Search", "research", domain.StatusPublished, at(3), 0, 0),
	}
}

func seed(t *testing.T, s store.Store) {
	t.Helper()
	for _, r := range Fixtures() {
		r := r
		require.NoError(t, s.CreateResource(context.Background(), &r))
	}
}

func ids(rs []domain.Resource) []string {
	out := make([]string, len(rs))
	for i := range rs {
		out[i] = rs[i].ID
	}
	return out
}

// Run executes the suite.
func Run(t *testing.T, newStore Factory) {
	t.Helper()
	ctx := context.Background()

	t.Run("list orders sticky first", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)

		got, err := s.ListResources(ctx, store.ListOptions{
			Filter: store.Filter{Status: domain.StatusPublished},
			Order:  store.OrderPublished,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"r3", "r2", "r4", "r7", "r1"}, ids(got))

		got, err = s.ListResources(ctx, store.ListOptions{
			Filter: store.Filter{Status: domain.StatusPublished},
			Order:  store.OrderName,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"r3", "r2", "r1", "r4", "r7"}, ids(got))
	})

	t.Run("list filters and paginates", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)

		f := store.Filter{Status: domain.StatusPublished, Category: "coding"}
		got, err := s.ListResources(ctx, store.ListOptions{Filter: f})
		require.NoError(t, err)
		assert.Equal(t, []string{"r2"}, ids(got))

		f = store.Filter{Search: "CODE"}
		n, err := s.CountResources(ctx, f)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		f = store.Filter{Search: "100%_"}
		n, err = s.CountResources(ctx, f)
		require.NoError(t, err)
		assert.Equal(t, 1, n, "LIKE wildcards are matched literally")

		f = store.Filter{Status: domain.StatusPublished, Category: store.AllCategories}
		got, err = s.ListResources(ctx, store.ListOptions{Filter: f, Limit: 2, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, []string{"r2", "r4"}, ids(got))

		got, err = s.ListResources(ctx, store.ListOptions{Filter: f, Offset: 3})
		require.NoError(t, err)
		assert.Equal(t, []string{"r7", "r1"}, ids(got))
	})

	t.Run("get update delete", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)

		r, err := s.GetResource(ctx, "r5")
		require.NoError(t, err)
		assert.Equal(t, "Epsilon Draft", r.Name)
		assert.Nil(t, r.PublishedAt)

		r.Status = domain.StatusPublished
		r.PublishedAt = at(20)
		r.Category = "office"
		r.GlobalStickyOrder = 7
		require.NoError(t, s.UpdateResource(ctx, r))

		r, err = s.GetResource(ctx, "r5")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPublished, r.Status)
		assert.Equal(t, "office", r.Category)
		assert.Equal(t, 7, r.GlobalStickyOrder)
		require.NotNil(t, r.PublishedAt)
		assert.True(t, at(20).Equal(*r.PublishedAt))

		require.NoError(t, s.DeleteResource(ctx, "r5"))
		_, err = s.GetResource(ctx, "r5")
		require.ErrorIs(t, err, store.ErrNotFound)
		require.ErrorIs(t, s.DeleteResource(ctx, "r5"), store.ErrNotFound)
		require.ErrorIs(t, s.UpdateResource(ctx, &domain.Resource{ID: "missing"}), store.ErrNotFound)
	})

	t.Run("url exists by status", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)

		ok, err := s.URLExists(ctx, "https://r5.example", domain.StatusPending, domain.StatusPublished)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = s.URLExists(ctx, "https://r6.example", domain.StatusPending, domain.StatusPublished)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("count by category", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)

		counts, err := s.CountByCategory(ctx, domain.StatusPublished)
		require.NoError(t, err)
		assert.Equal(t, map[string]int{
			"foundation-models": 1, "coding": 1, "image": 1, "writing": 1, "research": 1,
		}, counts)
	})

	t.Run("categories seeded", func(t *testing.T) {
		s := newStore(t)

		cats, err := s.ListCategories(ctx, true)
		require.NoError(t, err)
		require.Len(t, cats, 9)
		assert.Equal(t, "foundation-models", cats[0].Slug)
		assert.Equal(t, "entertainment", cats[8].Slug)
	})

	t.Run("clicks and admin logs", func(t *testing.T) {
		s := newStore(t)
		seed(t, s)

		clicks := make([]domain.Click, 120)
		for i := range clicks {
			clicks[i] = domain.Click{ResourceID: "r1", IPHash: "h", UserAgent: "ua"}
		}
		require.NoError(t, s.InsertClicks(ctx, clicks))

		for i, action := range []domain.Action{domain.ActionLogin, domain.ActionApprove, domain.ActionDelete} {
			entry := &domain.AdminLog{
				Action:    action,
				IPHash:    "h",
				Details:   json.RawMessage(`{"n":1}`),
				CreatedAt: time.Date(2025, 3, 1, i, 0, 0, 0, time.UTC),
			}
			if action != domain.ActionLogin {
				entry.ResourceID = "r1"
			}
			require.NoError(t, s.InsertAdminLog(ctx, entry))
		}

		n, err := s.CountAdminLogs(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		logs, err := s.ListAdminLogs(ctx, 2, 0)
		require.NoError(t, err)
		require.Len(t, logs, 2)
		assert.Equal(t, domain.ActionDelete, logs[0].Action)
		assert.Equal(t, domain.ActionApprove, logs[1].Action)
		assert.JSONEq(t, `{"n":1}`, string(logs[0].Details))

		logs, err = s.ListAdminLogs(ctx, 2, 2)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Empty(t, logs[0].ResourceID)
	})
}
