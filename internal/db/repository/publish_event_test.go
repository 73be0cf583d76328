package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querydesk/internal/domain"
)

func TestPublishEventRepo_CreateAndList(t *testing.T) {
	db := openTestDB(t)
	queries := NewSavedQueryRepo(db)
	versions := NewQueryVersionRepo(db)
	repo := NewPublishEventRepo(db)
	ctx := scopedCtx()

	q := mustCreateQuery(t, queries, ctx, "q")
	v, err := versions.Create(ctx, &domain.QueryVersion{
		SavedQueryID: q.ID, SQLTextCipher: "c", SQLTextHash: "h", Source: domain.VersionSourceEdit,
	})
	require.NoError(t, err)

	e, err := repo.Create(ctx, &domain.PublishEvent{
		SavedQueryID:     q.ID,
		VersionID:        v.ID,
		LinkedRemoteKey:  "qa-key-1",
		PublishedSQLHash: "h",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "t-1", e.TenantID)
	assert.Equal(t, "u-1", e.UserID)
	assert.False(t, e.CreatedAt.IsZero())

	events, total, err := repo.ListBySavedQuery(ctx, q.ID, domain.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, events, 1)
	assert.Equal(t, "qa-key-1", events[0].LinkedRemoteKey)

	latest, err := repo.LatestBySavedQuery(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, latest.ID)
}

func TestPublishEventRepo_LatestBySavedQuery_Empty(t *testing.T) {
	repo := NewPublishEventRepo(openTestDB(t))

	_, err := repo.LatestBySavedQuery(scopedCtx(), "never-published")
	require.Error(t, err)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestPublishEventRepo_ScopeIsolation(t *testing.T) {
	db := openTestDB(t)
	queries := NewSavedQueryRepo(db)
	versions := NewQueryVersionRepo(db)
	repo := NewPublishEventRepo(db)
	ctx := scopedCtx()

	q := mustCreateQuery(t, queries, ctx, "q")
	v, err := versions.Create(ctx, &domain.QueryVersion{
		SavedQueryID: q.ID, SQLTextCipher: "c", SQLTextHash: "h", Source: domain.VersionSourceEdit,
	})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &domain.PublishEvent{
		SavedQueryID: q.ID, VersionID: v.ID, LinkedRemoteKey: "k", PublishedSQLHash: "h",
	})
	require.NoError(t, err)

	events, total, err := repo.ListBySavedQuery(otherScopeCtx(), q.ID, domain.PageRequest{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, events)
}
