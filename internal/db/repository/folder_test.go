package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querydesk/internal/domain"
)

func setupFolderRepo(t *testing.T) (*FolderRepo, *SavedQueryRepo) {
	t.Helper()
	db := openTestDB(t)
	return NewFolderRepo(db), NewSavedQueryRepo(db)
}

func mustCreateFolder(t *testing.T, repo *FolderRepo, ctx context.Context, name string, parentID *string) *domain.Folder {
	t.Helper()
	f, err := repo.Create(ctx, &domain.Folder{
		Name:       name,
		ParentID:   parentID,
		Visibility: domain.VisibilityPersonal,
	})
	require.NoError(t, err)
	return f
}

func TestFolderRepo_CreateAndGet(t *testing.T) {
	repo, _ := setupFolderRepo(t)
	ctx := scopedCtx()

	f := mustCreateFolder(t, repo, ctx, "Reports", nil)
	assert.NotEmpty(t, f.ID)
	assert.Equal(t, "t-1", f.TenantID)
	assert.Equal(t, "bu-1", f.BusinessUnitID)
	assert.Equal(t, "u-1", f.OwnerUserID)
	assert.Nil(t, f.ParentID)
	assert.Equal(t, domain.VisibilityPersonal, f.Visibility)
	assert.False(t, f.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "Reports", got.Name)
}

func TestFolderRepo_GetByID_OtherScopeInvisible(t *testing.T) {
	repo, _ := setupFolderRepo(t)

	f := mustCreateFolder(t, repo, scopedCtx(), "Reports", nil)

	_, err := repo.GetByID(otherScopeCtx(), f.ID)
	require.Error(t, err)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestFolderRepo_NoScope(t *testing.T) {
	repo, _ := setupFolderRepo(t)

	_, err := repo.GetByID(context.Background(), "anything")
	require.Error(t, err)
	var internal *domain.InternalError
	assert.ErrorAs(t, err, &internal)
}

func TestFolderRepo_List(t *testing.T) {
	repo, _ := setupFolderRepo(t)
	ctx := scopedCtx()

	mustCreateFolder(t, repo, ctx, "B", nil)
	mustCreateFolder(t, repo, ctx, "A", nil)
	mustCreateFolder(t, repo, otherScopeCtx(), "Other", nil)

	folders, total, err := repo.List(ctx, domain.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, folders, 2)
	assert.Equal(t, "A", folders[0].Name)
	assert.Equal(t, "B", folders[1].Name)
}

func TestFolderRepo_Update_Reparent(t *testing.T) {
	repo, _ := setupFolderRepo(t)
	ctx := scopedCtx()

	root := mustCreateFolder(t, repo, ctx, "root", nil)
	child := mustCreateFolder(t, repo, ctx, "child", nil)

	updated, err := repo.Update(ctx, child.ID, domain.UpdateFolderRequest{
		ParentID: &root.ID, SetParent: true,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.ParentID)
	assert.Equal(t, root.ID, *updated.ParentID)

	// Move back to root level.
	updated, err = repo.Update(ctx, child.ID, domain.UpdateFolderRequest{SetParent: true})
	require.NoError(t, err)
	assert.Nil(t, updated.ParentID)
}

func TestFolderRepo_Delete_NotFound(t *testing.T) {
	repo, _ := setupFolderRepo(t)

	err := repo.Delete(scopedCtx(), "missing")
	require.Error(t, err)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestFolderRepo_HasChildren(t *testing.T) {
	repo, queries := setupFolderRepo(t)
	ctx := scopedCtx()

	parent := mustCreateFolder(t, repo, ctx, "parent", nil)

	has, err := repo.HasChildren(ctx, parent.ID)
	require.NoError(t, err)
	assert.False(t, has)

	child := mustCreateFolder(t, repo, ctx, "child", &parent.ID)
	has, err = repo.HasChildren(ctx, parent.ID)
	require.NoError(t, err)
	assert.True(t, has)

	// Child folder is a leaf until a saved query points at it.
	has, err = repo.HasChildren(ctx, child.ID)
	require.NoError(t, err)
	assert.False(t, has)

	_, err = queries.Create(ctx, &domain.SavedQuery{Name: "q", FolderID: &child.ID})
	require.NoError(t, err)

	has, err = repo.HasChildren(ctx, child.ID)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestFolderRepo_WouldCreateCycle(t *testing.T) {
	repo, _ := setupFolderRepo(t)
	ctx := scopedCtx()

	// a -> b -> c (parent pointers point up the chain)
	a := mustCreateFolder(t, repo, ctx, "a", nil)
	b := mustCreateFolder(t, repo, ctx, "b", &a.ID)
	c := mustCreateFolder(t, repo, ctx, "c", &b.ID)
	other := mustCreateFolder(t, repo, ctx, "other", nil)

	// Moving a under its descendant c is a cycle.
	cycle, err := repo.WouldCreateCycle(ctx, a.ID, c.ID)
	require.NoError(t, err)
	assert.True(t, cycle)

	// Moving a under its direct child b is a cycle.
	cycle, err = repo.WouldCreateCycle(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, cycle)

	// The proposed parent itself counts: b under b is a cycle.
	cycle, err = repo.WouldCreateCycle(ctx, b.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, cycle)

	// Moving c under an unrelated folder is fine.
	cycle, err = repo.WouldCreateCycle(ctx, c.ID, other.ID)
	require.NoError(t, err)
	assert.False(t, cycle)

	// Moving b under a (already its parent) is fine.
	cycle, err = repo.WouldCreateCycle(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, cycle)
}

func TestFolderRepo_WouldCreateCycle_DeepChain(t *testing.T) {
	repo, _ := setupFolderRepo(t)
	ctx := scopedCtx()

	top := mustCreateFolder(t, repo, ctx, "d0", nil)
	parent := top
	var leaf *domain.Folder
	for i := 1; i <= 10; i++ {
		leaf = mustCreateFolder(t, repo, ctx, fmt.Sprintf("d%d", i), &parent.ID)
		parent = leaf
	}

	cycle, err := repo.WouldCreateCycle(ctx, top.ID, leaf.ID)
	require.NoError(t, err)
	assert.True(t, cycle)

	cycle, err = repo.WouldCreateCycle(ctx, leaf.ID, top.ID)
	require.NoError(t, err)
	assert.False(t, cycle)
}
