package deploy

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	internaldb "querydesk/internal/db"
	"querydesk/internal/db/crypto"
	"querydesk/internal/db/repository"
	"querydesk/internal/domain"
)

const testKey = "6368616e676520746869732070617373776f726420746f206120736563726574"

type mockGateway struct {
	requestFn func(ctx context.Context, scope domain.Scope, req domain.RemoteRequest) (domain.RawDocument, error)
}

func (m *mockGateway) Request(ctx context.Context, scope domain.Scope, req domain.RemoteRequest) (domain.RawDocument, error) {
	if m.requestFn != nil {
		return m.requestFn(ctx, scope, req)
	}
	return domain.RawDocument{}, nil
}

type mockEventRepo struct {
	createFn func(ctx context.Context, e *domain.PublishEvent) (*domain.PublishEvent, error)
	listFn   func(ctx context.Context, savedQueryID string, page domain.PageRequest) ([]domain.PublishEvent, int64, error)
	latestFn func(ctx context.Context, savedQueryID string) (*domain.PublishEvent, error)
}

func (m *mockEventRepo) Create(ctx context.Context, e *domain.PublishEvent) (*domain.PublishEvent, error) {
	if m.createFn != nil {
		return m.createFn(ctx, e)
	}
	return e, nil
}

func (m *mockEventRepo) ListBySavedQuery(ctx context.Context, savedQueryID string, page domain.PageRequest) ([]domain.PublishEvent, int64, error) {
	if m.listFn != nil {
		return m.listFn(ctx, savedQueryID, page)
	}
	return nil, 0, nil
}

func (m *mockEventRepo) LatestBySavedQuery(ctx context.Context, savedQueryID string) (*domain.PublishEvent, error) {
	if m.latestFn != nil {
		return m.latestFn(ctx, savedQueryID)
	}
	return nil, domain.ErrNotFound("no publish events for %q", savedQueryID)
}

// testEnv bundles a service over real SQLite repositories with a mock
// gateway, plus direct repository handles for fixture setup.
type testEnv struct {
	svc      *Service
	gateway  *mockGateway
	queries  *repository.SavedQueryRepo
	versions *repository.QueryVersionRepo
	events   domain.PublishEventRepository
	enc      *crypto.Encryptor
}

func newTestEnv(t *testing.T, events domain.PublishEventRepository) *testEnv {
	t.Helper()
	writeDB, _ := internaldb.OpenTestSQLite(t)

	enc, err := crypto.NewEncryptor(testKey)
	require.NoError(t, err)

	queries := repository.NewSavedQueryRepo(writeDB)
	versions := repository.NewQueryVersionRepo(writeDB)
	if events == nil {
		events = repository.NewPublishEventRepo(writeDB)
	}

	gw := &mockGateway{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &testEnv{
		svc:      New(queries, versions, events, gw, enc, logger),
		gateway:  gw,
		queries:  queries,
		versions: versions,
		events:   events,
		enc:      enc,
	}
}

func testCtx() context.Context {
	return domain.WithScope(context.Background(), domain.Scope{
		TenantID: "t-1", BusinessUnitID: "bu-1", UserID: "u-1",
	})
}

// linkedQuery creates a saved query linked to qa-obj-1/qa-key-1.
func (e *testEnv) linkedQuery(t *testing.T, ctx context.Context, name string) *domain.SavedQuery {
	t.Helper()
	q, err := e.queries.Create(ctx, &domain.SavedQuery{Name: name})
	require.NoError(t, err)
	linked, err := e.queries.LinkToRemote(ctx, q.ID, domain.RemoteLink{
		RemoteObjectID: "qa-obj-1", RemoteKey: "qa-key-1", RemoteName: "QA " + name,
	})
	require.NoError(t, err)
	return linked
}

// saveVersion encrypts sqlText and appends an edit version.
func (e *testEnv) saveVersion(t *testing.T, ctx context.Context, savedQueryID, sqlText string) *domain.QueryVersion {
	t.Helper()
	cipher, err := e.enc.Encrypt(sqlText)
	require.NoError(t, err)
	v, err := e.versions.Create(ctx, &domain.QueryVersion{
		SavedQueryID:  savedQueryID,
		SQLTextCipher: cipher,
		SQLTextHash:   domain.SQLHash(sqlText),
		LineCount:     domain.SQLLineCount(sqlText),
		Source:        domain.VersionSourceEdit,
	})
	require.NoError(t, err)
	return v
}
