package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rongwang/condo-ledger/internal/config"
	"github.com/rongwang/condo-ledger/internal/filter"
	"github.com/rongwang/condo-ledger/internal/models"
	"github.com/rongwang/condo-ledger/internal/repository"
	"github.com/rongwang/condo-ledger/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureMailer struct {
	mu    sync.Mutex
	links map[string]string
}

func (m *captureMailer) SendMagicLink(ctx context.Context, email, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.links == nil {
		m.links = make(map[string]string)
	}
	m.links[email] = link
	return nil
}

func (m *captureMailer) last(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.links[email]
}

// failingAuditRepo behaves like the wrapped repository except that audit
// writes always fail
type failingAuditRepo struct {
	repository.Repository
}

func (failingAuditRepo) InsertAuditLog(ctx context.Context, entry *models.AuditLogEntry) error {
	return errors.New("audit store unavailable")
}

type testEnv struct {
	ctx   context.Context
	svc   *DefaultService
	repo  *repository.SQLRepository
	mail  *captureMailer
	hook  *test.Hook
	admin models.Actor
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWith(t, nil)
}

func newTestEnvWith(t *testing.T, wrap func(repository.Repository) repository.Repository) *testEnv {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{
		Server: config.ServerConfig{BaseURL: "http://localhost:8080"},
		Database: config.DatabaseConfig{
			Driver: "sqlite3",
			Path:   filepath.Join(dir, "condo.db"),
		},
		Auth: config.AuthConfig{
			JWTSecret:   "test-secret-key",
			AdminEmails: []string{"admin@example.com"},
		},
	}

	db, err := config.SetupDatabase(cfg)
	require.NoError(t, err, "Failed to set up test database")
	t.Cleanup(func() { db.Close() })

	sqlRepo := repository.NewSQLRepository(db)
	var repo repository.Repository = sqlRepo
	if wrap != nil {
		repo = wrap(sqlRepo)
	}

	blobs, err := storage.NewLocalStore(filepath.Join(dir, "blobs"))
	require.NoError(t, err)

	logger, hook := test.NewNullLogger()
	mail := &captureMailer{}
	svc := NewDefaultService(repo, blobs, mail, logger, cfg).(*DefaultService)

	return &testEnv{
		ctx:   context.Background(),
		svc:   svc,
		repo:  sqlRepo,
		mail:  mail,
		hook:  hook,
		admin: models.Actor{UserID: "admin-1", Email: "admin@example.com", Role: models.RoleAdmin},
	}
}

func (e *testEnv) owner(t *testing.T, apartment string) *models.Owner {
	t.Helper()
	owner, err := e.svc.CreateOwner(e.ctx, e.admin, models.CreateOwnerRequest{
		Name:        "Owner " + apartment,
		ApartmentID: apartment,
	})
	require.NoError(t, err)
	return owner
}

func (e *testEnv) tag(t *testing.T, name, monthYear string) *models.Tag {
	t.Helper()
	tag, err := e.svc.CreateTag(e.ctx, e.admin, models.CreateTagRequest{Name: name, MonthYear: monthYear})
	require.NoError(t, err)
	return tag
}

func (e *testEnv) transaction(t *testing.T, req models.CreateTransactionRequest) *models.Transaction {
	t.Helper()
	if req.Type == "" {
		req.Type = "credit"
	}
	if req.Date == "" {
		req.Date = "2024-03-15"
	}
	tx, err := e.svc.CreateTransaction(e.ctx, e.admin, req)
	require.NoError(t, err)
	return tx
}

func TestAuditFailureDoesNotFailAction(t *testing.T) {
	env := newTestEnvWith(t, func(r repository.Repository) repository.Repository {
		return failingAuditRepo{Repository: r}
	})

	owner, err := env.svc.CreateOwner(env.ctx, env.admin, models.CreateOwnerRequest{
		Name:        "Ana",
		ApartmentID: "101",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, owner.ID)

	_, err = env.svc.UpdateOwner(env.ctx, env.admin, owner.ID, models.UpdateOwnerRequest{
		Name:        "Ana Maria",
		ApartmentID: "101",
	})
	require.NoError(t, err)

	tag := env.tag(t, "Condo fee", "2024-03")
	require.NoError(t, env.svc.DeleteTag(env.ctx, env.admin, tag.ID))

	stored, err := env.repo.GetOwner(env.ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", stored.Name)

	var auditErrors int
	for _, entry := range env.hook.AllEntries() {
		if entry.Level == logrus.ErrorLevel && entry.Data["module"] == "audit" {
			auditErrors++
		}
	}
	assert.Equal(t, 4, auditErrors, "create owner, update owner, create tag and delete tag")
}

func TestActionsAreAudited(t *testing.T) {
	env := newTestEnv(t)

	owner := env.owner(t, "202")
	require.NoError(t, env.svc.SetOwnerActive(env.ctx, env.admin, owner.ID, false))

	logs, err := env.svc.ListAuditLogs(env.ctx, filterForEntity(owner.ID))
	require.NoError(t, err)
	require.Equal(t, 2, logs.Total)
	assert.ElementsMatch(t,
		[]string{models.AuditCreate, models.AuditUpdate},
		[]string{logs.Entries[0].EventType, logs.Entries[1].EventType})
	for _, entry := range logs.Entries {
		assert.Equal(t, "admin@example.com", entry.UserEmail)
		assert.False(t, entry.IsSystem)
		assert.Equal(t, models.EntityOwner, entry.EntityType)
	}
}

func filterForEntity(id string) filter.AuditFilter {
	return filter.AuditFilter{EntityID: id, Page: 1, Limit: filter.AuditPageSize}
}

func TestOwnerApartmentIsUnique(t *testing.T) {
	env := newTestEnv(t)
	env.owner(t, "303")

	_, err := env.svc.CreateOwner(env.ctx, env.admin, models.CreateOwnerRequest{Name: "Other", ApartmentID: "303"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestTagNameIsUnique(t *testing.T) {
	env := newTestEnv(t)
	env.tag(t, "Water", "")

	_, err := env.svc.CreateTag(env.ctx, env.admin, models.CreateTagRequest{Name: "Water"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestGetOwnerNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.GetOwner(env.ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "owner not found", err.Error())
}

func TestUserMessageHidesInfrastructureErrors(t *testing.T) {
	assert.Equal(t, "internal error", userMessage(errors.New("pq: connection refused")))
	assert.Equal(t, "tag not found", userMessage(notFound("tag")))
}
