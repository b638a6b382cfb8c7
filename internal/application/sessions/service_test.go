package sessions

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentlens/talentlens/internal/application"
	"github.com/talentlens/talentlens/internal/domain/erasure"
	domain "github.com/talentlens/talentlens/internal/domain/sessions"
	"github.com/talentlens/talentlens/internal/infra/sessionstore"
)

type mockAudits struct {
	mu    sync.Mutex
	saved []*erasure.Audit
}

func (m *mockAudits) Save(_ context.Context, a *erasure.Audit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, a)
	return nil
}

func (m *mockAudits) Latest(_ context.Context, sessionID string) (*erasure.Audit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.saved) - 1; i >= 0; i-- {
		if m.saved[i].SessionID == sessionID {
			return m.saved[i], nil
		}
	}
	return nil, nil
}

func newService(t *testing.T) (*Service, *mockAudits) {
	t.Helper()
	audits := &mockAudits{}
	svc := &Service{
		Store:     sessionstore.NewMemory(),
		Audits:    audits,
		UploadDir: t.TempDir(),
		Clock:     application.SystemClock{},
	}
	return svc, audits
}

func TestCreateMakesUploadDirectory(t *testing.T) {
	svc, _ := newService(t)

	sess, err := svc.Create(context.Background(), domain.FieldDigitalTechnology)
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(svc.UploadDir, string(sess.ID)))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCreateRejectsInvalidField(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Create(context.Background(), domain.Field("alchemy"))
	assert.ErrorIs(t, err, domain.ErrInvalidField)
}

func TestDeleteRemovesFilesAndSession(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	sess, err := svc.Create(ctx, domain.FieldArtsCulture)
	require.NoError(t, err)
	dir := filepath.Join(svc.UploadDir, string(sess.ID))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cv.pdf"), []byte("x"), 0o644))

	require.NoError(t, svc.Delete(ctx, sess.ID))

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
	_, err = svc.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Deleting again is a no-op.
	assert.NoError(t, svc.Delete(ctx, sess.ID))
}

func TestEraseWritesAuditTrail(t *testing.T) {
	svc, audits := newService(t)
	ctx := context.Background()

	sess, err := svc.Create(ctx, domain.FieldScienceResearch)
	require.NoError(t, err)
	_, err = svc.Store.Update(ctx, sess.ID, func(s *domain.Session) error {
		s.Documents = []domain.DocumentRef{
			{Kind: domain.DocCV, Filename: "cv.pdf"},
			{Kind: domain.DocPortfolio, Filename: "paper.pdf"},
		}
		return nil
	})
	require.NoError(t, err)

	audit, err := svc.Erase(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, erasure.StatusCompleted, audit.Status)
	assert.Equal(t, []string{"cv.pdf", "paper.pdf"}, audit.DocumentsDeleted)
	assert.False(t, audit.ResultDeleted)

	require.Len(t, audits.saved, 1)
	_, err = svc.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEraseUnknownSession(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Erase(context.Background(), "sess_gone")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeletionStatus(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	sess, err := svc.Create(ctx, domain.FieldDigitalTechnology)
	require.NoError(t, err)

	state, _, err := svc.DeletionStatus(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "active", state)

	_, err = svc.Erase(ctx, sess.ID)
	require.NoError(t, err)

	state, audit, err := svc.DeletionStatus(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "deleted", state)
	require.NotNil(t, audit)
	assert.Equal(t, string(sess.ID), audit.SessionID)

	state, _, err = svc.DeletionStatus(ctx, "sess_never_existed")
	require.NoError(t, err)
	assert.Equal(t, "not_found", state)
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func TestSweepRemovesExpiredSessions(t *testing.T) {
	audits := &mockAudits{}
	clock := &fakeClock{now: time.Now()}
	svc := &Service{
		Store:     sessionstore.NewMemoryWithClock(func() time.Time { return clock.now }),
		Audits:    audits,
		UploadDir: t.TempDir(),
		Clock:     clock,
	}
	ctx := context.Background()

	old, err := svc.Create(ctx, domain.FieldDigitalTechnology)
	require.NoError(t, err)

	clock.now = clock.now.Add(48 * time.Hour)
	fresh, err := svc.Create(ctx, domain.FieldArtsCulture)
	require.NoError(t, err)

	svc.sweep(ctx, 24*time.Hour)

	_, err = svc.Get(ctx, old.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.Get(ctx, fresh.ID)
	assert.NoError(t, err)
}
