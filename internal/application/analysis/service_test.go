package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentlens/talentlens/internal/application"
	domain "github.com/talentlens/talentlens/internal/domain/analysis"
	sessdomain "github.com/talentlens/talentlens/internal/domain/sessions"
	"github.com/talentlens/talentlens/internal/infra/sessionstore"
)

// --- mocks ---

type mockClient struct {
	mu      sync.Mutex
	calls   int
	reply   string
	err     error
	gotEv   domain.Evidence
	failFor int // fail the first N calls, then succeed
}

func (c *mockClient) Assess(_ context.Context, ev domain.Evidence) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.gotEv = ev
	if c.err != nil && (c.failFor == 0 || c.calls <= c.failFor) {
		return "", c.err
	}
	return c.reply, nil
}

type mockExtractor struct {
	texts map[string]string
	err   error
}

func (e *mockExtractor) Extract(path string) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return e.texts[path], nil
}

type mockRecords struct {
	mu    sync.Mutex
	saved []*domain.Record
	err   error
}

func (r *mockRecords) Save(_ context.Context, rec *domain.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, rec)
	return nil
}

func (r *mockRecords) Overview(_ context.Context) (*domain.Overview, error) { return nil, nil }
func (r *mockRecords) List(_ context.Context, _ domain.ListFilter) ([]*domain.Record, int64, error) {
	return nil, 0, nil
}
func (r *mockRecords) Export(_ context.Context) ([]*domain.Record, error) { return nil, nil }

func (r *mockRecords) last() *domain.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.saved) == 0 {
		return nil
	}
	return r.saved[len(r.saved)-1]
}

type mockArtifacts struct {
	url string
	err error
}

func (a *mockArtifacts) Upload(_ context.Context, _, _ string) (string, error) {
	return a.url, a.err
}
func (a *mockArtifacts) UploadAndCleanup(_ context.Context, _, key string) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	return a.url + "/" + key, a.err
}

const goodReply = `{
  "likelihood": 0.8,
  "assessment_level": "exceptional_talent",
  "cv_feedback": {"score": 85, "strengths": ["strong record"]},
  "gaps": [],
  "strengths": ["recognized leader"],
  "overall_assessment": "ready",
  "roadmap": {"milestones": [{"title": "Final review", "description": "polish documents", "duration_weeks": 2}]}
}`

// --- fixture ---

type fixture struct {
	svc     *Service
	store   *sessionstore.Memory
	client  *mockClient
	records *mockRecords
	done    chan sessdomain.SessionID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   sessionstore.NewMemory(),
		client:  &mockClient{reply: goodReply},
		records: &mockRecords{},
		done:    make(chan sessdomain.SessionID, 1),
	}
	f.svc = &Service{
		Sessions:     f.store,
		Records:      f.records,
		Client:       f.client,
		Extractor:    &mockExtractor{texts: map[string]string{}},
		Artifacts:    &mockArtifacts{url: "http://minio/talent"},
		Clock:        application.SystemClock{},
		Timeout:      time.Second,
		MaxAttempts:  1,
		RetryBackoff: time.Millisecond,
		onDone:       func(id sessdomain.SessionID) { f.done <- id },
	}
	return f
}

func (f *fixture) readySession(t *testing.T) sessdomain.SessionID {
	t.Helper()
	ctx := context.Background()
	sess, err := f.store.Create(ctx, sessdomain.FieldDigitalTechnology)
	require.NoError(t, err)
	_, err = f.store.Update(ctx, sess.ID, func(s *sessdomain.Session) error {
		s.Answers = map[string]any{"years_experience": float64(7)}
		s.Documents = []sessdomain.DocumentRef{
			{Kind: sessdomain.DocCV, Filename: "cv.pdf", Path: "/tmp/cv.pdf"},
			{Kind: sessdomain.DocLetter, Filename: "letter.pdf", Path: "/tmp/letter.pdf"},
		}
		return nil
	})
	require.NoError(t, err)
	return sess.ID
}

func (f *fixture) wait(t *testing.T) {
	t.Helper()
	select {
	case <-f.done:
	case <-time.After(5 * time.Second):
		t.Fatal("analysis did not finish in time")
	}
}

// --- tests ---

func TestTriggerCompletesSession(t *testing.T) {
	f := newFixture(t)
	id := f.readySession(t)
	ctx := context.Background()

	sess, err := f.svc.Trigger(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, sessdomain.StatusProcessing, sess.Status)

	f.wait(t)

	final, err := f.svc.Results(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, sessdomain.StatusCompleted, final.Status)
	require.NotNil(t, final.Result)
	assert.Equal(t, 0.8, final.Result.Likelihood)
	require.NotNil(t, final.CompletedAt)

	rec := f.records.last()
	require.NotNil(t, rec)
	assert.Equal(t, domain.RecordStatusCompleted, rec.Status)
	assert.Equal(t, 80, rec.OverallScore)
	assert.Equal(t, domain.RecommendationReady, rec.Recommendation)
	assert.Equal(t, 2, rec.DocumentCount)
	assert.Contains(t, rec.ArtifactURL, string(id))
}

func TestTriggerGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("unknown session", func(t *testing.T) {
		_, err := f.svc.Trigger(ctx, "sess_missing")
		assert.ErrorIs(t, err, sessdomain.ErrNotFound)
	})

	t.Run("no answers", func(t *testing.T) {
		sess, err := f.store.Create(ctx, sessdomain.FieldArtsCulture)
		require.NoError(t, err)
		_, err = f.svc.Trigger(ctx, sess.ID)
		assert.ErrorIs(t, err, sessdomain.ErrInvalidState)
	})

	t.Run("no CV", func(t *testing.T) {
		sess, err := f.store.Create(ctx, sessdomain.FieldArtsCulture)
		require.NoError(t, err)
		_, err = f.store.Update(ctx, sess.ID, func(s *sessdomain.Session) error {
			s.Answers = map[string]any{"countries_worked": float64(3)}
			s.Documents = []sessdomain.DocumentRef{{Kind: sessdomain.DocPortfolio, Filename: "work.pdf"}}
			return nil
		})
		require.NoError(t, err)
		_, err = f.svc.Trigger(ctx, sess.ID)
		assert.ErrorIs(t, err, sessdomain.ErrInvalidState)
	})
}

func TestTriggerRejectsDoubleStart(t *testing.T) {
	f := newFixture(t)
	id := f.readySession(t)
	ctx := context.Background()

	_, err := f.svc.Trigger(ctx, id)
	require.NoError(t, err)

	_, err = f.svc.Trigger(ctx, id)
	assert.ErrorIs(t, err, sessdomain.ErrInvalidState)

	f.wait(t)
}

func TestUnparseableReplyMarksError(t *testing.T) {
	f := newFixture(t)
	f.client.reply = "the applicant seems great"
	id := f.readySession(t)
	ctx := context.Background()

	_, err := f.svc.Trigger(ctx, id)
	require.NoError(t, err)
	f.wait(t)

	final, err := f.svc.Results(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, sessdomain.StatusError, final.Status)
	assert.NotEmpty(t, final.ErrorMessage)
	assert.Nil(t, final.Result)

	rec := f.records.last()
	require.NotNil(t, rec)
	assert.Equal(t, domain.RecordStatusError, rec.Status)
	assert.Equal(t, domain.RecommendationUnavailable, rec.Recommendation)

	assert.Equal(t, 1, f.client.calls, "schema violations must not be retried")
}

func TestTransportErrorRetriesThenSucceeds(t *testing.T) {
	f := newFixture(t)
	f.client.err = errors.New("connection reset")
	f.client.failFor = 2
	f.svc.MaxAttempts = 3
	id := f.readySession(t)
	ctx := context.Background()

	_, err := f.svc.Trigger(ctx, id)
	require.NoError(t, err)
	f.wait(t)

	final, err := f.svc.Results(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, sessdomain.StatusCompleted, final.Status)
	assert.Equal(t, 3, f.client.calls)
}

func TestTransportErrorExhaustsAttempts(t *testing.T) {
	f := newFixture(t)
	f.client.err = errors.New("upstream down")
	f.svc.MaxAttempts = 2
	id := f.readySession(t)
	ctx := context.Background()

	_, err := f.svc.Trigger(ctx, id)
	require.NoError(t, err)
	f.wait(t)

	final, err := f.svc.Results(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, sessdomain.StatusError, final.Status)
	assert.Equal(t, 2, f.client.calls)
}

func TestExtractionFailureMarksError(t *testing.T) {
	f := newFixture(t)
	f.svc.Extractor = &mockExtractor{err: errors.New("corrupt pdf")}
	id := f.readySession(t)
	ctx := context.Background()

	_, err := f.svc.Trigger(ctx, id)
	require.NoError(t, err)
	f.wait(t)

	final, err := f.svc.Results(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, sessdomain.StatusError, final.Status)
	assert.Equal(t, 0, f.client.calls, "no LLM call when extraction fails")
}

func TestArtifactFailureIsNonFatal(t *testing.T) {
	f := newFixture(t)
	f.svc.Artifacts = &mockArtifacts{err: errors.New("bucket unavailable")}
	id := f.readySession(t)
	ctx := context.Background()

	_, err := f.svc.Trigger(ctx, id)
	require.NoError(t, err)
	f.wait(t)

	final, err := f.svc.Results(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, sessdomain.StatusCompleted, final.Status)

	rec := f.records.last()
	require.NotNil(t, rec)
	assert.Empty(t, rec.ArtifactURL)
}

func TestEvidenceTruncation(t *testing.T) {
	f := newFixture(t)
	long := make([]byte, 10000)
	for i := range long {
		long[i] = 'a'
	}
	f.svc.Extractor = &mockExtractor{texts: map[string]string{
		"/tmp/cv.pdf":     string(long),
		"/tmp/letter.pdf": string(long),
	}}
	id := f.readySession(t)
	ctx := context.Background()

	_, err := f.svc.Trigger(ctx, id)
	require.NoError(t, err)
	f.wait(t)

	f.client.mu.Lock()
	ev := f.client.gotEv
	f.client.mu.Unlock()

	require.NotNil(t, ev.CV)
	assert.Len(t, ev.CV.Text, cvTextBudget)
	require.Len(t, ev.Letters, 1)
	assert.Len(t, ev.Letters[0].Text, letterTextBudget)
	assert.Equal(t, "digital_technology", ev.Field)
	assert.Equal(t, "Digital Technology", ev.FieldName)
}
