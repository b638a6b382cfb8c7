package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/talentlens/talentlens/internal/application"
	domain "github.com/talentlens/talentlens/internal/domain/analysis"
	sessdomain "github.com/talentlens/talentlens/internal/domain/sessions"
)

// Per-document text budgets for the prompt, in bytes of extracted text.
const (
	cvTextBudget        = 3000
	letterTextBudget    = 1000
	portfolioTextBudget = 800
)

// TextExtractor turns an uploaded blob into plain text for the prompt.
type TextExtractor interface {
	Extract(path string) (string, error)
}

// Service is the analysis orchestrator. Trigger moves a pending session to
// processing and schedules exactly one background unit of work; the unit of
// work extracts evidence, makes one LLM call, validates the reply, and
// transitions the session to completed or error.
type Service struct {
	Sessions     sessdomain.Store
	Records      domain.RecordRepository
	Client       domain.Client
	Extractor    TextExtractor
	Artifacts    domain.ArtifactStore
	Clock        application.Clock
	Timeout      time.Duration
	MaxAttempts  int
	RetryBackoff time.Duration

	// onDone lets tests observe background completion.
	onDone func(id sessdomain.SessionID)
}

// Trigger guards the pending to processing transition. The guard runs inside
// the store's critical section, so a second concurrent trigger against the
// same session gets ErrInvalidState instead of a race.
func (s *Service) Trigger(ctx context.Context, id sessdomain.SessionID) (*sessdomain.Session, error) {
	updated, err := s.Sessions.Update(ctx, id, func(sess *sessdomain.Session) error {
		if sess.Status != sessdomain.StatusPending {
			return fmt.Errorf("%w: analysis already %s", sessdomain.ErrInvalidState, sess.Status)
		}
		if len(sess.Answers) == 0 {
			return fmt.Errorf("%w: questionnaire not completed", sessdomain.ErrInvalidState)
		}
		if len(sess.Documents) == 0 {
			return fmt.Errorf("%w: no documents uploaded", sessdomain.ErrInvalidState)
		}
		if !sess.HasCV() {
			return fmt.Errorf("%w: CV is mandatory", sessdomain.ErrInvalidState)
		}
		sess.Status = sessdomain.StatusProcessing
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Snapshot taken under the lock; the goroutine never touches shared state
	// except through the store.
	go s.run(updated)

	return updated, nil
}

// Results is the side-effect-free polling read.
func (s *Service) Results(ctx context.Context, id sessdomain.SessionID) (*sessdomain.Session, error) {
	return s.Sessions.Get(ctx, id)
}

// run is the background unit of work for one session. It always terminates
// the session as completed or error and writes exactly one AnalysisRecord.
func (s *Service) run(sess *sessdomain.Session) {
	ctx := context.Background()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("panic in analysis session=%s: %v", sess.ID, r)
			s.fail(ctx, sess, fmt.Errorf("%w: internal error: %v", domain.ErrUpstream, r))
		}
		if s.onDone != nil {
			s.onDone(sess.ID)
		}
	}()

	ev, err := s.buildEvidence(sess)
	if err != nil {
		s.fail(ctx, sess, err)
		return
	}

	raw, err := s.assess(ctx, ev)
	if err != nil {
		s.fail(ctx, sess, err)
		return
	}

	res, err := domain.Parse(raw)
	if err != nil {
		s.fail(ctx, sess, err)
		return
	}

	completedAt := s.Clock.Now().UTC()
	artifactURL := s.uploadArtifact(ctx, sess.ID, res)

	_, err = s.Sessions.Update(ctx, sess.ID, func(cur *sessdomain.Session) error {
		cur.Status = sessdomain.StatusCompleted
		cur.Result = res
		cur.CompletedAt = &completedAt
		return nil
	})
	if err != nil {
		// Session deleted (or otherwise finalized) while the work ran; record anyway.
		log.Printf("analysis completion update failed session=%s: %v", sess.ID, err)
	}

	rec := domain.NewRecord(
		domain.RecordID(uuid.New().String()),
		string(sess.ID), string(sess.Field),
		res, len(sess.Documents), artifactURL,
		sess.CreatedAt, completedAt,
	)
	if err := s.Records.Save(ctx, rec); err != nil {
		log.Printf("analysis record save failed session=%s: %v", sess.ID, err)
	}
	log.Printf("analysis completed session=%s likelihood=%.2f roadmap_weeks=%d", sess.ID, res.Likelihood, res.Roadmap.TotalWeeks)
}

// buildEvidence extracts text from every uploaded document and assembles the
// prompt input, truncating each document to its budget.
func (s *Service) buildEvidence(sess *sessdomain.Session) (domain.Evidence, error) {
	ev := domain.Evidence{
		Field:     string(sess.Field),
		FieldName: sess.Field.DisplayName(),
		Answers:   sess.Answers,
	}
	for _, ref := range sess.Documents {
		text, err := s.Extractor.Extract(ref.Path)
		if err != nil {
			return ev, fmt.Errorf("%w: extracting %s: %v", domain.ErrUpstream, ref.Filename, err)
		}
		switch ref.Kind {
		case sessdomain.DocCV:
			ev.CV = &domain.Document{Filename: ref.Filename, Text: truncate(text, cvTextBudget)}
		case sessdomain.DocLetter:
			ev.Letters = append(ev.Letters, domain.Document{Filename: ref.Filename, Text: truncate(text, letterTextBudget)})
		default:
			ev.Portfolio = append(ev.Portfolio, domain.Document{Filename: ref.Filename, Text: truncate(text, portfolioTextBudget)})
		}
	}
	return ev, nil
}

// assess makes the LLM call with a bounded timeout per attempt. Retries are
// an explicit, configured decision and apply to transport failures only; a
// reply that arrives but fails schema validation is never retried.
func (s *Service) assess(ctx context.Context, ev domain.Evidence) (string, error) {
	attempts := s.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, s.Timeout)
		raw, err := s.Client.Assess(callCtx, ev)
		cancel()
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if attempt < attempts {
			log.Printf("analysis attempt %d/%d failed: %v", attempt, attempts, err)
			time.Sleep(s.RetryBackoff)
		}
	}
	return "", fmt.Errorf("%w: %v", domain.ErrUpstream, lastErr)
}

// fail terminates the session in error state with a stored diagnostic and
// writes the error AnalysisRecord. Upstream failures are captured, never
// propagated to the poller as anything but status=error.
func (s *Service) fail(ctx context.Context, sess *sessdomain.Session, cause error) {
	log.Printf("analysis failed session=%s: %v", sess.ID, cause)
	completedAt := s.Clock.Now().UTC()

	_, err := s.Sessions.Update(ctx, sess.ID, func(cur *sessdomain.Session) error {
		cur.Status = sessdomain.StatusError
		cur.ErrorMessage = cause.Error()
		cur.CompletedAt = &completedAt
		return nil
	})
	if err != nil && !errors.Is(err, sessdomain.ErrNotFound) {
		log.Printf("analysis failure update failed session=%s: %v", sess.ID, err)
	}

	rec := domain.NewErrorRecord(
		domain.RecordID(uuid.New().String()),
		string(sess.ID), string(sess.Field),
		cause.Error(), len(sess.Documents),
		sess.CreatedAt, completedAt,
	)
	if err := s.Records.Save(ctx, rec); err != nil {
		log.Printf("error record save failed session=%s: %v", sess.ID, err)
	}
}

// uploadArtifact writes the full result JSON next to the session uploads and
// pushes it to object storage. Artifact storage is supplemental: a failure
// here downgrades to a logged warning, not an error status.
func (s *Service) uploadArtifact(ctx context.Context, id sessdomain.SessionID, res *domain.Result) string {
	if s.Artifacts == nil {
		return ""
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		log.Printf("artifact marshal failed session=%s: %v", id, err)
		return ""
	}
	tmp := filepath.Join(os.TempDir(), fmt.Sprintf("%s_results.json", id))
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		log.Printf("artifact write failed session=%s: %v", id, err)
		return ""
	}
	key := fmt.Sprintf("%s/results.json", id)
	url, err := s.Artifacts.UploadAndCleanup(ctx, tmp, key)
	if err != nil {
		os.Remove(tmp)
		log.Printf("artifact upload failed session=%s: %v", id, err)
		return ""
	}
	return url
}

// truncate shortens s to max bytes without splitting UTF-8 runes.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
