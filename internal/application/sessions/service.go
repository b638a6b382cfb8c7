package sessions

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/talentlens/talentlens/internal/application"
	"github.com/talentlens/talentlens/internal/domain/erasure"
	"github.com/talentlens/talentlens/internal/domain/questionnaire"
	domain "github.com/talentlens/talentlens/internal/domain/sessions"
)

// Service implements the session lifecycle use-cases: create, status reads,
// questionnaire submission, deletion, GDPR erasure, and the retention sweep.
type Service struct {
	Store     domain.Store
	Audits    erasure.Repository
	UploadDir string
	Clock     application.Clock
}

// Create initializes a pending session and its upload directory.
func (s *Service) Create(ctx context.Context, field domain.Field) (*domain.Session, error) {
	sess, err := s.Store.Create(ctx, field)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.sessionDir(sess.ID), 0o755); err != nil {
		_ = s.Store.Delete(ctx, sess.ID)
		return nil, fmt.Errorf("creating session directory: %w", err)
	}
	return sess, nil
}

// Get returns a copy of the session.
func (s *Service) Get(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	return s.Store.Get(ctx, id)
}

// SubmitQuestionnaire validates and stores the answers. Validation runs
// inside the store's critical section so the field read and the answer write
// cannot interleave with a status transition.
func (s *Service) SubmitQuestionnaire(ctx context.Context, id domain.SessionID, answers map[string]any) (*domain.Session, error) {
	return s.Store.Update(ctx, id, func(sess *domain.Session) error {
		if err := questionnaire.Validate(sess.Field, answers); err != nil {
			return err
		}
		sess.Answers = answers
		return nil
	})
}

// Delete removes the session and its uploaded files. Idempotent: deleting an
// unknown session is a no-op, and the file cleanup runs either way.
func (s *Service) Delete(ctx context.Context, id domain.SessionID) error {
	if err := os.RemoveAll(s.sessionDir(id)); err != nil {
		return fmt.Errorf("removing session files: %w", err)
	}
	return s.Store.Delete(ctx, id)
}

// Erase is the GDPR right-to-erasure flow: it requires the session to exist,
// removes everything Delete removes, and writes an audit row that survives
// the session.
func (s *Service) Erase(ctx context.Context, id domain.SessionID) (*erasure.Audit, error) {
	sess, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	audit := &erasure.Audit{
		SessionID:   string(id),
		RequestedAt: s.Clock.Now().UTC(),
	}
	for _, d := range sess.Documents {
		audit.DocumentsDeleted = append(audit.DocumentsDeleted, d.Filename)
	}
	audit.ResultDeleted = sess.Result != nil

	if err := s.Delete(ctx, id); err != nil {
		audit.Status = erasure.StatusFailed
		audit.Error = err.Error()
		audit.CompletedAt = s.Clock.Now().UTC()
		if saveErr := s.Audits.Save(ctx, audit); saveErr != nil {
			log.Printf("erasure audit save failed for session=%s: %v", id, saveErr)
		}
		return nil, err
	}

	audit.Status = erasure.StatusCompleted
	audit.CompletedAt = s.Clock.Now().UTC()
	if err := s.Audits.Save(ctx, audit); err != nil {
		// Data is gone; a missing audit row must not resurrect the request.
		log.Printf("erasure audit save failed for session=%s: %v", id, err)
	}
	return audit, nil
}

// DeletionStatus reports whether a session is still live, erased (with its
// audit row), or unknown.
func (s *Service) DeletionStatus(ctx context.Context, id domain.SessionID) (string, *erasure.Audit, error) {
	if _, err := s.Store.Get(ctx, id); err == nil {
		return "active", nil, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return "", nil, err
	}
	audit, err := s.Audits.Latest(ctx, string(id))
	if err != nil {
		return "", nil, err
	}
	if audit == nil {
		return "not_found", nil, nil
	}
	return "deleted", audit, nil
}

// StartSweeper runs the retention sweep until ctx is cancelled, deleting
// sessions older than ttl together with their files.
func (s *Service) StartSweeper(ctx context.Context, interval, ttl time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx, ttl)
			}
		}
	}()
}

func (s *Service) sweep(ctx context.Context, ttl time.Duration) {
	all, err := s.Store.List(ctx)
	if err != nil {
		log.Printf("retention sweep list error: %v", err)
		return
	}
	cutoff := s.Clock.Now().Add(-ttl)
	for _, sess := range all {
		if sess.CreatedAt.Before(cutoff) {
			if err := s.Delete(ctx, sess.ID); err != nil {
				log.Printf("retention sweep delete error session=%s: %v", sess.ID, err)
			} else {
				log.Printf("retention sweep removed session=%s age=%s", sess.ID, s.Clock.Now().Sub(sess.CreatedAt))
			}
		}
	}
}

func (s *Service) sessionDir(id domain.SessionID) string {
	return filepath.Join(s.UploadDir, string(id))
}
