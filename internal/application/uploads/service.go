package uploads

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/talentlens/talentlens/internal/application"
	domain "github.com/talentlens/talentlens/internal/domain/sessions"
)

// Per-session document policy: one CV, up to three recommendation letters,
// portfolio items capped by config (the endorsement allows up to 10 pieces).
const (
	maxCVs     = 1
	maxLetters = 3
)

// File is one incoming multipart part.
type File struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

// Service validates and persists evidence uploads as opaque blobs under a
// per-session directory, then appends references to the session.
type Service struct {
	Sessions     domain.Store
	Dir          string
	MaxPortfolio int
	Clock        application.Clock
}

// Store accepts one or more files for a session. The whole batch is validated
// against the session's current documents before anything is written; a
// rejected batch leaves the session's reference list untouched.
func (s *Service) Store(ctx context.Context, id domain.SessionID, files []File) ([]domain.DocumentRef, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files supplied")
	}

	sess, err := s.Sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Status.Terminal() {
		return nil, domain.ErrInvalidState
	}

	counts := map[domain.DocKind]int{
		domain.DocCV:        sess.CountByKind(domain.DocCV),
		domain.DocLetter:    sess.CountByKind(domain.DocLetter),
		domain.DocPortfolio: sess.CountByKind(domain.DocPortfolio),
	}
	kinds := make([]domain.DocKind, len(files))
	for i, f := range files {
		if !allowedExt(f.Filename) {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, f.Filename)
		}
		kind := Classify(f.Filename)
		counts[kind]++
		if err := checkCap(kind, counts[kind], s.MaxPortfolio); err != nil {
			return nil, err
		}
		kinds[i] = kind
	}

	dir := filepath.Join(s.Dir, string(id))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating session directory: %w", err)
	}

	refs := make([]domain.DocumentRef, 0, len(files))
	for i, f := range files {
		name := filepath.Base(f.Filename)
		// Unique blob name per upload: a repeated filename must not overwrite
		// an earlier blob, and a failed-batch rollback must not touch it.
		path := filepath.Join(dir, uuid.New().String()[:8]+"_"+name)
		size, err := writeFile(path, f.Content)
		if err != nil {
			removeAll(refs)
			return nil, fmt.Errorf("saving file %s: %w", name, err)
		}
		refs = append(refs, domain.DocumentRef{
			Kind:        kinds[i],
			Filename:    name,
			Path:        path,
			Size:        size,
			ContentType: f.ContentType,
			UploadedAt:  s.Clock.Now().UTC(),
		})
	}

	// Re-check the caps inside the critical section: another upload may have
	// landed between the read above and this write.
	_, err = s.Sessions.Update(ctx, id, func(sess *domain.Session) error {
		for _, ref := range refs {
			n := sess.CountByKind(ref.Kind) + 1
			if err := checkCap(ref.Kind, n, s.MaxPortfolio); err != nil {
				return err
			}
			sess.Documents = append(sess.Documents, ref)
		}
		return nil
	})
	if err != nil {
		removeAll(refs)
		return nil, err
	}
	return refs, nil
}

// Classify maps a filename to its document kind the way the wizard names
// files: anything mentioning cv/resume is the CV, letters and references are
// recommendation letters, everything else is portfolio evidence.
func Classify(filename string) domain.DocKind {
	name := strings.ToLower(filepath.Base(filename))
	switch {
	case strings.Contains(name, "cv") || strings.Contains(name, "resume"):
		return domain.DocCV
	case strings.Contains(name, "letter") || strings.Contains(name, "recommendation") || strings.Contains(name, "reference"):
		return domain.DocLetter
	default:
		return domain.DocPortfolio
	}
}

func allowedExt(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf", ".docx":
		return true
	}
	return false
}

func checkCap(kind domain.DocKind, n, maxPortfolio int) error {
	switch kind {
	case domain.DocCV:
		if n > maxCVs {
			return fmt.Errorf("%w: only %d CV allowed", domain.ErrTooManyFiles, maxCVs)
		}
	case domain.DocLetter:
		if n > maxLetters {
			return fmt.Errorf("%w: at most %d recommendation letters", domain.ErrTooManyFiles, maxLetters)
		}
	case domain.DocPortfolio:
		if maxPortfolio > 0 && n > maxPortfolio {
			return fmt.Errorf("%w: at most %d portfolio items", domain.ErrTooManyFiles, maxPortfolio)
		}
	}
	return nil
}

func writeFile(path string, r io.Reader) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return io.Copy(f, r)
}

func removeAll(refs []domain.DocumentRef) {
	for _, ref := range refs {
		os.Remove(ref.Path)
	}
}
