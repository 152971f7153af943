package programs

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/audioapi/internal/common"
	"github.com/dmitrijs2005/audioapi/internal/logging"
)

// timeNow is a seam for tests that assert on generated file names.
var timeNow = time.Now

// Service sequences the metadata store and the object store into CRUD
// operations on a program-with-file. A program "exists" when its metadata
// record exists, regardless of whether the referenced object resolves.
// When the second of two writes fails, the service deletes the object it
// just uploaded on a best-effort basis; cleanup failures are logged and
// swallowed so they never mask the original error. Orphaned objects are
// therefore possible; no reconciliation job exists.
type Service struct {
	repo  Repository
	files FileStore
	log   logging.Logger
}

// NewService builds a Service. Both stores are injected; there is no
// package-level state.
func NewService(repo Repository, files FileStore, log logging.Logger) *Service {
	return &Service{repo: repo, files: files, log: log}
}

// Get returns the program with the given id.
func (s *Service) Get(ctx context.Context, id string) (*Program, error) {
	return s.repo.Get(ctx, id)
}

// GetAll returns every stored program.
func (s *Service) GetAll(ctx context.Context) ([]*Program, error) {
	return s.repo.GetAll(ctx)
}

// fileKey builds an object key for an upload: a second-granularity
// timestamp, a random component, and the program title, suffixed ".mp3".
// The random component keeps two uploads of the same title within the same
// second from colliding, and a deleted key is never generated again, so a
// late compensation delete cannot remove a newer file.
func fileKey(title string) (string, error) {
	suffix, err := common.MakeRandHexString(4)
	if err != nil {
		return "", fmt.Errorf("generating file key: %w", err)
	}
	ts := timeNow().Format("2006-01-02_15-04-05")
	return fmt.Sprintf("%s_%s_%s.mp3", ts, suffix, title), nil
}

// uploadFile stores the program file under a fresh key and returns the
// resulting file reference.
func (s *Service) uploadFile(ctx context.Context, title string, body io.Reader, size int64) (*ProgramFile, error) {
	key, err := fileKey(title)
	if err != nil {
		return nil, err
	}

	stored, err := s.files.Put(ctx, key, body)
	if err != nil {
		return nil, err
	}

	file := &ProgramFile{FileName: stored.Name, FileURL: stored.URL}
	if size > 0 {
		file.ProgramLength = &size
	}
	return file, nil
}

// cleanupFile deletes an uploaded object on a best-effort basis. Failures
// are logged and discarded.
func (s *Service) cleanupFile(ctx context.Context, name string) {
	if err := s.files.Delete(ctx, name); err != nil {
		s.log.Warn(ctx, "failed to clean up program file, leaving orphan", "file_name", name, "error", err)
	}
}

// Create uploads the program file and then stores the metadata record with
// the file reference embedded. If the metadata write fails, the uploaded
// file is deleted before the error is returned.
func (s *Service) Create(ctx context.Context, in *ProgramCreate, file io.Reader, size int64) (*Program, error) {
	uploaded, err := s.uploadFile(ctx, in.Title, file, size)
	if err != nil {
		return nil, err
	}

	create := *in
	create.RadioProgram = uploaded

	program, err := s.repo.Put(ctx, &create)
	if err != nil {
		s.cleanupFile(ctx, uploaded.FileName)
		return nil, err
	}

	return program, nil
}

// Update applies a sparse update to an existing program. When a new file is
// supplied it is uploaded under a fresh key and replaces the prior file
// reference; the prior object is deleted only after the metadata update
// succeeds. file may be nil for metadata-only updates.
func (s *Service) Update(ctx context.Context, id string, in *ProgramUpdate, file io.Reader, size int64) (*Program, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	update := *in
	var uploaded *ProgramFile
	if file != nil {
		title := existing.Title
		if in.Title != nil {
			title = *in.Title
		}
		uploaded, err = s.uploadFile(ctx, title, file, size)
		if err != nil {
			return nil, err
		}
		update.RadioProgram = uploaded
	}

	updated, err := s.repo.Update(ctx, id, &update)
	if err != nil {
		if uploaded != nil {
			s.cleanupFile(ctx, uploaded.FileName)
		}
		return nil, err
	}

	if uploaded != nil && existing.RadioProgram != nil {
		s.cleanupFile(ctx, existing.RadioProgram.FileName)
	}

	return updated, nil
}

// Delete removes the metadata record and then the referenced object. The
// operation succeeds once the record is gone; the file delete is advisory.
func (s *Service) Delete(ctx context.Context, id string) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if existing.RadioProgram != nil {
		s.cleanupFile(ctx, existing.RadioProgram.FileName)
	}

	return nil
}
