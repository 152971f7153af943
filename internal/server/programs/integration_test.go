package programs_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/audioapi/internal/common"
	"github.com/dmitrijs2005/audioapi/internal/dynamostore"
	"github.com/dmitrijs2005/audioapi/internal/localstacktest"
	"github.com/dmitrijs2005/audioapi/internal/logging"
	"github.com/dmitrijs2005/audioapi/internal/s3store"
	"github.com/dmitrijs2005/audioapi/internal/server/programs"
)

// The integration suite runs the service against real adapters backed by a
// LocalStack container. Enable with AUDIOAPI_INTEGRATION=1.
func TestIntegration(t *testing.T) {
	if os.Getenv("AUDIOAPI_INTEGRATION") != "1" {
		t.Skip("set AUDIOAPI_INTEGRATION=1 to run integration tests")
	}

	ctx := context.Background()

	inst, err := localstacktest.Start(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = inst.Terminate(context.Background()) })

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	files, err := s3store.NewRepository(inst.S3, s3store.ResourceRadioPrograms, inst.Endpoint, log)
	require.NoError(t, err)
	repo, err := dynamostore.NewRepository(inst.DynamoDB, dynamostore.ModelRadioPrograms, log)
	require.NoError(t, err)

	svc := programs.NewService(repo, files, log)

	reset := func(t *testing.T) {
		t.Helper()
		require.NoError(t, repo.DeleteAll(ctx))
		require.NoError(t, files.DeleteAll(ctx))
	}

	create := func(t *testing.T, title string, size int) *programs.Program {
		t.Helper()
		p, err := svc.Create(ctx, &programs.ProgramCreate{Title: title}, bytes.NewBuffer(make([]byte, size)), int64(size))
		require.NoError(t, err)
		return p
	}

	t.Run("create and read back", func(t *testing.T) {
		reset(t)

		created := create(t, "Shopping 2.0 #1", 100)

		require.NoError(t, uuid.Validate(created.ID))
		assert.Equal(t, "Shopping 2.0 #1", created.Title)
		require.NotNil(t, created.RadioProgram)
		assert.Regexp(t, `_Shopping 2\.0 #1\.mp3$`, created.RadioProgram.FileName)

		got, err := svc.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, got)

		body, err := files.Get(ctx, created.RadioProgram.FileName)
		require.NoError(t, err)
		defer body.Close()
		data, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Len(t, data, 100)
	})

	t.Run("identifiers are unique across creates", func(t *testing.T) {
		reset(t)

		a := create(t, "a", 10)
		b := create(t, "b", 10)
		assert.NotEqual(t, a.ID, b.ID)

		all, err := svc.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("get of unknown id fails", func(t *testing.T) {
		reset(t)

		_, err := svc.Get(ctx, uuid.NewString())
		assert.ErrorIs(t, err, common.ErrItemNotFound)
	})

	t.Run("update and delete of unknown id never create records", func(t *testing.T) {
		reset(t)

		title := "x"
		_, err := svc.Update(ctx, uuid.NewString(), &programs.ProgramUpdate{Title: &title}, nil, 0)
		assert.ErrorIs(t, err, common.ErrItemNotFound)

		err = svc.Delete(ctx, uuid.NewString())
		assert.ErrorIs(t, err, common.ErrItemNotFound)

		all, err := svc.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("partial update leaves other fields unchanged", func(t *testing.T) {
		reset(t)

		desc := "description"
		created, err := svc.Create(ctx,
			&programs.ProgramCreate{Title: "Old Title", Description: &desc},
			bytes.NewBuffer(make([]byte, 50)), 50)
		require.NoError(t, err)

		title := "New Title"
		updated, err := svc.Update(ctx, created.ID, &programs.ProgramUpdate{Title: &title}, nil, 0)
		require.NoError(t, err)

		assert.Equal(t, "New Title", updated.Title)
		require.NotNil(t, updated.Description)
		assert.Equal(t, desc, *updated.Description)
		require.NotNil(t, updated.RadioProgram)
		assert.Equal(t, created.RadioProgram.FileName, updated.RadioProgram.FileName)
		assert.Equal(t, created.RadioProgram.ProgramLength, updated.RadioProgram.ProgramLength)
	})

	t.Run("update with file replaces the stored object", func(t *testing.T) {
		reset(t)

		created := create(t, "t", 50)
		oldName := created.RadioProgram.FileName

		updated, err := svc.Update(ctx, created.ID, &programs.ProgramUpdate{},
			bytes.NewBuffer(make([]byte, 70)), 70)
		require.NoError(t, err)

		assert.NotEqual(t, oldName, updated.RadioProgram.FileName)

		_, err = files.Get(ctx, oldName)
		assert.ErrorIs(t, err, common.ErrFileNotFound)

		body, err := files.Get(ctx, updated.RadioProgram.FileName)
		require.NoError(t, err)
		defer body.Close()
		data, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Len(t, data, 70)
	})

	t.Run("create compensation removes the uploaded file", func(t *testing.T) {
		reset(t)

		// A broken repository makes the metadata write fail after the
		// upload succeeded.
		failing := &failingRepo{Repository: repo}
		brokenSvc := programs.NewService(failing, files, log)

		_, err := brokenSvc.Create(ctx, &programs.ProgramCreate{Title: "t"},
			bytes.NewBuffer(make([]byte, 10)), 10)
		assert.ErrorIs(t, err, errPutRefused)

		stored, err := files.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, stored, "compensation must remove the uploaded file")
	})

	t.Run("delete succeeds and removes record and file", func(t *testing.T) {
		reset(t)

		created := create(t, "t", 10)
		require.NoError(t, svc.Delete(ctx, created.ID))

		_, err := svc.Get(ctx, created.ID)
		assert.ErrorIs(t, err, common.ErrItemNotFound)

		_, err = files.Get(ctx, created.RadioProgram.FileName)
		assert.ErrorIs(t, err, common.ErrFileNotFound)
	})
}

var errPutRefused = errors.New("put refused")

// failingRepo delegates to a real repository but refuses writes.
type failingRepo struct {
	*dynamostore.Repository
}

func (f *failingRepo) Put(ctx context.Context, create *programs.ProgramCreate) (*programs.Program, error) {
	return nil, errPutRefused
}
