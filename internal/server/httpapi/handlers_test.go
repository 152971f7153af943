package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/audioapi/internal/common"
	"github.com/dmitrijs2005/audioapi/internal/logging"
	"github.com/dmitrijs2005/audioapi/internal/server/programs"
)

type fakeService struct {
	getFunc    func(ctx context.Context, id string) (*programs.Program, error)
	getAllFunc func(ctx context.Context) ([]*programs.Program, error)
	createFunc func(ctx context.Context, in *programs.ProgramCreate, file io.Reader, size int64) (*programs.Program, error)
	updateFunc func(ctx context.Context, id string, in *programs.ProgramUpdate, file io.Reader, size int64) (*programs.Program, error)
	deleteFunc func(ctx context.Context, id string) error
}

func (f *fakeService) Get(ctx context.Context, id string) (*programs.Program, error) {
	return f.getFunc(ctx, id)
}

func (f *fakeService) GetAll(ctx context.Context) ([]*programs.Program, error) {
	return f.getAllFunc(ctx)
}

func (f *fakeService) Create(ctx context.Context, in *programs.ProgramCreate, file io.Reader, size int64) (*programs.Program, error) {
	return f.createFunc(ctx, in, file, size)
}

func (f *fakeService) Update(ctx context.Context, id string, in *programs.ProgramUpdate, file io.Reader, size int64) (*programs.Program, error) {
	return f.updateFunc(ctx, id, in, file, size)
}

func (f *fakeService) Delete(ctx context.Context, id string) error {
	return f.deleteFunc(ctx, id)
}

func testRouter(svc ProgramService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewRouter(NewHandler(svc, "test", log))
}

const testID = "3f1e9a52-6f2f-4a37-9b6e-0f1f6f1f9a52"

// multipartBody builds a multipart form with the given fields and,
// when fileSize >= 0, a program_file part of that many bytes.
func multipartBody(t *testing.T, fields map[string]string, fileSize int) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileSize >= 0 {
		part, err := w.CreateFormFile("program_file", "upload.mp3")
		require.NoError(t, err)
		_, err = part.Write(make([]byte, fileSize))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func doRequest(r *gin.Engine, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestGetVersion(t *testing.T) {
	r := testRouter(&fakeService{})
	rec := doRequest(r, http.MethodGet, "/version", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"version":"test"}`, rec.Body.String())
}

func TestCreateProgram(t *testing.T) {
	length := int64(100)
	svc := &fakeService{
		createFunc: func(ctx context.Context, in *programs.ProgramCreate, file io.Reader, size int64) (*programs.Program, error) {
			data, err := io.ReadAll(file)
			require.NoError(t, err)
			assert.Len(t, data, 100)
			assert.Equal(t, int64(100), size)
			return &programs.Program{
				ID:    testID,
				Title: in.Title,
				RadioProgram: &programs.ProgramFile{
					FileName:      "2023-04-05_06-07-08_deadbeef_" + in.Title + ".mp3",
					FileURL:       "http://localhost:4566/radio-programs/2023-04-05_06-07-08_deadbeef_" + in.Title + ".mp3",
					ProgramLength: &length,
				},
			}, nil
		},
	}
	r := testRouter(svc)

	body, contentType := multipartBody(t, map[string]string{"title": "Shopping 2.0 #1"}, 100)
	rec := doRequest(r, http.MethodPost, "/api/v1/programs", body, contentType)

	require.Equal(t, http.StatusCreated, rec.Code)

	var got programs.Program
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, testID, got.ID)
	assert.Equal(t, "Shopping 2.0 #1", got.Title)
	require.NotNil(t, got.RadioProgram)
	assert.Regexp(t, `_Shopping 2\.0 #1\.mp3$`, got.RadioProgram.FileName)
}

func TestCreateProgram_Validation(t *testing.T) {
	r := testRouter(&fakeService{
		createFunc: func(ctx context.Context, in *programs.ProgramCreate, file io.Reader, size int64) (*programs.Program, error) {
			t.Fatal("service must not be called for an invalid request")
			return nil, nil
		},
	})

	tests := []struct {
		name     string
		fields   map[string]string
		fileSize int
	}{
		{"missing title", map[string]string{"description": "d"}, 100},
		{"missing file part", map[string]string{"title": "t"}, -1},
		{"malformed air date", map[string]string{"title": "t", "air_date": "05.04.2023"}, 100},
		{"malformed playlist url", map[string]string{"title": "t", "spotify_playlist": "not a url"}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartBody(t, tt.fields, tt.fileSize)
			rec := doRequest(r, http.MethodPost, "/api/v1/programs", body, contentType)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		})
	}
}

func TestCreateProgram_StorageFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"object store persistence", fmt.Errorf("%w: put failed", common.ErrPersistence)},
		{"object store transport", fmt.Errorf("%w: dial", common.ErrS3Client)},
		{"metadata transport", fmt.Errorf("%w: dial", common.ErrDBClient)},
		{"metadata status", fmt.Errorf("%w: throttled", common.ErrDBStatus)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testRouter(&fakeService{
				createFunc: func(ctx context.Context, in *programs.ProgramCreate, file io.Reader, size int64) (*programs.Program, error) {
					return nil, tt.err
				},
			})

			body, contentType := multipartBody(t, map[string]string{"title": "t"}, 10)
			rec := doRequest(r, http.MethodPost, "/api/v1/programs", body, contentType)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.JSONEq(t, `{"detail":"internal server error"}`, rec.Body.String())
		})
	}
}

func TestGetProgram(t *testing.T) {
	svc := &fakeService{
		getFunc: func(ctx context.Context, id string) (*programs.Program, error) {
			assert.Equal(t, testID, id)
			return &programs.Program{ID: id, Title: "t"}, nil
		},
	}
	r := testRouter(svc)

	rec := doRequest(r, http.MethodGet, "/api/v1/programs/"+testID, nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	var got programs.Program
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, testID, got.ID)
}

func TestGetProgram_NotFound(t *testing.T) {
	r := testRouter(&fakeService{
		getFunc: func(ctx context.Context, id string) (*programs.Program, error) {
			return nil, fmt.Errorf("%w: %s", common.ErrItemNotFound, id)
		},
	})

	rec := doRequest(r, http.MethodGet, "/api/v1/programs/"+testID, nil, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"program not found"}`, rec.Body.String())
}

func TestGetProgram_InvalidID(t *testing.T) {
	r := testRouter(&fakeService{
		getFunc: func(ctx context.Context, id string) (*programs.Program, error) {
			t.Fatal("service must not be called for a malformed id")
			return nil, nil
		},
	})

	rec := doRequest(r, http.MethodGet, "/api/v1/programs/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestListPrograms(t *testing.T) {
	r := testRouter(&fakeService{
		getAllFunc: func(ctx context.Context) ([]*programs.Program, error) {
			return []*programs.Program{{ID: testID, Title: "t"}}, nil
		},
	})

	rec := doRequest(r, http.MethodGet, "/api/v1/programs", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	var got []*programs.Program
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, testID, got[0].ID)
}

func TestListPrograms_Empty(t *testing.T) {
	r := testRouter(&fakeService{
		getAllFunc: func(ctx context.Context) ([]*programs.Program, error) {
			return []*programs.Program{}, nil
		},
	})

	rec := doRequest(r, http.MethodGet, "/api/v1/programs", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestUpdateProgram_MetadataOnly(t *testing.T) {
	svc := &fakeService{
		updateFunc: func(ctx context.Context, id string, in *programs.ProgramUpdate, file io.Reader, size int64) (*programs.Program, error) {
			assert.Equal(t, testID, id)
			require.NotNil(t, in.Title)
			assert.Equal(t, "New Title", *in.Title)
			assert.Nil(t, in.Description)
			assert.Nil(t, file, "no file part means a metadata-only update")
			return &programs.Program{ID: id, Title: *in.Title}, nil
		},
	}
	r := testRouter(svc)

	body, contentType := multipartBody(t, map[string]string{"title": "New Title"}, -1)
	rec := doRequest(r, http.MethodPut, "/api/v1/programs/"+testID, body, contentType)

	require.Equal(t, http.StatusOK, rec.Code)
	var got programs.Program
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "New Title", got.Title)
}

func TestUpdateProgram_WithFile(t *testing.T) {
	svc := &fakeService{
		updateFunc: func(ctx context.Context, id string, in *programs.ProgramUpdate, file io.Reader, size int64) (*programs.Program, error) {
			require.NotNil(t, file)
			assert.Equal(t, int64(120), size)
			return &programs.Program{ID: id}, nil
		},
	}
	r := testRouter(svc)

	body, contentType := multipartBody(t, nil, 120)
	rec := doRequest(r, http.MethodPut, "/api/v1/programs/"+testID, body, contentType)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateProgram_NotFound(t *testing.T) {
	r := testRouter(&fakeService{
		updateFunc: func(ctx context.Context, id string, in *programs.ProgramUpdate, file io.Reader, size int64) (*programs.Program, error) {
			return nil, fmt.Errorf("%w: %s", common.ErrItemNotFound, id)
		},
	})

	body, contentType := multipartBody(t, map[string]string{"title": "x"}, -1)
	rec := doRequest(r, http.MethodPut, "/api/v1/programs/"+testID, body, contentType)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteProgram(t *testing.T) {
	deleted := ""
	r := testRouter(&fakeService{
		deleteFunc: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	})

	rec := doRequest(r, http.MethodDelete, "/api/v1/programs/"+testID, nil, "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, testID, deleted)
	assert.Empty(t, rec.Body.String())
}

func TestDeleteProgram_NotFound(t *testing.T) {
	r := testRouter(&fakeService{
		deleteFunc: func(ctx context.Context, id string) error {
			return fmt.Errorf("%w: %s", common.ErrItemNotFound, id)
		},
	})

	rec := doRequest(r, http.MethodDelete, "/api/v1/programs/"+testID, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
