package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/audioforge/audioforge/pkg/convert"
	"github.com/audioforge/audioforge/pkg/logging"
	"github.com/audioforge/audioforge/pkg/store"
	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeConverter struct {
	url     string
	err     error
	gotReq  convert.Request
	gotBody []byte
}

func (f *fakeConverter) Convert(_ context.Context, req convert.Request) (string, error) {
	f.gotReq = req
	if req.Body != nil {
		f.gotBody, _ = io.ReadAll(req.Body)
	}
	return f.url, f.err
}

type fakeUserStore struct {
	user *store.User
	err  error
}

func (f *fakeUserStore) CreateUser(_ context.Context, username string) (*store.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u := *f.user
	u.Username = username
	return &u, nil
}

type fakeFileStore struct {
	rec *store.FileRecord
	err error
}

func (f *fakeFileStore) GetFileByUser(_ context.Context, userID, recordID int64) (*store.FileRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.rec == nil || f.rec.UserID != userID || f.rec.ID != recordID {
		return nil, store.ErrNotFound
	}
	return f.rec, nil
}

type serverFixture struct {
	fs        afero.Fs
	converter *fakeConverter
	users     *fakeUserStore
	files     *fakeFileStore
	router    *gin.Engine
}

func newFixture(t *testing.T) *serverFixture {
	t.Helper()
	f := &serverFixture{
		fs:        afero.NewMemMapFs(),
		converter: &fakeConverter{},
		users:     &fakeUserStore{user: &store.User{ID: 1, UUID: "abc"}},
		files:     &fakeFileStore{},
	}
	srv := NewServer(f.fs, f.converter, f.users, f.files, logging.NewTestLogger())
	f.router = srv.Router()
	return f
}

func multipartBody(t *testing.T, fieldName, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(fieldName, fileName)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestConvertFileSuccess(t *testing.T) {
	f := newFixture(t)
	f.converter.url = "http://127.0.0.1:8080/files.record?record_id=42&user_id=1"

	content := bytes.Repeat([]byte{0x52}, 2048)
	body, contentType := multipartBody(t, "file", "sample.wav", content)
	req := httptest.NewRequest(http.MethodPost, "/files.convert", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("user_id", "1")
	req.Header.Set("user_uuid", "abc")

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, f.converter.url, resp.URL)
	assert.Equal(t, int64(1), f.converter.gotReq.UserID)
	assert.Equal(t, "abc", f.converter.gotReq.UserUUID)
	assert.Equal(t, "sample.wav", f.converter.gotReq.Filename)
	assert.Equal(t, content, f.converter.gotBody)
}

func TestConvertFileInvalidHeaders(t *testing.T) {
	f := newFixture(t)

	body, contentType := multipartBody(t, "file", "sample.wav", []byte("data"))
	req := httptest.NewRequest(http.MethodPost, "/files.convert", body)
	req.Header.Set("Content-Type", contentType)
	// user_id missing entirely, user_uuid blank
	req.Header.Set("user_uuid", "  ")

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "bad request", resp.Status)
	assert.Equal(t, "Unprocessable Entity", resp.Message)
	detail, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, detail, "user_id")
	assert.Contains(t, detail, "user_uuid")
}

func TestConvertFileMissingFilePart(t *testing.T) {
	f := newFixture(t)

	// multipart body with a plain field instead of a file
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("note", "no file here"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/files.convert", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("user_id", "1")
	req.Header.Set("user_uuid", "abc")

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "File is required.", decodeResponse(t, w).Message)
}

func TestConvertFileNoMultipartBody(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/files.convert", nil)
	req.Header.Set("user_id", "1")
	req.Header.Set("user_uuid", "abc")

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "File is required.", decodeResponse(t, w).Message)
}

func TestConvertFileUserNotFound(t *testing.T) {
	f := newFixture(t)
	f.converter.err = store.ErrNotFound

	body, contentType := multipartBody(t, "file", "sample.wav", []byte("data"))
	req := httptest.NewRequest(http.MethodPost, "/files.convert", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("user_id", "99")
	req.Header.Set("user_uuid", "ghost")

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", decodeResponse(t, w).Message)
}

func TestConvertFileEncoderFailure(t *testing.T) {
	f := newFixture(t)
	f.converter.err = &convert.EncodeError{ExitCode: 1, Stderr: "invalid data"}

	body, contentType := multipartBody(t, "file", "broken.wav", []byte("junk"))
	req := httptest.NewRequest(http.MethodPost, "/files.convert", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("user_id", "1")
	req.Header.Set("user_uuid", "abc")

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "Invalid file. Failed to convert file to mp3 format.", resp.Message)
	// no url on a failed conversion, and no stderr leak
	assert.Empty(t, resp.URL)
	assert.NotContains(t, w.Body.String(), "invalid data")
}

func TestConvertFileInfrastructureFailure(t *testing.T) {
	f := newFixture(t)
	f.converter.err = errors.New("disk full")

	body, contentType := multipartBody(t, "file", "sample.wav", []byte("data"))
	req := httptest.NewRequest(http.MethodPost, "/files.convert", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("user_id", "1")
	req.Header.Set("user_uuid", "abc")

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "disk full")
}

func TestDownloadFileSuccess(t *testing.T) {
	f := newFixture(t)
	content := bytes.Repeat([]byte{0xF0}, 4096)
	require.NoError(t, afero.WriteFile(f.fs, "/media/2026/Aug/29/10/00/00/sample.mp3", content, 0o644))
	f.files.rec = &store.FileRecord{
		ID:       42,
		UserID:   1,
		FilePath: "/media/2026/Aug/29/10/00/00/sample.mp3",
		Filename: "sample",
	}

	req := httptest.NewRequest(http.MethodGet, "/files.record?record_id=42&user_id=1", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, content, w.Body.Bytes())
	assert.Equal(t, "attachment; filename=sample", w.Header().Get("Content-Disposition"))
}

func TestDownloadFileWrongOwner(t *testing.T) {
	f := newFixture(t)
	f.files.rec = &store.FileRecord{ID: 42, UserID: 1, FilePath: "/media/x.mp3", Filename: "x"}

	req := httptest.NewRequest(http.MethodGet, "/files.record?record_id=42&user_id=2", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User or required mp3 file not found", decodeResponse(t, w).Message)
}

func TestDownloadFileUnknownRecord(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/files.record?record_id=999&user_id=1", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDownloadFileInvalidQuery(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/files.record?record_id=abc", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	detail, ok := decodeResponse(t, w).Data.(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, detail, "record_id")
	assert.Contains(t, detail, "user_id")
}

func TestCreateUserSuccess(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/users.create",
		bytes.NewBufferString(`{"username":"alice"}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "alice", data["username"])
	assert.Equal(t, "abc", data["uuid"])
	assert.EqualValues(t, 1, data["id"])
}

func TestCreateUserBlankUsername(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/users.create",
		bytes.NewBufferString(`{"username":"   "}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	detail, ok := decodeResponse(t, w).Data.(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, detail, "username")
}

func TestCreateUserMalformedBody(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/users.create",
		bytes.NewBufferString(`{"username":`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
