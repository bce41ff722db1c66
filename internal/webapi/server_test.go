package webapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adforge-ai/internal/creative"
	"adforge-ai/internal/gemini"
	"adforge-ai/internal/project"
)

type fakeCreative struct {
	result  creative.Creative
	genErr  error
	edited  string
	editErr error

	gotRequest     creative.Request
	gotInstruction string
}

func (f *fakeCreative) Generate(_ context.Context, req creative.Request) (creative.Creative, error) {
	f.gotRequest = req
	return f.result, f.genErr
}

func (f *fakeCreative) Edit(_ context.Context, _ gemini.ImageInput, instruction string) (string, error) {
	f.gotInstruction = instruction
	return f.edited, f.editErr
}

func newTestServer(t *testing.T, fc *fakeCreative) (*Server, *project.Store) {
	t.Helper()

	store, err := project.Open(filepath.Join(t.TempDir(), "projects.bolt"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return New(Options{Creative: fc, Projects: store}), store
}

func multipartBody(t *testing.T, files map[string][]byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, data := range files {
		fw, err := w.CreateFormFile(name, name+".png")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	for name, value := range fields {
		require.NoError(t, w.WriteField(name, value))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func doRequest(s *Server, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("content-type", contentType)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleGenerate(t *testing.T) {
	fc := &fakeCreative{result: creative.Creative{
		ImageURL:    "data:image/png;base64,YWQ=",
		Description: "Buy now",
	}}
	s, store := newTestServer(t, fc)

	body, contentType := multipartBody(t,
		map[string][]byte{"images": []byte("fakepng")},
		map[string]string{"context": "bakery", "style": "luxury"},
	)

	rec := doRequest(s, http.MethodPost, "/api/generate", body, contentType)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp generateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ProjectID)
	assert.Equal(t, "data:image/png;base64,YWQ=", resp.Image)
	assert.Equal(t, "Buy now", resp.Description)

	assert.Equal(t, "bakery", fc.gotRequest.Context)
	assert.Equal(t, "luxury", fc.gotRequest.StyleID)
	require.Len(t, fc.gotRequest.Images, 1)

	saved, err := store.Get(resp.ProjectID)
	require.NoError(t, err)
	require.Len(t, saved.Generations, 1)
	assert.Equal(t, "Buy now", saved.Generations[0].Description)
}

func TestHandleGenerate_AppendsToExistingProject(t *testing.T) {
	fc := &fakeCreative{result: creative.Creative{ImageURL: "data:image/png;base64,YQ==", Description: "d"}}
	s, store := newTestServer(t, fc)

	body, contentType := multipartBody(t, map[string][]byte{"images": []byte("img")}, nil)
	rec := doRequest(s, http.MethodPost, "/api/generate", body, contentType)
	require.Equal(t, http.StatusOK, rec.Code)

	var first generateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))

	body, contentType = multipartBody(t,
		map[string][]byte{"images": []byte("img")},
		map[string]string{"project_id": first.ProjectID},
	)
	rec = doRequest(s, http.MethodPost, "/api/generate", body, contentType)
	require.Equal(t, http.StatusOK, rec.Code)

	saved, err := store.Get(first.ProjectID)
	require.NoError(t, err)
	assert.Len(t, saved.Generations, 2)
}

func TestHandleGenerate_Errors(t *testing.T) {
	t.Run("missing image", func(t *testing.T) {
		s, _ := newTestServer(t, &fakeCreative{})
		body, contentType := multipartBody(t, nil, map[string]string{"context": "x"})
		rec := doRequest(s, http.MethodPost, "/api/generate", body, contentType)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("generation failure", func(t *testing.T) {
		s, _ := newTestServer(t, &fakeCreative{genErr: errors.New("boom")})
		body, contentType := multipartBody(t, map[string][]byte{"images": []byte("img")}, nil)
		rec := doRequest(s, http.MethodPost, "/api/generate", body, contentType)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("not multipart", func(t *testing.T) {
		s, _ := newTestServer(t, &fakeCreative{})
		rec := doRequest(s, http.MethodPost, "/api/generate", bytes.NewBufferString("junk"), "text/plain")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleEdit(t *testing.T) {
	fc := &fakeCreative{edited: "data:image/png;base64,ZWRpdGVk"}
	s, store := newTestServer(t, fc)

	require.NoError(t, store.Save(project.New("123", []project.Generation{
		{ImageURL: "orig", Description: "keep me"},
	})))

	body, contentType := multipartBody(t,
		map[string][]byte{"image": []byte("img")},
		map[string]string{"instruction": "make it pop", "project_id": "123"},
	)
	rec := doRequest(s, http.MethodPost, "/api/edit", body, contentType)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp editResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "data:image/png;base64,ZWRpdGVk", resp.Image)
	assert.Equal(t, "make it pop", fc.gotInstruction)

	saved, err := store.Get("123")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,ZWRpdGVk", saved.Generations[0].ImageURL)
	assert.Equal(t, "keep me", saved.Generations[0].Description)
}

func TestHandleEdit_WithoutProject(t *testing.T) {
	fc := &fakeCreative{edited: "data:image/png;base64,ZQ=="}
	s, _ := newTestServer(t, fc)

	body, contentType := multipartBody(t,
		map[string][]byte{"image": []byte("img")},
		map[string]string{"instruction": "crop"},
	)
	rec := doRequest(s, http.MethodPost, "/api/edit", body, contentType)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleEdit_Errors(t *testing.T) {
	t.Run("unknown project", func(t *testing.T) {
		s, _ := newTestServer(t, &fakeCreative{edited: "x"})
		body, contentType := multipartBody(t,
			map[string][]byte{"image": []byte("img")},
			map[string]string{"instruction": "crop", "project_id": "nope"},
		)
		rec := doRequest(s, http.MethodPost, "/api/edit", body, contentType)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing instruction", func(t *testing.T) {
		s, _ := newTestServer(t, &fakeCreative{})
		body, contentType := multipartBody(t, map[string][]byte{"image": []byte("img")}, nil)
		rec := doRequest(s, http.MethodPost, "/api/edit", body, contentType)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("edit failure", func(t *testing.T) {
		s, _ := newTestServer(t, &fakeCreative{editErr: errors.New("boom")})
		body, contentType := multipartBody(t,
			map[string][]byte{"image": []byte("img")},
			map[string]string{"instruction": "crop"},
		)
		rec := doRequest(s, http.MethodPost, "/api/edit", body, contentType)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestProjectEndpoints(t *testing.T) {
	s, store := newTestServer(t, &fakeCreative{})

	require.NoError(t, store.Save(project.New("111", []project.Generation{{ImageURL: "a"}})))
	require.NoError(t, store.Save(project.New("222", []project.Generation{{ImageURL: "b"}})))

	rec := doRequest(s, http.MethodGet, "/api/projects", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []project.SavedProject
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	rec = doRequest(s, http.MethodGet, "/api/projects/111", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(s, http.MethodGet, "/api/projects/999", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(s, http.MethodDelete, "/api/projects/111", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(s, http.MethodDelete, "/api/projects/111", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(s, http.MethodGet, "/api/projects", nil, "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)
	assert.Equal(t, "222", list[0].ID)
}

func TestHandleStyles(t *testing.T) {
	s, _ := newTestServer(t, &fakeCreative{})

	rec := doRequest(s, http.MethodGet, "/api/styles", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []styleOption
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.NotEmpty(t, got)
	for _, st := range got {
		assert.NotEmpty(t, st.ID)
		assert.NotEmpty(t, st.Name)
	}
}

func TestRequestIDHeader(t *testing.T) {
	s, _ := newTestServer(t, &fakeCreative{})

	rec := doRequest(s, http.MethodGet, "/api/styles", nil, "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/api/styles", nil)
	req.Header.Set("X-Request-Id", "fixed-id")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "fixed-id", rec.Header().Get("X-Request-Id"))
}
