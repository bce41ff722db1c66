package webapi

import (
	"encoding/base64"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"adforge-ai/internal/creative"
	"adforge-ai/internal/gemini"
	"adforge-ai/internal/project"
)

const maxUploadBytes = 25 << 20

type generateResponse struct {
	ProjectID   string `json:"projectId"`
	Image       string `json:"image"`
	Description string `json:"description"`
	Warning     string `json:"warning,omitempty"`
}

type editResponse struct {
	ProjectID string `json:"projectId,omitempty"`
	Image     string `json:"image"`
}

type styleOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid multipart form"})
		return
	}

	images, err := formImages(r, "images")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	if len(images) == 0 {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "at least one image is required"})
		return
	}

	req := creative.Request{
		Images:  images,
		Context: strings.TrimSpace(r.FormValue("context")),
		StyleID: strings.TrimSpace(r.FormValue("style")),
	}

	result, err := s.creative.Generate(r.Context(), req)
	if err != nil {
		s.logger.Error("generation failed", "err", err)
		writeJSON(w, http.StatusBadGateway, apiError{Error: "generation failed, please try again"})
		return
	}

	projectID := strings.TrimSpace(r.FormValue("project_id"))
	if projectID == "" {
		projectID = project.NewID()
	}

	gen := project.Generation{ImageURL: result.ImageURL, Description: result.Description}
	if _, err := s.projects.Append(projectID, gen); err != nil {
		s.logger.Error("project save failed", "project_id", projectID, "err", err)
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "failed to save project"})
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{
		ProjectID:   projectID,
		Image:       result.ImageURL,
		Description: result.Description,
		Warning:     result.Warning,
	})
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "missing image"})
		return
	}
	defer file.Close()

	image, err := readImage(file, header)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}

	instruction := strings.TrimSpace(r.FormValue("instruction"))
	if instruction == "" {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "missing instruction"})
		return
	}

	projectID := strings.TrimSpace(r.FormValue("project_id"))
	if projectID != "" {
		if _, err := s.projects.Get(projectID); errors.Is(err, project.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, apiError{Error: "project not found"})
			return
		} else if err != nil {
			writeJSON(w, http.StatusInternalServerError, apiError{Error: "failed to load project"})
			return
		}
	}

	edited, err := s.creative.Edit(r.Context(), image, instruction)
	if err != nil {
		s.logger.Error("edit failed", "err", err)
		writeJSON(w, http.StatusBadGateway, apiError{Error: "edit failed, please try again"})
		return
	}

	if projectID != "" {
		if _, err := s.projects.ReplaceLastImage(projectID, edited); err != nil {
			s.logger.Error("project update failed", "project_id", projectID, "err", err)
			writeJSON(w, http.StatusInternalServerError, apiError{Error: "failed to save project"})
			return
		}
	}

	writeJSON(w, http.StatusOK, editResponse{ProjectID: projectID, Image: edited})
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.projects.List()
	if err != nil {
		s.logger.Error("project list failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "failed to list projects"})
		return
	}
	if projects == nil {
		projects = []project.SavedProject{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.projects.Get(r.PathValue("id"))
	if errors.Is(err, project.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, apiError{Error: "project not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "failed to load project"})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	err := s.projects.Delete(r.PathValue("id"))
	if errors.Is(err, project.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, apiError{Error: "project not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "failed to delete project"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStyles(w http.ResponseWriter, r *http.Request) {
	catalog := creative.Styles()
	out := make([]styleOption, 0, len(catalog))
	for _, st := range catalog {
		out = append(out, styleOption{ID: st.ID, Name: st.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

func formImages(r *http.Request, field string) ([]gemini.ImageInput, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}

	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		// single-file clients post under "image"
		headers = r.MultipartForm.File["image"]
	}

	out := make([]gemini.ImageInput, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			return nil, errors.New("failed to read image")
		}

		img, err := readImage(file, header)
		file.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, nil
}

func readImage(file multipart.File, header *multipart.FileHeader) (gemini.ImageInput, error) {
	raw, err := io.ReadAll(file)
	if err != nil {
		return gemini.ImageInput{}, errors.New("failed to read image")
	}
	if len(raw) == 0 {
		return gemini.ImageInput{}, errors.New("image is empty")
	}

	return gemini.ImageInput{
		DataBase64: base64.StdEncoding.EncodeToString(raw),
		MimeType:   sniffMime(header.Header.Get("Content-Type"), raw),
	}, nil
}

func sniffMime(declared string, data []byte) string {
	mimeType := strings.TrimSpace(declared)
	if strings.Contains(mimeType, ";") {
		mimeType = strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0])
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	if strings.Contains(mimeType, ";") {
		mimeType = strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0])
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = "image/jpeg"
	}
	return mimeType
}
