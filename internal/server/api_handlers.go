package server

import (
	stderrors "errors"
	"io"
	"net/http"

	"neuraresume/internal/errors"
	"neuraresume/internal/types"
)

// multipartMemory is how much of a multipart body is held in memory
// before spilling to temporary files
const multipartMemory = 8 << 20

// analyzeHandler serves POST /analyze: a multipart form with resumeText,
// resumeFile, jobDescription and a JSON-encoded tasks field
func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	input, err := s.readAnalyzeForm(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.Orchestrator.Analyze(r.Context(), input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// generateAnswersHandler serves POST /generate-answers
func (s *Server) generateAnswersHandler(w http.ResponseWriter, r *http.Request) {
	var req types.GenerateAnswersRequest
	if err := parseJSONRequest(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(req.Questions) == 0 {
		s.writeError(w, r, errors.NewValidationError(errors.ErrCodeNoQuestions, "questions must not be empty", nil))
		return
	}

	answers, err := s.Backend.GenerateAnswers(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.GenerateAnswersResponse{Answers: answers})
}

// readAnalyzeForm decodes the analysis form shared by the API and the UI
func (s *Server) readAnalyzeForm(r *http.Request) (types.AnalyzeInput, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if stderrors.Is(err, http.ErrNotMultipart) {
			return types.AnalyzeInput{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
				"Content-Type must be multipart/form-data", err)
		}
		return types.AnalyzeInput{}, requestBodyError(err)
	}

	tasks, err := types.ParseTasks(r.FormValue("tasks"))
	if err != nil {
		return types.AnalyzeInput{}, errors.NewValidationError(errors.ErrCodeInvalidRequest, "tasks must be a JSON object", err)
	}

	file, err := readUpload(r, "resumeFile")
	if err != nil {
		return types.AnalyzeInput{}, err
	}

	return types.AnalyzeInput{
		ResumeText:     r.FormValue("resumeText"),
		ResumeFile:     file,
		JobDescription: r.FormValue("jobDescription"),
		Tasks:          tasks,
	}, nil
}

// readUpload returns the named multipart file, or nil when none was sent
func readUpload(r *http.Request, field string) (*types.FileUpload, error) {
	f, header, err := r.FormFile(field)
	if stderrors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, requestBodyError(err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, requestBodyError(err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &types.FileUpload{Name: header.Filename, Data: data}, nil
}
