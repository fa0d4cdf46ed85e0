package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/mux"
)

func (a *App) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var c credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if err := a.auth.Register(c.Username, c.Password); err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Username and password are required")
		case errors.Is(err, ErrConflict):
			writeError(w, http.StatusConflict, "USER_EXISTS", "User with this username already exists")
		default:
			writePipelineError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

func (a *App) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var c credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if c.Username == "" || c.Password == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Username and password are required")
		return
	}
	token, err := a.auth.Authenticate(c.Username, c.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password")
			return
		}
		writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (a *App) HandleUpload(w http.ResponseWriter, r *http.Request) {
	owner := subjectFrom(r)

	r.Body = http.MaxBytesReader(w, r.Body, a.maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "No file uploaded with key 'file'")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Empty filename")
		return
	}

	result, err := a.pipeline.Run(r.Context(), owner, header.Filename, file)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *App) HandleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if len(req.Features) == 0 {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Features are required")
		return
	}

	// inference is CPU-bound; keep it off the request path like the
	// pipeline stages
	var label string
	err := a.pool.Do(r.Context(), func() error {
		var err error
		label, err = a.classifier.Predict(req.Features)
		return err
	})
	if err != nil {
		writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"recommendation": label})
}

// HandleListFiles returns the caller's provenance records.
func (a *App) HandleListFiles(w http.ResponseWriter, r *http.Request) {
	records, err := a.DB.ListProvenanceByOwner(subjectFrom(r))
	if err != nil {
		writePipelineError(w, err)
		return
	}
	if records == nil {
		records = []*ProvenanceRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"files": records})
}

// HandleDownload fetches stored content by identifier and streams it
// back. The scratch copy is removed once the response is written.
func (a *App) HandleDownload(w http.ResponseWriter, r *http.Request) {
	contentID := mux.Vars(r)["contentId"]

	localPath, err := a.pipeline.Fetch(r.Context(), contentID)
	if err != nil {
		writePipelineError(w, err)
		return
	}
	defer os.RemoveAll(filepath.Dir(localPath))

	w.Header().Set("Content-Disposition", "attachment; filename="+contentID)
	http.ServeFile(w, r, localPath)
}

func (a *App) HandleRoot(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("BlockShareX gateway running."))
}
