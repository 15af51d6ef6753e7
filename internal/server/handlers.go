package server

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/ytget/yt-webdl/internal/download"
	"github.com/ytget/yt-webdl/internal/platform"
)

// Request limits
const (
	MaxRequestBody = 64 * 1024
)

func (s *Server) handleStartDownload(w http.ResponseWriter, r *http.Request) {
	var req StartDownloadRequest
	body := io.LimitReader(r.Body, MaxRequestBody)
	if err := render.DecodeJSON(body, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.normalize()

	id, err := s.downloads.Submit(req.URL, req.Quality, req.DownloadType)
	switch {
	case errors.Is(err, download.ErrInvalidRequest):
		writeError(w, r, http.StatusBadRequest, "URL is required")
		return
	case errors.Is(err, download.ErrClosed):
		writeError(w, r, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, StartDownloadResponse{JobID: id})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	snap, err := s.downloads.Poll(chi.URLParam(r, "jobID"))
	if err != nil {
		s.writeJobError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, snap)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	status, err := s.downloads.Cancel(chi.URLParam(r, "jobID"))
	if err != nil {
		s.writeJobError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, CancelResponse{Status: status})
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, JobsResponse{Jobs: s.downloads.List()})
}

func (s *Server) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	rawURL := strings.TrimSpace(r.URL.Query().Get("url"))
	if rawURL == "" {
		writeError(w, r, http.StatusBadRequest, "URL is required")
		return
	}

	playlist, err := s.opts.Inspector.Inspect(r.Context(), rawURL)
	switch {
	case errors.Is(err, platform.ErrNotPlaylist):
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.logger.Warn("playlist inspection failed", slog.String("url", rawURL), slog.String("error", err.Error()))
		writeError(w, r, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, r, http.StatusOK, playlist)
}

func (s *Server) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(name)
		if err != nil {
			writeError(w, r, http.StatusNotFound, "file not found")
			return
		}
		name = unescaped
	}

	if platform.IsPartialDownload(name) {
		writeError(w, r, http.StatusNotFound, "file not found")
		return
	}
	path, err := platform.ResolveInDir(s.opts.DownloadDir, name)
	if err != nil || !platform.FileExists(path) {
		writeError(w, r, http.StatusNotFound, "file not found")
		return
	}

	f, err := os.Open(path)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "file not found")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.opts.Engine == nil {
		writeJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
		return
	}
	if err := s.opts.Engine.CheckBinary(); err != nil {
		writeJSON(w, r, http.StatusServiceUnavailable, HealthResponse{
			Status: "degraded",
			Engine: s.opts.Engine.Binary(),
			Error:  err.Error(),
		})
		return
	}
	writeJSON(w, r, http.StatusOK, HealthResponse{Status: "ok", Engine: s.opts.Engine.Binary()})
}

func (s *Server) writeJobError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, download.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "Invalid job id")
		return
	}
	writeError(w, r, http.StatusInternalServerError, err.Error())
}
