package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/earshot/earshot/pkg/earshot"
	"github.com/earshot/earshot/pkg/logger"
)

// maxChunkBytes bounds a single ingest request body. Device chunks are a
// few seconds of 16-bit mono PCM, so 10 MB is generous.
const maxChunkBytes = 10 << 20

// maxUploadBytes bounds a song registration upload.
const maxUploadBytes = 100 << 20

type Server struct {
	svc    *earshot.Service
	config *ServerConfig
	log    *logger.Logger
}

func NewServer(svc *earshot.Service, cfg *ServerConfig) *Server {
	return &Server{
		svc:    svc,
		config: cfg,
		log:    logger.GetLogger(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// handleAudio ingests a raw PCM chunk on POST. GET is the device setup
// probe and always reports ready.
func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, setupResponse{IsSetupCompleted: true})
	case http.MethodPost:
		s.handleIngest(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("uid")
	if uid == "" {
		writeError(w, http.StatusBadRequest, "missing uid")
		return
	}
	rateStr := r.URL.Query().Get("sample_rate")
	if rateStr == "" {
		writeError(w, http.StatusBadRequest, "missing sample_rate")
		return
	}
	rate, err := strconv.Atoi(rateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid sample_rate")
		return
	}

	chunk, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxChunkBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "chunk too large")
		return
	}

	n, err := s.svc.Ingest(r.Context(), uid, rate, chunk)
	if err != nil {
		if errors.Is(err, earshot.ErrInvalidSampleRate) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.log.Errorf("ingest for user %s: %v", uid, err)
		writeError(w, http.StatusInternalServerError, "ingest failed")
		return
	}
	writeJSON(w, http.StatusOK, ingestResponse{Status: "ok", ReceivedBytes: n})
}

// handleStats serves GET /stats/{uid}.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	uid := strings.TrimPrefix(r.URL.Path, "/stats/")
	if uid == "" {
		writeError(w, http.StatusBadRequest, "missing uid")
		return
	}
	stats, err := s.svc.Stats(uid)
	if err != nil {
		if errors.Is(err, earshot.ErrUnknownSession) {
			writeError(w, http.StatusNotFound, "no session for user "+uid)
			return
		}
		writeError(w, http.StatusInternalServerError, "stats failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleBuffer serves DELETE /buffer/{uid}.
func (s *Server) handleBuffer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	uid := strings.TrimPrefix(r.URL.Path, "/buffer/")
	if uid == "" {
		writeError(w, http.StatusBadRequest, "missing uid")
		return
	}
	if err := s.svc.ClearSession(uid); err != nil {
		if errors.Is(err, earshot.ErrUnknownSession) {
			writeError(w, http.StatusNotFound, "no session for user "+uid)
			return
		}
		writeError(w, http.StatusInternalServerError, "clear failed")
		return
	}
	writeJSON(w, http.StatusOK, clearBufferResponse{
		Status:  "ok",
		Message: "buffer cleared for user " + uid,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:         "healthy",
		Service:        "earshot",
		ActiveSessions: s.svc.ActiveSessions(),
	})
}

// handleRegister accepts a multipart upload with an audio file plus
// artist, album and title fields and adds the song to the corpus.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	artist := r.FormValue("artist")
	title := r.FormValue("title")
	album := r.FormValue("album")
	if artist == "" || title == "" {
		writeError(w, http.StatusBadRequest, "artist and title are required")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing audio file")
		return
	}
	defer file.Close()

	ext := filepath.Ext(header.Filename)
	tmpPath := filepath.Join(s.config.TempDir, "upload_"+uuid.NewString()+ext)
	tmp, err := os.Create(tmpPath)
	if err != nil {
		s.log.Errorf("register: create temp file: %v", err)
		writeError(w, http.StatusInternalServerError, "upload failed")
		return
	}
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		writeError(w, http.StatusInternalServerError, "upload failed")
		return
	}
	tmp.Close()

	info, count, err := s.svc.RegisterSongFile(r.Context(), tmpPath, artist, album, title)
	if err != nil {
		var extErr *earshot.ExtractionError
		if errors.As(err, &extErr) {
			writeError(w, http.StatusUnprocessableEntity, "could not fingerprint audio")
			return
		}
		s.log.Errorf("register %q by %q: %v", title, artist, err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	writeJSON(w, http.StatusCreated, registerResponse{
		Status:       "ok",
		SongID:       info.SongID,
		Artist:       info.Artist,
		Album:        info.Album,
		Title:        info.Title,
		Fingerprints: count,
	})
}

func (s *Server) handleSongs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	songs, err := s.svc.ListSongs(r.Context())
	if err != nil {
		s.log.Errorf("list songs: %v", err)
		writeError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	if songs == nil {
		songs = []earshot.SongInfo{}
	}
	writeJSON(w, http.StatusOK, songsResponse{Status: "ok", Count: len(songs), Songs: songs})
}
