package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"ruralhealth/internal/domain"
	"ruralhealth/internal/kv"
	"ruralhealth/internal/llm"
	"ruralhealth/internal/ports"
	"ruralhealth/internal/storage"
)

const transcriptionFailed = "Unable to transcribe audio. Please try typing your message."

func imageAnalysisKey(id string) string { return "image_analysis:" + id }
func transcriptionKey(id string) string { return "transcription:" + id }

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req domain.ChatRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "Message is required")
		return
	}
	s.log.Debug("ai chat", "role", req.UserContext.Role, "history", len(req.ConversationHistory))
	respond(w, http.StatusOK, s.deps.Health.Chat(r.Context(), req))
}

func (s *Server) handleSymptoms(w http.ResponseWriter, r *http.Request) {
	var req domain.SymptomRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Symptoms) == "" {
		respondError(w, http.StatusBadRequest, "Symptoms are required")
		return
	}
	resp, err := s.deps.Health.CheckSymptoms(r.Context(), req)
	if err != nil {
		s.log.Error("symptom checker failed", "err", err)
		respondError(w, http.StatusInternalServerError, "Symptom analysis temporarily unavailable")
		return
	}
	respond(w, http.StatusOK, resp)
}

func (s *Server) handleMedications(w http.ResponseWriter, r *http.Request) {
	var req domain.MedicationRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Medications) == 0 {
		respondError(w, http.StatusBadRequest, "At least one medication is required")
		return
	}
	resp, err := s.deps.Health.CheckMedications(r.Context(), req)
	if err != nil {
		s.log.Error("medication checker failed", "err", err)
		respondError(w, http.StatusInternalServerError, "Medication analysis temporarily unavailable")
		return
	}
	respond(w, http.StatusOK, resp)
}

func (s *Server) handleAITest(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, s.deps.Health.Test(r.Context()))
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req domain.TranslateRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.TargetLanguage) == "" {
		respondError(w, http.StatusBadRequest, "targetLanguage is required")
		return
	}
	text, err := s.deps.Health.Translate(r.Context(), req)
	if errors.Is(err, llm.ErrNotConfigured) {
		respondError(w, http.StatusServiceUnavailable, "Translation service unavailable")
		return
	}
	if err != nil {
		s.log.Error("translate failed", "target", req.TargetLanguage, "err", err)
		respondError(w, http.StatusBadGateway, "Translation failed")
		return
	}
	respond(w, http.StatusOK, domain.TranslateResponse{TranslatedText: text})
}

func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, field string) ([]byte, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.deps.Config.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.deps.Config.MaxUploadBytes); err != nil {
		return nil, nil, err
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, err
	}
	return data, header, nil
}

func (s *Server) handleAnalyzeImage(w http.ResponseWriter, r *http.Request) {
	data, header, err := s.readUpload(w, r, "image")
	if err != nil || len(data) == 0 {
		respondError(w, http.StatusBadRequest, "No image file provided")
		return
	}
	kind := strings.TrimSpace(r.FormValue("type"))
	if kind == "" {
		kind = domain.ImageKindWound
	}

	ctx := r.Context()
	uid := userID(ctx)
	objectPath, err := s.deps.Objects.Put(fmt.Sprintf("%s/%s-%s", uid, s.newID(), filepath.Base(header.Filename)), data)
	if err != nil {
		s.log.Error("image upload failed", "err", err)
		respondError(w, http.StatusInternalServerError, "Failed to upload image")
		return
	}
	signedURL, err := s.deps.Objects.SignedURL(objectPath)
	if err != nil {
		s.log.Error("image signing failed", "err", err)
		respondError(w, http.StatusInternalServerError, "Failed to process image")
		return
	}

	analysis, poweredBy := s.deps.Health.AnalyzeImage(ctx, kind, signedURL)
	record := domain.ImageAnalysisRecord{
		ID:             s.newID(),
		UserID:         uid,
		ImagePath:      objectPath,
		ImageURL:       signedURL,
		AnalysisType:   kind,
		AnalysisResult: analysis,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.deps.Store.Set(ctx, imageAnalysisKey(record.ID), record); err != nil {
		s.log.Error("store image analysis failed", "err", err)
		respondError(w, http.StatusInternalServerError, "Image analysis failed")
		return
	}

	respond(w, http.StatusOK, domain.ImageAnalysisResponse{
		AnalysisID: record.ID,
		Analysis:   analysis,
		ImageURL:   signedURL,
		Timestamp:  record.CreatedAt,
		PoweredBy:  poweredBy,
	})
}

func (s *Server) handleImageHistory(w http.ResponseWriter, r *http.Request) {
	all, err := kv.List[domain.ImageAnalysisRecord](r.Context(), s.deps.Store, "image_analysis:")
	if err != nil {
		s.log.Error("image history failed", "err", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch image analysis history")
		return
	}
	uid := userID(r.Context())
	mine := make([]domain.ImageAnalysisRecord, 0, len(all))
	for _, rec := range all {
		if rec.UserID != uid {
			continue
		}
		// Signed URLs expire; hand out a fresh one.
		if fresh, err := s.deps.Objects.SignedURL(rec.ImagePath); err == nil {
			rec.ImageURL = fresh
		}
		mine = append(mine, rec)
	}
	sort.Slice(mine, func(i, j int) bool { return mine[i].CreatedAt.After(mine[j].CreatedAt) })
	respond(w, http.StatusOK, map[string]any{"analyses": mine})
}

// handleTranscribe answers 200 even on failure so the caller can fall back
// to typing.
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	data, header, err := s.readUpload(w, r, "audio")
	if err != nil || len(data) == 0 {
		respondError(w, http.StatusBadRequest, "No audio file provided")
		return
	}

	ctx := r.Context()
	mime := header.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = "audio/wav"
	}
	result, err := s.deps.Transcriber.Transcribe(ctx, ports.AudioClip{Data: data, MimeType: mime, Filename: filepath.Base(header.Filename)})
	if err != nil {
		s.log.Error("transcription failed", "err", err)
		respond(w, http.StatusOK, domain.TranscribeResponse{Transcription: transcriptionFailed, Error: true, Timestamp: s.now().UTC()})
		return
	}

	record := domain.TranscriptionRecord{
		ID:            s.newID(),
		UserID:        userID(ctx),
		Transcription: result.Text,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.deps.Store.Set(ctx, transcriptionKey(record.ID), record); err != nil {
		s.log.Warn("store transcription failed", "err", err)
	}

	respond(w, http.StatusOK, domain.TranscribeResponse{
		TranscriptionID: record.ID,
		Transcription:   result.Text,
		Confidence:      result.Confidence,
		Timestamp:       record.CreatedAt,
		PoweredBy:       s.deps.TranscriberName,
	})
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	objectPath := chi.URLParam(r, "*")
	data, err := s.deps.Objects.Open(objectPath, r.URL.Query().Get("token"))
	if err != nil {
		status := http.StatusForbidden
		if errors.Is(err, storage.ErrNotFound) {
			status = http.StatusNotFound
		}
		respondError(w, status, http.StatusText(status))
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Cache-Control", "private, max-age=300")
	_, _ = w.Write(data)
}
