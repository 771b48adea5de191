package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reclutahub/recluta-cli/internal/batch"
	"github.com/reclutahub/recluta-cli/internal/model"
	"github.com/reclutahub/recluta-cli/pkg/processor"
)

var servePort int

// maxUploadBytes bounds a multipart upload request; individual file limits
// are enforced by the batch validator.
const maxUploadBytes = 120 << 20

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the batch-upload session API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initBatch(ctx, true)
		if err != nil {
			return err
		}
		defer env.Close()

		hub := &sessionHub{env: env, baseCtx: ctx, sessions: make(map[string]*batch.Session)}

		r := chi.NewRouter()
		r.Use(chimw.RequestID)
		r.Use(chimw.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Route("/api/batches", func(r chi.Router) {
			r.Post("/", hub.createBatch)
			r.Route("/{batchID}", func(r chi.Router) {
				r.Get("/", hub.getBatch)
				r.Delete("/", hub.deleteBatch)
				r.Post("/files", hub.uploadFiles)
				r.Post("/start", hub.startBatch)
				r.Post("/cancel", hub.cancelBatch)
				r.Post("/candidates", hub.saveCandidates)
				r.Put("/items/{itemID}/contact", hub.updateContact)
				r.Put("/items/{itemID}/vacancy", hub.assignVacancy)
				r.Delete("/items/{itemID}", hub.removeItem)
			})
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// sessionHub tracks live upload sessions by id. baseCtx is the server's
// lifetime context: session work spawned from a handler must use it, not
// the request context, which net/http cancels as soon as the handler
// returns.
type sessionHub struct {
	env      *batchEnv
	baseCtx  context.Context
	mu       sync.RWMutex
	sessions map[string]*batch.Session
}

func (h *sessionHub) get(r *http.Request) (*batch.Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[chi.URLParam(r, "batchID")]
	return s, ok
}

func (h *sessionHub) createBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Vacancy     *processor.Vacancy `json:"vacancy"`
		VacancyID   string             `json:"vacante_id"`
		Concurrency int                `json:"concurrency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session := h.env.newSession(req.Concurrency)
	if req.Vacancy != nil {
		if req.Vacancy.ID == "" {
			req.Vacancy.ID = req.VacancyID
		}
		session.RegisterVacancy(*req.Vacancy)
		session.SetGlobalVacancy(req.Vacancy.ID)
	} else if req.VacancyID != "" {
		session.SetGlobalVacancy(req.VacancyID)
	}

	id := uuid.NewString()
	h.mu.Lock()
	h.sessions[id] = session
	h.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *sessionHub) getBatch(w http.ResponseWriter, r *http.Request) {
	session, ok := h.get(r)
	if !ok {
		writeError(w, http.StatusNotFound, "batch not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"step":       session.Step(),
		"processing": session.Processing(),
		"can_start":  session.CanStart(),
		"items":      session.Items(),
		"stats":      session.Stats(),
	})
}

func (h *sessionHub) deleteBatch(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	delete(h.sessions, chi.URLParam(r, "batchID"))
	h.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (h *sessionHub) uploadFiles(w http.ResponseWriter, r *http.Request) {
	session, ok := h.get(r)
	if !ok {
		writeError(w, http.StatusNotFound, "batch not found")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	var files []processor.FileUpload
	for _, header := range r.MultipartForm.File["files"] {
		f, err := header.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable file "+header.Filename)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable file "+header.Filename)
			return
		}
		files = append(files, processor.FileUpload{Name: header.Filename, Data: data})
	}

	// Contact prefetch outlives the request.
	res := session.AddFiles(h.baseCtx, files)
	writeJSON(w, http.StatusOK, res)
}

func (h *sessionHub) startBatch(w http.ResponseWriter, r *http.Request) {
	session, ok := h.get(r)
	if !ok {
		writeError(w, http.StatusNotFound, "batch not found")
		return
	}
	if !session.CanStart() {
		writeError(w, http.StatusConflict, "batch not ready: contact data incomplete or run in progress")
		return
	}

	// The run outlives the request too.
	go func() {
		if err := session.Start(h.baseCtx); err != nil {
			zap.L().Error("batch run failed", zap.Error(err))
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "processing"})
}

func (h *sessionHub) cancelBatch(w http.ResponseWriter, r *http.Request) {
	session, ok := h.get(r)
	if !ok {
		writeError(w, http.StatusNotFound, "batch not found")
		return
	}
	session.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

func (h *sessionHub) saveCandidates(w http.ResponseWriter, r *http.Request) {
	session, ok := h.get(r)
	if !ok {
		writeError(w, http.StatusNotFound, "batch not found")
		return
	}

	candidates := session.Candidates(time.Now())
	for _, c := range candidates {
		if err := h.env.Store.AppendCandidate(r.Context(), c); err != nil {
			zap.L().Error("save candidate failed", zap.String("candidate", c.ID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to save candidates")
			return
		}
	}
	writeJSON(w, http.StatusCreated, candidates)
}

func (h *sessionHub) updateContact(w http.ResponseWriter, r *http.Request) {
	session, ok := h.get(r)
	if !ok {
		writeError(w, http.StatusNotFound, "batch not found")
		return
	}

	var contact model.ContactData
	if err := json.NewDecoder(r.Body).Decode(&contact); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !session.UpdateContact(chi.URLParam(r, "itemID"), contact) {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *sessionHub) assignVacancy(w http.ResponseWriter, r *http.Request) {
	session, ok := h.get(r)
	if !ok {
		writeError(w, http.StatusNotFound, "batch not found")
		return
	}

	var req struct {
		VacancyID string `json:"vacante_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !session.AssignVacancy(chi.URLParam(r, "itemID"), req.VacancyID) {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *sessionHub) removeItem(w http.ResponseWriter, r *http.Request) {
	session, ok := h.get(r)
	if !ok {
		writeError(w, http.StatusNotFound, "batch not found")
		return
	}
	session.RemoveItem(chi.URLParam(r, "itemID"))
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
