// Package httpapi is the pipeline's HTTP façade: a trivial shell exposing
// one job endpoint for submitting and polling an ingestion run. It does
// not expose a Connect-RPC surface; that would pull in a generated
// bindings package this module doesn't carry.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kasai-dev/pageforge/internal/discover"
	"github.com/kasai-dev/pageforge/internal/pipeline"
)

// JobStatus is the lifecycle state of one ingestion job.
type JobStatus string

const (
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// Job is one submitted ingestion run and its outcome.
type Job struct {
	ID     string           `json:"id"`
	Path   string           `json:"path"`
	Status JobStatus        `json:"status"`
	Error  string           `json:"error,omitempty"`
	Report *pipeline.Report `json:"report,omitempty"`
}

// Server exposes the job endpoint over HTTP.
type Server struct {
	pipeline *pipeline.Pipeline
	log      *zap.Logger

	mu   sync.Mutex
	jobs map[string]*Job
}

// NewServer constructs a Server.
func NewServer(pl *pipeline.Pipeline, log *zap.Logger) *Server {
	return &Server{pipeline: pl, log: log, jobs: map[string]*Job{}}
}

// Handler returns the façade's routes: submitting a job and polling one by
// ID.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /jobs", s.submitJob)
	mux.HandleFunc("GET /jobs/{id}", s.getJob)
	return mux
}

type submitRequest struct {
	Path string `json:"path"`
}

func (s *Server) submitJob(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		http.Error(w, "request body must be {\"path\": \"<dir>\"}", http.StatusBadRequest)
		return
	}

	job := &Job{ID: uuid.NewString(), Path: req.Path, Status: JobRunning}
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	go s.run(job)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(job)
}

func (s *Server) run(job *Job) {
	paths, err := discover.Find(job.Path, s.log)
	if err != nil {
		s.finish(job, nil, fmt.Errorf("discover PDFs: %w", err))
		return
	}

	report, err := s.pipeline.Run(context.Background(), paths)
	s.finish(job, &report, err)
}

func (s *Server) finish(job *Job, report *pipeline.Report, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job.Report = report
	if err != nil {
		job.Status = JobFailed
		job.Error = err.Error()
		s.log.Error("ingestion job failed", zap.String("job_id", job.ID), zap.Error(err))
		return
	}
	job.Status = JobDone
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.mu.Lock()
	job, ok := s.jobs[id]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(job)
}
