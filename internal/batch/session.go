package batch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/reclutahub/recluta-cli/internal/model"
	"github.com/reclutahub/recluta-cli/internal/resilience"
	"github.com/reclutahub/recluta-cli/pkg/processor"
)

// errCancelled is the message recorded on items skipped after Cancel.
const errCancelled = "Procesamiento cancelado"

// SessionConfig wires a session's dependencies.
type SessionConfig struct {
	Processor   processor.Client
	Deep        *DeepScheduler // nil disables the second pass
	Retry       resilience.RetryConfig
	Concurrency int
	Limits      Limits
}

// Session owns one bulk-upload batch end to end: admission, contact
// prefetch, the concurrent analysis run, the deep second pass, and the
// results. Sessions move through the upload, processing and results steps.
type Session struct {
	reg       *Registry
	validator *Validator
	proc      processor.Client
	deep      *DeepScheduler
	retry     resilience.RetryConfig
	conc      int

	mu              sync.Mutex
	step            model.BatchStep
	vacancies       map[string]processor.Vacancy
	globalVacancyID string
	work            map[string]WorkItem

	cancelled  atomic.Bool
	processing atomic.Bool
	prefetchWG sync.WaitGroup
	deepWG     sync.WaitGroup
}

// NewSession creates a session at the upload step.
func NewSession(cfg SessionConfig) *Session {
	conc := cfg.Concurrency
	if conc <= 0 {
		conc = DefaultConcurrency
	}
	return &Session{
		reg:       NewRegistry(),
		validator: NewValidator(cfg.Limits),
		proc:      cfg.Processor,
		deep:      cfg.Deep,
		retry:     cfg.Retry,
		conc:      conc,
		step:      model.StepUpload,
		vacancies: make(map[string]processor.Vacancy),
		work:      make(map[string]WorkItem),
	}
}

// RegisterVacancy makes a vacancy assignable within this session.
func (s *Session) RegisterVacancy(v processor.Vacancy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vacancies[v.ID] = v
}

// SetGlobalVacancy assigns a default vacancy for items without an
// individual assignment. Empty clears it.
func (s *Session) SetGlobalVacancy(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.globalVacancyID = id
}

// AddFiles validates and enqueues files, then prefetches contact data for
// each admitted item in the background so the user can review and correct
// it before starting the run.
func (s *Session) AddFiles(ctx context.Context, files []processor.FileUpload) AddResult {
	items, res := s.validator.Admit(s.reg, files)
	for _, item := range items {
		s.reg.Add(item)
		s.prefetchWG.Add(1)
		go func(id string, file processor.FileUpload) {
			defer s.prefetchWG.Done()
			s.prefetchContact(ctx, id, file)
		}(item.ID, item.File)
	}
	return res
}

// prefetchContact extracts text once up front to pre-fill the contact
// fields. On failure the item still gets an empty-but-present contact so
// the review step renders its form, and the error is only logged: the
// real extraction retries during the run.
func (s *Session) prefetchContact(ctx context.Context, id string, file processor.FileUpload) {
	s.reg.Update(id, func(i *model.CVItem) {
		i.Status = model.StatusExtracting
		i.Progress = 10
	})

	contact := model.ContactData{}
	result, err := s.proc.ExtractText(ctx, file)
	if err != nil {
		zap.L().Warn("contact prefetch failed",
			zap.String("item_id", id),
			zap.String("file", file.Name),
			zap.Error(err),
		)
	} else {
		contact = ExtractContact(result.Text)
	}

	s.reg.Update(id, func(i *model.CVItem) {
		i.Status = model.StatusPending
		i.Progress = 0
		if i.Contact != nil {
			contact = i.Contact.Merge(contact)
		}
		i.Contact = &contact
	})
}

// WaitPrefetch blocks until all in-flight contact prefetches finish.
func (s *Session) WaitPrefetch() {
	s.prefetchWG.Wait()
}

// Items returns copies of all queued items in intake order.
func (s *Session) Items() []model.CVItem {
	return s.reg.Items()
}

// Item returns a copy of one item.
func (s *Session) Item(id string) (model.CVItem, bool) {
	return s.reg.Get(id)
}

// RemoveItem drops an item from the batch.
func (s *Session) RemoveItem(id string) {
	s.reg.Remove(id)
}

// UpdateContact overlays user-edited contact fields onto an item.
// Empty fields in the edit leave the existing values untouched.
func (s *Session) UpdateContact(id string, edit model.ContactData) bool {
	return s.reg.Update(id, func(i *model.CVItem) {
		merged := edit
		if i.Contact != nil {
			merged = i.Contact.Merge(edit)
		}
		i.Contact = &merged
	})
}

// AssignVacancy sets an item's individual vacancy assignment.
func (s *Session) AssignVacancy(id, vacancyID string) bool {
	return s.reg.Update(id, func(i *model.CVItem) {
		i.VacancyID = vacancyID
	})
}

// CanStart reports whether the batch is ready for analysis: at least one
// item, every item has a name, an email and a vacancy assignment (its own
// or the global one), no prefetch still extracting, and no run already in
// flight.
func (s *Session) CanStart() bool {
	items := s.reg.Items()
	if len(items) == 0 || s.processing.Load() {
		return false
	}

	s.mu.Lock()
	globalVacancy := s.globalVacancyID
	s.mu.Unlock()

	for _, item := range items {
		if item.Status == model.StatusExtracting {
			return false
		}
		if item.Contact == nil || item.Contact.Name == "" || item.Contact.Email == "" {
			return false
		}
		if item.VacancyID == "" && globalVacancy == "" {
			return false
		}
	}
	return true
}

// Start runs the analysis over all queued items and blocks until the main
// pass finishes. The vacancy snapshot for each item is captured here so a
// vacancy edited mid-run cannot skew scores within the batch. The deep
// second pass continues asynchronously; use WaitDeep to join it.
//
// Contact completeness is not enforced here - interactive callers gate on
// CanStart, headless callers proceed with whatever was parsed.
func (s *Session) Start(ctx context.Context) error {
	items := s.reg.Items()
	if len(items) == 0 {
		return eris.New("batch: no files queued")
	}
	if !s.processing.CompareAndSwap(false, true) {
		return eris.New("batch: analysis already running")
	}
	defer s.processing.Store(false)

	s.cancelled.Store(false)
	s.setStep(model.StepProcessing)

	work := make([]WorkItem, 0, len(items))
	s.mu.Lock()
	for _, item := range items {
		vid := item.VacancyID
		if vid == "" {
			vid = s.globalVacancyID
		}
		vac := s.vacancies[vid]
		vac.ID = vid

		w := WorkItem{ID: item.ID, File: item.File, Vacancy: vac}
		work = append(work, w)
		s.work[item.ID] = w
	}
	s.mu.Unlock()

	for _, w := range work {
		s.reg.Update(w.ID, func(i *model.CVItem) {
			i.VacancyID = w.Vacancy.ID
		})
	}

	report := RegistryReporter(s.reg)
	pipeline := NewPipeline(s.proc, s.retry, report)

	zap.L().Info("batch analysis started",
		zap.Int("items", len(work)),
		zap.Int("concurrency", s.conc),
	)

	RunQueue(ctx, work, s.conc, func(ctx context.Context, w WorkItem) {
		// Cancellation is advisory: checked between items, never
		// aborting an in-flight external call.
		if s.cancelled.Load() {
			report(w.ID, Update{Status: model.StatusError, Progress: 0, Err: errCancelled})
			return
		}
		pipeline.Process(ctx, w)
	})

	s.setStep(model.StepResults)

	if s.deep != nil && !s.cancelled.Load() {
		s.mu.Lock()
		workByID := make(map[string]WorkItem, len(s.work))
		for id, w := range s.work {
			workByID[id] = w
		}
		s.mu.Unlock()

		s.deepWG.Add(1)
		go func() {
			defer s.deepWG.Done()
			s.deep.Run(ctx, s.reg, workByID)
		}()
	}

	return nil
}

// Cancel requests that the current run stop scheduling new items. Items
// already being processed finish normally; the rest are marked failed.
func (s *Session) Cancel() {
	s.cancelled.Store(true)
}

// WaitDeep blocks until the asynchronous deep pass finishes.
func (s *Session) WaitDeep() {
	s.deepWG.Wait()
}

// Processing reports whether the main pass is running.
func (s *Session) Processing() bool {
	return s.processing.Load()
}

// Stats summarizes the batch.
func (s *Session) Stats() model.BatchStats {
	return Stats(s.reg.Items())
}

// Candidates builds pipeline-ready candidate records from the completed
// items, stamped with now as the application time.
func (s *Session) Candidates(now time.Time) []model.Candidate {
	s.mu.Lock()
	vacancies := make(map[string]processor.Vacancy, len(s.vacancies))
	for id, v := range s.vacancies {
		vacancies[id] = v
	}
	s.mu.Unlock()

	return BuildCandidates(s.reg.Items(), vacancies, now)
}

// Step returns the session's current step.
func (s *Session) Step() model.BatchStep {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

func (s *Session) setStep(step model.BatchStep) {
	s.mu.Lock()
	s.step = step
	s.mu.Unlock()
}

// BackToUpload returns to the upload step for a re-run, keeping files and
// contact data but clearing analysis results.
func (s *Session) BackToUpload() {
	s.reg.ResetToUpload()
	s.cancelled.Store(false)
	s.setStep(model.StepUpload)
}

// Clear resets the session completely.
func (s *Session) Clear() {
	s.reg.Clear()
	s.cancelled.Store(false)
	s.mu.Lock()
	s.globalVacancyID = ""
	s.work = make(map[string]WorkItem)
	s.mu.Unlock()
	s.setStep(model.StepUpload)
}
