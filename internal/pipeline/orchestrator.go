// Package pipeline orchestrates the extract, solve, and debug stages.
//
// DESIGN: Two stage groups exist, each with its own cancellation scope:
//
//   - Initial:    extract problem from screenshots, then generate a solution
//   - ExtraDebug: analyze debug screenshots against the retained problem
//
// Starting a run supersedes only the running instance of the SAME group; the
// other group is untouched. Chat traffic is outside both scopes entirely.
//
// Extracted problem context is retained across solve failures so a debug run
// can still proceed, and is only dropped by CancelOngoing.
package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/config"
	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/fault"
	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/history"
	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/monitoring"
	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/normalize"
	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/providers"
	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/ratelimit"
	"github.com/wajihalamt/interview-coder-withoupaywall-opensource/internal/screenshot"
)

// Group identifies a cancellation scope.
type Group string

const (
	GroupInitial    Group = "initial"
	GroupExtraDebug Group = "extra_debug"
)

const pipelineTemperature = 0.2

// groupRun tracks the in-flight instance of one group.
type groupRun struct {
	id     string
	cancel context.CancelFunc
}

// Orchestrator runs the stage groups against the active provider client.
type Orchestrator struct {
	registry *providers.Registry
	guard    *ratelimit.Guard
	store    screenshot.Store
	sink     Sink
	recorder history.Recorder

	mu      sync.Mutex
	cfg     *config.Config
	problem *normalize.ProblemInfo
	runs    map[Group]*groupRun
}

// NewOrchestrator wires the orchestrator. sink and recorder may be nil.
func NewOrchestrator(cfg *config.Config, registry *providers.Registry, guard *ratelimit.Guard, store screenshot.Store, sink Sink, recorder history.Recorder) *Orchestrator {
	if sink == nil {
		sink = NopSink{}
	}
	if recorder == nil {
		recorder = history.Nop{}
	}
	return &Orchestrator{
		registry: registry,
		guard:    guard,
		store:    store,
		sink:     sink,
		recorder: recorder,
		cfg:      cfg,
		runs:     make(map[Group]*groupRun),
	}
}

// SetConfig replaces the configuration snapshot used by subsequent runs.
// In-flight runs keep the snapshot they started with.
func (o *Orchestrator) SetConfig(cfg *config.Config) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cfg = cfg
}

// Config returns the current configuration snapshot.
func (o *Orchestrator) Config() *config.Config {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cfg
}

// Problem returns the currently retained problem context, or nil.
func (o *Orchestrator) Problem() *normalize.ProblemInfo {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.problem
}

// Cancel aborts the running instance of one group, if any.
func (o *Orchestrator) Cancel(group Group) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if run, ok := o.runs[group]; ok {
		run.cancel()
		delete(o.runs, group)
	}
}

// CancelOngoing aborts both groups and drops the retained problem context.
// The no-screenshots event tells the UI shell to reset to its empty state.
func (o *Orchestrator) CancelOngoing() {
	o.mu.Lock()
	cancelled := false
	for group, run := range o.runs {
		run.cancel()
		delete(o.runs, group)
		cancelled = true
	}
	o.problem = nil
	o.mu.Unlock()

	if cancelled {
		o.sink.Emit(Event{Name: EventNoScreenshots})
	}
}

// begin registers a new run of a group, superseding any running instance of
// that same group, and returns the run's context and id.
func (o *Orchestrator) begin(ctx context.Context, group Group) (context.Context, string) {
	runID := uuid.NewString()
	runCtx, cancel := context.WithCancel(ctx)

	o.mu.Lock()
	if prev, ok := o.runs[group]; ok {
		prev.cancel()
	}
	o.runs[group] = &groupRun{id: runID, cancel: cancel}
	o.mu.Unlock()

	return monitoring.WithRunIDContext(runCtx, runID), runID
}

// end unregisters a run unless it was already superseded.
func (o *Orchestrator) end(group Group, runID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if run, ok := o.runs[group]; ok && run.id == runID {
		run.cancel()
		delete(o.runs, group)
	}
}

// RunInitial executes the extract+solve group over the main screenshot queue.
func (o *Orchestrator) RunInitial(ctx context.Context) (*normalize.SolutionResult, error) {
	o.mu.Lock()
	cfg := o.cfg
	o.mu.Unlock()

	client, err := o.registry.Active()
	if err != nil {
		o.sink.Emit(Event{Name: EventAPIKeyInvalid, Message: err.Error()})
		return nil, err
	}

	runCtx, runID := o.begin(ctx, GroupInitial)
	defer o.end(GroupInitial, runID)
	start := time.Now()

	o.sink.Emit(Event{Name: EventInitialStart, RunID: runID})

	images := o.loadImages(o.store.Queue())
	if len(images) == 0 {
		o.sink.Emit(Event{Name: EventNoScreenshots, RunID: runID})
		return nil, o.finishInitial(runID, client, len(images), start,
			fault.New(fault.NoScreenshots, "No screenshots to process. Please take a screenshot first."))
	}

	o.progress(runID, 20, "Analyzing problem from screenshots...")

	raw, err := client.SendMultimodal(runCtx, providers.Request{
		Model:       cfg.Models.Extraction,
		System:      extractionSystemPrompt,
		Prompt:      extractionUserPrompt(cfg.Language),
		Images:      images,
		MaxTokens:   cfg.Limits.MaxTokens,
		Temperature: pipelineTemperature,
		Timeout:     cfg.Limits.RequestTimeout,
	})
	if err != nil {
		failure := o.classify(runCtx, cfg.Models.Extraction, err, "Processing was canceled by the user.")
		o.emitFailure(EventInitialError, runID, failure)
		return nil, o.finishInitial(runID, client, len(images), start, failure)
	}

	problem, err := normalize.ParseProblem(raw)
	if err != nil {
		failure := fault.From(err)
		o.emitFailure(EventInitialError, runID, failure)
		return nil, o.finishInitial(runID, client, len(images), start, failure)
	}

	o.mu.Lock()
	o.problem = problem
	o.mu.Unlock()

	o.sink.Emit(Event{Name: EventProblemExtracted, RunID: runID, Payload: problem})
	o.progress(runID, 40, "Problem analyzed successfully. Preparing to generate solution...")
	o.progress(runID, 60, "Creating optimal solution with detailed explanations...")

	prompt := solutionUserPrompt(problem, cfg.Language)
	if failure := o.preflight(cfg, cfg.Models.Solution, prompt); failure != nil {
		o.emitFailure(EventInitialError, runID, failure)
		return nil, o.finishInitial(runID, client, len(images), start, failure)
	}

	raw, err = client.SendText(runCtx, providers.Request{
		Model:       cfg.Models.Solution,
		System:      solutionSystemPrompt,
		Prompt:      prompt,
		MaxTokens:   cfg.Limits.MaxTokens,
		Temperature: pipelineTemperature,
		Timeout:     cfg.Limits.RequestTimeout,
	})
	if err != nil {
		// Problem context stays retained: a debug run can still proceed.
		failure := o.classify(runCtx, cfg.Models.Solution, err, "Processing was canceled by the user.")
		o.emitFailure(EventInitialError, runID, failure)
		return nil, o.finishInitial(runID, client, len(images), start, failure)
	}

	solution := normalize.ParseSolution(raw)
	o.progress(runID, 100, "Solution generated successfully")

	if err := o.store.ClearExtra(); err != nil {
		log.Warn().Err(err).Str("run_id", runID).Msg("failed to clear extra screenshot queue")
	}

	o.sink.Emit(Event{Name: EventSolutionSuccess, RunID: runID, Payload: solution})
	return solution, o.finishInitial(runID, client, len(images), start, nil)
}

// RunDebug executes the debug group over the combined queues. It requires the
// problem context retained by a prior extraction.
func (o *Orchestrator) RunDebug(ctx context.Context) (*normalize.DebugResult, error) {
	o.mu.Lock()
	cfg := o.cfg
	problem := o.problem
	o.mu.Unlock()

	if problem == nil {
		return nil, fault.New(fault.NoProblemContext,
			"No problem context available. Please extract a problem first using screenshots.")
	}

	client, err := o.registry.Active()
	if err != nil {
		o.sink.Emit(Event{Name: EventAPIKeyInvalid, Message: err.Error()})
		return nil, err
	}

	runCtx, runID := o.begin(ctx, GroupExtraDebug)
	defer o.end(GroupExtraDebug, runID)
	start := time.Now()

	o.sink.Emit(Event{Name: EventDebugStart, RunID: runID})
	o.progress(runID, 30, "Processing debug screenshots...")

	// Original-queue screenshots come first so the model sees the code before
	// the failure evidence.
	paths := append(o.store.Queue(), o.store.ExtraQueue()...)
	images := o.loadImages(paths)
	if len(images) == 0 {
		o.sink.Emit(Event{Name: EventNoScreenshots, RunID: runID})
		return nil, o.finishDebug(runID, client, len(images), start,
			fault.New(fault.NoScreenshots, "No screenshots to process. Please take a screenshot first."))
	}

	o.progress(runID, 60, "Analyzing code and generating debug feedback...")

	raw, err := client.SendMultimodal(runCtx, providers.Request{
		Model:       cfg.Models.Debugging,
		System:      debugSystemPrompt,
		Prompt:      debugUserPrompt(problem, cfg.Language),
		Images:      images,
		MaxTokens:   cfg.Limits.MaxTokens,
		Temperature: pipelineTemperature,
		Timeout:     cfg.Limits.RequestTimeout,
	})
	if err != nil {
		failure := o.classify(runCtx, cfg.Models.Debugging, err, "Extra processing was canceled by the user.")
		o.emitFailure(EventDebugError, runID, failure)
		return nil, o.finishDebug(runID, client, len(images), start, failure)
	}

	result := normalize.ParseDebug(raw)
	o.progress(runID, 100, "Debug analysis complete")
	o.sink.Emit(Event{Name: EventDebugSuccess, RunID: runID, Payload: result})
	return result, o.finishDebug(runID, client, len(images), start, nil)
}

// loadImages reads screenshots concurrently, base64-encodes them, and drops
// files that vanished between listing and reading. Order is preserved.
func (o *Orchestrator) loadImages(paths []string) []string {
	encoded := make([]string, len(paths))
	var wg sync.WaitGroup
	for i, path := range paths {
		if !o.store.Exists(path) {
			log.Warn().Str("path", path).Msg("screenshot missing, skipping")
			continue
		}
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			data, err := o.store.Read(path)
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("failed to read screenshot, skipping")
				return
			}
			encoded[i] = base64.StdEncoding.EncodeToString(data)
		}(i, path)
	}
	wg.Wait()

	images := make([]string, 0, len(encoded))
	for _, img := range encoded {
		if img != "" {
			images = append(images, img)
		}
	}
	return images
}

// preflight rejects prompts that would blow the provider's context window
// before any network round-trip. Disabled when max_prompt_tokens is 0.
func (o *Orchestrator) preflight(cfg *config.Config, model, prompt string) *fault.Failure {
	if cfg.Limits.MaxPromptTokens <= 0 {
		return nil
	}
	if n := providers.EstimateTokens(model, prompt); n > cfg.Limits.MaxPromptTokens {
		log.Warn().Int("estimated_tokens", n).Int("limit", cfg.Limits.MaxPromptTokens).Msg("prompt over token budget")
		return fault.New(fault.ProviderPayloadTooLarge,
			"Your screenshots contain too much information to process. Try fewer or clearer screenshots, or switch provider in settings.")
	}
	return nil
}

// classify maps a stage error to its boundary failure. A run context that was
// cancelled wins over whatever the transport reported.
func (o *Orchestrator) classify(runCtx context.Context, model string, err error, cancelMsg string) *fault.Failure {
	if errors.Is(runCtx.Err(), context.Canceled) {
		return fault.New(fault.Cancelled, cancelMsg)
	}
	return o.guard.Classify(model, err)
}

func (o *Orchestrator) emitFailure(event, runID string, failure *fault.Failure) {
	if failure.Kind == fault.ProviderAuthError {
		o.sink.Emit(Event{Name: EventAPIKeyInvalid, RunID: runID, Message: failure.Message})
		return
	}
	o.sink.Emit(Event{Name: event, RunID: runID, Message: failure.Message, Payload: failure})
}

func (o *Orchestrator) progress(runID string, progress int, message string) {
	log.Info().Str("run_id", runID).Int("progress", progress).Msg(message)
	o.sink.Emit(Event{Name: EventProcessingStatus, RunID: runID, Progress: progress, Message: message})
}

func (o *Orchestrator) finishInitial(runID string, client providers.Client, screenshots int, start time.Time, failure *fault.Failure) error {
	return o.record("initial", runID, client, screenshots, start, failure)
}

func (o *Orchestrator) finishDebug(runID string, client providers.Client, screenshots int, start time.Time, failure *fault.Failure) error {
	return o.record("debug", runID, client, screenshots, start, failure)
}

// record writes the run to history and passes the failure through so call
// sites can record and return in one statement.
func (o *Orchestrator) record(kind, runID string, client providers.Client, screenshots int, start time.Time, failure *fault.Failure) error {
	entry := history.RunEntry{
		ID:          runID,
		Kind:        kind,
		Provider:    client.Name(),
		Model:       "",
		Screenshots: screenshots,
		Success:     failure == nil,
		Duration:    time.Since(start),
	}
	o.mu.Lock()
	cfg := o.cfg
	o.mu.Unlock()
	if kind == "debug" {
		entry.Model = cfg.Models.Debugging
	} else {
		entry.Model = cfg.Models.Solution
	}
	if failure != nil {
		entry.FailureKind = string(failure.Kind)
	}
	o.recorder.RecordRun(entry)

	if failure == nil {
		return nil
	}
	return failure
}
