package generation

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"declgen/internal/observability"
	"declgen/internal/resolution"
)

// ErrEmptyRoot is returned when Generate is called without a root name.
var ErrEmptyRoot = errors.New("root name is empty")

// ResolvedEntity is the model handed to the Emitter: one declaration with
// its base types and members resolved, in declaration order.
type ResolvedEntity struct {
	QualifiedName string
	LocalName     string
	Namespace     string
	BaseTypeNames []string
	Members       []resolution.MemberDescriptor
}

// Emitter turns a resolved entity into an artifact. Implementations must be
// safe for concurrent use when GenerateAll runs with parallelism > 1.
type Emitter interface {
	Emit(entity ResolvedEntity) error
}

// EntityError reports a failure that was confined to one entity.
type EntityError struct {
	QualifiedName string
	Err           error
}

func (e *EntityError) Error() string {
	return fmt.Sprintf("%s: %v", e.QualifiedName, e.Err)
}

func (e *EntityError) Unwrap() error {
	return e.Err
}

// Report summarizes one run.
type Report struct {
	RunID    string
	Root     string
	Emitted  []string
	Dropped  []string
	Failed   []string
	Deferred int
	Duration time.Duration
}

type Generator struct {
	index    *resolution.Index
	resolver *resolution.Resolver
	emitter  Emitter
	logger   *zap.SugaredLogger
	metrics  *observability.Metrics
}

type Option func(*Generator)

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(generator *Generator) {
		if logger != nil {
			generator.logger = logger
		}
	}
}

func WithMetrics(metrics *observability.Metrics) Option {
	return func(generator *Generator) {
		generator.metrics = metrics
	}
}

// NewGenerator wires the scheduler. index, resolver and emitter are shared
// by every run started from the returned Generator.
func NewGenerator(index *resolution.Index, resolver *resolution.Resolver, emitter Emitter, opts ...Option) *Generator {
	generator := &Generator{
		index:    index,
		resolver: resolver,
		emitter:  emitter,
		logger:   zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(generator)
	}
	return generator
}

// Generate emits root and every declaration reachable from it through base
// types and referenced member types, each exactly once. Per-entity failures
// do not stop the run; they are returned together once the queue is empty.
func (generator *Generator) Generate(root string) (*Report, error) {
	if root == "" {
		return nil, ErrEmptyRoot
	}

	run := generator.newRun(root)
	started := time.Now()
	run.logger.Debugw("Generation started")

	run.generate(root)

	run.report.Duration = time.Since(started)
	generator.metrics.ObserveRun(run.report.Duration)
	run.logger.Infow("Generation finished",
		"emitted", len(run.report.Emitted),
		"dropped", len(run.report.Dropped),
		"failed", len(run.report.Failed),
		"deferred", run.report.Deferred,
		"duration", run.report.Duration)

	return run.report, run.errs
}

// runContext is the mutable state of one run. It is never shared.
type runContext struct {
	generator *Generator
	logger    *zap.SugaredLogger
	visited   map[string]bool
	dropped   map[string]bool
	pending   []string
	busy      bool
	report    *Report
	errs      error
}

func (generator *Generator) newRun(root string) *runContext {
	runID := uuid.NewString()
	return &runContext{
		generator: generator,
		logger:    generator.logger.With("run", runID, "root", root),
		visited:   make(map[string]bool),
		dropped:   make(map[string]bool),
		pending:   make([]string, 0),
		report: &Report{
			RunID:   runID,
			Root:    root,
			Emitted: make([]string, 0),
			Dropped: make([]string, 0),
			Failed:  make([]string, 0),
		},
	}
}

// generate is the trampoline. While an entity is being assembled every
// further name is deferred to the pending queue; otherwise the loop keeps
// draining the queue until it is empty.
func (run *runContext) generate(name string) {
	if run.busy {
		run.enqueue(name)
		return
	}

	for ok := true; ok; name, ok = run.dequeue() {
		run.attempt(name)
	}
}

func (run *runContext) enqueue(name string) {
	if run.visited[name] {
		return
	}
	run.pending = append(run.pending, name)
	run.report.Deferred++
	run.generator.metrics.ObserveDeferred()
}

func (run *runContext) dequeue() (string, bool) {
	if len(run.pending) == 0 {
		return "", false
	}
	name := run.pending[0]
	run.pending[0] = ""
	run.pending = run.pending[1:]
	return name, true
}

func (run *runContext) attempt(name string) {
	if run.visited[name] {
		return
	}

	entry, found := run.generator.index.Lookup(name)
	if !found {
		if !run.dropped[name] {
			run.dropped[name] = true
			run.report.Dropped = append(run.report.Dropped, name)
			run.generator.metrics.ObserveDropped()
			run.logger.Infow("No declaration found, dropping reference", "name", name)
		}
		return
	}

	if err := run.assembleAndEmit(entry); err != nil {
		run.report.Failed = append(run.report.Failed, name)
		run.generator.metrics.ObserveFailed()
		run.logger.Errorw("Entity generation failed", "name", name, "error", err)
		run.errs = multierr.Append(run.errs, &EntityError{QualifiedName: name, Err: err})
		return
	}

	run.report.Emitted = append(run.report.Emitted, name)
	run.generator.metrics.ObserveEmitted()
}

func (run *runContext) assembleAndEmit(entry resolution.Entry) error {
	run.busy = true
	defer func() {
		run.visited[entry.QualifiedName] = true
		run.busy = false
	}()

	entity, err := run.assemble(entry)
	if err != nil {
		return errors.Wrap(err, "could not resolve members")
	}

	if err := run.generator.emitter.Emit(entity); err != nil {
		return errors.Wrap(err, "could not emit")
	}
	return nil
}

func (run *runContext) assemble(entry resolution.Entry) (ResolvedEntity, error) {
	resolver := run.generator.resolver

	baseTypeNames := resolver.BaseTypeNames(entry.Declaration, entry.Namespace)
	for _, base := range baseTypeNames {
		if !run.visited[base] {
			// busy is set, so this defers instead of recursing
			run.generate(base)
		}
	}

	references := make(resolution.References, 0)
	defer func() {
		for _, reference := range references {
			run.enqueue(reference)
		}
	}()

	members := make([]resolution.MemberDescriptor, 0, len(entry.Declaration.MemberNodes()))
	for _, node := range entry.Declaration.MemberNodes() {
		member, ok, err := resolver.ResolveMember(node, entry.Namespace, &references)
		if err != nil {
			return ResolvedEntity{}, err
		}
		if ok {
			members = append(members, member)
		}
	}

	return ResolvedEntity{
		QualifiedName: entry.QualifiedName,
		LocalName:     entry.LocalName(),
		Namespace:     entry.Namespace,
		BaseTypeNames: baseTypeNames,
		Members:       members,
	}, nil
}
