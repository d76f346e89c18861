// Package lifecycle drives tenant-data erasure triggered by authenticated
// bus notifications.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/tidemark-io/tidemark"
)

// Stage is a step of the wipe workflow.
type Stage string

const (
	StageReceived          Stage = "received"
	StageValidating        Stage = "validating"
	StageDeletingDocuments Stage = "deleting-documents"
	StageDeletingObjects   Stage = "deleting-objects"
	StageCompleted         Stage = "completed"
	StageFailed            Stage = "failed"
)

// Orchestrator consumes wipe requests and drives bulk deletion across the
// document store and the object store.
//
// The two deletion stages run sequentially within one invocation. There is
// no global lock: wipes for different workspaces run concurrently, and two
// wipes for the same workspace are not deduplicated — re-deleting already
// deleted data succeeds, so duplicates are wasteful, not harmful. No
// rollback is attempted on failure; partial deletion is recoverable by
// re-running.
type Orchestrator struct {
	log     *zap.Logger
	docs    tidemark.DocumentStore
	objects tidemark.ObjectStore
	states  *StateStore
	auth    Authorizer
	metrics *orchestratorMetrics

	// buckets swept in the object stage; an empty name means the
	// gateway's default bucket.
	buckets []string
	// objectTTLDays is the short lifecycle expiration applied to the
	// workspace prefix instead of synchronous deletion.
	objectTTLDays int
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithBuckets sets the buckets swept during the object stage.
func WithBuckets(buckets ...string) OrchestratorOption {
	return func(o *Orchestrator) { o.buckets = buckets }
}

// WithObjectTTLDays sets the lifecycle expiration used for object cleanup.
func WithObjectTTLDays(days int) OrchestratorOption {
	return func(o *Orchestrator) { o.objectTTLDays = days }
}

// WithAuthorizer replaces the default open authorizer.
func WithAuthorizer(auth Authorizer) OrchestratorOption {
	return func(o *Orchestrator) { o.auth = auth }
}

// NewOrchestrator returns a wipe orchestrator.
func NewOrchestrator(log *zap.Logger, docs tidemark.DocumentStore, objects tidemark.ObjectStore, states *StateStore, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		log:           log,
		docs:          docs,
		objects:       objects,
		states:        states,
		auth:          OpenAuthorizer,
		metrics:       newOrchestratorMetrics(),
		buckets:       []string{""},
		objectTTLDays: 1,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Wipe runs the workflow Received → Validating → DeletingDocuments →
// DeletingObjects → Completed|Failed for one request. Failures are logged
// with workspace and stage for manual remediation.
func (o *Orchestrator) Wipe(ctx context.Context, req tidemark.WipeRequest) error {
	state := WipeState{
		ID:        uuid.NewString(),
		Workspace: req.Workspace,
		Stage:     StageReceived,
	}
	log := o.log.With(
		zap.String("workspace", req.Workspace),
		zap.String("wipe_id", state.ID))

	o.transition(ctx, &state, StageReceived, nil)

	// Validating
	o.transition(ctx, &state, StageValidating, nil)
	if !tidemark.ValidWorkspaceID(req.Workspace) {
		err := tidemark.ErrWorkspaceIDRequired
		o.fail(ctx, log, &state, StageValidating, err)
		return err
	}
	if err := o.auth.AuthorizeWipe(ctx, req.Workspace); err != nil {
		o.fail(ctx, log, &state, StageValidating, err)
		return err
	}

	// DeletingDocuments. Deletion does not re-validate references; it
	// never creates new cross-workspace state.
	o.transition(ctx, &state, StageDeletingDocuments, nil)
	n, err := o.docs.DeleteByWorkspace(ctx, req.Workspace)
	if err != nil {
		o.fail(ctx, log, &state, StageDeletingDocuments, err)
		return err
	}
	log.Info("Workspace documents deleted", zap.Int("count", n))

	// DeletingObjects. A short-TTL lifecycle policy on the workspace
	// prefix trades immediacy for the backend's own sweep; eventual
	// purge is acceptable here.
	o.transition(ctx, &state, StageDeletingObjects, nil)
	prefix := req.Workspace + "/"
	var sweepErr error
	for _, bucket := range o.buckets {
		var opts []tidemark.ObjectOption
		if bucket != "" {
			opts = append(opts, tidemark.WithBucket(bucket))
		}
		ok, err := o.objects.ApplyLifecycle(ctx, prefix, o.objectTTLDays, opts...)
		if err != nil {
			sweepErr = multierror.Append(sweepErr, err)
			continue
		}
		if !ok {
			sweepErr = multierror.Append(sweepErr, fmt.Errorf("lifecycle policy not applied to bucket %q", bucket))
		}
	}
	if sweepErr != nil {
		o.fail(ctx, log, &state, StageDeletingObjects, sweepErr)
		return sweepErr
	}

	o.transition(ctx, &state, StageCompleted, nil)
	log.Info("Workspace wipe completed")
	return nil
}

func (o *Orchestrator) transition(ctx context.Context, state *WipeState, stage Stage, err error) {
	state.Stage = stage
	if err != nil {
		state.Error = err.Error()
	}
	o.metrics.stages.WithLabelValues(string(stage)).Inc()
	if rerr := o.states.Record(ctx, *state); rerr != nil {
		// the wipe itself matters more than its audit trail
		o.log.Warn("Recording wipe state failed",
			zap.String("workspace", state.Workspace),
			zap.String("stage", string(stage)),
			zap.Error(rerr))
	}
}

func (o *Orchestrator) fail(ctx context.Context, log *zap.Logger, state *WipeState, at Stage, err error) {
	log.Error("Workspace wipe failed",
		zap.String("stage", string(at)),
		zap.Error(err))
	o.metrics.failures.WithLabelValues(string(at)).Inc()
	o.transition(ctx, state, StageFailed, err)
}

type orchestratorMetrics struct {
	stages   *prometheus.CounterVec
	failures *prometheus.CounterVec
}

func newOrchestratorMetrics() *orchestratorMetrics {
	return &orchestratorMetrics{
		stages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tidemark",
			Subsystem: "lifecycle",
			Name:      "wipe_stages_total",
			Help:      "Wipe workflow stage transitions.",
		}, []string{"stage"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tidemark",
			Subsystem: "lifecycle",
			Name:      "wipe_failures_total",
			Help:      "Wipe workflows failed, by stage.",
		}, []string{"stage"}),
	}
}

// PrometheusCollectors exposes the orchestrator's metrics for registration.
func (o *Orchestrator) PrometheusCollectors() []prometheus.Collector {
	return []prometheus.Collector{o.metrics.stages, o.metrics.failures}
}

var _ tidemark.WipeService = (*Orchestrator)(nil)
