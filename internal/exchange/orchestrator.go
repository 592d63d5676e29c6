package exchange

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/roach88/santa/internal/derange"
	"github.com/roach88/santa/internal/metrics"
	"github.com/roach88/santa/internal/notify"
	"github.com/roach88/santa/internal/profile"
	"github.com/roach88/santa/internal/store"
)

// Roster is the participant store the orchestrator reads and writes.
// Implemented by *store.Store and *store.Memory.
type Roster interface {
	UpsertProfile(ctx context.Context, p profile.GiftProfile) (profile.GiftProfile, error)
	Get(ctx context.Context, id string) (profile.GiftProfile, error)
	GetAll(ctx context.Context) (map[string]profile.GiftProfile, error)
	SetAssignments(ctx context.Context, assignments map[string]string) error
}

// Journal records finished runs.
type Journal interface {
	RecordRun(ctx context.Context, run store.Run) error
}

// RunLock is a lease shared by every process using the same roster.
// Implemented by *store.Store and *store.Memory.
type RunLock interface {
	AcquireRunLock(ctx context.Context, owner string, now time.Time, ttl time.Duration) error
	ReleaseRunLock(ctx context.Context, owner string) error
}

// runLease bounds how long a crashed process can block other runs.
const runLease = 10 * time.Minute

// State is the phase of the most recent exchange.
type State int

const (
	StateIdle State = iota
	StateCollecting
	StateAssigned
	StateNotifying
	StateCompleted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCollecting:
		return "collecting"
	case StateAssigned:
		return "assigned"
	case StateNotifying:
		return "notifying"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Summary reports one exchange run. Deliveries name every target, so they
// are kept out of its JSON form and only reach the journal.
type Summary struct {
	RunID           string           `json:"run_id"`
	Total           int              `json:"total"`
	Delivered       int              `json:"delivered"`
	Unreachable     int              `json:"unreachable"`
	TransportFailed int              `json:"transport_failed"`
	Skipped         int              `json:"skipped"`
	Trials          int              `json:"trials"`
	Fallback        bool             `json:"fallback"`
	StartedAt       time.Time        `json:"started_at"`
	FinishedAt      time.Time        `json:"finished_at"`
	Deliveries      []store.Delivery `json:"-"`
}

// Failed returns the participants whose notification failed, in attempt
// order. Skipped participants are not included.
func (s Summary) Failed() []string {
	failed := []string{}
	for _, d := range s.Deliveries {
		if d.Outcome == store.OutcomeUnreachable || d.Outcome == store.OutcomeTransportFailure {
			failed = append(failed, d.ParticipantID)
		}
	}
	return failed
}

func (s *Summary) add(d store.Delivery) {
	s.Deliveries = append(s.Deliveries, d)
	switch d.Outcome {
	case store.OutcomeDelivered:
		s.Delivered++
	case store.OutcomeUnreachable:
		s.Unreachable++
	case store.OutcomeTransportFailure:
		s.TransportFailed++
	case store.OutcomeSkipped:
		s.Skipped++
	}
}

// Orchestrator coordinates the roster, the derangement and the gateway.
type Orchestrator struct {
	roster      Roster
	gateway     notify.Gateway
	operatorID  string
	journal     Journal
	metrics     metrics.Collector
	runIDs      RunIDGenerator
	logger      *slog.Logger
	now         func() time.Time
	derangeOpts []derange.Option
	lock        RunLock

	// running is held for the whole of Run; TryLock rejects overlapping runs.
	running sync.Mutex

	mu    sync.Mutex
	state State
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithOperator sets the only participant allowed to start a run.
// Without it every Run is denied.
func WithOperator(id string) Option {
	return func(o *Orchestrator) {
		o.operatorID = id
	}
}

// WithJournal records every run that committed assignments.
func WithJournal(j Journal) Option {
	return func(o *Orchestrator) {
		o.journal = j
	}
}

// WithRunLock makes Run also hold l, so processes sharing a database reject
// each other's runs with ErrCodeInProgress.
func WithRunLock(l RunLock) Option {
	return func(o *Orchestrator) {
		o.lock = l
	}
}

// WithMetrics reports to c instead of discarding measurements.
func WithMetrics(c metrics.Collector) Option {
	return func(o *Orchestrator) {
		if c != nil {
			o.metrics = c
		}
	}
}

// WithRunIDs replaces the UUIDv7 run id generator.
func WithRunIDs(g RunIDGenerator) Option {
	return func(o *Orchestrator) {
		o.runIDs = g
	}
}

// WithLogger replaces slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithNow replaces time.Now for run timestamps.
func WithNow(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithDerangeOptions passes options to every derangement, such as
// derange.WithMaxTrials.
func WithDerangeOptions(opts ...derange.Option) Option {
	return func(o *Orchestrator) {
		o.derangeOpts = append(o.derangeOpts, opts...)
	}
}

// New creates an Orchestrator over roster that notifies through gw.
func New(roster Roster, gw notify.Gateway, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		roster:  roster,
		gateway: gw,
		metrics: metrics.NewNop(),
		runIDs:  UUIDv7Generator{},
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the phase of the most recent exchange.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = s
}

// Register normalizes p and stores it. A participant who already has an
// assignment keeps it, so resubmitting details after a run does not cut
// them out of the exchange. Returns the stored profile.
func (o *Orchestrator) Register(ctx context.Context, p profile.GiftProfile) (profile.GiftProfile, error) {
	norm, err := profile.Normalize(p)
	if err != nil {
		return profile.GiftProfile{}, &Error{
			Code:        ErrCodeInvalidProfile,
			Message:     "profile rejected",
			Participant: p.ParticipantID,
			Err:         err,
		}
	}

	stored, err := o.roster.UpsertProfile(ctx, norm)
	if err != nil {
		return profile.GiftProfile{}, newTransportError("save profile", norm.ParticipantID, err)
	}

	o.mu.Lock()
	if o.state == StateIdle {
		o.state = StateCollecting
	}
	o.mu.Unlock()

	if all, err := o.roster.GetAll(ctx); err == nil {
		o.metrics.SetParticipants(len(all))
	}

	o.logger.Info("profile registered",
		"participant", stored.ParticipantID,
		"assigned", stored.Assigned(),
	)
	return stored, nil
}

// Authorize reports whether operatorID may start an exchange. It lets a
// command surface reject a caller before acknowledging the request.
func (o *Orchestrator) Authorize(operatorID string) error {
	if o.operatorID == "" || operatorID != o.operatorID {
		return newPermissionError(operatorID)
	}
	return nil
}

// Run assigns every registered participant a recipient and notifies each
// giver. operatorID must match the configured operator.
//
// Errors before the assignment write leave the roster untouched. Once
// assignments are committed, Run always returns a Summary; delivery
// failures are counted in it rather than returned. A journal failure is
// returned as ErrCodeTransportFailure alongside the Summary.
func (o *Orchestrator) Run(ctx context.Context, operatorID string) (Summary, error) {
	started := o.now()

	if err := o.Authorize(operatorID); err != nil {
		o.logger.Warn("exchange denied", "caller", operatorID)
		o.metrics.RecordRun(metrics.RunDenied, 0)
		return Summary{}, err
	}

	if !o.running.TryLock() {
		o.metrics.RecordRun(metrics.RunBusy, 0)
		return Summary{}, &Error{Code: ErrCodeInProgress, Message: "an exchange is already running"}
	}
	defer o.running.Unlock()

	if o.lock != nil {
		owner := UUIDv7Generator{}.Generate()
		err := o.lock.AcquireRunLock(ctx, owner, started, runLease)
		switch {
		case errors.Is(err, store.ErrRunLocked):
			o.metrics.RecordRun(metrics.RunBusy, 0)
			return Summary{}, &Error{Code: ErrCodeInProgress, Message: "an exchange is running in another process", Err: err}
		case err != nil:
			o.metrics.RecordRun(metrics.RunFailed, 0)
			return Summary{}, newTransportError("acquire run lock", "", err)
		}
		defer func() {
			if err := o.lock.ReleaseRunLock(context.WithoutCancel(ctx), owner); err != nil {
				o.logger.Error("run lock not released", "error", err)
			}
		}()
	}

	summary, err := o.run(ctx, operatorID, started)
	elapsed := o.now().Sub(started).Seconds()
	switch {
	case err == nil, summary.RunID != "":
		o.metrics.RecordRun(metrics.RunCompleted, elapsed)
	case IsInsufficientParticipants(err):
		o.metrics.RecordRun(metrics.RunInsufficient, elapsed)
	default:
		o.metrics.RecordRun(metrics.RunFailed, elapsed)
	}
	return summary, err
}

func (o *Orchestrator) run(ctx context.Context, operatorID string, started time.Time) (Summary, error) {
	all, err := o.roster.GetAll(ctx)
	if err != nil {
		return Summary{}, newTransportError("load roster", "", err)
	}
	o.metrics.SetParticipants(len(all))

	if len(all) < 2 {
		return Summary{}, newInsufficientError(len(all))
	}

	// Any order is valid; sorting makes logs and fixed-shuffle tests reproducible.
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	result, err := derange.Derange(ids, o.derangeOpts...)
	if err != nil {
		return Summary{}, newTransportError("derange roster", "", err)
	}
	o.metrics.RecordDerangement(result.Trials, result.Fallback)

	assignments := make(map[string]string, len(ids))
	for i, giver := range ids {
		assignments[giver] = result.Permutation[i]
	}
	if err := o.roster.SetAssignments(ctx, assignments); err != nil {
		return Summary{}, newTransportError("write assignments", "", err)
	}
	o.setState(StateAssigned)

	summary := Summary{
		RunID:      o.runIDs.Generate(),
		Total:      len(ids),
		Trials:     result.Trials,
		Fallback:   result.Fallback,
		StartedAt:  started,
		Deliveries: make([]store.Delivery, 0, len(ids)),
	}
	logger := o.logger.With("run", summary.RunID)
	logger.Info("assignments committed",
		"participants", summary.Total,
		"trials", summary.Trials,
		"fallback", summary.Fallback,
	)

	o.setState(StateNotifying)
	clock := NewClock()
	for i, giver := range ids {
		d := store.Delivery{
			RunID:         summary.RunID,
			Seq:           clock.Next(),
			ParticipantID: giver,
			TargetID:      result.Permutation[i],
		}
		outcome, err := o.deliverAssignment(ctx, giver, d.TargetID)
		d.Outcome = outcome
		if err != nil {
			d.Error = err.Error()
			logger.Warn("assignment not delivered",
				"participant", giver,
				"outcome", outcome,
				"error", err,
			)
		}
		o.metrics.RecordDelivery(string(outcome))
		summary.add(d)
	}
	summary.FinishedAt = o.now()
	o.setState(StateCompleted)

	logger.Info("exchange completed",
		"delivered", summary.Delivered,
		"unreachable", summary.Unreachable,
		"transport_failed", summary.TransportFailed,
		"skipped", summary.Skipped,
	)

	if o.journal != nil {
		run := store.Run{
			ID:           summary.RunID,
			OperatorID:   operatorID,
			Participants: summary.Total,
			Trials:       summary.Trials,
			Fallback:     summary.Fallback,
			StartedAt:    summary.StartedAt,
			FinishedAt:   summary.FinishedAt,
			Deliveries:   summary.Deliveries,
		}
		if err := o.journal.RecordRun(ctx, run); err != nil {
			logger.Error("run journal not written", "error", err)
			return summary, newTransportError("record run", "", err)
		}
	}
	return summary, nil
}

// deliverAssignment tells giver about target. A missing target profile is
// skipped; the loop continues either way.
func (o *Orchestrator) deliverAssignment(ctx context.Context, giver, target string) (store.Outcome, error) {
	recipient, err := o.roster.Get(ctx, target)
	if errors.Is(err, store.ErrNotFound) {
		return store.OutcomeSkipped, err
	}
	if err != nil {
		return store.OutcomeTransportFailure, err
	}

	err = o.gateway.Deliver(ctx, giver, notify.AssignmentMessage(recipient.Parcel()))
	switch {
	case err == nil:
		return store.OutcomeDelivered, nil
	case notify.IsUnreachable(err):
		return store.OutcomeUnreachable, err
	default:
		return store.OutcomeTransportFailure, err
	}
}

// Forward sends att and note from senderID to the participant they give to.
func (o *Orchestrator) Forward(ctx context.Context, senderID string, att notify.Attachment, note string) error {
	sender, err := o.roster.Get(ctx, senderID)
	switch {
	case errors.Is(err, store.ErrNotFound), err == nil && !sender.Assigned():
		o.metrics.RecordForward(metrics.ForwardIneligible)
		return &Error{
			Code:        ErrCodeNotEligible,
			Message:     "sender has no assignment",
			Participant: senderID,
		}
	case err != nil:
		o.metrics.RecordForward(metrics.ForwardFailed)
		return newTransportError("load sender", senderID, err)
	}

	target := sender.AssignedTarget
	err = o.gateway.Deliver(ctx, target, notify.GiftMessage(att, note))
	switch {
	case err == nil:
		o.metrics.RecordForward(metrics.ForwardSent)
		o.logger.Info("gift forwarded", "sender", senderID)
		return nil
	case notify.IsUnreachable(err):
		o.metrics.RecordForward(metrics.ForwardUnreachable)
		return &Error{
			Code:        ErrCodeUnreachable,
			Message:     "recipient does not accept private messages",
			Participant: target,
			Err:         err,
		}
	default:
		o.metrics.RecordForward(metrics.ForwardFailed)
		return newTransportError("forward gift", target, err)
	}
}
