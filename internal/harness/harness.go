package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/roach88/santa/internal/command"
	"github.com/roach88/santa/internal/derange"
	"github.com/roach88/santa/internal/exchange"
	"github.com/roach88/santa/internal/notify"
	"github.com/roach88/santa/internal/store"
)

// scenarioEpoch is the fixed time every scenario runs at.
var scenarioEpoch = time.Date(2025, time.December, 1, 12, 0, 0, 0, time.UTC)

// defaultLocale keeps golden traces readable regardless of the server default.
const defaultLocale = "en"

// scriptedGateway delivers according to each participant's scenario flags
// and records every attempt in the trace.
type scriptedGateway struct {
	participants map[string]Participant
	record       func(TraceEvent)
	counts       map[string]map[notify.Kind]int
}

func (g *scriptedGateway) Deliver(_ context.Context, participantID string, msg notify.Message) error {
	event := TraceEvent{
		Type:        EventDelivery,
		Participant: participantID,
		Kind:        string(msg.Kind),
	}
	if msg.Parcel != nil {
		event.Recipient = msg.Parcel.RecipientLabel
	}

	p := g.participants[participantID]
	var err error
	switch {
	case p.Unreachable:
		event.Outcome = string(store.OutcomeUnreachable)
		err = fmt.Errorf("deliver to %s: %w", participantID, notify.ErrUnreachable)
	case p.Broken:
		event.Outcome = string(store.OutcomeTransportFailure)
		err = fmt.Errorf("deliver to %s: connection reset", participantID)
	default:
		event.Outcome = string(store.OutcomeDelivered)
		if g.counts[participantID] == nil {
			g.counts[participantID] = map[notify.Kind]int{}
		}
		g.counts[participantID][msg.Kind]++
	}
	g.record(event)
	return err
}

// Run executes a scenario against a fresh in-memory store.
// Returns an error only if the harness itself cannot run; scenario failures
// are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	result := NewResult()
	clock := exchange.NewClock()
	record := func(e TraceEvent) {
		e.Seq = clock.Next()
		result.Trace = append(result.Trace, e)
	}

	participants := make(map[string]Participant, len(scenario.Participants))
	for _, p := range scenario.Participants {
		participants[p.ID] = p
	}
	gw := &scriptedGateway{
		participants: participants,
		record:       record,
		counts:       map[string]map[notify.Kind]int{},
	}

	locale := scenario.Locale
	if locale == "" {
		locale = defaultLocale
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	runIDs := make([]string, 0, len(scenario.Flow))
	for i := range scenario.Flow {
		runIDs = append(runIDs, fmt.Sprintf("run-%d", i+1))
	}
	orch := exchange.New(st, gw,
		exchange.WithOperator(scenario.Operator),
		exchange.WithJournal(st),
		exchange.WithRunLock(st),
		exchange.WithRunIDs(exchange.NewFixedGenerator(runIDs...)),
		exchange.WithNow(func() time.Time { return scenarioEpoch }),
		exchange.WithLogger(logger),
		exchange.WithDerangeOptions(shuffleOptions(scenario)...),
	)
	dispatcher := command.NewDispatcher(orch, notify.NewRenderer(locale), logger)

	if err := executeSetup(ctx, dispatcher, scenario.Participants); err != nil {
		return nil, fmt.Errorf("setup failed: %w", err)
	}

	executeFlow(ctx, dispatcher, scenario.Flow, record, result)

	roster, err := st.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster: %w", err)
	}
	for id, p := range roster {
		if p.Assigned() {
			result.Assignments[id] = p.AssignedTarget
		}
	}
	runs, err := st.ListRuns(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	result.Journaled = len(runs)

	actx := &assertionContext{
		participants: scenario.Participants,
		deliveries:   gw.counts,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// shuffleOptions picks the derangement source for a scenario.
func shuffleOptions(s *Scenario) []derange.Option {
	if s.Shuffle == ShuffleSeeded {
		rng := rand.New(rand.NewPCG(s.Seed, s.Seed))
		return []derange.Option{derange.WithShuffler(rng.Shuffle)}
	}
	// The identity never deranges, so one trial always ends in the rotation.
	return []derange.Option{
		derange.WithShuffler(func(int, func(i, j int)) {}),
		derange.WithMaxTrials(1),
	}
}

// executeSetup registers every participant through a private-message
// submission. Setup requests are not traced.
func executeSetup(ctx context.Context, d *command.Dispatcher, participants []Participant) error {
	for _, p := range participants {
		reply := d.Handle(ctx, command.Request{
			Kind:    command.KindSubmitProfile,
			Channel: command.ChannelDM,
			Sender:  p.ID,
			Profile: &command.ProfileFields{
				Recipient:   p.Recipient,
				Ozon:        p.Ozon,
				Wildberries: p.Wildberries,
				Yandex:      p.Yandex,
				Note:        p.Note,
			},
		}, nil)
		if !reply.OK {
			return fmt.Errorf("register %s: %s: %s", p.ID, reply.Code, reply.Text)
		}
	}
	return nil
}

// executeFlow runs each step, tracing requests, acks and replies around the
// deliveries the gateway records.
func executeFlow(ctx context.Context, d *command.Dispatcher, flow []FlowStep, record func(TraceEvent), result *Result) {
	for i, step := range flow {
		req := buildRequest(step)
		record(TraceEvent{
			Type:        EventRequest,
			Participant: req.Sender,
			Kind:        string(req.Kind),
		})

		reply := d.Handle(ctx, req, func(ack command.Reply) {
			record(TraceEvent{
				Type:        EventAck,
				Participant: req.Sender,
				Code:        ack.Code,
				Text:        ack.Text,
			})
		})
		record(TraceEvent{
			Type:        EventReply,
			Participant: req.Sender,
			Code:        reply.Code,
			Text:        reply.Text,
		})
		if reply.Summary != nil {
			result.Summaries = append(result.Summaries, *reply.Summary)
		}

		if step.Expect == nil {
			continue
		}
		if reply.OK != step.Expect.OK {
			result.AddError(fmt.Sprintf("flow[%d] %s: expected ok=%t, got ok=%t (%s)",
				i, step.Invoke, step.Expect.OK, reply.OK, reply.Code))
		}
		if reply.Code != step.Expect.Code {
			result.AddError(fmt.Sprintf("flow[%d] %s: expected code %q, got %q",
				i, step.Invoke, step.Expect.Code, reply.Code))
		}
	}
}

func buildRequest(step FlowStep) command.Request {
	req := command.Request{
		Kind:    command.Kind(step.Invoke),
		Channel: command.Channel(step.Channel),
		Sender:  step.Sender,
		Note:    step.Note,
	}
	if req.Channel == "" {
		req.Channel = command.ChannelDM
	}
	if step.Profile != nil {
		req.Profile = &command.ProfileFields{
			Recipient:   step.Profile.Recipient,
			Ozon:        step.Profile.Ozon,
			Wildberries: step.Profile.Wildberries,
			Yandex:      step.Profile.Yandex,
			Note:        step.Profile.Note,
		}
	}
	if step.Attachment != "" {
		req.Attachment = &notify.Attachment{URL: step.Attachment}
	}
	return req
}
