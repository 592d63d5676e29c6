package harness

import "github.com/roach88/santa/internal/exchange"

// Trace event types.
const (
	EventRequest  = "request"
	EventAck      = "ack"
	EventReply    = "reply"
	EventDelivery = "delivery"
)

// TraceEvent is one observable step of a scenario.
type TraceEvent struct {
	Seq         int64  `json:"seq"`
	Type        string `json:"type"`
	Participant string `json:"participant"`
	Kind        string `json:"kind,omitempty"`

	// Recipient is the label in an assignment delivery.
	Recipient string `json:"recipient,omitempty"`

	// Outcome is set on deliveries.
	Outcome string `json:"outcome,omitempty"`

	// Code and Text are set on acks and replies.
	Code string `json:"code,omitempty"`
	Text string `json:"text,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace lists requests, replies and deliveries in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Assignments maps each assigned participant to their target.
	Assignments map[string]string `json:"assignments"`

	// Summaries holds the summary of every exchange the flow ran.
	Summaries []exchange.Summary `json:"-"`

	// Journaled is the number of runs in the journal.
	Journaled int `json:"journaled"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:        true,
		Trace:       []TraceEvent{},
		Errors:      []string{},
		Assignments: map[string]string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// lastSummary returns the summary of the most recent exchange, if any.
func (r *Result) lastSummary() (exchange.Summary, bool) {
	if len(r.Summaries) == 0 {
		return exchange.Summary{}, false
	}
	return r.Summaries[len(r.Summaries)-1], true
}
