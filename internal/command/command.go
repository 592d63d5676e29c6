// Package command turns participant requests into exchange operations and
// localized replies. It knows nothing about the transport: the hub and the
// CLI both build a Request and show the Reply.
package command

import (
	"context"
	"log/slog"
	"strings"

	"github.com/roach88/santa/internal/exchange"
	"github.com/roach88/santa/internal/notify"
	"github.com/roach88/santa/internal/profile"
)

// Kind names a request.
type Kind string

const (
	KindSubmitProfile Kind = "submit_profile"
	KindStartExchange Kind = "start_exchange"
	KindForward       Kind = "forward"
)

// Channel is where a request was made.
type Channel string

const (
	// ChannelDM is a private conversation between the system and one participant.
	ChannelDM Channel = "dm"

	// ChannelGuild is a shared group context.
	ChannelGuild Channel = "guild"
)

// Reply codes produced by the command surface itself. Exchange outcomes use
// the exchange.ErrorCode values.
const (
	CodeWrongChannel      = "WRONG_CHANNEL"
	CodeMissingAttachment = "MISSING_ATTACHMENT"
	CodeUnknownCommand    = "UNKNOWN_COMMAND"
)

// ProfileFields are the fields of a profile submission.
type ProfileFields struct {
	Recipient   string `json:"recipient"`
	Ozon        string `json:"ozon,omitempty"`
	Wildberries string `json:"wildberries,omitempty"`
	Yandex      string `json:"yandex,omitempty"`
	Note        string `json:"note,omitempty"`
}

// Request is one command from a participant.
type Request struct {
	Kind       Kind               `json:"type"`
	Channel    Channel            `json:"channel"`
	Sender     string             `json:"sender"`
	Profile    *ProfileFields     `json:"profile,omitempty"`
	Attachment *notify.Attachment `json:"attachment,omitempty"`
	Note       string             `json:"note,omitempty"`
}

// Reply is the acknowledgment shown to the requester. Every request gets one.
//
// Summary is for in-process callers only: it holds every giver's target and
// is never encoded. Report is the part the requester may see.
type Reply struct {
	OK      bool              `json:"ok"`
	Code    string            `json:"code,omitempty"`
	Text    string            `json:"text"`
	Report  *RunReport        `json:"report,omitempty"`
	Summary *exchange.Summary `json:"-"`
}

// RunReport is the operator's view of a run: counts and the participants
// who were not notified, never who gives to whom.
type RunReport struct {
	RunID           string   `json:"run_id"`
	Total           int      `json:"total"`
	Delivered       int      `json:"delivered"`
	Unreachable     int      `json:"unreachable"`
	TransportFailed int      `json:"transport_failed"`
	Skipped         int      `json:"skipped"`
	Failed          []string `json:"failed"`
}

func reportOf(s exchange.Summary) *RunReport {
	return &RunReport{
		RunID:           s.RunID,
		Total:           s.Total,
		Delivered:       s.Delivered,
		Unreachable:     s.Unreachable,
		TransportFailed: s.TransportFailed,
		Skipped:         s.Skipped,
		Failed:          s.Failed(),
	}
}

// Exchange is the part of *exchange.Orchestrator the dispatcher drives.
type Exchange interface {
	Authorize(operatorID string) error
	Register(ctx context.Context, p profile.GiftProfile) (profile.GiftProfile, error)
	Run(ctx context.Context, operatorID string) (exchange.Summary, error)
	Forward(ctx context.Context, senderID string, att notify.Attachment, note string) error
}

// Dispatcher handles requests against an Exchange.
type Dispatcher struct {
	ex       Exchange
	renderer *notify.Renderer
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher replying in r's locale. A nil logger
// uses slog.Default().
func NewDispatcher(ex Exchange, r *notify.Renderer, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{ex: ex, renderer: r, logger: logger}
}

// Handle runs req and returns its final reply.
//
// For start_exchange, ack (if non-nil) receives an interim reply once the
// operator is authorized and before the fan-out starts.
func (d *Dispatcher) Handle(ctx context.Context, req Request, ack func(Reply)) Reply {
	var reply Reply
	switch req.Kind {
	case KindSubmitProfile:
		reply = d.submitProfile(ctx, req)
	case KindStartExchange:
		reply = d.startExchange(ctx, req, ack)
	case KindForward:
		reply = d.forward(ctx, req)
	default:
		reply = d.fail(CodeUnknownCommand, "reply.unknown_command")
	}

	d.logger.Debug("command handled",
		"kind", req.Kind,
		"sender", req.Sender,
		"ok", reply.OK,
		"code", reply.Code,
	)
	return reply
}

func (d *Dispatcher) submitProfile(ctx context.Context, req Request) Reply {
	if req.Channel != ChannelDM {
		return d.fail(CodeWrongChannel, "reply.dm_only")
	}
	fields := ProfileFields{}
	if req.Profile != nil {
		fields = *req.Profile
	}

	_, err := d.ex.Register(ctx, profile.GiftProfile{
		ParticipantID:  req.Sender,
		RecipientLabel: fields.Recipient,
		Pickup: map[profile.Channel]string{
			profile.ChannelOzon:        fields.Ozon,
			profile.ChannelWildberries: fields.Wildberries,
			profile.ChannelYandex:      fields.Yandex,
		},
		Note: fields.Note,
	})
	switch {
	case err == nil:
		return d.ok("reply.profile_saved")
	case exchange.IsInvalidProfile(err):
		return d.fail(string(exchange.ErrCodeInvalidProfile), "reply.invalid_profile")
	default:
		d.logger.Error("profile not saved", "sender", req.Sender, "error", err)
		return d.fail(string(exchange.ErrCodeTransportFailure), "reply.storage_failed")
	}
}

func (d *Dispatcher) startExchange(ctx context.Context, req Request, ack func(Reply)) Reply {
	if err := d.ex.Authorize(req.Sender); err != nil {
		return d.fail(string(exchange.ErrCodePermissionDenied), "reply.operator_only")
	}
	if ack != nil {
		ack(d.ok("reply.exchange_accepted"))
	}

	summary, err := d.ex.Run(ctx, req.Sender)
	if err != nil && summary.RunID == "" {
		switch code := exchange.CodeOf(err); code {
		case exchange.ErrCodePermissionDenied:
			return d.fail(string(code), "reply.operator_only")
		case exchange.ErrCodeInProgress:
			return d.fail(string(code), "reply.in_progress")
		case exchange.ErrCodeInsufficientParticipants:
			return d.fail(string(code), "reply.insufficient")
		default:
			d.logger.Error("exchange failed", "error", err)
			return d.fail(string(exchange.ErrCodeTransportFailure), "reply.storage_failed")
		}
	}

	lines := []string{d.renderer.Sprintf("reply.exchange_done", summary.Total)}
	if summary.Unreachable > 0 {
		lines = append(lines, d.renderer.Sprintf("reply.exchange_unreachable", summary.Unreachable))
	}
	if summary.TransportFailed > 0 {
		lines = append(lines, d.renderer.Sprintf("reply.exchange_transport", summary.TransportFailed))
	}
	reply := Reply{OK: true, Report: reportOf(summary), Summary: &summary}
	if err != nil {
		lines = append(lines, d.renderer.Sprintf("reply.exchange_journal"))
		reply.OK = false
		reply.Code = string(exchange.ErrCodeTransportFailure)
	}
	reply.Text = strings.Join(lines, "\n")
	return reply
}

func (d *Dispatcher) forward(ctx context.Context, req Request) Reply {
	if req.Channel != ChannelDM {
		return d.fail(CodeWrongChannel, "reply.dm_only")
	}
	if req.Attachment == nil || strings.TrimSpace(req.Attachment.URL) == "" {
		return d.fail(CodeMissingAttachment, "reply.missing_attachment")
	}

	err := d.ex.Forward(ctx, req.Sender, *req.Attachment, req.Note)
	switch code := exchange.CodeOf(err); {
	case err == nil:
		return d.ok("reply.forward_sent")
	case code == exchange.ErrCodeNotEligible:
		return d.fail(string(code), "reply.not_eligible")
	case code == exchange.ErrCodeUnreachable:
		return d.fail(string(code), "reply.forward_unreachable")
	default:
		d.logger.Error("forward failed", "sender", req.Sender, "error", err)
		return d.fail(string(exchange.ErrCodeTransportFailure), "reply.forward_failed")
	}
}

func (d *Dispatcher) ok(key string) Reply {
	return Reply{OK: true, Text: d.renderer.Sprintf(key)}
}

func (d *Dispatcher) fail(code, key string) Reply {
	return Reply{Code: code, Text: d.renderer.Sprintf(key)}
}
