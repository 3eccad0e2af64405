package deeplink

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/circlapp/circl-link-agent/internal/domain"
	"github.com/circlapp/circl-link-agent/internal/metrics"
	"github.com/circlapp/circl-link-agent/internal/requestid"
)

type inviteHandler interface {
	HandleInvite(ctx context.Context, token domain.InviteToken) (domain.JoinResult, error)
	Join(ctx context.Context, circleID domain.CircleID) (domain.JoinResult, error)
}

type checkInHandler interface {
	CheckIn(ctx context.Context, code string, loc *domain.Location) (domain.CheckInResult, error)
}

// Receiver accepts link deliveries and acknowledges them at once. The
// resolve and join calls run on their own goroutine; failures are logged
// and dropped. There is no retry and no deduplication.
type Receiver struct {
	parser   *Parser
	invites  inviteHandler
	checkIns checkInHandler
	logger   *slog.Logger
	wg       sync.WaitGroup
}

func NewReceiver(parser *Parser, invites inviteHandler, checkIns checkInHandler, logger *slog.Logger) *Receiver {
	return &Receiver{
		parser:   parser,
		invites:  invites,
		checkIns: checkIns,
		logger:   logger.With("component", "deeplink_receiver"),
	}
}

// Open handles a custom-scheme open event. Universal links are ignored here.
func (r *Receiver) Open(ctx context.Context, rawURL string) (domain.Link, error) {
	return r.deliver(ctx, rawURL, domain.SourceCustomScheme, false)
}

// Continue handles a universal-link continuation; custom-scheme links are
// ignored here. coldStart only affects
// logging: a link that launched the process is handled the same way.
func (r *Receiver) Continue(ctx context.Context, rawURL string, coldStart bool) (domain.Link, error) {
	return r.deliver(ctx, rawURL, domain.SourceUniversalLink, coldStart)
}

// Params handles link-service session params carrying a circle id.
func (r *Receiver) Params(ctx context.Context, params map[string]any) (domain.Link, error) {
	link, err := r.parser.ParseParams(params)
	if err != nil {
		metrics.LinkDeliveriesTotal.WithLabelValues(string(domain.SourceParams), "ignored").Inc()
		r.logger.DebugContext(ctx, "link params ignored", "error", err)
		return domain.Link{}, err
	}
	r.dispatch(ctx, link)
	return link, nil
}

// Wait blocks until every dispatched delivery has finished.
func (r *Receiver) Wait() {
	r.wg.Wait()
}

func (r *Receiver) deliver(ctx context.Context, rawURL string, source domain.LinkSource, coldStart bool) (domain.Link, error) {
	link, err := r.parser.Parse(rawURL)
	if err == nil && link.Source != source {
		// An open event carries custom-scheme links and a continuation
		// carries universal links; anything else is not this event's link.
		err = fmt.Errorf("%w: %s link delivered as %s", domain.ErrLinkIgnored, link.Source, source)
	}
	if err != nil {
		metrics.LinkDeliveriesTotal.WithLabelValues(string(source), "ignored").Inc()
		r.logger.DebugContext(ctx, "link ignored", "url", rawURL, "error", err)
		return domain.Link{}, err
	}
	if coldStart {
		r.logger.InfoContext(ctx, "link delivered on cold start", "kind", link.Kind)
	}
	r.dispatch(ctx, link)
	return link, nil
}

func (r *Receiver) dispatch(ctx context.Context, link domain.Link) {
	metrics.LinkDeliveriesTotal.WithLabelValues(string(link.Source), "dispatched").Inc()

	// The delivery must outlive the request that carried it.
	ctx = requestid.WithDeliveryID(context.WithoutCancel(ctx), requestid.New())

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		metrics.DeliveriesInFlight.Inc()
		defer metrics.DeliveriesInFlight.Dec()
		r.run(ctx, link)
	}()
}

func (r *Receiver) run(ctx context.Context, link domain.Link) {
	switch {
	case link.Kind == domain.LinkCheckIn:
		if _, err := r.checkIns.CheckIn(ctx, link.Token, nil); err != nil {
			r.logger.ErrorContext(ctx, "check-in from link", "error", err)
		}
	case link.Source == domain.SourceParams:
		if _, err := r.invites.Join(ctx, link.CircleID); err != nil {
			r.logger.ErrorContext(ctx, "join from link params", "circle_id", link.CircleID, "error", err)
		}
	default:
		if _, err := r.invites.HandleInvite(ctx, domain.InviteToken(link.Token)); err != nil {
			r.logger.ErrorContext(ctx, "handle invite link", "source", link.Source, "error", err)
		}
	}
}
