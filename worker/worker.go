package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/greedsolver/greed/remote"
	"github.com/greedsolver/greed/solver"
)

// LookupWorker answers policy lookups sent over NATS. Requests are JSON
// encoded remote.Request values; replies are remote.EncodeReply payloads.
type LookupWorker struct {
	config *WorkerConfig
	nc     *nats.Conn
}

func NewLookupWorker(cfg *WorkerConfig, nc *nats.Conn) *LookupWorker {
	return &LookupWorker{config: cfg, nc: nc}
}

// Run answers requests until ctx is done, then drains the subscription.
func (w *LookupWorker) Run(ctx context.Context) error {
	log.Info().
		Str("subject", w.config.Subject).
		Str("queue", w.config.QueueGroup).
		Dur("request-timeout", w.config.RequestTimeout).
		Msg("starting lookup worker")

	if w.config.Warm {
		rules, err := w.config.GreedConfig.Ruleset()
		if err != nil {
			return err
		}
		if _, err := solver.LoadTable(ctx, w.config.GreedConfig, rules); err != nil {
			return fmt.Errorf("warming %v: %w", rules, err)
		}
		log.Info().Str("ruleset", rules.String()).Msg("table-warm")
	}

	sub, err := w.nc.QueueSubscribe(w.config.Subject, w.config.QueueGroup, func(msg *nats.Msg) {
		reply := w.handle(ctx, msg.Data)
		if err := msg.Respond(reply); err != nil {
			log.Warn().Err(err).Msg("failed to respond")
		}
	})
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", w.config.Subject, err)
	}

	<-ctx.Done()
	log.Info().Msg("worker shutting down")
	if err := sub.Drain(); err != nil {
		return err
	}
	return ctx.Err()
}

// handle turns one request payload into a reply payload. Failures are
// reported to the caller in the reply.
func (w *LookupWorker) handle(ctx context.Context, data []byte) []byte {
	ctx, cancel := context.WithTimeout(ctx, w.config.RequestTimeout)
	defer cancel()

	var req remote.Request
	var reply []byte
	err := json.Unmarshal(data, &req)
	if err == nil {
		var resp remote.Response
		resp, err = remote.Handle(ctx, w.config.GreedConfig, req)
		if err == nil {
			reply, err = remote.EncodeReply(resp)
		}
	}
	if err != nil {
		log.Error().Err(err).Str("request-id", req.RequestID).Msg("lookup-failed")
		reply, err = remote.EncodeError(req.RequestID, err)
		if err != nil {
			log.Error().Err(err).Msg("encoding-error-reply")
			return nil
		}
		return reply
	}
	log.Debug().Str("request-id", req.RequestID).Msg("lookup-answered")
	return reply
}
