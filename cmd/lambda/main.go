package main

import (
	"context"
	"os"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/greedsolver/greed/config"
	"github.com/greedsolver/greed/remote"
)

var cfg *config.Config
var nc *nats.Conn

// HardTimeLimit bounds a lookup, including solving a ruleset for the first
// time in a cold container.
const HardTimeLimit = 60 * time.Second

func HandleRequest(ctx context.Context, req remote.Request) (remote.Response, error) {
	logger := log.With().
		Str("request-id", req.RequestID).
		Logger()

	ctx, cancel := context.WithTimeout(ctx, HardTimeLimit)
	defer cancel()

	resp, err := remote.Handle(logger.WithContext(ctx), cfg, req)
	if err != nil {
		logger.Err(err).Msg("lookup-failed")
		return remote.Response{}, err
	}
	logger.Info().Str("ruleset", resp.Ruleset.String()).Str("state", resp.State.String()).
		Int("n", resp.N).Msg("lookup-success")

	if req.ReplyChannel != "" && nc != nil {
		data, err := remote.EncodeReply(resp)
		if err != nil {
			return remote.Response{}, err
		}
		logger.Info().Msg("lookup-sending-via-nats")
		err = retry.Do(
			func() error {
				// We only wait for an acknowledgement.
				_, err := nc.Request(req.ReplyChannel, data, 3*time.Second)
				return err
			},
			retry.Context(ctx),
			retry.Attempts(5),
			retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
				logger.Err(err).Uint("n", n).
					Msg("did-not-receive-ack-try-again")
				return retry.BackOffDelay(n, err, config)
			}),
		)
		if err != nil {
			logger.Err(err).Msg("reply-failed")
		}
	}
	logger.Info().Msg("exiting-fn")
	return resp, nil
}

func main() {
	cfg = config.DefaultConfig()
	if _, err := cfg.Load(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("bad-config")
	}
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	var err error
	nc, err = nats.Connect(cfg.GetString(config.ConfigNatsURL))
	if err != nil {
		log.Fatal().AnErr("natsConnectErr", err).Msg(":(")
	}

	lambda.Start(HandleRequest)
}
