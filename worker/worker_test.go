package worker

import (
	"context"
	"testing"

	"github.com/matryer/is"

	"github.com/greedsolver/greed/cache"
	"github.com/greedsolver/greed/config"
	"github.com/greedsolver/greed/game"
	"github.com/greedsolver/greed/remote"
)

func TestHandle(t *testing.T) {
	is := is.New(t)
	cache.CreateGlobalObjectCache()
	w := NewLookupWorker(DefaultWorkerConfig(config.DefaultConfig()), nil)

	reply := w.handle(context.Background(), []byte(`{"request_id":"x","max":10,"sides":3,"active":10,"queued":10}`))
	resp, err := remote.DecodeReply(reply)
	is.NoErr(err)
	is.Equal(resp.RequestID, "x")
	is.Equal(resp.Ruleset, game.Ruleset{Max: 10, Sides: 3})
	is.Equal(resp.N, 0)
	is.Equal(resp.Value, 0.5)

	reply = w.handle(context.Background(), []byte(`{"request_id":"y","max":10,"sides":3,"active":20}`))
	resp, err = remote.DecodeReply(reply)
	is.True(err != nil)
	is.Equal(resp.RequestID, "y")

	reply = w.handle(context.Background(), []byte(`not json`))
	_, err = remote.DecodeReply(reply)
	is.True(err != nil)
}

func TestDefaultWorkerConfig(t *testing.T) {
	is := is.New(t)
	t.Setenv("GREED_WORKER_SUBJECT", "greed.test")
	t.Setenv("GREED_WORKER_REQUEST_TIMEOUT", "5s")
	c := DefaultWorkerConfig(config.DefaultConfig())
	is.Equal(c.Subject, "greed.test")
	is.Equal(c.RequestTimeout.String(), "5s")
	is.Equal(c.QueueGroup, "greed-workers")
	is.True(c.Warm)
}
