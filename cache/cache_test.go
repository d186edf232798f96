package cache

import (
	"errors"
	"testing"

	"github.com/matryer/is"

	"github.com/greedsolver/greed/config"
)

func TestLoadOnce(t *testing.T) {
	is := is.New(t)
	CreateGlobalObjectCache()
	cfg := config.DefaultConfig()
	calls := 0
	load := func(_ *config.Config, key string) (any, error) {
		calls++
		return key + "!", nil
	}
	for range 3 {
		obj, err := Load(cfg, "greed:10:3", load)
		is.NoErr(err)
		is.Equal(obj, "greed:10:3!")
	}
	is.Equal(calls, 1)

	Evict("greed:10:3")
	_, err := Load(cfg, "greed:10:3", load)
	is.NoErr(err)
	is.Equal(calls, 2)
}

func TestLoadError(t *testing.T) {
	is := is.New(t)
	CreateGlobalObjectCache()
	boom := errors.New("boom")
	_, err := Load(config.DefaultConfig(), "k", func(*config.Config, string) (any, error) {
		return nil, boom
	})
	is.Equal(err, boom)
	// Failures are not cached.
	obj, err := Load(config.DefaultConfig(), "k", func(*config.Config, string) (any, error) {
		return 1, nil
	})
	is.NoErr(err)
	is.Equal(obj, 1)
}
