package cache

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/greedsolver/greed/config"
)

// The cache holds large objects that are expensive to build and are shared
// by everything in the process: solved policy tables, keyed by ruleset, in
// the shell, the lambda handler and the lookup worker.

type cache struct {
	sync.Mutex
	objects map[string]any
}

type loadFunc func(cfg *config.Config, key string) (any, error)

var GlobalObjectCache *cache

func (c *cache) get(cfg *config.Config, key string, load loadFunc) (any, error) {
	c.Lock()
	defer c.Unlock()
	if obj, ok := c.objects[key]; ok {
		log.Debug().Str("key", key).Msg("cache-hit")
		return obj, nil
	}
	log.Debug().Str("key", key).Msg("cache-load")
	obj, err := load(cfg, key)
	if err != nil {
		return nil, err
	}
	c.objects[key] = obj
	return obj, nil
}

func (c *cache) evict(key string) {
	c.Lock()
	defer c.Unlock()
	delete(c.objects, key)
}

func CreateGlobalObjectCache() {
	GlobalObjectCache = &cache{objects: make(map[string]any)}
}

// Load returns the object stored under key, building it with load the first
// time. Loads are serialized, so each key is built once.
func Load(cfg *config.Config, key string, load loadFunc) (any, error) {
	if GlobalObjectCache == nil {
		CreateGlobalObjectCache()
	}
	return GlobalObjectCache.get(cfg, key, load)
}

// Evict drops key so the next Load rebuilds it.
func Evict(key string) {
	if GlobalObjectCache == nil {
		return
	}
	GlobalObjectCache.evict(key)
}
