package orchestrator

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/dioko-ai/bob/internal/cachemanager"
)

// promptCacheTTL bounds how long a projection is trusted even if a
// generation bump is somehow missed; the generation key is the real
// invalidation mechanism.
const promptCacheTTL = 10 * time.Minute

// projectionCache holds the two kinds of cached projection this service
// computes repeatedly within a single advance/UI fan-out: the master
// prompt text and the right-pane outline. Both are keyed by
// (session_id, generation, ...), so a persisted task-graph write (which
// bumps generation) invalidates every previously cached entry simply by
// changing the key, without needing an explicit Delete pass.
type projectionCache struct {
	masterPrompt *cachemanager.InMemoryCacheManager[string, string]
	rightPane    *cachemanager.InMemoryCacheManager[string, []string]
}

func newProjectionCache() *projectionCache {
	return &projectionCache{
		masterPrompt: cachemanager.NewInMemoryCacheManager[string, string]("master-prompt", promptCacheTTL, promptCacheTTL*3),
		rightPane:    cachemanager.NewInMemoryCacheManager[string, []string]("right-pane-view", promptCacheTTL, promptCacheTTL*3),
	}
}

// projectionKey builds a cache key scoped to one session generation. hash
// keeps the key bounded in length when parts include arbitrarily long user
// messages; this is bookkeeping, not a domain concern, so plain hash/fnv
// is used rather than reaching for a third-party hashing library.
func projectionKey(sessionID string, generation int, parts ...string) string {
	key := fmt.Sprintf("%s:%d", sessionID, generation)
	for _, p := range parts {
		h := fnv.New64a()
		_, _ = h.Write([]byte(p))
		key += fmt.Sprintf(":%x", h.Sum64())
	}
	return key
}
