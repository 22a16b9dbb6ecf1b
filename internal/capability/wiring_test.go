package capability

import "sync"

// ensureWired registers every capability exactly once across this
// package's whole test binary run; Register panics on re-registration,
// so every test that needs the real registry routes through this.
var wireOnce sync.Once

func ensureWired() {
	wireOnce.Do(Wire)
}
