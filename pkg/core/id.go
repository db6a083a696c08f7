package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IDGenerator produces a new opaque entity ID. The default is time-prefixed
// to be monotonic within a process (not relied upon for ordering) with a
// random suffix for uniqueness; it is a field on Config (Config.IDGen) so
// tests can inject a deterministic generator.
type IDGenerator func() string

// defaultIDGenerator mirrors the original's
// f"{int(time.time()*1000)}_{random_suffix}" shape, swapping the random
// suffix for a uuid fragment.
func defaultIDGenerator() string {
	return fmt.Sprintf("%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}
