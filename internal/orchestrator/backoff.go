package orchestrator

import (
	"math/rand/v2"
	"time"
)

const (
	backoffBase = 500 * time.Millisecond
	backoffMax  = 8 * time.Second
)

// defaultBackoff doubles the wait per attempt and adds up to 50% jitter so
// retries from concurrent tasks spread out instead of stampeding.
func defaultBackoff(attempt int) time.Duration {
	d := backoffBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= backoffMax {
			d = backoffMax
			break
		}
	}
	return d + rand.N(d/2)
}
