package leads

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewLeadID returns an opaque per-submission identifier: receipt time plus a random suffix.
func NewLeadID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("lead_%d_%s", now.UnixMilli(), suffix)
}
