package format

import (
	"fmt"
	"math"
	"time"
)

// TimeAgo renders the time elapsed since t in whole units:
// seconds under a minute, minutes under an hour, hours under a day,
// days otherwise. Partial units are dropped.
func TimeAgo(now, t time.Time) string {
	diff := int64(math.Floor(now.Sub(t).Seconds()))

	switch {
	case diff < 60:
		return fmt.Sprintf("%ds ago", diff)
	case diff < 3600:
		return fmt.Sprintf("%dm ago", diff/60)
	case diff < 86400:
		return fmt.Sprintf("%dh ago", diff/3600)
	default:
		return fmt.Sprintf("%dd ago", diff/86400)
	}
}
