package score

import "fmt"

// FormatDuration renders seconds as "45s" below a minute and "2m 5s" otherwise.
func FormatDuration(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}
