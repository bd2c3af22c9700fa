package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// DateLayout is the layout accepted by --date flags.
const DateLayout = "2006-01-02"

// SetJSONOutput toggles JSON output.
func SetJSONOutput(enabled bool) {
	jsonOutput = enabled
}

// Print writes v as indented JSON when --json is set and calls human otherwise.
func Print(cmd *cobra.Command, v any, human func(w io.Writer)) error {
	w := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	human(w)
	return nil
}

// ParseDate parses YYYY-MM-DD in the local time zone. An empty value returns now.
func ParseDate(value string, now time.Time) (time.Time, error) {
	if value == "" {
		return now, nil
	}
	date, err := time.ParseInLocation(DateLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD: %w", value, err)
	}
	return date, nil
}

// ParseHours parses a comma separated list of hours of day.
func ParseHours(value string) ([]int, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	parts := strings.Split(value, ",")
	hours := make([]int, 0, len(parts))
	for _, part := range parts {
		hour, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || hour < 0 || hour > 23 {
			return nil, fmt.Errorf("invalid hour %q, use 0-23", part)
		}
		hours = append(hours, hour)
	}
	return hours, nil
}

// FormatRange renders a time range as HH:MM-HH:MM.
func FormatRange(start, end time.Time) string {
	return start.Format("15:04") + "-" + end.Format("15:04")
}
