package flagx

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinutesList is a flag.Value holding a comma-separated list of whole
// minutes, e.g. "120,90,60,30".
type MinutesList []time.Duration

func (m *MinutesList) String() string {
	if m == nil {
		return ""
	}
	parts := make([]string, 0, len(*m))
	for _, d := range *m {
		parts = append(parts, strconv.Itoa(int(d/time.Minute)))
	}
	return strings.Join(parts, ",")
}

// Set replaces the list. An empty value clears it.
func (m *MinutesList) Set(s string) error {
	out := MinutesList{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid minutes value %q: %w", p, err)
		}
		if n <= 0 {
			return fmt.Errorf("minutes value must be positive, got %d", n)
		}
		out = append(out, time.Duration(n)*time.Minute)
	}
	*m = out
	return nil
}
