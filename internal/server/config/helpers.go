package config

import (
	"time"

	"github.com/dmitrijs2005/lotkeeper/internal/timex"
)

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}

func minutes(values []int) []time.Duration {
	out := make([]time.Duration, 0, len(values))
	for _, m := range values {
		out = append(out, time.Duration(m)*time.Minute)
	}
	return out
}
