package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/lotkeeper/internal/flagx"
	"github.com/dmitrijs2005/lotkeeper/internal/timex"
)

// JsonConfig is the on-disk form of Config. Durations accept "3s" style
// strings or integer nanoseconds. Absent fields keep their current value.
type JsonConfig struct {
	ServerEndpointAddr  string          `json:"server_endpoint_addr"`
	UserID              string          `json:"user_id"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	RequestTimeout      *timex.Duration `json:"request_timeout"`
}

// parseJson overlays cfg with the file named by -c/-config, if any.
// It panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	}
	if jc.UserID != "" {
		cfg.UserID = jc.UserID
	}
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = time.Duration(jc.OnlineCheckInterval.Duration)
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = time.Duration(jc.RequestTimeout.Duration)
	}
}
