package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/lotkeeper/internal/flagx"
	"github.com/dmitrijs2005/lotkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations are
// timex.Duration so both "15m" and integer nanoseconds are accepted;
// offsets are whole minutes. Absent keys leave the current value untouched.
type JsonConfig struct {
	EndpointAddrGRPC            *string         `json:"endpoint_addr_grpc"`
	EndpointAddrHTTP            *string         `json:"endpoint_addr_http"`
	DatabaseDriver              *string         `json:"database_driver"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	SecretKey                   *string         `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	AdminPassword               *string         `json:"admin_password"`

	AuctionDuration        *timex.Duration `json:"auction_duration"`
	MinBidIncrement        *int64          `json:"min_bid_increment"`
	UpdateOffsetsMinutes   []int           `json:"update_offsets_minutes"`
	ReminderOffsetsMinutes []int           `json:"reminder_offsets_minutes"`
	BidTokenTTL            *timex.Duration `json:"bid_token_ttl"`

	NotifyTimeout        *timex.Duration `json:"notify_timeout"`
	CompletionRetries    *int            `json:"completion_retries"`
	CompletionRetryDelay *timex.Duration `json:"completion_retry_delay"`

	NATSURL     *string `json:"nats_url"`
	ChannelName *string `json:"channel_name"`

	RedisAddr     *string `json:"redis_addr"`
	RedisPassword *string `json:"redis_password"`
	RedisDB       *int    `json:"redis_db"`

	S3RootUser       *string         `json:"s3_root_user"`
	S3RootPassword   *string         `json:"s3_root_password"`
	S3Bucket         *string         `json:"s3_bucket"`
	S3Region         *string         `json:"s3_region"`
	S3BaseEndpoint   *string         `json:"s3_base_endpoint"`
	PhotoURLValidity *timex.Duration `json:"photo_url_validity"`

	LogLevel *string `json:"log_level"`
}

// parseJson loads configuration values from the JSON file named by the
// -c or -config flag. Without the flag nothing happens. A file that cannot
// be read or parsed panics, like a bad flag does.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDriver, c.DatabaseDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setString(&config.AdminPassword, c.AdminPassword)

	setDuration(&config.AuctionDuration, c.AuctionDuration)
	if c.MinBidIncrement != nil {
		config.MinBidIncrement = *c.MinBidIncrement
	}
	if c.UpdateOffsetsMinutes != nil {
		config.UpdateOffsets = minutes(c.UpdateOffsetsMinutes)
	}
	if c.ReminderOffsetsMinutes != nil {
		config.ReminderOffsets = minutes(c.ReminderOffsetsMinutes)
	}
	setDuration(&config.BidTokenTTL, c.BidTokenTTL)

	setDuration(&config.NotifyTimeout, c.NotifyTimeout)
	if c.CompletionRetries != nil {
		config.CompletionRetries = *c.CompletionRetries
	}
	setDuration(&config.CompletionRetryDelay, c.CompletionRetryDelay)

	setString(&config.NATSURL, c.NATSURL)
	setString(&config.ChannelName, c.ChannelName)

	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	if c.RedisDB != nil {
		config.RedisDB = *c.RedisDB
	}

	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setDuration(&config.PhotoURLValidity, c.PhotoURLValidity)

	setString(&config.LogLevel, c.LogLevel)
}
