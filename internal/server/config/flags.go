package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/lotkeeper/internal/flagx"
)

var knownFlags = []string{
	"-a", "-w", "-driver", "-d", "-s", "-t", "-admin-password",
	"-duration", "-increment", "-updates", "-reminders", "-token-ttl",
	"-nats", "-channel", "-redis",
	"-u", "-p", "-b", "-g", "-e",
	"-log-level",
}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string           gRPC bind address (e.g., ":50051")
//	-w string           ops HTTP bind address (e.g., ":8080")
//	-driver string      database driver: postgres or sqlite
//	-d string           database DSN
//	-s string           JWT HMAC secret key
//	-t int              moderator token validity, minutes
//	-admin-password     shared secret for moderator login
//	-duration int       auction duration, minutes
//	-increment int      minimum bid increment
//	-updates list       interim update offsets, minutes ("120,90,60,30")
//	-reminders list     reminder offsets, minutes ("10,5")
//	-token-ttl int      bid token validity, minutes
//	-nats string        NATS server URL (empty: log-only notifications)
//	-channel string     broadcast channel name
//	-redis string       redis address for bidder sessions (empty: in memory)
//	-u -p -b -g -e      S3 user, password, bucket, region, base endpoint
//	-log-level string   debug, info, warn or error
//
// Duration flags are whole minutes. Unknown arguments are filtered out with
// flagx.FilterArgs first, so other parsers can share os.Args.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run gRPC server")
	fs.StringVar(&config.EndpointAddrHTTP, "w", config.EndpointAddrHTTP, "address and port to run ops HTTP server")
	fs.StringVar(&config.DatabaseDriver, "driver", config.DatabaseDriver, "database driver (postgres|sqlite)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	accessTokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "moderator token validity (in minutes)")
	fs.StringVar(&config.AdminPassword, "admin-password", config.AdminPassword, "moderator shared secret")

	auctionDuration := fs.Int("duration", int(config.AuctionDuration.Minutes()), "auction duration (in minutes)")
	fs.Int64Var(&config.MinBidIncrement, "increment", config.MinBidIncrement, "minimum bid increment")
	updates := flagx.MinutesList(config.UpdateOffsets)
	fs.Var(&updates, "updates", "interim update offsets before close (minutes, comma separated)")
	reminders := flagx.MinutesList(config.ReminderOffsets)
	fs.Var(&reminders, "reminders", "reminder offsets before close (minutes, comma separated)")
	tokenTTL := fs.Int("token-ttl", int(config.BidTokenTTL.Minutes()), "bid token validity (in minutes)")

	fs.StringVar(&config.NATSURL, "nats", config.NATSURL, "NATS server URL")
	fs.StringVar(&config.ChannelName, "channel", config.ChannelName, "broadcast channel name")
	fs.StringVar(&config.RedisAddr, "redis", config.RedisAddr, "redis address for bidder sessions")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidity) * time.Minute
	config.AuctionDuration = time.Duration(*auctionDuration) * time.Minute
	config.BidTokenTTL = time.Duration(*tokenTTL) * time.Minute
	config.UpdateOffsets = []time.Duration(updates)
	config.ReminderOffsets = []time.Duration(reminders)
}
