// Package config loads runtime configuration for the lotkeeper CLI.
//
// Sources, later ones winning: built-in defaults, an optional JSON file
// selected with -c or -config, then command-line flags.
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "user_id": "1001",
//	  "online_check_interval": "3s",
//	  "request_timeout": "10s"
//	}
package config
