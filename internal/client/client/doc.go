// Package client talks to the lotkeeper server.
//
// GRPCClient wraps the api contract with typed methods, attaches the
// moderator access token to every call once AdminLogin succeeded, and turns
// gRPC statuses back into the sentinel errors of package common, so callers
// match them with errors.Is. A rejected bid comes back as
// *common.BidTooLowError carrying the minimum the server would accept.
package client
