// Package cli provides the interactive lotkeeper command-line client.
//
// The client acts as one marketplace user, identified by the id given with
// -i or asked for at start. Sellers create lots and upload photos, buyers
// bid through the two-step token flow or buy fixed-price lots, and
// moderators unlock approve/reject/close/stats with the shared admin
// password.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
