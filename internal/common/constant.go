package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// moderator access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// BidTokenBytes is the number of random bytes behind a bid token;
// the hex form is twice as long.
const BidTokenBytes = 4
