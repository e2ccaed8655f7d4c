package models

import "time"

// RevokedToken is a blacklist record. ExpiresAt is copied from the token's
// own exp claim so the record can be swept once the token would have expired
// anyway.
type RevokedToken struct {
	Token         string
	BlacklistedAt time.Time
	ExpiresAt     time.Time
}

// RevocationStats summarises the blacklist at a given instant.
// Active is Total minus the expired records not yet swept.
type RevocationStats struct {
	Total   int64
	Active  int64
	Expired int64
}
