package models

// Stats summarises the marketplace for moderators.
type Stats struct {
	LotsByStatus map[LotStatus]int64
	Bids         int64
	SoldVolume   int64
}
