package services

import (
	"github.com/dmitrijs2005/lotkeeper/internal/api"
	"github.com/dmitrijs2005/lotkeeper/internal/server/models"
)

// LotToAPI converts a stored lot to its wire form. MinimumBid is set only
// while the lot accepts bids.
func LotToAPI(l *models.Lot, increment int64) *api.Lot {
	out := &api.Lot{
		ID:           l.ID,
		OwnerID:      l.OwnerID,
		Kind:         string(l.Kind),
		Photos:       l.Photos,
		Description:  l.Description,
		Location:     l.Location,
		Size:         l.Size,
		Condition:    l.Condition,
		StartPrice:   l.StartPrice,
		CurrentPrice: l.CurrentPrice,
		Status:       string(l.Status),
		CreatedAt:    l.CreatedAt,
	}
	if l.LeaderID != nil {
		out.LeaderID = *l.LeaderID
	}
	if l.ChannelMessageRef != nil {
		out.ChannelMessageRef = *l.ChannelMessageRef
	}
	if l.Timer != nil {
		start, end := l.Timer.StartTime, l.Timer.EndTime
		out.StartTime, out.EndTime = &start, &end
	}
	if l.Kind == models.KindAuction && (l.Status == models.StatusApproved || l.Status == models.StatusActive) {
		out.MinimumBid = MinimumBid(l.StartPrice, l.CurrentPrice, increment)
	}
	return out
}

func StatsToAPI(st *models.Stats) *api.Stats {
	out := &api.Stats{LotsByStatus: map[string]int64{}, Bids: st.Bids, SoldVolume: st.SoldVolume}
	for k, v := range st.LotsByStatus {
		out.LotsByStatus[string(k)] = v
	}
	return out
}

func OutcomeToAPI(o *Outcome) *api.Outcome {
	return &api.Outcome{
		LotID:        o.LotID,
		Status:       string(o.Status),
		WinnerID:     o.WinnerID,
		FinalPrice:   o.FinalPrice,
		GainPercent:  o.GainPercent,
		Participants: o.Participants,
		NoOp:         o.NoOp,
	}
}
