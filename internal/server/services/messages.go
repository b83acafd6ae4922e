package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/lotkeeper/internal/server/models"
	"github.com/dmitrijs2005/lotkeeper/internal/server/notify"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// GainPercent is the whole-percent increase of final over start, truncated.
// A free lot reports 0.
func GainPercent(start, final int64) int64 {
	if start <= 0 {
		return 0
	}
	s := decimal.NewFromInt(start)
	return decimal.NewFromInt(final).Sub(s).Div(s).Mul(hundred).IntPart()
}

// FormatPrice groups thousands with spaces: 1234567 -> "1 234 567".
func FormatPrice(v int64) string {
	s := strconv.FormatInt(v, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// FormatDuration renders d rounded down to minutes, e.g. "1h 05m".
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return "less than a minute"
	}
	h := int64(d / time.Hour)
	m := int64(d % time.Hour / time.Minute)
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %02dm", h, m)
}

func lotTitle(lot *models.Lot) string {
	short := lot.ID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("#%s %s", short, lot.Description)
}

// renderListing builds the channel post for lot as of now.
func renderListing(lot *models.Lot, now time.Time, increment int64, auctionDuration time.Duration) notify.Listing {
	var b strings.Builder
	b.WriteString(lotTitle(lot))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Location: %s | Size: %s | Condition: %s\n", lot.Location, lot.Size, lot.Condition)

	switch lot.Kind {
	case models.KindFixedPrice:
		fmt.Fprintf(&b, "Price: %s\n", FormatPrice(lot.StartPrice))
		if lot.Status == models.StatusFinished {
			b.WriteString("SOLD\n")
		}
	default:
		fmt.Fprintf(&b, "Start price: %s\n", FormatPrice(lot.StartPrice))
		if lot.CurrentPrice != nil {
			fmt.Fprintf(&b, "Current price: %s\n", FormatPrice(*lot.CurrentPrice))
		}
		switch lot.Status {
		case models.StatusApproved:
			fmt.Fprintf(&b, "No bids yet. The auction runs %s from the first bid.\n", FormatDuration(auctionDuration))
		case models.StatusActive:
			fmt.Fprintf(&b, "Minimum bid: %s\n", FormatPrice(MinimumBid(lot.StartPrice, lot.CurrentPrice, increment)))
			if lot.Timer != nil {
				fmt.Fprintf(&b, "Elapsed: %s, remaining: %s\n",
					FormatDuration(now.Sub(lot.Timer.StartTime)), FormatDuration(lot.Timer.Remaining(now)))
			}
		case models.StatusFinished:
			fmt.Fprintf(&b, "SOLD for %s\n", FormatPrice(derefPrice(lot.CurrentPrice)))
		case models.StatusNoBids:
			b.WriteString("Closed without bids\n")
		}
	}

	return notify.Listing{LotID: lot.ID, Text: strings.TrimRight(b.String(), "\n"), Photos: lot.Photos}
}

func derefPrice(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

func msgLotSubmitted(lot *models.Lot) string {
	return fmt.Sprintf("New lot awaiting moderation: %s (%s, start %s)", lotTitle(lot), lot.Kind, FormatPrice(lot.StartPrice))
}

func msgApproved(lot *models.Lot) string {
	return fmt.Sprintf("Your lot %s was approved and published.", lotTitle(lot))
}

func msgRejected(lot *models.Lot, reason string) string {
	return fmt.Sprintf("Your lot %s was rejected: %s", lotTitle(lot), reason)
}

func msgOutbid(lot *models.Lot, price, minimum int64) string {
	return fmt.Sprintf("You were outbid on %s. Current price %s, next minimum bid %s.",
		lotTitle(lot), FormatPrice(price), FormatPrice(minimum))
}

func msgReminder(lot *models.Lot, leader bool, remaining time.Duration, increment int64) string {
	price := derefPrice(lot.CurrentPrice)
	if leader {
		return fmt.Sprintf("%s left on %s. You are leading at %s.", FormatDuration(remaining), lotTitle(lot), FormatPrice(price))
	}
	return fmt.Sprintf("%s left on %s. Current price %s, bid at least %s to take the lead.",
		FormatDuration(remaining), lotTitle(lot), FormatPrice(price),
		FormatPrice(MinimumBid(lot.StartPrice, lot.CurrentPrice, increment)))
}

func msgWinner(lot *models.Lot, o *Outcome) string {
	return fmt.Sprintf("Congratulations! You won %s for %s. The seller will contact you.", lotTitle(lot), FormatPrice(o.FinalPrice))
}

func msgOwnerSold(lot *models.Lot, o *Outcome) string {
	return fmt.Sprintf("Your auction %s finished. Sold for %s (%+d%% over the start price).",
		lotTitle(lot), FormatPrice(o.FinalPrice), o.GainPercent)
}

func msgAdminsFinished(lot *models.Lot, o *Outcome) string {
	return fmt.Sprintf("Auction %s finished: winner %s, price %s, seller %s.", lotTitle(lot), o.WinnerID, FormatPrice(o.FinalPrice), o.OwnerID)
}

func msgLoser(lot *models.Lot, o *Outcome) string {
	return fmt.Sprintf("Auction %s has ended. The winning bid was %s.", lotTitle(lot), FormatPrice(o.FinalPrice))
}

func msgOwnerNoBids(lot *models.Lot) string {
	return fmt.Sprintf("Your auction %s ended without bids.", lotTitle(lot))
}

func msgAdminsNoBids(lot *models.Lot) string {
	return fmt.Sprintf("Auction %s ended without bids.", lotTitle(lot))
}

func msgPurchased(lot *models.Lot) string {
	return fmt.Sprintf("You bought %s for %s. The seller will contact you.", lotTitle(lot), FormatPrice(lot.StartPrice))
}

func msgOwnerPurchased(lot *models.Lot, buyerID string) string {
	return fmt.Sprintf("Your lot %s was bought by %s for %s.", lotTitle(lot), buyerID, FormatPrice(lot.StartPrice))
}

func msgAdminsSold(lot *models.Lot, buyerID string) string {
	if buyerID == "" {
		return fmt.Sprintf("Lot %s was marked sold by its owner.", lotTitle(lot))
	}
	return fmt.Sprintf("Lot %s was bought by %s for %s.", lotTitle(lot), buyerID, FormatPrice(lot.StartPrice))
}
