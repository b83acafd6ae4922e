package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/lotkeeper/internal/api"
)

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func printLot(w io.Writer, l *api.Lot) {
	fmt.Fprintf(w, "%s [%s, %s] %s\n", l.ID, l.Kind, l.Status, firstLine(l.Description))

	var price strings.Builder
	fmt.Fprintf(&price, "  start %d", l.StartPrice)
	if l.CurrentPrice != nil {
		fmt.Fprintf(&price, ", current %d (leader %s)", *l.CurrentPrice, l.LeaderID)
	}
	if l.MinimumBid > 0 {
		fmt.Fprintf(&price, ", minimum bid %d", l.MinimumBid)
	}
	fmt.Fprintln(w, price.String())

	if l.EndTime != nil {
		fmt.Fprintf(w, "  ends %s\n", l.EndTime.Local().Format(time.DateTime))
	}
	for _, kv := range [][2]string{{"location", l.Location}, {"size", l.Size}, {"condition", l.Condition}} {
		if kv[1] != "" {
			fmt.Fprintf(w, "  %s: %s\n", kv[0], kv[1])
		}
	}
	if len(l.Photos) > 0 {
		fmt.Fprintf(w, "  photos: %d\n", len(l.Photos))
	}
}

func printLotLine(w io.Writer, l *api.Lot) {
	price := l.StartPrice
	if l.CurrentPrice != nil {
		price = *l.CurrentPrice
	}
	fmt.Fprintf(w, "%-8s  %-11s  %-8s  %10d  %s\n", shortID(l.ID), l.Kind, l.Status, price, firstLine(l.Description))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
