package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/lotkeeper/internal/api"
	"github.com/dmitrijs2005/lotkeeper/internal/netx"
)

// readFile is a test seam.
var readFile = os.ReadFile

// uploadPhoto is a test seam.
var uploadPhoto = netx.UploadToPresignedURL

func (a *App) Lots(ctx context.Context, statuses []string) error {
	if len(statuses) == 0 {
		statuses = []string{"approved", "active"}
	}
	ctx, cancel := a.rpcContext(ctx)
	defer cancel()
	lots, err := a.client.ListLots(ctx, statuses...)
	if err != nil {
		return err
	}
	a.printLots(lots)
	return nil
}

func (a *App) Mine(ctx context.Context) error {
	ctx, cancel := a.rpcContext(ctx)
	defer cancel()
	lots, err := a.client.MyLots(ctx, a.userID)
	if err != nil {
		return err
	}
	a.printLots(lots)
	return nil
}

func (a *App) printLots(lots []api.Lot) {
	if len(lots) == 0 {
		fmt.Fprintln(a.out, "No lots")
		return
	}
	for i := range lots {
		printLotLine(a.out, &lots[i])
	}
}

func (a *App) Show(ctx context.Context, lotID string) error {
	ctx, cancel := a.rpcContext(ctx)
	defer cancel()
	lot, err := a.client.GetLot(ctx, lotID)
	if err != nil {
		return err
	}
	printLot(a.out, lot)
	return nil
}

// Create asks for the lot details and submits the lot for moderation with
// the photos staged so far.
func (a *App) Create(ctx context.Context) error {
	kind, err := getSimpleText(a.reader, "Kind: auction or fixed_price (empty for auction)", a.out)
	if err != nil {
		return err
	}
	if kind == "" {
		kind = "auction"
	}
	if kind != "auction" && kind != "fixed_price" {
		return fmt.Errorf("unknown kind %q", kind)
	}

	description, err := GetMultiline(a.reader, "Description", a.out)
	if err != nil {
		return err
	}
	location, err := getSimpleText(a.reader, "Location", a.out)
	if err != nil {
		return err
	}
	size, err := getSimpleText(a.reader, "Size", a.out)
	if err != nil {
		return err
	}
	condition, err := getSimpleText(a.reader, "Condition", a.out)
	if err != nil {
		return err
	}
	price, err := GetInt64(a.reader, "Start price", 0, a.out)
	if err != nil {
		return err
	}

	ctx, cancel := a.rpcContext(ctx)
	defer cancel()
	lot, err := a.client.CreateLot(ctx, api.CreateLotRequest{
		UserID:      a.userID,
		Kind:        kind,
		Photos:      a.stagedPhotos,
		Description: description,
		Location:    location,
		Size:        size,
		Condition:   condition,
		StartPrice:  price,
	})
	if err != nil {
		return err
	}
	a.stagedPhotos = nil

	fmt.Fprintf(a.out, "Lot %s submitted for moderation\n", lot.ID)
	return nil
}

// Photo uploads a file to object storage and stages it for the next lot.
func (a *App) Photo(ctx context.Context, path string) error {
	body, err := readFile(path)
	if err != nil {
		return err
	}
	contentType := netx.ContentType(body)
	if !strings.HasPrefix(contentType, "image/") {
		return errors.New("not an image: " + contentType)
	}

	ctx, cancel := a.rpcContext(ctx)
	defer cancel()
	up, err := a.client.PhotoUploadURL(ctx, a.userID)
	if err != nil {
		return err
	}
	if err := uploadPhoto(ctx, up.URL, contentType, body); err != nil {
		return err
	}
	a.stagedPhotos = append(a.stagedPhotos, up.Key)

	fmt.Fprintf(a.out, "Photo uploaded (%d staged for the next lot)\n", len(a.stagedPhotos))
	return nil
}

func (a *App) Delete(ctx context.Context, lotID string) error {
	ctx, cancel := a.rpcContext(ctx)
	defer cancel()
	if err := a.client.DeleteLot(ctx, a.userID, lotID); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Lot deleted")
	return nil
}

// Buy purchases a fixed-price lot at its price.
func (a *App) Buy(ctx context.Context, lotID string) error {
	rctx, cancel := a.rpcContext(ctx)
	lot, err := a.client.GetLot(rctx, lotID)
	cancel()
	if err != nil {
		return err
	}
	printLot(a.out, lot)

	ok, err := Confirm(a.reader, fmt.Sprintf("Buy for %d?", lot.StartPrice), a.out)
	if err != nil || !ok {
		return err
	}

	rctx, cancel = a.rpcContext(ctx)
	defer cancel()
	if _, err := a.client.Purchase(rctx, a.userID, lotID); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Purchased! The seller has been notified.")
	return nil
}

// Sold marks the user's own fixed-price lot as sold.
func (a *App) Sold(ctx context.Context, lotID string) error {
	ctx, cancel := a.rpcContext(ctx)
	defer cancel()
	if _, err := a.client.MarkSold(ctx, a.userID, lotID); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Lot marked as sold")
	return nil
}
