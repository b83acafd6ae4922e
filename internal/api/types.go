package api

import "time"

type Empty struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type User struct {
	ID          string `json:"id"`
	UserName    string `json:"username,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	IsAdmin     bool   `json:"is_admin,omitempty"`
}

// UserRequest identifies the calling user.
type UserRequest struct {
	UserID string `json:"user_id"`
}

type AdminLoginRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

type AdminLoginResponse struct {
	AccessToken string `json:"access_token"`
}

// Lot is the client view of a lot. MinimumBid is filled for lots that
// accept bids.
type Lot struct {
	ID                string     `json:"id"`
	OwnerID           string     `json:"owner_id"`
	Kind              string     `json:"kind"`
	Photos            []string   `json:"photos,omitempty"`
	Description       string     `json:"description"`
	Location          string     `json:"location,omitempty"`
	Size              string     `json:"size,omitempty"`
	Condition         string     `json:"condition,omitempty"`
	StartPrice        int64      `json:"start_price"`
	CurrentPrice      *int64     `json:"current_price,omitempty"`
	LeaderID          string     `json:"leader_id,omitempty"`
	Status            string     `json:"status"`
	ChannelMessageRef string     `json:"channel_message_ref,omitempty"`
	StartTime         *time.Time `json:"start_time,omitempty"`
	EndTime           *time.Time `json:"end_time,omitempty"`
	MinimumBid        int64      `json:"minimum_bid,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

type CreateLotRequest struct {
	UserID      string   `json:"user_id"`
	Kind        string   `json:"kind"`
	Photos      []string `json:"photos,omitempty"`
	Description string   `json:"description"`
	Location    string   `json:"location,omitempty"`
	Size        string   `json:"size,omitempty"`
	Condition   string   `json:"condition,omitempty"`
	StartPrice  int64    `json:"start_price"`
}

// LotRequest names a lot on behalf of a user. Moderator calls take the
// user from the access token instead.
type LotRequest struct {
	UserID string `json:"user_id,omitempty"`
	LotID  string `json:"lot_id"`
}

type RejectRequest struct {
	LotID  string `json:"lot_id"`
	Reason string `json:"reason"`
}

type ListLotsRequest struct {
	Statuses []string `json:"statuses,omitempty"`
}

type LotsResponse struct {
	Lots []Lot `json:"lots"`
}

type Stats struct {
	LotsByStatus map[string]int64 `json:"lots_by_status"`
	Bids         int64            `json:"bids"`
	SoldVolume   int64            `json:"sold_volume"`
}

type PhotoUploadResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type Outcome struct {
	LotID        string   `json:"lot_id"`
	Status       string   `json:"status"`
	WinnerID     string   `json:"winner_id,omitempty"`
	FinalPrice   int64    `json:"final_price,omitempty"`
	GainPercent  int64    `json:"gain_percent,omitempty"`
	Participants []string `json:"participants,omitempty"`
	NoOp         bool     `json:"no_op,omitempty"`
}

type BidTicket struct {
	Token     string    `json:"token"`
	Lot       Lot       `json:"lot"`
	Minimum   int64     `json:"minimum"`
	ExpiresAt time.Time `json:"expires_at"`
}

type BidRequest struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
	Amount int64  `json:"amount,omitempty"`
}

type BidPreview struct {
	Lot     Lot   `json:"lot"`
	Amount  int64 `json:"amount"`
	Minimum int64 `json:"minimum"`
}

type BidResult struct {
	Lot            Lot    `json:"lot"`
	Amount         int64  `json:"amount"`
	PreviousLeader string `json:"previous_leader,omitempty"`
	Started        bool   `json:"started,omitempty"`
}

type PendingBid struct {
	LotID     string    `json:"lot_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
