package client

import (
	"errors"

	"github.com/dmitrijs2005/lotkeeper/internal/common"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = common.ErrorUnauthorized
	ErrNotModerator = errors.New("moderator login required")
)
