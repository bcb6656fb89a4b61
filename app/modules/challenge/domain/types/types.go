// Package challengetypes defines the challenge aggregate and its parameter
// types.
package challengetypes

import (
	"time"

	"github.com/girder/covalic/app/shared"
)

// Challenge is the top-level competition container. Each challenge owns a
// storage collection that its phases hang their folders under.
type Challenge struct {
	ID           shared.ChallengeID
	Name         string
	Description  string
	Instructions string
	Organizers   string
	CreatorID    shared.UserID
	CollectionID shared.CollectionID
	// AssetsFolderID references the Assets folder in the collection; its
	// ACL mirrors the challenge's.
	AssetsFolderID shared.FolderID
	Created        time.Time
	Updated        time.Time
	StartDate      *time.Time
	EndDate        *time.Time
	Public         bool
	// ThumbnailIDs reference uploaded thumbnail files in the storage
	// service; generation is handled there.
	ThumbnailIDs []shared.FolderID
	Access       shared.AccessList
}

// CreateParams carries the caller-supplied fields of a new challenge.
type CreateParams struct {
	Name         string
	Description  string
	Instructions string
	Organizers   string
	StartDate    *time.Time
	EndDate      *time.Time
	Public       bool
}

// UpdateParams carries mutable challenge fields; nil pointers leave the
// stored value untouched.
type UpdateParams struct {
	Name         *string
	Description  *string
	Instructions *string
	Organizers   *string
	StartDate    *time.Time
	EndDate      *time.Time
	Public       *bool
	ThumbnailIDs []shared.FolderID
}

// Timeframe classifies a challenge relative to the current time for listing
// filters.
type Timeframe string

const (
	TimeframeAll      Timeframe = "all"
	TimeframeActive   Timeframe = "active"
	TimeframeUpcoming Timeframe = "upcoming"
)

// InTimeframe reports whether the challenge matches the given filter at
// time now. A challenge with no end date counts as active.
func (c *Challenge) InTimeframe(tf Timeframe, now time.Time) bool {
	switch tf {
	case TimeframeActive:
		started := c.StartDate == nil || !now.Before(*c.StartDate)
		ended := c.EndDate != nil && now.After(*c.EndDate)
		return started && !ended
	case TimeframeUpcoming:
		return c.StartDate != nil && now.Before(*c.StartDate)
	default:
		return true
	}
}
