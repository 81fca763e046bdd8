package entity

import (
	"github.com/benefactorum/authotp/internal/pkg/valueobject"
)

type CreateDeliveryLog struct {
	ID         int64
	IdentityID int64
	Channel    Channel
	TriggerKey TriggerKey
	Recipient  string
	Status     DeliveryStatus
}

type UpdateDeliveryLog struct {
	ID               int64
	Status           DeliveryStatus
	ProviderResponse valueobject.JSONMap
}

// Template is the raw html/template source for one trigger. It defines a
// "subject" and a "body" block.
type Template struct {
	TriggerKey TriggerKey
	Source     string
	// Version changes whenever Source does, e.g. the storage ETag.
	Version string
}
