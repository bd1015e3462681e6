package expiration

import (
	"math"
	"time"
)

// Tier is the alert level derived from an item's expiration date.
type Tier string

const (
	TierNone     Tier = "none"
	TierOK       Tier = "ok"
	TierWarning  Tier = "warning"
	TierCritical Tier = "critical"
	TierExpired  Tier = "expired"
)

// Status is the classification result. Days is days until expiry, or days
// since expiry when the tier is expired.
type Status struct {
	Tier Tier `json:"tier"`
	Days int  `json:"days"`
}

// Classify maps an expiration date to an alert tier relative to now:
// expired below zero days, critical through day 7, warning through day 30,
// ok beyond. A nil expiration date classifies as none.
func Classify(expirationDate *time.Time, now time.Time) Status {
	if expirationDate == nil {
		return Status{Tier: TierNone}
	}
	days := int(math.Ceil(expirationDate.Sub(now).Hours() / 24))
	switch {
	case days < 0:
		return Status{Tier: TierExpired, Days: -days}
	case days <= 7:
		return Status{Tier: TierCritical, Days: days}
	case days <= 30:
		return Status{Tier: TierWarning, Days: days}
	default:
		return Status{Tier: TierOK, Days: days}
	}
}
