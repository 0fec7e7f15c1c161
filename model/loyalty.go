// model/loyalty.go
package model

import "time"

type Tier string

const (
	TierSilver   Tier = "Silver"
	TierGold     Tier = "Gold"
	TierPlatinum Tier = "Platinum"
	TierDiamond  Tier = "Diamond"
)

// Fixed promotion thresholds on cumulative points.
const (
	GoldThreshold     = 1000
	PlatinumThreshold = 2500
	DiamondThreshold  = 5000
)

var tierRank = map[Tier]int{
	TierSilver:   0,
	TierGold:     1,
	TierPlatinum: 2,
	TierDiamond:  3,
}

// TierForPoints derives the tier a balance entitles a user to.
func TierForPoints(points int64) Tier {
	switch {
	case points >= DiamondThreshold:
		return TierDiamond
	case points >= PlatinumThreshold:
		return TierPlatinum
	case points >= GoldThreshold:
		return TierGold
	default:
		return TierSilver
	}
}

// HigherTier keeps promotions monotonic: accrual never demotes, so the
// effective tier is whichever of current and derived ranks higher.
func HigherTier(a, b Tier) Tier {
	if tierRank[b] > tierRank[a] {
		return b
	}
	return a
}

type LoyaltyEntryType string

const (
	EntryEarned     LoyaltyEntryType = "EARNED"
	EntryRedeemed   LoyaltyEntryType = "REDEEMED"
	EntryAdjustment LoyaltyEntryType = "ADJUSTMENT"
)

// LoyaltyTransaction is one immutable ledger row. Points are signed:
// positive for earn, negative for redemption.
type LoyaltyTransaction struct {
	ID          int64            `json:"id"`
	UserID      int64            `json:"user_id"`
	BookingID   *int64           `json:"booking_id,omitempty"`
	Points      int64            `json:"points"`
	EntryType   LoyaltyEntryType `json:"entry_type"`
	Description string           `json:"description"`
	CreatedAt   time.Time        `json:"created_at"`
}

type Reward struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PointsCost  int64  `json:"points_cost"`
	Active      bool   `json:"active"`
}
