// Package entitlements decides what a user may access: their overall tier
// (visitor, registered, paying) and the feature set that comes with it.
// Resolution is a pure query over externally supplied facts and never fails;
// missing identity or products just degrades to the lowest tier.
package entitlements

import (
	"strings"
	"time"

	"certprep/backend/models"
)

type Tier string

const (
	TierVisitor    Tier = "visitor"
	TierRegistered Tier = "registered"
	TierPaying     Tier = "paying"
)

// Product kinds that qualify a user as paying.
var payingKinds = map[string]bool{
	"exam":         true,
	"bundle":       true,
	"subscription": true,
}

// TierConfig is the static feature set attached to a tier. A nil
// QuestionLimit means unlimited.
type TierConfig struct {
	QuestionLimit     *int `json:"question_limit"`
	SavedAttemptLimit int  `json:"saved_attempt_limit"`
	CanReview         bool `json:"can_review"`
	CanExport         bool `json:"can_export"`
	Leaderboard       bool `json:"leaderboard"`
	DomainMastery     bool `json:"domain_mastery"`
}

func intPtr(v int) *int { return &v }

// Configs is the fixed three-entry tier table.
var Configs = map[Tier]TierConfig{
	TierVisitor: {
		QuestionLimit:     intPtr(10),
		SavedAttemptLimit: 0,
	},
	TierRegistered: {
		QuestionLimit:     intPtr(25),
		SavedAttemptLimit: 3,
		Leaderboard:       true,
	},
	TierPaying: {
		QuestionLimit:     nil,
		SavedAttemptLimit: 50,
		CanReview:         true,
		CanExport:         true,
		Leaderboard:       true,
		DomainMastery:     true,
	},
}

// Resolution is the answer to "what may this user do".
type Resolution struct {
	Tier       Tier       `json:"tier"`
	Config     TierConfig `json:"features"`
	ProductIDs []string   `json:"entitlements"`
}

// Resolve computes the effective tier from an optional identity and the
// user's entitlement records. Expired records never count.
func Resolve(authenticated bool, owned []models.Entitlement, products []models.Product, now time.Time) Resolution {
	if !authenticated {
		return Resolution{Tier: TierVisitor, Config: Configs[TierVisitor]}
	}

	kinds := make(map[string]string, len(products))
	for _, p := range products {
		kinds[p.ProductID] = p.Kind
	}

	var live []string
	paying := false
	for _, e := range owned {
		if e.ExpiresAt != nil && !e.ExpiresAt.After(now) {
			continue
		}
		live = append(live, e.ProductID)
		// Unknown products still count as owned but only qualifying kinds
		// upgrade the tier.
		if kind, ok := kinds[e.ProductID]; ok && payingKinds[kind] {
			paying = true
		}
	}

	tier := TierRegistered
	if paying {
		tier = TierPaying
	}
	return Resolution{Tier: tier, Config: Configs[tier], ProductIDs: live}
}

// Owns reports whether the resolution includes a live entitlement for the
// given product.
func (r Resolution) Owns(productID string) bool {
	for _, id := range r.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

// ProductListing is a catalog product annotated with the caller's ownership.
type ProductListing struct {
	ProductID  string   `json:"product_id"`
	Kind       string   `json:"kind"`
	Name       string   `json:"name"`
	PriceCents int      `json:"price_cents"`
	ExamCodes  []string `json:"exam_codes"`
	Owned      bool     `json:"owned"`
}

// AnnotateOwned derives the owned flag for each listed product by membership
// against the resolution's live entitlements.
func AnnotateOwned(products []models.Product, res Resolution) []ProductListing {
	listings := make([]ProductListing, 0, len(products))
	for _, p := range products {
		var codes []string
		if p.ExamCodes != "" {
			codes = strings.Split(p.ExamCodes, ",")
		}
		listings = append(listings, ProductListing{
			ProductID:  p.ProductID,
			Kind:       p.Kind,
			Name:       p.Name,
			PriceCents: p.PriceCents,
			ExamCodes:  codes,
			Owned:      res.Owns(p.ProductID),
		})
	}
	return listings
}
