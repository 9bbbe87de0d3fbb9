package entitlements

import (
	"testing"
	"time"

	"certprep/backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

var products = []models.Product{
	{ProductID: "exam-aws-saa", Kind: "exam", Name: "AWS SAA Practice", PriceCents: 2900, ExamCodes: "AWS-SAA-C03"},
	{ProductID: "bundle-cloud", Kind: "bundle", Name: "Cloud Bundle", PriceCents: 7900, ExamCodes: "AWS-SAA-C03,AZ-104"},
	{ProductID: "sub-monthly", Kind: "subscription", Name: "All Access", PriceCents: 1900},
}

func TestResolveVisitor(t *testing.T) {
	// No identity means visitor regardless of whatever records are supplied.
	owned := []models.Entitlement{{UserID: 1, ProductID: "exam-aws-saa"}}
	res := Resolve(false, owned, products, now)

	assert.Equal(t, TierVisitor, res.Tier)
	assert.Empty(t, res.ProductIDs)
	require.NotNil(t, res.Config.QuestionLimit)
	assert.Equal(t, 10, *res.Config.QuestionLimit)
	assert.False(t, res.Config.CanReview)
	assert.False(t, res.Config.Leaderboard)
}

func TestResolveRegistered(t *testing.T) {
	res := Resolve(true, nil, products, now)

	assert.Equal(t, TierRegistered, res.Tier)
	assert.Empty(t, res.ProductIDs)
	assert.True(t, res.Config.Leaderboard)
	assert.False(t, res.Config.CanReview)
}

func TestResolveExpiredEntitlement(t *testing.T) {
	expired := now.Add(-time.Hour)
	owned := []models.Entitlement{{UserID: 1, ProductID: "exam-aws-saa", ExpiresAt: &expired}}

	res := Resolve(true, owned, products, now)
	assert.Equal(t, TierRegistered, res.Tier)
	assert.Empty(t, res.ProductIDs)
}

func TestResolvePaying(t *testing.T) {
	live := now.Add(24 * time.Hour)
	owned := []models.Entitlement{
		{UserID: 1, ProductID: "sub-monthly", ExpiresAt: &live},
		{UserID: 1, ProductID: "exam-aws-saa"}, // perpetual
	}

	res := Resolve(true, owned, products, now)
	assert.Equal(t, TierPaying, res.Tier)
	assert.ElementsMatch(t, []string{"sub-monthly", "exam-aws-saa"}, res.ProductIDs)
	assert.Nil(t, res.Config.QuestionLimit)
	assert.True(t, res.Config.CanReview)
	assert.True(t, res.Config.DomainMastery)
}

func TestResolveUnknownProductKind(t *testing.T) {
	// An entitlement for a product the catalog does not recognize counts as
	// owned but does not upgrade the tier.
	owned := []models.Entitlement{{UserID: 1, ProductID: "legacy-addon"}}

	res := Resolve(true, owned, products, now)
	assert.Equal(t, TierRegistered, res.Tier)
	assert.Equal(t, []string{"legacy-addon"}, res.ProductIDs)
}

func TestOwns(t *testing.T) {
	res := Resolution{ProductIDs: []string{"exam-aws-saa"}}
	assert.True(t, res.Owns("exam-aws-saa"))
	assert.False(t, res.Owns("bundle-cloud"))
}

func TestAnnotateOwned(t *testing.T) {
	owned := []models.Entitlement{{UserID: 1, ProductID: "bundle-cloud"}}
	res := Resolve(true, owned, products, now)

	listings := AnnotateOwned(products, res)
	require.Len(t, listings, 3)

	byID := map[string]ProductListing{}
	for _, l := range listings {
		byID[l.ProductID] = l
	}
	assert.True(t, byID["bundle-cloud"].Owned)
	assert.False(t, byID["exam-aws-saa"].Owned)
	assert.Equal(t, []string{"AWS-SAA-C03", "AZ-104"}, byID["bundle-cloud"].ExamCodes)
}
