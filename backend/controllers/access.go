package controllers

import (
	"time"

	"certprep/backend/entitlements"
	"certprep/backend/middleware"
	"certprep/backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// resolveAccess computes the caller's effective tier from their identity (if
// any) and stored entitlement records. Visitors resolve without touching the
// database.
func resolveAccess(c *fiber.Ctx, db *gorm.DB) entitlements.Resolution {
	userID, ok := middleware.AuthenticatedUser(c)
	if !ok {
		return entitlements.Resolve(false, nil, nil, time.Now())
	}

	var owned []models.Entitlement
	db.Where("user_id = ?", userID).Find(&owned)

	var products []models.Product
	db.Find(&products)

	return entitlements.Resolve(true, owned, products, time.Now())
}
