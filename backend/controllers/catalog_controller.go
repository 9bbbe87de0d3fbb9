package controllers

import (
	"certprep/backend/config"
	"certprep/backend/entitlements"
	"certprep/backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CatalogController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewCatalogController(db *gorm.DB, cfg *config.Config) *CatalogController {
	return &CatalogController{DB: db, Cfg: cfg}
}

// GetAccess godoc
// @Summary Get the caller's access level
// @Description Returns the effective tier, its feature flags and the live entitlements
// @Tags catalog
// @Produce json
// @Success 200 {object} entitlements.Resolution
// @Router /access [get]
func (cc *CatalogController) GetAccess(c *fiber.Ctx) error {
	res := resolveAccess(c, cc.DB)
	if res.ProductIDs == nil {
		res.ProductIDs = []string{}
	}
	return c.JSON(res)
}

// GetProducts godoc
// @Summary List purchasable products
// @Description Each product carries an owned flag derived from the caller's live entitlements
// @Tags catalog
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /products [get]
func (cc *CatalogController) GetProducts(c *fiber.Ctx) error {
	var products []models.Product
	cc.DB.Find(&products)

	res := resolveAccess(c, cc.DB)
	return c.JSON(fiber.Map{
		"tier":     res.Tier,
		"products": entitlements.AnnotateOwned(products, res),
	})
}
