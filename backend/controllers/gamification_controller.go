package controllers

import (
	"context"
	"log"

	"certprep/backend/config"
	"certprep/backend/gamification"
	"certprep/backend/leaderboard"
	"certprep/backend/middleware"
	"certprep/backend/models"
	"certprep/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type GamificationController struct {
	DB      *gorm.DB
	Cfg     *config.Config
	Catalog []gamification.BadgeDefinition
	Board   *leaderboard.Service
	Logger  *log.Logger
}

func NewGamificationController(db *gorm.DB, cfg *config.Config, catalog []gamification.BadgeDefinition, board *leaderboard.Service, logger *log.Logger) *GamificationController {
	return &GamificationController{DB: db, Cfg: cfg, Catalog: catalog, Board: board, Logger: logger}
}

// GetState godoc
// @Summary Get gamification state
// @Description Returns XP, level, streak, badges and (for paying users) domain mastery
// @Tags gamification
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /gamification [get]
func (gc *GamificationController) GetState(c *fiber.Ctx) error {
	userID, ok := middleware.AuthenticatedUser(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	var state models.GamificationState
	if err := gc.DB.Preload("Badges").Preload("DomainMastery").
		Where("user_id = ?", userID).First(&state).Error; err != nil {
		// No attempts yet: an empty state is still a valid answer.
		state = models.GamificationState{UserID: userID}
	}

	res := resolveAccess(c, gc.DB)
	return c.JSON(stateSummary(state, gc.Catalog, res.Config.DomainMastery))
}

// UpdateLeaderboardOptIn godoc
// @Summary Set leaderboard opt-in
// @Description Opting out removes the user from the public ranking
// @Tags gamification
// @Accept json
// @Produce json
// @Param request body map[string]bool true "Opt-in flag"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /gamification/leaderboard [put]
func (gc *GamificationController) UpdateLeaderboardOptIn(c *fiber.Ctx) error {
	userID, ok := middleware.AuthenticatedUser(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	type OptInInput struct {
		OptIn bool `json:"opt_in"`
	}
	var input OptInInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Cannot parse JSON")
	}

	var state models.GamificationState
	if err := gc.DB.Where("user_id = ?", userID).First(&state).Error; err != nil {
		state = models.GamificationState{UserID: userID, LeaderboardOptIn: input.OptIn}
		if err := gc.DB.Create(&state).Error; err != nil {
			return utils.InternalServerError(c, "Could not save preference")
		}
	} else {
		err := gc.DB.Model(&state).Update("leaderboard_opt_in", input.OptIn).Error
		if err != nil {
			return utils.InternalServerError(c, "Could not save preference")
		}
	}

	if gc.Board != nil {
		var user models.User
		if err := gc.DB.First(&user, userID).Error; err == nil {
			var boardErr error
			if input.OptIn {
				boardErr = gc.Board.Record(context.Background(), user.Username, state.XP)
			} else {
				boardErr = gc.Board.Remove(context.Background(), user.Username)
			}
			if boardErr != nil {
				gc.Logger.Printf("leaderboard sync failed for user %d: %v", userID, boardErr)
			}
		}
	}

	return c.JSON(fiber.Map{"leaderboard_opt_in": input.OptIn})
}

// GetLeaderboard godoc
// @Summary Get the XP leaderboard
// @Description Returns the top opted-in users; requires the leaderboard feature
// @Tags gamification
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /leaderboard [get]
func (gc *GamificationController) GetLeaderboard(c *fiber.Ctx) error {
	if _, ok := middleware.AuthenticatedUser(c); !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}

	res := resolveAccess(c, gc.DB)
	if !res.Config.Leaderboard {
		return utils.Forbidden(c, "Leaderboard is not available on your plan")
	}

	if gc.Board == nil {
		return utils.Error(c, fiber.StatusServiceUnavailable,
			fiber.NewError(fiber.StatusServiceUnavailable, "Leaderboard is temporarily unavailable"))
	}

	entries, err := gc.Board.Top(c.Context(), 25)
	if err != nil {
		return utils.InternalServerError(c, "Could not read leaderboard")
	}

	return c.JSON(fiber.Map{"leaderboard": entries})
}

// stateSummary shapes a gamification state for clients. Domain mastery is
// included only when the caller's tier carries that feature.
func stateSummary(state models.GamificationState, catalog []gamification.BadgeDefinition, includeMastery bool) fiber.Map {
	info, err := gamification.LevelFromXP(state.XP)
	if err != nil {
		info = gamification.LevelInfo{NextLevelXP: 100}
	}

	badgeIDs := make([]string, 0, len(state.Badges))
	earnedAt := make(map[string]interface{}, len(state.Badges))
	for _, b := range state.Badges {
		badgeIDs = append(badgeIDs, b.BadgeID)
		earnedAt[b.BadgeID] = b.EarnedAt
	}

	badges := badgeDetails(badgeIDs, catalog)
	for i := range badges {
		badges[i]["earned_at"] = earnedAt[badges[i]["id"].(string)]
	}

	summary := fiber.Map{
		"xp":                 state.XP,
		"level":              info,
		"streak":             state.Streak,
		"last_practice_date": state.LastPracticeDate,
		"badges":             badges,
		"leaderboard_opt_in": state.LeaderboardOptIn,
	}

	if includeMastery {
		mastery := make([]fiber.Map, 0, len(state.DomainMastery))
		for _, dm := range state.DomainMastery {
			mastery = append(mastery, fiber.Map{
				"domain":   dm.Domain,
				"tier":     dm.Tier,
				"progress": dm.Progress,
				"scores":   dm.Scores(),
			})
		}
		summary["domain_mastery"] = mastery
	}

	return summary
}

// badgeDetails joins earned badge IDs with their catalog definitions.
func badgeDetails(ids []string, catalog []gamification.BadgeDefinition) []fiber.Map {
	byID := make(map[string]gamification.BadgeDefinition, len(catalog))
	for _, def := range catalog {
		byID[def.ID] = def
	}

	details := make([]fiber.Map, 0, len(ids))
	for _, id := range ids {
		def, found := byID[id]
		if !found {
			continue
		}
		details = append(details, fiber.Map{
			"id":          def.ID,
			"name":        def.Name,
			"description": def.Description,
			"icon":        def.Icon,
			"category":    def.Category,
		})
	}
	return details
}
