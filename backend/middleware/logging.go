package middleware

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
)

func LoggingMiddleware(logger *log.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Hand off to the next handler
		err := c.Next()

		// Log the request
		logger.Printf(
			"[%s] %s %s %s %d %dB %v",
			time.Now().Format("2006-01-02 15:04:05"),
			c.IP(),
			c.Method(),
			c.Path(),
			c.Response().StatusCode(),
			len(c.Response().Body()),
			time.Since(start),
		)

		return err
	}
}
