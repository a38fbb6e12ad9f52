package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

type videoItem struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
	CreatedAt    string `json:"created_at"`
}

var publishedAt = time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC).Format(time.RFC3339)

// videoLibrary is the fixed caregiver library the development backend serves.
var videoLibrary = []videoItem{
	{ID: 1, Title: "Building a calm-down corner", URL: "https://videos.heartbridge.dev/calm-down-corner.mp4", ThumbnailURL: "https://videos.heartbridge.dev/calm-down-corner.jpg", CreatedAt: publishedAt},
	{ID: 2, Title: "Visual schedules for mornings", URL: "https://videos.heartbridge.dev/visual-schedules.mp4", ThumbnailURL: "https://videos.heartbridge.dev/visual-schedules.jpg", CreatedAt: publishedAt},
	{ID: 3, Title: "Spotting early signs of overload", URL: "https://videos.heartbridge.dev/overload-signs.mp4", ThumbnailURL: "https://videos.heartbridge.dev/overload-signs.jpg", CreatedAt: publishedAt},
}

// RegisterVideoRoutes serves the video library to authenticated users.
func RegisterVideoRoutes(r fiber.Router, requireAuth fiber.Handler) {
	r.Get("/videos", requireAuth, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"videos": videoLibrary})
	})
}
