package controller

import (
	"chat-service/database"
	"chat-service/model"

	"github.com/gofiber/fiber/v2"
)

func UserProfile(c *fiber.Ctx) error {
	userModel, err := currentUser(c)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data": fiber.Map{
			"id":       userModel.ID,
			"created":  userModel.CreatedAt.Unix(),
			"username": userModel.Username,
			"email":    userModel.Email,
			"photoUrl": userModel.PhotoUrl,
			"role":     userModel.Role,
			"otp":      userModel.Otp_enabled,
		},
	})
}

// UserSearch feeds the client's contact search. Matches become draft entries
// in the client mirror until a first message is sent.
func UserSearch(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return badRequest(c, "Missing search query")
	}

	users := []model.User{}
	err := database.Postgres.
		Where("username LIKE ?", "%"+query+"%").
		Where("id <> ?", currentUserID(c)).
		Limit(10).
		Find(&users).Error
	if err != nil {
		return serverError(c)
	}

	results := []fiber.Map{}
	for _, user := range users {
		results = append(results, fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"photoUrl": user.PhotoUrl,
		})
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data":    results,
	})
}

func AdminUsers(c *fiber.Ctx) error {
	users := []model.User{}
	if err := database.Postgres.Find(&users).Error; err != nil {
		return serverError(c)
	}

	results := []fiber.Map{}
	for _, user := range users {
		results = append(results, fiber.Map{
			"id":       user.ID,
			"created":  user.CreatedAt.Unix(),
			"username": user.Username,
			"email":    user.Email,
			"role":     user.Role,
			"otp":      user.Otp_enabled,
		})
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data":    results,
	})
}
