package controller

import (
	"context"
	"fmt"
	"net/mail"
	"strconv"

	"chat-service/config"
	"chat-service/database"
	"chat-service/model"
	"chat-service/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

type AuthLoginInput struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type AuthRenewTokenInput struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthOtpInput struct {
	Password string `json:"password"`
	Token    string `json:"token"`
}

func serverError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"status":  "error",
		"message": "Internal server error",
		"data":    nil,
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"status":  "error",
		"message": message,
		"data":    nil,
	})
}

func errorResponse(c *fiber.Ctx, message string) error {
	return c.JSON(fiber.Map{
		"status":  "error",
		"message": message,
		"data":    nil,
	})
}

// currentUserID reads the id claim set by the JWT middleware.
func currentUserID(c *fiber.Ctx) uint {
	user := c.Locals("user").(*jwt.Token)
	claims := user.Claims.(jwt.MapClaims)
	id, _ := strconv.ParseUint(claims["id"].(string), 10, 64)
	return uint(id)
}

func currentUser(c *fiber.Ctx) (*model.User, error) {
	userModel := new(model.User)
	err := database.Postgres.First(&userModel, currentUserID(c)).Error
	return userModel, err
}

func issueTokens(c *fiber.Ctx, id string, otp bool) error {
	tokens, err := utils.GenerateTokens(id, otp)
	if err != nil {
		return serverError(c)
	}

	// Save refresh token to Redis
	if err := database.Redis[0].Set(context.Background(), id, tokens.Refresh, 0).Err(); err != nil {
		return serverError(c)
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data": fiber.Map{
			"access":  tokens.Access,
			"refresh": tokens.Refresh,
			"2fa":     otp,
		},
	})
}

func AuthSignup(c *fiber.Ctx) error {
	user := new(model.User)
	if err := c.BodyParser(user); err != nil {
		return badRequest(c, "Review your input")
	}

	if count := database.Postgres.
		Where(&model.User{Email: user.Email}).
		First(new(model.User)).
		RowsAffected; count > 0 {
		return badRequest(c, "Email is already registered")
	}

	if count := database.Postgres.
		Where(&model.User{Username: user.Username}).
		First(new(model.User)).
		RowsAffected; count > 0 {
		return badRequest(c, "Username is already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), 14)
	if err != nil {
		return serverError(c)
	}
	user.Password = string(hash)

	// Generate OTP secret, enabled later via /2fa/verify
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      config.Config("OTP_ISSUER"),
		AccountName: user.Email,
		SecretSize:  15,
	})
	if err != nil {
		return serverError(c)
	}
	user.Otp_secret = key.Secret()

	user.Role = "user"

	if err := database.Postgres.Create(&user).Error; err != nil {
		return serverError(c)
	}

	// Add casbin policy
	database.Casbin().AddGroupingPolicy(fmt.Sprint(user.ID), user.Role)

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data": fiber.Map{
			"id": user.ID,
		},
	})
}

func AuthSignin(c *fiber.Ctx) error {
	input := new(AuthLoginInput)
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Review your input")
	}

	userModel, err := new(model.User), *new(error)

	_, errParse := mail.ParseAddress(input.Login)
	if errParse == nil {
		err = database.Postgres.Where(&model.User{Email: input.Login}).First(&userModel).Error
	} else {
		err = database.Postgres.Where(&model.User{Username: input.Login}).First(&userModel).Error
	}

	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid login or password",
			"data":    nil,
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(userModel.Password), []byte(input.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid login or password",
			"data":    nil,
		})
	}

	idStr := strconv.FormatUint(uint64(userModel.ID), 10)
	return issueTokens(c, idStr, userModel.Otp_enabled)
}

func AuthTokenRenew(c *fiber.Ctx) error {
	renew := &AuthRenewTokenInput{}
	if err := c.BodyParser(renew); err != nil {
		return badRequest(c, "Review your input")
	}

	claims, err := utils.CheckAndExtractTokenMetadata(renew.RefreshToken, "JWT_REFRESH_KEY")
	if err != nil {
		return errorResponse(c, "Invalid token")
	}

	userToken, err := database.Redis[0].Get(context.Background(), claims.Id).Result()
	if err != nil {
		return serverError(c)
	}

	if userToken != renew.RefreshToken {
		return errorResponse(c, "Unauthorized, your refresh token was already used")
	}

	return issueTokens(c, claims.Id, claims.Otp)
}

func AuthOtpSecret(c *fiber.Ctx) error {
	secret := &AuthOtpInput{}
	if err := c.BodyParser(secret); err != nil {
		return badRequest(c, "Review your input")
	}

	userModel, err := currentUser(c)
	if err != nil {
		return serverError(c)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(userModel.Password), []byte(secret.Password)); err != nil {
		return errorResponse(c, "Invalid password")
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data": fiber.Map{
			"secret": userModel.Otp_secret,
			"url": fmt.Sprintf("otpauth://totp/%s:%s?algorithm=SHA1&digits=6&issuer=%s&period=30&secret=%s",
				config.Config("OTP_ISSUER"),
				userModel.Email,
				config.Config("OTP_ISSUER"),
				userModel.Otp_secret,
			),
		},
	})
}

func AuthOtpVerify(c *fiber.Ctx) error {
	verify := &AuthOtpInput{}
	if err := c.BodyParser(verify); err != nil {
		return badRequest(c, "Review your input")
	}

	userModel, err := currentUser(c)
	if err != nil {
		return serverError(c)
	}

	if userModel.Otp_enabled {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  "error",
			"message": "Verification has already been performed earlier",
			"data":    nil,
		})
	}

	if !totp.Validate(verify.Token, userModel.Otp_secret) {
		return errorResponse(c, "Invalid token")
	}

	userModel.Otp_enabled = true
	database.Postgres.Save(&userModel)

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data":    nil,
	})
}

func AuthOtpValidate(c *fiber.Ctx) error {
	validate := &AuthOtpInput{}
	if err := c.BodyParser(validate); err != nil {
		return badRequest(c, "Review your input")
	}

	userModel, err := currentUser(c)
	if err != nil {
		return serverError(c)
	}

	if !userModel.Otp_enabled {
		return errorResponse(c, "2FA has been disabled")
	}

	if !totp.Validate(validate.Token, userModel.Otp_secret) {
		return errorResponse(c, "Invalid token")
	}

	idStr := strconv.FormatUint(uint64(userModel.ID), 10)
	return issueTokens(c, idStr, false)
}

func AuthOtpDisable(c *fiber.Ctx) error {
	disable := &AuthOtpInput{}
	if err := c.BodyParser(disable); err != nil {
		return badRequest(c, "Review your input")
	}

	userModel, err := currentUser(c)
	if err != nil {
		return serverError(c)
	}

	if !userModel.Otp_enabled {
		return errorResponse(c, "2FA not enabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(userModel.Password), []byte(disable.Password)); err != nil {
		return errorResponse(c, "Invalid password")
	}

	if !totp.Validate(disable.Token, userModel.Otp_secret) {
		return errorResponse(c, "Invalid token")
	}

	userModel.Otp_enabled = false
	database.Postgres.Save(&userModel)

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data":    nil,
	})
}
