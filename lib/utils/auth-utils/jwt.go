package authutils

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"travelink-backend/config"
	"travelink-backend/models"
)

func GetToken(user UserClaims) (tokenString string, err error) {
	claims := jwt.MapClaims{
		"name":        user.Name,
		"sub":         user.UserID,
		"email":       user.Email,
		"role":        string(user.Role),
		"dept":        user.DepartmentID,
		"head":        user.IsHead,
		"admin":       user.IsAdmin,
		"comptroller": user.IsComptroller,
		"hr":          user.IsHr,
		"exec":        user.IsExec,
		"exp":         time.Now().Add(time.Hour * time.Duration(config.Conf.Auth.TokenTTLHours)).Unix(),
		"iat":         time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.Conf.Auth.JWTSecret))
}

// UserClaims is the identity payload carried in the access token.
type UserClaims struct {
	UserID        string
	Name          string
	Email         string
	Role          models.UserRole
	DepartmentID  string
	IsHead        bool
	IsAdmin       bool
	IsComptroller bool
	IsHr          bool
	IsExec        bool
}

func GetClaims(ctx *fiber.Ctx) jwt.MapClaims {
	token, ok := ctx.Locals("user").(*jwt.Token)
	if !ok {
		return jwt.MapClaims{}
	}
	return token.Claims.(jwt.MapClaims)
}

func GetUserID(ctx *fiber.Ctx) string {
	claims := GetClaims(ctx)
	if sub, ok := claims["sub"].(string); ok {
		return sub
	}
	return ""
}

func GetUserRole(ctx *fiber.Ctx) models.UserRole {
	claims := GetClaims(ctx)
	if role, ok := claims["role"].(string); ok {
		return models.UserRole(role)
	}
	return ""
}
