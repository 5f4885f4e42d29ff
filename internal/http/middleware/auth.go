package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/linklytics/linklytics/internal/app/model"
	"github.com/linklytics/linklytics/internal/app/repository"
	"github.com/linklytics/linklytics/internal/http/util"
	"go.uber.org/zap"
)

// AccountLocalKey is where Auth stores the authenticated account on the
// request context.
const AccountLocalKey = "account"

// AccountLoader resolves an account ID from a validated token to the
// account record.
type AccountLoader interface {
	GetAccount(ctx context.Context, id uint) (*model.Account, error)
}

// Auth validates the bearer API token and loads the caller's account into
// the request locals. Requests without a valid token get 401.
func Auth(signer *util.TokenSigner, accounts AccountLoader, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authorization header missing or malformed",
			})
		}

		accountID, err := signer.Parse(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or expired token",
			})
		}

		account, err := accounts.GetAccount(c.UserContext(), accountID)
		if err != nil {
			if errors.Is(err, repository.ErrAccountNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "invalid or expired token",
				})
			}
			logger.Error("failed to load account", zap.Uint("account_id", accountID), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "internal server error",
			})
		}

		c.Locals(AccountLocalKey, account)
		return c.Next()
	}
}

// AccountFromCtx returns the account stored by Auth, or nil when the
// request is unauthenticated.
func AccountFromCtx(c *fiber.Ctx) *model.Account {
	account, _ := c.Locals(AccountLocalKey).(*model.Account)
	return account
}

func bearerToken(header string) (string, bool) {
	if len(header) < 8 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}
