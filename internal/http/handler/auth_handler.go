package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/linklytics/linklytics/internal/app/service"
	"github.com/linklytics/linklytics/internal/http/util"
	"go.uber.org/zap"
)

// AuthDeps groups dependencies required by auth handlers.
type AuthDeps struct {
	Logger      *zap.Logger
	AuthService service.AuthService
	Signer      *util.TokenSigner
}

// AuthHandler exchanges Google identity tokens for API tokens.
type AuthHandler struct {
	logger *zap.Logger
	auth   service.AuthService
	signer *util.TokenSigner
}

// NewAuthHandler creates an auth handler with the provided dependencies.
func NewAuthHandler(deps AuthDeps) *AuthHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		logger: logger,
		auth:   deps.AuthService,
		signer: deps.Signer,
	}
}

// Register wires auth routes onto the provided router.
func (h *AuthHandler) Register(router fiber.Router) {
	router.Post("/api/auth/google", h.GoogleSignIn)
}

// GoogleSignInRequest carries the Google ID token obtained by the client.
type GoogleSignInRequest struct {
	IDToken string `json:"idToken"`
}

// GoogleSignInResponse returns the API token and the signed-in account.
type GoogleSignInResponse struct {
	Token string          `json:"token"`
	User  AccountResponse `json:"user"`
}

// AccountResponse is the public view of an account.
type AccountResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// GoogleSignIn handles POST /api/auth/google. The Google ID token comes
// as a bearer Authorization header, with a JSON body fallback for clients
// that cannot set headers.
func (h *AuthHandler) GoogleSignIn(c *fiber.Ctx) error {
	idToken := bearerIDToken(c.Get(fiber.HeaderAuthorization))
	if idToken == "" {
		var req GoogleSignInRequest
		if err := c.BodyParser(&req); err == nil {
			idToken = req.IDToken
		}
	}

	if idToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Google ID token is required",
		})
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	account, err := h.auth.SignIn(ctx, idToken)
	if err != nil {
		if errors.Is(err, service.ErrIdentityRejected) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "identity token rejected",
			})
		}
		h.logger.Error("sign-in failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "sign-in failed",
		})
	}

	token, err := h.signer.Issue(account.ID)
	if err != nil {
		h.logger.Error("failed to issue API token", zap.Error(err), zap.Uint("account_id", account.ID))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to issue token",
		})
	}

	return c.JSON(GoogleSignInResponse{
		Token: token,
		User: AccountResponse{
			ID:    account.ID,
			Name:  account.Name,
			Email: account.Email,
		},
	})
}

func bearerIDToken(header string) string {
	if len(header) < 8 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
