package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "decentra_research_backend/internal/errors"
	"decentra_research_backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/rs/zerolog"
)

const (
	ModeToken  = "token"
	ModeLegacy = "legacy"

	tokenIssuer = "decentra-research"
)

var (
	ErrForbidden    = errors.New("not authorized to modify this research")
	ErrUnauthorized = errors.New("owner token is missing or invalid")
)

// Credentials is what a caller presents when mutating a record.
type Credentials struct {
	ClaimedOwner string
	Token        string
}

// Guard decides whether the caller controls a stored record.
type Guard interface {
	Authorize(record *models.Research, cred Credentials) error
}

// EqualityGuard compares the claimed owner string with the stored one and nothing else.
// Anyone who knows the owner string passes.
type EqualityGuard struct{}

func (EqualityGuard) Authorize(record *models.Research, cred Credentials) error {
	if record.Owner != cred.ClaimedOwner {
		return ErrForbidden
	}
	return nil
}

// TokenGuard requires an owner token whose subject is the stored owner.
type TokenGuard struct {
	issuer *TokenIssuer
}

func NewTokenGuard(issuer *TokenIssuer) *TokenGuard {
	return &TokenGuard{issuer: issuer}
}

func (g *TokenGuard) Authorize(record *models.Research, cred Credentials) error {
	if cred.Token == "" {
		return ErrUnauthorized
	}
	owner, err := g.issuer.Verify(cred.Token)
	if err != nil {
		return ErrUnauthorized
	}
	if owner != record.Owner {
		return ErrForbidden
	}
	if cred.ClaimedOwner != "" && cred.ClaimedOwner != record.Owner {
		return ErrForbidden
	}
	return nil
}

// NewGuard builds the guard for the configured ownership mode.
func NewGuard(mode string, issuer *TokenIssuer) (Guard, error) {
	switch mode {
	case ModeToken, "":
		if issuer == nil {
			return nil, fmt.Errorf("token ownership mode requires a token issuer")
		}
		return NewTokenGuard(issuer), nil
	case ModeLegacy:
		return EqualityGuard{}, nil
	default:
		return nil, fmt.Errorf("unknown ownership mode %q", mode)
	}
}

// TokenIssuer signs and verifies owner capability tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) (*TokenIssuer, error) {
	if len(secret) < 16 {
		return nil, fmt.Errorf("owner token secret must be at least 16 bytes")
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}, nil
}

// Issue returns a signed token asserting control of owner.
func (ti *TokenIssuer) Issue(owner string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": owner,
		"iss": tokenIssuer,
		"iat": now.Unix(),
		"exp": now.Add(ti.ttl).Unix(),
	})
	return token.SignedString(ti.secret)
}

// Verify checks the signature and expiry and returns the owner the token was issued for.
func (ti *TokenIssuer) Verify(tokenString string) (string, error) {
	claims, err := ti.verifyToken(tokenString)
	if err != nil {
		return "", err
	}
	if iss, _ := claims["iss"].(string); iss != tokenIssuer {
		return "", errors.New("unexpected token issuer")
	}
	owner, _ := claims["sub"].(string)
	if owner == "" {
		return "", errors.New("token has no subject")
	}
	return owner, nil
}

func (ti *TokenIssuer) verifyToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ti.secret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header.
func BearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	bearerToken := strings.Split(authHeader, " ")
	if len(bearerToken) != 2 || !strings.EqualFold(bearerToken[0], "Bearer") {
		return ""
	}
	return bearerToken[1]
}

func SetupRoutes(r gin.IRouter, issuer *TokenIssuer) {
	auth := r.Group("/auth")
	{
		auth.POST("/refresh", refreshHandler(issuer))
	}
}

func refreshHandler(issuer *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if issuer == nil {
			apperrors.HandleError(c, apperrors.New404Error("Owner tokens are disabled"))
			return
		}

		owner, err := issuer.Verify(BearerToken(c))
		if err != nil {
			zerolog.Ctx(c.Request.Context()).Debug().Err(err).Msg("owner token refresh rejected")
			apperrors.HandleError(c, apperrors.New401Error(ErrUnauthorized.Error()))
			return
		}

		token, err := issuer.Issue(owner)
		if err != nil {
			apperrors.HandleError(c, apperrors.New500Error(err))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"ownerToken": token,
		})
	}
}
