package authutils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inkwell-server/shared/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sessionIssuer = "inkwell-server"

// SessionManager выпускает и проверяет JWT сессии разблокировки
// рабочего пространства (HS256).
type SessionManager struct {
	jwtSecret string
	ttl       time.Duration
	logger    *zap.Logger
}

// NewSessionManager создает новый экземпляр SessionManager.
// Принимает секрет, TTL сессии и опционально логгер (nil — Noop).
func NewSessionManager(jwtSecret string, ttl time.Duration, logger *zap.Logger) (*SessionManager, error) {
	if jwtSecret == "" {
		return nil, errors.New("JWT secret cannot be empty")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionManager{
		jwtSecret: jwtSecret,
		ttl:       ttl,
		logger:    logger.Named("SessionManager"),
	}, nil
}

// IssueToken выпускает подписанный токен новой сессии.
func (m *SessionManager) IssueToken(ctx context.Context) (string, *models.SessionClaims, error) {
	now := time.Now().UTC()
	claims := &models.SessionClaims{
		SessionID: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   "workspace",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.jwtSecret))
	if err != nil {
		m.logger.Error("Failed to sign session token", zap.Error(err))
		return "", nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	m.logger.Debug("Session token issued", zap.String("sessionID", claims.SessionID), zap.Time("expiresAt", claims.ExpiresAt.Time))
	return signed, claims, nil
}

// VerifyToken проверяет подпись JWT, его валидность и извлекает claims.
func (m *SessionManager) VerifyToken(ctx context.Context, tokenString string) (*models.SessionClaims, error) {
	log := m.logger.With(zap.String("tokenSnippet", tokenSnippet(tokenString)))
	claims := &models.SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Проверяем метод подписи
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			log.Warn("Unexpected signing method", zap.Any("alg", token.Header["alg"]))
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.jwtSecret), nil
	})

	if err != nil {
		log.Warn("Failed to parse or verify token", zap.Error(err))
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.ErrTokenExpired
		} else if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, models.ErrTokenMalformed
		} else if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, models.ErrTokenInvalid
		}
		return nil, fmt.Errorf("%w: %v", models.ErrTokenInvalid, err)
	}

	if !token.Valid {
		log.Warn("Token is invalid despite no parsing error")
		return nil, models.ErrTokenInvalid
	}

	if claims.SessionID == "" {
		log.Warn("Token missing SessionID")
		return nil, fmt.Errorf("%w: session id missing", models.ErrTokenInvalid)
	}

	log.Debug("Token verified successfully", zap.String("sessionID", claims.SessionID))
	return claims, nil
}

// tokenSnippet возвращает безопасную для логгирования часть токена.
func tokenSnippet(tokenString string) string {
	limit := 15
	if len(tokenString) > limit {
		return tokenString[:limit] + "..."
	}
	return tokenString
}
