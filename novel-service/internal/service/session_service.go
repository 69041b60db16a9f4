package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"inkwell-server/shared/authutils"
	"inkwell-server/shared/models"
)

// Session — выпущенная сессия разблокировки.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionService обменивает парольную фразу блокировки на JWT сессии.
type SessionService interface {
	// Unlock сверяет фразу и выпускает токен сессии.
	Unlock(ctx context.Context, passphrase string) (*Session, error)
}

type sessionServiceImpl struct {
	settings SettingsService
	sessions *authutils.SessionManager
	logger   *zap.Logger
}

// NewSessionService creates a new instance of SessionService.
func NewSessionService(settings SettingsService, sessions *authutils.SessionManager, logger *zap.Logger) SessionService {
	return &sessionServiceImpl{
		settings: settings,
		sessions: sessions,
		logger:   logger.Named("SessionService"),
	}
}

func (s *sessionServiceImpl) Unlock(ctx context.Context, passphrase string) (*Session, error) {
	if err := s.settings.VerifyPassphrase(ctx, passphrase); err != nil {
		if err == models.ErrInvalidCredentials {
			s.logger.Warn("Unlock attempt with wrong passphrase")
		}
		return nil, err
	}

	token, claims, err := s.sessions.IssueToken(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Workspace unlocked", zap.String("sessionID", claims.SessionID))
	return &Session{Token: token, ExpiresAt: claims.ExpiresAt.Time}, nil
}
