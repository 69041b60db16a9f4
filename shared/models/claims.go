package models

import "github.com/golang-jwt/jwt/v5"

// SessionClaims представляет стандартные поля JWT плюс данные сессии,
// которые мы включаем в токен разблокировки рабочего пространства.
type SessionClaims struct {
	SessionID            string `json:"session_id"`
	jwt.RegisteredClaims        // Встраиваем стандартные поля: Issuer, Subject, ExpiresAt, IssuedAt, ID (JTI)
}
