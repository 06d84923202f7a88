// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tazjel/baloot-ai-sub002/internal/models"
)

// Sessions issues and verifies the seat tokens that tie a websocket
// connection to a specific seat in a specific room. Account identity is an
// upstream concern; a seat token only proves the holder was granted that
// seat by this process (or by a peer sharing the same key files).
type Sessions struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
	expireSec  int
}

// SeatClaims is the verified content of a seat token.
type SeatClaims struct {
	UserID uuid.UUID
	RoomID uuid.UUID
	Seat   models.Seat
}

// NewSessions generates a fresh ed25519 key pair. Tokens die with the
// process, which is fine for a single-node deployment.
func NewSessions() (*Sessions, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	s := &Sessions{privateKey: priv, publicKey: pub}
	if err := s.parseExpire(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewSessionsFromPath reads ed25519 private/public keys from file so tokens
// survive restarts and can be verified by peer processes.
func NewSessionsFromPath(privatePath, publicPath string) (*Sessions, error) {
	privateKeyData, err := os.ReadFile(privatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key file: %w", err)
	}
	publicKeyData, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key file: %w", err)
	}
	s := &Sessions{
		privateKey: ed25519.PrivateKey(privateKeyData),
		publicKey:  ed25519.PublicKey(publicKeyData),
	}
	if err := s.parseExpire(); err != nil {
		return nil, err
	}
	return s, nil
}

// parseExpire reads the TOKEN_EXPIRE_TIME env var ("never"/"0"/"" => no
// expiry claim).
func (s *Sessions) parseExpire() error {
	duration := os.Getenv("TOKEN_EXPIRE_TIME")
	if duration == "never" || duration == "0" || duration == "" {
		s.expireSec = 0
		return nil
	}
	d, err := time.ParseDuration(duration)
	if err != nil {
		return fmt.Errorf("failed to parse token expire time: %w", err)
	}
	s.expireSec = int(d.Seconds())
	return nil
}

// IssueSeatToken creates a signed JWT binding a user to a seat in a room.
func (s *Sessions) IssueSeatToken(userID, roomID uuid.UUID, seat models.Seat) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID.String(),
		"room": roomID.String(),
		"seat": int(seat),
	}
	if s.expireSec > 0 {
		claims["exp"] = time.Now().Add(time.Duration(s.expireSec) * time.Second).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(s.privateKey)
}

// VerifySeatToken validates a seat token and returns its claims.
func (s *Sessions) VerifySeatToken(tokenString string) (SeatClaims, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.publicKey, nil
	})
	if err != nil {
		return SeatClaims{}, fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return SeatClaims{}, fmt.Errorf("invalid token")
	}
	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return SeatClaims{}, fmt.Errorf("invalid jwt claims")
	}

	var sc SeatClaims
	sub, ok := claims["sub"].(string)
	if !ok {
		return SeatClaims{}, fmt.Errorf("missing sub in jwt")
	}
	if sc.UserID, err = uuid.Parse(sub); err != nil {
		return SeatClaims{}, fmt.Errorf("malformed sub in jwt: %w", err)
	}
	room, ok := claims["room"].(string)
	if !ok {
		return SeatClaims{}, fmt.Errorf("missing room in jwt")
	}
	if sc.RoomID, err = uuid.Parse(room); err != nil {
		return SeatClaims{}, fmt.Errorf("malformed room in jwt: %w", err)
	}
	seatNum, ok := claims["seat"].(float64)
	if !ok || seatNum < 0 || seatNum > 3 {
		return SeatClaims{}, fmt.Errorf("missing or out-of-range seat in jwt")
	}
	sc.Seat = models.Seat(int(seatNum))
	return sc, nil
}
