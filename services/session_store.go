package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salonica-backend/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix  = "session:"
	refreshKeyPrefix  = "refresh_token:"
	recoveryKeyPrefix = "recovery:"
	userSessionsKey   = "user_sessions:"

	refreshTokenBytes  = 32
	recoveryTokenBytes = 32
)

// SessionStore keeps login sessions, refresh tokens and password recovery
// tokens in redis.
type SessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSessionStore(rdb *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{rdb: rdb, ttl: ttl}
}

// Create opens a session for userID and returns its id with a fresh
// refresh token.
func (s *SessionStore) Create(ctx context.Context, userID uuid.UUID) (string, string, error) {
	sessionID := uuid.NewString()
	refresh, err := utils.GenerateRandomToken(refreshTokenBytes)
	if err != nil {
		return "", "", fmt.Errorf("generate refresh token: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, sessionKeyPrefix+sessionID, "user_id", userID.String(), "refresh_token", refresh)
		pipe.Expire(ctx, sessionKeyPrefix+sessionID, s.ttl)
		pipe.Set(ctx, refreshKeyPrefix+refresh, sessionID, s.ttl)
		pipe.SAdd(ctx, userSessionsKey+userID.String(), sessionID)
		pipe.Expire(ctx, userSessionsKey+userID.String(), s.ttl)
		return nil
	})
	if err != nil {
		return "", "", fmt.Errorf("store session: %w", err)
	}
	return sessionID, refresh, nil
}

// Validate reports whether sessionID is alive and belongs to userID.
func (s *SessionStore) Validate(ctx context.Context, sessionID string, userID uuid.UUID) error {
	if sessionID == "" {
		return utils.NewUnauthenticatedError("Invalid token")
	}
	owner, err := s.rdb.HGet(ctx, sessionKeyPrefix+sessionID, "user_id").Result()
	if errors.Is(err, redis.Nil) {
		return utils.NewUnauthenticatedError("Session has been revoked")
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if owner != userID.String() {
		return utils.NewUnauthenticatedError("Invalid token")
	}
	return nil
}

// Rotate exchanges a refresh token for a new one on the same session. The
// old token is claimed with GETDEL so concurrent refreshes cannot both win.
func (s *SessionStore) Rotate(ctx context.Context, refresh string) (uuid.UUID, string, string, error) {
	sessionID, err := s.rdb.GetDel(ctx, refreshKeyPrefix+refresh).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, "", "", utils.NewUnauthenticatedError("Invalid refresh token")
	}
	if err != nil {
		return uuid.Nil, "", "", fmt.Errorf("load refresh token: %w", err)
	}

	rawUserID, err := s.rdb.HGet(ctx, sessionKeyPrefix+sessionID, "user_id").Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, "", "", utils.NewUnauthenticatedError("Session has been revoked")
	}
	if err != nil {
		return uuid.Nil, "", "", fmt.Errorf("load session: %w", err)
	}
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		return uuid.Nil, "", "", fmt.Errorf("corrupt session %s: %w", sessionID, err)
	}

	next, err := utils.GenerateRandomToken(refreshTokenBytes)
	if err != nil {
		return uuid.Nil, "", "", fmt.Errorf("generate refresh token: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, refreshKeyPrefix+next, sessionID, s.ttl)
		pipe.HSet(ctx, sessionKeyPrefix+sessionID, "refresh_token", next)
		pipe.Expire(ctx, sessionKeyPrefix+sessionID, s.ttl)
		return nil
	})
	if err != nil {
		return uuid.Nil, "", "", fmt.Errorf("rotate refresh token: %w", err)
	}
	return userID, sessionID, next, nil
}

// Revoke ends a session and invalidates its refresh token.
func (s *SessionStore) Revoke(ctx context.Context, sessionID string) error {
	values, err := s.rdb.HGetAll(ctx, sessionKeyPrefix+sessionID).Result()
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if len(values) == 0 {
		return nil
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKeyPrefix+sessionID)
		if refresh := values["refresh_token"]; refresh != "" {
			pipe.Del(ctx, refreshKeyPrefix+refresh)
		}
		if userID := values["user_id"]; userID != "" {
			pipe.SRem(ctx, userSessionsKey+userID, sessionID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// RevokeAll ends every session of userID.
func (s *SessionStore) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	sessionIDs, err := s.rdb.SMembers(ctx, userSessionsKey+userID.String()).Result()
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	for _, sessionID := range sessionIDs {
		if err := s.Revoke(ctx, sessionID); err != nil {
			return err
		}
	}
	return nil
}

// CreateRecoveryToken issues a single-use password recovery token.
func (s *SessionStore) CreateRecoveryToken(ctx context.Context, userID uuid.UUID, ttl time.Duration) (string, error) {
	token, err := utils.GenerateRandomToken(recoveryTokenBytes)
	if err != nil {
		return "", fmt.Errorf("generate recovery token: %w", err)
	}
	if err := s.rdb.Set(ctx, recoveryKeyPrefix+token, userID.String(), ttl).Err(); err != nil {
		return "", fmt.Errorf("store recovery token: %w", err)
	}
	return token, nil
}

// ConsumeRecoveryToken returns the user a recovery token was issued for and
// deletes it.
func (s *SessionStore) ConsumeRecoveryToken(ctx context.Context, token string) (uuid.UUID, error) {
	raw, err := s.rdb.GetDel(ctx, recoveryKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, utils.NewValidationError("Invalid or expired reset token")
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("consume recovery token: %w", err)
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("corrupt recovery token: %w", err)
	}
	return userID, nil
}

// Ping checks the redis connection.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
