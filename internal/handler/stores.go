package handler

// Store interfaces consumed by the handlers. The repository package returns
// concrete repos that satisfy them; tests substitute in-memory fakes. The
// handlers accept the interfaces and never reach for *sql.DB directly.

import (
	"context"
	"time"

	"github.com/slogsolutions/Army-Exam-Portal/internal/repository"
)

// UserStore is the identity-store surface the handlers need.
type UserStore interface {
	Create(ctx context.Context, u *repository.User, password string, cost int) error
	GetByUsername(ctx context.Context, username string) (repository.User, error)
	GetByID(ctx context.Context, id uint64) (repository.User, error)
	HasActiveEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, q repository.UserListQuery) ([]repository.User, int64, error)
	Update(ctx context.Context, u *repository.User) error
	UpdatePassword(ctx context.Context, id uint64, password string, cost int) error
	SetLastLogin(ctx context.Context, id uint64, ip string) error
	Delete(ctx context.Context, id uint64) error
	Counts(ctx context.Context) (total, active int64, err error)
}

// CenterStore is the center-registry surface the handlers need.
type CenterStore interface {
	Create(ctx context.Context, c *repository.Center) error
	GetByID(ctx context.Context, id uint64) (repository.Center, error)
	List(ctx context.Context, q repository.CenterListQuery) ([]repository.Center, int64, error)
	Update(ctx context.Context, c *repository.Center) error
	Delete(ctx context.Context, id uint64) error
	Counts(ctx context.Context) (total, active int64, err error)
}

// SessionStore is the session-ledger surface the handlers need.
type SessionStore interface {
	Open(ctx context.Context, userID uint64, key, ip, userAgent string) (repository.Session, error)
	Close(ctx context.Context, sessionKey string) error
	CloseAllForUser(ctx context.Context, userID uint64) (int64, error)
	List(ctx context.Context, q repository.SessionListQuery) ([]repository.Session, int64, error)
	CountActive(ctx context.Context) (int64, error)
}

// AttemptStore is the login-attempt ledger surface the handlers need.
type AttemptStore interface {
	Record(ctx context.Context, username, ip, userAgent string, success bool) error
	List(ctx context.Context, q repository.AttemptListQuery) ([]repository.LoginAttempt, int64, error)
	CountRecentFailed(ctx context.Context, limit int) (int64, error)
}

// TokenStore is the refresh-token store surface the handlers need.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}
