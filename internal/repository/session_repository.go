package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// Session mirrors the 'user_sessions' table: one row per login interval.
// Key, IP, user agent and login time are immutable after creation; only
// IsActive and LogoutTime ever change.
type Session struct {
	ID         uint64
	UserID     uint64
	SessionKey string
	IPAddress  string
	UserAgent  string
	LoginTime  time.Time
	LogoutTime *time.Time
	IsActive   bool
}

// OwningUser implements policy.OwnedByUser.
func (s Session) OwningUser() uint64 { return s.UserID }

type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

const sessionColumns = "id,user_id,session_key,ip_address,user_agent,login_time,logout_time,is_active"

func scanSession(row interface{ Scan(...any) error }) (Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.UserID, &s.SessionKey, &s.IPAddress, &s.UserAgent,
		&s.LoginTime, &s.LogoutTime, &s.IsActive)
	return s, err
}

// Open records a fresh session for a successful login.
func (r *SessionRepo) Open(ctx context.Context, userID uint64, key, ip, userAgent string) (Session, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO user_sessions (user_id, session_key, ip_address, user_agent, is_active) VALUES (?,?,?,?,1)",
		userID, key, ip, userAgent)
	if err != nil {
		return Session{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Session{}, err
	}
	return Session{
		ID:         uint64(id),
		UserID:     userID,
		SessionKey: key,
		IPAddress:  ip,
		UserAgent:  userAgent,
		LoginTime:  time.Now().UTC(),
		IsActive:   true,
	}, nil
}

// Close marks a session inactive and stamps the logout time. The is_active
// guard makes the operation idempotent: closing an already-closed session
// affects zero rows and is not an error.
func (r *SessionRepo) Close(ctx context.Context, sessionKey string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE user_sessions SET is_active=0, logout_time=NOW() WHERE session_key=? AND is_active=1",
		strings.TrimSpace(sessionKey))
	return err
}

// CloseAllForUser bulk-closes every active session of a user and returns
// how many were closed. Sessions opened after the update stay active, which
// is the intended "log out prior sessions" semantics under concurrency.
func (r *SessionRepo) CloseAllForUser(ctx context.Context, userID uint64) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE user_sessions SET is_active=0, logout_time=NOW() WHERE user_id=? AND is_active=1",
		userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SessionListQuery defines filters & pagination for the monitoring list.
type SessionListQuery struct {
	UserID    uint64
	IsActive  *bool
	IPAddress string
	Page      int
	PageSize  int
}

// List returns sessions newest-first plus the total match count.
func (r *SessionRepo) List(ctx context.Context, q SessionListQuery) ([]Session, int64, error) {
	where := []string{}
	args := []any{}

	if q.UserID != 0 {
		where = append(where, "user_id=?")
		args = append(args, q.UserID)
	}
	if q.IsActive != nil {
		where = append(where, "is_active=?")
		args = append(args, *q.IsActive)
	}
	if q.IPAddress != "" {
		where = append(where, "ip_address=?")
		args = append(args, q.IPAddress)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM user_sessions WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(q.Page, q.PageSize)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM user_sessions WHERE "+cond+
			" ORDER BY login_time DESC LIMIT ? OFFSET ?",
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

// CountActive returns the number of currently active sessions.
func (r *SessionRepo) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM user_sessions WHERE is_active=1").Scan(&n)
	return n, err
}
