package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// LoginAttempt mirrors the append-only 'login_attempts' audit table. The
// username is a plain string, not a foreign key: failed attempts routinely
// reference accounts that do not exist.
type LoginAttempt struct {
	ID        uint64
	Username  string
	IPAddress string
	UserAgent string
	Success   bool
	CreatedAt time.Time
}

type AttemptRepo struct{ DB *sql.DB }

func NewAttemptRepo(db *sql.DB) *AttemptRepo { return &AttemptRepo{DB: db} }

// Record appends one audit row per authentication attempt, success or
// failure. It never resolves the username against the users table.
func (r *AttemptRepo) Record(ctx context.Context, username, ip, userAgent string, success bool) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO login_attempts (username, ip_address, user_agent, success) VALUES (?,?,?,?)",
		username, ip, userAgent, success)
	return err
}

// AttemptListQuery defines filters & pagination for the monitoring list.
type AttemptListQuery struct {
	Username  string
	IPAddress string
	Success   *bool
	Page      int
	PageSize  int
}

// List returns attempts newest-first plus the total match count.
func (r *AttemptRepo) List(ctx context.Context, q AttemptListQuery) ([]LoginAttempt, int64, error) {
	where := []string{}
	args := []any{}

	if q.Username != "" {
		where = append(where, "username=?")
		args = append(args, q.Username)
	}
	if q.IPAddress != "" {
		where = append(where, "ip_address=?")
		args = append(args, q.IPAddress)
	}
	if q.Success != nil {
		where = append(where, "success=?")
		args = append(args, *q.Success)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM login_attempts WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(q.Page, q.PageSize)
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,username,ip_address,user_agent,success,created_at FROM login_attempts WHERE "+
			cond+" ORDER BY created_at DESC LIMIT ? OFFSET ?",
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []LoginAttempt
	for rows.Next() {
		var a LoginAttempt
		if err := rows.Scan(&a.ID, &a.Username, &a.IPAddress, &a.UserAgent,
			&a.Success, &a.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

// CountRecentFailed counts failures among the most recent `limit` attempts,
// feeding the status endpoint's warning signal.
func (r *AttemptRepo) CountRecentFailed(ctx context.Context, limit int) (int64, error) {
	if limit < 1 {
		limit = 10
	}
	var n int64
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM (
		   SELECT id FROM login_attempts WHERE success=0
		   ORDER BY created_at DESC LIMIT ?
		 ) recent`, limit).Scan(&n)
	return n, err
}
