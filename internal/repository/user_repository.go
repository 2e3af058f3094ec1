package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/slogsolutions/Army-Exam-Portal/internal/utils"
)

// Roles stored in users.role. A center administrator additionally carries
// the is_center_admin flag; the flag, not the role alone, drives center
// scoping in the access policy.
const (
	RoleAdmin       = "admin"
	RoleEvaluator   = "evaluator"
	RoleCandidate   = "candidate"
	RoleCenterAdmin = "center_admin"
)

// ValidRole reports whether s is one of the known account roles.
func ValidRole(s string) bool {
	switch s {
	case RoleAdmin, RoleEvaluator, RoleCandidate, RoleCenterAdmin:
		return true
	}
	return false
}

// User mirrors the 'users' table.
type User struct {
	ID            uint64
	Username      string
	Email         string
	PasswordHash  string
	FirstName     string
	LastName      string
	Role          string
	CenterID      *uint64 // nullable center affiliation
	PhoneNumber   string
	IsCenterAdmin bool
	IsActive      bool
	IsLocked      bool
	LoginAttempts uint32 // failed-attempt counter; administrative use only
	LastLoginIP   *string
	LastLogin     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OwningCenter implements policy.CenterScoped.
func (u User) OwningCenter() (uint64, bool) {
	if u.CenterID == nil {
		return 0, false
	}
	return *u.CenterID, true
}

// OwningUser implements policy.OwnedByUser: a user record owns itself.
func (u User) OwningUser() uint64 { return u.ID }

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrUsernameExists = errors.New("username already exists")
	ErrEmailExists    = errors.New("email already exists")
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,username,email,password_hash,first_name,last_name,role,center_id,phone_number,is_center_admin,is_active,is_locked,login_attempts,last_login_ip,last_login,created_at,updated_at"

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName,
		&u.LastName, &u.Role, &u.CenterID, &u.PhoneNumber, &u.IsCenterAdmin,
		&u.IsActive, &u.IsLocked, &u.LoginAttempts, &u.LastLoginIP, &u.LastLogin,
		&u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create hashes the password and inserts the user, returning its ID.
// Duplicate username/email rows surface as sentinel errors.
func (r *UserRepo) Create(ctx context.Context, u *User, password string, cost int) error {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, first_name, last_name, role,
		  center_id, phone_number, is_center_admin, is_active, is_locked, login_attempts)
		 VALUES (?,?,?,?,?,?,?,?,?,1,0,0)`,
		u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Role,
		u.CenterID, u.PhoneNumber, u.IsCenterAdmin)
	if err != nil {
		return dupUserErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	u.IsActive = true
	return nil
}

// dupUserErr maps MySQL duplicate-key failures (error 1062) to sentinels.
func dupUserErr(err error) error {
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "1062") {
		return err
	}
	if strings.Contains(msg, "email") {
		return ErrEmailExists
	}
	return ErrUsernameExists
}

// GetByUsername fetches a user by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1",
		strings.TrimSpace(username))
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return User{}, ErrUserNotFound
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return User{}, ErrUserNotFound
	}
	return u, err
}

// HasActiveEmail reports whether an active account uses the given email.
// Used by the password-reset request validation.
func (r *UserRepo) HasActiveEmail(ctx context.Context, email string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE email=? AND is_active=1",
		strings.ToLower(strings.TrimSpace(email))).Scan(&n)
	return n > 0, err
}

// UserListQuery defines filters & pagination for listing users.
type UserListQuery struct {
	Role          string
	CenterID      uint64
	IsActive      *bool
	IsCenterAdmin *bool
	Search        string
	OrderBy       string
	Page          int
	PageSize      int
}

// userOrderCols whitelists sortable columns; anything else falls back to
// username so callers can never inject raw SQL through the order parameter.
var userOrderCols = map[string]string{
	"username":   "username",
	"email":      "email",
	"created_at": "created_at",
	"last_login": "last_login",
}

// List returns a filtered page of users plus the total match count.
func (r *UserRepo) List(ctx context.Context, q UserListQuery) ([]User, int64, error) {
	where := []string{}
	args := []any{}

	if q.Role != "" {
		where = append(where, "role=?")
		args = append(args, q.Role)
	}
	if q.CenterID != 0 {
		where = append(where, "center_id=?")
		args = append(args, q.CenterID)
	}
	if q.IsActive != nil {
		where = append(where, "is_active=?")
		args = append(args, *q.IsActive)
	}
	if q.IsCenterAdmin != nil {
		where = append(where, "is_center_admin=?")
		args = append(args, *q.IsCenterAdmin)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		where = append(where,
			"(LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?)")
		args = append(args, like, like, like, like)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order, ok := userOrderCols[q.OrderBy]
	if !ok {
		order = "username"
	}
	limit, offset := pageBounds(q.Page, q.PageSize)

	rows, err := r.DB.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM users WHERE %s ORDER BY %s LIMIT ? OFFSET ?",
			userColumns, cond, order),
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

// Update persists the mutable profile fields of u. Role, flags and center
// assignment are included so administrative edits go through the same path;
// callers enforce which fields the acting user may actually change.
func (r *UserRepo) Update(ctx context.Context, u *User) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET email=?, first_name=?, last_name=?, role=?, center_id=?,
		  phone_number=?, is_center_admin=?, is_active=?, is_locked=?
		 WHERE id=?`,
		strings.ToLower(strings.TrimSpace(u.Email)), u.FirstName, u.LastName, u.Role,
		u.CenterID, u.PhoneNumber, u.IsCenterAdmin, u.IsActive, u.IsLocked, u.ID)
	if err != nil {
		return dupUserErr(err)
	}
	return nil
}

// UpdatePassword replaces the credential hash for a user.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE id=?", hash, id)
	return err
}

// SetLastLogin stamps the login time and audit IP after a successful
// authentication.
func (r *UserRepo) SetLastLogin(ctx context.Context, id uint64, ip string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET last_login=NOW(), last_login_ip=? WHERE id=?", ip, id)
	return err
}

// Delete removes a user row. Sessions cascade at the schema level.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Counts returns total and active user counts for the status endpoint.
func (r *UserRepo) Counts(ctx context.Context) (total, active int64, err error) {
	if err = r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&total); err != nil {
		return 0, 0, err
	}
	if err = r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE is_active=1").Scan(&active); err != nil {
		return 0, 0, err
	}
	return total, active, nil
}

// pageBounds normalizes pagination inputs into LIMIT/OFFSET values.
func pageBounds(page, pageSize int) (limit, offset int) {
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	if page < 1 {
		page = 1
	}
	return pageSize, (page - 1) * pageSize
}
