// This file defines the Center model and repository methods for CRUD and
// lookup operations. A Center represents an examination facility; it scopes
// data visibility for center administrators and owns zero or more users.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// stateCapitals maps Indian states and union territories to their capital
// city. When a center is saved with a blank city, the capital of its state
// is filled in; unknown states leave the city untouched.
var stateCapitals = map[string]string{
	"Andhra Pradesh":    "Amaravati",
	"Arunachal Pradesh": "Itanagar",
	"Assam":             "Dispur",
	"Bihar":             "Patna",
	"Chhattisgarh":      "Raipur",
	"Goa":               "Panaji",
	"Gujarat":           "Gandhinagar",
	"Haryana":           "Chandigarh",
	"Himachal Pradesh":  "Shimla",
	"Jharkhand":         "Ranchi",
	"Karnataka":         "Bengaluru",
	"Kerala":            "Thiruvananthapuram",
	"Madhya Pradesh":    "Bhopal",
	"Maharashtra":       "Mumbai",
	"Manipur":           "Imphal",
	"Meghalaya":         "Shillong",
	"Mizoram":           "Aizawl",
	"Nagaland":          "Kohima",
	"Odisha":            "Bhubaneswar",
	"Punjab":            "Chandigarh",
	"Rajasthan":         "Jaipur",
	"Sikkim":            "Gangtok",
	"Tamil Nadu":        "Chennai",
	"Telangana":         "Hyderabad",
	"Tripura":           "Agartala",
	"Uttar Pradesh":     "Lucknow",
	"Uttarakhand":       "Dehradun",
	"West Bengal":       "Kolkata",
	"Andaman and Nicobar Islands":              "Port Blair",
	"Chandigarh":                               "Chandigarh",
	"Dadra and Nagar Haveli and Daman and Diu": "Daman",
	"Delhi":             "New Delhi",
	"Jammu and Kashmir": "Srinagar/Jammu",
	"Ladakh":            "Leh",
	"Lakshadweep":       "Kavaratti",
	"Puducherry":        "Puducherry",
}

// Center mirrors the 'centers' table.
type Center struct {
	ID            uint64
	Name          string
	Code          string
	Address       string
	City          string
	State         string
	ContactPerson string
	ContactEmail  string
	ContactPhone  string
	Capacity      uint32
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OwningCenter implements policy.CenterScoped: a center scopes itself.
func (c Center) OwningCenter() (uint64, bool) { return c.ID, true }

var (
	ErrCenterNotFound   = errors.New("center not found")
	ErrCenterNameExists = errors.New("center name already exists")
	ErrCenterCodeExists = errors.New("center code already exists")
)

// CenterRepo encapsulates all database queries related to centers.
type CenterRepo struct{ DB *sql.DB }

func NewCenterRepo(db *sql.DB) *CenterRepo { return &CenterRepo{DB: db} }

const centerColumns = "id,name,code,address,city,state,contact_person,contact_email,contact_phone,capacity,is_active,created_at,updated_at"

func scanCenter(row interface{ Scan(...any) error }) (Center, error) {
	var c Center
	err := row.Scan(&c.ID, &c.Name, &c.Code, &c.Address, &c.City, &c.State,
		&c.ContactPerson, &c.ContactEmail, &c.ContactPhone, &c.Capacity,
		&c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// fillCityFromState sets a blank city to the capital of the center's state.
// Unknown states are left alone.
func fillCityFromState(c *Center) {
	if strings.TrimSpace(c.City) != "" {
		return
	}
	if capital, ok := stateCapitals[c.State]; ok {
		c.City = capital
	}
}

// Create inserts a new center. On success the center's ID field is
// populated with the auto-generated value.
func (r *CenterRepo) Create(ctx context.Context, c *Center) error {
	fillCityFromState(c)
	if c.Capacity == 0 {
		c.Capacity = 100
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO centers (name, code, address, city, state, contact_person,
		  contact_email, contact_phone, capacity, is_active)
		 VALUES (?,?,?,?,?,?,?,?,?,1)`,
		c.Name, c.Code, c.Address, c.City, c.State, c.ContactPerson,
		c.ContactEmail, c.ContactPhone, c.Capacity)
	if err != nil {
		return dupCenterErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	c.IsActive = true
	return nil
}

// dupCenterErr maps MySQL duplicate-key failures (error 1062) to sentinels.
func dupCenterErr(err error) error {
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "1062") {
		return err
	}
	if strings.Contains(msg, "code") {
		return ErrCenterCodeExists
	}
	return ErrCenterNameExists
}

// GetByID fetches a center by id.
func (r *CenterRepo) GetByID(ctx context.Context, id uint64) (Center, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+centerColumns+" FROM centers WHERE id=? LIMIT 1", id)
	c, err := scanCenter(row)
	if err == sql.ErrNoRows {
		return Center{}, ErrCenterNotFound
	}
	return c, err
}

// CenterListQuery defines filters & pagination for listing centers. When ID
// is non-zero the result is restricted to that single center; the handlers
// use this to scope center administrators to their own center.
type CenterListQuery struct {
	ID       uint64
	IsActive *bool
	State    string
	Search   string
	Page     int
	PageSize int
}

// List returns a filtered page of centers (ordered by name) plus the total
// match count.
func (r *CenterRepo) List(ctx context.Context, q CenterListQuery) ([]Center, int64, error) {
	where := []string{}
	args := []any{}

	if q.ID != 0 {
		where = append(where, "id=?")
		args = append(args, q.ID)
	}
	if q.IsActive != nil {
		where = append(where, "is_active=?")
		args = append(args, *q.IsActive)
	}
	if q.State != "" {
		where = append(where, "state=?")
		args = append(args, q.State)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		where = append(where, "(LOWER(name) LIKE ? OR LOWER(code) LIKE ? OR LOWER(city) LIKE ?)")
		args = append(args, like, like, like)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM centers WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(q.Page, q.PageSize)
	rows, err := r.DB.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM centers WHERE %s ORDER BY name LIMIT ? OFFSET ?",
			centerColumns, cond),
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Center
	for rows.Next() {
		c, err := scanCenter(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// Update persists the mutable fields of c, re-deriving the city when it
// was blanked out.
func (r *CenterRepo) Update(ctx context.Context, c *Center) error {
	fillCityFromState(c)
	res, err := r.DB.ExecContext(ctx,
		`UPDATE centers SET name=?, code=?, address=?, city=?, state=?,
		  contact_person=?, contact_email=?, contact_phone=?, capacity=?, is_active=?
		 WHERE id=?`,
		c.Name, c.Code, c.Address, c.City, c.State, c.ContactPerson,
		c.ContactEmail, c.ContactPhone, c.Capacity, c.IsActive, c.ID)
	if err != nil {
		return dupCenterErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Zero affected rows can also mean a no-change update; verify existence.
		if _, err := r.GetByID(ctx, c.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a center row. Users referencing it keep a NULL center via
// the schema's ON DELETE SET NULL.
func (r *CenterRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM centers WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCenterNotFound
	}
	return nil
}

// Counts returns total and active center counts for the status endpoint.
func (r *CenterRepo) Counts(ctx context.Context) (total, active int64, err error) {
	if err = r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM centers").Scan(&total); err != nil {
		return 0, 0, err
	}
	if err = r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM centers WHERE is_active=1").Scan(&active); err != nil {
		return 0, 0, err
	}
	return total, active, nil
}
