package handler

// In-memory fakes for the store interfaces. Each method delegates to an
// optional func field so individual tests override only what they need;
// unset methods return zero values.

import (
	"context"
	"database/sql"
	"time"

	"github.com/slogsolutions/Army-Exam-Portal/internal/repository"
)

type fakeUserStore struct {
	createFunc         func(ctx context.Context, u *repository.User, password string, cost int) error
	getByUsernameFunc  func(ctx context.Context, username string) (repository.User, error)
	getByIDFunc        func(ctx context.Context, id uint64) (repository.User, error)
	hasActiveEmailFunc func(ctx context.Context, email string) (bool, error)
	listFunc           func(ctx context.Context, q repository.UserListQuery) ([]repository.User, int64, error)
	updateFunc         func(ctx context.Context, u *repository.User) error
	updatePasswordFunc func(ctx context.Context, id uint64, password string, cost int) error
	setLastLoginFunc   func(ctx context.Context, id uint64, ip string) error
	deleteFunc         func(ctx context.Context, id uint64) error
	countsFunc         func(ctx context.Context) (int64, int64, error)
}

func (f *fakeUserStore) Create(ctx context.Context, u *repository.User, password string, cost int) error {
	if f.createFunc != nil {
		return f.createFunc(ctx, u, password, cost)
	}
	return nil
}
func (f *fakeUserStore) GetByUsername(ctx context.Context, username string) (repository.User, error) {
	if f.getByUsernameFunc != nil {
		return f.getByUsernameFunc(ctx, username)
	}
	return repository.User{}, repository.ErrUserNotFound
}
func (f *fakeUserStore) GetByID(ctx context.Context, id uint64) (repository.User, error) {
	if f.getByIDFunc != nil {
		return f.getByIDFunc(ctx, id)
	}
	return repository.User{}, repository.ErrUserNotFound
}
func (f *fakeUserStore) HasActiveEmail(ctx context.Context, email string) (bool, error) {
	if f.hasActiveEmailFunc != nil {
		return f.hasActiveEmailFunc(ctx, email)
	}
	return false, nil
}
func (f *fakeUserStore) List(ctx context.Context, q repository.UserListQuery) ([]repository.User, int64, error) {
	if f.listFunc != nil {
		return f.listFunc(ctx, q)
	}
	return nil, 0, nil
}
func (f *fakeUserStore) Update(ctx context.Context, u *repository.User) error {
	if f.updateFunc != nil {
		return f.updateFunc(ctx, u)
	}
	return nil
}
func (f *fakeUserStore) UpdatePassword(ctx context.Context, id uint64, password string, cost int) error {
	if f.updatePasswordFunc != nil {
		return f.updatePasswordFunc(ctx, id, password, cost)
	}
	return nil
}
func (f *fakeUserStore) SetLastLogin(ctx context.Context, id uint64, ip string) error {
	if f.setLastLoginFunc != nil {
		return f.setLastLoginFunc(ctx, id, ip)
	}
	return nil
}
func (f *fakeUserStore) Delete(ctx context.Context, id uint64) error {
	if f.deleteFunc != nil {
		return f.deleteFunc(ctx, id)
	}
	return nil
}
func (f *fakeUserStore) Counts(ctx context.Context) (int64, int64, error) {
	if f.countsFunc != nil {
		return f.countsFunc(ctx)
	}
	return 0, 0, nil
}

type fakeCenterStore struct {
	createFunc  func(ctx context.Context, c *repository.Center) error
	getByIDFunc func(ctx context.Context, id uint64) (repository.Center, error)
	listFunc    func(ctx context.Context, q repository.CenterListQuery) ([]repository.Center, int64, error)
	updateFunc  func(ctx context.Context, c *repository.Center) error
	deleteFunc  func(ctx context.Context, id uint64) error
	countsFunc  func(ctx context.Context) (int64, int64, error)
}

func (f *fakeCenterStore) Create(ctx context.Context, c *repository.Center) error {
	if f.createFunc != nil {
		return f.createFunc(ctx, c)
	}
	return nil
}
func (f *fakeCenterStore) GetByID(ctx context.Context, id uint64) (repository.Center, error) {
	if f.getByIDFunc != nil {
		return f.getByIDFunc(ctx, id)
	}
	return repository.Center{}, repository.ErrCenterNotFound
}
func (f *fakeCenterStore) List(ctx context.Context, q repository.CenterListQuery) ([]repository.Center, int64, error) {
	if f.listFunc != nil {
		return f.listFunc(ctx, q)
	}
	return nil, 0, nil
}
func (f *fakeCenterStore) Update(ctx context.Context, c *repository.Center) error {
	if f.updateFunc != nil {
		return f.updateFunc(ctx, c)
	}
	return nil
}
func (f *fakeCenterStore) Delete(ctx context.Context, id uint64) error {
	if f.deleteFunc != nil {
		return f.deleteFunc(ctx, id)
	}
	return nil
}
func (f *fakeCenterStore) Counts(ctx context.Context) (int64, int64, error) {
	if f.countsFunc != nil {
		return f.countsFunc(ctx)
	}
	return 0, 0, nil
}

type fakeSessionStore struct {
	openFunc        func(ctx context.Context, userID uint64, key, ip, userAgent string) (repository.Session, error)
	closeFunc       func(ctx context.Context, sessionKey string) error
	closeAllFunc    func(ctx context.Context, userID uint64) (int64, error)
	listFunc        func(ctx context.Context, q repository.SessionListQuery) ([]repository.Session, int64, error)
	countActiveFunc func(ctx context.Context) (int64, error)
}

func (f *fakeSessionStore) Open(ctx context.Context, userID uint64, key, ip, userAgent string) (repository.Session, error) {
	if f.openFunc != nil {
		return f.openFunc(ctx, userID, key, ip, userAgent)
	}
	return repository.Session{UserID: userID, SessionKey: key, IPAddress: ip, UserAgent: userAgent, IsActive: true}, nil
}
func (f *fakeSessionStore) Close(ctx context.Context, sessionKey string) error {
	if f.closeFunc != nil {
		return f.closeFunc(ctx, sessionKey)
	}
	return nil
}
func (f *fakeSessionStore) CloseAllForUser(ctx context.Context, userID uint64) (int64, error) {
	if f.closeAllFunc != nil {
		return f.closeAllFunc(ctx, userID)
	}
	return 0, nil
}
func (f *fakeSessionStore) List(ctx context.Context, q repository.SessionListQuery) ([]repository.Session, int64, error) {
	if f.listFunc != nil {
		return f.listFunc(ctx, q)
	}
	return nil, 0, nil
}
func (f *fakeSessionStore) CountActive(ctx context.Context) (int64, error) {
	if f.countActiveFunc != nil {
		return f.countActiveFunc(ctx)
	}
	return 0, nil
}

type recordedAttempt struct {
	Username string
	Success  bool
}

// fakeAttemptStore keeps every recorded attempt for assertions.
type fakeAttemptStore struct {
	recorded        []recordedAttempt
	listFunc        func(ctx context.Context, q repository.AttemptListQuery) ([]repository.LoginAttempt, int64, error)
	countRecentFunc func(ctx context.Context, limit int) (int64, error)
	recordErr       error
}

func (f *fakeAttemptStore) Record(ctx context.Context, username, ip, userAgent string, success bool) error {
	f.recorded = append(f.recorded, recordedAttempt{Username: username, Success: success})
	return f.recordErr
}
func (f *fakeAttemptStore) List(ctx context.Context, q repository.AttemptListQuery) ([]repository.LoginAttempt, int64, error) {
	if f.listFunc != nil {
		return f.listFunc(ctx, q)
	}
	return nil, 0, nil
}
func (f *fakeAttemptStore) CountRecentFailed(ctx context.Context, limit int) (int64, error) {
	if f.countRecentFunc != nil {
		return f.countRecentFunc(ctx, limit)
	}
	return 0, nil
}

type fakeTokenStore struct {
	stored      map[string]uint64 // hash -> user
	revoked     map[string]bool
	revokedAll  []uint64
	validateErr error
	revokeErr   error
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{stored: map[string]uint64{}, revoked: map[string]bool{}}
}

func (f *fakeTokenStore) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	f.stored[tokenHash] = userID
	return nil
}
func (f *fakeTokenStore) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	if f.validateErr != nil {
		return 0, f.validateErr
	}
	uid, ok := f.stored[tokenHash]
	if !ok || f.revoked[tokenHash] {
		return 0, sql.ErrNoRows
	}
	return uid, nil
}
func (f *fakeTokenStore) RevokeByHash(ctx context.Context, tokenHash string) error {
	if f.revokeErr != nil {
		return f.revokeErr
	}
	f.revoked[tokenHash] = true
	return nil
}
func (f *fakeTokenStore) RevokeAllForUser(ctx context.Context, userID uint64) error {
	f.revokedAll = append(f.revokedAll, userID)
	return nil
}
