package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/AlibekovAA/dashboard-auth/internal/common/clock"
	"github.com/AlibekovAA/dashboard-auth/internal/common/constants"
	commonerrors "github.com/AlibekovAA/dashboard-auth/internal/common/errors"
	"github.com/AlibekovAA/dashboard-auth/internal/common/logger"
	"github.com/AlibekovAA/dashboard-auth/internal/user/domain"
)

const fileDriver = "file"

// fileRecord is the on-disk shape of a user. The password hash is stored
// under "password".
type fileRecord struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"createdAt"`
}

// FileRepository keeps every user in memory and rewrites the whole JSON
// array on each mutation. One write lock covers read-modify-persist, so
// concurrent writers cannot lose each other's updates. The highest id ever
// handed out is kept in a sidecar file so deleted ids are never reused.
type FileRepository struct {
	mu      sync.RWMutex
	path    string
	seqPath string
	users   []domain.User
	lastID  domain.ID
	clock   clock.Clock
	log     *logger.Logger
}

func NewFileRepository(path string, clk clock.Clock, log *logger.Logger) (*FileRepository, error) {
	r := &FileRepository{
		path:    path,
		seqPath: path + constants.UsersFileSeqSuffix,
		clock:   clk,
		log:     log,
	}

	if err := r.load(); err != nil {
		return nil, err
	}

	log.WithFields(context.Background(), logger.Fields{
		"action":  "user_store_loaded",
		"path":    path,
		"users":   len(r.users),
		"last_id": int64(r.lastID),
	}).Info("user store loaded")

	return r, nil
}

func (r *FileRepository) load() error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := writeFileAtomic(r.path, []byte("[]\n")); err != nil {
			return fmt.Errorf("initialize users file: %w", err)
		}
		data = []byte("[]")
	} else if err != nil {
		return fmt.Errorf("read users file: %w", err)
	}

	var records []fileRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("decode users file %s: %w", r.path, err)
	}

	seen := make(map[int64]struct{}, len(records))
	users := make([]domain.User, 0, len(records))
	var maxID domain.ID
	for _, rec := range records {
		if rec.ID <= 0 {
			return fmt.Errorf("users file %s: invalid id %d", r.path, rec.ID)
		}
		if _, dup := seen[rec.ID]; dup {
			return fmt.Errorf("users file %s: duplicate id %d", r.path, rec.ID)
		}
		seen[rec.ID] = struct{}{}

		u := fromRecord(rec)
		users = append(users, u)
		maxID = max(maxID, u.ID)
	}

	seq, err := r.readSeq()
	if err != nil {
		return err
	}

	r.users = users
	r.lastID = max(maxID, seq)
	return nil
}

func (r *FileRepository) readSeq() (domain.ID, error) {
	data, err := os.ReadFile(r.seqPath)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read id sequence: %w", err)
	}

	v, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("id sequence %s is corrupt: %q", r.seqPath, strings.TrimSpace(string(data)))
	}
	return domain.ID(v), nil
}

// persist writes the current state. Callers hold the write lock.
func (r *FileRepository) persist() error {
	records := make([]fileRecord, len(r.users))
	for i, u := range r.users {
		records[i] = toRecord(u)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	data = append(data, '\n')

	if err := writeFileAtomic(r.seqPath, []byte(strconv.FormatInt(int64(r.lastID), 10)+"\n")); err != nil {
		return fmt.Errorf("write id sequence: %w", err)
	}
	if err := writeFileAtomic(r.path, data); err != nil {
		return fmt.Errorf("write users file: %w", err)
	}
	return nil
}

// mutate runs fn under the write lock and persists the result. If the write
// fails the in-memory state is restored, so memory never runs ahead of disk.
func (r *FileRepository) mutate(ctx context.Context, operation string, fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	prevUsers := slices.Clone(r.users)
	prevLastID := r.lastID

	if err := fn(); err != nil {
		return err
	}

	if err := r.persist(); err != nil {
		r.users = prevUsers
		r.lastID = prevLastID
		r.log.WithFields(ctx, logger.Fields{
			"action":    "user_store_persist_failed",
			"operation": operation,
			"path":      r.path,
		}).Errorf("failed to persist users: %v", err)
		return commonerrors.ErrStorageFailure.WithCause(err)
	}
	return nil
}

func (r *FileRepository) Create(ctx context.Context, candidate domain.NewUser) (domain.User, error) {
	start := time.Now()
	var created domain.User

	err := r.mutate(ctx, "create", func() error {
		if err := r.checkUnique(0, candidate.Username, candidate.Email); err != nil {
			return err
		}

		r.lastID++
		created = domain.User{
			ID:           r.lastID,
			Username:     candidate.Username,
			FirstName:    candidate.FirstName,
			LastName:     candidate.LastName,
			Email:        candidate.Email,
			PasswordHash: candidate.PasswordHash,
			CreatedAt:    r.clock.Now(),
		}
		r.users = append(r.users, created)
		return nil
	})
	observe(fileDriver, "create", start, storeErr(err))
	if err != nil {
		return domain.User{}, err
	}
	return created, nil
}

// checkUnique rejects username or email values held by a record other than
// self. Callers hold the write lock.
func (r *FileRepository) checkUnique(self domain.ID, username, email string) error {
	for _, u := range r.users {
		if u.ID == self {
			continue
		}
		if u.Username == username {
			return commonerrors.ErrUsernameAlreadyExists
		}
		if u.Email == email {
			return commonerrors.ErrEmailAlreadyExists
		}
	}
	return nil
}

func (r *FileRepository) findLocked(match func(domain.User) bool) (domain.User, bool) {
	for _, u := range r.users {
		if match(u) {
			return u, true
		}
	}
	return domain.User{}, false
}

func (r *FileRepository) find(ctx context.Context, operation string, match func(domain.User) bool) (domain.User, bool, error) {
	start := time.Now()
	defer observe(fileDriver, operation, start, nil)

	if err := ctx.Err(); err != nil {
		return domain.User{}, false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.findLocked(match)
	return u, ok, nil
}

func (r *FileRepository) FindByID(ctx context.Context, id domain.ID) (domain.User, bool, error) {
	return r.find(ctx, "find_by_id", func(u domain.User) bool { return u.ID == id })
}

func (r *FileRepository) FindByUsername(ctx context.Context, username string) (domain.User, bool, error) {
	return r.find(ctx, "find_by_username", func(u domain.User) bool { return u.Username == username })
}

func (r *FileRepository) FindByEmail(ctx context.Context, email string) (domain.User, bool, error) {
	return r.find(ctx, "find_by_email", func(u domain.User) bool { return u.Email == email })
}

func (r *FileRepository) List(ctx context.Context) ([]domain.User, error) {
	return r.Search(ctx, "")
}

func (r *FileRepository) Search(ctx context.Context, query string) ([]domain.User, error) {
	start := time.Now()
	defer observe(fileDriver, "search", start, nil)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		if u.Matches(query) {
			result = append(result, u)
		}
	}
	return result, nil
}

// Update applies patch. An empty patch is a lookup and leaves the file alone.
func (r *FileRepository) Update(ctx context.Context, id domain.ID, patch domain.Patch) (domain.User, error) {
	if patch.IsEmpty() {
		u, ok, err := r.FindByID(ctx, id)
		if err != nil {
			return domain.User{}, err
		}
		if !ok {
			return domain.User{}, commonerrors.ErrUserNotFound
		}
		return u, nil
	}

	start := time.Now()
	var updated domain.User

	err := r.mutate(ctx, "update", func() error {
		idx := slices.IndexFunc(r.users, func(u domain.User) bool { return u.ID == id })
		if idx < 0 {
			return commonerrors.ErrUserNotFound
		}

		next := patch.Apply(r.users[idx])
		if err := r.checkUnique(id, next.Username, next.Email); err != nil {
			return err
		}

		r.users[idx] = next
		updated = next
		return nil
	})
	observe(fileDriver, "update", start, storeErr(err))
	if err != nil {
		return domain.User{}, err
	}
	return updated, nil
}

func (r *FileRepository) Delete(ctx context.Context, id domain.ID) (bool, error) {
	start := time.Now()
	removed := false

	err := r.mutate(ctx, "delete", func() error {
		before := len(r.users)
		r.users = slices.DeleteFunc(r.users, func(u domain.User) bool { return u.ID == id })
		removed = len(r.users) != before
		if !removed {
			return errNothingToPersist
		}
		return nil
	})
	if errors.Is(err, errNothingToPersist) {
		err = nil
	}
	observe(fileDriver, "delete", start, storeErr(err))
	if err != nil {
		return false, err
	}
	return removed, nil
}

func (r *FileRepository) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), nil
}

var errNothingToPersist = errors.New("nothing to persist")

// storeErr filters out business outcomes so only storage faults are counted.
func storeErr(err error) error {
	if errors.Is(err, commonerrors.ErrStorageFailure) {
		return err
	}
	return nil
}

func toRecord(u domain.User) fileRecord {
	return fileRecord{
		ID:        int64(u.ID),
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Password:  u.PasswordHash,
		CreatedAt: u.CreatedAt,
	}
}

func fromRecord(rec fileRecord) domain.User {
	return domain.User{
		ID:           domain.ID(rec.ID),
		Username:     rec.Username,
		FirstName:    rec.FirstName,
		LastName:     rec.LastName,
		Email:        rec.Email,
		PasswordHash: rec.Password,
		CreatedAt:    rec.CreatedAt,
	}
}

func writeFileAtomic(path string, data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}

	success = true
	return nil
}
