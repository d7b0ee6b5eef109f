package impl

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"passport/internal/domain/entity"
	domainerrors "passport/internal/domain/errors"
	"passport/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeHasher is a deterministic stand-in for the bcrypt hasher.
type fakeHasher struct {
	hashErr error
}

func (h *fakeHasher) Hash(password string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}

	return "digest:" + password, nil
}

func (h *fakeHasher) Check(password, hash string) bool {
	return hash == "digest:"+password
}

// fakeUserRepo is an in-memory UserRepository with the same uniqueness
// behavior as the real store.
type fakeUserRepo struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*entity.User
	lockCalls int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*entity.User)}
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	copied := *user

	return &copied, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		// Byte-exact matching, same as the unique index.
		if user.Email == email {
			copied := *user

			return &copied, nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == user.Email {
			return domainerrors.ErrDuplicateEmail.WrapMessage("email already exists")
		}
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	copied := *user
	r.users[user.ID] = &copied

	return nil
}

func (r *fakeUserRepo) UpdatePasswordHash(_ context.Context, id uuid.UUID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}

	user.PasswordHash = passwordHash

	return nil
}

func (r *fakeUserRepo) AcquireSessionMutex(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return repository.ErrUserNotFound
	}

	r.lockCalls++

	return nil
}

// fakeTokenRepo is an in-memory TokenRepository. deleteErrs injects failures
// for specific rows to exercise the best-effort purge path.
type fakeTokenRepo struct {
	mu         sync.Mutex
	tokens     map[uuid.UUID]*entity.Token
	deleteErrs map[uuid.UUID]error
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{
		tokens:     make(map[uuid.UUID]*entity.Token),
		deleteErrs: make(map[uuid.UUID]error),
	}
}

func (r *fakeTokenRepo) Create(_ context.Context, token *entity.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	copied := *token
	r.tokens[token.ID] = &copied

	return nil
}

func (r *fakeTokenRepo) FindByToken(_ context.Context, token string) (*entity.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range r.tokens {
		if row.Token == token {
			copied := *row

			return &copied, nil
		}
	}

	return nil, repository.ErrTokenNotFound
}

func (r *fakeTokenRepo) FindByUserID(_ context.Context, userID uuid.UUID) ([]*entity.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var rows []*entity.Token
	for _, row := range r.tokens {
		if row.UserID == userID {
			copied := *row
			rows = append(rows, &copied)
		}
	}

	return rows, nil
}

func (r *fakeTokenRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err, ok := r.deleteErrs[id]; ok {
		return err
	}

	if _, ok := r.tokens[id]; !ok {
		return repository.ErrTokenNotFound
	}

	delete(r.tokens, id)

	return nil
}

func (r *fakeTokenRepo) DeleteByUserID(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, row := range r.tokens {
		if row.UserID == userID {
			delete(r.tokens, id)
		}
	}

	return nil
}

func (r *fakeTokenRepo) count(userID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, row := range r.tokens {
		if row.UserID == userID {
			n++
		}
	}

	return n
}

// fakeRepoFactory hands out the shared in-memory repos.
type fakeRepoFactory struct {
	userRepo  *fakeUserRepo
	tokenRepo *fakeTokenRepo
}

func (f *fakeRepoFactory) UserRepo() repository.UserRepository { return f.userRepo }

func (f *fakeRepoFactory) TokenRepo() repository.TokenRepository { return f.tokenRepo }

// fakeTxManager runs the callback directly; the fakes have no transactions.
type fakeTxManager struct {
	factory *fakeRepoFactory
	execErr error
}

func (tm *fakeTxManager) Execute(_ context.Context, fn func(repoFactory repository.RepositoryFactory) error) error {
	if tm.execErr != nil {
		return errors.Wrap(tm.execErr, "failed to begin transaction")
	}

	return fn(tm.factory)
}
