package session

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"
	"sync"

	"storefront/internal/domain"
	"storefront/internal/notify"
	"storefront/internal/slice"
)

// Users is the part of the users collection the session talks to.
type Users interface {
	List(ctx context.Context, query url.Values) ([]domain.User, error)
	Create(ctx context.Context, in domain.User) (domain.User, error)
}

// State is a snapshot of the session. CurrentUser is nil when logged out.
type State struct {
	IsLoggedIn  bool
	CurrentUser *domain.User
	Status      slice.Status
	Error       string
}

// Session tracks the logged-in identity. Login and Register return their
// errors to the caller and also record them in State.
type Session struct {
	users  Users
	logger *log.Logger

	mu      sync.Mutex
	state   State
	version uint64
	subs    *notify.Broadcaster[State]
}

func New(users Users, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Session{
		users:  users,
		logger: logger,
		state:  State{Status: slice.StatusIdle},
		subs:   notify.New[State](),
	}
}

// Login establishes the session when exactly one user matches the
// credentials.
func (s *Session) Login(ctx context.Context, email, password string) (domain.User, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return domain.User{}, s.reject("login", domain.Validationf("email and password are required"))
	}

	s.begin()
	matches, err := s.users.List(ctx, url.Values{"email": {email}, "password": {password}})
	if err != nil {
		return domain.User{}, s.reject("login", err)
	}
	if len(matches) != 1 {
		s.logger.Printf("session: login email=%s matches=%d", email, len(matches))
		return domain.User{}, s.reject("login", domain.ErrInvalidCredentials)
	}

	user := s.establish(matches[0])
	s.logger.Printf("session: login email=%s id=%s role=%s", email, user.ID, user.Role)
	return user, nil
}

// Register creates a regular user and logs it in. The email must not be in
// use.
func (s *Session) Register(ctx context.Context, fullName, email, password string) (domain.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = domain.NormalizeEmail(email)
	if fullName == "" || email == "" || password == "" {
		return domain.User{}, s.reject("register", domain.Validationf("full name, email and password are required"))
	}

	s.begin()
	existing, err := s.users.List(ctx, url.Values{"email": {email}})
	if err != nil {
		return domain.User{}, s.reject("register", fmt.Errorf("check email: %w", err))
	}
	if len(existing) > 0 {
		return domain.User{}, s.reject("register", domain.ErrEmailAlreadyUsed)
	}

	created, err := s.users.Create(ctx, domain.User{
		Email:    email,
		FullName: fullName,
		Password: password,
		Role:     domain.RoleUser,
	})
	if err != nil {
		return domain.User{}, s.reject("register", fmt.Errorf("create user: %w", err))
	}

	user := s.establish(created)
	s.logger.Printf("session: registered email=%s id=%s", email, user.ID)
	return user, nil
}

// Logout clears the session.
func (s *Session) Logout() {
	s.apply(func(st *State) {
		*st = State{Status: slice.StatusIdle}
	})
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// CurrentUser returns the logged-in user, if any.
func (s *Session) CurrentUser() (domain.User, bool) {
	st := s.State()
	if st.CurrentUser == nil {
		return domain.User{}, false
	}
	return *st.CurrentUser, true
}

func (s *Session) IsAdmin() bool {
	u, ok := s.CurrentUser()
	return ok && u.IsAdmin()
}

func (s *Session) Subscribe(fn func(State)) func() {
	return s.subs.Subscribe(fn)
}

// establish stores user without its password and returns the stored copy.
func (s *Session) establish(user domain.User) domain.User {
	user.Password = ""
	stored := user
	s.apply(func(st *State) {
		st.IsLoggedIn = true
		st.CurrentUser = &stored
		st.Status = slice.StatusSucceeded
		st.Error = ""
	})
	return user
}

func (s *Session) begin() {
	s.apply(func(st *State) {
		st.Status = slice.StatusLoading
		st.Error = ""
	})
}

// reject records err and returns it. The current identity, if any, is kept.
func (s *Session) reject(op string, err error) error {
	s.logger.Printf("session: %s error=%v", op, err)
	s.apply(func(st *State) {
		st.Status = slice.StatusFailed
		st.Error = err.Error()
	})
	return err
}

func (s *Session) apply(mutate func(*State)) {
	s.mu.Lock()
	mutate(&s.state)
	s.version++
	version := s.version
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.subs.Publish(version, snap)
}

func (s *Session) snapshotLocked() State {
	st := s.state
	if st.CurrentUser != nil {
		u := *st.CurrentUser
		st.CurrentUser = &u
	}
	return st
}
