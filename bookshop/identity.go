package bookshop

import (
	"fmt"
	"slices"
)

// DefaultUsers are the accounts installed at every start.
func DefaultUsers() []User {
	return []User{
		{Username: "admin", Secret: "admin123", Role: RoleAdmin},
		{Username: "staff", Secret: "staff123", Role: RoleStaff},
		{Username: "manager", Secret: "manager123", Role: RoleManager},
	}
}

// IdentityStore holds the login accounts. The bootstrap accounts always win
// over persisted accounts with the same username.
type IdentityStore struct {
	store     Store
	bootstrap []User
	users     []User
}

func NewIdentityStore(store Store) *IdentityStore {
	return &IdentityStore{store: store}
}

// Bootstrap installs the default accounts in memory.
func (s *IdentityStore) Bootstrap() {
	s.bootstrap = DefaultUsers()
	s.users = mergeUsers(s.bootstrap, s.users)
}

// Load merges the persisted accounts into the bootstrap set and writes the
// merged list back. An account without a username or role aborts the load.
func (s *IdentityStore) Load() error {
	persisted, err := s.store.LoadUsers()
	if err != nil {
		return persistErr("load", "users", err)
	}
	for i, u := range persisted {
		if err := validateUser(u); err != nil {
			return persistErr("load", "users", fmt.Errorf("user %d (%q): %w", i+1, u.Username, err))
		}
	}
	merged := mergeUsers(s.bootstrap, persisted)
	if err := s.store.SaveUsers(merged); err != nil {
		return persistErr("save", "users", err)
	}
	s.users = merged
	return nil
}

// mergeUsers returns base followed by the extra users whose usernames are
// not already taken, in their original order.
func mergeUsers(base, extra []User) []User {
	merged := slices.Clone(base)
	seen := make(map[string]bool, len(base)+len(extra))
	for _, u := range base {
		seen[u.Username] = true
	}
	for _, u := range extra {
		if seen[u.Username] {
			continue
		}
		seen[u.Username] = true
		merged = append(merged, u)
	}
	return merged
}

// Authenticate resolves an exact username and secret pair to its role.
func (s *IdentityStore) Authenticate(username, secret string) (Role, error) {
	for _, u := range s.users {
		if u.Username == username && u.Secret == secret {
			return u.Role, nil
		}
	}
	return RoleNone, ErrAuthFailure
}

func (s *IdentityStore) Users() []User { return slices.Clone(s.users) }
func (s *IdentityStore) Len() int      { return len(s.users) }
