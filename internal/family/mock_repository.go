package family

import (
	"encoding/json"
	"sync"

	"chorebot-api/internal/common"
)

// deepCopyUser clones a user through JSON so callers can never alias the
// stored record's maps and slices.
func deepCopyUser(user *User) *User {
	copied := &User{ID: user.ID, Role: user.Role}
	if user.Parent != nil {
		data, _ := json.Marshal(user.Parent)
		var rec ParentRecord
		_ = json.Unmarshal(data, &rec)
		copied.Parent = &rec
	}
	if user.Child != nil {
		data, _ := json.Marshal(user.Child)
		var rec ChildRecord
		_ = json.Unmarshal(data, &rec)
		copied.Child = &rec
	}
	return copied
}

// MockUserRepository provides an in-memory UserRepository for testing
type MockUserRepository struct {
	mu      sync.RWMutex
	users   map[common.UserID]*User
	getErr  error
	saveErr error
	saveLog []common.UserID
}

// NewMockUserRepository creates a new mock user repository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[common.UserID]*User)}
}

func (m *MockUserRepository) Get(id common.UserID) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	user, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return deepCopyUser(user), nil
}

func (m *MockUserRepository) Save(user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.users[user.ID] = deepCopyUser(user)
	m.saveLog = append(m.saveLog, user.ID)
	return nil
}

func (m *MockUserRepository) Update(id common.UserID, mutate func(*User) error) error {
	user, err := m.Get(id)
	if err != nil {
		return err
	}
	if err := mutate(user); err != nil {
		return err
	}
	return m.Save(user)
}

// SetGetError makes subsequent Get calls fail
func (m *MockUserRepository) SetGetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getErr = err
}

// SetSaveError makes subsequent Save calls fail
func (m *MockUserRepository) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

// SaveCount returns how many saves were performed
func (m *MockUserRepository) SaveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.saveLog)
}

// MockInviteRepository provides an in-memory InviteRepository for testing
type MockInviteRepository struct {
	mu      sync.RWMutex
	invites map[string]common.UserID
	putErr  error
}

// NewMockInviteRepository creates a new mock invite registry
func NewMockInviteRepository() *MockInviteRepository {
	return &MockInviteRepository{invites: make(map[string]common.UserID)}
}

func (m *MockInviteRepository) Get(code string) (*Invite, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	parentID, ok := m.invites[code]
	if !ok {
		return nil, ErrInviteNotFound
	}
	return &Invite{Code: code, ParentID: parentID}, nil
}

func (m *MockInviteRepository) Put(code string, parentID common.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.invites[code] = parentID
	return nil
}

// SetPutError makes subsequent Put calls fail
func (m *MockInviteRepository) SetPutError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putErr = err
}

// Codes returns the registered codes
func (m *MockInviteRepository) Codes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	codes := make([]string, 0, len(m.invites))
	for code := range m.invites {
		codes = append(codes, code)
	}
	return codes
}
