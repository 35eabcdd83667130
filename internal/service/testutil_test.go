package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hari-334/interest-buddies/internal/entity"
	"github.com/hari-334/interest-buddies/internal/repository/contract"
	"github.com/hari-334/interest-buddies/internal/repository/specification"
	"github.com/hari-334/interest-buddies/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// In-memory repositories backing the service tests. They honor the same
// contracts as the gorm implementations: nil on not-found, idempotent
// AddMember, store-assigned Seq on append.

type memberKey struct {
	groupID uuid.UUID
	userID  uuid.UUID
}

type fakeStore struct {
	mu sync.Mutex

	users    map[uuid.UUID]*entity.User
	groups   map[uuid.UUID]*entity.Group
	members  map[memberKey]time.Time
	messages []*entity.ChatMessage
	nextSeq  uint64

	// Failure switches and counters for behavior tests.
	appendErr     error
	findUserErr   error
	isMemberCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:   make(map[uuid.UUID]*entity.User),
		groups:  make(map[uuid.UUID]*entity.Group),
		members: make(map[memberKey]time.Time),
	}
}

func (s *fakeStore) addUser(name, username string) *entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &entity.User{Id: uuid.New(), Name: name, Username: username, CreatedAt: time.Now()}
	s.users[u.Id] = u
	return u
}

func (s *fakeStore) addGroup(name, purpose string, createdBy uuid.UUID) *entity.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := &entity.Group{Id: uuid.New(), Name: name, Purpose: purpose, CreatedBy: createdBy, CreatedAt: time.Now()}
	s.groups[g.Id] = g
	s.members[memberKey{g.Id, createdBy}] = time.Now()
	return g
}

func (s *fakeStore) messagesFor(groupID uuid.UUID) []*entity.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.ChatMessage
	for _, m := range s.messages {
		if m.GroupId == groupID {
			out = append(out, m)
		}
	}
	return out
}

type fakeGroupRepository struct {
	store *fakeStore
}

func (r *fakeGroupRepository) Create(ctx context.Context, group *entity.Group) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.groups[group.Id] = group
	r.store.members[memberKey{group.Id, group.CreatedBy}] = time.Now()
	return nil
}

func (r *fakeGroupRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Group, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, spec := range specs {
		if byID, ok := spec.(specification.ByID); ok {
			if g, found := r.store.groups[byID.ID]; found {
				return g, nil
			}
		}
	}
	return nil, nil
}

func (r *fakeGroupRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Group, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	query := ""
	for _, spec := range specs {
		if q, ok := spec.(specification.GroupSearchQuery); ok {
			query = q.Query
		}
	}

	var out []*entity.Group
	for _, g := range r.store.groups {
		if query == "" || containsFold(g.Name, query) || containsFold(g.Purpose, query) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeGroupRepository) AddMember(ctx context.Context, groupID, userID uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, found := r.store.groups[groupID]; !found {
		return entity.ErrGroupNotFound
	}
	key := memberKey{groupID, userID}
	if _, found := r.store.members[key]; !found {
		r.store.members[key] = time.Now()
	}
	return nil
}

func (r *fakeGroupRepository) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.isMemberCalls++
	_, found := r.store.members[memberKey{groupID, userID}]
	return found, nil
}

func (r *fakeGroupRepository) Members(ctx context.Context, groupID uuid.UUID) ([]*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.User
	for key := range r.store.members {
		if key.groupID == groupID {
			if u, found := r.store.users[key.userID]; found {
				out = append(out, u)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *fakeGroupRepository) AppendMessage(ctx context.Context, groupID, senderID uuid.UUID, body string) (*entity.ChatMessage, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.appendErr != nil {
		return nil, r.store.appendErr
	}
	if _, found := r.store.groups[groupID]; !found {
		return nil, entity.ErrGroupNotFound
	}
	r.store.nextSeq++
	msg := &entity.ChatMessage{
		Id:        uuid.New(),
		GroupId:   groupID,
		SenderId:  senderID,
		Body:      body,
		Seq:       r.store.nextSeq,
		CreatedAt: time.Now(),
	}
	r.store.messages = append(r.store.messages, msg)
	return msg, nil
}

func (r *fakeGroupRepository) History(ctx context.Context, groupID uuid.UUID, limit, offset int) ([]*entity.ChatMessage, error) {
	all := r.store.messagesFor(groupID)
	if offset > len(all) {
		offset = len(all)
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

type fakeUserRepository struct {
	store *fakeStore
}

func (r *fakeUserRepository) Create(ctx context.Context, user *entity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.users[user.Id] = user
	return nil
}

func (r *fakeUserRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.findUserErr != nil {
		return nil, r.store.findUserErr
	}
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if u, found := r.store.users[s.ID]; found {
				return u, nil
			}
		case specification.ByUsername:
			for _, u := range r.store.users {
				if u.Username == s.Username {
					return u, nil
				}
			}
		}
	}
	return nil, nil
}

func (r *fakeUserRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.User
	for _, u := range r.store.users {
		out = append(out, u)
	}
	return out, nil
}

type fakeUnitOfWork struct {
	store *fakeStore
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error { return nil }
func (u *fakeUnitOfWork) Commit() error                   { return nil }
func (u *fakeUnitOfWork) Rollback() error                 { return nil }

func (u *fakeUnitOfWork) UserRepository() contract.UserRepository {
	return &fakeUserRepository{store: u.store}
}

func (u *fakeUnitOfWork) GroupRepository() contract.GroupRepository {
	return &fakeGroupRepository{store: u.store}
}

type fakeUowFactory struct {
	store *fakeStore
}

func (f *fakeUowFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUnitOfWork{store: f.store}
}

type recordingPublisher struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (p *recordingPublisher) Publish(ctx context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.payloads)
}

type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error                                                  { return nil }

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
