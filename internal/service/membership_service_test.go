package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinIsIdempotent(t *testing.T) {
	store := newFakeStore()
	publisher := &recordingPublisher{}
	svc := NewMembershipService(&fakeUowFactory{store: store}, publisher)

	owner := store.addUser("Hari", "hari")
	joiner := store.addUser("Asha", "asha")
	group := store.addGroup("Book Circle", "One book a month", owner.Id)

	require.NoError(t, svc.Join(t.Context(), group.Id, joiner.Id))
	require.NoError(t, svc.Join(t.Context(), group.Id, joiner.Id))

	members, err := (&fakeGroupRepository{store: store}).Members(t.Context(), group.Id)
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestJoinUnknownGroup(t *testing.T) {
	store := newFakeStore()
	svc := NewMembershipService(&fakeUowFactory{store: store}, nil)

	user := store.addUser("Hari", "hari")

	err := svc.Join(t.Context(), uuid.New(), user.Id)
	assert.Error(t, err)
}

func TestJoinPublishesAuditEvent(t *testing.T) {
	store := newFakeStore()
	publisher := &recordingPublisher{}
	svc := NewMembershipService(&fakeUowFactory{store: store}, publisher)

	owner := store.addUser("Hari", "hari")
	joiner := store.addUser("Asha", "asha")
	group := store.addGroup("Book Circle", "One book a month", owner.Id)

	require.NoError(t, svc.Join(t.Context(), group.Id, joiner.Id))
	assert.Equal(t, 1, publisher.count())
}

func TestIsMemberCachesPositiveResults(t *testing.T) {
	store := newFakeStore()
	svc := NewMembershipService(&fakeUowFactory{store: store}, nil)

	owner := store.addUser("Hari", "hari")
	group := store.addGroup("Book Circle", "One book a month", owner.Id)

	isMember, err := svc.IsMember(t.Context(), group.Id, owner.Id)
	require.NoError(t, err)
	require.True(t, isMember)

	callsAfterFirst := store.isMemberCalls

	isMember, err = svc.IsMember(t.Context(), group.Id, owner.Id)
	require.NoError(t, err)
	require.True(t, isMember)

	assert.Equal(t, callsAfterFirst, store.isMemberCalls, "second check should hit the cache")
}

func TestIsMemberDoesNotCacheNegatives(t *testing.T) {
	store := newFakeStore()
	svc := NewMembershipService(&fakeUowFactory{store: store}, nil)

	owner := store.addUser("Hari", "hari")
	late := store.addUser("Asha", "asha")
	group := store.addGroup("Book Circle", "One book a month", owner.Id)

	isMember, err := svc.IsMember(t.Context(), group.Id, late.Id)
	require.NoError(t, err)
	require.False(t, isMember)

	// A join right after a negative check must be visible immediately.
	require.NoError(t, svc.Join(t.Context(), group.Id, late.Id))

	isMember, err = svc.IsMember(t.Context(), group.Id, late.Id)
	require.NoError(t, err)
	assert.True(t, isMember)
}
