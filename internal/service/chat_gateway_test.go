package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hari-334/interest-buddies/internal/dto"
	"github.com/hari-334/interest-buddies/internal/entity"
	ws "github.com/hari-334/interest-buddies/internal/websocket"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGatewayFixture(t *testing.T) (*ChatGateway, *ws.Hub, *fakeStore, *recordingPublisher) {
	t.Helper()
	store := newFakeStore()
	factory := &fakeUowFactory{store: store}
	publisher := &recordingPublisher{}
	hub := ws.NewHub(nil, noopLogger{})
	go hub.Run()

	membership := NewMembershipService(factory, publisher)
	gateway := NewChatGateway(factory, membership, hub, publisher, noopLogger{})
	return gateway, hub, store, publisher
}

func newTestClient(hub *ws.Hub, user *entity.User) *ws.Client {
	return &ws.Client{
		Hub:         hub,
		SessionID:   uuid.New(),
		UserID:      user.Id,
		DisplayName: user.Name,
		Send:        make(chan []byte, 32),
	}
}

func readFrame(t *testing.T, client *ws.Client) dto.WsEnvelope {
	t.Helper()
	select {
	case raw := <-client.Send:
		var env dto.WsEnvelope
		require.NoError(t, json.Unmarshal(raw, &env))
		return env
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return dto.WsEnvelope{}
	}
}

func assertNoFrame(t *testing.T, client *ws.Client) {
	t.Helper()
	select {
	case raw := <-client.Send:
		t.Fatalf("unexpected frame: %s", raw)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestJoinGroupRequiresMembership(t *testing.T) {
	gateway, hub, store, _ := newGatewayFixture(t)

	owner := store.addUser("Hari", "hari")
	outsider := store.addUser("Asha", "asha")
	group := store.addGroup("Trekking Club", "Weekend treks", owner.Id)

	client := newTestClient(hub, outsider)
	gateway.HandleJoinGroup(client, dto.JoinGroupData{GroupId: group.Id.String()})

	env := readFrame(t, client)
	assert.Equal(t, "error", env.Event)

	var payload dto.WsErrorPayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, "join-group", payload.Event)
	assert.Equal(t, 0, hub.RoomSize(group.Id))
}

func TestJoinGroupMemberGetsAck(t *testing.T) {
	gateway, hub, store, _ := newGatewayFixture(t)

	owner := store.addUser("Hari", "hari")
	group := store.addGroup("Trekking Club", "Weekend treks", owner.Id)

	client := newTestClient(hub, owner)
	gateway.HandleJoinGroup(client, dto.JoinGroupData{GroupId: group.Id.String()})

	env := readFrame(t, client)
	assert.Equal(t, "joined-group", env.Event)
	assert.Equal(t, 1, hub.RoomSize(group.Id))
}

func TestJoinGroupInvalidID(t *testing.T) {
	gateway, hub, store, _ := newGatewayFixture(t)
	owner := store.addUser("Hari", "hari")

	client := newTestClient(hub, owner)
	gateway.HandleJoinGroup(client, dto.JoinGroupData{GroupId: "not-a-uuid"})

	env := readFrame(t, client)
	assert.Equal(t, "error", env.Event)
}

func TestSendMessageFansOutToRoom(t *testing.T) {
	gateway, hub, store, publisher := newGatewayFixture(t)

	owner := store.addUser("Hari", "hari")
	other := store.addUser("Asha", "asha")
	group := store.addGroup("Trekking Club", "Weekend treks", owner.Id)
	require.NoError(t, (&fakeGroupRepository{store: store}).AddMember(t.Context(), group.Id, other.Id))

	sender := newTestClient(hub, owner)
	receiver := newTestClient(hub, other)

	gateway.HandleJoinGroup(sender, dto.JoinGroupData{GroupId: group.Id.String()})
	gateway.HandleJoinGroup(receiver, dto.JoinGroupData{GroupId: group.Id.String()})
	readFrame(t, sender)   // joined-group ack
	readFrame(t, receiver) // joined-group ack

	gateway.HandleSendMessage(sender, dto.SendMessageData{GroupId: group.Id.String(), Message: "hello"})

	for _, client := range []*ws.Client{sender, receiver} {
		env := readFrame(t, client)
		require.Equal(t, "receive-message", env.Event)

		var payload dto.ReceiveMessagePayload
		require.NoError(t, json.Unmarshal(env.Data, &payload))
		assert.Equal(t, "hello", payload.Message)
		assert.Equal(t, "Hari", payload.Sender)
		assert.Equal(t, owner.Id.String(), payload.SenderId)
		assert.Equal(t, group.Id.String(), payload.GroupId)
	}

	// Durable first: the row exists and the audit event went out.
	persisted := store.messagesFor(group.Id)
	require.Len(t, persisted, 1)
	assert.Equal(t, "hello", persisted[0].Body)
	assert.Equal(t, owner.Id, persisted[0].SenderId)
	assert.Equal(t, 1, publisher.count())
}

func TestSendMessageNonMemberRejected(t *testing.T) {
	gateway, hub, store, _ := newGatewayFixture(t)

	owner := store.addUser("Hari", "hari")
	outsider := store.addUser("Asha", "asha")
	group := store.addGroup("Trekking Club", "Weekend treks", owner.Id)

	member := newTestClient(hub, owner)
	gateway.HandleJoinGroup(member, dto.JoinGroupData{GroupId: group.Id.String()})
	readFrame(t, member)

	intruder := newTestClient(hub, outsider)
	gateway.HandleSendMessage(intruder, dto.SendMessageData{GroupId: group.Id.String(), Message: "let me in"})

	env := readFrame(t, intruder)
	assert.Equal(t, "error", env.Event)

	assertNoFrame(t, member)
	assert.Empty(t, store.messagesFor(group.Id))
}

func TestSendMessageUnknownGroup(t *testing.T) {
	gateway, hub, store, _ := newGatewayFixture(t)
	owner := store.addUser("Hari", "hari")

	client := newTestClient(hub, owner)
	gateway.HandleSendMessage(client, dto.SendMessageData{GroupId: uuid.NewString(), Message: "hello?"})

	env := readFrame(t, client)
	assert.Equal(t, "error", env.Event)
	assert.Empty(t, store.messages)
}

func TestSendMessageStorageFailureIsDirected(t *testing.T) {
	gateway, hub, store, _ := newGatewayFixture(t)

	owner := store.addUser("Hari", "hari")
	other := store.addUser("Asha", "asha")
	group := store.addGroup("Trekking Club", "Weekend treks", owner.Id)
	require.NoError(t, (&fakeGroupRepository{store: store}).AddMember(t.Context(), group.Id, other.Id))

	sender := newTestClient(hub, owner)
	bystander := newTestClient(hub, other)
	gateway.HandleJoinGroup(sender, dto.JoinGroupData{GroupId: group.Id.String()})
	gateway.HandleJoinGroup(bystander, dto.JoinGroupData{GroupId: group.Id.String()})
	readFrame(t, sender)
	readFrame(t, bystander)

	store.mu.Lock()
	store.appendErr = entity.WrapPersistence("append_message", errors.New("connection reset"))
	store.mu.Unlock()

	gateway.HandleSendMessage(sender, dto.SendMessageData{GroupId: group.Id.String(), Message: "lost"})

	// Only the sender hears about the failure, and nothing is delivered.
	env := readFrame(t, sender)
	assert.Equal(t, "error", env.Event)
	assertNoFrame(t, bystander)
	assert.Empty(t, store.messagesFor(group.Id))
}

func TestSendMessageEmptyBody(t *testing.T) {
	gateway, hub, store, _ := newGatewayFixture(t)

	owner := store.addUser("Hari", "hari")
	group := store.addGroup("Trekking Club", "Weekend treks", owner.Id)

	client := newTestClient(hub, owner)
	gateway.HandleSendMessage(client, dto.SendMessageData{GroupId: group.Id.String(), Message: ""})

	env := readFrame(t, client)
	assert.Equal(t, "error", env.Event)
	assert.Empty(t, store.messagesFor(group.Id))
}

func TestDeliveryOrderMatchesPersistedOrder(t *testing.T) {
	gateway, hub, store, _ := newGatewayFixture(t)

	owner := store.addUser("Hari", "hari")
	other := store.addUser("Asha", "asha")
	group := store.addGroup("Trekking Club", "Weekend treks", owner.Id)
	require.NoError(t, (&fakeGroupRepository{store: store}).AddMember(t.Context(), group.Id, other.Id))

	sender := newTestClient(hub, owner)
	receiver := newTestClient(hub, other)
	gateway.HandleJoinGroup(sender, dto.JoinGroupData{GroupId: group.Id.String()})
	gateway.HandleJoinGroup(receiver, dto.JoinGroupData{GroupId: group.Id.String()})
	readFrame(t, sender)
	readFrame(t, receiver)

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			gateway.HandleSendMessage(sender, dto.SendMessageData{
				GroupId: group.Id.String(),
				Message: fmt.Sprintf("msg-%d", i),
			})
		}(i)
	}
	wg.Wait()

	// The receiver sees messages in strictly increasing seq order, which is
	// exactly the order the store assigned.
	var lastSeq uint64
	for i := 0; i < n; i++ {
		env := readFrame(t, receiver)
		require.Equal(t, "receive-message", env.Event)

		var payload dto.ReceiveMessagePayload
		require.NoError(t, json.Unmarshal(env.Data, &payload))
		assert.Greater(t, payload.Seq, lastSeq)
		lastSeq = payload.Seq
	}

	persisted := store.messagesFor(group.Id)
	require.Len(t, persisted, n)
	for i := 1; i < n; i++ {
		assert.Greater(t, persisted[i].Seq, persisted[i-1].Seq)
	}
}

func TestGroupLockEvictedWhenIdle(t *testing.T) {
	gateway, hub, store, _ := newGatewayFixture(t)

	owner := store.addUser("Hari", "hari")
	group := store.addGroup("Trekking Club", "Weekend treks", owner.Id)

	sender := newTestClient(hub, owner)
	gateway.HandleJoinGroup(sender, dto.JoinGroupData{GroupId: group.Id.String()})
	readFrame(t, sender)

	const n = 5
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			gateway.HandleSendMessage(sender, dto.SendMessageData{
				GroupId: group.Id.String(),
				Message: fmt.Sprintf("msg-%d", i),
			})
		}(i)
	}
	wg.Wait()

	require.Len(t, store.messagesFor(group.Id), n)

	// Once no sender holds or waits on the group's lock, the entry is gone.
	gateway.mu.Lock()
	retained := len(gateway.groupLocks)
	gateway.mu.Unlock()
	assert.Zero(t, retained)
}

func TestDisconnectClearsSubscriptions(t *testing.T) {
	gateway, hub, store, _ := newGatewayFixture(t)

	owner := store.addUser("Hari", "hari")
	group := store.addGroup("Trekking Club", "Weekend treks", owner.Id)

	client := newTestClient(hub, owner)
	hub.Register(client)
	gateway.HandleJoinGroup(client, dto.JoinGroupData{GroupId: group.Id.String()})
	readFrame(t, client)
	require.Equal(t, 1, hub.RoomSize(group.Id))

	hub.Unregister(client)
	assert.Eventually(t, func() bool {
		return hub.RoomSize(group.Id) == 0
	}, time.Second, 10*time.Millisecond)
}
