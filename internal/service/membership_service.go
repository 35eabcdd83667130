package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hari-334/interest-buddies/internal/dto"
	"github.com/hari-334/interest-buddies/internal/repository/unitofwork"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

type IMembershipService interface {
	// Join adds the user to the group. Joining a group twice is a no-op
	// success, never an error.
	Join(ctx context.Context, groupID, userID uuid.UUID) error
	IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
}

// membershipService fronts the membership relation with a short-lived cache.
// The gateway checks membership on every frame, so hitting the database each
// time would dominate the hot path. Entries expire quickly because there is
// no "leave group" invalidation to propagate across instances.
type membershipService struct {
	uowFactory       unitofwork.RepositoryFactory
	cache            *gocache.Cache
	publisherService IPublisherService
}

func NewMembershipService(uowFactory unitofwork.RepositoryFactory, publisherService IPublisherService) IMembershipService {
	return &membershipService{
		uowFactory:       uowFactory,
		cache:            gocache.New(30*time.Second, time.Minute),
		publisherService: publisherService,
	}
}

func membershipKey(groupID, userID uuid.UUID) string {
	return groupID.String() + ":" + userID.String()
}

func (s *membershipService) Join(ctx context.Context, groupID, userID uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if err := uow.GroupRepository().AddMember(ctx, groupID, userID); err != nil {
		return err
	}

	s.cache.Set(membershipKey(groupID, userID), true, gocache.DefaultExpiration)

	if s.publisherService != nil {
		payload, _ := json.Marshal(dto.ChatEventMessage{
			Type:       dto.ChatEventGroupJoined,
			GroupId:    groupID,
			UserId:     userID,
			OccurredAt: time.Now(),
		})
		// Audit is auxiliary, a bus hiccup must not fail the join.
		if err := s.publisherService.Publish(ctx, payload); err != nil {
			fmt.Printf("[WARN] Failed to publish GROUP_JOINED event: %v\n", err)
		}
	}

	return nil
}

func (s *membershipService) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	key := membershipKey(groupID, userID)
	if cached, found := s.cache.Get(key); found {
		if isMember, ok := cached.(bool); ok && isMember {
			return true, nil
		}
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	isMember, err := uow.GroupRepository().IsMember(ctx, groupID, userID)
	if err != nil {
		return false, err
	}

	// Only positive results are cached. A stale "not a member" would lock a
	// fresh joiner out of the room for the TTL.
	if isMember {
		s.cache.Set(key, true, gocache.DefaultExpiration)
	}

	return isMember, nil
}
