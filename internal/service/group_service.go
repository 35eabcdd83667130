package service

import (
	"context"
	"time"

	"github.com/hari-334/interest-buddies/internal/dto"
	"github.com/hari-334/interest-buddies/internal/entity"
	"github.com/hari-334/interest-buddies/internal/repository/specification"
	"github.com/hari-334/interest-buddies/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IGroupService interface {
	Create(ctx context.Context, userID uuid.UUID, req *dto.CreateGroupRequest) (*dto.GroupSummaryResponse, error)
	GetAll(ctx context.Context) ([]dto.GroupSummaryResponse, error)
	Show(ctx context.Context, groupID, userID uuid.UUID) (*dto.GroupDetailResponse, error)
	Search(ctx context.Context, req *dto.SearchGroupRequest) ([]dto.GroupSummaryResponse, error)
	History(ctx context.Context, groupID, userID uuid.UUID, limit, offset int) (*dto.HistoryPageResponse, error)
}

type groupService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewGroupService(uowFactory unitofwork.RepositoryFactory) IGroupService {
	return &groupService{
		uowFactory: uowFactory,
	}
}

func (s *groupService) Create(ctx context.Context, userID uuid.UUID, req *dto.CreateGroupRequest) (*dto.GroupSummaryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	group := &entity.Group{
		Id:        uuid.New(),
		Name:      req.Name,
		Purpose:   req.Purpose,
		CreatedBy: userID,
		CreatedAt: time.Now(),
	}

	if err := uow.GroupRepository().Create(ctx, group); err != nil {
		return nil, err
	}

	return &dto.GroupSummaryResponse{
		Id:          group.Id,
		Name:        group.Name,
		Purpose:     group.Purpose,
		MemberCount: 1,
		CreatedAt:   group.CreatedAt,
	}, nil
}

func (s *groupService) GetAll(ctx context.Context) ([]dto.GroupSummaryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	groups, err := uow.GroupRepository().FindAll(ctx, specification.OrderBy{Field: "created_at", Desc: true})
	if err != nil {
		return nil, err
	}

	return s.toSummaries(ctx, uow, groups)
}

func (s *groupService) Search(ctx context.Context, req *dto.SearchGroupRequest) ([]dto.GroupSummaryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	groups, err := uow.GroupRepository().FindAll(ctx,
		specification.GroupSearchQuery{Query: req.Query},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	return s.toSummaries(ctx, uow, groups)
}

func (s *groupService) toSummaries(ctx context.Context, uow unitofwork.UnitOfWork, groups []*entity.Group) ([]dto.GroupSummaryResponse, error) {
	res := make([]dto.GroupSummaryResponse, 0, len(groups))
	for _, g := range groups {
		members, err := uow.GroupRepository().Members(ctx, g.Id)
		if err != nil {
			return nil, err
		}
		res = append(res, dto.GroupSummaryResponse{
			Id:          g.Id,
			Name:        g.Name,
			Purpose:     g.Purpose,
			MemberCount: len(members),
			CreatedAt:   g.CreatedAt,
		})
	}
	return res, nil
}

// Show returns the group page payload: members plus the full history in
// append order. Only members may read the history.
func (s *groupService) Show(ctx context.Context, groupID, userID uuid.UUID) (*dto.GroupDetailResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	group, err := uow.GroupRepository().FindOne(ctx, specification.ByID{ID: groupID})
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, entity.ErrGroupNotFound
	}

	isMember, err := uow.GroupRepository().IsMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, entity.ErrNotMember
	}

	members, err := uow.GroupRepository().Members(ctx, groupID)
	if err != nil {
		return nil, err
	}

	history, err := uow.GroupRepository().History(ctx, groupID, 0, 0)
	if err != nil {
		return nil, err
	}

	names := make(map[uuid.UUID]string, len(members))
	memberRes := make([]dto.UserResponse, 0, len(members))
	for _, m := range members {
		names[m.Id] = m.Name
		memberRes = append(memberRes, dto.UserResponse{Id: m.Id, Name: m.Name, Username: m.Username})
	}

	return &dto.GroupDetailResponse{
		Id:      group.Id,
		Name:    group.Name,
		Purpose: group.Purpose,
		Members: memberRes,
		History: toMessageResponses(history, names),
	}, nil
}

// History serves one page of a group's chat log for members.
func (s *groupService) History(ctx context.Context, groupID, userID uuid.UUID, limit, offset int) (*dto.HistoryPageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	isMember, err := uow.GroupRepository().IsMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, entity.ErrNotMember
	}

	messages, err := uow.GroupRepository().History(ctx, groupID, limit, offset)
	if err != nil {
		return nil, err
	}

	members, err := uow.GroupRepository().Members(ctx, groupID)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(members))
	for _, m := range members {
		names[m.Id] = m.Name
	}

	return &dto.HistoryPageResponse{
		GroupId:  groupID,
		Messages: toMessageResponses(messages, names),
		Limit:    limit,
		Offset:   offset,
	}, nil
}

func toMessageResponses(messages []*entity.ChatMessage, names map[uuid.UUID]string) []dto.ChatMessageResponse {
	res := make([]dto.ChatMessageResponse, 0, len(messages))
	for _, m := range messages {
		sender := names[m.SenderId]
		if sender == "" {
			sender = m.SenderId.String()
		}
		res = append(res, dto.ChatMessageResponse{
			Id:        m.Id,
			GroupId:   m.GroupId,
			SenderId:  m.SenderId,
			Sender:    sender,
			Message:   m.Body,
			Seq:       m.Seq,
			Timestamp: m.CreatedAt,
		})
	}
	return res
}
