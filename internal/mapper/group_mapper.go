package mapper

import (
	"github.com/hari-334/interest-buddies/internal/entity"
	"github.com/hari-334/interest-buddies/internal/model"
)

type GroupMapper struct {
	users *UserMapper
}

func NewGroupMapper() *GroupMapper {
	return &GroupMapper{users: NewUserMapper()}
}

func (m *GroupMapper) GroupToEntity(g *model.Group) *entity.Group {
	if g == nil {
		return nil
	}
	return &entity.Group{
		Id:        g.Id,
		Name:      g.Name,
		Purpose:   g.Purpose,
		CreatedBy: g.CreatedBy,
		CreatedAt: g.CreatedAt,
	}
}

func (m *GroupMapper) GroupToModel(g *entity.Group) *model.Group {
	if g == nil {
		return nil
	}
	return &model.Group{
		Id:        g.Id,
		Name:      g.Name,
		Purpose:   g.Purpose,
		CreatedBy: g.CreatedBy,
		CreatedAt: g.CreatedAt,
	}
}

func (m *GroupMapper) MessageToEntity(msg *model.GroupMessage) *entity.ChatMessage {
	if msg == nil {
		return nil
	}
	return &entity.ChatMessage{
		Id:        msg.Id,
		GroupId:   msg.GroupId,
		SenderId:  msg.SenderId,
		Body:      msg.Body,
		Seq:       msg.Seq,
		CreatedAt: msg.CreatedAt,
	}
}

func (m *GroupMapper) MessagesToEntities(msgs []*model.GroupMessage) []*entity.ChatMessage {
	entities := make([]*entity.ChatMessage, len(msgs))
	for i, msg := range msgs {
		entities[i] = m.MessageToEntity(msg)
	}
	return entities
}

func (m *GroupMapper) UsersToEntities(users []*model.User) []*entity.User {
	entities := make([]*entity.User, len(users))
	for i, u := range users {
		entities[i] = m.users.ToEntity(u)
	}
	return entities
}
