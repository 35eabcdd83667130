package implementation

import (
	"context"
	"errors"

	"github.com/hari-334/interest-buddies/internal/entity"
	"github.com/hari-334/interest-buddies/internal/mapper"
	"github.com/hari-334/interest-buddies/internal/model"
	"github.com/hari-334/interest-buddies/internal/repository/contract"
	"github.com/hari-334/interest-buddies/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GroupRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.GroupMapper
}

func NewGroupRepository(db *gorm.DB) contract.GroupRepository {
	return &GroupRepositoryImpl{
		db:     db,
		mapper: mapper.NewGroupMapper(),
	}
}

func (r *GroupRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *GroupRepositoryImpl) Create(ctx context.Context, group *entity.Group) error {
	m := r.mapper.GroupToModel(group)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		member := model.GroupMember{GroupId: m.Id, UserId: m.CreatedBy}
		return tx.Create(&member).Error
	})
	if err != nil {
		return entity.WrapPersistence("group.create", err)
	}
	*group = *r.mapper.GroupToEntity(m)
	return nil
}

func (r *GroupRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Group, error) {
	var m model.Group
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, entity.WrapPersistence("group.find", err)
	}
	return r.mapper.GroupToEntity(&m), nil
}

func (r *GroupRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Group, error) {
	var models []*model.Group
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, entity.WrapPersistence("group.findAll", err)
	}
	entities := make([]*entity.Group, len(models))
	for i, m := range models {
		entities[i] = r.mapper.GroupToEntity(m)
	}
	return entities, nil
}

func (r *GroupRepositoryImpl) AddMember(ctx context.Context, groupID, userID uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.requireGroup(tx, groupID); err != nil {
			return err
		}
		member := model.GroupMember{GroupId: groupID, UserId: userID}
		// Composite PK + DO NOTHING makes re-joining a no-op, not an error.
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&member).Error
	})
	if errors.Is(err, entity.ErrGroupNotFound) {
		return err
	}
	return entity.WrapPersistence("group.addMember", err)
}

func (r *GroupRepositoryImpl) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	if err != nil {
		return false, entity.WrapPersistence("group.isMember", err)
	}
	return count > 0, nil
}

func (r *GroupRepositoryImpl) Members(ctx context.Context, groupID uuid.UUID) ([]*entity.User, error) {
	var models []*model.User
	err := r.db.WithContext(ctx).
		Joins("JOIN group_members ON group_members.user_id = users.id").
		Where("group_members.group_id = ?", groupID).
		Order("group_members.joined_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, entity.WrapPersistence("group.members", err)
	}
	return r.mapper.UsersToEntities(models), nil
}

func (r *GroupRepositoryImpl) AppendMessage(ctx context.Context, groupID, senderID uuid.UUID, body string) (*entity.ChatMessage, error) {
	m := model.GroupMessage{
		Id:       uuid.New(),
		GroupId:  groupID,
		SenderId: senderID,
		Body:     body,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.requireGroup(tx, groupID); err != nil {
			return err
		}
		return tx.Create(&m).Error
	})
	if err != nil {
		if errors.Is(err, entity.ErrGroupNotFound) {
			return nil, err
		}
		return nil, entity.WrapPersistence("group.appendMessage", err)
	}
	return r.mapper.MessageToEntity(&m), nil
}

func (r *GroupRepositoryImpl) History(ctx context.Context, groupID uuid.UUID, limit, offset int) ([]*entity.ChatMessage, error) {
	var models []*model.GroupMessage
	query := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("seq ASC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, entity.WrapPersistence("group.history", err)
	}
	return r.mapper.MessagesToEntities(models), nil
}

func (r *GroupRepositoryImpl) requireGroup(tx *gorm.DB, groupID uuid.UUID) error {
	var count int64
	if err := tx.Model(&model.Group{}).Where("id = ?", groupID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return entity.ErrGroupNotFound
	}
	return nil
}
