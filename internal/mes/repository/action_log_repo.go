package repository

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
)

type ActionLogRepository struct {
	db *gorm.DB
}

func NewActionLogRepository(db *gorm.DB) *ActionLogRepository {
	return &ActionLogRepository{db: db}
}

func (r *ActionLogRepository) Create(log *entity.ActionLog) error {
	return r.db.Create(log).Error
}

func (r *ActionLogRepository) List(actionType, entityID string, page, size int) ([]entity.ActionLog, int64, error) {
	query := r.db.Model(&entity.ActionLog{})
	if actionType != "" {
		query = query.Where("action_type = ?", actionType)
	}
	if entityID != "" {
		query = query.Where("entity_id = ?", entityID)
	}
	var total int64
	query.Count(&total)
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	var logs []entity.ActionLog
	err := query.Order("created_at DESC").Offset((page - 1) * size).Limit(size).Find(&logs).Error
	return logs, total, err
}
