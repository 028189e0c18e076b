package repository

import (
	"errors"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"gorm.io/gorm"
)

// ErrVersionConflict 版本号不匹配（并发修改冲突）
var ErrVersionConflict = errors.New("coil version conflict")

type CoilRepository struct {
	db *gorm.DB
}

func NewCoilRepository(db *gorm.DB) *CoilRepository {
	return &CoilRepository{db: db}
}

// --- 母卷 ---

func (r *CoilRepository) CreateMother(coil *entity.MotherCoil) error {
	return r.db.Create(coil).Error
}

func (r *CoilRepository) GetMotherByID(id string) (*entity.MotherCoil, error) {
	var coil entity.MotherCoil
	err := r.db.Where("id = ? AND deleted_at IS NULL", id).First(&coil).Error
	return &coil, err
}

type MotherListParams struct {
	Status       string
	MaterialCode string
	Keyword      string
	Page         int
	Size         int
}

func (r *CoilRepository) ListMothers(params MotherListParams) ([]entity.MotherCoil, int64, error) {
	query := r.db.Model(&entity.MotherCoil{}).Where("deleted_at IS NULL")
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.MaterialCode != "" {
		query = query.Where("material_code = ?", params.MaterialCode)
	}
	if params.Keyword != "" {
		kw := "%" + params.Keyword + "%"
		query = query.Where("coil_code ILIKE ? OR material_code ILIKE ? OR material_name ILIKE ?", kw, kw, kw)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var coils []entity.MotherCoil
	err := query.Order("entry_date DESC, created_at DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&coils).Error
	return coils, total, err
}

// ListInStockMothers 读取全部在库母卷（汇总用快照）
func (r *CoilRepository) ListInStockMothers() ([]entity.MotherCoil, error) {
	var coils []entity.MotherCoil
	err := r.db.Where("status = ? AND deleted_at IS NULL", entity.MotherCoilStatusInStock).
		Find(&coils).Error
	return coils, err
}

// UpdateMotherCAS 按版本号比较更新母卷（重量/状态变更唯一入口）
// 版本不匹配返回 ErrVersionConflict，不做任何修改。
func (r *CoilRepository) UpdateMotherCAS(tx *gorm.DB, coil *entity.MotherCoil, fromVersion int) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.Model(&entity.MotherCoil{}).
		Where("id = ? AND version = ?", coil.ID, fromVersion).
		Updates(map[string]interface{}{
			"remaining_weight": coil.RemainingWeight,
			"status":           coil.Status,
			"version":          fromVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	coil.Version = fromVersion + 1
	return nil
}

func (r *CoilRepository) UpdateMother(coil *entity.MotherCoil) error {
	return r.db.Save(coil).Error
}

// DeleteMother 软删除，之后所有查询不再可见
func (r *CoilRepository) DeleteMother(id string) error {
	return r.db.Model(&entity.MotherCoil{}).
		Where("id = ?", id).
		Update("deleted_at", time.Now()).Error
}

// --- 子卷 ---

func (r *CoilRepository) BatchCreateChildren(tx *gorm.DB, children []entity.ChildCoil) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Create(&children).Error
}

func (r *CoilRepository) GetChildByID(id string) (*entity.ChildCoil, error) {
	var coil entity.ChildCoil
	err := r.db.Where("id = ? AND deleted_at IS NULL", id).First(&coil).Error
	return &coil, err
}

func (r *CoilRepository) GetChildrenByIDs(ids []string) ([]entity.ChildCoil, error) {
	var coils []entity.ChildCoil
	err := r.db.Where("id IN ? AND deleted_at IS NULL", ids).Find(&coils).Error
	return coils, err
}

type ChildListParams struct {
	Status       string
	B2Code       string
	MotherCoilID string
	Page         int
	Size         int
}

func (r *CoilRepository) ListChildren(params ChildListParams) ([]entity.ChildCoil, int64, error) {
	query := r.db.Model(&entity.ChildCoil{}).Where("deleted_at IS NULL")
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.B2Code != "" {
		query = query.Where("b2_code = ?", params.B2Code)
	}
	if params.MotherCoilID != "" {
		query = query.Where("mother_coil_id = ?", params.MotherCoilID)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var coils []entity.ChildCoil
	err := query.Order("created_at DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&coils).Error
	return coils, total, err
}

// ListInStockChildren 读取全部在库子卷（汇总用快照）
func (r *CoilRepository) ListInStockChildren() ([]entity.ChildCoil, error) {
	var coils []entity.ChildCoil
	err := r.db.Where("status = ? AND deleted_at IS NULL", entity.ChildCoilStatusInStock).
		Find(&coils).Error
	return coils, err
}

func (r *CoilRepository) UpdateChild(coil *entity.ChildCoil) error {
	return r.db.Save(coil).Error
}

// MarkChildrenConsumed 批量置为已消耗（整卷消耗，无部分消耗）
func (r *CoilRepository) MarkChildrenConsumed(tx *gorm.DB, ids []string) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Model(&entity.ChildCoil{}).
		Where("id IN ?", ids).
		Update("status", entity.ChildCoilStatusConsumed).Error
}

func (r *CoilRepository) DeleteChild(id string) error {
	return r.db.Model(&entity.ChildCoil{}).
		Where("id = ?", id).
		Update("deleted_at", time.Now()).Error
}

// DB 返回底层db用于事务
func (r *CoilRepository) DB() *gorm.DB {
	return r.db
}
