package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSONB Postgres jsonb 字段类型
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to scan JSONB: %v", value)
	}
	return json.Unmarshal(bytes, j)
}

// 操作类型
const (
	ActionCoilEntry     = "coil_entry"      // 母卷入库
	ActionCut           = "cut"             // 分切
	ActionProduction    = "production"      // 生产
	ActionShipping      = "shipping"        // 发货
	ActionStockCorrect  = "stock_correct"   // 库存修正
	ActionCoilDelete    = "coil_delete"     // 删除
	ActionChildCoilEdit = "child_coil_edit" // 子卷修正
)

// ActionLog MES操作日志
// 只追加，写入失败不阻塞主操作。
type ActionLog struct {
	ID           string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ActionType   string    `json:"action_type" gorm:"size:50;not null;index"`
	EntityType   string    `json:"entity_type" gorm:"size:50;index:idx_action_entity"` // mother_coil/child_coil/production/shipping
	EntityID     string    `json:"entity_id" gorm:"size:64;index:idx_action_entity"`
	EntityCode   string    `json:"entity_code" gorm:"size:64"`
	Payload      JSONB     `json:"payload" gorm:"type:jsonb"`
	OperatorID   string    `json:"operator_id" gorm:"size:64"`
	OperatorName string    `json:"operator_name" gorm:"size:100"`
	CreatedAt    time.Time `json:"created_at"`
}

func (ActionLog) TableName() string {
	return "mes_action_logs"
}
