package entity

import "time"

// ShippingRecord 发货记录（不可变事件），扣减成品净库存
type ShippingRecord struct {
	ID          string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ShipCode    string    `json:"ship_code" gorm:"size:50;not null;uniqueIndex"`
	ShipDate    time.Time `json:"ship_date" gorm:"not null;index"`
	ProductCode string    `json:"product_code" gorm:"size:64;not null;index"`
	Quantity    int       `json:"quantity" gorm:"not null"`
	Destination string    `json:"destination" gorm:"size:200"`
	CreatedBy   string    `json:"created_by" gorm:"size:64"`
	CreatedAt   time.Time `json:"created_at"`
}

func (ShippingRecord) TableName() string {
	return "mes_shipping_records"
}
