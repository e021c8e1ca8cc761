package models

import (
	"time"
)

// FarmIDSequence 农场编号序列，每个自然年一行
// 只允许分配器通过单条原子自增语句修改
type FarmIDSequence struct {
	Year       int       `json:"year" gorm:"primaryKey"`
	LastNumber int64     `json:"last_number" gorm:"not null;default:0"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName 表名
func (s *FarmIDSequence) TableName() string {
	return "farm_id_sequences"
}
