package services

import (
	"fmt"

	"farmhub/pkg/config"
	apperrors "farmhub/pkg/errors"

	"gorm.io/gorm"
)

// FarmIDService 农场编号分配器
// 每个自然年维护一条序列行，通过单条原子自增语句分配，
// 并发申请同一年份的编号也不会重复
type FarmIDService struct {
	prefix string
}

// NewFarmIDService 创建农场编号分配器
func NewFarmIDService() *FarmIDService {
	return &FarmIDService{
		prefix: config.GetConfig().Provision.FarmIDPrefix,
	}
}

// Next 分配指定年份的下一个农场编号
// 自增和读取必须是同一条语句，不允许先读后写
func (s *FarmIDService) Next(tx *gorm.DB, year int) (string, error) {
	var lastNumber int64
	err := tx.Raw(`
		INSERT INTO farm_id_sequences (year, last_number, updated_at)
		VALUES (?, 1, NOW())
		ON CONFLICT (year)
		DO UPDATE SET last_number = farm_id_sequences.last_number + 1, updated_at = NOW()
		RETURNING last_number`, year).Scan(&lastNumber).Error
	if err != nil {
		return "", apperrors.FromDB(err, "农场编号序列不存在")
	}
	return s.Format(year, lastNumber), nil
}

// Format 把年份和序号格式化为人类可读的农场编号，如 FM-2026-0042
func (s *FarmIDService) Format(year int, number int64) string {
	return fmt.Sprintf("%s-%d-%04d", s.prefix, year, number)
}
