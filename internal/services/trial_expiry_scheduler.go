package services

import (
	"context"
	"fmt"
	"sync"

	"farmhub/pkg/logger"

	"github.com/robfig/cron/v3"
)

// TrialExpiryScheduler 试用过期调度器
// 每小时扫描一次试用期已结束的订阅并置为expired
type TrialExpiryScheduler struct {
	subService *SubscriptionService
	cron       *cron.Cron
	lock       sync.Mutex
	running    bool
}

// NewTrialExpiryScheduler 创建试用过期调度器
func NewTrialExpiryScheduler(subService *SubscriptionService) *TrialExpiryScheduler {
	return &TrialExpiryScheduler{
		subService: subService,
		cron:       cron.New(),
	}
}

// Start 启动调度器
func (s *TrialExpiryScheduler) Start() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.running {
		return fmt.Errorf("调度器已经在运行")
	}

	_, err := s.cron.AddFunc("@hourly", s.sweep)
	if err != nil {
		return fmt.Errorf("注册试用过期任务失败: %v", err)
	}

	s.cron.Start()
	s.running = true
	logger.GetLogger().Info("试用过期调度器启动成功")
	return nil
}

// Stop 停止调度器
func (s *TrialExpiryScheduler) Stop() {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.running {
		return
	}
	s.cron.Stop()
	s.running = false
	logger.GetLogger().Info("试用过期调度器已停止")
}

// sweep 单轮扫描
func (s *TrialExpiryScheduler) sweep() {
	count, err := s.subService.ExpireElapsedTrials(context.Background())
	if err != nil {
		logger.GetLogger().Errorf("试用过期扫描失败: %v", err)
		return
	}
	if count > 0 {
		logger.GetLogger().Infof("试用过期扫描完成，处理 %d 条订阅", count)
	}
}
