package scheduler

import (
	"fmt"
	"sync"
	"time"

	"ai_book_recommend/config"
	"ai_book_recommend/logger"
	"ai_book_recommend/services"
)

// 任务类型
type TaskType int

const (
	TaskCleanup TaskType = iota // 清理过期缓存和长期无活动的限流状态
)

// 任务状态
type TaskStatus struct {
	LastRun     time.Time
	NextRun     time.Time
	IsRunning   bool
	Description string
}

// 任务调度器
type Scheduler struct {
	cfg   *config.Config
	svc   *services.RecommendationService
	tasks map[TaskType]*TaskStatus
	mutex sync.Mutex
}

// NewScheduler 创建调度器
func NewScheduler(cfg *config.Config, svc *services.RecommendationService) *Scheduler {
	return &Scheduler{
		cfg:   cfg,
		svc:   svc,
		tasks: make(map[TaskType]*TaskStatus),
	}
}

// Start 启动调度器
func Start(cfg *config.Config, svc *services.RecommendationService) {
	scheduler := NewScheduler(cfg, svc)
	scheduler.initTasks()

	go scheduler.run()

	logger.Info("调度器已启动",
		"check_interval_sec", cfg.Scheduler.CheckIntervalSec,
		"cleanup_interval_sec", cfg.Scheduler.CleanupIntervalSec)
}

// initTasks 初始化任务
func (s *Scheduler) initTasks() {
	now := time.Now()
	interval := time.Duration(s.cfg.Scheduler.CleanupIntervalSec) * time.Second

	s.tasks[TaskCleanup] = &TaskStatus{
		LastRun:     now,
		NextRun:     now.Add(interval),
		IsRunning:   false,
		Description: fmt.Sprintf("过期状态清理 (每%d秒)", s.cfg.Scheduler.CleanupIntervalSec),
	}

	logger.Info("定时任务初始化完成", "task_count", len(s.tasks))
}

// run 主循环
func (s *Scheduler) run() {
	ticker := time.NewTicker(time.Duration(s.cfg.Scheduler.CheckIntervalSec) * time.Second)
	defer ticker.Stop()

	for now := range ticker.C {
		s.checkTasks(now)
	}
}

// checkTasks 检查任务
func (s *Scheduler) checkTasks(now time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for taskType, status := range s.tasks {
		// 如果任务正在运行，跳过
		if status.IsRunning {
			continue
		}

		// 如果到达或超过下次运行时间，执行任务
		if now.After(status.NextRun) || now.Equal(status.NextRun) {
			status.IsRunning = true
			go s.runTask(taskType, now)
		}
	}
}

// runTask 运行任务
func (s *Scheduler) runTask(taskType TaskType, now time.Time) {
	defer func() {
		s.mutex.Lock()
		defer s.mutex.Unlock()

		status := s.tasks[taskType]
		status.IsRunning = false
		status.LastRun = now

		switch taskType {
		case TaskCleanup:
			interval := time.Duration(s.cfg.Scheduler.CleanupIntervalSec) * time.Second
			status.NextRun = now.Add(interval)
		}

		logger.Info("任务执行完成", "task", status.Description, "next_run", status.NextRun.Format("2006-01-02 15:04:05"))
	}()

	switch taskType {
	case TaskCleanup:
		cacheRemoved, err := s.svc.Cache().PruneExpired()
		if err != nil {
			logger.Error("清理过期推荐缓存失败", "error", err)
		}

		stateRemoved, err := s.svc.Limiter().PruneStale()
		if err != nil {
			logger.Error("清理无活动限流状态失败", "error", err)
		}

		logger.Info("过期状态清理完成",
			"cache_removed", cacheRemoved,
			"ratelimit_removed", stateRemoved)
	}
}
