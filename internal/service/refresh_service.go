package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/user/moovie/internal/corpus"
	"github.com/user/moovie/internal/model"
	"github.com/user/moovie/internal/search"
	"golang.org/x/sync/singleflight"
)

const refreshJobTag = "corpus-refresh"

// RecordSource 数据库中的记录来源
type RecordSource interface {
	ListAll() ([]model.Movie, error)
}

// RefreshService 语料刷新服务：读取语料文件与数据库记录，重建索引后原子替换
type RefreshService struct {
	engine    *search.Engine
	dir       string
	pattern   string
	source    RecordSource
	sf        singleflight.Group
	scheduler *gocron.Scheduler
	onSwap    []func()
}

// NewRefreshService 创建刷新服务，source 为 nil 时只读取文件
func NewRefreshService(engine *search.Engine, dir, pattern string, source RecordSource) *RefreshService {
	return &RefreshService{
		engine:  engine,
		dir:     dir,
		pattern: pattern,
		source:  source,
	}
}

// OnSwap 注册新快照发布后的回调，用于清理依赖旧语料的缓存
func (s *RefreshService) OnSwap(fn func()) {
	s.onSwap = append(s.onSwap, fn)
}

// Refresh 执行一次重建，返回新语料的记录数
// 并发调用会合并为一次；失败时继续使用旧快照。
// 调用方取消只影响自己的等待，已开始的重建会继续完成。
func (s *RefreshService) Refresh(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	ch := s.sf.DoChan("refresh", func() (interface{}, error) {
		return s.refresh(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return 0, r.Err
		}
		return r.Val.(int), nil
	}
}

func (s *RefreshService) refresh(ctx context.Context) (int, error) {
	start := time.Now()
	log.Println("[RefreshService] 开始重建语料...")

	fromFiles, err := corpus.LoadDir(ctx, s.dir, s.pattern)
	if err != nil {
		return 0, fmt.Errorf("读取语料文件失败: %w", err)
	}

	var fromDB []model.Movie
	if s.source != nil {
		fromDB, err = s.source.ListAll()
		if err != nil {
			// 数据库不可用时仍然用文件语料重建
			log.Printf("[RefreshService] 读取数据库记录失败: %v", err)
			fromDB = nil
		}
	}

	// 数据库中的记录来自后续抓取，同 id 时覆盖文件中的旧数据
	records := corpus.Merge(fromFiles, fromDB)
	if err := s.engine.Build(ctx, records); err != nil {
		log.Printf("[RefreshService] 重建失败，继续使用旧索引: %v", err)
		return 0, err
	}

	for _, fn := range s.onSwap {
		fn()
	}

	log.Printf("[RefreshService] 重建完成: 文件 %d 条, 数据库 %d 条, 合并后 %d 条, 耗时 %v",
		len(fromFiles), len(fromDB), len(records), time.Since(start))
	return len(records), nil
}

// Start 按固定间隔定时重建，interval <= 0 时不启动
func (s *RefreshService) Start(interval time.Duration) error {
	if interval <= 0 {
		log.Println("[RefreshService] 未配置刷新间隔，定时重建已关闭")
		return nil
	}

	s.scheduler = gocron.NewScheduler(time.UTC)
	s.scheduler.TagsUnique()
	_, err := s.scheduler.Every(interval).Tag(refreshJobTag).SingletonMode().WaitForSchedule().Do(func() {
		if _, err := s.Refresh(context.Background()); err != nil {
			log.Printf("[RefreshService] 定时重建失败: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("注册定时任务失败: %w", err)
	}

	s.scheduler.StartAsync()
	log.Printf("[RefreshService] 定时重建已启动，间隔 %v", interval)
	return nil
}

// Stop 停止定时任务
func (s *RefreshService) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
