package main

import (
	"context"
	"encoding/gob"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // 确保在精简镜像中也能识别时区

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/user/moovie/internal/config"
	"github.com/user/moovie/internal/handler"
	"github.com/user/moovie/internal/metrics"
	"github.com/user/moovie/internal/middleware"
	"github.com/user/moovie/internal/model"
	"github.com/user/moovie/internal/repository"
	"github.com/user/moovie/internal/router"
	"github.com/user/moovie/internal/search"
	"github.com/user/moovie/internal/service"
	"github.com/user/moovie/internal/utils"
)

func main() {
	// 注册 Session 模型
	gob.Register(model.SessionUser{})

	// 加载环境变量
	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env 文件，使用系统环境变量")
	}

	// 加载配置
	cfg := config.Load()

	// 初始化缓存
	utils.InitCache()

	// 指标
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(reg)

	// 数据库可选：不可用时只提供基于文件语料的搜索
	var repos *repository.Repositories
	if cfg.DBEnabled {
		db, err := repository.InitDB(cfg.DatabaseURL)
		if err != nil {
			log.Printf("数据库连接失败，账号与抓取功能不可用: %v", err)
		} else {
			sqlDB, _ := db.DB()
			defer sqlDB.Close()
			repos = repository.NewRepositories(db)
		}
	}

	// 搜索引擎与语料刷新
	engine := search.NewEngine(cfg.Search)

	var source service.RecordSource
	var lookup service.MovieLookup
	if repos != nil {
		source = repos.Movie
		lookup = repos.Movie
	}
	movies := service.NewMovieService(engine, lookup)

	refresher := service.NewRefreshService(engine, cfg.CorpusDir, cfg.CorpusPattern, source)
	refresher.OnSwap(movies.InvalidateCaches)
	if repos != nil {
		if vectors, err := repository.EnableVectors(repos.DB); err != nil {
			log.Printf("向量快照导出已关闭: %v", err)
		} else {
			refresher.OnSwap(func() {
				go func() {
					if err := service.ExportVectors(engine, vectors); err != nil {
						log.Printf("[VectorExport] %v", err)
					}
				}()
			})
		}
	}

	if n, err := refresher.Refresh(context.Background()); err != nil {
		log.Printf("初始语料加载失败，搜索接口将返回 503 直到重建成功: %v", err)
	} else {
		log.Printf("语料已加载: %d 条", n)
	}
	if err := refresher.Start(cfg.RefreshInterval); err != nil {
		log.Fatalf("启动定时刷新失败: %v", err)
	}
	defer refresher.Stop()

	// 初始化 Handler
	h := handler.NewHandler(cfg, engine, movies)
	h.Refresher = refresher
	if repos != nil {
		h.Users = repos.User
		h.Favorites = repos.Favorite
		h.Ingester = service.NewIngester(cfg.IngestBaseURL, cfg.IngestRPS, nil, repos.Movie)
	}

	// 初始化 Gin
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	// 启用 gzip，默认压缩级别
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 设置 Session 中间件
	store := cookie.NewStore([]byte(cfg.AppSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 天
		HttpOnly: true,
		Secure:   cfg.Env == "production",
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("mysession", store))

	// 中间件
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Security())
	r.Use(middleware.CORS(cfg.CORSOrigins))

	// 注册路由
	router.RegisterRoutes(r, h, reg)

	// 配置 HTTP 服务器
	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// 在 goroutine 中启动服务器，这样我们就可以监听信号
	go func() {
		log.Printf("服务器启动于 http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务器启动失败: %v", err)
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("服务器强制关闭:", err)
	}

	log.Println("服务器已退出")
}
