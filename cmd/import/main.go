package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"
	"github.com/user/moovie/internal/config"
	"github.com/user/moovie/internal/corpus"
	"github.com/user/moovie/internal/repository"
	"github.com/user/moovie/internal/search"
	"github.com/user/moovie/internal/service"
)

// 把语料文件导入数据库快照
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env 文件，使用系统环境变量")
	}
	cfg := config.Load()

	dir := flag.String("dir", cfg.CorpusDir, "语料目录")
	pattern := flag.String("pattern", cfg.CorpusPattern, "语料文件匹配模式")
	exportVectors := flag.Bool("vectors", false, "导入后按数据库全量记录拟合索引并写入 pgvector")
	flag.Parse()

	ctx := context.Background()
	records, err := corpus.LoadDir(ctx, *dir, *pattern)
	if err != nil {
		log.Fatalf("加载语料失败: %v", err)
	}
	if len(records) == 0 {
		log.Fatalf("%s 下没有匹配 %s 的语料", *dir, *pattern)
	}

	db, err := repository.InitDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}
	sqlDB, _ := db.DB()
	defer sqlDB.Close()

	repos := repository.NewRepositories(db)
	if err := repos.Movie.UpsertBatch(records); err != nil {
		log.Fatalf("导入失败: %v", err)
	}

	total, err := repos.Movie.Count()
	if err != nil {
		log.Fatalf("统计失败: %v", err)
	}
	log.Printf("[Import] 导入 %d 条，数据库现有 %d 条", len(records), total)

	if !*exportVectors {
		return
	}
	vectors, err := repository.EnableVectors(db)
	if err != nil {
		log.Fatalf("%v", err)
	}
	all, err := repos.Movie.ListAll()
	if err != nil {
		log.Fatalf("读取数据库记录失败: %v", err)
	}
	engine := search.NewEngine(cfg.Search)
	if err := engine.Build(ctx, all); err != nil {
		log.Fatalf("构建索引失败: %v", err)
	}
	if err := service.ExportVectors(engine, vectors); err != nil {
		log.Fatalf("%v", err)
	}
	n, err := vectors.CountVectors()
	if err != nil {
		log.Fatalf("统计失败: %v", err)
	}
	log.Printf("[Import] 向量快照已写入 %d 条", n)
}
