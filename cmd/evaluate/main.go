package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/user/moovie/internal/config"
	"github.com/user/moovie/internal/corpus"
	"github.com/user/moovie/internal/evaluate"
	"github.com/user/moovie/internal/search"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env 文件，使用系统环境变量")
	}
	cfg := config.Load()

	queriesPath := flag.String("queries", "evaluation_queries.json", "带标注的查询集")
	dir := flag.String("dir", cfg.CorpusDir, "语料目录")
	pattern := flag.String("pattern", cfg.CorpusPattern, "语料文件匹配模式")
	k := flag.Int("k", evaluate.DefaultK, "P@K 的 K")
	contentOnly := flag.Bool("content", false, "跳过查询分类，只评估内容检索")
	flag.Parse()

	ctx := context.Background()

	queries, err := evaluate.LoadQueries(*queriesPath)
	if err != nil {
		log.Fatalf("%v", err)
	}

	records, err := corpus.LoadDir(ctx, *dir, *pattern)
	if err != nil {
		log.Fatalf("加载语料失败: %v", err)
	}

	engine := search.NewEngine(cfg.Search)
	if err := engine.Build(ctx, records); err != nil {
		log.Fatalf("构建索引失败: %v", err)
	}

	var searcher evaluate.Searcher = engine
	if *contentOnly {
		searcher = evaluate.ContentOnly(engine)
	}
	report, err := evaluate.Run(ctx, searcher, queries, len(records), *k)
	if err != nil {
		log.Fatalf("评估失败: %v", err)
	}

	for _, q := range report.Queries {
		fmt.Printf("%s [%s]: P@%d = %.2f, AP = %.2f\n", q.Query, q.QueryType, report.K, q.Precision, q.AP)
	}
	fmt.Printf("\nMean P@%d: %.4f\n", report.K, report.MeanPrecision)
	fmt.Printf("MAP: %.4f\n", report.MAP)

	if len(report.Queries) == 0 {
		os.Exit(1)
	}
}
