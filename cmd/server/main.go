package main

import (
	"log"

	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/cache"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/config"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/database"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/server"
)

func main() {
	// 설정 로드
	cfg := config.Load()

	// 데이터베이스 연결
	db, err := database.Connect(cfg.Database.DSN)
	if err != nil {
		log.Fatalf("❌ Database connection failed: %v", err)
	}
	defer database.Close(db)

	if err := database.Ping(db); err != nil {
		log.Fatalf("❌ Database ping failed: %v", err)
	}
	log.Printf("✅ Database connected successfully")

	// Redis 연결 (프리뷰 캐시)
	redisClient, err := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("❌ Redis connection failed: %v", err)
	}
	defer redisClient.Close()

	// 서버 생성 및 설정
	srv := server.New(cfg, db, redisClient)
	srv.SetupMiddleware()
	srv.SetupRoutes()

	// 서버 시작
	if err := srv.Start(); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
