// @title Adaptive Learning 后端 API
// @version 1.0
// @description 按学习风格自适应生成讲解、图表、语音与练习的学习平台后端。

// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"adaptive_learning_backend/internal/app"
	"adaptive_learning_backend/internal/config"
	"adaptive_learning_backend/pkg/logger"
	"flag"
	"log"
)

func main() {
	configDir := flag.String("config", "configs", "配置文件目录")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application := app.NewApp(cfg, *configDir)
	defer logger.Log.Sync()

	application.Run()
}
