package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/JulianWeber/FanGate/app/controllers"
	"github.com/JulianWeber/FanGate/app/repository"
	"github.com/JulianWeber/FanGate/internal/pkg/cache"
	"github.com/JulianWeber/FanGate/internal/pkg/database"
	"github.com/JulianWeber/FanGate/internal/pkg/env"
	"github.com/JulianWeber/FanGate/internal/pkg/metrics/counter"
	"github.com/JulianWeber/FanGate/internal/pkg/router"
	"github.com/JulianWeber/FanGate/internal/pkg/storage"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeGlobalFactory(database.GetDB())

	// Find the project root whether we run from the repo root or cmd/fangate
	basePaths := []string{
		"./",
		"../../",
		"../../../",
	}
	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "public"); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}
	if basePath == "" {
		panic("Could not find project root directory")
	}

	if cfg, err := storage.LoadConfig(); err != nil {
		log.Printf("content storage not configured: %v", err)
	} else if client, err := storage.NewClient(cfg); err != nil {
		log.Printf("content storage init failed: %v", err)
	} else {
		controllers.SetStorageClient(client)
	}

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			if err := counter.FlushAll(); err != nil {
				log.Printf("counter flush failed: %v", err)
			}
		}
	}()

	app := fiber.New(fiber.Config{
		BodyLimit: 800 * 1024 * 1024, // 800 MiB, sized for raw video uploads
	})

	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", monitor.New())

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	return app
}
