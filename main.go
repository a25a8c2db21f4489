package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/example/taskboard/modules/api"
	"github.com/example/taskboard/modules/cache"
	"github.com/example/taskboard/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== taskboard ===")

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Wire modules: the task module consumes the read cache, the API module
	// serves the task service. Registration order is start order.
	cacheModule := cache.NewModule()
	taskModule := task.NewModule()
	taskModule.SetCacheModule(cacheModule)
	apiModule := api.NewModule()
	apiModule.SetTaskModule(taskModule)

	app.Register(cacheModule)
	app.Register(taskModule)
	app.Register(apiModule)

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	log.Println("Application started successfully")
	log.Println("Task API: GET/POST /tasks, GET /tasks/stats, GET/PATCH/DELETE /tasks/:id")
	log.Println("Press Ctrl+C to shutdown gracefully")

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}
