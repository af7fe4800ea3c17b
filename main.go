package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photoshare/config"
	"photoshare/database"
	"photoshare/models"
	"photoshare/processing"
	"photoshare/route"
	"photoshare/services"
	"photoshare/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	store, err := database.Open(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer store.Close(context.Background())

	objects, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize object storage:", err)
	}

	pipeline := processing.New(processing.Config{
		WorkDir:        cfg.Upload.WorkDir,
		MaxUploadBytes: cfg.Upload.MaxBytes,
		JPEGQuality:    cfg.Upload.JPEGQuality,
		Variants: []processing.Variant{
			{Name: models.VariantMedium, MaxWidth: cfg.Upload.MediumLimit, MaxHeight: cfg.Upload.MediumLimit},
			{Name: models.VariantThumb, MaxWidth: cfg.Upload.ThumbLimit, MaxHeight: cfg.Upload.ThumbLimit},
		},
	})

	likes := services.NewLikeService(store, store)
	deps := route.Deps{
		Users:        services.NewUserService(store, cfg.JWTSecret, cfg.TokenTTL),
		Photos:       services.NewPhotoService(store, objects, pipeline, likes),
		Likes:        likes,
		DB:           store,
		Secret:       cfg.JWTSecret,
		MaxBodyBytes: cfg.Upload.MaxBytes + 1<<20,
		CORSOrigins:  cfg.CORSOrigins,
	}
	if cfg.StorageDriver == "disk" {
		deps.StaticDir = cfg.UploadDir
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: route.NewRouter(deps),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()
	log.Printf("Listening on :%s\n", cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Gracefully shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Println("Server shutdown error:", err)
	}
	log.Println("Server shutdown complete")
}
