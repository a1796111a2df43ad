package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-booking/cache"
	"github.com/yeremiapane/restaurant-booking/config"
	"github.com/yeremiapane/restaurant-booking/feed"
	"github.com/yeremiapane/restaurant-booking/router"
	"github.com/yeremiapane/restaurant-booking/storage"
	"github.com/yeremiapane/restaurant-booking/utils"
)

func main() {
	utils.InitLogger()
	cfg := config.Load()

	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	utils.InfoLogger.Printf("Database ready (%s)", cfg.DBDriver)

	utils.InitJWT(cfg.JWTSecret, cfg.TokenTTL)
	utils.FlashCookieSecure = cfg.CookieSecure

	redis := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if redis.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redis.Ping(ctx); err != nil {
			utils.ErrorLogger.Printf("Redis at %s unreachable, continuing without it: %v", cfg.RedisAddr, err)
		} else {
			utils.InfoLogger.Printf("Connected to redis at %s", cfg.RedisAddr)
		}
		cancel()
		defer redis.Close()
	}
	utils.InitTokenStore(redis)

	images, err := newImageStore(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to set up image storage: %v", err)
	}

	r := router.SetupRouter(router.Deps{
		DB:     db,
		Config: cfg,
		Cache:  redis,
		Hub:    feed.NewHub(0),
		Images: images,
	})
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		utils.ErrorLogger.Printf("Setting trusted proxies: %v", err)
	}

	utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

// newImageStore uses S3 when a bucket is configured and the local uploads
// directory otherwise.
func newImageStore(cfg *config.Config) (storage.ImageStore, error) {
	if cfg.S3Bucket != "" {
		store, err := storage.NewS3Store(context.Background(), cfg.S3Bucket, cfg.S3Region, cfg.S3PublicURL)
		if err != nil {
			return nil, err
		}
		utils.InfoLogger.Printf("Storing menu images in s3://%s", cfg.S3Bucket)
		return store, nil
	}
	store, err := storage.NewLocalStore(cfg.UploadDir, cfg.UploadBaseURL)
	if err != nil {
		return nil, err
	}
	utils.InfoLogger.Printf("Storing menu images in %s", cfg.UploadDir)
	return store, nil
}
