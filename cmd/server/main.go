package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitfantasy/nimo-mes/internal/config"
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	mesHandler "github.com/bitfantasy/nimo-mes/internal/mes/handler"
	mesRepo "github.com/bitfantasy/nimo-mes/internal/mes/repository"
	mesService "github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/bitfantasy/nimo-mes/internal/middleware"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting nimo-mes service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := entity.AutoMigrate(db); err != nil {
		zapLogger.Fatal("Failed to auto-migrate MES tables", zap.Error(err))
	}
	zapLogger.Info("MES database migration completed")

	// 初始化Redis（库存视图缓存），连不上时降级为直查
	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			zapLogger.Warn("Redis unreachable, stock view cache disabled", zap.Error(err))
			rdb = nil
		}
	}

	// 初始化 MES 依赖
	repos := mesRepo.NewRepositories(db)
	services := mesService.NewServices(repos, rdb, zapLogger, cfg)
	handlers := mesHandler.NewHandlers(services)

	port := os.Getenv("MES_PORT")
	if port == "" {
		port = fmt.Sprintf("%d", cfg.Server.Port)
	}
	if port == "0" {
		port = "8082"
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// 健康检查
	router.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "nimo-mes"})
	})
	router.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "nimo-mes"})
	})

	// 版本信息
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":    "nimo-mes",
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// MES API v1
	v1 := router.Group("/api/v1/mes")
	v1.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		// 母卷台账
		mothers := v1.Group("/mother-coils")
		{
			mothers.GET("", handlers.Coil.ListMothers)
			mothers.POST("", handlers.Coil.CreateMother)
			mothers.GET("/:id", handlers.Coil.GetMother)
			mothers.PUT("/:id/stock", handlers.Coil.CorrectStock)
			mothers.DELETE("/:id", handlers.Coil.DeleteMother)
			mothers.POST("/:id/cut", handlers.Cutting.Cut)
			mothers.POST("/:id/document", handlers.Document.Upload)
			mothers.GET("/:id/document", handlers.Document.Download)
		}

		// 子卷台账
		children := v1.Group("/child-coils")
		{
			children.GET("", handlers.Coil.ListChildren)
			children.PUT("/:id", handlers.Coil.UpdateChild)
			children.DELETE("/:id", handlers.Coil.DeleteChild)
		}

		// 生产记录
		production := v1.Group("/production")
		{
			production.GET("", handlers.Production.List)
			production.POST("", handlers.Production.Produce)
			production.GET("/:id", handlers.Production.Get)
		}

		// 发货记录
		shipping := v1.Group("/shipping")
		{
			shipping.GET("", handlers.Shipping.List)
			shipping.POST("", handlers.Shipping.Ship)
		}

		// 库存视图
		stock := v1.Group("/stock")
		{
			stock.GET("/mothers", handlers.Stock.MotherStock)
			stock.GET("/children", handlers.Stock.ChildStock)
			stock.GET("/finished", handlers.Stock.FinishedStock)
			stock.GET("/export", handlers.Stock.ExportStock)
		}

		// MRP投影
		mrp := v1.Group("/mrp")
		{
			mrp.POST("/project", handlers.MRP.Project)
			mrp.POST("/export", handlers.MRP.Export)
		}

		// BOM展开与定额维护
		bom := v1.Group("/bom")
		{
			bom.POST("/explode", handlers.BOM.Explode)
			bom.POST("/lines", handlers.BOM.CreateLine)
			bom.PUT("/lines/:id", handlers.BOM.UpdateLine)
			bom.GET("/lines/:product_code", handlers.BOM.ListByProduct)
			bom.DELETE("/lines/:id", handlers.BOM.DeleteLine)
		}

		// 物料目录
		catalog := v1.Group("/catalog")
		{
			catalog.GET("", handlers.Catalog.List)
			catalog.POST("", handlers.Catalog.Create)
			catalog.GET("/code/:code", handlers.Catalog.GetByCode)
			catalog.PUT("/:id", handlers.Catalog.Update)
			catalog.DELETE("/:id", handlers.Catalog.Delete)
		}

		// 操作日志
		v1.GET("/action-logs", handlers.Coil.ListActionLogs)
	}

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("MES Server starting", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down MES server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("MES Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}
	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	}
	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	return db, nil
}
