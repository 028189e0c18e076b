package service

import (
	"github.com/bitfantasy/nimo-mes/internal/config"
	"github.com/bitfantasy/nimo-mes/internal/mes/entity"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Services MES服务集合
type Services struct {
	Coil       *CoilService
	Cutting    *CuttingService
	Production *ProductionService
	Shipping   *ShippingService
	Stock      *StockService
	MRP        *MRPService
	BOM        *BOMService
	Catalog    *CatalogService
	Document   *DocumentService
	Export     *ExportService
}

// NewServices 创建服务集合
func NewServices(repos *repository.Repositories, rdb *redis.Client, logger *zap.Logger, cfg *config.Config) *Services {
	// 初始化MinIO客户端
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		var err error
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			logger.Warn("minio init failed, file storage disabled", zap.Error(err))
			minioClient = nil
		}
	}

	audit := newAuditor(repos.ActionLog, logger)
	stock := NewStockService(repos, rdb, logger)

	return &Services{
		Coil:       NewCoilService(repos, stock, audit),
		Cutting:    NewCuttingService(repos, stock, audit),
		Production: NewProductionService(repos, stock, audit),
		Shipping:   NewShippingService(repos, stock, audit, cfg.Planning.AllowNegativeStock),
		Stock:      stock,
		MRP:        NewMRPService(repos, cfg.Planning.Periods),
		BOM:        NewBOMService(repos, cfg.Planning.AverageCoilWeightKg),
		Catalog:    NewCatalogService(repos, stock),
		Document:   NewDocumentService(repos.Coil, minioClient, cfg.MinIO.Bucket),
		Export:     NewExportService(stock),
	}
}

// auditor 操作日志记录器，写入失败只告警不阻塞主流程
type auditor struct {
	repo   *repository.ActionLogRepository
	logger *zap.Logger
}

func newAuditor(repo *repository.ActionLogRepository, logger *zap.Logger) *auditor {
	return &auditor{repo: repo, logger: logger}
}

type Operator struct {
	ID   string
	Name string
}

func (a *auditor) record(actionType, entityType, entityID, entityCode string, payload entity.JSONB, op Operator) {
	log := &entity.ActionLog{
		ActionType:   actionType,
		EntityType:   entityType,
		EntityID:     entityID,
		EntityCode:   entityCode,
		Payload:      payload,
		OperatorID:   op.ID,
		OperatorName: op.Name,
	}
	if err := a.repo.Create(log); err != nil {
		a.logger.Warn("write action log failed",
			zap.String("action", actionType),
			zap.String("entity_id", entityID),
			zap.Error(err))
	}
}
