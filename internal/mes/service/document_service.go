package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// DocumentService 供应商单据文件存储（质保书/磅单扫描件挂到母卷）
type DocumentService struct {
	coilRepo    *repository.CoilRepository
	minioClient *minio.Client
	bucketName  string
}

func NewDocumentService(coilRepo *repository.CoilRepository, minioClient *minio.Client, bucketName string) *DocumentService {
	return &DocumentService{coilRepo: coilRepo, minioClient: minioClient, bucketName: bucketName}
}

// UploadSupplierDoc 上传单据并挂到母卷
func (s *DocumentService) UploadSupplierDoc(ctx context.Context, motherCoilID string, reader io.Reader, fileName string, fileSize int64, contentType string) (string, error) {
	if s.minioClient == nil {
		return "", fmt.Errorf("storage not configured")
	}

	coil, err := s.coilRepo.GetMotherByID(motherCoilID)
	if err != nil {
		return "", fmt.Errorf("find mother coil: %w", err)
	}

	objectName := fmt.Sprintf("supplier-docs/%s/%s%s", time.Now().Format("2006/01/02"), uuid.New().String()[:8], filepath.Ext(fileName))
	_, err = s.minioClient.PutObject(ctx, s.bucketName, objectName, reader, fileSize, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload file: %w", err)
	}

	coil.SupplierDocFile = objectName
	if err := s.coilRepo.UpdateMother(coil); err != nil {
		return "", fmt.Errorf("update mother coil: %w", err)
	}

	return objectName, nil
}

// DownloadSupplierDoc 下载母卷挂载的单据
func (s *DocumentService) DownloadSupplierDoc(ctx context.Context, motherCoilID string) (io.ReadCloser, string, error) {
	coil, err := s.coilRepo.GetMotherByID(motherCoilID)
	if err != nil {
		return nil, "", fmt.Errorf("find mother coil: %w", err)
	}
	if coil.SupplierDocFile == "" {
		return nil, "", fmt.Errorf("该母卷没有上传单据")
	}
	if s.minioClient == nil {
		return nil, "", fmt.Errorf("storage not configured")
	}

	object, err := s.minioClient.GetObject(ctx, s.bucketName, coil.SupplierDocFile, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", fmt.Errorf("get object: %w", err)
	}
	return object, filepath.Base(coil.SupplierDocFile), nil
}
