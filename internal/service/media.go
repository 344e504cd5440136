package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"portfolio-site/internal/core/storage"
	"portfolio-site/internal/domain"
	"portfolio-site/pkg/utils"
)

// Upload 一个待保存的文件
type Upload struct {
	Name string
	Open func() (io.ReadCloser, error)
}

type MediaService struct {
	repo  domain.ContentRepository
	store storage.Store
	log   *zap.Logger
}

func NewMediaService(repo domain.ContentRepository, store storage.Store, l *zap.Logger) *MediaService {
	return &MediaService{repo: repo, store: store, log: l}
}

// SaveImages 逐个落盘并写 Image 行；任一失败即停止，已写入的文件回滚删除
func (s *MediaService) SaveImages(ctx context.Context, files []Upload, alt, caption string) ([]domain.Image, error) {
	out := make([]domain.Image, 0, len(files))
	var keys []string
	rollback := func() {
		for _, k := range keys {
			if err := s.store.Delete(context.WithoutCancel(ctx), k); err != nil {
				s.log.Warn("rollback upload failed", zap.String("key", k), zap.Error(err))
			}
		}
	}
	for _, f := range files {
		obj, err := s.put(ctx, f)
		if err != nil {
			rollback()
			if errors.Is(err, storage.ErrUnsupportedType) {
				return nil, domain.Invalid("files", f.Name+": only png, jpeg, gif and webp images are accepted")
			}
			return nil, fmt.Errorf("save image %s: %w", f.Name, err)
		}
		keys = append(keys, obj.Key)

		img := domain.Image{
			ID:      utils.NewID(),
			URL:     obj.URL,
			Alt:     strings.TrimSpace(alt),
			Caption: strings.TrimSpace(caption),
			Width:   obj.Width,
			Height:  obj.Height,
		}
		if err := s.repo.CreateImage(ctx, &img); err != nil {
			rollback()
			return nil, fmt.Errorf("create image row: %w", err)
		}
		out = append(out, img)
	}
	return out, nil
}

func (s *MediaService) put(ctx context.Context, f Upload) (*storage.Object, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return s.store.PutImage(ctx, f.Name, rc)
}
