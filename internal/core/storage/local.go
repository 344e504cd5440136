// Package storage 上传文件落盘；对外只暴露 Store 接口，便于替换为对象存储。
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"portfolio-site/pkg/utils"
)

var ErrUnsupportedType = errors.New("unsupported file type")

// Object 已保存文件的元数据
type Object struct {
	Key    string
	URL    string
	Width  int
	Height int
	Size   int64
}

type Store interface {
	PutImage(ctx context.Context, name string, r io.Reader) (*Object, error)
	Delete(ctx context.Context, key string) error
}

var extByType = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type Local struct {
	Dir       string
	PublicURL string
	MaxBytes  int64
}

func NewLocal(dir, publicURL string, maxBytes int64) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: mkdir %s: %w", dir, err)
	}
	return &Local{Dir: dir, PublicURL: strings.TrimSuffix(publicURL, "/"), MaxBytes: maxBytes}, nil
}

// PutImage 按内容嗅探类型（不信任文件名与 Content-Type），随机文件名落盘
func (l *Local) PutImage(ctx context.Context, _ string, r io.Reader) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit := l.MaxBytes
	if limit <= 0 {
		limit = 10 << 20
	}
	buf, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("storage: read: %w", err)
	}
	if int64(len(buf)) > limit {
		return nil, fmt.Errorf("storage: file exceeds %d bytes", limit)
	}
	ext, ok := extByType[http.DetectContentType(buf)]
	if !ok {
		return nil, ErrUnsupportedType
	}

	obj := &Object{Key: utils.NewID() + ext, Size: int64(len(buf))}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(buf)); err == nil {
		obj.Width, obj.Height = cfg.Width, cfg.Height
	}
	if err := os.WriteFile(filepath.Join(l.Dir, obj.Key), buf, 0o644); err != nil {
		return nil, fmt.Errorf("storage: write: %w", err)
	}
	obj.URL = path.Join(l.PublicURL, obj.Key)
	if strings.HasPrefix(l.PublicURL, "http") {
		obj.URL = l.PublicURL + "/" + obj.Key
	}
	return obj, nil
}

func (l *Local) Delete(_ context.Context, key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("storage: invalid key %q", key)
	}
	err := os.Remove(filepath.Join(l.Dir, key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
