package handler

import (
	"io"
	"mime/multipart"

	"github.com/gin-gonic/gin"

	"portfolio-site/internal/domain"
	"portfolio-site/internal/service"
	"portfolio-site/internal/transport/http/ez"
)

const maxFilesPerUpload = 10

type UploadHandler struct {
	media *service.MediaService
}

func NewUploadHandler(m *service.MediaService) *UploadHandler { return &UploadHandler{media: m} }

// POST /api/upload；写接口由全局 Guard 要求 ADMIN
func (h *UploadHandler) MountAPI(api ez.EZ) {
	ez.POSTFILES(api, "/upload", "media.upload", "files", func(c *gin.Context, files []*multipart.FileHeader) ([]domain.Image, error) {
		if len(files) > maxFilesPerUpload {
			return nil, domain.Invalid("files", "at most 10 files per upload")
		}
		ups := make([]service.Upload, 0, len(files))
		for _, fh := range files {
			fh := fh
			ups = append(ups, service.Upload{
				Name: fh.Filename,
				Open: func() (io.ReadCloser, error) { return fh.Open() },
			})
		}
		return h.media.SaveImages(c.Request.Context(), ups, c.PostForm("alt"), c.PostForm("caption"))
	})
}
