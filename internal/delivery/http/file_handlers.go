package http

import (
	"fmt"
	"io"
	"net/http"

	"codegram-backend/internal/domain"
	"codegram-backend/internal/repository"
	"codegram-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// FileHandler serves avatars stored in GridFS.
type FileHandler struct {
	files    repository.FileStore
	profiles domain.ProfileUsecase
	log      *logger.Logger
}

func NewFileHandler(files repository.FileStore, profiles domain.ProfileUsecase, log *logger.Logger) *FileHandler {
	return &FileHandler{files: files, profiles: profiles, log: log.With("component", "files")}
}

// UploadAvatar takes a multipart "avatar" file and updates the caller's avatarUrl.
func (h *FileHandler) UploadAvatar(c *gin.Context) {
	uid, err := getUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Файл обов'язковий"})
		return
	}
	defer file.Close()

	if header.Size > repository.MaxAvatarSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": repository.ErrFileTooLarge.Error()})
		return
	}

	user, err := h.profiles.UploadAvatar(c.Request.Context(), uid, header.Filename,
		header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": domain.UserMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Аватар оновлено", "user": user})
}

// StreamFile streams a stored image. Avatars are public.
func (h *FileHandler) StreamFile(c *gin.Context) {
	stream, info, err := h.files.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	defer stream.Close()

	c.Header("Content-Type", info.ContentType)
	c.Header("Content-Length", fmt.Sprintf("%d", info.Size))
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", info.Filename))
	c.Header("Cache-Control", "public, max-age=86400")

	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, stream); err != nil {
		// headers are already sent
		h.log.Warn("Error streaming file", "file_id", info.ID, "error", err)
	}
}

func (h *FileHandler) GetFileInfo(c *gin.Context) {
	info, err := h.files.GetFileInfo(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}
