package upload

import (
	"context"
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxImageSize est la taille maximale d'une image produit.
const MaxImageSize = 5 << 20

// Formats acceptés et extension du fichier stocké
var allowedTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

type ImageUploader interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

type Handler struct {
	images ImageUploader
	log    *zap.Logger
}

func NewHandler(images ImageUploader, log *zap.Logger) *Handler {
	return &Handler{images: images, log: log}
}

// 🖼️ Upload d'une image produit (admin)
func (h *Handler) UploadImage(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Aucun fichier reçu"})
		return
	}
	if fileHeader.Size > MaxImageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fichier trop volumineux (5 Mo maximum)"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur ouverture fichier"})
		return
	}
	defer file.Close()

	// Le type est déduit du contenu, pas de l'en-tête envoyé par le client
	mime, err := mimetype.DetectReader(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fichier illisible"})
		return
	}
	contentType := mime.String()
	ext, ok := allowedTypes[contentType]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Format non supporté (JPEG, PNG, WebP ou GIF)"})
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture fichier"})
		return
	}

	key := "uploads/" + uuid.NewString() + "." + ext
	url, err := h.images.Upload(c.Request.Context(), key, file, fileHeader.Size, contentType)
	if err != nil {
		h.log.Error("❌ Erreur upload MinIO", zap.String("key", key), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors de l'envoi de l'image"})
		return
	}

	h.log.Info("🖼️ Image envoyée", zap.String("key", key), zap.Int64("size", fileHeader.Size))
	c.JSON(http.StatusCreated, gin.H{"imageUrl": url})
}
