package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
)

// ImageStore dépose les images produit dans le bucket public.
type ImageStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewImageStore construit les URLs publiques à partir de publicURL,
// ou de l'endpoint du client s'il est vide.
func NewImageStore(client *minio.Client, bucket, publicURL string) *ImageStore {
	if publicURL == "" {
		publicURL = client.EndpointURL().String()
	}
	return &ImageStore{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// Upload écrit l'objet sous key et retourne son URL publique.
func (s *ImageStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("envoi MinIO %s: %w", key, err)
	}
	return s.ObjectURL(key), nil
}

func (s *ImageStore) ObjectURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, key)
}
