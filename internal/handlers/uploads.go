package handlers

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"path"

	"github.com/google/uuid"

	"github.com/cliptube/backend/internal/media"
)

// uploadHeader streams one multipart file to object storage under a random
// key within the given prefix and returns the public URL.
func uploadHeader(r *http.Request, store media.AssetStorage, header *multipart.FileHeader, prefix string) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open uploaded file: %w", err)
	}
	defer file.Close()

	key := fmt.Sprintf("%s/%s%s", prefix, uuid.NewString(), path.Ext(header.Filename))
	return store.Save(r.Context(), key, file)
}
