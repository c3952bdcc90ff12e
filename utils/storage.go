package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dealdesk/config"
)

// SaveUpload writes an uploaded document under the configured upload
// directory and returns the stable public URL to store on the record.
// Controllers attach the returned URL to listings, submissions and
// contracts; the file itself is never read back by this service.
func SaveUpload(file *multipart.FileHeader, category string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	name := fmt.Sprintf("%d_%s", time.Now().UnixNano(), sanitizeFilename(file.Filename))
	dir := filepath.Join(config.AppConfig.UploadDir, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}

	return fmt.Sprintf("%s/uploads/%s/%s", config.AppConfig.PublicBaseURL, category, name), nil
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	replacer := strings.NewReplacer(" ", "_", "#", "", "?", "", "%", "")
	return replacer.Replace(name)
}
