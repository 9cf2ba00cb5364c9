package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MaxDocumentSize  = 5 << 20 // 5 MB
	MaxDocumentCount = 5
	DocumentPath     = "uploads/documents"
)

// SaveDocument saves an uploaded appointment attachment and returns its URL path
func SaveDocument(file multipart.File, header *multipart.FileHeader) (string, error) {
	if header.Size > MaxDocumentSize {
		return "", fmt.Errorf("file size exceeds maximum limit of %d MB", MaxDocumentSize/(1<<20))
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !isValidDocumentType(ext) {
		return "", fmt.Errorf("invalid file type: %s", ext)
	}

	if err := os.MkdirAll(DocumentPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %v", err)
	}

	filename := fmt.Sprintf("%s-%s%s",
		time.Now().Format("20060102"),
		uuid.New().String(),
		ext,
	)
	filePath := filepath.Join(DocumentPath, filename)

	dst, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %v", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", fmt.Errorf("failed to save file: %v", err)
	}

	return fmt.Sprintf("/documents/%s", filename), nil
}

func isValidDocumentType(ext string) bool {
	validTypes := map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".gif":  true,
		".pdf":  true,
		".doc":  true,
		".docx": true,
	}
	return validTypes[ext]
}

func DeleteDocument(documentURL string) error {
	filename := filepath.Base(documentURL)
	filePath := filepath.Join(DocumentPath, filename)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil
	}

	return os.Remove(filePath)
}
