package storage

import (
	"context"
	"fmt"
	"io"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader stores tournament archives in object storage.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// StandingsArchiveKey is where the final standings of a tournament are kept.
func StandingsArchiveKey(tournamentID int) string {
	return fmt.Sprintf("tournaments/%d/final-standings.json", tournamentID)
}
