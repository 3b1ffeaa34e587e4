// Package filestore writes uploaded files to a local directory served under /images/.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	httpx "github.com/target/courseshop/internal/http"
)

// AvatarStore saves avatars as <dir>/avatars/<user>-<uuid><ext>.
type AvatarStore struct {
	dir       string
	urlPrefix string
}

// NewAvatarStore creates the avatar directory if needed.
func NewAvatarStore(dir, urlPrefix string) (*AvatarStore, error) {
	if dir == "" {
		return nil, errors.New("images directory is required")
	}
	if err := os.MkdirAll(filepath.Join(dir, "avatars"), 0o750); err != nil {
		return nil, fmt.Errorf("create avatar dir: %w", err)
	}
	if urlPrefix == "" {
		urlPrefix = "/images"
	}
	return &AvatarStore{dir: dir, urlPrefix: urlPrefix}, nil
}

var extByMIME = map[string]string{ //nolint:gochecknoglobals // read-only lookup
	"image/png":  ".png",
	"image/jpg":  ".jpg",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Save writes the upload and returns the URL it is served from.
func (s *AvatarStore) Save(ctx context.Context, userID string, up *httpx.Upload) (string, error) {
	if up == nil || len(up.Data) == 0 {
		return "", errors.New("empty avatar upload")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ext, ok := extByMIME[up.MIMEType]
	if !ok {
		ext = filepath.Ext(filepath.Base(up.Filename))
	}
	name := fmt.Sprintf("%s-%s%s", filepath.Base(userID), uuid.NewString(), ext)
	path := filepath.Join(s.dir, "avatars", name)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, up.Data, 0o640); err != nil {
		return "", fmt.Errorf("write avatar: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", errors.Join(fmt.Errorf("store avatar: %w", err), os.Remove(tmp))
	}
	return s.urlPrefix + "/avatars/" + name, nil
}

var _ httpx.AvatarStore = (*AvatarStore)(nil)
