package config

import "strings"

const defaultUploadMaxBytes int64 = 5 << 20

// UploadConfig bounds the single-file avatar upload.
type UploadConfig struct {
	MaxBytes     int64    `env:"MAX_BYTES"     envDefault:"5242880"`
	AllowedTypes []string `env:"ALLOWED_TYPES" envDefault:"image/png,image/jpg,image/jpeg"`
}

// Sanitize normalises MIME types and restores the size default.
func (u *UploadConfig) Sanitize() {
	if u.MaxBytes <= 0 {
		u.MaxBytes = defaultUploadMaxBytes
	}
	types := u.AllowedTypes[:0]
	for _, t := range u.AllowedTypes {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			types = append(types, t)
		}
	}
	u.AllowedTypes = types
}
