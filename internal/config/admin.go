package config

import (
	"sync"
)

type AdminConfig struct {
	Token     string
	UploadDir string
}

var (
	adminConfig *AdminConfig
	adminOnce   sync.Once
)

func LoadAdminConfig() *AdminConfig {
	adminOnce.Do(func() {
		adminConfig = &AdminConfig{
			Token:     getEnv("ADMIN_TOKEN", ""),
			UploadDir: getEnv("UPLOAD_DIR", "./uploads"),
		}
	})
	return adminConfig
}
