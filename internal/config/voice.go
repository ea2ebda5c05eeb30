package config

import (
	"sync"
)

// VoiceConfig covers the inbound webhook of the voice provider.
type VoiceConfig struct {
	WebhookSecret string
	ReportName    string
}

var (
	voiceConfig *VoiceConfig
	voiceOnce   sync.Once
)

func LoadVoiceConfig() *VoiceConfig {
	voiceOnce.Do(func() {
		voiceConfig = &VoiceConfig{
			WebhookSecret: getEnv("VAPI_WEBHOOK_SECRET", ""),
			ReportName:    getEnv("VAPI_REPORT_NAME", "Interview_Audit_Report"),
		}
	})
	return voiceConfig
}
