package config

import (
	"sync"
	"time"
)

type ProctorConfig struct {
	Cooldown       time.Duration
	SampleInterval time.Duration
	AbsenceSamples int
	EndPhrase      string
}

var (
	proctorConfig *ProctorConfig
	proctorOnce   sync.Once
)

func LoadProctorConfig() *ProctorConfig {
	proctorOnce.Do(func() {
		proctorConfig = &ProctorConfig{
			Cooldown:       time.Duration(getEnvInt("PROCTOR_COOLDOWN_SECONDS", 20)) * time.Second,
			SampleInterval: time.Duration(getEnvInt("PROCTOR_SAMPLE_SECONDS", 5)) * time.Second,
			AbsenceSamples: getEnvInt("PROCTOR_ABSENCE_SAMPLES", 3),
			EndPhrase:      getEnv("INTERVIEW_END_PHRASE", "this concludes the interview"),
		}
	})
	return proctorConfig
}
