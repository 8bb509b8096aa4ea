package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App    AppConfig
	Scene  SceneConfig
	Keys   APIKeys
	Ai     AIConfig
	Render RenderConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	SessionTTL         time.Duration
}

type SceneConfig struct {
	// ChangeThreshold is the Hamming distance (0-64) a new frame's dHash must
	// exceed before the vision classifier runs again.
	ChangeThreshold int
	ScreenshotDir   string
	ScreenshotKeep  int
}

type APIKeys struct {
	Anthropic  string
	OpenAI     string
	ElevenLabs string
}

type AIConfig struct {
	VisionProvider string // "anthropic", "openai" or "auto"
	LLMProvider    string // "anthropic", "openai", "ollama"
	LLMModel       string
	OllamaBaseURL  string
	RequestTimeout time.Duration
	CritiqueEnable bool
}

type RenderConfig struct {
	OutputDir     string
	FFmpegPath    string
	FFprobePath   string
	RenderTimeout time.Duration
	VoiceID       string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			SessionTTL:         getEnvAsDuration("SESSION_TTL", 2*time.Hour),
		},
		Scene: SceneConfig{
			ChangeThreshold: getEnvAsInt("SCENE_CHANGE_THRESHOLD", 10),
			ScreenshotDir:   getEnv("SCREENSHOT_DIR", "outputs/screenshots"),
			ScreenshotKeep:  getEnvAsInt("SCREENSHOT_KEEP", 20),
		},
		Keys: APIKeys{
			Anthropic:  getEnv("ANTHROPIC_API_KEY", ""),
			OpenAI:     getEnv("OPENAI_API_KEY", ""),
			ElevenLabs: getEnv("ELEVENLABS_API_KEY", ""),
		},
		Ai: AIConfig{
			VisionProvider: getEnv("VISION_PROVIDER", "auto"),
			LLMProvider:    getEnv("LLM_PROVIDER", "anthropic"),
			LLMModel:       getEnv("LLM_MODEL", ""),
			OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			RequestTimeout: getEnvAsDuration("AI_REQUEST_TIMEOUT", 60*time.Second),
			CritiqueEnable: getEnvAsBool("LYRIC_CRITIQUE_ENABLED", true),
		},
		Render: RenderConfig{
			OutputDir:     getEnv("OUTPUT_DIR", "outputs"),
			FFmpegPath:    getEnv("FFMPEG_PATH", "ffmpeg"),
			FFprobePath:   getEnv("FFPROBE_PATH", "ffprobe"),
			RenderTimeout: getEnvAsDuration("RENDER_TIMEOUT", 5*time.Minute),
			VoiceID:       getEnv("ELEVENLABS_VOICE_ID", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
