package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tubescribe/tubescribe/internal/audio"
	"github.com/tubescribe/tubescribe/internal/cleanup"
	"github.com/tubescribe/tubescribe/internal/handlers"
	"github.com/tubescribe/tubescribe/internal/metadata"
	"github.com/tubescribe/tubescribe/internal/pipeline"
	"github.com/tubescribe/tubescribe/internal/provider"
	"github.com/tubescribe/tubescribe/internal/queue"
	"github.com/tubescribe/tubescribe/internal/scrape"
	"github.com/tubescribe/tubescribe/internal/storage"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port int    `yaml:"port"`
		Host string `yaml:"host"`
	} `yaml:"server"`

	Pipeline struct {
		Stages                []string `yaml:"stages"`
		Language              string   `yaml:"language"`
		ScrapeTimeoutSeconds  int      `yaml:"scrape_timeout_seconds"`
		AudioTimeoutSeconds   int      `yaml:"audio_timeout_seconds"`
		RequestTimeoutSeconds int      `yaml:"request_timeout_seconds"`
	} `yaml:"pipeline"`

	Provider struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"provider"`

	Speech struct {
		BaseURL             string `yaml:"base_url"`
		APIKey              string `yaml:"api_key"`
		DownloadAudio       bool   `yaml:"download_audio"`
		PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
		MaxPolls            int    `yaml:"max_polls"`
	} `yaml:"speech"`

	Workers struct {
		Count int `yaml:"count"`
	} `yaml:"workers"`

	Storage struct {
		TempDir  string `yaml:"temp_dir"`
		Database string `yaml:"database"`
	} `yaml:"storage"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		MaxAgeHours     int `yaml:"max_age_hours"`
	} `yaml:"cleanup"`
}

func main() {
	// Credentials come from the environment; .env.local is a convenience for
	// local development.
	_ = godotenv.Load(".env.local")

	config, err := loadConfig("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := cleanup.EnsureTempDirExists(config.Storage.TempDir); err != nil {
		log.Fatalf("Failed to create temp directory: %v", err)
	}

	// Custom logger setup
	logBuffer := &LogBuffer{
		lines: make([]string, 0, 1000),
	}
	multiWriter := io.MultiWriter(os.Stdout, logBuffer)
	log.SetOutput(multiWriter)

	log.Println("Initializing components...")

	scrapeTimeout := time.Duration(config.Pipeline.ScrapeTimeoutSeconds) * time.Second
	audioTimeout := time.Duration(config.Pipeline.AudioTimeoutSeconds) * time.Second
	requestTimeout := time.Duration(config.Pipeline.RequestTimeoutSeconds) * time.Second

	// Extraction stage clients
	scrapeClient := scrape.NewClient(scrapeTimeout, config.Pipeline.Language)
	providerClient := provider.NewClient(config.Provider.BaseURL, config.Provider.APIKey, scrapeTimeout)
	transcriber := audio.NewTranscriber(
		audio.NewStreamResolver(audioTimeout),
		audio.TranscriberConfig{
			BaseURL:       config.Speech.BaseURL,
			APIKey:        config.Speech.APIKey,
			Timeout:       audioTimeout,
			TempDir:       config.Storage.TempDir,
			DownloadFirst: config.Speech.DownloadAudio,
			PollInterval:  time.Duration(config.Speech.PollIntervalSeconds) * time.Second,
			MaxPolls:      config.Speech.MaxPolls,
		},
	)

	if !providerClient.Configured() {
		log.Println("Transcript provider credential not set - provider stage will be skipped")
	}
	if !transcriber.Configured() {
		log.Println("Speech-to-text credential not set - audio stage will be skipped")
	}

	// Attempt diagnostics database
	store, err := storage.NewAttemptStore(config.Storage.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Pipeline
	stages, err := pipeline.StageSet{
		Scrape:      scrapeClient,
		Provider:    providerClient,
		Transcriber: transcriber,
	}.Select(config.Pipeline.Stages)
	if err != nil {
		log.Fatalf("Invalid stage configuration: %v", err)
	}
	log.Printf("Pipeline stage order: %v", config.Pipeline.Stages)

	summarizer := metadata.NewSummarizer(scrapeTimeout)
	pipe := pipeline.New(stages, summarizer, store)

	// Worker pool for async jobs
	workerPool := queue.NewWorkerPool(config.Workers.Count, pipe, requestTimeout)
	workerPool.Start()

	// Cleanup sweeper for orphaned temp audio
	sweeper := cleanup.NewSweeper(
		config.Storage.TempDir,
		time.Duration(config.Cleanup.IntervalMinutes)*time.Minute,
		time.Duration(config.Cleanup.MaxAgeHours)*time.Hour,
	)
	sweeper.Start()
	defer sweeper.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	// Initialize handlers
	transcriptHandler := handlers.NewTranscriptHandler(pipe, requestTimeout)
	jobsHandler := handlers.NewJobsHandler(workerPool, store)
	streamHandler := handlers.NewStreamHandler(pipe, requestTimeout)

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	app.Get("/transcript", transcriptHandler.Handle)
	app.Post("/transcripts", jobsHandler.Submit)
	app.Get("/jobs/:id", jobsHandler.Status)
	app.Get("/attempts", jobsHandler.Attempts)

	// WebSocket route
	app.Get("/ws/acquire", websocket.New(streamHandler.Handle))

	// Get server logs
	app.Get("/logs", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"logs": logBuffer.GetLogs(),
		})
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	log.Printf("Server starting on %s", addr)
	log.Println("Endpoints:")
	log.Println("   GET  /transcript   - Acquire a transcript synchronously")
	log.Println("   POST /transcripts  - Start an async acquisition job")
	log.Println("   GET  /jobs/:id     - Job status, result and attempts")
	log.Println("   GET  /attempts     - Recent extraction diagnostics")
	log.Println("   GET  /ws/acquire   - Live acquisition progress")
	log.Println("   GET  /logs         - View server logs")
	log.Println("   GET  /health       - Health check")

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("Shutting down gracefully...")
		app.Shutdown()
	}()

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// LogBuffer captures logs in memory
type LogBuffer struct {
	lines []string
	mu    sync.Mutex
}

func (lb *LogBuffer) Write(p []byte) (n int, err error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.lines = append(lb.lines, string(p))

	// Keep last 1000 lines
	if len(lb.lines) > 1000 {
		lb.lines = lb.lines[len(lb.lines)-1000:]
	}

	return len(p), nil
}

func (lb *LogBuffer) GetLogs() []string {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	logs := make([]string, len(lb.lines))
	copy(logs, lb.lines)
	return logs
}

// loadConfig loads configuration from YAML file, then applies environment
// overrides for credentials and fills defaults.
func loadConfig(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	if key := os.Getenv("TRANSCRIPT_PROVIDER_API_KEY"); key != "" {
		config.Provider.APIKey = key
	}
	if key := os.Getenv("ASSEMBLYAI_API_KEY"); key != "" {
		config.Speech.APIKey = key
	}

	applyDefaults(&config)
	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Pipeline.Language == "" {
		config.Pipeline.Language = "en"
	}
	if config.Pipeline.ScrapeTimeoutSeconds == 0 {
		config.Pipeline.ScrapeTimeoutSeconds = 15
	}
	if config.Pipeline.AudioTimeoutSeconds == 0 {
		config.Pipeline.AudioTimeoutSeconds = 120
	}
	if config.Pipeline.RequestTimeoutSeconds == 0 {
		config.Pipeline.RequestTimeoutSeconds = 300
	}
	if config.Provider.BaseURL == "" {
		config.Provider.BaseURL = "https://www.youtube-transcript.io/api"
	}
	if config.Speech.BaseURL == "" {
		config.Speech.BaseURL = "https://api.assemblyai.com"
	}
	if config.Workers.Count == 0 {
		config.Workers.Count = 4
	}
	if config.Storage.TempDir == "" {
		config.Storage.TempDir = "temp"
	}
	if config.Storage.Database == "" {
		config.Storage.Database = "tubescribe.db"
	}
	if config.Cleanup.IntervalMinutes == 0 {
		config.Cleanup.IntervalMinutes = 30
	}
	if config.Cleanup.MaxAgeHours == 0 {
		config.Cleanup.MaxAgeHours = 6
	}
}
