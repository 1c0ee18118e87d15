package main

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"docparse/internal/adapter"
	"docparse/internal/config"
	"docparse/internal/confidence"
	"docparse/internal/correction"
	"docparse/internal/extractor"
	"docparse/internal/extractor/openai"
	"docparse/internal/handler"
	azureocr "docparse/internal/ocr/azure"
	"docparse/internal/pipeline"
	"docparse/internal/port"
	"docparse/internal/repository/postgres"
	"docparse/internal/router"
	"docparse/internal/service"
	"docparse/internal/validator"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Extraction providers
	extractor.RegisterProvider("openai", func(pc *config.ExtractorProviderConfig) (port.Extractor, error) {
		return openai.NewExtractor(pc), nil
	})
	primary, err := extractor.NewExtractor(&cfg.Extractor.Primary)
	if err != nil {
		return fmt.Errorf("failed to create extractor: %w", err)
	}
	ext := primary
	if sc := cfg.Extractor.SecondaryConfig(); sc != nil {
		secondary, err := extractor.NewExtractor(sc)
		if err != nil {
			return fmt.Errorf("failed to create secondary extractor: %w", err)
		}
		ext = extractor.NewFallbackExtractor(
			[]port.Extractor{primary, secondary},
			[]string{cfg.Extractor.Primary.Provider, sc.Provider},
		)
	}

	// OCR and format adapters
	var recognizer port.TextRecognizer
	if cfg.OCR.Enabled() {
		recognizer = azureocr.NewRecognizer(cfg.OCR.Endpoint, cfg.OCR.APIKey)
	}
	adapters := adapter.NewRegistry(
		adapter.NewPDFAdapter(recognizer),
		adapter.NewImageAdapter(recognizer),
		adapter.NewSpreadsheetAdapter(),
		adapter.NewXMLAdapter(),
	)

	// Validation and correction
	tol := validator.Tolerance{
		Absolute:     cfg.Validation.AbsoluteTolerance,
		Relative:     cfg.Validation.RelativeTolerance,
		LineAbsolute: cfg.Validation.LineAbsoluteTolerance,
	}
	engine := validator.NewDefaultEngine(tol)
	corrector := correction.NewEngine(ext, engine, correction.Config{
		MaxRounds:      cfg.Correction.MaxRounds,
		ExtractTimeout: time.Duration(cfg.Correction.TimeoutSecs) * time.Second,
	})

	aggOpts := confidence.Options{
		LowFieldThreshold:    cfg.Confidence.LowFieldThreshold,
		MediumFieldThreshold: cfg.Confidence.MediumFieldThreshold,
	}
	pipe := pipeline.New(adapters, ext, corrector, aggOpts, pipeline.Config{
		ExtractTimeout: time.Duration(cfg.Correction.TimeoutSecs) * time.Second,
	})

	// Persistence, service, handlers
	repo := postgres.NewParseRecordRepo(db)
	docSvc := service.NewDocumentService(pipe, repo, &cfg.Upload)
	docH := handler.NewDocumentHandler(docSvc)
	healthH := handler.NewHealthHandler(db)

	r := router.Setup(docH, healthH, cfg.CORS.AllowedOrigins)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
