package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/atelierfact/pdf-invoice-filler/internal/config"
	"github.com/atelierfact/pdf-invoice-filler/internal/convert"
	"github.com/atelierfact/pdf-invoice-filler/internal/invoice"
	"github.com/atelierfact/pdf-invoice-filler/internal/server"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging configures logging based on the run mode
func setupLogging(cfg *config.Config) {
	if cfg.IsCLIMode() {
		// In cli mode keep stdout for results; logs go to stderr and stay
		// quiet unless debug is enabled
		log.SetOutput(os.Stderr)
		if !cfg.IsDebug() {
			log.SetFlags(0)
		}
	} else {
		// In server mode, use normal stdout logging with more detail
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
}

// runServerMode handles server mode execution with signal handling
func runServerMode(ctx context.Context, cancel context.CancelFunc, srv *server.Server) {
	// Set up signal handling for graceful shutdown
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	// Start server in a goroutine
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.Run(ctx)
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-signalCh:
		log.Printf("Received signal: %s", sig)
		log.Println("Initiating graceful shutdown...")
		cancel()

		// Wait for server to shutdown
		if err := <-serverErrCh; err != nil {
			log.Printf("Server shutdown with error: %v", err)
			os.Exit(1)
		}

	case err := <-serverErrCh:
		if err != nil {
			log.Printf("Server error: %v", err)
			os.Exit(1)
		}
	}

	log.Println("Server stopped successfully")
}

// runCLIMode converts the PDF named on the command line and writes the
// filled document next to it.
func runCLIMode(ctx context.Context, cfg *config.Config, svc *invoice.Service, converter *convert.Converter) {
	args := pflag.Args()
	if len(args) != 1 {
		log.Fatalf("Usage: %s --template=<facture.docx> <commande.pdf>", os.Args[0])
	}
	orderPath := args[0]

	pdfBytes, err := os.ReadFile(orderPath)
	if err != nil {
		log.Fatalf("Cannot read order PDF: %v", err)
	}
	templateBytes, err := os.ReadFile(cfg.TemplatePath)
	if err != nil {
		log.Fatalf("Cannot read template: %v", err)
	}

	result, err := svc.Generate(invoice.GenerateRequest{
		PDF:      pdfBytes,
		Template: templateBytes,
	})
	if err != nil {
		log.Fatalf("Generation failed: %v", err)
	}

	outPath := filepath.Join(filepath.Dir(orderPath), result.Filename)
	if err := os.WriteFile(outPath, result.Document, 0o600); err != nil {
		log.Fatalf("Cannot write %s: %v", outPath, err)
	}
	fmt.Println(outPath)

	// Best effort PDF rendition alongside the document
	if rendered, err := converter.ToPDF(ctx, result.Document); err == nil && rendered != nil {
		pdfPath := outPath[:len(outPath)-len(".docx")] + ".pdf"
		if err := os.WriteFile(pdfPath, rendered, 0o600); err != nil {
			log.Printf("Cannot write %s: %v", pdfPath, err)
		} else {
			fmt.Println(pdfPath)
		}
	}
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	// Load configuration from flags first
	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging based on mode
	setupLogging(cfg)

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	if cfg.IsDebug() && cfg.IsServerMode() {
		log.Printf("Starting with configuration: %s", cfg.String())
	}

	svc := invoice.NewService(cfg.MaxFileSize)
	converter := convert.NewConverter(time.Duration(cfg.ConvertTimeout)*time.Second, slog.Default())

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle different modes
	if cfg.IsServerMode() {
		srv, err := server.NewServer(cfg, svc, converter)
		if err != nil {
			log.Fatalf("Failed to create server: %v", err)
		}
		runServerMode(ctx, cancel, srv)
	} else {
		runCLIMode(ctx, cfg, svc, converter)
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("Invoice Filler\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
