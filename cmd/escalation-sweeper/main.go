package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ai-governance-api/config"
	"ai-governance-api/services"
)

// The sweeper advances escalation levels for open reviews on a fixed cadence.
// The decision it applies is idempotent and can jump multiple tiers, so a
// missed run is caught up by the next one.
func main() {
	once := flag.Bool("once", false, "run a single sweep and exit")
	interval := flag.Duration("interval", 15*time.Minute, "time between sweeps")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logFile, _ := config.InitLogging()
	if logFile != nil {
		defer logFile.Close()
	}

	config.InitDB()

	svc := services.NewEscalationService(config.DB)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runSweep(ctx, svc)
	if *once {
		return
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Escalation sweeper shutting down")
			return
		case <-ticker.C:
			runSweep(ctx, svc)
		}
	}
}

func runSweep(ctx context.Context, svc *services.EscalationService) {
	summary, err := svc.Sweep(ctx, time.Now())
	if err != nil {
		log.Printf("Escalation sweep failed: %v", err)
		return
	}
	log.Printf("Escalation sweep complete: checked=%d escalated=%d failed=%d",
		summary.Checked, summary.Escalated, summary.Failed)
}
