package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academy-api/internal/ledger"
	"github.com/noah-isme/academy-api/internal/repository"
	"github.com/noah-isme/academy-api/internal/service"
	"github.com/noah-isme/academy-api/pkg/config"
	"github.com/noah-isme/academy-api/pkg/database"
	"github.com/noah-isme/academy-api/pkg/logger"
)

type targetsFile struct {
	Targets []service.ReconcileTarget `json:"targets"`
}

// ledger-reconcile compares the local database with the ledger and exits non-zero when a
// critical target differs.
func main() {
	var (
		targetsPath string
		students    string
		timeout     time.Duration
	)

	flag.StringVar(&targetsPath, "targets", "", "Path to a JSON targets file")
	flag.StringVar(&students, "students", "", "Comma separated national IDs whose active enrollments are compared")
	flag.DurationVar(&timeout, "timeout", 2*time.Minute, "Overall run timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	targets, err := loadTargets(targetsPath, students)
	if err != nil {
		logr.Fatal("failed to load targets", zap.Error(err))
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		logr.Fatal("failed to configure database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client := ledger.NewClient(ledger.Config{
		URL:          cfg.Ledger.URL,
		Token:        cfg.Ledger.Token,
		Logger:       logr,
		QueryTimeout: cfg.Ledger.ReadTimeout,
	})
	svc := service.NewReconcileService(
		repository.NewScheduleRepository(db),
		repository.NewEnrollmentRepository(db),
		client,
		logr,
	)

	results := svc.Run(ctx, targets)
	printReport(results)

	breaking, optional := 0, 0
	for _, res := range results {
		if res.Match() {
			continue
		}
		if res.Target.Critical {
			breaking++
		} else {
			optional++
		}
	}
	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optional)
	if breaking > 0 {
		os.Exit(1)
	}
}

// loadTargets reads the targets file when given, always checks schedules and adds one
// enrollments target per listed student.
func loadTargets(path, students string) ([]service.ReconcileTarget, error) {
	var targets []service.ReconcileTarget
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var file targetsFile
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, err
		}
		targets = file.Targets
	}

	hasSchedules := false
	for _, t := range targets {
		if t.Kind == service.ReconcileSchedules {
			hasSchedules = true
		}
	}
	if !hasSchedules {
		targets = append([]service.ReconcileTarget{{Kind: service.ReconcileSchedules, Critical: true}}, targets...)
	}

	for _, nid := range strings.Split(students, ",") {
		if nid = strings.TrimSpace(nid); nid != "" {
			targets = append(targets, service.ReconcileTarget{Kind: service.ReconcileEnrollments, NationalID: nid})
		}
	}
	return targets, nil
}

func printReport(results []service.ReconcileResult) {
	fmt.Println("Ledger Reconciliation Report")
	fmt.Println("============================")
	for _, res := range results {
		status := "OK"
		if res.Err != nil {
			status = "ERROR"
		} else if !res.Match() {
			status = "DIFF"
		}
		label := res.Target.Kind
		if res.Target.NationalID != "" {
			label += " " + res.Target.NationalID
		}
		fmt.Printf("[%s] %s\n", status, label)
		fmt.Printf("  Local: %d rows (%s)\n", res.LocalCount, res.LocalDuration)
		fmt.Printf("  Ledger: %d rows (%s)\n", res.LedgerCount, res.LedgerDuration)
		if res.Err != nil {
			fmt.Printf("  Error: %v\n", res.Err)
			continue
		}
		for _, key := range res.OnlyLocal {
			fmt.Printf("  only local: %s\n", key)
		}
		for _, key := range res.OnlyLedger {
			fmt.Printf("  only ledger: %s\n", key)
		}
		for _, diff := range res.Mismatched {
			fmt.Printf("  mismatch: %s\n", diff)
		}
	}
}
