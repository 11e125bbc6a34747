package export

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/shrimpsizemoose/trekker/logger"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/shrimpsizemoose/cgpacalc/internal/app"
	"github.com/shrimpsizemoose/cgpacalc/internal/scoring"
	"github.com/shrimpsizemoose/cgpacalc/internal/store"
)

var sheetHeader = []interface{}{
	"Owner", "Level", "Session Type", "Courses", "Credits", "Kind", "Average", "Classification", "Saved At",
}

type GSheetExporter struct {
	config    *app.Config
	store     store.SessionStore
	grader    *scoring.Grader
	scheduler *gocron.Scheduler
}

// NewGSheetExporter schedules one export job per configured sheet and starts the scheduler.
func NewGSheetExporter(service *app.Service) (*GSheetExporter, error) {
	ctx := context.Background()

	e := &GSheetExporter{
		config:    service.Config,
		store:     service.Store,
		grader:    service.Grader,
		scheduler: gocron.NewScheduler(time.UTC),
	}

	for _, cfg := range service.Config.GSheet {
		svc, err := sheets.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath))
		if err != nil {
			return nil, fmt.Errorf("failed to create sheets service: %w", err)
		}

		_, err = e.scheduler.Cron(cfg.Schedule).Do(func() {
			if err := e.Export(svc, &cfg); err != nil {
				logger.Error.Printf("Export to %s failed: %v", cfg.SheetID, err)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("failed to schedule export: %w", err)
		}
	}

	e.scheduler.StartAsync()
	return e, nil
}

func (e *GSheetExporter) Stop() {
	e.scheduler.Stop()
}

func (e *GSheetExporter) Export(svc *sheets.Service, cfg *app.GSheetConfig) error {
	saved, err := e.store.ListSessions()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	timestamp := fmt.Sprintf("UPD: %s", time.Now().UTC().Format(e.config.Display.TimestampFormat))
	values := append([][]interface{}{{timestamp}}, buildRows(saved, e.grader, e.config.Display.TimestampFormat)...)

	startCell := cfg.StartCell
	if startCell == "" {
		startCell = "A1"
	}
	updateRange := fmt.Sprintf("%s!%s", cfg.SheetName, startCell)

	_, err = svc.Spreadsheets.Values.Update(cfg.SheetID, updateRange,
		&sheets.ValueRange{Values: values}).ValueInputOption("RAW").Do()
	if err != nil {
		return fmt.Errorf("failed to update sheet: %w", err)
	}

	logger.Info.Printf("Exported %d sessions to %s", len(saved), updateRange)
	return nil
}

func buildRows(saved []store.SavedSession, grader *scoring.Grader, timeFormat string) [][]interface{} {
	rows := [][]interface{}{sheetHeader}
	for _, s := range saved {
		session := s.Session
		result := grader.Evaluate(&session)
		rows = append(rows, []interface{}{
			s.Owner,
			session.Level,
			session.SessionType,
			len(session.Courses),
			result.TotalCredits,
			result.Kind,
			fmt.Sprintf("%.2f", result.Average),
			result.ClassificationLabel,
			s.UpdatedAt.Format(timeFormat),
		})
	}
	return rows
}
