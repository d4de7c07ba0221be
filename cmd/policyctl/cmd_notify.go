package main

import (
	"fmt"

	"policylens-be/internal/config"
	"policylens-be/internal/pkg/logger"
	"policylens-be/pkg/events"
	pktNats "policylens-be/pkg/nats"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var notifyFlags struct {
	path string
}

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Publish DOCUMENT_CHANGED so running servers reload a course",
	RunE:  runNotify,
}

func init() {
	notifyCmd.Flags().StringVar(&notifyFlags.path, "path", "", "Changed file path (used when --course is empty)")
}

func runNotify(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	if cfg.App.NatsURL == "" {
		return fmt.Errorf("NATS_URL is not set")
	}
	if rootFlags.course == "" && notifyFlags.path == "" {
		return fmt.Errorf("either --course or --path is required")
	}

	pub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		return err
	}
	defer pub.Close()

	dc := events.DocumentChanged{Course: rootFlags.course, Path: notifyFlags.path, Origin: events.OriginCLI}
	if err := pub.Publish(cmd.Context(), events.NewDocumentChangedEvent(dc)); err != nil {
		return err
	}

	logger.NewIsolatedLogger("logs/policyctl.log").Info("NOTIFY", "Published document change", map[string]interface{}{
		"course": dc.Course,
		"path":   dc.Path,
	})
	color.Green("Published %s for %s%s", events.TypeDocumentChanged, dc.Course, dc.Path)
	return nil
}
