// Package docgen renders the approval document for a permit application.
// Generation runs off the request path; a failed render is logged and the
// workflow result stands.
package docgen

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

type Generator struct {
	outputDir string
	log       *zap.Logger
}

func New(outputDir string, log *zap.Logger) *Generator {
	return &Generator{outputDir: outputDir, log: log}
}

// Request schedules document generation for an approved application. It
// returns immediately; the render happens on its own goroutine.
func (g *Generator) Request(applicationID uint, outputPathHint string) {
	go g.generate(applicationID, outputPathHint)
}

func (g *Generator) generate(applicationID uint, outputPathHint string) {
	path := outputPathHint
	if path == "" {
		path = filepath.Join(g.outputDir, fmt.Sprintf("application_%d.txt", applicationID))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		g.log.Sugar().Warnw("document output dir", "application_id", applicationID, "err", err)
		return
	}

	content := fmt.Sprintf("Approval document for application %d\nGenerated at %s\n",
		applicationID, time.Now().Format(time.RFC3339))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		g.log.Sugar().Warnw("document generation failed", "application_id", applicationID, "err", err)
		return
	}
	g.log.Sugar().Infow("document generated", "application_id", applicationID, "path", path)
}
