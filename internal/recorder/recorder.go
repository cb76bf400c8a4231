package recorder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/john/guildlog/internal/record"
)

// DayLayout is the date part of a day file name
const DayLayout = "2006-01-02"

// FileExt is the extension of day files
const FileExt = ".log"

// Recorder appends records to one file per guild per UTC day.
// Every call opens, appends and closes the file, so no handle outlives an event.
type Recorder struct {
	outputDir string
	now       func() time.Time
}

// New creates a new recorder
func New(outputDir string) *Recorder {
	return &Recorder{
		outputDir: outputDir,
		now:       time.Now,
	}
}

// Dir returns the output directory
func (r *Recorder) Dir() string {
	return r.outputDir
}

// FileName returns the day file name for a guild at t
func FileName(guildID string, t time.Time) string {
	return fmt.Sprintf("%s-%s%s", guildID, t.UTC().Format(DayLayout), FileExt)
}

// ParseFileName splits "<guild>-<YYYY-MM-DD>.log" into its parts
func ParseFileName(name string) (string, time.Time, error) {
	base := strings.TrimSuffix(name, FileExt)
	if base == name || len(base) < len(DayLayout)+2 {
		return "", time.Time{}, fmt.Errorf("invalid log file name: %s", name)
	}

	split := len(base) - len(DayLayout)
	if base[split-1] != '-' {
		return "", time.Time{}, fmt.Errorf("invalid log file name: %s", name)
	}
	day, err := time.Parse(DayLayout, base[split:])
	if err != nil {
		return "", time.Time{}, fmt.Errorf("parse day: %w", err)
	}
	return base[:split-1], day, nil
}

// Append writes one line for rec and returns the path it wrote to. The day
// partition and the line prefix come from the same UTC clock reading.
func (r *Recorder) Append(guildID string, rec record.Record) (string, error) {
	at := r.now().UTC()
	path := filepath.Join(r.outputDir, FileName(guildID, at))

	line, err := record.EncodeLine(at, rec)
	if err != nil {
		return path, err
	}

	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return path, fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return path, fmt.Errorf("open log file: %w", err)
	}

	// A single write keeps concurrent appends whole-line
	if _, err := file.Write(line); err != nil {
		file.Close()
		return path, fmt.Errorf("write record: %w", err)
	}
	if err := file.Close(); err != nil {
		return path, fmt.Errorf("close log file: %w", err)
	}
	return path, nil
}
