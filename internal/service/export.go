package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/purrytify/soundcapsule/internal/clock"
)

// reportMIMEType is the content type handed to the sink with every report.
const reportMIMEType = "text/csv"

// ReportSink accepts a generated report and puts it somewhere useful: a
// file, a share sheet, an object store. The exporter owns only the content.
type ReportSink interface {
	Save(ctx context.Context, filename, mimeType string, content []byte) (location string, err error)
}

// ExportService renders a user's month into the Sound Capsule CSV report.
type ExportService struct {
	query  *QueryService
	sink   ReportSink
	clock  clock.Clock
	logger *slog.Logger
}

// NewExportService creates a new export service.
func NewExportService(query *QueryService, sink ReportSink, clk clock.Clock, logger *slog.Logger) *ExportService {
	return &ExportService{
		query:  query,
		sink:   sink,
		clock:  clk,
		logger: logger,
	}
}

// BuildReport renders the CSV report for a (user, month). The layout is a
// title line, a SUMMARY block of key,value lines, TOP ARTISTS and TOP SONGS
// rankings capped at ten rows, and the active day streaks.
func (s *ExportService) BuildReport(ctx context.Context, userID, month string) string {
	analytics := s.query.GetMonthlyAnalytics(ctx, userID, month)
	artists := s.query.GetTopArtists(ctx, userID, month, defaultTopLimit)
	songs := s.query.GetTopSongs(ctx, userID, month, defaultTopLimit)
	streaks := s.query.GetActiveStreaks(ctx, userID)

	var b strings.Builder

	fmt.Fprintf(&b, "Purrytify Sound Capsule - %s\n", month)
	b.WriteString("\n")

	b.WriteString("SUMMARY\n")
	fmt.Fprintf(&b, "Month,%s\n", csvField(month))
	fmt.Fprintf(&b, "Total Listening Time,%s\n", csvField(FormatListeningTime(analytics.TotalListeningTimeMs)))
	fmt.Fprintf(&b, "Unique Songs,%d\n", analytics.UniqueSongsCount)
	fmt.Fprintf(&b, "Unique Artists,%d\n", analytics.UniqueArtistsCount)
	b.WriteString("\n")

	b.WriteString("TOP ARTISTS\n")
	b.WriteString("Rank,Artist,Listening Time,Play Count\n")
	for i, artist := range artists {
		fmt.Fprintf(&b, "%d,%s,%s,%d\n",
			i+1,
			csvField(artist.ArtistName),
			csvField(FormatListeningTime(artist.TotalDurationMs)),
			artist.PlayCount)
	}
	b.WriteString("\n")

	b.WriteString("TOP SONGS\n")
	b.WriteString("Rank,Song,Artist,Listening Time,Play Count\n")
	for i, song := range songs {
		fmt.Fprintf(&b, "%d,%s,%s,%s,%d\n",
			i+1,
			csvField(song.SongTitle),
			csvField(song.ArtistName),
			csvField(FormatListeningTime(song.TotalDurationMs)),
			song.PlayCount)
	}
	b.WriteString("\n")

	b.WriteString("DAY STREAKS (2+ DAYS)\n")
	b.WriteString("Song,Artist,Streak Days,Last Played\n")
	for _, streak := range streaks {
		fmt.Fprintf(&b, "%s,%s,%d,%s\n",
			csvField(streak.SongTitle),
			csvField(streak.ArtistName),
			streak.CurrentStreak,
			csvField(streak.LastPlayedDate))
	}

	return b.String()
}

// Export renders the report and hands it to the sink.
// Returns the sink's location handle.
func (s *ExportService) Export(ctx context.Context, userID, month string) (string, error) {
	report := s.BuildReport(ctx, userID, month)
	filename := ReportFilename(userID, month)

	location, err := s.sink.Save(ctx, filename, reportMIMEType, []byte(report))
	if err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}

	s.logger.Info("exported sound capsule report",
		"user_id", userID,
		"month", month,
		"location", location)

	return location, nil
}

// ReportFilename is the suggested filename for a (user, month) report.
func ReportFilename(userID, month string) string {
	return fmt.Sprintf("sound_capsule_%s_%s.csv", userID, month)
}

// csvField wraps a value in double quotes when it contains a comma or a
// quote, doubling embedded quotes.
func csvField(v string) string {
	if !strings.ContainsAny(v, `,"`) {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// FileSink writes reports into a directory on the local filesystem.
type FileSink struct {
	dir string
}

// NewFileSink creates a sink rooted at dir.
func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

// Save writes the report to dir/filename and returns the full path.
func (s *FileSink) Save(_ context.Context, filename, _ string, content []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	path := filepath.Join(s.dir, filename)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
