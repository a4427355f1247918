package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/lrstanley/go-ytdlp"
	"github.com/sirupsen/logrus"
)

const (
	listTimeout      = 60 * time.Second
	progressInterval = 500 * time.Millisecond
	outputTemplate   = "%(title)s.%(ext)s"
)

// YTDLPService implements Service on top of the yt-dlp tool via
// lrstanley/go-ytdlp.
type YTDLPService struct {
	// Overwrite makes transfers replace files already present in the
	// destination directory.
	Overwrite bool
}

// NewYTDLPService returns a Service backed by yt-dlp.
func NewYTDLPService(overwrite bool) *YTDLPService {
	return &YTDLPService{Overwrite: overwrite}
}

// Install provisions the yt-dlp binary if it is not already available.
func Install(ctx context.Context) {
	ytdlp.MustInstall(ctx, nil)
}

// mediaPayload mirrors the subset of the yt-dlp single-JSON dump we
// consume.
type mediaPayload struct {
	Title   string          `json:"title"`
	Formats []formatPayload `json:"formats"`
}

type formatPayload struct {
	FormatID       string  `json:"format_id"`
	Ext            string  `json:"ext"`
	Height         int     `json:"height"`
	FPS            float64 `json:"fps"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	Filesize       float64 `json:"filesize"`
	FilesizeApprox float64 `json:"filesize_approx"`
}

// combined reports whether the format carries both video and audio tracks.
func (f formatPayload) combined() bool {
	return f.VCodec != "" && f.VCodec != "none" && f.ACodec != "" && f.ACodec != "none"
}

func (f formatPayload) sizeBytes() int64 {
	if f.Filesize > 0 {
		return int64(f.Filesize)
	}
	return int64(f.FilesizeApprox)
}

// ListFormats dumps the media metadata as JSON and keeps only combined
// audio+video encodings, sorted by descending height.
func (s *YTDLPService) ListFormats(ctx context.Context, locator string) (*MediaInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	dl := ytdlp.New().
		Quiet().
		NoWarnings().
		SkipDownload().
		DumpSingleJSON()

	res, err := dl.Run(ctx, locator)
	if err != nil {
		return nil, fmt.Errorf("enumerating formats for %s: %w", locator, err)
	}

	var payload mediaPayload
	if err := json.Unmarshal([]byte(res.Stdout), &payload); err != nil {
		return nil, fmt.Errorf("parsing format metadata: %w", err)
	}

	formats := make([]Format, 0, len(payload.Formats))
	for _, f := range payload.Formats {
		if !f.combined() {
			continue
		}
		formats = append(formats, Format{
			ID:        f.FormatID,
			Height:    f.Height,
			Ext:       f.Ext,
			SizeBytes: f.sizeBytes(),
			FPS:       f.FPS,
		})
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("%s: %w", locator, ErrNoFormats)
	}
	SortByHeight(formats)

	logrus.Debugf("resolved %d combined formats for %s", len(formats), locator)
	return &MediaInfo{Title: payload.Title, Formats: formats}, nil
}

// Transfer downloads the selected encoding. Progress callbacks from yt-dlp
// are translated into ProgressEvents; the finished event is emitted once
// after the tool exits successfully.
func (s *YTDLPService) Transfer(ctx context.Context, locator, formatID, destDir string, onProgress ProgressFunc) error {
	source := filepath.Base(locator)

	dl := ytdlp.New().
		Quiet().
		NoWarnings().
		RestrictFilenames().
		Format(formatID).
		Output(filepath.Join(destDir, outputTemplate))
	if s.Overwrite {
		dl = dl.ForceOverwrites()
	}

	if onProgress != nil {
		dl.ProgressFunc(progressInterval, func(update ytdlp.ProgressUpdate) {
			if update.Info != nil && update.Info.Title != nil && *update.Info.Title != "" {
				source = *update.Info.Title
			}
			onProgress(ProgressEvent{
				Source:  source,
				Percent: percentOf(float64(update.DownloadedBytes), float64(update.TotalBytes)),
				Speed:   speedOf(float64(update.DownloadedBytes), update.Started),
			})
		})
	}

	if _, err := dl.Run(ctx, locator); err != nil {
		return fmt.Errorf("transferring %s (format %s): %w", locator, formatID, err)
	}
	if onProgress != nil {
		onProgress(ProgressEvent{Source: source, Finished: true})
	}
	return nil
}

func percentOf(downloaded, total float64) string {
	if total <= 0 {
		return "?"
	}
	return fmt.Sprintf("%.1f%%", downloaded/total*100)
}

func speedOf(downloaded float64, started time.Time) string {
	if started.IsZero() || downloaded <= 0 {
		return "?"
	}
	elapsed := time.Since(started).Seconds()
	if elapsed <= 0 {
		return "?"
	}
	return humanize.IBytes(uint64(downloaded/elapsed)) + "/s"
}
