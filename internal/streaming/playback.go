package streaming

import (
	"errors"
	"net/http"
	"os"
	"time"

	"video-platform/internal/filesystem"
	"video-platform/internal/logging"
	"video-platform/internal/mediatypes"
	"video-platform/internal/metrics"
)

var log = logging.For("streaming")

// Config bounds one playback response.
type Config struct {
	// WriteTimeout is how long a single write may block. The deadline moves
	// forward after every successful write, so slow but live clients are kept.
	WriteTimeout time.Duration
	// MaxDuration caps the whole response; 0 means no cap.
	MaxDuration time.Duration
}

// DefaultConfig keeps stalled clients from pinning a connection for long.
func DefaultConfig() Config {
	return Config{WriteTimeout: 30 * time.Second}
}

// deadlineWriter extends the connection write deadline before each write.
type deadlineWriter struct {
	http.ResponseWriter
	rc       *http.ResponseController
	timeout  time.Duration
	hardStop time.Time
	written  int64
}

func (d *deadlineWriter) Write(p []byte) (int, error) {
	if d.timeout > 0 {
		deadline := time.Now().Add(d.timeout)
		if !d.hardStop.IsZero() && deadline.After(d.hardStop) {
			deadline = d.hardStop
		}
		// recorders and some wrappers cannot set deadlines
		if err := d.rc.SetWriteDeadline(deadline); err != nil && !errors.Is(err, http.ErrNotSupported) {
			return 0, err
		}
	}
	n, err := d.ResponseWriter.Write(p)
	d.written += int64(n)
	return n, err
}

func (d *deadlineWriter) Unwrap() http.ResponseWriter {
	return d.ResponseWriter
}

// ServeFile streams the file at path with Range and conditional request
// support. name decides the Content-Type. A missing file answers 404.
func ServeFile(w http.ResponseWriter, r *http.Request, path, name string, cfg Config) {
	start := time.Now()

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.Error(w, "video file not found", http.StatusNotFound)
			return
		}
		log.Error("stat %s: %v", path, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		log.Error("open %s: %v", path, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	dw := &deadlineWriter{
		ResponseWriter: w,
		rc:             http.NewResponseController(w),
		timeout:        cfg.WriteTimeout,
	}
	if cfg.MaxDuration > 0 {
		dw.hardStop = start.Add(cfg.MaxDuration)
	}

	if ct := mediatypes.GetMimeType(mediatypes.Ext(name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Accept-Ranges", "bytes")
	http.ServeContent(dw, r, name, info.ModTime(), f)

	metrics.PlaybackBytesTotal.Add(float64(dw.written))
	log.Debug("Served %s: %d bytes in %v", name, dw.written, time.Since(start))
}
