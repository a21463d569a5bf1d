// Package transcoder normalizes uploaded videos using FFmpeg.
//
// Every upload is converted once into an H.264/AAC MP4 scaled to 480 lines
// at 30 fps with faststart enabled. The command line is built with ffmpeg-go
// and executed under a context so that shutdown can stop running jobs. The
// result is probed afterwards; an output without the expected video stream
// counts as a failure.
//
// FFmpeg and ffprobe must be installed and available in the system PATH.
package transcoder
