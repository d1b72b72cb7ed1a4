package ffmpeg

import "strconv"

// Pipe protocol sentinels understood by ffmpeg in place of a file path.
const (
	Pipe       = "pipe:"
	PipeStdin  = "pipe:0"
	PipeStdout = "pipe:1"
)

// PipeFD returns the pipe protocol path for an arbitrary file descriptor.
func PipeFD(fd int) string {
	return Pipe + strconv.Itoa(fd)
}
