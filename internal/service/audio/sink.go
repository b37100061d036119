package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

// SampleRate is the PCM sample rate in Hz.
const SampleRate = 44100

// bytesPerSample is the size of a mono signed 16-bit sample.
const bytesPerSample = 2

// errEmptyCommand is returned for a blank player command line.
var errEmptyCommand = errors.New("player command is empty")

// Sink opens PCM output streams. Each stream is closed by its writer.
type Sink interface {
	Open(ctx context.Context) (io.WriteCloser, error)
}

// CommandSink pipes every stream into a new player process.
type CommandSink struct {
	// name is the player executable.
	name string
	// args are the player arguments.
	args []string
}

// NewCommandSink parses a whitespace separated player command line,
// e.g. "aplay -q -t raw -f S16_LE -r 44100 -c 1".
func NewCommandSink(commandLine string) (*CommandSink, error) {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil, errEmptyCommand
	}

	return &CommandSink{
		name: fields[0],
		args: fields[1:],
	}, nil
}

// Open starts the player and returns its stdin.
func (s *CommandSink) Open(ctx context.Context) (io.WriteCloser, error) {
	//nolint:gosec // The player command comes from the operator's settings.
	cmd := exec.CommandContext(ctx, s.name, s.args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("open player stdin: %w", err)
	}

	if err = cmd.Start(); err != nil {
		return nil, fmt.Errorf("start player %s: %w", s.name, err)
	}

	return &playerStream{
		stdin: stdin,
		cmd:   cmd,
	}, nil
}

// playerStream closes the player stdin and waits for the player to drain it.
type playerStream struct {
	// stdin receives PCM.
	stdin io.WriteCloser
	// cmd is the running player.
	cmd *exec.Cmd
}

// Write forwards PCM to the player.
func (p *playerStream) Write(data []byte) (int, error) {
	return p.stdin.Write(data)
}

// Close ends the stream and waits for the player to exit.
func (p *playerStream) Close() error {
	closeErr := p.stdin.Close()

	if err := p.cmd.Wait(); err != nil {
		return fmt.Errorf("wait for player: %w", err)
	}

	return closeErr
}

// DiscardSink drops audio at playback speed, for headless hosts.
type DiscardSink struct{}

// Open returns a stream pacing writes like a real device would.
func (DiscardSink) Open(context.Context) (io.WriteCloser, error) {
	return pacedDiscard{}, nil
}

// pacedDiscard sleeps for the duration of every written chunk.
type pacedDiscard struct{}

// Write sleeps for the playback time of data.
func (pacedDiscard) Write(data []byte) (int, error) {
	time.Sleep(Duration(len(data) / bytesPerSample))

	return len(data), nil
}

// Close does nothing.
func (pacedDiscard) Close() error {
	return nil
}

// Duration returns the playback time of the given number of samples.
func Duration(samples int) time.Duration {
	return time.Duration(samples) * time.Second / SampleRate
}

// Samples returns the number of samples played during d.
func Samples(d time.Duration) int {
	return int(d * SampleRate / time.Second)
}
