package speech

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// errEmptyProgram is returned for a blank speech program.
var errEmptyProgram = errors.New("speech program is empty")

// CommandEngine speaks through an espeak-ng compatible program.
type CommandEngine struct {
	// program is the speech executable.
	program string

	// mu protects current.
	mu sync.Mutex
	// current is the speaking process, nil when idle.
	current *os.Process
}

// NewCommandEngine creates an engine running the program, e.g. "espeak-ng".
func NewCommandEngine(program string) (*CommandEngine, error) {
	program = strings.TrimSpace(program)
	if program == "" {
		return nil, errEmptyProgram
	}

	return &CommandEngine{
		program: program,
	}, nil
}

// Voices runs "<program> --voices=<language>" and parses its table.
func (e *CommandEngine) Voices(ctx context.Context, language string) ([]Voice, error) {
	//nolint:gosec // The program comes from the operator's settings.
	output, err := exec.CommandContext(ctx, e.program, "--voices="+language).Output()
	if err != nil {
		return nil, fmt.Errorf("list voices: %w", err)
	}

	return parseVoices(output), nil
}

// Speak runs the program with the text on stdin and waits for it to finish.
func (e *CommandEngine) Speak(ctx context.Context, utterance Utterance) error {
	//nolint:gosec // The program comes from the operator's settings.
	cmd := exec.CommandContext(ctx, e.program, speakArgs(utterance)...)
	cmd.Stdin = strings.NewReader(utterance.Text)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start speech: %w", err)
	}

	e.mu.Lock()
	e.current = cmd.Process
	e.mu.Unlock()

	err := cmd.Wait()

	e.mu.Lock()
	e.current = nil
	e.mu.Unlock()

	if err != nil {
		return fmt.Errorf("speak: %w", err)
	}

	return nil
}

// Paused reports whether the speaking process has been stopped by the platform.
func (e *CommandEngine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil {
		return false
	}

	return processStopped(e.current.Pid)
}

// Resume continues a stopped speaking process.
func (e *CommandEngine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil {
		return nil
	}

	return continueProcess(e.current)
}

// speakArgs builds the program arguments of an utterance.
func speakArgs(utterance Utterance) []string {
	voice := utterance.Voice
	if voice == "" {
		voice = utterance.Language
	}

	if voice == "" {
		return []string{"--stdin"}
	}

	return []string{"-v", voice, "--stdin"}
}

// parseVoices reads the espeak-ng voice table:
//
//	Pty Language       Age/Gender VoiceName          File                 Other Languages
//	 5  id              --/M      Indonesian         roa/id
func parseVoices(output []byte) []Voice {
	var (
		voices  []Voice
		scanner = bufio.NewScanner(bytes.NewReader(output))
	)

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 5 || fields[0] == "Pty" {
			continue
		}

		gender := fields[2]
		if _, label, ok := strings.Cut(gender, "/"); ok {
			gender = label
		}

		if gender == "-" || gender == "--" {
			gender = ""
		}

		voices = append(voices, Voice{
			Name:     fields[3],
			Language: fields[1],
			Gender:   gender,
		})
	}

	return voices
}
