// Package testsupport lets a test binary stand in for ffmpeg and ffprobe.
//
// A package opts in by calling RunIfFakeTool from its TestMain; tests then
// point the tool paths at the binary returned by FakeTools. Child processes
// inherit the FAKE_TOOL_* environment and behave like the real executables
// closely enough to exercise argument handling, output files and failures.
package testsupport

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"
)

const (
	envFakeTool     = "FAKE_TOOL_ACTIVE"
	envFakeMode     = "FAKE_TOOL_MODE"
	envFakeDuration = "FAKE_TOOL_DURATION"
)

// Modes for FakeTools.
const (
	ModeOK      = ""
	ModeFail    = "fail"
	ModeHang    = "hang"
	ModeBadJSON = "badjson"
)

// RunIfFakeTool turns the current process into the fake tool and exits when
// it was started by FakeTools. It returns immediately otherwise.
func RunIfFakeTool() {
	if os.Getenv(envFakeTool) != "1" {
		return
	}
	os.Exit(fakeTool(os.Args[1:]))
}

// FakeTools configures child processes to act as the fake tool in mode and
// returns the executable to use as both ffmpeg and ffprobe.
func FakeTools(t testing.TB, mode string) string {
	t.Helper()
	t.Setenv(envFakeTool, "1")
	t.Setenv(envFakeMode, mode)
	exe, err := os.Executable()
	if err != nil {
		t.Fatalf("locate test executable: %v", err)
	}
	return exe
}

// SetProbeDuration changes the duration the fake ffprobe reports.
func SetProbeDuration(t testing.TB, seconds string) {
	t.Helper()
	t.Setenv(envFakeDuration, seconds)
}

func fakeTool(args []string) int {
	mode := os.Getenv(envFakeMode)
	if contains(args, "-version") {
		fmt.Println("ffmpeg version 6.1-fake Copyright (c) 2000-2023 the FFmpeg developers")
		return 0
	}
	switch mode {
	case ModeHang:
		time.Sleep(time.Minute)
		return 0
	case ModeFail:
		fmt.Fprintln(os.Stderr, "Invalid data found when processing input")
		return 1
	}
	if contains(args, "-show_format") {
		return fakeProbe(args, mode)
	}
	return fakeFfmpeg(args)
}

func fakeProbe(args []string, mode string) int {
	path := args[len(args)-1]
	info, err := os.Stat(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: No such file or directory\n", path)
		return 1
	}
	if mode == ModeBadJSON {
		fmt.Println("this is not json")
		return 0
	}
	duration := os.Getenv(envFakeDuration)
	if duration == "" {
		duration = "12.500000"
	}
	out := map[string]any{
		"streams": []map[string]any{
			{"codec_type": "video", "codec_name": "h264", "width": 1280, "height": 720},
			{"codec_type": "audio", "codec_name": "aac"},
		},
		"format": map[string]any{
			"filename":    path,
			"duration":    duration,
			"size":        fmt.Sprintf("%d", info.Size()),
			"format_name": "mov,mp4,m4a,3gp,3g2,mj2",
		},
	}
	if err := json.NewEncoder(os.Stdout).Encode(out); err != nil {
		return 1
	}
	return 0
}

func fakeFfmpeg(args []string) int {
	if len(args) < 3 {
		fmt.Fprintln(os.Stderr, "At least one output file must be specified")
		return 1
	}
	input := valueAfter(args, "-i")
	data, err := os.ReadFile(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: No such file or directory\n", input)
		return 1
	}

	var subtitles []byte
	if filter := valueAfter(args, "-vf"); strings.HasPrefix(filter, "subtitles=") {
		srt := strings.Trim(strings.TrimPrefix(filter, "subtitles="), "'")
		subtitles, err = os.ReadFile(srt)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to open %s\n", srt)
			return 1
		}
	}

	output := args[len(args)-1]
	var b strings.Builder
	b.Write(data)
	b.WriteString("\n--fake-ffmpeg " + strings.Join(args[:len(args)-1], " ") + "\n")
	b.Write(subtitles)
	if err := os.WriteFile(output, []byte(b.String()), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func contains(args []string, want string) bool {
	for _, arg := range args {
		if arg == want {
			return true
		}
	}
	return false
}

func valueAfter(args []string, flag string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}
