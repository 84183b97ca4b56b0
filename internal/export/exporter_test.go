package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"podjoin/internal/episode"
	"podjoin/internal/ffmpeg"
	"podjoin/internal/logging"
	"podjoin/internal/normalize"
	"podjoin/internal/services"
)

type stubExecutor struct {
	calls [][]string
	err   error
}

func (s *stubExecutor) Run(_ context.Context, _ string, args []string) (ffmpeg.Result, error) {
	s.calls = append(s.calls, append([]string(nil), args...))
	if s.err != nil {
		return ffmpeg.Result{Stderr: "Error while filtering"}, s.err
	}
	// The engine writes the staged file named by the final argument.
	staged := args[len(args)-1]
	if err := os.WriteFile(staged, []byte("mp3"), 0o644); err != nil {
		return ffmpeg.Result{}, err
	}
	return ffmpeg.Result{}, nil
}

func segmentFixtures(t *testing.T) map[episode.Role]normalize.Segment {
	t.Helper()
	dir := t.TempDir()
	segments := make(map[episode.Role]normalize.Segment, len(episode.Roles()))
	for _, role := range episode.Roles() {
		path := filepath.Join(dir, string(role)+"_norm.wav")
		if err := os.WriteFile(path, []byte("wav"), 0o644); err != nil {
			t.Fatal(err)
		}
		segments[role] = normalize.Segment{Role: role, Path: path}
	}
	return segments
}

func TestExportBuildsConcatInvocation(t *testing.T) {
	exec := &stubExecutor{}
	client, err := ffmpeg.New("ffmpeg", ffmpeg.WithExecutor(exec))
	if err != nil {
		t.Fatal(err)
	}
	scratch := t.TempDir()
	dest := filepath.Join(t.TempDir(), "Kapitel 7.mp3")
	exporter := New(client, scratch, 2, logging.NewNop())

	segments := segmentFixtures(t)
	if err := exporter.Export(context.Background(), segments, episode.ExportOrder(), dest); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(exec.calls) != 1 {
		t.Fatalf("expected a single engine call, got %d", len(exec.calls))
	}

	args := exec.calls[0]
	var inputs []string
	for i, arg := range args {
		if arg == "-i" {
			inputs = append(inputs, args[i+1])
		}
	}
	order := episode.ExportOrder()
	if len(inputs) != len(order) {
		t.Fatalf("expected %d inputs, got %d", len(order), len(inputs))
	}
	for i, role := range order {
		if inputs[i] != segments[role].Path {
			t.Errorf("input %d: expected %s segment %s, got %s", i, role, segments[role].Path, inputs[i])
		}
	}

	joined := strings.Join(args, " ")
	wantFilter := "[0:a][1:a][2:a][3:a][4:a][5:a][6:a][7:a]concat=n=8:v=0:a=1[out]"
	if !strings.Contains(joined, wantFilter) {
		t.Errorf("missing concat filter %q in %q", wantFilter, joined)
	}
	for _, want := range []string{"-map [out]", "-c:a libmp3lame", "-q:a 2", "-hide_banner -nostdin -y"} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected %q in %q", want, joined)
		}
	}

	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("destination not published: %v", err)
	}
	entries, err := os.ReadDir(scratch)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("staged file left in scratch: %v", entries)
	}
}

func TestExportFailureLeavesNoDestination(t *testing.T) {
	exec := &stubExecutor{err: errors.New("exit status 1")}
	client, err := ffmpeg.New("ffmpeg", ffmpeg.WithExecutor(exec))
	if err != nil {
		t.Fatal(err)
	}
	dest := filepath.Join(t.TempDir(), "Kapitel 3.mp3")
	exporter := New(client, t.TempDir(), 2, logging.NewNop())

	exportErr := exporter.Export(context.Background(), segmentFixtures(t), episode.ExportOrder(), dest)
	if exportErr == nil {
		t.Fatal("expected export failure")
	}
	if !errors.Is(exportErr, services.ErrExport) {
		t.Fatalf("expected export marker, got %v", exportErr)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Fatalf("destination must not exist after failure: %v", statErr)
	}
}

func TestExportMissingSegment(t *testing.T) {
	exec := &stubExecutor{}
	client, err := ffmpeg.New("ffmpeg", ffmpeg.WithExecutor(exec))
	if err != nil {
		t.Fatal(err)
	}
	exporter := New(client, t.TempDir(), 2, logging.NewNop())

	segments := segmentFixtures(t)
	delete(segments, episode.RoleOutro)
	exportErr := exporter.Export(context.Background(), segments, episode.ExportOrder(), filepath.Join(t.TempDir(), "Kapitel 1.mp3"))
	if !errors.Is(exportErr, services.ErrExport) {
		t.Fatalf("expected export marker, got %v", exportErr)
	}
	if len(exec.calls) != 0 {
		t.Fatalf("expected no engine calls, got %d", len(exec.calls))
	}
}
