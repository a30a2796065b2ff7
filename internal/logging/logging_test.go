package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestInitJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Output: &buf})
	t.Cleanup(func() { Init(Config{}) })

	Info().Int("movie_id", 42).Msg("[RatingService] 评分已更新")
	Debug().Msg("should be filtered")

	out := buf.String()
	if !strings.Contains(out, `"movie_id":42`) {
		t.Fatalf("expected structured field in output, got %q", out)
	}
	if strings.Contains(out, "should be filtered") {
		t.Fatalf("debug line leaked at info level: %q", out)
	}
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	if got := parseLevel("verbose"); got.String() != "info" {
		t.Fatalf("expected info, got %s", got)
	}
	if got := parseLevel("WARN"); got.String() != "warn" {
		t.Fatalf("expected warn, got %s", got)
	}
}
