package tracing

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestChildSpansNest(t *testing.T) {
	ctx, root := StartSpan(context.Background(), "search", "req-1")
	rankCtx, rank := StartChildSpan(ctx, "rank")
	_, postings := StartChildSpan(rankCtx, "postings")
	postings.End()
	rank.SetAttr("terms", 2)
	rank.End()
	_, snippets := StartChildSpan(ctx, "snippets")
	snippets.End()
	root.End()

	children := root.Children()
	if len(children) != 2 || children[0].Name != "rank" || children[1].Name != "snippets" {
		t.Fatalf("children = %+v", children)
	}
	if children[0].TraceID != "req-1" || len(children[0].Children()) != 1 {
		t.Errorf("rank span = %+v", children[0])
	}
	if FromContext(rankCtx) != rank {
		t.Error("context does not carry the child span")
	}
}

func TestDetachedChild(t *testing.T) {
	_, s := StartChildSpan(context.Background(), "orphan")
	s.End()
	if s.TraceID != "" {
		t.Errorf("TraceID = %q", s.TraceID)
	}
}

func TestLogOnlyAtDebug(t *testing.T) {
	ctx, root := StartSpan(context.Background(), "search", "req-2")
	_, child := StartChildSpan(ctx, "rank")
	child.End()
	root.End()

	var buf bytes.Buffer
	root.Log(ctx, slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	if buf.Len() != 0 {
		t.Errorf("logged at info level: %s", buf.String())
	}

	root.Log(ctx, slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	out := buf.String()
	if strings.Count(out, "msg=span") != 2 || !strings.Contains(out, "span=rank") {
		t.Errorf("log output = %s", out)
	}
}
