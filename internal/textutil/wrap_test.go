package textutil

import (
	"strings"
	"testing"
)

func TestDisplayWidth(t *testing.T) {
	if got := DisplayWidth("abc"); got != 3 {
		t.Fatalf("DisplayWidth(abc) = %d", got)
	}
	if got := DisplayWidth("图像生成"); got != 8 {
		t.Fatalf("DisplayWidth(CJK) = %d", got)
	}
	if got := DisplayWidth("a图b"); got != 4 {
		t.Fatalf("DisplayWidth(mixed) = %d", got)
	}
}

func TestWrapToWidthCJK(t *testing.T) {
	lines := WrapToWidth("本研究提出了一种新的注意力机制", 10)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %v", len(lines), lines)
	}
	for _, line := range lines {
		if w := DisplayWidth(line); w > 10 {
			t.Fatalf("line %q exceeds width: %d", line, w)
		}
	}
	if strings.Join(lines, "") != "本研究提出了一种新的注意力机制" {
		t.Fatal("wrapping lost content")
	}
}

func TestWrapToWidthKeepsNewlines(t *testing.T) {
	lines := WrapToWidth("one\ntwo", 20)
	if len(lines) != 2 || lines[0] != "one" || lines[1] != "two" {
		t.Fatalf("unexpected lines: %v", lines)
	}
}
