package service

import (
	"strings"
	"testing"
)

func TestRenderDescriptionHTML(t *testing.T) {
	html := RenderDescriptionHTML("**每天**最多三次甜食")
	if !strings.Contains(html, "<strong>每天</strong>") {
		t.Fatalf("expected bold markup, got %s", html)
	}
}

func TestRenderDescriptionHTMLSanitizesScripts(t *testing.T) {
	html := RenderDescriptionHTML("hello <script>alert(1)</script> world")
	if strings.Contains(html, "<script>") {
		t.Fatalf("expected script tags to be stripped, got %s", html)
	}
	if !strings.Contains(html, "hello") {
		t.Fatalf("expected surrounding text to survive, got %s", html)
	}
}

func TestRenderDescriptionHTMLEmpty(t *testing.T) {
	if got := RenderDescriptionHTML("   "); got != "" {
		t.Fatalf("expected empty output for blank description, got %q", got)
	}
}
