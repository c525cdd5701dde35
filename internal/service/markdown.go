package service

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

// RenderDescriptionHTML 将习惯描述的 Markdown 渲染为可安全嵌入的 HTML。
// 渲染失败时退回转义后的纯文本，描述展示不应因格式问题而报错。
func RenderDescriptionHTML(markdown string) string {
	trimmed := strings.TrimSpace(markdown)
	if trimmed == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(trimmed), &buf); err != nil {
		return sanitizer.Sanitize(trimmed)
	}

	return strings.TrimSpace(sanitizer.Sanitize(buf.String()))
}
