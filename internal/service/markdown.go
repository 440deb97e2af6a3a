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
	notesMarkdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
	notesSanitizer = bluemonday.UGCPolicy()
)

// RenderNotesHTML 把备注的 Markdown 渲染为净化后的 HTML，
// 用于模板与训练记录详情里的 notes_html 字段
func RenderNotesHTML(notes string) string {
	trimmed := strings.TrimSpace(notes)
	if trimmed == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := notesMarkdown.Convert([]byte(trimmed), &buf); err != nil {
		return ""
	}
	return notesSanitizer.Sanitize(buf.String())
}
