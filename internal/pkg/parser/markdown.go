/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2025-08-08 15:57:23
 * @LastEditTime: 2026-10-19 15:31:47
 * @LastEditors: 安知鱼
 */
// internal/pkg/parser/markdown.go
package parser

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

var mdParser goldmark.Markdown
var policy *bluemonday.Policy

var headingElements = []string{"h1", "h2", "h3", "h4", "h5", "h6"}

func init() {
	mdParser = goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,         // 支持 GitHub Flavored Markdown
			extension.Footnote,    // 支持脚注
			extension.Typographer, // 美化排版
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(), // 自动为标题生成 ID
			parser.WithAttribute(),     // 支持 {#id .class} 形式的标题属性
		),
		goldmark.WithRendererOptions(
			html.WithXHTML(),  // 渲染为 XHTML
			html.WithUnsafe(), // 信任所有原始 HTML，后续由 bluemonday 清理
		),
	)

	// UGCPolicy 已允许 strong/b/em 等内联标签，这里补充标题上的属性
	policy = bluemonday.UGCPolicy()
	policy.AllowAttrs("id").OnElements(headingElements...)
	policy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements(append(headingElements, "code", "span")...)
	policy.AllowAttrs("style").OnElements(append(headingElements, "strong", "b", "span")...)
	policy.AllowAttrs("data-line").OnElements(headingElements...)
	policy.AllowElements("table", "thead", "tbody", "tr", "th", "td")
}

// MarkdownToHTML 将 Markdown 字符串转换为安全的 HTML 字符串
func MarkdownToHTML(mdContent string) (string, error) {
	var buf bytes.Buffer
	if err := mdParser.Convert([]byte(mdContent), &buf); err != nil {
		return "", err
	}
	// 使用 bluemonday 清理 HTML，防止 XSS
	return policy.Sanitize(buf.String()), nil
}
