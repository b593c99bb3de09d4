/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2025-08-08 16:10:36
 * @LastEditTime: 2026-10-19 15:20:11
 * @LastEditors: 安知鱼
 */
package parser

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var stripTagsPolicy *bluemonday.Policy

func init() {
	// StripTagsPolicy 会移除所有的HTML标签
	stripTagsPolicy = bluemonday.StripTagsPolicy()
}

// StripHTML 接受一个HTML字符串，返回一个去除了所有标签的纯文本字符串。
func StripHTML(htmlContent string) string {
	return html.UnescapeString(stripTagsPolicy.Sanitize(htmlContent))
}

// Text 返回标题内部的纯文本，去掉首尾空白
func (m HeadingMatch) Text() string {
	return strings.TrimSpace(StripHTML(m.Inner))
}
