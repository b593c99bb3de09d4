/*
 * @Description: 移除 h1-h6 标题内部的 <strong>/<b> 标签
 * @Author: 安知鱼
 * @Date: 2026-10-19 10:12:40
 * @LastEditTime: 2026-10-19 16:48:03
 * @LastEditors: 安知鱼
 */
package parser

import (
	"strings"
)

// emphasisWindow 判断一个 '<' 是否为加粗标签最多需要的字节数：len("</strong") + 1
const emphasisWindow = 9

// HeadingMatch 表示片段中一个完整的 <hN ...>...</hN> 区域
type HeadingMatch struct {
	Level      int    // 1-6
	Attributes string // 开始标签中的原始属性文本，原样保留
	Inner      string // 开始标签与结束标签之间的内容
	Start      int    // 区域在片段中的起始字节偏移（包含）
	End        int    // 区域在片段中的结束字节偏移（不包含）
}

// StripHeadingEmphasis 移除所有标题内部的 <strong>/<b>（含结束标签），
// 标题之外的内容、标题属性以及其它内联标签保持不变。
// 该函数没有错误分支，找不到标题时原样返回输入。
//
// 已知限制：开始标签的属性值中如果出现 '>'（即使在引号内），会被当作标签结束。
func StripHeadingEmphasis(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return fragment
	}

	var b strings.Builder
	last := 0
	found := false
	scanHeadings(fragment, func(m HeadingMatch) {
		if !found {
			b.Grow(len(fragment))
			found = true
		}
		b.WriteString(fragment[last:m.Start])
		level := byte('0' + m.Level)
		b.WriteString("<h")
		b.WriteByte(level)
		b.WriteString(m.Attributes)
		b.WriteByte('>')
		b.WriteString(removeEmphasisTags(m.Inner))
		b.WriteString("</h")
		b.WriteByte(level)
		b.WriteByte('>')
		last = m.End
	})
	if !found {
		return fragment
	}
	b.WriteString(fragment[last:])
	return b.String()
}

// FindHeadings 按文档顺序返回片段中所有能被匹配的标题区域
func FindHeadings(fragment string) []HeadingMatch {
	var matches []HeadingMatch
	scanHeadings(fragment, func(m HeadingMatch) {
		matches = append(matches, m)
	})
	return matches
}

// HasEmphasis 判断内容中是否存在 <strong>/<b> 标签
func HasEmphasis(content string) bool {
	return removeEmphasisTags(content) != content
}

// scanHeadings 从左到右扫描标题。
// 结束标签取同级别的第一个 </hN>（非贪婪）；没有结束标签的开始标签会被跳过，
// 并从它的 '<' 之后一个字节继续扫描。
// 对 '>' 与各级别结束标签的查找结果做了缓存，整体为线性时间。
func scanHeadings(s string, fn func(HeadingMatch)) {
	nextGT := -1 // 最近一次找到的 '>' 位置
	var closeAt [7]int
	var closeFrom [7]int
	for i := range closeAt {
		closeAt[i] = -1
		closeFrom[i] = -1
	}

	pos := 0
	for pos < len(s) {
		rel := strings.IndexByte(s[pos:], '<')
		if rel < 0 {
			return
		}
		start := pos + rel
		level, ok := openingLevel(s, start)
		if !ok {
			pos = start + 1
			continue
		}

		attrStart := start + 3
		if nextGT < attrStart {
			gt := strings.IndexByte(s[attrStart:], '>')
			if gt < 0 {
				// 后面再也没有 '>'，不可能再出现完整的开始标签
				return
			}
			nextGT = attrStart + gt
		}
		innerStart := nextGT + 1

		// closeFrom 记录上次查找的起点，若上次从更早的位置开始也没找到，则之后同样找不到
		var closing int
		if closeFrom[level] >= 0 && closeFrom[level] <= innerStart &&
			(closeAt[level] < 0 || closeAt[level] >= innerStart) {
			closing = closeAt[level]
		} else {
			closing = indexClosingTag(s, innerStart, level)
			closeFrom[level] = innerStart
			closeAt[level] = closing
		}
		if closing < 0 {
			pos = start + 1
			continue
		}

		end := closing + 5 // len("</hN>")
		fn(HeadingMatch{
			Level:      level,
			Attributes: s[attrStart:nextGT],
			Inner:      s[innerStart:closing],
			Start:      start,
			End:        end,
		})
		pos = end
	}
}

// openingLevel 判断 s[i:] 是否以 <hN 开头（N 为 1-6，其后必须是单词边界）
func openingLevel(s string, i int) (int, bool) {
	if i+3 > len(s) || s[i] != '<' || s[i+1]|0x20 != 'h' {
		return 0, false
	}
	d := s[i+2]
	if d < '1' || d > '6' {
		return 0, false
	}
	if i+3 < len(s) && isWordByte(s[i+3]) {
		return 0, false
	}
	return int(d - '0'), true
}

// indexClosingTag 从 from 开始查找第一个 </hN>（不区分大小写），找不到返回 -1
func indexClosingTag(s string, from, level int) int {
	digit := byte('0' + level)
	for from < len(s) {
		rel := strings.Index(s[from:], "</")
		if rel < 0 {
			return -1
		}
		j := from + rel
		if j+5 <= len(s) && s[j+2]|0x20 == 'h' && s[j+3] == digit && s[j+4] == '>' {
			return j
		}
		from = j + 2
	}
	return -1
}

// removeEmphasisTags 删除所有 </?(strong|b)\b[^>]*> 形式的标签。
// 逐字节写入输出，遇到 '>' 时优先截断最近一次截断点之后最早的加粗 '<'，
// 没有时才回退到截断点之前的 '<'。截断后重新拼合出的标签（如 "<<b>b>"）也会被删除，
// 结果与反复执行正则替换直到不再变化一致。
func removeEmphasisTags(s string) string {
	if strings.IndexByte(s, '<') < 0 {
		return s
	}

	out := make([]byte, 0, len(s))
	// opens 保存输出中最后一个 '>' 之后所有 '<' 的位置；
	// opens[afterCut:] 是最近一次截断之后写入的 '<'；
	// opens[:stable] 已确认不是加粗标签，且其后至少有 emphasisWindow 个字节，结论不会再变
	var opens []int
	stable, afterCut := 0, 0
	changed := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '<':
			opens = append(opens, len(out))
			out = append(out, c)
		case '>':
			cut := -1
			for k := afterCut; k < len(opens); k++ {
				if isEmphasisTagStart(out[opens[k]:]) {
					cut = k
					break
				}
			}
			if cut < 0 {
				for k := stable; k < afterCut; k++ {
					p := opens[k]
					if isEmphasisTagStart(out[p:]) {
						cut = k
						break
					}
					if k == stable && p+emphasisWindow <= len(out) {
						stable++
					}
				}
			}
			if cut < 0 {
				out = append(out, c)
				opens = opens[:0]
				stable, afterCut = 0, 0
				continue
			}
			out = out[:opens[cut]]
			opens = opens[:cut]
			afterCut = cut
			if stable > afterCut {
				stable = afterCut
			}
			for stable > 0 && opens[stable-1]+emphasisWindow > len(out) {
				stable--
			}
			changed = true
		default:
			out = append(out, c)
		}
	}
	if !changed {
		return s
	}
	return string(out)
}

// isEmphasisTagStart 判断 tag（以 '<' 开头、不含 '>'，其后紧跟 '>'）是否为 strong/b 标签
func isEmphasisTagStart(tag []byte) bool {
	i := 1
	if i < len(tag) && tag[i] == '/' {
		i++
	}
	for _, name := range [...]string{"strong", "b"} {
		if hasFoldPrefix(tag[i:], name) {
			j := i + len(name)
			if j >= len(tag) || !isWordByte(tag[j]) {
				return true
			}
		}
	}
	return false
}

func hasFoldPrefix(b []byte, lower string) bool {
	if len(b) < len(lower) {
		return false
	}
	for i := 0; i < len(lower); i++ {
		if b[i]|0x20 != lower[i] {
			return false
		}
	}
	return true
}

func isWordByte(c byte) bool {
	return c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
