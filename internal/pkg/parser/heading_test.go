package parser

import (
	"math/rand"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestStripHeadingEmphasis(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "空字符串",
			input:    "",
			expected: "",
		},
		{
			name:     "纯空白",
			input:    "   ",
			expected: "   ",
		},
		{
			name:     "换行与制表符",
			input:    "\n\t \n",
			expected: "\n\t \n",
		},
		{
			name:     "标题外的加粗保留",
			input:    "<p><b>Keep</b></p><h2><b>Drop</b></h2>",
			expected: "<p><b>Keep</b></p><h2>Drop</h2>",
		},
		{
			name:     "标题属性原样保留",
			input:    `<h3 class="x" id="y"><strong>Bold</strong> Text</h3>`,
			expected: `<h3 class="x" id="y">Bold Text</h3>`,
		},
		{
			name:     "属性中的空白格式保留",
			input:    "<h2   class = \"a\"\n\tdata-x='1' ><b>T</b></h2>",
			expected: "<h2   class = \"a\"\n\tdata-x='1' >T</h2>",
		},
		{
			name:     "加粗标签大小写不敏感",
			input:    "<h1><B>x</B></h1>",
			expected: "<h1>x</h1>",
		},
		{
			name:     "其它内联标签不受影响",
			input:    "<h4>A <em>B</em> <b>C</b></h4>",
			expected: "<h4>A <em>B</em> C</h4>",
		},
		{
			name:     "跨行标题",
			input:    "<h2>\n  <strong>Line one</strong>\n  <b>two</b>\n</h2>",
			expected: "<h2>\n  Line one\n  two\n</h2>",
		},
		{
			name:     "未闭合的标题原样返回",
			input:    "<h2>Oops <b>bold</b>",
			expected: "<h2>Oops <b>bold</b>",
		},
		{
			name:     "带属性的加粗标签整体移除",
			input:    `<h2><b style="color:red" class='k'>Red</b></h2>`,
			expected: "<h2>Red</h2>",
		},
		{
			name:     "大写标题标签重建为小写",
			input:    `<H2 Class="A"><STRONG>T</STRONG></H2>`,
			expected: `<h2 Class="A">T</h2>`,
		},
		{
			name:     "结束标签大小写不敏感",
			input:    "<h2><b>a</b></H2>",
			expected: "<h2>a</h2>",
		},
		{
			name:     "同级标题取第一个结束标签",
			input:    "<h2>a<b>1</b><h2>b<b>2</b></h2>c<b>3</b></h2>",
			expected: "<h2>a1<h2>b2</h2>c<b>3</b></h2>",
		},
		{
			name:     "不同级别嵌套",
			input:    "<h1>T <h2><b>x</b></h2> <b>y</b></h1>",
			expected: "<h1>T <h2>x</h2> y</h1>",
		},
		{
			name:     "外层未闭合时内层仍然匹配",
			input:    "<h1>Title <h2><b>x</b></h2>",
			expected: "<h1>Title <h2>x</h2>",
		},
		{
			name:     "未闭合开始标签的属性中出现标题",
			input:    "<h1 <h2><b>x</b></h2>",
			expected: "<h1 <h2>x</h2>",
		},
		{
			name:     "以b开头的其它标签不受影响",
			input:    "<h2><br/><bdi>x</bdi><blockquote>q</blockquote><bold>y</bold></h2>",
			expected: "<h2><br/><bdi>x</bdi><blockquote>q</blockquote><bold>y</bold></h2>",
		},
		{
			name:     "自闭合形式的加粗标签",
			input:    "<h5>a<b/>b<strong />c</h5>",
			expected: "<h5>abc</h5>",
		},
		{
			name:     "非法级别不处理",
			input:    "<h7><b>a</b></h7><h0><b>b</b></h0><h10><b>c</b></h10>",
			expected: "<h7><b>a</b></h7><h0><b>b</b></h0><h10><b>c</b></h10>",
		},
		{
			name:     "级别后必须是单词边界",
			input:    "<h1x><b>a</b></h1><h1-x><b>a</b></h1>",
			expected: "<h1x><b>a</b></h1><h1-x>a</h1>",
		},
		{
			name:     "hr 不是标题",
			input:    "<hr><b>a</b><h6><b>b</b></h6>",
			expected: "<hr><b>a</b><h6>b</h6>",
		},
		{
			name:     "结束标签中有空格不算闭合",
			input:    "<h2><b>a</b></h2 >",
			expected: "<h2><b>a</b></h2 >",
		},
		{
			name:     "多个标题之间的内容不变",
			input:    "<h1><b>A</b></h1>\n<p><strong>p</strong></p>\n<h2 id=\"b\"><strong>B</strong></h2>",
			expected: "<h1>A</h1>\n<p><strong>p</strong></p>\n<h2 id=\"b\">B</h2>",
		},
		{
			name:     "被拆开后重新拼合的加粗标签",
			input:    "<h3><<b>b>x<</b>/b></h3>",
			expected: "<h3>x</h3>",
		},
		{
			name:     "标题内注释里的加粗标签同样移除",
			input:    "<h2><!-- <b> --><b>x</b></h2>",
			expected: "<h2><!--  -->x</h2>",
		},
		{
			name:     "截断后的小于号不吞掉前面的文本",
			input:    "<h2>1 <<b>b</b> y</h2>",
			expected: "<h2>1 <b y</h2>",
		},
		{
			name:     "截断后新拼合的加粗标签优先于更早的小于号",
			input:    "<h2><<b>b x<b>></h2>",
			expected: "<h2></h2>",
		},
		{
			name:     "未闭合的加粗标签前缀被后面的大于号收尾",
			input:    "<h2>a<b <b>c</h2>",
			expected: "<h2>ac</h2>",
		},
		{
			name:     "中文内容",
			input:    "<h2>你好<strong>世界</strong></h2>",
			expected: "<h2>你好世界</h2>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripHeadingEmphasis(tt.input)
			assert.Equal(t, tt.expected, got)
			assert.LessOrEqual(t, len(got), len(tt.input))
			assert.Equal(t, got, StripHeadingEmphasis(got), "第二次处理应当没有变化")
		})
	}
}

// 开始标签的属性值或加粗标签属性值中出现 '>' 时，'>' 被当作标签结束
func TestStripHeadingEmphasis_QuotedGreaterThan(t *testing.T) {
	t.Run("加粗标签属性中的大于号", func(t *testing.T) {
		got := StripHeadingEmphasis(`<h2><b title="x>y">T</b></h2>`)
		assert.Equal(t, `<h2>y">T</h2>`, got)
	})

	t.Run("标题属性中的大于号", func(t *testing.T) {
		input := `<h2 data-x="<b>">T</h2>`
		matches := FindHeadings(input)
		require.Len(t, matches, 1)
		assert.Equal(t, ` data-x="<b`, matches[0].Attributes)
		assert.Equal(t, `">T`, matches[0].Inner)
		assert.Equal(t, input, StripHeadingEmphasis(input))
	})
}

func TestStripHeadingEmphasis_NoHeadingReturnsInput(t *testing.T) {
	inputs := []string{
		"<p><strong>a</strong></p><div><b>b</b></div>",
		"plain text",
		"<h2>never closed <strong>x</strong>",
		"<b><h3></b>",
		"</h1></h2><b></b>",
	}
	for _, input := range inputs {
		assert.Equal(t, input, StripHeadingEmphasis(input))
		assert.Empty(t, FindHeadings(input))
	}
}

func TestStripHeadingEmphasis_Pathological(t *testing.T) {
	const n = 200000

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "大量未闭合的开始标签",
			input:    strings.Repeat("<h1>", n),
			expected: strings.Repeat("<h1>", n),
		},
		{
			name:     "多个级别交替未闭合",
			input:    strings.Repeat("<h1><h2><h3 a>", n/3),
			expected: strings.Repeat("<h1><h2><h3 a>", n/3),
		},
		{
			name:     "没有大于号的开始标签",
			input:    strings.Repeat("<h2 ", n),
			expected: strings.Repeat("<h2 ", n),
		},
		{
			name:     "开始标签都共享最后一个大于号",
			input:    strings.Repeat("<h1", n) + ">",
			expected: strings.Repeat("<h1", n) + ">",
		},
		{
			name:     "层层嵌套的拆分加粗标签",
			input:    "<h1>" + strings.Repeat("<", n) + strings.Repeat("b>", n) + "</h1>",
			expected: "<h1></h1>",
		},
		{
			name:     "大量小于号后跟一个加粗标签",
			input:    "<h2>" + strings.Repeat("<", n) + "<b>x</h2>",
			expected: "<h2>" + strings.Repeat("<", n) + "x</h2>",
		},
		{
			name:     "大量标题",
			input:    strings.Repeat("<h3><b>x</b></h3>", n/10),
			expected: strings.Repeat("<h3>x</h3>", n/10),
		},
		{
			name:     "大量截断后残留的小于号",
			input:    "<h2>" + strings.Repeat("1 <<b>b</b> y", n/12) + "</h2>",
			expected: "<h2>" + strings.Repeat("1 <b y", n/12) + "</h2>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripHeadingEmphasis(tt.input))
		})
	}
}

// 与反复执行正则替换直到不再变化的结果对照
func TestRemoveEmphasisTags_MatchesRegexpFixpoint(t *testing.T) {
	re := regexp.MustCompile(`(?i)</?(?:strong|b)\b[^>]*>`)
	fixpoint := func(s string) string {
		for {
			next := re.ReplaceAllString(s, "")
			if next == s {
				return s
			}
			s = next
		}
	}

	pieces := []string{"<", ">", "/", "b", "B", "strong", "STRONG", " ", "x", "_", "1", "<b>", "</b>", "<<", "<b", "</", "<h2>", "</h2>"}
	rng := rand.New(rand.NewSource(20240601))
	for i := 0; i < 20000; i++ {
		var sb strings.Builder
		for j := rng.Intn(16); j > 0; j-- {
			sb.WriteString(pieces[rng.Intn(len(pieces))])
		}
		input := sb.String()
		require.Equal(t, fixpoint(input), removeEmphasisTags(input), "input: %q", input)
	}
}

func TestFindHeadings(t *testing.T) {
	input := `<h1 id="a">A</h1><p>x</p><H2>B <b>b</b></h2><h3>open`
	matches := FindHeadings(input)
	require.Len(t, matches, 2)

	assert.Equal(t, 1, matches[0].Level)
	assert.Equal(t, ` id="a"`, matches[0].Attributes)
	assert.Equal(t, "A", matches[0].Inner)
	assert.Equal(t, `<h1 id="a">A</h1>`, input[matches[0].Start:matches[0].End])

	assert.Equal(t, 2, matches[1].Level)
	assert.Equal(t, "", matches[1].Attributes)
	assert.Equal(t, "B <b>b</b>", matches[1].Inner)
	assert.Equal(t, "<H2>B <b>b</b></h2>", input[matches[1].Start:matches[1].End])
	assert.Equal(t, "B b", matches[1].Text())
}

func TestHeadingMatchText(t *testing.T) {
	matches := FindHeadings(`<h2 id="x"><b>Hello</b> &amp; <em>World</em> </h2>`)
	require.Len(t, matches, 1)
	assert.Equal(t, "Hello & World", matches[0].Text())
}

func TestHasEmphasis(t *testing.T) {
	assert.True(t, HasEmphasis("a <b>b</b>"))
	assert.True(t, HasEmphasis("<STRONG class='x'>"))
	assert.False(t, HasEmphasis("<br><bdi>x</bdi>"))
	assert.False(t, HasEmphasis("no tags"))
}

// 使用 x/net/html 分词器确认输出的标题内部不再有 strong/b
func TestStripHeadingEmphasis_TokenizerCheck(t *testing.T) {
	input := `<article>
<h1 class="title"><strong>Post</strong> title</h1>
<p>Intro with <b>bold</b> and <strong>strong</strong>.</p>
<h2 id="s1">Section <b class="hl">one</b> <em>and <b>more</b></em></h2>
<ul><li><b>item</b></li></ul>
<h3>
  <STRONG>Multi</STRONG>
  line
</h3>
</article>`

	out := StripHeadingEmphasis(input)

	z := html.NewTokenizer(strings.NewReader(out))
	depth := 0
	boldOutside := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		name, _ := z.TagName()
		tag := string(name)
		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			switch tag {
			case "h1", "h2", "h3", "h4", "h5", "h6":
				if tt == html.StartTagToken {
					depth++
				} else if tt == html.EndTagToken {
					depth--
				}
			case "b", "strong":
				require.Zero(t, depth, "标题内部不应出现 <%s>", tag)
				boldOutside++
			}
		}
	}
	assert.Equal(t, 6, boldOutside, "标题外的加粗标签应全部保留")
	assert.Contains(t, out, `<h2 id="s1">Section one <em>and more</em></h2>`)
}

func TestMarkdownToHTMLThenStrip(t *testing.T) {
	rendered, err := MarkdownToHTML("## **Bold** title\n\nBody **text**\n")
	require.NoError(t, err)
	assert.Contains(t, rendered, `<h2 id="bold-title">`)
	assert.Contains(t, rendered, "<strong>Bold</strong>")

	out := StripHeadingEmphasis(rendered)
	assert.Contains(t, out, `<h2 id="bold-title">Bold title</h2>`)
	assert.Contains(t, out, "<strong>text</strong>")
}
