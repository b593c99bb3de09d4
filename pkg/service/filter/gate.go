/*
 * @Description: 判断一篇文档是否需要做标题加粗过滤
 * @Author: 安知鱼
 * @Date: 2026-10-19 12:31:09
 * @LastEditTime: 2026-10-19 14:05:27
 * @LastEditors: 安知鱼
 */
package filter

import (
	"github.com/anzhiyu-c/anheyu-content-filter/pkg/config"
)

// Document 描述一次渲染中被过滤内容所属的文档
type Document struct {
	ID    uint64            `json:"id"`
	Type  string            `json:"type"`
	Meta  map[string]string `json:"meta"`
	Admin bool              `json:"admin"` // 后台或 REST 管理上下文
}

// SkipReason 表示文档被跳过的原因，空字符串表示需要处理
type SkipReason string

const (
	SkipNone         SkipReason = ""
	SkipDisabled     SkipReason = "disabled"
	SkipAdmin        SkipReason = "admin"
	SkipMissingID    SkipReason = "missing_id"
	SkipLibraryType  SkipReason = "library_type"
	SkipVisualEditor SkipReason = "visual_editor"
	SkipGate         SkipReason = "gate"
)

// Gate 决定一篇文档是否应该被处理
type Gate interface {
	ShouldProcess(doc Document) bool
}

// GateFunc 让普通函数满足 Gate 接口
type GateFunc func(doc Document) bool

func (f GateFunc) ShouldProcess(doc Document) bool { return f(doc) }

// AlwaysProcess 对所有文档都返回 true
var AlwaysProcess Gate = GateFunc(func(Document) bool { return true })

// EditorGate 跳过后台请求、没有 ID 的文档、编辑器模板库类型的文档，
// 以及可视化编辑器启用时由它构建的文档（这些文档已经由编辑器生成最终标记）。
type EditorGate struct {
	VisualEditorActive bool
	LibraryPostType    string
	EditModeMetaKey    string
}

// NewEditorGate 从配置创建 EditorGate
func NewEditorGate(cfg *config.Config) *EditorGate {
	return &EditorGate{
		VisualEditorActive: cfg.GetBool(config.KeyEditorVisualEditorActive),
		LibraryPostType:    cfg.GetString(config.KeyEditorLibraryPostType),
		EditModeMetaKey:    cfg.GetString(config.KeyEditorEditModeMetaKey),
	}
}

// Check 返回跳过原因，需要处理时返回 SkipNone
func (g *EditorGate) Check(doc Document) SkipReason {
	if doc.Admin {
		return SkipAdmin
	}
	if doc.ID == 0 {
		return SkipMissingID
	}
	if g.LibraryPostType != "" && doc.Type == g.LibraryPostType {
		return SkipLibraryType
	}
	if g.VisualEditorActive && g.EditModeMetaKey != "" {
		// "" 与 "0" 都视为未设置
		if mode := doc.Meta[g.EditModeMetaKey]; mode != "" && mode != "0" {
			return SkipVisualEditor
		}
	}
	return SkipNone
}

func (g *EditorGate) ShouldProcess(doc Document) bool {
	return g.Check(doc) == SkipNone
}

// skipReasonOf 统一获取跳过原因，普通 Gate 只能给出 SkipGate
func skipReasonOf(gate Gate, doc Document) SkipReason {
	if checker, ok := gate.(interface{ Check(Document) SkipReason }); ok {
		return checker.Check(doc)
	}
	if gate.ShouldProcess(doc) {
		return SkipNone
	}
	return SkipGate
}
