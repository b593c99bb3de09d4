/*
 * @Description: 标题加粗过滤的 HTTP 接口
 * @Author: 安知鱼
 * @Date: 2026-10-19 16:10:27
 * @LastEditTime: 2026-10-19 21:08:13
 * @LastEditors: 安知鱼
 */
package filter

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anzhiyu-c/anheyu-content-filter/pkg/response"
	filterSvc "github.com/anzhiyu-c/anheyu-content-filter/pkg/service/filter"
)

// 请求内容格式
const (
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
)

// maxContentBytes 单次请求允许的内容大小
const maxContentBytes = 4 << 20

// maxRequestBytes 请求体上限，在内容上限之外为 JSON 其余字段留出余量
const maxRequestBytes = maxContentBytes + 64<<10

// ApplyRequest 是 POST /filter/apply 的请求体
type ApplyRequest struct {
	Document filterSvc.Document `json:"document"`
	Content  string             `json:"content"`
	Format   string             `json:"format"`
}

// HeadingsRequest 是 POST /filter/headings 的请求体
type HeadingsRequest struct {
	Content string `json:"content"`
}

// TaskBroker 定义处理器需要的后台任务派发能力
type TaskBroker interface {
	DispatchCacheSweep()
}

// Handler 封装了所有与内容过滤相关的 HTTP 处理器。
type Handler struct {
	svc    *filterSvc.Service
	broker TaskBroker
}

// NewHandler 是 Handler 的构造函数。
func NewHandler(svc *filterSvc.Service, broker TaskBroker) *Handler {
	return &Handler{svc: svc, broker: broker}
}

// Apply 对渲染后的文章内容执行标题加粗过滤
// @Summary      过滤文章内容
// @Description  移除 h1-h6 标题内的 strong/b 标签，format 为 markdown 时先渲染为 HTML
// @Tags         内容过滤
// @Accept       json
// @Produce      json
// @Param        request  body      ApplyRequest  true  "文档与内容"
// @Success      200      {object}  response.Response{data=filterSvc.Result}  "过滤成功"
// @Failure      400      {object}  response.Response  "请求参数错误"
// @Failure      413      {object}  response.Response  "内容过大"
// @Failure      500      {object}  response.Response  "渲染失败"
// @Router       /filter/apply [post]
func (h *Handler) Apply(c *gin.Context) {
	var req ApplyRequest
	if !bindRequest(c, &req) {
		return
	}
	if len(req.Content) > maxContentBytes {
		response.Fail(c, http.StatusRequestEntityTooLarge, "内容过大")
		return
	}

	switch req.Format {
	case "", FormatHTML:
		response.Success(c, h.svc.Apply(c.Request.Context(), req.Document, req.Content), "过滤成功")
	case FormatMarkdown:
		result, err := h.svc.RenderMarkdown(c.Request.Context(), req.Document, req.Content)
		if err != nil {
			log.Printf("[Handler.Apply] 渲染 Markdown 失败: %v", err)
			response.Fail(c, http.StatusInternalServerError, "渲染 Markdown 失败")
			return
		}
		response.Success(c, result, "过滤成功")
	default:
		response.Fail(c, http.StatusBadRequest, "不支持的内容格式: "+req.Format)
	}
}

// Headings 列出内容中会被处理的标题
// @Summary      列出标题
// @Description  返回内容中每个标题的级别、属性、纯文本以及是否包含加粗标签
// @Tags         内容过滤
// @Accept       json
// @Produce      json
// @Param        request  body      HeadingsRequest  true  "HTML 内容"
// @Success      200      {object}  response.Response{data=[]filterSvc.HeadingSummary}  "获取成功"
// @Failure      400      {object}  response.Response  "请求参数错误"
// @Failure      413      {object}  response.Response  "内容过大"
// @Router       /filter/headings [post]
func (h *Handler) Headings(c *gin.Context) {
	var req HeadingsRequest
	if !bindRequest(c, &req) {
		return
	}
	if len(req.Content) > maxContentBytes {
		response.Fail(c, http.StatusRequestEntityTooLarge, "内容过大")
		return
	}
	response.Success(c, h.svc.Headings(req.Content), "获取标题成功")
}

// Stats 获取过滤统计
// @Summary      获取过滤统计
// @Description  返回累计处理、跳过与实际修改的文档数量
// @Tags         内容过滤
// @Produce      json
// @Success      200  {object}  response.Response{data=filterSvc.Stats}  "获取成功"
// @Failure      500  {object}  response.Response  "获取失败"
// @Router       /filter/stats [get]
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		log.Printf("[Handler.Stats] 读取统计失败: %v", err)
		response.Fail(c, http.StatusInternalServerError, "获取统计失败")
		return
	}
	response.Success(c, stats, "获取统计成功")
}

// ClearCache 清空过滤结果缓存
// @Summary      清空缓存
// @Description  清空本地与共享的过滤结果缓存
// @Tags         内容过滤
// @Produce      json
// @Success      200  {object}  response.Response  "清空成功"
// @Failure      500  {object}  response.Response  "清空失败"
// @Router       /filter/cache [delete]
func (h *Handler) ClearCache(c *gin.Context) {
	if err := h.svc.ClearCache(c.Request.Context()); err != nil {
		log.Printf("[Handler.ClearCache] 清空缓存失败: %v", err)
		response.Fail(c, http.StatusInternalServerError, "清空缓存失败")
		return
	}
	response.Success(c, nil, "清空缓存成功")
}

// SweepCache 派发一次过期缓存清理任务
// @Summary      清理过期缓存
// @Description  将本地缓存的过期条目清理任务放入后台队列，立即返回
// @Tags         内容过滤
// @Produce      json
// @Success      202  {object}  response.Response  "已提交"
// @Failure      503  {object}  response.Response  "后台任务不可用"
// @Router       /filter/cache/sweep [post]
func (h *Handler) SweepCache(c *gin.Context) {
	if h.broker == nil {
		response.Fail(c, http.StatusServiceUnavailable, "后台任务不可用")
		return
	}
	h.broker.DispatchCacheSweep()
	response.SuccessWithStatus(c, http.StatusAccepted, nil, "已提交缓存清理任务")
}

func bindRequest(c *gin.Context, req interface{}) bool {
	if c.Request.Body != nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBytes)
	}
	if err := c.ShouldBindJSON(req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Fail(c, http.StatusRequestEntityTooLarge, "内容过大")
			return false
		}
		response.Fail(c, http.StatusBadRequest, "请求参数错误: "+err.Error())
		return false
	}
	return true
}
