/*
 * @Description: 版本信息接口
 * @Author: 安知鱼
 * @Date: 2025-09-26 09:52:32
 * @LastEditTime: 2026-10-19 16:02:19
 * @LastEditors: 安知鱼
 */
package version

import (
	"github.com/gin-gonic/gin"

	"github.com/anzhiyu-c/anheyu-content-filter/internal/pkg/version"
	"github.com/anzhiyu-c/anheyu-content-filter/pkg/response"
)

// Handler 版本信息处理器
type Handler struct{}

// NewHandler 创建版本信息处理器实例
func NewHandler() *Handler {
	return &Handler{}
}

// GetVersion 获取版本信息
// @Summary      获取版本信息
// @Description  获取服务的版本号、提交与构建时间
// @Tags         辅助工具
// @Produce      json
// @Success      200  {object}  response.Response{data=version.BuildInfo}  "版本信息"
// @Router       /public/version [get]
func (h *Handler) GetVersion(c *gin.Context) {
	response.Success(c, version.GetBuildInfo(), "获取版本信息成功")
}
