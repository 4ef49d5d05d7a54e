package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Body 统一响应结构
type Body struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data"`
}

// Success 业务成功响应
func Success(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, Body{Code: 0, Msg: msg, Data: data})
}

// Fail 业务失败响应（HTTP 200，业务码非 0）
func Fail(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, Body{Code: -1, Msg: msg, Data: data})
}

// FailWithStatus 指定 HTTP 状态码的失败响应
func FailWithStatus(c *gin.Context, status int, msg string) {
	c.JSON(status, Body{Code: -1, Msg: msg})
}
