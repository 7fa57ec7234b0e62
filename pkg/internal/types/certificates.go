// Package types 定义 HTTP 接口的请求与响应结构.
package types

// MessageResponse 错误或提示信息.
type MessageResponse struct {
	Message string `json:"message" example:"no certificates found"`
}

// HealthResponse 组件健康状态.
type HealthResponse struct {
	Component string `json:"component"       example:"db"`
	Status    string `json:"status"          example:"ok"`
	Error     string `json:"error,omitempty"`
}

// 固定的接口提示信息.
const (
	MsgNoCertificates      = "no certificates found"
	MsgQueryFailed         = "failed to fetch certificates"
	MsgNotFound            = "not found"
	MsgCertificateNotFound = "certificate not found"
)
