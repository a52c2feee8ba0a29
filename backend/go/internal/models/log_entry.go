package models

// LogEntry 定义了用于结构化日志的统一数据格式。
type LogEntry struct {
	// ServiceName 是产生这条日志的服务名称，例如 "rag-service"。
	ServiceName string `json:"service_name"`

	// TraceID 用于串联同一个请求在各组件中的日志。
	TraceID string `json:"trace_id,omitempty"`

	// ProjectID 标识了与此日志事件相关的项目（如果适用）。
	ProjectID string `json:"project_id,omitempty"`

	RequestInfo *RequestInfo `json:"request_info,omitempty"`

	// Error 在日志级别为 Error 时填充。
	Error *ErrorInfo `json:"error,omitempty"`

	Payload map[string]interface{} `json:"payload,omitempty"`
}

// RequestInfo 存储了关于 HTTP 请求的上下文信息。
type RequestInfo struct {
	Method     string `json:"method"`
	Path       string `json:"path"`
	RemoteAddr string `json:"remote_addr"`
	UserAgent  string `json:"user_agent"`
	Status     int    `json:"status,omitempty"`
	LatencyMs  int64  `json:"latency_ms,omitempty"`
}

// ErrorInfo 存储了关于错误的结构化信息。
type ErrorInfo struct {
	Message    string `json:"message"`
	Type       string `json:"type,omitempty"`        // 例如 "vector_store_error", "validation_error"
	StatusCode int    `json:"status_code,omitempty"` // 相关的HTTP状态码
}
