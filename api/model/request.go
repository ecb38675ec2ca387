package model

// WebToDocRequest 网页转文档请求
// url和urls至少提供一个，两者同时提供时url排在最前
type WebToDocRequest struct {
	URL               string   `json:"url"`                                          // 单个URL
	URLs              []string `json:"urls"`                                         // 多个URL
	Split             bool     `json:"split"`                                        // 是否分块
	ChunkSize         *int     `json:"chunk_size" binding:"omitempty,min=1"`         // 分块大小，默认1200
	ChunkOverlap      *int     `json:"chunk_overlap" binding:"omitempty,min=0"`      // 分块重叠，默认200
	JS                bool     `json:"js"`                                           // 强制无头浏览器渲染
	WaitSelector      string   `json:"wait_selector"`                                // 渲染后等待的CSS选择器
	FallbackThreshold *int     `json:"fallback_threshold" binding:"omitempty,min=0"` // 静态文本回退阈值，默认500
}

// AllURLs 合并url和urls字段
func (r *WebToDocRequest) AllURLs() []string {
	urls := make([]string, 0, len(r.URLs)+1)
	if r.URL != "" {
		urls = append(urls, r.URL)
	}
	return append(urls, r.URLs...)
}

// HTMLToDocRequest HTML转文档请求
type HTMLToDocRequest struct {
	HTML         string         `json:"html"`                                    // 原始HTML，必填
	Meta         map[string]any `json:"meta"`                                    // 原样写入文档的元数据
	Split        bool           `json:"split"`                                   // 是否分块
	ChunkSize    *int           `json:"chunk_size" binding:"omitempty,min=1"`    // 分块大小
	ChunkOverlap *int           `json:"chunk_overlap" binding:"omitempty,min=0"` // 分块重叠
}

// IntOr 返回指针指向的值，nil时返回默认值
func IntOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
