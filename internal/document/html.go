package document

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// boilerplateSelector 提取文本前需要整体移除的结构性标签
const boilerplateSelector = "nav, header, footer, aside, script, style, noscript"

// StripToText 移除HTML中的导航、页眉页脚、脚本等结构性内容，返回按行分隔的文本
// 每个文本节点输出为一行，结果尚未规范化，调用方需再经过Normalize。
// 解析器工作在容错模式，格式错误的HTML只会得到尽力而为的文本，不会返回错误。
func StripToText(rawHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}

	// 先删除整棵子树，再提取文本
	doc.Find(boilerplateSelector).Remove()

	var b strings.Builder
	for _, n := range doc.Nodes {
		collectText(&b, n)
	}
	return b.String()
}

// collectText 深度优先收集文本节点
func collectText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		b.WriteByte('\n')
		return
	case html.CommentNode, html.DoctypeNode:
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}
}

// ExtractTitle 返回<title>中的文本，没有时返回空字符串
func ExtractTitle(rawHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// LooksLikeHTML 粗略判断内容是否为HTML
func LooksLikeHTML(body string) bool {
	return strings.Contains(body, "<") && strings.Contains(body, ">")
}

// HTMLToText 剥离结构性内容并规范化
func HTMLToText(rawHTML string) string {
	return Normalize(StripToText(rawHTML))
}
