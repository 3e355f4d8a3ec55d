// Package render превращает Markdown постов в HTML.
package render

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

var (
	once sync.Once
	md   goldmark.Markdown
)

// markdown возвращает общий экземпляр goldmark (GFM, авто-id заголовков).
// Сырой HTML из исходника не выводится, опасные ссылки (javascript:) отбрасываются:
// это поведение рендерера goldmark без html.WithUnsafe().
func markdown() goldmark.Markdown {
	once.Do(func() {
		md = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		)
	})

	return md
}

// HTML рендерит Markdown в безопасный HTML.
func HTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown().Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render: %w", err)
	}

	return buf.String(), nil
}
