// Package archive はレビューレポートをスタイル付きHTMLに変換してGCSへ保存します。
package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/shouni/go-remote-io/pkg/factory"
	"github.com/shouni/go-text-format/pkg/builder"
)

// htmlContentType はGCSオブジェクトに設定するMIMEタイプです。
const htmlContentType = "text/html; charset=utf-8"

// SaveReport はMarkdown形式のレビューレポートをHTMLへ変換し、gcsURI
// （'gs://bucket-name/object-path' 形式）へアップロードします。
func SaveReport(ctx context.Context, gcsURI, title, markdown string) error {
	bucketName, objectPath, err := parseGCSURI(gcsURI)
	if err != nil {
		return err
	}

	htmlBuffer, err := convertMarkdownToHTML(ctx, title, markdown)
	if err != nil {
		return fmt.Errorf("レビューレポートのHTML変換に失敗しました: %w", err)
	}

	slog.Info("レビューレポートをGCSへアップロード中",
		"uri", gcsURI,
		"bucket", bucketName,
		"object", objectPath,
		"content_type", htmlContentType)

	if err := uploadToGCS(ctx, bucketName, objectPath, htmlBuffer); err != nil {
		return fmt.Errorf("GCSへの書き込みに失敗しました (URI: %s): %w", gcsURI, err)
	}

	slog.Info("GCSへのアップロードが完了しました。", "uri", gcsURI)
	return nil
}

// convertMarkdownToHTML はMarkdown形式の入力を受け取り、HTML形式のデータに変換します。
func convertMarkdownToHTML(ctx context.Context, title string, markdown string) (*bytes.Buffer, error) {
	htmlBuilder, err := builder.NewBuilder()
	if err != nil {
		return nil, err
	}

	mk2html, err := htmlBuilder.BuildMarkdownToHtmlRunner()
	if err != nil {
		return nil, err
	}

	// タイトルとMarkdownコンテンツを結合
	var combined bytes.Buffer
	combined.WriteString("# " + title)
	combined.WriteString("\n\n")
	combined.WriteString(markdown)

	return mk2html.ConvertMarkdownToHtml(ctx, title, combined.Bytes())
}

// uploadToGCS はレンダリングされたHTMLをGCSにアップロードします。
func uploadToGCS(ctx context.Context, bucketName, objectPath string, content io.Reader) error {
	clientFactory, err := factory.NewClientFactory(ctx)
	if err != nil {
		return err
	}
	writer, err := clientFactory.NewOutputWriter()
	if err != nil {
		return err
	}

	return writer.WriteToGCS(ctx, bucketName, objectPath, content, htmlContentType)
}

// parseGCSURI はGCS URIの検証と解析を行います。
func parseGCSURI(gcsURI string) (bucketName, objectPath string, err error) {
	if !strings.HasPrefix(gcsURI, "gs://") {
		return "", "", fmt.Errorf("無効なGCS URIです。'gs://' で始まる必要があります: %s", gcsURI)
	}
	pathWithoutScheme := gcsURI[5:]
	parts := strings.SplitN(pathWithoutScheme, "/", 2)

	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("無効なGCS URIフォーマットです。バケット名とオブジェクトパスが不足しています: %s", gcsURI)
	}
	return parts[0], parts[1], nil
}
