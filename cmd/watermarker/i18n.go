// Package main provides localization for the watermarker CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Output":    "出力",
		"Watermark": "透かし",
		"Canvas":    "キャンバス",
		"Fonts":     "フォント",
		"Debug":     "デバッグ",
		"Logging":   "ログ",

		// Root command
		"Stamp text watermarks onto images": "画像にテキスト透かしを入れる",
		"watermarker draws one line of styled, rotated text at any of nine anchor positions and saves the result in the format named by the output extension.": "watermarkerは装飾・回転した1行のテキストを9つのアンカー位置に描画し、出力ファイルの拡張子が示す形式で保存します。",

		// Commands
		"Watermark an image and save it":          "画像に透かしを入れて保存",
		"Render a watermark preview as PNG":       "透かしのプレビューをPNGで出力",
		"List anchor names and positions":         "アンカー名と位置を一覧表示",
		"List font families that can be resolved": "利用可能なフォントファミリーを一覧表示",
		"Show version information":                "バージョン情報を表示",
		"watermarker version %s":                  "watermarker バージョン %s",

		// Output flags
		"Output image path; the extension selects the format (required)": "出力画像パス。拡張子で形式を決定（必須）",
		"Preview PNG path (required)":                                    "プレビューPNGのパス（必須）",
		"JPEG quality (1-100, default: 95)":                              "JPEG品質（1-100、デフォルト: 95）",
		"Output execution summary to file (Markdown format)":             "実行サマリーをファイルに出力（Markdown形式）",

		// Watermark flags
		"Watermark text":                              "透かしテキスト",
		"Font family (default: Arial)":                "フォントファミリー（デフォルト: Arial）",
		"Font size in points (0-500, default: 10)":    "フォントサイズ（ポイント、0-500、デフォルト: 10）",
		"Text color (#rrggbb, #rgb or r,g,b)":         "文字色（#rrggbb、#rgb または r,g,b）",
		"Counter-clockwise rotation in degrees":       "反時計回りの回転角度（度）",
		"Anchor to stamp (repeatable, see 'anchors')": "透かしを入れるアンカー（複数指定可、'anchors' を参照）",
		"Stamp all nine anchors":                      "9つ全てのアンカーに透かしを入れる",

		// Canvas flags
		"Canvas width (default: 700)":                           "キャンバスの幅（デフォルト: 700）",
		"Canvas height (default: 800)":                          "キャンバスの高さ（デフォルト: 800）",
		"Keep the input size instead of resizing to the canvas": "キャンバスにリサイズせず入力画像のサイズを維持",
		"Resize filter (lanczos, catmullrom)":                   "リサイズフィルター（lanczos, catmullrom）",
		"Color behind transparent input pixels":                 "入力画像の透明部分の背景色",

		// Font flags
		"Fail when the font family cannot be found": "フォントファミリーが見つからない場合はエラーにする",
		"Additional font directory (repeatable)":    "追加のフォントディレクトリ（複数指定可）",
		"Skip the platform font directories":        "システムのフォントディレクトリを検索しない",

		// Debug flags
		"YAML configuration file":    "YAML設定ファイル",
		"Enable debug output":        "デバッグ出力を有効化",
		"Directory for debug output": "デバッグ出力のディレクトリ",

		// Logging flags
		"Log level (debug, info, warn, error)": "ログレベル（debug, info, warn, error）",
		"Suppress all log output":              "全てのログ出力を抑制",

		// Listings
		"top-left":      "左上基準",
		"centered":      "中央基準",
		"%s (built in)": "%s（内蔵）",

		// Runtime messages
		"Preview saved to %s":              "プレビューを %s に保存しました",
		"Summary saved to %s":              "サマリーを %s に保存しました",
		"Failed to write summary: %s":      "サマリーの書き込みに失敗しました: %s",
		"Input image argument is required": "入力画像の引数が必要です",
		"Error: %s":                        "エラー: %s",

		// Summary content
		"Watermark Summary": "透かしサマリー",
		"Generated":         "生成日時",
		"Files":             "ファイル",
		"Image":             "画像",
		"Item":              "項目",
		"Value":             "値",
		"Input":             "入力",
		"Format":            "形式",
		"File Size":         "ファイルサイズ",
		"Source Size":       "元画像サイズ",
		"Canvas Size":       "キャンバスサイズ",
		"Text":              "テキスト",
		"Font":              "フォント",
		"requested":         "指定",
		"Font Size":         "フォントサイズ",
		"Color":             "色",
		"Rotation":          "回転",
		"Anchors":           "アンカー",
		"None":              "なし",
		"Render Time":       "描画時間",
		"Generated by":      "生成:",
	})
}
