package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Orchestration level messages (info)
		"Loaded %s (%dx%d, %s)":                "%s を読み込みました (%dx%d, %s)",
		"Rendering %d anchors on %dx%d canvas": "%d 箇所のアンカーを %dx%d キャンバスに描画中",
		"Output saved to %s":                   "出力を %s に保存しました",
		"Interrupted, shutting down...":        "中断されました。シャットダウン中...",

		// Orchestration warnings and errors
		"Font %q unavailable, falling back to %s": "フォント %q が見つかりません。%s で代替します",
		"Cannot save: %s":                         "保存できません: %s",
		"Failed to load image: %s":                "画像の読み込みに失敗しました: %s",
		"Failed to render watermark: %s":          "透かしの描画に失敗しました: %s",
		"Failed to write output: %s":              "出力の書き込みに失敗しました: %s",

		// Normalize stage
		"Resizing base %dx%d to %dx%d": "ベース画像を %dx%d から %dx%d にリサイズ中",

		// Resolve stage
		"Resolved %d anchors": "%d 箇所のアンカーを解決しました",

		// Rasterize stage
		"Rasterizing %q with %s at %dpt": "%q を %s (%dpt) でラスタライズ中",
		"Layer rasterized: %dx%d":        "レイヤーをラスタライズしました: %dx%d",
		"Font cache hit: %s":             "フォントキャッシュにヒット: %s",

		// Rotate stage
		"Rotating layer %dx%d by %d degrees": "レイヤー %dx%d を %d 度回転中",
		"Layer rotated: %dx%d":               "レイヤーを回転しました: %dx%d",

		// Composite stage
		"Compositing %d layers onto %dx%d base": "%d 枚のレイヤーを %dx%d のベースに合成中",
		"Skipping empty layer at (%d, %d)":      "(%d, %d) の空レイヤーをスキップします",
		"Composition completed":                 "合成が完了しました",

		// Encode stage
		"Encoding %s (quality %d)": "%s にエンコード中 (品質 %d)",
		"Image encoded: %d bytes":  "画像をエンコードしました: %d バイト",
	})
}
