package prompt

import (
	"fmt"

	"github.com/menta2k/ckd-scanner/pkg/types"
)

// SodiumThresholdMg is the per-serving sodium level the model flags as high
const SodiumThresholdMg = 400

// ExplanationMaxChars bounds the dietary advice length requested from the model
const ExplanationMaxChars = 50

// template is the instruction sent with every label image. %s is the stage label.
const template = `
你是一位台灣的腎臟科專業營養師。使用者狀態：%s。
請分析這張食品包裝圖片，並輸出嚴格的 JSON 格式。

需要提取的欄位：
1. product_name (產品名稱)
2. nutrients (每份數值，若無標示請填 null): calories, protein, sodium, potassium, phosphorus
3. warnings (警示):
   - additives: 列出磷酸鹽(如偏磷酸鈉)或高鉀成分
   - high_sodium: boolean (>%dmg)
   - high_potassium: boolean
4. assessment (評估):
   - color: "%s", "%s", "%s"
   - title: 短評
   - explanation: 繁體中文建議 (%d字內)
`

// Build returns the instruction for the given stage. The stage label is
// embedded verbatim; unknown labels are passed through unchanged.
func Build(stage types.Stage) string {
	return fmt.Sprintf(template,
		string(stage),
		SodiumThresholdMg,
		types.ColorGreen, types.ColorYellow, types.ColorRed,
		ExplanationMaxChars,
	)
}
