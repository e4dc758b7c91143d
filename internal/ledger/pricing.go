package ledger

// modelPrice is USD per million tokens.
type modelPrice struct {
	Input  float64
	Output float64
}

// priceTable holds published list prices per model. Models missing from the
// table, such as document-parse which bills per page, cost out at zero.
var priceTable = map[string]modelPrice{
	"gemini-1.5-flash": {Input: 0.075, Output: 0.30},
	"gemini-2.0-flash": {Input: 0.10, Output: 0.40},
	"gemini-2.5-flash": {Input: 0.30, Output: 2.50},
	"gemini-2.5-pro":   {Input: 1.25, Output: 10.00},

	"gpt-4o-mini": {Input: 0.15, Output: 0.60},
	"gpt-4o":      {Input: 2.50, Output: 10.00},
	"gpt-4.1-mini": {Input: 0.40, Output: 1.60},

	"solar-pro": {Input: 0.25, Output: 0.25},
}

const tokensPerMillion = 1_000_000

// Cost returns the estimated USD cost for a call against a model. Unknown
// models return 0.
func Cost(model string, inputTokens, outputTokens int) float64 {
	p, ok := priceTable[model]
	if !ok {
		return 0
	}
	return float64(inputTokens)*p.Input/tokensPerMillion +
		float64(outputTokens)*p.Output/tokensPerMillion
}
