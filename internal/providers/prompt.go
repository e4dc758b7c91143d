package providers

// extractionPrompt is the shared instruction sent with each page image. The
// field names match the canonical record keys exactly so provider answers can
// be decoded without remapping.
const extractionPrompt = `You are reading one page of a shipping settlement document.
Extract the following fields and respond with a single JSON object and nothing else:

{
  "date": "settlement date as YYYY-MM-DD, or null if absent",
  "quantity": "cargo quantity in GT as a number, or null",
  "amountUSD": "invoice charge amount in US dollars as a number, or null",
  "commissionUSD": "commission amount in US dollars as a number, or null",
  "totalUSD": "total amount in US dollars as a number, or null",
  "totalKRW": "total amount in Korean won as a number, or null",
  "balanceKRW": "remaining balance in Korean won as a number, or null"
}

Amounts may be printed with currency marks and thousand separators. Return
bare numbers without separators or symbols. If a field is not on this page,
return null for it. Do not invent values.`
