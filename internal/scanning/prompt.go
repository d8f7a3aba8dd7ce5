package scanning

import "strings"

// receiptParsePrompt is shared by all structuring backends. {{RECEIPT_TEXT}} is
// replaced with the OCR output.
const receiptParsePrompt = `You are a receipt parser. Analyze the following text, recognized by OCR from a photo of a paper receipt, and extract structured information.

Receipt Text:
{{RECEIPT_TEXT}}

Return ONLY a valid JSON object with this exact structure:
{
  "storeName": "name of the store or merchant",
  "date": "YYYY-MM-DD (use null if not found)",
  "items": [
    {
      "name": "item name",
      "price": 0.00,
      "quantity": 1
    }
  ],
  "totalAmount": 0.00
}

Rules:
1. Extract every purchased item with its unit price
2. If a quantity is shown (like "2x", "x2" or "Qty: 2"), set quantity to it, otherwise use 1
3. Clean up item names: remove stray symbols and codes, fix obvious OCR typos
4. Ignore lines that are not items: totals, subtotals, tax lines, headers, addresses, footers, "Thank you" messages
5. price, quantity and totalAmount must be numbers, not strings
6. If no total is printed, compute totalAmount as the sum of price times quantity over all items
7. Do not include any text before or after the JSON
8. Do not use markdown code blocks`

// BuildPrompt embeds the OCR text into the receipt parsing prompt
func BuildPrompt(rawText string) string {
	return strings.Replace(receiptParsePrompt, "{{RECEIPT_TEXT}}", strings.TrimSpace(rawText), 1)
}
