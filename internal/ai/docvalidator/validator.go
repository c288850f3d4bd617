// Package docvalidator reads compliance documents with OpenAI vision and
// returns the fields the acceptance rules check.
package docvalidator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Abraxas-365/cae/compliance/document"
	"github.com/Abraxas-365/cae/internal/pdf"
	"github.com/Abraxas-365/cae/pkg/i18n"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared/constant"
)

const DefaultModel = "gpt-4o"

// Validator implements document.Inspector using OpenAI Vision
type Validator struct {
	client *openai.Client
	model  string
}

// NewValidator creates a new document validator. Extra options are passed
// to the OpenAI client (base URL, retries, HTTP client).
func NewValidator(apiKey, model string, opts ...option.RequestOption) *Validator {
	if model == "" {
		model = DefaultModel
	}
	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &Validator{
		client: &client,
		model:  model,
	}
}

var _ document.Inspector = (*Validator)(nil)

const systemPrompt = `You are a document checker for a Spanish construction-site contractor compliance platform (CAE/PRL). You read scanned certificates and return ONLY valid JSON.`

func userPrompt(declared document.DocumentType) string {
	var types []string
	for _, entry := range document.Catalog() {
		types = append(types, fmt.Sprintf("  - %s: %s", entry.Type, i18n.T(i18n.ES, entry.Label)))
	}
	return fmt.Sprintf(`The uploader says this is a %s document. Read every page and return this JSON structure:

{
  "holder_name": string (company or person the document is issued to),
  "holder_tax_id": string (CIF of the company, or DNI/NIE of the person, exactly as printed),
  "document_type": string (one of the codes below, or "UNKNOWN"),
  "issue_date": string (YYYY-MM-DD, empty if not printed),
  "expiry_date": string (YYYY-MM-DD, empty if not printed or not applicable),
  "legible": boolean (false if the scan is too blurry, cropped or dark to read reliably),
  "confidence": number (0.0 to 1.0, your confidence in the extracted fields),
  "issues": string[] (short notes about anything suspicious)
}

Document type codes:
%s

IMPORTANT:
- Do not guess identifiers; leave holder_tax_id empty if it is not readable
- Dates printed as DD/MM/YYYY must be converted to YYYY-MM-DD
- Return ONLY the JSON, no explanatory text`, declared, strings.Join(types, "\n"))
}

// Inspect rasterizes the file and asks the model to extract the document fields
func (v *Validator) Inspect(ctx context.Context, req document.InspectRequest) (*document.Extraction, error) {
	pages, err := pdf.Pages(req.FileType, req.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare pages: %w", err)
	}
	if len(pages) == 0 {
		return nil, errors.New("no pages provided")
	}

	contentParts := []openai.ChatCompletionContentPartUnionParam{
		{
			OfText: &openai.ChatCompletionContentPartTextParam{
				Type: constant.Text("text"),
				Text: userPrompt(req.Type),
			},
		},
	}
	for i, pageData := range pages {
		dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(pageData)
		contentParts = append(contentParts, openai.ChatCompletionContentPartUnionParam{
			OfImageURL: &openai.ChatCompletionContentPartImageParam{
				Type: constant.ImageURL("image_url"),
				ImageURL: openai.ChatCompletionContentPartImageImageURLParam{
					URL:    dataURL,
					Detail: "high", // High detail for better OCR
				},
			},
		})
		if i < len(pages)-1 {
			contentParts = append(contentParts, openai.ChatCompletionContentPartUnionParam{
				OfText: &openai.ChatCompletionContentPartTextParam{
					Type: constant.Text("text"),
					Text: fmt.Sprintf("--- Page %d ends, Page %d begins ---", i+1, i+2),
				},
			})
		}
	}

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
		{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfArrayOfContentParts: contentParts,
				},
			},
		},
	}

	completion, err := v.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    openai.ChatModel(v.model),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{
				Type: constant.JSONObject("json_object"),
			},
		},
		Temperature: openai.Float(0),
		MaxTokens:   openai.Int(1000),
	})
	if err != nil {
		return nil, fmt.Errorf("openai vision api error: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("no response from openai")
	}

	return parseExtraction(completion.Choices[0].Message.Content)
}

func parseExtraction(content string) (*document.Extraction, error) {
	var ex document.Extraction
	if err := json.Unmarshal([]byte(content), &ex); err != nil {
		return nil, fmt.Errorf("failed to parse extraction JSON: %w", err)
	}
	ex.HolderTaxID = strings.TrimSpace(ex.HolderTaxID)
	if strings.EqualFold(ex.DocumentType, "UNKNOWN") {
		ex.DocumentType = ""
	}
	if ex.Confidence < 0 {
		ex.Confidence = 0
	}
	if ex.Confidence > 1 {
		ex.Confidence = 1
	}
	return &ex, nil
}
