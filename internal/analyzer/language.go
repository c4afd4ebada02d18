package analyzer

import "github.com/abadojack/whatlanggo"

// ocrLangMap maps ISO 639-1 language codes to tesseract language codes.
var ocrLangMap = map[string]string{
	"en": "eng",
	"es": "spa",
	"fr": "fra",
	"de": "deu",
	"it": "ita",
	"pt": "por",
}

// defaultOCRLang is the fallback OCR language.
const defaultOCRLang = "eng"

// detectLanguage runs best-effort language detection over a text sample and
// returns an ISO 639-1 code, or empty when detection is unreliable.
func detectLanguage(sample string) string {
	info := whatlanggo.Detect(sample)
	if !info.IsReliable() {
		return ""
	}
	return whatlanggo.LangToStringShort(info.Lang)
}

// OCRLanguages maps a detected ISO 639-1 language to the tesseract language
// string, always appending the default as a fallback unless the detected
// language already is the default.
func OCRLanguages(detected string) string {
	base, ok := ocrLangMap[detected]
	if !ok {
		base = defaultOCRLang
	}
	if base != defaultOCRLang {
		return base + "+" + defaultOCRLang
	}
	return base
}
