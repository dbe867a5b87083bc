package translator

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"docx-translator/internal/types"
)

// NormalizeLang validates a language code and returns it in DeepL's
// uppercase form, e.g. "en-us" becomes "EN-US".
func NormalizeLang(code string) (string, error) {
	if code == "" {
		return "", nil
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", types.NewAppErrorWithDetails(types.ErrInvalidInput,
			"invalid language code", code, err)
	}
	return strings.ToUpper(tag.String()), nil
}

// ResolvePair normalizes a source and target code and checks the direction
// against the configured language pairs.
func ResolvePair(source, target string, pairs []types.LanguagePair) (string, string, error) {
	src, err := NormalizeLang(source)
	if err != nil {
		return "", "", err
	}
	tgt, err := NormalizeLang(target)
	if err != nil {
		return "", "", err
	}
	if tgt == "" {
		return "", "", types.NewAppError(types.ErrInvalidInput, "target language is required", nil)
	}

	for _, p := range pairs {
		if strings.EqualFold(p.Source, src) && strings.EqualFold(p.Target, tgt) {
			return src, tgt, nil
		}
	}

	names := make([]string, len(pairs))
	for i, p := range pairs {
		names[i] = fmt.Sprintf("%s->%s", p.Source, p.Target)
	}
	return "", "", types.NewAppErrorWithDetails(types.ErrInvalidInput,
		"unsupported translation direction",
		fmt.Sprintf("%s->%s (supported: %s)", src, tgt, strings.Join(names, ", ")), nil)
}
