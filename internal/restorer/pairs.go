package restorer

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"docx-translator/internal/logger"
	"docx-translator/internal/types"
)

// Pair is a translated document matched with its original.
type Pair struct {
	Translation string
	Original    string
}

// Unmatched records a translation whose original could not be located.
type Unmatched struct {
	Translation      string
	ExpectedOriginal string
}

// Translation naming conventions observed in delivered batches. File stems
// carry one of these suffixes; folder names use the shorter folder set.
var (
	fileSuffixes   = []string{"_translated_en-us", "_translated_en_us", "_to_en_us", "_to_en-us", "_en", "_EN"}
	folderSuffixes = []string{"_to_en_us", "_en", "_EN", "_translated"}
)

// originalFileName strips the translation suffix from a file name.
func originalFileName(name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for _, suffix := range fileSuffixes {
		if strings.Contains(stem, suffix) {
			return strings.ReplaceAll(stem, suffix, "") + ext
		}
	}
	return name
}

// originalDirPath strips translation suffixes from each folder component
// of a relative path.
func originalDirPath(rel string) string {
	if rel == "." || rel == "" {
		return ""
	}
	parts := strings.Split(rel, string(filepath.Separator))
	for i, part := range parts {
		for _, suffix := range folderSuffixes {
			if strings.HasSuffix(part, suffix) {
				parts[i] = strings.TrimSuffix(part, suffix)
				break
			}
		}
	}
	return filepath.Join(parts...)
}

// FindPairs walks translationsRoot recursively and matches every .docx and
// .pdf with its original under originalsRoot by stripping translation
// suffixes from file and folder names. Office lock files and already
// restored outputs are skipped.
func FindPairs(translationsRoot, originalsRoot string) ([]Pair, []Unmatched, error) {
	var pairs []Pair
	var unmatched []Unmatched

	err := filepath.WalkDir(translationsRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, "~$") || strings.Contains(name, "_restored") {
			return nil
		}
		switch strings.ToLower(filepath.Ext(name)) {
		case ".docx", ".pdf":
		default:
			return nil
		}

		rel, relErr := filepath.Rel(translationsRoot, path)
		if relErr != nil {
			return nil
		}

		origPath := filepath.Join(originalsRoot,
			originalDirPath(filepath.Dir(rel)),
			originalFileName(name))

		if _, statErr := os.Stat(origPath); statErr != nil {
			unmatched = append(unmatched, Unmatched{
				Translation:      path,
				ExpectedOriginal: origPath,
			})
			return nil
		}
		pairs = append(pairs, Pair{Translation: path, Original: origPath})
		return nil
	})
	if err != nil {
		return nil, nil, types.NewAppErrorWithDetails(types.ErrInvalidInput,
			"failed to walk translations folder", translationsRoot, err)
	}

	logger.Info("pair discovery finished",
		logger.String("translations", translationsRoot),
		logger.Int("pairs", len(pairs)),
		logger.Int("unmatched", len(unmatched)))

	return pairs, unmatched, nil
}
