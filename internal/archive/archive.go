// Package archive names converted workflows and bundles them into a zip.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/loykin/j2g/internal/constants"
)

// File is one converted workflow ready to be archived.
type File struct {
	Name string
	Data []byte
}

// OutputName derives "<stem>-github-actions.yml" from an uploaded file name.
// Directories and the extension are dropped and the stem is slugged so the
// result is always a plain file name.
func OutputName(upload string) string {
	base := path.Base(strings.ReplaceAll(upload, "\\", "/"))
	stem := strings.TrimSuffix(base, path.Ext(base))
	if stem == "" || stem == "." || stem == "/" {
		stem = base
	}
	s := slug.Make(stem)
	if s == "" {
		return constants.DefaultYAMLName
	}
	return s + constants.OutputFileSuffix
}

// SafeName cleans a caller-supplied output name. An empty or unusable name
// falls back to the default workflow file name; a missing .yml/.yaml
// extension is added.
func SafeName(name string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	ext := strings.ToLower(path.Ext(base))
	stem := strings.TrimSuffix(base, path.Ext(base))
	s := slug.Make(stem)
	if s == "" {
		return constants.DefaultYAMLName
	}
	if ext != ".yml" && ext != ".yaml" {
		ext = ".yml"
	}
	return s + ext
}

// Zip writes files into an in-memory archive. Names that collide get a
// numeric suffix before the extension.
func Zip(files []File, modified time.Time) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	seen := make(map[string]int, len(files))
	for _, f := range files {
		name := uniqueName(f.Name, seen)
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return nil, fmt.Errorf("creating zip entry %s: %w", name, err)
		}
		if _, err := w.Write(f.Data); err != nil {
			return nil, fmt.Errorf("writing zip entry %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing zip writer: %w", err)
	}
	return buf.Bytes(), nil
}

func uniqueName(name string, seen map[string]int) string {
	n := seen[name]
	seen[name] = n + 1
	if n == 0 {
		return name
	}
	ext := path.Ext(name)
	candidate := fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), n+1, ext)
	if _, taken := seen[candidate]; taken {
		return uniqueName(candidate, seen)
	}
	seen[candidate] = 1
	return candidate
}
