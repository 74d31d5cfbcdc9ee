package annotation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// setFile is the on-disk shape of an annotation set: one file per
// annotated image, produced by the content pipeline.
type setFile struct {
	ImageID     string       `yaml:"image_id"`
	Annotations []Annotation `yaml:"annotations"`
}

// LoadDir walks a content directory and collects every annotation from
// *.yaml / *.yml set files. Files that do not parse as annotation sets
// are skipped with a warning rather than aborting the load.
func LoadDir(rootDir string) ([]Annotation, error) {
	var all []Annotation

	err := filepath.Walk(rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		var set setFile
		if err := yaml.Unmarshal(data, &set); err != nil {
			slog.Warn("skipping invalid annotation set", "path", path, "error", err)
			return nil
		}
		if len(set.Annotations) == 0 {
			return nil // Not an annotation set file
		}

		for i := range set.Annotations {
			if set.Annotations[i].ImageID == "" {
				set.Annotations[i].ImageID = set.ImageID
			}
			if err := set.Annotations[i].Validate(); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}
		all = append(all, set.Annotations...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading annotations: %w", err)
	}

	slog.Info("annotations loaded", "dir", rootDir, "count", len(all))
	return all, nil
}
