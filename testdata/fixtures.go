// Package testdata embeds landmark captures and record files shared by tests.
package testdata

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/ayusman/mudra/internal/detector"
)

//go:embed landmarks/*.json records/*.json
var fixturesFS embed.FS

// Landmarks loads one raw landmark capture from landmarks/name.
func Landmarks(name string) (detector.LandmarkSet, error) {
	var set detector.LandmarkSet
	if err := decode("landmarks/"+name, &set); err != nil {
		return nil, err
	}
	return set, nil
}

// Sequence loads a list of captures, one per frame. An empty capture is a
// frame without a hand.
func Sequence(name string) ([]detector.LandmarkSet, error) {
	var seq []detector.LandmarkSet
	if err := decode("landmarks/"+name, &seq); err != nil {
		return nil, err
	}
	return seq, nil
}

// WriteFile copies the embedded file at name (e.g. "records/gestos_salvos.json")
// into dir and returns the path written.
func WriteFile(dir, name string) (string, error) {
	data, err := fixturesFS.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("load fixture %s: %w", name, err)
	}
	dst := filepath.Join(dir, path.Base(name))
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", err
	}
	return dst, nil
}

// WriteRecords copies the sample gesture and phrase files into dir.
func WriteRecords(dir string) error {
	for _, name := range []string{"records/gestos_salvos.json", "records/frases_salvas.json"} {
		if _, err := WriteFile(dir, name); err != nil {
			return err
		}
	}
	return nil
}

func decode(name string, v interface{}) error {
	data, err := fixturesFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("load fixture %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode fixture %s: %w", name, err)
	}
	return nil
}
