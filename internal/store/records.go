package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

// Default record file names.
const (
	DefaultGestureFile = "gestos_salvos.json"
	DefaultPhraseFile  = "frases_salvas.json"
)

// RecordFiles is a Backend over two files: the gesture file maps each name to
// its landmark list and the phrase file holds {"frases": [{"nome", "sequencia"}]}.
// Files ending in .yaml or .yml are read and written as YAML, everything else as
// JSON.
//
// Writes go to a temporary file that is renamed over the target, under an
// advisory lock on "<file>.lock" shared with readers.
type RecordFiles struct {
	gesturePath string
	phrasePath  string
}

var _ Backend = (*RecordFiles)(nil)

// NewRecordFiles creates a record-file backend. Neither file needs to exist yet.
func NewRecordFiles(gesturePath, phrasePath string) *RecordFiles {
	return &RecordFiles{gesturePath: gesturePath, phrasePath: phrasePath}
}

// GesturePath returns the gesture file path.
func (r *RecordFiles) GesturePath() string { return r.gesturePath }

// PhrasePath returns the phrase file path.
func (r *RecordFiles) PhrasePath() string { return r.phrasePath }

type phraseFile struct {
	Frases []phraseRecord `json:"frases" yaml:"frases"`
}

type phraseRecord struct {
	Nome      string   `json:"nome" yaml:"nome"`
	Sequencia []string `json:"sequencia" yaml:"sequencia"`
}

// LoadGestures reads the gesture file. Records whose landmarks cannot be decoded
// are skipped; a file that is not a mapping is an error.
func (r *RecordFiles) LoadGestures() ([]gesture.Template, error) {
	data, err := readLocked(r.gesturePath)
	if err != nil {
		return nil, err
	}
	if isYAML(r.gesturePath) {
		return decodeGesturesYAML(data)
	}
	return decodeGesturesJSON(data)
}

// SaveGestures writes templates to the gesture file in order.
func (r *RecordFiles) SaveGestures(templates []gesture.Template) error {
	var data []byte
	var err error
	if isYAML(r.gesturePath) {
		data, err = encodeGesturesYAML(templates)
	} else {
		data, err = encodeGesturesJSON(templates)
	}
	if err != nil {
		return fmt.Errorf("encode gestures: %w", err)
	}
	return writeAtomic(r.gesturePath, data)
}

// LoadPhrases reads the phrase file.
func (r *RecordFiles) LoadPhrases() ([]gesture.SequenceEntry, error) {
	data, err := readLocked(r.phrasePath)
	if err != nil {
		return nil, err
	}

	var file phraseFile
	if isYAML(r.phrasePath) {
		err = yaml.Unmarshal(data, &file)
	} else {
		err = json.Unmarshal(data, &file)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.phrasePath, err)
	}

	entries := make([]gesture.SequenceEntry, 0, len(file.Frases))
	for _, rec := range file.Frases {
		entries = append(entries, gesture.SequenceEntry{Phrase: rec.Nome, Gestures: rec.Sequencia})
	}
	return entries, nil
}

// SavePhrases writes entries to the phrase file in order.
func (r *RecordFiles) SavePhrases(entries []gesture.SequenceEntry) error {
	file := phraseFile{Frases: make([]phraseRecord, 0, len(entries))}
	for _, e := range entries {
		seq := e.Gestures
		if seq == nil {
			seq = []string{}
		}
		file.Frases = append(file.Frases, phraseRecord{Nome: e.Phrase, Sequencia: seq})
	}

	var data []byte
	var err error
	if isYAML(r.phrasePath) {
		data, err = yaml.Marshal(file)
	} else {
		data, err = marshalIndent(file)
	}
	if err != nil {
		return fmt.Errorf("encode phrases: %w", err)
	}
	return writeAtomic(r.phrasePath, data)
}

// Close is a no-op; files are opened per call.
func (r *RecordFiles) Close() error {
	return nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func decodeGesturesJSON(data []byte) ([]gesture.Template, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode gestures: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("decode gestures: expected an object of name to landmarks")
	}

	var templates []gesture.Template
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode gestures: %w", err)
		}
		name, _ := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode gesture %q: %w", name, err)
		}

		var landmarks detector.LandmarkSet
		if err := json.Unmarshal(raw, &landmarks); err != nil {
			continue
		}
		templates = append(templates, gesture.Template{Name: name, Landmarks: landmarks})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode gestures: %w", err)
	}
	return templates, nil
}

func encodeGesturesJSON(templates []gesture.Template) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, t := range templates {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalJSON(t.Name)
		if err != nil {
			return nil, err
		}
		landmarks := t.Landmarks
		if landmarks == nil {
			landmarks = detector.LandmarkSet{}
		}
		value, err := marshalJSON(landmarks)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "    "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func decodeGesturesYAML(data []byte) ([]gesture.Template, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode gestures: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("decode gestures: expected a mapping of name to landmarks")
	}

	var templates []gesture.Template
	for i := 0; i+1 < len(root.Content); i += 2 {
		var landmarks detector.LandmarkSet
		if err := root.Content[i+1].Decode(&landmarks); err != nil {
			continue
		}
		templates = append(templates, gesture.Template{Name: root.Content[i].Value, Landmarks: landmarks})
	}
	return templates, nil
}

func encodeGesturesYAML(templates []gesture.Template) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, t := range templates {
		var value yaml.Node
		if err := value.Encode(t.Landmarks); err != nil {
			return nil, err
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: t.Name},
			&value,
		)
	}
	return yaml.Marshal(root)
}

// marshalJSON encodes v without escaping HTML characters, so names keep their
// accents and symbols as typed.
func marshalJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func marshalIndent(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func readLocked(path string) ([]byte, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	lock := flock.New(path + ".lock")
	if err := lock.RLock(); err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	defer func() { _ = lock.Unlock() }()

	return os.ReadFile(path)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
