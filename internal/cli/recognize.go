package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

func newRecognizeCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "recognize FILE",
		Short: "Recognize gestures in a landmark file without a camera",
		Long: `Match landmark captures from a JSON file against the library.

FILE holds either one capture, a list of [x, y, z] points, or a list of
captures played as consecutive frames. With several frames the recent-gesture
window is kept and the recognized phrase is reported. An empty capture is a
frame without a hand.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			frames, err := readCaptures(args[0])
			if err != nil {
				return err
			}

			library, phrases, err := e.openLibrary()
			if err != nil {
				return err
			}

			cfg := gesture.Config{
				Threshold:  e.cfg.Recognition.Threshold,
				WindowSize: e.cfg.Recognition.WindowSize,
			}
			lib := library.Snapshot()
			entries := phrases.Snapshot()

			w := cmd.OutOrStdout()
			session := gesture.NewSession(cfg.WindowSize)
			var res gesture.Result
			for i, raw := range frames {
				res, session = gesture.Recognize(session, raw, lib, entries, cfg)
				switch {
				case !res.HandDetected:
					fmt.Fprintf(w, "%3d  %-16s\n", i+1, "(no hand)")
				case res.Gesture == gesture.NoMatch:
					fmt.Fprintf(w, "%3d  %-16s\n", i+1, res.Gesture)
				default:
					fmt.Fprintf(w, "%3d  %-16s distance %.4f\n", i+1, res.Gesture, res.Distance)
				}
			}

			phrase := res.Phrase
			if phrase == "" {
				phrase = "(none)"
			}
			fmt.Fprintf(w, "phrase: %s\n", phrase)
			return nil
		},
	}
}

// readCaptures reads one capture or a list of captures from path.
func readCaptures(path string) ([]detector.LandmarkSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var single detector.LandmarkSet
	if err := json.Unmarshal(data, &single); err == nil {
		return []detector.LandmarkSet{single}, nil
	}

	var request struct {
		Landmarks detector.LandmarkSet `json:"landmarks"`
	}
	if err := json.Unmarshal(data, &request); err == nil && len(request.Landmarks) > 0 {
		return []detector.LandmarkSet{request.Landmarks}, nil
	}

	var frames []detector.LandmarkSet
	if err := json.Unmarshal(data, &frames); err != nil {
		return nil, fmt.Errorf("%s: expected a landmark list or a list of landmark lists: %w", path, err)
	}
	return frames, nil
}
