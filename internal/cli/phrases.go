package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/gesture"
)

func newPhrasesCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phrases",
		Short: "List and add phrases made of gesture sequences",
	}
	cmd.AddCommand(newPhrasesListCmd(e), newPhrasesAddCmd(e))
	return cmd
}

func newPhrasesListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List phrases in the order they are tried",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, phrases, err := e.openLibrary()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			entries := phrases.Snapshot()
			printSection(w, fmt.Sprintf("Phrases (%d)", len(entries)))
			if len(entries) == 0 {
				printEmpty(w, `no phrases saved yet (run: mudra phrases add PHRASE "A, B")`)
				return nil
			}
			for _, p := range entries {
				fmt.Fprintf(w, "  %-32s %s\n", p.Phrase, strings.Join(p.Gestures, " → "))
			}
			return nil
		},
	}
}

func newPhrasesAddCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "add PHRASE GESTURES",
		Short: "Add a phrase spelled by a comma-separated gesture sequence",
		Example: `  mudra phrases add "Bom dia" "bom, dia"
  mudra phrases add "Olá, tudo joia?" "Oi, Joia"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			library, phrases, err := e.openLibrary()
			if err != nil {
				return err
			}

			entry := gesture.SequenceEntry{Phrase: args[0], Gestures: gesture.ParseSequence(args[1])}
			if err := phrases.Append(entry); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			printOK(w, fmt.Sprintf("saved %q: %s", strings.TrimSpace(entry.Phrase), strings.Join(entry.Gestures, " → ")))

			// Phrases may be saved before their gestures; point out the gaps.
			lib := library.Snapshot()
			for _, g := range entry.Gestures {
				if _, ok := lib.Get(g); !ok {
					fmt.Fprintf(w, "  ⚠  gesture %q is not in the library yet\n", g)
				}
			}
			return nil
		},
	}
}
