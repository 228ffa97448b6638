package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"verbquiz-service/internal/app"
	"verbquiz-service/internal/config"
	"verbquiz-service/internal/domain"

	"github.com/spf13/cobra"
)

// NewPlayCmd plays one game in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a game in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := domain.ParseMode(mode)
			if err != nil {
				return err
			}
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			b, err := newBackend(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer b.Close()
			return playGame(cmd.Context(), app.NewRouter(b.service), parsed, os.Stdin, os.Stdout)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(domain.ModePractice), "practice or challenge")
	return cmd
}

// quitCommand leaves the game early.
const quitCommand = ":q"

func playGame(ctx context.Context, router *app.Router, mode domain.Mode, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	readLine := func() (string, bool) {
		if !scanner.Scan() {
			return "", false
		}
		return scanner.Text(), true
	}
	defer router.EndGame(ctx)

	if mode == domain.ModePractice {
		fmt.Fprintln(out, "Oefenen: 5 vragen, met uitleg na elk antwoord.")
	} else {
		fmt.Fprintln(out, "Uitdaging: 10 vragen, de score volgt aan het eind.")
	}
	fmt.Fprintln(out, "Vragen worden gegenereerd...")

	if _, err := router.StartGame(ctx, mode); err != nil {
		return err
	}
	snap, err := router.Wait(ctx)
	if err != nil {
		return err
	}

	for {
		switch snap.State {
		case domain.StateErrored:
			fmt.Fprintln(out, snap.Error)
			return nil

		case domain.StateAnswering:
			if snap.Question == nil {
				if snap, err = router.Advance(ctx); err != nil {
					return err
				}
				continue
			}
			q := snap.Question
			fmt.Fprintf(out, "\nVraag %d/%d (%s)\n", snap.Index+1, snap.Total, q.Tense)
			fmt.Fprintf(out, "%s\n", strings.Replace(q.IncompleteSentence, domain.BlankMarker, "_____", 1))
			fmt.Fprintf(out, "Werkwoord: %s\n> ", q.Infinitive)
			line, ok := readLine()
			if !ok || strings.TrimSpace(line) == quitCommand {
				fmt.Fprintln(out, "\nSpel gestopt.")
				return nil
			}
			if snap, err = router.Submit(ctx, line); err != nil {
				return err
			}

		case domain.StateFeedback:
			if snap.Feedback.IsCorrect {
				fmt.Fprintln(out, "Goed!")
			} else {
				fmt.Fprintf(out, "Helaas. Het juiste antwoord is: %s\n", snap.Feedback.CorrectAnswer)
			}
			if snap.Feedback.Explanation != "" {
				fmt.Fprintln(out, snap.Feedback.Explanation)
			}
			fmt.Fprint(out, "Druk op Enter voor de volgende vraag.")
			if line, ok := readLine(); !ok || strings.TrimSpace(line) == quitCommand {
				fmt.Fprintln(out, "\nSpel gestopt.")
				return nil
			}
			if snap, err = router.Advance(ctx); err != nil {
				return err
			}

		case domain.StateFinished:
			printResults(out, snap.Results)
			return nil

		default:
			return fmt.Errorf("unexpected state %s", snap.State)
		}
	}
}

func printResults(out io.Writer, results *domain.Results) {
	fmt.Fprintf(out, "\nKlaar! Je score: %s\n\n", results.ScoreLine())
	for i, a := range results.Answers {
		mark := "✗"
		if a.IsCorrect {
			mark = "✓"
		}
		fmt.Fprintf(out, "%s %d. %s\n", mark, i+1, a.Question.Completed())
		if !a.IsCorrect {
			fmt.Fprintf(out, "     jouw antwoord: %s\n", a.UserAnswer)
		}
	}
}
