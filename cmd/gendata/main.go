package main

import (
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/spec-kit/support-insights/internal/domain"
	"github.com/spec-kit/support-insights/internal/store"
)

var (
	countFlag int
	outFlag   string
	seedFlag  int64
)

var rootCmd = &cobra.Command{
	Use:   "gendata",
	Short: "Write a synthetic support ticket CSV",
	RunE:  runGenerate,
}

func init() {
	rootCmd.Flags().IntVarP(&countFlag, "count", "n", 1000, "Number of tickets to generate")
	rootCmd.Flags().StringVarP(&outFlag, "out", "o", "support_tickets.csv", "Output CSV path")
	rootCmd.Flags().Int64Var(&seedFlag, "seed", 0, "Random seed (0 picks one from the clock)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	if countFlag < 0 {
		return fmt.Errorf("--count must not be negative")
	}
	seed := seedFlag
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	tickets, err := generate(rand.New(rand.NewSource(seed)), countFlag, time.Now().UTC())
	if err != nil {
		return err
	}
	table, err := store.NewTable(tickets)
	if err != nil {
		return err
	}

	f, err := os.Create(outFlag)
	if err != nil {
		return fmt.Errorf("create %s: %w", outFlag, err)
	}
	if err := store.WriteCSV(f, table); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s created with %d tickets.\n", outFlag, table.Len())
	return nil
}

var (
	firstNames = []string{"Alice", "Bruno", "Chen", "Dana", "Elif", "Farah", "Goran", "Hana", "Ivan", "Jorge", "Kemi", "Lena", "Mateo", "Nora", "Omar", "Priya"}
	lastNames  = []string{"Anders", "Baker", "Costa", "Diaz", "Evans", "Fischer", "Garcia", "Hughes", "Ito", "Jones", "Khan", "Lopez", "Moreau", "Nguyen", "Okafor", "Patel"}
	words      = []string{
		"account", "after", "app", "button", "card", "checkout", "crashes", "login", "password",
		"payment", "screen", "slow", "support", "update", "page", "error", "again", "cannot",
		"every", "time", "when", "open", "the", "my", "settings", "feature", "missing", "menu",
	}
)

const issueWords = 12

// generate builds count tickets created between the start of now's year and now.
func generate(rng *rand.Rand, count int, now time.Time) ([]domain.Ticket, error) {
	start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	span := now.Sub(start)
	categories := domain.Categories()

	tickets := make([]domain.Ticket, 0, count)
	for i := 0; i < count; i++ {
		id, err := uuid.NewRandomFromReader(rng)
		if err != nil {
			return nil, fmt.Errorf("ticket id: %w", err)
		}
		var offset time.Duration
		if span > 0 {
			offset = time.Duration(rng.Int63n(int64(span)))
		}
		tickets = append(tickets, domain.Ticket{
			ID:        id.String(),
			Submitter: firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))],
			IssueText: sentence(rng, issueWords),
			Category:  categories[rng.Intn(len(categories))],
			CreatedAt: start.Add(offset).Truncate(time.Second),
		})
	}
	return tickets, nil
}

func sentence(rng *rand.Rand, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = words[rng.Intn(len(words))]
	}
	s := strings.Join(parts, " ")
	return strings.ToUpper(s[:1]) + s[1:] + "."
}
