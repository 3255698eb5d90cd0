package cmd

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/santacall/internal/prompts"
)

// ArcsCommand returns the command for inspecting conversation arcs
func ArcsCommand() *cli.Command {
	return &cli.Command{
		Name:  "arcs",
		Usage: "Inspect conversation arcs",
		Flags: []cli.Flag{arcsFlag()},
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List the configured arcs",
				Action: runArcsList,
			},
			{
				Name:      "show",
				Usage:     "Show the phases of one arc",
				ArgsUsage: "<duration>",
				Action:    runArcsShow,
			},
		},
	}
}

func runArcsList(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	applyArcsFlag(c, cfg)
	repo, err := loadArcs(cfg)
	if err != nil {
		return err
	}

	w := c.App.Writer
	for _, key := range repo.Keys() {
		arc, err := repo.Get(key)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%-8s %-30s %4ds  %d phases\n", key, arc.Name, arc.TotalDurationSeconds, arc.PhaseCount())
	}
	for _, b := range repo.Buckets() {
		fmt.Fprintf(w, "%-8s ages %d-%d, %d greetings\n", b.Key, b.MinAge, b.MaxAge, len(b.Templates))
	}
	return nil
}

func runArcsShow(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: santacall arcs show <duration>")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	applyArcsFlag(c, cfg)
	repo, err := loadArcs(cfg)
	if err != nil {
		return err
	}

	arc, err := repo.Get(c.Args().First())
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "%s (%s, %ds)\n", arc.Name, arc.Key, arc.TotalDurationSeconds)
	for i, p := range arc.Phases {
		fmt.Fprintf(w, "%d. %s (%ds)\n", i+1, prompts.HumanizeName(p.Name), p.DurationSeconds)
		if len(p.Goals) > 0 {
			fmt.Fprintf(w, "   goals: %s\n", strings.Join(p.Goals, "; "))
		}
	}
	if t := arc.Timing; t != nil {
		fmt.Fprintf(w, "timing: avg %.1fs, max %.1fs, pause %.1fs\n",
			t.AverageResponseLengthSeconds, t.MaxResponseLengthSeconds, t.PauseBetweenResponsesSeconds)
	}
	return nil
}
