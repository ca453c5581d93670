package actions

import (
	"discovernow/internal/playlist"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v2"
)

// BlacklistAdd stores the artists given as arguments, or asks for one
func BlacklistAdd(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	names := c.Args().Slice()
	if len(names) == 0 {
		var name string
		if err := huh.NewInput().
			Title("Which artist should never be recommended?").
			Value(&name).
			Run(); err != nil {
			return err
		}
		names = []string{name}
	}

	bl := rt.backend.Blacklist()
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		added, err := bl.Append(c.Context, playlist.BlacklistRecord{Name: name, DateBlacklisted: time.Now()})
		if err != nil {
			return fmt.Errorf("failed to blacklist %q: %w", name, err)
		}
		if added {
			fmt.Fprintf(rt.out, "Blacklisted %s\n", name)
		} else {
			fmt.Fprintf(rt.out, "%s is already blacklisted\n", name)
		}
	}
	return nil
}

// BlacklistList prints every blacklisted artist
func BlacklistList(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	records, err := rt.backend.Blacklist().List(c.Context)
	if err != nil {
		return fmt.Errorf("failed to read blacklist: %w", err)
	}
	if len(records) == 0 {
		fmt.Fprintln(rt.out, "The blacklist is empty")
		return nil
	}
	for _, r := range records {
		fmt.Fprintf(rt.out, "%s\t%s\n", r.Name, r.DateBlacklisted.Format("2006-01-02"))
	}
	return nil
}
