package actions

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// LibrarySize prints how many tracks the user has saved
func LibrarySize(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	provider, spotify, err := rt.spotify()
	if err != nil {
		return err
	}
	if _, err := provider.ValidToken(c.Context); err != nil {
		return err
	}

	total, err := spotify.Library().TotalCount(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintf(rt.out, "Your library has %d saved tracks\n", total)
	return nil
}

// Login authorizes discovernow with Spotify and stores the token
func Login(c *cli.Context) error {
	rt, err := setup(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	provider, spotify, err := rt.spotify()
	if err != nil {
		return err
	}
	if _, err := provider.Login(c.Context, nil); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	user, err := spotify.CurrentUserID(c.Context)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}
	fmt.Fprintln(rt.out, "You are logged in as:", user)
	return nil
}
