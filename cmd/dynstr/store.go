package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"dynstr-go/pkg/dynstr"
	"dynstr-go/pkg/log"
	"dynstr-go/pkg/store"
)

var (
	saveCommand = &cli.Command{
		Name:      "save",
		Usage:     "store a string under a name",
		UsageText: "dynstr save NAME VALUE",
		Action:    saveCmd,
	}

	loadCommand = &cli.Command{
		Name:      "load",
		Usage:     "print a stored string, optionally appending more bytes first",
		UsageText: "dynstr load [--append TEXT] NAME",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "append",
				Aliases: []string{"a"},
				Usage:   "Append `TEXT` to the loaded value and store it back",
			},
		},
		Action: loadCmd,
	}

	listCommand = &cli.Command{
		Name:   "list",
		Usage:  "list stored names",
		Action: listCmd,
	}

	rmCommand = &cli.Command{
		Name:      "rm",
		Usage:     "delete a stored string",
		UsageText: "dynstr rm NAME",
		Action:    rmCmd,
	}
)

func openStore() (*store.Store, error) {
	pipeline, err := rt.cfg.NewPipeline()
	if err != nil {
		return nil, err
	}
	path, err := rt.cfg.ResolveStorePath()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(path, pipeline)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("Error opening store %s: %v", path, err), 1)
	}
	return st, nil
}

func saveString(name string, s *dynstr.DynString) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Put(name, s); err != nil {
		return err
	}
	log.Info().Str("name", name).Int("length", s.Len()).Msg("dynstr: saved")
	return nil
}

func saveCmd(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("Error: save expects NAME and VALUE.", 1)
	}
	s := dynstr.FromRaw(rt.allocator, []byte(c.Args().Get(1)))
	defer s.Release()
	return saveString(c.Args().Get(0), s)
}

func loadCmd(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("Error: load expects NAME.", 1)
	}
	name := c.Args().First()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	s, err := st.Get(name, rt.allocator)
	if err != nil {
		return notFound(err)
	}
	defer s.Release()

	if extra := c.StringSlice("append"); len(extra) > 0 {
		for _, e := range extra {
			s.AppendRaw([]byte(e))
		}
		if err := st.Put(name, s); err != nil {
			return err
		}
		log.Info().Str("name", name).Int("length", s.Len()).Msg("dynstr: appended")
	}
	fmt.Fprintln(c.App.Writer, s.String())
	return nil
}

func listCmd(c *cli.Context) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	names, err := st.Names()
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Fprintln(c.App.Writer, n)
	}
	return nil
}

func rmCmd(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("Error: rm expects NAME.", 1)
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	name := c.Args().First()
	if err := st.Delete(name); err != nil {
		return notFound(err)
	}
	log.Info().Str("name", name).Msg("dynstr: removed")
	return nil
}

func notFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}
	return err
}
