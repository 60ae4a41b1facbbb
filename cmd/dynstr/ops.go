package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"dynstr-go/internal/fn"
	"dynstr-go/pkg/dynstr"
)

var (
	concatCommand = &cli.Command{
		Name:      "concat",
		Usage:     "append every argument to an empty string and print the result",
		UsageText: "dynstr concat [--save NAME] PART...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "save",
				Usage: "Also store the result under `NAME`",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Print length and capacity after every append",
			},
		},
		Action: concatCmd,
	}

	atCommand = &cli.Command{
		Name:      "at",
		Usage:     "print the byte at a position",
		UsageText: "dynstr at STRING POS",
		Action:    atCmd,
	}

	substrCommand = &cli.Command{
		Name:      "substr",
		Usage:     "print bytes [START, END) of a string; END defaults to the length",
		UsageText: "dynstr substr STRING START [END]",
		Action:    substrCmd,
	}

	eqCommand = &cli.Command{
		Name:      "eq",
		Usage:     "compare two strings byte for byte; exits 1 when they differ",
		UsageText: "dynstr eq A B",
		Action:    eqCmd,
	}
)

func concatCmd(c *cli.Context) error {
	s := dynstr.Empty(rt.allocator)
	defer s.Release()

	for _, part := range c.Args().Slice() {
		s.AppendRaw([]byte(part))
		if c.Bool("verbose") {
			fmt.Fprintf(c.App.ErrWriter, "len=%d cap=%d\n", s.Len(), s.Cap())
		}
	}
	fmt.Fprintln(c.App.Writer, s.String())

	if name := c.String("save"); name != "" {
		return saveString(name, s)
	}
	return nil
}

func atCmd(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("Error: at expects STRING and POS.", 1)
	}
	pos, err := strconv.Atoi(c.Args().Get(1))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: invalid position %q", c.Args().Get(1)), 1)
	}

	s := dynstr.FromRaw(rt.allocator, []byte(c.Args().Get(0)))
	defer s.Release()

	b, err := s.At(pos)
	if err != nil {
		return outOfBound(err)
	}
	fmt.Fprintf(c.App.Writer, "%q (0x%02x)\n", b, b)
	return nil
}

func substrCmd(c *cli.Context) error {
	if c.NArg() < 2 || c.NArg() > 3 {
		return cli.Exit("Error: substr expects STRING START [END].", 1)
	}
	start, err := strconv.Atoi(c.Args().Get(1))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: invalid start %q", c.Args().Get(1)), 1)
	}

	s := dynstr.FromRaw(rt.allocator, []byte(c.Args().Get(0)))
	defer s.Release()

	var sub *dynstr.DynString
	if c.NArg() == 3 {
		end, err := strconv.Atoi(c.Args().Get(2))
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error: invalid end %q", c.Args().Get(2)), 1)
		}
		sub, err = s.Substring(start, end)
		if err != nil {
			return outOfBound(err)
		}
	} else {
		sub, err = s.SubstringFrom(start)
		if err != nil {
			return outOfBound(err)
		}
	}
	defer sub.Release()

	fmt.Fprintln(c.App.Writer, sub.String())
	return nil
}

func eqCmd(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("Error: eq expects A and B.", 1)
	}
	a := dynstr.FromRaw(rt.allocator, []byte(c.Args().Get(0)))
	defer a.Release()
	b := dynstr.FromRaw(rt.allocator, []byte(c.Args().Get(1)))
	defer b.Release()

	equal := a.EqualsTo(b)
	fmt.Fprintln(c.App.Writer, fn.T(equal, "equal", "different"))
	if !equal {
		return cli.Exit("", 1)
	}
	return nil
}

func outOfBound(err error) error {
	if errors.Is(err, dynstr.ErrOutOfBound) {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 2)
	}
	return err
}
