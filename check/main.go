package main

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/zeebo/errs"
	"github.com/zeebo/mon"
	"github.com/zeebo/mon/monhandler"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/zeebo/bitfield"
	"github.com/zeebo/bitfield/schema"
)

func main() {
	app := cli.NewApp()
	app.Name = "check"
	app.Usage = "decode and edit values with a bit-field schema"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "schema", Usage: "schema file declaring the types"},
		cli.StringFlag{Name: "type", Usage: "declared type to decode values with"},
		cli.UintFlag{Name: "bits", Usage: "record width in bits for dump (default: size of the type)"},
		cli.BoolFlag{Name: "stats", Usage: "print timing stats on exit"},
		cli.StringFlag{Name: "debug-addr", Usage: "serve monitoring stats on this address"},
		cli.BoolFlag{Name: "verbose", Usage: "log at debug level"},
	}
	app.Commands = []cli.Command{
		{
			Name:      "decode",
			Usage:     "print values decoded with the type",
			ArgsUsage: "VALUE...",
			Action:    decode,
		},
		{
			Name:      "set",
			Usage:     "apply writes to a value and print the result",
			ArgsUsage: "VALUE KEY=X...",
			Action:    set,
		},
		{
			Name:      "dump",
			Usage:     "print every record of a packed binary file",
			ArgsUsage: "FILE",
			Action:    dump,
		},
	}
	app.Before = func(c *cli.Context) error {
		if addr := c.GlobalString("debug-addr"); addr != "" {
			go http.ListenAndServe(addr, monhandler.Handler{})
		}
		return nil
	}
	app.After = func(c *cli.Context) error {
		if c.GlobalBool("stats") {
			stats()
		}
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func stats() {
	tw := tabwriter.NewWriter(os.Stderr, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	mon.Times(func(name string, state *mon.State) bool {
		sum, avg := state.Average()
		fmt.Fprintf(tw, "%s\t%v\t%v\t%v\n",
			name, state.Total(), time.Duration(sum), time.Duration(avg))
		return true
	})
}

type env struct {
	log *zap.Logger
	typ *bitfield.Descriptor
}

func setup(c *cli.Context) (*env, error) {
	var log *zap.Logger
	var err error
	if c.GlobalBool("verbose") {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return nil, errs.Wrap(err)
	}

	path := c.GlobalString("schema")
	if path == "" {
		return nil, errs.New("--schema is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(err)
	}

	reg := bitfield.NewRegistry(bitfield.WithLogger(log))
	types, err := schema.Load(context.Background(), reg, string(data))
	if err != nil {
		return nil, errs.Wrap(err)
	}
	log.Debug("loaded schema", zap.String("path", path), zap.Int("types", len(types)))

	name := c.GlobalString("type")
	typ, ok := types[name]
	if !ok {
		return nil, errs.New("type %q is not declared in %s", name, path)
	}
	return &env{log: log, typ: typ}, nil
}

func decode(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	for _, arg := range c.Args() {
		v, err := e.typ.Parse(arg, 0)
		if err != nil {
			return errs.Wrap(err)
		}
		fmt.Println(v)
	}
	return nil
}

func set(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	if !c.Args().Present() {
		return errs.New("missing VALUE")
	}
	v, err := e.typ.Parse(c.Args().First(), 0)
	if err != nil {
		return errs.Wrap(err)
	}

	for _, arg := range c.Args().Tail() {
		key, val, ok := strings.Cut(arg, "=")
		if !ok {
			return errs.New("write %q is not KEY=X", arg)
		}
		x, ok := new(big.Int).SetString(val, 0)
		if !ok {
			return errs.New("write %q has an invalid value", arg)
		}
		if err := v.Set(parseKey(key), x); err != nil {
			return errs.Wrap(err)
		}
		e.log.Debug("applied write", zap.String("key", key), zap.Stringer("value", x))
	}

	fmt.Println(v)
	fmt.Printf("%#v\n", v)
	return nil
}

// parseKey returns a field name, or a Range when key is a bit position.
func parseKey(key string) interface{} {
	if key != "" && '0' <= key[0] && key[0] <= '9' {
		if r, err := schema.ParseRange(key); err == nil {
			return r
		}
	}
	return key
}

func dump(c *cli.Context) (err error) {
	defer mon.Start().Stop(&err)

	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	bits := c.GlobalUint("bits")
	if bits == 0 {
		size, ok := e.typ.Size()
		if !ok {
			return errs.New("type %s is unsized: --bits is required", e.typ.Name())
		}
		bits = size
	}

	if !c.Args().Present() {
		return errs.New("missing FILE")
	}
	fh, err := os.Open(c.Args().First())
	if err != nil {
		return errs.Wrap(err)
	}
	defer fh.Close()

	buf, err := mapFile(fh)
	if err != nil {
		return err
	}
	defer func() {
		if buf != nil {
			err = errs.Combine(err, unix.Munmap(buf))
		}
	}()

	p := bitfield.NewPacked(buf, bits)
	e.log.Debug("mapped dump", zap.Int("bytes", len(buf)), zap.Uint("records", p.Len()))

	for i := uint(0); i < p.Len(); i++ {
		v, err := e.typ.New(p.Get(i))
		if err != nil {
			return errs.Wrap(err)
		}
		fmt.Printf("%d: %v\n", i, v)
	}
	return nil
}

// mapFile maps the whole file read only. An empty file maps to nil.
func mapFile(fh *os.File) ([]byte, error) {
	fi, err := fh.Stat()
	if err != nil {
		return nil, errs.Wrap(err)
	}
	if fi.Size() == 0 {
		return nil, nil
	}

	buf, err := unix.Mmap(int(fh.Fd()), 0, int(fi.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return buf, nil
}
