//go:build !ios && !android && (amd64 || arm64)

// ffnative exercises the ownership layer end to end: it creates an
// owning cell (an AVDictionary when libavutil can be loaded, a plain
// native word otherwise), links a number of holders to it, releases the
// owner and reports what the cascade did.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/spf13/pflag"

	"github.com/obinnaokechukwu/ffnative/avutil"
	"github.com/obinnaokechukwu/ffnative/internal/bindings"
	"github.com/obinnaokechukwu/ffnative/native"
)

// allocatorEnv selects the default allocator when --allocator is not given.
const allocatorEnv = "FFNATIVE_ALLOCATOR"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	allocator string
	entries   []string
	cascade   int
	verbose   bool
}

func run(args []string) error {
	var opts options

	flagSet := pflag.NewFlagSet("ffnative", pflag.ContinueOnError)
	flagSet.StringVar(&opts.allocator, "allocator", os.Getenv(allocatorEnv), "cell allocator: page or ffmpeg (env "+allocatorEnv+")")
	flagSet.StringArrayVar(&opts.entries, "set", nil, "dictionary entry key=value (repeatable)")
	flagSet.IntVar(&opts.cascade, "cascade", 3, "number of holders linked to the owner")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "log ownership events to stderr")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}
	if opts.cascade < 0 {
		return fmt.Errorf("--cascade must not be negative, got %d", opts.cascade)
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	native.SetLogger(log)

	entries, err := parseEntries(opts.entries)
	if err != nil {
		return err
	}

	loadErr := bindings.Load()
	if loadErr != nil {
		log.Warn("libavutil not available, using a plain native cell", "error", loadErr)
	}

	alloc, err := selectAllocator(opts.allocator, loadErr == nil)
	if err != nil {
		return err
	}
	native.SetDefaultAllocator(alloc)
	defer native.SetDefaultAllocator(nil)

	var r *report
	if loadErr == nil {
		r, err = runDictionary(entries, opts.cascade)
	} else {
		r, err = runCell(opts.cascade)
	}
	if err != nil {
		return err
	}
	r.stats = allocatorStats(alloc)
	r.print(os.Stdout)
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `ffnative creates an owning native cell, links holders to it and releases it.

With libavutil available the cell holds an AVDictionary filled from --set
entries and freed with av_dict_free. Otherwise a plain native word is used.

Usage:
  ffnative [flags]

Examples:
  ffnative --set title=demo --set artist=me --cascade 5
  FFNATIVE_ALLOCATOR=ffmpeg ffnative -v

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}

func parseEntries(raw []string) ([][2]string, error) {
	entries := make([][2]string, 0, len(raw))
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q: want key=value", kv)
		}
		entries = append(entries, [2]string{key, value})
	}
	return entries, nil
}

func selectAllocator(name string, ffmpeg bool) (native.Allocator, error) {
	switch name {
	case "", "page":
		return native.DefaultAllocator(), nil
	case "ffmpeg":
		if !ffmpeg {
			return nil, fmt.Errorf("allocator ffmpeg: %w", bindings.ErrNotLoaded)
		}
		return avutil.Allocator(), nil
	default:
		return nil, fmt.Errorf("unknown allocator %q (want page or ffmpeg)", name)
	}
}

type report struct {
	kind       string
	entries    map[string]string
	linked     int
	released   int
	cleanups   int
	afterClose error
	stats      string
}

func (r *report) print(w io.Writer) {
	fmt.Fprintf(w, "cell:       %s\n", r.kind)
	if r.entries != nil {
		keys := make([]string, 0, len(r.entries))
		for k := range r.entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "entry:      %s=%s\n", k, r.entries[k])
		}
	}
	fmt.Fprintf(w, "linked:     %d\n", r.linked)
	fmt.Fprintf(w, "released:   %d\n", r.released)
	if r.cleanups >= 0 {
		fmt.Fprintf(w, "cleanups:   %d\n", r.cleanups)
	}
	fmt.Fprintf(w, "after:      %v\n", r.afterClose)
	if r.stats != "" {
		fmt.Fprintf(w, "allocator:  %s\n", r.stats)
	}
}

func linkHolders[T any](o *native.Ownership[T], n int) ([]*native.Holder[T], error) {
	holders := make([]*native.Holder[T], 0, n)
	for range n {
		h, err := native.NewHolder(o)
		if err != nil {
			return nil, err
		}
		holders = append(holders, h)
	}
	return holders, nil
}

func countReleased[T any](holders []*native.Holder[T]) int {
	n := 0
	for _, h := range holders {
		if h.Released() {
			n++
		}
	}
	return n
}

func runDictionary(entries [][2]string, cascade int) (*report, error) {
	d, err := avutil.NewDictionary()
	if err != nil {
		return nil, err
	}
	for _, kv := range entries {
		if err := d.Set(kv[0], kv[1], 0); err != nil {
			d.Release()
			return nil, err
		}
	}

	holders, err := linkHolders(d.Ownership(), cascade)
	if err != nil {
		d.Release()
		return nil, err
	}
	r := &report{
		kind:     "AVDictionary",
		entries:  d.Entries(),
		linked:   d.Ownership().Dependents(),
		cleanups: -1,
	}
	if err := d.Close(); err != nil {
		return nil, err
	}
	r.released = countReleased(holders)
	r.afterClose = d.Set("k", "v", 0)
	return r, nil
}

func runCell(cascade int) (*report, error) {
	r := &report{kind: "native word"}
	o, err := native.NewOwning(nil, func(native.Slot[byte]) { r.cleanups++ })
	if err != nil {
		return nil, err
	}
	holders, err := linkHolders(o, cascade)
	if err != nil {
		o.Release()
		return nil, err
	}
	r.linked = o.Dependents()
	o.Release()
	r.released = countReleased(holders)
	_, r.afterClose = o.Slot()
	return r, nil
}
