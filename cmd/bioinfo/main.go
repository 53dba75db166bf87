// Command-line inspector for microscopy image files.
// Prints the detected format, series layout and metadata, and can read planes
// to check that a file decodes.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"

	"github.com/janelia-flyem/bioio"
	"github.com/janelia-flyem/bioio/bio"
	"github.com/janelia-flyem/bioio/config"
	"github.com/janelia-flyem/bioio/format"
	"github.com/janelia-flyem/bioio/formats"
	"github.com/janelia-flyem/bioio/meta"

	"github.com/DmitriyVTitov/size"
	"github.com/dustin/go-humanize"
)

var (
	// Display usage if true.
	showHelp = flag.Bool("help", false, "")

	// Log at debug level if true.
	runVerbose = flag.Bool("verbose", false, "")

	// TOML configuration file.
	configFile = flag.String("config", "", "")

	// Print original metadata tables if true.
	showMeta = flag.Bool("meta", false, "")

	// Only examine this series; -1 for all.
	onlySeries = flag.Int("series", -1, "")

	// Number of concurrent readers; overrides the configuration.
	numReaders = flag.Int("readers", 0, "")

	// Profile CPU usage using standard gotest system.
	cpuprofile = flag.String("cpuprofile", "", "")
)

const helpMessage = `
bioinfo inspects microscopy image files

Usage: bioinfo [options] <command>

      -config     =string   TOML configuration file.
      -series     =number   Only examine this series.
      -readers    =number   Number of concurrent plane readers.
      -cpuprofile =string   Write CPU profile to this file.
      -meta       (flag)    Print original metadata.
      -verbose    (flag)    Run in verbose mode.
  -h, -help       (flag)    Show help message

Commands:

	about
	formats
	info   <file>
	read   <file> [plane ...]
	files  <file>
`

var usage = func() {
	fmt.Print(helpMessage)
}

func main() {
	flag.BoolVar(showHelp, "h", false, "Show help message")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() >= 1 && strings.ToLower(flag.Args()[0]) == "help" {
		*showHelp = true
	}
	if *showHelp || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
	}
	cfg.Apply()
	defer bio.Shutdown()
	if *runVerbose {
		bio.SetLogMode(bio.DebugMode)
	}
	if *numReaders > 0 {
		cfg.Concurrency.Readers = *numReaders
	}

	if err := DoCommand(os.Stdout, cfg, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// DoCommand runs one command, writing its report to w.
func DoCommand(w io.Writer, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("Blank command!")
	}
	registry := formats.Default()
	switch args[0] {
	case "about":
		fmt.Fprintf(w, "bioio %s\n", bioio.Version)
		for _, h := range registry.Handlers() {
			fmt.Fprintf(w, "  %s\n", h)
		}
		return nil
	case "formats":
		for _, h := range registry.Handlers() {
			fmt.Fprintf(w, "%-12s %s\n", h.Name, strings.Join(h.New().Suffixes(), ", "))
		}
		return nil
	case "info", "read", "files":
		if len(args) < 2 {
			return fmt.Errorf("%s command needs a file name", args[0])
		}
	default:
		return fmt.Errorf("Unknown command %q", args[0])
	}

	store := meta.NewRecorder()
	decorators := append([]format.Decorator{format.WithStore(store)}, cfg.Decorators()...)
	r, err := registry.Open(args[1], cfg.Options(), decorators...)
	if err != nil {
		return err
	}
	defer r.Close(false)

	switch args[0] {
	case "info":
		return printInfo(w, r, store)
	case "files":
		for _, f := range r.UsedFiles(false) {
			fmt.Fprintln(w, f)
		}
		return nil
	default:
		return readPlanes(w, r, cfg.Concurrency.Readers, args[2:])
	}
}

func selectedSeries(r format.Reader) []int {
	if *onlySeries >= 0 {
		return []int{*onlySeries}
	}
	series := make([]int, r.SeriesCount())
	for i := range series {
		series[i] = i
	}
	return series
}

func printInfo(w io.Writer, r format.Reader, store *meta.Recorder) error {
	fmt.Fprintf(w, "%s (%s)\n", r.CurrentFile(), r.Format())
	fmt.Fprintf(w, "Series: %d\n", r.SeriesCount())
	var descriptors []bio.SeriesDescriptor
	for _, s := range selectedSeries(r) {
		if err := r.SetSeries(s); err != nil {
			return err
		}
		d := r.Descriptor()
		descriptors = append(descriptors, d)
		fmt.Fprintf(w, "\nSeries #%d\n", s)
		fmt.Fprintf(w, "  Size:        %d x %d, %d Z, %d C, %d T\n", d.SizeX, d.SizeY, d.SizeZ, d.SizeC, d.SizeT)
		fmt.Fprintf(w, "  Planes:      %d of %s each\n", d.ImageCount,
			humanize.Bytes(uint64(d.PlaneBytes(d.SizeX, d.SizeY))))
		fmt.Fprintf(w, "  Pixel type:  %s (%d bits)\n", d.PixelType, d.BitsPerPixel)
		fmt.Fprintf(w, "  Order:       %s\n", d.DimensionOrder)
		fmt.Fprintf(w, "  Byte order:  %s\n", endian(d.LittleEndian))
		fmt.Fprintf(w, "  RGB:         %t (%d samples, interleaved %t)\n", d.RGB, d.RGBChannelCount(), d.Interleaved)
		fmt.Fprintf(w, "  Indexed:     %t\n", d.Indexed)
		if *showMeta {
			printMetadata(w, "  ", r.SeriesMetadata())
		}
	}
	if *showMeta {
		fmt.Fprintf(w, "\nGlobal metadata\n")
		printMetadata(w, "  ", r.GlobalMetadata())
	}
	fmt.Fprintf(w, "\nRecorded %d metadata fields\n", store.Len())
	fmt.Fprintf(w, "Memory: %s of descriptors, %s of metadata\n",
		humanize.Bytes(uint64(size.Of(descriptors))), humanize.Bytes(uint64(size.Of(store.Fields()))))
	return nil
}

func endian(little bool) string {
	if little {
		return "little-endian"
	}
	return "big-endian"
}

func printMetadata(w io.Writer, indent string, m format.Metadata) {
	for _, k := range m.Keys() {
		fmt.Fprintf(w, "%s%s = %v\n", indent, k, m[k])
	}
}

// readPlanes decodes the requested planes, or all planes, of each selected
// series.
func readPlanes(w io.Writer, r format.Reader, readers int, args []string) error {
	for _, s := range selectedSeries(r) {
		if err := r.SetSeries(s); err != nil {
			return err
		}
		var planes []int
		for _, arg := range args {
			no, err := strconv.Atoi(arg)
			if err != nil {
				return fmt.Errorf("bad plane number %q", arg)
			}
			planes = append(planes, no)
		}
		if len(planes) == 0 {
			for no := 0; no < r.ImageCount(); no++ {
				planes = append(planes, no)
			}
		}
		timedLog := bio.NewTimeLog()
		data, err := format.ReadPlanes(context.Background(), r, s, planes, readers)
		if err != nil {
			return err
		}
		var total uint64
		for i, buf := range data {
			total += uint64(len(buf))
			fmt.Fprintf(w, "series %d plane %d: %s\n", s, planes[i], humanize.Bytes(uint64(len(buf))))
		}
		fmt.Fprintf(w, "series %d: read %s in %d planes\n", s, humanize.Bytes(total), len(planes))
		timedLog.Infof("Read %d planes of series %d with %d readers", len(planes), s, readers)
	}
	return nil
}
