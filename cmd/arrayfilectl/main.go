// arrayfilectl is a small CLI for creating and inspecting array files.
//
// Usage:
//
//	arrayfilectl new [opts] <path>   Create a new array file
//	arrayfilectl <path>               Open an existing array file
//
// Options for 'new':
//
//	-n, --length       Element count (default: prompts)
//	-s, --element-size Element width in bytes: 2, 4, or 8 (default: prompts)
//	-m, --mapped       Use the memory-mapped backend instead of buffered
//
// Commands (in REPL):
//
//	write <index> <value>       Write a single element
//	get [limit]                 Dump the body (first N elements)
//	len                         Show array length and element size
//	watermarks                  Show lwm_scn / hwm_scn
//	setwatermarks <lwm> <hwm>   Rewrite the water marks directly
//	update <scn> <pos=val>...   Apply a batched write under one SCN
//	reset <val>...              Overwrite the body from index 0
//	resetall <val>              Fill every element (element_size=8 only)
//	resize <length>             Grow or shrink the array
//	info                        Show header fields
//	help                        Show this help
//	exit / quit / q             Exit
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/arrayfile/arrayfile"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		printUsage()
		return errors.New("missing command or file path")
	}

	if os.Args[1] == "new" {
		return runNew(os.Args[2:])
	}

	return runOpen(os.Args[1:])
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage:\n")
	fmt.Fprintf(os.Stderr, "  arrayfilectl <path>              Open an existing array file\n")
	fmt.Fprintf(os.Stderr, "  arrayfilectl new [opts] <path>    Create a new array file\n")
	fmt.Fprintf(os.Stderr, "\nRun 'arrayfilectl new --help' for creation options.\n")
}

func runNew(args []string) error {
	fs := flag.NewFlagSet("new", flag.ExitOnError)

	length := fs.Int32P("length", "n", -1, "element count")
	elementSize := fs.Int32P("element-size", "s", -1, "element width in bytes (2, 4, or 8)")
	mapped := fs.BoolP("mapped", "m", false, "use the memory-mapped backend")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: arrayfilectl new [options] <path>\n\n")
		fmt.Fprintf(os.Stderr, "Create a new array file. Omitted options are prompted for.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return errors.New("missing file path")
	}
	path := fs.Arg(0)

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("file already exists: %s (use 'arrayfilectl %s' to open it)", path, path)
	}

	reader := bufio.NewReader(os.Stdin)

	if *length < 0 {
		*length = int32(promptInt(reader, "Element count", 0))
	}
	if *elementSize < 0 {
		*elementSize = int32(promptInt(reader, "Element size in bytes (2, 4, or 8)", 8))
	}

	ioType := arrayfile.Buffered
	if *mapped {
		ioType = arrayfile.Mapped
	}

	fmt.Printf("\nCreating array file with:\n")
	fmt.Printf("  Path:         %s\n", path)
	fmt.Printf("  Length:       %d\n", *length)
	fmt.Printf("  Element size: %d\n", *elementSize)
	fmt.Printf("  IO backend:   %s\n", ioType)
	fmt.Println()

	af, err := arrayfile.Create(arrayfile.Options{
		Path:        path,
		ArrayLength: *length,
		ElementSize: arrayfile.ElementSize(*elementSize),
		IO:          ioType,
	})
	if err != nil {
		return fmt.Errorf("creating array file: %w", err)
	}
	defer af.Close()

	repl := &REPL{af: af, path: path}
	return repl.Run()
}

func runOpen(args []string) error {
	fs := flag.NewFlagSet("open", flag.ExitOnError)
	mapped := fs.BoolP("mapped", "m", false, "use the memory-mapped backend")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: arrayfilectl <path>\n\nOpen an existing array file.\n")
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return errors.New("missing file path")
	}
	path := fs.Arg(0)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s (use 'arrayfilectl new %s' to create it)", path, path)
	}

	ioType := arrayfile.Buffered
	if *mapped {
		ioType = arrayfile.Mapped
	}

	af, err := arrayfile.Open(arrayfile.Options{Path: path, IO: ioType})
	if err != nil {
		return fmt.Errorf("opening array file: %w", err)
	}
	defer af.Close()

	repl := &REPL{af: af, path: path}
	return repl.Run()
}

func promptInt(reader *bufio.Reader, prompt string, defaultVal int) int {
	for {
		fmt.Printf("%s [%d]: ", prompt, defaultVal)
		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input == "" {
			return defaultVal
		}
		val, err := strconv.Atoi(input)
		if err != nil {
			fmt.Println("Please enter a valid integer.")
			continue
		}
		return val
	}
}

// REPL is the interactive command loop driving a single open ArrayFile.
type REPL struct {
	af    *arrayfile.ArrayFile
	path  string
	liner *liner.State
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".arrayfilectl_history")
}

func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("arrayfilectl - %s (length=%d, element_size=%d)\n", r.path, r.af.ArrayLength(), r.af.ElementSize())
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("arrayfilectl> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nBye!")
				break
			}
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")
			r.saveHistory()
			return nil
		case "help", "?":
			r.printHelp()
		case "write":
			r.cmdWrite(args)
		case "get", "dump":
			r.cmdGet(args)
		case "len":
			fmt.Printf("length=%d element_size=%d\n", r.af.ArrayLength(), r.af.ElementSize())
		case "watermarks", "wm":
			fmt.Printf("lwm_scn=%d hwm_scn=%d\n", r.af.LWM(), r.af.HWM())
		case "setwatermarks":
			r.cmdSetWaterMarks(args)
		case "update":
			r.cmdUpdate(args)
		case "reset":
			r.cmdReset(args)
		case "resetall":
			r.cmdResetAll(args)
		case "resize":
			r.cmdResize(args)
		case "info":
			r.cmdInfo()
		case "clear", "cls":
			fmt.Print("\033[H\033[2J")
		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()
	return nil
}

func (r *REPL) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

func (r *REPL) completer(line string) []string {
	commands := []string{
		"write", "get", "dump", "len", "watermarks", "wm", "setwatermarks",
		"update", "reset", "resetall", "resize", "info", "clear", "cls",
		"help", "exit", "quit", "q",
	}
	var completions []string
	lower := strings.ToLower(line)
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}
	return completions
}

func (r *REPL) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  write <index> <value>       Write a single element")
	fmt.Println("  get [limit]                 Dump the body (first N elements)")
	fmt.Println("  len                         Show array length and element size")
	fmt.Println("  watermarks                  Show lwm_scn / hwm_scn")
	fmt.Println("  setwatermarks <lwm> <hwm>   Rewrite the water marks directly")
	fmt.Println("  update <scn> <pos=val>...   Apply a batched write under one SCN")
	fmt.Println("  reset <val>...              Overwrite the body from index 0")
	fmt.Println("  resetall <val>              Fill every element (element_size=8 only)")
	fmt.Println("  resize <length>             Grow or shrink the array")
	fmt.Println("  info                        Show header fields")
	fmt.Println("  help                        Show this help")
	fmt.Println("  exit / quit / q             Exit")
}

func (r *REPL) cmdWrite(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: write <index> <value>")
		return
	}
	index, err := strconv.ParseInt(args[0], 10, 32)
	if err != nil {
		fmt.Printf("Error parsing index: %v\n", err)
		return
	}
	value, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		fmt.Printf("Error parsing value: %v\n", err)
		return
	}

	switch r.af.ElementSize() {
	case arrayfile.ElementSize2:
		err = r.af.WriteI16(int32(index), int16(value))
	case arrayfile.ElementSize4:
		err = r.af.WriteI32(int32(index), int32(value))
	default:
		err = r.af.WriteI64(int32(index), value)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("OK: wrote index %d = %d\n", index, value)
}

func (r *REPL) cmdGet(args []string) {
	limit := -1
	if len(args) >= 1 {
		var err error
		limit, err = strconv.Atoi(args[0])
		if err != nil {
			fmt.Printf("Error parsing limit: %v\n", err)
			return
		}
	}

	switch r.af.ElementSize() {
	case arrayfile.ElementSize2:
		vals, err := r.af.LoadInt16Array()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		printVals(vals, limit)
	case arrayfile.ElementSize4:
		vals, err := r.af.LoadInt32Array()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		printVals(vals, limit)
	default:
		vals, err := r.af.LoadInt64Array()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		printVals(vals, limit)
	}
}

func printVals[T int16 | int32 | int64](vals []T, limit int) {
	if limit < 0 || limit > len(vals) {
		limit = len(vals)
	}
	if limit == 0 {
		fmt.Println("(empty)")
		return
	}
	for i := 0; i < limit; i++ {
		fmt.Printf("%5d: %d\n", i, vals[i])
	}
	if limit < len(vals) {
		fmt.Printf("... (%d more, use 'get <limit>' for more)\n", len(vals)-limit)
	}
}

func (r *REPL) cmdSetWaterMarks(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: setwatermarks <lwm> <hwm>")
		return
	}
	lwm, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		fmt.Printf("Error parsing lwm: %v\n", err)
		return
	}
	hwm, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		fmt.Printf("Error parsing hwm: %v\n", err)
		return
	}
	if err := r.af.SetWaterMarks(lwm, hwm); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("OK")
}

// cmdUpdate parses "pos=val" pairs and applies them as a single Entry.
func (r *REPL) cmdUpdate(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: update <scn> <pos=val>...")
		return
	}
	scn, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		fmt.Printf("Error parsing scn: %v\n", err)
		return
	}

	var values []arrayfile.EntryValue
	for _, pair := range args[1:] {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			fmt.Printf("Error: expected pos=val, got %q\n", pair)
			return
		}
		pos, err := strconv.ParseInt(parts[0], 10, 32)
		if err != nil {
			fmt.Printf("Error parsing position in %q: %v\n", pair, err)
			return
		}
		val, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			fmt.Printf("Error parsing value in %q: %v\n", pair, err)
			return
		}
		values = append(values, arrayfile.EntryValue{
			Pos:   int32(pos),
			Int16: int16(val),
			Int32: int32(val),
			Int64: val,
		})
	}

	err = r.af.Update([]arrayfile.Entry{{MaxSCN: scn, Values: values}})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("OK: applied %d writes under scn=%d\n", len(values), scn)
}

func (r *REPL) cmdReset(args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: reset <val>...")
		return
	}
	values := make([]int64, len(args))
	for i, a := range args {
		v, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			fmt.Printf("Error parsing value %q: %v\n", a, err)
			return
		}
		values[i] = v
	}
	if err := r.af.Reset(values); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("OK")
}

func (r *REPL) cmdResetAll(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: resetall <val>")
		return
	}
	v, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Printf("Error parsing value: %v\n", err)
		return
	}
	if err := r.af.ResetAll(v); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("OK")
}

func (r *REPL) cmdResize(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: resize <length>")
		return
	}
	length, err := strconv.ParseInt(args[0], 10, 32)
	if err != nil {
		fmt.Printf("Error parsing length: %v\n", err)
		return
	}
	if err := r.af.SetArrayLength(int32(length)); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("OK: length is now %d\n", r.af.ArrayLength())
}

func (r *REPL) cmdInfo() {
	fmt.Printf("Array File Info:\n")
	fmt.Printf("  Path:             %s\n", r.path)
	fmt.Printf("  Storage version:  %d\n", r.af.StorageVersion())
	fmt.Printf("  Array length:     %d\n", r.af.ArrayLength())
	fmt.Printf("  Element size:     %d bytes\n", r.af.ElementSize())
	fmt.Printf("  LWM SCN:          %d\n", r.af.LWM())
	fmt.Printf("  HWM SCN:          %d\n", r.af.HWM())
}
