package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ghosttxt/ghosttext/internal/answer"
	"github.com/ghosttxt/ghosttext/internal/config"
	"github.com/ghosttxt/ghosttext/internal/extract"
	"github.com/ghosttxt/ghosttext/internal/logging"
	"github.com/ghosttxt/ghosttext/internal/mcp"
	"github.com/ghosttxt/ghosttext/internal/record"
	"github.com/ghosttxt/ghosttext/internal/store"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	switch os.Args[1] {
	case "process":
		if err := runProcess(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "years":
		if err := runYears(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "participants":
		if err := runParticipants(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "sources":
		if err := runSources(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "context":
		if err := runContext(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "clear":
		if err := runClear(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "mcp":
		if err := runMCP(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version", "--version", "-v":
		fmt.Printf("ghosttext %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// cliOptions are the flags shared by every command, plus the per-platform
// identity flags the context command consumes.
type cliOptions struct {
	resolved   config.ResolvedConfig
	identities answer.IdentityMap
	positional []string
}

func parseArgs(args []string) (cliOptions, error) {
	var resolve config.ResolveOptions
	opts := cliOptions{identities: answer.IdentityMap{}}

	takeValue := func(i *int, flag string) (string, error) {
		if *i+1 >= len(args) {
			return "", fmt.Errorf("%s requires a value", flag)
		}
		*i++
		return args[*i], nil
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--config":
			v, err := takeValue(&i, arg)
			if err != nil {
				return opts, err
			}
			resolve.ConfigPath = v
		case arg == "--data":
			v, err := takeValue(&i, arg)
			if err != nil {
				return opts, err
			}
			resolve.CLIDataDir = v
		case arg == "--processed":
			v, err := takeValue(&i, arg)
			if err != nil {
				return opts, err
			}
			resolve.CLIProcessedDir = v
		case arg == "--temperature":
			v, err := takeValue(&i, arg)
			if err != nil {
				return opts, err
			}
			resolve.CLITemperature = v
		case arg == "--me":
			v, err := takeValue(&i, arg)
			if err != nil {
				return opts, err
			}
			platform, name, ok := strings.Cut(v, "=")
			if !ok || name == "" {
				return opts, fmt.Errorf("--me expects platform=name, got %q", v)
			}
			switch record.Platform(strings.ToLower(platform)) {
			case record.PlatformWhatsApp, record.PlatformDiscord, record.PlatformInstagram, record.PlatformFacebook, record.PlatformOther:
				opts.identities[record.Platform(strings.ToLower(platform))] = name
			default:
				return opts, fmt.Errorf("unknown platform %q in --me", platform)
			}
		case strings.HasPrefix(arg, "-"):
			return opts, fmt.Errorf("unknown flag: %s", arg)
		default:
			opts.positional = append(opts.positional, arg)
		}
	}

	resolved, err := config.ResolveConfig(resolve)
	if err != nil {
		return opts, err
	}
	opts.resolved = resolved
	return opts, nil
}

func openStore(opts cliOptions) (*store.Store, *store.Processor) {
	log := logging.New(opts.resolved.LogLevel.Value, true)
	st := store.New(opts.resolved.ProcessedDir.Value, log)
	return st, store.NewProcessor(extract.NewEngine(log), st, log)
}

func runProcess(args []string) error {
	opts, err := parseArgs(args)
	if err != nil {
		return err
	}
	_, processor := openStore(opts)

	result, err := processor.Run(opts.resolved.DataDir.Value)
	if err != nil {
		return err
	}

	fmt.Printf("Processed %d files into %d year stores.\n", len(result.Processed), len(result.Years))
	if len(result.Years) > 0 {
		fmt.Printf("Years: %s\n", joinInts(result.Years))
	}
	if len(result.Unprocessed) > 0 {
		fmt.Printf("Unprocessed files:\n")
		for _, name := range result.Unprocessed {
			fmt.Printf("  %s\n", name)
		}
	}
	return nil
}

func runYears(args []string) error {
	opts, err := parseArgs(args)
	if err != nil {
		return err
	}
	st, _ := openStore(opts)

	years, err := st.AvailableYears()
	if err != nil {
		return err
	}
	if len(years) == 0 {
		fmt.Println("No processed data found. Run 'ghosttext process' first.")
		return nil
	}
	fmt.Println(joinInts(years))
	return nil
}

func runParticipants(args []string) error {
	opts, err := parseArgs(args)
	if err != nil {
		return err
	}
	year, err := yearArg(opts, "participants")
	if err != nil {
		return err
	}
	st, _ := openStore(opts)

	records, err := st.LoadYear(year)
	if err != nil {
		return err
	}

	census := answer.ParticipantCensus(records)
	for _, platform := range []record.Platform{record.PlatformWhatsApp, record.PlatformDiscord, record.PlatformInstagram, record.PlatformFacebook, record.PlatformOther} {
		names := census[platform]
		if len(names) == 0 {
			continue
		}
		fmt.Printf("%s:\n", platform)
		for _, name := range names {
			fmt.Printf("  %s\n", name)
		}
	}
	return nil
}

func runSources(args []string) error {
	opts, err := parseArgs(args)
	if err != nil {
		return err
	}
	year, err := yearArg(opts, "sources")
	if err != nil {
		return err
	}
	st, _ := openStore(opts)

	records, err := st.LoadYear(year)
	if err != nil {
		return err
	}

	names := answer.SourceDisplayNames(records)
	for _, platform := range []record.Platform{record.PlatformWhatsApp, record.PlatformDiscord, record.PlatformInstagram, record.PlatformFacebook, record.PlatformOther} {
		sources := names[platform]
		if len(sources) == 0 {
			continue
		}
		fmt.Printf("%s:\n", platform)
		for _, source := range sources {
			fmt.Printf("  %s\n", source)
		}
	}
	return nil
}

func runContext(args []string) error {
	opts, err := parseArgs(args)
	if err != nil {
		return err
	}
	year, err := yearArg(opts, "context")
	if err != nil {
		return err
	}
	st, _ := openStore(opts)

	records, err := st.LoadYear(year)
	if err != nil {
		return err
	}

	log := logging.New(opts.resolved.LogLevel.Value, true)
	budget := answer.DeriveBudget(opts.resolved.TemperatureSetting())
	text, err := answer.NewAssembler(log).Assemble(year, records, opts.identities, budget)
	if err != nil {
		if errors.Is(err, answer.ErrNoContext) {
			return fmt.Errorf("no context could be assembled for %d; name yourself with --me platform=name", year)
		}
		return err
	}

	fmt.Print(text)
	return nil
}

func runClear(args []string) error {
	opts, err := parseArgs(args)
	if err != nil {
		return err
	}
	st, _ := openStore(opts)

	if err := st.Clear(); err != nil {
		return err
	}
	fmt.Println("Cleared processed data.")
	return nil
}

func runMCP(args []string) error {
	opts, err := parseArgs(args)
	if err != nil {
		return err
	}
	// The MCP client owns stdout; keep logs structured on stderr.
	log := logging.New(opts.resolved.LogLevel.Value, false)
	st := store.New(opts.resolved.ProcessedDir.Value, log)

	srv := mcp.NewServer(mcp.ServerConfig{
		Store:       st,
		Processor:   store.NewProcessor(extract.NewEngine(log), st, log),
		Assembler:   answer.NewAssembler(log),
		DataDir:     opts.resolved.DataDir.Value,
		UserSetting: opts.resolved.TemperatureSetting(),
		Version:     version,
	})
	return mcp.Serve(srv)
}

func yearArg(opts cliOptions, usage string) (int, error) {
	if len(opts.positional) != 1 {
		return 0, fmt.Errorf("usage: ghosttext %s <year>", usage)
	}
	year, err := strconv.Atoi(opts.positional[0])
	if err != nil {
		return 0, fmt.Errorf("invalid year %q", opts.positional[0])
	}
	return year, nil
}

func joinInts(vals []int) string {
	parts := make([]string, 0, len(vals))
	for _, v := range vals {
		parts = append(parts, strconv.Itoa(v))
	}
	return strings.Join(parts, ", ")
}

func printUsage() {
	fmt.Printf(`ghosttext %s — Chat-export memory for persona simulation

Usage:
  ghosttext <command> [arguments]

Commands:
  process             Rebuild year stores from the raw export directory
  years               List years with stored records
  participants <year> List senders per platform for a year
  sources <year>      List conversations per platform for a year
  context <year>      Assemble the persona context block for a year
  clear               Remove all year stores
  mcp                 Serve the MCP tools over stdio
  version             Print version

Context Flags:
  --me platform=name  Your own name on a platform (whatsapp, discord,
                      instagram, facebook); repeatable

Flags:
  --config <path>     Config file (default ~/.ghosttext/config.yaml)
  --data <dir>        Raw export directory
  --processed <dir>   Year store directory
  --temperature <v>   Context dial in [0.1, 1.0]
  -h, --help          Show this help message
  -v, --version       Print version
`, version)
}
