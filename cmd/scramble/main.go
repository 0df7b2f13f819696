package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dyne/scramble/internal/catalog"
	"github.com/dyne/scramble/internal/config"
	"github.com/dyne/scramble/internal/dispatch"
	"github.com/dyne/scramble/internal/lexicon"
	"github.com/dyne/scramble/internal/log"
	"github.com/dyne/scramble/internal/server"
	"github.com/dyne/scramble/internal/transform"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	ConfigPath string
	Verbose    bool
	Jobs       int
	Plugins    []string
}

func main() {
	rootOpts := &globalOptions{}
	root := &cobra.Command{
		Use:           "scramble",
		Short:         "Scramble, encode and encrypt text",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&rootOpts.ConfigPath, "config", "", "configuration file")
	root.PersistentFlags().BoolVar(&rootOpts.Verbose, "verbose", false, "enable debug logging")
	root.PersistentFlags().IntVar(&rootOpts.Jobs, "jobs", config.DefaultJobs, "parallelism for batches")
	root.PersistentFlags().StringSliceVar(&rootOpts.Plugins, "plugin", nil, "plugin .so path or directory (repeatable)")

	root.AddCommand(serveCmd(rootOpts))
	root.AddCommand(applyCmd(rootOpts))
	root.AddCommand(batchCmd(rootOpts))
	root.AddCommand(cipherCmd(rootOpts, false))
	root.AddCommand(cipherCmd(rootOpts, true))
	root.AddCommand(modelsCmd(rootOpts))
	root.AddCommand(lexiconCmd(rootOpts))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runtimeEnv is what every command that transforms text needs.
type runtimeEnv struct {
	cfg     *config.Config
	logger  *log.Logger
	lexicon *lexicon.Lazy
	d       *dispatch.Dispatcher
}

func (e *runtimeEnv) Close() {
	if err := e.lexicon.Close(); err != nil {
		e.logger.Warnf("close lexicon: %v", err)
	}
}

func setup(cmd *cobra.Command, rootOpts *globalOptions) (*runtimeEnv, error) {
	cfg, err := config.Load(rootOpts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("jobs") {
		cfg.Jobs = rootOpts.Jobs
	}
	logger := log.New(log.LevelFor(rootOpts.Verbose), cmd.ErrOrStderr())
	if err := transform.LoadPlugins(append(cfg.Plugins, rootOpts.Plugins...)); err != nil {
		return nil, err
	}
	lex := lexicon.ForPath(cfg.Lexicon.Path)
	d := dispatch.New(dispatch.Options{
		Defaults: defaultParams(cfg),
		Lexicon:  lex,
		Emoji:    cfg.Emoji,
		Jobs:     cfg.Jobs,
		Logger:   logger,
	})
	return &runtimeEnv{cfg: cfg, logger: logger, lexicon: lex, d: d}, nil
}

func defaultParams(cfg *config.Config) transform.Params {
	return transform.Params{
		Shift:   *cfg.Defaults.Shift,
		Seed:    *cfg.Defaults.Seed,
		Keyword: *cfg.Defaults.Keyword,
		Strict:  cfg.StrictDecode,
	}
}

func serveCmd(rootOpts *globalOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer env.Close()
			if addr != "" {
				env.cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if env.cfg.Lexicon.Path != "" {
				if err := env.lexicon.Load(ctx); err != nil {
					return err
				}
			}
			return server.New(env.cfg.Server, env.d, env.logger).Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

// paramFlags binds the per-request parameters; unset flags keep the
// configured defaults.
type paramFlags struct {
	shift   int
	seed    int64
	keyword string
	strict  bool
}

func (f *paramFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.shift, "shift", config.DefaultShift, "Caesar shift")
	cmd.Flags().Int64Var(&f.seed, "seed", config.DefaultSeed, "seed for the seeded scrambler")
	cmd.Flags().StringVar(&f.keyword, "keyword", config.DefaultKeyword, "Vigenère keyword")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "fail on malformed base64 or binary input")
}

func (f *paramFlags) resolve(cmd *cobra.Command, defaults transform.Params) transform.Params {
	p := defaults
	if cmd.Flags().Changed("shift") {
		p.Shift = f.shift
	}
	if cmd.Flags().Changed("seed") {
		p.Seed = f.seed
	}
	if cmd.Flags().Changed("keyword") {
		p.Keyword = f.keyword
	}
	if cmd.Flags().Changed("strict") {
		p.Strict = f.strict
	}
	return p
}

func applyCmd(rootOpts *globalOptions) *cobra.Command {
	var model, text, inPath string
	var reverse bool
	var params paramFlags
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Transform a text with one model",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer env.Close()
			ctx := cmd.Context()
			var res dispatch.Result
			p := params.resolve(cmd, env.d.Defaults())
			if inPath != "" {
				if reverse {
					return fmt.Errorf("--reverse cannot be combined with --in")
				}
				data, err := os.ReadFile(inPath)
				if err != nil {
					return fmt.Errorf("read input: %w", err)
				}
				fr, err := env.d.File(ctx, inPath, data, model, p)
				if err != nil {
					return err
				}
				res = dispatch.Result{Model: fr.Model, Transformed: fr.Transformed}
			} else if reverse {
				res, err = env.d.Reverse(ctx, dispatch.Request{Text: text, Model: model, Params: p})
			} else {
				res, err = env.d.Apply(ctx, dispatch.Request{Text: text, Model: model, Params: p})
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Transformed)
			return err
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "model name (see `scramble models`)")
	cmd.Flags().StringVar(&text, "text", "", "text to transform")
	cmd.Flags().StringVar(&inPath, "in", "", "UTF-8 .txt file to transform")
	cmd.Flags().BoolVar(&reverse, "reverse", false, "run the model's inverse")
	params.register(cmd)
	cmd.MarkFlagsMutuallyExclusive("text", "in")
	cmd.MarkFlagsOneRequired("text", "in")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}

func batchCmd(rootOpts *globalOptions) *cobra.Command {
	var model, inPath string
	var params paramFlags
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Transform every line of a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer env.Close()
			texts, err := readLines(cmd.InOrStdin(), inPath)
			if err != nil {
				return err
			}
			pairs, err := env.d.Batch(cmd.Context(), dispatch.BatchRequest{
				Texts:  texts,
				Model:  model,
				Params: params.resolve(cmd, env.d.Defaults()),
			})
			if err != nil {
				return err
			}
			w := bufio.NewWriter(cmd.OutOrStdout())
			for _, p := range pairs {
				fmt.Fprintf(w, "%s\t%s\n", p.Original, p.Transformed)
			}
			env.logger.Infof("batch complete: %d texts", len(pairs))
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "model name")
	cmd.Flags().StringVar(&inPath, "in", "", "input file, one text per line (- for stdin)")
	params.register(cmd)
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func readLines(stdin io.Reader, path string) ([]string, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return lines, nil
}

func cipherCmd(rootOpts *globalOptions, decrypt bool) *cobra.Command {
	var text string
	var shift int
	name, short := "encrypt", "Caesar-encrypt a text"
	if decrypt {
		name, short = "decrypt", "Caesar-decrypt a text"
	}
	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootOpts.ConfigPath)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("shift") {
				shift = *cfg.Defaults.Shift
			}
			out := dispatch.Encrypt(text, shift)
			if decrypt {
				out = dispatch.Decrypt(text, shift)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "text to transform")
	cmd.Flags().IntVar(&shift, "shift", config.DefaultShift, "Caesar shift")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

func modelsCmd(rootOpts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List available models",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer env.Close()
			return catalog.Run(cmd.OutOrStdout(), env.logger)
		},
	}
}

func lexiconCmd(rootOpts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lexicon",
		Short: "Build or inspect the synonym database",
	}
	cmd.AddCommand(lexiconBuildCmd(rootOpts))
	cmd.AddCommand(lexiconInspectCmd(rootOpts))
	return cmd
}

func lexiconBuildCmd(rootOpts *globalOptions) *cobra.Command {
	var inPath, outPath, format string
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Compile a YAML synset source or a WordNet dict into a SQLite lexicon",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.New(log.LevelFor(rootOpts.Verbose), cmd.ErrOrStderr())
			var src *lexicon.Source
			var err error
			switch {
			case format == "wordnet" && inPath == "":
				return fmt.Errorf("--format wordnet needs --in pointing at a WordNet dict directory")
			case format == "wordnet":
				src, err = lexicon.LoadWordNet(inPath)
			case format != "yaml":
				return fmt.Errorf("unknown format %q (use yaml or wordnet)", format)
			case inPath == "":
				src, err = lexicon.Seed()
			default:
				src, err = lexicon.LoadSource(inPath)
			}
			if err != nil {
				return err
			}
			if err := lexicon.Build(cmd.Context(), outPath, src); err != nil {
				return err
			}
			logger.Infof("wrote %d synsets and %d exceptions to %s", len(src.Synsets), len(src.Exceptions), outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "YAML source or WordNet dict directory (default: built-in seed)")
	cmd.Flags().StringVar(&outPath, "out", "", "output SQLite file")
	cmd.Flags().StringVar(&format, "format", "yaml", "input format: yaml or wordnet")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func lexiconInspectCmd(rootOpts *globalOptions) *cobra.Command {
	var inPath string
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show lexicon tables and row counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.New(log.LevelFor(rootOpts.Verbose), cmd.ErrOrStderr())
			return lexicon.Inspect(cmd.Context(), inPath, cmd.OutOrStdout(), logger)
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "lexicon SQLite file")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}
