// Package main provides the anchor command: crash-safe checkpoints of
// in-progress session state and confidence-gated scan escalation for a
// long-running interactive session.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/entrhq/anchor/pkg/checkpoint"
	"github.com/entrhq/anchor/pkg/config"
	"github.com/entrhq/anchor/pkg/logging"
	"github.com/entrhq/anchor/pkg/milestone"
	"github.com/entrhq/anchor/pkg/scangate"
	"github.com/entrhq/anchor/pkg/tokens"
	"github.com/entrhq/anchor/pkg/topicindex"
)

const version = "0.1.0"

const usage = `anchor v%s — session checkpoints and scan gating

Usage:
  anchor [flags] create  -topic <hint> [-task <text>] [-project <name>]
  anchor [flags] show    -topic <hint>
  anchor [flags] update  -topic <hint> [-task <text>] [-summary <text>] [-file <path>]...
  anchor [flags] compact -topic <hint> -trigger <reason> [-before N] [-after N]
  anchor [flags] observe -topic <hint> -usage <tokens>
  anchor [flags] gate    [-window <path>] <keyword>...

Flags:
  -config <path>   config file (default ~/.anchor/config.json)
  -dir <path>      checkpoint directory override
  -version         print version
`

func main() {
	var (
		configPath  string
		dirOverride string
		showVersion bool
	)
	flag.StringVar(&configPath, "config", "", "config file path")
	flag.StringVar(&dirOverride, "dir", "", "checkpoint directory override")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.Usage = func() { fmt.Fprintf(os.Stderr, usage, version) }
	flag.Parse()

	if showVersion {
		fmt.Printf("anchor v%s\n", version)
		return
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	logger, err := logging.NewLogger("cli")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	defer logger.Close()

	if err := run(configPath, dirOverride, flag.Args(), logger); err != nil {
		logger.Errorf("command %s failed: %v", flag.Arg(0), err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, dirOverride string, args []string, logger *logging.Logger) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if dirOverride != "" {
		cfg.CheckpointDir = dirOverride
	}

	store, err := checkpoint.NewFileStore(cfg.CheckpointDir)
	if err != nil {
		return err
	}

	ctx := context.Background()
	command, rest := args[0], args[1:]
	logger.Debugf("running %s with %d args", command, len(rest))

	switch command {
	case "create":
		return runCreate(ctx, store, rest)
	case "show":
		return runShow(ctx, store, rest)
	case "update":
		return runUpdate(ctx, store, rest)
	case "compact":
		return runCompact(ctx, store, rest)
	case "observe":
		return runObserve(ctx, store, cfg, rest)
	case "gate":
		return runGate(cfg, rest)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return config.Default()
	}
	return config.Load(homeDir + "/.anchor/config.json")
}

func runCreate(ctx context.Context, store *checkpoint.FileStore, args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	topic := fs.String("topic", "", "topic hint for the session")
	task := fs.String("task", "", "initial task description")
	project := fs.String("project", "", "active project name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var initial checkpoint.PartialUpdate
	if *task != "" {
		initial.TaskState = &checkpoint.TaskStateUpdate{CurrentTask: task}
	}
	if *project != "" {
		initial.RecoveryMetadata = &checkpoint.RecoveryMetadataUpdate{ActiveProject: project}
	}

	cp, created, err := store.CreateIfAbsent(ctx, *topic, &initial)
	if err != nil {
		return err
	}
	if !created {
		fmt.Fprintf(os.Stderr, "Checkpoint already live for today; returning it.\n")
	}
	return printJSON(cp)
}

func runShow(ctx context.Context, store *checkpoint.FileStore, args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	topic := fs.String("topic", "", "topic hint for the session")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cp, err := store.Retrieve(ctx, store.KeyFor(*topic))
	if err != nil {
		return err
	}
	return printJSON(cp)
}

// stringList collects a repeatable -file flag.
type stringList []string

func (s *stringList) String() string     { return fmt.Sprint(*s) }
func (s *stringList) Set(v string) error { *s = append(*s, v); return nil }

func runUpdate(ctx context.Context, store *checkpoint.FileStore, args []string) error {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	topic := fs.String("topic", "", "topic hint for the session")
	task := fs.String("task", "", "current task description")
	summary := fs.String("summary", "", "context summary for recovery")
	var files stringList
	fs.Var(&files, "file", "modified file (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var update checkpoint.PartialUpdate
	if *task != "" || files != nil {
		ts := &checkpoint.TaskStateUpdate{}
		if *task != "" {
			ts.CurrentTask = task
		}
		if files != nil {
			ts.FilesModified = files
		}
		update.TaskState = ts
	}
	if *summary != "" {
		update.RecoveryMetadata = &checkpoint.RecoveryMetadataUpdate{ContextSummary: summary}
		// The summary is the best proxy we have for resident context size.
		estimator, err := tokens.NewEstimator()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: token estimator degraded: %v\n", err)
		}
		estimated := estimator.Count(*summary)
		update.ContextMetrics = &checkpoint.ContextMetricsUpdate{EstimatedTokens: &estimated}
	}

	cp, err := store.Update(ctx, store.KeyFor(*topic), &update)
	if err != nil {
		return err
	}
	return printJSON(cp)
}

func runCompact(ctx context.Context, store *checkpoint.FileStore, args []string) error {
	fs := flag.NewFlagSet("compact", flag.ExitOnError)
	topic := fs.String("topic", "", "topic hint for the session")
	trigger := fs.String("trigger", "manual", "what prompted the compaction")
	before := fs.Int("before", 0, "estimated tokens before compaction")
	after := fs.Int("after", 0, "estimated tokens after compaction")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cp, err := store.Compact(ctx, store.KeyFor(*topic), *trigger, *before, *after)
	if err != nil {
		return err
	}
	return printJSON(cp)
}

func runObserve(ctx context.Context, store *checkpoint.FileStore, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("observe", flag.ExitOnError)
	topic := fs.String("topic", "", "topic hint for the session")
	usage := fs.Int("usage", -1, "current token usage")
	if err := fs.Parse(args); err != nil {
		return err
	}
	tracker := milestone.NewTracker(store, cfg.MilestoneThresholds)
	res, err := tracker.Observe(ctx, store.KeyFor(*topic), *usage, nil)
	if err != nil {
		return err
	}
	return printJSON(res)
}

func runGate(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("gate", flag.ExitOnError)
	windowPath := fs.String("window", "", "JSON file of recent-activity entries")
	if err := fs.Parse(args); err != nil {
		return err
	}
	keywords := fs.Args()

	var window []scangate.RecentEntry
	if *windowPath != "" {
		raw, err := os.ReadFile(*windowPath)
		if err != nil {
			return fmt.Errorf("read recent window %s: %w", *windowPath, err)
		}
		if err := json.Unmarshal(raw, &window); err != nil {
			return fmt.Errorf("decode recent window %s: %w", *windowPath, err)
		}
	}

	index, err := topicindex.Load(cfg.TopicIndexDir, cfg.TopicIndexPattern)
	if err != nil {
		return err
	}

	verdict, err := scangate.Evaluate(keywords, window, index)
	if err != nil {
		return err
	}
	return printJSON(verdict)
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
