// Command jsonsift recovers JSON documents from noisy text.
//
// Usage:
//
//	jsonsift [flags] [file ...]
//
// With no files, standard input is read as a single unit. Files are
// processed concurrently and results are printed to stdout in input order,
// one document per line.
//
//	-path p      print the value at path p instead of the whole document
//	-repair      attempt structural repair when extraction fails
//	-pretty      indent the output
//	-fetch URL   recover JSON from a web page instead of files or stdin
//	-ask text    send text to an LLM and recover JSON from the reply
//	-provider p  provider for -ask: openai (default) or anthropic
//	-model m     model for -ask (default $JSONSIFT_DEFAULT_MODEL)
//	-v           enable debug logging
//
// Exit status is 0 on success, 1 when no JSON document could be recovered,
// and 2 on usage, file, network, or provider errors.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/jsonsift/jsonsift/core/parse"
	"github.com/jsonsift/jsonsift/core/query"
	"github.com/jsonsift/jsonsift/internal/logging"
	"github.com/jsonsift/jsonsift/providers/ai"
	"github.com/jsonsift/jsonsift/providers/ai/anthropic"
	"github.com/jsonsift/jsonsift/providers/ai/openai"
	"github.com/jsonsift/jsonsift/providers/source/webpage"

	_ "github.com/joho/godotenv/autoload"
)

// Exit codes.
const (
	exitOK         = 0 // a document was recovered and printed
	exitNoDocument = 1 // input processed but nothing recovered
	exitError      = 2 // usage, file, network, or provider error
)

// maxConcurrentFiles caps the worker pool for multi-file batches.
const maxConcurrentFiles = 8

var errNoDocument = errors.New("no JSON document recovered")

type config struct {
	path     string
	repair   bool
	pretty   bool
	fetchURL string
	ask      string
	provider string
	model    string
	verbose  bool
	files    []string
}

func parseConfig() config {
	path := flag.String("path", "", "print the value at this path instead of the whole document")
	repair := flag.Bool("repair", false, "attempt structural repair when extraction fails")
	pretty := flag.Bool("pretty", false, "indent the output")
	fetchURL := flag.String("fetch", "", "recover JSON from this URL instead of files or stdin")
	ask := flag.String("ask", "", "send this prompt to an LLM and recover JSON from the reply")
	provider := flag.String("provider", "openai", "provider for -ask: openai or anthropic")
	model := flag.String("model", os.Getenv("JSONSIFT_DEFAULT_MODEL"), "model for -ask")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	return config{
		path:     *path,
		repair:   *repair,
		pretty:   *pretty,
		fetchURL: *fetchURL,
		ask:      *ask,
		provider: *provider,
		model:    *model,
		verbose:  *verbose,
		files:    flag.Args(),
	}
}

func main() {
	cfg := parseConfig()
	logging.Setup(cfg.verbose)
	os.Exit(run(context.Background(), cfg))
}

func run(ctx context.Context, cfg config) int {
	sources := 0
	if cfg.fetchURL != "" {
		sources++
	}
	if cfg.ask != "" {
		sources++
	}
	if len(cfg.files) > 0 {
		sources++
	}
	if sources > 1 {
		fmt.Fprintln(os.Stderr, "jsonsift: -fetch, -ask and file arguments are mutually exclusive")
		return exitError
	}

	switch {
	case cfg.fetchURL != "":
		return runFetch(ctx, cfg)
	case cfg.ask != "":
		return runAsk(ctx, cfg)
	case len(cfg.files) > 0:
		return runFiles(cfg)
	default:
		return runStdin(cfg)
	}
}

func runStdin(cfg config) int {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		slog.Error("failed to read stdin", "error", err)
		return exitError
	}
	return emit("stdin", string(data), cfg)
}

// runFiles processes each file concurrently and prints results in input
// order. An unreadable file aborts the whole batch before anything is
// printed; per-file recovery failures are reported and the rest still print.
func runFiles(cfg config) int {
	results := make([]string, len(cfg.files))
	failures := make([]error, len(cfg.files))

	var g errgroup.Group
	g.SetLimit(maxConcurrentFiles)
	for i, name := range cfg.files {
		g.Go(func() error {
			data, err := os.ReadFile(name)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", name, err)
			}
			results[i], failures[i] = process(string(data), cfg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.Error("batch aborted", "error", err)
		return exitError
	}

	code := exitOK
	for i, name := range cfg.files {
		if failures[i] != nil {
			slog.Error("nothing recovered", "source", name, "error", failures[i])
			code = exitNoDocument
			continue
		}
		fmt.Println(results[i])
	}
	return code
}

func runFetch(ctx context.Context, cfg config) int {
	page, err := webpage.Fetch(ctx, webpage.Options{URL: cfg.fetchURL})
	if err != nil {
		slog.Error("fetch failed", "url", cfg.fetchURL, "error", err)
		return exitError
	}
	slog.Debug("page fetched", "url", page.URL, "contentType", page.ContentType, "bytes", len(page.Markdown))
	return emit(page.URL, page.Markdown, cfg)
}

func runAsk(ctx context.Context, cfg config) int {
	var provider ai.Provider
	switch cfg.provider {
	case "openai":
		provider = openai.New()
	case "anthropic":
		provider = anthropic.New()
	default:
		fmt.Fprintf(os.Stderr, "jsonsift: unknown provider %q (want openai or anthropic)\n", cfg.provider)
		return exitError
	}
	if cfg.model == "" {
		fmt.Fprintln(os.Stderr, "jsonsift: -ask needs a model (-model flag or JSONSIFT_DEFAULT_MODEL)")
		return exitError
	}

	response, err := provider.SendMessage(ctx, ai.ChatRequest{
		Model:          cfg.model,
		Messages:       []ai.Message{{Role: ai.RoleUser, Content: cfg.ask}},
		ResponseFormat: &ai.ResponseFormat{Type: ai.FormatJSON},
	})
	if err != nil {
		slog.Error("provider request failed", "provider", cfg.provider, "error", err)
		return exitError
	}
	slog.Debug("response received", "model", response.Model, "finishReason", response.FinishReason)
	return emit(cfg.provider, response.Content, cfg)
}

// emit processes one unit of text and prints the outcome.
func emit(name, text string, cfg config) int {
	doc, err := process(text, cfg)
	if err != nil {
		slog.Error("nothing recovered", "source", name, "error", err)
		return exitNoDocument
	}
	fmt.Println(doc)
	return exitOK
}

// process recovers a document from one unit of text and applies the path
// and pretty transforms.
func process(text string, cfg config) (string, error) {
	var doc string
	if cfg.repair {
		normalized, err := parse.Normalize(text)
		if err != nil {
			return "", fmt.Errorf("%w: %v", errNoDocument, err)
		}
		doc = normalized
	} else {
		recovered, ok := query.Document(text)
		if !ok {
			return "", errNoDocument
		}
		doc = recovered
	}

	if cfg.path != "" {
		value := gjson.Get(doc, cfg.path)
		if !value.Exists() {
			return "", fmt.Errorf("no value at path %q", cfg.path)
		}
		doc = value.Raw
	}

	if cfg.pretty {
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(doc), "", "  "); err != nil {
			return "", fmt.Errorf("failed to indent document: %w", err)
		}
		doc = buf.String()
	}

	return doc, nil
}
