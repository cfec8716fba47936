// Package main is the Matome CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	iofs "io/fs"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/matome/internal/cli"
	"github.com/hyperjump/matome/internal/concepts"
	"github.com/hyperjump/matome/internal/config"
	"github.com/hyperjump/matome/internal/keyword"
	"github.com/hyperjump/matome/internal/models"
	"github.com/hyperjump/matome/internal/organizer"
	"github.com/hyperjump/matome/internal/server"
	"github.com/hyperjump/matome/internal/storage"
	"github.com/hyperjump/matome/internal/watcher"
	"github.com/hyperjump/matome/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/matome/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "server":
		runServer()
	case "ingest":
		runIngest()
	case "search":
		runSearch()
	case "clusters":
		runClusters()
	case "remove":
		runRemove()
	case "status":
		runStatus()
	case "watch":
		runWatch()
	case "version", "--version", "-v":
		fmt.Printf("matome version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (ingests, cluster assignments, file events)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	org := components.Organizer
	watchOpts := []watcher.Option{}
	if debugMode {
		watchOpts = append(watchOpts, watcher.WithLogger(logger))
	}
	watch := watcher.New(
		cfg.Watch.Directories,
		cfg.Watch.Extensions,
		cfg.Watch.RecursiveOrDefault(),
		func(path string) {
			if _, err := org.IngestFile(context.Background(), path); err != nil {
				logger.Warn("watch ingest failed", zap.String("path", path), zap.Error(err))
			}
		},
		func(path string) {
			if err := org.RemoveFile(context.Background(), path); err != nil {
				logger.Warn("watch remove failed", zap.String("path", path), zap.Error(err))
			}
		},
		watchOpts...,
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := watch.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	watch.SyncExisting()

	srv := server.NewServer(org, cfg, logger)
	srv.EnableWatchManagement(watch, resolvedConfigPath)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// buildSearchQuery joins all positional args with spaces so multi-word
// queries work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the
// query to the front of the slice so that flag.Parse() sees them. Go's flag
// package stops at the first non-flag argument.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: matome search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  matome search machine learning
  matome search "machine learning"        # same as above
  matome search -cluster 2 decorators     # only documents in cluster 2
  matome search -output json query        # structured JSON for other apps
`)
}

func runSearch() {
	searchArgs := searchArgsReorder(os.Args[2:])

	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct storage mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage when server is not running)")
	topK := fs.Int("top-k", 10, "number of results")
	clusterID := fs.Int64("cluster", -1, "restrict results to one cluster id (-1 = all)")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgs)

	if fs.NArg() < 1 {
		printSearchUsage(fs)
		os.Exit(1)
	}
	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	query := models.SearchQuery{Query: queryStr, TopK: *topK}
	if *clusterID >= 0 {
		id := *clusterID
		query.ClusterID = &id
	}

	var response *models.SearchResponse
	if *serverURL != "" {
		// Use the HTTP API when the server is running (avoids an SQLite
		// lock conflict with the server process).
		response, err = searchViaHTTP(*serverURL, query)
	} else {
		var components *Components
		components, err = componentsForDirectMode(*configPath)
		if err == nil {
			defer components.Close()
			response, err = components.Organizer.Search(context.Background(), query)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func searchViaHTTP(serverURL string, query models.SearchQuery) (*models.SearchResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	topic := fs.String("topic", "", "suggested topic name for clustering")
	level := fs.String("level", "", "skill level (beginner, intermediate, advanced)")
	text := fs.String("text", "", "ingest this text directly instead of a file")
	title := fs.String("title", "", "document title (with -text; file ingests use the filename)")
	_ = fs.Parse(os.Args[2:])

	if *text == "" && fs.NArg() < 1 {
		fmt.Println("Usage: matome ingest [flags] <file-or-directory>")
		fmt.Println("       matome ingest -text \"...\" [-title \"...\"]")
		os.Exit(1)
	}

	components, err := componentsForDirectMode(*configPath)
	if err != nil {
		fmt.Printf("Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	ctx := context.Background()
	org := components.Organizer

	if *text != "" {
		doc, err := org.Ingest(ctx, models.IngestInput{
			Title:      *title,
			Text:       *text,
			Topic:      *topic,
			SkillLevel: *level,
		})
		if err != nil {
			fmt.Printf("Ingesting failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Document %d ingested into cluster %d\n", doc.ID, doc.ClusterID)
		return
	}

	path := fs.Arg(0)
	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Failed to stat path: %v\n", err)
		os.Exit(1)
	}
	if info.IsDir() {
		exts := components.Config.Watch.Extensions
		n := 0
		err := filepath.WalkDir(path, func(p string, d iofs.DirEntry, err error) error {
			if err != nil || d.IsDir() || !matchExtension(p, exts) {
				return err
			}
			if _, ingErr := org.IngestFile(ctx, p); ingErr != nil {
				fmt.Fprintf(os.Stderr, "Skipping %s: %v\n", p, ingErr)
				return nil
			}
			n++
			return nil
		})
		if err != nil {
			fmt.Printf("Ingesting directory failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Ingested %d file(s) from %s\n", n, path)
		return
	}

	abs, _ := filepath.Abs(path)
	data, err := os.ReadFile(abs)
	if err != nil {
		fmt.Printf("Failed to read file: %v\n", err)
		os.Exit(1)
	}
	doc, err := org.Ingest(ctx, models.IngestInput{
		Title:      filepath.Base(abs),
		Text:       string(data),
		Topic:      *topic,
		SkillLevel: *level,
		Source:     abs,
	})
	if err != nil {
		fmt.Printf("Ingesting failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Document %d ingested into cluster %d\n", doc.ID, doc.ClusterID)
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

func runRemove() {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: matome remove [flags] <document-id>")
		os.Exit(1)
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil {
		fmt.Printf("Invalid document id %q\n", fs.Arg(0))
		os.Exit(1)
	}

	components, err := componentsForDirectMode(*configPath)
	if err != nil {
		fmt.Printf("Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	if err := components.Organizer.Remove(context.Background(), id); err != nil {
		fmt.Printf("Removal failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Document removed: %d\n", id)
}

func runClusters() {
	fs := flag.NewFlagSet("clusters", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct storage mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	rename := fs.String("rename", "", "new name for the given cluster id")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if *serverURL != "" {
		runClustersHTTP(*serverURL, fs.Args(), *rename, format)
		return
	}

	components, err := componentsForDirectMode(*configPath)
	if err != nil {
		fmt.Printf("Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()
	org := components.Organizer
	ctx := context.Background()

	if fs.NArg() < 1 {
		if err := cli.WriteClusters(os.Stdout, org.Clusters(), format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil {
		fmt.Printf("Invalid cluster id %q\n", fs.Arg(0))
		os.Exit(1)
	}
	if *rename != "" {
		if err := org.RenameCluster(ctx, id, *rename); err != nil {
			fmt.Printf("Rename failed: %v\n", err)
			os.Exit(1)
		}
	}
	c, err := org.Cluster(id)
	if err != nil {
		fmt.Printf("Cluster lookup failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteCluster(os.Stdout, c, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runClustersHTTP(serverURL string, args []string, rename string, format cli.OutputFormat) {
	if len(args) < 1 {
		resp, err := http.Get(serverURL + "/api/v1/clusters")
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		var out struct {
			Clusters []models.Cluster `json:"clusters"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			fmt.Printf("Parse failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteClusters(os.Stdout, out.Clusters, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	id := args[0]
	if rename != "" {
		body, _ := json.Marshal(map[string]string{"name": rename})
		req, _ := http.NewRequest(http.MethodPatch, serverURL+"/api/v1/clusters/"+url.PathEscape(id), bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("Rename failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
	}
	resp, err := http.Get(serverURL + "/api/v1/clusters/" + url.PathEscape(id))
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Printf("Cluster lookup failed (%d): %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var c models.Cluster
	if err := json.NewDecoder(resp.Body).Decode(&c); err != nil {
		fmt.Printf("Parse failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteCluster(os.Stdout, c, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// statusResponse is the shape of GET /api/v1/status.
type statusResponse struct {
	Documents      int64                  `json:"documents"`
	Clusters       int                    `json:"clusters"`
	IndexedRows    int                    `json:"indexed_rows"`
	VocabularySize int                    `json:"vocabulary_size"`
	KeywordDocs    int64                  `json:"keyword_docs"`
	Config         map[string]interface{} `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (for direct storage mode)")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		components, err := componentsForDirectMode(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()
		stats, err := components.Organizer.Stats(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Stats failed: %v\n", err)
			os.Exit(1)
		}
		status = statusResponse{
			Documents:      stats.Documents,
			Clusters:       stats.Clusters,
			IndexedRows:    stats.IndexedRows,
			VocabularySize: stats.VocabularySize,
			KeywordDocs:    stats.KeywordDocs,
			Config: map[string]interface{}{
				"database_path":    components.Config.Storage.DatabasePath,
				"bleve_index_path": components.Config.Storage.BleveIndexPath,
			},
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("documents:        %d\n", status.Documents)
		fmt.Printf("clusters:         %d\n", status.Clusters)
		fmt.Printf("indexed_rows:     %d\n", status.IndexedRows)
		fmt.Printf("vocabulary_size:  %d\n", status.VocabularySize)
		fmt.Printf("keyword_docs:     %d\n", status.KeywordDocs)
		if len(status.Config) > 0 {
			fmt.Println()
			fmt.Println("# configuration")
			for _, key := range []string{"rebuild_threshold", "assign_threshold", "name_boost", "max_cluster_concepts", "database_path", "bleve_index_path"} {
				if v, ok := status.Config[key]; ok && v != "" {
					fmt.Printf("%-21s %v\n", key+":", v)
				}
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

func runWatch() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: matome watch <add|remove|list> [path]")
		fmt.Println("  matome watch add <path>     Add directory to watch")
		fmt.Println("  matome watch remove <path>  Remove directory from watch")
		fmt.Println("  matome watch list           List watched directories")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[3:])
	switch sub {
	case "add":
		if fs.NArg() < 1 {
			fmt.Println("Usage: matome watch add <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		body, _ := json.Marshal(map[string]interface{}{"path": path, "sync": true})
		resp, err := http.Post(*serverURL+"/api/v1/watch/directories", "application/json", bytes.NewReader(body))
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("Add failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Printf("Added: %s\n", path)
	case "remove":
		if fs.NArg() < 1 {
			fmt.Println("Usage: matome watch remove <path>")
			os.Exit(1)
		}
		path, _ := filepath.Abs(fs.Arg(0))
		req, _ := http.NewRequest(http.MethodDelete, *serverURL+"/api/v1/watch/directories?path="+url.QueryEscape(path), nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("Remove failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		fmt.Printf("Removed: %s\n", path)
	case "list":
		resp, err := http.Get(*serverURL + "/api/v1/watch/directories")
		if err != nil {
			fmt.Printf("Request failed: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			fmt.Printf("List failed (%d): %s\n", resp.StatusCode, string(b))
			os.Exit(1)
		}
		var out struct {
			Directories []string `json:"directories"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			fmt.Printf("Parse failed: %v\n", err)
			os.Exit(1)
		}
		for _, d := range out.Directories {
			fmt.Println(d)
		}
	default:
		fmt.Printf("Unknown watch subcommand: %s\n", sub)
		os.Exit(1)
	}
}

// Components holds initialized services.
type Components struct {
	Config    *config.Config
	Store     storage.Store
	Catalog   keyword.Index
	Organizer *organizer.Organizer
}

func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Catalog != nil {
		_ = c.Catalog.Close()
	}
}

// initializeComponents builds the full service graph and restores engine
// state from storage.
func initializeComponents(cfg *config.Config, logger *zap.Logger, debug bool) (*Components, error) {
	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	catalog, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize keyword catalog: %w", err)
	}

	extractor, err := concepts.NewCachedExtractor(
		concepts.NewKeywordExtractor(cfg.Extract.MaxConcepts),
		cfg.Extract.CacheSize,
	)
	if err != nil {
		_ = store.Close()
		_ = catalog.Close()
		return nil, fmt.Errorf("failed to initialize extractor: %w", err)
	}

	orgOpts := []organizer.Option{}
	if debug && logger != nil {
		orgOpts = append(orgOpts, organizer.WithLogger(logger))
	}
	org := organizer.New(&cfg.Engine, extractor, store, catalog, orgOpts...)
	if err := org.Restore(context.Background()); err != nil {
		_ = store.Close()
		_ = catalog.Close()
		return nil, fmt.Errorf("failed to restore state: %w", err)
	}

	return &Components{
		Config:    cfg,
		Store:     store,
		Catalog:   catalog,
		Organizer: org,
	}, nil
}

// componentsForDirectMode loads config, builds a logger from its debug flag,
// and initializes the service graph for one-shot commands.
func componentsForDirectMode(configPath string) (*Components, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return initializeComponents(cfg, logger, cfg.Debug)
}

func printUsage() {
	fmt.Println(`matome - Knowledge organization engine (similarity search + auto-clustering)

Usage:
  matome server [flags]              Start the HTTP server
  matome ingest [flags] <file>       Ingest a file or directory
  matome search [flags] <query>      Search documents by similarity
  matome clusters [flags] [id]       List clusters, or show/rename one
  matome remove [flags] <id>         Remove a document
  matome status [flags]              Show engine and storage status
  matome watch <add|remove|list>     Manage watched drop folders
  matome version                     Show version
  matome help                        Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/matome/config.yaml)
  --debug            Enable debug logging

Search Flags:
  --config string    Config file path (for direct storage mode)
  --server string    Server URL (default: http://localhost:8080). Use --server "" for direct storage.
  --top-k int        Number of results (default: 10)
  --cluster int      Restrict results to one cluster id
  --output string    Output format: text, compact, or json (default: text)

Clusters Flags:
  --server string    Server URL (default: http://localhost:8080). Use --server "" for direct storage.
  --rename string    New name for the given cluster id
  --output string    Output format: text, compact, or json

Examples:
  matome server
  matome ingest --topic Python notes/decorators.md
  matome ingest --text "generators yield lazily" --title "Generators"
  matome search "context managers"
  matome search -cluster 0 decorators
  matome clusters
  matome clusters 0 --rename "Python Basics"
  matome status --output json
  matome watch add ~/Drop/notes`)
}
