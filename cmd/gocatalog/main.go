/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"gocatalog/internal/assets"
	"gocatalog/internal/catalog"
	"gocatalog/internal/config"
	"gocatalog/internal/crash"
	"gocatalog/internal/domain"
	"gocatalog/internal/export"
	applog "gocatalog/internal/log"
	"gocatalog/internal/mirror"
	"gocatalog/internal/notify"
	"gocatalog/internal/preview"
	"gocatalog/internal/storage"
	"gocatalog/internal/ui"
	"gocatalog/internal/version"
	"gocatalog/internal/workspace"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

func usage(w io.Writer) {
	fmt.Fprintln(w, "GoCatalog, product catalog editor")
	fmt.Fprintf(w, "Version: %s\n", version.String())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  gocatalog version|-v|--version           Show version")
	fmt.Fprintln(w, "  gocatalog init [--write-config]           Create products.json and the backup folders")
	fmt.Fprintln(w, "  gocatalog list [--json] [--category C]    List products, newest first")
	fmt.Fprintln(w, "  gocatalog show <id>                       Print one product as JSON")
	fmt.Fprintln(w, "  gocatalog add --name N --price P [...]    Add a product")
	fmt.Fprintln(w, "  gocatalog update <id> [--name N ...]      Change the given fields of a product")
	fmt.Fprintln(w, "  gocatalog delete <id>                     Delete a product")
	fmt.Fprintln(w, "  gocatalog export [--check] [--preset P]   Publish products.js (web), the PDF (print) or both (all)")
	fmt.Fprintln(w, "  gocatalog pdf [--out file]                Write the printable price list")
	fmt.Fprintln(w, "  gocatalog search <words> [--category C]   Search name, category, badge and description")
	fmt.Fprintln(w, "  gocatalog reindex [--if-damaged]          Rebuild the search index")
	fmt.Fprintln(w, "  gocatalog check                           Validate products.json")
	fmt.Fprintln(w, "  gocatalog backups [--js]                  List backups of products.json (or products.js)")
	fmt.Fprintln(w, "  gocatalog restore                         Restore products.json from the newest readable backup")
	fmt.Fprintln(w, "  gocatalog import-image <file>             Copy an image into images/ and print its path")
	fmt.Fprintln(w, "  gocatalog serve [--addr host:port]        Preview the website with the live catalog")
	fmt.Fprintln(w, "  gocatalog sync-pg [--dsn DSN]             Mirror the catalog into PostgreSQL")
	fmt.Fprintln(w, "  gocatalog ui [<dataDir>]                  Launch the desktop editor (build with -tags fyne)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Every command accepts --config <file> and --data-dir <dir>.")
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// cli carries the global flags and outputs shared by all commands.
type cli struct {
	stdout, stderr io.Writer

	configPath string
	dataDir    string

	crash    *crash.Target
	notifier *notify.Client
	log      *slog.Logger
}

func run(args []string, stdout, stderr io.Writer) int {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	c := &cli{stdout: stdout, stderr: stderr, crash: &crash.Target{}, log: applog.WithComponent("cli")}
	defer crash.Recover(c.crash)

	if len(args) == 0 {
		usage(stdout)
		return exitOK
	}
	cmd, rest := args[0], args[1:]
	c.log.Debug("start", slog.String("cmd", cmd), slog.Int("args", len(rest)))
	code := c.dispatch(cmd, rest)
	c.close()
	return code
}

func (c *cli) dispatch(cmd string, rest []string) int {
	switch cmd {
	case "version", "--version", "-v":
		fmt.Fprintln(c.stdout, "GoCatalog")
		fmt.Fprintln(c.stdout, version.String())
		return exitOK
	case "help", "--help", "-h":
		usage(c.stdout)
		return exitOK
	case "init":
		return c.cmdInit(rest)
	case "list":
		return c.cmdList(rest)
	case "show":
		return c.cmdShow(rest)
	case "add":
		return c.cmdAdd(rest)
	case "update":
		return c.cmdUpdate(rest)
	case "delete":
		return c.cmdDelete(rest)
	case "export":
		return c.cmdExport(rest)
	case "pdf":
		return c.cmdPDF(rest)
	case "search":
		return c.cmdSearch(rest)
	case "reindex":
		return c.cmdReindex(rest)
	case "check":
		return c.cmdCheck(rest)
	case "backups":
		return c.cmdBackups(rest)
	case "restore":
		return c.cmdRestore(rest)
	case "import-image":
		return c.cmdImportImage(rest)
	case "serve":
		return c.cmdServe(rest)
	case "sync-pg":
		return c.cmdSyncPG(rest)
	case "ui":
		return c.cmdUI(rest)
	}
	fmt.Fprintf(c.stderr, "unknown command %q\n\n", cmd)
	usage(c.stderr)
	return exitUsage
}

// close delivers pending webhook notifications before the process exits.
func (c *cli) close() {
	if c.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c.notifier.Flush(ctx)
	c.notifier.Close()
}

// flags returns a flag set carrying the global flags.
func (c *cli) flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.StringVarP(&c.configPath, "config", "c", "", "config file (default $GCAT_CONFIG or the per-user config.yaml)")
	fs.StringVarP(&c.dataDir, "data-dir", "d", "", "catalog directory (default paths.data_dir, else the working directory)")
	return fs
}

// parse parses args and checks the number of positional arguments.
func (c *cli) parse(fs *pflag.FlagSet, args []string, minArgs, maxArgs int) bool {
	if err := fs.Parse(args); err != nil {
		return false
	}
	if n := fs.NArg(); n < minArgs || (maxArgs >= 0 && n > maxArgs) {
		fmt.Fprintf(c.stderr, "%s: wrong number of arguments\n", fs.Name())
		fs.PrintDefaults()
		return false
	}
	return true
}

// loadConfig reads the config and re-initializes logging from it.
func (c *cli) loadConfig() config.AppConfig {
	cfg, err := config.Load(c.configPath)
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	c.log = applog.WithComponent("cli")
	if err != nil {
		c.log.Warn("config not applied, using defaults", slog.Any("err", err))
	}
	return cfg
}

// open loads the config and opens the workspace. The crash target follows
// the opened catalog.
func (c *cli) open() (*workspace.Workspace, config.AppConfig, error) {
	cfg := c.loadConfig()
	ws, err := workspace.Open(cfg, c.dataDir)
	if err != nil {
		return nil, cfg, err
	}
	c.crash.BackupDir = ws.Store.BackupDir()
	c.crash.Snapshot = ws.Service.Snapshot
	if cfg.Notify.WebhookURL != "" && c.notifier == nil {
		c.notifier = notify.New(notify.FromConfig(cfg.Notify))
		ws.SetNotifier(c.notifier)
	}
	return ws, cfg, nil
}

func (c *cli) fail(err error) int {
	c.log.Error("command failed", slog.Any("err", err))
	fmt.Fprintln(c.stderr, "Error:", err)
	return exitFail
}

// report prints an operation outcome and maps it to the exit code.
func (c *cli) report(ok bool, msg string) int {
	if ok {
		fmt.Fprintln(c.stdout, msg)
		return exitOK
	}
	fmt.Fprintln(c.stderr, msg)
	return exitFail
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid product id %q", s)
	}
	return id, nil
}

func (c *cli) cmdInit(args []string) int {
	fs := c.flags("init")
	writeCfg := fs.Bool("write-config", false, "also write the config file with data_dir set to this catalog")
	if !c.parse(fs, args, 0, 0) {
		return exitUsage
	}
	ws, cfg, err := c.open()
	if err != nil {
		return c.fail(err)
	}
	fmt.Fprintf(c.stdout, "Catalog ready at %s (%d product(s))\n", ws.Layout.Root, len(ws.Service.GetAll()))
	if *writeCfg {
		path := c.configPath
		if path == "" {
			if path, err = config.ConfigPath(); err != nil {
				return c.fail(err)
			}
		}
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintln(c.stdout, "Config already exists, left unchanged:", path)
			return exitOK
		}
		cfg.Paths.DataDir = ws.Layout.Root
		if err := config.Save(cfg, path); err != nil {
			return c.fail(err)
		}
		fmt.Fprintln(c.stdout, "Wrote config", path)
	}
	return exitOK
}

func (c *cli) cmdList(args []string) int {
	fs := c.flags("list")
	asJSON := fs.Bool("json", false, "print the collection as JSON")
	category := fs.String("category", "", "only products of this category")
	if !c.parse(fs, args, 0, 0) {
		return exitUsage
	}
	ws, _, err := c.open()
	if err != nil {
		return c.fail(err)
	}
	var ps []domain.Product
	for _, p := range ws.Service.GetAll() {
		if *category == "" || strings.EqualFold(p.Category, *category) {
			ps = append(ps, p)
		}
	}
	if *asJSON {
		b, err := storage.EncodeProducts(ps)
		if err != nil {
			return c.fail(err)
		}
		_, _ = c.stdout.Write(b)
		return exitOK
	}
	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tRATING\tBADGE")
	for _, p := range ps {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Category, domain.DisplayPrice(p.Price), domain.Stars(p.Rating), p.BadgeText())
	}
	_ = tw.Flush()
	fmt.Fprintf(c.stdout, "%d product(s)\n", len(ps))
	return exitOK
}

func (c *cli) cmdShow(args []string) int {
	fs := c.flags("show")
	if !c.parse(fs, args, 1, 1) {
		return exitUsage
	}
	id, err := parseID(fs.Arg(0))
	if err != nil {
		return c.fail(err)
	}
	ws, _, err := c.open()
	if err != nil {
		return c.fail(err)
	}
	p, err := ws.Service.GetByID(id)
	if err != nil {
		return c.report(false, catalog.Message(err))
	}
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return c.fail(err)
	}
	fmt.Fprintln(c.stdout, string(b))
	return exitOK
}

// productFlags registers the editable fields of a product.
type productFlags struct {
	fs    *pflag.FlagSet
	in    domain.Input
	image string
}

func (c *cli) productFlags(name string) *productFlags {
	pf := &productFlags{fs: c.flags(name)}
	pf.fs.StringVar(&pf.in.Name, "name", "", "product name")
	pf.fs.StringVar(&pf.in.Price, "price", "", "price in "+domain.Currency)
	pf.fs.StringVar(&pf.in.Category, "category", "", "category, e.g. \""+domain.Categories[0]+"\"")
	pf.fs.IntVar(&pf.in.Rating, "rating", 0, "rating 1-5 (default 5)")
	pf.fs.StringVar(&pf.in.Badge, "badge", "", "badge, e.g. Nouveau; empty for none")
	pf.fs.StringVar(&pf.in.Description, "description", "", "description")
	pf.fs.StringVar(&pf.in.Icon, "icon", "", "icon shown without image (default "+domain.DefaultIcon+")")
	pf.fs.StringVar(&pf.image, "image", "", "image file to import")
	return pf
}

// overlay copies the flags that were set onto in.
func (pf *productFlags) overlay(in domain.Input) domain.Input {
	set := func(flag string, dst *string, v string) {
		if pf.fs.Changed(flag) {
			*dst = v
		}
	}
	set("name", &in.Name, pf.in.Name)
	set("price", &in.Price, pf.in.Price)
	set("category", &in.Category, pf.in.Category)
	set("badge", &in.Badge, pf.in.Badge)
	set("description", &in.Description, pf.in.Description)
	set("icon", &in.Icon, pf.in.Icon)
	if pf.fs.Changed("rating") {
		in.Rating = pf.in.Rating
	}
	return in
}

func (c *cli) cmdAdd(args []string) int {
	pf := c.productFlags("add")
	if !c.parse(pf.fs, args, 0, 0) {
		return exitUsage
	}
	ws, _, err := c.open()
	if err != nil {
		return c.fail(err)
	}
	p, err := ws.Submit(0, pf.in, pf.image)
	if errors.Is(err, workspace.ErrImage) {
		return c.fail(err)
	}
	code := c.report(catalog.Outcome(catalog.OpAdd, p, err))
	if code == exitOK {
		fmt.Fprintf(c.stdout, "id: %d\n", p.ID)
	}
	return code
}

func (c *cli) cmdUpdate(args []string) int {
	pf := c.productFlags("update")
	if !c.parse(pf.fs, args, 1, 1) {
		return exitUsage
	}
	id, err := parseID(pf.fs.Arg(0))
	if err != nil {
		return c.fail(err)
	}
	ws, _, err := c.open()
	if err != nil {
		return c.fail(err)
	}
	cur, err := ws.Service.GetByID(id)
	if err != nil {
		return c.report(false, catalog.Message(err))
	}
	p, err := ws.Submit(id, pf.overlay(domain.FromProduct(cur)), pf.image)
	if errors.Is(err, workspace.ErrImage) {
		return c.fail(err)
	}
	return c.report(catalog.Outcome(catalog.OpUpdate, p, err))
}

func (c *cli) cmdDelete(args []string) int {
	fs := c.flags("delete")
	if !c.parse(fs, args, 1, 1) {
		return exitUsage
	}
	id, err := parseID(fs.Arg(0))
	if err != nil {
		return c.fail(err)
	}
	ws, _, err := c.open()
	if err != nil {
		return c.fail(err)
	}
	p, err := ws.Delete(id)
	return c.report(catalog.Outcome(catalog.OpDelete, p, err))
}

func (c *cli) cmdExport(args []string) int {
	fs := c.flags("export")
	check := fs.Bool("check", false, "only report whether products.js matches products.json (exit 1 when not)")
	preset := fs.String("preset", "", "web | print | all")
	formats := fs.StringSlice("format", nil, "formats to write: js, pdf (overrides --preset)")
	outDir := fs.String("out", "", "directory for the PDF (default paths.exports)")
	if !c.parse(fs, args, 0, 0) {
		return exitUsage
	}
	ws, _, err := c.open()
	if err != nil {
		return c.fail(err)
	}
	if *check {
		ok, err := ws.Publisher.InSync()
		if err != nil {
			return c.fail(err)
		}
		if ok {
			fmt.Fprintln(c.stdout, "products.js is up to date")
			return exitOK
		}
		fmt.Fprintln(c.stdout, "products.js is out of date")
		return exitFail
	}

	ctx := context.Background()
	if *preset == "" && len(*formats) == 0 {
		n, err := ws.Publish(ctx)
		return c.report(catalog.ExportOutcome(ws.Publisher.Target(), n, err))
	}
	dir := *outDir
	if dir == "" {
		dir = ws.Layout.Exports
	}
	res, err := export.Batch(ws.Publisher, export.BatchOptions{
		Preset:    export.PresetName(*preset),
		Formats:   *formats,
		OutDir:    dir,
		PriceList: export.PriceListOptions{GroupByCategory: true},
	})
	if err != nil {
		c.log.Error("export failed", slog.Any("err", err))
		return c.report(catalog.ExportOutcome(ws.Publisher.Target(), 0, err))
	}
	for _, f := range res.Files {
		fmt.Fprintln(c.stdout, "wrote", f)
	}
	if res.Published > 0 {
		if err := ws.Reindex(ctx); err != nil {
			c.log.Warn("index refresh after export failed", slog.Any("err", err))
		}
	}
	return exitOK
}

func (c *cli) cmdPDF(args []string) int {
	fs := c.flags("pdf")
	out := fs.StringP("out", "o", "", "output file (default <paths.exports>/"+export.PriceListFileName+")")
	title := fs.String("title", "", "title printed on every page")
	group := fs.Bool("group", true, "group products by category")
	if !c.parse(fs, args, 0, 0) {
		return exitUsage
	}
	ws, _, err := c.open()
	if err != nil {
		return c.fail(err)
	}
	path := *out
	if path == "" {
		path = filepath.Join(ws.Layout.Exports, export.PriceListFileName)
	}
	ps := ws.Service.GetAll()
	if err := export.ExportPriceListPDF(ps, path, export.PriceListOptions{Title: *title, GroupByCategory: *group}); err != nil {
		return c.fail(err)
	}
	fmt.Fprintf(c.stdout, "Wrote %s (%d product(s))\n", path, len(ps))
	return exitOK
}

func (c *cli) cmdSearch(args []string) int {
	fs := c.flags("search")
	category := fs.String("category", "", "exact category")
	badge := fs.String("badge", "", "exact badge")
	minRating := fs.Int("min-rating", 0, "minimum rating")
	limit := fs.Int("limit", 50, "maximum number of results")
	if !c.parse(fs, args, 0, -1) {
		return exitUsage
	}
	ws, _, err := c.open()
	if err != nil {
		return c.fail(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	res, err := ws.Search(ctx, storage.SearchQuery{
		Text:      strings.Join(fs.Args(), " "),
		Category:  *category,
		Badge:     *badge,
		MinRating: *minRating,
		Limit:     *limit,
	})
	if err != nil {
		return c.fail(err)
	}
	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tMATCH")
	for _, r := range res {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.ID, r.Name, r.Category, domain.DisplayPrice(r.Price), r.Snippet)
	}
	_ = tw.Flush()
	fmt.Fprintf(c.stdout, "%d result(s)\n", len(res))
	return exitOK
}

func (c *cli) cmdReindex(args []string) int {
	fs := c.flags("reindex")
	ifDamaged := fs.Bool("if-damaged", false, "only rebuild when the index fails its integrity check")
	if !c.parse(fs, args, 0, 0) {
		return exitUsage
	}
	ws, _, err := c.open()
	if err != nil {
		return c.fail(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if *ifDamaged {
		rebuilt, err := storage.DetectAndRebuildIndex(ctx, ws.Layout.Root, ws.Service.GetAll())
		if err != nil {
			return c.fail(err)
		}
		if rebuilt {
			fmt.Fprintln(c.stdout, "Index was damaged and has been rebuilt")
		} else {
			fmt.Fprintln(c.stdout, "Index OK")
		}
		return exitOK
	}
	if err := ws.Reindex(ctx); err != nil {
		return c.fail(err)
	}
	fmt.Fprintf(c.stdout, "Index rebuilt (%d product(s))\n", len(ws.Service.GetAll()))
	return exitOK
}

func (c *cli) cmdSyncPG(args []string) int {
	fs := c.flags("sync-pg")
	dsn := fs.String("dsn", "", "PostgreSQL connection string (default mirror.dsn or $GCAT_PG_DSN)")
	if !c.parse(fs, args, 0, 0) {
		return exitUsage
	}
	ws, cfg, err := c.open()
	if err != nil {
		return c.fail(err)
	}
	if *dsn == "" {
		*dsn = cfg.Mirror.DSN
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	db, err := mirror.Open(ctx, *dsn)
	if err != nil {
		return c.fail(err)
	}
	defer func() { _ = db.Close() }()
	ps := ws.Service.GetAll()
	res, err := mirror.Sync(ctx, db, ps)
	if err != nil {
		return c.fail(err)
	}
	fmt.Fprintf(c.stdout, "Mirrored %d product(s): %d written, %d removed\n", len(ps), res.Upserted, res.Deleted)
	return exitOK
}

func (c *cli) cmdCheck(args []string) int {
	fs := c.flags("check")
	if !c.parse(fs, args, 0, 0) {
		return exitUsage
	}
	lay := c.loadConfig().Layout(c.dataDir)
	err := storage.Check(lay.Products)
	var ce *storage.CheckError
	switch {
	case err == nil:
		fmt.Fprintf(c.stdout, "%s: OK\n", lay.Products)
		return exitOK
	case errors.As(err, &ce):
		fmt.Fprintf(c.stdout, "%s: %d problem(s)\n", lay.Products, len(ce.Problems))
		for _, p := range ce.Problems {
			fmt.Fprintln(c.stdout, "  "+p.String())
		}
		return exitFail
	}
	return c.fail(err)
}

func (c *cli) cmdBackups(args []string) int {
	fs := c.flags("backups")
	js := fs.Bool("js", false, "list backups of the published products.js")
	if !c.parse(fs, args, 0, 0) {
		return exitUsage
	}
	ws, _, err := c.open()
	if err != nil {
		return c.fail(err)
	}
	list := ws.Store.Backups
	if *js {
		list = ws.Publisher.Backups
	}
	all, err := list()
	if err != nil {
		return c.fail(err)
	}
	for _, b := range all {
		fmt.Fprintln(c.stdout, b)
	}
	fmt.Fprintf(c.stdout, "%d backup(s)\n", len(all))
	return exitOK
}

func (c *cli) cmdRestore(args []string) int {
	fs := c.flags("restore")
	if !c.parse(fs, args, 0, 0) {
		return exitUsage
	}
	ws, _, err := c.open()
	if err != nil {
		return c.fail(err)
	}
	from, ps, err := ws.Store.RestoreLatest()
	if err != nil {
		return c.fail(err)
	}
	fmt.Fprintf(c.stdout, "Restored %d product(s) from %s\n", len(ps), from)
	return exitOK
}

func (c *cli) cmdImportImage(args []string) int {
	fs := c.flags("import-image")
	if !c.parse(fs, args, 1, 1) {
		return exitUsage
	}
	lay := c.loadConfig().Layout(c.dataDir)
	rel, err := assets.Import(lay.Root, fs.Arg(0))
	if err != nil {
		return c.fail(err)
	}
	fmt.Fprintln(c.stdout, rel)
	return exitOK
}

func (c *cli) cmdServe(args []string) int {
	fs := c.flags("serve")
	addr := fs.String("addr", "", "listen address (default preview.addr)")
	if !c.parse(fs, args, 0, 0) {
		return exitUsage
	}
	ws, cfg, err := c.open()
	if err != nil {
		return c.fail(err)
	}
	if *addr == "" {
		*addr = cfg.Preview.Addr
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = preview.Run(ctx, preview.Options{
		Addr:   *addr,
		Root:   ws.Layout.Root,
		Source: ws.Layout.Products,
		WebDir: ws.Layout.Web,
	}, func(bound string) {
		fmt.Fprintf(c.stdout, "Preview on http://%s/ (Ctrl+C to stop)\n", bound)
	})
	if err != nil {
		return c.fail(err)
	}
	return exitOK
}

func (c *cli) cmdUI(args []string) int {
	fs := c.flags("ui")
	if !c.parse(fs, args, 0, 1) {
		return exitUsage
	}
	if fs.NArg() == 1 && c.dataDir == "" {
		c.dataDir = fs.Arg(0)
	}
	ws, cfg, err := c.open()
	if err != nil {
		return c.fail(err)
	}
	if err := ui.Run(ws, ui.Options{Theme: cfg.General.Theme}); err != nil {
		fmt.Fprintln(c.stderr, "Error:", err)
		return exitFail
	}
	return exitOK
}
