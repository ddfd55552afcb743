package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/davidahmann/agent-platform/internal/config"
	"github.com/davidahmann/agent-platform/internal/dashboard"
	"github.com/davidahmann/agent-platform/internal/gateway"
	"github.com/davidahmann/agent-platform/internal/logging"
	"github.com/davidahmann/agent-platform/internal/opstate"
	"github.com/davidahmann/agent-platform/internal/preset"
	"github.com/davidahmann/agent-platform/internal/render"
	"github.com/davidahmann/agent-platform/internal/tokenstore"
	"github.com/davidahmann/agent-platform/pkg/types"
)

func main() {
	exitFn(run(os.Args, os.Stdout, os.Stderr))
}

var exitFn = os.Exit

func run(args []string, stdout io.Writer, stderr io.Writer) int {
	if len(args) < 2 {
		usage(stderr)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch args[1] {
	case "signup":
		return handleSignup(ctx, args[2:], stdout, stderr)
	case "login":
		return handleLogin(ctx, args[2:], stdout, stderr)
	case "logout":
		return handleLogout(args[2:], stdout, stderr)
	case "status":
		return handleStatus(args[2:], stdout, stderr)
	case "me":
		return handleMe(ctx, args[2:], stdout, stderr)
	case "ask":
		return handleAsk(ctx, args[2:], stdout, stderr)
	case "preview":
		return handlePreview(args[2:], stdout, stderr)
	case "presets":
		return handlePresets(args[2:], stdout, stderr)
	default:
		usage(stderr)
		return 2
	}
}

type commonFlags struct {
	addr      *string
	config    *string
	tokenPath *string
	color     *bool
}

func addCommonFlags(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		addr:      fs.String("addr", envOrDefault("AGENT_API_BASE", ""), "decision service base URL"),
		config:    fs.String("config", envOrDefault("AGENT_CONFIG_PATH", ""), "path to config file"),
		tokenPath: fs.String("token-path", envOrDefault("AGENT_TOKEN_PATH", ""), "credential file path"),
		color:     fs.Bool("color", false, "colorize output"),
	}
}

// app is the per-invocation wiring shared by every subcommand.
type app struct {
	cfg       config.Config
	logger    *slog.Logger
	tokens    *tokenstore.FileStore
	dashboard *dashboard.Dashboard
}

func newApp(flags commonFlags, stderr io.Writer) (*app, error) {
	cfg := config.Default()
	if *flags.config != "" {
		loaded, err := config.Load(*flags.config)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		cfg = loaded
	}
	cfg.APIBase = firstNonEmpty(*flags.addr, cfg.APIBase, config.DefaultAPIBase)
	cfg.TokenPath = firstNonEmpty(*flags.tokenPath, cfg.TokenPath)
	cfg.LogLevel = firstNonEmpty(os.Getenv("AGENT_LOG_LEVEL"), cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	logger := logging.New(stderr, level, cfg.LogFormat)
	if err != nil {
		logger.Warn("log level", "error", err)
	}

	tokenPath := cfg.TokenPath
	if tokenPath == "" {
		tokenPath, err = tokenstore.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	tokens, err := tokenstore.Open(tokenPath, firstNonEmpty(cfg.TokenKey, tokenstore.DefaultKey))
	if err != nil {
		return nil, err
	}

	catalog := preset.Default()
	if cfg.PresetsPath != "" {
		catalog, err = preset.LoadCatalog(cfg.PresetsPath)
		if err != nil {
			return nil, fmt.Errorf("presets: %w", err)
		}
	}

	gw := gateway.NewClient(cfg.APIBase, tokens, cfg.Timeout())
	gw.Logger = logger

	return &app{
		cfg:    cfg,
		logger: logger,
		tokens: tokens,
		dashboard: dashboard.New(dashboard.Options{
			Gateway: gw,
			Tokens:  tokens,
			Catalog: catalog,
			Logger:  logger,
		}),
	}, nil
}

func handleSignup(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	fs.SetOutput(stderr)
	common := addCommonFlags(fs)
	orgName := fs.String("org-name", "", "organization name")
	orgType := fs.String("org-type", "school", "organization type")
	email := fs.String("email", "", "admin email")
	password := fs.String("password", "", "admin password")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *orgName == "" || *email == "" || *password == "" {
		fmt.Fprintln(stderr, "signup requires --org-name, --email and --password")
		fs.Usage()
		return 2
	}

	a, err := newApp(common, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	resp, err := a.dashboard.Auth.Signup(ctx, types.SignupRequest{
		OrgName:  *orgName,
		OrgType:  *orgType,
		Email:    *email,
		Password: *password,
	})
	if err != nil {
		fmt.Fprintln(stderr, "signup failed: "+err.Error())
		return 1
	}

	if resp.Tenant != nil {
		fmt.Fprintf(stdout, "tenant_id=%s name=%s org_type=%s\n", resp.Tenant.ID, resp.Tenant.Name, resp.Tenant.OrgType)
	}
	if resp.Token != nil && resp.Token.AccessToken != "" {
		fmt.Fprintln(stdout, "logged in")
	} else {
		fmt.Fprintln(stdout, "signup ok; run login")
	}
	return 0
}

func handleLogin(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(stderr)
	common := addCommonFlags(fs)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *email == "" || *password == "" {
		fmt.Fprintln(stderr, "login requires --email and --password")
		fs.Usage()
		return 2
	}

	a, err := newApp(common, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	if _, err := a.dashboard.Auth.Login(ctx, *email, *password); err != nil {
		fmt.Fprintln(stderr, "login failed: "+err.Error())
		return 1
	}

	me := a.dashboard.Mount(ctx)
	if ctxVal, ok := me.Value(); ok {
		fmt.Fprintf(stdout, "logged in as %s tenant_id=%s\n", ctxVal.Email, ctxVal.TenantID)
		return 0
	}
	fmt.Fprintln(stdout, "logged in")
	return 0
}

func handleLogout(args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("logout", flag.ContinueOnError)
	fs.SetOutput(stderr)
	common := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	a, err := newApp(common, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	if err := a.dashboard.Logout(); err != nil {
		fmt.Fprintln(stderr, "logout failed: "+err.Error())
		return 1
	}
	render.New(stdout, false).Notice(a.dashboard.Notice())
	return 0
}

func handleStatus(args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(stderr)
	common := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	a, err := newApp(common, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	stored, err := a.dashboard.TokenStored()
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	state := "none"
	if stored {
		state = "stored"
	}
	fmt.Fprintf(stdout, "api_base=%s token=%s path=%s\n", a.cfg.APIBase, state, a.tokens.Path())
	return 0
}

func handleMe(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("me", flag.ContinueOnError)
	fs.SetOutput(stderr)
	common := addCommonFlags(fs)
	jsonOut := fs.Bool("json", false, "print the session as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	a, err := newApp(common, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	state := a.dashboard.Mount(ctx)
	if state.Status() == opstate.StatusFailed {
		render.New(stderr, false).Session(state)
		return 1
	}
	if *jsonOut {
		me, _ := state.Value()
		return writeJSON(stdout, stderr, me)
	}
	render.New(stdout, *common.color).Session(state)
	return 0
}

func handleAsk(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("ask", flag.ContinueOnError)
	fs.SetOutput(stderr)
	common := addCommonFlags(fs)
	form := addFormFlags(fs)
	jsonOut := fs.Bool("json", false, "print the response body verbatim")
	raw := fs.Bool("raw", false, "append the raw response to the card")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	a, err := newApp(common, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	form.apply(fs, a.dashboard.Form, stderr)

	if me := a.dashboard.Mount(ctx); me.Status() == opstate.StatusFailed {
		a.logger.Debug("session not loaded", "error", me.Err())
	}

	state, err := a.dashboard.Ask(ctx)
	if err != nil {
		a.logger.Debug("ask failed", "error", err)
	}
	if state.Status() == opstate.StatusFailed {
		render.New(stderr, false).Decision(state, false)
		return 1
	}

	if *jsonOut {
		res, _ := state.Value()
		_, _ = stdout.Write(res.Raw)
		fmt.Fprintln(stdout)
		return 0
	}
	render.New(stdout, *common.color).Decision(state, *raw)
	return 0
}

func handlePreview(args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	fs.SetOutput(stderr)
	common := addCommonFlags(fs)
	form := addFormFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	catalog, err := loadCatalog(common)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	f := preset.NewForm(catalog, nil)
	form.apply(fs, f, stderr)

	p := f.Preview()
	render.New(stdout, false).Preview(p)
	if !p.Valid() {
		return 1
	}
	return 0
}

func handlePresets(args []string, stdout io.Writer, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}
	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("presets list", flag.ContinueOnError)
		fs.SetOutput(stderr)
		common := addCommonFlags(fs)
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		catalog, err := loadCatalog(common)
		if err != nil {
			fmt.Fprintln(stderr, err.Error())
			return 1
		}
		render.New(stdout, false).Presets(catalog)
		return 0
	case "lint":
		fs := flag.NewFlagSet("presets lint", flag.ContinueOnError)
		fs.SetOutput(stderr)
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(stderr, "presets lint requires <catalog_path>")
			fs.Usage()
			return 2
		}
		catalog, err := preset.LoadCatalog(fs.Arg(0))
		if err != nil {
			fmt.Fprintln(stderr, err.Error())
			return 1
		}
		fmt.Fprintf(stdout, "ok presets=%d\n", len(catalog.Presets))
		return 0
	default:
		usage(stderr)
		return 2
	}
}

// loadCatalog resolves the preset catalog without touching the token store
// or the network.
func loadCatalog(flags commonFlags) (preset.Catalog, error) {
	path := ""
	if *flags.config != "" {
		cfg, err := config.Load(*flags.config)
		if err != nil {
			return preset.Catalog{}, fmt.Errorf("config: %w", err)
		}
		path = cfg.PresetsPath
	}
	if path == "" {
		return preset.Default(), nil
	}
	return preset.LoadCatalog(path)
}

type formFlags struct {
	preset   *string
	question *string
	fields   *string
}

func addFormFlags(fs *flag.FlagSet) formFlags {
	return formFlags{
		preset:   fs.String("preset", "", "preset id (default: first preset)"),
		question: fs.String("question", "", "question text, overrides the preset"),
		fields:   fs.String("fields", "", "fields JSON object, overrides the preset"),
	}
}

// apply loads the preset and then any explicitly set buffers, so an empty
// --fields clears the preset fields.
func (f formFlags) apply(fs *flag.FlagSet, form *preset.Form, stderr io.Writer) {
	if *f.preset != "" {
		applied := form.ApplyPreset(*f.preset)
		if applied.ID != *f.preset {
			fmt.Fprintf(stderr, "unknown preset %q, using %s\n", *f.preset, applied.ID)
		}
	}
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "question":
			form.SetQuestion(*f.question)
		case "fields":
			form.SetFields(*f.fields)
		}
	})
}

func writeJSON(stdout io.Writer, stderr io.Writer, v any) int {
	enc := json.NewEncoder(stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	return 0
}

func envOrDefault(key string, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

func usage(w io.Writer) {
	fmt.Fprint(w, `Agent Platform CLI

Usage:
  agent signup --org-name NAME --org-type TYPE --email EMAIL --password PASSWORD
  agent login --email EMAIL --password PASSWORD
  agent logout
  agent status
  agent me [--json]
  agent ask [--preset ID] [--question TEXT] [--fields JSON] [--json] [--raw]
  agent preview [--preset ID] [--question TEXT] [--fields JSON]
  agent presets list
  agent presets lint <catalog_path>

Common flags: --addr URL, --config PATH, --token-path PATH, --color
`)
}
