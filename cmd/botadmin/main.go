// ABOUTME: Terminal admin console for the botadmin backend
// ABOUTME: Manages users, conversations, scripts, orders, licenses and usage analytics

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/chatforge/botadmin/internal/api"
	"github.com/chatforge/botadmin/internal/config"
	"github.com/chatforge/botadmin/internal/session"
)

const banner = `
 _           _            _           _
| |__   ___ | |_ __ _  __| |_ __ ___ (_)_ __
| '_ \ / _ \| __/ _' |/ _' | '_ ' _ \| | '_ \
| |_) | (_) | || (_| | (_| | | | | | | | | | |
|_.__/ \___/ \__\__,_|\__,_|_| |_| |_|_|_| |_|
`

// Version is set by goreleaser at build time.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd := os.Args[1]
	args := os.Args[2:]

	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		printUsage()
		return
	}

	app, err := newApp(ctx)
	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
	defer app.close()

	switch cmd {
	case "login":
		err = app.cmdLogin(ctx, args)
	case "logout":
		err = app.cmdLogout(ctx)
	case "token":
		err = app.cmdToken(ctx, args)
	case "status":
		err = app.cmdStatus(ctx)
	case "me":
		err = app.cmdMe(ctx)
	case "users":
		err = app.cmdUsers(ctx, args)
	case "conversations":
		err = app.cmdConversations(ctx, args)
	case "scripts":
		err = app.cmdScripts(ctx, args)
	case "orders":
		err = app.cmdOrders(ctx, args)
	case "licenses":
		err = app.cmdLicenses(ctx, args)
	case "usage":
		err = app.cmdUsage(ctx, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: botadmin <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  login                     Sign in with email/password")
	fmt.Println("  logout                    Clear the stored credential")
	fmt.Println("  token import <url|token>  Store a token from an OAuth redirect URL or raw value")
	fmt.Println("  status                    Show backend reachability and session state")
	fmt.Println("  me                        Show your admin identity")
	fmt.Println("  users [list]              List users")
	fmt.Println("  users suspend <id>        Suspend a user")
	fmt.Println("  users delete <id>         Delete a user")
	fmt.Println("  conversations [list]      List conversations (--user <id> to filter)")
	fmt.Println("  conversations show <id>   Print a conversation transcript")
	fmt.Println("  scripts [list]            List scripts")
	fmt.Println("  scripts delete <id>       Delete a script")
	fmt.Println("  orders [list]             List orders")
	fmt.Println("  orders refund <id>        Refund an order (--reason <text>)")
	fmt.Println("  licenses [list]           List licenses")
	fmt.Println("  licenses revoke <id>      Revoke a license")
	fmt.Println("  usage                     Show usage summary (--watch to poll)")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  BOTADMIN_URL              Backend base URL (overrides config)")
	fmt.Println("  BOTADMIN_TOKEN            Bearer token (bypasses the persistent store)")
	fmt.Println("  BOTADMIN_CONFIG           Config file path")
	fmt.Println()
	yellow.Println("Examples:")
	fmt.Println("  botadmin login")
	fmt.Println("  botadmin users --page 2 --per-page 20")
	fmt.Println("  botadmin orders refund ord_123 --reason 'duplicate charge'")
	fmt.Println()
}

// app bundles the session, API client and their cleanup.
type app struct {
	cfg     *config.Config
	session *session.Session
	api     *api.Client
	store   *session.SQLiteStore // nil when BOTADMIN_TOKEN is used
}

// getConfigPath returns the path to the console config file.
// Priority: BOTADMIN_CONFIG env var > XDG_CONFIG_HOME/botadmin/config.yaml > ~/.config/botadmin/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("BOTADMIN_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "botadmin", "config.yaml")
}

// defaultConfig is used when no config file exists yet.
func defaultConfig() *config.Config {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			configDir = "."
		} else {
			configDir = filepath.Join(homeDir, ".config")
		}
	}

	return &config.Config{
		API: config.APIConfig{
			BaseURL: "http://localhost:8080",
			Timeout: config.DefaultTimeout,
		},
		Session: config.SessionConfig{
			TokenPath:       filepath.Join(configDir, "botadmin", "credentials.db"),
			MonitorInterval: config.DefaultMonitorInterval,
			Lookahead:       config.DefaultLookahead,
			CacheTTL:        config.DefaultCacheTTL,
		},
	}
}

func newApp(ctx context.Context) (*app, error) {
	cfg := defaultConfig()
	if path := getConfigPath(); fileExists(path) {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if u := os.Getenv("BOTADMIN_URL"); u != "" {
		cfg.API.BaseURL = u
	}

	a := &app{cfg: cfg}

	// BOTADMIN_TOKEN bypasses the persistent store for scripted use
	var store session.TokenStore
	if token := os.Getenv("BOTADMIN_TOKEN"); token != "" {
		store = session.NewMemoryStore(token)
	} else {
		s, err := session.NewSQLiteStore(cfg.Session.TokenPath)
		if err != nil {
			return nil, err
		}
		a.store = s
		store = s
	}

	opts := []session.Option{
		session.WithHTTPClient(newHTTPClient(cfg.API.Timeout)),
		session.WithLookahead(cfg.Session.Lookahead),
		session.WithHooks(session.Hooks{
			OnAuthRequired: func(reason string) {
				color.Red("\n  Sign-in required: %s\n", reason)
				fmt.Println("  Run 'botadmin login' to continue.")
				fmt.Println()
			},
			OnLoginSuccess: func(string) {
				color.Green("✓ Signed in\n")
			},
		}),
	}
	if cfg.API.RateLimit > 0 {
		burst := cfg.API.RateBurst
		if burst <= 0 {
			burst = 1
		}
		opts = append(opts, session.WithRateLimit(cfg.API.RateLimit, burst))
	}

	a.session = session.New(cfg.API.BaseURL, store, opts...)
	a.api = api.New(a.session, api.WithCache(cfg.Session.CacheTTL, 256))
	return a, nil
}

func (a *app) close() {
	a.api.Close()
	if a.store != nil {
		a.store.Close()
	}
}

// cmdLogin signs in with email/password credentials.
func (a *app) cmdLogin(ctx context.Context, args []string) error {
	var email string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--email", "-e":
			if i+1 < len(args) {
				email = args[i+1]
				i++
			}
		}
	}

	reader := bufio.NewReader(os.Stdin)
	if email == "" {
		fmt.Print("Email: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading email: %w", err)
		}
		email = strings.TrimSpace(line)
	}
	if email == "" {
		return fmt.Errorf("email is required")
	}

	fmt.Print("Password: ")
	line, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")

	return a.session.Login(ctx, email, password)
}

// cmdLogout clears the stored credential.
func (a *app) cmdLogout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	color.Green("✓ Signed out\n")
	return nil
}

// cmdToken handles token subcommands.
func (a *app) cmdToken(ctx context.Context, args []string) error {
	subcmd := ""
	if len(args) > 0 {
		subcmd = args[0]
		args = args[1:]
	}

	switch subcmd {
	case "import":
		return a.cmdTokenImport(ctx, args)
	default:
		return fmt.Errorf("usage: token import <redirect-url|token>")
	}
}

// cmdTokenImport stores a token handed back by the OAuth flow. The argument
// may be the full redirect URL (the token is extracted and the URL shown
// with the parameter stripped) or a raw token value.
func (a *app) cmdTokenImport(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: token import <redirect-url|token>")
	}

	value := args[0]
	token := value
	if strings.Contains(value, "://") {
		extracted, cleaned, err := session.TokenFromRedirectURL(value)
		if err != nil {
			return err
		}
		if extracted == "" {
			return fmt.Errorf("redirect URL carries no token or access_token parameter")
		}
		token = extracted
		fmt.Printf("  Cleaned URL: %s\n", cleaned)
	}

	return a.session.SetToken(ctx, token)
}

// cmdStatus shows backend reachability and the local session state.
func (a *app) cmdStatus(ctx context.Context) error {
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Backend:  %s\n", a.session.BaseURL())

	state, err := a.session.State(ctx)
	if err != nil {
		return err
	}
	switch state {
	case session.StateValid:
		green.Printf("  Session:  %s\n", state)
	case session.StateExpiringSoon:
		yellow.Printf("  Session:  %s\n", state)
	default:
		color.Red("  Session:  %s\n", state)
	}

	if state == session.StateValid || state == session.StateExpiringSoon {
		me, err := a.api.GetMe(ctx)
		if err != nil {
			yellow.Printf("  Identity: ")
			color.Red("unavailable (%v)\n", err)
		} else {
			green.Printf("  Identity: ")
			fmt.Printf("%s (%s)\n", me.Email, me.Role)
		}
	}

	fmt.Println()
	return nil
}

// cmdMe shows the signed-in admin's identity.
func (a *app) cmdMe(ctx context.Context) error {
	me, err := a.api.GetMe(ctx)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  Identity")
	cyan.Println("  --------")
	fmt.Printf("  ID:     %s\n", me.ID)
	fmt.Printf("  Email:  %s\n", me.Email)
	fmt.Printf("  Name:   %s\n", me.Name)
	fmt.Printf("  Role:   %s\n", me.Role)
	fmt.Println()

	return nil
}

// cmdUsers handles user subcommands.
func (a *app) cmdUsers(ctx context.Context, args []string) error {
	subcmd := "list"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		subcmd = args[0]
		args = args[1:]
	}

	switch subcmd {
	case "list", "ls":
		page := parsePageArgs(args)
		list, err := a.api.ListUsers(ctx, page)
		if err != nil {
			return err
		}
		return printList("Users", list, []string{"id", "email", "status", "created_at"})
	case "suspend":
		if len(args) < 1 {
			return fmt.Errorf("usage: users suspend <user-id>")
		}
		if err := a.api.UpdateUserStatus(ctx, args[0], "suspended"); err != nil {
			return err
		}
		color.Green("✓ Suspended user: %s\n", args[0])
		return nil
	case "delete", "rm", "remove":
		if len(args) < 1 {
			return fmt.Errorf("usage: users delete <user-id>")
		}
		if err := a.api.DeleteUser(ctx, args[0]); err != nil {
			return err
		}
		color.Green("✓ Deleted user: %s\n", args[0])
		return nil
	default:
		return fmt.Errorf("unknown users subcommand: %s (use list, suspend, delete)", subcmd)
	}
}

// cmdConversations handles conversation subcommands.
func (a *app) cmdConversations(ctx context.Context, args []string) error {
	subcmd := "list"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		subcmd = args[0]
		args = args[1:]
	}

	switch subcmd {
	case "list", "ls":
		var userID string
		rest := args[:0:0]
		for i := 0; i < len(args); i++ {
			switch args[i] {
			case "--user", "-u":
				if i+1 < len(args) {
					userID = args[i+1]
					i++
				}
			default:
				rest = append(rest, args[i])
			}
		}
		list, err := a.api.ListConversations(ctx, parsePageArgs(rest), userID)
		if err != nil {
			return err
		}
		return printList("Conversations", list, []string{"id", "user_id", "started_at", "messages"})
	case "show":
		if len(args) < 1 {
			return fmt.Errorf("usage: conversations show <conversation-id>")
		}
		transcript, err := a.api.GetTranscript(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(transcript)
	default:
		return fmt.Errorf("unknown conversations subcommand: %s (use list, show)", subcmd)
	}
}

// cmdScripts handles script subcommands.
func (a *app) cmdScripts(ctx context.Context, args []string) error {
	subcmd := "list"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		subcmd = args[0]
		args = args[1:]
	}

	switch subcmd {
	case "list", "ls":
		list, err := a.api.ListScripts(ctx, parsePageArgs(args))
		if err != nil {
			return err
		}
		return printList("Scripts", list, []string{"id", "name", "status", "updated_at"})
	case "delete", "rm", "remove":
		if len(args) < 1 {
			return fmt.Errorf("usage: scripts delete <script-id>")
		}
		if err := a.api.DeleteScript(ctx, args[0]); err != nil {
			return err
		}
		color.Green("✓ Deleted script: %s\n", args[0])
		return nil
	default:
		return fmt.Errorf("unknown scripts subcommand: %s (use list, delete)", subcmd)
	}
}

// cmdOrders handles order subcommands.
func (a *app) cmdOrders(ctx context.Context, args []string) error {
	subcmd := "list"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		subcmd = args[0]
		args = args[1:]
	}

	switch subcmd {
	case "list", "ls":
		list, err := a.api.ListOrders(ctx, parsePageArgs(args))
		if err != nil {
			return err
		}
		return printList("Orders", list, []string{"id", "user_id", "amount", "status", "created_at"})
	case "refund":
		if len(args) < 1 {
			return fmt.Errorf("usage: orders refund <order-id> [--reason <text>]")
		}
		orderID := args[0]
		reason := ""
		for i := 1; i < len(args); i++ {
			switch args[i] {
			case "--reason", "-r":
				if i+1 < len(args) {
					reason = args[i+1]
					i++
				}
			}
		}
		updated, err := a.api.RefundOrder(ctx, orderID, reason)
		if err != nil {
			return err
		}
		color.Green("✓ Refunded order: %s\n", orderID)
		return printJSON(updated)
	default:
		return fmt.Errorf("unknown orders subcommand: %s (use list, refund)", subcmd)
	}
}

// cmdLicenses handles license subcommands.
func (a *app) cmdLicenses(ctx context.Context, args []string) error {
	subcmd := "list"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		subcmd = args[0]
		args = args[1:]
	}

	switch subcmd {
	case "list", "ls":
		list, err := a.api.ListLicenses(ctx, parsePageArgs(args))
		if err != nil {
			return err
		}
		return printList("Licenses", list, []string{"id", "user_id", "tier", "status", "expires_at"})
	case "revoke":
		if len(args) < 1 {
			return fmt.Errorf("usage: licenses revoke <license-id>")
		}
		if err := a.api.RevokeLicense(ctx, args[0]); err != nil {
			return err
		}
		color.Green("✓ Revoked license: %s\n", args[0])
		return nil
	default:
		return fmt.Errorf("unknown licenses subcommand: %s (use list, revoke)", subcmd)
	}
}

// cmdUsage shows the usage summary, optionally polling with the background
// session monitor running so an expired session raises the login prompt.
func (a *app) cmdUsage(ctx context.Context, args []string) error {
	watch := false
	for _, arg := range args {
		if arg == "--watch" || arg == "-w" {
			watch = true
		}
	}

	if !watch {
		summary, err := a.api.UsageSummary(ctx)
		if err != nil {
			return err
		}
		return printJSON(summary)
	}

	monitor := a.session.StartMonitor(a.cfg.Session.MonitorInterval)
	defer monitor.Stop()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		summary, err := a.api.UsageSummary(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("--- %s ---\n", time.Now().Format("15:04:05"))
		if err := printJSON(summary); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			fmt.Println()
			return nil
		case <-ticker.C:
		}
	}
}

// parsePageArgs extracts --page/--per-page flags.
func parsePageArgs(args []string) api.Page {
	var page api.Page
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--page", "-p":
			if i+1 < len(args) {
				if n, err := strconv.Atoi(args[i+1]); err == nil {
					page.Page = n
				}
				i++
			}
		case "--per-page", "-n":
			if i+1 < len(args) {
				if n, err := strconv.Atoi(args[i+1]); err == nil {
					page.PerPage = n
				}
				i++
			}
		}
	}
	return page
}

// printList renders a paginated listing as a table, pulling the given keys
// out of each opaque item. Missing keys render as empty cells.
func printList(title string, list *api.List, keys []string) error {
	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Printf("  %s (%d total)\n", title, list.Total)
	cyan.Printf("  %s\n", strings.Repeat("-", len(title)))

	if len(list.Items) == 0 {
		fmt.Println("  (none)")
		fmt.Println()
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := make([]string, len(keys))
	for i, k := range keys {
		header[i] = strings.ToUpper(k)
	}
	fmt.Fprintln(w, "  "+strings.Join(header, "\t"))

	for _, item := range list.Items {
		var fields map[string]any
		if err := json.Unmarshal(item, &fields); err != nil {
			fmt.Fprintf(w, "  %s\n", truncate(string(item), 80))
			continue
		}
		cells := make([]string, len(keys))
		for i, k := range keys {
			cells[i] = truncate(fieldString(fields[k]), 32)
		}
		fmt.Fprintln(w, "  "+strings.Join(cells, "\t"))
	}
	w.Flush()
	fmt.Println()

	return nil
}

// printJSON pretty-prints an opaque payload.
func printJSON(raw json.RawMessage) error {
	var buf map[string]any
	if err := json.Unmarshal(raw, &buf); err != nil {
		// Not an object; print as-is
		fmt.Println(string(raw))
		return nil
	}
	pretty, err := json.MarshalIndent(buf, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(pretty))
	return nil
}

// fieldString renders an opaque field value for table output.
func fieldString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		if t, err := time.Parse(time.RFC3339, val); err == nil {
			return t.Format("Jan 02 15:04")
		}
		return val
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', 2, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		encoded, _ := json.Marshal(val)
		return string(encoded)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}
