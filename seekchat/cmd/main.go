// Command seekchat is the terminal client: an interactive chat REPL plus the
// helpers that keep its credentials fresh.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"seekchat/seekchat/bootstrap"
	"seekchat/seekchat/config"
	"seekchat/seekchat/middlewares"
	"seekchat/seekchat/services/login"
	"seekchat/seekchat/services/render"
	"seekchat/seekchat/sources/credentials"
	"seekchat/seekchat/utils/color"
	"seekchat/seekchat/utils/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "0.1.0"

var v = config.New()

var rootCmd = &cobra.Command{
	Use:   "seekchat",
	Short: "Terminal client for DeepSeek web chat",
	Long: `seekchat talks to the DeepSeek web chat with the cookies and headers of a
logged-in browser session, threading each prompt onto the previous answer.`,
	SilenceUsage: true,
	RunE:         runChat,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	RunE:  runChat,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in through a browser and save the session cookies",
	Long: `Opens the sign-in page in Chromium and waits until the session cookie
appears, then writes every cookie of the context to the cookies file.`,
	RunE: runLogin,
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a token for the local bridge",
	RunE:  runToken,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("seekchat v%s\n", version)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("base-url", "", "Chat service base URL")
	flags.String("cookies", "", "Cookies file (JSON)")
	flags.String("headers", "", "Headers file (YAML)")
	flags.String("log-dir", "", "Directory for log files")
	flags.Duration("timeout", 0, "Per-attempt request timeout")
	flags.Int("retries", 0, "Attempts per prompt")
	flags.String("transcript-dsn", "", "Postgres DSN for saving turns")
	flags.String("style", "", "Glamour style (auto, dark, light, notty)")

	bind("base-url", "base_url")
	bind("cookies", "cookies_file")
	bind("headers", "headers_file")
	bind("log-dir", "log_dir")
	bind("timeout", "request_timeout")
	bind("retries", "retry_attempts")
	bind("transcript-dsn", "transcript_dsn")
	bind("style", "render_style")

	tokenCmd.Flags().String("client", "repl", "Subject recorded in the token")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(versionCmd)
}

// bind routes a persistent flag into the config key it overrides.
func bind(flag, key string) {
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding %s flag: %v\n", flag, err)
		os.Exit(1)
	}
}

func setup() (config.Config, error) {
	cfg := config.Load(v)
	if err := logging.InitLogger(cfg.LogDir); err != nil {
		return cfg, fmt.Errorf("logger init: %w", err)
	}
	return cfg, nil
}

func runChat(cmd *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logging.AppLogger)
	if err != nil {
		logging.ErrorLogger.Error("startup error", zap.Error(err))
		return err
	}
	defer app.Close()

	renderer, err := render.NewMarkdownRenderer(cfg.RenderStyle, cfg.WordWrap)
	if err != nil {
		return err
	}

	r := newREPL(app.Chat, renderer, cmd.InOrStdin(), cmd.OutOrStdout())
	r.greet(ctx)
	return r.run(ctx)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	browser, err := login.NewBrowser(logging.AppLogger)
	if err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer browser.Close()

	fmt.Fprintln(cmd.OutOrStdout(), color.ColorInfo("Log in in the browser window; it closes once the session cookie is set."))
	cookies, err := browser.CaptureCookies(ctx, login.Options{
		URL:           cfg.LoginURL,
		SessionCookie: cfg.LoginCookie,
		Timeout:       cfg.LoginTimeout,
		Logger:        logging.AppLogger,
	})
	if err != nil {
		return err
	}
	if err := credentials.SaveCookies(cfg.CookiesFile, cookies); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %d cookies to %s\n", len(cookies), cfg.CookiesFile)
	return nil
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg := config.Load(v)
	client, err := cmd.Flags().GetString("client")
	if err != nil {
		return err
	}
	ttl, err := cmd.Flags().GetDuration("ttl")
	if err != nil {
		return err
	}

	token, err := middlewares.IssueToken(cfg.BridgeSecret, client, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
