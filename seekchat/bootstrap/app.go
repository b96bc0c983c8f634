// seekchat/bootstrap/app.go
package bootstrap

import (
	"context"
	"fmt"

	"seekchat/seekchat/config"
	"seekchat/seekchat/controllers"
	"seekchat/seekchat/services/llm"
	"seekchat/seekchat/sources/credentials"
	"seekchat/seekchat/sources/psql"
	"seekchat/seekchat/sources/psql/dao"
	"seekchat/seekchat/utils/logging"

	"go.uber.org/zap"
)

// App holds everything the REPL and the bridge share.
type App struct {
	Config config.Config
	Store  *credentials.Store
	Client *llm.DeepSeekClient
	Chat   *controllers.ChatController

	db *psql.Database
}

// New loads credentials and wires the chat stack. A missing headers file is
// an error; the transcript database is only opened when a DSN is set.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	logger = logging.OrNop(logger)

	store, err := credentials.Load(cfg.HeadersFile, cfg.CookiesFile, logger)
	if err != nil {
		return nil, err
	}
	jar, err := store.Jar(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	client := llm.NewDeepSeekClient(llm.Options{
		CompletionURL: cfg.CompletionURL(),
		SessionURL:    cfg.SessionURL(),
		Headers:       store.Headers(),
		Jar:           jar,
		Timeout:       cfg.RequestTimeout,
		MaxAttempts:   cfg.RetryAttempts,
		RetryDelay:    cfg.RetryDelay,
		Logger:        logger.Named("deepseek"),
	})

	app := &App{Config: cfg, Store: store, Client: client}

	var transcripts controllers.TurnStore
	if cfg.TranscriptDSN != "" {
		db, err := psql.NewDatabase(ctx, cfg.TranscriptDSN, logger)
		if err != nil {
			return nil, fmt.Errorf("transcript database: %w", err)
		}
		app.db = db
		transcripts = dao.NewTurnDAO(db.DB)
	}

	app.Chat = controllers.NewChatController(client, transcripts, logger.Named("chat"))
	return app, nil
}

func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
}
