package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/jonboulle/clockwork"
	"github.com/kelseyhightower/envconfig"
	"github.com/padel-games/padelbot/internal/cache"
	"github.com/padel-games/padelbot/internal/database"
	statDb "github.com/padel-games/padelbot/internal/database/stat/database"
	subscriberDb "github.com/padel-games/padelbot/internal/database/subscriber/database"
	tournamentDb "github.com/padel-games/padelbot/internal/database/tournament/database"
	"github.com/padel-games/padelbot/internal/logging"
	"github.com/padel-games/padelbot/internal/padelbot"
	"github.com/padel-games/padelbot/internal/padelbot/notify"
	"github.com/padel-games/padelbot/internal/padelbot/resource"
	"github.com/padel-games/padelbot/internal/resourcestore"
	"github.com/padel-games/padelbot/internal/sched"
	"github.com/padel-games/padelbot/internal/server"
	"github.com/padel-games/padelbot/internal/shutdown"
	"golang.org/x/sync/errgroup"
)

func main() {
	_, _ = fmt.Fprint(os.Stdout, resource.Graffiti)
	_, _ = fmt.Fprintf(
		os.Stdout,
		resource.GreetingCLI,
		resource.ProjectName,
		resource.ProjectVersion,
		resource.GithubUrl,
	)

	ctx, done := shutdown.New()
	defer done()
	logger := logging.FromContext(ctx)
	if err := realMain(ctx); err != nil {
		logger.Fatalf("main.realMain: %v", err)
	}
}

func realMain(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	config := padelbot.Config{}
	if err := envconfig.Process("", &config); err != nil {
		logger.Fatalf("processing the config: %v", err)
	}

	if config.BotToken == "" {
		return fmt.Errorf("bot token not found, please register your bot with @BotFather and set PADEL_BOT_TOKEN")
	}

	tg, err := tgbotapi.NewBotAPI(config.BotToken)
	if err != nil {
		return fmt.Errorf("bot api: %v", err)
	}

	tg.Debug = config.Debug

	_, _ = fmt.Fprint(os.Stdout, "Authorization in telegram was successful: ", tg.Self.UserName, "\n")

	db, err := database.NewFromEnv(ctx, &config.Db)
	if err != nil {
		return fmt.Errorf("new database from env: %v", err)
	}

	defer db.Close(ctx)

	subscriberCache, err := cache.NewLRU(config.CacheSize)
	if err != nil {
		return fmt.Errorf("can not create lru cache: %v", err)
	}

	statCache, err := cache.NewLRU(config.CacheSize)
	if err != nil {
		return fmt.Errorf("can not create lru cache: %v", err)
	}

	resourceCache, err := cache.NewLRU(config.CacheSize)
	if err != nil {
		return fmt.Errorf("can not create lru cache: %v", err)
	}

	resources := resourcestore.New(db, resourceCache, resource.BuiltinLoader)
	if err := resources.Install(ctx); err != nil {
		return fmt.Errorf("install resource snapshot: %v", err)
	}
	if err := resources.Activate(ctx); err != nil {
		return fmt.Errorf("activate resource snapshot: %v", err)
	}

	srv, err := server.New(config.Port)
	if err != nil {
		return fmt.Errorf("server.New: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/health", server.HandleHealth(ctx))

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := srv.ServeHTTP(ctx, &http.Server{Handler: mux}); err != nil {
			return fmt.Errorf("srv.ServeHTTP: %v", err)
		}
		return nil
	})

	group.Go(func() error {
		if err := http.ListenAndServe(":"+config.ProfPort, nil); err != nil {
			return fmt.Errorf("pprof default server: %v", err)
		}
		return nil
	})

	group.Go(func() error {
		scheduler := sched.New(clockwork.NewRealClock())
		notifier := notify.New(tg, subscriberDb.New(db, subscriberCache))
		manager := padelbot.NewManager(
			tg,
			&config,
			tournamentDb.New(db),
			statDb.New(db, statCache),
			notifier,
			resources,
			scheduler,
		)
		if err := manager.Run(ctx); err != nil {
			return fmt.Errorf("run: %v", err)
		}
		return nil
	})

	return group.Wait()
}
