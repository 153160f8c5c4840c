// Package cmd contains commands for the application.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Semior001/newsportal/app/assistant"
	"github.com/Semior001/newsportal/app/bot"
	"github.com/Semior001/newsportal/app/portal"
	"github.com/Semior001/newsportal/app/session"
	"github.com/Semior001/newsportal/app/store"
	"github.com/Semior001/newsportal/app/web"
	"github.com/Semior001/newsportal/pkg/botx"
	"github.com/Semior001/newsportal/pkg/botx/botapi"
	"github.com/Semior001/newsportal/pkg/logx"
	"github.com/gin-gonic/gin"
	"github.com/go-pkgz/requester"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

// CommonOpts contains options shared by all commands, set by main.
type CommonOpts struct {
	Version string
	Debug   bool
}

// SetCommon sets common options of the command.
func (c *CommonOpts) SetCommon(opts CommonOpts) { *c = opts }

// Run is a command to run the portal.
type Run struct {
	CommonOpts

	Catalogue string `long:"catalogue" env:"CATALOGUE" description:"catalogue file (.json, .yaml, .db), built-in articles if empty"`

	Web struct {
		Addr            string        `long:"addr" env:"ADDR" default:":8080" description:"address to listen on"`
		ReadTimeout     time.Duration `long:"read-timeout" env:"READ_TIMEOUT" default:"10s" description:"timeout for reading requests"`
		WriteTimeout    time.Duration `long:"write-timeout" env:"WRITE_TIMEOUT" default:"2m" description:"timeout for writing responses"`
		ShutdownTimeout time.Duration `long:"shutdown-timeout" env:"SHUTDOWN_TIMEOUT" default:"10s" description:"timeout for graceful shutdown"`
	} `group:"web" namespace:"web" env-namespace:"WEB"`

	Bot struct {
		Timeout time.Duration `long:"timeout" env:"TIMEOUT" default:"2m" description:"timeout for requests"`
		Workers int           `long:"workers" env:"WORKERS" default:"10" description:"number of update handlers"`

		Telegram struct {
			Token string `long:"token" env:"TOKEN" description:"telegram token, bot is disabled if empty"`
		} `group:"telegram" namespace:"telegram" env-namespace:"TELEGRAM"`
	} `group:"bot" namespace:"bot" env-namespace:"BOT"`

	Assistant struct {
		Provider struct {
			Token     string        `long:"token" env:"TOKEN" description:"provider API key"`
			BaseURL   string        `long:"base-url" env:"BASE_URL" default:"https://generativelanguage.googleapis.com/v1beta/openai" description:"OpenAI-compatible endpoint"`
			Model     string        `long:"model" env:"MODEL" default:"gemini-2.5-flash" description:"model name"`
			MaxTokens int           `long:"max-tokens" env:"MAX_TOKENS" default:"1000" description:"max tokens of the response"`
			Timeout   time.Duration `long:"timeout" env:"TIMEOUT" default:"5m" description:"timeout for provider calls"`
		} `group:"provider" namespace:"provider" env-namespace:"PROVIDER"`
	} `group:"assistant" namespace:"assistant" env-namespace:"ASSISTANT"`

	Session struct {
		TTL time.Duration `long:"ttl" env:"TTL" default:"30m" description:"inactivity period after which the session is dropped"`
		Max int           `long:"max" env:"MAX" default:"10000" description:"maximum number of live sessions"`
	} `group:"session" namespace:"session" env-namespace:"SESSION"`

	Portal struct {
		ContactDelay time.Duration `long:"contact-delay" env:"CONTACT_DELAY" default:"1s" description:"simulated processing time of the contact form"`
	} `group:"portal" namespace:"portal" env-namespace:"PORTAL"`
}

// Execute runs the command.
func (r *Run) Execute(_ []string) error {
	lg := slog.Default()

	catalogue, err := store.Load(r.Catalogue)
	if err != nil {
		return fmt.Errorf("load catalogue: %w", err)
	}
	lg.Info("catalogue loaded", slog.Int("articles", len(catalogue.All())))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if r.Assistant.Provider.Token == "" {
		lg.Warn("provider token is not set, assistant will answer with fallbacks")
	}

	providerClient := requester.New(
		http.Client{Timeout: r.Assistant.Provider.Timeout},
		logx.LoggingRoundTripper(lg.With(slog.String("prefix", "provider")), logx.RoundTripperOpts{
			Level:         slog.LevelDebug,
			SecretHeaders: []string{"Authorization"},
		}),
	).Client()

	gateway := assistant.NewGateway(
		lg.With(slog.String("prefix", "gateway")),
		providerClient,
		assistant.Params{
			Token:     r.Assistant.Provider.Token,
			BaseURL:   r.Assistant.Provider.BaseURL,
			Model:     r.Assistant.Provider.Model,
			MaxTokens: r.Assistant.Provider.MaxTokens,
		},
		assistant.NewMetrics(reg),
	)

	svc := assistant.NewService(
		lg.With(slog.String("prefix", "assistant")),
		catalogue,
		session.NewManager(session.Params{TTL: r.Session.TTL, MaxKeys: r.Session.Max}),
		gateway,
	)

	prt := portal.NewPortal(
		lg.With(slog.String("prefix", "portal")),
		catalogue,
		portal.Params{ContactDelay: r.Portal.ContactDelay},
	)

	if !r.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &web.Server{
		Addr:            r.Web.Addr,
		Version:         r.Version,
		Logger:          lg.With(slog.String("prefix", "web")),
		Store:           catalogue,
		Portal:          prt,
		Assistant:       svc,
		Gatherer:        reg,
		ReadTimeout:     r.Web.ReadTimeout,
		WriteTimeout:    r.Web.WriteTimeout,
		ShutdownTimeout: r.Web.ShutdownTimeout,
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	ewg, ctx := errgroup.WithContext(ctx)
	ewg.Go(func() error {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		select {
		case s := <-sig:
			lg.Warn("caught signal, stopping", slog.String("signal", s.String()))
			stop()
			return ctx.Err()
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	ewg.Go(func() error { return srv.Run(ctx) })

	if r.Bot.Telegram.Token != "" {
		if err = r.runBot(ctx, ewg, lg, catalogue, prt, svc); err != nil {
			stop()
			_ = ewg.Wait()
			return err
		}
	} else {
		lg.Info("telegram token is not set, bot is disabled")
	}

	if err = ewg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

func (r *Run) runBot(
	ctx context.Context,
	ewg *errgroup.Group,
	lg *slog.Logger,
	catalogue store.Interface,
	prt *portal.Portal,
	svc *assistant.Service,
) error {
	api, err := botapi.NewTelegram(lg.With(slog.String("prefix", "telegram")), r.Bot.Telegram.Token, 100)
	if err != nil {
		return fmt.Errorf("make telegram api: %w", err)
	}

	ctrl := &bot.Ctrl{
		Logger:         lg.With(slog.String("prefix", "bot")),
		Store:          catalogue,
		Portal:         prt,
		Assistant:      svc,
		API:            api,
		HandlerTimeout: r.Bot.Timeout,
	}

	b := botx.NewBot(
		ctrl.Routes().Handle,
		api,
		botx.WithLogger(lg.With(slog.String("prefix", "botx"))),
		botx.WithWorkers(r.Bot.Workers),
	)

	ewg.Go(func() error {
		lg.Info("starting telegram api")
		api.Run()
		lg.Warn("telegram api stopped listening for updates")
		return nil
	})
	ewg.Go(func() error {
		<-ctx.Done()
		api.Stop()
		return nil
	})
	ewg.Go(func() error {
		lg.Info("starting bot")
		b.Run(ctx)
		lg.Warn("bot stopped")
		return nil
	})

	return nil
}
