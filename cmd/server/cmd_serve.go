package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/houzhh15/meetbot/cmd/server/internal/api"
	"github.com/houzhh15/meetbot/cmd/server/internal/bot"
	"github.com/houzhh15/meetbot/cmd/server/internal/commands"
	"github.com/houzhh15/meetbot/cmd/server/internal/conversation"
	"github.com/houzhh15/meetbot/cmd/server/internal/digest"
	"github.com/houzhh15/meetbot/cmd/server/internal/discord"
	"github.com/houzhh15/meetbot/cmd/server/internal/notify"
	"github.com/houzhh15/meetbot/cmd/server/internal/services"
)

const (
	sweepInterval   = 10 * time.Minute
	sweepHorizon    = time.Hour
	shutdownTimeout = 10 * time.Second
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "连接 Discord 并运行机器人、每日汇总与管理 API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	cfg := a.cfg
	a.log.Info("starting meetbot", "version", version, "env", cfg.Server.Env, "channels", len(cfg.Channels))

	session, err := discord.NewSession(cfg.Bot.Token)
	if err != nil {
		return err
	}
	transport := discord.NewTransport(session)
	svc := a.service(notify.NewDispatcher(transport, a.log))

	machine := conversation.NewMachine(svc, conversation.NewTable(conversation.IdleTimeout), cfg.Bot.DefaultTheme,
		conversation.WithLogger(a.log))
	router := bot.NewRouter(cfg.Bot.CommandChannelID, commands.NewInterpreter(svc, a.log), machine, a.log)
	gateway := discord.NewGateway(session, transport, router, discord.GatewayConfig{
		BotName:          cfg.Bot.Name,
		CommandChannelID: cfg.Bot.CommandChannelID,
		Channels:         cfg.Channels,
	}, a.log)

	scheduler, err := digest.NewScheduler(cfg.Digest.Cron, svc, a.log)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return gateway.Run(gctx)
	})

	g.Go(func() error {
		scheduler.Start()
		a.log.Info("next digest", "at", scheduler.Next())
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		scheduler.Stop(stopCtx)
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if n := machine.Sweep(sweepHorizon); n > 0 {
					a.log.Debug("stale conversations swept", "count", n)
				}
			}
		}
	})

	if cfg.Server.Port != "" {
		srv := newAdminServer(a, svc)
		g.Go(func() error {
			a.log.Info("admin api listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	a.log.Info("meetbot stopped", "error", err)
	return err
}

// newAdminServer builds the admin HTTP server. It has no authentication, so it binds to
// loopback unless HTTP_HOST says otherwise.
func newAdminServer(a *app, svc services.MeetingService) *http.Server {
	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	return &http.Server{
		Addr: a.cfg.GetServerAddr(),
		Handler: api.NewRouter(api.Deps{
			Meetings:  svc,
			Env:       a.cfg.Server.Env,
			Version:   version,
			StartTime: time.Now(),
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
}
