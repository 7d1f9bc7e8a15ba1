package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"

	discordrouter "github.com/jose-valero/acm-community-bot/internal/adapters/discord"
	"github.com/jose-valero/acm-community-bot/internal/adapters/httpapi"
	"github.com/jose-valero/acm-community-bot/internal/adapters/mail"
	"github.com/jose-valero/acm-community-bot/internal/app/metrics"
	"github.com/jose-valero/acm-community-bot/internal/app/service"
	"github.com/jose-valero/acm-community-bot/internal/domain"
	"github.com/jose-valero/acm-community-bot/internal/infra/config"
	"github.com/jose-valero/acm-community-bot/internal/infra/logging"
	"github.com/jose-valero/acm-community-bot/internal/infra/memstore"
	"github.com/jose-valero/acm-community-bot/internal/infra/redisstore"
	"github.com/jose-valero/acm-community-bot/internal/infra/storage"
)

const intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildVoiceStates |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsGuildMessageReactions

func main() {
	if err := run(); err != nil {
		slog.Error("bot detenido", "err", err)
		os.Exit(1)
	}
}

// estado compartido entre procesos (Redis) o en memoria
type stateStores struct {
	otps      service.OTPStore
	cooldowns discordrouter.Limiter
	sweep     *memstore.Cooldowns
	close     func() error
}

func openState(ctx context.Context, url string, log *slog.Logger) (stateStores, error) {
	if url == "" {
		cds := memstore.NewCooldowns()
		log.Info("estado en memoria (sin REDIS_URL)")
		return stateStores{
			otps:      memstore.NewOTPStore(domain.OTPTTL),
			cooldowns: cds,
			sweep:     cds,
			close:     func() error { return nil },
		}, nil
	}
	rdb, err := redisstore.Open(ctx, url)
	if err != nil {
		return stateStores{}, err
	}
	log.Info("✅ Redis listo")
	return stateStores{
		otps:      redisstore.NewOTPStore(rdb, domain.OTPTTL),
		cooldowns: redisstore.NewCooldowns(rdb),
		close:     rdb.Close,
	}, nil
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, logCloser, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, NoColor: cfg.LogNoColor})
	if err != nil {
		return err
	}
	defer logCloser.Close()
	slog.SetDefault(log)
	logging.BridgeDiscordgo(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Config de servidores
	store, closeStore, err := storage.OpenStore(ctx, storage.Options{
		Backend:     cfg.Storage.Backend,
		Path:        cfg.Storage.Path,
		DatabaseURL: cfg.Storage.DatabaseURL,
		Bucket: storage.BucketOptions{
			Endpoint:  cfg.Storage.S3Endpoint,
			Bucket:    cfg.Storage.S3Bucket,
			Key:       cfg.Storage.S3Key,
			AccessKey: cfg.Storage.S3AccessKey,
			SecretKey: cfg.Storage.S3SecretKey,
			Region:    cfg.Storage.S3Region,
			UseSSL:    cfg.Storage.S3UseSSL,
		},
	})
	if err != nil {
		return err
	}
	defer closeStore()
	log.Info("✅ config store listo", "backend", cfg.Storage.Backend)
	membership, _ := store.(storage.Membership)

	state, err := openState(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	defer state.close()

	mailer, err := mail.FromConfig(cfg.Mail, log)
	if err != nil {
		return err
	}

	// Discord session
	auth := strings.TrimSpace(cfg.DiscordToken)
	if !strings.HasPrefix(strings.ToLower(auth), "bot ") {
		auth = "Bot " + auth
	}
	s, err := discordgo.New(auth)
	if err != nil {
		return err
	}
	s.Identify.Intents = intents
	s.StateEnabled = true
	botID := func() string {
		if s.State != nil && s.State.User != nil {
			return s.State.User.ID
		}
		return ""
	}

	// Services
	window := metrics.NewWindow()
	cfgSvc := service.NewConfigService(store)
	voice := service.NewVoiceService(cfgSvc, s, discordrouter.NewStateOccupancy(s.State), memstore.NewVoiceStates(), log.With("component", "voice"))
	alerts := service.NewAlertService(cfgSvc, s, state.cooldowns, window, botID, log.With("component", "alerts"))
	r := discordrouter.NewRouter(s, cfg.GuildID(), discordrouter.Deps{
		Config:       cfgSvc,
		Verify:       service.NewVerifyService(cfgSvc, state.otps, state.cooldowns, mailer, s, botID, cfg.InstitutionalDomain, log.With("component", "verify")),
		Tickets:      service.NewTicketService(cfgSvc, s, log.With("component", "tickets")),
		Voice:        voice,
		Events:       service.NewEventService(cfgSvc, s, log.With("component", "events")),
		Clear:        service.NewClearService(s),
		Announce:     service.NewAnnounceService(s),
		Alerts:       alerts,
		Metrics:      window,
		Limits:       state.cooldowns,
		Membership:   membership,
		AdminRoleIDs: cfg.AdminRoleIDs,
	}, log)
	r.Handlers()

	if err := s.Open(); err != nil {
		return err
	}
	defer s.Close()
	log.Info("✅ conectado", "user", s.State.User.Username, "user_id", s.State.User.ID)

	if cfg.RegisterCommands {
		if err := r.Register(); err != nil {
			return err
		}
	}

	if state.sweep != nil {
		go state.sweep.Run(ctx, memstore.DefaultSweepInterval, memstore.DefaultSweepMaxAge, log)
	}

	var web *httpapi.Server
	if cfg.HTTPAddr != "" {
		web = httpapi.New(cfg.HTTPAddr, httpapi.Deps{
			Window:      window,
			Uptime:      r.Uptime,
			Cooldowns:   state.cooldowns,
			ActiveTemps: voice.ActiveTemps,
		}, log.With("component", "http"))
		go func() {
			if err := web.Start(); err != nil {
				log.Error("http server", "err", err)
				stop()
			}
		}()
	}

	<-ctx.Done()
	log.Info("apagando…")
	if web != nil {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := web.Shutdown(sctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			log.Warn("http shutdown", "err", err)
		}
	}
	return nil
}
