package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/acm-community-bot/internal/domain"
	"github.com/jose-valero/acm-community-bot/internal/infra/memstore"
)

// TempVCIdle es cuánto espera un canal temporal vacío antes de borrarse.
const TempVCIdle = 5 * time.Minute

type VoiceService struct {
	cfg    *ConfigService
	api    VoiceAPI
	occ    Occupancy
	states *memstore.VoiceStates
	idle   time.Duration
	log    *slog.Logger
	now    func() time.Time
}

func NewVoiceService(cfg *ConfigService, api VoiceAPI, occ Occupancy, states *memstore.VoiceStates, log *slog.Logger) *VoiceService {
	return &VoiceService{cfg: cfg, api: api, occ: occ, states: states, idle: TempVCIdle, log: log, now: time.Now}
}

// PickPoolChannel devuelve el primer canal de voz del pool sin humanos conectados.
// Los IDs de canales borrados se saltan.
func (s *VoiceService) PickPoolChannel(guildID string, cfg domain.GuildConfig) (string, bool) {
	for _, id := range cfg.Channels.VCPool {
		if id == "" || id == cfg.Channels.VCCreate || !s.occ.IsVoice(guildID, id) {
			continue
		}
		if len(s.occ.HumansIn(guildID, id)) == 0 {
			return id, true
		}
	}
	return "", false
}

// HandleVoiceUpdate mueve a quien entra al canal "crear" hacia un canal libre.
// Devuelve el canal destino ("" si no aplica).
func (s *VoiceService) HandleVoiceUpdate(ctx context.Context, guildID, userID, channelID, beforeChannelID string) (string, error) {
	if beforeChannelID != "" && beforeChannelID != channelID {
		if _, ok := s.states.Get(beforeChannelID); ok {
			s.scheduleCleanup(guildID, beforeChannelID)
		}
	}
	if channelID == "" || channelID == beforeChannelID {
		return "", nil
	}
	cfg, found, err := s.cfg.Get(ctx, guildID)
	if err != nil || !found || cfg.Channels.VCCreate == "" || channelID != cfg.Channels.VCCreate {
		return "", err
	}

	target, ok := s.PickPoolChannel(guildID, cfg)
	if !ok {
		if cfg.Channels.VoiceCategory == "" {
			s.log.Info("voice: pool lleno y sin categoría para temporales", "guild_id", guildID)
			return "", nil
		}
		if target, err = s.createTemp(guildID, userID, cfg.Channels.VoiceCategory); err != nil {
			return "", err
		}
	}
	if err := s.api.GuildMemberMove(guildID, userID, &target, discordgo.WithAuditLogReason("Auto-move desde VC CREATE")); err != nil {
		return "", fmt.Errorf("mover a %s: %w", target, err)
	}
	return target, nil
}

func (s *VoiceService) createTemp(guildID, ownerID, categoryID string) (string, error) {
	name := fmt.Sprintf("Temp VC %04d", s.now().UnixMilli()%10000)
	ch, err := s.api.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:     name,
		Type:     discordgo.ChannelTypeGuildVoice,
		ParentID: categoryID,
	})
	if err != nil {
		return "", fmt.Errorf("crear canal temporal: %w", err)
	}
	s.states.Set(domain.VoiceMasterState{
		OwnerID:        ownerID,
		GuildID:        guildID,
		VoiceChannelID: ch.ID,
		BaseName:       name,
		Emoji:          "🔊",
		CreatedAt:      s.now(),
	})
	s.scheduleCleanup(guildID, ch.ID)
	s.log.Info("voice: canal temporal creado", "guild_id", guildID, "channel_id", ch.ID, "owner_id", ownerID)
	return ch.ID, nil
}

func (s *VoiceService) scheduleCleanup(guildID, channelID string) {
	s.states.Schedule(channelID, s.idle, func() { s.Cleanup(guildID, channelID) })
}

// Cleanup borra el canal temporal si está vacío; si no, vuelve a esperar.
func (s *VoiceService) Cleanup(guildID, channelID string) {
	if _, ok := s.states.Get(channelID); !ok {
		return
	}
	if len(s.occ.HumansIn(guildID, channelID)) > 0 {
		s.scheduleCleanup(guildID, channelID)
		return
	}
	s.states.Clear(channelID)
	if _, err := s.api.ChannelDelete(channelID, discordgo.WithAuditLogReason("Temp VC cleanup")); err != nil {
		s.log.Warn("voice: no se pudo borrar el temporal", "guild_id", guildID, "channel_id", channelID, "err", err)
		return
	}
	s.log.Info("voice: canal temporal borrado", "guild_id", guildID, "channel_id", channelID)
}

// Forget limpia el estado de un canal borrado por fuera del bot.
func (s *VoiceService) Forget(channelID string) {
	s.states.Clear(channelID)
}

func (s *VoiceService) ActiveTemps() int { return s.states.Len() }
