package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

const (
	maxFetch = 100
	// Discord no permite bulk delete de mensajes con más de 14 días
	bulkDeleteMaxAge = 14 * 24 * time.Hour
)

type ClearService struct {
	api PurgeAPI
}

func NewClearService(api PurgeAPI) *ClearService { return &ClearService{api: api} }

// UnitLabel traduce la unidad de /clear.
func UnitLabel(unit string) string {
	switch unit {
	case "h":
		return "horas"
	case "d":
		return "dias"
	default:
		return "mensajes"
	}
}

// SelectForClear elige qué mensajes borrar. Para "m" toma los value más recientes;
// para "h"/"d" los no fijados más nuevos que el corte. Siempre descarta los de más de 14 días.
func SelectForClear(msgs []*discordgo.Message, value int, unit string, now time.Time) []string {
	oldest := now.Add(-bulkDeleteMaxAge)
	var cutoff time.Time
	limit := len(msgs)
	switch unit {
	case "h":
		cutoff = now.Add(-time.Duration(value) * time.Hour)
	case "d":
		cutoff = now.Add(-time.Duration(value) * 24 * time.Hour)
	default:
		limit = min(max(value, 1), maxFetch)
	}
	if cutoff.Before(oldest) {
		cutoff = oldest
	}

	ids := make([]string, 0, limit)
	for _, m := range msgs {
		if len(ids) >= limit {
			break
		}
		if !m.Timestamp.After(cutoff) {
			continue
		}
		if unit != "m" && unit != "" && m.Pinned {
			continue
		}
		ids = append(ids, m.ID)
	}
	return ids
}

// Clear borra mensajes del canal y devuelve cuántos se borraron.
func (s *ClearService) Clear(_ context.Context, channelID string, value int, unit string, now time.Time) (int, error) {
	fetch := maxFetch
	if unit == "m" || unit == "" {
		fetch = min(max(value, 1), maxFetch)
	}
	msgs, err := s.api.ChannelMessages(channelID, fetch, "", "", "")
	if err != nil {
		return 0, fmt.Errorf("leer mensajes: %w", err)
	}
	ids := SelectForClear(msgs, value, unit, now)
	switch len(ids) {
	case 0:
		return 0, nil
	case 1:
		if err := s.api.ChannelMessageDelete(channelID, ids[0]); err != nil {
			return 0, err
		}
	default:
		if err := s.api.ChannelMessagesBulkDelete(channelID, ids); err != nil {
			return 0, fmt.Errorf("bulk delete: %w", err)
		}
	}
	return len(ids), nil
}
