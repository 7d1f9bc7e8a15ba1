package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/acm-community-bot/internal/domain"
	"github.com/jose-valero/acm-community-bot/internal/infra/storage"
)

var discardLog = slog.New(slog.NewTextHandler(io.Discard, nil))

func newConfigService(t *testing.T, cfgs ...domain.GuildConfig) *ConfigService {
	t.Helper()
	store := storage.NewFileStore(filepath.Join(t.TempDir(), "config.json"))
	for _, c := range cfgs {
		if err := store.Upsert(context.Background(), c); err != nil {
			t.Fatal(err)
		}
	}
	return NewConfigService(store)
}

// fakeSession cumple Session guardando lo que el servicio le pide.
type fakeSession struct {
	mu sync.Mutex

	roles       []*discordgo.Role
	members     map[string]*discordgo.Member
	roleAdds    []string // "user:role"
	roleAddErr  error
	channels    map[string]*discordgo.Channel
	created     []discordgo.GuildChannelCreateData
	deleted     []string
	sent        []*discordgo.MessageSend
	sentTo      []string
	reactions   []string
	unreactions []string
	moves       map[string]string
	events      []*discordgo.GuildScheduledEvent
	eventErr    error
	messages    []*discordgo.Message
	bulk        [][]string
	single      []string
	perms       int64
	nextID      int
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		members:  map[string]*discordgo.Member{},
		channels: map[string]*discordgo.Channel{},
		moves:    map[string]string{},
	}
}

func (f *fakeSession) id() string {
	f.nextID++
	return fmt.Sprintf("id%d", f.nextID)
}

func (f *fakeSession) GuildRoles(string, ...discordgo.RequestOption) ([]*discordgo.Role, error) {
	return f.roles, nil
}

func (f *fakeSession) GuildMember(_, userID string, _ ...discordgo.RequestOption) (*discordgo.Member, error) {
	m, ok := f.members[userID]
	if !ok {
		return nil, errors.New("unknown member")
	}
	return m, nil
}

func (f *fakeSession) GuildMemberRoleAdd(_, userID, roleID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.roleAddErr != nil {
		return f.roleAddErr
	}
	f.roleAdds = append(f.roleAdds, userID+":"+roleID)
	return nil
}

func (f *fakeSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, data)
	f.sentTo = append(f.sentTo, channelID)
	return &discordgo.Message{ID: f.id(), ChannelID: channelID}, nil
}

func (f *fakeSession) Channel(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[channelID]
	if !ok {
		return nil, errors.New("unknown channel")
	}
	return ch, nil
}

func (f *fakeSession) GuildChannels(string, ...discordgo.RequestOption) ([]*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*discordgo.Channel, 0, len(f.channels))
	for _, c := range f.channels {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeSession) GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, data)
	ch := &discordgo.Channel{ID: f.id(), GuildID: guildID, Name: data.Name, Type: data.Type, ParentID: data.ParentID}
	f.channels[ch.ID] = ch
	return ch, nil
}

func (f *fakeSession) ChannelDelete(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, channelID)
	ch := f.channels[channelID]
	delete(f.channels, channelID)
	return ch, nil
}

func (f *fakeSession) MessageReactionAdd(_, messageID, emojiID string, _ ...discordgo.RequestOption) error {
	f.reactions = append(f.reactions, messageID+":"+emojiID)
	return nil
}

func (f *fakeSession) MessageReactionRemove(_, messageID, emojiID, userID string, _ ...discordgo.RequestOption) error {
	f.unreactions = append(f.unreactions, messageID+":"+emojiID+":"+userID)
	return nil
}

func (f *fakeSession) GuildMemberMove(_ string, userID string, channelID *string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moves[userID] = *channelID
	return nil
}

func (f *fakeSession) GuildScheduledEventCreate(guildID string, p *discordgo.GuildScheduledEventParams, _ ...discordgo.RequestOption) (*discordgo.GuildScheduledEvent, error) {
	if f.eventErr != nil {
		return nil, f.eventErr
	}
	ev := &discordgo.GuildScheduledEvent{ID: f.id(), GuildID: guildID, Name: p.Name, ScheduledStartTime: *p.ScheduledStartTime}
	f.events = append(f.events, ev)
	return ev, nil
}

func (f *fakeSession) GuildScheduledEventDelete(_, eventID string, _ ...discordgo.RequestOption) error {
	for i, e := range f.events {
		if e.ID == eventID {
			f.events = append(f.events[:i], f.events[i+1:]...)
			return nil
		}
	}
	return errors.New("unknown event")
}

func (f *fakeSession) GuildScheduledEvents(string, bool, ...discordgo.RequestOption) ([]*discordgo.GuildScheduledEvent, error) {
	return f.events, nil
}

func (f *fakeSession) ChannelMessages(_ string, limit int, _, _, _ string, _ ...discordgo.RequestOption) ([]*discordgo.Message, error) {
	if limit < len(f.messages) {
		return f.messages[:limit], nil
	}
	return f.messages, nil
}

func (f *fakeSession) ChannelMessagesBulkDelete(_ string, ids []string, _ ...discordgo.RequestOption) error {
	f.bulk = append(f.bulk, ids)
	return nil
}

func (f *fakeSession) ChannelMessageDelete(_, messageID string, _ ...discordgo.RequestOption) error {
	f.single = append(f.single, messageID)
	return nil
}

func (f *fakeSession) UserChannelPermissions(string, string, ...discordgo.RequestOption) (int64, error) {
	return f.perms, nil
}

var _ Session = (*fakeSession)(nil)

// fakeOccupancy: canal -> usuarios humanos conectados.
type fakeOccupancy struct {
	mu     sync.Mutex
	humans map[string][]string
	gone   map[string]bool
}

func (o *fakeOccupancy) IsVoice(_, channelID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return !o.gone[channelID]
}

func (o *fakeOccupancy) HumansIn(_, channelID string) []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.humans[channelID]
}

func (o *fakeOccupancy) set(channelID string, users ...string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.humans[channelID] = users
}
