package memstore

import (
	"sync"
	"time"

	"github.com/jose-valero/acm-community-bot/internal/domain"
)

// VoiceStates guarda el estado de los canales temporales y su timer de limpieza.
type VoiceStates struct {
	mu     sync.Mutex
	state  map[string]domain.VoiceMasterState // voiceChannelID -> state
	timers map[string]*time.Timer
}

func NewVoiceStates() *VoiceStates {
	return &VoiceStates{state: map[string]domain.VoiceMasterState{}, timers: map[string]*time.Timer{}}
}

func (v *VoiceStates) Set(st domain.VoiceMasterState) {
	v.mu.Lock()
	v.state[st.VoiceChannelID] = st
	v.mu.Unlock()
}

func (v *VoiceStates) Get(channelID string) (domain.VoiceMasterState, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	st, ok := v.state[channelID]
	return st, ok
}

// Schedule (re)arma el timer del canal; el anterior se cancela.
func (v *VoiceStates) Schedule(channelID string, after time.Duration, fn func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if t, ok := v.timers[channelID]; ok {
		t.Stop()
	}
	v.timers[channelID] = time.AfterFunc(after, fn)
}

// Clear borra estado y timer del canal.
func (v *VoiceStates) Clear(channelID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if t, ok := v.timers[channelID]; ok {
		t.Stop()
		delete(v.timers, channelID)
	}
	delete(v.state, channelID)
}

func (v *VoiceStates) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.state)
}
