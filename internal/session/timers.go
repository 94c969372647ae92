package session

import (
	"sync"
	"time"

	"github.com/orla-games/meeplecore/pkg/plugin"
)

// AfterFuncTimers implements engine.Timers with time.AfterFunc, one timer
// per (match, player). Grounded on the shape of the teacher's TimerListener
// (internal/service/timer.go) but simplified: the teacher arms multi-day
// Diplomacy phase deadlines through a Redis keyspace subscription because
// its timers must survive process restarts on their own; our grace periods
// are short (seconds to minutes) and Session Manager.Recover already
// re-arms them from persisted disconnect timestamps on restart, so a plain
// in-process timer is sufficient and avoids a second Redis subscription.
type AfterFuncTimers struct {
	mu     sync.Mutex
	timers map[plugin.MatchId]map[plugin.PlayerId]*time.Timer
}

// NewAfterFuncTimers creates an empty timer set.
func NewAfterFuncTimers() *AfterFuncTimers {
	return &AfterFuncTimers{timers: make(map[plugin.MatchId]map[plugin.PlayerId]*time.Timer)}
}

// Start arms (replacing any existing) timer for matchId/playerId.
func (t *AfterFuncTimers) Start(matchId plugin.MatchId, playerId plugin.PlayerId, delay time.Duration, onExpire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	byPlayer, ok := t.timers[matchId]
	if !ok {
		byPlayer = make(map[plugin.PlayerId]*time.Timer)
		t.timers[matchId] = byPlayer
	}
	if existing, ok := byPlayer[playerId]; ok {
		existing.Stop()
	}
	byPlayer[playerId] = time.AfterFunc(delay, onExpire)
}

// Cancel stops and forgets matchId/playerId's timer, if any.
func (t *AfterFuncTimers) Cancel(matchId plugin.MatchId, playerId plugin.PlayerId) {
	t.mu.Lock()
	defer t.mu.Unlock()
	byPlayer, ok := t.timers[matchId]
	if !ok {
		return
	}
	if existing, ok := byPlayer[playerId]; ok {
		existing.Stop()
		delete(byPlayer, playerId)
	}
	if len(byPlayer) == 0 {
		delete(t.timers, matchId)
	}
}
