package engine

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"sort"
	"time"
)

type StatsSnapshot struct {
	Uptime           string             `json:"uptime"`
	UptimeSec        int64              `json:"uptimeSec"`
	TotalJoins       int64              `json:"totalJoins"`
	TotalLeaves      int64              `json:"totalLeaves"`
	TotalKills       int64              `json:"totalKills"`
	PeakPlayers      int                `json:"peakPlayers"`
	CurrentPlayers   int                `json:"currentPlayers"`
	Connections      int                `json:"connections"`
	BotCount         int                `json:"botCount"`
	PelletCount      int                `json:"pelletCount"`
	AvgTickMs        float64            `json:"avgTickMs"`
	MaxTickMs        float64            `json:"maxTickMs"`
	TotalBytesSent   int64              `json:"totalBytesSent"`
	TotalBytesRecv   int64              `json:"totalBytesRecv"`
	DroppedSnapshots int64              `json:"droppedSnapshots"`
	Frame            int                `json:"frame"`
	Leaderboard      []LeaderboardEntry `json:"leaderboard"`
}

type LeaderboardEntry struct {
	Name   string  `json:"name"`
	Score  int     `json:"score"`
	Length float64 `json:"length"`
	IsBot  bool    `json:"isBot"`
}

// gameStats is owned by the loop.
type gameStats struct {
	startTime        time.Time
	totalJoins       int64
	totalLeaves      int64
	totalKills       int64
	peakPlayers      int
	totalBytesSent   int64
	droppedSnapshots int64

	tickDurations [60]time.Duration
	tickDurIdx    int
	maxTickMs     float64
}

func (s *gameStats) trackTick(elapsed time.Duration) {
	s.tickDurations[s.tickDurIdx%len(s.tickDurations)] = elapsed
	s.tickDurIdx++
	ms := float64(elapsed.Nanoseconds()) / 1e6
	if ms > s.maxTickMs {
		s.maxTickMs = ms
	}
}

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}

func (g *Game) buildSnapshot() StatsSnapshot {
	uptime := time.Since(g.stats.startTime)

	var totalNs int64
	count := 0
	for _, d := range g.stats.tickDurations {
		if d > 0 {
			totalNs += d.Nanoseconds()
			count++
		}
	}
	avgMs := 0.0
	if count > 0 {
		avgMs = float64(totalNs) / float64(count) / 1e6
	}

	players := g.world.alive()
	lb := make([]LeaderboardEntry, 0, len(players))
	for _, p := range players {
		lb = append(lb, LeaderboardEntry{Name: p.Name, Score: p.Score(), Length: p.Length, IsBot: p.IsBot})
	}
	sort.SliceStable(lb, func(i, j int) bool { return lb[i].Score > lb[j].Score })
	if len(lb) > LeaderboardN {
		lb = lb[:LeaderboardN]
	}

	return StatsSnapshot{
		Uptime:           formatDuration(uptime),
		UptimeSec:        int64(uptime.Seconds()),
		TotalJoins:       g.stats.totalJoins,
		TotalLeaves:      g.stats.totalLeaves,
		TotalKills:       g.stats.totalKills,
		PeakPlayers:      g.stats.peakPlayers,
		CurrentPlayers:   len(g.world.Players),
		Connections:      g.reg.len(),
		BotCount:         len(g.bots),
		PelletCount:      len(g.world.Pellets),
		AvgTickMs:        math.Round(avgMs*100) / 100,
		MaxTickMs:        math.Round(g.stats.maxTickMs*100) / 100,
		TotalBytesSent:   g.stats.totalBytesSent,
		TotalBytesRecv:   g.bytesRecv.Load(),
		DroppedSnapshots: g.stats.droppedSnapshots,
		Frame:            g.frame,
		Leaderboard:      lb,
	}
}

// GetStats asks the loop for a snapshot (channel-of-channels, so the read is
// race free). It returns false if the loop is not answering.
func (g *Game) GetStats() (StatsSnapshot, bool) {
	reply := make(chan StatsSnapshot, 1)
	if !g.submit(statsCmd{reply: reply}) {
		return StatsSnapshot{}, false
	}
	select {
	case snap := <-reply:
		return snap, true
	case <-g.done:
		return StatsSnapshot{}, false
	case <-time.After(2 * time.Second):
		return StatsSnapshot{}, false
	}
}

func HandleStats(game *Game, w http.ResponseWriter, r *http.Request) {
	snap, ok := game.GetStats()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if !ok {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"message": "game loop unavailable"})
		return
	}
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		log.Printf("[STATS] write response: %v", err)
	}
}
