package internal

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// 系統設計問題：
//   服務器不跑物理、不驗證命中，只在兩個客戶端之間中繼事件，
//   那正確性風險在哪裡？在房間協調與重賽投票協議：
//   一個小而精確的狀態機，管理房間生命週期、配對、斷線與兩方共識。
//
// 核心挑戰：
//   1. 事件序列化：所有入站事件處理到完成，期間不與其他事件交錯
//   2. 延遲開局：配對與重賽成立後各有一次定時廣播，房間可能在延遲期間被銷毀
//   3. 兩方共識：投票集合必須在每次開局與每次結束時歸零
//   4. 信任模型：轉發的遊戲事件不驗證內容（客戶端權威，刻意不做反作弊）

// DefaultStartDelay 配對成功 / 重賽成立到開局廣播的延遲
//
// 這段延遲是留給客戶端完成界面過場的，與遊戲邏輯無關；
// 用定時回調實現，不阻塞事件處理。
const DefaultStartDelay = time.Second

// Sender 出站消息的傳輸抽象
//
// 由 WebSocket Hub 實現；測試中用記錄型假實現替代。
// 發送是即發即棄的：慢消費者由傳輸層自行丟棄，不回壓到協調邏輯。
type Sender interface {
	Send(conn ConnID, event Event)
}

// Game 房間協調器
//
// 持有註冊表的唯一互斥鎖（單一持有點）：
// 創建、加入、轉發、投票、斷線以及延遲開局回調全部經過 g.mu，
// 等價於單線程事件分發，註冊表與房間因此無需自帶鎖。
type Game struct {
	mu         sync.Mutex
	registry   *Registry
	sender     Sender
	logger     *slog.Logger
	startDelay time.Duration
}

// NewGame 創建房間協調器
func NewGame(sender Sender, logger *slog.Logger, startDelay time.Duration) *Game {
	if startDelay <= 0 {
		startDelay = DefaultStartDelay
	}
	return &Game{
		registry:   NewRegistry(),
		sender:     sender,
		logger:     logger,
		startDelay: startDelay,
	}
}

// CreateRoom 創建房間
//
// 創建者佔據 1 號槽位，只有創建者收到 roomCreated 確認。
func (g *Game) CreateRoom(conn ConnID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	room, err := g.registry.Create(conn)
	if err != nil {
		g.sendError(conn, err)
		return
	}

	g.logger.Info("房間已創建",
		"room_code", room.Code,
		"conn_id", conn)

	g.sender.Send(conn, Event{
		Type:    EventRoomCreated,
		Payload: RoomAssignedPayload{RoomCode: room.Code, PlayerID: 1},
	})
}

// JoinRoom 加入房間
//
// 成功後加入者收到 roomJoined，全房間收到 playerJoined，
// 並排定一次延遲開局廣播。
func (g *Game) JoinRoom(conn ConnID, code string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	room, slot, err := g.registry.Join(code, conn)
	if err != nil {
		g.sendError(conn, err)
		return
	}

	g.logger.Info("玩家加入房間",
		"room_code", room.Code,
		"conn_id", conn,
		"slot", slot)

	g.sender.Send(conn, Event{
		Type:    EventRoomJoined,
		Payload: RoomAssignedPayload{RoomCode: room.Code, PlayerID: slot},
	})
	g.broadcast(room, Event{Type: EventPlayerJoined})

	g.scheduleStart(room)
}

// scheduleStart 排定延遲開局廣播（調用方需持有 g.mu）
//
// 回調重新進入互斥鎖後必須確認房間仍然存在：
// 延遲期間任何一方斷線都會銷毀房間，此時廣播降級為無操作。
// 同時比對指針（代碼在銷毀後理論上可能被重建的新房間取得）。
func (g *Game) scheduleStart(room *Room) {
	code := room.Code
	time.AfterFunc(g.startDelay, func() {
		g.mu.Lock()
		defer g.mu.Unlock()

		current, ok := g.registry.Lookup(code)
		if !ok || current != room {
			g.logger.Debug("開局廣播目標房間已不存在", "room_code", code)
			return
		}

		room.Start()
		g.broadcast(room, Event{Type: EventGameStart})

		g.logger.Info("對局開始", "room_code", code)
	})
}

// RelayState 轉發位置同步（點對點，排除發送者）
//
// payload 不做任何解碼驗證，原樣透傳；
// 覆蓋舊狀態（last-write-wins）是客戶端的職責。
// 不在房間內的發送者被靜默忽略。
func (g *Game) RelayState(conn ConnID, payload json.RawMessage) {
	g.relayToOpponent(conn, EventOpponentState, payload)
}

// RelayShoot 轉發開火意圖（點對點，排除發送者）
func (g *Game) RelayShoot(conn ConnID, payload json.RawMessage) {
	g.relayToOpponent(conn, EventOpponentShoot, payload)
}

// RelayHit 轉發命中回報（全房間廣播，含發送者）
//
// 命中由客戶端本地碰撞檢測得出，服務器原樣廣播為計分通知。
func (g *Game) RelayHit(conn ConnID, payload json.RawMessage) {
	g.mu.Lock()
	defer g.mu.Unlock()

	room, ok := g.registry.FindByMember(conn)
	if !ok {
		return
	}
	g.broadcast(room, Event{Type: EventHitRegistered, Payload: payload})
}

// GameOver 處理勝者回報
//
// 全房間廣播 gameEnded，並清空投票集合：
// 對局結束即開啟新一輪重賽投票。
func (g *Game) GameOver(conn ConnID, payload json.RawMessage) {
	g.mu.Lock()
	defer g.mu.Unlock()

	room, ok := g.registry.FindByMember(conn)
	if !ok {
		return
	}

	room.EndGame()
	g.broadcast(room, Event{Type: EventGameEnded, Payload: payload})

	g.logger.Info("對局結束", "room_code", room.Code)
}

// RequestRematch 重賽投票
//
// 兩方共識協議：
//  1. 按成員關係解析房間；找不到房間或沒有對手時，
//     只通知發起者錯誤，不改動任何投票狀態
//  2. 記錄發起者的贊成票（集合語義，重複投票不重複計數）
//  3. 通知發起者「等待中」，通知對手「對方已投票」
//  4. 雙方都已投票：全房間廣播「成立」，清空票集，排定延遲開局
//
// 同一成員在對手投票前重複調用會重複收到「等待中」通知：
// 服務器不做去重，由客戶端（禁用投票按鈕）負責。
func (g *Game) RequestRematch(conn ConnID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	room, ok := g.registry.FindByMember(conn)
	if !ok {
		g.sendVoteError(conn, ErrRoomNotFound)
		return
	}
	if room.MemberCount() < maxMembers {
		g.sendVoteError(conn, ErrNoOpponent)
		return
	}

	agreed := room.Vote(conn)

	g.sender.Send(conn, Event{
		Type: EventRematchVoteUpdate,
		Payload: RematchVotePayload{
			Type:    VoteWaiting,
			Message: "已記錄投票，等待對手…",
		},
	})
	g.broadcastExcept(room, conn, Event{
		Type: EventRematchVoteUpdate,
		Payload: RematchVotePayload{
			Type:    VoteOpponentVoted,
			Message: "對手想再來一局！",
		},
	})

	if !agreed {
		return
	}

	g.logger.Info("重賽投票成立", "room_code", room.Code)

	g.broadcast(room, Event{
		Type: EventRematchVoteUpdate,
		Payload: RematchVotePayload{
			Type:    VoteAccepted,
			Message: "雙方同意，重新開局！",
		},
	})
	room.ResetVotes()
	g.scheduleStart(room)
}

// Disconnect 處理成員斷線
//
// 斷線不是錯誤，而是終態轉換：剩餘成員恰好收到一次
// opponentDisconnected 通知，隨後房間整體銷毀，雙方都
// 不再歸屬任何房間（不自動重聯，剩餘成員需回到選單）。
func (g *Game) Disconnect(conn ConnID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	room, ok := g.registry.FindByMember(conn)
	if !ok {
		return
	}

	g.broadcastExcept(room, conn, Event{Type: EventOpponentDisconnected})
	g.registry.Remove(room.Code)

	g.logger.Info("成員斷線，房間已銷毀",
		"room_code", room.Code,
		"conn_id", conn)
}

// Stats 返回統計資訊
func (g *Game) Stats() map[string]any {
	g.mu.Lock()
	defer g.mu.Unlock()

	byState, totalMembers := g.registry.Snapshot()
	stateCount := make(map[string]int, len(byState))
	for s, n := range byState {
		stateCount[string(s)] = n
	}

	return map[string]any{
		"total_rooms":   g.registry.Count(),
		"total_members": totalMembers,
		"by_state":      stateCount,
	}
}

// RoomOf 返回連接所屬房間代碼（供測試與統計使用）
func (g *Game) RoomOf(conn ConnID) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	room, ok := g.registry.FindByMember(conn)
	if !ok {
		return "", false
	}
	return room.Code, true
}

// relayToOpponent 點對點轉發（排除發送者）
func (g *Game) relayToOpponent(conn ConnID, eventType string, payload json.RawMessage) {
	g.mu.Lock()
	defer g.mu.Unlock()

	room, ok := g.registry.FindByMember(conn)
	if !ok {
		return
	}
	g.broadcastExcept(room, conn, Event{Type: eventType, Payload: payload})
}

// broadcast 發送給房間全部成員（調用方需持有 g.mu）
func (g *Game) broadcast(room *Room, event Event) {
	for _, m := range room.Members() {
		g.sender.Send(m, event)
	}
}

// broadcastExcept 發送給除指定連接外的成員（調用方需持有 g.mu）
func (g *Game) broadcastExcept(room *Room, exclude ConnID, event Event) {
	for _, m := range room.Members() {
		if m == exclude {
			continue
		}
		g.sender.Send(m, event)
	}
}

// sendError 回報狀態錯誤給發起者
func (g *Game) sendError(conn ConnID, err error) {
	g.logger.Debug("操作被拒絕", "conn_id", conn, "reason", err)
	g.sender.Send(conn, Event{Type: EventError, Payload: err.Error()})
}

// sendVoteError 以投票狀態更新的形式回報錯誤
func (g *Game) sendVoteError(conn ConnID, err error) {
	msg := "無法發起重賽。"
	switch {
	case errors.Is(err, ErrRoomNotFound):
		msg = "找不到可重賽的房間。"
	case errors.Is(err, ErrNoOpponent):
		msg = "沒有可重賽的對手。"
	}
	g.sender.Send(conn, Event{
		Type:    EventRematchVoteUpdate,
		Payload: RematchVotePayload{Type: VoteError, Message: msg},
	})
}
