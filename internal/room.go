package internal

// 系統設計問題：
//   如何管理雙人對戰房間的生命週期，並在其上實現兩方一致的重賽投票？
//
// 核心挑戰：
//   1. 狀態管理：房間有明確的狀態轉換（等待 → 配對 → 對戰 → 結束）
//   2. 槽位分配：玩家編號由加入順序決定，房間存續期間不變
//   3. 兩方共識：雙方都投票後才能重開對局，投票集合需在每次開局與結束時清空
//   4. 斷線處理：任一成員斷線即銷毀房間，另一方收到通知後回到選單
//
// 設計方案：
//   ✅ 有限狀態機（FSM）- 顯式枚舉狀態，拒絕非法轉換
//   ✅ 有序成員序列 - 加入順序即槽位（先進為 1 號）
//   ✅ 集合語義投票 - 重複投票不會重複計數
//   ✅ 單一持有點 - 所有變更經由 Game 的互斥鎖序列化

// RoomState 房間狀態
//
// 有限狀態機設計：
//
//	waiting → pairing → active → game_over
//	             ↑_________________↓  （重賽成立）
//	任何狀態 → closed（成員斷線）
//
// 狀態轉換規則：
//   - waiting → pairing：第二位玩家加入
//   - pairing → active：延遲開局廣播送出（gameStart）
//   - active → game_over：任一客戶端回報勝者
//   - game_over → active：雙方投票重賽成立，再次延遲開局
//   - 任何狀態 → closed：任一成員斷線，房間整體銷毀
//
// 為什麼需要狀態機？
//   - 用散落的布林值隱式編碼狀態容易產生非法組合；
//     顯式枚舉讓非法狀態（如已關閉房間上投票）可被拒絕
type RoomState string

const (
	StateWaiting  RoomState = "waiting"   // 只有創建者，等待對手
	StatePairing  RoomState = "pairing"   // 兩人到齊，開局廣播待發
	StateActive   RoomState = "active"    // 對局進行中
	StateGameOver RoomState = "game_over" // 勝者已回報，可發起重賽
	StateClosed   RoomState = "closed"    // 房間已銷毀（終態）
)

// ConnID 連接標識
//
// 由傳輸層（WebSocket Hub）在連接建立時分配。
// 服務器端不存在獨立的玩家物件：只追蹤連接標識與房間成員關係，
// 遊戲狀態（位置、分數、命中）完全存活在客戶端。
type ConnID string

// 每房間固定兩名成員
const maxMembers = 2

// Room 對戰房間
//
// 併發約定：Room 本身不帶鎖。所有房間的查詢與變更都必須
// 在 Game 的互斥鎖之下進行（單一持有點），使每個入站事件
// 處理到完成為止不會與其他事件交錯。
type Room struct {
	// Code 房間代碼，創建後不可變
	Code string

	// members 有序成員序列，加入順序決定槽位（索引 0 → 1 號玩家）
	members []ConnID

	// state 當前狀態
	state RoomState

	// rematchVotes 本輪重賽的贊成票集合，恆為 members 的子集；
	// 每次開局與每次對局結束時清空
	rematchVotes map[ConnID]struct{}
}

// NewRoom 創建房間，創建者佔據 1 號槽位
func NewRoom(code string, creator ConnID) *Room {
	return &Room{
		Code:         code,
		members:      []ConnID{creator},
		state:        StateWaiting,
		rematchVotes: make(map[ConnID]struct{}),
	}
}

// AddMember 加入第二位玩家，返回其槽位
//
// 滿員返回 ErrRoomFull，且不改動成員序列。
// 成功後房間進入 pairing 狀態，等待延遲開局廣播。
func (r *Room) AddMember(conn ConnID) (int, error) {
	if len(r.members) >= maxMembers {
		return 0, ErrRoomFull
	}
	r.members = append(r.members, conn)
	if len(r.members) == maxMembers {
		r.state = StatePairing
	}
	return len(r.members), nil
}

// HasMember 檢查連接是否為房間成員
func (r *Room) HasMember(conn ConnID) bool {
	for _, m := range r.members {
		if m == conn {
			return true
		}
	}
	return false
}

// Slot 返回成員槽位（1 或 2），非成員返回 0
//
// 槽位由加入順序唯一決定，房間存續期間不變。
func (r *Room) Slot(conn ConnID) int {
	for i, m := range r.members {
		if m == conn {
			return i + 1
		}
	}
	return 0
}

// Opponent 返回對手的連接標識
func (r *Room) Opponent(conn ConnID) (ConnID, bool) {
	for _, m := range r.members {
		if m != conn {
			return m, true
		}
	}
	return "", false
}

// Members 返回成員序列的副本
func (r *Room) Members() []ConnID {
	out := make([]ConnID, len(r.members))
	copy(out, r.members)
	return out
}

// MemberCount 返回成員數量
func (r *Room) MemberCount() int {
	return len(r.members)
}

// State 返回當前狀態
func (r *Room) State() RoomState {
	return r.state
}

// Start 進入對局狀態
//
// 每次開局都清空投票集合：上一輪殘留的票不得影響下一輪共識。
func (r *Room) Start() {
	r.state = StateActive
	r.rematchVotes = make(map[ConnID]struct{})
}

// EndGame 對局結束（勝者已回報）
//
// 同樣清空投票集合（對局結束是新一輪投票的起點）。
func (r *Room) EndGame() {
	r.state = StateGameOver
	r.rematchVotes = make(map[ConnID]struct{})
}

// Close 關閉房間（終態）
func (r *Room) Close() {
	r.state = StateClosed
}

// Vote 記錄重賽贊成票，返回是否已達成全員共識
//
// 集合語義：同一成員重複投票不會重複計數。
// 共識條件是「當前所有成員」都已投票，而非固定兩票：
// 投票集合與成員集合綁定，保證 rematchVotes ⊆ members 恆成立。
func (r *Room) Vote(conn ConnID) bool {
	if !r.HasMember(conn) {
		return false
	}
	r.rematchVotes[conn] = struct{}{}
	for _, m := range r.members {
		if _, ok := r.rematchVotes[m]; !ok {
			return false
		}
	}
	return true
}

// ResetVotes 清空投票集合
func (r *Room) ResetVotes() {
	r.rematchVotes = make(map[ConnID]struct{})
}

// VoteCount 返回當前票數
func (r *Room) VoteCount() int {
	return len(r.rematchVotes)
}

// HasVoted 檢查成員是否已投票
func (r *Room) HasVoted(conn ConnID) bool {
	_, ok := r.rematchVotes[conn]
	return ok
}
