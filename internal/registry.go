package internal

import (
	"crypto/rand"
	"time"
)

// Registry 房間註冊表
//
// 進程內唯一的房間存儲，是配對與投票的單一事實來源。
//
// 系統設計考量：
//
//  1. 雙向索引：
//     rooms:      roomCode → Room（按代碼查找，加入房間用）
//     memberRoom: connID → roomCode（按成員查找，轉發與斷線用）
//     反向索引讓 FindByMember 為 O(1)，避免線性掃描全部房間
//
//  2. 代碼碰撞：
//     6 位 A–Z0–9 代碼共 36^6 ≈ 22 億種組合，碰撞概率極低但非零。
//     若不檢查碰撞，新代碼會靜默覆蓋同名的活躍房間，
//     因此 generateCode 產生後查表，被佔用即重抽。
//
//  3. 併發約定：
//     Registry 不帶鎖，與 Room 一樣只能在 Game 的互斥鎖下存取。
//     所有入站事件由同一持有點序列化，等價於單線程事件分發。
type Registry struct {
	rooms      map[string]*Room
	memberRoom map[ConnID]string

	// 代碼抽取函數，測試中可替換為確定性序列
	newCode func() string
}

// NewRegistry 創建空的註冊表
func NewRegistry() *Registry {
	return &Registry{
		rooms:      make(map[string]*Room),
		memberRoom: make(map[ConnID]string),
		newCode:    randomCode,
	}
}

// Create 分配新代碼並創建單成員房間
func (reg *Registry) Create(creator ConnID) (*Room, error) {
	if _, ok := reg.memberRoom[creator]; ok {
		return nil, ErrAlreadyInRoom
	}

	code := reg.generateCode()
	room := NewRoom(code, creator)
	reg.rooms[code] = room
	reg.memberRoom[creator] = code
	return room, nil
}

// Lookup 按代碼查找房間
func (reg *Registry) Lookup(code string) (*Room, bool) {
	room, ok := reg.rooms[code]
	return room, ok
}

// FindByMember 按成員查找房間
func (reg *Registry) FindByMember(conn ConnID) (*Room, bool) {
	code, ok := reg.memberRoom[conn]
	if !ok {
		return nil, false
	}
	room, ok := reg.rooms[code]
	return room, ok
}

// Join 將連接加入指定代碼的房間，返回槽位
func (reg *Registry) Join(code string, conn ConnID) (*Room, int, error) {
	if _, ok := reg.memberRoom[conn]; ok {
		return nil, 0, ErrAlreadyInRoom
	}

	room, ok := reg.rooms[code]
	if !ok {
		return nil, 0, ErrRoomNotFound
	}

	slot, err := room.AddMember(conn)
	if err != nil {
		return nil, 0, err
	}

	reg.memberRoom[conn] = code
	return room, slot, nil
}

// Remove 銷毀房間並解除全部成員的歸屬
func (reg *Registry) Remove(code string) {
	room, ok := reg.rooms[code]
	if !ok {
		return
	}

	for _, m := range room.Members() {
		delete(reg.memberRoom, m)
	}
	room.Close()
	delete(reg.rooms, code)
}

// Count 返回活躍房間數
func (reg *Registry) Count() int {
	return len(reg.rooms)
}

// Snapshot 返回各狀態的房間數與總成員數（供統計端點使用）
func (reg *Registry) Snapshot() (byState map[RoomState]int, totalMembers int) {
	byState = make(map[RoomState]int)
	for _, room := range reg.rooms {
		byState[room.State()]++
		totalMembers += room.MemberCount()
	}
	return byState, totalMembers
}

// 代碼字符集：大寫字母加數字，方便口頭傳達
const codeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// 代碼長度固定 6 位
const codeLength = 6

// generateCode 生成未被佔用的房間代碼
//
// 代碼空間 36^6 遠大於活躍房間數，碰撞即重抽，
// 循環在實際負載下立即返回，且代碼格式始終保持 6 位。
func (reg *Registry) generateCode() string {
	for {
		code := reg.newCode()
		if _, taken := reg.rooms[code]; !taken {
			return code
		}
	}
}

// randomCode 生成一個 6 位隨機代碼
func randomCode() string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeChars[randInt(len(codeChars))]
	}
	return string(b)
}

// randInt 生成 [0, max) 的隨機數
func randInt(max int) int {
	b := make([]byte, 1)
	if _, err := rand.Read(b); err != nil {
		// 隨機讀取失敗時退回時間作為隨機源
		return int(time.Now().UnixNano()) % max
	}
	return int(b[0]) % max
}
