package internal

import "encoding/json"

// 協議設計：
//   客戶端與服務器之間通過 WebSocket 交換 JSON 事件，
//   統一使用 {type, payload} 信封格式。
//
//   入站（客戶端 → 服務器）：
//     createRoom / joinRoom / playerState / shoot / hit / gameOver / requestRematch
//   出站（服務器 → 客戶端）：
//     roomCreated / roomJoined / playerJoined / gameStart / opponentState /
//     opponentShoot / hitRegistered / gameEnded / opponentDisconnected /
//     error / rematchVoteUpdate
//
//   遊戲事件（playerState、shoot、hit、gameOver）的 payload 對服務器而言
//   是不透明的：服務器只負責轉發，不驗證、不解釋內容。
//   狀態完全由客戶端權威（無反作弊），服務器僅作中繼。

// 入站事件類型
const (
	EventCreateRoom     = "createRoom"
	EventJoinRoom       = "joinRoom"
	EventPlayerState    = "playerState"
	EventShoot          = "shoot"
	EventHit            = "hit"
	EventGameOver       = "gameOver"
	EventRequestRematch = "requestRematch"
)

// 出站事件類型
const (
	EventRoomCreated          = "roomCreated"
	EventRoomJoined           = "roomJoined"
	EventPlayerJoined         = "playerJoined"
	EventGameStart            = "gameStart"
	EventOpponentState        = "opponentState"
	EventOpponentShoot        = "opponentShoot"
	EventHitRegistered        = "hitRegistered"
	EventGameEnded            = "gameEnded"
	EventOpponentDisconnected = "opponentDisconnected"
	EventError                = "error"
	EventRematchVoteUpdate    = "rematchVoteUpdate"
)

// 投票狀態更新子類型
const (
	VoteWaiting       = "waiting"
	VoteOpponentVoted = "opponent-voted"
	VoteAccepted      = "accepted"
	VoteError         = "error"
)

// Envelope 入站事件信封
//
// payload 保留為原始 JSON，由各處理函數按需解碼；
// 轉發類事件（playerState 等）則原樣透傳，不做解碼。
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event 出站事件
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// JoinRoomPayload 加入房間請求
type JoinRoomPayload struct {
	RoomCode string `json:"roomCode"`
}

// RoomAssignedPayload roomCreated / roomJoined 的回應
//
// playerId 即槽位：創建者固定為 1，加入者固定為 2。
type RoomAssignedPayload struct {
	RoomCode string `json:"roomCode"`
	PlayerID int    `json:"playerId"`
}

// RematchVotePayload 投票狀態更新
type RematchVotePayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
