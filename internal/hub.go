package internal

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// 系統設計問題：
//   如何把按連接有序的雙向消息通道，接到房間協調邏輯上？
//
// 核心挑戰：
//   1. 連接身份：每個連接需要一個不透明標識，作為成員與投票的鍵
//   2. 心跳機制：檢測死連接（網絡異常、客戶端崩潰）
//   3. 異步發送：業務邏輯不能被慢客戶端阻塞
//   4. 斷線語義：讀循環退出必須恰好觸發一次 Game.Disconnect
//
// 設計方案：
//   ✅ Hub 模式 - 集中管理所有連接
//   ✅ UUID 連接標識 - 升級成功時分配，對協調邏輯完全不透明
//   ✅ Ping/Pong 心跳 - 檢測死連接（54s/60s）
//   ✅ 緩衝 channel - 異步發送，滿了直接丟棄（即發即棄）

// Hub WebSocket 連接中心
//
// 實現 Game 所需的 Sender 接口：按連接標識定位並即發即棄地投遞。
// 連接映射與房間無關：房間成員關係由 Game 維護，
// Hub 只負責「標識 → 連接」這一層。
type Hub struct {
	game        *Game
	logger      *slog.Logger
	upgrader    websocket.Upgrader
	connections map[ConnID]*Connection
	mu          sync.RWMutex
}

// Connection WebSocket 連接
type Connection struct {
	ID        ConnID
	Conn      *websocket.Conn
	Send      chan []byte
	hub       *Hub
	closeOnce sync.Once // 確保 channel 只關閉一次
}

// NewHub 創建 WebSocket Hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// 在生產環境應該檢查來源
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[ConnID]*Connection),
	}
}

// Attach 綁定房間協調器
//
// Hub 與 Game 互相引用（Game 經 Sender 發送、Hub 分發入站事件），
// 因此在兩者都構造完成後再綁定。
func (hub *Hub) Attach(game *Game) {
	hub.game = game
}

// ServeWS 處理 WebSocket 連接
//
// 升級成功即分配連接標識；此後該連接的全部入站事件
// 都以這個標識作為成員與投票的鍵。
func (hub *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := hub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Error("升級 WebSocket 失敗", "error", err)
		return
	}

	connection := &Connection{
		ID:   ConnID(uuid.NewString()),
		Conn: conn,
		Send: make(chan []byte, 256),
		hub:  hub,
	}

	hub.register(connection)

	go connection.writePump()
	go connection.readPump()

	hub.logger.Info("WebSocket 連接建立", "conn_id", connection.ID)
}

// Send 實現 Sender：向指定連接投遞出站事件
//
// 序列化失敗或連接不存在都只記錄日誌；
// 緩衝區滿時丟棄（慢客戶端不得拖累協調邏輯）。
func (hub *Hub) Send(conn ConnID, event Event) {
	message, err := json.Marshal(event)
	if err != nil {
		hub.logger.Error("序列化事件失敗", "error", err, "event", event.Type)
		return
	}

	hub.mu.RLock()
	c, ok := hub.connections[conn]
	hub.mu.RUnlock()
	if !ok {
		return
	}

	select {
	case c.Send <- message:
	default:
		hub.logger.Warn("連接緩衝區滿，事件被丟棄",
			"conn_id", conn,
			"event", event.Type)
	}
}

// register 註冊連接
func (hub *Hub) register(conn *Connection) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	hub.connections[conn.ID] = conn
}

// unregister 取消註冊連接
func (hub *Hub) unregister(conn *Connection) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	if actual, ok := hub.connections[conn.ID]; ok && actual == conn {
		delete(hub.connections, conn.ID)
		conn.closeOnce.Do(func() {
			close(conn.Send)
		})
	}
}

// ConnectionCount 獲取連接數
func (hub *Hub) ConnectionCount() int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.connections)
}

// Stop 停止 Hub，關閉所有連接
func (hub *Hub) Stop() {
	hub.mu.Lock()
	for _, conn := range hub.connections {
		// 先關閉 Send channel，再關閉連接
		conn.closeOnce.Do(func() {
			close(conn.Send)
		})
		conn.Conn.Close()
	}
	hub.connections = make(map[ConnID]*Connection)
	hub.mu.Unlock()

	hub.logger.Info("WebSocket Hub 已停止")
}

// readPump 讀取客戶端消息
//
// 心跳機制（讀取端）：60 秒讀超時，收到 Pong 即重置。
// 配合 writePump 的 54 秒 Ping（留 6 秒余量）。
//
// 斷線語義：循環退出（讀錯誤、對端關閉、超時）時
// 恰好觸發一次 Game.Disconnect，剩餘成員由此收到
// opponentDisconnected，房間隨之銷毀。
func (c *Connection) readPump() {
	defer func() {
		c.hub.game.Disconnect(c.ID)
		c.hub.unregister(c)
		c.Conn.Close()
	}()

	if err := c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
		c.hub.logger.Error("設置讀取期限失敗", "error", err)
	}

	c.Conn.SetPongHandler(func(string) error {
		if err := c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
			c.hub.logger.Error("設置讀取期限失敗", "error", err)
		}
		return nil
	})

	for {
		messageType, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Error("WebSocket 讀取錯誤",
					"error", err,
					"conn_id", c.ID)
			}
			break
		}

		if messageType == websocket.TextMessage {
			c.hub.dispatch(c.ID, message)
		}
	}
}

// writePump 寫入消息到客戶端
//
// 心跳機制（發送端）：54 秒 Ping 間隔，避開常見的 60 秒
// 代理超時閾值；寫操作帶 10 秒期限。
func (c *Connection) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
				c.hub.logger.Error("設置寫入期限失敗", "error", err)
			}
			if !ok {
				// Hub 關閉了通道，優雅關閉連接
				deadline := time.Now().Add(time.Second)
				if err := c.Conn.SetWriteDeadline(deadline); err == nil {
					_ = c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				}
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			// 批量發送隊列中的消息
			n := len(c.Send)
			for i := 0; i < n; i++ {
				if err := c.Conn.WriteMessage(websocket.TextMessage, <-c.Send); err != nil {
					c.hub.logger.Error("發送消息失敗", "error", err)
					return
				}
			}

		case <-ticker.C:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
				c.hub.logger.Error("設置寫入期限失敗", "error", err)
			}
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch 分發入站事件到協調邏輯
//
// 格式錯誤的消息只記錄日誌並丟棄，連接保持打開：
// 載荷內容本就不做驗證（客戶端權威的信任模型）。
func (hub *Hub) dispatch(conn ConnID, message []byte) {
	var env Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		hub.logger.Error("解析客戶端消息失敗",
			"error", err,
			"conn_id", conn)
		return
	}

	switch env.Type {
	case EventCreateRoom:
		hub.game.CreateRoom(conn)

	case EventJoinRoom:
		var p JoinRoomPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			hub.logger.Error("解析加入請求失敗", "error", err, "conn_id", conn)
			return
		}
		hub.game.JoinRoom(conn, p.RoomCode)

	case EventPlayerState:
		hub.game.RelayState(conn, env.Payload)

	case EventShoot:
		hub.game.RelayShoot(conn, env.Payload)

	case EventHit:
		hub.game.RelayHit(conn, env.Payload)

	case EventGameOver:
		hub.game.GameOver(conn, env.Payload)

	case EventRequestRematch:
		hub.game.RequestRematch(conn)

	default:
		hub.logger.Debug("收到未知消息類型",
			"type", env.Type,
			"conn_id", conn)
	}
}
