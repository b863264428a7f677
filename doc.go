// Package arenarelay 提供了一個雙人即時對戰的中繼服務器。
//
// 每個客戶端在本地模擬物理，並把權威狀態廣播給中繼服務器，
// 由服務器轉發給配對的對手。服務器不跑物理、不驗證命中，
// 正確性風險集中在房間協調與重賽投票協議上。
//
// 房間生命週期
//
// 提供完整的房間協調能力：
//   - 6 位代碼創建與加入房間
//   - 加入順序決定玩家槽位（先進為 1 號）
//   - 配對成功後延遲開局廣播
//   - 任一成員斷線即銷毀房間並通知對方
//
// # 事件中繼
//
// 四類遊戲事件在兩名成員之間不加解釋地轉發：
//   - playerState / shoot：點對點，排除發送者
//   - hit / gameOver：全房間廣播（含發送者）
//
// 重賽投票
//
// 兩方共識協議：雙方都投下贊成票後，廣播成立通知、
// 清空票集並延遲重新開局；找不到房間或沒有對手時
// 只通知發起者錯誤。投票集合在每次開局與每次對局
// 結束時清空，殘留票不會影響下一輪。
//
// 併發模型
//
// 所有入站事件經由協調器的單一互斥鎖序列化處理：
//   - 每個事件處理到完成，期間不與其他事件交錯
//   - 註冊表與房間因此無需自帶鎖
//   - 延遲開局回調重入鎖並確認房間仍然存在
//
// 使用範例
//
// 啟動服務器：
//
//	hub := internal.NewHub(logger)
//	game := internal.NewGame(hub, logger, time.Second)
//	hub.Attach(game)
//
//	http.HandleFunc("/ws", hub.ServeWS)
//	log.Fatal(http.ListenAndServe(":3000", nil))
//
// 架構設計
//
// 系統採用分層架構設計：
//   - Hub 層：WebSocket 連接管理與事件分發
//   - Game 層：房間生命週期、中繼與投票協調
//   - Registry 層：房間存儲與雙向索引
//   - Room 層：單個房間的狀態機與投票集合
//
// 配置選項
//
// 支援多種運行時配置：
//   - PORT：服務監聽端口（預設 3000）
//   - log_level / log_format：日誌級別與格式
//   - start_delay：配對到開局的延遲（預設 1 秒）
package arenarelay
