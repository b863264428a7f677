package internal

import "errors"

// 錯誤分類（全部屬於用戶層面的狀態錯誤）：
//   - 只回報給發起操作的連接，永不中斷服務進程
//   - 斷線不是錯誤，而是生命週期的終態轉換
var (
	// ErrRoomNotFound 房間代碼無效或已失效
	ErrRoomNotFound = errors.New("房間不存在")

	// ErrRoomFull 房間已有兩名成員
	ErrRoomFull = errors.New("房間已滿")

	// ErrNoOpponent 配對前或對手離開後發起重賽
	ErrNoOpponent = errors.New("沒有可重賽的對手")

	// ErrAlreadyInRoom 連接已屬於某個房間
	//
	// 一個連接同時最多屬於一個房間；重複創建或加入
	// 會被顯式拒絕，維持成員關係的不變量。
	ErrAlreadyInRoom = errors.New("已在房間中")
)
