// internal/config/constants.go
package config

// アプリケーション情報
const (
	AppName    = "RoadmapKeep"
	AppVersion = "0.3.1"
)

// デフォルト設定値
const (
	DefaultServerPort           = ":8080"
	DefaultLogLevel             = "info"
	DefaultJWTExpirationMinutes = 60 * 24
	DefaultLLMModel             = "gpt-4o-mini"
	DefaultLLMTimeoutSeconds    = 90
	DefaultChatHistoryLimit     = 50
)

// 学習進捗まわりの固定ルール
const (
	XPPerQuizPass     = 100 // クイズ合格1回ごとに付与 (再合格でも毎回付与する仕様)
	XPPerLevel        = 500 // level = xp/500 + 1
	QuizQuestionCount = 5   // LLMに生成させる問題数
)
