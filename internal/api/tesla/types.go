package tesla

import "time"

// Token 认证令牌，序列化形式即凭据存储中的持久化格式
type Token struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	CreatedAt    int64  `json:"created_at"` // Unix 秒
}

// IsExpired 检查 token 是否过期
func (t *Token) IsExpired(now time.Time) bool {
	return now.After(time.Unix(t.CreatedAt, 0).Add(time.Duration(t.ExpiresIn) * time.Second))
}

// Vehicle 车辆列表中的车辆摘要
type Vehicle struct {
	ID              int64    `json:"id"`
	VehicleID       int64    `json:"vehicle_id"`
	VIN             string   `json:"vin"`
	DisplayName     *string  `json:"display_name"`
	OptionCodes     string   `json:"option_codes"`
	AccessType      string   `json:"access_type"`
	Tokens          []string `json:"tokens"`
	State           string   `json:"state"` // online, asleep, offline
	InService       bool     `json:"in_service"`
	IDS             string   `json:"id_s"`
	CalendarEnabled bool     `json:"calendar_enabled"`
	APIVersion      int      `json:"api_version"`
}

// Name 返回显示名称，未命名时返回空字符串
func (v Vehicle) Name() string {
	if v.DisplayName == nil {
		return ""
	}
	return *v.DisplayName
}

// VehiclesResponse GET /api/1/vehicles 的响应
type VehiclesResponse struct {
	Vehicles []Vehicle `json:"response"`
	Count    int       `json:"count"`
}

// VehicleDetail 车辆完整数据
type VehicleDetail struct {
	ID              int64        `json:"id"`
	UserID          int64        `json:"user_id"`
	VehicleID       int64        `json:"vehicle_id"`
	VIN             string       `json:"vin"`
	DisplayName     *string      `json:"display_name"`
	OptionCodes     string       `json:"option_codes"`
	AccessType      string       `json:"access_type"`
	Tokens          []string     `json:"tokens"`
	State           string       `json:"state"`
	InService       bool         `json:"in_service"`
	IDS             string       `json:"id_s"`
	CalendarEnabled bool         `json:"calendar_enabled"`
	APIVersion      int          `json:"api_version"`
	VehicleState    VehicleState `json:"vehicle_state"`
}

// VehicleState 车辆状态
type VehicleState struct {
	APIVersion               int     `json:"api_version"`
	AutoparkStateV3          string  `json:"autopark_state_v3"`
	AutoparkStyle            string  `json:"autopark_style"`
	CalendarSupported        bool    `json:"calendar_supported"`
	CarVersion               string  `json:"car_version"`
	CenterDisplayState       int     `json:"center_display_state"`
	DriverFront              int     `json:"df"` // 驾驶侧前门
	DriverRear               int     `json:"dr"` // 驾驶侧后门
	DriverFrontWindow        int     `json:"fd_window"`
	PassengerFrontWindow     int     `json:"fp_window"`
	FrontTrunk               int     `json:"ft"`
	IsUserPresent            bool    `json:"is_user_present"`
	LastAutoparkError        string  `json:"last_autopark_error"`
	Locked                   bool    `json:"locked"`
	NotificationsSupported   bool    `json:"notifications_supported"`
	Odometer                 float64 `json:"odometer"` // 英里
	ParsedCalendarSupported  bool    `json:"parsed_calendar_supported"`
	PassengerFront           int     `json:"pf"` // 副驾侧前门
	PassengerRear            int     `json:"pr"` // 副驾侧后门
	DriverRearWindow         int     `json:"rd_window"`
	RemoteStart              bool    `json:"remote_start"`
	RemoteStartEnabled       bool    `json:"remote_start_enabled"`
	RemoteStartSupported     bool    `json:"remote_start_supported"`
	PassengerRearWindow      int     `json:"rp_window"`
	RearTrunk                int     `json:"rt"`
	SentryMode               bool    `json:"sentry_mode"`
	SentryModeAvailable      bool    `json:"sentry_mode_available"`
	SmartSummonAvailable     bool    `json:"smart_summon_available"`
	SummonStandbyModeEnabled bool    `json:"summon_standby_mode_enabled"`
	Timestamp                int64   `json:"timestamp"` // 毫秒
	ValetMode                bool    `json:"valet_mode"`
	ValetPinNeeded           bool    `json:"valet_pin_needed"`
	VehicleName              *string `json:"vehicle_name"`
}

// VehicleDataResponse GET /api/1/vehicles/{id}/vehicle_data 的响应
type VehicleDataResponse struct {
	Response VehicleDetail `json:"response"`
}

// CommandResult 命令执行结果
type CommandResult struct {
	Result bool   `json:"result"`
	Reason string `json:"reason"`
}

// CommandResponse 命令接口的响应
type CommandResponse struct {
	Response CommandResult `json:"response"`
}

// ErrorEnvelope 服务端逻辑错误的响应体
type ErrorEnvelope struct {
	Message string `json:"error"`
}

// Helper functions

// MilesToKm 英里转公里
func MilesToKm(miles float64) float64 {
	return miles * 1.60934
}
