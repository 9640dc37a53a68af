package tesla

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// DefaultAPIHost Owner API 默认地址
const DefaultAPIHost = "https://owner-api.teslamotors.com"

// Params 请求参数，QueryParams 或 BodyParams
type Params interface {
	isParams()
}

// QueryParams 追加到 URL 的查询参数
type QueryParams map[string]string

// BodyParams 作为请求体发送的原始字节
type BodyParams []byte

func (QueryParams) isParams() {}
func (BodyParams) isParams()  {}

// Endpoint 单个 API 调用的静态描述
type Endpoint struct {
	Name         string // 日志与指标使用的短名称
	Path         string
	Method       string
	Params       Params
	RequiresAuth bool
	Headers      map[string]string
}

// ClientCredentials OAuth 客户端凭据，由配置提供
type ClientCredentials struct {
	ID     string
	Secret string
}

func newEndpoint(name, method, path string) Endpoint {
	return Endpoint{
		Name:         name,
		Path:         path,
		Method:       method,
		RequiresAuth: true,
		Headers:      map[string]string{"Content-Type": "application/json"},
	}
}

type tokenRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Email        string `json:"email"`
	Password     string `json:"password"`
}

// GetTokenEndpoint 密码方式获取令牌
func GetTokenEndpoint(creds ClientCredentials, email, password string) Endpoint {
	// 字符串字段的编码不会失败
	body, _ := json.Marshal(tokenRequest{
		GrantType:    "password",
		ClientID:     creds.ID,
		ClientSecret: creds.Secret,
		Email:        email,
		Password:     password,
	})

	ep := newEndpoint("get_token", http.MethodPost, "/oauth/token")
	ep.Params = BodyParams(body)
	ep.RequiresAuth = false
	return ep
}

// GetVehiclesEndpoint 车辆列表
func GetVehiclesEndpoint() Endpoint {
	return newEndpoint("get_vehicles", http.MethodGet, "/api/1/vehicles")
}

// GetVehicleDataEndpoint 车辆完整数据
func GetVehicleDataEndpoint(id int64) Endpoint {
	return newEndpoint("get_vehicle_data", http.MethodGet, fmt.Sprintf("/api/1/vehicles/%d/vehicle_data", id))
}

func commandEndpoint(id int64, command string) Endpoint {
	return newEndpoint(command, http.MethodPost, fmt.Sprintf("/api/1/vehicles/%d/command/%s", id, command))
}

// UnlockEndpoint 解锁车门
func UnlockEndpoint(id int64) Endpoint { return commandEndpoint(id, "door_unlock") }

// LockEndpoint 锁定车门
func LockEndpoint(id int64) Endpoint { return commandEndpoint(id, "door_lock") }

// HonkEndpoint 鸣笛
func HonkEndpoint(id int64) Endpoint { return commandEndpoint(id, "honk_horn") }

// FlashEndpoint 闪灯
func FlashEndpoint(id int64) Endpoint { return commandEndpoint(id, "flash_lights") }

func trunkEndpoint(id int64, which string) Endpoint {
	ep := commandEndpoint(id, "actuate_trunk")
	ep.Name = "actuate_trunk_" + which
	ep.Params = BodyParams(fmt.Sprintf(`{"which_trunk":%q}`, which))
	return ep
}

// ToggleTrunkEndpoint 开关后备箱
func ToggleTrunkEndpoint(id int64) Endpoint { return trunkEndpoint(id, "rear") }

// ToggleFrunkEndpoint 开关前备箱
func ToggleFrunkEndpoint(id int64) Endpoint { return trunkEndpoint(id, "front") }

// WakeEndpoint 唤醒车辆
func WakeEndpoint(id int64) Endpoint {
	return newEndpoint("wake_up", http.MethodPost, fmt.Sprintf("/api/1/vehicles/%d/wake_up", id))
}

// Command 远程命令
type Command string

const (
	CommandWake   Command = "wake"
	CommandFlash  Command = "flash"
	CommandHonk   Command = "honk"
	CommandLock   Command = "lock"
	CommandUnlock Command = "unlock"
	CommandTrunk  Command = "trunk"
	CommandFrunk  Command = "frunk"
)

// Commands 全部支持的命令
var Commands = []Command{CommandWake, CommandFlash, CommandHonk, CommandLock, CommandUnlock, CommandTrunk, CommandFrunk}

// ParseCommand 解析命令名称
func ParseCommand(s string) (Command, error) {
	for _, c := range Commands {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown command %q", s)
}

// Endpoint 返回命令对应的 API 端点
func (c Command) Endpoint(id int64) (Endpoint, error) {
	switch c {
	case CommandWake:
		return WakeEndpoint(id), nil
	case CommandFlash:
		return FlashEndpoint(id), nil
	case CommandHonk:
		return HonkEndpoint(id), nil
	case CommandLock:
		return LockEndpoint(id), nil
	case CommandUnlock:
		return UnlockEndpoint(id), nil
	case CommandTrunk:
		return ToggleTrunkEndpoint(id), nil
	case CommandFrunk:
		return ToggleFrunkEndpoint(id), nil
	default:
		return Endpoint{}, fmt.Errorf("unknown command %q", string(c))
	}
}
