package tesla

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/langchou/teslaowner/internal/state"
)

// Client Tesla Owner API 客户端
type Client struct {
	httpClient *http.Client
	apiHost    string
	creds      ClientCredentials
	tokens     TokenStore
	metrics    *Metrics
	logger     *zap.Logger
}

// Option 客户端选项
type Option func(*Client)

// WithHTTPClient 使用自定义 HTTP 客户端
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTokenStore 使用外部令牌存储
func WithTokenStore(store TokenStore) Option {
	return func(c *Client) {
		c.tokens = store
	}
}

// WithMetrics 记录请求指标
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient 创建新的 Tesla API 客户端
func NewClient(apiHost string, creds ClientCredentials, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiHost: strings.TrimSuffix(apiHost, "/"),
		creds:   creds,
		tokens:  NewMemoryTokenStore(),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken 设置认证令牌，nil 表示登出
func (c *Client) SetToken(token *Token) {
	c.tokens.SetToken(token)
}

// Token 获取当前令牌
func (c *Client) Token() *Token {
	return c.tokens.Token()
}

// GetToken 使用邮箱和密码获取令牌，成功后写入令牌存储
func (c *Client) GetToken(ctx context.Context, email, password string) (*Token, error) {
	token, err := perform(ctx, c, GetTokenEndpoint(c.creds, email, password), func(t Token) *Token {
		return &t
	})
	if err != nil {
		return nil, err
	}
	c.tokens.SetToken(token)
	return token, nil
}

// GetVehicles 获取车辆列表
func (c *Client) GetVehicles(ctx context.Context) ([]Vehicle, error) {
	return perform(ctx, c, GetVehiclesEndpoint(), func(r VehiclesResponse) []Vehicle {
		return r.Vehicles
	})
}

// GetVehicle 获取车辆完整数据
func (c *Client) GetVehicle(ctx context.Context, id int64) (*VehicleDetail, error) {
	return perform(ctx, c, GetVehicleDataEndpoint(id), func(r VehicleDataResponse) *VehicleDetail {
		return &r.Response
	})
}

// Execute 执行远程命令，返回车辆是否接受
func (c *Client) Execute(ctx context.Context, command Command, id int64) (bool, error) {
	ep, err := command.Endpoint(id)
	if err != nil {
		return false, err
	}
	return perform(ctx, c, ep, func(r CommandResponse) bool {
		return r.Response.Result
	})
}

// perform 执行一次类型化请求：构造、发送、解码、投影
func perform[T, R any](ctx context.Context, c *Client, ep Endpoint, project func(T) R) (R, error) {
	var zero R

	logger := c.logger.With(
		zap.String("request_id", uuid.NewString()),
		zap.String("endpoint", ep.Name),
	)
	machine := state.NewRequestMachine(func(from, to string) {
		logger.Debug("Request state changed", zap.String("from", from), zap.String("to", to))
	})
	start := time.Now()
	finish := func(event, outcome string) {
		if err := machine.Trigger(event); err != nil {
			logger.Warn("Invalid request transition", zap.Error(err))
		}
		c.metrics.observe(ep.Name, outcome, time.Since(start))
	}

	req, err := buildRequest(ctx, c.apiHost, ep, c.tokens.Token())
	if err != nil {
		logger.Debug("Request not built", zap.Error(err))
		c.metrics.observe(ep.Name, KindOf(err).String(), time.Since(start))
		return zero, err
	}

	if err := machine.Trigger(state.EventSend); err != nil {
		return zero, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		finish(state.EventTransportFail, KindNetwork.String())
		logger.Warn("Request failed", zap.Error(err))
		return zero, &Error{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		finish(state.EventTransportFail, KindNetwork.String())
		logger.Warn("Read response body failed", zap.Error(err))
		return zero, &Error{Kind: KindNetwork, Err: fmt.Errorf("read response body: %w", err)}
	}

	value, envelope, err := decodeEnvelope[T](body)
	switch {
	case err != nil:
		finish(state.EventDecodeFail, KindDecoding.String())
		logger.Warn("Response matched neither success nor error shape",
			zap.Int("status", resp.StatusCode),
			zap.Error(err),
		)
		return zero, err
	case envelope != nil:
		finish(state.EventDecodeError, KindServer.String())
		logger.Info("Server returned error",
			zap.Int("status", resp.StatusCode),
			zap.String("message", envelope.Message),
		)
		return zero, ServerError(envelope.Message)
	}

	finish(state.EventDecodeSuccess, "success")
	return project(value), nil
}
