package config

import (
	_ "embed"
	"time"
)

//go:embed param_default.yaml
var ParamDefaultFile []byte

type ServerParam struct {
	BaseAddress        uint64 `yaml:"base_address"`
	TickMs             int64  `yaml:"tick_ms"`
	HandshakeTimeoutMs int64  `yaml:"handshake_timeout_ms"`
	SimBusyPolls       int    `yaml:"sim_busy_polls"`
	PowerOnDelayMs     int64  `yaml:"power_on_delay_ms"`
	ReceiveTimeoutMs   int64  `yaml:"receive_timeout_ms"`
	Animations         string `yaml:"animations"`
	MirrorColumns      bool   `yaml:"mirror_columns"`
	Preview            bool   `yaml:"preview"`

	ConvertParam  ConvertParam    `yaml:"convert"`
	ApiParam      ApiParam        `yaml:"api"`
	Schedule      []ScheduleEntry `yaml:"schedule"`
	NextButtonPin string          `yaml:"next_button_pin"`
}

type ConvertParam struct {
	Invert  bool  `yaml:"invert"`
	Mirror  bool  `yaml:"mirror"`
	FrameMs int64 `yaml:"frame_ms"`
}

type ApiParam struct {
	Enabled bool   `yaml:"enabled"`
	SslPort int64  `yaml:"ssl_port"`
	ApiKey  string `yaml:"api_key"`
}

// ScheduleEntry selects Animation, by name, each time Cron matches.
type ScheduleEntry struct {
	Cron      string `yaml:"cron"`
	Animation string `yaml:"animation"`
}

func (sp *ServerParam) Tick() time.Duration {
	return time.Duration(sp.TickMs) * time.Millisecond
}

func (sp *ServerParam) HandshakeTimeout() time.Duration {
	return time.Duration(sp.HandshakeTimeoutMs) * time.Millisecond
}

func (sp *ServerParam) PowerOnDelay() time.Duration {
	return time.Duration(sp.PowerOnDelayMs) * time.Millisecond
}

func (sp *ServerParam) ReceiveTimeout() time.Duration {
	return time.Duration(sp.ReceiveTimeoutMs) * time.Millisecond
}
