package xray

// Document is the full Xray daemon configuration this tool emits. Field
// names, nesting and the inbound/outbound/rule list orders are the
// compatibility surface the daemon depends on; none of them may be
// renamed or reordered.
type Document struct {
	Log       Log        `json:"log"`
	Stats     Stats      `json:"stats"`
	Policy    Policy     `json:"policy"`
	API       API        `json:"api"`
	Inbounds  []Inbound  `json:"inbounds"`
	Outbounds []Outbound `json:"outbounds"`
	Routing   Routing    `json:"routing"`
}

type Log struct {
	Access   string `json:"access"`
	Error    string `json:"error"`
	LogLevel string `json:"loglevel"`
	DNSLog   bool   `json:"dnsLog"`
}

// Stats enables the stats subsystem; the daemon wants an empty object.
type Stats struct{}

type Policy struct {
	Levels map[string]LevelPolicy `json:"levels"`
	System SystemPolicy           `json:"system"`
}

type LevelPolicy struct {
	StatsUserUplink   bool `json:"statsUserUplink"`
	StatsUserDownlink bool `json:"statsUserDownlink"`
}

type SystemPolicy struct {
	StatsOutboundUplink   bool `json:"statsOutboundUplink"`
	StatsOutboundDownlink bool `json:"statsOutboundDownlink"`
}

type API struct {
	Tag      string   `json:"tag"`
	Services []string `json:"services"`
}

type Inbound struct {
	Tag      string          `json:"tag"`
	Port     int             `json:"port"`
	Listen   string          `json:"listen"`
	Protocol string          `json:"protocol"`
	Sniffing Sniffing        `json:"sniffing"`
	Settings InboundSettings `json:"settings"`
}

type Sniffing struct {
	Enabled      bool     `json:"enabled"`
	DestOverride []string `json:"destOverride"`
	RouteOnly    bool     `json:"routeOnly"`
}

type InboundSettings struct {
	Auth string `json:"auth"`
	UDP  bool   `json:"udp"`
}

type Outbound struct {
	Tag            string            `json:"tag"`
	Protocol       string            `json:"protocol"`
	Settings       *OutboundSettings `json:"settings,omitempty"`
	StreamSettings *StreamSettings   `json:"streamSettings,omitempty"`
}

type OutboundSettings struct {
	Vnext []Vnext `json:"vnext,omitempty"`
}

type Vnext struct {
	Address string `json:"address"`
	Port    int    `json:"port"`
	Users   []User `json:"users"`
}

type User struct {
	ID         string `json:"id"`
	Encryption string `json:"encryption"`
	Flow       string `json:"flow"`
}

type StreamSettings struct {
	Network         string          `json:"network"`
	Security        string          `json:"security"`
	RealitySettings RealitySettings `json:"realitySettings"`
}

type RealitySettings struct {
	Fingerprint string `json:"fingerprint"`
	ServerName  string `json:"serverName"`
	Show        bool   `json:"show"`
	PublicKey   string `json:"publicKey"`
	ShortID     string `json:"shortId"`
}

type Routing struct {
	DomainStrategy string `json:"domainStrategy"`
	Rules          []Rule `json:"rules"`
}

// Rule covers every matcher shape the fixed rule list uses; unused
// matchers stay off the wire via omitempty.
type Rule struct {
	Type        string   `json:"type"`
	InboundTag  []string `json:"inboundTag,omitempty"`
	IP          []string `json:"ip,omitempty"`
	Protocol    []string `json:"protocol,omitempty"`
	Port        string   `json:"port,omitempty"`
	SourcePort  string   `json:"sourcePort,omitempty"`
	Domain      []string `json:"domain,omitempty"`
	OutboundTag string   `json:"outboundTag"`
}
